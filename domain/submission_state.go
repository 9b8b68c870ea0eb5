package domain

type SubmissionState string

const (
	SubmissionNotStarted SubmissionState = "NOT_STARTED"
	SubmissionValidating SubmissionState = "VALIDATING"
	SubmissionSubmitting SubmissionState = "SUBMITTING"
	SubmissionConfirmed  SubmissionState = "CONFIRMED"
	SubmissionRejected   SubmissionState = "REJECTED"
	SubmissionFailed     SubmissionState = "FAILED"
)

var submissionTransitions = map[SubmissionState][]SubmissionState{
	SubmissionNotStarted: {SubmissionValidating},
	SubmissionValidating: {SubmissionRejected, SubmissionSubmitting},
	SubmissionSubmitting: {SubmissionConfirmed, SubmissionFailed},
}

func (s SubmissionState) IsTerminal() bool {
	return s == SubmissionConfirmed || s == SubmissionRejected || s == SubmissionFailed
}

func (s SubmissionState) String() string {
	return string(s)
}

func CanTransitionTo(from, to SubmissionState) bool {
	for _, next := range submissionTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
