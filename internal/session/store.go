package session

import (
	"context"
	"errors"
)

// Store persists session state between requests.
type Store interface {
	Get(ctx context.Context, id string) (*State, error)
	Set(ctx context.Context, state *State) error
	Delete(ctx context.Context, id string) error
}

var ErrSessionNotFound = errors.New("session not found")
