package cache

import (
	"context"

	"github.com/notekeeper/apiserver/types"
)

// NoteCache caches each user's note list.
type NoteCache interface {
	// GetNotes returns the cached list and whether it was present.
	GetNotes(ctx context.Context, userID string) ([]types.Note, bool, error)
	SetNotes(ctx context.Context, userID string, notes []types.Note) error
	Invalidate(ctx context.Context, userID string) error
}

// Noop is a NoteCache that never holds anything.
type Noop struct{}

func (Noop) GetNotes(context.Context, string) ([]types.Note, bool, error) {
	return nil, false, nil
}

func (Noop) SetNotes(context.Context, string, []types.Note) error {
	return nil
}

func (Noop) Invalidate(context.Context, string) error {
	return nil
}
