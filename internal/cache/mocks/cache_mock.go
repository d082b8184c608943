package mocks

import (
	"context"

	"github.com/notekeeper/apiserver/types"
	"github.com/stretchr/testify/mock"
)

type MockNoteCache struct {
	mock.Mock
}

func (m *MockNoteCache) GetNotes(ctx context.Context, userID string) ([]types.Note, bool, error) {
	args := m.Called(ctx, userID)
	notes, _ := args.Get(0).([]types.Note)
	return notes, args.Bool(1), args.Error(2)
}

func (m *MockNoteCache) SetNotes(ctx context.Context, userID string, notes []types.Note) error {
	args := m.Called(ctx, userID, notes)
	return args.Error(0)
}

func (m *MockNoteCache) Invalidate(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}
