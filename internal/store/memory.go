package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/notekeeper/apiserver/types"
)

// MemoryUserRepository keeps users in process memory. It backs DB_DRIVER=memory
// and the service tests.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]types.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]types.User)}
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, strings.TrimSpace(email)) {
			return user, nil
		}
	}
	return types.User{}, ErrNotFound
}

func (r *MemoryUserRepository) Create(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return types.User{}, ErrDuplicate
		}
	}
	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = user
	return user, nil
}

func (r *MemoryUserRepository) Update(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.users[user.ID]
	if !ok {
		return types.User{}, ErrNotFound
	}
	current.Name = user.Name
	current.Email = user.Email
	current.PasswordHash = user.PasswordHash
	current.Image = user.Image
	current.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = current
	return current, nil
}

// MemoryNoteRepository keeps notes in process memory.
type MemoryNoteRepository struct {
	mu    sync.RWMutex
	notes map[string]types.Note
}

func NewMemoryNoteRepository() *MemoryNoteRepository {
	return &MemoryNoteRepository{notes: make(map[string]types.Note)}
}

func (r *MemoryNoteRepository) ListByUser(_ context.Context, userID string) ([]types.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	notes := []types.Note{}
	for _, note := range r.notes {
		if note.UserID == userID {
			notes = append(notes, note)
		}
	}
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].CreatedAt.Before(notes[j].CreatedAt)
	})
	return notes, nil
}

func (r *MemoryNoteRepository) Get(_ context.Context, id string) (types.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	note, ok := r.notes[id]
	if !ok {
		return types.Note{}, ErrNotFound
	}
	return note, nil
}

func (r *MemoryNoteRepository) Create(_ context.Context, note types.Note) (types.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	note.ID = uuid.NewString()
	note.CreatedAt = now
	note.UpdatedAt = now
	r.notes[note.ID] = note
	return note, nil
}

func (r *MemoryNoteRepository) Update(_ context.Context, note types.Note) (types.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.notes[note.ID]
	if !ok {
		return types.Note{}, ErrNotFound
	}
	current.Title = note.Title
	current.Description = note.Description
	current.Content = note.Content
	current.Tag = note.Tag
	current.UpdatedAt = time.Now().UTC()
	r.notes[note.ID] = current
	return current, nil
}

func (r *MemoryNoteRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notes[id]; !ok {
		return ErrNotFound
	}
	delete(r.notes, id)
	return nil
}
