package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/notekeeper/apiserver/internal/cache"
	"github.com/notekeeper/apiserver/internal/logging"
	"github.com/notekeeper/apiserver/internal/store"
	"github.com/notekeeper/apiserver/types"
)

const (
	minTitleLength       = 4
	minDescriptionLength = 10
)

// NoteRepository defines persistence operations for notes.
type NoteRepository interface {
	ListByUser(ctx context.Context, userID string) ([]types.Note, error)
	Get(ctx context.Context, id string) (types.Note, error)
	Create(ctx context.Context, note types.Note) (types.Note, error)
	Update(ctx context.Context, note types.Note) (types.Note, error)
	Delete(ctx context.Context, id string) error
}

// NoteInput is the payload of a new note.
type NoteInput struct {
	Title       string
	Description string
	Content     string
	Tag         string
}

// NoteService encapsulates note use-cases. Every mutation is scoped to the
// note's owner.
type NoteService struct {
	repo  NoteRepository
	cache cache.NoteCache
	log   logging.Logger
}

func NewNoteService(repo NoteRepository, noteCache cache.NoteCache, log logging.Logger) *NoteService {
	if noteCache == nil {
		noteCache = cache.Noop{}
	}
	if log == nil {
		log = logging.Nop()
	}
	return &NoteService{repo: repo, cache: noteCache, log: log}
}

// List returns every note owned by userID.
func (s *NoteService) List(ctx context.Context, userID string) ([]types.Note, error) {
	notes, ok, err := s.cache.GetNotes(ctx, userID)
	if err != nil {
		s.log.Warn(ctx, "note cache read failed", "user_id", userID, "error", err)
	} else if ok {
		return notes, nil
	}

	notes, err = s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	if err := s.cache.SetNotes(ctx, userID, notes); err != nil {
		s.log.Warn(ctx, "note cache write failed", "user_id", userID, "error", err)
	}
	return notes, nil
}

// Create validates and stores a new note for userID.
func (s *NoteService) Create(ctx context.Context, userID string, in NoteInput) (types.Note, error) {
	verr := &ValidationError{}
	validateTitle(verr, in.Title)
	validateDescription(verr, in.Description)
	validateContent(verr, in.Content)
	if err := verr.err(); err != nil {
		return types.Note{}, err
	}

	tag := strings.TrimSpace(in.Tag)
	if tag == "" {
		tag = types.DefaultNoteTag
	}

	note, err := s.repo.Create(ctx, types.Note{
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Content:     in.Content,
		Tag:         tag,
	})
	if err != nil {
		return types.Note{}, fmt.Errorf("create note: %w", err)
	}
	s.invalidate(ctx, userID)
	return note, nil
}

// Update applies patch to the note after checking userID owns it.
func (s *NoteService) Update(ctx context.Context, noteID, userID string, patch types.NotePatch) (types.Note, error) {
	verr := &ValidationError{}
	if patch.Title != nil {
		validateTitle(verr, *patch.Title)
	}
	if patch.Description != nil {
		validateDescription(verr, *patch.Description)
	}
	if patch.Content != nil {
		validateContent(verr, *patch.Content)
	}
	if patch.Tag != nil && strings.TrimSpace(*patch.Tag) == "" {
		verr.add("tag", "Tag cannot be blank")
	}
	if err := verr.err(); err != nil {
		return types.Note{}, err
	}

	note, err := s.ownedNote(ctx, noteID, userID)
	if err != nil {
		return types.Note{}, err
	}
	if patch.Empty() {
		return note, nil
	}

	updated, err := s.repo.Update(ctx, patch.Apply(note))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Note{}, ErrNotFound
		}
		return types.Note{}, fmt.Errorf("update note: %w", err)
	}
	s.invalidate(ctx, userID)
	return updated, nil
}

// Delete permanently removes the note after checking userID owns it.
func (s *NoteService) Delete(ctx context.Context, noteID, userID string) error {
	if _, err := s.ownedNote(ctx, noteID, userID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, noteID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete note: %w", err)
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *NoteService) ownedNote(ctx context.Context, noteID, userID string) (types.Note, error) {
	note, err := s.repo.Get(ctx, noteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Note{}, ErrNotFound
		}
		return types.Note{}, fmt.Errorf("load note: %w", err)
	}
	if err := authorizeOwner(note, userID); err != nil {
		s.log.Warn(ctx, "note access denied", "note_id", noteID, "user_id", userID)
		return types.Note{}, err
	}
	return note, nil
}

func (s *NoteService) invalidate(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.log.Warn(ctx, "note cache invalidation failed", "user_id", userID, "error", err)
	}
}

// authorizeOwner is the single ownership check shared by Update and Delete.
func authorizeOwner(note types.Note, userID string) error {
	if userID == "" || note.UserID != userID {
		return ErrForbidden
	}
	return nil
}

func validateTitle(verr *ValidationError, title string) {
	if utf8.RuneCountInString(strings.TrimSpace(title)) < minTitleLength {
		verr.add("title", "Enter a valid title")
	}
}

func validateDescription(verr *ValidationError, description string) {
	if utf8.RuneCountInString(strings.TrimSpace(description)) < minDescriptionLength {
		verr.add("description", "Description must be atleast 10 characters")
	}
}

func validateContent(verr *ValidationError, content string) {
	if strings.TrimSpace(content) == "" {
		verr.add("content", "Content must contain something")
	}
}
