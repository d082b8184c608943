package types

import "time"

// DefaultNoteTag is assigned to notes created without a tag.
const DefaultNoteTag = "General"

// Note is a piece of text owned by exactly one user.
type Note struct {
	ID          string    `json:"_id" db:"id"`
	UserID      string    `json:"user" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Content     string    `json:"content" db:"content"`
	Tag         string    `json:"tag" db:"tag"`
	CreatedAt   time.Time `json:"date" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// NotePatch carries the fields of a partial note update.
// A nil field is left unchanged.
type NotePatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Content     *string `json:"content,omitempty"`
	Tag         *string `json:"tag,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p NotePatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Content == nil && p.Tag == nil
}

// Apply returns a copy of note with the supplied fields replaced.
func (p NotePatch) Apply(note Note) Note {
	if p.Title != nil {
		note.Title = *p.Title
	}
	if p.Description != nil {
		note.Description = *p.Description
	}
	if p.Content != nil {
		note.Content = *p.Content
	}
	if p.Tag != nil {
		note.Tag = *p.Tag
	}
	return note
}
