package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/notekeeper/apiserver/types"
)

const noteColumns = `id, user_id, title, description, content, tag, created_at, updated_at`

// NoteRepository handles persistence for notes.
type NoteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) ListByUser(ctx context.Context, userID string) ([]types.Note, error) {
	const query = `SELECT ` + noteColumns + ` FROM notes WHERE user_id = $1 ORDER BY created_at`
	if _, err := uuid.Parse(userID); err != nil {
		return []types.Note{}, nil
	}
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []types.Note{}
	for rows.Next() {
		var note types.Note
		if err := rows.Scan(
			&note.ID,
			&note.UserID,
			&note.Title,
			&note.Description,
			&note.Content,
			&note.Tag,
			&note.CreatedAt,
			&note.UpdatedAt,
		); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *NoteRepository) Get(ctx context.Context, id string) (types.Note, error) {
	const query = `SELECT ` + noteColumns + ` FROM notes WHERE id = $1`
	if _, err := uuid.Parse(id); err != nil {
		return types.Note{}, ErrNotFound
	}
	var note types.Note
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&note.ID,
		&note.UserID,
		&note.Title,
		&note.Description,
		&note.Content,
		&note.Tag,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Note{}, ErrNotFound
		}
		return types.Note{}, err
	}
	return note, nil
}

func (r *NoteRepository) Create(ctx context.Context, note types.Note) (types.Note, error) {
	now := time.Now().UTC()
	note.ID = uuid.NewString()
	note.CreatedAt = now
	note.UpdatedAt = now

	const query = `
		INSERT INTO notes (` + noteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		note.ID,
		note.UserID,
		note.Title,
		note.Description,
		note.Content,
		note.Tag,
		note.CreatedAt,
		note.UpdatedAt,
	); err != nil {
		return types.Note{}, translateError(err)
	}
	return note, nil
}

func (r *NoteRepository) Update(ctx context.Context, note types.Note) (types.Note, error) {
	note.UpdatedAt = time.Now().UTC()

	const query = `
		UPDATE notes
		SET title = $1,
			description = $2,
			content = $3,
			tag = $4,
			updated_at = $5
		WHERE id = $6`
	result, err := r.db.ExecContext(
		ctx,
		query,
		note.Title,
		note.Description,
		note.Content,
		note.Tag,
		note.UpdatedAt,
		note.ID,
	)
	if err != nil {
		return types.Note{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Note{}, err
	}
	if affected == 0 {
		return types.Note{}, ErrNotFound
	}
	return note, nil
}

func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM notes WHERE id = $1`
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
