package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/notekeeper/apiserver/internal/logging"
	"github.com/notekeeper/apiserver/internal/services"
	"github.com/notekeeper/apiserver/types"
)

const maxNoteBody = 1 << 20

// NoteHandler provides HTTP handlers for notes.
type NoteHandler struct {
	notes *services.NoteService
	log   logging.Logger
}

func NewNoteHandler(notes *services.NoteService, log logging.Logger) *NoteHandler {
	return &NoteHandler{notes: notes, log: log}
}

// NoteRouter registers note routes. Every route requires authentication.
func NoteRouter(r chi.Router, notes *services.NoteService, authMiddleware func(http.Handler) http.Handler, log logging.Logger) {
	handler := NewNoteHandler(notes, log)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware, LimitBody(maxNoteBody))
		r.Get("/fetchallnotes", handler.ListNotes)
		r.Post("/addnewnote", handler.CreateNote)
		r.Put("/update/{noteID}", handler.UpdateNote)
		r.Delete("/deletenote/{noteID}", handler.DeleteNote)
	})
}

type DeleteNoteResponse struct {
	Msg     string `json:"msg"`
	Success bool   `json:"success"`
}

func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Please authenticate using a valid token")
		return
	}

	notes, err := h.notes.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Please authenticate using a valid token")
		return
	}
	fields, err := parseFields(r)
	if err != nil {
		writeBodyError(w, err)
		return
	}

	_, err = h.notes.Create(r.Context(), userID, services.NoteInput{
		Title:       fields.raw("title"),
		Description: fields.raw("description"),
		Content:     fields.raw("content"),
		Tag:         fields.raw("tag"),
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Msg: "Note Saved"})
}

func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Please authenticate using a valid token")
		return
	}
	fields, err := parseFields(r)
	if err != nil {
		writeBodyError(w, err)
		return
	}

	patch := types.NotePatch{
		Title:       fields.optional("title"),
		Description: fields.optional("description"),
		Content:     fields.optional("content"),
		Tag:         fields.optional("tag"),
	}
	if _, err := h.notes.Update(r.Context(), chi.URLParam(r, "noteID"), userID, patch); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Msg: "Successfully Saved"})
}

func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Please authenticate using a valid token")
		return
	}

	if err := h.notes.Delete(r.Context(), chi.URLParam(r, "noteID"), userID); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteNoteResponse{Msg: "Note has Been deleted", Success: true})
}
