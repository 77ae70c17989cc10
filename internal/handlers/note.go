// internal/handlers/note.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/digital-storefront/internal/i18n"
	"github.com/javajoker/digital-storefront/internal/services"
	"github.com/javajoker/digital-storefront/internal/utils"
)

type NoteHandler struct {
	noteService *services.NoteService
}

func NewNoteHandler(noteService *services.NoteService) *NoteHandler {
	return &NoteHandler{
		noteService: noteService,
	}
}

// GET /notes
func (h *NoteHandler) ListNotes(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	notes, err := h.noteService.ListNotes(userID)
	if err != nil {
		respondError(c, err, "note")
		return
	}

	utils.SuccessResponse(c, notes)
}

// POST /notes/product/:product_id
func (h *NoteHandler) CreateNote(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	productID, ok := uuidParam(c, "product_id", "product")
	if !ok {
		return
	}

	var req services.NoteRequest
	if !bindRequest(c, &req) {
		return
	}

	note, err := h.noteService.CreateNote(userID, productID, &req)
	if errors.Is(err, services.ErrForbidden) {
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyNoteNotOwned))
		return
	}
	if err != nil {
		respondError(c, err, "product")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyNoteCreated),
		"note":    note,
	})
}

// PUT /notes/:id
func (h *NoteHandler) UpdateNote(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	noteID, ok := uuidParam(c, "id", "note")
	if !ok {
		return
	}

	var req services.NoteRequest
	if !bindRequest(c, &req) {
		return
	}

	note, err := h.noteService.UpdateNote(userID, noteID, &req)
	if err != nil {
		respondError(c, err, "note")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyNoteUpdated),
		"note":    note,
	})
}

// DELETE /notes/:id
func (h *NoteHandler) DeleteNote(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	noteID, ok := uuidParam(c, "id", "note")
	if !ok {
		return
	}

	if err := h.noteService.DeleteNote(userID, noteID); err != nil {
		respondError(c, err, "note")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyNoteDeleted),
	})
}
