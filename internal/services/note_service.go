// internal/services/note_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/digital-storefront/internal/models"
	"github.com/javajoker/digital-storefront/internal/utils"
)

type NoteService struct {
	db *gorm.DB
}

type NoteRequest struct {
	Title string `json:"title" form:"title" validate:"required,min=3,max=120"`
	Body  string `json:"body" form:"body" validate:"required,min=5"`
}

func NewNoteService(db *gorm.DB) *NoteService {
	return &NoteService{db: db}
}

func (s *NoteService) ListNotes(userID uuid.UUID) ([]models.UserNote, error) {
	var notes []models.UserNote
	if err := s.db.Where("user_id = ?", userID).
		Preload("Product").
		Order("updated_at DESC").
		Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch notes: %w", err)
	}
	return notes, nil
}

// CreateNote is only allowed for products the user holds an entitlement for.
func (s *NoteService) CreateNote(userID, productID uuid.UUID, req *NoteRequest) (*models.UserNote, error) {
	var owned int64
	if err := s.db.Model(&models.UserAsset{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&owned).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if owned == 0 {
		return nil, ErrForbidden
	}

	var product models.Product
	if err := s.db.First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := cleanNote(req); err != nil {
		return nil, err
	}

	note := &models.UserNote{
		UserID:    userID,
		ProductID: product.ID,
		Title:     req.Title,
		Body:      req.Body,
	}
	if err := s.db.Create(note).Error; err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	note.Product = &product

	return note, nil
}

func (s *NoteService) UpdateNote(userID, noteID uuid.UUID, req *NoteRequest) (*models.UserNote, error) {
	note, err := s.getOwnedNote(userID, noteID)
	if err != nil {
		return nil, err
	}

	if err := cleanNote(req); err != nil {
		return nil, err
	}

	if err := s.db.Model(note).Updates(map[string]interface{}{
		"title": req.Title,
		"body":  req.Body,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}
	note.Title = req.Title
	note.Body = req.Body

	return note, nil
}

func (s *NoteService) DeleteNote(userID, noteID uuid.UUID) error {
	note, err := s.getOwnedNote(userID, noteID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(note).Error; err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return nil
}

func (s *NoteService) getOwnedNote(userID, noteID uuid.UUID) (*models.UserNote, error) {
	var note models.UserNote
	if err := s.db.Where("id = ? AND user_id = ?", noteID, userID).First(&note).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &note, nil
}

func cleanNote(req *NoteRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	req.Body = strings.TrimSpace(req.Body)

	if err := utils.ValidateStruct(req); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}
