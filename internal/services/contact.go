package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"phonebook-backend/internal/models"
	"phonebook-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ContactRepo is the persistence interface the contact service depends on
type ContactRepo interface {
	Create(ctx context.Context, contact *models.Contact) error
	GetByID(ctx context.Context, id string) (*models.Contact, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Contact, error)
	Search(ctx context.Context, ownerID, q string) ([]*models.Contact, error)
	Update(ctx context.Context, contact *models.Contact) error
	Delete(ctx context.Context, id string) error
}

// PictureStore is the file storage interface for contact pictures
type PictureStore interface {
	Save(ownerID string, data io.Reader, mimeType string) (string, error)
	Delete(ownerID, filename string) error
	URL(ownerID, filename string) string
}

// Notifier broadcasts contact change events to the owner's open sessions
type Notifier interface {
	NotifyContactEvent(userID, event, contactID string)
}

// Contact change events sent over the websocket
const (
	EventContactCreated = "contact_created"
	EventContactUpdated = "contact_updated"
	EventContactDeleted = "contact_deleted"
	EventContactsMerged = "contacts_merged"
)

// ContactInput carries the mutable contact fields of a create or update request
type ContactInput struct {
	FirstName    string
	LastName     string
	Address      string
	PhoneNumbers []models.PhoneNumber
}

// PictureUpload carries an uploaded picture file
type PictureUpload struct {
	Data     io.Reader
	MimeType string
}

// ContactService handles contact business logic: validation, ownership
// checks and picture lifecycle
type ContactService struct {
	contactRepo ContactRepo
	pictures    PictureStore
	notifier    Notifier
}

// NewContactService creates a new contact service. notifier may be nil.
func NewContactService(contactRepo ContactRepo, pictures PictureStore, notifier Notifier) *ContactService {
	return &ContactService{
		contactRepo: contactRepo,
		pictures:    pictures,
		notifier:    notifier,
	}
}

// ValidateContactInput checks the required contact fields and returns a
// ValidationError listing every failing field, or nil if the input is valid.
func ValidateContactInput(input ContactInput) *ValidationError {
	fields := map[string]string{}

	if input.FirstName == "" {
		fields["firstName"] = "first name is required"
	}
	if len(input.PhoneNumbers) == 0 {
		fields["phoneNumbers"] = "at least one phone number is required"
	}
	for i, pn := range input.PhoneNumbers {
		if pn.Number == "" {
			fields[fmt.Sprintf("phoneNumbers[%d].number", i)] = "number is required"
		}
		if !models.ValidPhoneType(pn.Type) {
			fields[fmt.Sprintf("phoneNumbers[%d].type", i)] = "type must be one of mobile, work, home, other"
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Create validates and persists a new contact owned by ownerID. A failed
// picture save does not fail the request; the contact is stored without one.
func (s *ContactService) Create(ctx context.Context, ownerID string, input ContactInput, picture *PictureUpload) (*models.Contact, error) {
	if verr := ValidateContactInput(input); verr != nil {
		return nil, verr
	}

	now := time.Now()
	contact := &models.Contact{
		ID:           uuid.New().String(),
		OwnerID:      ownerID,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Address:      input.Address,
		PhoneNumbers: input.PhoneNumbers,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if picture != nil {
		name, err := s.pictures.Save(ownerID, picture.Data, picture.MimeType)
		if err != nil {
			log.Warn().Err(err).Str("owner_id", ownerID).Msg("Failed to save contact picture")
		} else {
			contact.Picture = name
		}
	}

	if err := s.contactRepo.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	s.notify(ownerID, EventContactCreated, contact.ID)
	return s.decorate(contact), nil
}

// Get retrieves a single contact, enforcing ownership
func (s *ContactService) Get(ctx context.Context, callerID, contactID string) (*models.Contact, error) {
	contact, err := s.getOwned(ctx, callerID, contactID)
	if err != nil {
		return nil, err
	}
	return s.decorate(contact), nil
}

// List retrieves all contacts owned by the caller
func (s *ContactService) List(ctx context.Context, ownerID string) ([]*models.Contact, error) {
	contacts, err := s.contactRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return s.decorateAll(contacts), nil
}

// Search retrieves the caller's contacts whose first or last name contains q,
// matched case-insensitively
func (s *ContactService) Search(ctx context.Context, ownerID, q string) ([]*models.Contact, error) {
	contacts, err := s.contactRepo.Search(ctx, ownerID, q)
	if err != nil {
		return nil, fmt.Errorf("failed to search contacts: %w", err)
	}
	return s.decorateAll(contacts), nil
}

// Update validates and persists changed contact fields. When the request
// carries a new picture or the delete-picture flag, the old file is removed
// first; a failed removal is logged but does not block the update.
func (s *ContactService) Update(ctx context.Context, callerID, contactID string, input ContactInput, picture *PictureUpload, deletePicture bool) (*models.Contact, error) {
	if verr := ValidateContactInput(input); verr != nil {
		return nil, verr
	}

	contact, err := s.getOwned(ctx, callerID, contactID)
	if err != nil {
		return nil, err
	}

	contact.FirstName = input.FirstName
	contact.LastName = input.LastName
	contact.Address = input.Address
	contact.PhoneNumbers = input.PhoneNumbers
	contact.UpdatedAt = time.Now()

	if deletePicture || picture != nil {
		s.removePicture(contact)
	}

	if picture != nil {
		name, err := s.pictures.Save(contact.OwnerID, picture.Data, picture.MimeType)
		if err != nil {
			log.Warn().Err(err).Str("owner_id", contact.OwnerID).Msg("Failed to save contact picture")
		} else {
			contact.Picture = name
		}
	}

	if err := s.contactRepo.Update(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}

	s.notify(contact.OwnerID, EventContactUpdated, contact.ID)
	return s.decorate(contact), nil
}

// Delete removes a contact and its picture file, enforcing ownership
func (s *ContactService) Delete(ctx context.Context, callerID, contactID string) error {
	contact, err := s.getOwned(ctx, callerID, contactID)
	if err != nil {
		return err
	}

	if err := s.contactRepo.Delete(ctx, contactID); err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	s.removePicture(contact)
	s.notify(contact.OwnerID, EventContactDeleted, contactID)
	return nil
}

// Merge appends the source contact's phone numbers to the target contact and
// deletes the source. Both records must exist and belong to the caller.
// No de-duplication is attempted; phone order is target's then source's.
func (s *ContactService) Merge(ctx context.Context, callerID, targetID, sourceID string) (*models.Contact, error) {
	target, err := s.contactRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, s.mapRepoErr(err)
	}
	source, err := s.contactRepo.GetByID(ctx, sourceID)
	if err != nil {
		return nil, s.mapRepoErr(err)
	}

	if target.OwnerID != callerID || source.OwnerID != callerID {
		return nil, ErrForbidden
	}

	target.PhoneNumbers = append(target.PhoneNumbers, source.PhoneNumbers...)
	target.UpdatedAt = time.Now()

	if err := s.contactRepo.Update(ctx, target); err != nil {
		return nil, fmt.Errorf("failed to update merged contact: %w", err)
	}
	if err := s.contactRepo.Delete(ctx, sourceID); err != nil {
		return nil, fmt.Errorf("failed to delete merged contact: %w", err)
	}

	s.removePicture(source)
	s.notify(callerID, EventContactsMerged, target.ID)
	return s.decorate(target), nil
}

// getOwned loads a contact and verifies the caller owns it
func (s *ContactService) getOwned(ctx context.Context, callerID, contactID string) (*models.Contact, error) {
	contact, err := s.contactRepo.GetByID(ctx, contactID)
	if err != nil {
		return nil, s.mapRepoErr(err)
	}
	if contact.OwnerID != callerID {
		return nil, ErrForbidden
	}
	return contact, nil
}

// removePicture deletes a contact's picture file if it has one. Failures are
// logged and swallowed so a valid metadata change is never blocked by the
// filesystem.
func (s *ContactService) removePicture(contact *models.Contact) {
	if contact.Picture == "" {
		return
	}
	if err := s.pictures.Delete(contact.OwnerID, contact.Picture); err != nil {
		log.Warn().
			Err(err).
			Str("owner_id", contact.OwnerID).
			Str("picture", contact.Picture).
			Msg("Failed to delete contact picture")
	}
	contact.Picture = ""
}

func (s *ContactService) mapRepoErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *ContactService) notify(userID, event, contactID string) {
	if s.notifier != nil {
		s.notifier.NotifyContactEvent(userID, event, contactID)
	}
}

func (s *ContactService) decorate(contact *models.Contact) *models.Contact {
	if contact.Picture != "" {
		contact.PictureURL = s.pictures.URL(contact.OwnerID, contact.Picture)
	} else {
		contact.PictureURL = ""
	}
	return contact
}

func (s *ContactService) decorateAll(contacts []*models.Contact) []*models.Contact {
	for _, c := range contacts {
		s.decorate(c)
	}
	return contacts
}
