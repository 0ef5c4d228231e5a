package handlers

import (
	"encoding/json"
	"net/http"

	"phonebook-backend/internal/middleware"
	"phonebook-backend/internal/models"
	"phonebook-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const maxUploadMemory = 10 << 20 // 10 MB held in memory per upload

// ContactHandler handles contact-related HTTP requests
type ContactHandler struct {
	contactService *services.ContactService
}

// NewContactHandler creates a new contact handler
func NewContactHandler(contactService *services.ContactService) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
	}
}

// Create handles POST /api/contacts
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	input, picture, _, ok := h.parseContactForm(w, r)
	if !ok {
		return
	}

	contact, err := h.contactService.Create(ctx, userID, input, picture)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("contact_id", contact.ID).
		Msg("Contact created")

	respondJSON(w, http.StatusCreated, map[string]*models.Contact{"contact": contact})
}

// Get handles GET /api/contacts/{id}
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	contactID := chi.URLParam(r, "id")

	contact, err := h.contactService.Get(ctx, userID, contactID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]*models.Contact{"contact": contact})
}

// List handles GET /api/contacts
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	contacts, err := h.contactService.List(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"contacts": contactList(contacts)})
}

// Search handles GET /api/contacts/search?q=
func (h *ContactHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	q := r.URL.Query().Get("q")

	contacts, err := h.contactService.Search(ctx, userID, q)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"contacts": contactList(contacts)})
}

// Update handles PUT /api/contacts/{id}
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	contactID := chi.URLParam(r, "id")

	input, picture, deletePicture, ok := h.parseContactForm(w, r)
	if !ok {
		return
	}

	contact, err := h.contactService.Update(ctx, userID, contactID, input, picture, deletePicture)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("contact_id", contact.ID).
		Msg("Contact updated")

	respondJSON(w, http.StatusOK, map[string]*models.Contact{"contact": contact})
}

// Delete handles DELETE /api/contacts/{id}
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	contactID := chi.URLParam(r, "id")

	if err := h.contactService.Delete(ctx, userID, contactID); err != nil {
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("contact_id", contactID).
		Msg("Contact deleted")

	respondJSON(w, http.StatusOK, map[string]string{"message": "Contact deleted successfully."})
}

// Merge handles PUT /api/contacts/merge/{id1}/{id2}: id2's phone numbers are
// appended to id1 and id2 is removed
func (h *ContactHandler) Merge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	targetID := chi.URLParam(r, "id1")
	sourceID := chi.URLParam(r, "id2")

	contact, err := h.contactService.Merge(ctx, userID, targetID, sourceID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("target_id", targetID).
		Str("source_id", sourceID).
		Msg("Contacts merged")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Contacts merged successfully.",
		"contact": contact,
	})
}

// parseContactForm reads the multipart form shared by create and update.
// On failure it writes a 400 response and returns ok=false.
func (h *ContactHandler) parseContactForm(w http.ResponseWriter, r *http.Request) (input services.ContactInput, picture *services.PictureUpload, deletePicture bool, ok bool) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	input = services.ContactInput{
		FirstName: r.FormValue("firstName"),
		LastName:  r.FormValue("lastName"),
		Address:   r.FormValue("address"),
	}

	if raw := r.FormValue("phoneNumbers"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &input.PhoneNumbers); err != nil {
			respondError(w, "Invalid phone numbers", http.StatusBadRequest)
			return
		}
	}

	deletePicture = r.FormValue("deletePicture") == "true"

	file, header, err := r.FormFile("pictureFile")
	if err == nil {
		picture = &services.PictureUpload{
			Data:     file,
			MimeType: header.Header.Get("Content-Type"),
		}
	} else if err != http.ErrMissingFile {
		respondError(w, "Invalid picture file", http.StatusBadRequest)
		return
	}

	return input, picture, deletePicture, true
}

// contactList never serializes as null
func contactList(contacts []*models.Contact) []*models.Contact {
	if contacts == nil {
		return []*models.Contact{}
	}
	return contacts
}
