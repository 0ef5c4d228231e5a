package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"testing"

	"phonebook-backend/internal/models"
	"phonebook-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeContactRepo struct {
	contacts map[string]*models.Contact
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{contacts: make(map[string]*models.Contact)}
}

func cloneContact(c *models.Contact) *models.Contact {
	cp := *c
	cp.PhoneNumbers = append([]models.PhoneNumber(nil), c.PhoneNumbers...)
	return &cp
}

func (r *fakeContactRepo) Create(_ context.Context, contact *models.Contact) error {
	r.contacts[contact.ID] = cloneContact(contact)
	return nil
}

func (r *fakeContactRepo) GetByID(_ context.Context, id string) (*models.Contact, error) {
	contact, ok := r.contacts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneContact(contact), nil
}

func (r *fakeContactRepo) ListByOwner(_ context.Context, ownerID string) ([]*models.Contact, error) {
	var out []*models.Contact
	for _, contact := range r.contacts {
		if contact.OwnerID == ownerID {
			out = append(out, cloneContact(contact))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FirstName < out[j].FirstName })
	return out, nil
}

func (r *fakeContactRepo) Search(ctx context.Context, ownerID, q string) ([]*models.Contact, error) {
	all, err := r.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	q = strings.ToLower(q)
	var out []*models.Contact
	for _, contact := range all {
		if strings.Contains(strings.ToLower(contact.FirstName), q) ||
			strings.Contains(strings.ToLower(contact.LastName), q) {
			out = append(out, contact)
		}
	}
	return out, nil
}

func (r *fakeContactRepo) Update(_ context.Context, contact *models.Contact) error {
	if _, ok := r.contacts[contact.ID]; !ok {
		return repository.ErrNotFound
	}
	r.contacts[contact.ID] = cloneContact(contact)
	return nil
}

func (r *fakeContactRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.contacts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.contacts, id)
	return nil
}

// fakePictureStore is an in-memory PictureStore
type fakePictureStore struct {
	seq      int
	files    map[string]bool
	failSave bool
}

func newFakePictureStore() *fakePictureStore {
	return &fakePictureStore{files: make(map[string]bool)}
}

func (s *fakePictureStore) Save(ownerID string, data io.Reader, mimeType string) (string, error) {
	if s.failSave {
		return "", errors.New("disk full")
	}
	if _, err := io.Copy(io.Discard, data); err != nil {
		return "", err
	}
	s.seq++
	name := fmt.Sprintf("pic-%03d.jpg", s.seq)
	s.files[ownerID+"/"+name] = true
	return name, nil
}

func (s *fakePictureStore) Delete(ownerID, filename string) error {
	delete(s.files, ownerID+"/"+filename)
	return nil
}

func (s *fakePictureStore) URL(ownerID, filename string) string {
	return "http://test/content/photos/" + ownerID + "/" + filename
}

func (s *fakePictureStore) has(ownerID, filename string) bool {
	return s.files[ownerID+"/"+filename]
}

func mobile(number string) models.PhoneNumber {
	return models.PhoneNumber{Type: models.PhoneTypeMobile, Number: number}
}

func validInput(firstName string) ContactInput {
	return ContactInput{
		FirstName:    firstName,
		PhoneNumbers: []models.PhoneNumber{mobile("5551234567")},
	}
}

func newTestContactService() (*ContactService, *fakeContactRepo, *fakePictureStore) {
	repo := newFakeContactRepo()
	pics := newFakePictureStore()
	return NewContactService(repo, pics, nil), repo, pics
}

func TestValidateContactInput(t *testing.T) {
	tests := []struct {
		name   string
		input  ContactInput
		fields []string
	}{
		{
			name:  "valid",
			input: validInput("Bob"),
		},
		{
			name: "missing first name",
			input: ContactInput{
				PhoneNumbers: []models.PhoneNumber{mobile("5551234567")},
			},
			fields: []string{"firstName"},
		},
		{
			name:   "empty phone list",
			input:  ContactInput{FirstName: "Bob"},
			fields: []string{"phoneNumbers"},
		},
		{
			name: "empty phone number",
			input: ContactInput{
				FirstName:    "Bob",
				PhoneNumbers: []models.PhoneNumber{{Type: models.PhoneTypeHome, Number: ""}},
			},
			fields: []string{"phoneNumbers[0].number"},
		},
		{
			name: "unknown phone type",
			input: ContactInput{
				FirstName:    "Bob",
				PhoneNumbers: []models.PhoneNumber{{Type: "fax", Number: "5551234567"}},
			},
			fields: []string{"phoneNumbers[0].type"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateContactInput(tt.input)
			if len(tt.fields) == 0 {
				assert.Nil(t, verr)
				return
			}
			require.NotNil(t, verr)
			for _, field := range tt.fields {
				assert.Contains(t, verr.Fields, field)
			}
		})
	}
}

func TestCreateRejectsInvalidInputWithoutPersisting(t *testing.T) {
	svc, repo, _ := newTestContactService()

	_, err := svc.Create(context.Background(), "alice", ContactInput{}, nil)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, repo.contacts, "nothing may be persisted on validation failure")
}

func TestCreateWithPicture(t *testing.T) {
	svc, repo, pics := newTestContactService()

	contact, err := svc.Create(context.Background(), "alice", validInput("Bob"), &PictureUpload{
		Data:     strings.NewReader("image bytes"),
		MimeType: "image/jpeg",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, contact.Picture)
	assert.True(t, pics.has("alice", contact.Picture))
	assert.Equal(t, "http://test/content/photos/alice/"+contact.Picture, contact.PictureURL)
	assert.Contains(t, repo.contacts, contact.ID)
}

func TestCreatePictureFailureDoesNotBlockContact(t *testing.T) {
	svc, repo, pics := newTestContactService()
	pics.failSave = true

	contact, err := svc.Create(context.Background(), "alice", validInput("Bob"), &PictureUpload{
		Data:     strings.NewReader("image bytes"),
		MimeType: "image/jpeg",
	})
	require.NoError(t, err)

	assert.Empty(t, contact.Picture)
	assert.Contains(t, repo.contacts, contact.ID)
}

func TestOwnershipEnforced(t *testing.T) {
	svc, repo, _ := newTestContactService()
	ctx := context.Background()

	contact, err := svc.Create(ctx, "alice", validInput("Bob"), nil)
	require.NoError(t, err)

	t.Run("get by other user", func(t *testing.T) {
		_, err := svc.Get(ctx, "carol", contact.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("update by other user", func(t *testing.T) {
		_, err := svc.Update(ctx, "carol", contact.ID, validInput("Mallory"), nil, false)
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Equal(t, "Bob", repo.contacts[contact.ID].FirstName, "record must be unchanged")
	})

	t.Run("delete by other user", func(t *testing.T) {
		err := svc.Delete(ctx, "carol", contact.ID)
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Contains(t, repo.contacts, contact.ID)
	})
}

func TestGetMissingContact(t *testing.T) {
	svc, _, _ := newTestContactService()

	_, err := svc.Get(context.Background(), "alice", "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRemovesPictureFile(t *testing.T) {
	svc, repo, pics := newTestContactService()
	ctx := context.Background()

	contact, err := svc.Create(ctx, "alice", validInput("Bob"), &PictureUpload{
		Data:     strings.NewReader("image bytes"),
		MimeType: "image/jpeg",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "alice", contact.ID))

	assert.NotContains(t, repo.contacts, contact.ID)
	assert.False(t, pics.has("alice", contact.Picture), "no orphaned picture file may remain")
}

func TestUpdateReplacesPicture(t *testing.T) {
	svc, _, pics := newTestContactService()
	ctx := context.Background()

	contact, err := svc.Create(ctx, "alice", validInput("Bob"), &PictureUpload{
		Data:     strings.NewReader("old image"),
		MimeType: "image/jpeg",
	})
	require.NoError(t, err)
	oldPicture := contact.Picture

	updated, err := svc.Update(ctx, "alice", contact.ID, validInput("Bob"), &PictureUpload{
		Data:     strings.NewReader("new image"),
		MimeType: "image/jpeg",
	}, false)
	require.NoError(t, err)

	assert.NotEqual(t, oldPicture, updated.Picture)
	assert.False(t, pics.has("alice", oldPicture), "old picture must be removed")
	assert.True(t, pics.has("alice", updated.Picture))
}

func TestUpdateDeletePictureFlag(t *testing.T) {
	svc, repo, pics := newTestContactService()
	ctx := context.Background()

	contact, err := svc.Create(ctx, "alice", validInput("Bob"), &PictureUpload{
		Data:     strings.NewReader("image bytes"),
		MimeType: "image/jpeg",
	})
	require.NoError(t, err)
	oldPicture := contact.Picture

	updated, err := svc.Update(ctx, "alice", contact.ID, validInput("Bob"), nil, true)
	require.NoError(t, err)

	assert.Empty(t, updated.Picture)
	assert.Empty(t, updated.PictureURL)
	assert.Empty(t, repo.contacts[contact.ID].Picture)
	assert.False(t, pics.has("alice", oldPicture))
}

func TestMerge(t *testing.T) {
	svc, repo, _ := newTestContactService()
	ctx := context.Background()

	source, err := svc.Create(ctx, "alice", ContactInput{
		FirstName:    "Bobby",
		PhoneNumbers: []models.PhoneNumber{mobile("111")},
	}, nil)
	require.NoError(t, err)

	target, err := svc.Create(ctx, "alice", ContactInput{
		FirstName:    "Bob",
		PhoneNumbers: []models.PhoneNumber{{Type: models.PhoneTypeWork, Number: "222"}},
	}, nil)
	require.NoError(t, err)

	merged, err := svc.Merge(ctx, "alice", target.ID, source.ID)
	require.NoError(t, err)

	// Target's phones first, then source's; duplicates are allowed
	require.Len(t, merged.PhoneNumbers, 2)
	assert.Equal(t, "222", merged.PhoneNumbers[0].Number)
	assert.Equal(t, "111", merged.PhoneNumbers[1].Number)
	assert.NotContains(t, repo.contacts, source.ID, "source must be deleted")

	// Repeating the same merge fails: the source is gone
	_, err = svc.Merge(ctx, "alice", target.ID, source.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMergeRemovesSourcePicture(t *testing.T) {
	svc, _, pics := newTestContactService()
	ctx := context.Background()

	source, err := svc.Create(ctx, "alice", validInput("Bobby"), &PictureUpload{
		Data:     strings.NewReader("image bytes"),
		MimeType: "image/jpeg",
	})
	require.NoError(t, err)

	target, err := svc.Create(ctx, "alice", validInput("Bob"), nil)
	require.NoError(t, err)

	_, err = svc.Merge(ctx, "alice", target.ID, source.ID)
	require.NoError(t, err)

	assert.False(t, pics.has("alice", source.Picture))
}

func TestMergeRequiresOwnershipOfBoth(t *testing.T) {
	svc, repo, _ := newTestContactService()
	ctx := context.Background()

	mine, err := svc.Create(ctx, "alice", validInput("Bob"), nil)
	require.NoError(t, err)

	theirs, err := svc.Create(ctx, "carol", validInput("Eve"), nil)
	require.NoError(t, err)

	_, err = svc.Merge(ctx, "alice", mine.ID, theirs.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Contains(t, repo.contacts, theirs.ID)
	assert.Len(t, repo.contacts[mine.ID].PhoneNumbers, 1)
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	svc, _, _ := newTestContactService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", ContactInput{
		FirstName:    "Bob",
		LastName:     "Smith",
		PhoneNumbers: []models.PhoneNumber{mobile("111")},
	}, nil)
	require.NoError(t, err)

	_, err = svc.Create(ctx, "alice", ContactInput{
		FirstName:    "Carla",
		PhoneNumbers: []models.PhoneNumber{mobile("222")},
	}, nil)
	require.NoError(t, err)

	byFirst, err := svc.Search(ctx, "alice", "bOb")
	require.NoError(t, err)
	require.Len(t, byFirst, 1)
	assert.Equal(t, "Bob", byFirst[0].FirstName)

	byLast, err := svc.Search(ctx, "alice", "SMITH")
	require.NoError(t, err)
	require.Len(t, byLast, 1)
	assert.Equal(t, "Smith", byLast[0].LastName)
}

func TestListScopedToOwner(t *testing.T) {
	svc, _, _ := newTestContactService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", validInput("Bob"), nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "carol", validInput("Eve"), nil)
	require.NoError(t, err)

	contacts, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Bob", contacts[0].FirstName)
}
