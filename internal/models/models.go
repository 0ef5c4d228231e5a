package models

import "time"

// User represents a registered account
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Phone number types accepted in a contact's phone list
const (
	PhoneTypeMobile = "mobile"
	PhoneTypeWork   = "work"
	PhoneTypeHome   = "home"
	PhoneTypeOther  = "other"
)

// ValidPhoneType reports whether t is one of the accepted phone number types
func ValidPhoneType(t string) bool {
	switch t {
	case PhoneTypeMobile, PhoneTypeWork, PhoneTypeHome, PhoneTypeOther:
		return true
	}
	return false
}

// PhoneNumber is a single entry in a contact's phone list
type PhoneNumber struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

// Contact represents a contact record owned by exactly one user.
// JSON field names mirror the wire format the web client expects.
type Contact struct {
	ID           string        `json:"_id"`
	OwnerID      string        `json:"-"`
	FirstName    string        `json:"firstName"`
	LastName     string        `json:"lastName,omitempty"`
	Address      string        `json:"address,omitempty"`
	PhoneNumbers []PhoneNumber `json:"phoneNumbers"`
	Picture      string        `json:"picture,omitempty"`
	PictureURL   string        `json:"pictureUrl,omitempty"`
	CreatedAt    time.Time     `json:"-"`
	UpdatedAt    time.Time     `json:"-"`
}
