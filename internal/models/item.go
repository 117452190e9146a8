package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Item types
const (
	TypeLost  = "lost"
	TypeFound = "found"
)

// Item statuses
const (
	StatusActive  = "active"
	StatusClaimed = "claimed"
	StatusPending = "pending" // reserved for moderation workflows
)

// Item represents a reported lost or found object.
type Item struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Date        string `json:"date"` // YYYY-MM-DD, date the item was lost/found
	Type        string `json:"type"`
	Status      string `json:"status"`
	// Image is the base64 payload as submitted by the browser, possibly
	// with a data-URL prefix. Empty when no image was attached.
	Image string `json:"image,omitempty"`
	// ImageFingerprint is derived once at creation and never supplied by
	// the caller. Empty when no image or when the payload was unreadable.
	ImageFingerprint string    `json:"imageFingerprint,omitempty"`
	ImageURL         string    `json:"imageUrl,omitempty"`
	ContactName      string    `json:"contactName"`
	ContactInfo      string    `json:"contactInfo"`
	CreatedAt        time.Time `json:"createdAt"`
}

// CreateItemRequest is the payload for reporting a new item.
type CreateItemRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Date        string `json:"date"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Image       string `json:"image"`
	ContactName string `json:"contactName"`
	ContactInfo string `json:"contactInfo"`
}

// UpdateItemRequest is a partial update; nil fields are left untouched.
type UpdateItemRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Location    *string `json:"location"`
	Status      *string `json:"status"`
}

// Categories is the fixed vocabulary items are filed under.
var Categories = []string{
	"Electronics",
	"Books",
	"Clothing",
	"Bags",
	"Keys",
	"ID Cards",
	"Jewelry",
	"Sports Equipment",
	"Other",
}

// Locations is the fixed vocabulary of campus zones.
var Locations = []string{
	"Library - 1st Floor",
	"Library - 2nd Floor",
	"Student Center",
	"Cafeteria",
	"Gymnasium",
	"Science Building",
	"Engineering Building",
	"Dormitories",
	"Parking Lot",
	"Other",
}

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\d{10}$`)
)

// ValidContactInfo reports whether s is an email address or a 10-digit phone
// number, the two contact formats the catalog accepts.
func ValidContactInfo(s string) bool {
	s = strings.TrimSpace(s)
	return emailPattern.MatchString(s) || phonePattern.MatchString(s)
}

// Validate checks a creation payload. Validation normally happens upstream in
// the UI, but the API re-checks so a bad direct call cannot corrupt the store.
func (r *CreateItemRequest) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"title", r.Title},
		{"description", r.Description},
		{"category", r.Category},
		{"location", r.Location},
		{"date", r.Date},
		{"type", r.Type},
		{"contactName", r.ContactName},
		{"contactInfo", r.ContactInfo},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%s is required", f.name)
		}
	}

	if r.Type != TypeLost && r.Type != TypeFound {
		return fmt.Errorf("type must be %q or %q", TypeLost, TypeFound)
	}

	if r.Status != "" && r.Status != StatusActive && r.Status != StatusClaimed && r.Status != StatusPending {
		return fmt.Errorf("status must be %q, %q or %q", StatusActive, StatusClaimed, StatusPending)
	}

	if !ValidContactInfo(r.ContactInfo) {
		return fmt.Errorf("contactInfo must be a valid email or 10-digit phone number")
	}

	date, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return fmt.Errorf("date must be in YYYY-MM-DD format")
	}
	if date.After(time.Now().AddDate(0, 0, 1)) {
		return fmt.Errorf("date cannot be in the future")
	}

	return nil
}

// Validate checks a partial update payload.
func (r *UpdateItemRequest) Validate() error {
	if r.Status != nil {
		switch *r.Status {
		case StatusActive, StatusClaimed, StatusPending:
		default:
			return fmt.Errorf("status must be %q, %q or %q", StatusActive, StatusClaimed, StatusPending)
		}
	}
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if r.Description != nil && strings.TrimSpace(*r.Description) == "" {
		return fmt.Errorf("description cannot be empty")
	}
	return nil
}
