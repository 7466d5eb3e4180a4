package ghl

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Contact is a CRM contact
type Contact struct {
	ID          string    `json:"id"`
	LocationID  string    `json:"locationId"`
	Email       string    `json:"email,omitempty"`
	FirstName   string    `json:"firstName,omitempty"`
	LastName    string    `json:"lastName,omitempty"`
	ContactName string    `json:"contactName,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Source      string    `json:"source,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	DateAdded   time.Time `json:"dateAdded,omitempty"`
}

// ContactInput holds the writable contact fields
type ContactInput struct {
	Email     string   `json:"email,omitempty"`
	FirstName string   `json:"firstName,omitempty"`
	LastName  string   `json:"lastName,omitempty"`
	Name      string   `json:"name,omitempty"`
	Phone     string   `json:"phone,omitempty"`
	Source    string   `json:"source,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

type upsertContactRequest struct {
	LocationID string `json:"locationId"`
	ContactInput
}

type upsertContactResponse struct {
	New     bool    `json:"new"`
	Contact Contact `json:"contact"`
}

type contactResponse struct {
	Contact *Contact `json:"contact"`
}

type tagsRequest struct {
	Tags []string `json:"tags"`
}

func contactPath(id string, rest ...string) string {
	parts := append([]string{"/contacts", url.PathEscape(id)}, rest...)
	return strings.Join(parts, "/")
}

// UpsertContact creates a contact or updates the one matching its email or
// phone. created reports whether a new contact was made.
func (c *Client) UpsertContact(ctx context.Context, in ContactInput) (*Contact, bool, error) {
	if in.Email == "" && in.Phone == "" {
		return nil, false, errors.New("contact needs an email or phone")
	}
	var resp upsertContactResponse
	body := upsertContactRequest{LocationID: c.locationID, ContactInput: in}
	if err := c.do(ctx, http.MethodPost, "/contacts/upsert", nil, body, &resp); err != nil {
		return nil, false, err
	}
	return &resp.Contact, resp.New, nil
}

// GetContact fetches a contact by ID
func (c *Client) GetContact(ctx context.Context, id string) (*Contact, error) {
	var resp contactResponse
	if err := c.do(ctx, http.MethodGet, contactPath(id), nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Contact == nil {
		return nil, &APIError{StatusCode: http.StatusNotFound, Method: http.MethodGet, Path: contactPath(id)}
	}
	return resp.Contact, nil
}

// FindContactByEmail returns the contact with this email, or nil when none exists
func (c *Client) FindContactByEmail(ctx context.Context, email string) (*Contact, error) {
	var resp contactResponse
	query := map[string]string{"locationId": c.locationID, "email": email}
	err := c.do(ctx, http.MethodGet, "/contacts/search/duplicate", query, nil, &resp)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return resp.Contact, nil
}

// DeleteContact deletes a contact by ID
func (c *Client) DeleteContact(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, contactPath(id), nil, nil, nil)
}

// AddTags applies tags to a contact; unknown tags are created by the API
func (c *Client) AddTags(ctx context.Context, contactID string, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	return c.do(ctx, http.MethodPost, contactPath(contactID, "tags"), nil, tagsRequest{Tags: tags}, nil)
}

// RemoveTags removes tags from a contact
func (c *Client) RemoveTags(ctx context.Context, contactID string, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	return c.do(ctx, http.MethodDelete, contactPath(contactID, "tags"), nil, tagsRequest{Tags: tags}, nil)
}
