package ghl

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// Tag is a location-level contact tag
type Tag struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	LocationID string `json:"locationId,omitempty"`
}

type listTagsResponse struct {
	Tags []Tag `json:"tags"`
}

type tagResponse struct {
	Tag Tag `json:"tag"`
}

type createTagRequest struct {
	Name string `json:"name"`
}

func tagKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (c *Client) tagsPath(rest ...string) string {
	parts := append([]string{"/locations", url.PathEscape(c.locationID), "tags"}, rest...)
	return strings.Join(parts, "/")
}

// ListTags returns every tag of the location and refreshes the name cache
func (c *Client) ListTags(ctx context.Context) ([]Tag, error) {
	var resp listTagsResponse
	if err := c.do(ctx, http.MethodGet, c.tagsPath(), nil, nil, &resp); err != nil {
		return nil, err
	}
	for _, t := range resp.Tags {
		c.tags.Add(tagKey(t.Name), t)
	}
	return resp.Tags, nil
}

// FindTag looks a tag up by name, case-insensitively. It returns nil when
// the location has no such tag.
func (c *Client) FindTag(ctx context.Context, name string) (*Tag, error) {
	key := tagKey(name)
	if t, ok := c.tags.Get(key); ok {
		return &t, nil
	}
	tags, err := c.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tags {
		if tagKey(t.Name) == key {
			return &t, nil
		}
	}
	return nil, nil
}

// CreateTag creates a tag
func (c *Client) CreateTag(ctx context.Context, name string) (*Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("tag name is empty")
	}
	var resp tagResponse
	if err := c.do(ctx, http.MethodPost, c.tagsPath(), nil, createTagRequest{Name: name}, &resp); err != nil {
		return nil, err
	}
	c.tags.Add(tagKey(resp.Tag.Name), resp.Tag)
	return &resp.Tag, nil
}

// DeleteTag deletes a tag by ID
func (c *Client) DeleteTag(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, c.tagsPath(url.PathEscape(id)), nil, nil, nil); err != nil {
		return err
	}
	for _, key := range c.tags.Keys() {
		if t, ok := c.tags.Peek(key); ok && t.ID == id {
			c.tags.Remove(key)
		}
	}
	return nil
}

// EnsureTag returns the named tag, creating it when missing
func (c *Client) EnsureTag(ctx context.Context, name string) (*Tag, error) {
	// Serialised so concurrent syncs do not create the same tag twice
	c.tagMu.Lock()
	defer c.tagMu.Unlock()

	t, err := c.FindTag(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up tag %q: %w", name, err)
	}
	if t != nil {
		return t, nil
	}

	c.logger.Info("Creating missing tag", zap.String("tag", name))
	t, err = c.CreateTag(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create tag %q: %w", name, err)
	}
	return t, nil
}
