// Package remote is the REST client for the backend API. The server is
// authoritative; writes are full-entity bodies and the server applies
// last-write-wins on its own updated_at.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tribeTrackerSync/internal/types/badge"
	"tribeTrackerSync/internal/types/challenge"
	"tribeTrackerSync/internal/types/checkin"
	"tribeTrackerSync/internal/types/participant"
	"tribeTrackerSync/internal/types/profile"
	"tribeTrackerSync/internal/types/syncqueue"
)

const defaultTimeout = 15 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// entityName maps a collection type to the singular field name the API
// expects in write bodies.
func entityName(t syncqueue.EntityType) string {
	switch t {
	case syncqueue.TypeChallenges:
		return "challenge"
	case syncqueue.TypeParticipants:
		return "participant"
	case syncqueue.TypeCheckins:
		return "checkin"
	case syncqueue.TypeProfile:
		return "profile"
	}
	return string(t)
}

// collectionPath maps a collection type to its endpoint.
func collectionPath(t syncqueue.EntityType) string {
	if t == syncqueue.TypeProfile {
		return "/api/users"
	}
	return "/api/" + string(t)
}

// Push issues exactly one write for an entity: create is POST to the
// collection, update is PUT and delete is DELETE on the entity resource.
// The entity JSON is augmented with a server-style updated_at timestamp.
func (c *Client) Push(ctx context.Context, token string, t syncqueue.EntityType, action syncqueue.Action, id string, entityJSON json.RawMessage) error {
	url := c.baseURL + collectionPath(t)
	var method string
	switch action {
	case syncqueue.ActionCreate:
		method = http.MethodPost
	case syncqueue.ActionUpdate:
		method = http.MethodPut
		url += "/" + id
	case syncqueue.ActionDelete:
		method = http.MethodDelete
		url += "/" + id
	default:
		return fmt.Errorf("unknown sync action %q", action)
	}

	var body io.Reader
	if action != syncqueue.ActionDelete {
		wrapped, err := wrapEntity(entityName(t), entityJSON)
		if err != nil {
			return err
		}
		body = bytes.NewReader(wrapped)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("push to %s failed: %w", url, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("push to %s returned %d", url, resp.StatusCode)
	}
	return nil
}

func wrapEntity(name string, entityJSON json.RawMessage) ([]byte, error) {
	var entity map[string]any
	if err := json.Unmarshal(entityJSON, &entity); err != nil {
		return nil, fmt.Errorf("failed to decode entity payload: %w", err)
	}
	entity["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	return json.Marshal(map[string]any{name: entity})
}

func (c *Client) get(ctx context.Context, token, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("fetch %s returned %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// FetchChallenges returns the remote challenge collection. A response without
// the named collection field is an empty collection, not an error.
func (c *Client) FetchChallenges(ctx context.Context, token string) ([]challenge.Challenge, error) {
	var resp struct {
		Challenges []challenge.Challenge `json:"challenges"`
	}
	if err := c.get(ctx, token, "/api/challenges", &resp); err != nil {
		return nil, err
	}
	return resp.Challenges, nil
}

func (c *Client) FetchParticipants(ctx context.Context, token string) ([]participant.ChallengeParticipant, error) {
	var resp struct {
		Participants []participant.ChallengeParticipant `json:"participants"`
	}
	if err := c.get(ctx, token, "/api/participants", &resp); err != nil {
		return nil, err
	}
	return resp.Participants, nil
}

func (c *Client) FetchCheckins(ctx context.Context, token string) ([]checkin.HabitCheckin, error) {
	var resp struct {
		Checkins []checkin.HabitCheckin `json:"checkins"`
	}
	if err := c.get(ctx, token, "/api/checkins", &resp); err != nil {
		return nil, err
	}
	return resp.Checkins, nil
}

func (c *Client) FetchProfile(ctx context.Context, token, userID string) (*profile.UserProfile, error) {
	var resp struct {
		Profile *profile.UserProfile `json:"profile"`
	}
	if err := c.get(ctx, token, "/api/users/"+userID, &resp); err != nil {
		return nil, err
	}
	return resp.Profile, nil
}

// FetchBadges accepts either field name the backend has used for badge
// definitions.
func (c *Client) FetchBadges(ctx context.Context, token string) ([]badge.BadgeDefinition, error) {
	var resp struct {
		Badges      []badge.BadgeDefinition `json:"badges"`
		Definitions []badge.BadgeDefinition `json:"definitions"`
	}
	if err := c.get(ctx, token, "/api/badges", &resp); err != nil {
		return nil, err
	}
	if resp.Badges != nil {
		return resp.Badges, nil
	}
	return resp.Definitions, nil
}
