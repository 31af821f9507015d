package aplo

// Package aplo publishes approved event listings to the APLO tourism
// platform over its JSON API.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/communeo/communeo-api/config"
	"github.com/communeo/communeo-api/internal/domain/model"
	apperrors "github.com/communeo/communeo-api/internal/errors"
)

// remoteIDExpression locates the platform-assigned event identifier in the
// publish response. APLO wraps payloads in a data envelope.
const remoteIDExpression = "data.event.id"

const maxResponseBytes = 1 << 20

// Client publishes events to the APLO platform.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an APLO client from configuration.
func NewClient(cfg config.AploConfig, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("aplo: base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("aplo: API key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// publishPayload is the wire shape APLO expects for an event listing.
type publishPayload struct {
	ExternalID   int64      `json:"external_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	StartsAt     time.Time  `json:"starts_at"`
	EndsAt       time.Time  `json:"ends_at"`
	Venue        string     `json:"venue"`
	Address      string     `json:"address"`
	Free         bool       `json:"free"`
	Price        *float64   `json:"price,omitempty"`
	ImageURL     *string    `json:"image_url,omitempty"`
	Latitude     *float64   `json:"latitude,omitempty"`
	Longitude    *float64   `json:"longitude,omitempty"`
	ContactName  *string    `json:"contact_name,omitempty"`
	ContactEmail *string    `json:"contact_email,omitempty"`
	ContactPhone *string    `json:"contact_phone,omitempty"`
}

// Publish sends an approved event to APLO and returns the platform-assigned
// event identifier.
func (c *Client) Publish(ctx context.Context, ev *model.Event) (string, error) {
	if ev == nil {
		return "", errors.New("aplo: nil event")
	}

	payload := publishPayload{
		ExternalID:   ev.ID,
		Title:        ev.Title,
		Description:  ev.Description,
		StartsAt:     ev.DateStart,
		EndsAt:       ev.DateEnd,
		Venue:        ev.Location,
		Address:      ev.Address,
		Free:         ev.IsFree,
		Price:        ev.Price,
		ImageURL:     ev.ImageURL,
		Latitude:     ev.GPSLat,
		Longitude:    ev.GPSLng,
		ContactName:  ev.ContactName,
		ContactEmail: ev.ContactEmail,
		ContactPhone: ev.ContactPhone,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal aplo payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/events", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build aplo request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.Wrapf(err, apperrors.ErrCodeUnavailable, "aplo publish event %d", ev.ID)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", apperrors.Wrapf(err, apperrors.ErrCodeUnavailable, "read aplo response for event %d", ev.ID)
	}

	if err := c.checkStatus(resp.StatusCode, raw, ev.ID); err != nil {
		return "", err
	}

	id, err := extractRemoteID(raw)
	if err != nil {
		return "", err
	}

	c.logger.DebugContext(ctx, "published event to aplo", "event_id", ev.ID, "aplo_event_id", id)
	return id, nil
}

func (c *Client) checkStatus(status int, raw []byte, eventID int64) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusTooManyRequests || status >= 500:
		return apperrors.Unavailable(fmt.Sprintf("aplo returned %d for event %d", status, eventID))
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperrors.Permissionf("aplo rejected credentials (status %d)", status)
	default:
		return apperrors.Validationf("aplo rejected event %d (status %d): %s", eventID, status, summarize(raw))
	}
}

// extractRemoteID pulls the remote event id out of a publish response body.
func extractRemoteID(raw []byte) (string, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("decode aplo response: %w", err)
	}
	result, err := jmespath.Search(remoteIDExpression, doc)
	if err != nil {
		return "", fmt.Errorf("search aplo response: %w", err)
	}
	switch v := result.(type) {
	case string:
		if v == "" {
			return "", errors.New("aplo response contained empty event id")
		}
		return v, nil
	case float64:
		return fmt.Sprintf("%.0f", v), nil
	default:
		return "", errors.New("aplo response missing event id")
	}
}

// summarize trims a response body for inclusion in error messages.
func summarize(raw []byte) string {
	const limit = 200
	s := string(raw)
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
