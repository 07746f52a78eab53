package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"admitchat/internal/models"
)

// ErrUnauthorized reports a rejected bearer token. Callers log it and
// leave their local state untouched; re-authentication is not handled here.
var ErrUnauthorized = errors.New("unauthorized")

// Client wraps a resty client to centralize base URL, auth header and
// timeout handling for the chat backend's REST endpoints.
type Client struct {
	http *resty.Client
	log  *zap.Logger
}

// NewClient creates the REST client for the chat backend.
func NewClient(baseURL, token string, timeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	if token != "" {
		client.SetAuthToken(token)
	}
	return &Client{http: client, log: log}
}

// Sessions fetches the authenticated user's session list.
func (c *Client) Sessions(ctx context.Context, userID string) ([]models.Session, error) {
	var sessions []models.Session
	res, err := c.http.R().
		SetContext(ctx).
		SetResult(&sessions).
		Get("/sessions/" + userID)
	if err := c.check(res, err, "list sessions"); err != nil {
		return nil, err
	}
	return sessions, nil
}

// CreateSessionRequest is the creation payload. FirstMessage is only a
// hint for title generation; the caller still sends the message itself.
type CreateSessionRequest struct {
	Title        string    `json:"title"`
	UserID       string    `json:"userId"`
	CreatedAt    time.Time `json:"createdAt"`
	FirstMessage string    `json:"firstMessage,omitempty"`
}

// CreateSession issues a session creation request and returns the
// created session as the backend reports it.
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (models.Session, error) {
	var created models.Session
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&created).
		Post("/session")
	if err := c.check(res, err, "create session"); err != nil {
		return models.Session{}, err
	}
	return created, nil
}

// Messages fetches the full message history for a session.
func (c *Client) Messages(ctx context.Context, sessionID string) ([]models.Message, error) {
	var messages []models.Message
	res, err := c.http.R().
		SetContext(ctx).
		SetResult(&messages).
		Get(fmt.Sprintf("/sessions/%s/messages", sessionID))
	if err := c.check(res, err, "load messages"); err != nil {
		return nil, err
	}
	return messages, nil
}

// PostMessage sends a message over REST. This is the fallback path used
// when the real-time channel is down at publish time.
func (c *Client) PostMessage(ctx context.Context, msg models.Message) error {
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(msg).
		Post("/message")
	return c.check(res, err, "post message")
}

// CancelRequest asks the backend to cancel an in-flight request. The
// cancellation is advisory; the authoritative CANCELLED status arrives
// later over the real-time channel.
func (c *Client) CancelRequest(ctx context.Context, sessionID, requestID string) error {
	res, err := c.http.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("/message/%s/cancel/%s", sessionID, requestID))
	return c.check(res, err, "cancel request")
}

func (c *Client) check(res *resty.Response, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.StatusCode() == http.StatusUnauthorized {
		c.log.Warn("backend rejected credentials", zap.String("op", op))
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}
	if !res.IsSuccess() {
		return fmt.Errorf("%s: backend returned %d", op, res.StatusCode())
	}
	return nil
}
