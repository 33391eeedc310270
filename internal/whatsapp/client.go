package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mesaflow/mesaflow-backend/pkg/env"
	pkgerrors "github.com/mesaflow/mesaflow-backend/pkg/errors"
	"github.com/mesaflow/mesaflow-backend/pkg/types"
)

const (
	defaultBaseURL              = "https://graph.facebook.com/v19.0"
	responseBodyReadLimit int64 = 1024
	defaultSendTimeout          = 10 * time.Second
)

// Client wraps the Cloud API messages endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the Graph API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the Cloud API client given a bearer token.
func NewClient(token string, opts ...Option) (*Client, error) {
	trimmedToken := strings.TrimSpace(token)
	if trimmedToken == "" {
		return nil, fmt.Errorf("whatsapp api token is required")
	}

	client := &Client{
		token:      trimmedToken,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultSendTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Send delivers one reply from the business phone number to a customer and
// returns the provider message id. credentialRef names the environment
// variable holding the tenant's bearer token; when the ref is empty or
// unset the platform token the client was built with is used. Failures map
// to the retryable dependency code; the caller decides whether the webhook
// delivery is acked.
func (c *Client) Send(ctx context.Context, phoneNumberID, to, credentialRef string, reply types.Reply) (string, error) {
	if c == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "whatsapp client not configured")
	}
	if strings.TrimSpace(phoneNumberID) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "phone number id is required")
	}
	if strings.TrimSpace(to) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "recipient is required")
	}

	payload, err := json.Marshal(buildSendRequest(to, reply))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal send request")
	}

	endpoint := fmt.Sprintf("%s/%s/messages", strings.TrimRight(c.baseURL, "/"), url.PathEscape(phoneNumberID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build send request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.tokenFor(credentialRef))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute send request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "send request failed")
	}

	var apiResp sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode send response")
	}
	if len(apiResp.Messages) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "send response carried no message id")
	}
	return apiResp.Messages[0].ID, nil
}

// tokenFor resolves the bearer token for one send. Tenant rows store a
// credential reference, never the token itself.
func (c *Client) tokenFor(credentialRef string) string {
	ref := strings.TrimSpace(credentialRef)
	if ref == "" {
		return c.token
	}
	return env.Get(ref, c.token)
}
