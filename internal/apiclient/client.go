package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tally/internal/api"
)

const defaultTimeout = 10 * time.Second

// Client provides HTTP access to the feature API.
type Client struct {
	base *url.URL
	http *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

// New builds a client for the given bind address ("127.0.0.1:8765") or base
// URL.
func New(bind string, opts ...Option) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, errors.New("bind address is empty")
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, fmt.Errorf("parse api address: %w", err)
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	client := &Client{
		base: base,
		http: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// BaseURL returns the base URL requests are issued against.
func (c *Client) BaseURL() string {
	if c == nil || c.base == nil {
		return ""
	}
	return c.base.String()
}

// Health fetches the service health payload.
func (c *Client) Health(ctx context.Context) (api.Health, error) {
	var out api.Health
	err := c.do(ctx, http.MethodGet, "/health", nil, nil, &out)
	return out, err
}

// Status fetches the daemon status snapshot.
func (c *Client) Status(ctx context.Context) (api.StatusSnapshot, error) {
	var out api.StatusSnapshot
	err := c.do(ctx, http.MethodGet, "/status", nil, nil, &out)
	return out, err
}

// List fetches one page of features. Zero fields fall back to server
// defaults.
func (c *Client) List(ctx context.Context, req api.ListRequest) (api.FeatureList, error) {
	values := url.Values{}
	if req.Limit > 0 {
		values.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.Offset > 0 {
		values.Set("offset", strconv.Itoa(req.Offset))
	}
	if req.Passes != nil {
		values.Set("passes", strconv.FormatBool(*req.Passes))
	}
	if strings.TrimSpace(req.Category) != "" {
		values.Set("category", req.Category)
	}

	var out api.FeatureList
	err := c.do(ctx, http.MethodGet, "/features", values, nil, &out)
	return out, err
}

// NextPending fetches the next feature to work on.
func (c *Client) NextPending(ctx context.Context) (api.Feature, error) {
	var out api.Feature
	err := c.do(ctx, http.MethodGet, "/features/next", nil, nil, &out)
	return out, err
}

// Stats fetches passing progress counts.
func (c *Client) Stats(ctx context.Context) (api.Stats, error) {
	var out api.Stats
	err := c.do(ctx, http.MethodGet, "/features/stats", nil, nil, &out)
	return out, err
}

// Get fetches a single feature by id.
func (c *Client) Get(ctx context.Context, id int64) (api.Feature, error) {
	var out api.Feature
	err := c.do(ctx, http.MethodGet, featurePath(id), nil, nil, &out)
	return out, err
}

// Create adds a feature to the backlog.
func (c *Client) Create(ctx context.Context, input api.FeatureInput) (api.Feature, error) {
	var out api.Feature
	err := c.do(ctx, http.MethodPost, "/features", nil, input, &out)
	return out, err
}

// CreateBulk adds several features at once and returns the created count.
func (c *Client) CreateBulk(ctx context.Context, inputs []api.FeatureInput) (int64, error) {
	var out api.BulkCreateResponse
	err := c.do(ctx, http.MethodPost, "/features/bulk", nil, api.BulkCreateRequest{Features: inputs}, &out)
	return out.Created, err
}

// SetPasses updates the passing state of a feature.
func (c *Client) SetPasses(ctx context.Context, id int64, passes bool) (api.Feature, error) {
	var out api.Feature
	err := c.do(ctx, http.MethodPatch, featurePath(id), nil, api.UpdatePassesRequest{Passes: passes}, &out)
	return out, err
}

// Delete removes a feature permanently.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, featurePath(id), nil, nil, nil)
}

// Shutdown asks the daemon to stop.
func (c *Client) Shutdown(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/control/shutdown", nil, nil, nil)
}

func featurePath(id int64) string {
	return "/features/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c == nil || c.base == nil {
		return errors.New("api client is not configured")
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	endpoint := c.base.ResolveReference(&url.URL{Path: path, RawQuery: query.Encode()})
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))

	var envelope struct {
		Error string `json:"error"`
	}
	message := ""
	if err := json.Unmarshal(data, &envelope); err == nil {
		message = envelope.Error
	}
	if message == "" {
		message = strings.TrimSpace(string(data))
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return api.NewNotFoundError(message)
	case http.StatusUnprocessableEntity:
		return api.NewValidationError(message)
	default:
		return fmt.Errorf("api returned status %d: %s", resp.StatusCode, message)
	}
}

// IsUnavailable reports whether err looks like a connection failure rather
// than a server-side error.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
