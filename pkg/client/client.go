// Package client talks to the Easy Homes HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"easyhomes/internal/models"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("api request failed with status %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// Client is a thin JSON client for the listing and commit endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a Client for baseURL. A nil httpClient gets a 30 second timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// FetchHomes returns every listing. Missing renters stay nil and missing
// image lists become empty.
func (c *Client) FetchHomes(ctx context.Context) ([]models.Home, error) {
	var homes []models.Home
	if err := c.getJSON(ctx, "/homes/get", &homes); err != nil {
		return nil, err
	}
	for i := range homes {
		if homes[i].Images == nil {
			homes[i].Images = []models.HomeImage{}
		}
	}
	return homes, nil
}

// FetchCommits returns every commit.
func (c *Client) FetchCommits(ctx context.Context) ([]models.Commit, error) {
	var commits []models.Commit
	if err := c.getJSON(ctx, "/commit/getall", &commits); err != nil {
		return nil, err
	}
	return commits, nil
}

// Screenshot is the proof-of-payment file sent with a commit.
type Screenshot struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CommitRequest carries the four fields of a booking submission.
type CommitRequest struct {
	UserID         string
	RenterID       string
	HomeID         string
	Screenshot     Screenshot
	IdempotencyKey string
}

// PostCommit submits a booking. The server answers 201 for a new commit and
// 200 when the idempotency key matched an earlier one; both are successes.
func (c *Client) PostCommit(ctx context.Context, in CommitRequest) (*models.Commit, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, f := range []struct{ name, value string }{
		{"userId", in.UserID},
		{"renterId", in.RenterID},
		{"homeId", in.HomeID},
	} {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", f.name, err)
		}
	}
	if in.IdempotencyKey != "" {
		if err := w.WriteField("idempotencyKey", in.IdempotencyKey); err != nil {
			return nil, fmt.Errorf("failed to write form field idempotencyKey: %w", err)
		}
	}

	filename := in.Screenshot.Filename
	if filename == "" {
		filename = "screenshot"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="screenshot"; filename=%q`, filename))
	contentType := in.Screenshot.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create screenshot part: %w", err)
	}
	if _, err := part.Write(in.Screenshot.Data); err != nil {
		return nil, fmt.Errorf("failed to write screenshot: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/commit/post", body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if in.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", in.IdempotencyKey)
	}

	var commit models.Commit
	if err := c.do(req, &commit); err != nil {
		return nil, err
	}
	return &commit, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var body struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &body) == nil {
			apiErr.Message = strings.TrimSpace(strings.Join([]string{body.Message, body.Error}, ": "))
			apiErr.Message = strings.Trim(apiErr.Message, ": ")
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
