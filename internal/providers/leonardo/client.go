package leonardo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"
	"time"

	"studio/internal/domain"
	"studio/internal/generation"
	"studio/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("leonardo: api key is required")

// APIError is a non-2xx response from the Leonardo API or the storage handoff.
type APIError struct {
	StatusCode int
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("leonardo: %s: status %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("leonardo: %s: status %d: %s", e.Path, e.StatusCode, e.Message)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Options configures the Leonardo client.
type Options struct {
	APIKey         string
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client talks to the Leonardo REST API. It implements both the submission
// and the status side used by the generation package.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://cloud.leonardo.ai/api/rest/v1"
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     infra.OrDiscard(opts.Logger),
	}, nil
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

type initImageResponse struct {
	UploadInitImage struct {
		ID     string          `json:"id"`
		URL    string          `json:"url"`
		Fields json.RawMessage `json:"fields"`
	} `json:"uploadInitImage"`
}

// InitUpload registers an image upload and returns the asset id plus the
// presigned storage target, when one is issued.
func (c *Client) InitUpload(ctx context.Context, extension string) (generation.UploadTicket, error) {
	raw, err := c.do(ctx, http.MethodPost, initImagePath, map[string]any{"extension": extension})
	if err != nil {
		return generation.UploadTicket{}, err
	}
	var decoded initImageResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return generation.UploadTicket{}, fmt.Errorf("leonardo: decode init-image response: %w", err)
	}
	ticket := generation.UploadTicket{AssetID: strings.TrimSpace(decoded.UploadInitImage.ID)}
	if target := strings.TrimSpace(decoded.UploadInitImage.URL); target != "" {
		fields, err := decodeFields(decoded.UploadInitImage.Fields)
		if err != nil {
			return generation.UploadTicket{}, err
		}
		ticket.Target = &generation.UploadTarget{URL: target, Fields: fields}
	}
	return ticket, nil
}

// decodeFields accepts the presigned form fields either as a JSON object or
// as a JSON-encoded string holding that object.
func decodeFields(raw json.RawMessage) (map[string]string, error) {
	if len(bytes.TrimSpace(raw)) == 0 || string(raw) == "null" {
		return map[string]string{}, nil
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		raw = json.RawMessage(encoded)
	}
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("leonardo: decode upload fields: %w", err)
	}
	fields := make(map[string]string, len(generic))
	for k, v := range generic {
		fields[k] = fmt.Sprint(v)
	}
	return fields, nil
}

// UploadToStorage posts data to the presigned storage target as a multipart
// form: every field first, then the file part.
func (c *Client) UploadToStorage(ctx context.Context, target generation.UploadTarget, filename string, data []byte) error {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	keys := make([]string, 0, len(target.Fields))
	for k := range target.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := form.WriteField(k, target.Fields[k]); err != nil {
			return fmt.Errorf("leonardo: write upload field: %w", err)
		}
	}
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("leonardo: create upload part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("leonardo: write upload part: %w", err)
	}
	if err := form.Close(); err != nil {
		return fmt.Errorf("leonardo: close upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, &buf)
	if err != nil {
		return fmt.Errorf("leonardo: build upload request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("leonardo: upload to storage: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Path: "storage", Message: strings.TrimSpace(string(body))}
	}
	c.logger.Debug().Int("bytes", len(data)).Msg("leonardo: storage upload complete")
	return nil
}

// Submit posts body to the submission endpoint for kind.
func (c *Client) Submit(ctx context.Context, kind domain.Kind, body map[string]any) (map[string]any, error) {
	path, ok := submitPaths[kind]
	if !ok {
		return nil, fmt.Errorf("leonardo: no submission endpoint for kind %q", kind)
	}
	raw, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	return decodeObject(raw)
}

// FetchStatus reads the job status, moving to the next candidate endpoint
// whenever one answers 404.
func (c *Client) FetchStatus(ctx context.Context, kind domain.Kind, id string) (map[string]any, error) {
	var lastErr error
	for _, path := range StatusPaths(kind, id) {
		raw, err := c.do(ctx, http.MethodGet, path, nil)
		if err == nil {
			return decodeObject(raw)
		}
		lastErr = err
		if !IsNotFound(err) {
			return nil, err
		}
		c.logger.Debug().Str("job_id", id).Str("path", path).Msg("leonardo: status endpoint not found, trying next")
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("leonardo: encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("leonardo: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("leonardo: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("leonardo: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Path: path, Message: errorMessage(raw)}
	}
	return raw, nil
}

func decodeObject(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("leonardo: decode response: %w", err)
	}
	if out == nil {
		return nil, errors.New("leonardo: empty response body")
	}
	return out, nil
}

// errorMessage pulls a human-readable reason out of the error shapes the API
// is known to return, falling back to the raw body.
func errorMessage(raw []byte) string {
	var detail struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
		Errors  []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(raw, &detail); err == nil {
		if len(detail.Error) > 0 {
			var text string
			if json.Unmarshal(detail.Error, &text) == nil && text != "" {
				return text
			}
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(detail.Error, &nested) == nil && nested.Message != "" {
				return nested.Message
			}
		}
		if detail.Message != "" {
			return detail.Message
		}
		if len(detail.Errors) > 0 && detail.Errors[0].Message != "" {
			return detail.Errors[0].Message
		}
	}
	return strings.TrimSpace(string(raw))
}

var (
	_ generation.Upstream      = (*Client)(nil)
	_ generation.StatusFetcher = (*Client)(nil)
)
