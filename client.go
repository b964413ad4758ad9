// Package givehub provides a client for the GiveHub charity campaign
// API. It implements the campaign collection surface (list, search,
// create, update, delete, media upload) together with an in-memory
// campaign store and the pure filter/sort/paginate pipeline shared by
// the public catalog and the admin console.
package givehub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
)

// ErrCampaignNotFound reports that the requested campaign does not
// exist on the backend. Use errors.Is to detect it.
var ErrCampaignNotFound = errors.New("campaign not found")

// Client defines the interface for talking to the campaign collection
// endpoints. It performs no caching and, unless WithRetry is set, no
// retries; every call is a single round trip.
type Client interface {
	// ListCampaigns retrieves the full campaign collection.
	ListCampaigns(context.Context) ([]Campaign, error)

	// FindCampaign retrieves a single campaign by its ID.
	FindCampaign(context.Context, int64) (Campaign, error)

	// CreateCampaign creates a campaign. When an image is supplied the
	// request is sent as a multipart form with the file attached;
	// otherwise a plain JSON body is used. The returned campaign
	// carries the server-assigned ID.
	CreateCampaign(context.Context, CampaignDraft, *ImageUpload) (Campaign, error)

	// UpdateCampaign applies a partial update: only the fields set on
	// the patch overwrite their remote counterparts.
	UpdateCampaign(context.Context, int64, CampaignPatch) (Campaign, error)

	// DeleteCampaign deletes the specified campaign.
	DeleteCampaign(context.Context, int64) error

	// SearchCampaigns runs a server-side filtered and paginated query.
	SearchCampaigns(context.Context, string, int, int) (SearchResponse, error)

	// AddCampaignMedia attaches an already-encoded base64 data URI to a
	// campaign as a new media item.
	AddCampaignMedia(context.Context, int64, string) (Media, error)
}

type clientOption struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	doRetry    bool
}

type apiClient struct {
	opts   clientOption
	client *http.Client
	logger *slog.Logger
}

// ClientOption defines a function type for configuring client options.
type ClientOption func(*clientOption)

// APIResponse is the standard envelope every backend endpoint answers
// with. The statusCode inside the envelope is authoritative: a call
// fails whenever it differs from the expected success code, regardless
// of the HTTP transport status.
type APIResponse struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

// GatewayError reports a response whose envelope did not carry the
// expected success code. Message holds the backend's own wording when
// it supplied one.
type GatewayError struct {
	Code    int
	Message string
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("backend error %d", e.Code)
}

func (e *GatewayError) Unwrap() error {
	if e.Code == http.StatusNotFound {
		return ErrCampaignNotFound
	}
	return nil
}

// WithAPIKey returns a ClientOption that sets the bearer token attached
// to every request. Reads against public campaigns work without one.
func WithAPIKey(key string) ClientOption {
	return func(opt *clientOption) {
		opt.apiKey = key
	}
}

// WithBaseURL returns a ClientOption that sets the backend base URL.
func WithBaseURL(url string) ClientOption {
	return func(opt *clientOption) {
		opt.baseURL = url
	}
}

// WithHTTPClient returns a ClientOption that substitutes the underlying
// *http.Client, e.g. to set timeouts or a custom transport.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(opt *clientOption) {
		opt.httpClient = hc
	}
}

// WithLogger returns a ClientOption that sets the logger used for
// request tracing. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(opt *clientOption) {
		opt.logger = logger
	}
}

// WithRetry returns a ClientOption that enables retries (when the
// backend explicitly signals a retryable condition) for create calls.
// If not provided, defaults to false.
func WithRetry() ClientOption {
	return func(opt *clientOption) {
		opt.doRetry = true
	}
}

// NewClient creates a campaign API client with the provided options.
// A base URL must be provided with WithBaseURL, otherwise an error is
// returned.
func NewClient(options ...ClientOption) (Client, error) {
	var clientOptions clientOption

	for _, option := range options {
		option(&clientOptions)
	}

	if clientOptions.baseURL == "" {
		return nil, errors.New("missing base URL!")
	}
	clientOptions.baseURL = strings.TrimRight(clientOptions.baseURL, "/")

	httpClient := clientOptions.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	logger := clientOptions.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &apiClient{
		opts:   clientOptions,
		client: httpClient,
		logger: logger,
	}, nil
}

type retryable interface {
	CanRetry() bool
}

type retryableError struct {
	Err      error
	canRetry bool
}

func (e retryableError) Error() string {
	return e.Err.Error()
}

func (e retryableError) Unwrap() error {
	return e.Err
}

func (e retryableError) CanRetry() bool {
	return e.canRetry
}

func (c *apiClient) makeRequest(ctx context.Context, method, endpoint string, body any, wantCode int) (*APIResponse, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	return c.doRequest(ctx, method, endpoint, reqBody, "application/json", wantCode)
}

func (c *apiClient) doRequest(ctx context.Context, method, endpoint string, reqBody io.Reader, contentType string, wantCode int) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.opts.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Request-Id", uuid.NewString())
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.opts.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.apiKey)
	}

	c.logger.DebugContext(ctx, "issuing request",
		"method", req.Method,
		"uri", req.URL.RequestURI(),
		"request_id", req.Header.Get("X-Request-Id"),
	)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		rawBody := string(respBody)

		errorReturned := fmt.Errorf("failed to unmarshal response: %w", err)

		if "retry later" == strings.ToLower(strings.TrimSpace(rawBody)) {
			return nil, retryableError{Err: errorReturned, canRetry: true}
		}

		return nil, errorReturned
	}

	if apiResp.StatusCode != wantCode {
		return nil, &GatewayError{Code: apiResp.StatusCode, Message: apiResp.Message}
	}

	return &apiResp, nil
}

func (c *apiClient) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	resp, err := c.makeRequest(ctx, http.MethodGet, "/campaigns", nil, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var campaigns []Campaign
	if err := json.Unmarshal(resp.Data, &campaigns); err != nil {
		return nil, fmt.Errorf("failed to unmarshal campaigns: %w", err)
	}

	return campaigns, nil
}

func (c *apiClient) FindCampaign(ctx context.Context, id int64) (Campaign, error) {
	endpoint := fmt.Sprintf("/campaigns/%d", id)

	resp, err := c.makeRequest(ctx, http.MethodGet, endpoint, nil, http.StatusOK)
	if err != nil {
		return Campaign{}, err
	}

	var campaign Campaign
	if err := json.Unmarshal(resp.Data, &campaign); err != nil {
		return Campaign{}, fmt.Errorf("failed to unmarshal campaign: %w", err)
	}

	return campaign, nil
}

func (c *apiClient) CreateCampaign(ctx context.Context, draft CampaignDraft, image *ImageUpload) (Campaign, error) {
	send := func() (*APIResponse, error) {
		if image != nil {
			return c.createMultipart(ctx, draft, image)
		}
		return c.makeRequest(ctx, http.MethodPost, "/campaigns", draft, http.StatusCreated)
	}

	resp, err := send()
	if err != nil {
		re, ok := err.(retryable)
		if !c.opts.doRetry || !ok || !re.CanRetry() {
			return Campaign{}, err
		}

		resp, err = backoff.Retry(ctx, send, backoff.WithBackOff(backoff.NewExponentialBackOff()))
		if err != nil {
			return Campaign{}, err
		}
	}

	var created Campaign
	if err := json.Unmarshal(resp.Data, &created); err != nil {
		return Campaign{}, fmt.Errorf("failed to unmarshal created campaign: %w", err)
	}

	return created, nil
}

// createMultipart sends the draft as a multipart form: scalar fields
// stringified, tags JSON-stringified, the image attached as a binary
// file part named "image".
func (c *apiClient) createMultipart(ctx context.Context, draft CampaignDraft, image *ImageUpload) (*APIResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fields := map[string]string{
		"title":        draft.Title,
		"description":  draft.Description,
		"emoji":        draft.Emoji,
		"category":     draft.Category,
		"location":     draft.Location,
		"targetAmount": strconv.FormatInt(draft.TargetAmount, 10),
		"status":       draft.Status,
		"isFeatured":   strconv.FormatBool(draft.IsFeatured),
		"startDate":    draft.StartDate.Format(time.RFC3339),
	}
	if draft.Deadline != nil {
		fields["deadline"] = draft.Deadline.Format(time.RFC3339)
	}
	if len(draft.Tags) > 0 {
		encoded, err := json.Marshal(draft.Tags)
		if err != nil {
			return nil, fmt.Errorf("failed to encode tags: %w", err)
		}
		fields["tags"] = string(encoded)
	}

	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to write form field %q: %w", name, err)
		}
	}

	part, err := writer.CreateFormFile("image", image.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create image part: %w", err)
	}
	if _, err := part.Write(image.Data); err != nil {
		return nil, fmt.Errorf("failed to write image part: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return c.doRequest(ctx, http.MethodPost, "/campaigns", &buf, writer.FormDataContentType(), http.StatusCreated)
}

func (c *apiClient) UpdateCampaign(ctx context.Context, id int64, patch CampaignPatch) (Campaign, error) {
	endpoint := fmt.Sprintf("/campaigns/%d", id)

	resp, err := c.makeRequest(ctx, http.MethodPut, endpoint, patch, http.StatusOK)
	if err != nil {
		return Campaign{}, err
	}

	var updated Campaign
	if err := json.Unmarshal(resp.Data, &updated); err != nil {
		return Campaign{}, fmt.Errorf("failed to unmarshal updated campaign: %w", err)
	}

	return updated, nil
}

func (c *apiClient) DeleteCampaign(ctx context.Context, id int64) error {
	endpoint := fmt.Sprintf("/campaigns/%d", id)
	_, err := c.makeRequest(ctx, http.MethodDelete, endpoint, nil, http.StatusOK)
	return err
}

func (c *apiClient) SearchCampaigns(ctx context.Context, query string, page, size int) (SearchResponse, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("size", strconv.Itoa(size))

	resp, err := c.makeRequest(ctx, http.MethodGet, "/campaigns/search?"+params.Encode(), nil, http.StatusOK)
	if err != nil {
		return SearchResponse{}, err
	}

	var results SearchResponse
	if err := json.Unmarshal(resp.Data, &results); err != nil {
		return SearchResponse{}, fmt.Errorf("failed to unmarshal search results: %w", err)
	}

	return results, nil
}

func (c *apiClient) AddCampaignMedia(ctx context.Context, id int64, base64Image string) (Media, error) {
	endpoint := fmt.Sprintf("/campaigns/%d/media", id)

	body := map[string]string{"base64Image": base64Image}

	resp, err := c.makeRequest(ctx, http.MethodPost, endpoint, body, http.StatusCreated)
	if err != nil {
		return Media{}, err
	}

	var media Media
	if err := json.Unmarshal(resp.Data, &media); err != nil {
		return Media{}, fmt.Errorf("failed to unmarshal media: %w", err)
	}

	return media, nil
}
