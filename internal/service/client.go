// Package service provides the client for the remote interviewer service.
//
// Each operation is a single round trip with no internal retry. Failures are
// reported as *TransportError (service unreachable), *ServiceError (request
// rejected) or, for EndInterview, *MalformedReport.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonathan/mock-interview/internal/types"
)

// Operation names used in errors and logs.
const (
	OpSubmitResume = "submit-resume"
	OpSendMessage  = "send-message"
	OpEndInterview = "end-interview"
	OpHealth       = "health"
)

// DefaultUserAgent is the user agent string for requests.
const DefaultUserAgent = "InterviewAgent/1.0"

// SessionHeader carries the client session ID on every request.
const SessionHeader = "X-Session-ID"

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// Client is the set of remote operations the session controller depends on.
// Implementations hold no session state.
type Client interface {
	// SubmitResume uploads the resume file.
	SubmitResume(ctx context.Context, resume types.Resume) error
	// SendMessage sends the candidate's message and returns the interviewer's reply.
	SendMessage(ctx context.Context, message string) (string, error)
	// EndInterview finishes the interview and returns the decoded report.
	EndInterview(ctx context.Context) (*types.Report, error)
}

// Options configures the HTTP client.
type Options struct {
	Timeout    time.Duration // 0 means no timeout
	UserAgent  string
	Headers    map[string]string
	Tokens     *TokenSource // optional bearer tokens
	Verbose    bool
	HTTPClient *http.Client // overrides Timeout when set
}

// DefaultOptions returns the defaults: no timeout, no tokens.
func DefaultOptions() *Options {
	return &Options{
		UserAgent: DefaultUserAgent,
	}
}

// HTTPClient implements Client over the service's JSON/HTTP API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	options    *Options
}

// NewHTTPClient creates a client for the service rooted at baseURL.
func NewHTTPClient(baseURL string, opts *Options) (*HTTPClient, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid service URL %q", baseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		options:    opts,
	}, nil
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type endInterviewResponse struct {
	Report json.RawMessage `json:"report"`
	Error  string          `json:"error"`
}

type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

// SubmitResume uploads the resume as multipart form field "file".
func (c *HTTPClient) SubmitResume(ctx context.Context, resume types.Resume) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", resume.Filename)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(resume.Content); err != nil {
		return fmt.Errorf("write resume content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	_, err = c.do(ctx, OpSubmitResume, http.MethodPost, "/api/upload", mw.FormDataContentType(), &buf)
	return err
}

// SendMessage posts {"message": ...} and returns the "response" field.
func (c *HTTPClient) SendMessage(ctx context.Context, message string) (string, error) {
	body, err := json.Marshal(chatRequest{Message: message})
	if err != nil {
		return "", fmt.Errorf("encode message: %w", err)
	}

	respBody, err := c.do(ctx, OpSendMessage, http.MethodPost, "/api/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", &ServiceError{
			Op:         OpSendMessage,
			StatusCode: http.StatusOK,
			Detail:     fmt.Sprintf("invalid response body: %v", err),
		}
	}
	return resp.Response, nil
}

// EndInterview posts with no body and decodes the returned report payload.
func (c *HTTPClient) EndInterview(ctx context.Context) (*types.Report, error) {
	respBody, err := c.do(ctx, OpEndInterview, http.MethodPost, "/api/end_interview", "", nil)
	if err != nil {
		return nil, err
	}

	var resp endInterviewResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, &MalformedReport{Message: "invalid response body", Cause: err}
	}
	if resp.Error != "" {
		return nil, &ServiceError{
			Op:         OpEndInterview,
			StatusCode: http.StatusOK,
			Detail:     resp.Error,
		}
	}

	return DecodeReport(resp.Report)
}

// Health checks that the service root answers.
func (c *HTTPClient) Health(ctx context.Context) error {
	_, err := c.do(ctx, OpHealth, http.MethodGet, "/api", "", nil)
	return err
}

func (c *HTTPClient) do(ctx context.Context, op, method, path, contentType string, body io.Reader) ([]byte, error) {
	endpoint := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", op, err)
	}

	req.Header.Set("User-Agent", c.options.UserAgent)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for key, value := range c.options.Headers {
		req.Header.Set(key, value)
	}

	sessionID := SessionIDFromContext(ctx)
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}
	if c.options.Tokens != nil {
		token, err := c.options.Tokens.Token(sessionID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.options.Verbose {
			log.Printf("[SERVICE] %s %s failed after %s: %v", method, path, time.Since(start), err)
		}
		return nil, &TransportError{Op: op, URL: endpoint, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Op: op, URL: endpoint, Cause: fmt.Errorf("failed to read response body: %w", err)}
	}

	if c.options.Verbose {
		log.Printf("[SERVICE] %s %s -> %d (%d bytes, %s)", method, path, resp.StatusCode, len(respBody), time.Since(start))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServiceError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(respBody),
		}
	}

	return respBody, nil
}

// errorDetail extracts the service's "detail" field, falling back to the raw body.
func errorDetail(body []byte) string {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && len(er.Detail) > 0 {
		var s string
		if err := json.Unmarshal(er.Detail, &s); err == nil {
			return s
		}
		return string(er.Detail)
	}
	detail := strings.TrimSpace(string(body))
	if len(detail) > 200 {
		detail = detail[:200] + "..."
	}
	return detail
}
