// Package backend is the HTTP client for the question-answering service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"

	"github.com/h2non/filetype"
)

// Endpoint names used for stats.
const (
	EndpointAsk        = "ask"
	EndpointLoad       = "load"
	EndpointSaveIndex  = "save_index"
	EndpointLoadIndex  = "load_index"
	EndpointClearIndex = "clear_index"
)

// StatusError is returned when the service answers with a non-success status.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// UserMessage is the detail the service supplied for display, if any.
func (e *StatusError) UserMessage() string {
	return e.Message
}

// File is a document to upload.
type File struct {
	Name string
	Data []byte
}

// Options tunes a Client. Zero values select the defaults.
type Options struct {
	APIKey   string
	AskPath  string
	LoadPath string
	// Timeout bounds each call; zero means no limit.
	Timeout time.Duration
	Stats   *Stats
}

// Client talks to the ask, load and index endpoints.
type Client struct {
	baseURL    string
	apiKey     string
	askPath    string
	loadPath   string
	httpClient *http.Client
	stats      *Stats
}

func NewClient(baseURL string, opts Options) *Client {
	if opts.AskPath == "" {
		opts.AskPath = "/ask"
	}
	if opts.LoadPath == "" {
		opts.LoadPath = "/load_faiss"
	}
	if opts.Stats == nil {
		opts.Stats = NewStats(time.Hour)
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   opts.APIKey,
		askPath:  opts.AskPath,
		loadPath: opts.LoadPath,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		stats: opts.Stats,
	}
}

// Stats returns the latency tracker shared by all calls of c.
func (c *Client) Stats() *Stats { return c.stats }

// Ask posts a question and returns the raw "response" field of the answer.
// The field may be absent, in which case the result is nil.
func (c *Client) Ask(ctx context.Context, message string) (raw json.RawMessage, err error) {
	defer func(start time.Time) { c.stats.Observe(EndpointAsk, start, err) }(time.Now())

	body, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return nil, fmt.Errorf("marshal question: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.askPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ask: %w", err)
	}
	defer resp.Body.Close()
	if !success(resp.StatusCode) {
		// The body is not shown to users for failed questions.
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &StatusError{Endpoint: EndpointAsk, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	var result struct {
		Response json.RawMessage `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode answer: %w", err)
	}
	return result.Response, nil
}

// LoadDocument uploads f as the multipart field "file" and returns the
// service's message, if any.
func (c *Client) LoadDocument(ctx context.Context, f File) (msg string, err error) {
	defer func(start time.Time) { c.stats.Observe(EndpointLoad, start, err) }(time.Now())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, f.Name))
	h.Set("Content-Type", ContentType(f.Name, f.Data))
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("create part: %w", err)
	}
	if _, err := part.Write(f.Data); err != nil {
		return "", fmt.Errorf("write part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.loadPath, &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(httpReq)

	return c.doMessage(httpReq, EndpointLoad)
}

// SaveIndex asks the service to persist its vector index under path.
func (c *Client) SaveIndex(ctx context.Context, path string) (msg string, err error) {
	defer func(start time.Time) { c.stats.Observe(EndpointSaveIndex, start, err) }(time.Now())
	return c.postJSON(ctx, "/save_faiss_index", EndpointSaveIndex, map[string]string{"path": path})
}

// LoadIndex asks the service to replace its vector index with the one at path.
func (c *Client) LoadIndex(ctx context.Context, path string) (msg string, err error) {
	defer func(start time.Time) { c.stats.Observe(EndpointLoadIndex, start, err) }(time.Now())
	return c.postJSON(ctx, "/load_faiss_index", EndpointLoadIndex, map[string]string{"path": path})
}

// ClearIndex drops every document the service has loaded.
func (c *Client) ClearIndex(ctx context.Context) (msg string, err error) {
	defer func(start time.Time) { c.stats.Observe(EndpointClearIndex, start, err) }(time.Now())
	return c.postJSON(ctx, "/clear_faiss_index", EndpointClearIndex, nil)
}

func (c *Client) postJSON(ctx context.Context, path, endpoint string, payload any) (string, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return "", fmt.Errorf("marshal %s: %w", endpoint, err)
		}
		body = bytes.NewReader(b)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	c.authorize(httpReq)
	return c.doMessage(httpReq, endpoint)
}

// doMessage sends req and extracts the "message" field that the load and
// index endpoints answer with on success and on failure.
func (c *Client) doMessage(req *http.Request, endpoint string) (string, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var result struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(respBody, &result)
	if result.Message == "" {
		result.Message = result.Error
	}

	if !success(resp.StatusCode) {
		return "", &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: result.Message}
	}
	return result.Message, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func success(code int) bool {
	return code >= 200 && code < 300
}

// ContentType sniffs data for a known file signature and falls back to the
// extension, then to application/octet-stream.
func ContentType(name string, data []byte) string {
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); t != "" {
		return t
	}
	return "application/octet-stream"
}
