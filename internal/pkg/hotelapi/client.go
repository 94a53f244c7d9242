package hotelapi

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
	"os"
	"strings"
	"syscall"
	"time"
)

const defaultTimeout = 10 * time.Second

var (
	ErrNotFound = errors.New("hotelapi: not found")
	ErrTimeout  = errors.New("hotelapi: timeout")
	ErrNetwork  = errors.New("hotelapi: network error")
)

// HTTPError is a non-2xx answer from the hotel backend.
type HTTPError struct {
	Op     string
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("hotelapi %s http error: status=%d body=%s", e.Op, e.Status, e.Body)
}

// Is lets callers match 404 answers with errors.Is(err, ErrNotFound).
func (e *HTTPError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Client talks to the hotel REST backend.
type Client struct {
	baseURL      string
	serviceToken string
	ua           string
	http         *http.Client
}

// NewClient creates a new hotel backend client. serviceToken is used when a call carries no
// caller token (background jobs).
func NewClient(baseURL, serviceToken string, timeout time.Duration, ua string) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		serviceToken: serviceToken,
		ua:           ua,
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// do performs one request. in is JSON-encoded when non-nil; the raw response body is returned
// for 2xx answers.
func (c *Client) do(ctx context.Context, op, token, method, path string, query url.Values, in any) ([]byte, error) {
	if c == nil || c.http == nil {
		return nil, fmt.Errorf("hotelapi %s request error: client is nil", op)
	}
	if c.baseURL == "" {
		return nil, fmt.Errorf("hotelapi %s config error: base_url is empty", op)
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("hotelapi %s request error: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("hotelapi %s request error: %w", op, err)
	}

	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token == "" {
		token = c.serviceToken
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.ua != "" {
		req.Header.Set("User-Agent", c.ua)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyRequestError(ctx, op, err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if readErr != nil {
			return nil, fmt.Errorf("hotelapi %s read error: %w", op, readErr)
		}
		return raw, nil
	}

	if readErr != nil {
		return nil, &HTTPError{Op: op, Status: resp.StatusCode, Body: fmt.Sprintf("<failed to read body: %v>", readErr)}
	}
	return nil, &HTTPError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
}

// doJSON performs a request and decodes a non-empty response into out.
func (c *Client) doJSON(ctx context.Context, op, token, method, path string, query url.Values, in, out any) error {
	raw, err := c.do(ctx, op, token, method, path, query, in)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("hotelapi %s decode error: %w", op, err)
	}
	return nil
}

// decodeList accepts either a JSON array or a page object {"content": [...]}.
func decodeList[T any](raw []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}

	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var page struct {
		Content []T `json:"content"`
	}
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, err
	}
	if page.Content == nil {
		return []T{}, nil
	}
	return page.Content, nil
}

func classifyRequestError(ctx context.Context, op string, err error) error {
	if isTimeoutError(ctx, err) {
		return fmt.Errorf("hotelapi %s timeout: %w: %w", op, ErrTimeout, err)
	}
	if isNetworkError(err) {
		return fmt.Errorf("hotelapi %s network error: %w: %w", op, ErrNetwork, err)
	}
	return fmt.Errorf("hotelapi %s request error: %w", op, err)
}

func isTimeoutError(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

func isNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH) {
		return true
	}

	return false
}

// StatusOf returns the backend status and body carried by err, or 0 and "" for transport errors.
func StatusOf(err error) (int, string) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status, httpErr.Body
	}
	return 0, ""
}
