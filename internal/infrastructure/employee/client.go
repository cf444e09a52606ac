// Package employee talks to the employee microservice over HTTP/JSON.
package employee

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/workforce/login-service/internal/core/domain"
	"github.com/workforce/login-service/internal/pkg/metrics"
)

const (
	employeesPath = "/api/employees"

	opCreate = "create"
	opGet    = "get"

	// maxErrorBody caps how much of a failed response is read for its message.
	maxErrorBody = 4 << 10
)

type authHeaderKey struct{}

// WithAuthorization stores the caller's Authorization header so that outgoing
// requests to the employee service carry it.
func WithAuthorization(ctx context.Context, header string) context.Context {
	if header == "" {
		return ctx
	}
	return context.WithValue(ctx, authHeaderKey{}, header)
}

func authorizationFrom(ctx context.Context) string {
	v, _ := ctx.Value(authHeaderKey{}).(string)
	return v
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Operation string
	Status    int
	Message   string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("employee %s: unexpected status %d", e.Operation, e.Status)
	}
	return fmt.Sprintf("employee %s: status %d: %s", e.Operation, e.Status, e.Message)
}

// Client implements ports.EmployeeClient.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default instrumented client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient returns a Client for the service rooted at baseURL. Timeouts are
// left to the caller's context.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create registers the employee matching a freshly inserted user.
func (c *Client) Create(ctx context.Context, req domain.EmployeeRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode employee: %w", err)
	}

	resp, err := c.do(ctx, opCreate, http.MethodPost, c.baseURL+employeesPath, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Get fetches the employee profile of userID.
func (c *Client) Get(ctx context.Context, userID int64) (*domain.EmployeeProfile, error) {
	url := c.baseURL + employeesPath + "/" + strconv.FormatInt(userID, 10)

	resp, err := c.do(ctx, opGet, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var profile domain.EmployeeProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode employee: %w", err)
	}
	return &profile, nil
}

// do sends the request and returns the response only for 2xx statuses.
func (c *Client) do(ctx context.Context, op, method, url string, body []byte) (resp *http.Response, err error) {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.EmployeeRequestDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	}()

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, fmt.Errorf("employee %s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth := authorizationFrom(ctx); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err = c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			status = "timeout"
		}
		return nil, fmt.Errorf("employee %s: %w", op, err)
	}
	status = strconv.Itoa(resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, &StatusError{Operation: op, Status: resp.StatusCode, Message: remoteMessage(resp.Body)}
	}
	return resp, nil
}

// remoteMessage extracts the "message" or "error" field of a JSON error body,
// falling back to the raw text.
func remoteMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(raw))
}
