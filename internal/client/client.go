// Package client talks to the mybucks REST API on behalf of the bucks CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/mybucks/internal/auth"
	"github.com/redmonkez12/mybucks/internal/httputil"
	"github.com/redmonkez12/mybucks/internal/transaction"
)

const (
	DefaultBaseURL = "http://localhost:4040"
	defaultTimeout = 10 * time.Second

	createAttempts    = 3
	defaultRetryDelay = 500 * time.Millisecond
)

var ErrNotLoggedIn = errors.New("not logged in: run `bucks login` first")

// APIError is a non-2xx answer from the server
type APIError struct {
	Status  int
	Message string
	Code    string
	Details []string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
	if len(e.Details) > 0 {
		msg += ": " + strings.Join(e.Details, "; ")
	}
	return msg
}

// IsUnauthorized reports whether err is a 401 from the server
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// TransactionRequest is the body sent to POST /api/transaction
type TransactionRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Datetime    string  `json:"datetime,omitempty"`
}

// ListOptions are passed through as query parameters; zero values are omitted
type ListOptions struct {
	Sort   string
	Limit  int
	Offset int
}

// Client is a thin JSON client for the API. Token is sent as a bearer credential when set.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	retryDelay time.Duration
}

func New(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		token:      token,
		retryDelay: defaultRetryDelay,
	}
}

func (c *Client) Signup(ctx context.Context, email, password string) (*auth.SignupResponse, error) {
	var out auth.SignupResponse
	body := auth.CredentialsRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", body, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*auth.AuthTokens, error) {
	var out auth.AuthTokens
	body := auth.CredentialsRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTransaction records a transaction. Network failures and transient
// server errors are retried with the same Idempotency-Key, so the server
// creates the record at most once.
func (c *Client) CreateTransaction(ctx context.Context, req TransactionRequest) (*transaction.Transaction, error) {
	if c.token == "" {
		return nil, ErrNotLoggedIn
	}

	headers := http.Header{}
	headers.Set(transaction.IdempotencyKeyHeader, uuid.NewString())

	var err error
	for attempt := 1; attempt <= createAttempts; attempt++ {
		var out transaction.Transaction
		err = c.do(ctx, http.MethodPost, "/api/transaction", req, headers, &out)
		if err == nil {
			return &out, nil
		}
		if attempt == createAttempts || !retryable(ctx, err) {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * c.retryDelay):
		}
	}
	return nil, err
}

// retryable reports whether a create may be resent with the same key
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		// no response at all; the request may or may not have reached the server
		return true
	}
	switch apiErr.Status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	case http.StatusConflict:
		return apiErr.Code == httputil.CodeIdempotencyInProgress
	}
	return false
}

func (c *Client) ListTransactions(ctx context.Context, opts ListOptions) (*transaction.ListResult, error) {
	if c.token == "" {
		return nil, ErrNotLoggedIn
	}

	q := url.Values{}
	if opts.Sort != "" {
		q.Set("sort", opts.Sort)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	path := "/api/transactions"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out transaction.ListResult
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTransaction(ctx context.Context, id string) (*transaction.DeleteResult, error) {
	if c.token == "" {
		return nil, ErrNotLoggedIn
	}

	var out transaction.DeleteResult
	if err := c.do(ctx, http.MethodDelete, "/api/transaction/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Summary(ctx context.Context) (*transaction.Summary, error) {
	if c.token == "" {
		return nil, ErrNotLoggedIn
	}

	var out transaction.Summary
	if err := c.do(ctx, http.MethodGet, "/api/transactions/summary", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in any, headers http.Header, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	var body httputil.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return apiErr
	}
	if body.Error != "" {
		apiErr.Message = body.Error
	}
	apiErr.Code = body.Code
	for _, d := range body.Details {
		apiErr.Details = append(apiErr.Details, d.Field+": "+d.Message)
	}
	return apiErr
}
