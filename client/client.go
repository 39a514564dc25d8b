package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"usage-dashboard/model"
)

// APIError is a non-2xx response carrying the server's message
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client talks to the dashboard API. Its cookie jar holds the session
// cookie, so one Client is one browsing session.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates an API client for the given base URL
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Jar:     jar,
			Timeout: 15 * time.Second,
		},
	}, nil
}

// call issues a request and decodes the {message} body. A non-2xx status
// comes back as *APIError with the server's message.
func (c *Client) call(ctx context.Context, method, path string, body interface{}) error {
	var reqBody *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(encoded)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var message model.MessageResponse
	// Tolerate empty or non-JSON bodies; the status code decides the outcome
	_ = json.NewDecoder(resp.Body).Decode(&message)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: message.Message}
	}

	return nil
}

// CheckSession asks the server whether a session exists
func (c *Client) CheckSession(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/api/auth/me", nil)
}

// Signup creates a session from the given credentials
func (c *Client) Signup(ctx context.Context, email, password string) error {
	return c.call(ctx, http.MethodPost, "/api/signup", model.SignupRequest{Email: email, Password: password})
}

// Login validates the credentials against the current session token
func (c *Client) Login(ctx context.Context, email, password string) error {
	return c.call(ctx, http.MethodPost, "/api/login", model.LoginRequest{Email: email, Password: password})
}

// Logout deletes the session
func (c *Client) Logout(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/api/logout", nil)
}
