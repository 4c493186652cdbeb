// Package client is a Go client for the portal API.
//
// The http session cookie is kept in the client's cookie jar, so a Client
// that logged in stays logged in for subsequent calls.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/danesh-portal/danesh/storage/model"
)

// DefaultTimeout is the timeout for a single API call
const DefaultTimeout = 15 * time.Second

// Error is an error response of the API
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Code)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 response of the API
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// Account holds the fields of a self-registration
type Account struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

type authResponse struct {
	Message string         `json:"message"`
	User    model.Identity `json:"user"`
}

// Client calls the portal API
type Client struct {
	http    *resty.Client
	baseURL string
}

// New creates a Client for the API under baseURL, e.g. https://danesh.example.ir/api
func New(baseURL string) *Client {
	jar, _ := cookiejar.New(nil)
	baseURL = strings.TrimSuffix(baseURL, "/")
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetCookieJar(jar).
			SetTimeout(DefaultTimeout).
			SetHeader("Accept", "application/json"),
		baseURL: baseURL,
	}
}

// SetLanguage sets the language of the API messages
func (c *Client) SetLanguage(lang string) *Client {
	c.http.SetHeader("Accept-Language", lang)
	return c
}

// SetSessionCookie sets an existing session cookie
func (c *Client) SetSessionCookie(name, value string) *Client {
	c.http.SetCookie(
		&http.Cookie{
			Name:  name,
			Value: value,
		},
	)
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	apiErr := &Error{}
	req := c.http.R().SetContext(ctx).SetError(apiErr)
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	if resp.IsError() {
		apiErr.Status = resp.StatusCode()
		return apiErr
	}
	return nil
}

// Login logs in and returns the identity of the session
func (c *Client) Login(ctx context.Context, username, password string) (*model.Identity, error) {
	var res authResponse
	err := c.do(
		ctx, http.MethodPost, "/login", map[string]string{
			"username": username,
			"password": password,
		}, &res,
	)
	if err != nil {
		return nil, err
	}
	return &res.User, nil
}

// Register creates an account, logs in, and returns the identity of the session
func (c *Client) Register(ctx context.Context, account Account) (*model.Identity, error) {
	var res authResponse
	if err := c.do(ctx, http.MethodPost, "/register", account, &res); err != nil {
		return nil, err
	}
	return &res.User, nil
}

// Logout ends the current session
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, nil)
}

// CurrentUser returns the identity of the current session; it returns an
// *Error with status 401 when there is none
func (c *Client) CurrentUser(ctx context.Context) (*model.Identity, error) {
	var id model.Identity
	if err := c.do(ctx, http.MethodGet, "/auth/user", nil, &id); err != nil {
		return nil, err
	}
	return &id, nil
}
