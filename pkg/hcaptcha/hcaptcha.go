// Package hcaptcha verifies hCaptcha response tokens against the siteverify
// endpoint.
package hcaptcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultEndpoint is the production siteverify URL.
const DefaultEndpoint = "https://hcaptcha.com/siteverify"

// Error messages are shown to the end user as-is.
var (
	ErrMissingSecret = errors.New("Server misconfiguration: missing hCaptcha secret.") // nolint:golint,stylecheck
	ErrUnreachable   = errors.New("Failed to reach hCaptcha verification service.")    // nolint:golint,stylecheck
)

// RejectedError is returned when hCaptcha refused the token.
type RejectedError struct {
	Codes []string
}

func (e *RejectedError) Error() string {
	codes := "unknown error"
	if len(e.Codes) > 0 {
		codes = strings.Join(e.Codes, ", ")
	}

	return fmt.Sprintf("hCaptcha verification failed: %s.", codes)
}

// Client holds the necessary state to verify tokens.
type Client struct {
	http     http.Client
	secret   string
	endpoint string
	limiter  *rate.Limiter
}

// New creates a verification client using the production endpoint.
func New(secret string) *Client {
	return NewWithEndpoint(secret, DefaultEndpoint)
}

func NewWithEndpoint(secret, endpoint string) *Client {
	return &Client{
		secret:   secret,
		endpoint: endpoint,
		limiter:  rate.NewLimiter(50, 50),
		http: http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Verify checks a response token, remoteIP is optional.
// The returned error is either ErrMissingSecret, wraps ErrUnreachable, or is
// a *RejectedError.
func (c *Client) Verify(ctx context.Context, token, remoteIP string) error {
	if c.secret == "" {
		return ErrMissingSecret
	}

	form := url.Values{
		"secret":   {c.secret},
		"response": {token},
	}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %s", ErrUnreachable, err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnreachable, err)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.http.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnreachable, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: got status code %d", ErrUnreachable, res.StatusCode)
	}

	var verification struct {
		Success    bool     `json:"success"`
		ErrorCodes []string `json:"error-codes"`
	}
	if err := json.NewDecoder(res.Body).Decode(&verification); err != nil {
		return fmt.Errorf("%w: unable to parse response: %s", ErrUnreachable, err)
	}

	if !verification.Success {
		log.Printf("debug: hCaptcha rejected token: %v", verification.ErrorCodes)
		return &RejectedError{Codes: verification.ErrorCodes}
	}

	return nil
}
