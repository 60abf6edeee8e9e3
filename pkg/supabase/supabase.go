// Package supabase is a minimal client for the PostgREST API of a Supabase
// project, authenticated with the project service-role key.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"path"
	"time"

	"golang.org/x/time/rate"
)

// API holds the necessary state to communicate with a Supabase project.
type API struct {
	http    http.Client
	baseURL *url.URL
	key     string
	limiter *rate.Limiter
}

// New creates a new authenticated, rate-limited access point to the project
// REST API located at baseURL.
func New(baseURL, key string) (*API, error) {
	if baseURL == "" || key == "" {
		return nil, errors.New("missing Supabase URL or service key")
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Supabase URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid Supabase URL scheme: %q", u.Scheme)
	}

	return &API{
		limiter: rate.NewLimiter(50, 10),
		baseURL: u,
		key:     key,
		http: http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// Error is a non-2xx answer from PostgREST.
type Error struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	Hint       string `json:"hint"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("got status code %d", e.StatusCode)
	}

	return fmt.Sprintf("got status code %d: %s (%s)", e.StatusCode, e.Message, e.Code)
}

func (api *API) getURL(subPath string) string {
	u := *api.baseURL
	u.Path = path.Join(u.Path, "/rest/v1", subPath)

	return u.String()
}

// RPC calls a Postgres function with named params and decodes its JSON result
// in response. If response is nil the result is discarded.
func (api *API) RPC(ctx context.Context, fn string, params interface{}, response interface{}) error {
	log.Printf("debug: calling Supabase RPC %s", fn)

	body, err := json.Marshal(params)
	if err != nil {
		return err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, api.getURL("/rpc/"+fn), bytes.NewReader(body))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")

	return api.do(request, response)
}

// do performs a rate-limited request on the API and writes the JSON-decoded
// response body in response.
// Requests are never retried, a failed call is reported as is.
func (api *API) do(request *http.Request, response interface{}) error {
	start := time.Now()
	if err := api.limiter.Wait(request.Context()); err != nil {
		return err
	}
	log.Printf("debug: waited %s before calling Supabase", time.Since(start))

	request.Header.Set("apikey", api.key)
	request.Header.Set("Authorization", "Bearer "+api.key)
	request.Header.Set("Accept", "application/json")

	res, err := api.http.Do(request)
	if err != nil {
		return fmt.Errorf("unable to perform HTTP request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := &Error{StatusCode: res.StatusCode}
		if err := json.NewDecoder(io.LimitReader(res.Body, 1<<16)).Decode(apiErr); err != nil {
			log.Printf("warning: unable to parse Supabase error body: %s", err)
		}

		return apiErr
	}

	if response == nil {
		return nil
	}

	if err := json.NewDecoder(res.Body).Decode(response); err != nil {
		return fmt.Errorf("unable to parse response: %w", err)
	}

	return nil
}
