package web // nolint:testpackage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"ratemycompany/internal/back"
	"ratemycompany/internal/back/elo"
	"ratemycompany/pkg/hcaptcha"
	"strings"
	"testing"

	"golang.org/x/time/rate"
	"gopkg.in/guregu/null.v4"
)

type fakeRecorder struct {
	calls []back.MatchupRequest
	err   error
}

func (f *fakeRecorder) RecordMatchup(_ context.Context, req back.MatchupRequest) ([]back.RatingRow, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}

	return []back.RatingRow{
		{CompanyID: req.CompanyA, Rating: 1616, MatchesPlayed: 1, Wins: 1, Rank: null.IntFrom(1)},
		{CompanyID: req.CompanyB, Rating: 1584, MatchesPlayed: 1, Losses: 1, Rank: null.IntFrom(2)},
	}, nil
}

type fakeVerifier struct {
	token    string
	remoteIP string
	err      error
}

func (f *fakeVerifier) Verify(_ context.Context, token, remoteIP string) error {
	f.token, f.remoteIP = token, remoteIP
	return f.err
}

const validVote = `{"companyA":"a1","companyB":"b2","result":"a","hcaptchaToken":"tok"}`

func doVote(g *Gateway, method, body string, headers map[string]string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, "/vote", strings.NewReader(body))
	r.RemoteAddr = "192.0.2.1:1234"
	for k, v := range headers {
		r.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	g.ServeHTTP(w, r)

	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var res errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid error body %q: %s", w.Body.String(), err)
	}

	return res.Error
}

func TestGatewayRejections(t *testing.T) {
	cases := []struct {
		name    string
		method  string
		body    string
		code    int
		message string
	}{
		{"method", http.MethodGet, "", http.StatusMethodNotAllowed, "Method not allowed."},
		{"json", http.MethodPost, "{", http.StatusBadRequest, "Invalid JSON body."},
		{"empty", http.MethodPost, "", http.StatusBadRequest, "Invalid JSON body."},
		{"null", http.MethodPost, "null", http.StatusBadRequest, "Missing request body."},
		{"token", http.MethodPost, `{"companyA":"a1","companyB":"b2","result":"a"}`, http.StatusBadRequest, "Missing hCaptcha token."},
		{"company", http.MethodPost, `{"companyA":"a1","result":"a","hcaptchaToken":"tok"}`, http.StatusBadRequest, "Missing company identifiers."},
		{"same", http.MethodPost, `{"companyA":"a1","companyB":"a1","result":"a","hcaptchaToken":"tok"}`, http.StatusBadRequest, "companyA and companyB must be different."},
		{"result", http.MethodPost, `{"companyA":"a1","companyB":"b2","result":"A","hcaptchaToken":"tok"}`, http.StatusBadRequest, "Result must be one of: a, b, draw."},
	}

	for _, v := range cases {
		recorder := &fakeRecorder{}
		g := NewGateway(recorder, &fakeVerifier{}, nil, nil)

		w := doVote(g, v.method, v.body, nil)
		if w.Code != v.code {
			t.Errorf("%s: expected %d, got %d", v.name, v.code, w.Code)
		}
		if msg := decodeError(t, w); msg != v.message {
			t.Errorf("%s: expected %q, got %q", v.name, v.message, msg)
		}
		if len(recorder.calls) != 0 {
			t.Errorf("%s: recorder must not be called", v.name)
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Errorf("%s: missing CORS headers", v.name)
		}
	}
}

func TestGatewayPreflight(t *testing.T) {
	g := NewGateway(nil, &fakeVerifier{}, []string{"https://ratemycompany.ca"}, nil)
	w := doVote(g, http.MethodOptions, "", map[string]string{"Origin": "https://evil.example"})

	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Errorf("expected an empty 204, got %d %q", w.Code, w.Body.String())
	}

	expected := map[string]string{
		"Access-Control-Allow-Origin":  "https://ratemycompany.ca",
		"Access-Control-Allow-Methods": "POST, OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type, Authorization",
		"Access-Control-Max-Age":       "86400",
	}
	for k, v := range expected {
		if actual := w.Header().Get(k); actual != v {
			t.Errorf("%s: expected %q, got %q", k, v, actual)
		}
	}
}

func TestGatewayVote(t *testing.T) {
	recorder := &fakeRecorder{}
	verifier := &fakeVerifier{}
	g := NewGateway(recorder, verifier, nil, nil)

	body := `{"companyA":"a1","companyB":"b2","result":"draw","submittedBy":"u1","hcaptchaToken":"tok"}`
	w := doVote(g, http.MethodPost, body, map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var res struct {
		Data []map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Data) != 2 || res.Data[0]["company_id"] != "a1" || res.Data[1]["rating"] != 1584.0 {
		t.Errorf("unexpected response: %s", w.Body.String())
	}

	if verifier.token != "tok" || verifier.remoteIP != "203.0.113.9" {
		t.Errorf("unexpected verification: %+v", verifier)
	}

	if len(recorder.calls) != 1 {
		t.Fatalf("expected a single call, got %d", len(recorder.calls))
	}
	expected := back.MatchupRequest{
		CompanyA:    "a1",
		CompanyB:    "b2",
		Result:      elo.OutcomeDraw,
		SubmittedBy: null.StringFrom("u1"),
	}
	if recorder.calls[0] != expected {
		t.Errorf("unexpected request: %+v", recorder.calls[0])
	}
}

func TestGatewayCaptchaFailure(t *testing.T) {
	cases := []struct {
		err     error
		message string
	}{
		{hcaptcha.ErrMissingSecret, "Server misconfiguration: missing hCaptcha secret."},
		{&hcaptcha.RejectedError{Codes: []string{"invalid-input-response"}}, "hCaptcha verification failed: invalid-input-response."},
		{&hcaptcha.RejectedError{}, "hCaptcha verification failed: unknown error."},
		{errors.New("connection refused"), "Failed to reach hCaptcha verification service."},
	}

	for _, v := range cases {
		recorder := &fakeRecorder{}
		g := NewGateway(recorder, &fakeVerifier{err: v.err}, nil, nil)

		w := doVote(g, http.MethodPost, validVote, nil)
		if w.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", w.Code)
		}
		if msg := decodeError(t, w); msg != v.message {
			t.Errorf("expected %q, got %q", v.message, msg)
		}
		if len(recorder.calls) != 0 {
			t.Error("recorder must not be called")
		}
	}
}

func TestGatewayRecorderFailure(t *testing.T) {
	g := NewGateway(&fakeRecorder{err: errors.New("boom")}, &fakeVerifier{}, nil, nil)

	w := doVote(g, http.MethodPost, validVote, nil)
	if w.Code != http.StatusInternalServerError || decodeError(t, w) != "Failed to record vote." {
		t.Errorf("unexpected response: %d %s", w.Code, w.Body.String())
	}
}

func TestGatewayWithoutRecorder(t *testing.T) {
	verifier := &fakeVerifier{}
	g := NewGateway(nil, verifier, nil, nil)

	w := doVote(g, http.MethodPost, validVote, nil)
	if w.Code != http.StatusInternalServerError || decodeError(t, w) != "Server misconfiguration." {
		t.Errorf("unexpected response: %d %s", w.Code, w.Body.String())
	}
	if verifier.token != "" {
		t.Error("captcha must not be verified without a recorder")
	}
}

func TestGatewayRateLimit(t *testing.T) {
	g := NewGateway(&fakeRecorder{}, &fakeVerifier{}, nil, nil)
	g.SetRateLimit(0, 2, false)

	for i := 0; i < 2; i++ {
		if w := doVote(g, http.MethodPost, validVote, nil); w.Code != http.StatusOK {
			t.Fatalf("vote %d: expected 200, got %d", i, w.Code)
		}
	}

	w := doVote(g, http.MethodPost, validVote, nil)
	if w.Code != http.StatusTooManyRequests || decodeError(t, w) != "Too many requests." {
		t.Errorf("unexpected response: %d %s", w.Code, w.Body.String())
	}

	// Buckets are per peer.
	r := httptest.NewRequest(http.MethodPost, "/vote", strings.NewReader(validVote))
	r.RemoteAddr = "198.51.100.7:4321"
	w = httptest.NewRecorder()
	g.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for another client, got %d", w.Code)
	}
}

func TestGatewayRateLimitIgnoresForwardedHeaders(t *testing.T) {
	recorder := &fakeRecorder{}
	g := NewGateway(recorder, &fakeVerifier{}, nil, nil)
	g.SetRateLimit(0, 2, false)

	for i := 0; i < 1000; i++ {
		doVote(g, http.MethodPost, validVote, map[string]string{
			"X-Forwarded-For":  fmt.Sprintf("10.%d.%d.1", i/256, i%256),
			"CF-Connecting-IP": fmt.Sprintf("10.%d.%d.2", i/256, i%256),
		})
	}

	if len(recorder.calls) != 2 {
		t.Errorf("rotating forwarded headers bypassed the limit: %d votes recorded", len(recorder.calls))
	}
	if n := g.limiter.size(); n != 1 {
		t.Errorf("expected a single tracked client, got %d", n)
	}
}

func TestGatewayRateLimitTrustedProxy(t *testing.T) {
	recorder := &fakeRecorder{}
	g := NewGateway(recorder, &fakeVerifier{}, nil, nil)
	g.SetRateLimit(0, 1, true)

	for _, ip := range []string{"203.0.113.1", "203.0.113.2", "203.0.113.1"} {
		doVote(g, http.MethodPost, validVote, map[string]string{"X-Forwarded-For": ip})
	}

	if len(recorder.calls) != 2 {
		t.Errorf("expected one vote per forwarded client, got %d", len(recorder.calls))
	}
}

func TestIPRateLimiterBounded(t *testing.T) {
	l := newIPRateLimiter(rate.Inf, 1)
	l.maxEntries = 10

	for i := 0; i < 10; i++ {
		if !l.allow(fmt.Sprintf("192.0.2.%d", i)) {
			t.Fatalf("client %d must be allowed", i)
		}
	}

	if l.allow("192.0.2.200") {
		t.Error("a new client must be refused once the limiter is full")
	}
	if !l.allow("192.0.2.3") {
		t.Error("known clients must still be served")
	}
	if n := l.size(); n != 10 {
		t.Errorf("expected 10 tracked clients, got %d", n)
	}
}

func TestGetAllowedOrigin(t *testing.T) {
	origins := []string{"https://a.example", "https://b.example"}

	cases := []struct {
		origins  []string
		origin   string
		expected string
	}{
		{origins, "https://b.example", "https://b.example"},
		{origins, "https://c.example", "https://a.example"},
		{origins, "", "https://a.example"},
		{nil, "https://c.example", "*"},
	}

	for _, v := range cases {
		if actual := getAllowedOrigin(v.origins, v.origin); actual != v.expected {
			t.Errorf("%q: expected %q, got %q", v.origin, v.expected, actual)
		}
	}
}

func TestGetRemoteIP(t *testing.T) {
	cases := []struct {
		headers    map[string]string
		remoteAddr string
		expected   string
	}{
		{map[string]string{"X-Forwarded-For": " 203.0.113.9 , 10.0.0.1"}, "192.0.2.1:1234", "203.0.113.9"},
		{map[string]string{"X-Forwarded-For": "203.0.113.9", "CF-Connecting-IP": "198.51.100.7"}, "192.0.2.1:1234", "203.0.113.9"},
		{map[string]string{"CF-Connecting-IP": "198.51.100.7"}, "192.0.2.1:1234", "198.51.100.7"},
		{nil, "192.0.2.1:1234", "192.0.2.1"},
		{nil, "[2001:db8::1]:443", "2001:db8::1"},
		{nil, "unix", "unix"},
	}

	for _, v := range cases {
		r := httptest.NewRequest(http.MethodPost, "/vote", nil)
		r.RemoteAddr = v.remoteAddr
		for k, h := range v.headers {
			r.Header.Set(k, h)
		}

		if actual := getRemoteIP(r); actual != v.expected {
			t.Errorf("expected %q, got %q", v.expected, actual)
		}
	}
}
