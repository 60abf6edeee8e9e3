package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"ratemycompany/internal/back"
	"ratemycompany/internal/back/elo"
	"ratemycompany/pkg/hcaptcha"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
	"gopkg.in/guregu/null.v4"
)

// MatchRecorder atomically applies a vote and returns the updated rows of
// both participants.
type MatchRecorder interface {
	RecordMatchup(ctx context.Context, req back.MatchupRequest) ([]back.RatingRow, error)
}

// CaptchaVerifier checks a bot-mitigation token, remoteIP is best-effort.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// maxVoteBodySize is way larger than any legit vote.
const maxVoteBodySize = 1 << 16

// Gateway validates votes, verifies their captcha token, and forwards them to
// a MatchRecorder.
type Gateway struct {
	recorder MatchRecorder
	captcha  CaptchaVerifier
	origins  []string
	limiter  *ipRateLimiter
	metrics  gatewayMetrics

	// trustProxy keys the rate limit on the proxy headers instead of the
	// peer address, only safe behind a proxy that overwrites them.
	trustProxy bool
}

func NewGateway(
	recorder MatchRecorder,
	captcha CaptchaVerifier,
	origins []string,
	registerer prometheus.Registerer,
) *Gateway {
	return &Gateway{
		recorder: recorder,
		captcha:  captcha,
		origins:  origins,
		metrics:  newGatewayMetrics(registerer),
	}
}

// SetRateLimit enables a per client IP token bucket. Clients are identified
// by their peer address unless trustProxy is set, in which case the
// forwarding headers are used.
func (g *Gateway) SetRateLimit(r rate.Limit, b int, trustProxy bool) {
	g.limiter = newIPRateLimiter(r, b)
	g.trustProxy = trustProxy
}

// gatewayError is a failed vote as it is sent to the client.
type gatewayError struct {
	code    int
	message string
}

func (e *gatewayError) Error() string {
	return e.message
}

func badRequest(message string) *gatewayError {
	return &gatewayError{code: http.StatusBadRequest, message: message}
}

type voteRequest struct {
	CompanyA      string      `json:"companyA"`
	CompanyB      string      `json:"companyB"`
	Result        string      `json:"result"`
	SubmittedBy   null.String `json:"submittedBy"`
	HCaptchaToken string      `json:"hcaptchaToken"`
}

type voteResponse struct {
	Data []back.RatingRow `json:"data"`
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w, r, g.origins, "POST, OPTIONS")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	rows, err := g.vote(r)
	if err != nil {
		var gerr *gatewayError
		if !errors.As(err, &gerr) {
			gerr = &gatewayError{code: http.StatusInternalServerError, message: "Failed to record vote."}
		}

		g.metrics.observeVote(gerr.code)
		response(w, gerr.code, errorResponse{Error: gerr.message})
		return
	}

	g.metrics.observeVote(http.StatusOK)
	response(w, http.StatusOK, voteResponse{Data: rows})
}

// vote runs every check in order, the first one failing aborts the vote.
func (g *Gateway) vote(r *http.Request) ([]back.RatingRow, error) {
	remoteIP := getRemoteIP(r)

	if g.limiter != nil && !g.limiter.allow(g.getClientKey(r)) {
		return nil, &gatewayError{code: http.StatusTooManyRequests, message: "Too many requests."}
	}

	if r.Method != http.MethodPost {
		return nil, &gatewayError{code: http.StatusMethodNotAllowed, message: "Method not allowed."}
	}

	if g.recorder == nil {
		log.Print("error: vote gateway has no recorder, check the Supabase URL and service role key")
		return nil, &gatewayError{code: http.StatusInternalServerError, message: "Server misconfiguration."}
	}

	req, token, err := parseVoteRequest(http.MaxBytesReader(nil, r.Body, maxVoteBodySize))
	if err != nil {
		return nil, err
	}

	if err := g.verifyCaptcha(r.Context(), token, remoteIP); err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := g.recorder.RecordMatchup(r.Context(), req)
	g.metrics.recordDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		log.Printf("error: unable to record matchup %s vs %s: %s", req.CompanyA, req.CompanyB, err)
		return nil, err
	}

	if rows == nil {
		rows = []back.RatingRow{}
	}

	return rows, nil
}

// parseVoteRequest returns the vote and its captcha token.
func parseVoteRequest(body io.Reader) (back.MatchupRequest, string, error) {
	var payload *voteRequest
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return back.MatchupRequest{}, "", badRequest("Invalid JSON body.")
	}

	if payload == nil {
		return back.MatchupRequest{}, "", badRequest("Missing request body.")
	}

	if payload.HCaptchaToken == "" {
		return back.MatchupRequest{}, "", badRequest("Missing hCaptcha token.")
	}

	if payload.CompanyA == "" || payload.CompanyB == "" {
		return back.MatchupRequest{}, "", badRequest("Missing company identifiers.")
	}

	if payload.CompanyA == payload.CompanyB {
		return back.MatchupRequest{}, "", badRequest("companyA and companyB must be different.")
	}

	outcome, err := elo.ParseOutcome(payload.Result)
	if err != nil {
		return back.MatchupRequest{}, "", badRequest("Result must be one of: a, b, draw.")
	}

	return back.MatchupRequest{
		CompanyA:    payload.CompanyA,
		CompanyB:    payload.CompanyB,
		Result:      outcome,
		SubmittedBy: payload.SubmittedBy,
	}, payload.HCaptchaToken, nil
}

// verifyCaptcha converts verification failures to a 403 carrying the reason.
func (g *Gateway) verifyCaptcha(ctx context.Context, token, remoteIP string) error {
	err := g.captcha.Verify(ctx, token, remoteIP)
	if err == nil {
		g.metrics.observeCaptcha("success")
		return nil
	}

	var (
		rejected *hcaptcha.RejectedError
		reason   string
	)
	switch {
	case errors.Is(err, hcaptcha.ErrMissingSecret):
		log.Print("error: hCaptcha secret is not configured")
		g.metrics.observeCaptcha("misconfigured")
		reason = hcaptcha.ErrMissingSecret.Error()
	case errors.As(err, &rejected):
		g.metrics.observeCaptcha("rejected")
		reason = rejected.Error()
	default:
		log.Printf("warning: hCaptcha verification failed: %s", err)
		g.metrics.observeCaptcha("unreachable")
		reason = hcaptcha.ErrUnreachable.Error()
	}

	return &gatewayError{code: http.StatusForbidden, message: reason}
}

// getRemoteIP returns the best guess at the client IP, proxies headers first.
func getRemoteIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if ip := strings.TrimSpace(strings.Split(forwarded, ",")[0]); ip != "" {
			return ip
		}
	}

	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}

	return getPeerIP(r)
}

// getPeerIP returns the host of the connection peer, headers are ignored.
func getPeerIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

// getClientKey identifies a client for rate limiting.
func (g *Gateway) getClientKey(r *http.Request) string {
	if g.trustProxy {
		return getRemoteIP(r)
	}

	return getPeerIP(r)
}
