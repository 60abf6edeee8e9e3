package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"ratemycompany/internal/back"
	"ratemycompany/internal/back/pairing"
	"ratemycompany/internal/config"
	"ratemycompany/internal/util"
	"ratemycompany/pkg/hcaptcha"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/", noContent)
	r.Handle("/vote", s.gateway)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	// The gateway can run on its own, without a local store.
	if s.back == nil {
		return r
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(corsMiddleware(s.origins, "GET, POST, OPTIONS"))
		r.Use(s.authenticator)

		r.Get("/leaderboard", s.getLeaderboard)
		r.Get("/matchup", s.getMatchup)
		r.Get("/companies/{id}", s.getCompany)
		r.Get("/companies/{id}/history", s.getCompanyHistory)
		r.Get("/companies/{id}/history.svg", s.getCompanyHistoryChart)
		r.Get("/companies/{id}/reviews", s.getCompanyReviews)
		r.Post("/companies/{id}/reviews", s.postCompanyReview)
		r.With(requireUser).Post("/reviews/{id}/reaction", s.toggleReviewReaction)
		r.Get("/stats/ratings.svg", s.statsRatings)
	})

	return r
}

type Server struct {
	http      *http.Server
	back      *back.Back
	gateway   *Gateway
	origins   []string
	jwtSecret []byte
	registry  *prometheus.Registry
}

// NewServer creates the HTTP API. b may be nil to only serve the vote
// gateway, recorder may be nil if no store is configured, in which case votes
// fail with a configuration error.
func NewServer(conf *config.Config, b *back.Back, recorder MatchRecorder) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	gateway := NewGateway(recorder, hcaptcha.New(conf.HCaptchaSecret), conf.AllowedVoteOrigins, registry)
	if conf.VoteRatePerSecond > 0 {
		gateway.SetRateLimit(rate.Limit(conf.VoteRatePerSecond), conf.VoteBurst, conf.TrustProxyHeaders)
	}

	s := &Server{
		back:      b,
		gateway:   gateway,
		origins:   conf.AllowedVoteOrigins,
		jwtSecret: []byte(conf.SupabaseJWTSecret),
		registry:  registry,
	}

	s.http = &http.Server{
		Addr:         conf.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  10 * time.Second,
		Handler:      s.setupRouter(),
	}

	return s
}

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) Serve(wg *sync.WaitGroup, done <-chan struct{}) {
	defer wg.Done()
	log.Printf("info: starting HTTP server on %s", s.http.Addr)

	go func() {
		err := s.http.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			log.Println("info: HTTP server closed")
			return
		}

		log.Fatalf("webserver crashed: %s", err)
	}()

	<-done
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		log.Printf("warning: unable to close webserver: %s", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func response(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	response, err := json.Marshal(data)
	if err != nil {
		log.Printf("error: unable to marshal response: %s", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(code)

	if _, err := w.Write(response); err != nil {
		log.Printf("error: unable to send response: %s", err)
	}
}

// error logs err and sends a generic message for the given code.
func (s *Server) error(w http.ResponseWriter, r *http.Request, err error, code int) {
	log.Printf("error: %s %s: %s", r.Method, r.URL.Path, err)
	response(w, code, errorResponse{Error: http.StatusText(code)})
}

// fail converts a back error to the matching HTTP error.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if msg, ok := util.IsPublic(err); ok {
		response(w, http.StatusBadRequest, errorResponse{Error: msg})
		return
	}

	switch {
	case errors.Is(err, back.ErrCompanyNotFound), errors.Is(err, back.ErrReviewNotFound):
		response(w, http.StatusNotFound, errorResponse{Error: http.StatusText(http.StatusNotFound)})
	case errors.Is(err, pairing.ErrNotEnoughCandidates):
		response(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		s.error(w, r, err, http.StatusInternalServerError)
	}
}

func (s *Server) cache(w http.ResponseWriter, scope string, d time.Duration) {
	w.Header().Set("Cache-Control", fmt.Sprintf("%s,max-age=%d", scope, d/time.Second))
}
