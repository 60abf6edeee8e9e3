package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi"
)

func (s *Server) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.back.GetLeaderboard(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.cache(w, "public", 1*time.Minute)
	response(w, http.StatusOK, entries)
}

func (s *Server) getCompany(w http.ResponseWriter, r *http.Request) {
	entry, err := s.back.GetLeaderboardEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.cache(w, "public", 1*time.Minute)
	response(w, http.StatusOK, entry)
}

func (s *Server) getCompanyHistory(w http.ResponseWriter, r *http.Request) {
	points, err := s.back.GetRatingHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	response(w, http.StatusOK, points)
}
