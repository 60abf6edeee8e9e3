package web

import (
	"encoding/json"
	"net/http"
	"ratemycompany/internal/back"
	"strconv"

	"github.com/go-chi/chi"
)

func (s *Server) getCompanyReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.back.GetReviews(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	response(w, http.StatusOK, reviews)
}

func (s *Server) postCompanyReview(w http.ResponseWriter, r *http.Request) {
	var input back.ReviewInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&input); err != nil {
		response(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON body."})
		return
	}

	var author back.Author
	if user, ok := getUser(r.Context()); ok {
		author = back.Author{ID: user.ID, Name: user.Name}
	}

	review, err := s.back.SubmitReview(r.Context(), chi.URLParam(r, "id"), input, author)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	response(w, http.StatusCreated, review)
}

func (s *Server) toggleReviewReaction(w http.ResponseWriter, r *http.Request) {
	reviewID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response(w, http.StatusNotFound, errorResponse{Error: http.StatusText(http.StatusNotFound)})
		return
	}

	user, _ := getUser(r.Context())
	liked, err := s.back.ToggleReviewReaction(r.Context(), reviewID, user.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	response(w, http.StatusOK, struct {
		Liked bool `json:"liked"`
	}{liked})
}
