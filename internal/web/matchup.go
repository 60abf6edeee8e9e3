package web

import (
	"math"
	"net/http"
	"ratemycompany/internal/back"
	"ratemycompany/internal/back/pairing"
	"ratemycompany/internal/util"
	"strings"
)

type matchupCompany struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	LogoURL *string  `json:"logoUrl"`
	Tags    []string `json:"tags"`
	Elo     int      `json:"elo"`
	Rank    int      `json:"rank"`
}

type matchupResponse struct {
	Companies  [2]matchupCompany `json:"companies"`
	Key        string            `json:"key"`
	TotalVotes int               `json:"totalVotes"`
}

func newMatchupCompany(e back.LeaderboardEntry) matchupCompany {
	tags := make([]string, len(e.Tags))
	for k, v := range e.Tags {
		tags[k] = strings.ToUpper(v)
	}

	return matchupCompany{
		ID:      e.ID.String(),
		Name:    e.Name,
		LogoURL: e.LogoURL.Ptr(),
		Tags:    tags,
		Elo:     e.Elo,
		Rank:    e.Rank,
	}
}

// getMatchup picks the next pair to vote on. The client sends back the keys
// of the pairs it already voted on in this session as "completed" and may
// exclude companies with "exclude".
func (s *Server) getMatchup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	excluded := pairing.NewSet(q["exclude"]...)
	completed := pairing.NewSet(q["completed"]...)

	strategy := q.Get("strategy")
	if strategy != "" && strategy != "close" && strategy != "random" {
		s.fail(w, r, util.ErrPublic("strategy must be one of: close, random"))
		return
	}

	entries, err := s.back.GetLeaderboard(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	pool := make([]pairing.Candidate, len(entries))
	byID := make(map[string]back.LeaderboardEntry, len(entries))
	for k, v := range entries {
		id := v.ID.String()
		pool[k] = pairing.Candidate{ID: id, Rating: math.Round(v.Rating)}
		byID[id] = v
	}

	var a, b pairing.Candidate
	if strategy == "random" {
		a, b, err = pairing.SelectPair(pool, excluded, completed)
	} else {
		a, b, err = pairing.SelectClosePair(pool, excluded, completed, pairing.DefaultWindow)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	total, err := s.back.GetMatchupCount(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	response(w, http.StatusOK, matchupResponse{
		Companies:  [2]matchupCompany{newMatchupCompany(byID[a.ID]), newMatchupCompany(byID[b.ID])},
		Key:        pairing.Key(a.ID, b.ID),
		TotalVotes: total,
	})
}
