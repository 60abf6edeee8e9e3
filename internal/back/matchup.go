package back

import (
	"context"
	"log"
	"ratemycompany/internal/back/elo"
	"ratemycompany/internal/util"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v4"
)

// MatchupRequest is a single head-to-head vote to record.
type MatchupRequest struct {
	CompanyA, CompanyB string
	Result             elo.Outcome
	SubmittedBy        null.String
}

// RatingRow is the post-vote state of a participant.
type RatingRow struct {
	CompanyID     string   `json:"company_id"`
	Rating        float64  `json:"rating"`
	MatchesPlayed int      `json:"matches_played"`
	Wins          int      `json:"wins"`
	Losses        int      `json:"losses"`
	Draws         int      `json:"draws"`
	Rank          null.Int `json:"rank"`
}

// A Matchup is the append-only record of a vote.
type Matchup struct {
	ID          util.UUIDAsBlob
	CreatedAt   util.TimeAsTimestamp
	CompanyAID  util.UUIDAsBlob
	CompanyBID  util.UUIDAsBlob
	Result      string
	SubmittedBy null.String
}

func NewMatchup(a, b util.UUIDAsBlob, result elo.Outcome, submittedBy null.String) Matchup {
	return Matchup{
		ID:          util.NewUUIDAsBlob(),
		CreatedAt:   util.NewTimeAsTimestamp(),
		CompanyAID:  a,
		CompanyBID:  b,
		Result:      result.String(),
		SubmittedBy: submittedBy,
	}
}

func (m *Matchup) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("Matchup").SetMap(squirrel.Eq{
		"ID":          m.ID,
		"CreatedAt":   m.CreatedAt,
		"CompanyAID":  m.CompanyAID,
		"CompanyBID":  m.CompanyBID,
		"Result":      m.Result,
		"SubmittedBy": m.SubmittedBy,
	}).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

// RecordMatchup applies a vote: both ratings and counters are updated, the
// matchup and the new rating points are appended to the history, all in a
// single transaction. It returns the updated rows of both participants, A
// first.
func (b *Back) RecordMatchup(ctx context.Context, req MatchupRequest) ([]RatingRow, error) {
	if !req.Result.IsValid() {
		return nil, util.ErrPublic("result must be one of: a, b, draw")
	}

	idA, err := parseCompanyID(req.CompanyA)
	if err != nil {
		return nil, err
	}
	idB, err := parseCompanyID(req.CompanyB)
	if err != nil {
		return nil, err
	}
	if idA == idB {
		return nil, util.ErrPublic("companyA and companyB must be different")
	}

	var rows []RatingRow
	if err := b.transaction(ctx, func(tx *sqlx.Tx) error {
		first, err := getCompanyByID(tx, idA)
		if err != nil {
			return err
		}
		second, err := getCompanyByID(tx, idB)
		if err != nil {
			return err
		}

		first.applyOutcome(&second, req.Result)
		if err := first.updateRating(tx); err != nil {
			return err
		}
		if err := second.updateRating(tx); err != nil {
			return err
		}

		matchup := NewMatchup(idA, idB, req.Result, req.SubmittedBy)
		if err := matchup.insert(tx); err != nil {
			return err
		}

		rows = make([]RatingRow, 0, 2)
		for _, c := range []Company{first, second} {
			rank, err := getCompanyRank(tx, c)
			if err != nil {
				return err
			}

			point := newRatingHistoryPoint(c, rank, matchup)
			if err := point.insert(tx); err != nil {
				return err
			}

			rows = append(rows, RatingRow{
				CompanyID:     c.ID.String(),
				Rating:        c.Rating,
				MatchesPlayed: c.MatchesPlayed,
				Wins:          c.Wins,
				Losses:        c.Losses,
				Draws:         c.Draws,
				Rank:          null.IntFrom(int64(rank)),
			})
		}

		return nil
	}); err != nil {
		return nil, err
	}

	log.Printf(
		"info: recorded matchup %s vs %s (%s): %.0f / %.0f",
		req.CompanyA, req.CompanyB, req.Result, rows[0].Rating, rows[1].Rating,
	)

	return rows, nil
}

// GetMatchupCount returns the total number of votes ever recorded.
func (b *Back) GetMatchupCount(ctx context.Context) (count int, _ error) {
	if err := b.transaction(ctx, func(tx *sqlx.Tx) error {
		return tx.Get(&count, `SELECT COUNT(*) FROM Matchup`)
	}); err != nil {
		return 0, err
	}

	return count, nil
}
