package back

import (
	"context"
	"ratemycompany/internal/util"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v4"
)

// ratingHistoryLimit is the maximum number of points returned by
// GetRatingHistory.
const ratingHistoryLimit = 20

// RatingHistoryPoint is the rating and rank of a company right after a vote.
type RatingHistoryPoint struct {
	ID        int64                `json:"-"`
	CompanyID util.UUIDAsBlob      `json:"-"`
	MatchupID util.NullUUIDAsBlob  `json:"-"`
	CreatedAt util.TimeAsTimestamp `json:"createdAt"`
	Rating    float64              `json:"rating"`
	Rank      null.Int             `json:"rank"`
}

func newRatingHistoryPoint(c Company, rank int, m Matchup) RatingHistoryPoint {
	return RatingHistoryPoint{
		CompanyID: c.ID,
		MatchupID: util.NullUUIDAsBlob{UUID: m.ID, Valid: true},
		CreatedAt: m.CreatedAt,
		Rating:    c.Rating,
		Rank:      null.IntFrom(int64(rank)),
	}
}

func (p *RatingHistoryPoint) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("RatingHistory").SetMap(squirrel.Eq{
		"CompanyID": p.CompanyID,
		"MatchupID": p.MatchupID,
		"CreatedAt": p.CreatedAt,
		"Rating":    p.Rating,
		"Rank":      p.Rank,
	}).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

// GetRatingHistory returns the latest rating points of a company, oldest
// first.
func (b *Back) GetRatingHistory(ctx context.Context, companyID string) ([]RatingHistoryPoint, error) {
	id, err := parseCompanyID(companyID)
	if err != nil {
		return nil, err
	}

	var points []RatingHistoryPoint
	if err := b.transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := getCompanyByID(tx, id); err != nil {
			return err
		}

		query := `
            SELECT * FROM RatingHistory
            WHERE RatingHistory.CompanyID = ?
            ORDER BY RatingHistory.CreatedAt DESC, RatingHistory.ID DESC
            LIMIT ?`
		return tx.Select(&points, query, id, ratingHistoryLimit)
	}); err != nil {
		return nil, err
	}

	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}

	if points == nil {
		points = []RatingHistoryPoint{}
	}

	return points, nil
}
