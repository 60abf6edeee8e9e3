package back

import (
	"context"
	"fmt"
	"math"
	"ratemycompany/internal/back/elo"
	"ratemycompany/internal/util"

	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v4"
)

type LeaderboardEntry struct {
	Company

	Rank            int        `json:"rank"`
	Elo             int        `json:"elo"`
	Tier            string     `json:"tier"`
	ReviewCount     int        `json:"reviewCount"`
	AverageRating   null.Float `json:"averageReviewScore"`
	AveragePay      null.Float `json:"averagePay"`
	AverageCulture  null.Float `json:"averageCulture"`
	AveragePrestige null.Float `json:"averagePrestige"`
	PayDisplay      string     `json:"payDisplay"`

	LatestReview *LatestReview `db:"-" json:"latestReview"`
}

// LatestReview summarizes the most recent review of a company.
type LatestReview struct {
	CompanyID util.UUIDAsBlob      `json:"-"`
	Body      string               `json:"body"`
	Title     null.String          `json:"title"`
	Rating    null.Int             `json:"rating"`
	Author    null.String          `json:"author"`
	CreatedAt util.TimeAsTimestamp `json:"createdAt"`
}

// GetLeaderboard returns all companies sorted by rank.
func (b *Back) GetLeaderboard(ctx context.Context) (out []LeaderboardEntry, _ error) {
	if err := b.transaction(ctx, func(tx *sqlx.Tx) (err error) {
		out, err = getLeaderboard(tx)
		return err
	}); err != nil {
		return nil, err
	}

	return out, nil
}

// GetLeaderboardEntry returns the leaderboard entry of a single company.
func (b *Back) GetLeaderboardEntry(ctx context.Context, companyID string) (LeaderboardEntry, error) {
	id, err := parseCompanyID(companyID)
	if err != nil {
		return LeaderboardEntry{}, err
	}

	entries, err := b.GetLeaderboard(ctx)
	if err != nil {
		return LeaderboardEntry{}, err
	}

	for k := range entries {
		if entries[k].ID == id {
			return entries[k], nil
		}
	}

	return LeaderboardEntry{}, fmt.Errorf("%w: %s", ErrCompanyNotFound, id)
}

func getLeaderboard(tx *sqlx.Tx) ([]LeaderboardEntry, error) {
	query := `
        SELECT
            Company.*,
            COUNT(Review.ID) AS ReviewCount,
            AVG(Review.Rating) AS AverageRating,
            AVG(Review.Pay) AS AveragePay,
            AVG(Review.Culture) AS AverageCulture,
            AVG(Review.Prestige) AS AveragePrestige
        FROM Company
        LEFT JOIN Review ON(Review.CompanyID = Company.ID)
        GROUP BY Company.ID
        ORDER BY Company.Rating DESC, Company.CreatedAt ASC, Company.ID ASC`

	var entries []LeaderboardEntry
	if err := tx.Select(&entries, query); err != nil {
		return nil, err
	}

	latest, err := getLatestReviews(tx)
	if err != nil {
		return nil, err
	}

	for k := range entries {
		entries[k].Rank = k + 1
		entries[k].Elo = int(math.Round(entries[k].Rating))
		entries[k].Tier = elo.Tier(entries[k].Rating)
		entries[k].PayDisplay = util.FormatPay(entries[k].AveragePay)
		if entries[k].Tags == nil {
			entries[k].Tags = util.StringArrayAsJSON{}
		}

		if review, ok := latest[entries[k].ID]; ok {
			entries[k].LatestReview = &review
		}
	}

	return entries, nil
}

func getLatestReviews(tx *sqlx.Tx) (map[util.UUIDAsBlob]LatestReview, error) {
	query := `
        SELECT
            Review.CompanyID,
            Review.Body,
            Review.Title,
            Review.Rating,
            Review.AuthorName AS Author,
            Review.CreatedAt
        FROM Review
        WHERE Review.ID IN(SELECT MAX(ID) FROM Review GROUP BY CompanyID)`

	var reviews []LatestReview
	if err := tx.Select(&reviews, query); err != nil {
		return nil, err
	}

	ret := make(map[util.UUIDAsBlob]LatestReview, len(reviews))
	for _, v := range reviews {
		if v.Body == "" && v.Title.String == "" {
			continue
		}
		ret[v.CompanyID] = v
	}

	return ret, nil
}
