package back

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"ratemycompany/internal/util"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v4"
)

// A Review is a user-written appraisal of a company.
type Review struct {
	ID         int64                `json:"id"`
	CompanyID  util.UUIDAsBlob      `json:"companyId"`
	CreatedAt  util.TimeAsTimestamp `json:"createdAt"`
	Rating     int                  `json:"rating"`
	Title      null.String          `json:"title"`
	Body       string               `json:"body"`
	Program    null.String          `json:"program"`
	Cohort     null.String          `json:"cohort"`
	Pay        null.Float           `json:"pay"`
	Culture    null.Int             `json:"culture"`
	Prestige   null.Int             `json:"prestige"`
	AuthorID   null.String          `json:"authorId"`
	AuthorName null.String          `json:"authorName"`

	Likes   int      `db:"-" json:"likes"`
	LikedBy []string `db:"-" json:"likedBy"`
}

// ReviewInput holds the user-provided fields of a new review.
type ReviewInput struct {
	Rating   int         `json:"rating"`
	Title    null.String `json:"title"`
	Body     string      `json:"body"`
	Program  null.String `json:"program"`
	Cohort   null.String `json:"cohort"`
	Pay      null.Float  `json:"pay"`
	Culture  null.Int    `json:"culture"`
	Prestige null.Int    `json:"prestige"`
}

// Author identifies who wrote a review, the zero value is anonymous.
type Author struct {
	ID, Name string
}

func (in *ReviewInput) normalize() {
	trim := func(s null.String) null.String {
		return null.NewString(strings.TrimSpace(s.String), s.Valid && strings.TrimSpace(s.String) != "")
	}

	in.Body = strings.TrimSpace(in.Body)
	in.Title = trim(in.Title)
	in.Program = trim(in.Program)
	in.Cohort = trim(in.Cohort)
}

func (in ReviewInput) validate() error {
	if in.Rating < 1 || in.Rating > 5 {
		return util.ErrPublic("rating must be between 1 and 5")
	}
	if in.Body == "" {
		return util.ErrPublic("a review needs a body")
	}
	if in.Culture.Valid && (in.Culture.Int64 < 1 || in.Culture.Int64 > 5) {
		return util.ErrPublic("culture must be between 1 and 5")
	}
	if in.Prestige.Valid && (in.Prestige.Int64 < 1 || in.Prestige.Int64 > 5) {
		return util.ErrPublic("prestige must be between 1 and 5")
	}
	if in.Pay.Valid && (math.IsNaN(in.Pay.Float64) || math.IsInf(in.Pay.Float64, 0) || in.Pay.Float64 < 0) {
		return util.ErrPublic("pay must be a positive hourly amount")
	}

	for _, v := range []string{in.Title.String, in.Body, in.Program.String, in.Cohort.String} {
		if util.ContainsProhibitedSlur(v) {
			return util.ErrPublic("your review contains prohibited language")
		}
	}

	return nil
}

func (r *Review) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("Review").SetMap(squirrel.Eq{
		"CompanyID":  r.CompanyID,
		"CreatedAt":  r.CreatedAt,
		"Rating":     r.Rating,
		"Title":      r.Title,
		"Body":       r.Body,
		"Program":    r.Program,
		"Cohort":     r.Cohort,
		"Pay":        r.Pay,
		"Culture":    r.Culture,
		"Prestige":   r.Prestige,
		"AuthorID":   r.AuthorID,
		"AuthorName": r.AuthorName,
	}).ToSql()
	if err != nil {
		return err
	}

	res, err := tx.Exec(query, args...)
	if err != nil {
		return err
	}

	r.ID, err = res.LastInsertId()

	return err
}

// SubmitReview validates and stores a new review for a company.
func (b *Back) SubmitReview(ctx context.Context, companyID string, in ReviewInput, author Author) (Review, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return Review{}, err
	}

	id, err := parseCompanyID(companyID)
	if err != nil {
		return Review{}, err
	}

	review := Review{
		CompanyID:  id,
		CreatedAt:  util.NewTimeAsTimestamp(),
		Rating:     in.Rating,
		Title:      in.Title,
		Body:       in.Body,
		Program:    in.Program,
		Cohort:     in.Cohort,
		Pay:        in.Pay,
		Culture:    in.Culture,
		Prestige:   in.Prestige,
		AuthorID:   null.NewString(author.ID, author.ID != ""),
		AuthorName: null.NewString(author.Name, author.Name != ""),
		LikedBy:    []string{},
	}

	if err := b.transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := getCompanyByID(tx, id); err != nil {
			return err
		}

		return review.insert(tx)
	}); err != nil {
		return Review{}, err
	}

	return review, nil
}

// GetReviews returns the reviews of a company, newest first.
func (b *Back) GetReviews(ctx context.Context, companyID string) ([]Review, error) {
	id, err := parseCompanyID(companyID)
	if err != nil {
		return nil, err
	}

	var reviews []Review
	if err := b.transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := getCompanyByID(tx, id); err != nil {
			return err
		}

		query := `
            SELECT * FROM Review
            WHERE Review.CompanyID = ?
            ORDER BY Review.CreatedAt DESC, Review.ID DESC`
		if err := tx.Select(&reviews, query, id); err != nil {
			return err
		}

		return fillReviewReactions(tx, reviews)
	}); err != nil {
		return nil, err
	}

	if reviews == nil {
		reviews = []Review{}
	}

	return reviews, nil
}

func fillReviewReactions(tx *sqlx.Tx, reviews []Review) error {
	if len(reviews) == 0 {
		return nil
	}

	ids := make([]int64, len(reviews))
	for k := range reviews {
		ids[k] = reviews[k].ID
		reviews[k].LikedBy = []string{}
	}

	query, args, err := sqlx.In(`
        SELECT ReviewID, UserID FROM ReviewReaction
        WHERE ReviewID IN(?)
        ORDER BY CreatedAt ASC`, ids)
	if err != nil {
		return err
	}
	query = tx.Rebind(query)

	var reactions []struct {
		ReviewID int64
		UserID   string
	}
	if err := tx.Select(&reactions, query, args...); err != nil {
		return err
	}

	byID := make(map[int64]*Review, len(reviews))
	for k := range reviews {
		byID[reviews[k].ID] = &reviews[k]
	}

	for _, v := range reactions {
		review := byID[v.ReviewID]
		review.LikedBy = append(review.LikedBy, v.UserID)
		review.Likes++
	}

	return nil
}

// ToggleReviewReaction likes a review on behalf of a user, or removes the
// like if it already exists. It returns whether the review is now liked.
func (b *Back) ToggleReviewReaction(ctx context.Context, reviewID int64, userID string) (liked bool, _ error) {
	if userID == "" {
		return false, util.ErrPublic("you must be signed in to like a review")
	}

	if err := b.transaction(ctx, func(tx *sqlx.Tx) error {
		var exists int
		if err := tx.Get(&exists, `SELECT 1 FROM Review WHERE Review.ID = ?`, reviewID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %d", ErrReviewNotFound, reviewID)
			}
			return err
		}

		res, err := tx.Exec(
			`DELETE FROM ReviewReaction WHERE ReviewID = ? AND UserID = ?`,
			reviewID, userID,
		)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil || n > 0 {
			return err
		}

		query, args, err := squirrel.Insert("ReviewReaction").SetMap(squirrel.Eq{
			"ReviewID":  reviewID,
			"UserID":    userID,
			"CreatedAt": util.NewTimeAsTimestamp(),
		}).ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(query, args...); err != nil {
			return err
		}

		liked = true
		return nil
	}); err != nil {
		return false, err
	}

	return liked, nil
}
