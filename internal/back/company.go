package back

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"ratemycompany/internal/back/elo"
	"ratemycompany/internal/util"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v4"
)

// DefaultRating is given to companies created without an explicit rating.
const DefaultRating = 1500

// A Company is the rated entity users vote on.
type Company struct {
	ID            util.UUIDAsBlob        `json:"id"`
	CreatedAt     util.TimeAsTimestamp   `json:"createdAt"`
	Name          string                 `json:"name"`
	Slug          null.String            `json:"slug"`
	Description   null.String            `json:"description"`
	Tags          util.StringArrayAsJSON `json:"tags"`
	LogoURL       null.String            `json:"logoUrl"`
	Rating        float64                `json:"rating"`
	MatchesPlayed int                    `json:"matchesPlayed"`
	Wins          int                    `json:"wins"`
	Losses        int                    `json:"losses"`
	Draws         int                    `json:"draws"`
}

func NewCompany(name string, rating float64) Company {
	return Company{
		ID:        util.NewUUIDAsBlob(),
		CreatedAt: util.NewTimeAsTimestamp(),
		Name:      name,
		Slug:      null.StringFrom(slugify(name)),
		Tags:      util.StringArrayAsJSON{},
		Rating:    rating,
	}
}

func slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

func (c *Company) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("Company").SetMap(squirrel.Eq{
		"ID":            c.ID,
		"CreatedAt":     c.CreatedAt,
		"Name":          c.Name,
		"Slug":          c.Slug,
		"Description":   c.Description,
		"Tags":          c.Tags,
		"LogoURL":       c.LogoURL,
		"Rating":        c.Rating,
		"MatchesPlayed": c.MatchesPlayed,
		"Wins":          c.Wins,
		"Losses":        c.Losses,
		"Draws":         c.Draws,
	}).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

func (c *Company) updateRating(tx *sqlx.Tx) error {
	query, args, err := squirrel.Update("Company").SetMap(squirrel.Eq{
		"Rating":        c.Rating,
		"MatchesPlayed": c.MatchesPlayed,
		"Wins":          c.Wins,
		"Losses":        c.Losses,
		"Draws":         c.Draws,
	}).Where("Company.ID = ?", c.ID).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

// applyOutcome updates the rating and counters of both companies, c being
// the first participant of the matchup.
func (c *Company) applyOutcome(opponent *Company, outcome elo.Outcome) {
	c.Rating, opponent.Rating = elo.Update(c.Rating, opponent.Rating, outcome, elo.DefaultK)
	c.MatchesPlayed++
	opponent.MatchesPlayed++

	switch outcome {
	case elo.OutcomeA:
		c.Wins++
		opponent.Losses++
	case elo.OutcomeB:
		c.Losses++
		opponent.Wins++
	case elo.OutcomeDraw:
		c.Draws++
		opponent.Draws++
	case elo.OutcomeInvalid:
		panic("applyOutcome called with an invalid outcome")
	}
}

func (b *Back) InsertCompany(ctx context.Context, c Company) error {
	return b.transaction(ctx, c.insert)
}

func getCompanyByID(tx *sqlx.Tx, id util.UUIDAsBlob) (Company, error) {
	var ret Company
	query := `SELECT * FROM Company WHERE Company.ID = ? LIMIT 1`
	if err := tx.Get(&ret, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Company{}, fmt.Errorf("%w: %s", ErrCompanyNotFound, id)
		}
		return Company{}, err
	}

	return ret, nil
}

// parseCompanyID maps malformed identifiers to ErrCompanyNotFound, they
// cannot exist in the store anyway.
func parseCompanyID(str string) (util.UUIDAsBlob, error) {
	id, err := util.ParseUUIDAsBlob(str)
	if err != nil {
		return util.UUIDAsBlob{}, fmt.Errorf("%w: %q", ErrCompanyNotFound, str)
	}

	return id, nil
}

// getCompanyRank returns the 1-based position of c when all companies are
// sorted by rating, ties being broken by creation order then ID.
func getCompanyRank(tx *sqlx.Tx, c Company) (int, error) {
	var ahead int
	query := `
        SELECT COUNT(*) FROM Company
        WHERE
            Company.Rating > ?
            OR (Company.Rating = ? AND Company.CreatedAt < ?)
            OR (Company.Rating = ? AND Company.CreatedAt = ? AND Company.ID < ?)`
	if err := tx.Get(
		&ahead, query,
		c.Rating,
		c.Rating, c.CreatedAt,
		c.Rating, c.CreatedAt, c.ID,
	); err != nil {
		return 0, err
	}

	return ahead + 1, nil
}
