package back

import (
	"context"
	"errors"
	"ratemycompany/internal/util"

	"github.com/jmoiron/sqlx"
)

var (
	ErrCompanyNotFound = errors.New("company not found")
	ErrReviewNotFound  = errors.New("review not found")
)

type Back struct {
	db *sqlx.DB
}

func New(sqlDriver string, sqlDSN string) (*Back, error) {
	// Why even bother converting names? A single greppable string across all
	// your source code is better than any odd conversion scheme you could ever
	// come up with.
	// HACK: This is global but putting this in init() makes test ugly.
	// As only the Back relies on the DB, this seems like an okay-ish place.
	sqlx.NameMapper = func(v string) string { return v }

	db, err := sqlx.Connect(sqlDriver, sqlDSN)
	if err != nil {
		return nil, err
	}

	// A single connection serializes every transaction, RecordMatchup relies
	// on it to never lose a rating update.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, err
	}

	return &Back{
		db: db,
	}, nil
}

func (b *Back) Close() error {
	return b.db.Close()
}

func (b *Back) transaction(ctx context.Context, cb util.TransactionCallback) error {
	return util.Transaction(ctx, b.db, cb)
}
