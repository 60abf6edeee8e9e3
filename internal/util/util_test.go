package util_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"ratemycompany/internal/util"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"gopkg.in/guregu/null.v4"
)

func TestFormatPay(t *testing.T) {
	cases := []struct {
		pay      null.Float
		expected string
	}{
		{null.Float{}, "N/A"},
		{null.FloatFrom(math.NaN()), "N/A"},
		{null.FloatFrom(math.Inf(1)), "N/A"},
		{null.FloatFrom(0), "N/A"},
		{null.FloatFrom(-12), "N/A"},
		{null.FloatFrom(0.4), "N/A"},
		{null.FloatFrom(42), "$42/hr"},
		{null.FloatFrom(41.5), "$42/hr"},
		{null.FloatFrom(57.2), "$57/hr"},
	}

	for _, v := range cases {
		if actual := util.FormatPay(v.pay); actual != v.expected {
			t.Errorf("FormatPay(%v): expected %q, got %q", v.pay, v.expected, actual)
		}
	}
}

func TestContainsProhibitedSlur(t *testing.T) {
	cases := []struct {
		input    string
		expected bool
	}{
		{"", false},
		{"Great internship, learned a lot", false},
		{"Scunthorpe", false},
		{"f4gg0t", true},
		{"K.I.K.E", true},
		{"w e t b a c k", true},
		{"r@gh3ad", true},
	}

	for _, v := range cases {
		if actual := util.ContainsProhibitedSlur(v.input); actual != v.expected {
			t.Errorf("ContainsProhibitedSlur(%q): expected %t, got %t", v.input, v.expected, actual)
		}
	}
}

func TestErrPublic(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", util.ErrPublic("rating must be between 1 and 5"))
	msg, ok := util.IsPublic(err)
	if !ok {
		t.Fatal("expected a public error")
	}
	if msg != "rating must be between 1 and 5" {
		t.Errorf("unexpected message %q", msg)
	}

	if _, ok := util.IsPublic(errors.New("sql: no rows")); ok {
		t.Error("plain errors must not be public")
	}
}

func TestConcatErrors(t *testing.T) {
	if err := util.ConcatErrors([]error{nil, nil}); err != nil {
		t.Errorf("expected nil, got %s", err)
	}

	errA, errB := errors.New("a"), util.ErrPublic("b")
	err := util.ConcatErrors([]error{errA, nil, errB})
	if err == nil || err.Error() != "a; b" {
		t.Errorf("unexpected error: %v", err)
	}
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Error("merged errors must still match their parts")
	}
	if msg, ok := util.IsPublic(err); !ok || msg != "b" {
		t.Errorf("expected the public message, got %q", msg)
	}

	if err := util.ConcatErrors([]error{nil, errA}); err != errA {
		t.Errorf("a single error must be returned as is, got %#v", err)
	}
}

func TestTransactionRollback(t *testing.T) {
	db, err := sqlx.Connect("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE "Thing" ("ID" INTEGER PRIMARY KEY)`); err != nil {
		t.Fatal(err)
	}

	errFailed := util.ErrPublic("failed")
	err = util.Transaction(context.Background(), db, func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(`INSERT INTO "Thing" ("ID") VALUES (1)`); err != nil {
			return err
		}

		return fmt.Errorf("wrapped: %w", errFailed)
	})
	if !errors.Is(err, errFailed) {
		t.Fatalf("expected the callback error, got %v", err)
	}

	var count int
	if err := db.Get(&count, `SELECT COUNT(*) FROM "Thing"`); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("transaction was not rolled back, %d rows", count)
	}

	if err := util.Transaction(context.Background(), db, func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`INSERT INTO "Thing" ("ID") VALUES (2)`)
		return err
	}); err != nil {
		t.Fatal(err)
	}
	if err := db.Get(&count, `SELECT COUNT(*) FROM "Thing"`); err != nil || count != 1 {
		t.Errorf("expected a committed row, got %d (%v)", count, err)
	}
}

func TestStringArrayAsJSON(t *testing.T) {
	var a util.StringArrayAsJSON
	if err := a.Scan(`["fintech","quant"]`); err != nil {
		t.Fatal(err)
	}
	if len(a) != 2 || a[1] != "quant" {
		t.Errorf("unexpected scan result: %v", a)
	}

	v, err := util.StringArrayAsJSON(nil).Value()
	if err != nil {
		t.Fatal(err)
	}
	if v != "[]" {
		t.Errorf("expected empty JSON array, got %v", v)
	}
}
