package main

import (
	"errors"
	"log"
	"ratemycompany/internal/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func migrateUp(conf *config.Config) error {
	migrator, err := migrate.New(
		"file://"+conf.MigrationsPath,
		"sqlite3://"+conf.DatabasePath,
	)
	if err != nil {
		return err
	}
	defer migrator.Close()

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Print("info: database is up to date")
			return nil
		}

		return err
	}

	version, _, err := migrator.Version()
	if err != nil {
		return err
	}
	log.Printf("info: migrated database to version %d", version)

	return nil
}
