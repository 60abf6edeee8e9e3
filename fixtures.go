package main

import (
	"context"
	"ratemycompany/internal/back"
	"ratemycompany/internal/config"
)

func loadFixtures(conf *config.Config) error {
	b, err := back.New("sqlite3", conf.DatabasePath)
	if err != nil {
		return err
	}
	defer b.Close()

	return b.LoadFixtures(context.Background())
}
