package main

import (
	"log"
	"os"
	"os/signal"
	"ratemycompany/internal/back"
	"ratemycompany/internal/config"
	"ratemycompany/internal/web"
	"ratemycompany/pkg/supabase"
	"sync"
	"syscall"
)

func serve(conf *config.Config) error {
	b, err := back.New("sqlite3", conf.DatabasePath)
	if err != nil {
		return err
	}
	defer b.Close()

	run(web.NewServer(conf, b, b))

	return nil
}

// serveGateway only exposes the vote endpoint, votes are recorded by the
// managed store.
func serveGateway(conf *config.Config) error {
	var recorder web.MatchRecorder
	if conf.HasStoreCredentials() {
		api, err := supabase.New(conf.SupabaseURL, conf.SupabaseServiceRoleKey)
		if err != nil {
			return err
		}
		recorder = back.NewRemoteRecorder(api)
	} else {
		log.Print("warning: missing Supabase credentials, every vote will fail")
	}

	run(web.NewServer(conf, nil, recorder))

	return nil
}

// run serves until SIGINT or SIGTERM.
func run(server *web.Server) {
	done := make(chan struct{})
	signaled := make(chan os.Signal, 1)
	signal.Notify(signaled, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup
	wg.Add(1)
	go server.Serve(&wg, done)

	sig := <-signaled
	log.Printf("info: received signal %s", sig)

	close(done)
	wg.Wait()

	log.Print("info: shutdown complete")
}
