package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"ratemycompany/internal/config"

	_ "github.com/mattn/go-sqlite3"
)

// Version holds the build-time version string.
var Version = "unknown" // nolint:gochecknoglobals

func main() {
	flag.Parse()

	var run func(*config.Config) error
	switch flag.Arg(0) {
	case "version":
		fmt.Fprintf(os.Stdout, "ratemycompany %s\n", Version)
		return
	case "help":
		fmt.Fprint(os.Stdout, help())
		return
	case "serve":
		run = serve
	case "gateway":
		run = serveGateway
	case "migrate":
		run = migrateUp
	case "dev:fixtures":
		run = loadFixtures
	default:
		fmt.Fprint(os.Stderr, help())
		os.Exit(1)
	}

	conf, err := config.NewFromUserConfigDir()
	if err != nil {
		log.Fatalf("error: unable to load configuration: %s", err)
	}

	if err := run(conf); err != nil {
		log.Fatalf("error: %s", err)
	}
}

func help() string {
	return fmt.Sprintf(`
ratemycompany ranks companies through head-to-head votes.

Usage: %[1]s COMMAND [ARGS…]

COMMANDS
    serve        run the full HTTP API on the local database
    gateway      run only the vote endpoint, backed by the managed store
    migrate      apply pending database migrations
    dev:fixtures create default data for quick testing during development
    help         display this help
    version      display the current version

Configuration is read from the user configuration directory
(ratemycompany/config.json) and overridden by the environment:
    SUPABASE_URL, SUPABASE_SERVICE_ROLE_KEY, SUPABASE_JWT_SECRET,
    HCAPTCHA_SECRET_KEY, ALLOWED_VOTE_ORIGINS, RATEMYCOMPANY_HTTP_ADDRESS,
    RATEMYCOMPANY_DB, RATEMYCOMPANY_MIGRATIONS, RATEMYCOMPANY_VOTE_RPS,
    RATEMYCOMPANY_VOTE_BURST, RATEMYCOMPANY_TRUST_PROXY
`,
		os.Args[0],
	)
}
