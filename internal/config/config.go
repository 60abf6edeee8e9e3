package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	// HTTPAddress is the host:port the webserver listens on.
	HTTPAddress string

	// DatabasePath is the path of the local SQLite database.
	DatabasePath   string
	MigrationsPath string

	// Managed store used by the standalone vote gateway.
	SupabaseURL            string
	SupabaseServiceRoleKey string

	// SupabaseJWTSecret validates the bearer tokens issued by the managed auth
	// service, required to like reviews.
	SupabaseJWTSecret string

	HCaptchaSecret string

	// AllowedVoteOrigins is the CORS allow-list, the first entry is used as
	// the header value for unknown origins.
	AllowedVoteOrigins []string

	// Per client IP token bucket in front of the vote endpoint, a rate <= 0
	// disables it.
	VoteRatePerSecond float64
	VoteBurst         int

	// TrustProxyHeaders identifies vote clients by X-Forwarded-For and
	// CF-Connecting-IP for rate limiting. Only enable it behind a proxy that
	// overwrites those headers.
	TrustProxyHeaders bool
}

const (
	DefaultHTTPAddress       = "127.0.0.1:3001"
	DefaultDatabasePath      = "./ratemycompany.db"
	DefaultMigrationsPath    = "resources/migrations"
	DefaultVoteRatePerSecond = 0
	DefaultVoteBurst         = 10
)

func NewFromUserConfigDir() (*Config, error) {
	c := &Config{}
	if err := c.ReloadFromUserConfigDir(); err != nil {
		return nil, err
	}

	return c, nil
}

// setDefaults runs before the file and the environment are read so that an
// explicit zero is kept.
func (c *Config) setDefaults() {
	c.HTTPAddress = DefaultHTTPAddress
	c.DatabasePath = DefaultDatabasePath
	c.MigrationsPath = DefaultMigrationsPath
	c.VoteRatePerSecond = DefaultVoteRatePerSecond
	c.VoteBurst = DefaultVoteBurst
}

func (c *Config) validate() error {
	if c.VoteRatePerSecond > 0 && c.VoteBurst < 1 {
		return fmt.Errorf("vote burst must be at least 1 when rate limiting is enabled, got %d", c.VoteBurst)
	}

	return nil
}

// expandFromEnv overrides the configuration with the environment, for
// variables with multiple names the first one set wins.
func (c *Config) expandFromEnv() error {
	vars := []struct {
		src []string
		dst *string
	}{
		{[]string{"RATEMYCOMPANY_HTTP_ADDRESS"}, &c.HTTPAddress},
		{[]string{"RATEMYCOMPANY_DB"}, &c.DatabasePath},
		{[]string{"RATEMYCOMPANY_MIGRATIONS"}, &c.MigrationsPath},
		{[]string{"EDGE_SUPABASE_URL", "SUPABASE_URL"}, &c.SupabaseURL},
		{[]string{"EDGE_SUPABASE_SERVICE_ROLE_KEY", "SUPABASE_SERVICE_ROLE_KEY"}, &c.SupabaseServiceRoleKey},
		{[]string{"SUPABASE_JWT_SECRET"}, &c.SupabaseJWTSecret},
		{[]string{"HCAPTCHA_SECRET_KEY"}, &c.HCaptchaSecret},
	}

	for _, v := range vars {
		if str := getEnv(v.src...); str != "" {
			*v.dst = str
		}
	}

	if str := os.Getenv("ALLOWED_VOTE_ORIGINS"); str != "" {
		c.AllowedVoteOrigins = ParseOrigins(str)
	}

	if str := os.Getenv("RATEMYCOMPANY_VOTE_RPS"); str != "" {
		rps, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return fmt.Errorf("invalid RATEMYCOMPANY_VOTE_RPS: %w", err)
		}
		c.VoteRatePerSecond = rps
	}

	if str := os.Getenv("RATEMYCOMPANY_VOTE_BURST"); str != "" {
		burst, err := strconv.Atoi(str)
		if err != nil {
			return fmt.Errorf("invalid RATEMYCOMPANY_VOTE_BURST: %w", err)
		}
		c.VoteBurst = burst
	}

	if str := os.Getenv("RATEMYCOMPANY_TRUST_PROXY"); str != "" {
		trust, err := strconv.ParseBool(str)
		if err != nil {
			return fmt.Errorf("invalid RATEMYCOMPANY_TRUST_PROXY: %w", err)
		}
		c.TrustProxyHeaders = trust
	}

	return nil
}

func getEnv(names ...string) string {
	for _, v := range names {
		if str := os.Getenv(v); str != "" {
			return str
		}
	}

	return ""
}

// ParseOrigins splits a comma-separated list of origins, ignoring blanks.
func ParseOrigins(str string) []string {
	parts := strings.Split(str, ",")
	ret := make([]string, 0, len(parts))
	for _, v := range parts {
		if v = strings.TrimSpace(v); v != "" {
			ret = append(ret, v)
		}
	}

	return ret
}

// HasStoreCredentials returns true if the managed store can be reached.
func (c *Config) HasStoreCredentials() bool {
	return c.SupabaseURL != "" && c.SupabaseServiceRoleKey != ""
}

func (c *Config) ReloadFromUserConfigDir() error {
	path, err := getOrCreateUserConfigPath()
	if err != nil {
		return err
	}
	log.Printf("debug: reading conf from %s", path)

	*c = Config{}
	c.setDefaults()
	if err := c.readFile(path); err != nil {
		return err
	}

	if err := c.expandFromEnv(); err != nil {
		return err
	}

	return c.validate()
}

func (c *Config) readFile(path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("unable to parse %s: %w", path, err)
	}

	return nil
}

func getOrCreateUserConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(configDir, "ratemycompany")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}

	return filepath.Join(dir, "config.json"), nil
}
