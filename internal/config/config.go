package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds all runtime configuration values. Each field
// corresponds to an environment variable. Access and refresh tokens
// are signed with distinct secrets so one class can never be
// verified as the other.
type Config struct {
	Env              string   // application environment (dev/test/prod)
	Port             string   // HTTP port to listen on
	DBUser           string   // database username
	DBPass           string   // database password (optional)
	DBHost           string   // database host address
	DBPort           string   // database port number
	DBName           string   // database name
	JWTAccessSecret  string   // secret used to sign access tokens
	JWTRefreshSecret string   // secret used to sign refresh tokens
	AccessTTLMin     int      // access token time-to-live in minutes
	RefreshTTLDays   int      // refresh token time-to-live in days
	BcryptCost       int      // bcrypt cost for password hashing
	CORSOrigins      []string // allowed CORS origins
	DefaultPageSize  int      // catalog listing page size when unspecified
	MaxPageSize      int      // hard cap on the requested page size
}

// Load reads configuration values from environment variables and
// returns a Config. Required variables are enforced by must();
// missing values cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:              must("APP_ENV"),
		Port:             must("APP_PORT"),
		DBUser:           must("DB_USER"),
		DBPass:           os.Getenv("DB_PASS"),
		DBHost:           must("DB_HOST"),
		DBPort:           must("DB_PORT"),
		DBName:           must("DB_NAME"),
		JWTAccessSecret:  must("JWT_ACCESS_SECRET"),
		JWTRefreshSecret: must("JWT_REFRESH_SECRET"),
		AccessTTLMin:     mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays:   mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:       mustInt("BCRYPT_COST"),
		CORSOrigins:      splitCSV(getenv("CORS_ORIGINS", "http://localhost:5173")),
		DefaultPageSize:  atoiDef(getenv("MOVIES_DEFAULT_PAGE_SIZE", "10"), 10),
		MaxPageSize:      atoiDef(getenv("MOVIES_MAX_PAGE_SIZE", "100"), 100),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and
// exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an
// integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func splitCSV(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func atoiDef(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}
