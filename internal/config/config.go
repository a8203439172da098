package config // package config loads application configuration from environment variables

import (
	"log"     // log reports configuration errors and halts execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time parses the ficket delay duration
)

// DBConfig holds the connection parameters for one MySQL database.  The
// application talks to two independently-owned databases: accounts
// (users, sessions) and scheduling (barbers, slots, reservations).
type DBConfig struct {
	User string // database username
	Pass string // database password (optional)
	Host string // database host address
	Port string // database port number
	Name string // database name
}

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable; types reflect how the values are used.
type Config struct {
	Env            string        // application environment (e.g. "dev", "prod")
	Port           string        // HTTP port to listen on
	AccountsDB     DBConfig      // accounts database (users, refresh tokens)
	SchedulingDB   DBConfig      // scheduling database (barbers, slots, reservations)
	JWTSecret      string        // secret used to sign JWTs
	AccessTTLMin   int           // access token time-to-live in minutes
	RefreshTTLDays int           // refresh token time-to-live in days
	BcryptCost     int           // bcrypt cost for password hashing
	FicketDelay    time.Duration // simulated ficket (PDF) generation time
}

// Load reads configuration from environment variables.  Required
// variables are enforced by must() and missing values exit the process
// with a fatal log message.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		AccountsDB:     loadDB("ACCOUNTS"),
		SchedulingDB:   loadDB("SCHEDULING"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),
		FicketDelay:    durOr("FICKET_DELAY", 3*time.Second),
	}
}

// loadDB reads one DB block using the given prefix, e.g. ACCOUNTS_DB_HOST.
func loadDB(prefix string) DBConfig {
	return DBConfig{
		User: must(prefix + "_DB_USER"),
		Pass: os.Getenv(prefix + "_DB_PASS"), // empty allowed
		Host: must(prefix + "_DB_HOST"),
		Port: must(prefix + "_DB_PORT"),
		Name: must(prefix + "_DB_NAME"),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the value to an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// durOr parses a duration env var, falling back to a default when the
// variable is unset or malformed.
func durOr(key string, d time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return d
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid duration for %s: %q; using %s", key, v, d)
		return d
	}
	return parsed
}
