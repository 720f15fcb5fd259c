// Package config loads pricesync settings from defaults, an optional YAML file,
// a .env file and PRICESYNC_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/shelfwatch/pricesync/logging"
)

const envPrefix = "PRICESYNC"

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// DefaultCategories is the category vocabulary used when none is configured.
var DefaultCategories = []string{
	"fruit", "vegetables", "meat", "seafood", "deli", "dairy", "milk", "cheese",
	"eggs", "butter", "yoghurt", "bakery", "bread", "frozen", "pantry", "canned",
	"snacks", "sweets", "drinks", "coffee", "tea", "alcohol", "household",
	"cleaning", "health", "beauty", "baby", "pet",
}

type Config struct {
	Database  Database
	Mongo     Mongo
	Reconcile Reconcile
	Ingest    Ingest
	Server    Server
	Log       logging.Config

	// File is the config file that was read, if any.
	File string
}

type Database struct {
	Driver       string
	DSN          string
	MaxOpenConns int
}

type Mongo struct {
	URI        string
	Database   string
	Collection string
}

type Reconcile struct {
	PriceThreshold decimal.Decimal
	Location       *time.Location
	Categories     []string
}

type Ingest struct {
	Workers int
}

type Server struct {
	Addr string
}

// Error represents a configuration error
type Error struct {
	Key     string
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error in %s: %s: %v", e.Key, e.Message, e.Err)
	}
	return fmt.Sprintf("configuration error in %s: %s", e.Key, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *Error) Unwrap() error {
	return e.Err
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "pricesync")
	v.SetDefault("mongo.collection", "products")
	v.SetDefault("reconcile.price_threshold", "0.05")
	v.SetDefault("reconcile.timezone", "UTC")
	v.SetDefault("reconcile.categories", DefaultCategories)
	v.SetDefault("ingest.workers", 4)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "auto")
	v.SetDefault("log.output", "stderr")
	return v
}

// LoadEnvFile loads .env into the process environment when the file exists.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return &Error{Key: "env_file", Message: "cannot load " + path, Err: err}
	}
	return nil
}

// Load reads the config file (when file is not empty) and builds a Config from v.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, &Error{Key: "config", Message: "cannot read " + file, Err: err}
		}
	}

	threshold, err := decimal.NewFromString(v.GetString("reconcile.price_threshold"))
	if err != nil {
		return nil, &Error{Key: "reconcile.price_threshold", Message: "not a decimal", Err: err}
	}
	if threshold.IsNegative() {
		return nil, &Error{Key: "reconcile.price_threshold", Message: "must not be negative"}
	}

	loc, err := time.LoadLocation(v.GetString("reconcile.timezone"))
	if err != nil {
		return nil, &Error{Key: "reconcile.timezone", Message: "unknown time zone", Err: err}
	}

	driver := strings.ToLower(v.GetString("database.driver"))
	switch driver {
	case DriverPostgres, DriverMongo, DriverMemory:
	default:
		return nil, &Error{Key: "database.driver", Message: fmt.Sprintf("unsupported driver %q", driver)}
	}

	workers := v.GetInt("ingest.workers")
	if workers < 1 {
		return nil, &Error{Key: "ingest.workers", Message: "must be at least 1"}
	}

	return &Config{
		Database: Database{
			Driver:       driver,
			DSN:          v.GetString("database.dsn"),
			MaxOpenConns: v.GetInt("database.max_open_conns"),
		},
		Mongo: Mongo{
			URI:        v.GetString("mongo.uri"),
			Database:   v.GetString("mongo.database"),
			Collection: v.GetString("mongo.collection"),
		},
		Reconcile: Reconcile{
			PriceThreshold: threshold,
			Location:       loc,
			Categories:     splitList(v.GetStringSlice("reconcile.categories")),
		},
		Ingest: Ingest{Workers: workers},
		Server: Server{Addr: v.GetString("server.addr")},
		Log: logging.Config{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		File: v.ConfigFileUsed(),
	}, nil
}

// splitList accepts both YAML lists and comma-separated environment values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
