// Package config resolves service settings from built-in defaults, an
// optional YAML file, an optional .env file and the process environment, in
// that order. Command-line flags are applied by the caller on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr                 = ":8080"
	DefaultDBPath               = "quiz.db"
	DefaultTokenTTL             = 7 * 24 * time.Hour
	DefaultTokenCleanupInterval = time.Hour
)

type Config struct {
	Addr                 string        `yaml:"addr"`
	DBPath               string        `yaml:"db_path"`
	JWTSecret            string        `yaml:"jwt_secret"`
	TokenTTL             time.Duration `yaml:"token_ttl"`
	TokenCleanupInterval time.Duration `yaml:"token_cleanup_interval"`
	BcryptCost           int           `yaml:"bcrypt_cost"`
	AdminEmails          []string      `yaml:"admin_emails"`
}

type Options struct {
	// File is an optional YAML file. A missing file is an error only when set.
	File string
	// EnvFile defaults to ".env"; a missing .env file is ignored.
	EnvFile string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(key string) (string, bool)
}

func Default() Config {
	return Config{
		Addr:                 DefaultAddr,
		DBPath:               DefaultDBPath,
		TokenTTL:             DefaultTokenTTL,
		TokenCleanupInterval: DefaultTokenCleanupInterval,
	}
}

func Load(opts Options) (Config, error) {
	cfg := Default()

	if opts.File != "" {
		if err := cfg.loadYAML(opts.File); err != nil {
			return Config{}, err
		}
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read %s: %w", envFile, err)
	}

	lookupEnv := opts.LookupEnv
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	lookup := func(key string) (string, bool) {
		if value, ok := lookupEnv(key); ok {
			return value, true
		}
		value, ok := dotenv[key]
		return value, ok
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if value, ok := lookup("ADDR"); ok && strings.TrimSpace(value) != "" {
		c.Addr = strings.TrimSpace(value)
	}
	if value, ok := lookup("DB_PATH"); ok && strings.TrimSpace(value) != "" {
		c.DBPath = strings.TrimSpace(value)
	}
	if value, ok := lookup("JWT_SECRET"); ok && value != "" {
		c.JWTSecret = value
	}
	if value, ok := lookup("ADMIN_EMAILS"); ok {
		c.AdminEmails = SplitList(value)
	}

	var err error
	if c.TokenTTL, err = durationEnv(lookup, "TOKEN_TTL", c.TokenTTL); err != nil {
		return err
	}
	if c.TokenCleanupInterval, err = durationEnv(lookup, "TOKEN_CLEANUP_INTERVAL", c.TokenCleanupInterval); err != nil {
		return err
	}
	if value, ok := lookup("BCRYPT_COST"); ok && strings.TrimSpace(value) != "" {
		cost, convErr := strconv.Atoi(strings.TrimSpace(value))
		if convErr != nil {
			return fmt.Errorf("invalid BCRYPT_COST %q: %w", value, convErr)
		}
		c.BcryptCost = cost
	}
	return nil
}

// Validate reports settings the service cannot start without.
func (c Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.JWTSecret) == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	if strings.TrimSpace(c.Addr) == "" {
		problems = append(problems, "listen address is required")
	}
	if c.TokenTTL <= 0 {
		problems = append(problems, "token ttl must be positive")
	}
	if c.TokenCleanupInterval <= 0 {
		problems = append(problems, "token cleanup interval must be positive")
	}
	if len(problems) > 0 {
		return errors.New("invalid config: " + strings.Join(problems, "; "))
	}
	return nil
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func durationEnv(lookup func(string) (string, bool), key string, fallback time.Duration) (time.Duration, error) {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return parsed, nil
}
