package main

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/communityplatform/backend/internal/logger"
)

const (
	defaultListenAddr   = "localhost:8080"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction

	defaultUserServiceAddr    = "http://127.0.0.1:8081"
	defaultContentServiceAddr = "http://127.0.0.1:8082"

	defaultIssuer           = "community-platform"
	defaultAudience         = "community-platform-api"
	defaultClockSkewSeconds = 60
)

type Config struct {
	// Default logging level
	LogLevel string

	// Environment
	Environment string

	// Address on which the gateway will be run
	ListenAddr string

	// Downstream service base addresses
	UserServiceAddr    string
	ContentServiceAddr string

	// Secret key to verify access tokens.
	// Must be exactly the secret the user-service signs with
	SecretKey string

	// Issuer required from every access token
	Issuer string

	// Audience, kept in config for parity with the issuer side
	Audience string

	// Tolerated clock difference between hosts, in seconds
	ClockSkewSeconds int64
}

func NewConfig() *Config {
	return &Config{
		LogLevel:           defaultLoggingLevel,
		Environment:        defaultEnvironment,
		ListenAddr:         defaultListenAddr,
		UserServiceAddr:    defaultUserServiceAddr,
		ContentServiceAddr: defaultContentServiceAddr,
		Issuer:             defaultIssuer,
		Audience:           defaultAudience,
		ClockSkewSeconds:   defaultClockSkewSeconds,
	}
}

// Load variables from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}
	setInt64 := func(o *int64) func(value string) {
		return func(value string) {
			if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
				*o = parsed
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":             setString(&c.ListenAddr),
		"USER_SERVICE_ADDRESS":    setString(&c.UserServiceAddr),
		"CONTENT_SERVICE_ADDRESS": setString(&c.ContentServiceAddr),
		"JWT_SECRET":              setString(&c.SecretKey),
		"JWT_ISSUER":              setString(&c.Issuer),
		"JWT_AUDIENCE":            setString(&c.Audience),
		"JWT_CLOCK_SKEW_SECONDS":  setInt64(&c.ClockSkewSeconds),
		"LOG_LEVEL":               setString(&c.LogLevel),
		"ENVIRONMENT":             setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("gateway", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVar(&c.UserServiceAddr, "user-service", c.UserServiceAddr, "User service base address")
	fs.StringVar(&c.ContentServiceAddr, "content-service", c.ContentServiceAddr, "Content service base address")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Token verification secret (raw or base64)")
	fs.StringVar(&c.Issuer, "issuer", c.Issuer, "Required access token issuer claim")
	fs.StringVar(&c.Audience, "audience", c.Audience, "Access token audience claim")
	fs.Int64Var(&c.ClockSkewSeconds, "clock-skew", c.ClockSkewSeconds, "Clock skew tolerance in seconds")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	return fs.Parse(args)
}
