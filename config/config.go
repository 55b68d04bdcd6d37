// Package config loads the portal configuration from defaults, a YAML file,
// an optional .env file and PORTAL_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	auth "github.com/goliatone/go-portal-auth"
)

// EnvPrefix namespaces every environment override
const EnvPrefix = "PORTAL_"

type Server struct {
	Addr         string        `yaml:"addr"`
	Debug        bool          `yaml:"debug"`
	LoginRate    float64       `yaml:"login_rate"`
	LoginBurst   int           `yaml:"login_burst"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	PhoneRegion  string        `yaml:"phone_region"`
}

type Database struct {
	DSN string `yaml:"dsn"`
}

type JWT struct {
	SigningKey           string `yaml:"signing_key"`
	Issuer               string `yaml:"issuer"`
	Audience             string `yaml:"audience"`
	UserExpiresInMinutes int    `yaml:"user_expires_in_minutes"`
}

type Resume struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Prefix          string `yaml:"prefix"`
	MaxSizeBytes    int64  `yaml:"max_size_bytes"`
}

// Config is the root configuration document
type Config struct {
	Server   Server   `yaml:"server"`
	Database Database `yaml:"database"`
	JWT      JWT      `yaml:"jwt"`
	Resume   Resume   `yaml:"resume"`
}

// Defaults returns a configuration usable for local development once a
// signing key is provided.
func Defaults() *Config {
	return &Config{
		Server: Server{
			Addr:         ":5000",
			LoginRate:    5,
			LoginBurst:   10,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			PhoneRegion:  auth.DefaultPhoneRegion,
		},
		Database: Database{
			DSN: "file:portal.db?cache=shared",
		},
		JWT: JWT{
			Issuer:               "portal",
			Audience:             "portal",
			UserExpiresInMinutes: 60,
		},
		Resume: Resume{
			Region:       "us-east-1",
			Prefix:       "resumes/",
			MaxSizeBytes: 5 << 20,
		},
	}
}

// Load builds the configuration. An empty path skips the YAML file, and a
// missing .env file is ignored.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to read config file")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to parse config file")
		}
	}

	// .env only fills variables that are not already set
	_ = godotenv.Load()

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrap(err, errors.CategoryBadInput, fmt.Sprintf("invalid %s%s", EnvPrefix, key))
		}
		*dst = n
		return nil
	}

	str("SERVER_ADDR", &c.Server.Addr)
	str("PHONE_REGION", &c.Server.PhoneRegion)
	if v, ok := lookup(EnvPrefix + "DEBUG"); ok {
		c.Server.Debug, _ = strconv.ParseBool(v)
	}
	str("DATABASE_DSN", &c.Database.DSN)
	str("JWT_SIGNING_KEY", &c.JWT.SigningKey)
	str("JWT_ISSUER", &c.JWT.Issuer)
	str("JWT_AUDIENCE", &c.JWT.Audience)
	str("RESUME_BUCKET", &c.Resume.Bucket)
	str("RESUME_REGION", &c.Resume.Region)
	str("RESUME_ENDPOINT", &c.Resume.Endpoint)
	str("RESUME_ACCESS_KEY_ID", &c.Resume.AccessKeyID)
	str("RESUME_SECRET_ACCESS_KEY", &c.Resume.SecretAccessKey)
	str("RESUME_PREFIX", &c.Resume.Prefix)

	return num("JWT_USER_EXPIRES_IN_MINUTES", &c.JWT.UserExpiresInMinutes)
}

// Validate checks the values the services cannot run without
func (c *Config) Validate() error {
	err := validation.ValidateStruct(&c.JWT,
		validation.Field(&c.JWT.SigningKey, validation.Required, validation.Length(16, 0)),
		validation.Field(&c.JWT.Issuer, validation.Required),
		validation.Field(&c.JWT.Audience, validation.Required),
		validation.Field(&c.JWT.UserExpiresInMinutes, validation.Required, validation.Min(1)),
	)
	if err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid jwt configuration")
	}

	err = validation.ValidateStruct(&c.Server,
		validation.Field(&c.Server.Addr, validation.Required),
		validation.Field(&c.Server.LoginBurst, validation.Min(0)),
	)
	if err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid server configuration")
	}

	if err := validation.Validate(c.Database.DSN, validation.Required); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid database configuration")
	}

	return nil
}

// SigningConfig returns the token signing settings
func (c *Config) SigningConfig() auth.SigningConfig {
	return auth.SigningConfigFrom(c)
}

// UserTokenTTL is the configured lifetime of user tokens
func (c *Config) UserTokenTTL() time.Duration {
	return time.Duration(c.JWT.UserExpiresInMinutes) * time.Minute
}

// ResumeEnabled reports whether uploads should be sent to object storage
func (c *Config) ResumeEnabled() bool {
	return c.Resume.Bucket != ""
}

func (c *Config) GetSigningKey() string {
	return c.JWT.SigningKey
}

func (c *Config) GetIssuer() string {
	return c.JWT.Issuer
}

func (c *Config) GetAudience() string {
	return c.JWT.Audience
}

func (c *Config) GetUserTokenExpiration() int {
	return c.JWT.UserExpiresInMinutes
}

var _ auth.Config = (*Config)(nil)
