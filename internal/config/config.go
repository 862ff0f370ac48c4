package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultListenAddr  = "0.0.0.0:4000"
	DefaultLogFormat   = "text"
	DefaultLogLevel    = "info"
	DefaultMaxUpload   = int64(100 * 1024 * 1024)
	MaxUploadCeiling   = int64(5 * 1024 * 1024 * 1024)
	DefaultMaxHeader   = 1 << 20 // 1 MiB
	DefaultHealthLive  = "/healthz"
	DefaultHealthReady = "/readyz"
	DefaultMetricsPath = "/metrics"
	DefaultTLSMode     = "self_signed"

	DefaultListLimit    = 50
	MaxListLimitCeiling = 200
	DefaultSignExpiry   = 3600
	MaxSignExpiry       = 7 * 24 * 3600

	EnvAccessKeyID     = "STUDYDRIVE_S3_ACCESS_KEY_ID"
	EnvSecretAccessKey = "STUDYDRIVE_S3_SECRET_ACCESS_KEY"
)

var allowedProviders = map[string]struct{}{
	"s3":     {},
	"minio":  {},
	"memory": {},
}

var allowedTLSModes = map[string]struct{}{
	"self_signed": {},
	"manual":      {},
}

var allowedAuthModes = map[string]struct{}{
	"none":   {},
	"static": {},
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	List    ListConfig    `yaml:"list"`
	Sign    SignConfig    `yaml:"sign"`
	Auth    AuthConfig    `yaml:"auth"`
	TLS     TLSConfig     `yaml:"tls"`
	Health  HealthConfig  `yaml:"health"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type ServerConfig struct {
	ListenAddress      string   `yaml:"listen_address"`
	LogFormat          string   `yaml:"log_format"`
	LogLevel           string   `yaml:"log_level"`
	MaxUploadBytes     int64    `yaml:"max_upload_bytes"`
	MaxHeaderBytes     int      `yaml:"max_header_bytes"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

type StorageConfig struct {
	Provider string `yaml:"provider"`
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`

	UsePathStyle bool `yaml:"use_path_style"`

	// Credentials may be left empty in the file and supplied via the
	// STUDYDRIVE_S3_* environment variables instead.
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type ListConfig struct {
	DefaultLimit    int `yaml:"default_limit"`
	MaxLimit        int `yaml:"max_limit"`
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
}

type SignConfig struct {
	DefaultExpirySeconds int `yaml:"default_expiry_seconds"`
	MaxExpirySeconds     int `yaml:"max_expiry_seconds"`
}

type AuthConfig struct {
	Mode              string `yaml:"mode"`
	AuthorizationFile string `yaml:"authorization_file"`
	PublicRead        bool   `yaml:"public_read"`
}

type TLSConfig struct {
	Enabled bool   `yaml:"enabled"`
	Mode    string `yaml:"mode"`

	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`

	SelfSigned TLSSelfSignedConfig `yaml:"self_signed"`
}

type TLSSelfSignedConfig struct {
	CommonName string `yaml:"common_name"`
	ValidDays  int    `yaml:"valid_days"`
}

type HealthConfig struct {
	Enabled   bool   `yaml:"enabled"`
	PathLive  string `yaml:"path_live"`
	PathReady string `yaml:"path_ready"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			ListenAddress:  DefaultListenAddr,
			LogFormat:      DefaultLogFormat,
			LogLevel:       DefaultLogLevel,
			MaxUploadBytes: DefaultMaxUpload,
			MaxHeaderBytes: DefaultMaxHeader,
		},
		Storage: StorageConfig{
			Provider: "s3",
			Region:   "us-east-1",
		},
		List: ListConfig{
			DefaultLimit:    DefaultListLimit,
			MaxLimit:        MaxListLimitCeiling,
			CacheTTLSeconds: 0,
		},
		Sign: SignConfig{
			DefaultExpirySeconds: DefaultSignExpiry,
			MaxExpirySeconds:     MaxSignExpiry,
		},
		Auth: AuthConfig{
			Mode:       "none",
			PublicRead: true,
		},
		TLS: TLSConfig{
			Mode: DefaultTLSMode,
			SelfSigned: TLSSelfSignedConfig{
				CommonName: "localhost",
				ValidDays:  365,
			},
		},
		Health: HealthConfig{
			Enabled:   true,
			PathLive:  DefaultHealthLive,
			PathReady: DefaultHealthReady,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
	}
}

func LoadFile(path string) (Config, error) {
	cfg := Default()

	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file %q: %w", path, err)
	}

	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %q: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvAccessKeyID); v != "" {
		c.Storage.AccessKeyID = v
	}
	if v := os.Getenv(EnvSecretAccessKey); v != "" {
		c.Storage.SecretAccessKey = v
	}
}

func (c Config) Validate() error {
	var errs []error

	if c.Server.ListenAddress == "" {
		errs = append(errs, errors.New("config validation: server.listen_address is required"))
	}
	if c.Server.LogFormat != "text" && c.Server.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("config validation: server.log_format must be one of [text json], got %q", c.Server.LogFormat))
	}
	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("config validation: server.log_level must be one of [debug info warn error], got %q", c.Server.LogLevel))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("config validation: server.max_upload_bytes must be > 0"))
	}
	if c.Server.MaxUploadBytes > MaxUploadCeiling {
		errs = append(errs, fmt.Errorf("config validation: server.max_upload_bytes must be <= %d (5 GiB)", MaxUploadCeiling))
	}
	if c.Server.MaxHeaderBytes <= 0 {
		errs = append(errs, errors.New("config validation: server.max_header_bytes must be > 0"))
	}

	errs = append(errs, c.validateStorage()...)

	if c.List.DefaultLimit <= 0 {
		errs = append(errs, errors.New("config validation: list.default_limit must be > 0"))
	}
	if c.List.MaxLimit <= 0 {
		errs = append(errs, errors.New("config validation: list.max_limit must be > 0"))
	}
	if c.List.DefaultLimit > c.List.MaxLimit {
		errs = append(errs, errors.New("config validation: list.default_limit must be <= list.max_limit"))
	}
	if c.List.CacheTTLSeconds < 0 {
		errs = append(errs, errors.New("config validation: list.cache_ttl_seconds must be >= 0"))
	}

	if c.Sign.DefaultExpirySeconds <= 0 {
		errs = append(errs, errors.New("config validation: sign.default_expiry_seconds must be > 0"))
	}
	if c.Sign.MaxExpirySeconds <= 0 {
		errs = append(errs, errors.New("config validation: sign.max_expiry_seconds must be > 0"))
	}
	if c.Sign.DefaultExpirySeconds > c.Sign.MaxExpirySeconds {
		errs = append(errs, errors.New("config validation: sign.default_expiry_seconds must be <= sign.max_expiry_seconds"))
	}

	if _, ok := allowedAuthModes[c.Auth.Mode]; !ok {
		errs = append(errs, fmt.Errorf("config validation: auth.mode must be one of [none static], got %q", c.Auth.Mode))
	}
	if c.Auth.Mode == "static" && c.Auth.AuthorizationFile == "" {
		errs = append(errs, errors.New("config validation: auth.authorization_file is required when auth.mode=static"))
	}

	errs = append(errs, c.validateTLS()...)
	errs = append(errs, c.validateHealth()...)
	errs = append(errs, c.validateMetrics()...)

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (c Config) validateStorage() []error {
	var errs []error
	if _, ok := allowedProviders[c.Storage.Provider]; !ok {
		errs = append(errs, fmt.Errorf("config validation: storage.provider must be one of [s3 minio memory], got %q", c.Storage.Provider))
		return errs
	}
	if c.Storage.Provider == "memory" {
		return errs
	}
	if c.Storage.Bucket == "" {
		errs = append(errs, fmt.Errorf("config validation: storage.bucket is required when storage.provider=%s", c.Storage.Provider))
	}
	if c.Storage.Provider == "s3" && c.Storage.Region == "" {
		errs = append(errs, errors.New("config validation: storage.region is required when storage.provider=s3"))
	}
	if c.Storage.Provider == "minio" && c.Storage.Endpoint == "" {
		errs = append(errs, errors.New("config validation: storage.endpoint is required when storage.provider=minio"))
	}
	return errs
}

func (c Config) validateTLS() []error {
	var errs []error
	if !c.TLS.Enabled {
		return errs
	}

	if _, ok := allowedTLSModes[c.TLS.Mode]; !ok {
		errs = append(errs, fmt.Errorf("config validation: tls.mode must be one of [self_signed manual], got %q", c.TLS.Mode))
		return errs
	}

	switch c.TLS.Mode {
	case "manual":
		if c.TLS.CertFile == "" {
			errs = append(errs, errors.New("config validation: tls.cert_file is required when tls.mode=manual"))
		}
		if c.TLS.KeyFile == "" {
			errs = append(errs, errors.New("config validation: tls.key_file is required when tls.mode=manual"))
		}
		if c.TLS.CertFile != "" {
			if statErr := validateReadableFile(c.TLS.CertFile); statErr != nil {
				errs = append(errs, fmt.Errorf("config validation: tls.cert_file: %w", statErr))
			}
		}
		if c.TLS.KeyFile != "" {
			if statErr := validateReadableFile(c.TLS.KeyFile); statErr != nil {
				errs = append(errs, fmt.Errorf("config validation: tls.key_file: %w", statErr))
			}
		}
	case "self_signed":
		if c.TLS.SelfSigned.CommonName == "" {
			errs = append(errs, errors.New("config validation: tls.self_signed.common_name is required when tls.mode=self_signed"))
		}
		if c.TLS.SelfSigned.ValidDays <= 0 {
			errs = append(errs, errors.New("config validation: tls.self_signed.valid_days must be > 0 when tls.mode=self_signed"))
		}
	}

	return errs
}

func (c Config) validateHealth() []error {
	if !c.Health.Enabled {
		return nil
	}
	var errs []error
	if !strings.HasPrefix(c.Health.PathLive, "/") {
		errs = append(errs, errors.New("config validation: health.path_live must start with '/'"))
	}
	if !strings.HasPrefix(c.Health.PathReady, "/") {
		errs = append(errs, errors.New("config validation: health.path_ready must start with '/'"))
	}
	if c.Health.PathLive == c.Health.PathReady {
		errs = append(errs, errors.New("config validation: health.path_live and health.path_ready must be different"))
	}
	return errs
}

func (c Config) validateMetrics() []error {
	if !c.Metrics.Enabled {
		return nil
	}
	var errs []error
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, errors.New("config validation: metrics.path must start with '/'"))
	}
	return errs
}

func validateReadableFile(path string) error {
	cleaned := filepath.Clean(path)
	info, err := os.Stat(cleaned)
	if err != nil {
		return fmt.Errorf("%q is not readable: %w", cleaned, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%q points to a directory", cleaned)
	}
	return nil
}
