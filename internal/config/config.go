package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/odysseus0/rssfeeder/internal/model"
	"github.com/odysseus0/rssfeeder/internal/registry"
	"github.com/sirupsen/logrus"
)

const (
	defaultHTTPTimeoutSec  = 10
	defaultRetryInitialMS  = 500
	defaultRetryMaxSeconds = 30
)

const (
	configFolderName  = "rssfeeder"
	configFileName    = "config.toml"
	configPathEnvName = "XDG_CONFIG_HOME"
	envPrefix         = "RSSFEEDER_"
)

var ErrInvalidConfig = errors.New("invalid config")

var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/58.0.3029.110 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 Firefox/64.0 Safari/537.36",
}

type Config struct {
	BaseURL           string
	OutputDir         string
	HTTPTimeout       time.Duration
	Retry             Retry
	UserAgents        []string
	LogLevel          string
	LogFormat         string
	DescriptionFormat model.DescriptionFormat
	MetricsFile       string
	Feeds             []model.FeedConfig
}

// Retry bounds the timeout retry loop. MaxAttempts 0 retries forever and a
// zero InitialInterval retries without sleeping.
type Retry struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsed      time.Duration
}

func Default() Config {
	return Config{
		BaseURL:     registry.DefaultBaseURL,
		OutputDir:   ".",
		HTTPTimeout: defaultHTTPTimeoutSec * time.Second,
		Retry: Retry{
			InitialInterval: defaultRetryInitialMS * time.Millisecond,
			MaxInterval:     defaultRetryMaxSeconds * time.Second,
		},
		UserAgents:        append([]string(nil), DefaultUserAgents...),
		LogLevel:          "info",
		LogFormat:         "text",
		DescriptionFormat: model.DescriptionRaw,
	}
}

func LoadConfig() (Config, error) {
	cfg := Default()

	configPath, hasConfig, err := findConfigPath()
	if err != nil {
		return Config{}, err
	}
	if hasConfig {
		fileCfg, err := loadFileConfig(configPath)
		if err != nil {
			return Config{}, err
		}
		applyFileConfig(&cfg, fileCfg)
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

type fileConfig struct {
	BaseURL                *string             `toml:"base_url"`
	OutputDir              *string             `toml:"output_dir"`
	HTTPTimeoutSeconds     *int                `toml:"http_timeout_seconds"`
	MaxAttempts            *int                `toml:"max_attempts"`
	RetryInitialMS         *int                `toml:"retry_initial_ms"`
	RetryMaxSeconds        *int                `toml:"retry_max_seconds"`
	RetryMaxElapsedSeconds *int                `toml:"retry_max_elapsed_seconds"`
	UserAgents             []string            `toml:"user_agents"`
	LogLevel               *string             `toml:"log_level"`
	LogFormat              *string             `toml:"log_format"`
	DescriptionFormat      *string             `toml:"description_format"`
	MetricsFile            *string             `toml:"metrics_file"`
	Feeds                  map[string]fileFeed `toml:"feeds"`
}

type fileFeed struct {
	Query      string `toml:"query"`
	OutputFile string `toml:"output_file"`
	Title      string `toml:"title"`
}

// findConfigPath prefers $XDG_CONFIG_HOME over ~/.config. A missing HOME is
// not an error.
func findConfigPath() (string, bool, error) {
	candidates := make([]string, 0, 2)
	if xdgConfigHome := strings.TrimSpace(os.Getenv(configPathEnvName)); xdgConfigHome != "" {
		candidates = append(candidates, filepath.Join(xdgConfigHome, configFolderName, configFileName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", configFolderName, configFileName))
	}

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil {
			if info.IsDir() {
				return "", false, fmt.Errorf("%w: config path %q is a directory; expected a file", ErrInvalidConfig, candidate)
			}
			return candidate, true, nil
		}
		if os.IsNotExist(err) {
			continue
		}
		return "", false, fmt.Errorf("failed to read config path %q: %w", candidate, err)
	}
	return "", false, nil
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return fileConfig{}, fmt.Errorf("%w: file %q: %v", ErrInvalidConfig, path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		unknown := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			unknown = append(unknown, key.String())
		}
		sort.Strings(unknown)
		return fileConfig{}, fmt.Errorf("%w: file %q: unknown key(s): %s", ErrInvalidConfig, path, strings.Join(unknown, ", "))
	}
	if err := validateFileConfig(cfg); err != nil {
		return fileConfig{}, fmt.Errorf("%w: file %q: %v", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

func validateFileConfig(cfg fileConfig) error {
	if cfg.BaseURL != nil && !validBaseURL(*cfg.BaseURL) {
		return fmt.Errorf("base_url must be an absolute http(s) url")
	}
	if cfg.OutputDir != nil && strings.TrimSpace(*cfg.OutputDir) == "" {
		return fmt.Errorf("output_dir must be non-empty when provided")
	}
	if cfg.HTTPTimeoutSeconds != nil && *cfg.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("http_timeout_seconds must be > 0")
	}
	if cfg.MaxAttempts != nil && *cfg.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must be >= 0")
	}
	if cfg.RetryInitialMS != nil && *cfg.RetryInitialMS < 0 {
		return fmt.Errorf("retry_initial_ms must be >= 0")
	}
	if cfg.RetryMaxSeconds != nil && *cfg.RetryMaxSeconds < 0 {
		return fmt.Errorf("retry_max_seconds must be >= 0")
	}
	if cfg.RetryMaxElapsedSeconds != nil && *cfg.RetryMaxElapsedSeconds < 0 {
		return fmt.Errorf("retry_max_elapsed_seconds must be >= 0")
	}
	for _, ua := range cfg.UserAgents {
		if strings.TrimSpace(ua) == "" {
			return fmt.Errorf("user_agents must not contain empty entries")
		}
	}
	if cfg.LogLevel != nil {
		if _, err := logrus.ParseLevel(*cfg.LogLevel); err != nil {
			return fmt.Errorf("log_level: %v", err)
		}
	}
	if cfg.LogFormat != nil && !validLogFormat(*cfg.LogFormat) {
		return fmt.Errorf("log_format must be text or json")
	}
	if cfg.DescriptionFormat != nil && !validDescriptionFormat(*cfg.DescriptionFormat) {
		return fmt.Errorf("description_format must be raw or markdown")
	}
	for id, f := range cfg.Feeds {
		if strings.TrimSpace(f.OutputFile) == "" {
			return fmt.Errorf("feeds.%s.output_file must be non-empty", id)
		}
	}
	return nil
}

func applyFileConfig(cfg *Config, fileCfg fileConfig) {
	if fileCfg.BaseURL != nil {
		cfg.BaseURL = *fileCfg.BaseURL
	}
	if fileCfg.OutputDir != nil {
		cfg.OutputDir = *fileCfg.OutputDir
	}
	if fileCfg.HTTPTimeoutSeconds != nil {
		cfg.HTTPTimeout = time.Duration(*fileCfg.HTTPTimeoutSeconds) * time.Second
	}
	if fileCfg.MaxAttempts != nil {
		cfg.Retry.MaxAttempts = *fileCfg.MaxAttempts
	}
	if fileCfg.RetryInitialMS != nil {
		cfg.Retry.InitialInterval = time.Duration(*fileCfg.RetryInitialMS) * time.Millisecond
	}
	if fileCfg.RetryMaxSeconds != nil {
		cfg.Retry.MaxInterval = time.Duration(*fileCfg.RetryMaxSeconds) * time.Second
	}
	if fileCfg.RetryMaxElapsedSeconds != nil {
		cfg.Retry.MaxElapsed = time.Duration(*fileCfg.RetryMaxElapsedSeconds) * time.Second
	}
	if len(fileCfg.UserAgents) > 0 {
		cfg.UserAgents = fileCfg.UserAgents
	}
	if fileCfg.LogLevel != nil {
		cfg.LogLevel = *fileCfg.LogLevel
	}
	if fileCfg.LogFormat != nil {
		cfg.LogFormat = *fileCfg.LogFormat
	}
	if fileCfg.DescriptionFormat != nil {
		cfg.DescriptionFormat = model.DescriptionFormat(*fileCfg.DescriptionFormat)
	}
	if fileCfg.MetricsFile != nil {
		cfg.MetricsFile = *fileCfg.MetricsFile
	}

	ids := make([]string, 0, len(fileCfg.Feeds))
	for id := range fileCfg.Feeds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		f := fileCfg.Feeds[id]
		cfg.Feeds = append(cfg.Feeds, model.FeedConfig{
			ID:         id,
			Query:      f.Query,
			OutputFile: f.OutputFile,
			Title:      f.Title,
		})
	}
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := lookupEnv("BASE_URL"); ok && validBaseURL(v) {
		cfg.BaseURL = v
	}
	if v, ok := lookupEnv("OUTPUT_DIR"); ok {
		cfg.OutputDir = v
	}
	if v, ok := lookupEnv("HTTP_TIMEOUT_SECONDS"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPTimeout = time.Duration(n) * time.Second
		}
	}
	if v, ok := lookupEnv("MAX_ATTEMPTS"); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Retry.MaxAttempts = n
		}
	}
	if v, ok := lookupEnv("LOG_LEVEL"); ok {
		if _, err := logrus.ParseLevel(v); err == nil {
			cfg.LogLevel = v
		}
	}
	if v, ok := lookupEnv("LOG_FORMAT"); ok && validLogFormat(v) {
		cfg.LogFormat = v
	}
	if v, ok := lookupEnv("DESCRIPTION_FORMAT"); ok && validDescriptionFormat(v) {
		cfg.DescriptionFormat = model.DescriptionFormat(v)
	}
	if v, ok := lookupEnv("METRICS_FILE"); ok {
		cfg.MetricsFile = v
	}
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func validBaseURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func validLogFormat(v string) bool {
	return v == "text" || v == "json"
}

func validDescriptionFormat(v string) bool {
	switch model.DescriptionFormat(v) {
	case model.DescriptionRaw, model.DescriptionMarkdown:
		return true
	}
	return false
}
