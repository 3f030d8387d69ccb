package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr       = ":8080"
	defaultBackendTimeout = 30 * time.Second
	defaultTokenLifetime  = 2 * time.Hour
	defaultBoardTTL       = 2 * time.Hour

	defaultSessionsPageSize = 10
	defaultStudentsPageSize = 10
	defaultTablePageSize    = 5

	defaultVaultKVMount = "secret"
)

type Config struct {
	HTTPAddr         string
	BackendURL       string
	BackendTimeout   time.Duration
	TokenLifetime    time.Duration
	AuthCookieSecure bool
	DatabaseURL      string
	RedisURL         string
	BoardTTL         time.Duration
	MetricsAddr      string
	SessionsPageSize int
	StudentsPageSize int
	TablePageSize    int
	Vault            VaultConfig
}

// VaultConfig locates the admin credentials used by non-interactive CLI runs.
type VaultConfig struct {
	Addr    string
	Token   string
	KVMount string
	KVPath  string
}

func (v VaultConfig) Enabled() bool {
	return strings.TrimSpace(v.Addr) != "" && strings.TrimSpace(v.KVPath) != ""
}

type LoadOptions struct {
	RequireBackendURL bool
}

func Load() (Config, error) {
	return LoadWithOptions(LoadOptions{RequireBackendURL: true})
}

func LoadWithOptions(opts LoadOptions) (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, err
		}
	}

	cfg := Config{
		HTTPAddr:         getenvDefault("HTTP_ADDR", defaultHTTPAddr),
		BackendURL:       strings.TrimRight(strings.TrimSpace(os.Getenv("BACKEND_URL")), "/"),
		BackendTimeout:   getenvDurationDefault("BACKEND_TIMEOUT", defaultBackendTimeout),
		TokenLifetime:    getenvDurationDefault("TOKEN_LIFETIME", defaultTokenLifetime),
		AuthCookieSecure: getenvBoolDefault("AUTH_COOKIE_SECURE", false),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisURL:         strings.TrimSpace(os.Getenv("REDIS_URL")),
		BoardTTL:         getenvDurationDefault("BOARD_TTL", defaultBoardTTL),
		MetricsAddr:      strings.TrimSpace(os.Getenv("METRICS_ADDR")),
		SessionsPageSize: getenvIntDefault("SESSIONS_PAGE_SIZE", defaultSessionsPageSize),
		StudentsPageSize: getenvIntDefault("STUDENTS_PAGE_SIZE", defaultStudentsPageSize),
		TablePageSize:    getenvIntDefault("TABLE_PAGE_SIZE", defaultTablePageSize),
		Vault: VaultConfig{
			Addr:    strings.TrimSpace(os.Getenv("VAULT_ADDR")),
			Token:   strings.TrimSpace(os.Getenv("VAULT_TOKEN")),
			KVMount: getenvDefault("VAULT_KV_MOUNT", defaultVaultKVMount),
			KVPath:  strings.TrimSpace(os.Getenv("VAULT_KV_PATH")),
		},
	}

	if cfg.BackendURL != "" {
		u, err := url.Parse(cfg.BackendURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return cfg, fmt.Errorf("BACKEND_URL must be an absolute URL, got %q", cfg.BackendURL)
		}
	}
	if opts.RequireBackendURL && cfg.BackendURL == "" {
		return cfg, errors.New("BACKEND_URL is required")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvDurationDefault(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func getenvIntDefault(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func getenvBoolDefault(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	switch v {
	case "1":
		return true
	case "0":
		return false
	default:
		return def
	}
}
