package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile          = ".env"
	defaultPort             = "8080"
	defaultReadTimeout      = 15 * time.Second
	defaultWriteTimeout     = 30 * time.Second
	defaultIdleTimeout      = 120 * time.Second
	defaultOrdersCollection = "orders"
	defaultManifestPath     = "assets-manifest.json"
	defaultAssetsDir        = "public/products"
	defaultSessionCookie    = "felpe_admin_session"
	defaultSessionTTL       = 12 * time.Hour
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Firebase  FirebaseConfig
	Firestore FirestoreConfig
	Catalog   CatalogConfig
	Session   SessionConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// FirebaseConfig stores Firebase project settings. WebAPIKey is the browser
// API key used for the Identity Toolkit password sign-in endpoint.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
	WebAPIKey       string
}

// FirestoreConfig stores database parameters.
type FirestoreConfig struct {
	ProjectID        string
	EmulatorHost     string
	OrdersCollection string
}

// CatalogConfig locates the generated asset manifest and the image directory
// served under /products/.
type CatalogConfig struct {
	ManifestPath string
	AssetsDir    string
}

// SessionConfig holds the admin session cookie parameters. HashKey and
// BlockKey are hex or raw strings fed to securecookie.
type SessionConfig struct {
	CookieName string
	HashKey    string
	BlockKey   string
	TTL        time.Duration
	Secure     bool
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults, .env overrides,
// and environment variables. Precedence is dotenv < OS env < explicit env map.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}

	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "FELPE_SERVER_PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "FELPE_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "FELPE_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "FELPE_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Firebase: FirebaseConfig{
			ProjectID:       stringWithDefault(lookup, "FELPE_FIREBASE_PROJECT_ID", ""),
			CredentialsFile: stringWithDefault(lookup, "FELPE_FIREBASE_CREDENTIALS_FILE", ""),
			WebAPIKey:       stringWithDefault(lookup, "FELPE_FIREBASE_WEB_API_KEY", ""),
		},
		Firestore: FirestoreConfig{
			ProjectID:        stringWithDefault(lookup, "FELPE_FIRESTORE_PROJECT_ID", ""),
			EmulatorHost:     stringWithDefault(lookup, "FELPE_FIRESTORE_EMULATOR_HOST", ""),
			OrdersCollection: stringWithDefault(lookup, "FELPE_FIRESTORE_ORDERS_COLLECTION", defaultOrdersCollection),
		},
		Catalog: CatalogConfig{
			ManifestPath: stringWithDefault(lookup, "FELPE_CATALOG_MANIFEST_PATH", defaultManifestPath),
			AssetsDir:    stringWithDefault(lookup, "FELPE_CATALOG_ASSETS_DIR", defaultAssetsDir),
		},
		Session: SessionConfig{
			CookieName: stringWithDefault(lookup, "FELPE_SESSION_COOKIE_NAME", defaultSessionCookie),
			HashKey:    stringWithDefault(lookup, "FELPE_SESSION_HASH_KEY", ""),
			BlockKey:   stringWithDefault(lookup, "FELPE_SESSION_BLOCK_KEY", ""),
			TTL:        durationWithDefault(lookup, "FELPE_SESSION_TTL", defaultSessionTTL),
			Secure:     boolWithDefault(lookup, "FELPE_SESSION_SECURE", true),
		},
	}

	// Firestore project defaults to Firebase project when unspecified.
	if cfg.Firestore.ProjectID == "" {
		cfg.Firestore.ProjectID = cfg.Firebase.ProjectID
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if cfg.Firebase.ProjectID == "" {
		missing = append(missing, "Firebase.ProjectID")
	}
	if cfg.Firebase.WebAPIKey == "" {
		missing = append(missing, "Firebase.WebAPIKey")
	}
	if cfg.Firestore.ProjectID == "" {
		missing = append(missing, "Firestore.ProjectID")
	}
	if strings.TrimSpace(cfg.Firestore.OrdersCollection) == "" {
		missing = append(missing, "Firestore.OrdersCollection")
	}
	if strings.TrimSpace(cfg.Catalog.ManifestPath) == "" {
		missing = append(missing, "Catalog.ManifestPath")
	}
	if strings.TrimSpace(cfg.Catalog.AssetsDir) == "" {
		missing = append(missing, "Catalog.AssetsDir")
	}
	if !validKeyLength(cfg.Session.HashKey, 32, 64) {
		missing = append(missing, "Session.HashKey")
	}
	if cfg.Session.BlockKey != "" && !validKeyLength(cfg.Session.BlockKey, 16, 24, 32) {
		missing = append(missing, "Session.BlockKey")
	}
	if cfg.Session.TTL <= 0 {
		missing = append(missing, "Session.TTL")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func validKeyLength(key string, lengths ...int) bool {
	for _, l := range lengths {
		if len(key) == l {
			return true
		}
	}
	return false
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	if _, err := os.Stat(absPath); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	values, err := godotenv.Read(absPath)
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
