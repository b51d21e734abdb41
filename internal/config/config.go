// Copyright (c) 2025 SISINV Project
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for
// inventario-cli.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.inventario/config.toml
//   - ~/.inventario/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete inventario-cli configuration.
type Config struct {
	// Version of the configuration schema.
	Version string `toml:"version" json:"version"`

	// Server holds backend connection settings.
	Server ServerConfig `toml:"server" json:"server"`

	// Session holds inactivity-timeout settings.
	Session SessionConfig `toml:"session" json:"session"`

	// Auth holds authentication classification settings.
	Auth AuthConfig `toml:"auth" json:"auth"`

	// Audit holds the local audit-trail settings.
	Audit AuditConfig `toml:"audit" json:"audit"`

	// UI holds terminal output settings.
	UI UIConfig `toml:"ui" json:"ui"`
}

// ServerConfig contains backend REST API settings.
type ServerConfig struct {
	// BaseURL is the base URL of the inventory API, including the /api prefix.
	BaseURL string `toml:"base_url" json:"base_url"`
	// TimeoutSecs is the per-request timeout in seconds.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// SessionConfig contains inactivity-timeout settings.
//
// The warning deadline must come strictly before the logout deadline:
// WarningAfterMinutes < LogoutAfterMinutes is enforced by Validate and is
// treated as a programming error, not a recoverable runtime condition.
type SessionConfig struct {
	// WarningAfterMinutes is minutes of inactivity before the warning shows.
	WarningAfterMinutes int `toml:"warning_after_minutes" json:"warning_after_minutes"`
	// LogoutAfterMinutes is minutes of inactivity before forced logout.
	LogoutAfterMinutes int `toml:"logout_after_minutes" json:"logout_after_minutes"`
}

// AuthConfig contains authentication and response-classification settings.
type AuthConfig struct {
	// PrivilegedRole is the role exempt from maintenance-mode redirects.
	PrivilegedRole string `toml:"privileged_role" json:"privileged_role"`
	// DisabledAccountMarker is the substring (matched case-insensitively)
	// that identifies a disabled-account 401 in the server's free-text
	// message. The backend does not yet send a structured error code, so
	// the literal message is the contract.
	DisabledAccountMarker string `toml:"disabled_account_marker" json:"disabled_account_marker"`
}

// AuditConfig contains local audit-trail settings.
type AuditConfig struct {
	// Enabled turns the local audit trail on.
	Enabled bool `toml:"enabled" json:"enabled"`
	// DBPath is the sqlite database path (empty = ~/.inventario/audit.db).
	DBPath string `toml:"db_path" json:"db_path"`
	// HMACKey is the hex-encoded key for the audit hash chain. When empty,
	// events are still recorded but the chain is not tamper-evident.
	HMACKey string `toml:"hmac_key" json:"hmac_key"`
}

// UIConfig contains terminal output settings.
type UIConfig struct {
	// ColorMode is "auto", "always", or "never".
	ColorMode string `toml:"color_mode" json:"color_mode"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Server: ServerConfig{
			BaseURL:     "http://localhost:8081/api",
			TimeoutSecs: 30,
		},

		Session: SessionConfig{
			WarningAfterMinutes: 13,
			LogoutAfterMinutes:  15,
		},

		Auth: AuthConfig{
			PrivilegedRole:        "DEV",
			DisabledAccountMarker: "conta desativada",
		},

		Audit: AuditConfig{
			Enabled: true,
			DBPath:  "",
			HMACKey: "",
		},

		UI: UIConfig{
			ColorMode: "auto",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the inventario configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".inventario"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// SessionPath returns the path to the persisted session cookie file.
func SessionPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// Config files hold the audit HMAC key, so they must stay owner-only.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finalize(cfg)
			}
		}
	}

	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finalize(cfg)
			}
		}
	}

	cfg, err = finalize(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// finalize applies env overrides, defaults, and validation in order.
func finalize(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation. Files ending in .json are parsed as JSON, everything else
// as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}
	return finalize(cfg)
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# inventario-cli configuration file")
	fmt.Fprintln(file, "# Generated by inventario-cli - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// Server
	if c.Server.BaseURL != "" {
		if u, err := url.Parse(c.Server.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "server.base_url",
				Message: fmt.Sprintf("invalid URL %q", c.Server.BaseURL),
			})
		}
	}
	if c.Server.TimeoutSecs < 1 || c.Server.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "server.timeout_secs",
			Message: fmt.Sprintf("must be 1-600, got %d", c.Server.TimeoutSecs),
		})
	}

	// Session deadlines. A warning that fires at or after the logout
	// instant can never be shown, so the ordering is rejected outright.
	if c.Session.WarningAfterMinutes < 1 {
		errs = append(errs, ValidationError{
			Field:   "session.warning_after_minutes",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Session.WarningAfterMinutes),
		})
	}
	if c.Session.LogoutAfterMinutes < 1 {
		errs = append(errs, ValidationError{
			Field:   "session.logout_after_minutes",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Session.LogoutAfterMinutes),
		})
	}
	if c.Session.WarningAfterMinutes >= c.Session.LogoutAfterMinutes {
		errs = append(errs, ValidationError{
			Field:   "session.warning_after_minutes",
			Message: fmt.Sprintf("must be less than logout_after_minutes (%d >= %d)",
				c.Session.WarningAfterMinutes, c.Session.LogoutAfterMinutes),
		})
	}

	// Auth
	if c.Auth.PrivilegedRole == "" {
		errs = append(errs, ValidationError{
			Field:   "auth.privileged_role",
			Message: "must not be empty",
		})
	}
	if c.Auth.DisabledAccountMarker == "" {
		errs = append(errs, ValidationError{
			Field:   "auth.disabled_account_marker",
			Message: "must not be empty",
		})
	}

	// UI
	validColorModes := map[string]bool{"auto": true, "always": true, "never": true}
	if !validColorModes[strings.ToLower(c.UI.ColorMode)] {
		errs = append(errs, ValidationError{
			Field:   "ui.color_mode",
			Message: fmt.Sprintf("invalid mode '%s', must be one of: auto, always, never", c.UI.ColorMode),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = defaults.Server.BaseURL
	}
	if c.Server.TimeoutSecs == 0 {
		c.Server.TimeoutSecs = defaults.Server.TimeoutSecs
	}
	if c.Session.WarningAfterMinutes == 0 {
		c.Session.WarningAfterMinutes = defaults.Session.WarningAfterMinutes
	}
	if c.Session.LogoutAfterMinutes == 0 {
		c.Session.LogoutAfterMinutes = defaults.Session.LogoutAfterMinutes
	}
	if c.Auth.PrivilegedRole == "" {
		c.Auth.PrivilegedRole = defaults.Auth.PrivilegedRole
	}
	if c.Auth.DisabledAccountMarker == "" {
		c.Auth.DisabledAccountMarker = defaults.Auth.DisabledAccountMarker
	}
	if c.UI.ColorMode == "" {
		c.UI.ColorMode = defaults.UI.ColorMode
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - INVENTARIO_BASE_URL: overrides server.base_url
//   - INVENTARIO_TIMEOUT_SECS: overrides server.timeout_secs
//   - INVENTARIO_WARNING_MINUTES: overrides session.warning_after_minutes
//   - INVENTARIO_LOGOUT_MINUTES: overrides session.logout_after_minutes
//   - INVENTARIO_PRIVILEGED_ROLE: overrides auth.privileged_role
//   - INVENTARIO_AUDIT: set to "0" or "false" to disable the audit trail
//   - INVENTARIO_AUDIT_HMAC_KEY: overrides audit.hmac_key
//   - INVENTARIO_COLOR: overrides ui.color_mode
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("INVENTARIO_BASE_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("INVENTARIO_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.TimeoutSecs = n
		}
	}
	if v := os.Getenv("INVENTARIO_WARNING_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Session.WarningAfterMinutes = n
		}
	}
	if v := os.Getenv("INVENTARIO_LOGOUT_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Session.LogoutAfterMinutes = n
		}
	}
	if v := os.Getenv("INVENTARIO_PRIVILEGED_ROLE"); v != "" {
		c.Auth.PrivilegedRole = v
	}
	if v := os.Getenv("INVENTARIO_AUDIT"); v != "" {
		c.Audit.Enabled = !(v == "0" || strings.ToLower(v) == "false")
	}
	if v := os.Getenv("INVENTARIO_AUDIT_HMAC_KEY"); v != "" {
		c.Audit.HMACKey = v
	}
	if v := os.Getenv("INVENTARIO_COLOR"); v != "" {
		c.UI.ColorMode = v
	}
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// WarningAfter returns the inactivity-warning offset as a duration.
func (c *Config) WarningAfter() time.Duration {
	return time.Duration(c.Session.WarningAfterMinutes) * time.Minute
}

// LogoutAfter returns the inactivity-logout offset as a duration.
func (c *Config) LogoutAfter() time.Duration {
	return time.Duration(c.Session.LogoutAfterMinutes) * time.Minute
}

// RequestTimeout returns the per-request HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.TimeoutSecs) * time.Second
}

// AuditDBPath returns the configured audit database path, or the default
// ~/.inventario/audit.db when unset.
func (c *Config) AuditDBPath() (string, error) {
	if c.Audit.DBPath != "" {
		return c.Audit.DBPath, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "audit.db"), nil
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation
// (e.g., "session.logout_after_minutes").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.resolve(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation.
func (c *Config) Set(key string, value string) error {
	field, err := c.resolve(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value: %v", err)
		}
		field.SetInt(n)
	case reflect.Bool:
		field.SetBool(value == "1" || strings.EqualFold(value, "true") || strings.EqualFold(value, "yes"))
	default:
		return fmt.Errorf("cannot assign to %s field %s", field.Kind(), key)
	}
	return nil
}

// resolve walks a dot-notation key down the config struct.
func (c *Config) resolve(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to a form
// matchable against Go field names (case-insensitively).
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})
	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"server.base_url",
		"server.timeout_secs",
		"session.warning_after_minutes",
		"session.logout_after_minutes",
		"auth.privileged_role",
		"auth.disabled_account_marker",
		"audit.enabled",
		"audit.db_path",
		"audit.hmac_key",
		"ui.color_mode",
	}
}

// String returns a string representation of the config for debugging.
// The audit HMAC key is redacted so it never lands in logs or terminals.
func (c *Config) String() string {
	safe := *c
	if safe.Audit.HMACKey != "" {
		safe.Audit.HMACKey = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(&safe, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
