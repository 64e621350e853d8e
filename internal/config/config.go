// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

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
	"github.com/rs/zerolog"

	"github.com/jeranaias/campus-chat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete campus-chat configuration.
type Config struct {
	Webhook     WebhookConfig     `toml:"webhook" json:"webhook"`
	Storage     StorageConfig     `toml:"storage" json:"storage"`
	Server      ServerConfig      `toml:"server" json:"server"`
	Attachments AttachmentsConfig `toml:"attachments" json:"attachments"`
	Log         LogConfig         `toml:"log" json:"log"`
	UI          UIConfig          `toml:"ui" json:"ui"`
}

// WebhookConfig points at the assistant endpoint.
type WebhookConfig struct {
	// URL receives GET requests with chatInput and sessionId.
	URL string `toml:"url" json:"url"`

	// TimeoutSecs bounds each request. 0 disables the client-side timeout.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// Timeout returns TimeoutSecs as a duration.
func (w WebhookConfig) Timeout() time.Duration {
	return time.Duration(w.TimeoutSecs) * time.Second
}

// StorageConfig selects where conversations and study sessions live.
type StorageConfig struct {
	// Backend is one of file, sqlite, memory.
	Backend string `toml:"backend" json:"backend"`

	// DataDir holds the JSON files or the SQLite database.
	// Default: ~/.campuschat/data
	DataDir string `toml:"data_dir" json:"data_dir"`
}

// ServerConfig configures campuschat serve.
type ServerConfig struct {
	Addr            string   `toml:"addr" json:"addr"`
	CORSOrigins     []string `toml:"cors_origins" json:"cors_origins"`
	RateLimitPerMin int      `toml:"rate_limit_per_min" json:"rate_limit_per_min"`
}

// AttachmentsConfig limits file intake.
type AttachmentsConfig struct {
	MaxBytes int64 `toml:"max_bytes" json:"max_bytes"`
}

// LogConfig configures the zerolog logger.
type LogConfig struct {
	// Level is a zerolog level name (debug, info, warn, error).
	Level string `toml:"level" json:"level"`

	// Pretty forces console output even when stderr is not a terminal.
	Pretty bool `toml:"pretty" json:"pretty"`

	// File additionally writes plain-text logs to a rotated file.
	File string `toml:"file" json:"file"`
}

// UIConfig tunes the interactive chat.
type UIConfig struct {
	SpeakReplies   bool   `toml:"speak_replies" json:"speak_replies"`
	RenderMarkdown bool   `toml:"render_markdown" json:"render_markdown"`
	DefaultCourse  string `toml:"default_course" json:"default_course"`
}

// Storage backends accepted by storage.backend.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// DefaultAttachmentBytes is the default per-file attachment limit.
const DefaultAttachmentBytes int64 = 10 * 1024 * 1024

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Webhook: WebhookConfig{
			URL:         "",
			TimeoutSecs: 0,
		},
		Storage: StorageConfig{
			Backend: BackendFile,
			DataDir: "",
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			CORSOrigins:     []string{"http://localhost:3000"},
			RateLimitPerMin: 60,
		},
		Attachments: AttachmentsConfig{
			MaxBytes: DefaultAttachmentBytes,
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: false,
		},
		UI: UIConfig{
			SpeakReplies:   false,
			RenderMarkdown: true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the campus-chat configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv("CAMPUSCHAT_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".campuschat"), nil
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

// DataDir returns storage.data_dir, or <config dir>/data when unset.
func (c *Config) DataDir() (string, error) {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the config file, trying TOML first and then JSON, and falls
// back to defaults. Environment overrides are applied last. A file that
// fails to parse is reported alongside the defaults.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	for _, candidate := range []struct {
		path func() (string, error)
		load func(*Config, string) error
		kind string
	}{
		{ConfigPathTOML, LoadTOML, "TOML"},
		{ConfigPathJSON, LoadJSON, "JSON"},
	} {
		path, err := candidate.path()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		fileCfg := Default()
		if err := candidate.load(fileCfg, path); err != nil {
			loadErr = fmt.Errorf("failed to load %s config: %w", candidate.kind, err)
			continue
		}
		cfg = fileCfg
		loadErr = nil
		break
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, loadErr
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads a specific file with env overrides and validation.
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

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg atomically as TOML with a header comment.
func SaveTOML(cfg *Config, path string) error {
	var sb strings.Builder
	sb.WriteString("# campus-chat configuration file\n")
	sb.WriteString("# Generated by campuschat - edit with care\n\n")

	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, []byte(sb.String()), 0600, 0755); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes cfg atomically as indented JSON.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, data, 0600, 0755); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
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

// Validate returns ValidateErrors listing every invalid field, or nil.
// An empty webhook URL is valid; sends then fail with a visible notice.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Webhook.URL != "" {
		u, err := url.Parse(c.Webhook.URL)
		switch {
		case err != nil:
			errs = append(errs, ValidationError{Field: "webhook.url", Message: fmt.Sprintf("invalid URL: %v", err)})
		case u.Scheme != "http" && u.Scheme != "https":
			errs = append(errs, ValidationError{Field: "webhook.url", Message: fmt.Sprintf("unsupported scheme '%s', must be http or https", u.Scheme)})
		case u.Host == "":
			errs = append(errs, ValidationError{Field: "webhook.url", Message: "missing host"})
		}
	}
	if c.Webhook.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "webhook.timeout_secs", Message: "cannot be negative"})
	}

	validBackends := map[string]bool{BackendFile: true, BackendSQLite: true, BackendMemory: true}
	if !validBackends[strings.ToLower(c.Storage.Backend)] {
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, sqlite, memory", c.Storage.Backend),
		})
	}

	if c.Server.Addr == "" {
		errs = append(errs, ValidationError{Field: "server.addr", Message: "cannot be empty"})
	}
	if c.Server.RateLimitPerMin < 0 {
		errs = append(errs, ValidationError{Field: "server.rate_limit_per_min", Message: "cannot be negative"})
	}

	if c.Attachments.MaxBytes <= 0 {
		errs = append(errs, ValidationError{Field: "attachments.max_bytes", Message: "must be positive"})
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil || c.Log.Level == "" {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: trace, debug, info, warn, error", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values that have no meaningful zero.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	c.Storage.Backend = strings.ToLower(c.Storage.Backend)
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Attachments.MaxBytes == 0 {
		c.Attachments.MaxBytes = d.Attachments.MaxBytes
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variables on top of file values:
//   - CAMPUSCHAT_WEBHOOK_URL: overrides webhook.url
//   - CAMPUSCHAT_DATA_DIR: overrides storage.data_dir
//   - CAMPUSCHAT_STORAGE: overrides storage.backend
//   - CAMPUSCHAT_ADDR: overrides server.addr
//   - CAMPUSCHAT_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("CAMPUSCHAT_WEBHOOK_URL"); v != "" {
		c.Webhook.URL = v
	}
	if v := os.Getenv("CAMPUSCHAT_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("CAMPUSCHAT_STORAGE"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("CAMPUSCHAT_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("CAMPUSCHAT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a value by dot notation (e.g. "webhook.url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set assigns a value by dot notation. String input is converted to the
// field type; comma-separated strings fill list fields.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
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

// normalizeFieldName turns snake_case or kebab-case into a Go field name.
// "cors_origins" becomes "CorsOrigins", which matches CORSOrigins
// case-insensitively.
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

func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			lower := strings.ToLower(strVal)
			field.SetBool(lower == "1" || lower == "true" || lower == "yes")
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				var items []string
				for _, item := range strings.Split(strVal, ",") {
					if item = strings.TrimSpace(item); item != "" {
						items = append(items, item)
					}
				}
				field.Set(reflect.ValueOf(items))
				return nil
			}
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns every configuration key in dot notation.
func GetAllKeys() []string {
	return []string{
		"webhook.url",
		"webhook.timeout_secs",
		"storage.backend",
		"storage.data_dir",
		"server.addr",
		"server.cors_origins",
		"server.rate_limit_per_min",
		"attachments.max_bytes",
		"log.level",
		"log.pretty",
		"log.file",
		"ui.speak_replies",
		"ui.render_markdown",
		"ui.default_course",
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Server.CORSOrigins != nil {
		clone.Server.CORSOrigins = append([]string(nil), c.Server.CORSOrigins...)
	}
	return &clone
}

// String renders the config as JSON with the webhook query string redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if u, err := url.Parse(safe.Webhook.URL); err == nil && u.RawQuery != "" {
		u.RawQuery = "REDACTED"
		safe.Webhook.URL = u.String()
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
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

// Global returns the process-wide configuration, loading it on first use.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal replaces the global configuration.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting clears the global config so the next Global call
// loads again.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
