// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/JDLewis4313/genius-edtech/internal/mentari"
	"github.com/JDLewis4313/genius-edtech/internal/util"
)

// CurrentVersion is written into new config files.
const CurrentVersion = "1"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete mentari configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Server  ServerConfig  `toml:"server" json:"server"`
	Chat    ChatConfig    `toml:"chat" json:"chat"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Storage StorageConfig `toml:"storage" json:"storage"`
	Log     LogConfig     `toml:"log" json:"log"`
	Stub    StubConfig    `toml:"stub" json:"stub"`
}

// ServerConfig locates the chat service.
type ServerConfig struct {
	// BaseURL is the root of the GeNiUS EdTech site.
	BaseURL string `toml:"base_url" json:"base_url"`

	// Cookies seeds the cookie jar, document.cookie style.
	Cookies string `toml:"cookies" json:"cookies"`

	// Context is sent with every chat message.
	Context string `toml:"context" json:"context"`

	// Timeout bounds each request; 0 means none.
	Timeout Duration `toml:"timeout" json:"timeout"`
}

// ChatConfig tunes the chat session controller.
type ChatConfig struct {
	// OrderedReplies applies replies in submission order.
	OrderedReplies bool `toml:"ordered_replies" json:"ordered_replies"`

	CharacterName    string `toml:"character_name" json:"character_name"`
	ReflectionAction string `toml:"reflection_action" json:"reflection_action"`
	RetryMessage     string `toml:"retry_message" json:"retry_message"`
}

// UIConfig holds display preferences.
type UIConfig struct {
	Theme    string `toml:"theme" json:"theme"` // auto, dark, light, notty
	Compact  bool   `toml:"compact" json:"compact"`
	Markdown bool   `toml:"markdown" json:"markdown"`
	WordWrap int    `toml:"word_wrap" json:"word_wrap"`
}

// StorageConfig controls the transcript archive.
type StorageConfig struct {
	Enabled        bool   `toml:"enabled" json:"enabled"`
	Backend        string `toml:"backend" json:"backend"` // json or sqlite
	Dir            string `toml:"dir" json:"dir"`
	MaxTranscripts int    `toml:"max_transcripts" json:"max_transcripts"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level    string `toml:"level" json:"level"`
	Encoding string `toml:"encoding" json:"encoding"` // console or json
	File     string `toml:"file" json:"file"`
}

// StubConfig configures the development stub server.
type StubConfig struct {
	Addr        string   `toml:"addr" json:"addr"`
	EnforceCSRF bool     `toml:"enforce_csrf" json:"enforce_csrf"`
	RateLimit   float64  `toml:"rate_limit" json:"rate_limit"` // requests per second per client; 0 disables
	RateBurst   int      `toml:"rate_burst" json:"rate_burst"`
	QuizLength  int      `toml:"quiz_length" json:"quiz_length"`
	IdleTimeout Duration `toml:"idle_timeout" json:"idle_timeout"`
}

// Default returns a new Config with default values.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Server: ServerConfig{
			BaseURL: "http://127.0.0.1:8000",
			Context: mentari.DefaultContext,
		},
		Chat: ChatConfig{
			CharacterName:    "Student",
			ReflectionAction: "reflecting",
			RetryMessage:     "quiz on atoms",
		},
		UI: UIConfig{
			Theme:    "auto",
			Markdown: true,
			WordWrap: 80,
		},
		Storage: StorageConfig{
			Enabled:        true,
			Backend:        "json",
			MaxTranscripts: 200,
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
		},
		Stub: StubConfig{
			Addr:        "127.0.0.1:8000",
			RateLimit:   5,
			RateBurst:   10,
			QuizLength:  5,
			IdleTimeout: Duration(time.Minute),
		},
	}
}

// ClientConfig derives the chat client settings.
func (c *Config) ClientConfig() *mentari.ClientConfig {
	return &mentari.ClientConfig{
		BaseURL: c.Server.BaseURL,
		Context: c.Server.Context,
		Timeout: c.Server.Timeout.Std(),
		Cookies: c.Server.Cookies,
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the mentari configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv("MENTARI_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".mentari"), nil
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

// ActivePath returns the config file Load would read, preferring TOML. The
// TOML path is returned when neither exists.
func ActivePath() (string, error) {
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	jsonPath, err := ConfigPathJSON()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(jsonPath); err == nil {
		return jsonPath, nil
	}
	return tomlPath, nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// StorageDir returns the archive directory, defaulting to
// <config dir>/transcripts.
func (c *Config) StorageDir() (string, error) {
	if c.Storage.Dir != "" {
		return expandHome(c.Storage.Dir)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "transcripts"), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file, then applies .env and
// environment overrides. A missing file is not an error.
func Load() (*Config, error) {
	path, err := ActivePath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		cfg := Default()
		return finish(cfg)
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	var err error
	if strings.HasSuffix(path, ".json") {
		err = LoadJSON(cfg, path)
	} else {
		err = LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
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

// fillDefaults fills in any empty values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	// Server
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = defaults.Server.BaseURL
	}
	if cfg.Server.Context == "" {
		cfg.Server.Context = defaults.Server.Context
	}

	// Chat
	if cfg.Chat.CharacterName == "" {
		cfg.Chat.CharacterName = defaults.Chat.CharacterName
	}
	if cfg.Chat.ReflectionAction == "" {
		cfg.Chat.ReflectionAction = defaults.Chat.ReflectionAction
	}
	if cfg.Chat.RetryMessage == "" {
		cfg.Chat.RetryMessage = defaults.Chat.RetryMessage
	}

	// UI
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}

	// Storage
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = defaults.Storage.Backend
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.Encoding == "" {
		cfg.Log.Encoding = defaults.Log.Encoding
	}

	// Stub
	if cfg.Stub.Addr == "" {
		cfg.Stub.Addr = defaults.Stub.Addr
	}
	if cfg.Stub.QuizLength == 0 {
		cfg.Stub.QuizLength = defaults.Stub.QuizLength
	}
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

// SaveTOML writes the configuration as TOML. The file may hold session
// cookies, so it is written 0600.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# mentari configuration file\n")
	sb.WriteString("# Generated by mentari - edit with care\n\n")
	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(sb.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes the configuration as indented JSON with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0o600); err != nil {
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
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validThemes    = map[string]bool{"auto": true, "dark": true, "light": true, "notty": true}
	validBackends  = map[string]bool{"json": true, "sqlite": true}
	validLevels    = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validEncodings = map[string]bool{"console": true, "json": true}
)

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if u, err := url.Parse(c.Server.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{"server.base_url", "must be an absolute http(s) URL"})
	}
	if c.Server.Timeout < 0 {
		errs = append(errs, ValidationError{"server.timeout", "must not be negative"})
	}
	if !validThemes[c.UI.Theme] {
		errs = append(errs, ValidationError{"ui.theme", "must be one of auto, dark, light, notty"})
	}
	if c.UI.WordWrap < 0 {
		errs = append(errs, ValidationError{"ui.word_wrap", "must not be negative"})
	}
	if !validBackends[c.Storage.Backend] {
		errs = append(errs, ValidationError{"storage.backend", "must be json or sqlite"})
	}
	if c.Storage.MaxTranscripts < 0 {
		errs = append(errs, ValidationError{"storage.max_transcripts", "must not be negative"})
	}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{"log.level", "must be one of debug, info, warn, error"})
	}
	if !validEncodings[c.Log.Encoding] {
		errs = append(errs, ValidationError{"log.encoding", "must be console or json"})
	}
	if c.Stub.RateLimit < 0 {
		errs = append(errs, ValidationError{"stub.rate_limit", "must not be negative"})
	}
	if c.Stub.RateLimit > 0 && c.Stub.RateBurst < 1 {
		errs = append(errs, ValidationError{"stub.rate_burst", "must be at least 1 when rate limiting"})
	}
	if c.Stub.QuizLength < 1 || c.Stub.QuizLength > 26 {
		errs = append(errs, ValidationError{"stub.quiz_length", "must be between 1 and 26"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "server.base_url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation. String values are
// converted to the field's type.
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

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
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

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		if tu, ok := field.Addr().Interface().(encoding.TextUnmarshaler); ok {
			return tu.UnmarshalText([]byte(strVal))
		}
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
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			lower := strings.ToLower(strVal)
			field.SetBool(lower == "1" || lower == "true" || lower == "yes")
			return nil
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
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	var keys []string
	var walk func(t reflect.Type, prefix string)
	walk = func(t reflect.Type, prefix string) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			name := strings.Split(f.Tag.Get("toml"), ",")[0]
			if name == "" || name == "-" {
				continue
			}
			if f.Type.Kind() == reflect.Struct {
				walk(f.Type, prefix+name+".")
				continue
			}
			keys = append(keys, prefix+name)
		}
	}
	walk(reflect.TypeOf(Config{}), "")
	return keys
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the config as JSON with cookies redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Server.Cookies != "" {
		safe.Server.Cookies = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}
