// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "MENTARI"

// envOverrides lists the environment variables that override file values.
// Pointer fields stay nil unless the variable is set, so an unset variable
// never clobbers the file.
type envOverrides struct {
	BaseURL        *string        `envconfig:"BASE_URL"`
	Cookies        *string        `envconfig:"COOKIES"`
	Context        *string        `envconfig:"CONTEXT"`
	Timeout        *time.Duration `envconfig:"TIMEOUT"`
	OrderedReplies *bool          `envconfig:"ORDERED_REPLIES"`
	Theme          *string        `envconfig:"THEME"`
	StorageEnabled *bool          `envconfig:"STORAGE_ENABLED"`
	StorageBackend *string        `envconfig:"STORAGE_BACKEND"`
	StorageDir     *string        `envconfig:"STORAGE_DIR"`
	LogLevel       *string        `envconfig:"LOG_LEVEL"`
	LogFile        *string        `envconfig:"LOG_FILE"`
	StubAddr       *string        `envconfig:"STUB_ADDR"`
	StubCSRF       *bool          `envconfig:"STUB_ENFORCE_CSRF"`
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ./.env)
// into the process environment. Variables already set win. Missing files
// are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnvOverrides applies MENTARI_* environment variables:
//   - MENTARI_BASE_URL: overrides server.base_url
//   - MENTARI_COOKIES: overrides server.cookies
//   - MENTARI_CONTEXT: overrides server.context
//   - MENTARI_TIMEOUT: overrides server.timeout ("30s")
//   - MENTARI_ORDERED_REPLIES: overrides chat.ordered_replies
//   - MENTARI_THEME: overrides ui.theme
//   - MENTARI_STORAGE_ENABLED / _BACKEND / _DIR: override storage.*
//   - MENTARI_LOG_LEVEL / MENTARI_LOG_FILE: override log.*
//   - MENTARI_STUB_ADDR / MENTARI_STUB_ENFORCE_CSRF: override stub.*
func (c *Config) ApplyEnvOverrides() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return err
	}

	setString(&c.Server.BaseURL, env.BaseURL)
	setString(&c.Server.Cookies, env.Cookies)
	setString(&c.Server.Context, env.Context)
	if env.Timeout != nil {
		c.Server.Timeout = Duration(*env.Timeout)
	}
	setBool(&c.Chat.OrderedReplies, env.OrderedReplies)
	setString(&c.UI.Theme, env.Theme)
	setBool(&c.Storage.Enabled, env.StorageEnabled)
	setString(&c.Storage.Backend, env.StorageBackend)
	setString(&c.Storage.Dir, env.StorageDir)
	setString(&c.Log.Level, env.LogLevel)
	setString(&c.Log.File, env.LogFile)
	setString(&c.Stub.Addr, env.StubAddr)
	setBool(&c.Stub.EnforceCSRF, env.StubCSRF)
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
