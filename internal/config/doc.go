// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for mentari.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// .env files, environment variable overrides, validation and hot reload.
//
// # Key Types
//
//   - Config: main configuration structure
//   - ServerConfig: where the chat service lives and how to reach it
//   - ChatConfig: controller behaviour (ordering, reflection, retry message)
//   - StorageConfig: transcript archive
//   - StubConfig: the local development server
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (MENTARI_*), including those from ./.env
//   - ~/.mentari/config.toml
//   - ~/.mentari/config.json
//   - Built-in defaults
//
// MENTARI_HOME relocates the ~/.mentari directory.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client, err := mentari.NewClientWithConfig(cfg.ClientConfig())
package config
