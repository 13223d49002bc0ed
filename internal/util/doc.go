// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across mentari: crash-safe file
// writes for the config and archive, and display-width aware string helpers
// for the terminal views.
//
//	// Truncate a transcript preview to fit a list column
//	preview := util.TruncateWidth(text, 40)
//
//	// Write an archived transcript atomically
//	err := util.AtomicWriteFile(path, data, 0o600)
package util
