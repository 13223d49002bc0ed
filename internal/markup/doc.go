// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markup converts the guide's HTML reply fragments into markdown
// and renders markdown for the terminal with glamour.
package markup
