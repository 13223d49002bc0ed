// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes archived transcripts as Markdown, JSON or HTML.
//
// # Usage
//
//	exp, err := export.ForFormat("md", export.DefaultOptions())
//	data, err := exp.Export(rec)
//
// Or straight to a file:
//
//	path, err := export.ExportToFile(rec, exp, opts)
package export
