// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server is a development stand-in for the GeNiUS EdTech chat
// service. It answers the same endpoints the client talks to:
//
//   - GET  /ai/chat/                   chat page; sets csrftoken and sessionid
//   - POST /ai/chat/api/               chat replies, quiz flow, stats
//   - GET  /mentari/random_appearance  reflection scenes
//   - GET  /quiz/{slug}/               quiz page targeted by redirects
//   - GET  /health, /metrics
//
// Usage:
//
//	srv := server.New(server.Options{Addr: "127.0.0.1:8000", Logger: logger})
//	err := srv.ListenAndServe(ctx)
package server
