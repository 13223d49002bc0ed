// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mentari provides the HTTP client for the GeNiUS EdTech Mentari
// chat service.
//
// The service exposes two endpoints this package talks to:
//
//   - POST /ai/chat/api/                  send a chat message
//   - GET  /mentari/random_appearance     fetch a short reflection notice
//
// Chat replies are decoded into explicit variant types at the boundary:
// the polymorphic "response" field becomes a ResponseText resolved to one
// canonical string, and the optional "card" becomes one of QuizQuestion,
// QuizComplete or UnknownCard.
//
// # Usage
//
//	client, err := mentari.NewClientWithConfig(&mentari.ClientConfig{
//	    BaseURL: "http://127.0.0.1:8000",
//	})
//	if err != nil {
//	    return err
//	}
//	_ = client.Prime(ctx) // fetch the chat page so the csrftoken cookie is set
//	resp, err := client.Chat(ctx, "quiz on atoms")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(resp.Text)
//
// The client applies no retries and, unless ClientConfig.Timeout is set, no
// request timeout.
package mentari
