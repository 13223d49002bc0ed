// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"fmt"
	"strings"
)

// Default query values for GET /mentari/random_appearance.
const (
	DefaultCharacterName = "Student"
	DefaultAction        = "reflecting"
)

var appearanceScenes = []string{
	"%s is %s by the window, notebook open to a half-finished periodic table.",
	"%s sits under the old oak tree, %s on today's lesson.",
	"%s pauses between problems, %s quietly with a cup of tea.",
	"%s is %s in the library, surrounded by flashcards.",
	"%s leans back from the desk, %s as the sun sets over the lab.",
	"%s doodles atoms in the margin while %s.",
}

// Appearance returns a short scene describing name doing action.
func (b *Brain) Appearance(name, action string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultCharacterName
	}
	action = strings.TrimSpace(action)
	if action == "" {
		action = DefaultAction
	}

	b.mu.Lock()
	scene := appearanceScenes[b.rng.IntN(len(appearanceScenes))]
	b.mu.Unlock()

	return fmt.Sprintf(scene, name, action)
}
