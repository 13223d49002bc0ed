// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mentor

// Input is the text-input control the controller reads from and clears.
// *textinput.Model from bubbles satisfies it.
type Input interface {
	Value() string
	SetValue(string)
	Reset()
}

// Buffer is a plain Input for front ends without a widget.
type Buffer struct {
	value string
}

// Value returns the buffered text.
func (b *Buffer) Value() string { return b.value }

// SetValue replaces the buffered text.
func (b *Buffer) SetValue(s string) { b.value = s }

// Reset clears the buffer.
func (b *Buffer) Reset() { b.value = "" }
