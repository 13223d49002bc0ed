// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat is the bubbletea front end of the mentari chat session.

The Model owns the widgets (a textinput for the message box, a viewport
for the transcript, a spinner while replies are pending) and delegates all
chat semantics to a mentor.Controller. Commands returned by the controller
run off the UI goroutine; their ReplyMsg and ReflectionMsg results come
back through Update and are applied there.

# Keys

	Enter        send the message, or activate the focused card action
	Tab/S-Tab    move focus between card actions and the input
	C-r          ask for a reflection
	PgUp/PgDn    scroll the transcript
	F1           toggle help
	Esc/C-c      quit

The textinput satisfies mentor.Input directly, so the controller reads and
clears the same buffer the player types into.
*/
package chat
