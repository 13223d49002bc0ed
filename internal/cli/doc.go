// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package cli implements the mentari command line.

# Commands

	mentari                     full-screen chat (line mode when not a TTY)
	mentari chat                line-mode chat with history and editing
	mentari ask <message>       send one message and print the reply
	mentari reflect             print one reflection scene
	mentari history ...         list, show, export and delete saved transcripts
	mentari config ...          show, get, set, init and watch the config file
	mentari serve               run the local development stub of the service
	mentari version             print build information

Global flags:

	--config FILE     use FILE instead of ~/.mentari/config.toml
	--base-url URL    talk to the service at URL
	--no-archive      do not save the transcript on exit
	-v, --verbose     debug logging

Commands return errors rather than printing them; Execute prints the error
once and maps it to an exit code (see ExitCode).

Interactive sessions log to ~/.mentari/mentari.log because the terminal
belongs to the conversation. Everything else logs to stderr.
*/
package cli
