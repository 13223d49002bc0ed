// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"

	"github.com/JDLewis4313/genius-edtech/internal/config"
	"github.com/JDLewis4313/genius-edtech/internal/export"
	"github.com/JDLewis4313/genius-edtech/internal/mentari"
	"github.com/JDLewis4313/genius-edtech/internal/storage"
)

// Exit codes.
const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitUsageError    = 2
	ExitConfigError   = 3
	ExitNetworkError  = 5
	ExitNotFoundError = 7
	ExitTimeoutError  = 8
)

// errNoReply is returned by one-shot commands when the service could not
// be reached or answered with something unreadable. The details are in the
// log; the player only sees the fallback line.
var errNoReply = errors.New("mentari did not reply")

// UsageError marks a command invoked with bad arguments.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string { return e.Message }

func usageErrorf(format string, args ...any) error {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usage *UsageError
	var cfgErrs config.ValidateErrors
	var cfgErr config.ValidationError
	switch {
	case errors.As(err, &usage):
		return ExitUsageError
	case errors.As(err, &cfgErrs), errors.As(err, &cfgErr):
		return ExitConfigError
	case errors.Is(err, storage.ErrTranscriptNotFound):
		return ExitNotFoundError
	case errors.Is(err, export.ErrEmptyTranscript):
		return ExitNotFoundError
	case mentari.IsTimeout(err):
		return ExitTimeoutError
	case mentari.IsConnection(err), errors.Is(err, errNoReply):
		return ExitNetworkError
	}
	return ExitGeneralError
}
