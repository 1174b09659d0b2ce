package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	commandValidationCode   = "COMMAND_VALIDATION_FAILED"
	commandContextCanceled  = "COMMAND_CONTEXT_CANCELED"
	commandContextTimeout   = "COMMAND_CONTEXT_TIMEOUT"
	commandContextErrorCode = "COMMAND_CONTEXT_ERROR"
	commandExecuteFailed    = "COMMAND_EXECUTION_FAILED"
)

// ValidationError tags err as a validation failure raised while executing a
// command, after the message itself passed validation.
func ValidationError(err error, code, message string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	if code == "" {
		code = commandValidationCode
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, message).WithTextCode(code)
}

// CommandError tags err as a command failure with a stable text code.
func CommandError(err error, code, message string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	if code == "" {
		code = commandExecuteFailed
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, message).WithTextCode(code)
}

func wrapValidationError(err error) error {
	return ValidationError(err, commandValidationCode, "command validation failed")
}

func wrapContextError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution cancelled").
			WithTextCode(commandContextCanceled)
	case errors.Is(err, context.DeadlineExceeded):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution deadline exceeded").
			WithTextCode(commandContextTimeout)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command context error").
			WithTextCode(commandContextErrorCode)
	}
}

func wrapExecuteError(err error) error {
	if isContextError(err) {
		return wrapContextError(err)
	}
	return CommandError(err, commandExecuteFailed, "command execution failed")
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
