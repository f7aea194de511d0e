package main

import (
	"github.com/spacemonkeygo/errors"

	"github.com/AnatoleLucet/signet"
)

type ExitCode byte

const (
	ExitSuccess = ExitCode(0)
	ExitBadArgs = ExitCode(1)
	ExitPanic   = ExitCode(2) // same code as an unhandled panic
	ExitUser    = ExitCode(3) // missing files, unknown models, store failures
	ExitModel   = ExitCode(10)
)

var exitCodeKey = errors.GenSym()

/*
	CLI errors are formatted for the user and printed without stack traces.

	Anything the user can fix (bad flags, an unreadable run file, a missing
	model) should be one. Failures while the network runs keep their signet
	class and exit with ExitModel.
*/
var Error *errors.ErrorClass = errors.NewClass("CLIError")

func SetExitCode(code ExitCode) errors.ErrorOption {
	return errors.SetData(exitCodeKey, code)
}

func exitCodeFor(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	if code, ok := errors.GetData(err, exitCodeKey).(ExitCode); ok {
		return code
	}

	switch {
	case signet.ConfigError.Contains(err):
		return ExitBadArgs
	case signet.LoadError.Contains(err):
		return ExitUser
	case signet.Error.Contains(err):
		return ExitModel
	default:
		return ExitUser
	}
}
