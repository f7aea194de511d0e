package signet

import (
	"errors"

	spaceerrors "github.com/spacemonkeygo/errors"

	"github.com/AnatoleLucet/signet/internal"
)

// grouping, do not instantiate
var Error *spaceerrors.ErrorClass = spaceerrors.NewClass("SignetError")

// LoadError is raised when a model file is missing, corrupt or incompatible.
// The previously loaded model, if any, stays in use.
var LoadError *spaceerrors.ErrorClass = Error.NewClass("LoadError")

// ModelInvocationError is raised when the model fails during Forward, or when
// no model is loaded. Evaluations are never retried.
var ModelInvocationError *spaceerrors.ErrorClass = Error.NewClass("ModelInvocationError")

// UnknownOutputSignal is raised when an output name was never registered.
var UnknownOutputSignal *spaceerrors.ErrorClass = Error.NewClass("UnknownOutputSignal")

/*
	MalformedModelResult is raised when the shape of a model result disagrees with
	the declared outputs: several outputs but no tuple, a tuple that is too short,
	one output but no single tensor, or an element that is not one dimensional.

	This is a configuration mismatch between the registered outputs and the model.
*/
var MalformedModelResult *spaceerrors.ErrorClass = Error.NewClass("MalformedModelResult")

// InputError is raised when an input source fails or an input was never plugged.
var InputError *spaceerrors.ErrorClass = Error.NewClass("InputError")

// ConfigError is raised on invalid registrations: empty or duplicate names, dependency cycles.
var ConfigError *spaceerrors.ErrorClass = Error.NewClass("ConfigError")

// classify makes sure errors leaving the package carry one of its classes.
func classify(err error) error {
	if err == nil || Error.Contains(err) {
		return err
	}
	if errors.Is(err, internal.ErrCycle) || errors.Is(err, internal.ErrDuplicateName) {
		return ConfigError.Wrap(err)
	}
	return Error.Wrap(err)
}
