/*
Copyright 2022 The KServe Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package errortypes defines the error categories shared by the runners,
// the serving clients and the validator.
package errortypes

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
)

// Error categories of a validation round. Runners and clients wrap these so
// the orchestrator can decide whether a failure is worth retrying.
var (
	// ErrIllegalState marks a programming error, e.g. starting a runner
	// twice. Never retried.
	ErrIllegalState = errors.New("illegal state")
	// ErrDeadlineExceeded marks a round that ran out of loading-time
	// budget. Retried.
	ErrDeadlineExceeded = errors.New("deadline exceeded")
	// ErrJobAborted marks a model server that died or disappeared.
	// Retried.
	ErrJobAborted = errors.New("job aborted")
	// ErrValidationFailed marks a model server that answered sample
	// requests incorrectly. Never retried; the model is not blessed.
	ErrValidationFailed = errors.New("validation failed")
)

func IllegalState(format string, args ...interface{}) error {
	return pkgerrors.Wrapf(ErrIllegalState, format, args...)
}

func DeadlineExceeded(format string, args ...interface{}) error {
	return pkgerrors.Wrapf(ErrDeadlineExceeded, format, args...)
}

func JobAborted(format string, args ...interface{}) error {
	return pkgerrors.Wrapf(ErrJobAborted, format, args...)
}

func ValidationFailed(format string, args ...interface{}) error {
	return pkgerrors.Wrapf(ErrValidationFailed, format, args...)
}

// Transient reports whether a failed round may succeed if tried again.
func Transient(err error) bool {
	return errors.Is(err, ErrDeadlineExceeded) || errors.Is(err, ErrJobAborted)
}
