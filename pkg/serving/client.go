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

// Package serving knows the model server binaries the validator can launch
// and how to talk to them once they are running.
package serving

import (
	"context"
	"time"
)

// RequestMethod is the serving method a sample request exercises.
type RequestMethod string

const (
	MethodClassify RequestMethod = "classify"
	MethodRegress  RequestMethod = "regress"
)

// Request is one sample request ready to be replayed against a model
// server.
type Request struct {
	Method RequestMethod
	// Body is the serialized request payload
	Body []byte
}

// ModelServerClient talks to a running model server on behalf of the
// validator.
type ModelServerClient interface {
	// WaitUntilModelAvailable blocks until the model reports the available
	// state, the deadline passes (ErrDeadlineExceeded), or the model
	// reaches a terminal state (ErrJobAborted).
	WaitUntilModelAvailable(ctx context.Context, deadline time.Time) error
	// SendRequests replays the given requests in order. The first failed
	// request fails the whole batch with ErrValidationFailed.
	SendRequests(ctx context.Context, requests []Request) error
}
