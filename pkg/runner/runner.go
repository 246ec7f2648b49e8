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

// Package runner launches model servers on a serving platform and tracks
// their lifecycle for the duration of a validation round.
package runner

import (
	"context"
	"net"
	"time"
)

// ModelServerRunner drives one model server instance. Implementations are
// not safe for concurrent use; a validation round owns its runner.
type ModelServerRunner interface {
	// Start launches the model server. Calling Start twice is an illegal
	// state.
	Start(ctx context.Context) error
	// WaitUntilRunning blocks until the server is running, the deadline
	// passes, or the server reaches a terminal state.
	WaitUntilRunning(ctx context.Context, deadline time.Time) error
	// GetEndpoint returns the host:port the running server listens on.
	// Illegal to call before Start.
	GetEndpoint() (string, error)
	// Stop tears the server down. Stopping an already-gone server is not
	// an error.
	Stop(ctx context.Context) error
}

// FindAvailablePort asks the kernel for a free local TCP port.
func FindAvailablePort() (int, error) {
	listener, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port, nil
}
