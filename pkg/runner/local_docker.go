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

package runner

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	dockerclient "github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/go-connections/nat"
	"github.com/gofrs/uuid/v5"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"go.uber.org/zap"

	"github.com/kserve/infra-validator/pkg/apis/validation/v1alpha1"
	"github.com/kserve/infra-validator/pkg/constants"
	"github.com/kserve/infra-validator/pkg/errortypes"
	"github.com/kserve/infra-validator/pkg/serving"
)

// DockerClient is the slice of the docker API the runner needs. The full
// client satisfies it; tests substitute a fake.
type DockerClient interface {
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig,
		networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
}

// LocalDockerRunner runs the model server as a container on the local
// docker daemon, with the model directory bind-mounted into it.
type LocalDockerRunner struct {
	Docker    DockerClient
	Binary    serving.Binary
	ModelName string
	// ModelDir is the local directory holding the versioned model
	// (e.g. <ModelDir>/1/saved_model.pb)
	ModelDir string
	Log      *zap.SugaredLogger

	// PollInterval between container status checks
	PollInterval time.Duration

	containerID string
	endpoint    string
	started     bool
}

var _ ModelServerRunner = (*LocalDockerRunner)(nil)

// NewLocalDockerRunner builds a runner connected to the daemon described by
// the platform config.
func NewLocalDockerRunner(config *v1alpha1.LocalDockerConfig, binary serving.Binary,
	modelName string, modelDir string, log *zap.SugaredLogger) (*LocalDockerRunner, error) {
	opts := []dockerclient.Opt{}
	if config.ClientBaseURL != "" {
		opts = append(opts, dockerclient.WithHost(config.ClientBaseURL))
	}
	if config.ClientAPIVersion != "" {
		opts = append(opts, dockerclient.WithVersion(config.ClientAPIVersion))
	} else {
		opts = append(opts, dockerclient.WithAPIVersionNegotiation())
	}
	if config.ClientTimeoutSeconds > 0 {
		opts = append(opts, dockerclient.WithTimeout(time.Duration(config.ClientTimeoutSeconds)*time.Second))
	}
	docker, err := dockerclient.NewClientWithOpts(opts...)
	if err != nil {
		return nil, err
	}
	return &LocalDockerRunner{
		Docker:       docker,
		Binary:       binary,
		ModelName:    modelName,
		ModelDir:     modelDir,
		Log:          log,
		PollInterval: time.Second,
	}, nil
}

// Start creates and starts the serving container, publishing the server
// port on a free local port.
func (r *LocalDockerRunner) Start(ctx context.Context) error {
	if r.started {
		return errortypes.IllegalState("you cannot start model server multiple times")
	}
	hostPort, err := FindAvailablePort()
	if err != nil {
		return err
	}

	var env []string
	for key, value := range r.Binary.Env(r.ModelName) {
		env = append(env, key+"="+value)
	}
	containerPort := nat.Port(fmt.Sprintf("%d/tcp", r.Binary.ContainerPort()))
	exposed := nat.PortSet{}
	for _, port := range r.Binary.ExposedPorts() {
		exposed[nat.Port(fmt.Sprintf("%d/tcp", port))] = struct{}{}
	}

	config := &container.Config{
		Image:        r.Binary.Image(),
		Env:          env,
		ExposedPorts: exposed,
	}
	hostConfig := &container.HostConfig{
		PortBindings: nat.PortMap{
			containerPort: []nat.PortBinding{
				{HostIP: "127.0.0.1", HostPort: strconv.Itoa(hostPort)},
			},
		},
		Binds: []string{
			r.ModelDir + ":" + path.Join(constants.ModelBasePath, r.ModelName),
		},
		AutoRemove: true,
	}

	name := fmt.Sprintf("%s-%s", constants.InfraValidatorName, uuid.Must(uuid.NewV4()).String())
	created, err := r.Docker.ContainerCreate(ctx, config, hostConfig, nil, nil, name)
	if err != nil {
		return errortypes.JobAborted("failed to create serving container: %v", err)
	}
	if err := r.Docker.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return errortypes.JobAborted("failed to start serving container %s: %v", created.ID, err)
	}

	r.containerID = created.ID
	r.endpoint = "localhost:" + strconv.Itoa(hostPort)
	r.started = true
	r.Log.Infow("started serving container",
		"image", r.Binary.Image(), "container", created.ID, "endpoint", r.endpoint)
	return nil
}

// GetEndpoint returns localhost:<published port> of the started container.
func (r *LocalDockerRunner) GetEndpoint() (string, error) {
	if !r.started {
		return "", errortypes.IllegalState("container is not started")
	}
	return r.endpoint, nil
}

// WaitUntilRunning polls the container status until it is running. A
// container that disappears or reaches a terminal status aborts the round.
func (r *LocalDockerRunner) WaitUntilRunning(ctx context.Context, deadline time.Time) error {
	if !r.started {
		return errortypes.IllegalState("container is not started")
	}
	for {
		if time.Now().After(deadline) {
			return errortypes.DeadlineExceeded("container %s is not running before deadline", r.containerID)
		}
		info, err := r.Docker.ContainerInspect(ctx, r.containerID)
		if err != nil {
			if errdefs.IsNotFound(err) {
				return errortypes.JobAborted("container %s disappeared", r.containerID)
			}
			return errortypes.JobAborted("failed to inspect container %s: %v", r.containerID, err)
		}
		switch status := info.State.Status; status {
		case "running":
			return nil
		case "created", "restarting":
			// not up yet, keep polling
		default:
			return errortypes.JobAborted("container %s entered unexpected status %q", r.containerID, status)
		}
		select {
		case <-ctx.Done():
			return errortypes.JobAborted("container status polling canceled: %v", ctx.Err())
		case <-time.After(r.PollInterval):
		}
	}
}

// Stop removes the container. The container is created with auto-remove,
// so a not-found answer means it is already gone.
func (r *LocalDockerRunner) Stop(ctx context.Context) error {
	if !r.started {
		return nil
	}
	err := r.Docker.ContainerRemove(ctx, r.containerID, container.RemoveOptions{Force: true})
	if err != nil && !errdefs.IsNotFound(err) {
		return err
	}
	r.Log.Infow("removed serving container", "container", r.containerID)
	return nil
}
