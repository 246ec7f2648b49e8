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

// Package validator runs the infra validation rounds: launch the model
// server, wait for the model to load, replay sample requests, and bless or
// reject the model.
package validator

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
	"k8s.io/client-go/kubernetes"

	"github.com/kserve/infra-validator/pkg/apis/validation/v1alpha1"
	"github.com/kserve/infra-validator/pkg/downloader"
	"github.com/kserve/infra-validator/pkg/errortypes"
	"github.com/kserve/infra-validator/pkg/requests"
	"github.com/kserve/infra-validator/pkg/runner"
	"github.com/kserve/infra-validator/pkg/serving"
)

// RunnerFactory builds one runner per validation round. modelPath is the
// local model directory for the docker platform and the remote model base
// path for the kubernetes platform.
type RunnerFactory func(binary serving.Binary, modelName string, modelPath string) (runner.ModelServerRunner, error)

type Validator struct {
	Serving    *v1alpha1.ServingSpec
	Validation *v1alpha1.ValidationSpec
	// Request is optional; without it models are only load-tested.
	Request *v1alpha1.RequestSpec

	Downloader  *downloader.Downloader
	ExamplesDir string
	Logger      *zap.SugaredLogger

	NewRunner RunnerFactory
	// NewClient overrides binary.MakeClient when set.
	NewClient func(binary serving.Binary, endpoint string, modelName string) serving.ModelServerClient
}

// Config carries everything needed to build a Validator with the default
// runner factory.
type Config struct {
	Serving     *v1alpha1.ServingSpec
	Validation  *v1alpha1.ValidationSpec
	Request     *v1alpha1.RequestSpec
	Downloader  *downloader.Downloader
	ExamplesDir string
	// KubeClient is required only for the kubernetes serving platform.
	KubeClient kubernetes.Interface
	Logger     *zap.SugaredLogger
}

// NewValidator defaults and validates the specs and wires the runner
// factory for the configured serving platform.
func NewValidator(config Config) (*Validator, error) {
	config.Serving.Default()
	if err := config.Serving.Validate(); err != nil {
		return nil, err
	}
	config.Validation.Default()
	if err := config.Validation.Validate(); err != nil {
		return nil, err
	}
	if config.Request != nil {
		config.Request.Default()
		if err := config.Request.Validate(); err != nil {
			return nil, err
		}
	}
	if config.Serving.Kubernetes != nil && config.KubeClient == nil {
		return nil, fmt.Errorf("kubernetes serving platform requires a cluster client")
	}

	v := &Validator{
		Serving:     config.Serving,
		Validation:  config.Validation,
		Request:     config.Request,
		Downloader:  config.Downloader,
		ExamplesDir: config.ExamplesDir,
		Logger:      config.Logger,
	}
	v.NewRunner = func(binary serving.Binary, modelName string, modelPath string) (runner.ModelServerRunner, error) {
		if config.Serving.LocalDocker != nil {
			return runner.NewLocalDockerRunner(config.Serving.LocalDocker, binary, modelName, modelPath, config.Logger)
		}
		return &runner.KubernetesRunner{
			Client:        config.KubeClient,
			Config:        config.Serving.Kubernetes,
			Binary:        binary,
			ModelName:     modelName,
			ModelBasePath: modelPath,
			Log:           config.Logger,
		}, nil
	}
	return v, nil
}

// Validate runs the complete validation of one model against every
// configured serving image and returns the blessing verdict. An error is
// returned only for configuration problems; server-side failures are
// reported through the blessing.
func (v *Validator) Validate(ctx context.Context, modelURI string) (*Blessing, error) {
	modelName := v.Serving.ModelName
	if modelName == "" {
		modelName = path.Base(strings.TrimSuffix(modelURI, "/"))
	}

	modelPath, err := v.resolveModelPath(modelName, modelURI)
	if err != nil {
		return nil, err
	}

	var sampleRequests []serving.Request
	if v.Request != nil {
		builder := &requests.Builder{Spec: v.Request, ExamplesDir: v.ExamplesDir}
		sampleRequests, err = builder.Build()
		if err != nil {
			return nil, err
		}
	}

	binaries, err := serving.ResolveBinaries(v.Serving)
	if err != nil {
		return nil, err
	}

	blessing := &Blessing{ModelName: modelName}
	for _, binary := range binaries {
		result := v.validateImage(ctx, binary, modelName, modelPath, sampleRequests)
		blessing.Results = append(blessing.Results, result)
	}
	return blessing, nil
}

// resolveModelPath fetches the model locally for the docker platform. On
// kubernetes the serving pod reads the model straight from its remote
// location, so the base path of the storage URI is used instead.
func (v *Validator) resolveModelPath(modelName string, modelURI string) (string, error) {
	if v.Serving.Kubernetes != nil {
		base := strings.TrimSuffix(modelURI, "/")
		index := strings.LastIndex(base, "/")
		if index <= 0 {
			return "", fmt.Errorf("model uri %s has no base path to serve from", modelURI)
		}
		return base[:index], nil
	}
	return v.Downloader.Fetch(modelName, modelURI)
}

func (v *Validator) validateImage(ctx context.Context, binary serving.Binary,
	modelName string, modelPath string, sampleRequests []serving.Request) ImageResult {
	result := ImageResult{Image: binary.Image()}
	numTries := int(v.Validation.NumTries)

	for try := 1; try <= numTries; try++ {
		result.Tries = try
		err := v.validateOnce(ctx, binary, modelName, modelPath, sampleRequests)
		if err == nil {
			result.Blessed = true
			v.Logger.Infow("image passed infra validation",
				"image", binary.Image(), "model", modelName, "tries", try)
			return result
		}
		result.Reason = err.Error()
		if !errortypes.Transient(err) {
			v.Logger.Errorw("image failed infra validation",
				"image", binary.Image(), "model", modelName, "error", err)
			return result
		}
		v.Logger.Warnw("validation round failed, retrying",
			"image", binary.Image(), "model", modelName, "try", try, "error", err)
	}
	v.Logger.Errorw("image failed infra validation after all tries",
		"image", binary.Image(), "model", modelName, "tries", numTries)
	return result
}

// validateOnce is one full round: start the server, wait for it and the
// model, then replay the sample requests. The runner is always stopped.
func (v *Validator) validateOnce(ctx context.Context, binary serving.Binary,
	modelName string, modelPath string, sampleRequests []serving.Request) (err error) {
	deadline := time.Now().Add(time.Duration(v.Validation.MaxLoadingTimeSeconds) * time.Second)

	modelRunner, err := v.NewRunner(binary, modelName, modelPath)
	if err != nil {
		return err
	}
	defer func() {
		// Use a fresh context so teardown still happens when ctx is done.
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if stopErr := modelRunner.Stop(stopCtx); stopErr != nil && err == nil {
			err = stopErr
		}
	}()

	if err := modelRunner.Start(ctx); err != nil {
		return err
	}
	if err := modelRunner.WaitUntilRunning(ctx, deadline); err != nil {
		return err
	}
	endpoint, err := modelRunner.GetEndpoint()
	if err != nil {
		return err
	}

	makeClient := v.NewClient
	if makeClient == nil {
		makeClient = func(binary serving.Binary, endpoint string, modelName string) serving.ModelServerClient {
			return binary.MakeClient(endpoint, modelName)
		}
	}
	client := makeClient(binary, endpoint, modelName)
	if err := client.WaitUntilModelAvailable(ctx, deadline); err != nil {
		return err
	}
	if len(sampleRequests) > 0 {
		if err := client.SendRequests(ctx, sampleRequests); err != nil {
			return err
		}
	}
	return nil
}
