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

package validator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kserve/infra-validator/pkg/apis/validation/v1alpha1"
	"github.com/kserve/infra-validator/pkg/downloader"
	"github.com/kserve/infra-validator/pkg/errortypes"
	"github.com/kserve/infra-validator/pkg/runner"
	"github.com/kserve/infra-validator/pkg/serving"
)

type fakeRunner struct {
	started     bool
	stopCount   int
	startErr    error
	runningErrs []error
	waitCount   int
}

var _ runner.ModelServerRunner = (*fakeRunner)(nil)

func (r *fakeRunner) Start(ctx context.Context) error {
	r.started = true
	return r.startErr
}

func (r *fakeRunner) WaitUntilRunning(ctx context.Context, deadline time.Time) error {
	defer func() { r.waitCount++ }()
	if r.waitCount < len(r.runningErrs) {
		return r.runningErrs[r.waitCount]
	}
	return nil
}

func (r *fakeRunner) GetEndpoint() (string, error) {
	return "localhost:8501", nil
}

func (r *fakeRunner) Stop(ctx context.Context) error {
	r.stopCount++
	return nil
}

type fakeClient struct {
	availableErrs []error
	availCount    int
	sendErrs      []error
	sendCount     int
	received      [][]serving.Request
}

var _ serving.ModelServerClient = (*fakeClient)(nil)

func (c *fakeClient) WaitUntilModelAvailable(ctx context.Context, deadline time.Time) error {
	defer func() { c.availCount++ }()
	if c.availCount < len(c.availableErrs) {
		return c.availableErrs[c.availCount]
	}
	return nil
}

func (c *fakeClient) SendRequests(ctx context.Context, requests []serving.Request) error {
	c.received = append(c.received, requests)
	defer func() { c.sendCount++ }()
	if c.sendCount < len(c.sendErrs) {
		return c.sendErrs[c.sendCount]
	}
	return nil
}

type harness struct {
	validator *Validator
	runner    *fakeRunner
	client    *fakeClient
	modelDir  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	modelDir := filepath.Join(t.TempDir(), "chicago-taxi")
	require.NoError(t, os.MkdirAll(filepath.Join(modelDir, "1"), 0o755))

	servingSpec := &v1alpha1.ServingSpec{
		TensorFlowServing: &v1alpha1.TensorFlowServing{Tags: []string{"1.15.0"}},
		LocalDocker:       &v1alpha1.LocalDockerConfig{},
	}
	v, err := NewValidator(Config{
		Serving:    servingSpec,
		Validation: &v1alpha1.ValidationSpec{MaxLoadingTimeSeconds: 10, NumTries: 3},
		Downloader: &downloader.Downloader{ModelDir: t.TempDir(), Logger: zap.NewNop().Sugar()},
		Logger:     zap.NewNop().Sugar(),
	})
	require.NoError(t, err)

	h := &harness{validator: v, runner: &fakeRunner{}, client: &fakeClient{}, modelDir: modelDir}
	v.NewRunner = func(binary serving.Binary, modelName string, modelPath string) (runner.ModelServerRunner, error) {
		return h.runner, nil
	}
	v.NewClient = func(binary serving.Binary, endpoint string, modelName string) serving.ModelServerClient {
		return h.client
	}
	return h
}

func TestValidate_Blessed(t *testing.T) {
	h := newHarness(t)

	blessing, err := h.validator.Validate(context.Background(), h.modelDir)

	require.NoError(t, err)
	assert.True(t, blessing.Blessed())
	assert.Equal(t, "chicago-taxi", blessing.ModelName)
	require.Len(t, blessing.Results, 1)
	assert.Equal(t, "tensorflow/serving:1.15.0", blessing.Results[0].Image)
	assert.Equal(t, 1, blessing.Results[0].Tries)
	assert.Equal(t, 1, h.runner.stopCount)
}

func TestValidate_RetriesTransientFailure(t *testing.T) {
	h := newHarness(t)
	h.client.availableErrs = []error{errortypes.JobAborted("model server exited")}

	blessing, err := h.validator.Validate(context.Background(), h.modelDir)

	require.NoError(t, err)
	assert.True(t, blessing.Blessed())
	assert.Equal(t, 2, blessing.Results[0].Tries)
	// The failed round still tears its server down.
	assert.Equal(t, 2, h.runner.stopCount)
}

func TestValidate_PermanentFailureIsNotRetried(t *testing.T) {
	h := newHarness(t)
	h.validator.Request = &v1alpha1.RequestSpec{
		TensorFlowServing: &v1alpha1.TensorFlowServingRequestSpec{
			RpcKind: v1alpha1.RpcKindClassify,
		},
		SplitName: "eval",
	}
	h.validator.Request.Default()
	h.validator.ExamplesDir = writeExamples(t)
	h.client.sendErrs = []error{errortypes.ValidationFailed("request failed with status 400")}

	blessing, err := h.validator.Validate(context.Background(), h.modelDir)

	require.NoError(t, err)
	assert.False(t, blessing.Blessed())
	assert.Equal(t, 1, blessing.Results[0].Tries)
	assert.Contains(t, blessing.Results[0].Reason, "status 400")
	assert.Equal(t, 1, h.runner.stopCount)
}

func TestValidate_NotBlessedAfterAllTries(t *testing.T) {
	h := newHarness(t)
	h.runner.runningErrs = []error{
		errortypes.DeadlineExceeded("container did not become running"),
		errortypes.DeadlineExceeded("container did not become running"),
		errortypes.DeadlineExceeded("container did not become running"),
	}

	blessing, err := h.validator.Validate(context.Background(), h.modelDir)

	require.NoError(t, err)
	assert.False(t, blessing.Blessed())
	assert.Equal(t, 3, blessing.Results[0].Tries)
	assert.Equal(t, 3, h.runner.stopCount)
}

func TestValidate_SendsSampleRequests(t *testing.T) {
	h := newHarness(t)
	h.validator.Request = &v1alpha1.RequestSpec{
		TensorFlowServing: &v1alpha1.TensorFlowServingRequestSpec{
			RpcKind: v1alpha1.RpcKindClassify,
		},
		SplitName: "eval",
	}
	h.validator.Request.Default()
	h.validator.ExamplesDir = writeExamples(t)

	blessing, err := h.validator.Validate(context.Background(), h.modelDir)

	require.NoError(t, err)
	assert.True(t, blessing.Blessed())
	require.Len(t, h.client.received, 1)
	require.Len(t, h.client.received[0], 1)
	assert.Equal(t, serving.MethodClassify, h.client.received[0][0].Method)
}

func TestValidate_ModelNameOverride(t *testing.T) {
	h := newHarness(t)
	h.validator.Serving.ModelName = "taxi-tips"

	blessing, err := h.validator.Validate(context.Background(), h.modelDir)

	require.NoError(t, err)
	assert.Equal(t, "taxi-tips", blessing.ModelName)
}

func TestValidate_MissingModelFails(t *testing.T) {
	h := newHarness(t)

	_, err := h.validator.Validate(context.Background(), filepath.Join(t.TempDir(), "no-such-model"))

	require.Error(t, err)
	assert.False(t, h.runner.started)
}

func TestNewValidator_KubernetesRequiresClient(t *testing.T) {
	_, err := NewValidator(Config{
		Serving: &v1alpha1.ServingSpec{
			TensorFlowServing: &v1alpha1.TensorFlowServing{Tags: []string{"latest"}},
			Kubernetes:        &v1alpha1.KubernetesConfig{},
		},
		Validation: &v1alpha1.ValidationSpec{},
		Logger:     zap.NewNop().Sugar(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cluster client")
}

func TestResolveModelPath_KubernetesUsesRemoteBase(t *testing.T) {
	h := newHarness(t)
	h.validator.Serving.LocalDocker = nil
	h.validator.Serving.Kubernetes = &v1alpha1.KubernetesConfig{}

	base, err := h.validator.resolveModelPath("chicago-taxi", "gs://model-repo/chicago-taxi")

	require.NoError(t, err)
	assert.Equal(t, "gs://model-repo", base)
}

func TestWriteBlessing(t *testing.T) {
	outputDir := t.TempDir()
	blessing := &Blessing{
		ModelName: "chicago-taxi",
		Results:   []ImageResult{{Image: "tensorflow/serving:1.15.0", Blessed: true, Tries: 1}},
	}

	markerPath, err := WriteBlessing(blessing, outputDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outputDir, "INFRA_BLESSED"), markerPath)

	body, err := os.ReadFile(markerPath)
	require.NoError(t, err)
	assert.Contains(t, string(body), "tensorflow/serving:1.15.0")

	// A later failing run replaces the marker.
	blessing.Results[0].Blessed = false
	markerPath, err = WriteBlessing(blessing, outputDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outputDir, "INFRA_NOT_BLESSED"), markerPath)
	_, err = os.Stat(filepath.Join(outputDir, "INFRA_BLESSED"))
	assert.True(t, os.IsNotExist(err))
}

func writeExamples(t *testing.T) string {
	t.Helper()
	examplesDir := t.TempDir()
	splitDir := filepath.Join(examplesDir, "eval")
	require.NoError(t, os.MkdirAll(splitDir, 0o755))
	record := `{"trip_miles": 5.2, "payment_type": "Cash"}`
	require.NoError(t, os.WriteFile(filepath.Join(splitDir, "part-0.jsonl"), []byte(record+"\n"), 0o644))
	return examplesDir
}
