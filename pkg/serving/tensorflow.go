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

package serving

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/kserve/infra-validator/pkg/errortypes"
)

// Model version states reported by the TF Serving model status API.
const (
	tfStateAvailable = "AVAILABLE"
	tfStateEnd       = "END"
)

// TensorFlowServingClient talks to a TF Serving instance over its REST API
// (GET /v1/models/<name> for status, POST /v1/models/<name>:<method> for
// inference).
type TensorFlowServingClient struct {
	HTTPClient *http.Client
	BaseURL    string
	ModelName  string

	// PollInterval between model status checks
	PollInterval time.Duration
}

var _ ModelServerClient = (*TensorFlowServingClient)(nil)

func NewTensorFlowServingClient(endpoint string, modelName string) *TensorFlowServingClient {
	return &TensorFlowServingClient{
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		BaseURL:      "http://" + endpoint,
		ModelName:    modelName,
		PollInterval: time.Second,
	}
}

func (c *TensorFlowServingClient) statusURL() string {
	return fmt.Sprintf("%s/v1/models/%s", c.BaseURL, c.ModelName)
}

func (c *TensorFlowServingClient) methodURL(method RequestMethod) string {
	return fmt.Sprintf("%s/v1/models/%s:%s", c.BaseURL, c.ModelName, method)
}

// WaitUntilModelAvailable polls the model status every PollInterval. A
// server that is not answering yet keeps being polled; a model version in
// the END state aborts the round.
func (c *TensorFlowServingClient) WaitUntilModelAvailable(ctx context.Context, deadline time.Time) error {
	for {
		if time.Now().After(deadline) {
			return errortypes.DeadlineExceeded("model %s is not available before deadline", c.ModelName)
		}
		state, err := c.modelState(ctx)
		if err == nil {
			switch state {
			case tfStateAvailable:
				return nil
			case tfStateEnd:
				return errortypes.JobAborted("model %s version reached the END state", c.ModelName)
			}
		}
		select {
		case <-ctx.Done():
			return errortypes.JobAborted("model status polling canceled: %v", ctx.Err())
		case <-time.After(c.PollInterval):
		}
	}
}

// modelState fetches the state of the first (and in a validation round,
// only) model version.
func (c *TensorFlowServingClient) modelState(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.statusURL(), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model status returned %d: %s", resp.StatusCode, body)
	}
	state := gjson.GetBytes(body, "model_version_status.0.state")
	if !state.Exists() {
		return "", fmt.Errorf("model status has no model_version_status: %s", body)
	}
	return state.String(), nil
}

// SendRequests replays the sample requests. A transport error, a non-200
// status or an error body fails validation.
func (c *TensorFlowServingClient) SendRequests(ctx context.Context, requests []Request) error {
	for i, request := range requests {
		if err := c.send(ctx, request); err != nil {
			return errortypes.ValidationFailed("request %d of %d failed: %v", i+1, len(requests), err)
		}
	}
	return nil
}

func (c *TensorFlowServingClient) send(ctx context.Context, request Request) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.methodURL(request.Method), bytes.NewReader(request.Body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %d: %s", request.Method, resp.StatusCode, body)
	}
	if errMsg := gjson.GetBytes(body, "error"); errMsg.Exists() {
		return fmt.Errorf("%s returned error: %s", request.Method, errMsg.String())
	}
	return nil
}
