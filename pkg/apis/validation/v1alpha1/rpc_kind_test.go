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

package v1alpha1

import (
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func TestRpcKindUnmarshal(t *testing.T) {
	scenarios := map[string]struct {
		data     string
		expected TensorFlowServingRpcKind
		wantErr  bool
	}{
		"ByName":        {data: `"CLASSIFY"`, expected: RpcKindClassify},
		"ByUnspecified": {data: `"TENSORFLOW_SERVING_RPC_KIND_UNSPECIFIED"`, expected: RpcKindUnspecified},
		"ByNumber":      {data: `2`, expected: RpcKindRegress},
		"UnknownNumber": {data: `42`, expected: TensorFlowServingRpcKind(42)},
		"UnknownName":   {data: `"PREDICT"`, wantErr: true},
		"Garbage":       {data: `{}`, wantErr: true},
	}

	for name, scenario := range scenarios {
		t.Run(name, func(t *testing.T) {
			var kind TensorFlowServingRpcKind
			err := json.Unmarshal([]byte(scenario.data), &kind)
			if scenario.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, scenario.expected, kind)
		})
	}
}

func TestRpcKindMarshal(t *testing.T) {
	data, err := json.Marshal(RpcKindRegress)
	assert.NoError(t, err)
	assert.Equal(t, `"REGRESS"`, string(data))

	data, err = json.Marshal(TensorFlowServingRpcKind(42))
	assert.NoError(t, err)
	assert.Equal(t, `42`, string(data))
}

func TestRpcKindOpenEnum(t *testing.T) {
	kind := TensorFlowServingRpcKind(42)
	assert.False(t, kind.Known())
	assert.Equal(t, "42", kind.String())
	assert.True(t, RpcKindClassify.Known())
	assert.Equal(t, "CLASSIFY", RpcKindClassify.String())
}

func TestSpecRoundTrip(t *testing.T) {
	spec := ServingSpec{
		TensorFlowServing: &TensorFlowServing{
			Tags:    []string{"1.15.0", "latest"},
			Digests: []string{"sha256:deadbeef"},
		},
		LocalDocker: &LocalDockerConfig{
			ClientBaseURL:        "tcp://127.0.0.1:2375",
			ClientAPIVersion:     "1.41",
			ClientTimeoutSeconds: 120,
		},
		ModelName: "chicago-taxi",
	}
	data, err := json.Marshal(spec)
	assert.NoError(t, err)

	var got ServingSpec
	assert.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, spec, got)

	request := RequestSpec{
		TensorFlowServing: &TensorFlowServingRequestSpec{
			RpcKind:       RpcKindClassify,
			SignatureName: "serving_default",
		},
		SplitName:   "eval",
		MaxExamples: 3,
	}
	data, err = json.Marshal(request)
	assert.NoError(t, err)

	var gotRequest RequestSpec
	assert.NoError(t, json.Unmarshal(data, &gotRequest))
	assert.Equal(t, request, gotRequest)
}
