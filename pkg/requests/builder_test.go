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

package requests

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kserve/infra-validator/pkg/apis/validation/v1alpha1"
	"github.com/kserve/infra-validator/pkg/serving"
)

func writeSplit(t *testing.T, examplesDir string, split string, files map[string]string) {
	t.Helper()
	splitDir := filepath.Join(examplesDir, split)
	require.NoError(t, os.MkdirAll(splitDir, 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(splitDir, name), []byte(content), 0o644))
	}
}

func TestBuild(t *testing.T) {
	examplesDir := t.TempDir()
	writeSplit(t, examplesDir, "eval", map[string]string{
		"records-00000.jsonl": "{\"x\":1}\n{\"x\":2}\n",
		"records-00001.jsonl": "{\"x\":3}\n",
	})

	builder := &Builder{
		Spec: &v1alpha1.RequestSpec{
			TensorFlowServing: &v1alpha1.TensorFlowServingRequestSpec{
				RpcKind:       v1alpha1.RpcKindClassify,
				SignatureName: "serving_default",
			},
			SplitName:   "eval",
			MaxExamples: 2,
		},
		ExamplesDir: examplesDir,
	}

	reqs, err := builder.Build()
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, serving.MethodClassify, reqs[0].Method)
	assert.JSONEq(t, `{"signature_name":"serving_default","examples":[{"x":1}]}`, string(reqs[0].Body))
	assert.JSONEq(t, `{"signature_name":"serving_default","examples":[{"x":2}]}`, string(reqs[1].Body))
}

func TestBuild_RegressWithoutSignature(t *testing.T) {
	examplesDir := t.TempDir()
	writeSplit(t, examplesDir, "eval", map[string]string{
		"records-00000.jsonl": "{\"x\":1}\n",
	})

	builder := &Builder{
		Spec: &v1alpha1.RequestSpec{
			TensorFlowServing: &v1alpha1.TensorFlowServingRequestSpec{RpcKind: v1alpha1.RpcKindRegress},
			SplitName:         "eval",
			MaxExamples:       1,
		},
		ExamplesDir: examplesDir,
	}

	reqs, err := builder.Build()
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, serving.MethodRegress, reqs[0].Method)
	assert.JSONEq(t, `{"examples":[{"x":1}]}`, string(reqs[0].Body))
}

func TestBuild_Errors(t *testing.T) {
	examplesDir := t.TempDir()
	writeSplit(t, examplesDir, "eval", map[string]string{
		"records-00000.jsonl": "{\"x\":1}\n",
	})
	writeSplit(t, examplesDir, "corrupt", map[string]string{
		"records-00000.jsonl": "not json\n",
	})

	scenarios := map[string]*v1alpha1.RequestSpec{
		"MissingSplit": {
			TensorFlowServing: &v1alpha1.TensorFlowServingRequestSpec{RpcKind: v1alpha1.RpcKindClassify},
			SplitName:         "train",
			MaxExamples:       1,
		},
		"CorruptRecord": {
			TensorFlowServing: &v1alpha1.TensorFlowServingRequestSpec{RpcKind: v1alpha1.RpcKindClassify},
			SplitName:         "corrupt",
			MaxExamples:       1,
		},
		"UnspecifiedRpcKind": {
			TensorFlowServing: &v1alpha1.TensorFlowServingRequestSpec{},
			SplitName:         "eval",
			MaxExamples:       1,
		},
	}

	for name, spec := range scenarios {
		t.Run(name, func(t *testing.T) {
			builder := &Builder{Spec: spec, ExamplesDir: examplesDir}
			_, err := builder.Build()
			assert.Error(t, err)
		})
	}
}
