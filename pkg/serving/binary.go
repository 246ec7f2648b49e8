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
	"fmt"

	"github.com/kserve/infra-validator/pkg/apis/validation/v1alpha1"
	"github.com/kserve/infra-validator/pkg/constants"
)

// Binary is an abstraction over model server binaries. A Binary knows how
// its container is parameterized and how to talk to it once it is up.
type Binary interface {
	// Image is the full container image reference to run
	Image() string
	// ContainerPort is the port the validator talks to inside the container
	ContainerPort() int
	// ExposedPorts lists every port the server listens on, ContainerPort
	// included
	ExposedPorts() []int
	// Env returns the container environment serving the given model
	Env(modelName string) map[string]string
	// MakeClient returns a client bound to a host:port endpoint
	MakeClient(endpoint string, modelName string) ModelServerClient
}

// TensorFlowServingBinary parameterizes one tensorflow/serving image.
type TensorFlowServingBinary struct {
	image string
}

var _ Binary = (*TensorFlowServingBinary)(nil)

func (b *TensorFlowServingBinary) Image() string { return b.image }

func (b *TensorFlowServingBinary) ContainerPort() int {
	return constants.TensorFlowServingRestPort
}

func (b *TensorFlowServingBinary) ExposedPorts() []int {
	return []int{constants.TensorFlowServingGrpcPort, constants.TensorFlowServingRestPort}
}

func (b *TensorFlowServingBinary) Env(modelName string) map[string]string {
	return map[string]string{
		"MODEL_NAME":      modelName,
		"MODEL_BASE_PATH": constants.ModelBasePath,
	}
}

func (b *TensorFlowServingBinary) MakeClient(endpoint string, modelName string) ModelServerClient {
	return NewTensorFlowServingClient(endpoint, modelName)
}

// ResolveBinaries expands the serving binary branch of the spec into one
// Binary per image reference (tags first, then digests).
func ResolveBinaries(spec *v1alpha1.ServingSpec) ([]Binary, error) {
	if spec.TensorFlowServing == nil {
		return nil, fmt.Errorf("serving spec has no serving binary")
	}
	var binaries []Binary
	for _, tag := range spec.TensorFlowServing.Tags {
		binaries = append(binaries, &TensorFlowServingBinary{
			image: constants.TensorFlowServingImage + ":" + tag,
		})
	}
	for _, digest := range spec.TensorFlowServing.Digests {
		binaries = append(binaries, &TensorFlowServingBinary{
			image: constants.TensorFlowServingImage + "@" + digest,
		})
	}
	if len(binaries) == 0 {
		return nil, fmt.Errorf("tensorflowServing spec has neither tags nor digests")
	}
	return binaries, nil
}
