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

// Package v1alpha1 holds the configuration schema of the infra validator.
// The canonical wire form lives in proto/infra_validator.proto; the types
// here mirror it field for field.
package v1alpha1

// ServingSpec defines the environment a model is validated in.
// The serving binary fields and the serving platform fields each follow a
// "1-of" semantic. Users must specify exactly one of each.
type ServingSpec struct {
	// Spec for TensorFlow Serving (https://github.com/tensorflow/serving)
	TensorFlowServing *TensorFlowServing `json:"tensorflowServing,omitempty"`

	// Run the model server on the local docker daemon
	LocalDocker *LocalDockerConfig `json:"localDocker,omitempty"`
	// Run the model server as a pod in a kubernetes cluster
	Kubernetes *KubernetesConfig `json:"kubernetes,omitempty"`

	// Name to serve the model under. If empty, the base name of the model
	// directory is used.
	ModelName string `json:"modelName,omitempty"`
}

// TensorFlowServing identifies the serving images to validate against.
// At least one of Tags or Digests must be non-empty.
type TensorFlowServing struct {
	Tags    []string `json:"tags,omitempty"`
	Digests []string `json:"digests,omitempty"`
}

// LocalDockerConfig holds the connection parameters of the local docker
// daemon.
type LocalDockerConfig struct {
	// Daemon endpoint, e.g. unix:///var/run/docker.sock
	ClientBaseURL string `json:"clientBaseUrl,omitempty"`
	// Docker API version. If empty the version is negotiated with the daemon.
	ClientAPIVersion string `json:"clientApiVersion,omitempty"`
	// Timeout for docker API calls, in seconds
	ClientTimeoutSeconds int32 `json:"clientTimeoutSeconds,omitempty"`
}

// KubernetesConfig holds the parameters of the cluster the serving pod is
// launched in.
type KubernetesConfig struct {
	Namespace             string `json:"namespace,omitempty"`
	ServiceAccountName    string `json:"serviceAccountName,omitempty"`
	ActiveDeadlineSeconds int32  `json:"activeDeadlineSeconds,omitempty"`
}

// ValidationSpec holds the pass/fail criteria of a validation round.
type ValidationSpec struct {
	// Maximum time to wait for the model to be loaded and available.
	// Must be a positive number.
	MaxLoadingTimeSeconds int32 `json:"maxLoadingTimeSeconds,omitempty"`
	// Number of rounds attempted before giving up on transient failures
	NumTries int32 `json:"numTries,omitempty"`
}

// RequestSpec, when present, makes the validator replay recorded sample
// requests against the loaded model. The serving binary fields follow a
// "1-of" semantic and must match the binary chosen in ServingSpec.
type RequestSpec struct {
	TensorFlowServing *TensorFlowServingRequestSpec `json:"tensorflowServing,omitempty"`

	// Name of the examples split to draw records from
	SplitName string `json:"splitName,omitempty"`
	// Maximum number of examples to replay. Defaults to 1.
	MaxExamples int32 `json:"maxExamples,omitempty"`
}

// TensorFlowServingRequestSpec chooses the RPC and the model signature the
// sample requests exercise.
type TensorFlowServingRequestSpec struct {
	RpcKind TensorFlowServingRpcKind `json:"rpcKind,omitempty"`
	// Model signature to use. If empty the default serving signature is used.
	SignatureName string `json:"signatureName,omitempty"`
}

// SetTensorFlowServing sets the serving binary branch, clearing any sibling
// branch previously set.
func (s *ServingSpec) SetTensorFlowServing(binary *TensorFlowServing) {
	s.TensorFlowServing = binary
}

// SetLocalDocker sets the serving platform branch to local docker, clearing
// any sibling branch previously set.
func (s *ServingSpec) SetLocalDocker(platform *LocalDockerConfig) {
	s.Kubernetes = nil
	s.LocalDocker = platform
}

// SetKubernetes sets the serving platform branch to kubernetes, clearing
// any sibling branch previously set.
func (s *ServingSpec) SetKubernetes(platform *KubernetesConfig) {
	s.LocalDocker = nil
	s.Kubernetes = platform
}
