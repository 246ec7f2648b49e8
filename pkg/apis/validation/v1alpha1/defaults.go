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
	"github.com/kserve/infra-validator/pkg/constants"
)

const (
	// DefaultDockerBaseURL is the docker daemon endpoint used when none is
	// configured.
	DefaultDockerBaseURL = "unix:///var/run/docker.sock"
	// DefaultClientTimeoutSeconds bounds individual docker API calls.
	DefaultClientTimeoutSeconds = 300
	// DefaultMaxLoadingTimeSeconds bounds a full model loading round.
	DefaultMaxLoadingTimeSeconds = 300
	// DefaultNumTries is the number of validation rounds attempted before
	// the model is declared not blessed.
	DefaultNumTries = 5
	// DefaultMaxExamples is the number of sample requests replayed when the
	// request spec does not say otherwise.
	DefaultMaxExamples = 1
)

// Default fills unset platform fields in place.
func (s *ServingSpec) Default() {
	if s.LocalDocker != nil {
		if s.LocalDocker.ClientBaseURL == "" {
			s.LocalDocker.ClientBaseURL = DefaultDockerBaseURL
		}
		if s.LocalDocker.ClientTimeoutSeconds == 0 {
			s.LocalDocker.ClientTimeoutSeconds = DefaultClientTimeoutSeconds
		}
	}
	if s.Kubernetes != nil && s.Kubernetes.Namespace == "" {
		// Serving pods land next to the validator unless told otherwise.
		s.Kubernetes.Namespace = constants.InfraValidatorNamespace
	}
}

// Default fills unset criteria in place.
func (v *ValidationSpec) Default() {
	if v.MaxLoadingTimeSeconds == 0 {
		v.MaxLoadingTimeSeconds = DefaultMaxLoadingTimeSeconds
	}
	if v.NumTries == 0 {
		v.NumTries = DefaultNumTries
	}
}

// Default fills unset request parameters in place.
func (r *RequestSpec) Default() {
	if r.MaxExamples == 0 {
		r.MaxExamples = DefaultMaxExamples
	}
}
