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
	"fmt"
	"strings"
)

// ExactlyOneErrorFor builds the error returned when a "1-of" group has zero
// or more than one branch set.
func ExactlyOneErrorFor(group string, branches ...string) error {
	return fmt.Errorf("exactly one of [%s] must be specified in %s",
		strings.Join(branches, ", "), group)
}

// Validate checks the "1-of" constraints and the per-branch requirements
// of the serving spec.
func (s *ServingSpec) Validate() error {
	if s.TensorFlowServing == nil {
		return ExactlyOneErrorFor("servingBinary", "tensorflowServing")
	}
	platforms := 0
	if s.LocalDocker != nil {
		platforms++
	}
	if s.Kubernetes != nil {
		platforms++
	}
	if platforms != 1 {
		return ExactlyOneErrorFor("servingPlatform", "localDocker", "kubernetes")
	}
	if err := s.TensorFlowServing.Validate(); err != nil {
		return err
	}
	if s.LocalDocker != nil && s.LocalDocker.ClientTimeoutSeconds < 0 {
		return fmt.Errorf("clientTimeoutSeconds must not be negative, got %d",
			s.LocalDocker.ClientTimeoutSeconds)
	}
	if s.Kubernetes != nil && s.Kubernetes.ActiveDeadlineSeconds < 0 {
		return fmt.Errorf("activeDeadlineSeconds must not be negative, got %d",
			s.Kubernetes.ActiveDeadlineSeconds)
	}
	return nil
}

// Validate requires at least one image reference.
func (t *TensorFlowServing) Validate() error {
	if len(t.Tags) == 0 && len(t.Digests) == 0 {
		return fmt.Errorf("tensorflowServing requires at least one of tags or digests")
	}
	return nil
}

// Validate checks the pass/fail criteria are meaningful.
func (v *ValidationSpec) Validate() error {
	if v.MaxLoadingTimeSeconds <= 0 {
		return fmt.Errorf("maxLoadingTimeSeconds must be a positive number, got %d",
			v.MaxLoadingTimeSeconds)
	}
	if v.NumTries <= 0 {
		return fmt.Errorf("numTries must be a positive number, got %d", v.NumTries)
	}
	return nil
}

// Validate checks the "1-of" constraint and the request parameters. The
// request spec branch must match the serving binary of the serving spec,
// which is the caller's concern; here only the spec itself is checked.
func (r *RequestSpec) Validate() error {
	if r.TensorFlowServing == nil {
		return ExactlyOneErrorFor("requestSpec.servingBinary", "tensorflowServing")
	}
	if r.MaxExamples <= 0 {
		return fmt.Errorf("maxExamples must be a positive number, got %d", r.MaxExamples)
	}
	if r.SplitName == "" {
		return fmt.Errorf("splitName must not be empty")
	}
	return r.TensorFlowServing.Validate()
}

// Validate rejects unknown and unspecified RPC kinds.
func (t *TensorFlowServingRequestSpec) Validate() error {
	if !t.RpcKind.Known() {
		return fmt.Errorf("unknown rpcKind value %s", t.RpcKind)
	}
	if t.RpcKind == RpcKindUnspecified {
		return fmt.Errorf("rpcKind must be specified, one of [CLASSIFY, REGRESS]")
	}
	return nil
}
