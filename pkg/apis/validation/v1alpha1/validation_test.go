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

	"github.com/onsi/gomega"
	"github.com/onsi/gomega/types"

	"github.com/kserve/infra-validator/pkg/constants"
)

func TestServingSpecValidate(t *testing.T) {
	g := gomega.NewGomegaWithT(t)

	scenarios := map[string]struct {
		spec    ServingSpec
		matcher types.GomegaMatcher
	}{
		"ValidLocalDocker": {
			spec: ServingSpec{
				TensorFlowServing: &TensorFlowServing{Tags: []string{"1.15.0"}},
				LocalDocker:       &LocalDockerConfig{},
			},
			matcher: gomega.BeNil(),
		},
		"ValidKubernetes": {
			spec: ServingSpec{
				TensorFlowServing: &TensorFlowServing{Digests: []string{"sha256:deadbeef"}},
				Kubernetes:        &KubernetesConfig{Namespace: "serving"},
			},
			matcher: gomega.BeNil(),
		},
		"MissingServingBinary": {
			spec: ServingSpec{
				LocalDocker: &LocalDockerConfig{},
			},
			matcher: gomega.MatchError(ExactlyOneErrorFor("servingBinary", "tensorflowServing")),
		},
		"MissingServingPlatform": {
			spec: ServingSpec{
				TensorFlowServing: &TensorFlowServing{Tags: []string{"latest"}},
			},
			matcher: gomega.MatchError(ExactlyOneErrorFor("servingPlatform", "localDocker", "kubernetes")),
		},
		"TwoServingPlatforms": {
			spec: ServingSpec{
				TensorFlowServing: &TensorFlowServing{Tags: []string{"latest"}},
				LocalDocker:       &LocalDockerConfig{},
				Kubernetes:        &KubernetesConfig{},
			},
			matcher: gomega.MatchError(ExactlyOneErrorFor("servingPlatform", "localDocker", "kubernetes")),
		},
		"EmptyImageReferences": {
			spec: ServingSpec{
				TensorFlowServing: &TensorFlowServing{},
				LocalDocker:       &LocalDockerConfig{},
			},
			matcher: gomega.Not(gomega.BeNil()),
		},
		"NegativeClientTimeout": {
			spec: ServingSpec{
				TensorFlowServing: &TensorFlowServing{Tags: []string{"latest"}},
				LocalDocker:       &LocalDockerConfig{ClientTimeoutSeconds: -1},
			},
			matcher: gomega.Not(gomega.BeNil()),
		},
	}

	for name, scenario := range scenarios {
		t.Run(name, func(t *testing.T) {
			res := scenario.spec.Validate()
			if !g.Expect(res).To(scenario.matcher) {
				t.Errorf("got %q, want %q", res, scenario.matcher)
			}
		})
	}
}

func TestValidationSpecValidate(t *testing.T) {
	g := gomega.NewGomegaWithT(t)

	scenarios := map[string]struct {
		spec    ValidationSpec
		matcher types.GomegaMatcher
	}{
		"Valid": {
			spec:    ValidationSpec{MaxLoadingTimeSeconds: 60, NumTries: 3},
			matcher: gomega.BeNil(),
		},
		"ZeroLoadingTime": {
			spec:    ValidationSpec{NumTries: 3},
			matcher: gomega.Not(gomega.BeNil()),
		},
		"NegativeLoadingTime": {
			spec:    ValidationSpec{MaxLoadingTimeSeconds: -30, NumTries: 3},
			matcher: gomega.Not(gomega.BeNil()),
		},
		"ZeroTries": {
			spec:    ValidationSpec{MaxLoadingTimeSeconds: 60},
			matcher: gomega.Not(gomega.BeNil()),
		},
	}

	for name, scenario := range scenarios {
		t.Run(name, func(t *testing.T) {
			res := scenario.spec.Validate()
			if !g.Expect(res).To(scenario.matcher) {
				t.Errorf("got %q, want %q", res, scenario.matcher)
			}
		})
	}
}

func TestRequestSpecValidate(t *testing.T) {
	g := gomega.NewGomegaWithT(t)

	scenarios := map[string]struct {
		spec    RequestSpec
		matcher types.GomegaMatcher
	}{
		"Valid": {
			spec: RequestSpec{
				TensorFlowServing: &TensorFlowServingRequestSpec{RpcKind: RpcKindClassify},
				SplitName:         "eval",
				MaxExamples:       1,
			},
			matcher: gomega.BeNil(),
		},
		"MissingBinaryBranch": {
			spec: RequestSpec{
				SplitName:   "eval",
				MaxExamples: 1,
			},
			matcher: gomega.MatchError(ExactlyOneErrorFor("requestSpec.servingBinary", "tensorflowServing")),
		},
		"UnspecifiedRpcKind": {
			spec: RequestSpec{
				TensorFlowServing: &TensorFlowServingRequestSpec{},
				SplitName:         "eval",
				MaxExamples:       1,
			},
			matcher: gomega.Not(gomega.BeNil()),
		},
		"UnknownRpcKind": {
			spec: RequestSpec{
				TensorFlowServing: &TensorFlowServingRequestSpec{RpcKind: TensorFlowServingRpcKind(42)},
				SplitName:         "eval",
				MaxExamples:       1,
			},
			matcher: gomega.Not(gomega.BeNil()),
		},
		"MissingSplitName": {
			spec: RequestSpec{
				TensorFlowServing: &TensorFlowServingRequestSpec{RpcKind: RpcKindRegress},
				MaxExamples:       1,
			},
			matcher: gomega.Not(gomega.BeNil()),
		},
		"ZeroMaxExamples": {
			spec: RequestSpec{
				TensorFlowServing: &TensorFlowServingRequestSpec{RpcKind: RpcKindRegress},
				SplitName:         "eval",
			},
			matcher: gomega.Not(gomega.BeNil()),
		},
	}

	for name, scenario := range scenarios {
		t.Run(name, func(t *testing.T) {
			res := scenario.spec.Validate()
			if !g.Expect(res).To(scenario.matcher) {
				t.Errorf("got %q, want %q", res, scenario.matcher)
			}
		})
	}
}

func TestServingSpecDefault(t *testing.T) {
	g := gomega.NewGomegaWithT(t)

	spec := ServingSpec{
		TensorFlowServing: &TensorFlowServing{Tags: []string{"latest"}},
		LocalDocker:       &LocalDockerConfig{},
	}
	spec.Default()
	g.Expect(spec.LocalDocker.ClientBaseURL).To(gomega.Equal(DefaultDockerBaseURL))
	g.Expect(spec.LocalDocker.ClientTimeoutSeconds).To(gomega.Equal(int32(DefaultClientTimeoutSeconds)))

	spec = ServingSpec{
		TensorFlowServing: &TensorFlowServing{Tags: []string{"latest"}},
		Kubernetes:        &KubernetesConfig{},
	}
	spec.Default()
	g.Expect(spec.Kubernetes.Namespace).To(gomega.Equal(constants.InfraValidatorNamespace))

	validation := ValidationSpec{}
	validation.Default()
	g.Expect(validation.MaxLoadingTimeSeconds).To(gomega.Equal(int32(DefaultMaxLoadingTimeSeconds)))
	g.Expect(validation.NumTries).To(gomega.Equal(int32(DefaultNumTries)))

	request := RequestSpec{SplitName: "eval"}
	request.Default()
	g.Expect(request.MaxExamples).To(gomega.Equal(int32(DefaultMaxExamples)))
}

func TestSettersClearSiblingBranches(t *testing.T) {
	g := gomega.NewGomegaWithT(t)

	spec := ServingSpec{}
	spec.SetLocalDocker(&LocalDockerConfig{})
	g.Expect(spec.LocalDocker).ToNot(gomega.BeNil())

	spec.SetKubernetes(&KubernetesConfig{Namespace: "serving"})
	g.Expect(spec.LocalDocker).To(gomega.BeNil())
	g.Expect(spec.Kubernetes).ToNot(gomega.BeNil())

	spec.SetLocalDocker(&LocalDockerConfig{})
	g.Expect(spec.Kubernetes).To(gomega.BeNil())
	g.Expect(spec.LocalDocker).ToNot(gomega.BeNil())
}
