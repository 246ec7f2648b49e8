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

package constants

import (
	"os"
)

// InfraValidator Constants
var (
	InfraValidatorName      = "infra-validator"
	InfraValidatorNamespace = getEnvOrDefault("POD_NAMESPACE", "default")
)

// TensorFlow Serving Constants
const (
	TensorFlowServingImage    = "tensorflow/serving"
	TensorFlowServingGrpcPort = 8500
	TensorFlowServingRestPort = 8501
	// ModelBasePath is where the model directory is mounted inside the
	// serving container.
	ModelBasePath = "/model"
)

// Blessing Constants
const (
	// InfraBlessedFileName marks a model that passed infra validation.
	InfraBlessedFileName = "INFRA_BLESSED"
	// InfraNotBlessedFileName marks a model that failed infra validation.
	InfraNotBlessedFileName = "INFRA_NOT_BLESSED"
)

// Serving Pod Constants
var (
	ServingPodLabelKey = InfraValidatorName + "/validation-id"
)

func getEnvOrDefault(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
