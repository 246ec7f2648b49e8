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
	"strconv"
	"strings"
)

// TensorFlowServingRpcKind enumerates the TF Serving RPCs a sample request
// can exercise. It is an open enum: unknown numeric values survive
// deserialization and are rejected by Validate, not by the decoder.
type TensorFlowServingRpcKind int32

const (
	RpcKindUnspecified TensorFlowServingRpcKind = 0
	RpcKindClassify    TensorFlowServingRpcKind = 1
	RpcKindRegress     TensorFlowServingRpcKind = 2
)

var rpcKindNames = map[TensorFlowServingRpcKind]string{
	RpcKindUnspecified: "TENSORFLOW_SERVING_RPC_KIND_UNSPECIFIED",
	RpcKindClassify:    "CLASSIFY",
	RpcKindRegress:     "REGRESS",
}

var rpcKindValues = map[string]TensorFlowServingRpcKind{
	"TENSORFLOW_SERVING_RPC_KIND_UNSPECIFIED": RpcKindUnspecified,
	"CLASSIFY":                                RpcKindClassify,
	"REGRESS":                                 RpcKindRegress,
}

func (k TensorFlowServingRpcKind) String() string {
	if name, ok := rpcKindNames[k]; ok {
		return name
	}
	return strconv.Itoa(int(k))
}

// Known reports whether the value is one of the declared enum values.
func (k TensorFlowServingRpcKind) Known() bool {
	_, ok := rpcKindNames[k]
	return ok
}

// MarshalJSON encodes known values by name and unknown values numerically.
func (k TensorFlowServingRpcKind) MarshalJSON() ([]byte, error) {
	if name, ok := rpcKindNames[k]; ok {
		return []byte(strconv.Quote(name)), nil
	}
	return []byte(strconv.Itoa(int(k))), nil
}

// UnmarshalJSON accepts either an enum name or a raw number. Unknown
// numbers are kept as-is; unknown names are an error.
func (k *TensorFlowServingRpcKind) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	if strings.HasPrefix(text, `"`) {
		name, err := strconv.Unquote(text)
		if err != nil {
			return err
		}
		value, ok := rpcKindValues[name]
		if !ok {
			return fmt.Errorf("unknown TensorFlowServingRpcKind name %q", name)
		}
		*k = value
		return nil
	}
	number, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid TensorFlowServingRpcKind value %s", text)
	}
	*k = TensorFlowServingRpcKind(number)
	return nil
}
