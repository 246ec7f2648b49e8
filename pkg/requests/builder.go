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

// Package requests turns recorded example splits into sample requests the
// validator replays against the model server.
package requests

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/kserve/infra-validator/pkg/apis/validation/v1alpha1"
	"github.com/kserve/infra-validator/pkg/serving"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Builder reads records of an examples split and builds one request per
// record, up to the spec's MaxExamples.
type Builder struct {
	Spec *v1alpha1.RequestSpec
	// ExamplesDir holds one subdirectory per split, each with *.jsonl
	// files of one JSON record per line.
	ExamplesDir string
}

type tfServingPayload struct {
	SignatureName string                `json:"signature_name,omitempty"`
	Examples      []jsoniter.RawMessage `json:"examples"`
}

// Build reads up to MaxExamples records from the configured split and wraps
// each in the payload of the configured RPC.
func (b *Builder) Build() ([]serving.Request, error) {
	if err := b.Spec.Validate(); err != nil {
		return nil, err
	}
	method, err := requestMethod(b.Spec.TensorFlowServing.RpcKind)
	if err != nil {
		return nil, err
	}
	records, err := b.readRecords()
	if err != nil {
		return nil, err
	}

	result := make([]serving.Request, 0, len(records))
	for _, record := range records {
		payload := tfServingPayload{
			SignatureName: b.Spec.TensorFlowServing.SignatureName,
			Examples:      []jsoniter.RawMessage{record},
		}
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		result = append(result, serving.Request{Method: method, Body: body})
	}
	return result, nil
}

func requestMethod(kind v1alpha1.TensorFlowServingRpcKind) (serving.RequestMethod, error) {
	switch kind {
	case v1alpha1.RpcKindClassify:
		return serving.MethodClassify, nil
	case v1alpha1.RpcKindRegress:
		return serving.MethodRegress, nil
	default:
		return "", fmt.Errorf("no request method for rpc kind %s", kind)
	}
}

// readRecords walks the split's jsonl files in name order and collects up
// to MaxExamples records.
func (b *Builder) readRecords() ([]jsoniter.RawMessage, error) {
	splitDir := filepath.Join(b.ExamplesDir, b.Spec.SplitName)
	files, err := filepath.Glob(filepath.Join(splitDir, "*.jsonl"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	var records []jsoniter.RawMessage
	for _, file := range files {
		if int32(len(records)) >= b.Spec.MaxExamples {
			break
		}
		fileRecords, err := readFile(file, b.Spec.MaxExamples-int32(len(records)))
		if err != nil {
			return nil, err
		}
		records = append(records, fileRecords...)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no records found in split %q under %s", b.Spec.SplitName, b.ExamplesDir)
	}
	return records, nil
}

func readFile(name string, limit int32) ([]jsoniter.RawMessage, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []jsoniter.RawMessage
	scanner := bufio.NewScanner(f)
	for scanner.Scan() && int32(len(records)) < limit {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !json.Valid([]byte(line)) {
			return nil, fmt.Errorf("invalid record in %s: %s", name, line)
		}
		records = append(records, jsoniter.RawMessage(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
