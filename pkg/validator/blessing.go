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

package validator

import (
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/kserve/infra-validator/pkg/constants"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ImageResult is the validation outcome for one serving image.
type ImageResult struct {
	Image   string `json:"image"`
	Blessed bool   `json:"blessed"`
	Tries   int    `json:"tries"`
	Reason  string `json:"reason,omitempty"`
}

// Blessing is the aggregate verdict for one model across all serving
// images.
type Blessing struct {
	ModelName string        `json:"modelName"`
	Results   []ImageResult `json:"results"`
}

// Blessed reports whether every serving image passed validation.
func (b *Blessing) Blessed() bool {
	if len(b.Results) == 0 {
		return false
	}
	for _, result := range b.Results {
		if !result.Blessed {
			return false
		}
	}
	return true
}

// WriteBlessing persists the verdict as a marker file in outputDir and
// returns the marker path. The marker name alone carries the verdict; the
// file body holds the per-image results for later inspection.
func WriteBlessing(blessing *Blessing, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create output directory %s", outputDir)
	}
	name := constants.InfraBlessedFileName
	if !blessing.Blessed() {
		name = constants.InfraNotBlessedFileName
	}
	body, err := json.MarshalIndent(blessing, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to encode blessing")
	}
	markerPath := filepath.Join(outputDir, name)
	if err := os.WriteFile(markerPath, body, 0o644); err != nil {
		return "", errors.Wrapf(err, "failed to write blessing marker %s", markerPath)
	}
	// Drop a stale marker from a previous run so the directory holds a
	// single verdict.
	stale := constants.InfraNotBlessedFileName
	if !blessing.Blessed() {
		stale = constants.InfraBlessedFileName
	}
	if err := os.Remove(filepath.Join(outputDir, stale)); err != nil && !os.IsNotExist(err) {
		return "", errors.Wrapf(err, "failed to remove stale blessing marker")
	}
	return markerPath, nil
}
