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

package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// AsSha256 fingerprints a value, used to detect whether a model spec
// changed since the last download.
func AsSha256(o interface{}) string {
	h := sha256.New()
	h.Write([]byte(fmt.Sprintf("%v", o)))
	return hex.EncodeToString(h.Sum(nil))
}

// createNewFile creates the file and its parent directories, replacing a
// leftover from an earlier, possibly interrupted download.
func createNewFile(fileName string) (*os.File, error) {
	if FileExists(fileName) {
		if err := os.Remove(fileName); err != nil {
			return nil, fmt.Errorf("file %s is unable to be deleted: %w", fileName, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(fileName), 0o755); err != nil {
		return nil, err
	}
	return os.Create(fileName)
}

// RemoveDir deletes the directory's contents and the directory itself.
func RemoveDir(dir string) error {
	cleanDir := filepath.Clean(dir)
	if cleanDir != dir {
		return fmt.Errorf("the directory contains invalid characters: %s", dir)
	}
	if err := os.RemoveAll(cleanDir); err != nil {
		return fmt.Errorf("dir is unable to be deleted: %w", err)
	}
	return nil
}
