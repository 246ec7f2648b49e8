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

// Package downloader resolves a model URI to a local directory the serving
// container can mount.
package downloader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/kserve/infra-validator/pkg/storage"
)

// Downloader fetches remote models into ModelDir. Local URIs (file:// or a
// bare path) resolve to their own directory and are never copied.
type Downloader struct {
	ModelDir  string
	Providers map[storage.Protocol]storage.Provider
	Logger    *zap.SugaredLogger
}

const localFilePrefix = "file://"

// Fetch returns the local directory holding the model. Remote models are
// downloaded once per (name, uri) pair; a SUCCESS marker skips repeat
// downloads of the same uri.
func (d *Downloader) Fetch(modelName string, storageUri string) (string, error) {
	if storageUri == "" {
		return "", fmt.Errorf("there is no storageUri supplied")
	}

	if local, ok := localPath(storageUri); ok {
		if info, err := os.Stat(local); err != nil || !info.IsDir() {
			return "", fmt.Errorf("model directory %s does not exist", local)
		}
		return local, nil
	}

	localDir := filepath.Join(d.ModelDir, modelName)
	successFile := filepath.Join(localDir, "SUCCESS."+storage.AsSha256(storageUri)[:16])
	if storage.FileExists(successFile) {
		d.Logger.Infow("model already downloaded", "modelName", modelName, "storageUri", storageUri)
		return localDir, nil
	}

	if err := d.download(modelName, storageUri); err != nil {
		return "", err
	}
	file, err := os.Create(successFile)
	if err != nil {
		return "", fmt.Errorf("create success file error: %w", err)
	}
	defer file.Close()
	return localDir, nil
}

func (d *Downloader) download(modelName string, storageUri string) error {
	protocol, ok := storage.ParseProtocol(storageUri)
	if !ok {
		return fmt.Errorf("protocol not supported for storageUri %s", storageUri)
	}
	provider, err := storage.GetProvider(d.Providers, protocol)
	if err != nil {
		return fmt.Errorf("provider for %s is not initialized: %w", protocol, err)
	}
	d.Logger.Infow("downloading model", "modelName", modelName, "storageUri", storageUri)
	if err := provider.DownloadModel(d.ModelDir, modelName, storageUri); err != nil {
		return fmt.Errorf("failure on download of %s: %w", storageUri, err)
	}
	return nil
}

func localPath(storageUri string) (string, bool) {
	if strings.HasPrefix(storageUri, localFilePrefix) {
		return strings.TrimPrefix(storageUri, localFilePrefix), true
	}
	if strings.HasPrefix(storageUri, "/") || strings.HasPrefix(storageUri, "./") {
		return storageUri, true
	}
	return "", false
}
