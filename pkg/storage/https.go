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
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
)

// HTTPSProvider downloads a single model archive or file over HTTP(S).
type HTTPSProvider struct {
	Client *http.Client
}

var _ Provider = (*HTTPSProvider)(nil)

func (p *HTTPSProvider) DownloadModel(modelDir string, modelName string, storageUri string) error {
	uri, err := url.Parse(storageUri)
	if err != nil {
		return fmt.Errorf("unable to parse storage uri %s: %w", storageUri, err)
	}
	fileName := path.Base(uri.Path)
	if fileName == "." || fileName == "/" {
		return fmt.Errorf("storage uri %s has no file component", storageUri)
	}

	resp, err := p.Client.Get(storageUri)
	if err != nil {
		return fmt.Errorf("failed to request %s: %w", storageUri, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned a %d response code", storageUri, resp.StatusCode)
	}

	file, err := createNewFile(filepath.Join(modelDir, modelName, fileName))
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := io.Copy(file, resp.Body); err != nil {
		return fmt.Errorf("failed to write %s: %w", file.Name(), err)
	}
	return nil
}
