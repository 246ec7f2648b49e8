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
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	gstorage "cloud.google.com/go/storage"
	"github.com/googleapis/google-cloud-go-testing/storage/stiface"
	"google.golang.org/api/iterator"
)

type GCSProvider struct {
	Client stiface.Client
}

var _ Provider = (*GCSProvider)(nil)

func (p *GCSProvider) DownloadModel(modelDir string, modelName string, storageUri string) error {
	gcsUri := strings.TrimPrefix(storageUri, string(GCS))
	tokens := strings.SplitN(gcsUri, "/", 2)
	prefix := ""
	if len(tokens) == 2 {
		prefix = tokens[1]
	}
	ctx := context.Background()
	it := p.Client.Bucket(tokens[0]).Objects(ctx, &gstorage.Query{Prefix: prefix})

	downloaded := 0
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("unable to iterate objects of %s: %w", storageUri, err)
		}
		if strings.HasSuffix(attrs.Name, "/") {
			// directory placeholder object
			continue
		}
		fileName := filepath.Join(modelDir, modelName, strings.TrimPrefix(attrs.Name, prefix))
		if err := p.downloadObject(ctx, attrs, fileName); err != nil {
			return fmt.Errorf("unable to download object %s: %w", attrs.Name, err)
		}
		downloaded++
	}
	if downloaded == 0 {
		return fmt.Errorf("no objects found at %s", storageUri)
	}
	return nil
}

func (p *GCSProvider) downloadObject(ctx context.Context, attrs *gstorage.ObjectAttrs, fileName string) error {
	reader, err := p.Client.Bucket(attrs.Bucket).Object(attrs.Name).NewReader(ctx)
	if err != nil {
		return err
	}
	defer reader.Close()

	file, err := createNewFile(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(file, reader)
	return err
}
