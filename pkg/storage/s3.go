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
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// S3Downloader is the batch download surface of s3manager, split out so
// tests can substitute it.
type S3Downloader interface {
	DownloadWithIterator(ctx aws.Context, iter s3manager.BatchDownloadIterator, opts ...func(*s3manager.Downloader)) error
}

type S3Provider struct {
	Client     s3iface.S3API
	Downloader S3Downloader
}

var _ Provider = (*S3Provider)(nil)

func (p *S3Provider) DownloadModel(modelDir string, modelName string, storageUri string) error {
	s3Uri := strings.TrimPrefix(storageUri, string(S3))
	tokens := strings.SplitN(s3Uri, "/", 2)
	prefix := ""
	if len(tokens) == 2 {
		prefix = tokens[1]
	}
	objects, err := p.listObjects(modelDir, modelName, tokens[0], prefix)
	if err != nil {
		return fmt.Errorf("unable to list objects of %s: %w", storageUri, err)
	}
	if len(objects) == 0 {
		return fmt.Errorf("no objects found at %s", storageUri)
	}
	if err := p.Downloader.DownloadWithIterator(aws.BackgroundContext(),
		&s3manager.DownloadObjectsIterator{Objects: objects}); err != nil {
		return fmt.Errorf("unable to download objects of %s: %w", storageUri, err)
	}
	return nil
}

func (p *S3Provider) listObjects(modelDir string, modelName string, bucket string, prefix string) ([]s3manager.BatchDownloadObject, error) {
	resp, err := p.Client.ListObjects(&s3.ListObjectsInput{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, err
	}

	objects := make([]s3manager.BatchDownloadObject, 0, len(resp.Contents))
	for _, object := range resp.Contents {
		fileName := filepath.Join(modelDir, modelName, strings.TrimPrefix(*object.Key, prefix))
		file, err := createNewFile(fileName)
		if err != nil {
			return nil, err
		}
		objects = append(objects, s3manager.BatchDownloadObject{
			Object: &s3.GetObjectInput{
				Bucket: aws.String(bucket),
				Key:    object.Key,
			},
			Writer: file,
			After: func() error {
				defer file.Close()
				return nil
			},
		})
	}
	return objects, nil
}
