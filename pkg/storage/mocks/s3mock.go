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

package mocks

import (
	"errors"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

type MockS3Client struct {
	s3iface.S3API
	Keys []string
}

func (m *MockS3Client) ListObjects(*s3.ListObjectsInput) (*s3.ListObjectsOutput, error) {
	keys := m.Keys
	if keys == nil {
		keys = []string{"1/saved_model.pb"}
	}
	contents := make([]*s3.Object, 0, len(keys))
	for _, key := range keys {
		contents = append(contents, &s3.Object{Key: aws.String(key)})
	}
	return &s3.ListObjectsOutput{Contents: contents}, nil
}

type MockS3FailClient struct {
	s3iface.S3API
	Err error
}

func (m *MockS3FailClient) ListObjects(*s3.ListObjectsInput) (*s3.ListObjectsOutput, error) {
	return nil, m.Err
}

type MockS3Downloader struct{}

func (m *MockS3Downloader) DownloadWithIterator(aws.Context, s3manager.BatchDownloadIterator, ...func(*s3manager.Downloader)) error {
	return nil
}

type MockS3FailDownloader struct{}

func (m *MockS3FailDownloader) DownloadWithIterator(aws.Context, s3manager.BatchDownloadIterator, ...func(*s3manager.Downloader)) error {
	var errs []s3manager.Error
	errs = append(errs, s3manager.Error{
		OrigErr: errors.New("failed to download"),
		Bucket:  aws.String("model-repo"),
		Key:     aws.String("chicago-taxi/1/saved_model.pb"),
	})
	return s3manager.NewBatchError("BatchedDownloadIncomplete", "some objects have failed to download.", errs)
}
