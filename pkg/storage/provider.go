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

// Package storage fetches model artifacts from remote repositories into a
// local scratch directory so the serving container can mount them.
package storage

import (
	"context"
	"net/http"
	"os"
	"strings"

	gstorage "cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/googleapis/google-cloud-go-testing/storage/stiface"
	"google.golang.org/api/option"

	gcscredential "github.com/kserve/infra-validator/pkg/credentials/gcs"
	s3credential "github.com/kserve/infra-validator/pkg/credentials/s3"
)

// Provider downloads the model identified by storageUri into
// <modelDir>/<modelName>.
type Provider interface {
	DownloadModel(modelDir string, modelName string, storageUri string) error
}

type Protocol string

const (
	S3    Protocol = "s3://"
	GCS   Protocol = "gs://"
	HTTPS Protocol = "https://"
	HTTP  Protocol = "http://"
)

var SupportedProtocols = []Protocol{S3, GCS, HTTPS, HTTP}

// ParseProtocol matches a storage URI against the supported protocols.
func ParseProtocol(storageUri string) (Protocol, bool) {
	for _, protocol := range SupportedProtocols {
		if strings.HasPrefix(storageUri, string(protocol)) {
			return protocol, true
		}
	}
	return "", false
}

// GetProvider returns the provider for the protocol, constructing and
// caching it on first use. Credentials are picked up from the environment.
func GetProvider(providers map[Protocol]Provider, protocol Protocol) (Provider, error) {
	if provider, ok := providers[protocol]; ok {
		return provider, nil
	}

	switch protocol {
	case GCS:
		var gcsClient *gstorage.Client
		var err error

		ctx := context.Background()
		if _, ok := os.LookupEnv(gcscredential.GCSCredentialEnvKey); ok {
			// GOOGLE_APPLICATION_CREDENTIALS is picked up by the client.
			gcsClient, err = gstorage.NewClient(ctx)
		} else {
			gcsClient, err = gstorage.NewClient(ctx, option.WithoutAuthentication())
		}
		if err != nil {
			return nil, err
		}
		providers[GCS] = &GCSProvider{
			Client: stiface.AdaptClient(gcsClient),
		}
	case S3:
		region, _ := os.LookupEnv(s3credential.AWSRegion)
		useVirtualBucket := true
		if v, ok := os.LookupEnv(s3credential.S3UseVirtualBucket); ok && strings.EqualFold(v, "false") {
			useVirtualBucket = false
		}
		awsConfig := aws.Config{
			Region:           aws.String(region),
			S3ForcePathStyle: aws.Bool(!useVirtualBucket),
		}
		if endpoint, ok := os.LookupEnv(s3credential.AWSEndpointUrl); ok {
			awsConfig.Endpoint = aws.String(endpoint)
		}
		if v, ok := os.LookupEnv(s3credential.AWSAnonymousCredential); ok && strings.EqualFold(v, "true") {
			awsConfig.Credentials = credentials.AnonymousCredentials
		} else if accessKey, ok := os.LookupEnv(s3credential.AWSAccessKeyId); ok {
			awsConfig.Credentials = credentials.NewStaticCredentials(
				accessKey, os.Getenv(s3credential.AWSSecretAccessKey), "")
		}
		sess, err := session.NewSession(&awsConfig)
		if err != nil {
			return nil, err
		}
		sessionClient := s3.New(sess)
		providers[S3] = &S3Provider{
			Client:     sessionClient,
			Downloader: s3manager.NewDownloaderWithClient(sessionClient, func(d *s3manager.Downloader) {}),
		}
	case HTTPS, HTTP:
		providers[protocol] = &HTTPSProvider{
			Client: &http.Client{},
		}
	}

	return providers[protocol], nil
}
