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

// Package gcs holds the environment variables the validator reads to reach
// GCS model repositories.
package gcs

const (
	// GCSCredentialEnvKey points at the service account key file. When it
	// is unset, buckets are accessed anonymously.
	GCSCredentialEnvKey = "GOOGLE_APPLICATION_CREDENTIALS"
)
