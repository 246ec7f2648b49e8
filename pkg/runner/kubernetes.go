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

package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/kserve/infra-validator/pkg/apis/validation/v1alpha1"
	"github.com/kserve/infra-validator/pkg/constants"
	"github.com/kserve/infra-validator/pkg/errortypes"
	"github.com/kserve/infra-validator/pkg/serving"
)

// KubernetesRunner runs the model server as a single pod. The model must be
// reachable from inside the cluster, so ModelBasePath points at a remote
// location (e.g. a gs:// directory) the serving binary can read directly.
type KubernetesRunner struct {
	Client    kubernetes.Interface
	Config    *v1alpha1.KubernetesConfig
	Binary    serving.Binary
	ModelName string
	// ModelBasePath overrides the in-container model base path env var
	ModelBasePath string
	Log           *zap.SugaredLogger

	// PollInterval between pod status checks
	PollInterval time.Duration

	podName  string
	endpoint string
	started  bool
}

var _ ModelServerRunner = (*KubernetesRunner)(nil)

// Start creates the serving pod.
func (r *KubernetesRunner) Start(ctx context.Context) error {
	if r.started {
		return errortypes.IllegalState("you cannot start model server multiple times")
	}

	env := r.Binary.Env(r.ModelName)
	if r.ModelBasePath != "" {
		env["MODEL_BASE_PATH"] = r.ModelBasePath
	}
	var envVars []corev1.EnvVar
	for key, value := range env {
		envVars = append(envVars, corev1.EnvVar{Name: key, Value: value})
	}

	validationID := uuid.Must(uuid.NewV4()).String()
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      fmt.Sprintf("%s-%s", constants.InfraValidatorName, validationID),
			Namespace: r.Config.Namespace,
			Labels:    map[string]string{constants.ServingPodLabelKey: validationID},
		},
		Spec: corev1.PodSpec{
			RestartPolicy:      corev1.RestartPolicyNever,
			ServiceAccountName: r.Config.ServiceAccountName,
			Containers: []corev1.Container{
				{
					Name:  "model-server",
					Image: r.Binary.Image(),
					Env:   envVars,
					Ports: containerPorts(r.Binary),
				},
			},
		},
	}
	if r.Config.ActiveDeadlineSeconds > 0 {
		deadline := int64(r.Config.ActiveDeadlineSeconds)
		pod.Spec.ActiveDeadlineSeconds = &deadline
	}

	created, err := r.Client.CoreV1().Pods(r.Config.Namespace).Create(ctx, pod, metav1.CreateOptions{})
	if err != nil {
		return errortypes.JobAborted("failed to create serving pod: %v", err)
	}
	r.podName = created.Name
	r.started = true
	r.Log.Infow("created serving pod", "pod", r.podName, "namespace", r.Config.Namespace,
		"image", r.Binary.Image())
	return nil
}

func containerPorts(binary serving.Binary) []corev1.ContainerPort {
	var ports []corev1.ContainerPort
	for _, port := range binary.ExposedPorts() {
		ports = append(ports, corev1.ContainerPort{ContainerPort: int32(port)})
	}
	return ports
}

// GetEndpoint returns podIP:port once the pod is running.
func (r *KubernetesRunner) GetEndpoint() (string, error) {
	if !r.started {
		return "", errortypes.IllegalState("pod is not started")
	}
	if r.endpoint == "" {
		return "", errortypes.IllegalState("pod is not running yet")
	}
	return r.endpoint, nil
}

// WaitUntilRunning polls the pod phase until it is running with an IP
// assigned.
func (r *KubernetesRunner) WaitUntilRunning(ctx context.Context, deadline time.Time) error {
	if !r.started {
		return errortypes.IllegalState("pod is not started")
	}
	interval := r.PollInterval
	if interval == 0 {
		interval = time.Second
	}
	for {
		if time.Now().After(deadline) {
			return errortypes.DeadlineExceeded("pod %s is not running before deadline", r.podName)
		}
		pod, err := r.Client.CoreV1().Pods(r.Config.Namespace).Get(ctx, r.podName, metav1.GetOptions{})
		if err != nil {
			if apierrors.IsNotFound(err) {
				return errortypes.JobAborted("pod %s disappeared", r.podName)
			}
			return errortypes.JobAborted("failed to get pod %s: %v", r.podName, err)
		}
		switch pod.Status.Phase {
		case corev1.PodRunning:
			if pod.Status.PodIP != "" {
				r.endpoint = fmt.Sprintf("%s:%d", pod.Status.PodIP, r.Binary.ContainerPort())
				return nil
			}
		case corev1.PodPending:
			// not scheduled or still pulling, keep polling
		case corev1.PodFailed, corev1.PodSucceeded:
			return errortypes.JobAborted("pod %s terminated with phase %q", r.podName, pod.Status.Phase)
		}
		select {
		case <-ctx.Done():
			return errortypes.JobAborted("pod status polling canceled: %v", ctx.Err())
		case <-time.After(interval):
		}
	}
}

// Stop deletes the pod immediately.
func (r *KubernetesRunner) Stop(ctx context.Context) error {
	if !r.started {
		return nil
	}
	gracePeriod := int64(0)
	err := r.Client.CoreV1().Pods(r.Config.Namespace).Delete(ctx, r.podName, metav1.DeleteOptions{
		GracePeriodSeconds: &gracePeriod,
	})
	if err != nil && !apierrors.IsNotFound(err) {
		return err
	}
	r.Log.Infow("deleted serving pod", "pod", r.podName)
	return nil
}
