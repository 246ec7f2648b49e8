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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/kelseyhightower/envconfig"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"sigs.k8s.io/yaml"

	"github.com/kserve/infra-validator/pkg/apis/validation/v1alpha1"
	"github.com/kserve/infra-validator/pkg/downloader"
	"github.com/kserve/infra-validator/pkg/storage"
	"github.com/kserve/infra-validator/pkg/validator"
	"github.com/kserve/infra-validator/pkg/watcher"
)

// validationConfig is the on-disk configuration document.
type validationConfig struct {
	Serving    *v1alpha1.ServingSpec    `json:"serving"`
	Validation *v1alpha1.ValidationSpec `json:"validation,omitempty"`
	Request    *v1alpha1.RequestSpec    `json:"request,omitempty"`
}

// envOptions can also be set through the environment so the binary drops
// into a pod spec without flag plumbing.
type envOptions struct {
	ModelURI    string `envconfig:"MODEL_URI"`
	ModelDir    string `envconfig:"MODEL_DIR" default:"/tmp/infra-validator/models"`
	ExamplesDir string `envconfig:"EXAMPLES_DIR"`
	OutputDir   string `envconfig:"OUTPUT_DIR" default:"."`
	Kubeconfig  string `envconfig:"KUBECONFIG"`
}

func main() {
	var opts envOptions
	if err := envconfig.Process("", &opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	configPath := flag.String("config", "", "path to the validation config file (yaml or json)")
	modelURI := flag.String("model-uri", opts.ModelURI, "storage uri or local path of the model to validate")
	modelName := flag.String("model-name", "", "model name the server loads, last uri segment when empty")
	modelDir := flag.String("model-dir", opts.ModelDir, "local directory models are downloaded into")
	examplesDir := flag.String("examples-dir", opts.ExamplesDir, "directory holding example splits for sample requests")
	outputDir := flag.String("output-dir", opts.OutputDir, "directory the blessing marker is written to")
	kubeconfig := flag.String("kubeconfig", opts.Kubeconfig, "path to a kubeconfig, in-cluster config is used when empty")
	watch := flag.Bool("watch", false, "keep running and validate every new model version under model-uri")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	if *configPath == "" || *modelURI == "" {
		log.Error("both --config and --model-uri are required")
		flag.Usage()
		os.Exit(1)
	}

	config, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalw("failed to load config", "path", *configPath, "error", err)
	}

	if *modelName != "" {
		config.Serving.ModelName = *modelName
	}

	var kubeClient kubernetes.Interface
	if config.Serving.Kubernetes != nil {
		kubeClient, err = newKubeClient(*kubeconfig)
		if err != nil {
			log.Fatalw("failed to build kubernetes client", "error", err)
		}
	}

	v, err := validator.NewValidator(validator.Config{
		Serving:    config.Serving,
		Validation: config.Validation,
		Request:    config.Request,
		Downloader: &downloader.Downloader{
			ModelDir:  *modelDir,
			Providers: map[storage.Protocol]storage.Provider{},
			Logger:    log,
		},
		ExamplesDir: *examplesDir,
		KubeClient:  kubeClient,
		Logger:      log,
	})
	if err != nil {
		log.Fatalw("invalid validation config", "error", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *watch {
		if err := watchAndValidate(ctx, v, *modelURI, *outputDir, log); err != nil {
			log.Fatalw("continuous validation stopped", "error", err)
		}
		return
	}

	blessing, err := v.Validate(ctx, *modelURI)
	if err != nil {
		log.Fatalw("validation aborted", "model", *modelURI, "error", err)
	}
	markerPath, err := validator.WriteBlessing(blessing, *outputDir)
	if err != nil {
		log.Fatalw("failed to write blessing", "error", err)
	}
	log.Infow("validation finished", "model", blessing.ModelName,
		"blessed", blessing.Blessed(), "marker", markerPath)
	if !blessing.Blessed() {
		os.Exit(1)
	}
}

// watchAndValidate validates the export directory again whenever a new
// model version appears under it. The event only triggers the round; the
// server always gets the versioned directory itself, since that is the
// shape it loads models from. Each version gets its own blessing under
// outputDir.
func watchAndValidate(ctx context.Context, v *validator.Validator,
	modelDir string, outputDir string, log *zap.SugaredLogger) error {
	modelName := filepath.Base(filepath.Clean(modelDir))
	w := watcher.NewWatcher(modelDir, modelName, log)

	errCh := make(chan error, 1)
	go func() { errCh <- w.Start(ctx) }()

	for {
		select {
		case <-ctx.Done():
			return <-errCh
		case err := <-errCh:
			return err
		case event := <-w.Events:
			log.Infow("new model version exported",
				"model", event.ModelName, "version", event.Version)
			blessing, err := v.Validate(ctx, modelDir)
			if err != nil {
				log.Errorw("validation aborted",
					"model", event.ModelName, "version", event.Version, "error", err)
				continue
			}
			versionDir := filepath.Join(outputDir, strconv.FormatInt(event.Version, 10))
			markerPath, err := validator.WriteBlessing(blessing, versionDir)
			if err != nil {
				log.Errorw("failed to write blessing",
					"model", event.ModelName, "version", event.Version, "error", err)
				continue
			}
			log.Infow("validation finished", "model", event.ModelName,
				"version", event.Version, "blessed", blessing.Blessed(), "marker", markerPath)
		}
	}
}

func loadConfig(path string) (*validationConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	config := &validationConfig{}
	if err := yaml.Unmarshal(raw, config); err != nil {
		return nil, err
	}
	if config.Serving == nil {
		return nil, fmt.Errorf("config %s has no serving section", path)
	}
	if config.Validation == nil {
		config.Validation = &v1alpha1.ValidationSpec{}
	}
	return config, nil
}

func newKubeClient(kubeconfig string) (kubernetes.Interface, error) {
	var config *rest.Config
	var err error
	if kubeconfig != "" {
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	} else {
		config, err = rest.InClusterConfig()
	}
	if err != nil {
		return nil, err
	}
	return kubernetes.NewForConfig(config)
}
