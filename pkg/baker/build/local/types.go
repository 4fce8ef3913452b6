/*
Copyright 2024 The Baker Authors

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

package local

import (
	"fmt"

	"github.com/bakerbuild/baker/pkg/baker/constants"
	"github.com/bakerbuild/baker/pkg/baker/docker"
)

// Builder uses the host docker daemon to assemble and tag the images.
type Builder struct {
	localDocker docker.LocalDaemon
	pushImages  bool
}

// Config is the interface the local builder needs from the run configuration.
type Config interface {
	docker.Config

	PushImages() bool
}

// NewBuilder returns a new instance of a local Builder.
func NewBuilder(cfg Config) (*Builder, error) {
	localDocker, err := docker.NewAPIClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("getting docker client: %w", err)
	}

	return &Builder{
		localDocker: localDocker,
		pushImages:  cfg.PushImages(),
	}, nil
}

// Labels are labels specific to local builder.
func (b *Builder) Labels() map[string]string {
	return map[string]string{
		constants.Labels.Builder: "local",
	}
}
