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

package build

import (
	"context"
	"io"

	"github.com/bakerbuild/baker/pkg/baker/schema/latest"
	"github.com/bakerbuild/baker/pkg/baker/tag"
)

// Artifact is the result corresponding to each successful build.
type Artifact struct {
	ImageName string `json:"imageName"`
	Tag       string `json:"tag"`
}

// Builder is an interface to the Build API of baker. It must build and make
// the resulting images accessible, either in the local daemon or in a
// registry.
type Builder interface {
	// Labels returns labels to attach to images built by this builder
	Labels() map[string]string

	Build(ctx context.Context, out io.Writer, tagger tag.Tagger, images []*latest.ImageConfig) ([]Artifact, error)
}
