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
	"fmt"
	"io"

	"github.com/bakerbuild/baker/pkg/baker/color"
	"github.com/bakerbuild/baker/pkg/baker/schema/latest"
	"github.com/bakerbuild/baker/pkg/baker/tag"
)

type imageBuilder func(ctx context.Context, out io.Writer, tagger tag.Tagger, image *latest.ImageConfig) (string, error)

// InSequence builds a list of images in sequence. The first failure aborts
// the build and images that were already built stay available.
func InSequence(ctx context.Context, out io.Writer, tagger tag.Tagger, images []*latest.ImageConfig, buildImage imageBuilder) ([]Artifact, error) {
	var builds []Artifact

	for _, image := range images {
		color.Default.Fprintf(out, "Building [%s]...\n", image.Image)

		tag, err := buildImage(ctx, out, tagger, image)
		if err != nil {
			return nil, fmt.Errorf("building [%s]: %w", image.Image, err)
		}

		builds = append(builds, Artifact{
			ImageName: image.Image,
			Tag:       tag,
		})
	}

	return builds, nil
}
