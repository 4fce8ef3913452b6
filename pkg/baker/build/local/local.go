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
	"context"
	"fmt"
	"io"

	"github.com/bakerbuild/baker/pkg/baker/assemble"
	"github.com/bakerbuild/baker/pkg/baker/build"
	"github.com/bakerbuild/baker/pkg/baker/schema/latest"
	"github.com/bakerbuild/baker/pkg/baker/tag"
)

// Build assembles the images on the host docker daemon and tags each result.
// It streams assembly progress to the writer argument.
func (b *Builder) Build(ctx context.Context, out io.Writer, tagger tag.Tagger, images []*latest.ImageConfig) ([]build.Artifact, error) {
	// Every step runs against a local Docker daemon, even when the result
	// is pushed. Fail fast if Docker is not available.
	if _, err := b.localDocker.ServerVersion(ctx); err != nil {
		return nil, err
	}
	defer b.localDocker.Close()

	labels := b.Labels()
	for k, v := range tagger.Labels() {
		labels[k] = v
	}
	assembler := assemble.NewAssembler(b.localDocker, labels)

	return build.InSequence(ctx, out, tagger, images, func(ctx context.Context, out io.Writer, tagger tag.Tagger, image *latest.ImageConfig) (string, error) {
		return b.buildImage(ctx, out, assembler, tagger, image)
	})
}

// buildImage assembles a single image and returns the reference under which
// it can be addressed: the generated tag, made unique by the image ID for
// daemon-only builds and by the digest for pushed builds.
func (b *Builder) buildImage(ctx context.Context, out io.Writer, assembler *assemble.Assembler, tagger tag.Tagger, image *latest.ImageConfig) (string, error) {
	tag, err := tagger.GenerateFullyQualifiedImageName(image.Context, image.Image)
	if err != nil {
		return "", fmt.Errorf("generating tag for %s: %w", image.Image, err)
	}

	imageID, err := assembler.Assemble(ctx, out, image)
	if err != nil {
		return "", err
	}

	if err := b.localDocker.Tag(ctx, imageID, tag); err != nil {
		return "", fmt.Errorf("tagging %s: %w", tag, err)
	}

	if b.pushImages {
		digest, err := b.localDocker.Push(ctx, out, tag)
		if err != nil {
			return "", err
		}

		return build.TagWithDigest(tag, digest), nil
	}

	return b.localDocker.TagWithImageID(ctx, tag, imageID)
}
