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

// Package assemble turns a recipe's image configuration into a local docker
// image. Every filesystem step runs in a fresh work container committed on
// top of the previous image, env steps and the runtime config fold into one
// final commit.
package assemble

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/sirupsen/logrus"

	"github.com/bakerbuild/baker/pkg/baker/color"
	"github.com/bakerbuild/baker/pkg/baker/docker"
	"github.com/bakerbuild/baker/pkg/baker/schema/latest"
	"github.com/bakerbuild/baker/pkg/baker/util"
)

// Assembler builds images against a local docker daemon.
type Assembler struct {
	localDocker docker.LocalDaemon
	labels      map[string]string
}

// NewAssembler returns a new Assembler. The given labels are recorded in
// every assembled image, on top of the labels from the recipe.
func NewAssembler(localDocker docker.LocalDaemon, labels map[string]string) *Assembler {
	return &Assembler{
		localDocker: localDocker,
		labels:      labels,
	}
}

// assembly is the state of one image build.
type assembly struct {
	*Assembler
	out      io.Writer
	image    *latest.ImageConfig
	base     *v1.ConfigFile
	platform *v1.Platform
	env      *envState

	// current is the image the next step builds upon.
	current       string
	intermediates []string
}

// Assemble builds the given image and returns the id of the final image.
// Steps run strictly in order and the first failing step aborts the build.
func (a *Assembler) Assemble(ctx context.Context, out io.Writer, image *latest.ImageConfig) (string, error) {
	if _, err := docker.ParseReference(image.Base); err != nil {
		return "", fmt.Errorf("invalid base image reference %q: %w", image.Base, err)
	}

	platform, err := parsePlatform(image.Platform)
	if err != nil {
		return "", err
	}

	s := &assembly{
		Assembler: a,
		out:       out,
		image:     image,
		platform:  platform,
	}

	if err := s.pullBase(ctx); err != nil {
		return "", err
	}

	// Steps build on the image id rather than the tag, so a concurrent
	// re-tag cannot switch the base mid-build.
	baseID, err := a.localDocker.ImageID(ctx, image.Base)
	if err != nil {
		return "", fmt.Errorf("resolving base image %q: %w", image.Base, err)
	}
	if baseID == "" {
		return "", fmt.Errorf("base image %q not found", image.Base)
	}
	s.current = baseID

	base, err := a.localDocker.ConfigFile(ctx, image.Base)
	if err != nil {
		return "", fmt.Errorf("inspecting base image %q: %w", image.Base, err)
	}
	s.base = base
	s.env = newEnvState(base.Config.Env)

	for i, step := range image.Steps {
		color.Default.Fprintf(out, "Step %d/%d: %s\n", i+1, len(image.Steps), describe(step))

		if err := s.applyStep(ctx, step); err != nil {
			s.cleanup(ctx)
			return "", fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	if err := s.configCommit(ctx); err != nil {
		s.cleanup(ctx)
		return "", err
	}

	return s.current, nil
}

// pullBase makes sure the base image is present in the daemon. It is pulled
// when missing, or unconditionally when the image config says so.
func (s *assembly) pullBase(ctx context.Context) error {
	if !s.image.Pull && s.localDocker.ImageExists(ctx, s.image.Base) {
		return nil
	}

	color.Default.Fprintf(s.out, "Pulling base image %s...\n", s.image.Base)

	var platform v1.Platform
	if s.platform != nil {
		platform = *s.platform
	}
	if err := s.localDocker.Pull(ctx, s.out, s.image.Base, platform); err != nil {
		return fmt.Errorf("base image %q: %w", s.image.Base, err)
	}
	return nil
}

func (s *assembly) applyStep(ctx context.Context, step latest.Step) error {
	switch {
	case step.Copy != nil:
		return s.copyStep(ctx, step.Copy)
	case step.Env != nil:
		s.env.apply(step.Env)
		return nil
	case step.Run != nil:
		return s.runStep(ctx, step.Run)
	case step.Edit != nil:
		return s.editStep(ctx, step.Edit)
	default:
		return fmt.Errorf("unknown step type")
	}
}

// commitStep creates a work container from the current image, hands it to
// mutate, and commits the result as the new current image. The work
// container is always removed.
func (s *assembly) commitStep(ctx context.Context, create *container.Config, commit types.ContainerCommitOptions, mutate func(id string) error) error {
	// A recognizable name helps find leftover work containers in `docker ps`.
	id, err := s.localDocker.ContainerCreate(ctx, create, s.platform, "baker-"+util.RandomID())
	if err != nil {
		return fmt.Errorf("creating work container: %w", err)
	}
	defer func() {
		if rmErr := s.localDocker.ContainerRemove(ctx, id); rmErr != nil {
			logrus.Warnf("unable to remove work container %s: %v", id, rmErr)
		}
	}()

	if mutate != nil {
		if err := mutate(id); err != nil {
			return err
		}
	}

	committed, err := s.localDocker.ContainerCommit(ctx, id, commit)
	if err != nil {
		return err
	}

	s.current = committed
	s.intermediates = append(s.intermediates, committed)
	return nil
}

// cleanup removes the images committed by a failed build, newest first so
// that parent layers can be deleted too.
func (s *assembly) cleanup(ctx context.Context) {
	if len(s.intermediates) == 0 {
		return
	}

	images := make([]string, 0, len(s.intermediates))
	for i := len(s.intermediates) - 1; i >= 0; i-- {
		images = append(images, s.intermediates[i])
	}
	if _, err := s.localDocker.Prune(ctx, images, false); err != nil {
		logrus.Debugf("cleaning up intermediate images: %v", err)
	}
}

func describe(step latest.Step) string {
	switch {
	case step.Copy != nil:
		return fmt.Sprintf("copy %s to %s", step.Copy.Src, step.Copy.Dest)
	case step.Env != nil:
		if step.Env.Append {
			return fmt.Sprintf("env %s append %s", step.Env.Name, step.Env.Value)
		}
		return fmt.Sprintf("env %s=%s", step.Env.Name, step.Env.Value)
	case step.Run != nil:
		if step.Run.Shell != "" {
			return "run " + step.Run.Shell
		}
		return "run " + strings.Join(step.Run.Exec, " ")
	case step.Edit != nil:
		return "edit " + step.Edit.Path
	default:
		return "unknown step"
	}
}

func parsePlatform(platform string) (*v1.Platform, error) {
	if platform == "" {
		return nil, nil
	}

	p, err := v1.ParsePlatform(platform)
	if err != nil {
		return nil, fmt.Errorf("parsing platform %q: %w", platform, err)
	}
	return p, nil
}
