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

package assemble

import (
	"context"
	"path"
	"path/filepath"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/sirupsen/logrus"

	"github.com/bakerbuild/baker/pkg/baker/docker"
	"github.com/bakerbuild/baker/pkg/baker/schema/latest"
	"github.com/bakerbuild/baker/pkg/baker/warnings"
)

// copyStep transfers the step's source tree into a work container and
// commits the result. The source resolves against the image's context, a
// relative destination resolves against the base image's working directory.
func (s *assembly) copyStep(ctx context.Context, step *latest.CopyStep) error {
	root := step.Src
	if !filepath.IsAbs(root) {
		root = filepath.Join(s.image.Context, root)
	}

	paths, err := docker.CopiedFiles(root, step.IgnoreFile)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		warnings.Printf("no files to copy from %s", root)
	}

	dest := step.Dest
	if !path.IsAbs(dest) {
		workdir := s.base.Config.WorkingDir
		if workdir == "" {
			workdir = "/"
		}
		dest = path.Join(workdir, dest)
	}
	logrus.Debugf("copying %d files to %s", len(paths), dest)

	create := &container.Config{Image: s.current}
	commit := types.ContainerCommitOptions{Comment: describe(latest.Step{Copy: step})}

	return s.commitStep(ctx, create, commit, func(id string) error {
		return s.localDocker.CopyToContainer(ctx, id, dest, root, paths)
	})
}
