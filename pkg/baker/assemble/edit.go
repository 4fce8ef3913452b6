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
	"fmt"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"

	"github.com/bakerbuild/baker/pkg/baker/edit"
	"github.com/bakerbuild/baker/pkg/baker/schema/latest"
)

// editStep rewrites a file that already exists in the image. The file is
// read out of a work container, substituted, and written back before the
// commit. A missing file fails the step no matter the onMissing policy.
func (s *assembly) editStep(ctx context.Context, step *latest.EditStep) error {
	create := &container.Config{Image: s.current}
	commit := types.ContainerCommitOptions{Comment: describe(latest.Step{Edit: step})}

	return s.commitStep(ctx, create, commit, func(id string) error {
		content, err := s.localDocker.CopyFileFromContainer(ctx, id, step.Path)
		if err != nil {
			return fmt.Errorf("reading %q from image: %w", step.Path, err)
		}

		edited, changes, err := edit.Apply(step.Path, content, step.Replace, step.OnMissing)
		if err != nil {
			return err
		}
		for _, change := range changes {
			if change.Occurrences == 0 {
				continue
			}
			fmt.Fprintf(s.out, " - replaced %d occurrence(s) of %q\n", change.Occurrences, change.Find)
		}

		return s.localDocker.WriteFileToContainer(ctx, id, step.Path, edited)
	})
}
