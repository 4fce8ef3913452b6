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

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/strslice"

	"github.com/bakerbuild/baker/pkg/baker/constants"
	"github.com/bakerbuild/baker/pkg/baker/schema/latest"
)

// runStep executes the step's command in a work container and commits its
// filesystem changes. The container sees the environment accumulated by the
// env steps so far. A non-zero exit status fails the step.
func (s *assembly) runStep(ctx context.Context, step *latest.RunStep) error {
	cmd := step.Exec
	if step.Shell != "" {
		cmd = []string{constants.DefaultShell, "-c", step.Shell}
	}

	create := &container.Config{
		Image: s.current,
		Cmd:   strslice.StrSlice(cmd),
		Env:   s.env.resolved(),
	}
	commit := types.ContainerCommitOptions{Comment: describe(latest.Step{Run: step})}

	return s.commitStep(ctx, create, commit, func(id string) error {
		return s.localDocker.ContainerRun(ctx, s.out, id)
	})
}
