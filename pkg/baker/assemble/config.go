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
	"github.com/docker/docker/api/types/strslice"
	"github.com/docker/go-connections/nat"

	"github.com/bakerbuild/baker/pkg/baker/constants"
)

// configCommit records the image's runtime configuration in one final
// commit: the accumulated environment, the exposed ports, and the recipe's
// config block. Values the recipe leaves out are inherited from the base
// image.
func (s *assembly) configCommit(ctx context.Context) error {
	runtime := s.image.Config

	for _, kv := range runtime.Env {
		name, value := splitEnv(kv)
		s.env.set(name, value)
	}

	ports, err := exposedPorts(s.base.Config.ExposedPorts, runtime.Ports)
	if err != nil {
		return err
	}

	cfg := &container.Config{
		Env:          s.env.resolved(),
		ExposedPorts: ports,
		Labels:       mergeLabels(s.base.Config.Labels, s.labels, runtime.Labels),
		Cmd:          strslice.StrSlice(runtime.Command),
		Entrypoint:   strslice.StrSlice(runtime.Entrypoint),
		WorkingDir:   runtime.Workdir,
		User:         runtime.User,
	}
	if len(cfg.Cmd) == 0 {
		cfg.Cmd = strslice.StrSlice(s.base.Config.Cmd)
	}
	if len(cfg.Entrypoint) == 0 {
		cfg.Entrypoint = strslice.StrSlice(s.base.Config.Entrypoint)
	}
	if cfg.WorkingDir == "" {
		cfg.WorkingDir = s.base.Config.WorkingDir
	}
	if cfg.User == "" {
		cfg.User = s.base.Config.User
	}

	create := &container.Config{Image: s.current}
	commit := types.ContainerCommitOptions{
		Comment: "image config",
		Config:  cfg,
	}
	return s.commitStep(ctx, create, commit, nil)
}

// exposedPorts merges the base image's exposed ports with the recipe's,
// normalized to port/protocol form.
func exposedPorts(base map[string]struct{}, specs []string) (nat.PortSet, error) {
	if len(base) == 0 && len(specs) == 0 {
		return nil, nil
	}

	ports := nat.PortSet{}
	for p := range base {
		ports[nat.Port(p)] = struct{}{}
	}
	for _, spec := range specs {
		proto, port := nat.SplitProtoPort(spec)
		if proto == "" {
			proto = constants.DefaultPortProtocol
		}
		p, err := nat.NewPort(proto, port)
		if err != nil {
			return nil, fmt.Errorf("invalid port %q: %w", spec, err)
		}
		ports[p] = struct{}{}
	}
	return ports, nil
}

func mergeLabels(sets ...map[string]string) map[string]string {
	var merged map[string]string
	for _, set := range sets {
		for k, v := range set {
			if merged == nil {
				merged = make(map[string]string)
			}
			merged[k] = v
		}
	}
	return merged
}
