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

package runner

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/bakerbuild/baker/pkg/baker/build"
	"github.com/bakerbuild/baker/pkg/baker/build/local"
	"github.com/bakerbuild/baker/pkg/baker/color"
	"github.com/bakerbuild/baker/pkg/baker/config"
	"github.com/bakerbuild/baker/pkg/baker/docker"
	"github.com/bakerbuild/baker/pkg/baker/schema/latest"
	"github.com/bakerbuild/baker/pkg/baker/tag"
)

// Runner is responsible for running the baker build pipeline.
type Runner struct {
	builder     build.Builder
	tagger      tag.Tagger
	localDocker docker.LocalDaemon
	recipe      *latest.Recipe
}

// runContext narrows the command line options and the recipe down to what
// the build layers need.
type runContext struct {
	opts               *config.BakerOptions
	insecureRegistries map[string]bool
}

func (rc *runContext) GetInsecureRegistries() map[string]bool { return rc.insecureRegistries }
func (rc *runContext) PushImages() bool                       { return rc.opts.Push }

// NewForConfig returns a new Runner for a given recipe.
func NewForConfig(opts *config.BakerOptions, recipe *latest.Recipe) (*Runner, error) {
	tagger, err := getTagger(recipe.Build.TagPolicy, opts.CustomTag)
	if err != nil {
		return nil, errors.Wrap(err, "parsing tag config")
	}

	// combine the provided lists of insecure registries into a map
	var regList []string
	regList = append(regList, opts.InsecureRegistries...)
	regList = append(regList, recipe.Build.InsecureRegistries...)
	insecureRegistries := make(map[string]bool, len(regList))
	for _, r := range regList {
		insecureRegistries[r] = true
	}

	runCtx := &runContext{
		opts:               opts,
		insecureRegistries: insecureRegistries,
	}

	logrus.Debugln("Using builder: local")
	builder, err := local.NewBuilder(runCtx)
	if err != nil {
		return nil, errors.Wrap(err, "parsing build config")
	}

	localDocker, err := docker.NewAPIClient(runCtx)
	if err != nil {
		return nil, errors.Wrap(err, "getting docker client")
	}

	return &Runner{
		builder:     builder,
		tagger:      tagger,
		localDocker: localDocker,
		recipe:      recipe,
	}, nil
}

// Build assembles every image of the recipe, in order.
func (r *Runner) Build(ctx context.Context, out io.Writer) ([]build.Artifact, error) {
	return r.builder.Build(ctx, out, r.tagger, r.recipe.Build.Images)
}

// DiagnoseImages prints, for every image of the recipe, how its base image
// resolves. Bases absent from the local daemon are read from their remote
// registry without being pulled.
func (r *Runner) DiagnoseImages(ctx context.Context, out io.Writer) error {
	for _, image := range r.recipe.Build.Images {
		color.Default.Fprintf(out, "\n%s\n", image.Image)
		fmt.Fprintln(out, " - Base:", image.Base)

		cfg, err := r.localDocker.ConfigFile(ctx, image.Base)
		if err != nil {
			return errors.Wrapf(err, "resolving base image %q", image.Base)
		}

		fmt.Fprintln(out, " - Base env:", len(cfg.Config.Env), "variables")
		fmt.Fprintln(out, " - Base cmd:", strings.Join(cfg.Config.Cmd, " "))
		fmt.Fprintln(out, " - Steps:", len(image.Steps))
	}

	return nil
}

func getTagger(t latest.TagPolicy, customTag string) (tag.Tagger, error) {
	switch {
	case customTag != "":
		return &tag.CustomTag{
			Tag: customTag,
		}, nil

	case t.EnvTemplateTagger != nil:
		return tag.NewEnvTemplateTagger(t.EnvTemplateTagger.Template)

	case t.ShaTagger != nil:
		return &tag.ChecksumTagger{}, nil

	case t.GitTagger != nil:
		return &tag.GitCommit{}, nil

	case t.DateTimeTagger != nil:
		return tag.NewDateTimeTagger(t.DateTimeTagger.Format, t.DateTimeTagger.TimeZone), nil

	default:
		return nil, fmt.Errorf("unknown tagger for strategy %+v", t)
	}
}
