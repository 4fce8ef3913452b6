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

package cmd

import (
	"bytes"
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bakerbuild/baker/cmd/baker/app/flags"
)

var (
	quietFlag       bool
	buildFormatFlag = flags.NewTemplateFlag("{{json .}}", flags.BuildOutput{})
	buildOutputFlag string
)

// NewCmdBuild describes the CLI command to build the recipe's images.
func NewCmdBuild(out io.Writer) *cobra.Command {
	return NewCmd(out, "build").
		WithDescription("Build the images").
		WithLongDescription("Assemble the recipe's images against the local docker daemon, tag them and optionally push them").
		WithCommonFlags().
		WithFlags(func(f *pflag.FlagSet) {
			f.BoolVarP(&quietFlag, "quiet", "q", false, "Suppress the build output and print image built on success. See --output to format output.")
			f.VarP(buildFormatFlag, "output", "o", "Used in conjunction with --quiet flag. "+buildFormatFlag.Usage())
			f.StringVar(&buildOutputFlag, "file-output", "", "Filename to write build images to")
		}).
		NoArgs(doBuild)
}

func doBuild(ctx context.Context, out io.Writer) error {
	buildOut := out
	if quietFlag {
		buildOut = io.Discard
	}

	r, _, err := createRunner(opts)
	if err != nil {
		return err
	}

	bRes, err := r.Build(ctx, buildOut)
	if err != nil {
		return err
	}

	if quietFlag || buildOutputFlag != "" {
		cmdOut := flags.BuildOutput{Builds: bRes}
		var buildOutput bytes.Buffer
		if err := buildFormatFlag.Template().Execute(&buildOutput, cmdOut); err != nil {
			return errors.Wrap(err, "executing template")
		}

		if quietFlag {
			if _, err := out.Write(buildOutput.Bytes()); err != nil {
				return errors.Wrap(err, "writing build output")
			}
		}

		if buildOutputFlag != "" {
			if err := os.WriteFile(buildOutputFlag, buildOutput.Bytes(), 0644); err != nil {
				return errors.Wrapf(err, "writing build output to %s", buildOutputFlag)
			}
		}
	}

	return nil
}
