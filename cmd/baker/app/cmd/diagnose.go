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
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v2"

	"github.com/bakerbuild/baker/pkg/baker/color"
	"github.com/bakerbuild/baker/pkg/baker/version"
)

// NewCmdDiagnose describes the CLI command to diagnose the recipe.
func NewCmdDiagnose(out io.Writer) *cobra.Command {
	return NewCmd(out, "diagnose").
		WithDescription("Diagnose the recipe").
		WithLongDescription("Print the effective recipe and check that every base image resolves").
		WithCommonFlags().
		NoArgs(doDiagnose)
}

func doDiagnose(ctx context.Context, out io.Writer) error {
	r, recipe, err := createRunner(opts)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Baker version:", version.Get().Version)
	fmt.Fprintln(out, "Recipe version:", recipe.APIVersion)
	fmt.Fprintln(out, "Number of images:", len(recipe.Build.Images))

	if err := r.DiagnoseImages(ctx, out); err != nil {
		return errors.Wrap(err, "running diagnostic on images")
	}

	color.Blue.Fprintln(out, "\nConfiguration")
	buf, err := yaml.Marshal(recipe)
	if err != nil {
		return errors.Wrap(err, "marshalling configuration")
	}
	out.Write(buf)

	return nil
}
