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
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bakerbuild/baker/pkg/baker/color"
	"github.com/bakerbuild/baker/pkg/baker/config"
	"github.com/bakerbuild/baker/pkg/baker/constants"
	"github.com/bakerbuild/baker/pkg/baker/runner"
	"github.com/bakerbuild/baker/pkg/baker/schema"
	"github.com/bakerbuild/baker/pkg/baker/schema/defaults"
	"github.com/bakerbuild/baker/pkg/baker/schema/latest"
	"github.com/bakerbuild/baker/pkg/baker/schema/validation"
	"github.com/bakerbuild/baker/pkg/baker/version"
)

var (
	opts = &config.BakerOptions{}

	v            string
	defaultColor int
)

// NewBakerCommand returns the root command. Build progress is written to
// out, logs to err.
func NewBakerCommand(out, err io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "baker",
		Short: "A tool that assembles container images from a recipe, without a Dockerfile.",
	}

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		opts.Command = cmd.Use

		if err := SetUpLogs(err, v); err != nil {
			return err
		}

		color.OverwriteDefault(color.Color(defaultColor))
		logrus.Infof("Baker %+v", version.Get())
		return nil
	}

	rootCmd.SilenceErrors = true
	rootCmd.SetOut(out)
	rootCmd.SetErr(err)

	rootCmd.AddCommand(NewCmdBuild(out))
	rootCmd.AddCommand(NewCmdDiagnose(out))
	rootCmd.AddCommand(NewCmdVersion(out))
	rootCmd.AddCommand(NewCmdCompletion(out))

	rootCmd.PersistentFlags().StringVarP(&v, "verbosity", "v", constants.DefaultLogLevel.String(), "Log level (debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().IntVar(&defaultColor, "color", int(color.Default), "Specify the default output color in ANSI escape codes")

	return rootCmd
}

// SetUpLogs routes logrus to the given writer at the given level.
func SetUpLogs(out io.Writer, level string) error {
	logrus.SetOutput(out)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrap(err, "parsing log level")
	}
	logrus.SetLevel(lvl)
	return nil
}

// For tests
var createRunner = newRunner

// newRunner reads the recipe pointed at by the current options and creates
// the runner that will execute it.
func newRunner(opts *config.BakerOptions) (*runner.Runner, *latest.Recipe, error) {
	recipe, err := readRecipe(opts)
	if err != nil {
		return nil, nil, err
	}

	r, err := runner.NewForConfig(opts, recipe)
	if err != nil {
		return nil, nil, errors.Wrap(err, "creating runner")
	}

	return r, recipe, nil
}

// readRecipe parses the recipe file, applies the active profiles, fills in
// the defaults and validates the result.
func readRecipe(opts *config.BakerOptions) (*latest.Recipe, error) {
	parsed, err := schema.ParseRecipe(opts.Filename, true, opts.Profiles)
	if err != nil {
		return nil, errors.Wrap(err, "reading recipe")
	}
	recipe := parsed.(*latest.Recipe)

	appliedProfiles, err := schema.ApplyProfiles(recipe, *opts)
	if err != nil {
		return nil, errors.Wrap(err, "applying profiles")
	}
	logrus.Infof("Using profiles: %v", appliedProfiles)

	if err := defaults.Set(recipe); err != nil {
		return nil, errors.Wrap(err, "setting default values")
	}

	if err := validation.Process(recipe); err != nil {
		return nil, errors.Wrap(err, "invalid recipe")
	}

	return recipe, nil
}
