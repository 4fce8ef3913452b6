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
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"

	"github.com/bakerbuild/baker/pkg/baker/constants"
)

var AllFlags = []*flag.FlagSet{
	commonFlagSet("common"),
	buildFlagSet("build"),
}

func commonFlagSet(name string) *flag.FlagSet {
	commonFlags := flag.NewFlagSet(name, flag.ContinueOnError)
	commonFlags.StringVarP(&opts.Filename, "filename", "f", constants.DefaultRecipeFilename, "Filename or URL to the recipe file")
	commonFlags.StringArrayVarP(&opts.Profiles, "profile", "p", nil, "Activate profiles by name")
	commonFlags.BoolVar(&opts.ProfileAutoActivation, "profile-auto-activation", true, "Set to false to skip profile auto activation")
	commonFlags.VisitAll(func(flag *flag.Flag) {
		commonFlags.SetAnnotation(flag.Name, "cmds", []string{"build", "diagnose"})
	})
	return commonFlags
}

func buildFlagSet(name string) *flag.FlagSet {
	buildFlags := flag.NewFlagSet(name, flag.ContinueOnError)
	buildFlags.BoolVar(&opts.Push, "push", false, "Push the built images to their registries")
	buildFlags.StringVarP(&opts.CustomTag, "tag", "t", "", "Custom tag for the built images, overriding the recipe's tag policy")
	buildFlags.StringArrayVar(&opts.InsecureRegistries, "insecure-registry", nil, "Target registries for built images which are not secure")
	buildFlags.VisitAll(func(flag *flag.Flag) {
		buildFlags.SetAnnotation(flag.Name, "cmds", []string{"build"})
	})
	return buildFlags
}

// AddFlags adds to the command the flags that are annotated with its name.
func AddFlags(cmd *cobra.Command) {
	for _, flagSet := range AllFlags {
		flagSet.VisitAll(func(flag *flag.Flag) {
			if hasCmdAnnotation(cmd.Use, flag.Annotations["cmds"]) {
				cmd.Flags().AddFlag(flag)
			}
		})
	}
}

func hasCmdAnnotation(cmdName string, annotations []string) bool {
	for _, a := range annotations {
		if cmdName == a || a == "all" {
			return true
		}
	}
	return false
}
