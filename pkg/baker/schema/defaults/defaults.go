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

package defaults

import (
	"github.com/sirupsen/logrus"

	"github.com/bakerbuild/baker/pkg/baker/constants"
	"github.com/bakerbuild/baker/pkg/baker/schema/latest"
)

// Set makes sure the recipe is complete: any missing value is replaced by
// its default.
func Set(c *latest.Recipe) error {
	if c.Kind == "" {
		c.Kind = "Recipe"
	}

	defaultToShaTagPolicy(c)

	for _, image := range c.Build.Images {
		setDefaultContext(image)

		for i := range image.Steps {
			step := &image.Steps[i]

			switch {
			case step.Copy != nil:
				setDefaultIgnoreFile(step.Copy)
			case step.Env != nil:
				setDefaultSeparator(step.Env)
			case step.Edit != nil:
				setDefaultOnMissing(step.Edit)
			}
		}
	}

	return nil
}

func defaultToShaTagPolicy(c *latest.Recipe) {
	if c.Build.TagPolicy == (latest.TagPolicy{}) {
		logrus.Debugf("Defaulting tag policy to sha256 tagger")
		c.Build.TagPolicy = latest.TagPolicy{ShaTagger: &latest.ShaTagger{}}
	}
}

func setDefaultContext(image *latest.ImageConfig) {
	if image.Context == "" {
		image.Context = "."
	}
}

func setDefaultIgnoreFile(copy *latest.CopyStep) {
	if copy.IgnoreFile == "" {
		copy.IgnoreFile = constants.DefaultIgnoreFile
	}
}

func setDefaultSeparator(env *latest.EnvStep) {
	if env.Append && env.Separator == "" {
		env.Separator = constants.DefaultEnvSeparator
	}
}

func setDefaultOnMissing(edit *latest.EditStep) {
	if edit.OnMissing == "" {
		edit.OnMissing = latest.OnMissingWarn
	}
}
