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

package constants

import (
	"github.com/sirupsen/logrus"
)

const (
	// DefaultLogLevel is the default global verbosity
	DefaultLogLevel = logrus.WarnLevel

	// DefaultRecipeFilename is the recipe read when no -f flag is given
	DefaultRecipeFilename = "baker.yaml"

	// DefaultIgnoreFile lists patterns excluded from copy steps
	DefaultIgnoreFile = ".bakerignore"

	// DefaultEnvSeparator joins an appended env value to the base image's value
	DefaultEnvSeparator = ":"

	// DefaultPortProtocol is assumed when a port spec carries no protocol
	DefaultPortProtocol = "tcp"

	// DefaultShell wraps run steps given in shell form
	DefaultShell = "/bin/sh"
)

var (
	// Labels are attached to images built by baker
	Labels = struct {
		Builder   string
		TagPolicy string
	}{
		Builder:   "dev.bakerbuild/builder",
		TagPolicy: "dev.bakerbuild/tag-policy",
	}
)
