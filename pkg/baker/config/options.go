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

package config

// BakerOptions are options that are set by command line arguments not
// included in the recipe itself.
type BakerOptions struct {
	// Filename is the path of the recipe file.
	Filename string

	// Command is the baker command being run, used by profile activation.
	Command string

	// Profiles are the profiles to activate. A `-` prefix deactivates a
	// profile that would otherwise be auto-activated.
	Profiles []string

	// ProfileAutoActivation allows profiles to be activated by their
	// activation criteria, not only by name.
	ProfileAutoActivation bool

	// CustomTag overrides the recipe's tag policy with a fixed tag.
	CustomTag string

	// Push uploads the built images to their registries.
	Push bool

	// InsecureRegistries are extra registries to consider insecure,
	// in addition to the recipe's.
	InsecureRegistries []string
}
