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

package latest

import (
	"github.com/bakerbuild/baker/pkg/baker/schema/util"
)

// Version is the current recipe apiVersion.
const Version string = "baker/v1alpha1"

// Valid values for EditStep.OnMissing.
const (
	OnMissingWarn = "warn"
	OnMissingFail = "fail"
	OnMissingSkip = "skip"
)

// NewRecipe creates a new Recipe.
func NewRecipe() util.VersionedConfig {
	return new(Recipe)
}

// Recipe describes how to assemble a set of container images without a
// Dockerfile.
type Recipe struct {
	// APIVersion is the version of the recipe schema. For example:
	// `baker/v1alpha1`.
	APIVersion string `yaml:"apiVersion" yamltags:"required"`

	// Kind is always `Recipe`. Defaults to `Recipe`.
	Kind string `yaml:"kind,omitempty"`

	// Build describes the images to assemble.
	Build BuildConfig `yaml:"build,omitempty"`

	// Profiles are used to override any recipe section for a given context,
	// for example when building on CI or releasing.
	Profiles []Profile `yaml:"profiles,omitempty"`
}

// GetVersion returns the recipe's apiVersion.
func (r *Recipe) GetVersion() string {
	return r.APIVersion
}

// Upgrade returns the recipe itself. There is no later schema version yet.
func (r *Recipe) Upgrade() (util.VersionedConfig, error) {
	return r, nil
}

// BuildConfig contains the images to assemble, in order, and how to tag them.
type BuildConfig struct {
	// Images lists the images to assemble. They are built one after the
	// other, in the order given here.
	Images []*ImageConfig `yaml:"images,omitempty"`

	// TagPolicy determines how images are tagged. A few strategies are
	// provided here, although you most likely want the default `sha256`.
	TagPolicy TagPolicy `yaml:"tagPolicy,omitempty"`

	// InsecureRegistries lists registries declared by the user to be
	// insecure. The remote registry fallback will use http instead of https
	// to reach them.
	InsecureRegistries []string `yaml:"insecureRegistries,omitempty"`
}

// TagPolicy contains all the configuration for the tagging step.
type TagPolicy struct {
	// GitTagger tags images with the git commit of the image's context.
	GitTagger *GitTagger `yaml:"gitCommit,omitempty" yamltags:"oneOf=tag"`

	// ShaTagger tags images with `latest` and relies on the image digest
	// for immutability.
	ShaTagger *ShaTagger `yaml:"sha256,omitempty" yamltags:"oneOf=tag"`

	// EnvTemplateTagger tags images with a configurable template string,
	// executed against the environment. For example: `{{.RELEASE}}`.
	EnvTemplateTagger *EnvTemplateTagger `yaml:"envTemplate,omitempty" yamltags:"oneOf=tag"`

	// DateTimeTagger tags images with the build timestamp.
	DateTimeTagger *DateTimeTagger `yaml:"dateTime,omitempty" yamltags:"oneOf=tag"`
}

// ShaTagger contains the configuration for the sha256 tagger.
type ShaTagger struct{}

// GitTagger contains the configuration for the git tagger.
type GitTagger struct{}

// EnvTemplateTagger tags images by means of a template executed against the
// environment.
type EnvTemplateTagger struct {
	// Template used to produce the image's tag. For example:
	// `{{.RELEASE}}-{{.USER}}`.
	Template string `yaml:"template,omitempty" yamltags:"required"`
}

// DateTimeTagger tags images by the timestamp of the built image.
type DateTimeTagger struct {
	// Format formats the date and time. See
	// [#Time.Format](https://golang.org/pkg/time/#Time.Format).
	// Defaults to `2006-01-02_15-04-05.999_MST`.
	Format string `yaml:"format,omitempty"`

	// TimeZone sets the timezone for the date and time. See
	// [Time.LoadLocation](https://golang.org/pkg/time/#Time.LoadLocation).
	// Defaults to the local timezone.
	TimeZone string `yaml:"timezone,omitempty"`
}

// ImageConfig describes one image to assemble: the base it starts from, the
// ordered steps applied on top and the runtime configuration of the result.
type ImageConfig struct {
	// Image is the name of the image to be built. For example:
	// `bscwdc/dislib`.
	Image string `yaml:"image,omitempty" yamltags:"required"`

	// Base is the reference of the image the assembly starts from. The
	// build aborts when this reference cannot be resolved. For example:
	// `bscwdc/dislib-base:latest`.
	Base string `yaml:"base,omitempty" yamltags:"required"`

	// Context is the directory the copy steps resolve their sources
	// against. Defaults to `.`.
	Context string `yaml:"context,omitempty"`

	// Platform selects the base image's platform. For example:
	// `linux/amd64`. Defaults to the daemon's platform.
	Platform string `yaml:"platform,omitempty"`

	// Pull forces the base image to be pulled again even when it is
	// already present in the daemon. Defaults to `false`.
	Pull bool `yaml:"pull,omitempty"`

	// Steps are applied in the order given here. Each filesystem-mutating
	// step commits one image layer.
	Steps []Step `yaml:"steps,omitempty"`

	// Config is the runtime configuration recorded in the final image.
	Config RuntimeConfig `yaml:"config,omitempty"`
}

// Step is a single assembly step. Exactly one of its fields must be set.
type Step struct {
	// Copy copies files from the image's context into the image.
	Copy *CopyStep `yaml:"copy,omitempty" yamltags:"oneOf=step"`

	// Env sets an environment variable for the remaining steps and the
	// final image.
	Env *EnvStep `yaml:"env,omitempty" yamltags:"oneOf=step"`

	// Run executes a command inside the image and keeps its filesystem
	// changes.
	Run *RunStep `yaml:"run,omitempty" yamltags:"oneOf=step"`

	// Edit rewrites a text file that already exists inside the image.
	Edit *EditStep `yaml:"edit,omitempty" yamltags:"oneOf=step"`
}

// CopyStep copies a file or directory tree from the context into the image.
type CopyStep struct {
	// Src is the file or directory to copy, relative to the image's
	// context. For example: `.`.
	Src string `yaml:"src,omitempty" yamltags:"required"`

	// Dest is the absolute path the source is copied to inside the image.
	// For example: `/dislib`.
	Dest string `yaml:"dest,omitempty" yamltags:"required"`

	// IgnoreFile names the file listing patterns to exclude from the copy.
	// Defaults to `.bakerignore`.
	IgnoreFile string `yaml:"ignoreFile,omitempty"`
}

// EnvStep sets an environment variable. Values are literal strings and are
// never interpreted.
type EnvStep struct {
	// Name of the variable. For example: `LC_ALL`.
	Name string `yaml:"name,omitempty" yamltags:"required"`

	// Value of the variable. For example: `C.UTF-8`.
	Value string `yaml:"value,omitempty"`

	// Append appends the value to the base image's current value instead
	// of replacing it, joined with Separator. An unset variable yields just
	// the value. Defaults to `false`.
	Append bool `yaml:"append,omitempty"`

	// Separator joins the appended value to the current one.
	// Defaults to `:`.
	Separator string `yaml:"separator,omitempty"`
}

// RunStep executes a command inside the image. A non-zero exit status aborts
// the whole build.
type RunStep struct {
	// Shell is a command executed with `/bin/sh -c`. For example:
	// `python3 -m pip install -r /dislib/requirements.txt`.
	Shell string `yaml:"shell,omitempty" yamltags:"oneOf=command"`

	// Exec is a command executed as-is, without a shell.
	Exec []string `yaml:"exec,omitempty" yamltags:"oneOf=command"`
}

// EditStep rewrites a text file inside the image by applying literal
// substitutions in order. The file must exist.
type EditStep struct {
	// Path is the absolute path of the file to rewrite.
	Path string `yaml:"path,omitempty" yamltags:"required"`

	// Replace lists the substitutions to apply, first to last, each
	// replacing every occurrence of its search text.
	Replace []Replacement `yaml:"replace,omitempty" yamltags:"required"`

	// OnMissing sets the policy for substitutions whose search text occurs
	// nowhere in the file: `warn`, `fail` or `skip`. Defaults to `warn`.
	OnMissing string `yaml:"onMissing,omitempty"`
}

// Replacement is a single literal substitution. The search text is not a
// regular expression.
type Replacement struct {
	// Find is the literal text to search for. For example: `>43002<`.
	Find string `yaml:"find,omitempty" yamltags:"required"`

	// With is the literal replacement text. An empty value deletes the
	// found text. For example: `>45000<`.
	With string `yaml:"with,omitempty"`
}

// RuntimeConfig is recorded in the final image's configuration. None of it
// affects the build itself.
type RuntimeConfig struct {
	// User the image runs as. Defaults to the base image's user.
	User string `yaml:"user,omitempty"`

	// Workdir the image starts in. Defaults to the base image's working
	// directory.
	Workdir string `yaml:"workdir,omitempty"`

	// Ports the image declares as exposed, as port or port/protocol.
	// This is pure metadata. For example: `["22"]`.
	Ports []string `yaml:"ports,omitempty"`

	// Entrypoint of the image. Defaults to the base image's entrypoint.
	Entrypoint []string `yaml:"entrypoint,omitempty"`

	// Command the image runs by default, in exec form. For example:
	// `["/usr/sbin/sshd", "-D"]`.
	Command []string `yaml:"command,omitempty"`

	// Env lists extra `NAME=value` entries recorded in the image's
	// configuration without going through an env step.
	Env []string `yaml:"env,omitempty"`

	// Labels attached to the image.
	Labels map[string]string `yaml:"labels,omitempty"`
}

// Profile is used to override any recipe section. The active profiles are
// chosen with the `-p` flag or by activation conditions.
type Profile struct {
	// Name is a unique profile name. For example: `push-release`.
	Name string `yaml:"name,omitempty" yamltags:"required"`

	// Activation criteria by which a profile is auto-activated. The
	// profile is auto-activated if any one of the activations is
	// triggered. An activation is triggered if all of the criteria
	// (env, command) are triggered.
	Activation []Activation `yaml:"activation,omitempty"`

	// Build replaces the main build configuration section-by-section.
	Build BuildConfig `yaml:"build,omitempty"`

	// Patches lists patches applied to the recipe. Patches use the JSON
	// patch notation.
	Patches []JSONPatch `yaml:"patches,omitempty"`
}

// Activation criteria by which a profile is auto-activated.
type Activation struct {
	// Env is a `key=pattern` pair. The profile is auto-activated if an
	// environment variable `key` matches the pattern. For example:
	// `ENV=production`.
	Env string `yaml:"env,omitempty"`

	// Command is a baker command for which the profile is auto-activated.
	// For example: `build`.
	Command string `yaml:"command,omitempty"`
}

// JSONPatch patch to be applied by a profile.
type JSONPatch struct {
	// Op is the operation carried by the patch: `add`, `remove`,
	// `replace`, `move`, `copy` or `test`. Defaults to `replace`.
	Op string `yaml:"op,omitempty"`

	// Path is the position in the yaml where the operation takes place.
	// For example, this targets the base of the first image:
	// `/build/images/0/base`.
	Path string `yaml:"path,omitempty" yamltags:"required"`

	// From is the source position in the yaml, used for `copy` or `move`
	// operations.
	From string `yaml:"from,omitempty"`

	// Value is the value to apply. Can be any portion of yaml.
	Value *util.YamlpatchNode `yaml:"value,omitempty"`
}
