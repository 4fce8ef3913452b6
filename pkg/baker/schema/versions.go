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

package schema

import (
	"fmt"
	"path/filepath"

	"github.com/imdario/mergo"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"

	"github.com/bakerbuild/baker/pkg/baker/apiversion"
	"github.com/bakerbuild/baker/pkg/baker/schema/latest"
	"github.com/bakerbuild/baker/pkg/baker/schema/util"
	misc "github.com/bakerbuild/baker/pkg/baker/util"
	"github.com/bakerbuild/baker/pkg/baker/yamltags"
)

type APIVersion struct {
	Version string `yaml:"apiVersion"`
}

var schemaVersions = versions{
	{latest.Version, latest.NewRecipe},
}

type version struct {
	apiVersion string
	factory    func() util.VersionedConfig
}

type versions []version

// Find search the constructor for a given api version.
func (v *versions) Find(apiVersion string) (func() util.VersionedConfig, bool) {
	for _, version := range *v {
		if version.apiVersion == apiVersion {
			return version.factory, true
		}
	}

	return nil, false
}

// ParseRecipeFile reads a single recipe file.
func ParseRecipeFile(filename string, upgrade bool) (util.VersionedConfig, error) {
	buf, err := misc.ReadConfiguration(filename)
	if err != nil {
		return nil, errors.Wrap(err, "read recipe")
	}

	apiVersion := &APIVersion{}
	if err := yaml.Unmarshal(buf, apiVersion); err != nil {
		return nil, errors.Wrap(err, "parsing api version")
	}

	factory, present := schemaVersions.Find(apiVersion.Version)
	if !present {
		return nil, errors.Errorf("unknown api version: '%s'", apiVersion.Version)
	}

	cfg := factory()
	if err := yaml.UnmarshalStrict(buf, cfg); err != nil {
		return nil, errors.Wrap(err, "unable to parse recipe")
	}

	if err := yamltags.ProcessStruct(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid recipe")
	}

	if upgrade && cfg.GetVersion() != latest.Version {
		cfg, err = upgradeToLatest(cfg)
		if err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func inImages(image *latest.ImageConfig, images []*latest.ImageConfig) (bool, int) {
	for i, v := range images {
		if image.Image == v.Image {
			return true, i
		}
	}
	return false, -1
}

// ReadAdditionalRecipeFile merges the images of another recipe file into the
// original recipe, when that file exists. Images sharing a name are merged
// field by field, the additional file winning; the others are appended.
func ReadAdditionalRecipeFile(original *latest.Recipe, filename string, upgrade bool) {
	if !misc.FileExists(filename) {
		return
	}

	additionalRecipe, err := ParseRecipeFile(filename, upgrade)
	if err != nil {
		logrus.Warnf("unable to parse %s: %s", filename, err)
		return
	}

	materialized := additionalRecipe.(*latest.Recipe)
	originalImages := original.Build.Images
	newImages := materialized.Build.Images

	for originalIndex, image := range originalImages {
		found, position := inImages(image, newImages)
		if !found {
			continue
		}
		if err := mergo.Merge(originalImages[originalIndex], newImages[position], mergo.WithOverride); err != nil {
			logrus.Warnf("unable to merge configurations from %s: %s", filename, err)
			return
		}
		// mergo merges maps key by key, the labels should be replaced wholesale.
		if newImages[position].Config.Labels != nil {
			originalImages[originalIndex].Config.Labels = misc.CopyStringMap(newImages[position].Config.Labels)
		}
	}

	for newIndex, image := range newImages {
		if found, _ := inImages(image, originalImages); !found {
			originalImages = append(originalImages, newImages[newIndex])
		}
	}
	original.Build.Images = originalImages

	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		marshalled, err := yaml.Marshal(original)
		logrus.Debugf("merged recipe: %s %v", marshalled, err)
	}
}

// ParseRecipe reads a recipe file. Each active profile may bring an
// additional `baker_<profile>.yaml` file next to the main one; their images
// are merged into the recipe.
func ParseRecipe(filename string, upgrade bool, activeProfiles []string) (util.VersionedConfig, error) {
	cfg, err := ParseRecipeFile(filename, upgrade)
	if err != nil {
		return nil, err
	}

	if upgrade {
		materialized := cfg.(*latest.Recipe)
		for _, profile := range activeProfiles {
			directory := filepath.Dir(filename)
			for _, extension := range []string{"yaml", "yml"} {
				profileRecipeFile := filepath.Join(directory, fmt.Sprintf("baker_%s.%s", profile, extension))
				logrus.Debugf("testing if profile %s has recipe file %s", profile, profileRecipeFile)
				ReadAdditionalRecipeFile(materialized, profileRecipeFile, upgrade)
			}
		}
	}

	return cfg, nil
}

// upgradeToLatest upgrades a recipe to the latest version.
func upgradeToLatest(vc util.VersionedConfig) (util.VersionedConfig, error) {
	var err error

	// first, check to make sure config version isn't too new
	version, err := apiversion.Parse(vc.GetVersion())
	if err != nil {
		return nil, errors.Wrap(err, "parsing api version")
	}

	semver := apiversion.MustParse(latest.Version)
	if version.EQ(semver) {
		return vc, nil
	}
	if version.GT(semver) {
		return nil, fmt.Errorf("recipe version %s is too new for this version: upgrade baker", vc.GetVersion())
	}

	logrus.Warnf("recipe version (%s) out of date: upgrading to latest (%s)", vc.GetVersion(), latest.Version)

	for vc.GetVersion() != latest.Version {
		vc, err = vc.Upgrade()
		if err != nil {
			return nil, errors.Wrap(err, "transforming recipe")
		}
	}

	return vc, nil
}
