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

package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/docker/go-connections/nat"
	v1 "github.com/google/go-containerregistry/pkg/v1"

	"github.com/bakerbuild/baker/pkg/baker/docker"
	"github.com/bakerbuild/baker/pkg/baker/schema/latest"
	"github.com/bakerbuild/baker/pkg/baker/util"
	"github.com/bakerbuild/baker/pkg/baker/yamltags"
)

var (
	// for testing
	validateYamltags = yamltags.ProcessStruct
)

// Process checks if the recipe is valid and returns all encountered errors
// as a concatenated string.
func Process(config *latest.Recipe) error {
	errs := visitStructs(config, validateYamltags)
	errs = append(errs, validateImageNames(config.Build.Images)...)
	errs = append(errs, validateBaseReferences(config.Build.Images)...)
	errs = append(errs, validateUniqueImages(config.Build.Images)...)
	errs = append(errs, validatePlatforms(config.Build.Images)...)
	errs = append(errs, validatePorts(config.Build.Images)...)
	errs = append(errs, validateEnvEntries(config.Build.Images)...)
	errs = append(errs, validateEditSteps(config.Build.Images)...)

	if len(errs) == 0 {
		return nil
	}

	var messages []string
	for _, err := range errs {
		messages = append(messages, err.Error())
	}
	return fmt.Errorf(strings.Join(messages, " | "))
}

// validateImageNames makes sure the image names are valid base names,
// without tags nor digests.
func validateImageNames(images []*latest.ImageConfig) (errs []error) {
	for _, ic := range images {
		parsed, err := docker.ParseReference(ic.Image)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid image '%s': %v", ic.Image, err))
			continue
		}

		if parsed.Tag != "" {
			errs = append(errs, fmt.Errorf("invalid image '%s': no tag should be specified. Use the tagPolicy instead", ic.Image))
		}

		if parsed.Digest != "" {
			errs = append(errs, fmt.Errorf("invalid image '%s': no digest should be specified. Use the tagPolicy instead", ic.Image))
		}
	}
	return
}

// validateBaseReferences makes sure the base references parse. Unlike image
// names, bases may carry a tag or a digest.
func validateBaseReferences(images []*latest.ImageConfig) (errs []error) {
	for _, ic := range images {
		if ic.Base == "" {
			continue
		}
		if _, err := docker.ParseReference(ic.Base); err != nil {
			errs = append(errs, fmt.Errorf("invalid base '%s' for image %s: %v", ic.Base, ic.Image, err))
		}
	}
	return
}

func validateUniqueImages(images []*latest.ImageConfig) (errs []error) {
	seen := map[string]bool{}
	for _, ic := range images {
		if seen[ic.Image] {
			errs = append(errs, fmt.Errorf("duplicate image %q", ic.Image))
		}
		seen[ic.Image] = true
	}
	return
}

func validatePlatforms(images []*latest.ImageConfig) (errs []error) {
	for _, ic := range images {
		if ic.Platform == "" {
			continue
		}
		if _, err := v1.ParsePlatform(ic.Platform); err != nil {
			errs = append(errs, fmt.Errorf("invalid platform '%s' for image %s: %v", ic.Platform, ic.Image, err))
		}
	}
	return
}

// validatePorts makes sure the exposed ports parse as `port` or
// `port/protocol`.
func validatePorts(images []*latest.ImageConfig) (errs []error) {
	for _, ic := range images {
		for _, p := range ic.Config.Ports {
			proto, port := nat.SplitProtoPort(p)
			if _, err := nat.NewPort(proto, port); err != nil {
				errs = append(errs, fmt.Errorf("invalid port '%s' for image %s: %v", p, ic.Image, err))
				continue
			}
			if !util.StrSliceContains([]string{"tcp", "udp", "sctp"}, strings.ToLower(proto)) {
				errs = append(errs, fmt.Errorf("invalid port '%s' for image %s: unknown protocol '%s'", p, ic.Image, proto))
			}
		}
	}
	return
}

// validateEnvEntries makes sure the runtime config's env entries are
// `NAME=value` pairs.
func validateEnvEntries(images []*latest.ImageConfig) (errs []error) {
	for _, ic := range images {
		for _, kv := range ic.Config.Env {
			if name := strings.SplitN(kv, "=", 2)[0]; name == kv || name == "" {
				errs = append(errs, fmt.Errorf("invalid env entry '%s' for image %s: must be NAME=value", kv, ic.Image))
			}
		}
	}
	return
}

// validateEditSteps makes sure that onMissing is one of `warn`, `fail` or
// `skip` if set.
func validateEditSteps(images []*latest.ImageConfig) (errs []error) {
	for _, ic := range images {
		for _, s := range ic.Steps {
			if s.Edit == nil || s.Edit.OnMissing == "" {
				continue
			}
			switch s.Edit.OnMissing {
			case latest.OnMissingWarn, latest.OnMissingFail, latest.OnMissingSkip:
			default:
				errs = append(errs, fmt.Errorf("image %s has invalid onMissing '%s'. Valid values are 'warn', 'fail' or 'skip'", ic.Image, s.Edit.OnMissing))
			}
		}
	}
	return
}

// visitStructs recursively visits all fields in the config and collects errors found by the visitor
func visitStructs(s interface{}, visitor func(interface{}) error) []error {
	v := reflect.ValueOf(s)
	t := reflect.TypeOf(s)

	switch v.Kind() {
	case reflect.Struct:
		var errs []error
		if err := visitor(v.Interface()); err != nil {
			errs = append(errs, err)
		}

		// also check all fields of the current struct
		for i := 0; i < t.NumField(); i++ {
			if !v.Field(i).CanInterface() {
				continue
			}
			if fieldErrs := visitStructs(v.Field(i).Interface(), visitor); fieldErrs != nil {
				errs = append(errs, fieldErrs...)
			}
		}

		return errs

	case reflect.Slice:
		// for slices check each element
		var errs []error
		for i := 0; i < v.Len(); i++ {
			if elemErrs := visitStructs(v.Index(i).Interface(), visitor); elemErrs != nil {
				errs = append(errs, elemErrs...)
			}
		}
		return errs

	case reflect.Ptr:
		// for pointers check the referenced value
		if v.IsNil() {
			return nil
		}
		return visitStructs(v.Elem().Interface(), visitor)

	default:
		// other values are fine
		return nil
	}
}
