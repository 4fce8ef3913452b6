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

package util

import (
	"reflect"
	"strings"

	yamlpatch "github.com/krishicks/yaml-patch"
)

// VersionedConfig is the common interface for all recipe schema versions.
type VersionedConfig interface {
	GetVersion() string
	Upgrade() (VersionedConfig, error)
}

// IsOneOfField checks if a field is tagged with oneOf.
func IsOneOfField(field reflect.StructField) bool {
	for _, tag := range strings.Split(field.Tag.Get("yamltags"), ",") {
		tagParts := strings.Split(tag, "=")

		if tagParts[0] == "oneOf" {
			return true
		}
	}
	return false
}

// YamlpatchNode wraps a `yamlpatch.Node`. The yaml serialization needs to be
// implemented manually, because the node may be an arbitrary yaml fragment
// so that a field tag `yaml:",inline"` does not work here.
type YamlpatchNode struct {
	// node is an arbitrary yaml fragment
	Node yamlpatch.Node
}

// MarshalYAML implements yaml.Marshaler.
func (n *YamlpatchNode) MarshalYAML() (interface{}, error) {
	return n.Node.MarshalYAML()
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (n *YamlpatchNode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	return n.Node.UnmarshalYAML(unmarshal)
}
