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

// Package yamltags enforces `yamltags` struct tags on configuration structs:
//
//	requiredField  string `yamltags:"required"`
//	exclusiveA     *A     `yamltags:"oneOf=group"`
//	exclusiveB     *B     `yamltags:"oneOf=group"`
package yamltags

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// ProcessStruct validates the yamltags of the fields of a struct.
func ProcessStruct(s interface{}) error {
	parentStruct := reflect.Indirect(reflect.ValueOf(s))
	t := parentStruct.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		value := parentStruct.Field(i)

		tags, ok := field.Tag.Lookup("yamltags")
		if !ok {
			continue
		}

		for _, tag := range strings.Split(tags, ",") {
			if err := processTag(tag, value, parentStruct, field); err != nil {
				return err
			}
		}
	}

	return nil
}

func processTag(tag string, value reflect.Value, parent reflect.Value, field reflect.StructField) error {
	parts := strings.SplitN(tag, "=", 2)

	switch parts[0] {
	case "required":
		return processRequired(value, field)
	case "oneOf":
		if len(parts) != 2 {
			return errors.Errorf("invalid oneOf tag: %s", tag)
		}
		return processOneOf(parts[1], value, parent, field)
	default:
		return errors.Errorf("unknown yaml tag: %s", tag)
	}
}

func processRequired(value reflect.Value, field reflect.StructField) error {
	if isZeroValue(value) {
		return errors.Errorf("required value not set: %s", YamlName(field))
	}
	return nil
}

func processOneOf(setName string, value reflect.Value, parent reflect.Value, field reflect.StructField) error {
	if isZeroValue(value) {
		return nil
	}

	for i := 0; i < parent.NumField(); i++ {
		other := parent.Type().Field(i)
		if other.Name == field.Name {
			continue
		}

		tags, ok := other.Tag.Lookup("yamltags")
		if !ok || !strings.Contains(tags, fmt.Sprintf("oneOf=%s", setName)) {
			continue
		}

		if !isZeroValue(parent.Field(i)) {
			return errors.Errorf("only one of %s and %s may be set", YamlName(field), YamlName(other))
		}
	}

	return nil
}

// YamlName returns the field's name as it appears in yaml documents.
func YamlName(field reflect.StructField) string {
	if tag, ok := field.Tag.Lookup("yaml"); ok {
		parts := strings.Split(tag, ",")
		if parts[0] != "" {
			return parts[0]
		}
	}
	return field.Name
}

func isZeroValue(value reflect.Value) bool {
	if value.Kind() == reflect.Invalid {
		return true
	}
	zero := reflect.Zero(value.Type()).Interface()
	return reflect.DeepEqual(zero, value.Interface())
}
