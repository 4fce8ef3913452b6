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

package apiversion

import (
	"fmt"
	"regexp"

	"github.com/blang/semver"
)

var re = regexp.MustCompile(`^baker/v(\d)(?:(alpha|beta)(\d))?$`)

// Parse parses a recipe apiVersion, such as `baker/v1alpha1`, into a
// semver.Version. Release tracks map to prerelease identifiers so that
// alpha < beta < final for the same major version.
func Parse(v string) (semver.Version, error) {
	res := re.FindStringSubmatch(v)
	if res == nil {
		return semver.Version{}, fmt.Errorf("%s is an invalid api version", v)
	}
	if res[2] == "" {
		return semver.Parse(fmt.Sprintf("%s.0.0", res[1]))
	}

	return semver.Parse(fmt.Sprintf("%s.0.0-%s.%s", res[1], res[2], res[3]))
}

// MustParse panics on an invalid apiVersion. It is meant for parsing the
// compiled-in version constants.
func MustParse(v string) semver.Version {
	ver, err := Parse(v)
	if err != nil {
		panic(err)
	}

	return ver
}
