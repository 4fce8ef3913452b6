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

package version

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/blang/semver"
	"github.com/pkg/errors"

	"github.com/bakerbuild/baker/pkg/baker/schema/latest"
)

var version, gitCommit, buildDate string
var platform = fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)

type Info struct {
	Version       string
	ConfigVersion string
	GitCommit     string
	BuildDate     string
	GoVersion     string
	Compiler      string
	Platform      string
}

// Get returns the version and buildtime information about the binary.
// Can be overridden for tests.
var Get = func() *Info {
	// These variables typically come from -ldflags settings and in their
	// absence fallback to the empty string
	return &Info{
		Version:       version,
		ConfigVersion: latest.Version,
		GitCommit:     gitCommit,
		BuildDate:     buildDate,
		GoVersion:     runtime.Version(),
		Compiler:      runtime.Compiler,
		Platform:      platform,
	}
}

// ParseVersion parses a version string, with or without a leading 'v'.
func ParseVersion(version string) (semver.Version, error) {
	// Strip the leading 'v' in our version strings
	version = strings.TrimPrefix(strings.TrimSpace(version), "v")
	parsed, err := semver.Parse(version)
	if err != nil {
		return semver.Version{}, errors.Wrap(err, "parsing semver")
	}

	return parsed, nil
}

// UserAgent is the value baker sends as the `User-Agent` http header.
func UserAgent() string {
	return fmt.Sprintf("baker/%s", version)
}
