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
	"crypto/rand"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/bakerbuild/baker/pkg/baker/constants"
)

// RandomID returns an hexadecimal string of 32 random characters.
func RandomID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%x", b)
}

// StrSliceContains returns true if a string slice contains the given string.
func StrSliceContains(sl []string, s string) bool {
	for _, a := range sl {
		if a == s {
			return true
		}
	}
	return false
}

// RemoveFromSlice removes a string from a slice of strings.
func RemoveFromSlice(s []string, target string) []string {
	var updated []string
	for _, v := range s {
		if v != target {
			updated = append(updated, v)
		}
	}
	return updated
}

// CopyStringMap returns a copy of the given map.
func CopyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	copied := make(map[string]string, len(m))
	for k, v := range m {
		copied[k] = v
	}
	return copied
}

// FileExists returns true if the given path points at an existing file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// RegexEqual matches the string 'actual' against a regex compiled from
// 'expected'. If 'expected' is not a valid regex, string comparison is used
// as fallback. A leading `!` negates the match.
func RegexEqual(expected, actual string) bool {
	if strings.HasPrefix(expected, "!") {
		notExpected := expected[1:]

		return !regexMatch(notExpected, actual)
	}

	return regexMatch(expected, actual)
}

func regexMatch(expected, actual string) bool {
	if actual == expected {
		return true
	}

	matcher, err := regexp.Compile(expected)
	if err != nil {
		logrus.Debugf("Considering %s as a string, not a regexp: %v", expected, err)
		return false
	}

	return matcher.MatchString(actual)
}

// IsURL returns true if the given string is a valid http or https url.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Download downloads the content of a url.
func Download(u string) ([]byte, error) {
	if _, err := url.Parse(u); err != nil {
		return nil, errors.Wrapf(err, "invalid url %q", u)
	}

	resp, err := http.Get(u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %s", u, resp.Status)
	}

	return io.ReadAll(resp.Body)
}

// ReadConfiguration reads a recipe. The filename can be a local path, `-` for
// stdin or an http(s) url. When the default recipe file is missing, its .yml
// twin is tried before giving up.
func ReadConfiguration(filename string) ([]byte, error) {
	switch {
	case filename == "":
		return nil, errors.New("filename not specified")
	case filename == "-":
		return io.ReadAll(os.Stdin)
	case IsURL(filename):
		return Download(filename)
	default:
		contents, err := os.ReadFile(filename)
		if err != nil {
			if filename == constants.DefaultRecipeFilename {
				logrus.Infof("Could not open %s: %v", filename, err)
				logrus.Infof("Trying to read from baker.yml instead")
				contents, errIgnored := os.ReadFile("baker.yml")
				if errIgnored != nil {
					// Return original error because it's the one that matters
					return nil, err
				}
				return contents, nil
			}
			return nil, err
		}

		return contents, nil
	}
}
