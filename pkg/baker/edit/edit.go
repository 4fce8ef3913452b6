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

// Package edit rewrites file content with ordered literal substitutions.
package edit

import (
	"bytes"
	"fmt"

	"github.com/bakerbuild/baker/pkg/baker/schema/latest"
	"github.com/bakerbuild/baker/pkg/baker/warnings"
)

// A Change records one replacement and how many occurrences it rewrote.
type Change struct {
	Find        string
	Occurrences int
}

// Apply rewrites content by applying each replacement in order, replacing
// every occurrence of its find string. Later replacements see the result of
// earlier ones. A find string absent from the current content is handled
// according to onMissing: fail aborts, skip moves on silently, and warn,
// the default, logs a warning and moves on.
func Apply(path string, content []byte, replacements []latest.Replacement, onMissing string) ([]byte, []Change, error) {
	changes := make([]Change, 0, len(replacements))

	for _, r := range replacements {
		count := bytes.Count(content, []byte(r.Find))
		if count == 0 {
			switch onMissing {
			case latest.OnMissingFail:
				return nil, nil, fmt.Errorf("%q not found in %s", r.Find, path)
			case latest.OnMissingSkip:
			default:
				warnings.Printf("%q not found in %s", r.Find, path)
			}
		} else {
			content = bytes.ReplaceAll(content, []byte(r.Find), []byte(r.With))
		}

		changes = append(changes, Change{Find: r.Find, Occurrences: count})
	}

	return content, changes, nil
}
