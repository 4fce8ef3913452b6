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

package build

import (
	"strings"
)

// TagWithDigest returns a reference that pins the image by the digest it was
// pushed with, so that the tag can later move without changing what the
// reference points to.
func TagWithDigest(tag, digest string) string {
	digestSuffix := "@" + digest
	if strings.HasSuffix(tag, digestSuffix) {
		return tag
	}
	return tag + digestSuffix
}
