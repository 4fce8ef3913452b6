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

package tag

import (
	"testing"

	"github.com/bakerbuild/baker/testutil"
)

func TestCustomTag_GenerateFullyQualifiedImageName(t *testing.T) {
	testutil.Run(t, "custom tag", func(t *testutil.T) {
		tag, err := (&CustomTag{Tag: "v0.9.0-rc1"}).GenerateFullyQualifiedImageName(".", "bscwdc/dislib")

		t.CheckErrorAndDeepEqual(false, err, "bscwdc/dislib:v0.9.0-rc1", tag)
	})

	testutil.Run(t, "empty tag", func(t *testutil.T) {
		_, err := (&CustomTag{}).GenerateFullyQualifiedImageName(".", "bscwdc/dislib")

		t.CheckError(true, err)
	})
}
