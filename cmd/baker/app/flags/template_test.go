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

package flags

import (
	"bytes"
	"testing"

	"github.com/bakerbuild/baker/pkg/baker/build"
	"github.com/bakerbuild/baker/testutil"
)

func TestTemplateFlagJSON(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		flag := NewTemplateFlag("{{json .}}", BuildOutput{})

		var out bytes.Buffer
		err := flag.Template().Execute(&out, BuildOutput{
			Builds: []build.Artifact{{ImageName: "bscwdc/dislib", Tag: "bscwdc/dislib:v0.9.0"}},
		})

		t.CheckNoError(err)
		t.CheckDeepEqual(`{"builds":[{"imageName":"bscwdc/dislib","tag":"bscwdc/dislib:v0.9.0"}]}`, out.String())
	})
}

func TestTemplateFlagSet(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		flag := &TemplateFlag{}

		t.CheckNoError(flag.Set("{{.Builds}}"))
		t.CheckDeepEqual("{{.Builds}}", flag.String())

		err := flag.Set("{{start}} bad template")
		t.CheckError(true, err)
	})
}

func TestTemplateFlagType(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		flag := NewTemplateFlag("{{json .}}", BuildOutput{})

		t.CheckDeepEqual("*flags.TemplateFlag", flag.Type())
	})
}
