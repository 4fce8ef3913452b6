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

package defaults

import (
	"testing"

	"github.com/bakerbuild/baker/pkg/baker/schema/latest"
	"github.com/bakerbuild/baker/testutil"
)

func TestSetDefaults(t *testing.T) {
	c := &latest.Recipe{
		APIVersion: latest.Version,
		Build: latest.BuildConfig{
			Images: []*latest.ImageConfig{
				{
					Image: "bscwdc/dislib",
					Base:  "bscwdc/dislib-base:latest",
					Steps: []latest.Step{
						{Copy: &latest.CopyStep{Src: ".", Dest: "/dislib"}},
						{Env: &latest.EnvStep{Name: "PYTHONPATH", Value: "/dislib", Append: true}},
						{Env: &latest.EnvStep{Name: "LC_ALL", Value: "C.UTF-8"}},
						{Edit: &latest.EditStep{
							Path:    "/opt/COMPSs/Runtime/configuration/xml/resources/default_resources.xml",
							Replace: []latest.Replacement{{Find: ">4<", With: ">16<"}},
						}},
					},
				},
			},
		},
	}

	err := Set(c)

	testutil.CheckError(t, false, err)
	testutil.CheckDeepEqual(t, "Recipe", c.Kind)
	testutil.CheckDeepEqual(t, latest.TagPolicy{ShaTagger: &latest.ShaTagger{}}, c.Build.TagPolicy)

	image := c.Build.Images[0]
	testutil.CheckDeepEqual(t, ".", image.Context)
	testutil.CheckDeepEqual(t, ".bakerignore", image.Steps[0].Copy.IgnoreFile)
	testutil.CheckDeepEqual(t, ":", image.Steps[1].Env.Separator)
	testutil.CheckDeepEqual(t, "", image.Steps[2].Env.Separator)
	testutil.CheckDeepEqual(t, latest.OnMissingWarn, image.Steps[3].Edit.OnMissing)
}

func TestSetDefaultsKeepsExplicitValues(t *testing.T) {
	c := &latest.Recipe{
		APIVersion: latest.Version,
		Kind:       "Recipe",
		Build: latest.BuildConfig{
			TagPolicy: latest.TagPolicy{EnvTemplateTagger: &latest.EnvTemplateTagger{Template: "{{.RELEASE}}"}},
			Images: []*latest.ImageConfig{
				{
					Image:   "bscwdc/dislib",
					Base:    "bscwdc/dislib-base:latest",
					Context: "dislib",
					Steps: []latest.Step{
						{Copy: &latest.CopyStep{Src: ".", Dest: "/dislib", IgnoreFile: ".dockerignore"}},
						{Env: &latest.EnvStep{Name: "PATH", Value: "/opt/bin", Append: true, Separator: ";"}},
						{Edit: &latest.EditStep{
							Path:      "/etc/motd",
							Replace:   []latest.Replacement{{Find: "a", With: "b"}},
							OnMissing: latest.OnMissingFail,
						}},
					},
				},
			},
		},
	}

	err := Set(c)

	testutil.CheckError(t, false, err)
	testutil.CheckDeepEqual(t, latest.TagPolicy{EnvTemplateTagger: &latest.EnvTemplateTagger{Template: "{{.RELEASE}}"}}, c.Build.TagPolicy)

	image := c.Build.Images[0]
	testutil.CheckDeepEqual(t, "dislib", image.Context)
	testutil.CheckDeepEqual(t, ".dockerignore", image.Steps[0].Copy.IgnoreFile)
	testutil.CheckDeepEqual(t, ";", image.Steps[1].Env.Separator)
	testutil.CheckDeepEqual(t, latest.OnMissingFail, image.Steps[2].Edit.OnMissing)
}
