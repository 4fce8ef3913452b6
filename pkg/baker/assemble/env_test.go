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

package assemble

import (
	"testing"

	"github.com/bakerbuild/baker/pkg/baker/schema/latest"
	"github.com/bakerbuild/baker/testutil"
)

func TestEnvState(t *testing.T) {
	tests := []struct {
		description string
		base        []string
		steps       []latest.EnvStep
		expected    []string
	}{
		{
			description: "set a new variable",
			steps:       []latest.EnvStep{{Name: "LC_ALL", Value: "C.UTF-8"}},
			expected:    []string{"LC_ALL=C.UTF-8"},
		},
		{
			description: "overwrite keeps the position",
			base:        []string{"LANG=C", "TERM=xterm"},
			steps:       []latest.EnvStep{{Name: "LANG", Value: "C.UTF-8"}},
			expected:    []string{"LANG=C.UTF-8", "TERM=xterm"},
		},
		{
			description: "append to a base value",
			base:        []string{"PYTHONPATH=/opt/COMPSs/Bindings/python/3"},
			steps:       []latest.EnvStep{{Name: "PYTHONPATH", Value: "/dislib", Append: true, Separator: ":"}},
			expected:    []string{"PYTHONPATH=/opt/COMPSs/Bindings/python/3:/dislib"},
		},
		{
			description: "append to an unset variable yields just the value",
			steps:       []latest.EnvStep{{Name: "PYTHONPATH", Value: "/dislib", Append: true, Separator: ":"}},
			expected:    []string{"PYTHONPATH=/dislib"},
		},
		{
			description: "append to an empty value yields just the value",
			base:        []string{"PYTHONPATH="},
			steps:       []latest.EnvStep{{Name: "PYTHONPATH", Value: "/dislib", Append: true, Separator: ":"}},
			expected:    []string{"PYTHONPATH=/dislib"},
		},
		{
			description: "append twice",
			base:        []string{"PYTHONPATH=/base"},
			steps: []latest.EnvStep{
				{Name: "PYTHONPATH", Value: "/dislib", Append: true, Separator: ":"},
				{Name: "PYTHONPATH", Value: "/extra", Append: true, Separator: ":"},
			},
			expected: []string{"PYTHONPATH=/base:/dislib:/extra"},
		},
		{
			description: "append falls back to the default separator",
			base:        []string{"PYTHONPATH=/base"},
			steps:       []latest.EnvStep{{Name: "PYTHONPATH", Value: "/dislib", Append: true}},
			expected:    []string{"PYTHONPATH=/base:/dislib"},
		},
		{
			description: "custom separator",
			base:        []string{"CLASSPATH=a.jar"},
			steps:       []latest.EnvStep{{Name: "CLASSPATH", Value: "b.jar", Append: true, Separator: ";"}},
			expected:    []string{"CLASSPATH=a.jar;b.jar"},
		},
		{
			description: "values are literal",
			base:        []string{"HOME=/root"},
			steps:       []latest.EnvStep{{Name: "COMPSS_HOME", Value: "$HOME/COMPSs"}},
			expected:    []string{"HOME=/root", "COMPSS_HOME=$HOME/COMPSs"},
		},
		{
			description: "base entry without a value",
			base:        []string{"ORPHAN"},
			expected:    []string{"ORPHAN="},
		},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			env := newEnvState(test.base)
			for i := range test.steps {
				env.apply(&test.steps[i])
			}

			t.CheckDeepEqual(test.expected, env.resolved())
		})
	}
}
