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
	"strings"

	"github.com/bakerbuild/baker/pkg/baker/constants"
	"github.com/bakerbuild/baker/pkg/baker/schema/latest"
)

// envState accumulates environment changes on top of a base image's
// environment. Entries keep the base image's order, new names are
// appended at the end.
type envState struct {
	entries []string
	index   map[string]int
}

func newEnvState(base []string) *envState {
	s := &envState{index: make(map[string]int)}
	for _, kv := range base {
		name, value := splitEnv(kv)
		s.set(name, value)
	}
	return s
}

func (s *envState) set(name, value string) {
	kv := name + "=" + value
	if pos, present := s.index[name]; present {
		s.entries[pos] = kv
		return
	}
	s.index[name] = len(s.entries)
	s.entries = append(s.entries, kv)
}

func (s *envState) value(name string) string {
	if pos, present := s.index[name]; present {
		_, value := splitEnv(s.entries[pos])
		return value
	}
	return ""
}

// apply folds an env step into the state. An appended value joins the
// variable's current value with the step's separator; appending to an unset
// variable yields just the new value.
func (s *envState) apply(step *latest.EnvStep) {
	if !step.Append {
		s.set(step.Name, step.Value)
		return
	}

	existing := s.value(step.Name)
	if existing == "" {
		s.set(step.Name, step.Value)
		return
	}

	separator := step.Separator
	if separator == "" {
		separator = constants.DefaultEnvSeparator
	}
	s.set(step.Name, existing+separator+step.Value)
}

// resolved returns the accumulated environment as NAME=value entries.
func (s *envState) resolved() []string {
	return append([]string(nil), s.entries...)
}

func splitEnv(kv string) (string, string) {
	parts := strings.SplitN(kv, "=", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
