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

package warnings

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// Printf prints a user-facing warning. It can be swapped out for tests.
var Printf = logrus.Warnf

// Collect collects warnings during tests.
type Collect struct {
	sync.Mutex
	Warnings []string
}

func (l *Collect) Printf(format string, args ...interface{}) {
	l.Lock()
	defer l.Unlock()

	l.Warnings = append(l.Warnings, fmt.Sprintf(format, args...))
}

func (l *Collect) Get() []string {
	l.Lock()
	defer l.Unlock()

	sort.Strings(l.Warnings)
	return l.Warnings
}
