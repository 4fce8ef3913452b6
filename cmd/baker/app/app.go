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

package app

import (
	"context"
	"io"

	"github.com/bakerbuild/baker/cmd/baker/app/cmd"
)

// Run executes the baker CLI. The given context is cancelled on the
// first interrupt so that in-flight builds can clean up after themselves.
func Run(out, stderr io.Writer) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	catchCtrlC(cancel)

	c := cmd.NewBakerCommand(out, stderr)
	return c.ExecuteContext(ctx)
}
