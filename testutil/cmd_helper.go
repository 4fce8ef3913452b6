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

package testutil

import (
	"fmt"
	"os/exec"
	"strings"
	"testing"
)

// FakeCmd replaces util.DefaultExecCommand with a sequence of expected
// command lines and canned outputs.
type FakeCmd struct {
	t    *testing.T
	runs []run
}

type run struct {
	command string
	output  []byte
	err     error
}

func newFakeCmd() *FakeCmd {
	return &FakeCmd{}
}

// CmdRunOut expects a command to be run with RunCmdOut and return output.
func CmdRunOut(command string, output string) *FakeCmd {
	return newFakeCmd().AndRunOut(command, output)
}

// CmdRunOutErr expects a command to be run with RunCmdOut and fail.
func CmdRunOutErr(command string, output string, err error) *FakeCmd {
	return newFakeCmd().AndRunOutErr(command, output, err)
}

func (c *FakeCmd) AndRunOut(command string, output string) *FakeCmd {
	return c.addRun(run{command: command, output: []byte(output)})
}

func (c *FakeCmd) AndRunOutErr(command string, output string, err error) *FakeCmd {
	return c.addRun(run{command: command, output: []byte(output), err: err})
}

func (c *FakeCmd) addRun(r run) *FakeCmd {
	c.runs = append(c.runs, r)
	return c
}

func (c *FakeCmd) popRun() (*run, error) {
	if len(c.runs) == 0 {
		return nil, fmt.Errorf("no more run expected")
	}

	run := c.runs[0]
	c.runs = c.runs[1:]
	return &run, nil
}

// ForTest registers a cleanup that verifies every expected command was run.
func (c *FakeCmd) ForTest(t *testing.T) {
	c.t = t
	t.Cleanup(func() {
		if len(c.runs) > 0 {
			t.Fatalf("expected commands were not run: %v", c.runs)
		}
	})
}

func (c *FakeCmd) RunCmdOut(cmd *exec.Cmd) ([]byte, error) {
	command := strings.Join(cmd.Args, " ")

	r, err := c.popRun()
	if err != nil {
		c.t.Fatalf("unable to run RunCmdOut() with command %q", command)
	}

	if r.command != command {
		c.t.Errorf("expected: %s. Got: %s", r.command, command)
	}

	return r.output, r.err
}
