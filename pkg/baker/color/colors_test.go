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

package color

import (
	"bytes"
	"io"
	"testing"

	"github.com/bakerbuild/baker/testutil"
)

func compareText(t *testing.T, expected, actual string, expectedN int, actualN int, err error) {
	t.Helper()
	if err != nil {
		t.Errorf("did not expect error when formatting text. %s", err)
	}
	if actual != expected {
		t.Errorf("formatting not applied to text. Expected %q but got %q", expected, actual)
	}
	if actualN != expectedN {
		t.Errorf("expected formatter to have written %d bytes but wrote %d", expectedN, actualN)
	}
}

func TestFprintlnOnTerminal(t *testing.T) {
	defer func(f func(io.Writer) bool) { IsTerminal = f }(IsTerminal)
	IsTerminal = func(_ io.Writer) bool { return true }

	var b bytes.Buffer
	n, err := Green.Fprintln(&b, "It's", "not", "easy", "being", "green")

	compareText(t, "\033[32mIt's not easy being green\033[0m\n", b.String(), 30, n, err)
}

func TestFprintfOnTerminal(t *testing.T) {
	defer func(f func(io.Writer) bool) { IsTerminal = f }(IsTerminal)
	IsTerminal = func(_ io.Writer) bool { return true }

	var b bytes.Buffer
	n, err := Green.Fprintf(&b, "It's been %d %s", 1, "week")

	compareText(t, "\033[32mIt's been 1 week\033[0m", b.String(), 25, n, err)
}

func TestFprintlnNotOnTerminal(t *testing.T) {
	var b bytes.Buffer
	n, err := Green.Fprintln(&b, "It's", "not", "easy", "being", "green")

	compareText(t, "It's not easy being green\n", b.String(), 26, n, err)
}

func TestFprintfNotOnTerminal(t *testing.T) {
	var b bytes.Buffer
	n, err := Green.Fprintf(&b, "It's been %d %s", 1, "week")

	compareText(t, "It's been 1 week", b.String(), 16, n, err)
}

func TestFprintlnNoColorOnTerminal(t *testing.T) {
	defer func(f func(io.Writer) bool) { IsTerminal = f }(IsTerminal)
	IsTerminal = func(_ io.Writer) bool { return true }

	var b bytes.Buffer
	n, err := None.Fprintln(&b, "It's", "not", "easy", "being", "green")

	compareText(t, "It's not easy being green\n", b.String(), 26, n, err)
}

func TestSprintf(t *testing.T) {
	testutil.CheckDeepEqual(t, "\033[32mgreen\033[0m", Green.Sprintf("%s", "green"))
	testutil.CheckDeepEqual(t, "plain", None.Sprintf("%s", "plain"))
}

func TestOverwriteDefault(t *testing.T) {
	defer OverwriteDefault(Default)

	testutil.CheckDeepEqual(t, LightBlue, Default)
	OverwriteDefault(Red)
	testutil.CheckDeepEqual(t, Red, Default)
}
