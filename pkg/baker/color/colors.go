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

// Package color prints user-facing progress to the command's output writer.
// Colors are applied only when the writer is a terminal; logs written through
// logrus never go through this package.
package color

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// IsTerminal will check if the specified output stream is a terminal. This can be changed
// for testing to an arbitrary method.
var IsTerminal = isTerminal

// Color can be used to format text so it can be printed to the terminal in color.
type Color int

var (
	// LightRed can format text to be displayed to the terminal in light red.
	LightRed = Color(91)
	// LightGreen can format text to be displayed to the terminal in light green.
	LightGreen = Color(92)
	// LightYellow can format text to be displayed to the terminal in light yellow.
	LightYellow = Color(93)
	// LightBlue can format text to be displayed to the terminal in light blue.
	LightBlue = Color(94)
	// LightPurple can format text to be displayed to the terminal in light purple.
	LightPurple = Color(95)
	// Red can format text to be displayed to the terminal in red.
	Red = Color(31)
	// Green can format text to be displayed to the terminal in green.
	Green = Color(32)
	// Yellow can format text to be displayed to the terminal in yellow.
	Yellow = Color(33)
	// Blue can format text to be displayed to the terminal in blue.
	Blue = Color(34)
	// Purple can format text to be displayed to the terminal in purple.
	Purple = Color(35)
	// Cyan can format text to be displayed to the terminal in cyan.
	Cyan = Color(36)
	// None uses the default terminal style.
	None = Color(0)

	// Default is the color most output is written with.
	Default = LightBlue
)

// OverwriteDefault overwrites the default color.
func OverwriteDefault(color Color) {
	Default = color
}

// Fprintln outputs the result to out, followed by a newline.
func (c Color) Fprintln(out io.Writer, a ...interface{}) (n int, err error) {
	if c == None || !IsTerminal(out) {
		return fmt.Fprintln(out, a...)
	}

	return fmt.Fprintf(out, "\033[%dm%s\033[0m\n", c, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
}

// Fprintf outputs the result to out.
func (c Color) Fprintf(out io.Writer, format string, a ...interface{}) (n int, err error) {
	if c == None || !IsTerminal(out) {
		return fmt.Fprintf(out, format, a...)
	}

	return fmt.Fprintf(out, "\033[%dm%s\033[0m", c, fmt.Sprintf(format, a...))
}

// Sprintf wraps the result of fmt.Sprintf in the color's escape sequence.
func (c Color) Sprintf(format string, a ...interface{}) string {
	if c == None {
		return fmt.Sprintf(format, a...)
	}

	return fmt.Sprintf("\033[%dm%s\033[0m", c, fmt.Sprintf(format, a...))
}

func isTerminal(w io.Writer) bool {
	file, isFile := w.(*os.File)
	if !isFile {
		return false
	}

	return term.IsTerminal(int(file.Fd()))
}
