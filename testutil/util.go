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
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type FakeReaderCloser struct {
	Err error
}

func (f FakeReaderCloser) Close() error             { return nil }
func (f FakeReaderCloser) Read([]byte) (int, error) { return 0, f.Err }

// T wraps testing.T with helpers that undo their side effects when the
// subtest ends.
type T struct {
	*testing.T
	teardownActions []func()
}

// Run runs f as a subtest wrapped in a T.
func Run(t *testing.T, name string, f func(t *T)) {
	t.Run(name, func(tt *testing.T) {
		t := T{T: tt}
		defer t.RunTeardownActions()
		f(&t)
	})
}

// ForTester is implemented by fakes that need the testing.T they run under,
// such as FakeCmd.
type ForTester interface {
	ForTest(t *testing.T)
}

// Override sets *dest to tmp for the duration of the subtest. dest must be a
// pointer to a package-level variable.
func (t *T) Override(dest, tmp interface{}) {
	if tester, ok := tmp.(ForTester); ok {
		tester.ForTest(t.T)
	}
	teardown, err := override(dest, tmp)
	if err != nil {
		t.Fatalf("temporary override value is invalid: %v", err)
	}
	t.teardownActions = append(t.teardownActions, teardown)
}

// SetEnvs sets environment variables for the duration of the subtest.
func (t *T) SetEnvs(envs map[string]string) {
	reset := SetEnvs(t.T, envs)
	t.teardownActions = append(t.teardownActions, func() { reset(t.T) })
}

// NewTempDir creates a temporary directory removed when the subtest ends.
func (t *T) NewTempDir() *TempDir {
	return NewTempDir(t.T)
}

func (t *T) CheckDeepEqual(expected, actual interface{}, opts ...cmp.Option) {
	t.Helper()
	CheckDeepEqual(t.T, expected, actual, opts...)
}

func (t *T) CheckErrorAndDeepEqual(shouldErr bool, err error, expected, actual interface{}, opts ...cmp.Option) {
	t.Helper()
	CheckErrorAndDeepEqual(t.T, shouldErr, err, expected, actual, opts...)
}

func (t *T) CheckError(shouldErr bool, err error) {
	t.Helper()
	CheckError(t.T, shouldErr, err)
}

func (t *T) CheckNoError(err error) {
	t.Helper()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// CheckErrorContains checks that an error is not nil and contains a given
// message.
func (t *T) CheckErrorContains(message string, err error) {
	t.Helper()
	if err == nil {
		t.Error("expected error, but returned none")
		return
	}
	if !strings.Contains(err.Error(), message) {
		t.Errorf("expected message [%s] not found in error: %v", message, err)
	}
}

// CheckContains checks that a string contains a given substring.
func (t *T) CheckContains(expected, actual string) {
	t.Helper()
	CheckContains(t.T, expected, actual)
}

// RequireNoError fails the subtest immediately on error.
func (t *T) RequireNoError(err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func (t *T) RunTeardownActions() {
	// perform actions in reverse order
	for i := len(t.teardownActions) - 1; i >= 0; i-- {
		t.teardownActions[i]()
	}
}

func override(dest, tmp interface{}) (func(), error) {
	dValue := reflect.ValueOf(dest)
	if dValue.Kind() != reflect.Ptr {
		return nil, fmt.Errorf("destination is not a pointer")
	}

	dElem := dValue.Elem()
	if !dElem.CanSet() {
		return nil, fmt.Errorf("destination is not settable")
	}

	curValue := reflect.New(dElem.Type()).Elem()
	curValue.Set(dElem)

	tValue := reflect.ValueOf(tmp)
	if !tValue.Type().AssignableTo(dElem.Type()) {
		return nil, fmt.Errorf("value has type %v, expected %v", tValue.Type(), dElem.Type())
	}
	dElem.Set(tValue)

	return func() { dElem.Set(curValue) }, nil
}

func CheckContains(t *testing.T, expected, actual string) {
	t.Helper()
	if !strings.Contains(actual, expected) {
		t.Errorf("expected output %s not found in output: %s", expected, actual)
	}
}

func CheckDeepEqual(t *testing.T, expected, actual interface{}, opts ...cmp.Option) {
	t.Helper()
	if diff := cmp.Diff(actual, expected, opts...); diff != "" {
		t.Errorf("%T differ (-got, +want): %s", expected, diff)
	}
}

func CheckErrorAndDeepEqual(t *testing.T, shouldErr bool, err error, expected, actual interface{}, opts ...cmp.Option) {
	t.Helper()
	if err := checkErr(shouldErr, err); err != nil {
		t.Error(err)
		return
	}
	CheckDeepEqual(t, expected, actual, opts...)
}

func CheckError(t *testing.T, shouldErr bool, err error) {
	t.Helper()
	if err := checkErr(shouldErr, err); err != nil {
		t.Error(err)
	}
}

// SetEnvs takes a map of key values to set using os.Setenv and returns
// a function that can be called to reset the envs to their previous values.
func SetEnvs(t *testing.T, envs map[string]string) func(*testing.T) {
	prevEnvs := map[string]string{}
	for key, value := range envs {
		prevEnvs[key] = os.Getenv(key)
		if err := os.Setenv(key, value); err != nil {
			t.Fatalf("error setting env %s: %v", key, err)
		}
	}

	return func(t *testing.T) {
		for key := range envs {
			if err := os.Setenv(key, prevEnvs[key]); err != nil {
				t.Fatalf("error resetting env %s: %v", key, err)
			}
		}
	}
}

func checkErr(shouldErr bool, err error) error {
	if err == nil && shouldErr {
		return fmt.Errorf("expected error, but returned none")
	}
	if err != nil && !shouldErr {
		return fmt.Errorf("unexpected error: %s", err)
	}
	return nil
}
