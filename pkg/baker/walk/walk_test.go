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

package walk

import (
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/bakerbuild/baker/testutil"
)

func relative(t *testing.T, root string, paths []string) []string {
	t.Helper()

	var rel []string
	for _, path := range paths {
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			t.Fatal(err)
		}
		rel = append(rel, filepath.ToSlash(relPath))
	}
	sort.Strings(rel)
	return rel
}

func TestCollectPaths(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		tmpDir := t.NewTempDir().
			Touch("file1", "sub/file2", "sub/deeper/file3")

		paths, err := From(tmpDir.Root()).Unsorted().WhenIsFile().CollectPaths()

		t.CheckErrorAndDeepEqual(false, err, []string{
			"file1", "sub/deeper/file3", "sub/file2",
		}, relative(t.T, tmpDir.Root(), paths))
	})
}

func TestCollectPathsWithPredicate(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		tmpDir := t.NewTempDir().
			Touch("keep.py", "skip.pyc", "sub/keep2.py")

		paths, err := From(tmpDir.Root()).
			Unsorted().
			WhenIsFile().
			When(func(path string, _ Dirent) (bool, error) {
				return !strings.HasSuffix(path, ".pyc"), nil
			}).
			CollectPaths()

		t.CheckErrorAndDeepEqual(false, err, []string{
			"keep.py", "sub/keep2.py",
		}, relative(t.T, tmpDir.Root(), paths))
	})
}

func TestCollectPathsSkipDir(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		tmpDir := t.NewTempDir().
			Touch("file1", "ignored/file2")

		paths, err := From(tmpDir.Root()).
			When(func(path string, info Dirent) (bool, error) {
				if info.IsDir() && info.Name() == "ignored" {
					return false, filepath.SkipDir
				}
				return true, nil
			}).
			WhenIsFile().
			CollectPaths()

		t.CheckErrorAndDeepEqual(false, err, []string{"file1"}, relative(t.T, tmpDir.Root(), paths))
	})
}

func TestSingleFileRoot(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		tmpDir := t.NewTempDir().Write("file1", "content")

		paths, err := From(tmpDir.Path("file1")).WhenIsFile().CollectPaths()

		t.CheckErrorAndDeepEqual(false, err, []string{tmpDir.Path("file1")}, paths)
	})
}

func TestMissingRoot(t *testing.T) {
	_, err := From("/does/not/exist").CollectPaths()

	testutil.CheckError(t, true, err)
}
