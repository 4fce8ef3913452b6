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

package docker

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bakerbuild/baker/pkg/baker/util"
	"github.com/bakerbuild/baker/pkg/baker/walk"
)

// CopiedFiles lists the files under root that a copy transfers, honoring
// the exclude patterns of root's ignore file. Paths are absolute and sorted.
// A root that is a single file is transferred as is.
func CopiedFiles(root string, ignoreFile string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("could not get absolute path of %q: %w", root, err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{absRoot}, nil
	}

	excludes, err := ReadIgnoreFile(absRoot, ignoreFile)
	if err != nil {
		return nil, fmt.Errorf("reading ignore patterns: %w", err)
	}

	ignored, err := NewIgnorePredicate(absRoot, excludes)
	if err != nil {
		return nil, err
	}

	kept := func(path string, info walk.Dirent) (bool, error) {
		ignore, err := ignored(path, info)
		return !ignore, err
	}

	paths, err := walk.From(absRoot).When(kept).WhenIsFile().CollectPaths()
	if err != nil {
		return nil, fmt.Errorf("walking %q: %w", absRoot, err)
	}

	return paths, nil
}

// CreateCopyTar writes paths to a tar stream, renamed under dest so that the
// archive can be extracted at the container's root.
func CreateCopyTar(w io.Writer, root string, paths []string, dest string) error {
	pathMap := make(map[string][]string)

	for _, p := range paths {
		relPath, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}

		tarPath := path.Join(dest, filepath.ToSlash(relPath))
		pathMap[p] = append(pathMap[p], strings.TrimPrefix(tarPath, "/"))
	}

	return util.CreateMappedTar(w, root, pathMap)
}
