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
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/docker/registry"
	"github.com/opencontainers/go-digest"
	specs "github.com/opencontainers/image-spec/specs-go/v1"
)

// FakeAPIClient is a simulated docker daemon. It keeps an in-memory image
// store, a file tree per image, and enough container lifecycle to exercise
// the create/copy/run/commit loop.
type FakeAPIClient struct {
	client.CommonAPIClient

	ErrImagePull         bool
	ErrImagePush         bool
	ErrImageTag          bool
	ErrImageInspect      bool
	ErrContainerStart    bool
	ErrContainerWait     bool
	ErrContainerLogs     bool
	ErrCopyFromContainer bool
	ErrStream            bool

	// RunExitCodes maps a container command line to the exit code its run
	// returns. Unlisted commands exit 0.
	RunExitCodes map[string]int

	// LogOutputs maps a container command line to the stdout its run produces.
	LogOutputs map[string]string

	Pulled  []string
	Pushed  []string
	Tagged  []string
	Removed []string

	// Created collects the config of every created container, in order.
	Created []*container.Config
	// Commits collects the options of every commit, in order.
	Commits []types.ContainerCommitOptions

	mux             sync.Mutex
	tagToImageID    map[string]string
	imageConfigs    map[string]*container.Config
	imageFiles      map[string]map[string][]byte
	containers      map[string]*fakeContainer
	nextImageID     int
	nextContainerID int
}

type fakeContainer struct {
	image   string
	config  *container.Config
	overlay map[string][]byte
	removed bool
	started bool
}

func (f *FakeAPIClient) init() {
	if f.tagToImageID == nil {
		f.tagToImageID = make(map[string]string)
	}
	if f.imageConfigs == nil {
		f.imageConfigs = make(map[string]*container.Config)
	}
	if f.imageFiles == nil {
		f.imageFiles = make(map[string]map[string][]byte)
	}
	if f.containers == nil {
		f.containers = make(map[string]*fakeContainer)
	}
}

// Add adds a tag to an image id.
func (f *FakeAPIClient) Add(tag, imageID string) *FakeAPIClient {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.init()

	f.tagToImageID[tag] = imageID
	if _, present := f.imageConfigs[imageID]; !present {
		f.imageConfigs[imageID] = &container.Config{}
	}
	return f
}

// AddWithConfig adds a tag to an image id along with the image's config.
func (f *FakeAPIClient) AddWithConfig(tag, imageID string, cfg *container.Config) *FakeAPIClient {
	f.Add(tag, imageID)

	f.mux.Lock()
	defer f.mux.Unlock()
	f.imageConfigs[imageID] = cfg
	return f
}

// AddFile seeds a file in an image's file tree.
func (f *FakeAPIClient) AddFile(imageID, filePath string, content []byte) *FakeAPIClient {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.init()

	if f.imageFiles[imageID] == nil {
		f.imageFiles[imageID] = make(map[string][]byte)
	}
	f.imageFiles[imageID][filePath] = content
	return f
}

// ImageFile returns the content of a file in an image's file tree.
func (f *FakeAPIClient) ImageFile(imageID, filePath string) []byte {
	f.mux.Lock()
	defer f.mux.Unlock()

	return f.imageFiles[imageID][filePath]
}

func (f *FakeAPIClient) imageID(ref string) string {
	if id, present := f.tagToImageID[ref]; present {
		return id
	}
	// direct image id reference
	if _, present := f.imageConfigs[ref]; present {
		return ref
	}
	return ""
}

func (f *FakeAPIClient) newImageID() string {
	f.nextImageID++
	return fmt.Sprintf("sha256:%d", f.nextImageID)
}

func (f *FakeAPIClient) ImagePull(ctx context.Context, ref string, options types.ImagePullOptions) (io.ReadCloser, error) {
	if f.ErrImagePull {
		return nil, fmt.Errorf("unable to pull image %s", ref)
	}

	f.mux.Lock()
	defer f.mux.Unlock()
	f.init()

	f.Pulled = append(f.Pulled, ref)
	if _, present := f.tagToImageID[ref]; !present {
		f.tagToImageID[ref] = f.newImageID()
		f.imageConfigs[f.tagToImageID[ref]] = &container.Config{}
	}
	return f.body(""), nil
}

func (f *FakeAPIClient) ImagePush(ctx context.Context, ref string, options types.ImagePushOptions) (io.ReadCloser, error) {
	if f.ErrImagePush {
		return nil, fmt.Errorf("unable to push image %s", ref)
	}

	f.mux.Lock()
	defer f.mux.Unlock()
	f.init()

	f.Pushed = append(f.Pushed, ref)
	return f.body(digest.FromString(f.tagToImageID[ref]).String()), nil
}

func (f *FakeAPIClient) ImageTag(ctx context.Context, image, ref string) error {
	if f.ErrImageTag {
		return fmt.Errorf("unable to tag %s", ref)
	}

	f.mux.Lock()
	defer f.mux.Unlock()
	f.init()

	imageID := f.imageID(image)
	if imageID == "" {
		return fmt.Errorf("image %s not found", image)
	}

	f.Tagged = append(f.Tagged, ref)
	f.tagToImageID[ref] = imageID
	return nil
}

func (f *FakeAPIClient) ImageInspectWithRaw(ctx context.Context, refOrID string) (types.ImageInspect, []byte, error) {
	if f.ErrImageInspect {
		return types.ImageInspect{}, nil, fmt.Errorf("unable to inspect image %s", refOrID)
	}

	f.mux.Lock()
	defer f.mux.Unlock()
	f.init()

	imageID := f.imageID(refOrID)
	if imageID == "" {
		return types.ImageInspect{}, nil, errdefs.NotFound(fmt.Errorf("No such image: %s", refOrID))
	}

	inspect := types.ImageInspect{
		ID:      imageID,
		Created: "1970-01-01T00:00:00Z",
		Config:  f.imageConfigs[imageID],
	}
	raw, err := json.Marshal(inspect)
	if err != nil {
		return types.ImageInspect{}, nil, err
	}
	return inspect, raw, nil
}

func (f *FakeAPIClient) ImageRemove(ctx context.Context, image string, options types.ImageRemoveOptions) ([]types.ImageDeleteResponseItem, error) {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.init()

	f.Removed = append(f.Removed, image)
	delete(f.tagToImageID, image)
	return []types.ImageDeleteResponseItem{{Untagged: image}}, nil
}

func (f *FakeAPIClient) ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *specs.Platform, containerName string) (container.CreateResponse, error) {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.init()

	imageID := f.imageID(config.Image)
	if imageID == "" {
		return container.CreateResponse{}, errdefs.NotFound(fmt.Errorf("No such image: %s", config.Image))
	}

	f.nextContainerID++
	id := fmt.Sprintf("container-%d", f.nextContainerID)
	f.containers[id] = &fakeContainer{
		image:   imageID,
		config:  config,
		overlay: make(map[string][]byte),
	}
	f.Created = append(f.Created, config)

	return container.CreateResponse{ID: id}, nil
}

func (f *FakeAPIClient) ContainerStart(ctx context.Context, containerID string, options types.ContainerStartOptions) error {
	if f.ErrContainerStart {
		return fmt.Errorf("unable to start container %s", containerID)
	}

	f.mux.Lock()
	defer f.mux.Unlock()
	f.init()

	c, present := f.containers[containerID]
	if !present {
		return fmt.Errorf("No such container: %s", containerID)
	}
	c.started = true
	return nil
}

func (f *FakeAPIClient) ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error) {
	waitCh := make(chan container.WaitResponse, 1)
	errCh := make(chan error, 1)

	if f.ErrContainerWait {
		errCh <- fmt.Errorf("unable to wait for container %s", containerID)
		return waitCh, errCh
	}

	f.mux.Lock()
	defer f.mux.Unlock()
	f.init()

	c, present := f.containers[containerID]
	if !present {
		errCh <- fmt.Errorf("No such container: %s", containerID)
		return waitCh, errCh
	}

	waitCh <- container.WaitResponse{
		StatusCode: int64(f.RunExitCodes[strings.Join(c.config.Cmd, " ")]),
	}
	return waitCh, errCh
}

func (f *FakeAPIClient) ContainerLogs(ctx context.Context, containerID string, options types.ContainerLogsOptions) (io.ReadCloser, error) {
	if f.ErrContainerLogs {
		return nil, fmt.Errorf("unable to stream logs for container %s", containerID)
	}

	f.mux.Lock()
	defer f.mux.Unlock()
	f.init()

	c, present := f.containers[containerID]
	if !present {
		return nil, fmt.Errorf("No such container: %s", containerID)
	}

	// logs are multiplexed like the real daemon's
	var buf bytes.Buffer
	w := stdcopy.NewStdWriter(&buf, stdcopy.Stdout)
	fmt.Fprint(w, f.LogOutputs[strings.Join(c.config.Cmd, " ")])
	return io.NopCloser(&buf), nil
}

func (f *FakeAPIClient) ContainerCommit(ctx context.Context, containerID string, options types.ContainerCommitOptions) (types.IDResponse, error) {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.init()

	c, present := f.containers[containerID]
	if !present {
		return types.IDResponse{}, fmt.Errorf("No such container: %s", containerID)
	}

	imageID := f.newImageID()

	// new image = parent files + container overlay
	files := make(map[string][]byte)
	for p, content := range f.imageFiles[c.image] {
		files[p] = content
	}
	for p, content := range c.overlay {
		files[p] = content
	}
	f.imageFiles[imageID] = files

	cfg := c.config
	if options.Config != nil {
		cfg = options.Config
	}
	f.imageConfigs[imageID] = cfg

	if options.Reference != "" {
		f.tagToImageID[options.Reference] = imageID
	}

	f.Commits = append(f.Commits, options)
	return types.IDResponse{ID: imageID}, nil
}

func (f *FakeAPIClient) ContainerRemove(ctx context.Context, containerID string, options types.ContainerRemoveOptions) error {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.init()

	c, present := f.containers[containerID]
	if !present {
		return fmt.Errorf("No such container: %s", containerID)
	}
	c.removed = true
	return nil
}

func (f *FakeAPIClient) CopyToContainer(ctx context.Context, containerID, dstPath string, content io.Reader, options types.CopyToContainerOptions) error {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.init()

	c, present := f.containers[containerID]
	if !present {
		return fmt.Errorf("No such container: %s", containerID)
	}

	tr := tar.NewReader(content)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if hdr.Typeflag == tar.TypeDir {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return err
		}
		c.overlay[path.Join(dstPath, hdr.Name)] = data
	}
	return nil
}

func (f *FakeAPIClient) CopyFromContainer(ctx context.Context, containerID, srcPath string) (io.ReadCloser, types.ContainerPathStat, error) {
	if f.ErrCopyFromContainer {
		return nil, types.ContainerPathStat{}, fmt.Errorf("unable to copy from container %s", containerID)
	}

	f.mux.Lock()
	defer f.mux.Unlock()
	f.init()

	c, present := f.containers[containerID]
	if !present {
		return nil, types.ContainerPathStat{}, fmt.Errorf("No such container: %s", containerID)
	}

	content, present := c.overlay[srcPath]
	if !present {
		content, present = f.imageFiles[c.image][srcPath]
	}
	if !present {
		return nil, types.ContainerPathStat{}, fmt.Errorf("Could not find the file %s in container %s", srcPath, containerID)
	}

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	if err := tw.WriteHeader(&tar.Header{
		Name: path.Base(srcPath),
		Mode: 0644,
		Size: int64(len(content)),
	}); err != nil {
		return nil, types.ContainerPathStat{}, err
	}
	if _, err := tw.Write(content); err != nil {
		return nil, types.ContainerPathStat{}, err
	}
	if err := tw.Close(); err != nil {
		return nil, types.ContainerPathStat{}, err
	}

	return io.NopCloser(&buf), types.ContainerPathStat{Name: path.Base(srcPath)}, nil
}

func (f *FakeAPIClient) ServerVersion(ctx context.Context) (types.Version, error) {
	return types.Version{
		Version:    "24.0.9",
		APIVersion: "1.43",
	}, nil
}

func (f *FakeAPIClient) Info(ctx context.Context) (types.Info, error) {
	return types.Info{
		IndexServerAddress: registry.IndexServer,
	}, nil
}

func (f *FakeAPIClient) Close() error { return nil }

func (f *FakeAPIClient) body(digest string) io.ReadCloser {
	if f.ErrStream {
		return FakeReaderCloser{Err: fmt.Errorf("bad stream")}
	}

	if digest == "" {
		return io.NopCloser(strings.NewReader("{}"))
	}
	return io.NopCloser(strings.NewReader(fmt.Sprintf(`{"aux":{"digest":"%s"}}`, digest)))
}
