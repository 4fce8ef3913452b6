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
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/docker/pkg/stdcopy"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	specs "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/sirupsen/logrus"

	"github.com/bakerbuild/baker/pkg/baker/util/term"
)

const (
	retries   = 5
	sleepTime = 1 * time.Second
)

// LocalDaemon talks to a local Docker API.
type LocalDaemon interface {
	Close() error
	ServerVersion(ctx context.Context) (types.Version, error)
	ConfigFile(ctx context.Context, image string) (*v1.ConfigFile, error)
	Pull(ctx context.Context, out io.Writer, ref string, platform v1.Platform) error
	Push(ctx context.Context, out io.Writer, ref string) (string, error)
	Tag(ctx context.Context, image, ref string) error
	TagWithImageID(ctx context.Context, ref string, imageID string) (string, error)
	ImageID(ctx context.Context, ref string) (string, error)
	ImageExists(ctx context.Context, ref string) bool
	Prune(ctx context.Context, images []string, pruneChildren bool) ([]string, error)
	ContainerCreate(ctx context.Context, config *container.Config, platform *v1.Platform, name string) (string, error)
	ContainerRun(ctx context.Context, out io.Writer, id string) error
	ContainerCommit(ctx context.Context, id string, opts types.ContainerCommitOptions) (string, error)
	ContainerRemove(ctx context.Context, id string) error
	CopyToContainer(ctx context.Context, container string, dest string, root string, paths []string) error
	CopyFileFromContainer(ctx context.Context, container string, file string) ([]byte, error)
	WriteFileToContainer(ctx context.Context, container string, file string, content []byte) error
}

type localDaemon struct {
	cfg            Config
	apiClient      client.CommonAPIClient
	imageCache     map[string]*v1.ConfigFile
	imageCacheLock sync.Mutex
}

// NewLocalDaemon creates a new LocalDaemon.
func NewLocalDaemon(apiClient client.CommonAPIClient, cfg Config) LocalDaemon {
	return &localDaemon{
		cfg:        cfg,
		apiClient:  apiClient,
		imageCache: make(map[string]*v1.ConfigFile),
	}
}

// PushResult gives the information on an image that has been pushed.
type PushResult struct {
	Digest string
}

// ExitCoder is implemented by errors that carry a process exit code.
type ExitCoder interface {
	ExitCode() int
}

// ContainerExitError is returned when a container's command exits with a
// non-zero status.
type ContainerExitError struct {
	ID   string
	Code int
}

func (e *ContainerExitError) Error() string {
	return fmt.Sprintf("container %s exited with code %d", e.ID, e.Code)
}

func (e *ContainerExitError) ExitCode() int {
	return e.Code
}

// Close closes the connection with the local daemon.
func (l *localDaemon) Close() error {
	return l.apiClient.Close()
}

// ServerVersion retrieves the version information from the server.
func (l *localDaemon) ServerVersion(ctx context.Context) (types.Version, error) {
	return l.apiClient.ServerVersion(ctx)
}

// ConfigFile retrieves and caches image configurations. Images already in
// the daemon are inspected there, the others are read from their registry.
func (l *localDaemon) ConfigFile(ctx context.Context, image string) (*v1.ConfigFile, error) {
	l.imageCacheLock.Lock()
	defer l.imageCacheLock.Unlock()

	cachedCfg, present := l.imageCache[image]
	if present {
		return cachedCfg, nil
	}

	cfg := &v1.ConfigFile{}

	_, raw, err := l.apiClient.ImageInspectWithRaw(ctx, image)
	if err == nil {
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, err
		}
	} else {
		cfg, err = RetrieveRemoteConfig(image, l.cfg.GetInsecureRegistries())
		if err != nil {
			return nil, err
		}
	}

	l.imageCache[image] = cfg

	return cfg, nil
}

// Pull pulls an image reference from a registry.
func (l *localDaemon) Pull(ctx context.Context, out io.Writer, ref string, platform v1.Platform) error {
	// We first try pulling the image with credentials. If that fails then
	// retry without credentials in case the image is public.
	registryAuth, err := l.encodedRegistryAuth(ctx, DefaultAuthHelper, ref)
	rc, err := l.apiClient.ImagePull(ctx, ref, types.ImagePullOptions{
		RegistryAuth: registryAuth,
		PrivilegeFunc: func() (string, error) {
			// The first pull is unauthorized. There are two situations:
			//   1. if `encodedRegistryAuth()` errored, then `registryAuth == ""` and so we've
			//     tried an anonymous pull which has failed. So return the original error from
			//     `encodedRegistryAuth()`.
			//   2. If `encodedRegistryAuth()` succeeded (so `err == nil`), then our credential was rejected, so
			//     return "" to retry as an anonymous pull.
			return "", err
		},
		Platform: platform.String(),
	})
	if err != nil {
		return fmt.Errorf("pulling image from repository: %w", err)
	}
	defer rc.Close()

	return streamDockerMessages(out, rc, nil)
}

// Push pushes an image reference to a registry. Returns the image digest.
func (l *localDaemon) Push(ctx context.Context, out io.Writer, ref string) (string, error) {
	registryAuth, err := l.encodedRegistryAuth(ctx, DefaultAuthHelper, ref)
	if err != nil {
		return "", fmt.Errorf("getting auth config for %q: %w", ref, err)
	}

	rc, err := l.apiClient.ImagePush(ctx, ref, types.ImagePushOptions{
		RegistryAuth: registryAuth,
	})
	if err != nil {
		return "", fmt.Errorf("could not push image %q: %w", ref, err)
	}
	defer rc.Close()

	var digest string
	auxCallback := func(msg jsonmessage.JSONMessage) {
		if msg.Aux == nil {
			return
		}

		var result PushResult
		if err := json.Unmarshal(*msg.Aux, &result); err != nil {
			logrus.Debugln("unable to parse push output:", err)
			return
		}
		digest = result.Digest
	}

	if err := streamDockerMessages(out, rc, auxCallback); err != nil {
		return "", fmt.Errorf("could not push image %q: %w", ref, err)
	}

	if digest == "" {
		// Maybe this version of Docker doesn't return the digest of the image
		// that has been pushed.
		digest, err = RemoteDigest(ref, l.cfg.GetInsecureRegistries())
		if err != nil {
			return "", fmt.Errorf("getting digest: %w", err)
		}
	}

	return digest, nil
}

// streamDockerMessages streams formatted json output from the docker daemon.
func streamDockerMessages(dst io.Writer, src io.Reader, auxCallback func(jsonmessage.JSONMessage)) error {
	termFd, isTerm := term.IsTerminal(dst)
	return jsonmessage.DisplayJSONMessagesStream(src, dst, termFd, isTerm, auxCallback)
}

// Tag adds a tag to an image.
func (l *localDaemon) Tag(ctx context.Context, image, ref string) error {
	return l.apiClient.ImageTag(ctx, image, ref)
}

// TagWithImageID tags an image with a unique, immutable tag built from the
// image ID, and returns that tag.
func (l *localDaemon) TagWithImageID(ctx context.Context, ref string, imageID string) (string, error) {
	parsed, err := ParseReference(ref)
	if err != nil {
		return "", err
	}

	if imageID == "" {
		logrus.Debugf("generating tag for %s: empty image id", ref)
		return "", nil
	}
	uniqueTag := parsed.BaseName + ":" + strings.TrimPrefix(imageID, "sha256:")
	if err := l.Tag(ctx, imageID, uniqueTag); err != nil {
		return "", err
	}

	return uniqueTag, nil
}

// ImageID returns the image ID for a corresponding reference.
func (l *localDaemon) ImageID(ctx context.Context, ref string) (string, error) {
	image, _, err := l.apiClient.ImageInspectWithRaw(ctx, ref)
	if err != nil {
		if client.IsErrNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("inspecting image %q: %w", ref, err)
	}

	return image.ID, nil
}

func (l *localDaemon) ImageExists(ctx context.Context, ref string) bool {
	_, _, err := l.apiClient.ImageInspectWithRaw(ctx, ref)
	return err == nil
}

// ImageRemove removes an image, retrying while containers still reference it.
func (l *localDaemon) ImageRemove(ctx context.Context, image string, opts types.ImageRemoveOptions) ([]types.ImageDeleteResponseItem, error) {
	for i := 0; i < retries; i++ {
		resp, err := l.apiClient.ImageRemove(ctx, image, opts)
		if err == nil {
			return resp, nil
		}
		if _, ok := err.(errdefs.ErrConflict); !ok {
			return nil, err
		}
		time.Sleep(sleepTime)
	}
	return nil, fmt.Errorf("could not remove image %q after %d retries", image, retries)
}

// Prune removes a list of images, keeping going on failure. It returns the
// images that were removed and the first error encountered.
func (l *localDaemon) Prune(ctx context.Context, images []string, pruneChildren bool) ([]string, error) {
	var pruned []string
	var errRt error
	for _, id := range images {
		resp, err := l.ImageRemove(ctx, id, types.ImageRemoveOptions{
			Force:         true,
			PruneChildren: pruneChildren,
		})
		if err == nil {
			pruned = append(pruned, id)
		} else if errRt == nil {
			// save the first error
			errRt = fmt.Errorf("pruning images: %w", err)
		}

		for _, r := range resp {
			if r.Deleted != "" {
				logrus.Debugf("deleted image %s", r.Deleted)
			}
			if r.Untagged != "" {
				logrus.Debugf("untagged image %s", r.Untagged)
			}
		}
	}
	return pruned, errRt
}

// ContainerCreate creates a container without starting it, and returns its id.
func (l *localDaemon) ContainerCreate(ctx context.Context, config *container.Config, platform *v1.Platform, name string) (string, error) {
	c, err := l.apiClient.ContainerCreate(ctx, config, nil, nil, ociPlatform(platform), name)
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

// ContainerRun starts a created container, streams its output and waits for
// it to exit. A non-zero exit status is returned as a ContainerExitError.
func (l *localDaemon) ContainerRun(ctx context.Context, out io.Writer, id string) error {
	if err := l.apiClient.ContainerStart(ctx, id, types.ContainerStartOptions{}); err != nil {
		return err
	}

	logs, err := l.apiClient.ContainerLogs(ctx, id, types.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		return err
	}
	defer logs.Close()

	// The daemon multiplexes both output streams when there is no tty.
	if _, err := stdcopy.StdCopy(out, out, logs); err != nil {
		return err
	}

	statusCh, errCh := l.apiClient.ContainerWait(ctx, id, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		return err
	case status := <-statusCh:
		if status.StatusCode != 0 {
			return &ContainerExitError{ID: id, Code: int(status.StatusCode)}
		}
	}

	return nil
}

// ContainerCommit commits a container's filesystem and configuration to a
// new image, and returns the image id.
func (l *localDaemon) ContainerCommit(ctx context.Context, id string, opts types.ContainerCommitOptions) (string, error) {
	resp, err := l.apiClient.ContainerCommit(ctx, id, opts)
	if err != nil {
		return "", fmt.Errorf("committing container %q: %w", id, err)
	}
	return resp.ID, nil
}

// ContainerRemove removes a container.
func (l *localDaemon) ContainerRemove(ctx context.Context, id string) error {
	if err := l.apiClient.ContainerRemove(ctx, id, types.ContainerRemoveOptions{Force: true}); err != nil {
		return fmt.Errorf("removing container: %w", err)
	}
	return nil
}

// CopyToContainer copies local files into a container's filesystem.
func (l *localDaemon) CopyToContainer(ctx context.Context, container string, dest string, root string, paths []string) error {
	r, w := io.Pipe()
	go func() {
		if err := CreateCopyTar(w, root, paths, dest); err != nil {
			w.CloseWithError(err)
		} else {
			w.Close()
		}
	}()

	// The tar paths carry the destination, so it is extracted at the root.
	return l.apiClient.CopyToContainer(ctx, container, "/", r, types.CopyToContainerOptions{})
}

// WriteFileToContainer replaces the content of a single file in a
// container's filesystem.
func (l *localDaemon) WriteFileToContainer(ctx context.Context, container string, file string, content []byte) error {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	if err := tw.WriteHeader(&tar.Header{
		Name: strings.TrimPrefix(file, "/"),
		Mode: 0644,
		Size: int64(len(content)),
	}); err != nil {
		return fmt.Errorf("writing tar header for %q: %w", file, err)
	}
	if _, err := tw.Write(content); err != nil {
		return fmt.Errorf("writing %q to tar: %w", file, err)
	}
	if err := tw.Close(); err != nil {
		return err
	}

	return l.apiClient.CopyToContainer(ctx, container, "/", &buf, types.CopyToContainerOptions{})
}

// CopyFileFromContainer returns the content of a single file of a
// container's filesystem.
func (l *localDaemon) CopyFileFromContainer(ctx context.Context, container string, file string) ([]byte, error) {
	rc, _, err := l.apiClient.CopyFromContainer(ctx, container, file)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	tr := tar.NewReader(rc)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if hdr.Name == path.Base(file) && hdr.Typeflag != tar.TypeDir {
			return io.ReadAll(tr)
		}
	}

	return nil, fmt.Errorf("%q not found in copy stream", file)
}

func ociPlatform(p *v1.Platform) *specs.Platform {
	if p == nil {
		return nil
	}
	return &specs.Platform{
		Architecture: p.Architecture,
		OS:           p.OS,
		OSVersion:    p.OSVersion,
		Variant:      p.Variant,
	}
}
