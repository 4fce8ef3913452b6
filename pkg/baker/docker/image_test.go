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
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/random"

	"github.com/bakerbuild/baker/testutil"
)

type fakeConfig struct {
	insecureRegistries map[string]bool
}

func (f fakeConfig) GetInsecureRegistries() map[string]bool { return f.insecureRegistries }

func TestPush(t *testing.T) {
	tests := []struct {
		description    string
		imageName      string
		api            *testutil.FakeAPIClient
		expectedDigest string
		shouldErr      bool
	}{
		{
			description:    "push",
			imageName:      "gcr.io/baker",
			api:            (&testutil.FakeAPIClient{}).Add("gcr.io/baker", "sha256:imageIDabcab"),
			expectedDigest: "sha256:bb1f952848763dd1f8fcf14231d7a4557775abf3c95e588561bc7a478c94e7e0",
		},
		{
			description: "stream error",
			imageName:   "gcr.io/baker",
			api: &testutil.FakeAPIClient{
				ErrStream: true,
			},
			shouldErr: true,
		},
		{
			description: "image push error",
			imageName:   "gcr.io/baker",
			api: &testutil.FakeAPIClient{
				ErrImagePush: true,
			},
			shouldErr: true,
		},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			t.Override(&DefaultAuthHelper, testAuthHelper{})

			localDocker := &localDaemon{
				apiClient: test.api,
			}

			digest, err := localDocker.Push(context.Background(), io.Discard, test.imageName)

			t.CheckErrorAndDeepEqual(test.shouldErr, err, test.expectedDigest, digest)
		})
	}
}

func TestPull(t *testing.T) {
	tests := []struct {
		description string
		api         *testutil.FakeAPIClient
		shouldErr   bool
	}{
		{
			description: "pull",
			api:         &testutil.FakeAPIClient{},
		},
		{
			description: "pull error",
			api: &testutil.FakeAPIClient{
				ErrImagePull: true,
			},
			shouldErr: true,
		},
		{
			description: "stream error",
			api: &testutil.FakeAPIClient{
				ErrStream: true,
			},
			shouldErr: true,
		},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			t.Override(&DefaultAuthHelper, testAuthHelper{})

			localDocker := &localDaemon{
				apiClient: test.api,
			}

			err := localDocker.Pull(context.Background(), io.Discard, "bscwdc/dislib-base:latest", v1.Platform{})

			t.CheckError(test.shouldErr, err)
			if !test.shouldErr {
				t.CheckDeepEqual([]string{"bscwdc/dislib-base:latest"}, test.api.Pulled)
			}
		})
	}
}

func TestImageID(t *testing.T) {
	tests := []struct {
		description string
		ref         string
		api         *testutil.FakeAPIClient
		expected    string
		shouldErr   bool
	}{
		{
			description: "get id",
			ref:         "identifier:latest",
			api:         (&testutil.FakeAPIClient{}).Add("identifier:latest", "sha256:123abc"),
			expected:    "sha256:123abc",
		},
		{
			description: "image inspect error",
			ref:         "test",
			api: &testutil.FakeAPIClient{
				ErrImageInspect: true,
			},
			shouldErr: true,
		},
		{
			description: "not found",
			ref:         "somethingelse",
			api:         &testutil.FakeAPIClient{},
			expected:    "",
		},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			localDocker := &localDaemon{
				apiClient: test.api,
			}

			imageID, err := localDocker.ImageID(context.Background(), test.ref)

			t.CheckErrorAndDeepEqual(test.shouldErr, err, test.expected, imageID)
		})
	}
}

func TestImageExists(t *testing.T) {
	tests := []struct {
		description string
		ref         string
		api         *testutil.FakeAPIClient
		expected    bool
	}{
		{
			description: "image exists",
			ref:         "image:tag",
			api:         (&testutil.FakeAPIClient{}).Add("image:tag", "imageID"),
			expected:    true,
		},
		{
			description: "image does not exist",
			ref:         "dontexist:tag",
			api:         &testutil.FakeAPIClient{},
		},
		{
			description: "error getting image",
			ref:         "image:tag",
			api: &testutil.FakeAPIClient{
				ErrImageInspect: true,
			},
		},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			localDocker := &localDaemon{
				apiClient: test.api,
			}

			exists := localDocker.ImageExists(context.Background(), test.ref)

			t.CheckDeepEqual(test.expected, exists)
		})
	}
}

func TestTagWithImageID(t *testing.T) {
	tests := []struct {
		description string
		ref         string
		imageID     string
		api         *testutil.FakeAPIClient
		expected    string
		shouldErr   bool
	}{
		{
			description: "tag",
			ref:         "registry.example.com/image:tag",
			imageID:     "sha256:abacab",
			api:         (&testutil.FakeAPIClient{}).Add("sha256:abacab", "sha256:abacab"),
			expected:    "registry.example.com/image:abacab",
		},
		{
			description: "empty image id",
			ref:         "registry.example.com/image:tag",
			imageID:     "",
			api:         &testutil.FakeAPIClient{},
			expected:    "",
		},
		{
			description: "invalid reference",
			ref:         "!!invalid!!",
			api:         &testutil.FakeAPIClient{},
			shouldErr:   true,
		},
		{
			description: "tag error",
			ref:         "registry.example.com/image:tag",
			imageID:     "sha256:abacab",
			api: &testutil.FakeAPIClient{
				ErrImageTag: true,
			},
			shouldErr: true,
		},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			localDocker := &localDaemon{
				apiClient: test.api,
			}

			tag, err := localDocker.TagWithImageID(context.Background(), test.ref, test.imageID)

			t.CheckErrorAndDeepEqual(test.shouldErr, err, test.expected, tag)
		})
	}
}

func TestContainerRun(t *testing.T) {
	tests := []struct {
		description    string
		api            *testutil.FakeAPIClient
		command        []string
		expectedOutput string
		expectedCode   int
		shouldErr      bool
	}{
		{
			description: "run succeeds",
			api: &testutil.FakeAPIClient{
				LogOutputs: map[string]string{
					"pip3 install dislib": "Successfully installed dislib",
				},
			},
			command:        []string{"pip3", "install", "dislib"},
			expectedOutput: "Successfully installed dislib",
		},
		{
			description: "run exits non-zero",
			api: &testutil.FakeAPIClient{
				RunExitCodes: map[string]int{
					"pip3 install dislib": 2,
				},
			},
			command:      []string{"pip3", "install", "dislib"},
			expectedCode: 2,
			shouldErr:    true,
		},
		{
			description: "start error",
			api: &testutil.FakeAPIClient{
				ErrContainerStart: true,
			},
			command:   []string{"true"},
			shouldErr: true,
		},
		{
			description: "logs error",
			api: &testutil.FakeAPIClient{
				ErrContainerLogs: true,
			},
			command:   []string{"true"},
			shouldErr: true,
		},
		{
			description: "wait error",
			api: &testutil.FakeAPIClient{
				ErrContainerWait: true,
			},
			command:   []string{"true"},
			shouldErr: true,
		},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			test.api.Add("base", "sha256:base")
			localDocker := &localDaemon{
				apiClient: test.api,
			}

			id, err := localDocker.ContainerCreate(context.Background(), &container.Config{
				Image: "base",
				Cmd:   test.command,
			}, nil, "")
			t.RequireNoError(err)

			var out bytes.Buffer
			err = localDocker.ContainerRun(context.Background(), &out, id)

			t.CheckError(test.shouldErr, err)
			t.CheckDeepEqual(test.expectedOutput, out.String())

			if test.expectedCode != 0 {
				var exitErr *ContainerExitError
				if !errors.As(err, &exitErr) {
					t.Fatalf("expected ContainerExitError, got %v", err)
				}
				t.CheckDeepEqual(test.expectedCode, exitErr.ExitCode())
			}
		})
	}
}

func TestContainerCommitAndRemove(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		api := (&testutil.FakeAPIClient{}).Add("base", "sha256:base")
		localDocker := &localDaemon{
			apiClient: api,
		}

		id, err := localDocker.ContainerCreate(context.Background(), &container.Config{
			Image: "base",
		}, nil, "")
		t.RequireNoError(err)

		imageID, err := localDocker.ContainerCommit(context.Background(), id, types.ContainerCommitOptions{})
		t.RequireNoError(err)
		if imageID == "" {
			t.Fatal("expected an image id")
		}

		err = localDocker.ContainerRemove(context.Background(), id)
		t.CheckNoError(err)
	})
}

func TestCopyFileFromContainer(t *testing.T) {
	tests := []struct {
		description string
		file        string
		api         *testutil.FakeAPIClient
		copyErr     bool
		expected    string
		shouldErr   bool
	}{
		{
			description: "file exists",
			file:        "/opt/settings/resources.xml",
			api: (&testutil.FakeAPIClient{}).
				Add("base", "sha256:base").
				AddFile("sha256:base", "/opt/settings/resources.xml", []byte("<Port>43002</Port>")),
			expected: "<Port>43002</Port>",
		},
		{
			description: "file missing",
			file:        "/opt/settings/resources.xml",
			api:         (&testutil.FakeAPIClient{}).Add("base", "sha256:base"),
			shouldErr:   true,
		},
		{
			description: "copy error",
			file:        "/opt/settings/resources.xml",
			api: (&testutil.FakeAPIClient{}).
				Add("base", "sha256:base").
				AddFile("sha256:base", "/opt/settings/resources.xml", []byte("<Port>43002</Port>")),
			copyErr:   true,
			shouldErr: true,
		},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			test.api.ErrCopyFromContainer = test.copyErr
			localDocker := &localDaemon{
				apiClient: test.api,
			}

			id, err := localDocker.ContainerCreate(context.Background(), &container.Config{
				Image: "base",
			}, nil, "")
			t.RequireNoError(err)

			content, err := localDocker.CopyFileFromContainer(context.Background(), id, test.file)

			t.CheckError(test.shouldErr, err)
			if !test.shouldErr {
				t.CheckDeepEqual(test.expected, string(content))
			}
		})
	}
}

func TestConfigFile(t *testing.T) {
	api := (&testutil.FakeAPIClient{}).AddWithConfig("gcr.io/image", "sha256:imageIDabcab", &container.Config{
		Image: "sha256:imageIDabcab",
	})

	localDocker := NewLocalDaemon(api, nil)
	cfg, err := localDocker.ConfigFile(context.Background(), "gcr.io/image")

	testutil.CheckErrorAndDeepEqual(t, false, err, "sha256:imageIDabcab", cfg.Config.Image)
}

func TestConfigFileRemoteFallback(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		img, err := random.Image(256, 1)
		t.RequireNoError(err)

		t.Override(&getRemoteImageImpl, func(ref name.Reference) (v1.Image, error) {
			return img, nil
		})

		localDocker := NewLocalDaemon(&testutil.FakeAPIClient{}, fakeConfig{})
		cfg, err := localDocker.ConfigFile(context.Background(), "registry.example.com/absent:tag")

		t.CheckNoError(err)
		if cfg == nil {
			t.Fatal("expected a config file")
		}
	})
}

// APICallsCounter counts the number of `ImageInspectWithRaw` calls.
type APICallsCounter struct {
	client.CommonAPIClient
	calls int32
}

func (c *APICallsCounter) ImageInspectWithRaw(ctx context.Context, image string) (types.ImageInspect, []byte, error) {
	atomic.AddInt32(&c.calls, 1)
	return c.CommonAPIClient.ImageInspectWithRaw(ctx, image)
}

func TestConfigFileConcurrentCalls(t *testing.T) {
	api := &APICallsCounter{
		CommonAPIClient: (&testutil.FakeAPIClient{}).Add("gcr.io/image", "sha256:imageIDabcab"),
	}

	localDocker := NewLocalDaemon(api, nil)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			localDocker.ConfigFile(context.Background(), "gcr.io/image")
			wg.Done()
		}()
	}
	wg.Wait()

	// Check that the APIClient was called only once
	testutil.CheckDeepEqual(t, int32(1), atomic.LoadInt32(&api.calls))
}
