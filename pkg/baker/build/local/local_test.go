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

package local

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/opencontainers/go-digest"

	"github.com/bakerbuild/baker/pkg/baker/build"
	"github.com/bakerbuild/baker/pkg/baker/constants"
	"github.com/bakerbuild/baker/pkg/baker/docker"
	"github.com/bakerbuild/baker/pkg/baker/schema/latest"
	"github.com/bakerbuild/baker/pkg/baker/tag"
	"github.com/bakerbuild/baker/testutil"
)

type testConfig struct {
	push bool
}

func (c testConfig) GetInsecureRegistries() map[string]bool { return nil }
func (c testConfig) PushImages() bool                       { return c.push }

type testAuthHelper struct{}

func (testAuthHelper) GetAuthConfig(string) (types.AuthConfig, error) {
	return types.AuthConfig{}, nil
}

func TestBuild(t *testing.T) {
	tests := []struct {
		description    string
		api            *testutil.FakeAPIClient
		tagger         tag.Tagger
		pushImages     bool
		expected       []build.Artifact
		expectedTagged []string
		expectedPushed []string
		shouldErr      bool
		expectedError  string
	}{
		{
			description: "build locally",
			api:         (&testutil.FakeAPIClient{}).Add("bscwdc/dislib-base:latest", "sha256:base"),
			tagger:      &tag.ChecksumTagger{},
			expected: []build.Artifact{
				{ImageName: "bscwdc/dislib", Tag: "bscwdc/dislib:1"},
			},
			expectedTagged: []string{"bscwdc/dislib:latest", "bscwdc/dislib:1"},
		},
		{
			description: "build and push",
			api:         (&testutil.FakeAPIClient{}).Add("bscwdc/dislib-base:latest", "sha256:base"),
			tagger:      &tag.ChecksumTagger{},
			pushImages:  true,
			expected: []build.Artifact{
				{ImageName: "bscwdc/dislib", Tag: "bscwdc/dislib:latest@" + digest.FromString("sha256:1").String()},
			},
			expectedTagged: []string{"bscwdc/dislib:latest"},
			expectedPushed: []string{"bscwdc/dislib:latest"},
		},
		{
			description:   "tagger failure aborts before assembly",
			api:           (&testutil.FakeAPIClient{}).Add("bscwdc/dislib-base:latest", "sha256:base"),
			tagger:        &tag.CustomTag{},
			shouldErr:     true,
			expectedError: "generating tag for bscwdc/dislib",
		},
		{
			description: "unresolvable base image",
			api: &testutil.FakeAPIClient{
				ErrImagePull: true,
			},
			tagger:        &tag.ChecksumTagger{},
			shouldErr:     true,
			expectedError: "building [bscwdc/dislib]",
		},
		{
			description: "push failure",
			api: (&testutil.FakeAPIClient{
				ErrImagePush: true,
			}).Add("bscwdc/dislib-base:latest", "sha256:base"),
			tagger:        &tag.ChecksumTagger{},
			pushImages:    true,
			shouldErr:     true,
			expectedError: "could not push image",
		},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			t.Override(&docker.DefaultAuthHelper, testAuthHelper{})

			builder := &Builder{
				localDocker: docker.NewLocalDaemon(test.api, testConfig{}),
				pushImages:  test.pushImages,
			}
			images := []*latest.ImageConfig{{
				Image: "bscwdc/dislib",
				Base:  "bscwdc/dislib-base:latest",
			}}

			builds, err := builder.Build(context.Background(), io.Discard, test.tagger, images)

			t.CheckError(test.shouldErr, err)
			if test.shouldErr {
				t.CheckErrorContains(test.expectedError, err)
				return
			}

			t.CheckDeepEqual(test.expected, builds)
			t.CheckDeepEqual(test.expectedTagged, test.api.Tagged)
			if test.expectedPushed != nil {
				t.CheckDeepEqual(test.expectedPushed, test.api.Pushed)
			}
		})
	}
}

func TestBuildLabels(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		api := (&testutil.FakeAPIClient{}).Add("bscwdc/dislib-base:latest", "sha256:base")
		builder := &Builder{
			localDocker: docker.NewLocalDaemon(api, testConfig{}),
		}

		_, err := builder.Build(context.Background(), io.Discard, &tag.ChecksumTagger{}, []*latest.ImageConfig{{
			Image: "bscwdc/dislib",
			Base:  "bscwdc/dislib-base:latest",
		}})

		t.CheckNoError(err)
		t.CheckDeepEqual(1, len(api.Commits))
		t.CheckDeepEqual(map[string]string{
			constants.Labels.Builder:   "local",
			constants.Labels.TagPolicy: "sha256",
		}, api.Commits[0].Config.Labels)
	})
}

func TestTaggerFailureAssemblesNothing(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		api := (&testutil.FakeAPIClient{}).Add("bscwdc/dislib-base:latest", "sha256:base")
		builder := &Builder{
			localDocker: docker.NewLocalDaemon(api, testConfig{}),
		}

		_, err := builder.Build(context.Background(), io.Discard, &tag.CustomTag{}, []*latest.ImageConfig{{
			Image: "bscwdc/dislib",
			Base:  "bscwdc/dislib-base:latest",
		}})

		t.CheckErrorContains("custom tag not provided", err)
		t.CheckDeepEqual(0, len(api.Created))
	})
}

func TestNewBuilder(t *testing.T) {
	tests := []struct {
		description string
		newDaemon   func(docker.Config) (docker.LocalDaemon, error)
		pushImages  bool
		shouldErr   bool
	}{
		{
			description: "pushes when configured to",
			newDaemon: func(cfg docker.Config) (docker.LocalDaemon, error) {
				return docker.NewLocalDaemon(&testutil.FakeAPIClient{}, cfg), nil
			},
			pushImages: true,
		},
		{
			description: "no docker daemon",
			newDaemon: func(docker.Config) (docker.LocalDaemon, error) {
				return nil, errors.New("no docker daemon")
			},
			shouldErr: true,
		},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			t.Override(&docker.NewAPIClient, test.newDaemon)

			builder, err := NewBuilder(testConfig{push: test.pushImages})

			t.CheckError(test.shouldErr, err)
			if !test.shouldErr {
				t.CheckDeepEqual(test.pushImages, builder.pushImages)
			}
		})
	}
}
