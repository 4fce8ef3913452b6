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
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/docker/cli/cli/connhelper"
	"github.com/docker/docker/client"
	"github.com/sirupsen/logrus"

	"github.com/bakerbuild/baker/pkg/baker/version"
)

// For testing
var (
	NewAPIClient = NewAPIClientImpl
)

var (
	dockerAPIClientOnce sync.Once
	dockerAPIClient     LocalDaemon
	dockerAPIClientErr  error
)

// Config is the subset of the build options the docker layer needs.
type Config interface {
	GetInsecureRegistries() map[string]bool
}

// NewAPIClientImpl returns a client talking to the local Docker daemon.
// The same daemon is reused for the whole build.
func NewAPIClientImpl(cfg Config) (LocalDaemon, error) {
	dockerAPIClientOnce.Do(func() {
		apiClient, err := newEnvAPIClient()
		dockerAPIClient = NewLocalDaemon(apiClient, cfg)
		dockerAPIClientErr = err
	})

	return dockerAPIClient, dockerAPIClientErr
}

// newEnvAPIClient returns a docker client based on the environment variables set.
// It will "negotiate" the highest possible API version supported by both the client
// and the server if there is a mismatch.
func newEnvAPIClient() (client.CommonAPIClient, error) {
	var opts = []client.Opt{client.WithHTTPHeaders(getUserAgentHeader())}

	// DOCKER_HOST can point at an ssh:// daemon, which the default
	// client doesn't know how to dial.
	helper, err := connhelper.GetConnectionHelper(os.Getenv("DOCKER_HOST"))
	if err == nil && helper != nil {
		httpClient := &http.Client{
			Transport: &http.Transport{
				DialContext: helper.Dialer,
			},
		}
		opts = append(opts, client.WithHTTPClient(httpClient), client.WithHost(helper.Host))
	} else {
		opts = append(opts, client.FromEnv)
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("error getting docker client: %s", err)
	}
	cli.NegotiateAPIVersion(context.Background())

	return cli, nil
}

func getUserAgentHeader() map[string]string {
	userAgent := version.UserAgent()
	logrus.Debugf("setting Docker user agent to %s", userAgent)
	return map[string]string{
		"User-Agent": userAgent,
	}
}
