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

package tag

import (
	"text/template"

	"github.com/pkg/errors"

	"github.com/bakerbuild/baker/pkg/baker/constants"
	"github.com/bakerbuild/baker/pkg/baker/util"
)

// envTemplateTagger implements Tagger
type envTemplateTagger struct {
	Template *template.Template
}

// NewEnvTemplateTagger creates a new envTemplateTagger
func NewEnvTemplateTagger(t string) (Tagger, error) {
	tmpl, err := util.ParseEnvTemplate(t)
	if err != nil {
		return nil, errors.Wrap(err, "parsing template")
	}

	return &envTemplateTagger{
		Template: tmpl,
	}, nil
}

// Labels are labels specific to the envTemplate tagger.
func (t *envTemplateTagger) Labels() map[string]string {
	return map[string]string{
		constants.Labels.TagPolicy: "envTemplate",
	}
}

// GenerateFullyQualifiedImageName evaluates the template against the
// environment. The template sees the image name as {{.IMAGE_NAME}}.
func (t *envTemplateTagger) GenerateFullyQualifiedImageName(workingDir string, imageName string) (string, error) {
	return util.ExecuteEnvTemplate(t.Template, map[string]string{
		"IMAGE_NAME": imageName,
	})
}
