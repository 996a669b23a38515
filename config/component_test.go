// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package config

import (
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/snowplow-devops/stream-sentiment/pkg/classifier"
	"github.com/snowplow-devops/stream-sentiment/pkg/target"
)

type testComponentConfig struct {
	Name  string `hcl:"name,optional" env:"TEST_COMPONENT_NAME"`
	Count int    `hcl:"count,optional" env:"TEST_COMPONENT_COUNT"`
}

type testComponent struct {
	cfg *testComponentConfig
}

type testComponentAdapter func(i interface{}) (interface{}, error)

func (f testComponentAdapter) Create(i interface{}) (interface{}, error) {
	return f(i)
}

func (f testComponentAdapter) ProvideDefault() (interface{}, error) {
	return &testComponentConfig{Name: "default", Count: 1}, nil
}

func adaptTestComponent(i interface{}) (interface{}, error) {
	cfg, ok := i.(*testComponentConfig)
	if !ok {
		return nil, errors.New("invalid input, expected testComponentConfig")
	}
	return &testComponent{cfg: cfg}, nil
}

func TestCreateComponent_Env(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("TEST_COMPONENT_COUNT", "3")

	c := &Config{Data: defaultConfigData(), Decoder: &EnvDecoder{}}
	component, err := c.CreateComponent(testComponentAdapter(adaptTestComponent), &DecoderOptions{})
	assert.Nil(err)
	assert.Equal(&testComponentConfig{Name: "default", Count: 3}, component.(*testComponent).cfg)
}

func TestCreateComponent_Hcl(t *testing.T) {
	assert := assert.New(t)

	c := &Config{Data: defaultConfigData(), Decoder: &HclDecoder{EvalContext: CreateHclContext()}}
	component, err := c.CreateComponent(testComponentAdapter(adaptTestComponent), &DecoderOptions{
		Input: parseHclBody(t, `name = "from-hcl"`),
	})
	assert.Nil(err)
	assert.Equal(&testComponentConfig{Name: "from-hcl", Count: 1}, component.(*testComponent).cfg)
}

func TestConfigure_DecodeError(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("TEST_COMPONENT_COUNT", "three")

	decoded, err := Configure(testComponentAdapter(adaptTestComponent), &EnvDecoder{}, &DecoderOptions{})
	assert.Nil(decoded)
	assert.NotNil(err)
}

func TestConfigure_PluggableDefaults(t *testing.T) {
	testCases := []struct {
		Name     string
		Plug     Pluggable
		Env      map[string]string
		Expected interface{}
	}{
		{
			Name:     "static classifier defaults",
			Plug:     classifier.AdaptStaticClassifierFunc(classifier.StaticClassifierConfigFunction),
			Expected: &classifier.StaticClassifierConfig{Label: "NEUTRAL"},
		},
		{
			Name:     "static classifier from env",
			Plug:     classifier.AdaptStaticClassifierFunc(classifier.StaticClassifierConfigFunction),
			Env:      map[string]string{"CLASSIFIER_STATIC_LABEL": "MIXED"},
			Expected: &classifier.StaticClassifierConfig{Label: "MIXED"},
		},
		{
			Name: "comprehend classifier from env",
			Plug: classifier.AdaptComprehendClassifierFunc(classifier.ComprehendClassifierConfigFunction),
			Env: map[string]string{
				"CLASSIFIER_COMPREHEND_REGION":     "eu-west-1",
				"CLASSIFIER_COMPREHEND_TIMEOUT_MS": "2500",
			},
			Expected: &classifier.ComprehendClassifierConfig{
				Region:       "eu-west-1",
				LanguageCode: "en",
				TimeoutMs:    2500,
			},
		},
		{
			Name:     "stdout target from env",
			Plug:     target.AdaptStdoutTargetFunc(target.StdoutTargetConfigFunction),
			Env:      map[string]string{"TARGET_STDOUT_DATA_ONLY_OUTPUT": "true"},
			Expected: &target.StdoutTargetConfig{DataOnlyOutput: true},
		},
	}

	for _, tt := range testCases {
		t.Run(tt.Name, func(t *testing.T) {
			assert := assert.New(t)

			for k, v := range tt.Env {
				t.Setenv(k, v)
			}

			result, err := Configure(tt.Plug, &EnvDecoder{}, &DecoderOptions{})
			assert.Nil(err)

			if !reflect.DeepEqual(result, tt.Expected) {
				t.Errorf("GOT:\n%s\nEXPECTED:\n%s",
					spew.Sdump(result),
					spew.Sdump(tt.Expected))
			}
		})
	}
}
