// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package classifier

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// StaticClassifierConfig configures the static classifier
type StaticClassifierConfig struct {
	Label string `hcl:"label,optional" env:"CLASSIFIER_STATIC_LABEL"`
}

// StaticClassifier answers every request with the same label. It is used for
// dry runs where calling the real service is not wanted.
type StaticClassifier struct {
	label string

	log *log.Entry
}

// newStaticClassifier creates a new classifier returning a fixed label
func newStaticClassifier(label string) (*StaticClassifier, error) {
	if label == "" {
		return nil, errors.New("static classifier requires a label")
	}

	return &StaticClassifier{
		label: label,
		log:   log.WithFields(log.Fields{"classifier": "static"}),
	}, nil
}

// StaticClassifierConfigFunction creates a StaticClassifier from a StaticClassifierConfig
func StaticClassifierConfigFunction(c *StaticClassifierConfig) (*StaticClassifier, error) {
	return newStaticClassifier(c.Label)
}

// The StaticClassifierAdapter type is an adapter for functions to be used as
// pluggable components for the static classifier. Implements the Pluggable interface.
type StaticClassifierAdapter func(i interface{}) (interface{}, error)

// Create implements the ComponentCreator interface.
func (f StaticClassifierAdapter) Create(i interface{}) (interface{}, error) {
	return f(i)
}

// ProvideDefault implements the ComponentConfigurable interface.
func (f StaticClassifierAdapter) ProvideDefault() (interface{}, error) {
	cfg := &StaticClassifierConfig{
		Label: "NEUTRAL",
	}

	return cfg, nil
}

// AdaptStaticClassifierFunc returns a StaticClassifierAdapter.
func AdaptStaticClassifierFunc(f func(c *StaticClassifierConfig) (*StaticClassifier, error)) StaticClassifierAdapter {
	return func(i interface{}) (interface{}, error) {
		cfg, ok := i.(*StaticClassifierConfig)
		if !ok {
			return nil, errors.New("invalid input, expected StaticClassifierConfig")
		}

		return f(cfg)
	}
}

// Classify returns the configured label unless the context is already done
func (sc *StaticClassifier) Classify(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	sc.log.Debugf("Returning static label %s for %d bytes of text", sc.label, len(text))
	return sc.label, nil
}

// GetID returns the identifier for this classifier
func (sc *StaticClassifier) GetID() string {
	return fmt.Sprintf("static:%s", sc.label)
}
