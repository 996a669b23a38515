// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package config

import (
	"os"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// Decoder is the interface that wraps the Decode method.
type Decoder interface {
	// Decode decodes onto target given DecoderOptions.
	// The target argument must be a pointer to an allocated structure.
	Decode(opts *DecoderOptions, target interface{}) error
}

// DecoderOptions represent the options for a Decoder.
// The zero value of DecoderOptions means no-prefix/nil-input,
// which should be usable by the Decoders.
type DecoderOptions struct {
	Prefix string
	Input  hcl.Body
}

// EnvDecoder implements Decoder on top of the process environment
type EnvDecoder struct{}

// Decode populates target from the environment variables named by its env
// tags, after applying the optional prefix.
func (e *EnvDecoder) Decode(opts *DecoderOptions, target interface{}) error {
	if target == nil {
		return nil
	}

	var envOpts env.Options
	if opts != nil && opts.Prefix != "" {
		envOpts.Prefix = opts.Prefix
	}

	if err := env.Parse(target, envOpts); err != nil {
		return errors.Wrap(err, "Failed to parse configuration from environment")
	}
	return nil
}

// HclDecoder implements Decoder on top of a parsed HCL body
type HclDecoder struct {
	EvalContext *hcl.EvalContext
}

// Decode populates target given HCL input through DecoderOptions.
// If the HCL input is nil the target stays unaffected.
func (h *HclDecoder) Decode(opts *DecoderOptions, target interface{}) error {
	if opts == nil {
		return errors.New("missing DecoderOptions for HclDecoder")
	}

	src := opts.Input
	if src == nil || target == nil {
		return nil
	}

	diag := gohcl.DecodeBody(src, h.EvalContext, target)
	if diag.HasErrors() {
		return diag
	}

	return nil
}

// CreateHclContext creates the *hcl.EvalContext used in decoding HCL.
// Environment variables can be referenced either as `env("MY_ENV_VAR")`
// or as `env.MY_ENV_VAR`.
func CreateHclContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"env": envFunc(),
		},
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(envVarsMap(os.Environ())),
		},
	}
}

// envFunc returns the value of the environment variable named by its only argument
func envFunc() function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{
				Name:         "key",
				Type:         cty.String,
				AllowNull:    false,
				AllowUnknown: false,
			},
		},
		Type: function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			return cty.StringVal(os.Getenv(args[0].AsString())), nil
		},
	})
}

func envVarsMap(environ []string) map[string]cty.Value {
	envMap := make(map[string]cty.Value)
	for _, s := range environ {
		key, value, found := strings.Cut(s, "=")
		if !found || key == "" {
			continue
		}
		envMap[key] = cty.StringVal(value)
	}

	return envMap
}
