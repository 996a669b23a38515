// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pkg/errors"

	"github.com/snowplow-devops/stream-sentiment/pkg/classifier"
	"github.com/snowplow-devops/stream-sentiment/pkg/classifier/classifieriface"
	"github.com/snowplow-devops/stream-sentiment/pkg/observer"
	"github.com/snowplow-devops/stream-sentiment/pkg/producer"
	"github.com/snowplow-devops/stream-sentiment/pkg/statsreceiver"
	"github.com/snowplow-devops/stream-sentiment/pkg/statsreceiver/statsreceiveriface"
	"github.com/snowplow-devops/stream-sentiment/pkg/target"
	"github.com/snowplow-devops/stream-sentiment/pkg/target/targetiface"
	"github.com/snowplow-devops/stream-sentiment/pkg/transform"
)

// ConfigFileEnv names the environment variable pointing at an optional HCL configuration file
const ConfigFileEnv = "STREAM_SENTIMENT_CONFIG_FILE"

// Config holds the configuration data along with the decoder to decode them
type Config struct {
	Data    *ConfigurationData
	Decoder Decoder
}

// ConfigurationData for holding all configuration options
type ConfigurationData struct {
	Classifier     *Component                          `hcl:"classifier,block" envPrefix:"CLASSIFIER_"`
	CircuitBreaker *classifier.CircuitBreakerConfig    `hcl:"circuit_breaker,block"`
	Transform      *transform.SentimentTransformConfig `hcl:"transform,block"`
	Target         *Component                          `hcl:"target,block" envPrefix:"TARGET_"`
	Producer       *producer.ProducerConfig            `hcl:"producer,block"`
	Sentry         *SentryConfig                       `hcl:"sentry,block"`
	StatsReceiver  *StatsConfig                        `hcl:"stats_receiver,block"`
	LogLevel       string                              `hcl:"log_level,optional" env:"LOG_LEVEL"`
}

// Component is a type to abstract over configuration blocks.
type Component struct {
	Use *Use `hcl:"use,block"`
}

// Use is a type to denote what a component will be configured to use.
type Use struct {
	Name string   `hcl:",label" env:"NAME"`
	Body hcl.Body `hcl:",remain"`
}

// SentryConfig configures the Sentry error tracker.
type SentryConfig struct {
	Dsn   string `hcl:"dsn" env:"SENTRY_DSN"`
	Tags  string `hcl:"tags,optional" env:"SENTRY_TAGS"`
	Debug bool   `hcl:"debug,optional" env:"SENTRY_DEBUG"`
}

// StatsConfig holds configuration for stats receivers.
// It includes a receiver component to use.
type StatsConfig struct {
	Receiver   *Use `hcl:"use,block" envPrefix:"STATS_RECEIVER_"`
	TimeoutSec int  `hcl:"timeout_sec,optional" env:"STATS_RECEIVER_TIMEOUT_SEC"`
	BufferSec  int  `hcl:"buffer_sec,optional" env:"STATS_RECEIVER_BUFFER_SEC"`
}

// defaultConfigData returns the initial main configuration target.
func defaultConfigData() *ConfigurationData {
	return &ConfigurationData{
		Classifier:     &Component{&Use{Name: "comprehend"}},
		CircuitBreaker: classifier.DefaultCircuitBreakerConfig(),
		Transform: &transform.SentimentTransformConfig{
			TextField: transform.DefaultTextField,
		},
		Target:   &Component{&Use{Name: "kinesis"}},
		Producer: producer.DefaultProducerConfig(),
		Sentry: &SentryConfig{
			Tags: "{}",
		},
		StatsReceiver: &StatsConfig{
			Receiver:   &Use{},
			TimeoutSec: 1,
			BufferSec:  15,
		},
		LogLevel: "info",
	}
}

// applyDefaults restores the defaults of optional blocks and fields left out
// of the configuration, or set to a zero value that has no meaning
func applyDefaults(c *ConfigurationData) {
	defaults := defaultConfigData()

	if c.Classifier == nil || c.Classifier.Use == nil {
		c.Classifier = defaults.Classifier
	}
	if c.Target == nil || c.Target.Use == nil {
		c.Target = defaults.Target
	}

	if c.CircuitBreaker == nil {
		c.CircuitBreaker = defaults.CircuitBreaker
	}
	if c.CircuitBreaker.MaxRequests == 0 {
		c.CircuitBreaker.MaxRequests = defaults.CircuitBreaker.MaxRequests
	}
	if c.CircuitBreaker.IntervalSec == 0 {
		c.CircuitBreaker.IntervalSec = defaults.CircuitBreaker.IntervalSec
	}
	if c.CircuitBreaker.TimeoutSec == 0 {
		c.CircuitBreaker.TimeoutSec = defaults.CircuitBreaker.TimeoutSec
	}
	if c.CircuitBreaker.MinRequests == 0 {
		c.CircuitBreaker.MinRequests = defaults.CircuitBreaker.MinRequests
	}
	if c.CircuitBreaker.FailureRatio == 0 {
		c.CircuitBreaker.FailureRatio = defaults.CircuitBreaker.FailureRatio
	}

	if c.Transform == nil {
		c.Transform = defaults.Transform
	}
	if c.Transform.TextField == "" {
		c.Transform.TextField = defaults.Transform.TextField
	}

	if c.Producer == nil {
		c.Producer = defaults.Producer
	}
	if c.Producer.PartitionKey == "" {
		c.Producer.PartitionKey = defaults.Producer.PartitionKey
	}
	if c.Producer.Payload == "" {
		c.Producer.Payload = defaults.Producer.Payload
	}
	if c.Producer.RetryAttempts == 0 {
		c.Producer.RetryAttempts = defaults.Producer.RetryAttempts
	}

	if c.Sentry == nil {
		c.Sentry = defaults.Sentry
	}
	if c.Sentry.Tags == "" {
		c.Sentry.Tags = defaults.Sentry.Tags
	}

	if c.StatsReceiver == nil {
		c.StatsReceiver = defaults.StatsReceiver
	}
	if c.StatsReceiver.Receiver == nil {
		c.StatsReceiver.Receiver = &Use{}
	}
	if c.StatsReceiver.TimeoutSec == 0 {
		c.StatsReceiver.TimeoutSec = defaults.StatsReceiver.TimeoutSec
	}
	if c.StatsReceiver.BufferSec == 0 {
		c.StatsReceiver.BufferSec = defaults.StatsReceiver.BufferSec
	}

	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
}

// NewConfig returns a configuration
func NewConfig() (*Config, error) {
	filename := os.Getenv(ConfigFileEnv)
	if filename == "" {
		return newEnvConfig()
	}

	switch suffix := strings.ToLower(filepath.Ext(filename)); suffix {
	case ".hcl":
		return newHclConfig(filename)
	default:
		return nil, errors.New("invalid extension for the configuration file")
	}
}

func newEnvConfig() (*Config, error) {
	decoderOpts := &DecoderOptions{}
	envDecoder := &EnvDecoder{}

	configData := defaultConfigData()

	if err := envDecoder.Decode(decoderOpts, configData); err != nil {
		return nil, err
	}
	applyDefaults(configData)

	return &Config{
		Data:    configData,
		Decoder: envDecoder,
	}, nil
}

func newHclConfig(filename string) (*Config, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	// Parsing
	parser := hclparse.NewParser()
	fileHCL, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diags
	}

	// Decoding
	configData := defaultConfigData()
	decoderOpts := &DecoderOptions{Input: fileHCL.Body}
	hclDecoder := &HclDecoder{EvalContext: CreateHclContext()}

	if err = hclDecoder.Decode(decoderOpts, configData); err != nil {
		return nil, err
	}
	applyDefaults(configData)

	return &Config{
		Data:    configData,
		Decoder: hclDecoder,
	}, nil
}

// CreateComponent creates a pluggable component given the decoder options.
func (c *Config) CreateComponent(p Pluggable, opts *DecoderOptions) (interface{}, error) {
	componentConfigure := WithDecoderOptions(opts)

	decodedConfig, err := componentConfigure(p, c.Decoder)
	if err != nil {
		return nil, err
	}

	return p.Create(decodedConfig)
}

// GetClassifier builds and returns the classifier that is configured, wrapped
// in a circuit breaker when one is enabled
func (c *Config) GetClassifier() (classifieriface.Classifier, error) {
	var plug Pluggable
	useClassifier := c.Data.Classifier.Use
	decoderOpts := &DecoderOptions{
		Input: useClassifier.Body,
	}

	switch useClassifier.Name {
	case "comprehend":
		plug = classifier.AdaptComprehendClassifierFunc(
			classifier.ComprehendClassifierConfigFunction,
		)
	case "static":
		plug = classifier.AdaptStaticClassifierFunc(
			classifier.StaticClassifierConfigFunction,
		)
	default:
		return nil, errors.New(fmt.Sprintf("Invalid classifier found; expected one of 'comprehend, static' and got '%s'", useClassifier.Name))
	}

	component, err := c.CreateComponent(plug, decoderOpts)
	if err != nil {
		return nil, err
	}

	cl, ok := component.(classifieriface.Classifier)
	if !ok {
		return nil, fmt.Errorf("could not interpret classifier configuration for %q", useClassifier.Name)
	}

	if c.Data.CircuitBreaker.Enabled {
		return classifier.NewCircuitBreakerClassifier(cl, c.Data.CircuitBreaker), nil
	}
	return cl, nil
}

// GetTransformation builds the sentiment transformation around the given classifier
func (c *Config) GetTransformation(cl classifieriface.Classifier) (transform.TransformationApplyFunction, error) {
	if c.Data.Transform.Concurrency < 0 {
		return nil, fmt.Errorf("transform concurrency must not be negative, got %d", c.Data.Transform.Concurrency)
	}
	return transform.NewSentimentTransformation(cl, c.Data.Transform), nil
}

// GetTarget builds and returns the target that is configured
func (c *Config) GetTarget() (targetiface.Target, error) {
	var plug Pluggable
	useTarget := c.Data.Target.Use
	decoderOpts := &DecoderOptions{
		Input: useTarget.Body,
	}

	switch useTarget.Name {
	case "stdout":
		plug = target.AdaptStdoutTargetFunc(
			target.StdoutTargetConfigFunction,
		)
	case "kinesis":
		plug = target.AdaptKinesisTargetFunc(
			target.KinesisTargetConfigFunction,
		)
	default:
		return nil, errors.New(fmt.Sprintf("Invalid target found; expected one of 'stdout, kinesis' and got '%s'", useTarget.Name))
	}

	component, err := c.CreateComponent(plug, decoderOpts)
	if err != nil {
		return nil, err
	}

	if t, ok := component.(targetiface.Target); ok {
		return t, nil
	}

	return nil, fmt.Errorf("could not interpret target configuration for %q", useTarget.Name)
}

// GetProducer builds the producer writing to the given target
func (c *Config) GetProducer(t targetiface.Target) (*producer.Producer, error) {
	return producer.NewProducer(t, c.Data.Producer)
}

// GetTags returns a list of tags to use in identifying this instance with enough
// entropy so as to avoid collisions as it should not be possible to have both the
// host and process_id be the same.
func (c *Config) GetTags() (map[string]string, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.Wrap(err, "Failed to get server hostname as tag")
	}

	tags := map[string]string{
		"host":       hostname,
		"process_id": strconv.Itoa(os.Getpid()),
	}
	if fn := os.Getenv("AWS_LAMBDA_FUNCTION_NAME"); fn != "" {
		tags["function_name"] = fn
	}

	return tags, nil
}

// GetObserver builds and returns the observer with the embedded
// optional stats receiver
func (c *Config) GetObserver(tags map[string]string) (*observer.Observer, error) {
	sr, err := c.GetStatsReceiver(tags)
	if err != nil {
		return nil, err
	}
	return observer.New(sr, time.Duration(c.Data.StatsReceiver.TimeoutSec)*time.Second, time.Duration(c.Data.StatsReceiver.BufferSec)*time.Second), nil
}

// GetStatsReceiver builds and returns the stats receiver
func (c *Config) GetStatsReceiver(tags map[string]string) (statsreceiveriface.StatsReceiver, error) {
	useReceiver := c.Data.StatsReceiver.Receiver
	decoderOpts := &DecoderOptions{
		Input: useReceiver.Body,
	}

	switch useReceiver.Name {
	case "statsd":
		plug := statsreceiver.AdaptStatsDStatsReceiverFunc(
			statsreceiver.NewStatsDReceiverWithTags(tags),
		)
		component, err := c.CreateComponent(plug, decoderOpts)
		if err != nil {
			return nil, err
		}

		if r, ok := component.(statsreceiveriface.StatsReceiver); ok {
			return r, nil
		}

		return nil, fmt.Errorf("could not interpret stats receiver configuration for %q", useReceiver.Name)
	case "":
		return nil, nil
	default:
		return nil, errors.New(fmt.Sprintf("Invalid stats receiver found; expected one of 'statsd' and got '%s'", useReceiver.Name))
	}
}
