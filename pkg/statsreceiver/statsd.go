// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package statsreceiver

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	statsd "github.com/smira/go-statsd"

	"github.com/snowplow-devops/stream-sentiment/pkg/models"
)

// StatsDStatsReceiverConfig configures the stats metrics receiver
type StatsDStatsReceiverConfig struct {
	Address string `hcl:"address,optional" env:"STATS_RECEIVER_STATSD_ADDRESS"`
	Prefix  string `hcl:"prefix,optional" env:"STATS_RECEIVER_STATSD_PREFIX"`
	Tags    string `hcl:"tags,optional" env:"STATS_RECEIVER_STATSD_TAGS"`
}

// statsDStatsReceiver holds a new client for writing statistics to a StatsD server
type statsDStatsReceiver struct {
	client statsdClient
}

// statsdClient is the subset of the statsd client used to emit the buffer
type statsdClient interface {
	Incr(stat string, count int64, tags ...statsd.Tag)
	PrecisionTiming(stat string, delta time.Duration, tags ...statsd.Tag)
}

// parseTags merges the configured JSON tags with the client supplied ones
func parseTags(tagsRaw string, tagsMapClient map[string]string) ([]statsd.Tag, error) {
	tagsMap := map[string]string{}
	if tagsRaw != "" {
		if err := json.Unmarshal([]byte(tagsRaw), &tagsMap); err != nil {
			return nil, errors.Wrap(err, "Failed to unmarshall STATSD_TAGS to map")
		}
	}

	var tags []statsd.Tag
	for key, value := range tagsMap {
		tags = append(tags, statsd.StringTag(key, value))
	}
	for key, value := range tagsMapClient {
		tags = append(tags, statsd.StringTag(key, value))
	}
	return tags, nil
}

// newStatsDStatsReceiver creates a new client for writing metrics to StatsD
func newStatsDStatsReceiver(address string, prefix string, tagsRaw string, tagsMapClient map[string]string) (*statsDStatsReceiver, error) {
	tags, err := parseTags(tagsRaw, tagsMapClient)
	if err != nil {
		return nil, err
	}

	client := statsd.NewClient(address,
		statsd.MaxPacketSize(1400),
		statsd.MetricPrefix(fmt.Sprintf("%s.", prefix)),
		statsd.TagStyle(statsd.TagFormatDatadog),
		statsd.DefaultTags(tags...),
		statsd.ReconnectInterval(60*time.Second),
	)

	return &statsDStatsReceiver{
		client: client,
	}, nil
}

// NewStatsDReceiverWithTags closes over a given tags map and returns a function
// that creates a statsDStatsReceiver given a StatsDStatsReceiverConfig.
func NewStatsDReceiverWithTags(tags map[string]string) func(c *StatsDStatsReceiverConfig) (*statsDStatsReceiver, error) {
	return func(c *StatsDStatsReceiverConfig) (*statsDStatsReceiver, error) {
		return newStatsDStatsReceiver(
			c.Address,
			c.Prefix,
			c.Tags,
			tags,
		)
	}
}

// The StatsDStatsReceiverAdapter type is an adapter for functions to be used as
// pluggable components for StatsD Stats Receiver.
// It implements the Pluggable interface.
type StatsDStatsReceiverAdapter func(i interface{}) (interface{}, error)

// Create implements the ComponentCreator interface.
func (f StatsDStatsReceiverAdapter) Create(i interface{}) (interface{}, error) {
	return f(i)
}

// ProvideDefault implements the ComponentConfigurable interface.
func (f StatsDStatsReceiverAdapter) ProvideDefault() (interface{}, error) {
	// Provide defaults for the optional parameters
	// whose default is not their zero value.
	cfg := &StatsDStatsReceiverConfig{
		Prefix: "snowplow.stream-sentiment",
		Tags:   "{}",
	}

	return cfg, nil
}

// AdaptStatsDStatsReceiverFunc returns a StatsDStatsReceiverAdapter.
func AdaptStatsDStatsReceiverFunc(f func(c *StatsDStatsReceiverConfig) (*statsDStatsReceiver, error)) StatsDStatsReceiverAdapter {
	return func(i interface{}) (interface{}, error) {
		cfg, ok := i.(*StatsDStatsReceiverConfig)
		if !ok {
			return nil, errors.New("invalid input, expected StatsDStatsReceiverConfig")
		}

		return f(cfg)
	}
}

// Send emits the bufferred metrics to the receiver
func (s *statsDStatsReceiver) Send(b *models.ObserverBuffer) {
	s.client.Incr("record_ok", b.RecordsOk)
	s.client.Incr("record_failed", b.RecordsFailed)
	s.client.Incr("record_decode_failed", b.DecodeFailed)
	s.client.Incr("record_classification_failed", b.ClassificationFailed)
	s.client.Incr("record_encode_failed", b.EncodeFailed)
	s.client.Incr("batch_transformed", b.TransformResults)
	s.client.Incr("message_sent", b.MsgSent)
	s.client.Incr("message_failed", b.MsgFailed)
	s.client.PrecisionTiming("latency_transform_max", b.MaxTransformLatency)
	s.client.PrecisionTiming("latency_transform_avg", b.GetAvgTransformLatency())
	s.client.PrecisionTiming("latency_request_max", b.MaxRequestLatency)
}
