// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package classifier

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/comprehend"
	"github.com/aws/aws-sdk-go/service/comprehend/comprehendiface"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/snowplow-devops/stream-sentiment/pkg/common"
)

const (
	defaultLanguageCode = comprehend.LanguageCodeEn
)

// ComprehendClassifierConfig configures the sentiment detection client
type ComprehendClassifierConfig struct {
	Region            string `hcl:"region,optional" env:"CLASSIFIER_COMPREHEND_REGION"`
	RoleARN           string `hcl:"role_arn,optional" env:"CLASSIFIER_COMPREHEND_ROLE_ARN"`
	CustomAWSEndpoint string `hcl:"custom_aws_endpoint,optional" env:"CLASSIFIER_COMPREHEND_CUSTOM_AWS_ENDPOINT"`
	LanguageCode      string `hcl:"language_code,optional" env:"CLASSIFIER_COMPREHEND_LANGUAGE_CODE"`
	TimeoutMs         int    `hcl:"timeout_ms,optional" env:"CLASSIFIER_COMPREHEND_TIMEOUT_MS"`
}

// ComprehendClassifier detects the sentiment of a text with AWS Comprehend
type ComprehendClassifier struct {
	client       comprehendiface.ComprehendAPI
	region       string
	languageCode string
	timeout      time.Duration
	labels       map[string]struct{}

	log *log.Entry
}

// newComprehendClassifier creates a new client for detecting sentiment
func newComprehendClassifier(region string, roleARN string, customAWSEndpoint string, languageCode string, timeout time.Duration) (*ComprehendClassifier, error) {
	awsSession, awsConfig := common.GetAWSSessionNoIdentity(region, roleARN, customAWSEndpoint)
	comprehendClient := comprehend.New(awsSession, awsConfig)

	return newComprehendClassifierWithInterfaces(comprehendClient, aws.StringValue(awsSession.Config.Region), languageCode, timeout)
}

// newComprehendClassifierWithInterfaces allows you to provide a Comprehend client directly to allow
// for mocking and localstack usage
func newComprehendClassifierWithInterfaces(client comprehendiface.ComprehendAPI, region string, languageCode string, timeout time.Duration) (*ComprehendClassifier, error) {
	if languageCode == "" {
		languageCode = defaultLanguageCode
	}
	if !isKnownLanguageCode(languageCode) {
		return nil, fmt.Errorf("unsupported language code %q", languageCode)
	}

	labels := make(map[string]struct{})
	for _, label := range comprehend.SentimentType_Values() {
		labels[label] = struct{}{}
	}

	return &ComprehendClassifier{
		client:       client,
		region:       region,
		languageCode: languageCode,
		timeout:      timeout,
		labels:       labels,
		log:          log.WithFields(log.Fields{"classifier": "comprehend", "cloud": "AWS", "region": region, "language": languageCode}),
	}, nil
}

// ComprehendClassifierConfigFunction creates a ComprehendClassifier from a ComprehendClassifierConfig
func ComprehendClassifierConfigFunction(c *ComprehendClassifierConfig) (*ComprehendClassifier, error) {
	return newComprehendClassifier(
		c.Region,
		c.RoleARN,
		c.CustomAWSEndpoint,
		c.LanguageCode,
		time.Duration(c.TimeoutMs)*time.Millisecond,
	)
}

// The ComprehendClassifierAdapter type is an adapter for functions to be used as
// pluggable components for the Comprehend classifier. Implements the Pluggable interface.
type ComprehendClassifierAdapter func(i interface{}) (interface{}, error)

// Create implements the ComponentCreator interface.
func (f ComprehendClassifierAdapter) Create(i interface{}) (interface{}, error) {
	return f(i)
}

// ProvideDefault implements the ComponentConfigurable interface.
func (f ComprehendClassifierAdapter) ProvideDefault() (interface{}, error) {
	cfg := &ComprehendClassifierConfig{
		LanguageCode: defaultLanguageCode,
	}

	return cfg, nil
}

// AdaptComprehendClassifierFunc returns a ComprehendClassifierAdapter.
func AdaptComprehendClassifierFunc(f func(c *ComprehendClassifierConfig) (*ComprehendClassifier, error)) ComprehendClassifierAdapter {
	return func(i interface{}) (interface{}, error) {
		cfg, ok := i.(*ComprehendClassifierConfig)
		if !ok {
			return nil, errors.New("invalid input, expected ComprehendClassifierConfig")
		}

		return f(cfg)
	}
}

// Classify returns the dominant sentiment of the text
func (cc *ComprehendClassifier) Classify(ctx context.Context, text string) (string, error) {
	if cc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cc.timeout)
		defer cancel()
	}

	res, err := cc.client.DetectSentimentWithContext(ctx, &comprehend.DetectSentimentInput{
		LanguageCode: aws.String(cc.languageCode),
		Text:         aws.String(text),
	})
	if err != nil {
		return "", errors.Wrap(err, "Failed to detect sentiment")
	}

	label := aws.StringValue(res.Sentiment)
	if _, ok := cc.labels[label]; !ok {
		return "", fmt.Errorf("unexpected sentiment label %q in response", label)
	}

	cc.log.Debugf("Detected sentiment %s", label)
	return label, nil
}

// GetID returns the identifier for this classifier
func (cc *ComprehendClassifier) GetID() string {
	return fmt.Sprintf("comprehend:%s:%s", cc.region, cc.languageCode)
}

func isKnownLanguageCode(code string) bool {
	for _, known := range comprehend.LanguageCode_Values() {
		if known == code {
			return true
		}
	}
	return false
}
