// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/snowplow-devops/stream-sentiment/cmd"
)

func main() {
	lambda.Start(cmd.ProducerRequestHandler)
}
