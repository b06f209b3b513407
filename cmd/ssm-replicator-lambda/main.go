// Package main provides the Lambda entry point for the cross-region SSM
// parameter replicator, a CloudFormation custom resource handler.
//
// The website stack lives in one region but its certificate ARN (and other
// outputs) are published to SSM in another. This Lambda copies the
// configured parameters across and reports SUCCESS or FAILED to the stack.
//
// Configuration (environment):
//   - SOURCE_REGION: region to read from
//   - TARGET_REGION: region to write to
//   - PARAMETERS: JSON array of {"source": "...", "target": "..."}
//
// Timeout: 60 seconds.
package main

import (
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/rs/zerolog/log"

	"github.com/cullancarey/PortfolioWebsite/internal/cfnresponse"
	"github.com/cullancarey/PortfolioWebsite/internal/lambdaboot"
	"github.com/cullancarey/PortfolioWebsite/internal/logging"
	"github.com/cullancarey/PortfolioWebsite/internal/paramstore"
	"github.com/cullancarey/PortfolioWebsite/internal/replicator"
)

var handler *replicator.Handler

func init() {
	initStart := time.Now()
	logging.Init()

	aws := lambdaboot.InitAWS()

	// Not fatal: each invocation must still reach the callback.
	defaults, defaultsErr := replicator.FromEnv()
	if defaultsErr != nil {
		log.Error().Err(defaultsErr).Msg("Replication configuration is invalid")
	}

	handler = replicator.NewHandler(
		paramstore.NewSSMOpener(aws.Config),
		cfnresponse.NewSender(),
		replicator.Config{
			Defaults:    defaults,
			DefaultsErr: defaultsErr,
			LogStream:   lambdacontext.LogStreamName,
		},
	)

	lambdaboot.StartupLog("ssm-replicator-lambda", initStart).
		CommitHash(commitHash).
		BuildTime(buildTime).
		Region("source", defaults.SourceRegion).
		Region("target", defaults.TargetRegion).
		Config("parameterCount", strconv.Itoa(len(defaults.Parameters))).
		Feature("configValid", defaultsErr == nil).
		Log()
}

func main() {
	lambda.Start(handler.Handle)
}
