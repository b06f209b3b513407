// Package lambdaboot holds the cold-start bootstrap shared by the Lambdas:
// AWS config, SSM secret lookup, required environment, and the startup log.
// Each Lambda's init() is a short composition of these helpers.
package lambdaboot

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/cullancarey/PortfolioWebsite/internal/logging"
)

// AWSClients holds the AWS config and the SSM client for the Lambda's own region.
type AWSClients struct {
	Config aws.Config
	SSM    *ssm.Client
}

// InitAWS loads the default AWS config. Fatals on error.
func InitAWS() AWSClients {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{
		Config: cfg,
		SSM:    ssm.NewFromConfig(cfg),
	}
}

// RequireEnv returns the named environment variable. Fatals if it is empty.
func RequireEnv(name string) string {
	v := os.Getenv(name)
	if v == "" {
		log.Fatal().Str("envVar", name).Msg("Required environment variable is not set")
	}
	return v
}

// ParameterGetter is the SSM call used by LoadSecret.
type ParameterGetter interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// LoadSecret returns the value of envVar when set, otherwise reads
// paramName from SSM with decryption. Only the parameter path is logged.
func LoadSecret(ctx context.Context, client ParameterGetter, envVar, paramName string) (string, error) {
	if v := os.Getenv(envVar); v != "" {
		log.Debug().Str("envVar", envVar).Msg("Secret loaded from environment")
		return v, nil
	}

	start := time.Now()
	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(paramName),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("read %s from SSM: %w", paramName, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("read %s from SSM: empty parameter", paramName)
	}
	log.Debug().Str("param", paramName).Dur("elapsed", time.Since(start)).Msg("Secret loaded from SSM")
	return *out.Parameter.Value, nil
}

// StartupLog is a convenience wrapper for the startup logger.
func StartupLog(name string, initStart time.Time) *logging.StartupLogger {
	return logging.NewStartupLogger(name).InitDuration(time.Since(initStart))
}
