package main

import (
	"context"
	"fmt"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cullancarey/PortfolioWebsite/internal/logging"
	"github.com/cullancarey/PortfolioWebsite/internal/paramstore"
	"github.com/cullancarey/PortfolioWebsite/internal/replicator"
)

// CLI flags
var (
	sourceRegionFlag   string
	targetRegionFlag   string
	paramFlags         []string
	parametersJSONFlag string
	dryRunFlag         bool
	timeoutFlag        time.Duration
)

// rootCmd is the main Cobra command for the ssm-replicate CLI.
var rootCmd = &cobra.Command{
	Use:   "ssm-replicate",
	Short: "Copy SSM parameters from one AWS region to another",
	Long: `ssm-replicate runs the same replication as the custom resource Lambda,
from a workstation, without CloudFormation in the loop. Pairs run in order
and the first failure stops the run.

Flags fall back to SOURCE_REGION, TARGET_REGION and PARAMETERS.

Examples:
  ssm-replicate --source-region us-east-1 --target-region us-east-2 --param /cert_arn
  ssm-replicate -s us-east-1 -t us-east-2 --param /a=/b --param /c
  ssm-replicate --parameters-json '[{"source":"/a","target":"/b"}]' --dry-run`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runMain,
}

func init() {
	rootCmd.Flags().StringVarP(&sourceRegionFlag, "source-region", "s", "", "Region to read parameters from")
	rootCmd.Flags().StringVarP(&targetRegionFlag, "target-region", "t", "", "Region to write parameters to")
	rootCmd.Flags().StringArrayVarP(&paramFlags, "param", "p", nil, "Parameter to copy, as source[=target] (repeatable)")
	rootCmd.Flags().StringVar(&parametersJSONFlag, "parameters-json", "", `JSON array of {"source","target"} pairs`)
	rootCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Read from the source region but write to memory only")
	rootCmd.Flags().DurationVar(&timeoutFlag, "timeout", replicator.DefaultInvocationTimeout, "Overall timeout")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runMain is the main execution logic called by Cobra.
func runMain(cmd *cobra.Command, args []string) error {
	logging.Init()

	req, err := buildRequest(sourceRegionFlag, targetRegionFlag, paramFlags, parametersJSONFlag)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
	defer cancel()

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("load AWS config: %w", err)
	}
	open := paramstore.NewSSMOpener(cfg)

	source, err := open(ctx, req.SourceRegion)
	if err != nil {
		return err
	}

	var target paramstore.Writer
	var dryRunTarget *paramstore.MemoryStore
	if dryRunFlag {
		dryRunTarget = paramstore.NewMemoryStore(nil)
		target = dryRunTarget
	} else {
		store, err := open(ctx, req.TargetRegion)
		if err != nil {
			return err
		}
		target = store
	}

	fmt.Println()
	fmt.Println("============================================")
	fmt.Println("SSM Parameter Replication")
	fmt.Println("============================================")
	fmt.Printf("Source region: %s\n", req.SourceRegion)
	fmt.Printf("Target region: %s\n", req.TargetRegion)
	fmt.Printf("Parameters: %d\n", len(req.Parameters))
	if dryRunFlag {
		fmt.Println("Mode: DRY RUN (no writes)")
	}
	fmt.Println("--------------------------------------------")

	start := time.Now()
	count, err := replicator.New(source, target, replicator.DefaultCallTimeout).Replicate(ctx, req.Parameters)
	for i, pair := range req.Parameters[:count] {
		fmt.Printf("  %d. %s -> %s\n", i+1, pair.Source, pair.Target)
	}
	if err != nil {
		log.Error().Err(err).Int("replicated", count).Msg("Replication failed")
		fmt.Printf("\nFAILED after %d of %d: %v\n", count, len(req.Parameters), err)
		return err
	}

	if dryRunTarget != nil {
		fmt.Printf("\nWould write %d parameter(s) to %s\n", len(dryRunTarget.Writes()), req.TargetRegion)
	}
	fmt.Printf("\nReplicated %d parameter(s) in %s\n", count, time.Since(start).Round(time.Millisecond))
	return nil
}

// buildRequest merges the environment with the command-line flags and
// validates the result. A malformed PARAMETERS is ignored when the flags
// supply the pairs.
func buildRequest(sourceRegion, targetRegion string, params []string, rawJSON string) (replicator.Request, error) {
	pairs, err := parsePairs(params, rawJSON)
	if err != nil {
		return replicator.Request{}, err
	}

	req, envErr := replicator.FromEnv()
	if envErr != nil {
		if pairs == nil {
			return replicator.Request{}, envErr
		}
		log.Debug().Err(envErr).Msg("Ignoring PARAMETERS, overridden by flags")
	}

	req = req.Merge(replicator.Request{
		SourceRegion: sourceRegion,
		TargetRegion: targetRegion,
		Parameters:   pairs,
	})
	if err := req.Validate(); err != nil {
		return replicator.Request{}, err
	}
	return req, nil
}
