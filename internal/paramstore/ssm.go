package paramstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/rs/zerolog/log"
)

// ssmAPI is the subset of the SSM client used by SSMStore.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	PutParameter(ctx context.Context, in *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
}

// SSMStore implements Store on AWS Systems Manager Parameter Store.
type SSMStore struct {
	client ssmAPI
	region string
}

var _ Store = (*SSMStore)(nil)

// NewSSMStore wraps an SSM client. region is used for logging only; the
// client must already be bound to it.
func NewSSMStore(client *ssm.Client, region string) *SSMStore {
	return &SSMStore{client: client, region: region}
}

// NewSSMOpener returns an Opener that builds one SSM client per call from
// base, overriding the region. Clients are not cached.
func NewSSMOpener(base aws.Config) Opener {
	return func(ctx context.Context, region string) (Store, error) {
		if region == "" {
			return nil, errors.New("region is required")
		}
		client := ssm.NewFromConfig(base, func(o *ssm.Options) {
			o.Region = region
		})
		return NewSSMStore(client, region), nil
	}
}

// Get reads a parameter with decryption so SecureString values can be
// re-encrypted in the target region.
func (s *SSMStore) Get(ctx context.Context, key string) (Parameter, error) {
	start := time.Now()
	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(key),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return Parameter{}, &NotFoundError{Key: key}
		}
		return Parameter{}, fmt.Errorf("get parameter %s in %s: %w", key, s.region, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return Parameter{}, &NotFoundError{Key: key}
	}

	log.Debug().
		Str("key", key).
		Str("region", s.region).
		Dur("elapsed", time.Since(start)).
		Msg("SSM parameter read")

	paramType := string(out.Parameter.Type)
	if paramType == "" {
		paramType = TypeString
	}
	return Parameter{Value: aws.ToString(out.Parameter.Value), Type: paramType}, nil
}

// Put writes a parameter, overwriting any existing value.
func (s *SSMStore) Put(ctx context.Context, key string, p Parameter) error {
	paramType := p.Type
	if paramType == "" {
		paramType = TypeString
	}

	start := time.Now()
	out, err := s.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(key),
		Value:     aws.String(p.Value),
		Type:      types.ParameterType(paramType),
		Overwrite: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("put parameter %s in %s: %w", key, s.region, err)
	}

	log.Debug().
		Str("key", key).
		Str("region", s.region).
		Str("type", paramType).
		Int64("version", out.Version).
		Dur("elapsed", time.Since(start)).
		Msg("SSM parameter written")
	return nil
}
