package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// ssmAPI is the minimal AWS SSM interface required by SSM.
// *ssm.Client from aws-sdk-go-v2 satisfies this interface.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSM reads secrets from Parameter Store as <prefix>/<name>, decrypting
// SecureString values. A missing parameter is treated as an absent secret.
type SSM struct {
	api    ssmAPI
	prefix string
}

func NewSSM(api ssmAPI, prefix string) (*SSM, error) {
	if api == nil {
		return nil, errors.New("secrets: ssm api must not be nil")
	}
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return nil, errors.New("secrets: parameter prefix must not be empty")
	}
	return &SSM{api: api, prefix: prefix}, nil
}

func (s *SSM) parameterName(name string) string {
	return s.prefix + "/" + name
}

func (s *SSM) GetSecret(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("secrets: name is required")
	}
	param := s.parameterName(name)

	out, err := s.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(param),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("secrets: get parameter %q: %w", param, err)
	}
	if out == nil || out.Parameter == nil {
		return "", nil
	}
	return strings.TrimSpace(aws.ToString(out.Parameter.Value)), nil
}
