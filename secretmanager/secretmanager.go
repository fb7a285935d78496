package secretmanager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

type secretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

var (
	loadDefaultConfig       = config.LoadDefaultConfig
	newSecretsManagerClient = func(cfg aws.Config) secretsManagerAPI {
		return secretsmanager.NewFromConfig(cfg)
	}
)

// GetSecret returns the SecretString stored under name.
func GetSecret(name string) (string, error) {
	ctx := context.Background()
	cfg, err := loadDefaultConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("load aws config: %w", err)
	}

	out, err := newSecretsManagerClient(cfg).GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("get secret %s: %w", name, err)
	}
	if out == nil || out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", name)
	}
	return *out.SecretString, nil
}

// GetSecretValues reads a JSON object secret. Numbers and booleans are
// returned in their JSON text form, so an RDS port of 5432 becomes "5432".
func GetSecretValues(name string) (map[string]string, error) {
	raw, err := GetSecret(name)
	if err != nil {
		return nil, err
	}
	return parseSecretValues(raw)
}

func parseSecretValues(raw string) (map[string]string, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("decode secret: %w", err)
	}
	if fields == nil {
		return nil, errors.New("decode secret: not a JSON object")
	}

	values := make(map[string]string, len(fields))
	for key, value := range fields {
		switch v := value.(type) {
		case string:
			values[key] = v
		case float64:
			values[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			values[key] = strconv.FormatBool(v)
		case nil:
			continue
		default:
			return nil, fmt.Errorf("decode secret: field %s is not a scalar", key)
		}
	}
	return values, nil
}
