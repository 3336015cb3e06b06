// SPDX-License-Identifier: MPL-2.0

package s3pub

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"kitbag/internal/config"
)

// NewClient builds an S3 client from the standard AWS credential chain
// (env vars, shared config, instance role), letting explicit values
// from the kitbag config file fill gaps: config-file keys are used only
// when the environment provides none, and the endpoint override serves
// S3-compatible stores.
func NewClient(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{}

	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	// Env vars win over config-file keys, matching the AWS chain order.
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" && os.Getenv("AWS_ACCESS_KEY_ID") == "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// Compatible stores generally need path-style addressing.
			o.UsePathStyle = true
		}
	}), nil
}
