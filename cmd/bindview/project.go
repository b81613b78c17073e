package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/vango-dev/bindkit/internal/config"
	"github.com/vango-dev/bindkit/pkg/component"
	"github.com/vango-dev/bindkit/pkg/errors"
)

// loadConfig reads --config, or the nearest bindkit.json above the working
// directory. Without either the defaults are used.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return config.LoadFile(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := config.FindProjectRoot(wd)
	if err != nil {
		return config.New(), nil
	}
	return config.Load(root)
}

// readModel decodes a JSON object from path. An empty path yields an empty
// model.
func readModel(path string) (map[string]any, error) {
	model := map[string]any{}
	if path == "" {
		return model, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, errors.New(errors.CodeConfigInvalid).
			WithDetailf("model %s is not a JSON object", path).
			Wrap(err)
	}
	return model, nil
}

// loadComponents preloads component templates from S3 when a bucket is
// configured, otherwise from the components directory.
func loadComponents(ctx context.Context, cfg *config.Config) (*component.Registry, error) {
	reg := component.NewRegistry()

	var loader component.Loader
	switch {
	case cfg.Components.S3.Bucket != "":
		loader = component.S3Loader{
			Client: newS3Client(cfg.Components.S3),
			Bucket: cfg.Components.S3.Bucket,
			Prefix: cfg.Components.S3.Prefix,
			Ext:    cfg.Components.Ext,
		}
	case cfg.ComponentsPath() != "":
		loader = component.FSLoader{
			FS:  os.DirFS(cfg.ComponentsPath()),
			Ext: cfg.Components.Ext,
		}
	default:
		return reg, nil
	}

	if err := component.Preload(ctx, reg, loader); err != nil {
		return nil, err
	}
	return reg, nil
}

// newS3Client builds a client with static credentials from the standard
// AWS environment variables. Anonymous access is used when they are unset.
func newS3Client(cfg config.S3Config) *s3.Client {
	opts := s3.Options{
		Region: cfg.Region,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	if id := os.Getenv("AWS_ACCESS_KEY_ID"); id != "" {
		opts.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     id,
					SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
					SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
					Source:          "environment",
				}, nil
			}))
	} else {
		opts.Credentials = aws.AnonymousCredentials{}
	}
	return s3.New(opts)
}
