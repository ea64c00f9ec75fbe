package rules

import (
	"context"
	"fmt"

	"storefront/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// ObjectGetter is the subset of the S3 client used by the loader.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// s3Loader implements Loader for rule documents stored in AWS S3.
type s3Loader struct {
	client ObjectGetter
	bucket string
	logger zerolog.Logger
}

// NewS3Loader creates a new S3-based rule loader using the default AWS
// credential chain.
func NewS3Loader(ctx context.Context, bucket, region string, logger zerolog.Logger) (Loader, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Msg("S3 rule loader initialised")

	return NewS3LoaderWithClient(s3.NewFromConfig(cfg), bucket, logger), nil
}

// NewS3LoaderWithClient creates an S3 rule loader around an existing client.
func NewS3LoaderWithClient(client ObjectGetter, bucket string, logger zerolog.Logger) Loader {
	return &s3Loader{
		client: client,
		bucket: bucket,
		logger: logger.With().Str("component", "s3-rule-loader").Logger(),
	}
}

// Load reads a rule document from S3. key is the full object key.
func (l *s3Loader) Load(ctx context.Context, key string) ([]model.DiscountRule, error) {
	result, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		l.logger.Error().
			Err(err).
			Str("bucket", l.bucket).
			Str("key", key).
			Msg("failed to get object from S3")
		return nil, fmt.Errorf("failed to get object from S3 (bucket=%s, key=%s): %w", l.bucket, key, err)
	}
	defer result.Body.Close()

	rules, err := decode(ctx, result.Body, key)
	if err != nil {
		l.logger.Error().
			Err(err).
			Str("bucket", l.bucket).
			Str("key", key).
			Msg("failed to read rule document from S3")
		return nil, err
	}

	l.logger.Info().
		Str("bucket", l.bucket).
		Str("key", key).
		Int("rules_loaded", len(rules)).
		Msg("rule document loaded from S3")

	return rules, nil
}

// fallbackLoader tries S3 first, then the local file system.
type fallbackLoader struct {
	primary  Loader
	fallback Loader
	prefix   string
	enabled  bool
	logger   zerolog.Logger
	onFall   func()
}

// FallbackOption configures a fallback loader.
type FallbackOption func(*fallbackLoader)

// OnFallback registers a hook called every time the local copy is used
// because S3 failed.
func OnFallback(fn func()) FallbackOption {
	return func(l *fallbackLoader) {
		l.onFall = fn
	}
}

// NewFallbackLoader creates a loader that reads prefix+path from s3Loader
// when enabled, and path from fileLoader otherwise or on failure.
func NewFallbackLoader(s3Loader, fileLoader Loader, prefix string, enabled bool, logger zerolog.Logger, opts ...FallbackOption) Loader {
	l := &fallbackLoader{
		primary:  s3Loader,
		fallback: fileLoader,
		prefix:   prefix,
		enabled:  enabled,
		logger:   logger.With().Str("component", "rule-fallback-loader").Logger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *fallbackLoader) Load(ctx context.Context, path string) ([]model.DiscountRule, error) {
	if !l.enabled || l.primary == nil {
		return l.fallback.Load(ctx, path)
	}

	key := l.prefix + path
	rules, err := l.primary.Load(ctx, key)
	if err == nil {
		return rules, nil
	}

	l.logger.Warn().
		Err(err).
		Str("s3_key", key).
		Str("local_path", path).
		Msg("failed to load rules from S3, falling back to local file system")
	if l.onFall != nil {
		l.onFall()
	}

	return l.fallback.Load(ctx, path)
}
