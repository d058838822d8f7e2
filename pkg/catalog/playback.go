package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const defaultPlaybackTTL = 15 * time.Minute

// StorageConfig holds the S3-compatible storage settings for playback.
// Endpoint and ForcePathStyle support MinIO and other S3 clones.
type StorageConfig struct {
	Bucket         string        `env:"STORAGE_BUCKET,required"`
	Region         string        `env:"STORAGE_REGION" envDefault:"us-east-1"`
	AccessKeyID    string        `env:"STORAGE_ACCESS_KEY_ID"`
	SecretKey      string        `env:"STORAGE_SECRET_KEY"`
	Endpoint       string        `env:"STORAGE_ENDPOINT"`
	ForcePathStyle bool          `env:"STORAGE_FORCE_PATH_STYLE" envDefault:"false"`
	PlaybackTTL    time.Duration `env:"STORAGE_PLAYBACK_TTL" envDefault:"15m"`
}

// Validate checks the config for required fields.
func (c StorageConfig) Validate() error {
	if c.Bucket == "" {
		return errors.Join(ErrInvalidConfig, errors.New("bucket is required"))
	}
	if c.Region == "" {
		return errors.Join(ErrInvalidConfig, errors.New("region is required"))
	}
	return nil
}

// presignAPI is the subset of s3.PresignClient the signer needs. Declared
// as an interface so tests can substitute a fake.
type presignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// PlaybackSigner issues short-lived presigned GET URLs for media objects.
type PlaybackSigner struct {
	presigner presignAPI
	bucket    string
	ttl       time.Duration
}

// SignerOption configures a PlaybackSigner.
type SignerOption func(*PlaybackSigner)

// WithPresignClient substitutes the presign client, primarily for tests.
func WithPresignClient(p presignAPI) SignerOption {
	return func(s *PlaybackSigner) {
		s.presigner = p
	}
}

// NewPlaybackSigner builds a signer backed by the configured bucket.
func NewPlaybackSigner(ctx context.Context, cfg StorageConfig, opts ...SignerOption) (*PlaybackSigner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ttl := cfg.PlaybackTTL
	if ttl <= 0 {
		ttl = defaultPlaybackTTL
	}

	signer := &PlaybackSigner{
		bucket: cfg.Bucket,
		ttl:    ttl,
	}
	for _, opt := range opts {
		opt(signer)
	}

	if signer.presigner == nil {
		loadOpts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(cfg.Region),
		}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
			))
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, errors.Join(ErrInvalidConfig, err)
		}

		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			o.UsePathStyle = cfg.ForcePathStyle
		})
		signer.presigner = s3.NewPresignClient(client)
	}

	return signer, nil
}

// PlaybackURL returns a presigned GET URL for the object at storageKey.
// The URL expires after the configured TTL.
func (s *PlaybackSigner) PlaybackURL(ctx context.Context, storageKey string) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, fmt.Errorf("%w: empty storage key", ErrPresignFailed)
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageKey),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", time.Time{}, errors.Join(ErrPresignFailed, err)
	}

	return req.URL, time.Now().Add(s.ttl), nil
}
