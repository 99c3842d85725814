package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectAPI is the part of the S3 client R2Storage calls.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type R2Storage struct {
	client          ObjectAPI
	bucketName      string
	publicURL       string
	downloadTimeout time.Duration
}

func NewR2Storage(ctx context.Context, accountId, accessKey, secretKey, bucketName, publicURL string, downloadTimeout time.Duration) (*R2Storage, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountId))
		o.UsePathStyle = true
	})

	return NewR2StorageWithClient(client, bucketName, publicURL, downloadTimeout), nil
}

// NewR2StorageWithClient wires an existing client, e.g. one pointed at a local S3 emulator.
func NewR2StorageWithClient(client ObjectAPI, bucketName, publicURL string, downloadTimeout time.Duration) *R2Storage {
	return &R2Storage{
		client:          client,
		bucketName:      bucketName,
		publicURL:       strings.TrimSuffix(publicURL, "/"),
		downloadTimeout: downloadTimeout,
	}
}

// GetObject downloads key in full.
func (s *R2Storage) GetObject(ctx context.Context, key string) ([]byte, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return nil, fmt.Errorf("object key required")
	}

	getCtx := ctx
	if s.downloadTimeout > 0 {
		var cancel context.CancelFunc
		getCtx, cancel = context.WithTimeout(ctx, s.downloadTimeout)
		defer cancel()
	}

	out, err := s.client.GetObject(getCtx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s from R2: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from R2: %w", key, err)
	}
	return data, nil
}

// PublicURL maps an object key to its public address.
// Without a configured public URL the key is returned unchanged.
func (s *R2Storage) PublicURL(key string) string {
	if s.publicURL == "" {
		return key
	}
	return fmt.Sprintf("%s/%s", s.publicURL, strings.TrimPrefix(key, "/"))
}
