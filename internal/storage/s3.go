package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ArchiveConfig holds configuration for the document archive
type ArchiveConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UsePathStyle    bool
}

// DocumentArchive stores raw source documents in S3-compatible storage
// (e.g., RustFS) so a chapter can be re-ingested from its original bytes.
type DocumentArchive struct {
	client *s3.Client
	bucket string
}

// NewDocumentArchive creates a DocumentArchive with the given configuration
func NewDocumentArchive(ctx context.Context, cfg ArchiveConfig) (*DocumentArchive, error) {
	customResolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			if cfg.Endpoint != "" {
				return aws.Endpoint{
					URL:               cfg.Endpoint,
					HostnameImmutable: true,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		},
	)

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		config.WithEndpointResolverWithOptions(customResolver),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &DocumentArchive{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

func documentKey(chapterID string) string {
	return fmt.Sprintf("documents/%s/source.txt", chapterID)
}

// ArchiveDocument stores the raw document bytes for a chapter,
// overwriting any previous archive for the same chapter.
func (a *DocumentArchive) ArchiveDocument(ctx context.Context, chapterID string, raw []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(documentKey(chapterID)),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("failed to archive document: %w", err)
	}
	return nil
}

// FetchDocument retrieves the archived raw document for a chapter.
func (a *DocumentArchive) FetchDocument(ctx context.Context, chapterID string) ([]byte, error) {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(documentKey(chapterID)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document: %w", err)
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(out.Body); err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return buf.Bytes(), nil
}

// DeleteDocument removes the archived document for a chapter.
func (a *DocumentArchive) DeleteDocument(ctx context.Context, chapterID string) error {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(documentKey(chapterID)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (a *DocumentArchive) EnsureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(a.bucket),
	})
	if err == nil {
		return nil
	}

	_, err = a.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(a.bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	return nil
}
