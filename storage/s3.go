package storage

import (
	"bytes"
	"context"
	"fmt"

	"paper-depot/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client kapselt das Dokumentenarchiv auf einem S3-kompatiblen Speicher.
type S3Client struct {
	client *s3.Client
	bucket string
	url    string
}

// NewS3Client erstellt einen S3-Client für das Archiv.
func NewS3Client(cfg *config.Config) (*S3Client, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               cfg.ArchiveS3URL,
				SigningRegion:     cfg.ArchiveS3Region,
				HostnameImmutable: true,
			}, nil
		},
	)
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.ArchiveS3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.ArchiveS3Key, cfg.ArchiveS3Secret, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, err
	}

	return &S3Client{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.ArchiveS3Bucket,
		url:    cfg.ArchiveS3URL,
	}, nil
}

// UploadDocument lädt ein Dokument ins Archiv hoch und gibt den Link zurück.
func (c *S3Client) UploadDocument(ctx context.Context, key string, data []byte) (string, error) {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &c.bucket,
		Key:    &key,
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s", c.url, c.bucket, key), nil
}

// UploadBackup lädt einen Datenbank-Dump ins Archiv hoch.
func (c *S3Client) UploadBackup(ctx context.Context, key string, data []byte) (string, error) {
	return c.UploadDocument(ctx, key, data)
}
