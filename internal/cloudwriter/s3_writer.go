package cloudwriter

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3Factory struct {
	client *s3.Client
}

func NewS3Factory(ctx context.Context, region string) (*S3Factory, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return &S3Factory{client: s3.NewFromConfig(cfg)}, nil
}

func (f *S3Factory) NewWriter(ctx context.Context, bucket, key string) (ObjectWriter, error) {
	return &s3Writer{
		ctx:    ctx,
		client: f.client,
		bucket: bucket,
		key:    key,
	}, nil
}

type s3Writer struct {
	ctx    context.Context
	client *s3.Client
	bucket string
	key    string
	buffer bytes.Buffer
}

func (w *s3Writer) Write(data []byte) (int, error) {
	return w.buffer.Write(data)
}

// Close uploads the buffered object. The upload happens once, here, so a
// half-written archive never lands in the bucket.
func (w *s3Writer) Close() error {
	_, err := w.client.PutObject(w.ctx, &s3.PutObjectInput{
		Bucket: aws.String(w.bucket),
		Key:    aws.String(w.key),
		Body:   bytes.NewReader(w.buffer.Bytes()),
	})
	if err != nil {
		return fmt.Errorf("unable to upload archive to S3: %w", err)
	}
	return nil
}
