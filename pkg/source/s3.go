package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/qaops/reportoor/pkg/config"
)

// Compile-time interface check.
var _ Provider = (*s3Provider)(nil)

// s3Provider fetches the report artifact from an S3-compatible bucket.
type s3Provider struct {
	client *s3.Client
	bucket string
	key    string
}

func newS3Provider(cfg *config.S3SourceConfig) *s3Provider {
	return &s3Provider{
		client: newS3Client(cfg),
		bucket: cfg.Bucket,
		key:    cfg.Key,
	}
}

// Name identifies the provider by bucket and key.
func (p *s3Provider) Name() string {
	return "s3://" + p.bucket + "/" + p.key
}

// Fetch reads the object. A missing key is a definitive "no data"
// condition rather than a transient failure.
func (p *s3Provider) Fetch(ctx context.Context) ([]byte, error) {
	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, fmt.Errorf("object %s: %w", p.Name(), ErrNoData)
		}

		return nil, fmt.Errorf("getting object %s: %w", p.Name(), err)
	}

	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading object %s: %w", p.Name(), err)
	}

	return data, nil
}

func isS3NotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	return strings.Contains(err.Error(), "NoSuchKey")
}

func newS3Client(cfg *config.S3SourceConfig) *s3.Client {
	opts := []func(*s3.Options){
		func(o *s3.Options) {
			if cfg.Region != "" {
				o.Region = cfg.Region
			} else {
				o.Region = "us-east-1"
			}

			if cfg.EndpointURL != "" {
				o.BaseEndpoint = aws.String(cfg.EndpointURL)
			}

			if cfg.ForcePathStyle {
				o.UsePathStyle = true
			}

			if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
				o.Credentials = credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID, cfg.SecretAccessKey, "",
				)
			}
		},
	}

	return s3.New(s3.Options{}, opts...)
}
