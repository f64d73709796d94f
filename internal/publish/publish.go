// Package publish uploads report artifacts to S3.
package publish

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// ObjectPutter is the subset of the S3 client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Options configures a Publisher.
type Options struct {
	Bucket string
	Prefix string // key prefix, e.g. "reports/"
	Region string
}

// Publisher uploads artifacts under <prefix>/<run id>/<file name>.
type Publisher struct {
	client ObjectPutter
	bucket string
	prefix string
	logger zerolog.Logger
}

// NewS3Publisher creates a publisher using the default AWS credential chain.
func NewS3Publisher(ctx context.Context, opts Options) (*Publisher, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("publish: bucket is empty")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewPublisher(s3.NewFromConfig(awsCfg), opts), nil
}

// NewPublisher creates a publisher over an existing client.
func NewPublisher(client ObjectPutter, opts Options) *Publisher {
	return &Publisher{
		client: client,
		bucket: opts.Bucket,
		prefix: opts.Prefix,
		logger: zerolog.Nop(),
	}
}

// WithLogger sets the logger.
func (p *Publisher) WithLogger(logger zerolog.Logger) *Publisher {
	p.logger = logger
	return p
}

// Key returns the object key of a file for a run.
func (p *Publisher) Key(runID, file string) string {
	return path.Join(p.prefix, runID, filepath.Base(file))
}

// Upload puts every file and returns the object keys in input order.
// Stops at the first failure.
func (p *Publisher) Upload(ctx context.Context, runID string, files []string) ([]string, error) {
	if runID == "" {
		return nil, fmt.Errorf("publish: run id is empty")
	}

	keys := make([]string, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return keys, fmt.Errorf("read artifact: %w", err)
		}

		key := p.Key(runID, f)
		_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(p.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType(f)),
		})
		if err != nil {
			return keys, fmt.Errorf("upload s3://%s/%s: %w", p.bucket, key, err)
		}
		keys = append(keys, key)
	}

	p.logger.Info().
		Str("bucket", p.bucket).
		Str("run_id", runID).
		Int("objects", len(keys)).
		Msg("artifacts uploaded")
	return keys, nil
}

func contentType(file string) string {
	switch ext := filepath.Ext(file); ext {
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".csv":
		return "text/csv; charset=utf-8"
	default:
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
		return "application/octet-stream"
	}
}
