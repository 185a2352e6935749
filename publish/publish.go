// Package publish uploads compiled circuit outputs to an S3 bucket.
package publish

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/noirkit/noirkit/config"
)

// ErrNoBucket is returned when publishing without a configured bucket.
var ErrNoBucket = errors.New("publish.bucket is not configured")

// Uploader is the part of the S3 transfer manager used here.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// NewS3Uploader builds a transfer manager from the default AWS credential chain.
func NewS3Uploader(ctx context.Context, region string) (Uploader, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "loading AWS configuration")
	}
	return manager.NewUploader(s3.NewFromConfig(awsCfg)), nil
}

// Files returns the outputs of the main circuit that exist on disk: artifact, persisted
// keys and verifier contract.
func Files(cfg config.Config) []string {
	pk, vk := cfg.KeyPaths("")
	var out []string
	for _, p := range []string{cfg.ArtifactPath(""), pk, vk, cfg.ContractPath("")} {
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

// Key is the object key of a published file.
func Key(prefix, file string) string {
	if prefix == "" {
		return filepath.Base(file)
	}
	return path.Join(prefix, filepath.Base(file))
}

// Publish uploads every existing output of the main circuit concurrently and returns the
// uploaded object keys.
func Publish(ctx context.Context, cfg config.Config, up Uploader, log zerolog.Logger) ([]string, error) {
	if cfg.Publish.Bucket == "" {
		return nil, ErrNoBucket
	}
	files := Files(cfg)
	if len(files) == 0 {
		return nil, errors.Errorf("nothing to publish in %s", cfg.BuildDir())
	}

	keys := make([]string, len(files))
	g, ctx := errgroup.WithContext(ctx)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			key := Key(cfg.Publish.Prefix, file)
			if err := uploadFile(ctx, up, cfg.Publish.Bucket, key, file, log); err != nil {
				return errors.Wrapf(err, "uploading %s", filepath.Base(file))
			}
			keys[i] = key
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return keys, nil
}

func uploadFile(ctx context.Context, up Uploader, bucket, key, file string, log zerolog.Logger) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}

	body := NewProgressTrackingReader(f, filepath.Base(file), info.Size(), log)
	if _, err := up.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	}); err != nil {
		return err
	}
	log.Info().Str("bucket", bucket).Str("key", key).Int64("bytes", body.Total()).Msg("uploaded")
	return nil
}
