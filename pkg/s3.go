package pkg

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"golang.org/x/net/context"
)

// Uploader copies a local file into a logical folder of the object store.
type Uploader interface {
	Upload(ctx context.Context, localPath, folder string) error
}

// ObjectPutter is the subset of the S3 upload manager used by S3Backup.
type ObjectPutter interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// ContentHeaders holds the header overrides derived from a file extension.
type ContentHeaders struct {
	ContentType        string
	ContentDisposition string
}

type S3Backup struct {
	bucket    string
	subfolder string
	putter    ObjectPutter
	logger    *zerolog.Logger
}

// NewS3Backup opens one session from the default AWS credential chain, used for every upload
// of the run.
func NewS3Backup(ctx context.Context, bucket, subfolder string, logger *zerolog.Logger) (*S3Backup, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed loading AWS configuration: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	return NewS3BackupWithPutter(bucket, subfolder, manager.NewUploader(client), logger), nil
}

func NewS3BackupWithPutter(bucket, subfolder string, putter ObjectPutter, logger *zerolog.Logger) *S3Backup {
	return &S3Backup{bucket: bucket, subfolder: subfolder, putter: putter, logger: loggerOrNop(logger)}
}

// S3Path joins the configured subfolder, the folder and the base name of localPath.
func (b *S3Backup) S3Path(localPath, folder string) string {
	return path.Join(b.subfolder, folder, filepath.Base(localPath))
}

// ContentHeadersFor maps a file extension to header overrides. Unknown extensions get none.
func ContentHeadersFor(localPath string) ContentHeaders {
	switch {
	case strings.HasSuffix(localPath, ".png"):
		return ContentHeaders{ContentType: "image/png"}
	case strings.HasSuffix(localPath, ".pdf"):
		return ContentHeaders{ContentType: "application/pdf", ContentDisposition: "inline"}
	case strings.HasSuffix(localPath, ".xlsx"), strings.HasSuffix(localPath, ".xls"):
		return ContentHeaders{ContentType: "application/vnd.ms-excel", ContentDisposition: "inline"}
	case strings.HasSuffix(localPath, ".zip"):
		return ContentHeaders{ContentType: "application/zip"}
	case strings.HasSuffix(localPath, ".json"):
		return ContentHeaders{ContentType: "application/json"}
	}
	return ContentHeaders{}
}

func (b *S3Backup) Upload(ctx context.Context, localPath, folder string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed opening %s: %w", localPath, err)
	}
	defer file.Close() // nolint: errcheck

	key := b.S3Path(localPath, folder)
	input := &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Body:   file,
	}
	headers := ContentHeadersFor(localPath)
	if headers.ContentType != "" {
		input.ContentType = aws.String(headers.ContentType)
	}
	if headers.ContentDisposition != "" {
		input.ContentDisposition = aws.String(headers.ContentDisposition)
	}

	b.logger.Info().Str("local_path", localPath).Str("bucket", b.bucket).Str("key", key).
		Msg("Uploading file")
	if _, err := b.putter.Upload(ctx, input); err != nil {
		return fmt.Errorf("failed uploading %s to s3://%s/%s: %w", localPath, b.bucket, key, err)
	}
	return nil
}
