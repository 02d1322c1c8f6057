// Package media stores user images in S3-compatible blob storage.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wardrobe/internal/config"
	"wardrobe/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	awsmiddleware "github.com/aws/smithy-go/middleware"
)

// Folders under a user's namespace.
const (
	FolderCloset  = "closet"
	FolderOutfits = "outfits"
	FolderProfile = "profile"
)

// MaxImageBytes bounds a single upload.
const MaxImageBytes = 10 << 20

var ErrStorageDisabled = errors.New("image storage is not configured")

type Image struct {
	Data        []byte
	ContentType string
}

// ReadImage buffers r into an Image, rejecting payloads over MaxImageBytes.
func ReadImage(r io.Reader, contentType string) (Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("%w: failed to read image: %v", models.ErrUpload, err)
	}
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: empty image", models.ErrUpload)
	}
	if len(data) > MaxImageBytes {
		return Image{}, fmt.Errorf("%w: image exceeds %d bytes", models.ErrUpload, MaxImageBytes)
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return Image{Data: data, ContentType: contentType}, nil
}

type Uploader interface {
	Upload(ctx context.Context, img Image, userID, folder string) (string, error)
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Uploader struct {
	client    objectPutter
	bucket    string
	publicURL string
	now       func() time.Time
}

// NewS3Uploader builds an uploader against the configured S3-compatible
// endpoint using path-style addressing.
func NewS3Uploader(ctx context.Context, cfg *config.Config) (*S3Uploader, error) {
	s3Config, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(s3Config, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = true
	})

	publicURL := cfg.S3PublicURL
	if publicURL == "" {
		publicURL = cfg.S3Endpoint
	}

	return newS3Uploader(client, cfg.S3Bucket, publicURL), nil
}

func newS3Uploader(client objectPutter, bucket, publicURL string) *S3Uploader {
	return &S3Uploader{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}
}

// ObjectKey namespaces an upload by user, folder and millisecond timestamp.
func ObjectKey(userID, folder string, at time.Time) string {
	return fmt.Sprintf("users/%s/%s/%d", userID, folder, at.UnixMilli())
}

func (u *S3Uploader) Upload(ctx context.Context, img Image, userID, folder string) (string, error) {
	if userID == "" {
		return "", models.ErrUnauthenticated
	}
	if len(img.Data) == 0 {
		return "", fmt.Errorf("%w: empty image", models.ErrUpload)
	}

	key := ObjectKey(userID, folder, u.now())
	contentType := img.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(img.Data)
	}

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(img.Data),
		ContentLength: aws.Int64(int64(len(img.Data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: %s: %s", models.ErrUpload, apiErr.ErrorCode(), apiErr.ErrorMessage())
		}
		return "", fmt.Errorf("%w: %v", models.ErrUpload, err)
	}

	return u.publicURL + "/" + u.bucket + "/" + key, nil
}

// DisabledUploader rejects every upload. It stands in when no bucket is configured.
type DisabledUploader struct{}

func (DisabledUploader) Upload(ctx context.Context, img Image, userID, folder string) (string, error) {
	return "", fmt.Errorf("%w: %w", models.ErrUpload, ErrStorageDisabled)
}

// removeDisableGzip is a workaround for S3 signature errors with some S3-compatible services.
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
