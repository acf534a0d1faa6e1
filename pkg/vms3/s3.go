package vms3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	S3Config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ChecksumHeader is the user metadata key holding the object's digest,
// e.g. sha256:9f86d0...
const ChecksumHeader = "checksum"

var ErrObjectNotFound = errors.New("object not found")

type S3DB struct {
	S3Client   *s3.Client
	BucketName string
}

func NewS3DB(s3Client *s3.Client, bucketName string) *S3DB {
	return &S3DB{
		S3Client:   s3Client,
		BucketName: bucketName,
	}
}

func CreateS3Client(ctx context.Context, s3URL string, s3AccessKey string, s3SecretKey string, s3Region string, bucketName string) (*S3DB, error) {
	cfg, err := S3Config.LoadDefaultConfig(ctx,
		S3Config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(s3AccessKey, s3SecretKey, "")),
		S3Config.WithRegion(s3Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = &s3URL
		o.UsePathStyle = true
	})
	return NewS3DB(s3Client, bucketName), nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var respErr interface{ HTTPStatusCode() int }
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound
}

// GetObject returns the object body and its user metadata.
func (s *S3DB) GetObject(ctx context.Context, objectKey string) ([]byte, map[string]string, error) {
	getObjectOutput, err := s.S3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.BucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if isNotFound(err) {
			slog.Debug("No such key found", "bucketName", s.BucketName, "objectKey", objectKey)
			return nil, nil, fmt.Errorf("%w: %s in bucket %s", ErrObjectNotFound, objectKey, s.BucketName)
		}
		slog.Error("Error getting S3 object", "bucketName", s.BucketName, "objectKey", objectKey, "error", err)
		return nil, nil, fmt.Errorf("failed to get object %s in bucket %s: %w", objectKey, s.BucketName, err)
	}
	defer getObjectOutput.Body.Close()

	body, err := io.ReadAll(getObjectOutput.Body)
	if err != nil {
		slog.Error("Error reading object from S3 bucket", "bucketName", s.BucketName, "objectKey", objectKey, "error", err)
		return nil, nil, fmt.Errorf("failed to read object %s from bucket %s: %w", objectKey, s.BucketName, err)
	}
	return body, getObjectOutput.Metadata, nil
}

func (s *S3DB) UploadFile(ctx context.Context, objectKey string, data []byte, hash string) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.BucketName),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata:      map[string]string{ChecksumHeader: hash},
	}
	if _, err := s.S3Client.PutObject(ctx, input); err != nil {
		slog.Error("Error uploading object to S3 bucket", "bucketName", s.BucketName, "objectKey", objectKey, "error", err)
		return fmt.Errorf("failed to put object %s into bucket %s: %w", objectKey, s.BucketName, err)
	}
	slog.Debug("Successfully uploaded object to s3 bucket", "bucketName", s.BucketName, "objectKey", objectKey)
	return nil
}

func (s *S3DB) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	params := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.BucketName),
		Prefix: aws.String(prefix),
	}
	p := s3.NewListObjectsV2Paginator(s.S3Client, params)
	var keys []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			keys = append(keys, *obj.Key)
		}
	}
	return keys, nil
}
