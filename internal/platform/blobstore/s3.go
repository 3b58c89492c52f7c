package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config holds the bucket and credentials for the S3 archive.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// S3BlobStore stores reports as S3 objects. Descriptive fields travel as
// object metadata so a HEAD request is enough to rebuild BlobMetadata.
type S3BlobStore struct {
	bucket   string
	client   *s3.Client
	uploader *manager.Uploader
}

// NewS3BlobStore loads the AWS configuration and builds the client. Static
// credentials are used when both keys are set, otherwise the default chain.
func NewS3BlobStore(ctx context.Context, cfg S3Config) (*S3BlobStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			aws.NewCredentialsCache(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
			),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3BlobStore{
		bucket:   cfg.Bucket,
		client:   client,
		uploader: manager.NewUploader(client),
	}, nil
}

func (s *S3BlobStore) Upload(ctx context.Context, meta BlobMetadata, content io.Reader) (*BlobMetadata, error) {
	meta, data, err := prepare(meta, content)
	if err != nil {
		return nil, err
	}

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(meta.Key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(meta.ContentType),
		Metadata:    toObjectMetadata(meta),
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", meta.Key, err)
	}
	return &meta, nil
}

func (s *S3BlobStore) Download(ctx context.Context, key string) (io.ReadCloser, *BlobMetadata, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, nil, mapS3Error(err)
	}
	meta := fromObjectMetadata(key, out.Metadata)
	meta.ContentType = aws.ToString(out.ContentType)
	meta.Size = aws.ToInt64(out.ContentLength)
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = aws.ToTime(out.LastModified)
	}
	return out.Body, &meta, nil
}

func (s *S3BlobStore) Delete(ctx context.Context, key string) error {
	if _, err := s.GetMetadata(ctx, key); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return mapS3Error(err)
}

func (s *S3BlobStore) GetMetadata(ctx context.Context, key string) (*BlobMetadata, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapS3Error(err)
	}
	meta := fromObjectMetadata(key, out.Metadata)
	meta.ContentType = aws.ToString(out.ContentType)
	meta.Size = aws.ToInt64(out.ContentLength)
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = aws.ToTime(out.LastModified)
	}
	return &meta, nil
}

// ListByPatient lists keys under the patient's prefix. Only key, size and
// modification time are known from a listing.
func (s *S3BlobStore) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*BlobMetadata, int, error) {
	prefix := PatientPrefix(patientID)
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var items []*BlobMetadata
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, 0, mapS3Error(err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			items = append(items, &BlobMetadata{
				ID:        IDFromKey(key),
				Key:       key,
				PatientID: patientID,
				Category:  CategoryLabReport,
				Size:      aws.ToInt64(obj.Size),
				CreatedAt: aws.ToTime(obj.LastModified),
			})
		}
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	pageItems, total := paginate(items, limit, offset)
	return pageItems, total, nil
}

func toObjectMetadata(m BlobMetadata) map[string]string {
	return map[string]string{
		"id":         m.ID,
		"file-name":  m.FileName,
		"patient-id": m.PatientID,
		"lab-number": m.LabNumber,
		"category":   m.Category,
		"hash":       m.Hash,
		"created-by": m.CreatedBy,
		"created-at": strconv.FormatInt(m.CreatedAt.Unix(), 10),
	}
}

func fromObjectMetadata(key string, md map[string]string) BlobMetadata {
	m := BlobMetadata{
		ID:        md["id"],
		Key:       key,
		FileName:  md["file-name"],
		PatientID: md["patient-id"],
		LabNumber: md["lab-number"],
		Category:  md["category"],
		Hash:      md["hash"],
		CreatedBy: md["created-by"],
	}
	if m.ID == "" {
		m.ID = IDFromKey(key)
	}
	if sec, err := strconv.ParseInt(md["created-at"], 10, 64); err == nil && sec > 0 {
		m.CreatedAt = time.Unix(sec, 0).UTC()
	}
	return m
}

func mapS3Error(err error) error {
	if err == nil {
		return nil
	}
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return ErrBlobNotFound
	}
	return err
}
