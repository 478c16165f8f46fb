package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"parsearena/internal/config"
	"parsearena/internal/domain"
	"parsearena/internal/pdfinfo"
	"parsearena/internal/port"
)

const (
	metaOriginalName = "original-name"
	metaPageCount    = "page-count"
)

type documentStore struct {
	client    *s3.Client
	uploader  *manager.Uploader
	bucket    string
	keyPrefix string
}

// NewDocumentStore creates an S3-backed DocumentStore implementation.
func NewDocumentStore(cfg *config.S3Config) (port.DocumentStore, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return &documentStore{
		client:    client,
		uploader:  manager.NewUploader(client),
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

func (s *documentStore) key(ref string) string {
	return path.Join(s.keyPrefix, ref)
}

func (s *documentStore) Store(ctx context.Context, input port.StoreInput) (*domain.Document, error) {
	pages, err := pdfinfo.PageCount(input.Bytes)
	if err != nil {
		if errors.Is(err, pdfinfo.ErrNotPDF) {
			return nil, domain.ErrUnsupportedFileType
		}
		return nil, fmt.Errorf("inspecting document: %w", err)
	}

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(input.Ref)),
		Body:        bytes.NewReader(input.Bytes),
		ContentType: aws.String(input.ContentType),
		Metadata: map[string]string{
			metaOriginalName: input.OriginalName,
			metaPageCount:    strconv.Itoa(pages),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}

	return &domain.Document{
		Ref:          input.Ref,
		OriginalName: input.OriginalName,
		ContentType:  input.ContentType,
		PageCount:    pages,
		Bytes:        input.Bytes,
	}, nil
}

func (s *documentStore) Fetch(ctx context.Context, ref string) (*domain.Document, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(ref)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("s3 fetch: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 fetch read: %w", err)
	}

	doc := &domain.Document{
		Ref:          ref,
		OriginalName: result.Metadata[metaOriginalName],
		Bytes:        data,
	}
	if result.ContentType != nil {
		doc.ContentType = *result.ContentType
	}
	if raw, ok := result.Metadata[metaPageCount]; ok {
		if n, err := strconv.Atoi(raw); err == nil {
			doc.PageCount = n
		}
	}
	if doc.PageCount == 0 {
		// Objects written outside Store lack the metadata; recount.
		if n, err := pdfinfo.PageCount(data); err == nil {
			doc.PageCount = n
		}
	}
	return doc, nil
}
