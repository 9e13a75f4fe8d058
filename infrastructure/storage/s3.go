package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/sync/errgroup"

	"github.com/PujaAmmineni/RAG-AGENTS/internal/domain"
	"github.com/PujaAmmineni/RAG-AGENTS/internal/ports"
)

// Bucket is the blob container the S3 source reads from.
type Bucket interface {
	Name() string
	List(ctx context.Context, prefix string) ([]minio.ObjectInfo, error)
	Download(ctx context.Context, key string) ([]byte, error)
}

// S3Config addresses an S3-compatible bucket.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioBucket implements Bucket over a minio client.
type MinioBucket struct {
	client *minio.Client
	bucket string
}

func NewMinioBucket(cfg S3Config) (*MinioBucket, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, errors.New("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &MinioBucket{client: client, bucket: bucket}, nil
}

func (b *MinioBucket) Name() string { return b.bucket }

func (b *MinioBucket) List(ctx context.Context, prefix string) ([]minio.ObjectInfo, error) {
	var out []minio.ObjectInfo
	for obj := range b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if obj.Key == "" || strings.HasSuffix(obj.Key, "/") {
			continue
		}
		out = append(out, obj)
	}
	return out, nil
}

func (b *MinioBucket) Download(ctx context.Context, key string) ([]byte, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

// S3Source loads PDF documents from a bucket.
type S3Source struct {
	bucket      Bucket
	prefix      string
	concurrency int
	extractor   PDFExtractor
	logger      *slog.Logger
}

var _ ports.DocumentSource = (*S3Source)(nil)

// S3SourceConfig configures an S3Source.
type S3SourceConfig struct {
	Prefix string
	// Concurrency bounds parallel downloads.
	Concurrency int
	Logger      *slog.Logger
}

func NewS3Source(bucket Bucket, cfg S3SourceConfig) (*S3Source, error) {
	if bucket == nil {
		return nil, errors.New("bucket is required")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &S3Source{
		bucket:      bucket,
		prefix:      cfg.Prefix,
		concurrency: cfg.Concurrency,
		extractor:   PDFExtractor{Logger: cfg.Logger},
		logger:      cfg.Logger,
	}, nil
}

// Load downloads and extracts every PDF under the prefix. Blobs that fail
// or yield no text are logged and skipped. Documents keep listing order.
func (s *S3Source) Load(ctx context.Context) ([]domain.Document, error) {
	objects, err := s.bucket.List(ctx, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.bucket.Name(), err)
	}
	if len(objects) == 0 {
		s.logger.Warn("no documents found in container", slog.String("bucket", s.bucket.Name()))
		return nil, nil
	}

	var pdfs []minio.ObjectInfo
	for _, o := range objects {
		if isPDF(o.Key) {
			pdfs = append(pdfs, o)
		}
	}

	docs := make([]*domain.Document, len(pdfs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, obj := range pdfs {
		g.Go(func() error {
			doc, err := s.load(gctx, obj)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.Warn("skipping document", slog.String("key", obj.Key), slog.Any("error", err))
				return nil
			}
			docs[i] = doc
			s.logger.Debug("loaded document", slog.String("key", obj.Key), slog.Int("pages", doc.Metadata.Pages))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]domain.Document, 0, len(docs))
	for _, d := range docs {
		if d != nil {
			out = append(out, *d)
		}
	}
	s.logger.Info("loaded documents",
		slog.String("bucket", s.bucket.Name()),
		slog.Int("pdfs", len(pdfs)),
		slog.Int("documents", len(out)))
	return out, nil
}

func (s *S3Source) load(ctx context.Context, obj minio.ObjectInfo) (*domain.Document, error) {
	data, err := s.bucket.Download(ctx, obj.Key)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	text, pages, err := s.extractor.Text(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, errors.New("no text content extracted")
	}
	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	return &domain.Document{
		Content: text,
		Source:  obj.Key,
		Metadata: domain.DocumentMetadata{
			Size:         obj.Size,
			LastModified: obj.LastModified,
			ContentType:  contentType,
			Pages:        pages,
		},
	}, nil
}

// Info summarizes every object under the prefix, PDF or not.
func (s *S3Source) Info(ctx context.Context) (domain.ContainerInfo, error) {
	objects, err := s.bucket.List(ctx, s.prefix)
	if err != nil {
		return domain.ContainerInfo{}, fmt.Errorf("list %s: %w", s.bucket.Name(), err)
	}
	info := domain.ContainerInfo{Name: s.bucket.Name()}
	for _, o := range objects {
		addObject(&info, o.Key, o.Size, o.LastModified)
	}
	return info, nil
}

func isPDF(name string) bool {
	return strings.EqualFold(path.Ext(name), ".pdf")
}

func addObject(info *domain.ContainerInfo, key string, size int64, modified time.Time) {
	info.TotalObjects++
	if isPDF(key) {
		info.PDFObjects++
	}
	info.TotalSize += size
	if modified.After(info.LastModified) {
		info.LastModified = modified
	}
}
