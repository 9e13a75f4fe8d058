package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/PujaAmmineni/RAG-AGENTS/internal/domain"
	"github.com/PujaAmmineni/RAG-AGENTS/internal/ports"
)

var textTypes = map[string]string{
	".txt": "text/plain",
	".md":  "text/markdown",
}

// LocalSource loads .pdf, .txt and .md files from a directory tree.
type LocalSource struct {
	dir         string
	concurrency int
	extractor   PDFExtractor
	logger      *slog.Logger
}

var _ ports.DocumentSource = (*LocalSource)(nil)

func NewLocalSource(dir string, concurrency int, logger *slog.Logger) (*LocalSource, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("document directory is required")
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalSource{dir: dir, concurrency: concurrency, extractor: PDFExtractor{Logger: logger}, logger: logger}, nil
}

type localFile struct {
	rel  string
	path string
	info fs.FileInfo
}

func (s *LocalSource) walk() ([]localFile, error) {
	var files []localFile
	err := filepath.WalkDir(s.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.dir, p)
		if err != nil {
			return err
		}
		files = append(files, localFile{rel: filepath.ToSlash(rel), path: p, info: info})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.dir, err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].rel < files[j].rel })
	return files, nil
}

// Load reads every supported file. Unreadable files are logged and skipped.
func (s *LocalSource) Load(ctx context.Context) ([]domain.Document, error) {
	files, err := s.walk()
	if err != nil {
		return nil, err
	}

	docs := make([]*domain.Document, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, f := range files {
		if !supported(f.rel) {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := s.load(f)
			if err != nil {
				s.logger.Warn("skipping document", slog.String("path", f.rel), slog.Any("error", err))
				return nil
			}
			docs[i] = doc
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
	s.logger.Info("loaded documents", slog.String("dir", s.dir), slog.Int("documents", len(out)))
	return out, nil
}

func (s *LocalSource) load(f localFile) (*domain.Document, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(f.rel))
	meta := domain.DocumentMetadata{Size: f.info.Size(), LastModified: f.info.ModTime()}
	var text string
	if ext == ".pdf" {
		var pages int
		text, pages, err = s.extractor.Text(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, err
		}
		meta.ContentType = "application/pdf"
		meta.Pages = pages
	} else {
		text = strings.TrimSpace(string(data))
		meta.ContentType = textTypes[ext]
		meta.Pages = 1
	}
	if text == "" {
		return nil, errors.New("no text content extracted")
	}
	return &domain.Document{Content: text, Source: f.rel, Metadata: meta}, nil
}

// Info summarizes every file in the directory tree.
func (s *LocalSource) Info(context.Context) (domain.ContainerInfo, error) {
	files, err := s.walk()
	if err != nil {
		return domain.ContainerInfo{}, err
	}
	info := domain.ContainerInfo{Name: s.dir}
	for _, f := range files {
		addObject(&info, f.rel, f.info.Size(), f.info.ModTime())
	}
	return info, nil
}

func supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	_, text := textTypes[ext]
	return ext == ".pdf" || text
}
