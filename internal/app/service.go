package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"memorahanzi/internal/authors"
	"memorahanzi/internal/imagegen"
	"memorahanzi/internal/metrics"
	"memorahanzi/internal/names"
	"memorahanzi/internal/speech"
	"memorahanzi/internal/storage"
	"memorahanzi/internal/textgen"
	"memorahanzi/pkg/config"
)

var (
	ErrAuthorNotFound = errors.New("author not found in the current batch")
	ErrNoImage        = errors.New("no image to export")
)

type Service struct {
	cfg        *config.Config
	text       *textgen.Client
	images     *imagegen.Client
	pipeline   *names.Pipeline
	classifier *authors.Classifier
	speaker    *speech.Speaker
	store      storage.Store
	metrics    *metrics.Collector
	closers    []func() error

	mu    sync.Mutex
	batch []authors.Author
}

type ServiceOptions struct {
	Config     *config.Config
	Text       *textgen.Client
	Images     *imagegen.Client
	Pipeline   *names.Pipeline
	Classifier *authors.Classifier
	Speaker    *speech.Speaker
	Store      storage.Store
	Metrics    *metrics.Collector
}

func NewService(opts ServiceOptions) *Service {
	return &Service{
		cfg:        opts.Config,
		text:       opts.Text,
		images:     opts.Images,
		pipeline:   opts.Pipeline,
		classifier: opts.Classifier,
		speaker:    opts.Speaker,
		store:      opts.Store,
		metrics:    opts.Metrics,
	}
}

func (s *Service) Config() *config.Config         { return s.cfg }
func (s *Service) Pipeline() *names.Pipeline       { return s.pipeline }
func (s *Service) Classifier() *authors.Classifier { return s.classifier }
func (s *Service) Speaker() *speech.Speaker        { return s.speaker }
func (s *Service) Store() storage.Store            { return s.store }
func (s *Service) Metrics() *metrics.Collector     { return s.metrics }

// TextReady and ImageReady report whether the providers have credentials.
func (s *Service) TextReady() bool  { return s.text.Ready() }
func (s *Service) ImageReady() bool { return s.images.Ready() }

// ClassifyAuthors classifies raw and keeps the result as the current batch.
// A failed classification leaves the previous batch in place.
func (s *Service) ClassifyAuthors(ctx context.Context, raw string) ([]authors.Author, error) {
	result, err := s.classifier.Classify(ctx, raw)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.batch = result
	s.mu.Unlock()

	return result, nil
}

func (s *Service) Authors() []authors.Author {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]authors.Author(nil), s.batch...)
}

// ProcessAuthor submits the named author of the current batch to the
// pipeline. The new name record shares only the name string with the author.
func (s *Service) ProcessAuthor(ctx context.Context, id string) (names.Snapshot, error) {
	author, ok := authors.Find(s.Authors(), id)
	if !ok {
		return s.pipeline.Snapshot(), fmt.Errorf("%w: %s", ErrAuthorNotFound, id)
	}
	return s.pipeline.Submit(ctx, author.Name)
}

// ExportImage saves the current mnemonic image to the configured store.
func (s *Service) ExportImage(ctx context.Context) (string, error) {
	record := s.pipeline.Snapshot().Record
	if record.ImageURL == "" {
		return "", ErrNoImage
	}

	mimeType, data, err := imagegen.DecodeDataURI(record.ImageURL)
	if err != nil {
		return "", err
	}

	label := record.Pinyin
	if label == "" {
		label = record.OriginalName
	}
	return s.store.Save(ctx, storage.FileName(label, mimeType), mimeType, data)
}

func (s *Service) ExportAudio(ctx context.Context, label string, audio []byte) (string, error) {
	contentType := s.speaker.ContentType()
	return s.store.Save(ctx, storage.FileName(label, contentType), contentType, audio)
}

func (s *Service) Close() error {
	if s.speaker != nil {
		s.speaker.Stop()
	}

	var errs []error
	for _, closeFn := range s.closers {
		errs = append(errs, closeFn())
	}
	return errors.Join(errs...)
}
