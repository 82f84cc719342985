// Package cv runs the upload workflow: validate the PDF, upload it, then
// wait for the backend to finish processing it.
package cv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"go-cvassist-client/internal/models"
	"go-cvassist-client/internal/poller"
	"go-cvassist-client/internal/validate"
)

type Backend interface {
	UploadCV(ctx context.Context, filename string, r io.Reader) (*models.CV, error)
	CVStatus(ctx context.Context) (*models.CVStatus, error)
	DeleteCV(ctx context.Context) (*models.Ack, error)
}

// UserMarker records has_cv on the persisted user.
type UserMarker interface {
	MarkHasCV(hasCV bool) error
}

// UploadResult describes where processing stood when the call returned.
// TimedOut means the CV is still processing, not that it failed.
type UploadResult struct {
	CV        *models.CV
	Processed bool
	TimedOut  bool
	Attempts  int
}

type Service struct {
	backend  Backend
	user     UserMarker
	interval time.Duration
	timeout  time.Duration
}

type Option func(*Service)

func WithPollInterval(d time.Duration) Option {
	return func(s *Service) { s.interval = d }
}

func WithPollTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

func NewService(backend Backend, user UserMarker, opts ...Option) *Service {
	s := &Service{
		backend:  backend,
		user:     user,
		interval: poller.DefaultInterval,
		timeout:  poller.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload validates and uploads the PDF at path, then polls until it is
// processed or the poll timeout passes.
func (s *Service) Upload(ctx context.Context, path string) (*UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cv: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat cv: %w", err)
	}
	head := make([]byte, 8)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read cv: %w", err)
	}
	if err := validate.CVFile(info.Name(), info.Size(), head[:n]); err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind cv: %w", err)
	}

	uploaded, err := s.backend.UploadCV(ctx, info.Name(), f)
	if err != nil {
		return nil, err
	}
	s.markHasCV(true)

	if uploaded.Processed {
		return &UploadResult{CV: uploaded, Processed: true}, nil
	}
	res, err := s.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if res.CV == nil {
		res.CV = uploaded
	}
	return res, nil
}

// Wait polls the CV status until the current CV is processed.
func (s *Service) Wait(ctx context.Context) (*UploadResult, error) {
	var last *models.CVStatus
	res, err := poller.Until(ctx, func(ctx context.Context) (bool, error) {
		status, err := s.backend.CVStatus(ctx)
		if err != nil {
			return false, err
		}
		last = status
		return status.Processed(), nil
	}, s.interval, s.timeout)
	if err != nil {
		return nil, fmt.Errorf("wait for cv processing: %w", err)
	}

	out := &UploadResult{Processed: res.Ready, TimedOut: res.TimedOut, Attempts: res.Attempts}
	if last != nil {
		out.CV = last.CV
	}
	return out, nil
}

func (s *Service) Status(ctx context.Context) (*models.CVStatus, error) {
	status, err := s.backend.CVStatus(ctx)
	if err != nil {
		return nil, err
	}
	s.markHasCV(status.HasCV)
	return status, nil
}

func (s *Service) Delete(ctx context.Context) (*models.Ack, error) {
	ack, err := s.backend.DeleteCV(ctx)
	if err != nil {
		return nil, err
	}
	s.markHasCV(false)
	return ack, nil
}

func (s *Service) markHasCV(v bool) {
	if s.user == nil {
		return
	}
	if err := s.user.MarkHasCV(v); err != nil {
		log.Printf("⚠️ Failed to update stored user: %v", err)
	}
}
