package models

import (
	"errors"
	"strings"
)

type CV struct {
	ID            int64     `json:"id"`
	Filename      string    `json:"filename"`
	Processed     bool      `json:"processed"`
	CloudinaryURL string    `json:"cloudinary_url,omitempty"`
	UploadedAt    Timestamp `json:"uploaded_at"`
}

func (c *CV) Validate() error {
	if c.ID <= 0 {
		return errors.New("cv id missing")
	}
	if strings.TrimSpace(c.Filename) == "" {
		return errors.New("cv filename missing")
	}
	return nil
}

type CVStatus struct {
	HasCV bool `json:"has_cv"`
	CV    *CV  `json:"cv,omitempty"`
}

func (s *CVStatus) Validate() error {
	if !s.HasCV {
		return nil
	}
	if s.CV == nil {
		return errors.New("has_cv is true but cv is missing")
	}
	return s.CV.Validate()
}

// Processed reports whether the uploaded CV is ready for chat and generation.
func (s *CVStatus) Processed() bool {
	return s != nil && s.HasCV && s.CV != nil && s.CV.Processed
}
