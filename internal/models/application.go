package models

import (
	"errors"
	"fmt"
	"strings"
)

type ApplicationType string

const (
	CoverLetter ApplicationType = "cover_letter"
	Email       ApplicationType = "email"
)

func (t ApplicationType) Valid() bool {
	return t == CoverLetter || t == Email
}

func (t ApplicationType) Label() string {
	switch t {
	case CoverLetter:
		return "Cover letter"
	case Email:
		return "Email"
	default:
		return string(t)
	}
}

type GenerateRequest struct {
	JobDescription  string          `json:"job_description"`
	ApplicationType ApplicationType `json:"application_type"`
}

// Generated is the body of /api/application/generate. Subject is only set
// for emails.
type Generated struct {
	Subject *string `json:"subject,omitempty"`
	Content string  `json:"content"`
}

func (g *Generated) Validate() error {
	if strings.TrimSpace(g.Content) == "" {
		return errors.New("content missing")
	}
	return nil
}

type Application struct {
	ID              int64           `json:"id"`
	JobDescription  string          `json:"job_description"`
	ApplicationType ApplicationType `json:"application_type"`
	Subject         *string         `json:"subject"`
	Content         string          `json:"content"`
	CreatedAt       Timestamp       `json:"created_at"`
}

func (a *Application) Validate() error {
	if a.ID <= 0 {
		return errors.New("application id missing")
	}
	if !a.ApplicationType.Valid() {
		return fmt.Errorf("unknown application_type %q", a.ApplicationType)
	}
	return nil
}

func (a *Application) SubjectText() string {
	if a.Subject == nil {
		return ""
	}
	return *a.Subject
}

type ApplicationHistory []Application

func (h *ApplicationHistory) Validate() error {
	for i := range *h {
		if err := (*h)[i].Validate(); err != nil {
			return fmt.Errorf("application %d: %w", i, err)
		}
	}
	return nil
}
