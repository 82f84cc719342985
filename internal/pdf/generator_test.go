package pdf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-cvassist-client/internal/models"
)

func sampleApplication() models.Application {
	subject := "Application for Go <Backend> Engineer"
	return models.Application{
		ID:              12,
		JobDescription:  "Go Backend Engineer\nWe use Postgres & Kafka.",
		ApplicationType: models.Email,
		Subject:         &subject,
		Content:         "Dear team,\n\nI build APIs in Go.\nI like <tests> & CI.\n\nBest regards,\nAn",
		CreatedAt:       models.Timestamp{Time: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
	}
}

func TestRenderHTMLEmbeddedTemplate(t *testing.T) {
	g, err := NewGenerator("")
	require.NoError(t, err)

	out, err := g.RenderHTML(sampleApplication())
	require.NoError(t, err)

	assert.Contains(t, out, "<title>Email</title>")
	assert.Contains(t, out, "Go Backend Engineer · 1 May 2024")
	assert.Contains(t, out, "Subject: Application for Go &lt;Backend&gt; Engineer")
	assert.Contains(t, out, "<p>Dear team,</p>")
	assert.Contains(t, out, "<p>I build APIs in Go.<br>I like &lt;tests&gt; &amp; CI.</p>")
	assert.Contains(t, out, "<p>Best regards,<br>An</p>")
	assert.NotContains(t, out, "Postgres")
}

func TestRenderHTMLCoverLetterHasNoSubject(t *testing.T) {
	g, err := NewGenerator("")
	require.NoError(t, err)
	app := sampleApplication()
	app.ApplicationType = models.CoverLetter
	app.Subject = nil

	out, err := g.RenderHTML(app)
	require.NoError(t, err)

	assert.Contains(t, out, "<h1>Cover letter</h1>")
	assert.NotContains(t, out, "Subject:")
}

func TestCustomTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.html")
	require.NoError(t, os.WriteFile(path, []byte(`{{ .Title }}|{{ .Subject }}|{{ len .Paragraphs }}`), 0600))

	g, err := NewGenerator(path)
	require.NoError(t, err)

	out, err := g.RenderHTML(sampleApplication())
	require.NoError(t, err)
	assert.Equal(t, "Email|Application for Go &lt;Backend&gt; Engineer|3", out)
}

func TestNewGeneratorMissingTemplate(t *testing.T) {
	_, err := NewGenerator(filepath.Join(t.TempDir(), "missing.html"))
	assert.Error(t, err)
}

func TestSaveToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName(sampleApplication()))

	require.NoError(t, SaveToFile([]byte("%PDF-1.7"), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(data))
	assert.Equal(t, "email-12.pdf", filepath.Base(path))
}
