package pdf

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/playwright-community/playwright-go"

	"go-cvassist-client/internal/browser"
	"go-cvassist-client/internal/models"
)

//go:embed templates/application.html
var templates embed.FS

const defaultTemplate = "templates/application.html"

// Generator renders application records to A4 PDF files.
type Generator struct {
	tmpl *template.Template
}

// page is what the HTML template sees.
type page struct {
	Title      string
	Role       string
	Date       string
	Subject    string
	Paragraphs [][]string
}

// NewGenerator parses templatePath, or the embedded template when it is empty.
func NewGenerator(templatePath string) (*Generator, error) {
	// Add custom function "join" to be used in template for string slices.
	// Lines are escaped before joining so the <br> separator survives.
	funcMap := template.FuncMap{
		"join": func(lines []string, sep string) template.HTML {
			escaped := make([]string, len(lines))
			for i, l := range lines {
				escaped[i] = template.HTMLEscapeString(l)
			}
			return template.HTML(strings.Join(escaped, sep))
		},
	}

	var (
		tmpl *template.Template
		err  error
	)
	if templatePath == "" {
		tmpl, err = template.New(filepath.Base(defaultTemplate)).Funcs(funcMap).ParseFS(templates, defaultTemplate)
	} else {
		tmpl, err = template.New(filepath.Base(templatePath)).Funcs(funcMap).ParseFiles(templatePath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return &Generator{tmpl: tmpl}, nil
}

// RenderHTML executes the template for app.
func (g *Generator) RenderHTML(app models.Application) (string, error) {
	p := page{
		Title:      app.ApplicationType.Label(),
		Role:       firstLine(app.JobDescription),
		Subject:    app.SubjectText(),
		Paragraphs: paragraphs(app.Content),
	}
	if !app.CreatedAt.IsZero() {
		p.Date = app.CreatedAt.Format("2 January 2006")
	}

	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// Generate renders app and prints it to PDF in a headless browser.
func (g *Generator) Generate(ctx context.Context, app models.Application) ([]byte, error) {
	htmlContent, err := g.RenderHTML(app)
	if err != nil {
		return nil, err
	}

	pm, err := browser.NewPlaywright(ctx)
	if err != nil {
		return nil, err
	}
	defer pm.Close()

	pg, err := pm.NewPage()
	if err != nil {
		return nil, err
	}
	defer pg.Close()

	// Set the generated HTML content into the browser page
	if err := pg.SetContent(htmlContent, playwright.PageSetContentOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	}); err != nil {
		return nil, fmt.Errorf("could not set page content: %w", err)
	}

	pdfBytes, err := pg.PDF(playwright.PagePdfOptions{
		Format:          playwright.String("A4"),
		PrintBackground: playwright.Bool(true),
		Margin: &playwright.Margin{
			Top:    playwright.String("0"),
			Bottom: playwright.String("0"),
			Left:   playwright.String("0"),
			Right:  playwright.String("0"),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("could not generate PDF: %w", err)
	}
	return pdfBytes, nil
}

// FileName is the default output name for app, e.g. "cover_letter-12.pdf".
func FileName(app models.Application) string {
	return fmt.Sprintf("%s-%d.pdf", app.ApplicationType, app.ID)
}

// SaveToFile writes pdfBytes to outputPath, creating parent directories.
func SaveToFile(pdfBytes []byte, outputPath string) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("could not create directory: %w", err)
	}

	return os.WriteFile(outputPath, pdfBytes, 0644)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}

// paragraphs splits text on blank lines; each paragraph keeps its lines.
func paragraphs(text string) [][]string {
	var out [][]string
	for _, block := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		out = append(out, strings.Split(block, "\n"))
	}
	return out
}
