package browser

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"go-cvassist-client/internal/validate"
)

// MinDescriptionLength is the shortest text accepted as a job description.
const MinDescriptionLength = 200

var ErrNoDescription = errors.New("no job description found on page")

// descriptionSelectors are tried in order; the first match long enough wins.
var descriptionSelectors = []string{
	"[data-testid='job-description']",
	".jobs-description__content",
	".job-description",
	".job-detail__information-detail",
	"#job-description",
	"[class*='description']",
	"article",
	"main",
}

var (
	blankLines  = regexp.MustCompile(`\n{3,}`)
	inlineSpace = regexp.MustCompile(`[ \t\x{00a0}]+`)
)

// FetchJobDescription loads url in bctx and extracts the posting text.
func FetchJobDescription(ctx context.Context, bctx playwright.BrowserContext, url string) (string, error) {
	timeout := 30 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if timeout <= 0 || ctx.Err() != nil {
		return "", context.DeadlineExceeded
	}

	page, err := bctx.NewPage()
	if err != nil {
		return "", fmt.Errorf("could not create new page: %w", err)
	}
	defer page.Close()

	stop := context.AfterFunc(ctx, func() { _ = page.Close() })
	defer stop()

	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	}); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("could not open %s: %w", url, err)
	}

	for _, sel := range descriptionSelectors {
		loc := page.Locator(sel).First()
		if n, _ := loc.Count(); n == 0 {
			continue
		}
		text, err := loc.InnerText(playwright.LocatorInnerTextOptions{Timeout: playwright.Float(2000)})
		if err != nil {
			continue
		}
		if cleaned := CleanDescription(text); len([]rune(cleaned)) >= MinDescriptionLength {
			log.Printf("📄 Job description matched %q", sel)
			return cleaned, nil
		}
	}

	body, err := page.Locator("body").InnerText()
	if err != nil {
		return "", fmt.Errorf("could not read page text: %w", err)
	}
	if cleaned := CleanDescription(body); len([]rune(cleaned)) >= MinDescriptionLength {
		return cleaned, nil
	}
	return "", ErrNoDescription
}

// CleanDescription normalizes scraped text: NFC, no control characters,
// collapsed inline whitespace and at most one blank line in a row.
func CleanDescription(s string) string {
	out := validate.CleanText(strings.ReplaceAll(s, "\r\n", "\n"))

	lines := strings.Split(out, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(inlineSpace.ReplaceAllString(l, " "))
	}
	out = strings.Join(lines, "\n")
	out = blankLines.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
