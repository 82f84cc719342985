package browser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCookies(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cookies-linkedin.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"name":"li_at","value":"abc","domain":".linkedin.com","path":"/","expires":1893456000,"httpOnly":true,"secure":true,"sameSite":"None"},
		{"name":"lang","value":"en","domain":".linkedin.com","sameSite":"lax"},
		{"name":"","value":"skip","domain":".linkedin.com"}
	]`), 0600))

	cookies, err := LoadCookies(path)
	require.NoError(t, err)
	require.Len(t, cookies, 2)

	first := cookies[0]
	assert.Equal(t, "li_at", first.Name)
	assert.Equal(t, ".linkedin.com", *first.Domain)
	assert.Equal(t, 1893456000.0, *first.Expires)
	assert.True(t, *first.HttpOnly)
	assert.True(t, *first.Secure)
	assert.Equal(t, playwright.SameSiteAttributeNone, first.SameSite)

	second := cookies[1]
	assert.Equal(t, "/", *second.Path)
	assert.Nil(t, second.Expires)
	assert.Nil(t, second.HttpOnly)
	assert.Equal(t, playwright.SameSiteAttributeLax, second.SameSite)
}

func TestLoadCookieDirSkipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(`[{"name":"x","value":"1","domain":"a.com"}]`), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"), []byte(`{broken`), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`ignored`), 0600))

	cookies := LoadCookieDir(dir)
	require.Len(t, cookies, 1)
	assert.Equal(t, "x", cookies[0].Name)

	assert.Empty(t, LoadCookieDir(filepath.Join(dir, "missing")))
}

func TestCleanDescription(t *testing.T) {
	raw := "  Senior Go   Engineer \r\n\r\n\r\n\r\nResponsibilities:\x00\n\t- Build   APIs\n\n\n\n- Hò Chi Minh  "

	got := CleanDescription(raw)

	assert.Equal(t, "Senior Go Engineer\n\nResponsibilities:\n- Build APIs\n\n- Hò Chi Minh", got)
	assert.False(t, strings.Contains(got, "\x00"))
}
