package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-cvassist-client/internal/models"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"plain", "a@b.com", "a@b.com", false},
		{"trimmed", "  a@b.com \n", "a@b.com", false},
		{"empty", "   ", "", true},
		{"no at", "ab.com", "", true},
		{"no dot", "a@bcom", "", true},
		{"space inside", "a b@c.com", "", true},
		{"too long", strings.Repeat("a", 250) + "@b.com", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Email(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSignup(t *testing.T) {
	_, err := Signup("a@b.com", "secret1", "secret1")
	assert.NoError(t, err)

	_, err = Signup("a@b.com", "short", "short")
	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "password", fe.Field)

	_, err = Signup("a@b.com", "secret1", "secret2")
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "confirm_password", fe.Field)
}

func TestLogin(t *testing.T) {
	_, err := Login("a@b.com", "")
	assert.ErrorIs(t, err, ErrInvalid)

	email, err := Login(" a@b.com", "x")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", email)
}

func TestQuestionAndJobDescription(t *testing.T) {
	q, err := Question("  What are my\x00 strongest skills?\n")
	require.NoError(t, err)
	assert.Equal(t, "What are my strongest skills?", q)

	_, err = Question(strings.Repeat("x", MaxQuestionLength+1))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Question("\x07\x08")
	assert.ErrorIs(t, err, ErrInvalid)

	jd, err := JobDescription("Go developer\n\tRemote")
	require.NoError(t, err)
	assert.Equal(t, "Go developer\n\tRemote", jd)

	_, err = JobDescription(strings.Repeat("é", MaxJobDescriptionLen+1))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestCleanTextComposesNFC(t *testing.T) {
	decomposed := "Tho\u0309"
	assert.Equal(t, "Th\u1ecf", CleanText(decomposed))
}

func TestApplicationType(t *testing.T) {
	at, err := ApplicationType("Cover_Letter")
	require.NoError(t, err)
	assert.Equal(t, models.CoverLetter, at)

	_, err = ApplicationType("letter")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestCVFile(t *testing.T) {
	pdf := []byte("%PDF-1.7\n")
	assert.NoError(t, CVFile("cv.PDF", 1024, pdf))
	assert.ErrorIs(t, CVFile("cv.docx", 1024, pdf), ErrInvalid)
	assert.ErrorIs(t, CVFile("cv.pdf", 0, pdf), ErrInvalid)
	assert.ErrorIs(t, CVFile("cv.pdf", MaxCVSize+1, pdf), ErrInvalid)
	assert.ErrorIs(t, CVFile("cv.pdf", 1024, []byte("PK\x03\x04")), ErrInvalid)
}
