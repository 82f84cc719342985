package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"rfc3339", "2024-05-01T10:11:12Z", time.Date(2024, 5, 1, 10, 11, 12, 0, time.UTC)},
		{"naive micros", "2024-05-01T10:11:12.123456", time.Date(2024, 5, 1, 10, 11, 12, 123456000, time.UTC)},
		{"naive", "2024-05-01T10:11:12", time.Date(2024, 5, 1, 10, 11, 12, 0, time.UTC)},
		{"space separated", "2024-05-01 10:11:12", time.Date(2024, 5, 1, 10, 11, 12, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s", got)
		})
	}

	_, err := ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestApplicationDecodesBackendPayload(t *testing.T) {
	body := `{"id":7,"job_description":"Go dev","application_type":"email","subject":"Hello","content":"Dear team","created_at":"2024-05-01T10:11:12.5"}`

	var app Application
	require.NoError(t, json.Unmarshal([]byte(body), &app))
	require.NoError(t, app.Validate())
	assert.Equal(t, Email, app.ApplicationType)
	assert.Equal(t, "Hello", app.SubjectText())
	assert.Equal(t, 2024, app.CreatedAt.Year())
}

func TestApplicationNullSubject(t *testing.T) {
	var app Application
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"job_description":"x","application_type":"cover_letter","subject":null,"content":"c","created_at":null}`), &app))
	assert.Nil(t, app.Subject)
	assert.Equal(t, "", app.SubjectText())
	assert.True(t, app.CreatedAt.IsZero())
}

func TestCVStatusValidate(t *testing.T) {
	assert.NoError(t, (&CVStatus{HasCV: false}).Validate())
	assert.Error(t, (&CVStatus{HasCV: true}).Validate())

	status := &CVStatus{HasCV: true, CV: &CV{ID: 3, Filename: "cv.pdf", Processed: true}}
	require.NoError(t, status.Validate())
	assert.True(t, status.Processed())

	var nilStatus *CVStatus
	assert.False(t, nilStatus.Processed())
}

func TestAuthResponseValidate(t *testing.T) {
	ok := &AuthResponse{AccessToken: "tok", TokenType: "bearer", User: User{ID: 1, Email: "a@b.com"}}
	assert.NoError(t, ok.Validate())

	noToken := &AuthResponse{User: User{ID: 1, Email: "a@b.com"}}
	assert.Error(t, noToken.Validate())

	noUser := &AuthResponse{AccessToken: "tok"}
	assert.Error(t, noUser.Validate())
}
