package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-cvassist-client/internal/mockbackend/mockbackendtest"
	"go-cvassist-client/internal/models"
)

type staticToken string

func (t staticToken) Token() string { return string(t) }

type countingHandler struct{ calls int }

func (h *countingHandler) HandleUnauthorized() { h.calls++ }

func TestLoginDecodesAuthResponse(t *testing.T) {
	srv := mockbackendtest.New(t)
	srv.AddUser("a@b.com", "secret1")
	srv.SetNextToken("tok123")

	c := NewClient(srv.URL)
	resp, err := c.Login(context.Background(), "a@b.com", "secret1")
	require.NoError(t, err)

	assert.Equal(t, "tok123", resp.AccessToken)
	assert.Equal(t, int64(1), resp.User.ID)
	assert.Equal(t, "a@b.com", resp.User.Email)
	assert.False(t, resp.User.HasCV)
	assert.NotEmpty(t, srv.LastRequestID())
	assert.Zero(t, srv.AuthenticatedRequests())
}

func TestLoginSurfacesServerDetail(t *testing.T) {
	srv := mockbackendtest.New(t)
	srv.AddUser("a@b.com", "secret1")
	handler := &countingHandler{}

	c := NewClient(srv.URL, WithUnauthorizedHandler(handler))
	_, err := c.Login(context.Background(), "a@b.com", "wrong-password")
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "Incorrect email or password", Message(err, "Login failed"))
	assert.Zero(t, handler.calls)
}

func TestSignupValidationDetailList(t *testing.T) {
	srv := mockbackendtest.New(t)

	c := NewClient(srv.URL)
	_, err := c.Signup(context.Background(), "new@b.com", "123")
	require.Error(t, err)

	assert.Equal(t, http.StatusUnprocessableEntity, StatusCode(err))
	assert.Equal(t, "password: ensure this value has at least 6 characters", Message(err, "Signup failed"))
}

func TestAuthenticatedCallWithoutTokenNeverHitsNetwork(t *testing.T) {
	srv := mockbackendtest.New(t)

	c := NewClient(srv.URL, WithTokenSource(staticToken("")))
	_, err := c.CVStatus(context.Background())

	assert.ErrorIs(t, err, ErrNoSession)
	assert.Zero(t, srv.Hits("GET /api/cv/status"))
}

func TestBearerTokenAttached(t *testing.T) {
	srv := mockbackendtest.New(t)
	srv.AddUser("a@b.com", "secret1")
	srv.IssueToken("a@b.com", "tok123")

	c := NewClient(srv.URL, WithTokenSource(staticToken("tok123")))
	status, err := c.CVStatus(context.Background())
	require.NoError(t, err)

	assert.False(t, status.HasCV)
	assert.Equal(t, 1, srv.AuthenticatedRequests())
}

func TestUnauthorizedHandledOncePerResponse(t *testing.T) {
	srv := mockbackendtest.New(t)
	handler := &countingHandler{}

	c := NewClient(srv.URL, WithTokenSource(staticToken("expired")), WithUnauthorizedHandler(handler))
	_, err := c.ChatHistory(context.Background())
	require.Error(t, err)
	_, err = c.ApplicationHistory(context.Background())
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 2, handler.calls)
}

func TestNonUnauthorizedErrorSkipsHandler(t *testing.T) {
	srv := mockbackendtest.New(t)
	srv.AddUser("a@b.com", "secret1")
	srv.IssueToken("a@b.com", "tok")
	handler := &countingHandler{}

	c := NewClient(srv.URL, WithTokenSource(staticToken("tok")), WithUnauthorizedHandler(handler))
	_, err := c.ApplicationDetail(context.Background(), 999)
	require.Error(t, err)

	assert.Equal(t, http.StatusNotFound, StatusCode(err))
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.Zero(t, handler.calls)
}

func TestMalformedResponse(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"","user":{"id":1,"email":"a@b.com"}}`))
	})
	r.HandleFunc("/api/cv/status", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway</html>`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := NewClient(srv.URL, WithTokenSource(staticToken("tok")))

	_, err := c.Login(context.Background(), "a@b.com", "secret1")
	assert.ErrorIs(t, err, ErrMalformedResponse)

	_, err = c.CVStatus(context.Background())
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url)
	_, err := c.Login(context.Background(), "a@b.com", "secret1")
	require.Error(t, err)

	assert.True(t, IsNetwork(err))
	assert.Equal(t, "Network error", Message(err, "Network error"))
}

func TestUploadCVMultipart(t *testing.T) {
	srv := mockbackendtest.New(t)
	srv.AddUser("a@b.com", "secret1")
	srv.IssueToken("a@b.com", "tok")

	pdf := []byte("%PDF-1.4 resume")
	c := NewClient(srv.URL, WithTokenSource(staticToken("tok")))
	cv, err := c.UploadCV(context.Background(), "/tmp/docs/resume.pdf", bytes.NewReader(pdf))
	require.NoError(t, err)

	assert.Equal(t, "resume.pdf", cv.Filename)
	assert.False(t, cv.Processed)
	assert.Equal(t, pdf, srv.LastUpload())

	ack, err := c.DeleteCV(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "CV deleted successfully", ack.Message)
}

func TestGenerateMatchesHistoryAndDetail(t *testing.T) {
	srv := mockbackendtest.New(t)
	srv.AddUser("a@b.com", "secret1")
	srv.IssueToken("a@b.com", "tok")
	srv.GiveCV("a@b.com", "cv.pdf")

	ctx := context.Background()
	c := NewClient(srv.URL, WithTokenSource(staticToken("tok")))

	gen, err := c.Generate(ctx, "Backend engineer\nGo, Postgres", models.Email)
	require.NoError(t, err)
	require.NotNil(t, gen.Subject)

	history, err := c.ApplicationHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)

	detail, err := c.ApplicationDetail(ctx, history[0].ID)
	require.NoError(t, err)

	for _, app := range []models.Application{history[0], *detail} {
		assert.Equal(t, "Backend engineer\nGo, Postgres", app.JobDescription)
		assert.Equal(t, models.Email, app.ApplicationType)
		assert.Equal(t, *gen.Subject, app.SubjectText())
		assert.Equal(t, gen.Content, app.Content)
	}

	_, err = c.DeleteApplication(ctx, detail.ID)
	require.NoError(t, err)
	history, err = c.ApplicationHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestChatRoundTrip(t *testing.T) {
	srv := mockbackendtest.New(t)
	srv.AddUser("a@b.com", "secret1")
	srv.IssueToken("a@b.com", "tok")
	srv.GiveCV("a@b.com", "cv.pdf")

	ctx := context.Background()
	c := NewClient(srv.URL, WithTokenSource(staticToken("tok")))

	answer, err := c.Ask(ctx, "What are my strengths?")
	require.NoError(t, err)
	assert.NotEmpty(t, answer.Answer)

	_, err = c.Ask(ctx, "Which languages do I know?")
	require.NoError(t, err)

	history, err := c.ChatHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "Which languages do I know?", history[0].Question)

	_, err = c.DeleteChatMessage(ctx, history[0].ID)
	require.NoError(t, err)
	_, err = c.ClearChatHistory(ctx)
	require.NoError(t, err)

	history, err = c.ChatHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestParseDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string", `{"detail":"Email already registered"}`, "Email already registered"},
		{"list", `{"detail":[{"loc":["body","email"],"msg":"value is not a valid email address"}]}`, "email: value is not a valid email address"},
		{"list without field", `{"detail":[{"loc":["body"],"msg":"bad body"},{"msg":"second"}]}`, "bad body; second"},
		{"missing", `{"error":"x"}`, ""},
		{"not json", `Internal Server Error`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDetail([]byte(tt.body)))
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	err := &Error{Method: "GET", Path: "/api/cv/status", StatusCode: 401, Detail: "Could not validate credentials"}
	assert.Equal(t, "GET /api/cv/status: status 401: Could not validate credentials", err.Error())
	assert.True(t, errors.Is(err, ErrUnauthorized))

	netErr := &Error{Method: "GET", Path: "/x", Err: errors.New("connection refused")}
	assert.Contains(t, netErr.Error(), "connection refused")
	assert.ErrorContains(t, netErr, "request failed")
}
