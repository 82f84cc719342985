// Package mockbackend is an in-memory CV assistant backend. cmd/mockserver
// serves it for local CLI work and mockbackendtest runs it inside tests.
package mockbackend

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"go-cvassist-client/internal/models"
)

type account struct {
	user     models.User
	password string
	cv       *models.CV
	// status checks left before the uploaded CV reports processed
	pending int
	chat    []models.ChatEntry
	apps    []models.Application
}

type Backend struct {
	router *mux.Router

	mu              sync.Mutex
	accounts        map[string]*account
	tokens          map[string]string // token -> email
	nextID          int64
	nextToken       string
	processAfter    int
	forcedStatus    map[string]int
	hits            map[string]int
	authRequests    int
	lastRequestID   string
	lastUploadBytes []byte
}

func NewBackend() *Backend {
	b := &Backend{
		accounts:     make(map[string]*account),
		tokens:       make(map[string]string),
		forcedStatus: make(map[string]int),
		hits:         make(map[string]int),
	}
	b.router = b.routes()
	return b
}

func (b *Backend) Handler() http.Handler { return b.router }

func (b *Backend) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(b.record)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/signup", b.handleSignup).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", b.handleLogin).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(b.requireToken)
	authed.HandleFunc("/cv/status", b.handleCVStatus).Methods(http.MethodGet)
	authed.HandleFunc("/cv/upload", b.handleUpload).Methods(http.MethodPost)
	authed.HandleFunc("/cv/delete", b.handleDeleteCV).Methods(http.MethodDelete)
	authed.HandleFunc("/chat/ask", b.handleAsk).Methods(http.MethodPost)
	authed.HandleFunc("/chat/history", b.handleChatHistory).Methods(http.MethodGet)
	authed.HandleFunc("/chat/history", b.handleClearChat).Methods(http.MethodDelete)
	authed.HandleFunc("/chat/history/{id:[0-9]+}", b.handleDeleteChat).Methods(http.MethodDelete)
	authed.HandleFunc("/application/generate", b.handleGenerate).Methods(http.MethodPost)
	authed.HandleFunc("/application/history", b.handleAppHistory).Methods(http.MethodGet)
	authed.HandleFunc("/application/history", b.handleClearApps).Methods(http.MethodDelete)
	authed.HandleFunc("/application/history/{id:[0-9]+}", b.handleAppDetail).Methods(http.MethodGet)
	authed.HandleFunc("/application/history/{id:[0-9]+}", b.handleDeleteApp).Methods(http.MethodDelete)
	return r
}

// AddUser registers an account directly.
func (b *Backend) AddUser(email, password string) models.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(email, password)
}

func (b *Backend) addUserLocked(email, password string) models.User {
	b.nextID++
	created := models.Timestamp{Time: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	acc := &account{
		user:     models.User{ID: b.nextID, Email: email, CreatedAt: &created},
		password: password,
	}
	b.accounts[email] = acc
	return acc.user
}

// GiveCV attaches an already processed CV to the account.
func (b *Backend) GiveCV(email, filename string) models.CV {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc := b.accounts[email]
	b.nextID++
	acc.cv = &models.CV{
		ID:         b.nextID,
		Filename:   filename,
		Processed:  true,
		UploadedAt: models.Timestamp{Time: time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)},
	}
	acc.user.HasCV = true
	return *acc.cv
}

// IssueToken makes token valid for email.
func (b *Backend) IssueToken(email, token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[token] = email
}

// RevokeToken makes token answer 401 from now on.
func (b *Backend) RevokeToken(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.tokens, token)
}

// SetNextToken fixes the access_token returned by the next login or signup.
func (b *Backend) SetNextToken(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextToken = token
}

// SetProcessAfter sets on which status check an upload reports processed.
// Zero and one both mean the first check; negative means never.
func (b *Backend) SetProcessAfter(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.processAfter = n
}

// ForceStatus makes every request to path answer status with a detail body.
func (b *Backend) ForceStatus(path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.forcedStatus[path] = status
}

// Hits returns how many requests reached "METHOD /path".
func (b *Backend) Hits(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[route]
}

// AuthenticatedRequests counts requests that carried an Authorization header.
func (b *Backend) AuthenticatedRequests() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.authRequests
}

func (b *Backend) LastRequestID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastRequestID
}

func (b *Backend) LastUpload() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastUploadBytes
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits[r.Method+" "+r.URL.Path]++
		if r.Header.Get("Authorization") != "" {
			b.authRequests++
		}
		b.lastRequestID = r.Header.Get("X-Request-ID")
		status, forced := b.forcedStatus[r.URL.Path]
		b.mu.Unlock()

		if forced {
			writeDetail(w, status, http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		b.mu.Lock()
		_, valid := b.tokens[token]
		b.mu.Unlock()
		if !ok || !valid {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// account must be called with b.mu held.
func (b *Backend) account(r *http.Request) *account {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	return b.accounts[b.tokens[token]]
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (b *Backend) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeValidation(w, "email", "field required")
		return
	}
	if len(req.Password) < 6 {
		writeValidation(w, "password", "ensure this value has at least 6 characters")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.accounts[req.Email]; exists {
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	b.addUserLocked(req.Email, req.Password)
	writeJSON(w, http.StatusOK, b.issueLocked(req.Email))
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidation(w, "email", "field required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.accounts[req.Email]
	if !ok || acc.password != req.Password {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	writeJSON(w, http.StatusOK, b.issueLocked(req.Email))
}

func (b *Backend) issueLocked(email string) models.AuthResponse {
	token := b.nextToken
	b.nextToken = ""
	if token == "" {
		token = fmt.Sprintf("tok-%d-%d", b.accounts[email].user.ID, len(b.tokens)+1)
	}
	b.tokens[token] = email
	return models.AuthResponse{AccessToken: token, TokenType: "bearer", User: b.accounts[email].user}
}

func (b *Backend) handleCVStatus(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc := b.account(r)
	if acc.cv == nil {
		writeJSON(w, http.StatusOK, models.CVStatus{})
		return
	}
	if !acc.cv.Processed && acc.pending >= 0 {
		if acc.pending > 0 {
			acc.pending--
		}
		acc.cv.Processed = acc.pending == 0
	}
	cv := *acc.cv
	writeJSON(w, http.StatusOK, models.CVStatus{HasCV: true, CV: &cv})
}

func (b *Backend) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeValidation(w, "file", "field required")
		return
	}
	defer file.Close()
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		writeDetail(w, http.StatusBadRequest, "Only PDF files are allowed")
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Could not read file")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	acc := b.account(r)
	b.nextID++
	acc.cv = &models.CV{
		ID:            b.nextID,
		Filename:      header.Filename,
		CloudinaryURL: "https://res.cloudinary.test/cv/" + strconv.FormatInt(b.nextID, 10) + ".pdf",
		UploadedAt:    models.Timestamp{Time: time.Now().UTC().Truncate(time.Second)},
	}
	acc.pending = b.processAfter
	acc.user.HasCV = true
	b.lastUploadBytes = data
	writeJSON(w, http.StatusOK, acc.cv)
}

func (b *Backend) handleDeleteCV(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc := b.account(r)
	if acc.cv == nil {
		writeDetail(w, http.StatusNotFound, "No CV found")
		return
	}
	acc.cv = nil
	acc.user.HasCV = false
	writeJSON(w, http.StatusOK, models.Ack{Message: "CV deleted successfully"})
}

func (b *Backend) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		writeValidation(w, "question", "field required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	acc := b.account(r)
	if acc.cv == nil {
		writeDetail(w, http.StatusBadRequest, "Please upload your CV first")
		return
	}
	b.nextID++
	entry := models.ChatEntry{
		ID:        b.nextID,
		Question:  req.Question,
		Answer:    "Based on your CV: " + req.Question,
		CreatedAt: models.Timestamp{Time: time.Now().UTC().Truncate(time.Second)},
	}
	acc.chat = append(acc.chat, entry)
	writeJSON(w, http.StatusOK, models.ChatAnswer{Question: entry.Question, Answer: entry.Answer})
}

func (b *Backend) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc := b.account(r)
	out := make([]models.ChatEntry, 0, len(acc.chat))
	for i := len(acc.chat) - 1; i >= 0; i-- {
		out = append(out, acc.chat[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	acc := b.account(r)
	for i, e := range acc.chat {
		if e.ID == id {
			acc.chat = append(acc.chat[:i], acc.chat[i+1:]...)
			writeJSON(w, http.StatusOK, models.Ack{Message: "Message deleted"})
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Message not found")
}

func (b *Backend) handleClearChat(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.account(r).chat = nil
	writeJSON(w, http.StatusOK, models.Ack{Message: "Chat history cleared"})
}

func (b *Backend) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.JobDescription) == "" {
		writeValidation(w, "job_description", "field required")
		return
	}
	if !req.ApplicationType.Valid() {
		writeValidation(w, "application_type", "value is not a valid enumeration member")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	acc := b.account(r)
	if acc.cv == nil {
		writeDetail(w, http.StatusBadRequest, "Please upload your CV first")
		return
	}

	b.nextID++
	app := models.Application{
		ID:              b.nextID,
		JobDescription:  req.JobDescription,
		ApplicationType: req.ApplicationType,
		Content:         "Dear Hiring Manager,\n\nI am applying for: " + firstLine(req.JobDescription),
		CreatedAt:       models.Timestamp{Time: time.Now().UTC().Truncate(time.Second)},
	}
	if req.ApplicationType == models.Email {
		subject := "Application: " + firstLine(req.JobDescription)
		app.Subject = &subject
	}
	acc.apps = append(acc.apps, app)
	writeJSON(w, http.StatusOK, models.Generated{Subject: app.Subject, Content: app.Content})
}

func (b *Backend) handleAppHistory(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc := b.account(r)
	out := make([]models.Application, 0, len(acc.apps))
	for i := len(acc.apps) - 1; i >= 0; i-- {
		out = append(out, acc.apps[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) handleAppDetail(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, app := range b.account(r).apps {
		if app.ID == id {
			writeJSON(w, http.StatusOK, app)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Application not found")
}

func (b *Backend) handleDeleteApp(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	acc := b.account(r)
	for i, app := range acc.apps {
		if app.ID == id {
			acc.apps = append(acc.apps[:i], acc.apps[i+1:]...)
			writeJSON(w, http.StatusOK, models.Ack{Message: "Application deleted"})
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Application not found")
}

func (b *Backend) handleClearApps(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.account(r).apps = nil
	writeJSON(w, http.StatusOK, models.Ack{Message: "Application history cleared"})
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeValidation(w http.ResponseWriter, field, msg string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []map[string]any{{"loc": []string{"body", field}, "msg": msg, "type": "value_error"}},
	})
}
