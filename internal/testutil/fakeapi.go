// Package testutil provides an in-process fake of the task API for tests.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskdesk/internal/client/models"
	"github.com/dmitrijs2005/taskdesk/internal/common"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var signingKey = []byte("taskdesk-test-key")

// Request is one request the fake has received.
type Request struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	RequestID     string
	Body          []byte
}

// Override replaces the handler for one route.
type Override struct {
	Status int
	Body   any
	Delay  time.Duration
	// Times limits how often the override fires; 0 means forever.
	Times int
}

type account struct {
	principal models.Principal
	password  string
}

// FakeAPI is an httptest server speaking the task API.
type FakeAPI struct {
	Server *httptest.Server
	// TokenTTL is the lifetime of issued tokens.
	TokenTTL time.Duration

	mu        sync.Mutex
	requests  []Request
	accounts  map[string]*account // by email
	revoked   map[string]bool
	tasks     []models.Task
	overrides map[string]*Override
	seq       int
}

// NewFakeAPI starts a fake server; it is closed on test cleanup.
func NewFakeAPI(t testing.TB) *FakeAPI {
	f := &FakeAPI{
		TokenTTL:  time.Hour,
		accounts:  make(map[string]*account),
		revoked:   make(map[string]bool),
		overrides: make(map[string]*Override),
	}
	f.Server = httptest.NewServer(f.routes())
	t.Cleanup(f.Server.Close)
	return f
}

// BaseURL is the API base to hand to the gateway.
func (f *FakeAPI) BaseURL() string {
	return f.Server.URL + "/api"
}

func (f *FakeAPI) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(f.record, f.override)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", f.login)
		r.Post("/auth/register", f.register)

		r.Group(func(r chi.Router) {
			r.Use(f.authenticate)
			r.Get("/auth/me", f.me)

			r.Get("/tasks", f.listTasks)
			r.Post("/tasks", f.createTask)
			r.Put("/tasks/{id}", f.updateTask)
			r.Delete("/tasks/{id}", f.deleteTask)

			r.Route("/admin", func(r chi.Router) {
				r.Use(f.requireAdmin)
				r.Get("/users", f.listUsers)
				r.Put("/users/{id}/promote", f.setRole(models.RoleAdmin))
				r.Put("/users/{id}/demote", f.setRole(models.RoleUser))
				r.Delete("/users/{id}", f.deleteUser)
				r.Get("/users/{id}/tasks", f.userTasks)
				r.Get("/tasks", f.allTasks)
				r.Put("/tasks/{id}", f.adminUpdateTask)
			})
		})
	})
	return r
}

// AddUser registers an account directly and returns it.
func (f *FakeAPI) AddUser(name, email, password string, role models.Role) models.Principal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addUserLocked(name, email, password, role)
}

func (f *FakeAPI) addUserLocked(name, email, password string, role models.Role) models.Principal {
	p := models.Principal{ID: uuid.NewString(), Name: name, Email: email, Role: role}
	f.accounts[strings.ToLower(email)] = &account{principal: p, password: password}
	return p
}

// AddTask stores a task owned by ownerID and returns it.
func (f *FakeAPI) AddTask(ownerID, title string, completed bool) models.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addTaskLocked(ownerID, models.TaskDraft{Title: title}, completed)
}

func (f *FakeAPI) addTaskLocked(ownerID string, d models.TaskDraft, completed bool) models.Task {
	f.seq++
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(f.seq) * time.Minute)
	t := models.Task{
		ID:        fmt.Sprintf("t%03d", f.seq),
		Title:     d.Title,
		DueDate:   d.DueDate,
		Completed: completed,
		Owner:     models.Owner{ID: ownerID},
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.Normalize()
	f.tasks = append(f.tasks, t)
	return t
}

// Token issues a valid credential for the account with email.
func (f *FakeAPI) Token(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc := f.accounts[strings.ToLower(email)]
	if acc == nil {
		return ""
	}
	return f.issueLocked(acc.principal.ID, time.Now().Add(f.TokenTTL))
}

// ExpiredToken issues a credential whose exp claim is in the past.
func (f *FakeAPI) ExpiredToken(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc := f.accounts[strings.ToLower(email)]
	if acc == nil {
		return ""
	}
	return f.issueLocked(acc.principal.ID, time.Now().Add(-time.Hour))
}

func (f *FakeAPI) issueLocked(userID string, exp time.Time) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		ID:        uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString(signingKey)
	if err != nil {
		panic(err)
	}
	return s
}

// Revoke makes the server reject tok with 401.
func (f *FakeAPI) Revoke(tok string) {
	f.mu.Lock()
	f.revoked[tok] = true
	f.mu.Unlock()
}

// Override installs o for requests matching method and the full request path
// (e.g. "/api/tasks").
func (f *FakeAPI) Override(method, path string, o Override) {
	f.mu.Lock()
	f.overrides[method+" "+path] = &o
	f.mu.Unlock()
}

// Requests returns a copy of the recorded requests.
func (f *FakeAPI) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.requests...)
}

// CountRequests counts recorded requests for method and path.
func (f *FakeAPI) CountRequests(method, path string) int {
	n := 0
	for _, r := range f.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// ResetRequests forgets recorded requests.
func (f *FakeAPI) ResetRequests() {
	f.mu.Lock()
	f.requests = nil
	f.mu.Unlock()
}

// Tasks returns a copy of stored tasks.
func (f *FakeAPI) Tasks() []models.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Task(nil), f.tasks...)
}

// User looks up an account by id.
func (f *FakeAPI) User(id string) (models.Principal, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.principal.ID == id {
			return a.principal, true
		}
	}
	return models.Principal{}, false
}

/*************
 * middleware
 *************/

type ctxKey struct{}

func (f *FakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		f.mu.Lock()
		f.requests = append(f.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.RawQuery,
			Authorization: r.Header.Get(common.AuthorizationHeaderName),
			RequestID:     r.Header.Get(common.RequestIDHeaderName),
			Body:          body,
		})
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) override(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		f.mu.Lock()
		o, ok := f.overrides[key]
		var cp Override
		if ok {
			cp = *o
			if o.Times > 0 {
				o.Times--
				if o.Times == 0 {
					delete(f.overrides, key)
				}
			}
		}
		f.mu.Unlock()

		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		if cp.Delay > 0 {
			select {
			case <-time.After(cp.Delay):
			case <-r.Context().Done():
				return
			}
		}
		if cp.Status == 0 {
			next.ServeHTTP(w, r)
			return
		}
		writeJSON(w, cp.Status, cp.Body)
	})
}

func (f *FakeAPI) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get(common.AuthorizationHeaderName), common.BearerPrefix)
		if raw == "" {
			writeMessage(w, http.StatusUnauthorized, "No token provided")
			return
		}

		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return signingKey, nil })
		f.mu.Lock()
		revoked := f.revoked[raw]
		f.mu.Unlock()
		if err != nil || revoked {
			writeMessage(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		p, ok := f.User(claims.Subject)
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "User not found")
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWith(r, p)))
	})
}

func (f *FakeAPI) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !principalFrom(r).IsAdmin() {
			writeMessage(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

/*************
 * handlers
 *************/

func (f *FakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var in struct{ Email, Password string }
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request")
		return
	}

	f.mu.Lock()
	acc := f.accounts[strings.ToLower(in.Email)]
	f.mu.Unlock()
	if acc == nil || acc.password != in.Password {
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": f.Token(in.Email),
		"user":  acc.principal,
	})
}

func (f *FakeAPI) register(w http.ResponseWriter, r *http.Request) {
	var in struct{ Name, Email, Password string }
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Email == "" || in.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Name, email and password are required")
		return
	}

	f.mu.Lock()
	if _, exists := f.accounts[strings.ToLower(in.Email)]; exists {
		f.mu.Unlock()
		writeMessage(w, http.StatusBadRequest, "User already exists")
		return
	}
	p := f.addUserLocked(in.Name, in.Email, in.Password, models.RoleUser)
	f.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"user": p})
}

func (f *FakeAPI) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"user": principalFrom(r)})
}

func (f *FakeAPI) listTasks(w http.ResponseWriter, r *http.Request) {
	me := principalFrom(r)
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	search := strings.ToLower(r.URL.Query().Get("search"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	f.mu.Lock()
	var mine []models.Task
	for _, t := range f.tasks {
		if t.Owner.ID != me.ID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Title), search) {
			continue
		}
		mine = append(mine, t)
	}
	f.mu.Unlock()

	sort.SliceStable(mine, func(i, j int) bool { return mine[i].CreatedAt.After(mine[j].CreatedAt) })

	total := (len(mine) + limit - 1) / limit
	start := (page - 1) * limit
	end := min(start+limit, len(mine))
	items := []models.Task{}
	if start < len(mine) {
		items = mine[start:end]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tasks":      items,
		"page":       page,
		"totalPages": total,
	})
}

func (f *FakeAPI) createTask(w http.ResponseWriter, r *http.Request) {
	var d models.TaskDraft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil || strings.TrimSpace(d.Title) == "" {
		writeMessage(w, http.StatusBadRequest, "Title is required")
		return
	}
	f.mu.Lock()
	t := f.addTaskLocked(principalFrom(r).ID, d, false)
	f.mu.Unlock()
	writeJSON(w, http.StatusCreated, t)
}

func (f *FakeAPI) updateTask(w http.ResponseWriter, r *http.Request) {
	f.patchTask(w, r, principalFrom(r).ID)
}

func (f *FakeAPI) adminUpdateTask(w http.ResponseWriter, r *http.Request) {
	f.patchTask(w, r, "")
}

func (f *FakeAPI) patchTask(w http.ResponseWriter, r *http.Request, ownerID string) {
	var p models.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request")
		return
	}

	id := chi.URLParam(r, "id")
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		t := &f.tasks[i]
		if t.ID != id || (ownerID != "" && t.Owner.ID != ownerID) {
			continue
		}
		p.Apply(t)
		t.UpdatedAt = t.UpdatedAt.Add(time.Second)
		writeJSON(w, http.StatusOK, t)
		return
	}
	writeMessage(w, http.StatusNotFound, "Task not found")
}

func (f *FakeAPI) deleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	me := principalFrom(r)

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id && t.Owner.ID == me.ID {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			writeMessage(w, http.StatusOK, "Task deleted")
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "Task not found")
}

func (f *FakeAPI) listUsers(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	users := make([]models.Principal, 0, len(f.accounts))
	for _, a := range f.accounts {
		users = append(users, a.principal)
	}
	f.mu.Unlock()
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (f *FakeAPI) setRole(role models.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		f.mu.Lock()
		defer f.mu.Unlock()
		for _, a := range f.accounts {
			if a.principal.ID == id {
				a.principal.Role = role
				writeJSON(w, http.StatusOK, map[string]any{"user": a.principal})
				return
			}
		}
		writeMessage(w, http.StatusNotFound, "User not found")
	}
}

func (f *FakeAPI) deleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	f.mu.Lock()
	defer f.mu.Unlock()
	for email, a := range f.accounts {
		if a.principal.ID == id {
			delete(f.accounts, email)
			kept := f.tasks[:0]
			for _, t := range f.tasks {
				if t.Owner.ID != id {
					kept = append(kept, t)
				}
			}
			f.tasks = kept
			writeMessage(w, http.StatusOK, "User deleted")
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "User not found")
}

func (f *FakeAPI) userTasks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	f.mu.Lock()
	out := []models.Task{}
	for _, t := range f.tasks {
		if t.Owner.ID == id {
			out = append(out, t)
		}
	}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) allTasks(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	out := make([]models.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		if a := f.accountByIDLocked(t.Owner.ID); a != nil {
			p := a.principal
			t.Owner.User = &p
		}
		out = append(out, t)
	}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"tasks": out})
}

func (f *FakeAPI) accountByIDLocked(id string) *account {
	for _, a := range f.accounts {
		if a.principal.ID == id {
			return a
		}
	}
	return nil
}

/*************
 * helpers
 *************/

func contextWith(r *http.Request, p models.Principal) context.Context {
	return context.WithValue(r.Context(), ctxKey{}, p)
}

func principalFrom(r *http.Request) models.Principal {
	p, _ := r.Context().Value(ctxKey{}).(models.Principal)
	return p
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}
