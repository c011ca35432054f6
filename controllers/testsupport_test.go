package controllers

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"briddhi-be/middlewares"
	"briddhi-be/models"
	"briddhi-be/realtime"
	"briddhi-be/stores"
)

// memIssueStore is an in-memory IssueStore for controller tests.
type memIssueStore struct {
	mu     sync.Mutex
	issues []models.Issue

	createErr   error
	updateCalls int
}

func (m *memIssueStore) Create(_ context.Context, issue models.Issue) (models.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return models.Issue{}, m.createErr
	}
	issue.ID = primitive.NewObjectID()
	issue.CreatedAt = time.Now()
	m.issues = append(m.issues, issue)
	return issue, nil
}

func (m *memIssueStore) GetByID(_ context.Context, id primitive.ObjectID) (models.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, issue := range m.issues {
		if issue.ID == id {
			return issue, nil
		}
	}
	return models.Issue{}, stores.ErrNotFound
}

func (m *memIssueStore) ListByOwner(_ context.Context, owner primitive.ObjectID) ([]models.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.Issue{}
	for _, issue := range m.issues {
		if issue.ReportedBy == owner {
			out = append(out, issue)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memIssueStore) ListAll(_ context.Context) ([]models.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := append([]models.Issue{}, m.issues...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memIssueStore) UpdateStatus(_ context.Context, id primitive.ObjectID, status models.IssueStatus) (models.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.updateCalls++
	for i := range m.issues {
		if m.issues[i].ID == id {
			m.issues[i].Status = status
			return m.issues[i], nil
		}
	}
	return models.Issue{}, stores.ErrNotFound
}

func (m *memIssueStore) CountsByType(_ context.Context) ([]stores.TypeCount, error) {
	return m.groupCounts(func(issue models.Issue) string { return string(issue.Type) }), nil
}

func (m *memIssueStore) CountsByStatus(_ context.Context) ([]stores.TypeCount, error) {
	return m.groupCounts(func(issue models.Issue) string { return string(issue.Status) }), nil
}

func (m *memIssueStore) groupCounts(key func(models.Issue) string) []stores.TypeCount {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := map[string]int64{}
	for _, issue := range m.issues {
		counts[key(issue)]++
	}
	out := []stores.TypeCount{}
	for name, value := range counts {
		out = append(out, stores.TypeCount{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *memIssueStore) CountCreatedBetween(_ context.Context, from, to time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for _, issue := range m.issues {
		if !issue.CreatedAt.Before(from) && issue.CreatedAt.Before(to) {
			count++
		}
	}
	return count, nil
}

func (m *memIssueStore) snapshot() []models.Issue {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Issue{}, m.issues...)
}

// memUserStore is an in-memory UserStore for controller tests.
type memUserStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]models.User

	getErr error
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[primitive.ObjectID]models.User{}}
}

func (m *memUserStore) Create(_ context.Context, user models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	m.users[user.ID] = user
	return user, nil
}

func (m *memUserStore) GetByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return models.User{}, m.getErr
	}
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return models.User{}, stores.ErrNotFound
}

func (m *memUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.users {
		if email != "" && user.Email == email {
			return user, nil
		}
	}
	return models.User{}, stores.ErrNotFound
}

func (m *memUserStore) FindByPhone(_ context.Context, phone string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.users {
		if phone != "" && user.Phone == phone {
			return user, nil
		}
	}
	return models.User{}, stores.ErrNotFound
}

func (m *memUserStore) add(user models.User) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	m.users[user.ID] = user
	return user
}

// fakeGeocoder returns a fixed address or error.
type fakeGeocoder struct {
	address string
	err     error
	calls   int
}

func (g *fakeGeocoder) ReverseGeocode(context.Context, float64, float64) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.address, nil
}

// fakeUploader returns a deterministic URL per file name.
type fakeUploader struct {
	err   error
	calls int
}

func (u *fakeUploader) Upload(_ context.Context, file *multipart.FileHeader) (string, error) {
	u.calls++
	if u.err != nil {
		return "", u.err
	}
	return "https://cdn.example.com/" + file.Filename, nil
}

type env struct {
	router   *gin.Engine
	issues   *memIssueStore
	users    *memUserStore
	hub      *realtime.Hub
	geocoder *fakeGeocoder
	uploader *fakeUploader
}

// newEnv wires the controllers through the real auth middleware against
// in-memory collaborators. The submit rate limiter is exercised in its own
// package tests and left out here.
func newEnv() *env {
	gin.SetMode(gin.TestMode)

	issues := &memIssueStore{}
	users := newMemUserStore()
	hub := realtime.NewHub()
	geocoder := &fakeGeocoder{address: "5th Avenue, Springfield"}
	uploader := &fakeUploader{}

	cc := &CitizenController{Users: users, Issues: issues, Hub: hub, Geocoder: geocoder, Uploader: uploader}
	ac := &AdminController{Users: users, Issues: issues, Hub: hub}

	r := gin.New()

	citizen := r.Group("/citizen")
	citizen.POST("/register", cc.Register)
	citizen.POST("/login", cc.Login)
	citizen.GET("/profile",
		middlewares.RequireAuth(),
		middlewares.RequireRoles(models.RoleCitizen, models.RoleAdmin),
		cc.GetProfile)
	citizen.POST("/submit-issue",
		middlewares.RequireAuth(),
		middlewares.RequireRoles(models.RoleCitizen),
		cc.SubmitIssue)
	citizen.GET("/my-issues",
		middlewares.RequireAuth(),
		middlewares.RequireRoles(models.RoleCitizen),
		cc.GetMyIssues)

	admin := r.Group("/admin")
	admin.Use(middlewares.RequireAuth(), middlewares.RequireRoles(models.RoleAdmin))
	admin.GET("/issues", ac.GetAllIssues)
	admin.PUT("/issues/:id/status", ac.UpdateIssueStatus)
	admin.GET("/analytics", ac.GetAnalytics)

	return &env{router: r, issues: issues, users: users, hub: hub, geocoder: geocoder, uploader: uploader}
}

// multipartBody builds a submit-issue form with the given fields and image
// file names.
func multipartBody(fields map[string]string, imageNames []string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", err
		}
	}
	for _, name := range imageNames {
		part, err := writer.CreateFormFile("images", name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write([]byte("jpeg-bytes")); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

func authedRequest(method, path string, body *bytes.Buffer, contentType, token string) *http.Request {
	var req *http.Request
	if body == nil {
		req = newRequest(method, path, nil)
	} else {
		req = newRequest(method, path, body)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func newRequest(method, path string, body *bytes.Buffer) *http.Request {
	if body == nil {
		req, _ := http.NewRequest(method, path, nil)
		return req
	}
	req, _ := http.NewRequest(method, path, body)
	return req
}

func jsonBody(format string, args ...any) *bytes.Buffer {
	return bytes.NewBufferString(fmt.Sprintf(format, args...))
}
