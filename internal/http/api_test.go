package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"bookmarkd/internal/auth"
	"bookmarkd/internal/repository/sqlite"
	"bookmarkd/internal/service"
)

type testServer struct {
	router *gin.Engine
	tokens *auth.TokenService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	userRepo := sqlite.NewUserRepository(db)
	bookmarkRepo := sqlite.NewBookmarkRepository(db)
	require.NoError(t, userRepo.Init(context.Background()))
	require.NoError(t, bookmarkRepo.Init(context.Background()))

	hasher := auth.NewHasher(bcrypt.MinCost)
	tokens := auth.NewTokenService([]byte("test-secret"), time.Hour)

	userService := service.NewUserService(userRepo, hasher, tokens)
	bookmarkService := service.NewBookmarkService(bookmarkRepo)
	exportService := service.NewExportService(bookmarkService, nil, "", "")

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	router := gin.New()
	NewHandler(userService, bookmarkService, exportService, tokens, logger).RegisterRoutes(router)

	return &testServer{router: router, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) signupAndLogin(t *testing.T, email, password string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/auth/signup", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestSignupNeverReturnsPasswordHash(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/auth/signup", "", gin.H{
		"email":      "a@x.com",
		"password":   "password123",
		"first_name": "Ada",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	for key := range body {
		assert.NotContains(t, strings.ToLower(key), "password")
	}
	assert.NotContains(t, rec.Body.String(), "$2a$")
	assert.Equal(t, "a@x.com", body["email"])
	assert.Equal(t, "Ada", body["first_name"])
}

func TestSignupRejectsBadBodyAndDuplicates(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/auth/signup", "", gin.H{"email": "not-an-email", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/signup", "", gin.H{"email": "a@x.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/signup", "", gin.H{"email": "a@x.com", "password": "password123"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/signup", "", gin.H{"email": "a@x.com", "password": "password456"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newTestServer(t)
	s.signupAndLogin(t, "a@x.com", "password123")

	rec := s.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "a@x.com", "password": "wrongpassword"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "nobody@x.com", "password": "password123"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGuardRejectsMissingOrBadTokens(t *testing.T) {
	s := newTestServer(t)

	for name, header := range map[string]string{
		"missing":     "",
		"not bearer":  "Basic abc",
		"garbage":     "Bearer garbage",
		"empty token": "Bearer ",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestGuardRejectsExpiredToken(t *testing.T) {
	s := newTestServer(t)
	s.signupAndLogin(t, "a@x.com", "password123")

	expired := auth.NewTokenService([]byte("test-secret"), -time.Minute)
	token, err := expired.Issue("some-user", "a@x.com")
	require.NoError(t, err)

	rec := s.do(t, http.MethodGet, "/users/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetMeAndEditProfile(t *testing.T) {
	s := newTestServer(t)
	token := s.signupAndLogin(t, "a@x.com", "password123")

	rec := s.do(t, http.MethodGet, "/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var me UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "a@x.com", me.Email)

	rec = s.do(t, http.MethodPatch, "/users", token, gin.H{"first_name": "Grace", "last_name": "Hopper"})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Grace", updated.FirstName)
	assert.Equal(t, "Hopper", updated.LastName)
	assert.NotContains(t, rec.Body.String(), "$2a$")
}

func TestBookmarkLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.signupAndLogin(t, "a@x.com", "password123")

	rec := s.do(t, http.MethodGet, "/bookmarks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = s.do(t, http.MethodPost, "/bookmarks", token, gin.H{"title": "Go blog", "link": "https://go.dev/blog"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created BookmarkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Go blog", created.Title)
	assert.Equal(t, "https://go.dev/blog", created.Link)

	rec = s.do(t, http.MethodGet, "/bookmarks/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got BookmarkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, created.ID, got.ID)

	rec = s.do(t, http.MethodPatch, "/bookmarks/"+created.ID, token, gin.H{"description": "worth rereading"})
	require.Equal(t, http.StatusOK, rec.Code)
	var patched BookmarkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &patched))
	assert.Equal(t, "Go blog", patched.Title)
	assert.Equal(t, "worth rereading", patched.Description)

	rec = s.do(t, http.MethodDelete, "/bookmarks/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/bookmarks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestBookmarkCrossUserAccess(t *testing.T) {
	s := newTestServer(t)
	ownerToken := s.signupAndLogin(t, "owner@x.com", "password123")
	otherToken := s.signupAndLogin(t, "other@x.com", "password123")

	rec := s.do(t, http.MethodPost, "/bookmarks", ownerToken, gin.H{"title": "Go blog", "link": "https://go.dev/blog"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created BookmarkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	// read by a non-owner answers 200 with a null body, same as a miss
	rec = s.do(t, http.MethodGet, "/bookmarks/"+created.ID, otherToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))

	rec = s.do(t, http.MethodPatch, "/bookmarks/"+created.ID, otherToken, gin.H{"title": "hijacked"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodDelete, "/bookmarks/"+created.ID, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// the record is untouched for its owner
	rec = s.do(t, http.MethodGet, "/bookmarks/"+created.ID, ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stored BookmarkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	assert.Equal(t, "Go blog", stored.Title)

	// and the other user's own list is still empty
	rec = s.do(t, http.MethodGet, "/bookmarks", otherToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestExportUnavailableWithoutStorage(t *testing.T) {
	s := newTestServer(t)
	token := s.signupAndLogin(t, "a@x.com", "password123")

	rec := s.do(t, http.MethodPost, "/exports", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = s.do(t, http.MethodGet, "/exports", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
