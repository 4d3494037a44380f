package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"

	"github.com/cppla/socialbbs/config"
	"github.com/cppla/socialbbs/models"
	"github.com/cppla/socialbbs/services"
	"github.com/cppla/socialbbs/storage"
	"github.com/cppla/socialbbs/utils"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "routes-test-secret")
	utils.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type discardNotifier struct{}

func (discardNotifier) Notify(context.Context, *models.User, services.NotificationKind, map[string]string) {
}

type apiResponse struct {
	Results int             `json:"results"`
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := config.Open(&sqlite.Dialector{DriverName: "sqlite", DSN: "file::memory:"}, "silent")
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db, models.All()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg := config.AppConfig{
		GinMode:            "test",
		JWTExpiresHours:    1,
		ClientHost:         "http://client.test",
		RateLimitPerMinute: 100000,
		AllowedOrigins:     []string{"*"},
		StorageDriver:      "local",
		StorageLocalDir:    t.TempDir(),
		StoragePublicURL:   "/static/uploads",
		UsersImageBaseURL:  "/static/uploads/users",
	}
	assets, err := storage.New(cfg)
	require.NoError(t, err)
	return &testServer{t: t, router: SetupRouter(cfg, db, assets, discardNotifier{})}
}

func (s *testServer) do(req *http.Request, token string) (*httptest.ResponseRecorder, apiResponse) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	var body apiResponse
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &body)
	}
	return w, body
}

func (s *testServer) json(method, path, token string, data interface{}) (*httptest.ResponseRecorder, apiResponse) {
	var buf bytes.Buffer
	if data != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(gin.H{"data": data}))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, token)
}

var accountSeq int

type account struct {
	ID    uint
	Email string
	Token string
}

func (s *testServer) register(name string) account {
	s.t.Helper()
	accountSeq++
	email := fmt.Sprintf("http%d@example.com", accountSeq)
	w, _ := s.json(http.MethodPost, "/api/v1/users/signup", "", gin.H{
		"name": name, "email": email, "password": "password123", "birthdate": "1991-02-03",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	w, body := s.json(http.MethodPost, "/api/v1/users/signin", "", gin.H{"email": email, "password": "password123"})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(body.Data, &data))
	return account{ID: data.User.ID, Email: email, Token: data.Token}
}

func userPath(id uint, rest string) string {
	return fmt.Sprintf("/api/v1/users/%d%s", id, rest)
}

func TestSignupAndSignin(t *testing.T) {
	s := newTestServer(t)

	w, body := s.json(http.MethodPost, "/api/v1/users/signup", "", gin.H{
		"name": "Alice Liddell", "email": "alice@example.com", "password": "password123", "birthdate": "1990-01-01",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, "User account created successfully. Please login.", body.Message)

	w, body = s.json(http.MethodPost, "/api/v1/users/signup", "", gin.H{
		"name": "Alice Again", "email": "alice@example.com", "password": "password123", "birthdate": "1990-01-01",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "fail", body.Status)

	w, body = s.json(http.MethodPost, "/api/v1/users/signin", "", gin.H{"email": "alice@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Incorrect Email or Password.", body.Message)

	w, body = s.json(http.MethodPost, "/api/v1/users/signin", "", gin.H{"email": "alice@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(body.Data), `"token"`)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestRequestBodyMustBeWrapped(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/signin", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	w, body := s.do(req, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Request body has to be a JSON object of the form {data: {...}}.", body.Message)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("Alice Liddell")
	bob := s.register("Bob Builder")

	w, body := s.json(http.MethodGet, userPath(alice.ID, ""), "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "No authentication token is associated with the request.", body.Message)

	w, body = s.json(http.MethodPatch, userPath(bob.ID, fmt.Sprintf("/follow/%d", alice.ID)), alice.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "User role is not authorized to perform this action for a different user.", body.Message)

	w, _ = s.json(http.MethodGet, "/api/v1/users", alice.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = s.json(http.MethodGet, "/api/v1/users/abc", alice.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid userId 'abc'.", body.Message)
}

func TestFollowToggleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("Alice Liddell")
	bob := s.register("Bob Builder")
	path := userPath(alice.ID, fmt.Sprintf("/follow/%d", bob.ID))

	var data struct {
		User models.User `json:"user"`
	}
	w, body := s.json(http.MethodPatch, path, alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Equal(t, []uint{bob.ID}, data.User.Following)

	w, body = s.json(http.MethodGet, userPath(bob.ID, "/followers"), alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, body.Results)

	w, body = s.json(http.MethodPatch, path, alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Empty(t, data.User.Following)

	w, body = s.json(http.MethodPatch, userPath(alice.ID, fmt.Sprintf("/follow/%d", alice.ID)), alice.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "FollowId has to be different from userId.", body.Message)
}

func TestSearchWithBlankName(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("Alice Liddell")

	for _, q := range []string{"", "%20%20"} {
		w, _ := s.json(http.MethodGet, "/api/v1/users/search?name="+q, alice.Token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"results":0,"status":"success","data":{"users":[]}}`, w.Body.String())
	}

	w, body := s.json(http.MethodGet, "/api/v1/users/search?name=LIDD", alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, body.Results)
}

func TestPostLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("Alice Liddell")
	bob := s.register("Bob Builder")

	w, body := s.json(http.MethodPost, userPath(alice.ID, "/posts"), alice.Token, gin.H{"content": "first post"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Post models.Post `json:"post"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &created))
	postID := created.Post.ID

	w, body = s.json(http.MethodPost, userPath(bob.ID, fmt.Sprintf("/posts/%d/likes", postID)), bob.Token, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"liked":true,"likesCount":1}`, string(body.Data))

	w, body = s.json(http.MethodPost, userPath(bob.ID, fmt.Sprintf("/posts/%d/comments", postID)), bob.Token, gin.H{"content": "nice"})
	require.Equal(t, http.StatusCreated, w.Code)
	var comment struct {
		Comment models.Comment `json:"comment"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &comment))

	w, body = s.json(http.MethodPost,
		userPath(alice.ID, fmt.Sprintf("/posts/%d/comments/%d/likes", postID, comment.Comment.ID)), alice.Token, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"liked":true,"likesCount":1}`, string(body.Data))

	w, body = s.json(http.MethodGet, userPath(alice.ID, fmt.Sprintf("/posts/%d", postID)), bob.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Post models.Post `json:"post"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &got))
	assert.Equal(t, int64(1), got.Post.LikesCount)
	assert.Equal(t, int64(1), got.Post.CommentsCount)
	require.Len(t, got.Post.CommentsPreview, 1)
	assert.Equal(t, int64(1), got.Post.CommentsPreview[0].LikesCount)

	_, _ = s.json(http.MethodPatch, userPath(bob.ID, fmt.Sprintf("/follow/%d", alice.ID)), bob.Token, nil)
	w, body = s.json(http.MethodGet, userPath(bob.ID, "/posts/home"), bob.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, body.Results)

	w, _ = s.json(http.MethodDelete, userPath(bob.ID, fmt.Sprintf("/posts/%d", postID)), bob.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.json(http.MethodDelete, userPath(alice.ID, fmt.Sprintf("/posts/%d", postID)), alice.Token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, w.Body.Len())

	w, _ = s.json(http.MethodGet, userPath(alice.ID, fmt.Sprintf("/posts/%d", postID)), alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.json(http.MethodGet, userPath(alice.ID, fmt.Sprintf("/posts/%d/comments", postID)), alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreatePostWithImage(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("Alice Liddell")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("content", "look at this"))
	part, err := mw.CreateFormFile("image", "pic.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, userPath(alice.ID, "/posts"), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w, body := s.do(req, alice.Token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Post models.Post `json:"post"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &created))
	assert.Equal(t, "look at this", created.Post.Content)
	require.True(t, strings.HasPrefix(created.Post.Image, "/static/uploads/posts/"), created.Post.Image)

	w, _ = s.do(httptest.NewRequest(http.MethodGet, created.Post.Image, nil), "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteUserDeactivatesAccount(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("Alice Liddell")

	w, _ := s.json(http.MethodDelete, userPath(alice.ID, ""), alice.Token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, body := s.json(http.MethodGet, userPath(alice.ID, ""), alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No user is associated with this authentication token.", body.Message)

	w, _ = s.json(http.MethodPost, "/api/v1/users/signin", "", gin.H{"email": alice.Email, "password": "password123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutRevokesSession(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("Alice Liddell")

	w, _ := s.json(http.MethodPost, "/api/v1/users/logout", alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, body := s.json(http.MethodGet, userPath(alice.ID, ""), alice.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "User authentication token has been revoked.", body.Message)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	w, body := s.json(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Can't 'GET' on '/nope'.", body.Message)
}

func TestHealthAndLimits(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.json(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, body := s.json(http.MethodGet, "/api/v1/config/limits", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(body.Data), `"contentMaxLength":450`)
}
