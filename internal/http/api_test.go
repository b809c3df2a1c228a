package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"messagely/internal/auth"
	"messagely/internal/repository/memory"
	"messagely/internal/service"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	userRepo := memory.NewUserRepository()
	messageRepo := memory.NewMessageRepository()
	tokens := auth.NewService([]byte("test-secret"), time.Hour)
	userService := service.NewUserService(userRepo, tokens)
	messageService := service.NewMessageService(messageRepo, userRepo)

	router := gin.New()
	NewHandler(userService, messageService, tokens).RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func registerUser(t *testing.T, router *gin.Engine, username string) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/register", "", gin.H{
		"username":   username,
		"password":   "hunter2boogaloo",
		"first_name": "Test",
		"last_name":  "User",
		"phone":      "+15550001111",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func sendMessage(t *testing.T, router *gin.Engine, token, to, body string) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/messages", token, gin.H{
		"to_username": to,
		"body":        body,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Message struct {
			ID string `json:"id"`
		} `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Message.ID)
	return resp.Message.ID
}

func TestRegisterAndLogin(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	registerUser(t, router, "alice")

	w := doJSON(t, router, http.MethodPost, "/login", "", gin.H{
		"username": "alice",
		"password": "hunter2boogaloo",
	})
	req.Equal(http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/login", "", gin.H{
		"username": "alice",
		"password": "wrong",
	})
	req.Equal(http.StatusBadRequest, w.Code)

	// unknown user gets the same response shape and status
	w = doJSON(t, router, http.MethodPost, "/login", "", gin.H{
		"username": "nobody",
		"password": "wrong",
	})
	req.Equal(http.StatusBadRequest, w.Code)
}

func TestRegisterDuplicate(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	registerUser(t, router, "alice")
	w := doJSON(t, router, http.MethodPost, "/register", "", gin.H{
		"username": "alice",
		"password": "anotherpassword",
	})
	req.Equal(http.StatusBadRequest, w.Code)
}

func TestMessageVisibility(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	alice := registerUser(t, router, "alice")
	bob := registerUser(t, router, "bob")
	carol := registerUser(t, router, "carol")

	id := sendMessage(t, router, alice, "bob", "hi")

	// both participants see the full payload with nested profiles
	w := doJSON(t, router, http.MethodGet, "/messages/"+id, bob, nil)
	req.Equal(http.StatusOK, w.Code)

	var resp struct {
		Message struct {
			ID       string  `json:"id"`
			Body     string  `json:"body"`
			SentAt   string  `json:"sent_at"`
			ReadAt   *string `json:"read_at"`
			FromUser struct {
				Username string `json:"username"`
			} `json:"from_user"`
			ToUser struct {
				Username string `json:"username"`
			} `json:"to_user"`
		} `json:"message"`
	}
	req.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	req.Equal("hi", resp.Message.Body)
	req.Equal("alice", resp.Message.FromUser.Username)
	req.Equal("bob", resp.Message.ToUser.Username)
	req.Nil(resp.Message.ReadAt)

	w = doJSON(t, router, http.MethodGet, "/messages/"+id, alice, nil)
	req.Equal(http.StatusOK, w.Code)

	// a third user is denied, and a missing id is distinct from forbidden
	w = doJSON(t, router, http.MethodGet, "/messages/"+id, carol, nil)
	req.Equal(http.StatusForbidden, w.Code)

	w = doJSON(t, router, http.MethodGet, "/messages/no-such-id", carol, nil)
	req.Equal(http.StatusNotFound, w.Code)
}

func TestMarkRead(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	alice := registerUser(t, router, "alice")
	bob := registerUser(t, router, "bob")

	id := sendMessage(t, router, alice, "bob", "hi")

	// the sender may not mark their own message read
	w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/messages/%s/read", id), alice, nil)
	req.Equal(http.StatusForbidden, w.Code)

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/messages/%s/read", id), bob, nil)
	req.Equal(http.StatusOK, w.Code)

	var resp struct {
		Message struct {
			ID     string `json:"id"`
			ReadAt string `json:"read_at"`
		} `json:"message"`
	}
	req.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	req.Equal(id, resp.Message.ID)
	req.NotEmpty(resp.Message.ReadAt)

	// marking again is a no-op returning the same timestamp
	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/messages/%s/read", id), bob, nil)
	req.Equal(http.StatusOK, w.Code)
	var again struct {
		Message struct {
			ReadAt string `json:"read_at"`
		} `json:"message"`
	}
	req.NoError(json.Unmarshal(w.Body.Bytes(), &again))
	req.Equal(resp.Message.ReadAt, again.Message.ReadAt)
}

func TestAuthenticationRequired(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)
	registerUser(t, router, "alice")

	w := doJSON(t, router, http.MethodPost, "/messages", "", gin.H{
		"to_username": "alice",
		"body":        "hi",
	})
	req.Equal(http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodGet, "/messages/some-id", "garbage-token", nil)
	req.Equal(http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodGet, "/users", "", nil)
	req.Equal(http.StatusUnauthorized, w.Code)
}

func TestExpiredTokenRejected(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)
	registerUser(t, router, "alice")

	expired := auth.NewService([]byte("test-secret"), -time.Minute)
	token, err := expired.Issue("alice")
	req.NoError(err)

	w := doJSON(t, router, http.MethodGet, "/users", token, nil)
	req.Equal(http.StatusUnauthorized, w.Code)
}

func TestUserScopedRoutes(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	alice := registerUser(t, router, "alice")
	bob := registerUser(t, router, "bob")
	sendMessage(t, router, alice, "bob", "hi")

	// a user may only read their own profile and message lists
	w := doJSON(t, router, http.MethodGet, "/users/bob", bob, nil)
	req.Equal(http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/users/bob", alice, nil)
	req.Equal(http.StatusForbidden, w.Code)

	w = doJSON(t, router, http.MethodGet, "/users/bob/to", bob, nil)
	req.Equal(http.StatusOK, w.Code)
	var inbox struct {
		Messages []struct {
			Body     string `json:"body"`
			FromUser struct {
				Username string `json:"username"`
			} `json:"from_user"`
		} `json:"messages"`
	}
	req.NoError(json.Unmarshal(w.Body.Bytes(), &inbox))
	req.Len(inbox.Messages, 1)
	req.Equal("alice", inbox.Messages[0].FromUser.Username)

	w = doJSON(t, router, http.MethodGet, "/users/alice/from", alice, nil)
	req.Equal(http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/users/alice/from", bob, nil)
	req.Equal(http.StatusForbidden, w.Code)

	w = doJSON(t, router, http.MethodGet, "/users", alice, nil)
	req.Equal(http.StatusOK, w.Code)
}
