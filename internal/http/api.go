package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"messagely/internal/auth"
	"messagely/internal/domain"
	"messagely/internal/repository"
	"messagely/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users    service.UserService
	messages service.MessageService
	tokens   *auth.Service
}

func NewHandler(users service.UserService, messages service.MessageService, tokens *auth.Service) *Handler {
	return &Handler{
		users:    users,
		messages: messages,
		tokens:   tokens,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.POST("/login", h.login)
	router.POST("/register", h.register)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})

	messages := router.Group("/messages", RequireAuth(h.tokens))
	{
		messages.POST("", h.sendMessage)
		messages.GET("/:id", h.getMessage)
		messages.POST("/:id/read", h.markMessageRead)
	}

	users := router.Group("/users", RequireAuth(h.tokens))
	{
		users.GET("", h.listUsers)
		users.GET("/:username", RequireSelf(), h.getUser)
		users.GET("/:username/to", RequireSelf(), h.userInbox)
		users.GET("/:username/from", RequireSelf(), h.userOutbox)
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type sendMessageRequest struct {
	ToUsername string `json:"to_username" binding:"required"`
	Body       string `json:"body" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, token, err := h.users.Register(c.Request.Context(), service.RegisterParams{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token})
}

func (h *Handler) sendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messages.Send(c.Request.Context(), Caller(c), req.ToUsername, req.Body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": messageToResponse(*msg)})
}

func (h *Handler) getMessage(c *gin.Context) {
	detail, err := h.messages.Get(c.Request.Context(), Caller(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": detailToResponse(*detail)})
}

func (h *Handler) markMessageRead(c *gin.Context) {
	msg, err := h.messages.MarkRead(c.Request.Context(), Caller(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := gin.H{"id": msg.ID}
	if msg.ReadAt != nil {
		resp["read_at"] = msg.ReadAt.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, gin.H{"message": resp})
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]UserResponse, len(users))
	for i := range users {
		resp[i] = userToResponse(users[i])
	}
	c.JSON(http.StatusOK, gin.H{"users": resp})
}

func (h *Handler) getUser(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("username"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userToResponse(*user)})
}

func (h *Handler) userInbox(c *gin.Context) {
	details, err := h.messages.Inbox(c.Request.Context(), c.Param("username"))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]MessageDetailResponse, len(details))
	for i := range details {
		resp[i] = detailToResponse(details[i])
	}
	c.JSON(http.StatusOK, gin.H{"messages": resp})
}

func (h *Handler) userOutbox(c *gin.Context) {
	details, err := h.messages.Outbox(c.Request.Context(), c.Param("username"))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]MessageDetailResponse, len(details))
	for i := range details {
		resp[i] = detailToResponse(details[i])
	}
	c.JSON(http.StatusOK, gin.H{"messages": resp})
}

// writeError maps service and repository errors to HTTP statuses. Missing
// records and permission failures are kept distinct: 404 means no such
// message, 403 means it exists but the caller may not touch it.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrDuplicateUser):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnauthorizedAccess),
		errors.Is(err, service.ErrUnauthorizedMarkRead):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

type UserResponse struct {
	Username    string  `json:"username"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Phone       string  `json:"phone"`
	JoinedAt    string  `json:"joined_at,omitempty"`
	LastLoginAt *string `json:"last_login_at,omitempty"`
}

type MessageResponse struct {
	ID           string  `json:"id"`
	FromUsername string  `json:"from_username"`
	ToUsername   string  `json:"to_username"`
	Body         string  `json:"body"`
	SentAt       string  `json:"sent_at"`
	ReadAt       *string `json:"read_at,omitempty"`
}

type MessageDetailResponse struct {
	ID       string       `json:"id"`
	Body     string       `json:"body"`
	SentAt   string       `json:"sent_at"`
	ReadAt   *string      `json:"read_at,omitempty"`
	FromUser UserResponse `json:"from_user"`
	ToUser   UserResponse `json:"to_user"`
}

func userToResponse(user domain.User) UserResponse {
	resp := UserResponse{
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Phone:     user.Phone,
	}
	if !user.JoinedAt.IsZero() {
		resp.JoinedAt = user.JoinedAt.Format(time.RFC3339)
	}
	if user.LastLoginAt != nil {
		v := user.LastLoginAt.Format(time.RFC3339)
		resp.LastLoginAt = &v
	}
	return resp
}

func messageToResponse(msg domain.Message) MessageResponse {
	resp := MessageResponse{
		ID:           msg.ID,
		FromUsername: msg.FromUsername,
		ToUsername:   msg.ToUsername,
		Body:         msg.Body,
		SentAt:       msg.SentAt.Format(time.RFC3339),
	}
	if msg.ReadAt != nil {
		v := msg.ReadAt.Format(time.RFC3339)
		resp.ReadAt = &v
	}
	return resp
}

func detailToResponse(detail service.MessageDetail) MessageDetailResponse {
	resp := MessageDetailResponse{
		ID:       detail.Message.ID,
		Body:     detail.Message.Body,
		SentAt:   detail.Message.SentAt.Format(time.RFC3339),
		FromUser: profileOnly(detail.FromUser),
		ToUser:   profileOnly(detail.ToUser),
	}
	if detail.Message.ReadAt != nil {
		v := detail.Message.ReadAt.Format(time.RFC3339)
		resp.ReadAt = &v
	}
	return resp
}

// profileOnly trims a user to the fields nested inside message payloads.
func profileOnly(user domain.User) UserResponse {
	return UserResponse{
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Phone:     user.Phone,
	}
}
