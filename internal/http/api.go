package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bookmarkd/internal/auth"
	"bookmarkd/internal/domain"
	"bookmarkd/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users     service.UserService
	bookmarks service.BookmarkService
	exports   service.ExportService
	tokens    *auth.TokenService
	logger    *logrus.Logger
}

func NewHandler(users service.UserService, bookmarks service.BookmarkService, exports service.ExportService, tokens *auth.TokenService, logger *logrus.Logger) *Handler {
	return &Handler{
		users:     users,
		bookmarks: bookmarks,
		exports:   exports,
		tokens:    tokens,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signup", h.signup)
		authGroup.POST("/login", h.login)
	}

	guard := authRequired(h.tokens, h.logger)

	users := router.Group("/users", guard)
	{
		users.GET("/me", h.getMe)
		users.PATCH("", h.editUser)
	}

	bookmarks := router.Group("/bookmarks", guard)
	{
		bookmarks.POST("", h.createBookmark)
		bookmarks.GET("", h.listBookmarks)
		bookmarks.GET("/:id", h.getBookmark)
		bookmarks.PATCH("/:id", h.editBookmark)
		bookmarks.DELETE("/:id", h.deleteBookmark)
	}

	// separate group: a static "export" segment would collide with the
	// ":id" wildcard under /bookmarks
	exports := router.Group("/exports", guard)
	{
		exports.POST("", h.exportBookmarks)
		exports.GET("", h.listExports)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

type signupRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type editUserRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

type createBookmarkRequest struct {
	Title       string `json:"title" binding:"required"`
	Link        string `json:"link" binding:"required"`
	Description string `json:"description"`
}

type editBookmarkRequest struct {
	Title       *string `json:"title"`
	Link        *string `json:"link"`
	Description *string `json:"description"`
}

func (h *Handler) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Signup(c.Request.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.internalError(c, err)
		}
		return
	}

	c.JSON(http.StatusCreated, userToResponse(user))
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) getMe(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		abortUnauthenticated(c)
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), identity.UserID)
	if err != nil {
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) editUser(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		abortUnauthenticated(c)
		return
	}

	var req editUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), identity.UserID, req.FirstName, req.LastName)
	if err != nil {
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) createBookmark(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		abortUnauthenticated(c)
		return
	}

	var req createBookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bookmark, err := h.bookmarks.Create(c.Request.Context(), identity.UserID, req.Title, req.Link, req.Description)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusCreated, bookmarkToResponse(*bookmark))
}

func (h *Handler) listBookmarks(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		abortUnauthenticated(c)
		return
	}

	bookmarks, err := h.bookmarks.List(c.Request.Context(), identity.UserID)
	if err != nil {
		h.internalError(c, err)
		return
	}

	resp := make([]BookmarkResponse, len(bookmarks))
	for i := range bookmarks {
		resp[i] = bookmarkToResponse(bookmarks[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getBookmark(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		abortUnauthenticated(c)
		return
	}

	bookmark, err := h.bookmarks.Get(c.Request.Context(), identity.UserID, c.Param("id"))
	if err != nil {
		h.internalError(c, err)
		return
	}
	if bookmark == nil {
		// absent and not-owned look the same here; mutations return 403
		c.JSON(http.StatusOK, nil)
		return
	}

	c.JSON(http.StatusOK, bookmarkToResponse(*bookmark))
}

func (h *Handler) editBookmark(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		abortUnauthenticated(c)
		return
	}

	var req editBookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bookmark, err := h.bookmarks.Update(c.Request.Context(), identity.UserID, c.Param("id"), req.Title, req.Link, req.Description)
	if err != nil {
		if errors.Is(err, service.ErrAccessDenied) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookmarkToResponse(*bookmark))
}

func (h *Handler) deleteBookmark(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		abortUnauthenticated(c)
		return
	}

	if err := h.bookmarks.Delete(c.Request.Context(), identity.UserID, c.Param("id")); err != nil {
		if errors.Is(err, service.ErrAccessDenied) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		h.internalError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) exportBookmarks(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		abortUnauthenticated(c)
		return
	}

	location, err := h.exports.Export(c.Request.Context(), identity)
	if err != nil {
		if errors.Is(err, service.ErrExportUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"location": location})
}

func (h *Handler) listExports(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		abortUnauthenticated(c)
		return
	}

	objects, err := h.exports.ListExports(c.Request.Context(), identity)
	if err != nil {
		if errors.Is(err, service.ErrExportUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		h.internalError(c, err)
		return
	}

	resp := make([]ExportResponse, len(objects))
	for i, obj := range objects {
		resp[i] = ExportResponse{Key: obj.Key, Size: obj.Size}
		if obj.LastModified != nil && !obj.LastModified.IsZero() {
			v := obj.LastModified.Format(time.RFC3339)
			resp[i].LastModified = &v
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) internalError(c *gin.Context, err error) {
	// detail stays in the server log; the caller gets an opaque failure
	h.logger.WithError(err).Error("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// UserResponse is the outward representation of a user. It has no field
// for the password hash in any form.
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type BookmarkResponse struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type ExportResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}

func bookmarkToResponse(bookmark domain.Bookmark) BookmarkResponse {
	return BookmarkResponse{
		ID:          bookmark.ID,
		OwnerID:     bookmark.OwnerID,
		Title:       bookmark.Title,
		Link:        bookmark.Link,
		Description: bookmark.Description,
		CreatedAt:   bookmark.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   bookmark.UpdatedAt.Format(time.RFC3339),
	}
}
