package http

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/codecove/codecove-backend/internal/auth"
	"github.com/codecove/codecove-backend/internal/authz"
	"github.com/codecove/codecove-backend/internal/files/domain"
	"github.com/codecove/codecove-backend/internal/files/service"
	"github.com/codecove/codecove-backend/internal/storage/blob"
)

// Handler bundles the dependencies for file HTTP endpoints.
type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

func New(svc *service.Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register attaches file routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.POST("", h.create)
	rg.GET("/:id", h.retrieve)
	rg.PUT("/:id", h.update)
	rg.PATCH("/:id", h.update)
	rg.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	files, err := h.svc.List(c.Request.Context(), auth.CallerSubject(c))
	if err != nil {
		h.respondError(c, "list files", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (h *Handler) create(c *gin.Context) {
	projectID := c.PostForm("project_id")
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project_id is required"})
		return
	}

	data, header, ok := h.readUpload(c)
	if !ok {
		return
	}

	f, err := h.svc.Upload(c.Request.Context(),
		auth.CallerSubject(c), projectID, header.Filename,
		header.Header.Get("Content-Type"), data)
	if err != nil {
		h.respondError(c, "upload file", err)
		return
	}

	c.JSON(http.StatusCreated, f)
}

func (h *Handler) retrieve(c *gin.Context) {
	f, content, err := h.svc.Retrieve(c.Request.Context(), auth.CallerSubject(c), c.Param("id"))
	if err != nil {
		h.respondError(c, "retrieve file", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         f.ID,
		"project_id": f.ProjectID,
		"file_name":  f.FileName,
		"file_url":   f.FileURL,
		"created_at": f.CreatedAt,
		"updated_at": f.UpdatedAt,
		"content":    content.Content,
		"encoding":   content.Encoding,
		"is_base64":  content.IsBase64,
	})
}

// update handles both metadata renames and content replacement: a multipart
// "file" part means new bytes, a "file_name" field means a rename, and one
// request may carry both.
func (h *Handler) update(c *gin.Context) {
	in := service.UpdateInput{}

	if name := c.PostForm("file_name"); name != "" {
		in.FileName = &name
	}

	if _, err := c.FormFile("file"); err == nil {
		data, header, ok := h.readUpload(c)
		if !ok {
			return
		}
		in.Data = data
		in.ContentType = header.Header.Get("Content-Type")
		in.UploadName = header.Filename
	}

	if in.FileName == nil && in.Data == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	f, err := h.svc.Update(c.Request.Context(), auth.CallerSubject(c), c.Param("id"), in)
	if err != nil {
		h.respondError(c, "update file", err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *Handler) delete(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), auth.CallerSubject(c), c.Param("id"))
	if err != nil {
		h.respondError(c, "delete file", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) readUpload(c *gin.Context) ([]byte, *multipart.FileHeader, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return nil, nil, false
	}

	src, err := header.Open()
	if err != nil {
		h.respondError(c, "open upload", err)
		return nil, nil, false
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		h.respondError(c, "read upload", err)
		return nil, nil, false
	}
	return data, header, true
}

func (h *Handler) respondError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingProjectRef):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrProjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
	case errors.Is(err, blob.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found in storage"})
	case errors.Is(err, authz.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	case errors.Is(err, authz.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "you do not own this project"})
	default:
		h.logger.Error(op, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
