package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/codecove/codecove-backend/internal/auth"
	"github.com/codecove/codecove-backend/internal/authz"
	"github.com/codecove/codecove-backend/internal/projects/domain"
)

func (h *Handler) list(c *gin.Context) {
	caller := auth.CallerSubject(c)

	items, err := h.store.ListByOwner(c.Request.Context(), caller)
	if err != nil {
		h.fail(c, "list projects", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": items})
}

func (h *Handler) create(c *gin.Context) {
	caller := auth.CallerSubject(c)
	if err := authz.CanCreateProject(caller); err != nil {
		h.deny(c, err)
		return
	}

	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	p, err := h.store.Create(c.Request.Context(), caller, strings.TrimSpace(req.Name), req.Description)
	if err != nil {
		h.fail(c, "create project", err)
		return
	}

	h.logger.Info("project created", zap.String("project_id", p.ID), zap.String("owner", caller))
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) retrieve(c *gin.Context) {
	p, err := h.store.GetWithFiles(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		h.fail(c, "retrieve project", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) update(c *gin.Context) {
	caller := auth.CallerSubject(c)
	id := c.Param("id")

	p, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		h.fail(c, "retrieve project", err)
		return
	}

	if err := authz.CanWrite(caller, p.OwnerID); err != nil {
		h.deny(c, err)
		return
	}

	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name must not be empty"})
		return
	}

	updated, err := h.store.Update(c.Request.Context(), id, req.Name, req.Description)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		h.fail(c, "update project", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// delete removes the project and its files. Each child blob deletion is
// attempted; failures are collected and reported, not rolled back, because
// the relational delete is authoritative.
func (h *Handler) delete(c *gin.Context) {
	caller := auth.CallerSubject(c)
	id := c.Param("id")

	p, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		h.fail(c, "retrieve project", err)
		return
	}

	if err := authz.CanWrite(caller, p.OwnerID); err != nil {
		h.deny(c, err)
		return
	}

	files, err := h.store.FileRefs(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "list project files", err)
		return
	}

	var storageErrors []string
	for _, f := range files {
		if err := h.blobs.Delete(c.Request.Context(), f.FileURL); err != nil {
			h.logger.Warn("blob delete failed during cascade",
				zap.String("file_id", f.ID), zap.Error(err))
			storageErrors = append(storageErrors, fmt.Sprintf("delete %s: %v", f.FileName, err))
		}
	}

	ok, err := h.store.Delete(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "delete project", err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	h.logger.Info("project deleted",
		zap.String("project_id", id),
		zap.Int("deleted_files", len(files)),
		zap.Int("storage_errors", len(storageErrors)))

	c.JSON(http.StatusOK, gin.H{
		"message":        fmt.Sprintf("project %s and %d related files deleted", id, len(files)),
		"deleted_files":  len(files),
		"storage_errors": storageErrors,
	})
}

func (h *Handler) deny(c *gin.Context, err error) {
	if errors.Is(err, authz.ErrUnauthenticated) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "you do not own this project"})
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	h.logger.Error(op, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
