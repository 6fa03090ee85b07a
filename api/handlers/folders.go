package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	mirror_errors "github.com/ricardag/mailmirror/errors"
	"github.com/ricardag/mailmirror/internal/models"
	"github.com/ricardag/mailmirror/internal/repository"
	"github.com/ricardag/mailmirror/internal/tracing"
)

type FoldersHandler struct {
	repositories *repository.Repositories
}

func NewFoldersHandler(repos *repository.Repositories) *FoldersHandler {
	return &FoldersHandler{
		repositories: repos,
	}
}

// List returns the account's folders as a flat list ordered by path
func (h *FoldersHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "FoldersHandler.List", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)
		tracing.TagAccount(span, c.Param("id"))

		account, ok := h.requireAccount(c, ctx)
		if !ok {
			return
		}

		folders, err := h.repositories.FolderRepository.ListByAccount(ctx, account.ID)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"folders": folders})
	}
}

// Tree returns the account's folders assembled into their hierarchy
func (h *FoldersHandler) Tree() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "FoldersHandler.Tree", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)
		tracing.TagAccount(span, c.Param("id"))

		account, ok := h.requireAccount(c, ctx)
		if !ok {
			return
		}

		roots, err := h.repositories.FolderRepository.ListTree(ctx, account.ID)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"folders": roots})
	}
}

func (h *FoldersHandler) requireAccount(c *gin.Context, ctx context.Context) (*models.Account, bool) {
	account, err := h.repositories.AccountRepository.GetByID(ctx, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if account == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": mirror_errors.ErrAccountNotFound.Error()})
		return nil, false
	}
	return account, true
}
