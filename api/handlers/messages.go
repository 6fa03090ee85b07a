package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	mirror_errors "github.com/ricardag/mailmirror/errors"
	"github.com/ricardag/mailmirror/internal/models"
	"github.com/ricardag/mailmirror/internal/repository"
	"github.com/ricardag/mailmirror/internal/tracing"
	"github.com/ricardag/mailmirror/services"
	"github.com/ricardag/mailmirror/services/storage"
)

const (
	defaultMessagePageLimit = 25
	maxMessagePageLimit     = 100
)

type MessagesHandler struct {
	repositories    *repository.Repositories
	attachmentStore *storage.AttachmentStore
}

func NewMessagesHandler(s *services.Services, r *repository.Repositories) *MessagesHandler {
	return &MessagesHandler{
		repositories:    r,
		attachmentStore: s.AttachmentStore,
	}
}

// List returns mirrored messages for an account, newest first. The folderId
// query parameter narrows the listing to one folder.
func (h *MessagesHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "MessagesHandler.List", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)
		tracing.TagAccount(span, c.Param("id"))

		accountID := c.Param("id")
		if account, err := h.repositories.AccountRepository.GetByID(ctx, accountID); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		} else if account == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": mirror_errors.ErrAccountNotFound.Error()})
			return
		}

		limit := parseQueryInt(c, "limit", defaultMessagePageLimit)
		if limit < 1 || limit > maxMessagePageLimit {
			limit = defaultMessagePageLimit
		}
		offset := parseQueryInt(c, "offset", 0)
		if offset < 0 {
			offset = 0
		}

		var err error
		var messages []*models.Message
		var total int64

		if folderID := c.Query("folderId"); folderID != "" {
			tracing.TagFolder(span, folderID)
			messages, total, err = h.repositories.MessageRepository.ListByFolder(ctx, accountID, folderID, limit, offset)
		} else {
			messages, total, err = h.repositories.MessageRepository.ListByAccount(ctx, accountID, limit, offset)
		}
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"messages": messages,
			"total":    total,
			"limit":    limit,
			"offset":   offset,
		})
	}
}

// Get returns one mirrored message with its full content
func (h *MessagesHandler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "MessagesHandler.Get", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)
		tracing.TagEntity(span, c.Param("messageId"))

		message, err := h.repositories.MessageRepository.GetByID(ctx, c.Param("messageId"))
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if message == nil || message.AccountID != c.Param("id") {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}

		c.JSON(http.StatusOK, message)
	}
}

// DownloadAttachment streams one attachment's content
func (h *MessagesHandler) DownloadAttachment() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "MessagesHandler.DownloadAttachment", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)
		tracing.TagAccount(span, c.Param("id"))
		tracing.TagEntity(span, c.Param("messageId"))

		account, err := h.repositories.AccountRepository.GetByID(ctx, c.Param("id"))
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if account == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": mirror_errors.ErrAccountNotFound.Error()})
			return
		}

		message, err := h.repositories.MessageRepository.GetByID(ctx, c.Param("messageId"))
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if message == nil || message.AccountID != account.ID {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}

		attachmentID := c.Param("attachmentId")
		content, contentType, err := h.attachmentStore.Fetch(ctx, account, message, attachmentID)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}

		name := attachmentID
		for _, info := range message.Attachments {
			if info.ID == attachmentID && info.Name != "" {
				name = info.Name
				break
			}
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		c.Data(http.StatusOK, contentType, content)
	}
}

func parseQueryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
