package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ricardag/mailmirror/internal/repository"
)

// HealthCheck provides a simple health check endpoint
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Status returns per-account sync status
func Status(repos *repository.Repositories) gin.HandlerFunc {
	return func(c *gin.Context) {
		accounts, err := repos.AccountRepository.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		statuses := make([]gin.H, 0, len(accounts))
		for _, account := range accounts {
			statuses = append(statuses, gin.H{
				"accountId":    account.ID,
				"emailAddress": account.EmailAddress,
				"provider":     account.Provider,
				"syncStatus":   account.SyncStatus,
				"lastSyncedAt": account.LastSyncedAt,
				"errorMessage": account.ErrorMessage,
			})
		}

		c.JSON(http.StatusOK, gin.H{"accounts": statuses})
	}
}
