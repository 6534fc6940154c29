package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// getHealth reports that the server is up.
func getHealth(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// bootstrapDocument returns the handler serving the bootstrap document:
// plain text that carries the exec URL for clients to discover.
func bootstrapDocument(execURL string) gin.HandlerFunc {
	body := fmt.Sprintf("ledger-sync bootstrap\nendpoint: %s\n", execURL)
	return func(c *gin.Context) {
		c.String(http.StatusOK, body)
	}
}
