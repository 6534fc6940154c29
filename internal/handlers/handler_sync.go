package handlers

import (
	"errors"
	"net/http"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
	"github.com/SscSPs/ledger_sync/internal/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// syncHandler serves the sync endpoint used by devices.
type syncHandler struct {
	mergeService portssvc.MergeSvcFacade
	deploymentID string
}

// newSyncHandler creates a new syncHandler.
func newSyncHandler(ms portssvc.MergeSvcFacade, deploymentID string) *syncHandler {
	return &syncHandler{
		mergeService: ms,
		deploymentID: deploymentID,
	}
}

// registerSyncRoutes registers the exec endpoint of a deployment.
func registerSyncRoutes(rg *gin.RouterGroup, mergeService portssvc.MergeSvcFacade, deploymentID string) {
	h := newSyncHandler(mergeService, deploymentID)

	exec := rg.Group("/macros/s/:deploymentID/exec", h.requireDeployment)
	{
		exec.GET("", h.handleGet)
		exec.POST("", h.handlePush)
	}
}

func errorEnvelope(message string) gin.H {
	return gin.H{"status": domain.StatusError, "message": message}
}

// requireDeployment rejects requests addressed to another deployment.
func (h *syncHandler) requireDeployment(c *gin.Context) {
	if h.deploymentID != "" && c.Param("deploymentID") != h.deploymentID {
		c.AbortWithStatusJSON(http.StatusNotFound, errorEnvelope("Unknown deployment"))
		return
	}
	c.Next()
}

// handleGet godoc
// @Summary Read a partition or look a user up
// @Description action=SYNC_PULL&companyId=<key> returns the partition document (the merged view for GLOBAL);
// @Description action=GET_USER&email=<email> searches every partition.
// @Tags sync
// @Produce json
// @Param deploymentID path string true "Deployment ID"
// @Param action query string true "SYNC_PULL or GET_USER"
// @Success 200 {object} domain.SyncPullResponse
// @Failure 400 {object} map[string]string "Unknown action or missing parameter"
// @Router /macros/s/{deploymentID}/exec [get]
func (h *syncHandler) handleGet(c *gin.Context) {
	switch c.Query("action") {
	case domain.ActionSyncPull:
		h.pull(c)
	case domain.ActionGetUser:
		h.getUser(c)
	default:
		middleware.LoggerFromGin(c).Warn("Unknown sync action", zap.String("action", c.Query("action")))
		c.JSON(http.StatusBadRequest, errorEnvelope("Unknown action"))
	}
}

func (h *syncHandler) pull(c *gin.Context) {
	logger := middleware.LoggerFromGin(c)
	key := c.Query("companyId")
	if key == "" {
		c.JSON(http.StatusBadRequest, errorEnvelope("companyId is required"))
		return
	}
	logger = logger.With(zap.String("partition_key", key))

	doc, err := h.mergeService.Pull(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, errorEnvelope(err.Error()))
			return
		}
		logger.Error("Failed to pull partition", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorEnvelope("Failed to read data"))
		return
	}

	logger.Info("Partition pulled")
	c.JSON(http.StatusOK, domain.SyncPullResponse{Status: domain.StatusSuccess, Data: doc})
}

func (h *syncHandler) getUser(c *gin.Context) {
	logger := middleware.LoggerFromGin(c)
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, errorEnvelope("email is required"))
		return
	}

	user, err := h.mergeService.FindUserByEmail(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, domain.UserLookupResponse{Status: domain.StatusError, Message: "User not found"})
			return
		}
		logger.Error("Failed to look user up", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorEnvelope("Failed to look user up"))
		return
	}
	c.JSON(http.StatusOK, domain.UserLookupResponse{Status: domain.StatusSuccess, Data: user})
}

// handlePush godoc
// @Summary Push a snapshot
// @Description A tenant key overwrites that tenant's document; GLOBAL fans its users out to their tenants.
// @Tags sync
// @Accept json
// @Produce json
// @Param deploymentID path string true "Deployment ID"
// @Param payload body domain.SyncPushRequest true "Snapshot"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string "Invalid payload"
// @Router /macros/s/{deploymentID}/exec [post]
func (h *syncHandler) handlePush(c *gin.Context) {
	logger := middleware.LoggerFromGin(c)
	var req domain.SyncPushRequest
	// Clients send JSON as text/plain, so bind JSON explicitly.
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind push payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorEnvelope("Invalid request format: "+err.Error()))
		return
	}
	logger = logger.With(zap.String("partition_key", req.CompanyID))

	if err := h.mergeService.Push(c.Request.Context(), req.CompanyID, req.Data); err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, errorEnvelope(err.Error()))
			return
		}
		logger.Error("Failed to store push", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorEnvelope("Failed to store data"))
		return
	}

	logger.Info("Push stored")
	c.JSON(http.StatusOK, gin.H{"status": domain.StatusSuccess})
}
