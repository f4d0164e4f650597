// Package http provides HTTP handlers for key distribution operations.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/kds/internal/httputil"
	kdsDomain "github.com/allisson/kds/internal/kds/domain"
	"github.com/allisson/kds/internal/kds/http/dto"
	kdsUseCase "github.com/allisson/kds/internal/kds/usecase"
	customValidation "github.com/allisson/kds/internal/validation"
)

// KDSHandler handles HTTP requests for ticket issuance and key administration.
type KDSHandler struct {
	kdsUseCase kdsUseCase.KDSUseCase
	logger     *slog.Logger
}

// NewKDSHandler creates a new KDS handler with required dependencies.
func NewKDSHandler(kdsUseCase kdsUseCase.KDSUseCase, logger *slog.Logger) *KDSHandler {
	return &KDSHandler{
		kdsUseCase: kdsUseCase,
		logger:     logger,
	}
}

// GetInfoHandler returns the service version.
// GET /v1/kds/info - No authentication required.
func (h *KDSHandler) GetInfoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, dto.InfoResponse{Version: h.kdsUseCase.GetInfo(c.Request.Context())})
}

// GetTicketHandler issues a session key for the signed request in the body.
// POST /v1/kds/ticket - The request signature is the authentication.
// metadata.timestamp must be an integer number of Unix seconds; a fractional
// value fails JSON binding with 400 Bad Request.
// Returns 200 OK with the signed reply.
func (h *KDSHandler) GetTicketHandler(c *gin.Context) {
	var req dto.TicketRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	reply, err := h.kdsUseCase.GetSessionKey(c.Request.Context(), req.ToDomain())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSessionReplyToResponse(reply))
}

// SetKeyHandler stores a principal's long-term secret, replacing any previous one.
// PUT /v1/kds/keys/:owner - Requires the admin token.
// Returns 204 No Content.
func (h *KDSHandler) SetKeyHandler(c *gin.Context) {
	var req dto.SetKeyRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	req.Owner = c.Param("owner")

	h.setKey(c, &req)
}

// CreateKeyHandler is the body-addressed form of SetKeyHandler.
// POST /v1/kds/keys - Requires the admin token.
func (h *KDSHandler) CreateKeyHandler(c *gin.Context) {
	var req dto.SetKeyRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	h.setKey(c, &req)
}

// GetKeyHandler refuses to export keys.
// GET /v1/kds/keys/:owner - Always returns 403 Forbidden.
func (h *KDSHandler) GetKeyHandler(c *gin.Context) {
	httputil.HandleErrorGin(c, kdsDomain.ErrKeyExportForbidden, h.logger)
}

func (h *KDSHandler) setKey(c *gin.Context, req *dto.SetKeyRequest) {
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	secret := req.DecodedKey()
	if err := h.kdsUseCase.SetKey(c.Request.Context(), req.Owner, secret); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("long-term key set", slog.String("owner", req.Owner))
	c.Status(http.StatusNoContent)
}
