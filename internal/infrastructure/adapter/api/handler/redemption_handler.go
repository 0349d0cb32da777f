package handler

import (
	"net/http"

	errs "github.com/amirhossein-jamali/prize-wheel/internal/domain/error"
	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/api/middleware"
	"github.com/gin-gonic/gin"
)

// RedemptionHandler handles code claims and administrative code creation
type RedemptionHandler struct {
	redemption usecase.RedemptionUseCase
	logger     coreport.Logger
}

// NewRedemptionHandler creates a new redemption handler instance
func NewRedemptionHandler(redemption usecase.RedemptionUseCase, logger coreport.Logger) *RedemptionHandler {
	return &RedemptionHandler{
		redemption: redemption,
		logger:     logger,
	}
}

// Redeem handles POST /api/redeem
func (h *RedemptionHandler) Redeem(c *gin.Context) {
	var req dto.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, errs.ErrInvalidRequest)
		return
	}

	result, err := h.redemption.Claim(c.Request.Context(), middleware.UserToken(c), req.Code)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.RedeemResponse{
		Success: true,
		Amount:  result.Amount,
		Saldo:   result.Balance,
	})
}

// AddCode handles POST /api/admin/add-code
func (h *RedemptionHandler) AddCode(c *gin.Context) {
	var req dto.AddCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Info("Malformed add-code request", map[string]any{
			"ip":    c.ClientIP(),
			"error": err.Error(),
		})
		middleware.Fail(c, errs.ErrInvalidRequest)
		return
	}

	code, err := h.redemption.AddCode(c.Request.Context(), req.Secret, req.Code, req.Amount)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	h.logger.Info("Redemption code added", map[string]any{
		"code":   code.Code,
		"amount": code.Amount,
		"ip":     c.ClientIP(),
	})
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}
