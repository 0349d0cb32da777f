package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/amirhossein-jamali/prize-wheel/internal/domain/entity"
	errs "github.com/amirhossein-jamali/prize-wheel/internal/domain/error"
	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
	"github.com/amirhossein-jamali/prize-wheel/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/api/middleware"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// WheelHandler serves balance, spins and the prize table
type WheelHandler struct {
	ledger       usecase.LedgerUseCase
	spins        usecase.SpinUseCase
	location     *time.Location
	historyLimit int
	logger       coreport.Logger
}

// NewWheelHandler creates a new wheel handler. Spin times are rendered in location.
func NewWheelHandler(
	ledger usecase.LedgerUseCase,
	spins usecase.SpinUseCase,
	location *time.Location,
	historyLimit int,
	logger coreport.Logger,
) *WheelHandler {
	return &WheelHandler{
		ledger:       ledger,
		spins:        spins,
		location:     location,
		historyLimit: historyLimit,
		logger:       logger,
	}
}

// GetBalance handles GET /api/saldo
func (h *WheelHandler) GetBalance(c *gin.Context) {
	balance, err := h.ledger.GetBalance(c.Request.Context(), middleware.UserToken(c))
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{Saldo: balance})
}

// Spin handles POST /api/spin
func (h *WheelHandler) Spin(c *gin.Context) {
	result, err := h.spins.Spin(c.Request.Context(), middleware.UserToken(c))
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SpinResponse{
		Prize:     result.Prize.Raw,
		SpinID:    result.SequenceID,
		Time:      result.Timestamp.In(h.location).Format("15:04:05"),
		Timestamp: result.Timestamp.UTC().Format(time.RFC3339),
		Saldo:     result.Balance,
	})
}

// Items handles GET /api/items
func (h *WheelHandler) Items(c *gin.Context) {
	c.JSON(http.StatusOK, h.spins.Prizes().RawItems())
}

// History handles GET /api/spins
func (h *WheelHandler) History(c *gin.Context) {
	limit := h.historyLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			middleware.Fail(c, errs.ErrInvalidRequest)
			return
		}
		limit = n
	}

	spins, err := h.spins.History(c.Request.Context(), middleware.UserToken(c), limit)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SpinHistoryResponse{
		Spins: lo.Map(spins, func(s *entity.Spin, _ int) dto.SpinHistoryItem {
			return dto.SpinHistoryItem{
				SpinID:    s.SequenceID,
				Prize:     s.PrizeName,
				Timestamp: s.CreatedAt.UTC().Format(time.RFC3339),
			}
		}),
	})
}
