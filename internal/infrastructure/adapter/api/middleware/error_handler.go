package middleware

import (
	"errors"
	"net/http"

	errs "github.com/amirhossein-jamali/prize-wheel/internal/domain/error"
	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
)

type errorMapping struct {
	target  error
	status  int
	message string
}

// checked in order; the first match wins
var errorMappings = []errorMapping{
	{errs.ErrInsufficientBalance, http.StatusBadRequest, "Sem giros"},
	{errs.ErrInvalidCode, http.StatusBadRequest, "Código inválido"},
	{errs.ErrCodeNotFound, http.StatusBadRequest, "Código inválido"},
	{errs.ErrCodeAlreadyUsed, http.StatusBadRequest, "Código já usado"},
	{errs.ErrInvalidAmount, http.StatusBadRequest, "Quantidade inválida"},
	{errs.ErrInvalidIdentity, http.StatusBadRequest, "Identificação inválida"},
	{errs.ErrInvalidRequest, http.StatusBadRequest, "Requisição inválida"},
	{errs.ErrDuplicateCode, http.StatusConflict, "Código já existe"},
	{errs.ErrUnauthorized, http.StatusForbidden, "Acesso negado"},
	{errs.ErrRateLimited, http.StatusTooManyRequests, "Muitas tentativas, aguarde um momento"},
	{errs.ErrAdminNotConfigured, http.StatusInternalServerError, "ADMIN_KEY não definida no servidor"},
}

const internalErrorMessage = "Erro interno do servidor"

// StatusAndMessage maps a domain error to its HTTP status and user-facing message.
// Anything unrecognized is a 500 with a generic message.
func StatusAndMessage(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.message
		}
	}
	return http.StatusInternalServerError, internalErrorMessage
}

// ErrorHandler recovers panics and renders the last error a handler attached with c.Error
func ErrorHandler(logger coreport.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic recovered in API request", map[string]any{
					"error":      r,
					"path":       c.Request.URL.Path,
					"method":     c.Request.Method,
					"client_ip":  c.ClientIP(),
					"request_id": coreport.RequestIDFrom(c.Request.Context()),
				})
				c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{
					Error: internalErrorMessage,
					Code:  errs.CodeInternalServer,
				})
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, message := StatusAndMessage(err)
		if status >= http.StatusInternalServerError {
			logger.Error("Request failed", map[string]any{
				"error":      err,
				"path":       c.Request.URL.Path,
				"request_id": coreport.RequestIDFrom(c.Request.Context()),
			})
		}

		c.JSON(status, dto.ErrorResponse{
			Error: message,
			Code:  errs.ErrorCode(err),
		})
	}
}

// Fail attaches err for ErrorHandler and stops the chain
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
