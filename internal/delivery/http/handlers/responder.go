package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/LavaJover/shvark-payment-gateway/internal/delivery/http/dto/response"
	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/gin-gonic/gin"
)

// Responder writes the response envelope. In production internal error detail stays in the logs.
type Responder struct {
	Production bool
}

func (r *Responder) OK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, response.Envelope{Success: true, Message: message, Data: data})
}

func (r *Responder) Fail(c *gin.Context, err error) {
	status, env := r.envelope(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "status", status, "error", err)
	}
	c.JSON(status, env)
}

func (r *Responder) envelope(err error) (int, response.Envelope) {
	var (
		verr *domain.ValidationError
		up   *domain.UpstreamError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, response.Envelope{Code: "VALIDATION_ERROR", Message: "invalid request", Error: verr.Fields}
	case errors.Is(err, domain.ErrBlacklisted):
		return http.StatusBadRequest, response.Envelope{Code: "BLACKLISTED_CARD", Message: "card is blacklisted", Error: err.Error()}
	case errors.Is(err, domain.ErrSignature):
		return http.StatusUnauthorized, response.Envelope{Code: "INVALID_SIGNATURE", Message: "webhook signature verification failed"}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, response.Envelope{Code: "NOT_FOUND", Message: "transaction not found", Error: err.Error()}
	case errors.Is(err, domain.ErrDuplicateOrder):
		return http.StatusConflict, response.Envelope{Code: "DUPLICATE_ORDER", Message: "order code already exists", Error: err.Error()}
	case errors.Is(err, domain.ErrDuplicate):
		return http.StatusConflict, response.Envelope{Code: "DUPLICATE", Message: "duplicate request", Error: err.Error()}
	case errors.As(err, &up) && up.Code != "":
		// the provider answered and refused
		msg := up.Message
		if msg == "" {
			msg = "request rejected by provider"
		}
		return http.StatusBadRequest, response.Envelope{Code: up.Code, Message: msg, Error: up.Code}
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway, response.Envelope{Code: "EXTERNAL_API_ERROR", Message: "payment provider unavailable", Error: r.detail(err)}
	}
	return http.StatusInternalServerError, response.Envelope{Code: "INTERNAL_ERROR", Message: "internal server error", Error: r.detail(err)}
}

func (r *Responder) detail(err error) interface{} {
	if r.Production {
		return nil
	}
	return err.Error()
}
