package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/LavaJover/shvark-payment-gateway/internal/delivery/http/dto/request"
	"github.com/LavaJover/shvark-payment-gateway/internal/delivery/http/dto/response"
	"github.com/LavaJover/shvark-payment-gateway/internal/delivery/http/validation"
	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/provider/thesieutoc"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase/card"
	carddto "github.com/LavaJover/shvark-payment-gateway/internal/usecase/dto/card"
	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
)

type CardHandler struct {
	uc        card.CardUsecase
	validator *validatorv10.Validate
	resp      *Responder
}

func NewCardHandler(uc card.CardUsecase, v *validatorv10.Validate, resp *Responder) *CardHandler {
	return &CardHandler{uc: uc, validator: v, resp: resp}
}

// Submit handles POST /api/card.
func (h *CardHandler) Submit(c *gin.Context) {
	var req request.SubmitCardRequest
	if err := validation.BindAndValidate(c, &req, h.validator); err != nil {
		h.resp.Fail(c, err)
		return
	}

	out, err := h.uc.Submit(c.Request.Context(), &carddto.SubmitCardInput{
		PayerName:   req.Username,
		CardType:    req.CardType,
		Amount:      req.CardAmount,
		Serial:      req.Serial,
		Pin:         req.Pin,
		CallbackURL: req.CallbackURL,
		ClientIP:    c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
	})
	if err != nil {
		h.resp.Fail(c, err)
		return
	}

	msg := out.Message
	if msg == "" {
		msg = "card submitted"
	}
	c.JSON(http.StatusOK, response.Envelope{
		Success: true,
		Message: msg,
		Code:    out.ProviderCode,
		Data: response.SubmitCardResponse{
			TransactionID: out.TransactionRef,
			Amount:        out.Amount,
			Warnings:      out.Warnings,
		},
	})
}

// Status handles POST /api/card/status.
func (h *CardHandler) Status(c *gin.Context) {
	var req request.CheckCardStatusRequest
	if err := validation.BindAndValidate(c, &req, h.validator); err != nil {
		h.resp.Fail(c, err)
		return
	}

	out, err := h.uc.Status(c.Request.Context(), req.TransactionID)
	if err != nil {
		h.resp.Fail(c, err)
		return
	}

	msg := out.ProviderMessage
	if msg == "" {
		msg = "card status"
	}
	c.JSON(http.StatusOK, response.Envelope{
		Success: true,
		Message: msg,
		Code:    out.ProviderCode,
		Data:    response.FromCardStatus(out),
	})
}

// Discount handles GET /api/card/discount/:account, account being optional.
func (h *CardHandler) Discount(c *gin.Context) {
	account := c.Param("account")
	table, err := h.uc.Discount(c.Request.Context(), account)
	if err != nil {
		h.resp.Fail(c, err)
		return
	}
	msg := "default discount table"
	if account != "" {
		msg = "discount table for " + account
	}
	h.resp.OK(c, http.StatusOK, msg, table)
}

// Callback handles the provider's POST /api/card/callback, form or JSON encoded.
func (h *CardHandler) Callback(c *gin.Context) {
	var cb thesieutoc.Callback
	if err := c.ShouldBind(&cb); err != nil {
		h.resp.Fail(c, domain.NewValidationError("callback", err.Error()))
		return
	}
	raw, _ := json.Marshal(cb)

	applied, err := h.uc.HandleCallback(c.Request.Context(), cb, string(raw))
	if err != nil {
		h.resp.Fail(c, err)
		return
	}

	msg := "callback processed"
	if applied.Replay {
		msg = "callback already processed"
	}
	h.resp.OK(c, http.StatusOK, msg, response.CallbackResponse{
		TransactionID: applied.Instrument.ExternalRef,
		Status:        string(applied.Instrument.Status),
		Replay:        applied.Replay,
	})
}
