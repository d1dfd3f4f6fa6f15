package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/LavaJover/shvark-payment-gateway/internal/delivery/http/dto/request"
	"github.com/LavaJover/shvark-payment-gateway/internal/delivery/http/dto/response"
	"github.com/LavaJover/shvark-payment-gateway/internal/delivery/http/validation"
	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase/bank"
	bankdto "github.com/LavaJover/shvark-payment-gateway/internal/usecase/dto/bank"
	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
)

const maxWebhookBody = 1 << 20

type BankHandler struct {
	uc        bank.BankUsecase
	validator *validatorv10.Validate
	resp      *Responder
}

func NewBankHandler(uc bank.BankUsecase, v *validatorv10.Validate, resp *Responder) *BankHandler {
	return &BankHandler{uc: uc, validator: v, resp: resp}
}

// CreatePaymentLink handles POST /api/bank/checkout.
func (h *BankHandler) CreatePaymentLink(c *gin.Context) {
	var req request.CreatePaymentLinkRequest
	if err := validation.BindAndValidate(c, &req, h.validator); err != nil {
		h.resp.Fail(c, err)
		return
	}

	out, err := h.uc.CreatePaymentLink(c.Request.Context(), &bankdto.CreatePaymentLinkInput{
		OrderCode:   req.OrderCode,
		Amount:      req.Amount,
		Description: req.Description,
		ReturnURL:   req.ReturnURL,
		CancelURL:   req.CancelURL,
		BuyerName:   req.BuyerName,
		BuyerEmail:  req.BuyerEmail,
		BuyerPhone:  req.BuyerPhone,
		CallbackURL: req.CallbackURL,
		ClientIP:    c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
	})
	if err != nil {
		h.resp.Fail(c, err)
		return
	}
	h.resp.OK(c, http.StatusOK, "payment link created", response.FromPaymentLink(out))
}

func (h *BankHandler) GetPaymentInfo(c *gin.Context) {
	orderCode, ok := h.orderCode(c)
	if !ok {
		return
	}
	info, err := h.uc.GetPaymentInfo(c.Request.Context(), orderCode)
	if err != nil {
		h.resp.Fail(c, err)
		return
	}
	h.resp.OK(c, http.StatusOK, "payment info", info)
}

func (h *BankHandler) GetOrder(c *gin.Context) {
	orderCode, ok := h.orderCode(c)
	if !ok {
		return
	}
	out, err := h.uc.GetOrder(c.Request.Context(), orderCode)
	if err != nil {
		h.resp.Fail(c, err)
		return
	}
	h.resp.OK(c, http.StatusOK, "order", response.FromBankOrder(out))
}

// Webhook handles POST /api/bank/callback. Only a bad signature is refused; every other
// outcome is acknowledged with 200 so the provider stops redelivering.
func (h *BankHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		h.resp.OK(c, http.StatusOK, "webhook received", nil)
		return
	}

	applied, err := h.uc.HandleWebhook(c.Request.Context(), body)
	switch {
	case errors.Is(err, domain.ErrSignature):
		h.resp.Fail(c, err)
	case err != nil:
		slog.Warn("bank webhook not applied", "error", err)
		c.JSON(http.StatusOK, response.Envelope{
			Success: false,
			Code:    "NOT_PROCESSED",
			Message: "webhook received",
			Error:   h.resp.detail(err),
		})
	default:
		msg := "webhook processed"
		if applied.Replay {
			msg = "webhook already processed"
		}
		h.resp.OK(c, http.StatusOK, msg, response.CallbackResponse{
			TransactionID: applied.Instrument.ExternalRef,
			Status:        string(applied.Instrument.Status),
			Replay:        applied.Replay,
		})
	}
}

func (h *BankHandler) orderCode(c *gin.Context) (int64, bool) {
	n, err := strconv.ParseInt(c.Param("orderCode"), 10, 64)
	if err != nil || n <= 0 {
		h.resp.Fail(c, domain.NewValidationError("orderCode", "must be a positive integer"))
		return 0, false
	}
	return n, true
}
