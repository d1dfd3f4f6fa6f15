package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/LavaJover/shvark-payment-gateway/internal/delivery/http/dto/request"
	"github.com/LavaJover/shvark-payment-gateway/internal/delivery/http/dto/response"
	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase"
	"github.com/gin-gonic/gin"
)

type InstrumentHandler struct {
	uc   usecase.InstrumentUsecase
	resp *Responder
}

func NewInstrumentHandler(uc usecase.InstrumentUsecase, resp *Responder) *InstrumentHandler {
	return &InstrumentHandler{uc: uc, resp: resp}
}

// Lookup handles GET /api/instruments/:ref across both kinds.
func (h *InstrumentHandler) Lookup(c *gin.Context) {
	in, err := h.uc.Lookup(c.Request.Context(), c.Param("ref"))
	if err != nil {
		h.resp.Fail(c, err)
		return
	}
	h.resp.OK(c, http.StatusOK, "transaction", response.FromInstrument(in))
}

// Search handles GET /api/instruments and GET /api/transactions/search.
func (h *InstrumentHandler) Search(c *gin.Context) {
	var q request.SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.resp.Fail(c, domain.NewValidationError("query", err.Error()))
		return
	}
	filter, err := toFilter(q)
	if err != nil {
		h.resp.Fail(c, err)
		return
	}

	list, err := h.uc.Search(c.Request.Context(), filter)
	if err != nil {
		h.resp.Fail(c, err)
		return
	}
	items := response.FromInstruments(list)
	h.resp.OK(c, http.StatusOK, "search results", response.InstrumentList{
		Items:  items,
		Count:  len(items),
		Limit:  q.Limit,
		Offset: q.Offset,
	})
}

// History handles GET /api/transactions/history?limit=.
func (h *InstrumentHandler) History(c *gin.Context) {
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			h.resp.Fail(c, domain.NewValidationError("limit", "must be an integer"))
			return
		}
		limit = n
	}

	list, err := h.uc.History(c.Request.Context(), limit)
	if err != nil {
		h.resp.Fail(c, err)
		return
	}
	items := response.FromInstruments(list)
	h.resp.OK(c, http.StatusOK, "transaction history", response.InstrumentList{Items: items, Count: len(items)})
}

// Logs handles GET /api/transactions/:id/logs.
func (h *InstrumentHandler) Logs(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		h.resp.Fail(c, domain.NewValidationError("id", "must be a positive integer"))
		return
	}
	logs, err := h.uc.Logs(c.Request.Context(), id)
	if err != nil {
		h.resp.Fail(c, err)
		return
	}
	h.resp.OK(c, http.StatusOK, "transaction logs", response.InstrumentLogs{
		Transaction: response.FromInstrument(logs.Instrument),
		Logs:        logs.Timeline,
	})
}

func toFilter(q request.SearchQuery) (domain.SearchFilter, error) {
	f := domain.SearchFilter{
		ExternalRef: strings.TrimSpace(q.Ref),
		Serial:      strings.TrimSpace(q.Serial),
		Pin:         strings.TrimSpace(q.Pin),
		Limit:       q.Limit,
		Offset:      q.Offset,
	}
	if f.ExternalRef == "" {
		f.ExternalRef = strings.TrimSpace(q.Search)
	}
	if q.Status != "" {
		st, ok := domain.ParseStatus(q.Status)
		if !ok {
			return f, domain.NewValidationError("status", "unknown status")
		}
		f.Status = st
	}
	switch strings.ToUpper(q.Kind) {
	case "":
	case string(domain.KindCard):
		f.Kind = domain.KindCard
	case string(domain.KindBankOrder), "BANK":
		f.Kind = domain.KindBankOrder
	default:
		return f, domain.NewValidationError("kind", "must be CARD or BANK_ORDER")
	}
	return f, nil
}
