package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/refibot/internal/auth"
	"github.com/ajharbinger/refibot/internal/errors"
	"github.com/ajharbinger/refibot/internal/offers"
	"github.com/ajharbinger/refibot/internal/services"
)

// OffersHandler serves the refinancing offers table
type OffersHandler struct {
	offerService services.OfferService
}

func NewOffersHandler(offerService services.OfferService) *OffersHandler {
	return &OffersHandler{offerService: offerService}
}

// SortRequest selects a sort column
type SortRequest struct {
	Key string `json:"key" binding:"required"`
}

// FilterRequest switches the eligible-lenders filter
type FilterRequest struct {
	EligibleOnly *bool `json:"eligible_only" binding:"required"`
}

// FetchOffers loads a fresh offer list; the body is optional
func (h *OffersHandler) FetchOffers(c *gin.Context) {
	var req services.FetchOffersRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	sess, _ := auth.CurrentSession(c)
	table, err := h.offerService.Fetch(c.Request.Context(), sess, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

// GetOffers returns the current table without fetching
func (h *OffersHandler) GetOffers(c *gin.Context) {
	sess, _ := auth.CurrentSession(c)
	c.JSON(http.StatusOK, h.offerService.Table(sess))
}

// SortOffers toggles the sort on a column
func (h *OffersHandler) SortOffers(c *gin.Context) {
	var req SortRequest
	if !bindJSON(c, &req) {
		return
	}
	key, err := offers.ParseSortKey(req.Key)
	if err != nil {
		respondError(c, errors.InvalidInput("Unknown sort column", err))
		return
	}

	sess, _ := auth.CurrentSession(c)
	table, err := h.offerService.Sort(c.Request.Context(), sess, key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

// FilterOffers shows only eligible lenders, or everything
func (h *OffersHandler) FilterOffers(c *gin.Context) {
	var req FilterRequest
	if !bindJSON(c, &req) {
		return
	}

	sess, _ := auth.CurrentSession(c)
	table, err := h.offerService.Filter(c.Request.Context(), sess, *req.EligibleOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, table)
}
