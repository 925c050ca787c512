package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"taproom-services/internal/shopify"
	"taproom-services/pkg/response"

	"go.uber.org/zap"
)

type cartLinesPayload struct {
	Lines []shopify.CartLineInput `json:"lines"`
}

type cartUpdatePayload struct {
	Lines []shopify.CartLineUpdate `json:"lines"`
}

type cartRemovePayload struct {
	LineIDs []string `json:"lineIds"`
}

func (h *Handler) shopReady(w http.ResponseWriter) bool {
	if h.Shop == nil || !h.Shop.Configured() {
		response.Error(w, http.StatusServiceUnavailable, "SHOP_NOT_CONFIGURED", "The shop is not available")
		return false
	}
	return true
}

func (h *Handler) writeShopError(w http.ResponseWriter, err error) {
	var userErrs *shopify.UserErrorsError
	switch {
	case errors.Is(err, shopify.ErrProductNotFound):
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Product not found")
	case errors.Is(err, shopify.ErrCartNotFound):
		response.Error(w, http.StatusNotFound, "CART_NOT_FOUND", "Cart not found")
	case errors.Is(err, shopify.ErrInvalidLines):
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.As(err, &userErrs):
		response.Error(w, http.StatusUnprocessableEntity, "CART_REJECTED", err.Error())
	default:
		h.logger().Error("shopify request failed", zap.Error(err))
		response.Error(w, http.StatusBadGateway, "SHOP_UNAVAILABLE", "The shop is temporarily unavailable")
	}
}

// cartID reads the {cartId} path segment. Shopify ids are gid:// URIs, so
// clients send them escaped.
func cartID(r *http.Request) string {
	raw := readPathString(r, "cartId")
	if id, err := url.PathUnescape(raw); err == nil {
		return id
	}
	return raw
}

// ShopProducts serves GET /api/shop/products?first=&after=.
func (h *Handler) ShopProducts(w http.ResponseWriter, r *http.Request) {
	if !h.shopReady(w) {
		return
	}
	q := r.URL.Query()
	first, _ := strconv.Atoi(q.Get("first"))
	page, err := h.Shop.Products(r.Context(), first, q.Get("after"))
	if err != nil {
		h.writeShopError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=60")
	response.Success(w, page)
}

func (h *Handler) ShopProduct(w http.ResponseWriter, r *http.Request) {
	if !h.shopReady(w) {
		return
	}
	product, err := h.Shop.Product(r.Context(), readPathString(r, "handle"))
	if err != nil {
		h.writeShopError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=60")
	response.Success(w, product)
}

func (h *Handler) ShopCartCreate(w http.ResponseWriter, r *http.Request) {
	if !h.shopReady(w) {
		return
	}
	var body cartLinesPayload
	if err := decodeJSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	cart, err := h.Shop.CartCreate(r.Context(), body.Lines)
	if err != nil {
		h.writeShopError(w, err)
		return
	}
	response.Created(w, cart)
}

func (h *Handler) ShopCartGet(w http.ResponseWriter, r *http.Request) {
	if !h.shopReady(w) {
		return
	}
	response.NoCache(w)
	cart, err := h.Shop.Cart(r.Context(), cartID(r))
	if err != nil {
		h.writeShopError(w, err)
		return
	}
	response.Success(w, cart)
}

func (h *Handler) ShopCartLinesAdd(w http.ResponseWriter, r *http.Request) {
	if !h.shopReady(w) {
		return
	}
	var body cartLinesPayload
	if err := decodeJSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	cart, err := h.Shop.CartLinesAdd(r.Context(), cartID(r), body.Lines)
	if err != nil {
		h.writeShopError(w, err)
		return
	}
	response.Success(w, cart)
}

func (h *Handler) ShopCartLinesUpdate(w http.ResponseWriter, r *http.Request) {
	if !h.shopReady(w) {
		return
	}
	var body cartUpdatePayload
	if err := decodeJSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	cart, err := h.Shop.CartLinesUpdate(r.Context(), cartID(r), body.Lines)
	if err != nil {
		h.writeShopError(w, err)
		return
	}
	response.Success(w, cart)
}

func (h *Handler) ShopCartLinesRemove(w http.ResponseWriter, r *http.Request) {
	if !h.shopReady(w) {
		return
	}
	var body cartRemovePayload
	if err := decodeJSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	cart, err := h.Shop.CartLinesRemove(r.Context(), cartID(r), body.LineIDs)
	if err != nil {
		h.writeShopError(w, err)
		return
	}
	response.Success(w, cart)
}
