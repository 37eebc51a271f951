package stock

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/faida-app/faida/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the stock module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the stock handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/accounts", h.handleAccounts)
	r.Get("/purchases", h.handleListPurchases)
	r.Post("/purchases", h.handleRecordPurchase)
}

// PurchaseRequest is the wire shape of a purchase.
type PurchaseRequest struct {
	VendeurID int64  `json:"vendeur_id" validate:"required,gt=0"`
	Network   string `json:"network" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
	ActorID   int64  `json:"actor_id" validate:"gte=0"`
}

type accountView struct {
	Network      string `json:"network"`
	Balance      int64  `json:"balance"`
	BuyingPrice  string `json:"buying_price_per_unit"`
	SellingPrice string `json:"selling_price_per_unit"`
}

type purchaseView struct {
	Code         string `json:"code"`
	Network      string `json:"network"`
	Quantity     int64  `json:"quantity"`
	BuyingPrice  string `json:"buying_price_at_purchase"`
	SellingPrice string `json:"selling_price_at_purchase"`
	CreatedAt    string `json:"created_at"`
}

func (h *Handler) handleAccounts(w http.ResponseWriter, r *http.Request) {
	vendeurID, ok := h.vendeurID(w, r)
	if !ok {
		return
	}
	accounts, err := h.service.Accounts(r.Context(), vendeurID)
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	views := make([]accountView, 0, len(accounts))
	for _, network := range AllNetworks() {
		a := accounts[network]
		views = append(views, accountView{
			Network:      string(network),
			Balance:      a.Balance,
			BuyingPrice:  a.BuyingPrice.String(),
			SellingPrice: a.SellingPrice.String(),
		})
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) handleRecordPurchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	network, err := ParseNetwork(req.Network)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	purchase, err := h.service.RecordPurchase(r.Context(), PurchaseInput{
		VendeurID: req.VendeurID,
		Network:   network,
		Quantity:  req.Quantity,
		ActorID:   req.ActorID,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrUnknownNetwork):
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		default:
			h.logger.Error("record purchase", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, purchaseView{
		Code:         purchase.Code,
		Network:      string(purchase.Network),
		Quantity:     purchase.Quantity,
		BuyingPrice:  purchase.BuyingPrice.String(),
		SellingPrice: purchase.SellingPrice.String(),
		CreatedAt:    purchase.CreatedAt.Format(time.RFC3339),
	})
}

func (h *Handler) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	vendeurID, ok := h.vendeurID(w, r)
	if !ok {
		return
	}
	from, to, ok := h.window(w, r)
	if !ok {
		return
	}
	purchases, err := h.service.ListPurchases(r.Context(), vendeurID, from, to, 200)
	if err != nil {
		h.logger.Error("list purchases", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	views := make([]purchaseView, 0, len(purchases))
	for _, p := range purchases {
		views = append(views, purchaseView{
			Code:         p.Code,
			Network:      string(p.Network),
			Quantity:     p.Quantity,
			BuyingPrice:  p.BuyingPrice.String(),
			SellingPrice: p.SellingPrice.String(),
			CreatedAt:    p.CreatedAt.Format(time.RFC3339),
		})
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) vendeurID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get("vendeur_id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "vendeur_id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) window(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	from := time.Time{}
	to := time.Now().UTC().Add(24 * time.Hour)
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from must be RFC3339")
			return time.Time{}, time.Time{}, false
		}
		from = parsed.UTC()
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "to must be RFC3339")
			return time.Time{}, time.Time{}, false
		}
		to = parsed.UTC()
	}
	return from, to, true
}
