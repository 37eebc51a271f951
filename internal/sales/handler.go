package sales

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/faida-app/faida/internal/money"
	"github.com/faida-app/faida/internal/platform/httpx"
	"github.com/faida-app/faida/internal/stock"
)

// Handler wires HTTP endpoints for the sales module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the sales handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers sales routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleRecord)
}

// LineRequest is one requested sale line on the wire. UnitPrice is a
// decimal string; empty means the account selling price applies.
type LineRequest struct {
	Network   string `json:"network" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
	UnitPrice string `json:"unit_price,omitempty"`
}

// SaleRequest is the wire shape of a sale.
type SaleRequest struct {
	VendeurID  int64         `json:"vendeur_id" validate:"required,gt=0"`
	ClientID   *int64        `json:"client_id,omitempty" validate:"omitempty,gt=0"`
	ClientName string        `json:"client_name,omitempty" validate:"max=200"`
	CashPaid   string        `json:"cash_paid" validate:"required"`
	ActorID    int64         `json:"actor_id" validate:"gte=0"`
	Lines      []LineRequest `json:"lines" validate:"required,min=1,dive"`
}

type itemView struct {
	Network   string `json:"network"`
	Quantity  int64  `json:"quantity"`
	UnitPrice string `json:"price_per_unit_applied"`
	Subtotal  string `json:"subtotal"`
}

type saleView struct {
	Code       string     `json:"code"`
	ClientName string     `json:"client_name,omitempty"`
	TotalDue   string     `json:"total_due"`
	CashPaid   string     `json:"cash_paid"`
	DebtAmount string     `json:"debt_amount"`
	CreatedAt  string     `json:"created_at"`
	Items      []itemView `json:"items"`
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	var req SaleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	cashPaid, err := money.ParseAmount(req.CashPaid)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "cash_paid must be a decimal string")
		return
	}

	lines := make([]LineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		network, err := stock.ParseNetwork(line.Network)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		var unitPrice *decimal.Decimal
		if line.UnitPrice != "" {
			parsed, err := money.ParseAmount(line.UnitPrice)
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unit_price must be a decimal string")
				return
			}
			unitPrice = &parsed
		}
		lines = append(lines, LineInput{Network: network, Quantity: line.Quantity, UnitPrice: unitPrice})
	}

	sale, err := h.service.RecordSale(r.Context(), SaleInput{
		VendeurID:  req.VendeurID,
		ClientID:   req.ClientID,
		ClientName: req.ClientName,
		CashPaid:   cashPaid,
		ActorID:    req.ActorID,
		Lines:      lines,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNoItems), errors.Is(err, ErrInvalidQuantity),
			errors.Is(err, ErrNegativePayment), errors.Is(err, ErrOverpaid),
			errors.Is(err, stock.ErrUnknownNetwork):
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		default:
			h.logger.Error("record sale", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, viewSale(sale))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("vendeur_id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "vendeur_id must be a positive integer")
		return
	}
	from := time.Time{}
	to := time.Now().UTC().Add(24 * time.Hour)

	rows, err := h.service.ListSales(r.Context(), id, from, to, 200)
	if err != nil {
		h.logger.Error("list sales", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	views := make([]saleView, 0, len(rows))
	for _, s := range rows {
		views = append(views, viewSale(s))
	}
	httpx.JSON(w, http.StatusOK, views)
}

func viewSale(s Sale) saleView {
	items := make([]itemView, 0, len(s.Items))
	for _, item := range s.Items {
		items = append(items, itemView{
			Network:   string(item.Network),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.String(),
			Subtotal:  item.Subtotal.String(),
		})
	}
	return saleView{
		Code:       s.Code,
		ClientName: s.ClientName,
		TotalDue:   s.TotalDue.String(),
		CashPaid:   s.CashPaid.String(),
		DebtAmount: s.DebtAmount.String(),
		CreatedAt:  s.CreatedAt.Format(time.RFC3339),
		Items:      items,
	}
}
