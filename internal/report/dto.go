package report

// NetworkRowView is the wire shape of one per-network report row.
// Monetary values serialize as decimal strings.
type NetworkRowView struct {
	Network      string `json:"network"`
	InitialStock int64  `json:"initial_stock_balance"`
	Purchased    int64  `json:"purchased_stock_amount"`
	SoldQuantity int64  `json:"sold_stock_amount"`
	SoldValue    string `json:"sold_stock_value"`
	FinalStock   int64  `json:"final_stock_balance"`
	VirtualValue string `json:"virtual_value"`
	DebtAmount   string `json:"debt_amount"`
}

// OverallView is the wire shape of the aggregate row.
type OverallView struct {
	TotalInitialStock          int64  `json:"total_initial_stock"`
	TotalPurchasedStock        int64  `json:"total_purchased_stock"`
	TotalSoldStock             int64  `json:"total_sold_stock"`
	TotalFinalStock            int64  `json:"total_final_stock"`
	TotalVirtualValue          string `json:"total_virtual_value"`
	TotalDebts                 string `json:"total_debts"`
	TotalSalesFromTransactions string `json:"total_sales_from_transactions"`
	TotalCapitalCirculant      string `json:"total_capital_circulant"`
}

// ReportResponse is the payload of the report endpoints.
type ReportResponse struct {
	Date    string           `json:"date"`
	Live    bool             `json:"live"`
	Rows    []NetworkRowView `json:"rows"`
	Overall OverallView      `json:"overall"`
}

// GenerateRequest asks for a persistence run. Date defaults to the
// previous local day when omitted.
type GenerateRequest struct {
	VendeurID int64  `json:"vendeur_id" validate:"required,gt=0"`
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

func viewRows(rows []NetworkRow) []NetworkRowView {
	out := make([]NetworkRowView, 0, len(rows))
	for _, row := range rows {
		out = append(out, NetworkRowView{
			Network:      string(row.Network),
			InitialStock: row.InitialStock,
			Purchased:    row.Purchased,
			SoldQuantity: row.SoldQuantity,
			SoldValue:    row.SoldValue.String(),
			FinalStock:   row.FinalStock,
			VirtualValue: row.VirtualValue.String(),
			DebtAmount:   row.DebtAmount.String(),
		})
	}
	return out
}

func viewOverall(o Overall) OverallView {
	return OverallView{
		TotalInitialStock:          o.TotalInitialStock,
		TotalPurchasedStock:        o.TotalPurchasedStock,
		TotalSoldStock:             o.TotalSoldStock,
		TotalFinalStock:            o.TotalFinalStock,
		TotalVirtualValue:          o.TotalVirtualValue.String(),
		TotalDebts:                 o.TotalDebts.String(),
		TotalSalesFromTransactions: o.TotalSalesFromTransactions.String(),
		TotalCapitalCirculant:      o.TotalCapitalCirculant.String(),
	}
}
