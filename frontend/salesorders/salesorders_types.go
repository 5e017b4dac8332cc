package salesorders

import (
	"context"

	"gpdash/infrastructure/erp"
)

// GPBrowser is the slice of ERP reads these pages need.
type GPBrowser interface {
	OpenSalesOrders(ctx context.Context, search string, limit, offset int) ([]erp.SalesOrderSummary, error)
	SalesOrder(ctx context.Context, sopNumber string) (*erp.SalesOrderDetail, error)
}

type OrderRow struct {
	SopNumber      string
	DocDate        string
	CustomerNumber string
	CustomerName   string
	Site           string
	Total          string
}

type LineRow struct {
	ItemNumber  string
	Description string
	Site        string
	Quantity    string
	OrderedQty  int
	UnitPrice   string
	Extended    string
	Serials     []string
}

type SfCrossRef struct {
	SfOrderID     string
	OrderNumber   string
	Status        string
	OwnerName     string
	TotalAmount   string
	SfLastUpdated string
}

type ListPageData struct {
	Search  string
	Page    int
	HasNext bool
	Rows    []OrderRow
}

type DetailPageData struct {
	Order      OrderRow
	Lines      []LineRow
	SfOrder    *SfCrossRef
	ActiveSite string
}
