package erp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Read models for the browse pages. All reads page with OFFSET/FETCH and
// filter with a LIKE prefix on the document or name columns; GP has no
// better index to offer for ad-hoc lookups.

type Customer struct {
	Number  string
	Name    string
	Contact string
	City    string
	State   string
	Phone   string
}

type ItemSummary struct {
	ItemNumber  string
	Description string
	Serialized  bool
	OnHand      decimal.Decimal
	Allocated   decimal.Decimal
}

// Available is on-hand minus allocated, clamped at zero. Display only;
// the allocation resolver computes the authoritative number.
func (i ItemSummary) Available() decimal.Decimal {
	avail := i.OnHand.Sub(i.Allocated)
	if avail.IsNegative() {
		return decimal.Zero
	}
	return avail
}

type Invoice struct {
	DocNumber      string
	DocDate        time.Time
	CustomerNumber string
	CustomerName   string
	Total          decimal.Decimal
}

type SalesOrderSummary struct {
	SopNumber      string
	DocDate        time.Time
	CustomerNumber string
	CustomerName   string
	Site           string
	Total          decimal.Decimal
}

type SalesOrderLine struct {
	ItemNumber  string
	Description string
	Site        string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Extended    decimal.Decimal
	Serials     []string
}

type SalesOrderDetail struct {
	SalesOrderSummary
	Lines []SalesOrderLine
}

// ErrOrderNotFound is returned when a sales document number does not match
// an open order.
var ErrOrderNotFound = errors.New("sales order not found")

func (g *GPReader) Customers(ctx context.Context, search string, limit, offset int) ([]Customer, error) {
	rows, err := g.db.SQL.QueryContext(ctx, `
SELECT RTRIM(CUSTNMBR), RTRIM(CUSTNAME), RTRIM(CNTCPRSN), RTRIM(CITY), RTRIM(STATE), RTRIM(PHONE1)
FROM RM00101
WHERE (@p1 = '' OR CUSTNMBR LIKE @p1 + '%' OR CUSTNAME LIKE @p1 + '%')
ORDER BY CUSTNMBR ASC
OFFSET @p2 ROWS FETCH NEXT @p3 ROWS ONLY`,
		strings.TrimSpace(search), offset, pageLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.Number, &c.Name, &c.Contact, &c.City, &c.State, &c.Phone); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (g *GPReader) CustomerByNumber(ctx context.Context, number string) (Customer, error) {
	var c Customer
	err := g.db.R.NewRaw(`
SELECT RTRIM(CUSTNMBR) AS number, RTRIM(CUSTNAME) AS name, RTRIM(CNTCPRSN) AS contact,
       RTRIM(CITY) AS city, RTRIM(STATE) AS state, RTRIM(PHONE1) AS phone
FROM RM00101
WHERE CUSTNMBR = ?`, strings.TrimSpace(number)).
		Scan(ctx, &c.Number, &c.Name, &c.Contact, &c.City, &c.State, &c.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return Customer{}, fmt.Errorf("customer %s not found", number)
	}
	return c, err
}

// Items lists the item master with the per-site quantity counters for the
// active site. Items never stocked at the site still appear, with zeros.
func (g *GPReader) Items(ctx context.Context, siteID, search string, limit, offset int) ([]ItemSummary, error) {
	rows, err := g.db.SQL.QueryContext(ctx, `
SELECT RTRIM(m.ITEMNMBR), RTRIM(m.ITEMDESC), m.ITMTRKOP,
       CAST(COALESCE(q.QTYONHND, 0) AS varchar(32)),
       CAST(COALESCE(q.ATYALLOC, 0) AS varchar(32))
FROM IV00101 m
LEFT JOIN IV00102 q ON q.ITEMNMBR = m.ITEMNMBR AND q.LOCNCODE = @p1 AND q.RCRDTYPE = 2
WHERE (@p2 = '' OR m.ITEMNMBR LIKE @p2 + '%' OR m.ITEMDESC LIKE @p2 + '%')
ORDER BY m.ITEMNMBR ASC
OFFSET @p3 ROWS FETCH NEXT @p4 ROWS ONLY`,
		strings.TrimSpace(siteID), strings.TrimSpace(search), offset, pageLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ItemSummary
	for rows.Next() {
		var it ItemSummary
		var trackOption int
		var onHand, allocated string
		if err := rows.Scan(&it.ItemNumber, &it.Description, &trackOption, &onHand, &allocated); err != nil {
			return nil, err
		}
		it.Serialized = trackOption == gpTrackSerial
		if it.OnHand, err = parseQty(onHand); err != nil {
			return nil, err
		}
		if it.Allocated, err = parseQty(allocated); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Invoices lists posted invoice history, newest first, optionally filtered
// to one customer.
func (g *GPReader) Invoices(ctx context.Context, customerNumber string, limit, offset int) ([]Invoice, error) {
	rows, err := g.db.SQL.QueryContext(ctx, `
SELECT RTRIM(SOPNUMBE), DOCDATE, RTRIM(CUSTNMBR), RTRIM(CUSTNAME), CAST(DOCAMNT AS varchar(32))
FROM SOP30200
WHERE SOPTYPE = 3 AND (@p1 = '' OR CUSTNMBR = @p1)
ORDER BY DOCDATE DESC, SOPNUMBE DESC
OFFSET @p2 ROWS FETCH NEXT @p3 ROWS ONLY`,
		strings.TrimSpace(customerNumber), offset, pageLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		var inv Invoice
		var docDate sql.NullTime
		var total string
		if err := rows.Scan(&inv.DocNumber, &docDate, &inv.CustomerNumber, &inv.CustomerName, &total); err != nil {
			return nil, err
		}
		if docDate.Valid {
			inv.DocDate = parseDate(docDate.Time)
		}
		if inv.Total, err = parseQty(total); err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// OpenSalesOrders lists open orders, newest first.
func (g *GPReader) OpenSalesOrders(ctx context.Context, search string, limit, offset int) ([]SalesOrderSummary, error) {
	rows, err := g.db.SQL.QueryContext(ctx, `
SELECT RTRIM(SOPNUMBE), DOCDATE, RTRIM(CUSTNMBR), RTRIM(CUSTNAME), RTRIM(LOCNCODE), CAST(DOCAMNT AS varchar(32))
FROM SOP10100
WHERE SOPTYPE = 2 AND (@p1 = '' OR SOPNUMBE LIKE @p1 + '%' OR CUSTNMBR LIKE @p1 + '%' OR CUSTNAME LIKE @p1 + '%')
ORDER BY DOCDATE DESC, SOPNUMBE DESC
OFFSET @p2 ROWS FETCH NEXT @p3 ROWS ONLY`,
		strings.TrimSpace(search), offset, pageLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []SalesOrderSummary
	for rows.Next() {
		o, err := scanOrderSummary(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// SalesOrder loads one open order with its lines and any serial numbers GP
// has already committed to each line.
func (g *GPReader) SalesOrder(ctx context.Context, sopNumber string) (*SalesOrderDetail, error) {
	sopNumber = strings.TrimSpace(sopNumber)

	headRows, err := g.db.SQL.QueryContext(ctx, `
SELECT RTRIM(SOPNUMBE), DOCDATE, RTRIM(CUSTNMBR), RTRIM(CUSTNAME), RTRIM(LOCNCODE), CAST(DOCAMNT AS varchar(32))
FROM SOP10100
WHERE SOPTYPE = 2 AND SOPNUMBE = @p1`, sopNumber)
	if err != nil {
		return nil, err
	}
	defer headRows.Close()
	if !headRows.Next() {
		if err := headRows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrOrderNotFound
	}
	summary, err := scanOrderSummary(headRows)
	if err != nil {
		return nil, err
	}

	detail := &SalesOrderDetail{SalesOrderSummary: summary}

	lineRows, err := g.db.SQL.QueryContext(ctx, `
SELECT l.LNITMSEQ, RTRIM(l.ITEMNMBR), RTRIM(l.ITEMDESC), RTRIM(l.LOCNCODE),
       CAST(l.QUANTITY AS varchar(32)), CAST(l.UNITPRCE AS varchar(32)), CAST(l.XTNDPRCE AS varchar(32))
FROM SOP10200 l
WHERE l.SOPTYPE = 2 AND l.SOPNUMBE = @p1
ORDER BY l.LNITMSEQ ASC`, sopNumber)
	if err != nil {
		return nil, err
	}
	defer lineRows.Close()

	lineSeqs := make([]int64, 0, 8)
	for lineRows.Next() {
		var seq int64
		var line SalesOrderLine
		var qty, unit, ext string
		if err := lineRows.Scan(&seq, &line.ItemNumber, &line.Description, &line.Site, &qty, &unit, &ext); err != nil {
			return nil, err
		}
		if line.Quantity, err = parseQty(qty); err != nil {
			return nil, err
		}
		if line.UnitPrice, err = parseQty(unit); err != nil {
			return nil, err
		}
		if line.Extended, err = parseQty(ext); err != nil {
			return nil, err
		}
		detail.Lines = append(detail.Lines, line)
		lineSeqs = append(lineSeqs, seq)
	}
	if err := lineRows.Err(); err != nil {
		return nil, err
	}

	serialRows, err := g.db.SQL.QueryContext(ctx, `
SELECT s.LNITMSEQ, RTRIM(s.SERLTNUM)
FROM SOP10201 s
WHERE s.SOPTYPE = 2 AND s.SOPNUMBE = @p1
ORDER BY s.LNITMSEQ ASC, s.SERLTNUM ASC`, sopNumber)
	if err != nil {
		return nil, err
	}
	defer serialRows.Close()

	serialsBySeq := make(map[int64][]string)
	for serialRows.Next() {
		var seq int64
		var serial string
		if err := serialRows.Scan(&seq, &serial); err != nil {
			return nil, err
		}
		serialsBySeq[seq] = append(serialsBySeq[seq], serial)
	}
	if err := serialRows.Err(); err != nil {
		return nil, err
	}
	for i, seq := range lineSeqs {
		detail.Lines[i].Serials = serialsBySeq[seq]
	}

	return detail, nil
}

func scanOrderSummary(rows *sql.Rows) (SalesOrderSummary, error) {
	var o SalesOrderSummary
	var docDate sql.NullTime
	var total string
	if err := rows.Scan(&o.SopNumber, &docDate, &o.CustomerNumber, &o.CustomerName, &o.Site, &total); err != nil {
		return SalesOrderSummary{}, err
	}
	if docDate.Valid {
		o.DocDate = parseDate(docDate.Time)
	}
	var err error
	if o.Total, err = parseQty(total); err != nil {
		return SalesOrderSummary{}, err
	}
	return o, nil
}

func parseQty(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse gp numeric %q: %w", raw, err)
	}
	return d, nil
}

func pageLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}
