package pickticket

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/jung-kurt/gofpdf"
)

type TicketLine struct {
	ItemNumber  string
	Description string
	Site        string
	Quantity    string
	Serials     []string
}

type TicketData struct {
	SopNumber    string
	CustomerName string
	DocDate      time.Time
	Site         string
	Lines        []TicketLine
}

// renderPickTicketPDF draws a warehouse pick ticket: one header block, the
// order lines, and a Code128 barcode for every serial committed to the
// order so pickers can scan straight off the page.
func renderPickTicketPDF(ticket TicketData, printedAt time.Time) ([]byte, error) {
	if strings.TrimSpace(ticket.SopNumber) == "" {
		return nil, fmt.Errorf("order number is required")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Pick Ticket "+ticket.SopNumber, false)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	margin := 12.0
	usableW := pageW - 2*margin

	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetXY(margin, margin)
	pdf.CellFormat(usableW, 12, "PICK TICKET "+ticket.SopNumber, "", 1, "L", false, 0, "")

	customer := strings.TrimSpace(ticket.CustomerName)
	if customer == "" {
		customer = "Unknown Customer"
	}
	docDate := "N/A"
	if !ticket.DocDate.IsZero() {
		docDate = ticket.DocDate.Format("02/01/2006")
	}
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetX(margin)
	pdf.CellFormat(usableW, 6, "Customer: "+customer, "", 1, "L", false, 0, "")
	pdf.SetX(margin)
	pdf.CellFormat(usableW, 6, "Order date: "+docDate+"    Site: "+strings.TrimSpace(ticket.Site), "", 1, "L", false, 0, "")
	pdf.SetX(margin)
	pdf.CellFormat(usableW, 6, "Printed: "+printedAt.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	barcodeIdx := 0
	for _, line := range ticket.Lines {
		pdf.SetX(margin)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(usableW, 8, line.ItemNumber+" — "+line.Description, "B", 1, "L", false, 0, "")
		pdf.SetX(margin)
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(usableW, 6, "Qty: "+line.Quantity+"    Site: "+line.Site, "", 1, "L", false, 0, "")

		for _, serial := range line.Serials {
			serialPNG, err := renderCode128PNG(serial, 900, 180)
			if err != nil {
				return nil, fmt.Errorf("barcode for serial %s: %w", serial, err)
			}

			// Keep barcode and caption together across page breaks.
			if pdf.GetY() > 250 {
				pdf.AddPage()
			}

			opt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
			imageName := fmt.Sprintf("pick-serial-%d", barcodeIdx)
			barcodeIdx++
			pdf.RegisterImageOptionsReader(imageName, opt, bytes.NewReader(serialPNG))
			y := pdf.GetY() + 2
			pdf.ImageOptions(imageName, margin+4, y, 80, 16, false, opt, 0, "")
			pdf.SetY(y + 17)
			pdf.SetX(margin + 4)
			pdf.SetFont("Helvetica", "", 9)
			pdf.CellFormat(80, 5, serial, "", 1, "C", false, 0, "")
		}
		pdf.Ln(3)
	}

	if len(ticket.Lines) == 0 {
		pdf.SetX(margin)
		pdf.SetFont("Helvetica", "I", 11)
		pdf.CellFormat(usableW, 8, "No lines on this order.", "", 1, "L", false, 0, "")
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func renderCode128PNG(value string, width, height int) ([]byte, error) {
	code, err := code128.Encode(value)
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return nil, err
	}
	normalized := toNRGBA(scaled)
	var out bytes.Buffer
	if err := png.Encode(&out, normalized); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func toNRGBA(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)
	return dst
}
