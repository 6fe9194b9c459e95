package profile

import (
	"bytes"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"
)

const (
	qrSize    = 256 // px
	qrWidth   = 40  // mm
	pageWidth = 210 // A4, mm
	margin    = 15
)

// Exporter renders cards as PDF documents.
type Exporter struct {
	AppName string
}

func NewExporter(appName string) *Exporter {
	return &Exporter{AppName: appName}
}

// QRCode returns the PNG QR code encoding badge.
func QRCode(badge Badge) ([]byte, error) {
	payload, err := badge.Payload()
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, qrSize)
	if err != nil {
		return nil, errors.Wrap(err, "encoding qr code")
	}
	return png, nil
}

// PDF writes card to w, with the badge QR code in the top right corner.
func (e *Exporter) PDF(w io.Writer, card Card, badge Badge) error {
	png, err := QRCode(badge)
	if err != nil {
		return err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("") // cp1252, covers french accents
	pdf.SetTitle(card.Title, true)
	pdf.SetCreator(e.AppName, true)
	pdf.SetMargins(margin, margin, margin)
	pdf.AddPage()

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("badge", opts, bytes.NewReader(png))
	pdf.ImageOptions("badge", pageWidth-margin-qrWidth, margin, qrWidth, qrWidth, false, opts, 0, "")

	textWidth := float64(pageWidth - 2*margin - qrWidth - 5)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(textWidth, 5, tr(e.AppName), "", 1, "L", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(textWidth, 9, tr(card.Title), "", "L", false)
	if card.Subtitle != "" {
		pdf.SetFont("Helvetica", "", 12)
		pdf.MultiCell(textWidth, 6, tr(card.Subtitle), "", "L", false)
	}

	// sections start below the QR code
	if y := float64(margin + qrWidth + 5); pdf.GetY() < y {
		pdf.SetY(y)
	}
	fullWidth := float64(pageWidth - 2*margin)
	labelWidth := 55.0
	for _, sec := range card.Sections {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetFillColor(235, 238, 245)
		pdf.CellFormat(fullWidth, 8, tr(sec.Title), "", 1, "L", true, 0, "")
		pdf.Ln(1)
		for _, fld := range sec.Fields {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(labelWidth, 6, tr(fld.Label), "", 0, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(fullWidth-labelWidth, 6, tr(fld.Value), "", "L", false)
		}
	}

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "rendering pdf")
	}
	return nil
}
