// Package report renders downloadable documents.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/pageza/foodgram/backend/internal/types"
)

// ShoppingListFilename is the attachment name of the rendered list.
const ShoppingListFilename = "shopping_list.pdf"

const unicodeFont = "shopping-list"

// ShoppingListRenderer draws shopping lists as A4 PDFs. When FontPath names a TTF
// file it is embedded so any script renders; otherwise the core Helvetica font with
// cp1252 translation is used.
type ShoppingListRenderer struct {
	FontPath string
	Now      func() time.Time
}

func NewShoppingListRenderer(fontPath string) *ShoppingListRenderer {
	return &ShoppingListRenderer{FontPath: fontPath, Now: time.Now}
}

// Render writes one numbered "N) name total unit" line per item.
func (r *ShoppingListRenderer) Render(owner string, items []types.ShoppingItem) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Shopping list", true)
	pdf.SetCreator("foodgram", true)

	family := "Helvetica"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if r.FontPath != "" {
		pdf.AddUTF8Font(unicodeFont, "", r.FontPath)
		family = unicodeFont
		tr = func(s string) string { return s }
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}

	pdf.AddPage()
	pdf.SetFont(family, "", 20)
	pdf.CellFormat(0, 12, tr("Shopping list"), "", 1, "C", false, 0, "")

	pdf.SetFont(family, "", 10)
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s, %s", owner, now().Format("02.01.2006"))), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	left, _, right, _ := pdf.GetMargins()
	pageWidth, _ := pdf.GetPageSize()
	pdf.SetDrawColor(180, 180, 180)
	pdf.Line(left, pdf.GetY(), pageWidth-right, pdf.GetY())
	pdf.Ln(4)

	pdf.SetFont(family, "", 12)
	if len(items) == 0 {
		pdf.CellFormat(0, 8, tr("Your shopping cart is empty."), "", 1, "L", false, 0, "")
	}
	for i, item := range items {
		line := fmt.Sprintf("%d) %s %d %s", i+1, item.Name, item.TotalAmount, item.MeasurementUnit)
		pdf.CellFormat(0, 8, tr(line), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render shopping list: %w", err)
	}
	return buf.Bytes(), nil
}
