package menu

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"taproom-services/internal/catalog"

	"github.com/phpdave11/gofpdf"
)

// RenderPDF lays the menu out as a printable A4 page set.
func RenderPDF(menu catalog.MenuStructure, title string, generatedAt time.Time) (*bytes.Buffer, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Updated %s", generatedAt.Format("Jan 2, 2006 3:04 PM")), "", 1, "C", false, 0, "")

	for _, section := range menu.Sections {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 13)
		pdf.CellFormat(0, 7, tr(section.Name), "B", 1, "L", false, 0, "")

		if section.Category == nil {
			writeItems(pdf, tr, section.Items)
			continue
		}
		writeItems(pdf, tr, section.Category.Items)
		for _, child := range section.Category.ChildCategories {
			if len(child.Items) == 0 {
				continue
			}
			pdf.Ln(1)
			pdf.SetFont("Arial", "BI", 11)
			pdf.CellFormat(0, 6, tr(child.Name), "", 1, "L", false, 0, "")
			writeItems(pdf, tr, child.Items)
		}
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func writeItems(pdf *gofpdf.Fpdf, tr func(string) string, items []catalog.ProcessedItem) {
	if len(items) == 0 {
		pdf.SetFont("Arial", "I", 9)
		pdf.CellFormat(0, 5, "Nothing pouring right now", "", 1, "L", false, 0, "")
		return
	}
	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	nameWidth := pageWidth - left - right - 35

	for _, item := range items {
		label := item.Name
		if item.Brand != "" {
			label = item.Brand + " " + item.Name
		}
		price := item.Price
		if item.BottlePrice != "" {
			price = strings.TrimSpace(price + " / " + item.BottlePrice)
		}

		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(nameWidth, 5, tr(label), "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 5, tr(price), "", 1, "R", false, 0, "")

		if details := itemDetails(item); details != "" {
			pdf.SetFont("Arial", "", 8)
			pdf.CellFormat(0, 4, tr(details), "", 1, "L", false, 0, "")
		}
		if item.Description != "" {
			pdf.SetFont("Arial", "I", 8)
			pdf.MultiCell(0, 4, tr(item.Description), "", "L", false)
		}
	}
}

func itemDetails(item catalog.ProcessedItem) string {
	parts := make([]string, 0, 3)
	for _, v := range []string{item.ABV, item.City, item.Varieties} {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " | ")
}
