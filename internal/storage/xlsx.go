package storage

import (
	"fmt"
	"strconv"

	"github.com/SilinPolicyAdvisor/Lead-gen/internal/models"
	"github.com/xuri/excelize/v2"
)

const leadsSheet = "Leads"

var xlsxHeader = []string{
	"Name", "Address", "Phone", "Email Guess", "Website", "Rating",
	"Review Count", "Business Status", "Primary Type", "All Types",
	"Opening Hours", "Latitude", "Longitude", "Place ID",
	"Search Query", "Search Location", "Scraped At",
}

// ExportXLSX writes the full record set into a single-sheet workbook with a
// header row and an autofilter. The file is rebuilt from scratch on every
// call; Excel files do not append.
func ExportXLSX(path string, records []models.BusinessRecord) error {
	book := excelize.NewFile()
	defer book.Close()

	book.SetSheetName("Sheet1", leadsSheet)

	header := make([]interface{}, len(xlsxHeader))
	for i, h := range xlsxHeader {
		header[i] = h
	}
	if err := book.SetSheetRow(leadsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write excel header: %w", err)
	}

	for i, rec := range records {
		cell := "A" + strconv.Itoa(i+2)
		row := []interface{}{
			rec.Name, rec.Address, rec.Phone, rec.EmailGuess, rec.Website,
			floatCell(rec.Rating), intCell(rec.ReviewCount), rec.BusinessStatus,
			rec.PrimaryType, joinedTypes(rec.AllTypes), rec.OpeningHours,
			floatCell(rec.Latitude), floatCell(rec.Longitude), rec.PlaceID,
			rec.SearchQuery, rec.SearchLocation, rec.ScrapedAt,
		}
		if err := book.SetSheetRow(leadsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write excel row %d: %w", i+2, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(xlsxHeader))
	if err != nil {
		return fmt.Errorf("failed to resolve excel column name: %w", err)
	}
	if err = book.SetColWidth(leadsSheet, "A", lastCol, 22); err != nil {
		return fmt.Errorf("failed to set excel column width: %w", err)
	}
	filterRange := fmt.Sprintf("A1:%s%d", lastCol, len(records)+1)
	if err = book.AutoFilter(leadsSheet, filterRange, nil); err != nil {
		return fmt.Errorf("failed to set excel autofilter: %w", err)
	}

	if err = book.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save excel file: %w", err)
	}
	return nil
}

func joinedTypes(types models.TypeList) string {
	joined, _ := types.MarshalCSV()
	return joined
}

func floatCell(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func intCell(v *int) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
