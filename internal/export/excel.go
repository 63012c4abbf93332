package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"vehicle-bot/internal/service"
)

const sheetName = "Assessments"

var headers = []string{
	"Date", "Vehicle Class", "Risk Score", "Risk Level",
	"Due Parts", "Estimated Cost (LKR)", "Flags", "Advisory",
}

// AssessmentHistory renders assessment history into an xlsx workbook,
// one row per assessment, newest first as supplied.
func AssessmentHistory(items []service.AssessmentInfo) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, err
		}
	}

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetRowStyle(sheetName, 1, 1, boldStyle)
	}

	for i, item := range items {
		row := i + 2
		values := []interface{}{
			item.CreatedAt.Format("2006-01-02 15:04"),
			item.VehicleClass,
			item.RiskScore,
			item.RiskLevel,
			duePartNames(item),
			totalCost(item),
			flagList(item),
			advisoryText(item),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, err
			}
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 18)
	_ = f.SetColWidth(sheetName, "E", "E", 40)
	_ = f.SetColWidth(sheetName, "H", "H", 60)

	return f, nil
}

func duePartNames(item service.AssessmentInfo) string {
	names := make([]string, 0, len(item.DueParts))
	for _, p := range item.DueParts {
		names = append(names, fmt.Sprintf("%s (%s)", p.PartName, p.Urgency))
	}
	return strings.Join(names, ", ")
}

func totalCost(item service.AssessmentInfo) float64 {
	var total float64
	for _, p := range item.DueParts {
		total += p.EstimatedCost
	}
	return total
}

func flagList(item service.AssessmentInfo) string {
	flags := make([]string, 0, len(item.Flags))
	for _, fl := range item.Flags {
		flags = append(flags, string(fl))
	}
	return strings.Join(flags, ", ")
}

func advisoryText(item service.AssessmentInfo) string {
	if item.Advisory == nil {
		return ""
	}
	return *item.Advisory
}
