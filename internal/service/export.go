package service

import (
	"bytes"
	"context"
	"fmt"

	"respiguard/internal/models"

	"github.com/xuri/excelize/v2"
)

const exportLimit = 365

// ScoreHistoryHeader 导出表头
var ScoreHistoryHeader = []string{"Scored At", "Kind", "Score", "Level / Scheme", "Explanation"}

// ExportHistory 导出评分历史为 xlsx
func (s *HealthService) ExportHistory(ctx context.Context, userID string, kind models.ScoreKind) ([]byte, error) {
	records, err := s.ScoreHistory(ctx, userID, kind, exportLimit)
	if err != nil {
		return nil, err
	}
	return GenerateScoreHistoryExcel(records)
}

// GenerateScoreHistoryExcel 生成评分历史 Excel（最新在前）
func GenerateScoreHistoryExcel(records []*models.ScoreRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Score History"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range ScoreHistoryHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	widths := map[string]float64{"A": 22, "B": 8, "C": 8, "D": 16, "E": 90}
	for col, w := range widths {
		if err := f.SetColWidth(sheetName, col, col, w); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, r := range records {
		row := i + 2
		values := []interface{}{
			r.ScoredAt.UTC().Format("2006-01-02 15:04:05"),
			string(r.Kind),
			r.Score,
			r.Level,
			r.Explanation,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	// 冻结表头
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write excel: %w", err)
	}
	return buf.Bytes(), nil
}
