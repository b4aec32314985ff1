package service

import (
	"strings"

	"github.com/restoinsight/insights-server/internal/model"
)

// prepareRows rejects empty tables and caps the row count.
func prepareRows(rows [][]string) ([][]string, error) {
	if blank(rows) {
		return nil, model.ErrInvalidInput
	}
	if len(rows) > model.MaxRows {
		rows = rows[:model.MaxRows]
	}
	return rows, nil
}

func blank(rows [][]string) bool {
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				return false
			}
		}
	}
	return true
}
