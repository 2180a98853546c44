package reports

import (
	"fmt"
	"io"
	"time"

	"github.com/genautech/rewards_backend/models"
	"github.com/xuri/excelize/v2"
)

const ReplicationLogSheet = "ReplicationLogs"

var replicationLogHeaders = []string{
	"LogId", "CreatedAt", "Action", "BudgetId", "CompanyId", "ActorId",
	"DryRun", "Source", "BaseProductId", "Status", "CompanyProductId", "Error",
}

// WriteReplicationLogs renders one row per result and one row per error of
// every log, in the order given.
func WriteReplicationLogs(w io.Writer, logs []*models.ReplicationLog) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ReplicationLogSheet); err != nil {
		return err
	}
	for i, header := range replicationLogHeaders {
		if err := setCell(f, i+1, 1, header); err != nil {
			return err
		}
	}

	row := 2
	for _, entry := range logs {
		meta := entry.Metadata.Data()
		prefix := []interface{}{
			entry.ID,
			entry.CreatedAt.UTC().Format(time.RFC3339),
			string(entry.Action),
			intOrBlank(entry.BudgetId),
			entry.CompanyId,
			entry.ActorId,
			meta.DryRun,
			meta.Source,
		}
		for _, result := range entry.Results {
			values := append(append([]interface{}{}, prefix...),
				result.BaseProductId, string(result.Status), intOrBlank(result.CompanyProductId), result.Error)
			if err := setRow(f, row, values); err != nil {
				return err
			}
			row++
		}
		for _, message := range entry.Errors {
			values := append(append([]interface{}{}, prefix...),
				intOrBlank(entry.BaseProductId), string(models.ReplicationStatusError), "", message)
			if err := setRow(f, row, values); err != nil {
				return err
			}
			row++
		}
	}

	return f.Write(w)
}

func setRow(f *excelize.File, row int, values []interface{}) error {
	for i, value := range values {
		if err := setCell(f, i+1, row, value); err != nil {
			return err
		}
	}
	return nil
}

func setCell(f *excelize.File, col int, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell %d,%d: %w", col, row, err)
	}
	return f.SetCellValue(ReplicationLogSheet, cell, value)
}

func intOrBlank(v *int) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
