package xlsexport

import (
	"bytes"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	dbmodels "approval-flow-backend/models/db"
)

type Provider interface {
	ExportRequestRegistry(list []dbmodels.Request) (*bytes.Buffer, error)
}

var Instance Provider

func NewHandler() {
	Instance = impl{}
}

type impl struct{}

var registryHeaders = []string{"Number", "Type", "Title", "Requester", "Department", "Estimate", "Currency", "Status", "Created", "Completed"}

func (i impl) ExportRequestRegistry(list []dbmodels.Request) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.WithError(err).Error("failed to close file")
		}
	}()
	sheet := "Sheet1"
	row := 0
	row, err := writeHeader(f, sheet, row, registryHeaders)
	if err != nil {
		return nil, errors.Wrap(err, "failed to write xlsx header")
	}
	if len(list) != 0 {
		row, err = writeRegistryData(f, sheet, list, row)
		if err != nil {
			return nil, errors.Wrap(err, "failed to write xlsx data table")
		}
	}
	f.SetSheetName(sheet, "Requests")
	return f.WriteToBuffer()
}

func writeRegistryData(f *excelize.File, sheet string, list []dbmodels.Request, row int) (int, error) {
	if err := applyDataCellStyle(f, sheet, 1, row+1, len(registryHeaders), len(list)+1); err != nil {
		return row, err
	}
	for _, item := range list {
		row++
		// "Number"
		col := 1
		if err := writeColumn(f, sheet, col, row, item.SeqNumber); err != nil {
			return row, err
		}

		// "Type"
		col++
		if err := writeColumn(f, sheet, col, row, item.Type.ToHuman()); err != nil {
			return row, err
		}

		// "Title"
		col++
		if err := writeColumn(f, sheet, col, row, item.Title); err != nil {
			return row, err
		}

		// "Requester"
		col++
		if err := writeColumn(f, sheet, col, row, item.Requester); err != nil {
			return row, err
		}

		// "Department"
		col++
		if err := writeColumn(f, sheet, col, row, item.Department); err != nil {
			return row, err
		}

		// "Estimate"
		col++
		if item.Estimate != nil {
			if err := writeColumn(f, sheet, col, row, *item.Estimate); err != nil {
				return row, err
			}
		}

		// "Currency"
		col++
		if err := writeColumn(f, sheet, col, row, item.Currency); err != nil {
			return row, err
		}

		// "Status"
		col++
		if err := writeColumn(f, sheet, col, row, item.Status.ToHuman()); err != nil {
			return row, err
		}

		// "Created"
		col++
		if err := writeColumn(f, sheet, col, row, item.CreatedAt.Format("02.01.2006")); err != nil {
			return row, err
		}

		// "Completed"
		col++
		if item.CompletedAt != nil {
			if err := writeColumn(f, sheet, col, row, item.CompletedAt.Format("02.01.2006")); err != nil {
				return row, err
			}
		}
	}
	return row, nil
}
