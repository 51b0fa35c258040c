package usecase

import (
	"context"
	"errors"
	"time"

	"plateful-agent/internal/domain"
)

// WorksheetOpener authenticates and opens the request log worksheet.
type WorksheetOpener interface {
	OpenWorksheet(ctx context.Context) (domain.Worksheet, error)
}

var requestLogHeader = []string{"Donor Name", "Donor Phone", "NGO Name", "NGO Phone", "NGO Website", "Timestamp"}

type RequestLogger struct {
	opener WorksheetOpener
	now    func() time.Time
}

func NewRequestLogger(opener WorksheetOpener) (*RequestLogger, error) {
	if opener == nil {
		return nil, errors.New("usecase: worksheet opener must not be nil")
	}
	return &RequestLogger{opener: opener, now: time.Now}, nil
}

// Record appends one row per organization. Every row written by a call shares
// the same timestamp. An empty list only ensures the header exists.
func (l *RequestLogger) Record(ctx context.Context, donorName, donorPhone string, orgs []domain.Organization) error {
	sheet, err := l.opener.OpenWorksheet(ctx)
	if err != nil {
		return newError(ErrorLogging, "sheet_open_error", err)
	}

	timestamp := l.now().Format(time.ANSIC)
	rows := make([][]string, 0, len(orgs))
	for _, org := range orgs {
		org = org.Normalized()
		rows = append(rows, []string{donorName, donorPhone, org.Name, org.Phone, org.Website, timestamp})
	}

	existing, err := sheet.Rows(ctx)
	if err != nil {
		return newError(ErrorLogging, "sheet_read_error", err)
	}
	if len(existing) == 0 {
		if err := sheet.AppendRows(ctx, [][]string{requestLogHeader}); err != nil {
			return newError(ErrorLogging, "sheet_header_error", err)
		}
	}

	if len(rows) == 0 {
		return nil
	}
	if err := sheet.AppendRows(ctx, rows); err != nil {
		return newError(ErrorLogging, "sheet_append_error", err)
	}
	return nil
}
