package domain

import "context"

const (
	PlaceholderUnknown     = "N/A"
	PlaceholderUnavailable = "Not available"
)

// Organization is a candidate donation recipient.
type Organization struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Website string `json:"website"`
}

// Normalized fills missing fields with display placeholders.
func (o Organization) Normalized() Organization {
	if o.Name == "" {
		o.Name = PlaceholderUnknown
	}
	if o.Address == "" {
		o.Address = PlaceholderUnknown
	}
	if o.Phone == "" {
		o.Phone = PlaceholderUnavailable
	}
	if o.Website == "" {
		o.Website = PlaceholderUnavailable
	}
	return o
}

// Coordinates is a geocoded point.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Worksheet is a single spreadsheet tab that rows can be read from and appended to.
type Worksheet interface {
	Rows(ctx context.Context) ([][]string, error)
	AppendRows(ctx context.Context, rows [][]string) error
}
