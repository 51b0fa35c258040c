package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"plateful-agent/internal/domain"
)

const DefaultKeyFile = "service_account.json"

const (
	sourceKeyFile    = "key_file"
	sourceParamStore = "paramstore"
)

type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// Client opens the first worksheet of the request log spreadsheet.
// Credentials are resolved on every open: the local key file wins when it
// exists, otherwise the service account JSON is read from the parameter store.
type Client struct {
	getter      Getter
	paramPrefix string
	keyFile     string

	newService func(ctx context.Context, credentialsJSON []byte) (*gsheets.Service, error)
}

type Option func(*Client)

// WithKeyFile overrides the local service account key path. An empty path
// disables the key file source.
func WithKeyFile(path string) Option {
	return func(c *Client) {
		c.keyFile = strings.TrimSpace(path)
	}
}

// WithServiceOptions passes extra client options to the Sheets service,
// e.g. a custom endpoint and HTTP client. Supplying an HTTP client bypasses
// the resolved credentials.
func WithServiceOptions(opts ...option.ClientOption) Option {
	return func(c *Client) {
		c.newService = func(ctx context.Context, credentialsJSON []byte) (*gsheets.Service, error) {
			return newService(ctx, credentialsJSON, opts...)
		}
	}
}

func NewClient(ps Getter, paramPrefix string, opts ...Option) (*Client, error) {
	if ps == nil {
		return nil, errors.New("sheets: paramstore getter must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("sheets: parameter prefix must not be empty")
	}
	c := &Client{
		getter:      ps,
		paramPrefix: paramPrefix,
		keyFile:     DefaultKeyFile,
		newService: func(ctx context.Context, credentialsJSON []byte) (*gsheets.Service, error) {
			return newService(ctx, credentialsJSON)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) serviceAccountParameterName() string {
	return c.paramPrefix + "/service-account"
}

func (c *Client) sheetIDParameterName() string {
	return c.paramPrefix + "/google-sheet-id"
}

func (c *Client) OpenWorksheet(ctx context.Context) (domain.Worksheet, error) {
	credentialsJSON, source, err := c.loadCredentials(ctx)
	if err != nil {
		return nil, err
	}
	slog.Debug("using service account credentials", "source", source)

	svc, err := c.newService(ctx, credentialsJSON)
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}

	spreadsheetID, err := c.getter.GetParameter(ctx, c.sheetIDParameterName())
	if err != nil {
		return nil, fmt.Errorf("sheets: fetch spreadsheet id: %w", err)
	}
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("sheets: spreadsheet id is empty")
	}

	ss, err := svc.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets: open spreadsheet %q: %w", spreadsheetID, err)
	}
	if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
		return nil, fmt.Errorf("sheets: spreadsheet %q has no worksheets", spreadsheetID)
	}

	return &Worksheet{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		title:         ss.Sheets[0].Properties.Title,
	}, nil
}

func (c *Client) loadCredentials(ctx context.Context) ([]byte, string, error) {
	if c.keyFile != "" {
		if _, statErr := os.Stat(c.keyFile); statErr == nil {
			raw, err := os.ReadFile(c.keyFile)
			if err != nil {
				return nil, "", fmt.Errorf("sheets: read key file: %w", err)
			}
			return raw, sourceKeyFile, nil
		}
	}

	raw, err := c.getter.GetParameter(ctx, c.serviceAccountParameterName())
	if err != nil {
		return nil, "", fmt.Errorf("sheets: fetch service account from paramstore: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, "", errors.New("sheets: service account credentials are empty")
	}
	return []byte(raw), sourceParamStore, nil
}

func newService(ctx context.Context, credentialsJSON []byte, extra ...option.ClientOption) (*gsheets.Service, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, gsheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account: %w", err)
	}
	opts := append([]option.ClientOption{option.WithCredentials(creds)}, extra...)
	return gsheets.NewService(ctx, opts...)
}

// Worksheet is a single tab addressed by its title.
type Worksheet struct {
	svc           *gsheets.Service
	spreadsheetID string
	title         string
}

func (w *Worksheet) Title() string {
	return w.title
}

// a1Range quotes the tab title so names with spaces or quotes address the whole sheet.
func (w *Worksheet) a1Range() string {
	return "'" + strings.ReplaceAll(w.title, "'", "''") + "'"
}

func (w *Worksheet) Rows(ctx context.Context) ([][]string, error) {
	resp, err := w.svc.Spreadsheets.Values.Get(w.spreadsheetID, w.a1Range()).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets: read values: %w", err)
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, r := range resp.Values {
		row := make([]string, 0, len(r))
		for _, cell := range r {
			row = append(row, fmt.Sprint(cell))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (w *Worksheet) AppendRows(ctx context.Context, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	values := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		row := make([]interface{}, 0, len(r))
		for _, cell := range r {
			row = append(row, cell)
		}
		values = append(values, row)
	}
	_, err := w.svc.Spreadsheets.Values.Append(w.spreadsheetID, w.a1Range(), &gsheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets: append rows: %w", err)
	}
	return nil
}
