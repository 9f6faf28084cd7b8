package logsink

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsConfig maps each stream to a sheet (tab) of one spreadsheet
type SheetsConfig struct {
	SpreadsheetID string
	Sheets        map[Stream]string
}

// SheetsSink appends rows through the Sheets values.append call.
type SheetsSink struct {
	values *sheets.SpreadsheetsValuesService
	cfg    SheetsConfig
}

// NewSheetsSink builds the Sheets client from opts, which must carry
// credentials or an authenticated HTTP client.
func NewSheetsSink(ctx context.Context, cfg SheetsConfig, opts ...option.ClientOption) (*SheetsSink, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	return &SheetsSink{values: svc.Spreadsheets.Values, cfg: cfg}, nil
}

// NewSheetsSinkFromCredentials authenticates with a service account JSON.
// credentials may be a file path, raw JSON, or base64-encoded JSON.
func NewSheetsSinkFromCredentials(ctx context.Context, credentials string, cfg SheetsConfig) (*SheetsSink, error) {
	raw, err := readCredentials(credentials)
	if err != nil {
		return nil, err
	}
	creds, err := google.CredentialsFromJSON(ctx, raw, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("google credentials: %w", err)
	}
	return NewSheetsSink(ctx, cfg, option.WithCredentials(creds))
}

func readCredentials(src string) ([]byte, error) {
	trimmed := strings.TrimSpace(src)
	if strings.HasPrefix(trimmed, "{") {
		return []byte(trimmed), nil
	}
	if raw, err := os.ReadFile(trimmed); err == nil {
		return raw, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("credentials are neither a readable file, JSON nor base64")
	}
	return decoded, nil
}

func (s *SheetsSink) Append(ctx context.Context, row Row) error {
	sheet, ok := s.cfg.Sheets[row.Stream]
	if !ok {
		return nil
	}

	values := row.Values()
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	rng := fmt.Sprintf("%s!A2:%c", sheet, 'A'+len(values)-1)

	_, err := s.values.Append(s.cfg.SpreadsheetID, rng, &sheets.ValueRange{Values: [][]interface{}{cells}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets append %s: %w", sheet, err)
	}
	return nil
}
