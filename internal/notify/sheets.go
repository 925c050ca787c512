package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	sheetsBaseURL = "https://sheets.googleapis.com"
	sheetsScope   = "https://www.googleapis.com/auth/spreadsheets"
)

// Sheets appends rows to one spreadsheet through the Sheets REST API.
type Sheets struct {
	spreadsheetID string
	baseURL       string
	httpClient    *http.Client
}

// NewSheets authenticates with a service account key.
func NewSheets(ctx context.Context, spreadsheetID string, credentialsJSON []byte) (*Sheets, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("spreadsheet id is required")
	}
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, sheetsScope)
	if err != nil {
		return nil, fmt.Errorf("load google credentials: %w", err)
	}
	return &Sheets{
		spreadsheetID: spreadsheetID,
		baseURL:       sheetsBaseURL,
		httpClient:    oauth2.NewClient(ctx, creds.TokenSource),
	}, nil
}

type appendRequest struct {
	MajorDimension string  `json:"majorDimension"`
	Values         [][]any `json:"values"`
}

// AppendRow adds one row after the last row of the table in sheetRange.
func (s *Sheets) AppendRow(ctx context.Context, sheetRange string, row []any) error {
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s:append?valueInputOption=USER_ENTERED&insertDataOption=INSERT_ROWS",
		strings.TrimRight(s.baseURL, "/"), url.PathEscape(s.spreadsheetID), url.PathEscape(sheetRange))

	body, err := json.Marshal(appendRequest{MajorDimension: "ROWS", Values: [][]any{row}})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("append sheet row: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("append sheet row: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	return nil
}
