// Package table reads and appends rows in the inventory spreadsheet using
// the Google Sheets v4 API.
package table

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/uhppoted/sheets-inventory/logger"
)

// Client issues Sheets API calls on behalf of whichever bearer token is
// current. A new service is created per call because the token is short
// lived and may change between calls.
type Client struct {
	endpoint string
	log      *logger.Logger
}

func NewClient(endpoint string, log *logger.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		log:      log.Child("table"),
	}
}

func (c *Client) service(ctx context.Context, token *oauth2.Token) (*sheets.Service, error) {
	if token == nil || token.AccessToken == "" {
		return nil, fmt.Errorf("missing access token")
	}

	options := []option.ClientOption{
		option.WithHTTPClient(oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))),
	}

	if c.endpoint != "" {
		options = append(options, option.WithEndpoint(c.endpoint))
	}

	google, err := sheets.NewService(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to create new Sheets client (%v)", err)
	}

	return google, nil
}

// Create provisions a new spreadsheet with the given title and returns its ID.
func (c *Client) Create(ctx context.Context, token *oauth2.Token, title string) (string, error) {
	google, err := c.service(ctx, token)
	if err != nil {
		return "", err
	}

	rq := sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title: title,
		},
	}

	spreadsheet, err := google.Spreadsheets.Create(&rq).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet (%w)", err)
	}

	c.log.Info().Str("spreadsheet", spreadsheet.SpreadsheetId).Str("title", title).Msg("created spreadsheet")

	return spreadsheet.SpreadsheetId, nil
}

// Fetch returns the values in the range, in row order. An empty sheet is
// not an error.
func (c *Client) Fetch(ctx context.Context, token *oauth2.Token, spreadsheet string, area Range) ([][]any, error) {
	google, err := c.service(ctx, token)
	if err != nil {
		return nil, err
	}

	response, err := google.Spreadsheets.Values.BatchGet(spreadsheet).Ranges(area.String()).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve data from sheet (%w)", err)
	}

	rows := [][]any{}
	if len(response.ValueRanges) > 0 && response.ValueRanges[0].Values != nil {
		rows = response.ValueRanges[0].Values
	}

	c.log.Debug().Str("spreadsheet", spreadsheet).Str("range", area.String()).Int("rows", len(rows)).Msg("fetched rows")

	return rows, nil
}

// Append writes the rows to the range verbatim (no formula evaluation).
func (c *Client) Append(ctx context.Context, token *oauth2.Token, spreadsheet string, area Range, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	google, err := c.service(ctx, token)
	if err != nil {
		return err
	}

	rq := sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data: []*sheets.ValueRange{
			{
				Range:  area.String(),
				Values: rows,
			},
		},
	}

	if _, err := google.Spreadsheets.Values.BatchUpdate(spreadsheet, &rq).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to update sheet (%w)", err)
	}

	c.log.Debug().Str("spreadsheet", spreadsheet).Str("range", area.String()).Int("rows", len(rows)).Msg("appended rows")

	return nil
}
