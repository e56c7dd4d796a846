// Package salesforce reads tabular analytics reports, the structured
// alternative to parsing copy-pasted exports.
package salesforce

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"qualityreport/internal/httpx"
)

const apiVersion = "v58.0"

type Client struct {
	baseURL   string
	sessionID string
	http      *http.Client
}

// NewClient talks to instanceURL with a bearer session ID. An instance
// given without a scheme is reached over https.
func NewClient(instanceURL, sessionID string, httpClient *http.Client) *Client {
	base := strings.TrimRight(instanceURL, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	if httpClient == nil {
		httpClient = httpx.Client()
	}
	return &Client{baseURL: base, sessionID: sessionID, http: httpClient}
}

// ReportID pulls the report ID out of a Lightning URL
// (/lightning/r/Report/<id>/view) or a classic URL with a reportId query
// parameter.
func ReportID(reportURL string) (string, bool) {
	if _, rest, ok := strings.Cut(reportURL, "/lightning/r/Report/"); ok {
		id, _, _ := strings.Cut(rest, "/")
		return id, id != ""
	}
	u, err := url.Parse(reportURL)
	if err != nil {
		return "", false
	}
	id := u.Query().Get("reportId")
	return id, id != ""
}

type describeResponse struct {
	ReportMetadata struct {
		DetailColumns []string `json:"detailColumns"`
	} `json:"reportMetadata"`
}

type dataCell struct {
	Label *string `json:"label"`
	Value any     `json:"value"`
}

func (c dataCell) text() string {
	if c.Label != nil {
		return *c.Label
	}
	if c.Value == nil {
		return ""
	}
	if s, ok := c.Value.(string); ok {
		return s
	}
	return fmt.Sprint(c.Value)
}

type runResponse struct {
	FactMap map[string]struct {
		Rows []struct {
			DataCells []dataCell `json:"dataCells"`
		} `json:"rows"`
	} `json:"factMap"`
}

// Row is one report row keyed by detail column name.
type Row map[string]string

// ReportRows resolves the report behind reportURL, then describes and runs
// it and returns its detail rows.
func (c *Client) ReportRows(ctx context.Context, reportURL string) ([]Row, error) {
	id, ok := ReportID(reportURL)
	if !ok {
		return nil, fmt.Errorf("no report id in %q", reportURL)
	}

	var meta describeResponse
	if err := c.do(ctx, http.MethodGet, c.reportPath(id)+"/describe", &meta); err != nil {
		return nil, fmt.Errorf("describe report %s: %w", id, err)
	}
	var run runResponse
	if err := c.do(ctx, http.MethodPost, c.reportPath(id)+"?includeDetails=true", &run); err != nil {
		return nil, fmt.Errorf("run report %s: %w", id, err)
	}

	tabular, ok := run.FactMap["T!T"]
	if !ok {
		log.Printf("salesforce report=%s has no tabular fact map", id)
		return nil, nil
	}
	columns := meta.ReportMetadata.DetailColumns
	rows := make([]Row, 0, len(tabular.Rows))
	for _, r := range tabular.Rows {
		row := make(Row, len(r.DataCells))
		for i, cell := range r.DataCells {
			name := fmt.Sprintf("field_%d", i)
			if i < len(columns) {
				name = columns[i]
			}
			row[name] = cell.text()
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	log.Printf("salesforce report=%s rows=%d", id, len(rows))
	return rows, nil
}

func (c *Client) reportPath(id string) string {
	return c.baseURL + "/services/data/" + apiVersion + "/analytics/reports/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, endpoint string, out any) error {
	return httpx.DoJSON(ctx, c.http, httpx.Request{
		Service: "salesforce",
		Method:  method,
		URL:     endpoint,
		Token:   c.sessionID,
	}, out)
}
