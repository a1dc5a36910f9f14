package smartsheet

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// SearchResult is one hit of GET /search/sheets/{sheetId}.
type SearchResult struct {
	ObjectType     string `json:"objectType"`
	ObjectID       int64  `json:"objectId"`
	ParentObjectID int64  `json:"parentObjectId"`
	Text           string `json:"text"`
}

type searchResponse struct {
	Results    []SearchResult `json:"results"`
	TotalCount int            `json:"totalCount"`
}

type Hyperlink struct {
	URL string `json:"url"`
}

// Cell holds a raw value so that numeric sheet ids keep full int64 precision.
type Cell struct {
	ColumnID     int64           `json:"columnId"`
	Value        json.RawMessage `json:"value,omitempty"`
	DisplayValue string          `json:"displayValue,omitempty"`
	Hyperlink    *Hyperlink      `json:"hyperlink,omitempty"`
}

// Text returns the cell value as a trimmed string. Strings are unquoted,
// numbers and booleans are returned in their JSON form, and an empty value
// falls back to the display value.
func (c Cell) Text() string {
	raw := bytes.TrimSpace(c.Value)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return strings.TrimSpace(c.DisplayValue)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return string(raw)
}

// Int64 parses the cell as an id. Sheet ids may be stored as numbers or text.
func (c Cell) Int64() (int64, bool) {
	text := c.Text()
	if text == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return n, true
	}
	// Numbers written in exponent form still carry an integral id.
	if f, err := strconv.ParseFloat(text, 64); err == nil && math.Abs(f) < 1<<63 && f == float64(int64(f)) {
		return int64(f), true
	}
	return 0, false
}

// URL returns the hyperlink target when the cell is a link, else its text.
func (c Cell) URL() string {
	if c.Hyperlink != nil && c.Hyperlink.URL != "" {
		return strings.TrimSpace(c.Hyperlink.URL)
	}
	return c.Text()
}

type Row struct {
	ID        int64  `json:"id"`
	RowNumber int    `json:"rowNumber,omitempty"`
	Cells     []Cell `json:"cells"`
}

// Cell returns the row's cell for columnID.
func (r Row) Cell(columnID int64) (Cell, bool) {
	for _, c := range r.Cells {
		if c.ColumnID == columnID {
			return c, true
		}
	}
	return Cell{}, false
}

type Column struct {
	ID      int64  `json:"id"`
	Index   int    `json:"index"`
	Title   string `json:"title"`
	Primary bool   `json:"primary,omitempty"`
}

type Sheet struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// ColumnID returns the id of the column whose title matches exactly.
func (s Sheet) ColumnID(title string) (int64, bool) {
	for _, c := range s.Columns {
		if c.Title == title {
			return c.ID, true
		}
	}
	return 0, false
}

type cellUpdate struct {
	ColumnID int64 `json:"columnId"`
	Value    any   `json:"value"`
}

type rowUpdate struct {
	ID    int64        `json:"id"`
	Cells []cellUpdate `json:"cells"`
}

type updateResponse struct {
	Message    string `json:"message"`
	ResultCode int    `json:"resultCode"`
}

// apiError is the error body Smartsheet returns with non-2xx statuses.
type apiError struct {
	ErrorCode int    `json:"errorCode"`
	Message   string `json:"message"`
	RefID     string `json:"refId"`
}
