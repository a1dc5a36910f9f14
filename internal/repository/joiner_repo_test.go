package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"onboarding-bot/internal/config"
	"onboarding-bot/internal/models"
	"onboarding-bot/internal/smartsheet"
)

const joinerSheet = int64(100)

type updateCall struct {
	sheetID, rowID, columnID int64
	value                    any
}

type stubSheets struct {
	searchID  int64
	searchErr error
	rows      map[int64]*smartsheet.Row
	sheets    map[int64]*smartsheet.Sheet
	updateErr error

	searches []string
	updates  []updateCall
}

func (s *stubSheets) Search(_ context.Context, _ int64, query string) (int64, error) {
	s.searches = append(s.searches, query)
	return s.searchID, s.searchErr
}

func (s *stubSheets) FetchRow(_ context.Context, _ int64, rowID int64) (*smartsheet.Row, error) {
	row, ok := s.rows[rowID]
	if !ok {
		return nil, &models.UpstreamError{Service: "smartsheet", Status: 404, Message: "Not Found"}
	}
	return row, nil
}

func (s *stubSheets) FetchSheet(_ context.Context, sheetID int64) (*smartsheet.Sheet, error) {
	sheet, ok := s.sheets[sheetID]
	if !ok {
		return nil, &models.UpstreamError{Service: "smartsheet", Status: 404, Message: "Not Found"}
	}
	return sheet, nil
}

func (s *stubSheets) UpdateCell(_ context.Context, sheetID, rowID, columnID int64, value any) error {
	s.updates = append(s.updates, updateCall{sheetID, rowID, columnID, value})
	return s.updateErr
}

func cell(columnID int64, raw string) smartsheet.Cell {
	return smartsheet.Cell{ColumnID: columnID, Value: json.RawMessage(raw)}
}

func testColumns() config.Columns {
	return config.Columns{
		OnboardingPlanSheetID: config.Column{ID: 1, Name: "Onboarding Plan Sheet ID"},
		FullName:              config.Column{ID: 2, Name: "Full Name"},
		InductionComplete:     config.Column{ID: 3, Name: "Induction Complete"},
		Item:                  config.Column{Name: "Item"},
		Description:           config.Column{Name: "Description"},
		Link:                  config.Column{Name: "Link"},
	}
}

func newRepo(t *testing.T, s *stubSheets) *JoinerRepo {
	t.Helper()
	r, err := NewJoinerRepo(s, joinerSheet, testColumns())
	require.NoError(t, err)
	return r
}

func TestNewJoinerRepo_Validates(t *testing.T) {
	_, err := NewJoinerRepo(nil, joinerSheet, testColumns())
	require.Error(t, err)
	_, err = NewJoinerRepo(&stubSheets{}, 0, testColumns())
	require.Error(t, err)
}

func TestFetchUserByEmail(t *testing.T) {
	s := &stubSheets{
		searchID: 500,
		rows: map[int64]*smartsheet.Row{
			500: {ID: 500, Cells: []smartsheet.Cell{
				cell(1, `8796093022207871`),
				cell(2, `"Ada Lovelace"`),
			}},
		},
	}

	profile, planID, err := newRepo(t, s).FetchUserByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	require.Equal(t, int64(8796093022207871), planID)
	require.Equal(t, "Ada Lovelace", profile.FullName)
	require.Equal(t, "ada@example.com", profile.Email)
	require.Equal(t, []string{"ada@example.com"}, s.searches)
}

func TestFetchUserByEmail_PlanCellMissing(t *testing.T) {
	s := &stubSheets{
		searchID: 500,
		rows:     map[int64]*smartsheet.Row{500: {ID: 500, Cells: []smartsheet.Cell{cell(2, `"Ada"`)}}},
	}

	_, _, err := newRepo(t, s).FetchUserByEmail(context.Background(), "ada@example.com")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestFetchUserByEmail_SearchMiss(t *testing.T) {
	s := &stubSheets{searchErr: models.ErrNotFound}

	_, _, err := newRepo(t, s).FetchUserByEmail(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestFetchPlan_MapsRowsInOrder(t *testing.T) {
	s := &stubSheets{sheets: map[int64]*smartsheet.Sheet{
		7: {
			ID:      7,
			Columns: []smartsheet.Column{{ID: 70, Title: "Item"}, {ID: 71, Title: "Description"}, {ID: 72, Title: "Link"}},
			Rows: []smartsheet.Row{
				{ID: 1, Cells: []smartsheet.Cell{cell(70, `"Laptop"`), cell(71, `"Collect from IT"`), cell(72, `"https://it.example.com"`)}},
				{ID: 2, Cells: []smartsheet.Cell{cell(70, `"Contract"`), cell(71, `"Sign with HR"`)}},
				{ID: 3, Cells: []smartsheet.Cell{cell(70, `"Orphan"`)}},
				{ID: 4, Cells: []smartsheet.Cell{
					cell(70, `"Handbook"`), cell(71, `"Read it"`),
					{ColumnID: 72, Value: json.RawMessage(`"Handbook"`), Hyperlink: &smartsheet.Hyperlink{URL: "https://wiki.example.com"}},
				}},
			},
		},
	}}

	plan, err := newRepo(t, s).FetchPlan(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, models.OnboardingPlan{
		{Item: "Laptop", Description: "Collect from IT", Link: "https://it.example.com"},
		{Item: "Contract", Description: "Sign with HR"},
		{Item: "Handbook", Description: "Read it", Link: "https://wiki.example.com"},
	}, plan)
}

func TestFetchPlan_StaticColumnIDs(t *testing.T) {
	cols := testColumns()
	cols.Item.ID = 80
	cols.Description.ID = 81
	s := &stubSheets{sheets: map[int64]*smartsheet.Sheet{
		8: {ID: 8, Rows: []smartsheet.Row{
			{ID: 1, Cells: []smartsheet.Cell{cell(80, `"Badge"`), cell(81, `"Pick up at reception"`)}},
		}},
	}}
	r, err := NewJoinerRepo(s, joinerSheet, cols)
	require.NoError(t, err)

	plan, err := r.FetchPlan(context.Background(), 8)
	require.NoError(t, err)
	require.Equal(t, models.OnboardingPlan{{Item: "Badge", Description: "Pick up at reception"}}, plan)
}

func TestFetchPlan_MissingRequiredColumn(t *testing.T) {
	s := &stubSheets{sheets: map[int64]*smartsheet.Sheet{
		9: {ID: 9, Columns: []smartsheet.Column{{ID: 1, Title: "Item"}}},
	}}

	_, err := newRepo(t, s).FetchPlan(context.Background(), 9)
	require.ErrorIs(t, err, models.ErrNotFound)
	require.Contains(t, err.Error(), "Description")
}

func TestMarkComplete(t *testing.T) {
	s := &stubSheets{searchID: 500}

	require.NoError(t, newRepo(t, s).MarkComplete(context.Background(), "ada@example.com"))
	require.Equal(t, []updateCall{{sheetID: joinerSheet, rowID: 500, columnID: 3, value: true}}, s.updates)
}

func TestMarkComplete_NoRowNoWrite(t *testing.T) {
	s := &stubSheets{searchErr: models.ErrNotFound}

	err := newRepo(t, s).MarkComplete(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, models.ErrNotFound)
	require.Empty(t, s.updates)
}

func TestMarkComplete_UpstreamRejects(t *testing.T) {
	s := &stubSheets{searchID: 500, updateErr: &models.UpstreamError{Service: "smartsheet", Status: 403}}

	err := newRepo(t, s).MarkComplete(context.Background(), "ada@example.com")
	var upErr *models.UpstreamError
	require.True(t, errors.As(err, &upErr))
	require.Equal(t, 403, upErr.Status)
}

func TestMarkComplete_UnresolvedColumn(t *testing.T) {
	cols := testColumns()
	cols.InductionComplete.ID = 0
	s := &stubSheets{searchID: 500}
	r, err := NewJoinerRepo(s, joinerSheet, cols)
	require.NoError(t, err)

	require.Error(t, r.MarkComplete(context.Background(), "ada@example.com"))
	require.Empty(t, s.searches)
	require.Empty(t, s.updates)
}
