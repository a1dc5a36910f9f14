package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"onboarding-bot/internal/config"
	"onboarding-bot/internal/models"
	"onboarding-bot/internal/smartsheet"
)

// SheetClient is the subset of *smartsheet.Client the joiner repo needs.
type SheetClient interface {
	Search(ctx context.Context, sheetID int64, query string) (int64, error)
	FetchRow(ctx context.Context, sheetID, rowID int64) (*smartsheet.Row, error)
	FetchSheet(ctx context.Context, sheetID int64) (*smartsheet.Sheet, error)
	UpdateCell(ctx context.Context, sheetID, rowID, columnID int64, value any) error
}

// JoinerRepo reads joiners and their onboarding plans from Smartsheet and
// writes the induction status back. The joiner sheet is the system of record.
type JoinerRepo struct {
	sheets  SheetClient
	sheetID int64
	columns config.Columns
}

func NewJoinerRepo(sheets SheetClient, joinerSheetID int64, columns config.Columns) (*JoinerRepo, error) {
	if sheets == nil {
		return nil, errors.New("repository: sheet client must not be nil")
	}
	if joinerSheetID <= 0 {
		return nil, errors.New("repository: joiner sheet id must be positive")
	}
	return &JoinerRepo{sheets: sheets, sheetID: joinerSheetID, columns: columns}, nil
}

// FetchUserByEmail finds the joiner row for email and returns the joiner's
// profile together with the id of their onboarding plan sheet.
func (r *JoinerRepo) FetchUserByEmail(ctx context.Context, email string) (models.UserProfile, int64, error) {
	rowID, err := r.sheets.Search(ctx, r.sheetID, email)
	if err != nil {
		return models.UserProfile{}, 0, fmt.Errorf("find joiner %s: %w", email, err)
	}

	row, err := r.sheets.FetchRow(ctx, r.sheetID, rowID)
	if err != nil {
		return models.UserProfile{}, 0, fmt.Errorf("fetch joiner row %d: %w", rowID, err)
	}

	cell, _ := row.Cell(r.columns.OnboardingPlanSheetID.ID)
	planSheetID, ok := cell.Int64()
	if !ok {
		return models.UserProfile{}, 0, fmt.Errorf("onboarding plan sheet id missing in joiner row %d: %w", rowID, models.ErrNotFound)
	}

	profile := models.UserProfile{Email: email}
	if r.columns.FullName.Resolved() {
		if c, ok := row.Cell(r.columns.FullName.ID); ok {
			profile.FullName = c.Text()
		}
	}
	return profile, planSheetID, nil
}

// FetchPlan reads the plan sheet and maps each row to an item in row order.
// Rows without an item or description are skipped.
func (r *JoinerRepo) FetchPlan(ctx context.Context, planSheetID int64) (models.OnboardingPlan, error) {
	sheet, err := r.sheets.FetchSheet(ctx, planSheetID)
	if err != nil {
		return nil, fmt.Errorf("fetch onboarding plan %d: %w", planSheetID, err)
	}

	itemCol, err := planColumn(sheet, r.columns.Item)
	if err != nil {
		return nil, err
	}
	descCol, err := planColumn(sheet, r.columns.Description)
	if err != nil {
		return nil, err
	}
	// Link is optional; a sheet without the column just has no links.
	linkCol, _ := planColumn(sheet, r.columns.Link)

	plan := make(models.OnboardingPlan, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		var item models.OnboardingItem
		if c, ok := row.Cell(itemCol); ok {
			item.Item = c.Text()
		}
		if c, ok := row.Cell(descCol); ok {
			item.Description = c.Text()
		}
		if c, ok := row.Cell(linkCol); ok && linkCol != 0 {
			item.Link = c.URL()
		}

		if !item.Valid() {
			slog.Warn("skipping incomplete onboarding plan row",
				"plan_sheet_id", planSheetID, "row_id", row.ID, "row_number", row.RowNumber)
			continue
		}
		plan = append(plan, item)
	}
	return plan, nil
}

// MarkComplete sets the joiner's induction-complete cell to true. Nothing is
// written unless the joiner row is found first.
func (r *JoinerRepo) MarkComplete(ctx context.Context, email string) error {
	if !r.columns.InductionComplete.Resolved() {
		return errors.New("repository: induction complete column id is not resolved")
	}

	rowID, err := r.sheets.Search(ctx, r.sheetID, email)
	if err != nil {
		return fmt.Errorf("find joiner %s: %w", email, err)
	}

	update := models.CompletionUpdate{
		RowID:    rowID,
		ColumnID: r.columns.InductionComplete.ID,
		Value:    true,
	}
	if err := r.sheets.UpdateCell(ctx, r.sheetID, update.RowID, update.ColumnID, update.Value); err != nil {
		return fmt.Errorf("mark joiner row %d complete: %w", rowID, err)
	}
	return nil
}

func planColumn(sheet *smartsheet.Sheet, col config.Column) (int64, error) {
	if col.Resolved() {
		return col.ID, nil
	}
	id, ok := sheet.ColumnID(col.Name)
	if !ok {
		return 0, fmt.Errorf("column %q not found in plan sheet %d: %w", col.Name, sheet.ID, models.ErrNotFound)
	}
	return id, nil
}
