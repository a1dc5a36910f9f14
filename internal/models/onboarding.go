package models

// UserProfile is the joiner as seen by the onboarding workflow. It is built
// from the joiner row and the Slack user and lives for one request.
type UserProfile struct {
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	ExternalUserID string `json:"external_user_id"`
}

// OnboardingItem is one checklist row of an onboarding plan sheet.
type OnboardingItem struct {
	Item        string `json:"item"`
	Description string `json:"description"`
	Link        string `json:"link,omitempty"`
}

// HasLink reports whether the item carries a "More info" link.
func (i OnboardingItem) HasLink() bool {
	return i.Link != ""
}

// Valid reports whether the item has the fields required to be rendered.
func (i OnboardingItem) Valid() bool {
	return i.Item != "" && i.Description != ""
}

// OnboardingPlan is an ordered checklist. Order is the source row order.
type OnboardingPlan []OnboardingItem

// CompletionUpdate is the single-cell write that marks a joiner's induction
// as complete.
type CompletionUpdate struct {
	RowID    int64 `json:"row_id"`
	ColumnID int64 `json:"column_id"`
	Value    bool  `json:"value"`
}
