package model

// AIGroupPrefix marks category groups created by this tool so they can be
// told apart from user-created groups in later prompts.
const AIGroupPrefix = "ai-"

// Category is a single budget category inside a group.
type Category struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	GroupID string `json:"group_id,omitempty"`
}

// CategoryGroup is an ordered collection of categories.
type CategoryGroup struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	IsIncome   bool       `json:"is_income"`
	Categories []Category `json:"categories"`
}
