package models

// Tag is a shared label. Name is unique in its trimmed, lowercased
// canonical form. Tags are never deleted, even when no pin references them.
// Maps to: tags table
type Tag struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
