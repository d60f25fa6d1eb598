package model

import "time"

// Item is a lost or found report.
type Item struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"userId"`
	Status          string    `json:"status"`
	Name            string    `json:"name"`
	Category        string    `json:"category,omitempty"`
	Description     string    `json:"description,omitempty"`
	Location        string    `json:"location,omitempty"`
	Color           string    `json:"color,omitempty"`
	Date            string    `json:"date,omitempty"`
	ImageMime       string    `json:"imageMime,omitempty"`
	Approved        bool      `json:"approved"`
	MatchStatus     string    `json:"matchStatus"`
	MatchedWith     *int64    `json:"matchedWith,omitempty"`
	MatchedUserID   *int64    `json:"matchedUserId,omitempty"`
	RejectedMatches []int64   `json:"rejectedMatches"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Item statuses. Fixed for the life of the report.
const (
	ItemStatusLost  = "lost"
	ItemStatusFound = "found"
)

// Match statuses.
const (
	MatchStatusPending  = "pending"
	MatchStatusApproved = "approved"
)

// ValidItemStatus reports whether s is a report status.
func ValidItemStatus(s string) bool {
	return s == ItemStatusLost || s == ItemStatusFound
}

// IsMatchedWith reports whether the item is currently approved as a pair
// with the given counterpart.
func (i *Item) IsMatchedWith(counterpartID int64) bool {
	return i.MatchStatus == MatchStatusApproved && i.MatchedWith != nil && *i.MatchedWith == counterpartID
}

// HasRejected reports whether counterpartID is in the item's rejected set.
func (i *Item) HasRejected(counterpartID int64) bool {
	for _, id := range i.RejectedMatches {
		if id == counterpartID {
			return true
		}
	}
	return false
}

// ItemInput holds the descriptive fields of a new report.
type ItemInput struct {
	Status      string `json:"status"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Color       string `json:"color"`
	Date        string `json:"date"`
}

// ItemPatch holds owner edits. Nil fields are left unchanged.
type ItemPatch struct {
	Name        *string `json:"name"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	Color       *string `json:"color"`
	Date        *string `json:"date"`
}

// Apply merges the patch into the item's descriptive fields.
func (p ItemPatch) Apply(item *Item) {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Location != nil {
		item.Location = *p.Location
	}
	if p.Color != nil {
		item.Color = *p.Color
	}
	if p.Date != nil {
		item.Date = *p.Date
	}
}

// Candidate is a scored found item proposed for a lost item.
type Candidate struct {
	Item     Item `json:"item"`
	Score    int  `json:"score"`
	Rejected bool `json:"rejected"`
	Approved bool `json:"approved"`
}

// LostWithCandidates is a lost item together with its ranked candidates.
type LostWithCandidates struct {
	Item
	Candidates []Candidate `json:"aiMatches"`
}
