package model

import (
	"strings"
	"time"
)

// Draft is a structured event proposal produced from free-form text.
type Draft struct {
	Title         string    `json:"title"`
	Details       string    `json:"details"`
	Items         []string  `json:"items"`
	SuggestedDate time.Time `json:"suggestedDate"`
}

func (d Draft) Valid() bool {
	return strings.TrimSpace(d.Title) != ""
}

func (d Draft) ToEvent() Event {
	return NewEvent(d.Title, d.SuggestedDate, d.Items, d.Details)
}
