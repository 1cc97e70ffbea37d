package moderation

import (
	"strings"

	"gigboard/internal/domain"
)

// Amount bounds in dollars for any job payment.
const (
	MinAmount = 10.0
	MaxAmount = 10000.0
)

const (
	minTitleLen       = 5
	minDescriptionLen = 20
)

// prohibitedTerms is matched as a case-insensitive substring against both
// title and description.
var prohibitedTerms = []string{
	"weapon",
	"firearm",
	"drugs",
	"narcotic",
	"counterfeit",
	"money laundering",
	"escort",
	"stolen",
	"hacking",
	"pyramid scheme",
}

// CheckJobContent validates job title and description before a job may be
// created or paid. Pure and synchronous; a failure is a user-facing
// validation error and is never retried.
func CheckJobContent(title, description string) error {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	if title == "" {
		return domain.NewValidationError("title must not be empty")
	}
	if description == "" {
		return domain.NewValidationError("description must not be empty")
	}
	if len(title) < minTitleLen {
		return domain.NewValidationError("title must be at least %d characters", minTitleLen)
	}
	if len(description) < minDescriptionLen {
		return domain.NewValidationError("description must be at least %d characters", minDescriptionLen)
	}

	lowerTitle := strings.ToLower(title)
	lowerDesc := strings.ToLower(description)
	for _, term := range prohibitedTerms {
		if strings.Contains(lowerTitle, term) || strings.Contains(lowerDesc, term) {
			return domain.NewValidationError("content contains a prohibited term: %s", term)
		}
	}
	return nil
}

// CheckAmount validates payment bounds.
func CheckAmount(amount float64) error {
	if amount < MinAmount {
		return domain.NewValidationError("amount must be at least $%.2f", MinAmount)
	}
	if amount > MaxAmount {
		return domain.NewValidationError("amount must not exceed $%.2f", MaxAmount)
	}
	return nil
}
