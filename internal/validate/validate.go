// Package validate holds the advisory form validators for pastes and accounts.
//
// Each validator returns a Result instead of an error: a failed check is
// information for the caller to show next to the form field, not an exceptional
// condition. The service layer turns a failing Result into apperror.ValidationFailed.
package validate

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Limits.
const (
	MinTitleLength    = 3
	MaxTitleLength    = 100
	MaxContentLength  = 100000
	MinTagLength      = 2
	MaxTagLength      = 20
	MinPasswordLength = 6
)

var (
	tagPattern   = regexp.MustCompile(`^[a-zA-Z0-9-_]+$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Result is the outcome of a single validator.
type Result struct {
	IsValid bool   `json:"isValid"`
	Error   string `json:"error,omitempty"`
}

// Valid is the passing Result.
var Valid = Result{IsValid: true}

func check(value string, rules ...validation.Rule) Result {
	if err := validation.Validate(value, rules...); err != nil {
		return Result{IsValid: false, Error: err.Error()}
	}
	return Valid
}

// Title checks the trimmed title is 3 to 100 characters.
func Title(title string) Result {
	return check(strings.TrimSpace(title),
		validation.Required.Error("Title is required"),
		validation.RuneLength(MinTitleLength, 0).Error("Title must be at least 3 characters long"),
		validation.RuneLength(0, MaxTitleLength).Error("Title must be less than 100 characters"),
	)
}

// Content checks the trimmed content is non-empty and at most 100,000 characters.
func Content(content string) Result {
	return check(strings.TrimSpace(content),
		validation.Required.Error("Content is required"),
		validation.RuneLength(0, MaxContentLength).Error("Content must be less than 100,000 characters"),
	)
}

// Tag checks a single trimmed tag.
func Tag(tag string) Result {
	return check(strings.TrimSpace(tag),
		validation.Required.Error("Tag cannot be empty"),
		validation.RuneLength(MinTagLength, 0).Error("Tag must be at least 2 characters long"),
		validation.RuneLength(0, MaxTagLength).Error("Tag must be less than 20 characters"),
		validation.Match(tagPattern).Error("Tag can only contain letters, numbers, hyphens, and underscores"),
	)
}

// Email checks the address has the local@domain.tld shape.
func Email(email string) Result {
	return check(email,
		validation.Required.Error("Email is required"),
		validation.Match(emailPattern).Error("Please enter a valid email address"),
	)
}

// Password checks the password is at least 6 characters.
func Password(password string) Result {
	return check(password,
		validation.Required.Error("Password is required"),
		validation.RuneLength(MinPasswordLength, 0).Error("Password must be at least 6 characters long"),
	)
}

// FieldResult names the field a Result belongs to.
type FieldResult struct {
	Field string
	Result
}

// Snippet validates a paste's title, content and every tag, returning the first
// failure. ok is true when everything passes.
func Snippet(title, content string, tags []string) (FieldResult, bool) {
	if r := Title(title); !r.IsValid {
		return FieldResult{Field: "title", Result: r}, false
	}
	if r := Content(content); !r.IsValid {
		return FieldResult{Field: "content", Result: r}, false
	}
	for _, tag := range tags {
		if r := Tag(tag); !r.IsValid {
			return FieldResult{Field: "tags", Result: r}, false
		}
	}
	return FieldResult{Result: Valid}, true
}
