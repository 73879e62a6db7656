// Package validate holds the pure input validators applied before any
// network or database operation. All predicates are side-effect free.
package validate

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	lowerRe   = regexp.MustCompile(`[a-z]`)
	upperRe   = regexp.MustCompile(`[A-Z]`)
	digitRe   = regexp.MustCompile(`\d`)
	symbolRe  = regexp.MustCompile(`[@$!%*?&]`)
	charsetRe = regexp.MustCompile(`^[A-Za-z\d@$!%*?&]+$`)
)

// Username requires 3-20 characters: letters, digits or underscore.
func Username(username string) bool {
	return usernameRe.MatchString(username)
}

// Email checks a permissive local@domain.tld shape.
func Email(email string) bool {
	return emailRe.MatchString(email)
}

// Password requires at least 8 characters with one lowercase letter,
// one uppercase letter, one digit and one of @$!%*?&.
func Password(password string) bool {
	if len(password) < 8 || !charsetRe.MatchString(password) {
		return false
	}
	return lowerRe.MatchString(password) &&
		upperRe.MatchString(password) &&
		digitRe.MatchString(password) &&
		symbolRe.MatchString(password)
}

// TaskTitle requires a trimmed length of 3-100 characters. Length is
// measured in runes; titles are not ASCII-only.
func TaskTitle(title string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	return n >= 3 && n <= 100
}

// TaskDescription allows at most 500 characters after trimming.
func TaskDescription(description string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(description)) <= 500
}

// DueDate accepts a "2006-01-02" date that is today or later on the
// local clock.
func DueDate(date string) bool {
	d, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return false
	}
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	return !d.Before(today)
}

// Priority checks membership in the closed priority set.
func Priority(priority string) bool {
	switch priority {
	case "low", "medium", "high":
		return true
	}
	return false
}

// Status checks membership in the closed status set.
func Status(status string) bool {
	switch status {
	case "todo", "in-progress", "completed":
		return true
	}
	return false
}

// Category checks membership in the closed category set.
func Category(category string) bool {
	switch category {
	case "work", "personal", "shopping", "health", "meeting", "other":
		return true
	}
	return false
}

// Sanitize trims whitespace and strips angle brackets from free-text
// input before it is transmitted or stored.
func Sanitize(input string) string {
	s := strings.TrimSpace(input)
	s = strings.ReplaceAll(s, "<", "")
	return strings.ReplaceAll(s, ">", "")
}
