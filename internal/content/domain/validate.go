package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxSlugLen  = 120
	maxTitleLen = 200
)

var (
	slugPattern   = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	slugSeparator = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify derives a slug from a title, e.g. "Ship the MCP tools!" becomes
// "ship-the-mcp-tools".
func Slugify(title string) string {
	s := slugSeparator.ReplaceAllString(strings.ToLower(title), "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLen {
		s = strings.TrimRight(s[:maxSlugLen], "-")
	}
	return s
}

func ValidateSlug(slug string) error {
	if slug == "" || len(slug) > maxSlugLen || !slugPattern.MatchString(slug) {
		return fmt.Errorf("%w: slug must be lowercase words joined by single hyphens, at most %d characters", ErrValidation, maxSlugLen)
	}
	return nil
}

// ValidateTitle checks a title, name or term. field names it in the error.
func ValidateTitle(field, value string) error {
	v := strings.TrimSpace(value)
	if v == "" {
		return fmt.Errorf("%w: %s is required", ErrValidation, field)
	}
	if utf8.RuneCountInString(v) > maxTitleLen {
		return fmt.Errorf("%w: %s must be at most %d characters", ErrValidation, field, maxTitleLen)
	}
	return nil
}

func ValidatePublicationStatus(status string) error {
	return oneOf("status", status, publicationStatuses)
}

func ValidateBacklogStatus(status string) error {
	return oneOf("status", status, backlogStatuses)
}

func oneOf(field, v string, allowed []string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return fmt.Errorf("%w: %s must be one of %s", ErrValidation, field, strings.Join(allowed, ", "))
}

// Normalize trims text fields and fills defaults before validation.
func (in *ProjectInput) Normalize() {
	in.Slug = strings.TrimSpace(in.Slug)
	in.Title = strings.TrimSpace(in.Title)
	if in.Status == "" {
		in.Status = StatusDraft
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}
}

func (in *ProjectInput) Validate() error {
	if err := ValidateSlug(in.Slug); err != nil {
		return err
	}
	if err := ValidateTitle("title", in.Title); err != nil {
		return err
	}
	return ValidatePublicationStatus(in.Status)
}

func (in *LogEntryInput) Normalize() {
	in.Slug = strings.TrimSpace(in.Slug)
	in.Title = strings.TrimSpace(in.Title)
	if in.Status == "" {
		in.Status = StatusDraft
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}
}

func (in *LogEntryInput) Validate() error {
	if err := ValidateSlug(in.Slug); err != nil {
		return err
	}
	if err := ValidateTitle("title", in.Title); err != nil {
		return err
	}
	return ValidatePublicationStatus(in.Status)
}

func (in *BacklogItemInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	if in.Status == "" {
		in.Status = BacklogIdea
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}
}

func (in *BacklogItemInput) Validate() error {
	if err := ValidateTitle("title", in.Title); err != nil {
		return err
	}
	return ValidateBacklogStatus(in.Status)
}

func (in *GlossaryEntryInput) Normalize() {
	in.Slug = strings.TrimSpace(in.Slug)
	in.Term = strings.TrimSpace(in.Term)
	if in.Status == "" {
		in.Status = StatusDraft
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}
}

func (in *GlossaryEntryInput) Validate() error {
	if err := ValidateSlug(in.Slug); err != nil {
		return err
	}
	if err := ValidateTitle("term", in.Term); err != nil {
		return err
	}
	return ValidatePublicationStatus(in.Status)
}
