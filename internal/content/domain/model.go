package domain

import (
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
)

// Publication statuses shared by projects, log entries and glossary entries.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Backlog statuses.
const (
	BacklogIdea       = "idea"
	BacklogPlanned    = "planned"
	BacklogInProgress = "in_progress"
	BacklogShipped    = "shipped"
	BacklogDropped    = "dropped"
)

var (
	publicationStatuses = []string{StatusDraft, StatusPublished, StatusArchived}
	backlogStatuses     = []string{BacklogIdea, BacklogPlanned, BacklogInProgress, BacklogShipped, BacklogDropped}
)

// Project is a portfolio project.
type Project struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	Tags      []string  `json:"tags"`
	URL       *string   `json:"url,omitempty"`
	Year      *int      `json:"year,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProjectInput struct {
	Slug    string   `json:"slug"`
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Body    string   `json:"body"`
	Status  string   `json:"status"`
	Tags    []string `json:"tags"`
	URL     *string  `json:"url"`
	Year    *int     `json:"year"`
}

// LogEntry is a dated journal post.
type LogEntry struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	EntryDate time.Time `json:"entry_date"`
	Status    string    `json:"status"`
	Tags      []string  `json:"tags"`
	ProjectID *string   `json:"project_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type LogEntryInput struct {
	Slug      string     `json:"slug"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	EntryDate *time.Time `json:"entry_date"`
	Status    string     `json:"status"`
	Tags      []string   `json:"tags"`
	ProjectID *string    `json:"project_id"`
}

// BacklogItem is an idea or piece of work, optionally tied to a studio project.
type BacklogItem struct {
	ID              string    `json:"id"`
	StudioProjectID *string   `json:"studio_project_id,omitempty"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Status          string    `json:"status"`
	Priority        int       `json:"priority"`
	Tags            []string  `json:"tags"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type BacklogItemInput struct {
	StudioProjectID *string  `json:"studio_project_id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Status          string   `json:"status"`
	Priority        int      `json:"priority"`
	Tags            []string `json:"tags"`
}

// PromoteInput describes the log entry a backlog item ships as. Empty
// title and body default to the backlog item's.
type PromoteInput struct {
	Slug      string     `json:"slug"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	EntryDate *time.Time `json:"entry_date"`
	Status    string     `json:"status"`
}

// Promotion is the result of shipping a backlog item.
type Promotion struct {
	BacklogItem *BacklogItem `json:"backlog_item"`
	LogEntry    *LogEntry    `json:"log_entry"`
}

// GlossaryEntry is a term in the "verbivore" glossary.
type GlossaryEntry struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Term        string     `json:"term"`
	Definition  string     `json:"definition"`
	Status      string     `json:"status"`
	Tags        []string   `json:"tags"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type GlossaryEntryInput struct {
	Slug       string   `json:"slug"`
	Term       string   `json:"term"`
	Definition string   `json:"definition"`
	Status     string   `json:"status"`
	Tags       []string `json:"tags"`
}

// ListFilter narrows list queries. Zero values mean no filter.
type ListFilter struct {
	Status          string
	StudioProjectID string
	Limit           int
	Offset          int
}
