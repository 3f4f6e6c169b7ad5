package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrForbidden       = errors.New("forbidden")
	ErrVersionConflict = errors.New("canvas was modified by someone else")
	ErrUnknownKind     = fmt.Errorf("%w: unknown canvas kind", ErrNotFound)
	ErrUnknownBlock    = fmt.Errorf("%w: unknown block", ErrValidation)
	ErrItemNotFound    = fmt.Errorf("%w: item", ErrNotFound)
)

// VersionConflictError carries the version currently stored so the client
// can refetch.
type VersionConflictError struct {
	Expected int
	Current  int
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("%s: expected version %d, current version %d", ErrVersionConflict, e.Expected, e.Current)
}

func (e *VersionConflictError) Is(target error) bool {
	return target == ErrVersionConflict
}

// Kind identifies one of the canvas tables and its fixed block layout.
type Kind struct {
	Name   string
	Table  string
	Blocks []string
}

var kinds = map[string]Kind{
	"business_model": {
		Name:  "business_model",
		Table: "business_model_canvases",
		Blocks: []string{
			"key_partners", "key_activities", "key_resources",
			"value_propositions", "customer_relationships", "channels",
			"customer_segments", "cost_structure", "revenue_streams",
		},
	},
	"customer_profile": {
		Name:   "customer_profile",
		Table:  "customer_profiles",
		Blocks: []string{"customer_jobs", "pains", "gains"},
	},
	"value_map": {
		Name:   "value_map",
		Table:  "value_maps",
		Blocks: []string{"products_services", "pain_relievers", "gain_creators"},
	},
}

func LookupKind(name string) (Kind, error) {
	k, ok := kinds[name]
	if !ok {
		return Kind{}, fmt.Errorf("%w %q", ErrUnknownKind, name)
	}
	return k, nil
}

func (k Kind) HasBlock(block string) bool {
	for _, b := range k.Blocks {
		if b == block {
			return true
		}
	}
	return false
}

// Item is a sticky note on a canvas block.
type Item struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Notes     string    `json:"notes,omitempty"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Canvas is one row of a canvas table with its decoded data blob.
type Canvas struct {
	ID              string    `json:"id"`
	Kind            string    `json:"kind"`
	StudioProjectID *string   `json:"studio_project_id,omitempty"`
	Name            string    `json:"name"`
	Status          string    `json:"status"`
	Data            Data      `json:"data"`
	Version         int       `json:"version"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Data is the canvas JSON blob: {"blocks": {"<block>": [items]}}. Keys
// other than blocks are kept as they were read.
type Data struct {
	Blocks map[string][]Item
	extra  map[string]json.RawMessage
}

func (d *Data) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	d.Blocks = map[string][]Item{}
	if blocks, ok := raw["blocks"]; ok {
		if err := json.Unmarshal(blocks, &d.Blocks); err != nil {
			return fmt.Errorf("decode blocks: %w", err)
		}
		if d.Blocks == nil {
			d.Blocks = map[string][]Item{}
		}
		delete(raw, "blocks")
	}
	d.extra = raw
	return nil
}

func (d Data) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.extra)+1)
	for k, v := range d.extra {
		out[k] = v
	}
	blocks := d.Blocks
	if blocks == nil {
		blocks = map[string][]Item{}
	}
	out["blocks"] = blocks
	return json.Marshal(out)
}
