// Package access holds the static table catalog and role permission table
// consulted by every write path and by the MCP tool endpoint.
package access

import "sort"

// Table describes one content table exposed to API and MCP callers.
type Table struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// ProjectColumn names the studio project foreign key that scopes
	// collaborator writes. Empty for tables that are not project scoped.
	ProjectColumn string `json:"project_column,omitempty"`
	// SoftDelete is set when the table has a deleted_at column.
	SoftDelete bool `json:"soft_delete,omitempty"`
	// JSONColumns are jsonb columns; values bound to them are sent as JSON
	// text even when they look like a text[] list.
	JSONColumns []string `json:"json_columns,omitempty"`
}

// IsJSON reports whether column is one of t's jsonb columns.
func (t Table) IsJSON(column string) bool {
	for _, c := range t.JSONColumns {
		if c == column {
			return true
		}
	}
	return false
}

var catalog = map[string]Table{
	"projects":                {Name: "projects", Description: "Portfolio projects", SoftDelete: true},
	"log_entries":             {Name: "log_entries", Description: "Dated log / journal entries", SoftDelete: true},
	"specimens":               {Name: "specimens", Description: "Design specimens and experiments on the site"},
	"studio_projects":         {Name: "studio_projects", Description: "Studio (venture) projects"},
	"studio_hypotheses":       {Name: "studio_hypotheses", Description: "Hypotheses under a studio project", ProjectColumn: "studio_project_id"},
	"studio_experiments":      {Name: "studio_experiments", Description: "Experiments validating hypotheses", ProjectColumn: "studio_project_id"},
	"business_model_canvases": {Name: "business_model_canvases", Description: "Business model canvases", ProjectColumn: "studio_project_id", JSONColumns: []string{"data"}},
	"customer_profiles":       {Name: "customer_profiles", Description: "Customer profile canvases", ProjectColumn: "studio_project_id", JSONColumns: []string{"data"}},
	"value_maps":              {Name: "value_maps", Description: "Value map canvases", ProjectColumn: "studio_project_id", JSONColumns: []string{"data"}},
	"service_blueprints":      {Name: "service_blueprints", Description: "Service blueprints", ProjectColumn: "studio_project_id", JSONColumns: []string{"steps"}},
	"user_journeys":           {Name: "user_journeys", Description: "User journeys", ProjectColumn: "studio_project_id"},
	"journey_stages":          {Name: "journey_stages", Description: "Stages of a user journey"},
	"touchpoints":             {Name: "touchpoints", Description: "Touchpoints within a journey stage"},
	"backlog_items":           {Name: "backlog_items", Description: "Backlog of ideas and work items", ProjectColumn: "studio_project_id", SoftDelete: true},
	"canvas_items":            {Name: "canvas_items", Description: "Free-form canvas items", ProjectColumn: "studio_project_id"},
	"cog_images":              {Name: "cog_images", Description: "Generated image records"},
	"verbivore_entries":       {Name: "verbivore_entries", Description: "Glossary entries", SoftDelete: true},
	"backlog_log_entries":     {Name: "backlog_log_entries", Description: "Which log entry a backlog item shipped as"},
}

// Lookup returns the catalog entry for name.
func Lookup(name string) (Table, bool) {
	t, ok := catalog[name]
	return t, ok
}

// Tables returns every catalog entry sorted by name.
func Tables() []Table {
	out := make([]Table, 0, len(catalog))
	for _, t := range catalog {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
