package mcp

import "encoding/json"

// Tool is one entry of tools/list.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

const (
	toolListTables   = "list_tables"
	toolQueryTable   = "query_table"
	toolGetRecord    = "get_record"
	toolCreateRecord = "create_record"
	toolUpdateRecord = "update_record"
	toolDeleteRecord = "delete_record"
)

var tools = []Tool{
	{
		Name:        toolListTables,
		Description: "List the content tables you can read, with the column that scopes each table to a studio project.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{},"additionalProperties":false}`),
	},
	{
		Name:        toolQueryTable,
		Description: "Query rows of a table with optional equality filters, ordering and paging. Soft-deleted rows are hidden.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{` +
			`"table":{"type":"string"},` +
			`"select":{"type":"array","items":{"type":"string"}},` +
			`"filters":{"type":"object","description":"column -> value, combined with AND"},` +
			`"order_by":{"type":"string","default":"created_at"},` +
			`"ascending":{"type":"boolean","default":false},` +
			`"limit":{"type":"integer","minimum":1,"maximum":500,"default":50},` +
			`"offset":{"type":"integer","minimum":0,"default":0}` +
			`},"required":["table"]}`),
	},
	{
		Name:        toolGetRecord,
		Description: "Fetch one row by id.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"table":{"type":"string"},"id":{"type":"string"}},"required":["table","id"]}`),
	},
	{
		Name:        toolCreateRecord,
		Description: "Insert a row. id and created_at are generated. Collaborators must set the table's project column to one of their projects.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"table":{"type":"string"},"data":{"type":"object"}},"required":["table","data"]}`),
	},
	{
		Name:        toolUpdateRecord,
		Description: "Update columns of a row by id. Collaborators must pass project_id.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"table":{"type":"string"},"id":{"type":"string"},"data":{"type":"object"},"project_id":{"type":"string"}},"required":["table","id","data"]}`),
	},
	{
		Name:        toolDeleteRecord,
		Description: "Delete a row by id. Tables with deleted_at are soft deleted.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"table":{"type":"string"},"id":{"type":"string"}},"required":["table","id"]}`),
	},
}

type queryArgs struct {
	Table     string         `json:"table"`
	Select    []string       `json:"select"`
	Filters   map[string]any `json:"filters"`
	OrderBy   string         `json:"order_by"`
	Ascending bool           `json:"ascending"`
	Limit     int            `json:"limit"`
	Offset    int            `json:"offset"`
}

type recordArgs struct {
	Table     string         `json:"table"`
	ID        string         `json:"id"`
	Data      map[string]any `json:"data"`
	ProjectID string         `json:"project_id"`
}
