package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/folio-studio/folio-backend/internal/access"
	authdomain "github.com/folio-studio/folio-backend/internal/auth/domain"
	"github.com/folio-studio/folio-backend/internal/logging"
	oauthdomain "github.com/folio-studio/folio-backend/internal/oauth/domain"
)

const latestProtocolVersion = "2025-06-18"

var supportedProtocolVersions = map[string]bool{
	"2024-11-05":          true,
	"2025-03-26":          true,
	latestProtocolVersion: true,
}

// Caller is the authenticated principal behind a request.
type Caller struct {
	Profile  *authdomain.Profile
	Identity *authdomain.Identity
}

// canUseScope reports whether the token's OAuth scope covers a read or a
// write. Firebase sessions are not scope limited.
func (c *Caller) canUseScope(write bool) bool {
	if c.Identity == nil || c.Identity.Source != authdomain.SourceOAuth {
		return true
	}
	want := oauthdomain.ScopeRead
	if write {
		want = oauthdomain.ScopeWrite
	}
	for _, s := range strings.Fields(c.Identity.Scope) {
		if s == want {
			return true
		}
	}
	return false
}

type Server struct {
	store   TableStore
	name    string
	version string
}

func NewServer(store TableStore, name, version string) *Server {
	return &Server{store: store, name: name, version: version}
}

// Handle decodes one JSON-RPC message and dispatches it. A nil response
// means the message was a notification.
func (s *Server) Handle(ctx context.Context, caller *Caller, body []byte) *Response {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return errorResponse(nil, CodeInvalidRequest, "batch requests are not supported")
	}

	var req Request
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return errorResponse(nil, CodeParseError, "parse error")
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		return errorResponse(req.ID, CodeInvalidRequest, "invalid request")
	}
	if req.IsNotification() {
		return nil
	}

	log := logging.FromContext(ctx)

	switch req.Method {
	case "initialize":
		return resultResponse(req.ID, s.initialize(req.Params))
	case "ping":
		return resultResponse(req.ID, map[string]any{})
	case "tools/list":
		return resultResponse(req.ID, map[string]any{"tools": tools})
	case "tools/call":
		var params struct {
			Name      string          `json:"name"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
			return errorResponse(req.ID, CodeInvalidParams, "params must carry a tool name")
		}
		result, err := s.callTool(ctx, caller, params.Name, params.Arguments)
		if err != nil {
			var pe *paramsError
			if errors.As(err, &pe) {
				return errorResponse(req.ID, CodeInvalidParams, pe.Error())
			}
			log.Error("mcp.tool.failed", "tool", params.Name, "profile_id", caller.Profile.ID, "error", err)
			return errorResponse(req.ID, CodeInternalError, "internal error")
		}
		log.Info("mcp.tool.called", "tool", params.Name, "profile_id", caller.Profile.ID, "is_error", result.IsError)
		return resultResponse(req.ID, result)
	default:
		return errorResponse(req.ID, CodeMethodNotFound, "method not found: "+req.Method)
	}
}

func (s *Server) initialize(params json.RawMessage) map[string]any {
	var p struct {
		ProtocolVersion string `json:"protocolVersion"`
	}
	_ = json.Unmarshal(params, &p)

	version := latestProtocolVersion
	if supportedProtocolVersions[p.ProtocolVersion] {
		version = p.ProtocolVersion
	}
	return map[string]any{
		"protocolVersion": version,
		"capabilities": map[string]any{
			"tools": map[string]any{"listChanged": false},
		},
		"serverInfo": map[string]any{
			"name":    s.name,
			"version": s.version,
		},
		"instructions": "Read and edit portfolio content. Call list_tables first to see what you can access.",
	}
}

type paramsError struct{ msg string }

func (e *paramsError) Error() string { return e.msg }

func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &paramsError{msg: "invalid arguments: " + err.Error()}
	}
	return nil
}

// callTool returns a tool result for everything the model can act on
// (permissions, validation, missing rows) and an error only for protocol
// or infrastructure failures.
func (s *Server) callTool(ctx context.Context, caller *Caller, name string, raw json.RawMessage) (*ToolResult, error) {
	switch name {
	case toolListTables:
		if !caller.canUseScope(false) {
			return denied("token scope does not allow reading"), nil
		}
		return jsonResult(access.Readable(caller.Profile))

	case toolQueryTable:
		var a queryArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		if r := s.check(caller, access.OpRead, a.Table, ""); r != nil {
			return r, nil
		}
		rows, err := s.store.Query(ctx, &Query{
			Table: a.Table, Select: a.Select, Filters: a.Filters,
			OrderBy: a.OrderBy, Ascending: a.Ascending, Limit: a.Limit, Offset: a.Offset,
		})
		return storeResult(rows, err)

	case toolGetRecord:
		var a recordArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		if a.ID == "" {
			return textResult("id is required", true), nil
		}
		if r := s.check(caller, access.OpRead, a.Table, ""); r != nil {
			return r, nil
		}
		row, err := s.store.Get(ctx, a.Table, a.ID)
		return storeResult(row, err)

	case toolCreateRecord:
		var a recordArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		projectID := projectOf(a.Table, a.Data)
		if r := s.check(caller, access.OpCreate, a.Table, projectID); r != nil {
			return r, nil
		}
		row, err := s.store.Insert(ctx, a.Table, a.Data)
		return storeResult(row, err)

	case toolUpdateRecord:
		var a recordArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		if a.ID == "" {
			return textResult("id is required", true), nil
		}
		if r := s.check(caller, access.OpUpdate, a.Table, a.ProjectID); r != nil {
			return r, nil
		}
		scope, r := writeScope(caller, a.Table, a.ProjectID, a.Data)
		if r != nil {
			return r, nil
		}
		row, err := s.store.Update(ctx, a.Table, a.ID, a.Data, scope)
		return storeResult(row, err)

	case toolDeleteRecord:
		var a recordArgs
		if err := decodeArgs(raw, &a); err != nil {
			return nil, err
		}
		if a.ID == "" {
			return textResult("id is required", true), nil
		}
		if r := s.check(caller, access.OpDelete, a.Table, a.ProjectID); r != nil {
			return r, nil
		}
		row, err := s.store.Delete(ctx, a.Table, a.ID, nil)
		return storeResult(row, err)

	default:
		return nil, &paramsError{msg: "unknown tool: " + name}
	}
}

func (s *Server) check(caller *Caller, op access.Operation, table, projectID string) *ToolResult {
	if table == "" {
		return textResult("table is required", true)
	}
	if _, ok := access.Lookup(table); !ok {
		return textResult(fmt.Sprintf("unknown table %q; call list_tables", table), true)
	}
	if !caller.canUseScope(op != access.OpRead) {
		return denied("token scope does not allow " + string(op))
	}
	if !access.CanAccess(caller.Profile, op, table, projectID) {
		return denied(fmt.Sprintf("role %s may not %s %s", caller.Profile.Role, op, table))
	}
	return nil
}

// writeScope confines a scoped caller's update to the project they named,
// and stops them moving the row to another project.
func writeScope(caller *Caller, table, projectID string, data map[string]any) (*Scope, *ToolResult) {
	if !access.Scoped(caller.Profile) {
		return nil, nil
	}
	t, _ := access.Lookup(table)
	if v, ok := data[t.ProjectColumn]; ok && v != projectID {
		return nil, denied(t.ProjectColumn + " cannot be changed")
	}
	return &Scope{Column: t.ProjectColumn, ProjectID: projectID}, nil
}

func projectOf(table string, data map[string]any) string {
	t, ok := access.Lookup(table)
	if !ok || t.ProjectColumn == "" {
		return ""
	}
	id, _ := data[t.ProjectColumn].(string)
	return id
}

func denied(msg string) *ToolResult {
	return textResult("permission denied: "+msg, true)
}

func jsonResult(v any) (*ToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return textResult(string(b), false), nil
}

func storeResult(row json.RawMessage, err error) (*ToolResult, error) {
	switch {
	case errors.Is(err, ErrNotFound):
		return textResult("not found", true), nil
	case errors.Is(err, ErrInvalidIdentifier), errors.Is(err, ErrInvalidInput):
		return textResult(err.Error(), true), nil
	case err != nil:
		return nil, err
	}
	return textResult(string(row), false), nil
}
