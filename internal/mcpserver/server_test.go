package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/procforge/internal/procedure"
	"github.com/starford/procforge/internal/session"
	tu "github.com/starford/procforge/internal/testutil"
)

func testServer(t *testing.T) (*Server, *session.Session) {
	t.Helper()
	_, fs, state := tu.TestWorkspace(t)
	sess := session.New(state,
		session.WithClock(tu.Clock),
		session.WithLogger(tu.Logger()),
		session.WithFiles(fs),
		session.WithArchive(tu.TestDB(t)),
	)
	return New(sess, "test"), sess
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handlers are
	// called directly.
	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"get_procedure":    srv.getProcedure,
		"current_version":  srv.currentVersion,
		"version_history":  srv.versionHistory,
		"render_document":  srv.renderDocument,
		"set_field":        srv.setField,
		"add_step":         srv.addStep,
		"add_list_item":    srv.addListItem,
		"import_procedure": srv.importProcedure,
		"export_procedure": srv.exportProcedure,
		"search_exports":   srv.searchExports,
		"set_logo":         srv.setLogo,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestSetFieldAndGetProcedure(t *testing.T) {
	srv, sess := testServer(t)

	r := callTool(t, srv, "set_field", map[string]interface{}{"field": "title", "value": "Purge des journaux"})
	if r.IsError {
		t.Fatalf("set_field: %s", resultText(r))
	}
	r = callTool(t, srv, "set_field", map[string]interface{}{"field": "colour", "value": "x"})
	if !r.IsError {
		t.Error("expected error for unknown field")
	}

	r = callTool(t, srv, "get_procedure", nil)
	var got struct {
		Procedure struct {
			Title string `json:"title"`
		} `json:"procedure"`
		Outline procedure.Outline `json:"outline"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &got); err != nil {
		t.Fatal(err)
	}
	if got.Procedure.Title != "Purge des journaux" {
		t.Errorf("title = %q", got.Procedure.Title)
	}
	if len(got.Outline.Steps) != 1 {
		t.Errorf("outline steps = %d", len(got.Outline.Steps))
	}
	if sess.Snapshot().Title != "Purge des journaux" {
		t.Error("session not updated")
	}
}

func TestAddStepAndListItems(t *testing.T) {
	srv, sess := testServer(t)

	r := callTool(t, srv, "add_step", map[string]interface{}{"name": "Archivage"})
	var step procedure.StepOutline
	if err := json.Unmarshal([]byte(resultText(r)), &step); err != nil {
		t.Fatal(err)
	}
	if step.Name != "Archivage" || len(step.Actions) != 1 {
		t.Fatalf("step = %+v", step)
	}

	callTool(t, srv, "add_list_item", map[string]interface{}{"list": "tools", "value": "rsync"})
	callTool(t, srv, "add_list_item", map[string]interface{}{"list": "tools", "value": "tar"})
	r = callTool(t, srv, "add_list_item", map[string]interface{}{"list": "controls", "owner": string(step.ID), "value": "Archive lisible"})
	if r.IsError {
		t.Fatalf("controls: %s", resultText(r))
	}
	r = callTool(t, srv, "add_list_item", map[string]interface{}{"list": "controls", "value": "x"})
	if !r.IsError {
		t.Error("controls without owner should fail")
	}

	p := sess.Snapshot()
	if strings.Join(p.Prerequisites.Tools, ",") != "rsync,tar" {
		t.Errorf("tools = %v", p.Prerequisites.Tools)
	}
	if len(p.Steps) != 2 || p.Steps[1].Controls[0] != "Archive lisible" {
		t.Errorf("steps = %+v", p.Steps)
	}
}

func TestImportExportAndSearch(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "import_procedure", map[string]interface{}{
		"content": `{"title":"Rotation des certificats","validation":{"approver":{"name":"Paul"}}}`,
	})
	if r.IsError {
		t.Fatalf("import: %s", resultText(r))
	}
	r = callTool(t, srv, "import_procedure", map[string]interface{}{"content": "[]"})
	if !r.IsError {
		t.Error("expected error for non-object file")
	}

	r = callTool(t, srv, "export_procedure", map[string]interface{}{
		"change_type": "major", "author": "Lucie", "comment": "Refonte",
	})
	if r.IsError {
		t.Fatalf("export: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"version": "2.0.0"`) {
		t.Errorf("export result = %s", resultText(r))
	}
	if v := resultText(callTool(t, srv, "current_version", nil)); v != "2.0.0" {
		t.Errorf("current_version = %q", v)
	}
	if h := resultText(callTool(t, srv, "version_history", nil)); !strings.Contains(h, "Refonte") {
		t.Errorf("history = %s", h)
	}

	r = callTool(t, srv, "search_exports", map[string]interface{}{"query": "certificats"})
	if r.IsError || !strings.Contains(resultText(r), "Rotation des certificats") {
		t.Errorf("search = %s", resultText(r))
	}
}

func TestExportWithoutApprover(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "export_procedure", map[string]interface{}{
		"change_type": "minor", "author": "Lucie", "comment": "c",
	})
	if !r.IsError {
		t.Error("expected approver error")
	}
}

func TestRenderDocument(t *testing.T) {
	srv, sess := testServer(t)
	sess.LoadExample()

	for format, want := range map[string]string{
		"markdown": "PROC-IT-2024-001",
		"html":     "<!DOCTYPE html>",
		"text":     "PROC-IT-2024-001",
		"json":     `"cover"`,
	} {
		r := callTool(t, srv, "render_document", map[string]interface{}{"format": format})
		if r.IsError || !strings.Contains(resultText(r), want) {
			t.Errorf("%s: missing %q", format, want)
		}
	}
	if sess.CurrentVersion() != "1.0.0" {
		t.Error("rendering must not bump the version")
	}
}

func TestSetLogo(t *testing.T) {
	srv, sess := testServer(t)

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
	r := callTool(t, srv, "set_logo", map[string]interface{}{"url": uri})
	if r.IsError {
		t.Fatalf("set_logo: %s", resultText(r))
	}
	if p := sess.Snapshot(); p.LogoData == nil || *p.LogoData != uri {
		t.Error("logo not stored as data URI")
	}

	// Declared PNG, actual text.
	bad := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("hello"))
	if r := callTool(t, srv, "set_logo", map[string]interface{}{"url": bad}); !r.IsError {
		t.Error("expected magic byte mismatch")
	}
	if r := callTool(t, srv, "set_logo", map[string]interface{}{"url": "http://127.0.0.1/logo.png"}); !r.IsError {
		t.Error("expected loopback to be blocked")
	}
}

func TestValidateMagicBytes(t *testing.T) {
	if err := validateMagicBytes([]byte(`<?xml version="1.0"?><svg></svg>`), "image/svg+xml"); err != nil {
		t.Errorf("svg: %v", err)
	}
	if err := validateMagicBytes([]byte("not svg"), "image/svg+xml"); err == nil {
		t.Error("expected svg error")
	}
	jpeg := append([]byte{0xFF, 0xD8, 0xFF}, make([]byte, 16)...)
	if err := validateMagicBytes(jpeg, "image/jpg"); err != nil {
		t.Errorf("jpg alias: %v", err)
	}
}
