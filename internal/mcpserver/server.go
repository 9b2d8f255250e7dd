// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the procedure editor to LLMs via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/procforge/internal/models"
	"github.com/starford/procforge/internal/procedure"
	"github.com/starford/procforge/internal/render"
	"github.com/starford/procforge/internal/session"
)

const formatURI = "procforge://procedure-format"

// Server wraps the MCP server with the procedure tools.
type Server struct {
	mcp      *server.MCPServer
	sess     *session.Session
	markdown *render.MarkdownRenderer
}

// New creates a new MCP server with all tools registered.
func New(sess *session.Session, version string) *Server {
	s := &Server{sess: sess, markdown: render.NewMarkdownRenderer()}

	s.mcp = server.NewMCPServer(
		"procforge",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_procedure",
		mcp.WithDescription("Return the procedure being edited as JSON, with an outline of step, action and scenario ids."),
	), s.getProcedure)

	s.mcp.AddTool(mcp.NewTool("get_format_contract",
		mcp.WithDescription("Returns the procedure file format contract. "+
			"Call this before importing or editing a procedure."),
	), s.getFormatContract)

	s.mcp.AddTool(mcp.NewTool("current_version",
		mcp.WithDescription("Return the current version of the procedure."),
	), s.currentVersion)

	s.mcp.AddTool(mcp.NewTool("version_history",
		mcp.WithDescription("Return the version history, most recent first."),
	), s.versionHistory)

	s.mcp.AddTool(mcp.NewTool("render_document",
		mcp.WithDescription("Render the printable document. Rendering never bumps the version."),
		mcp.WithString("format", mcp.Enum("markdown", "html", "text", "json"),
			mcp.Description("Output format (default markdown)")),
	), s.renderDocument)

	s.mcp.AddTool(mcp.NewTool("set_field",
		mcp.WithDescription("Write one scalar field of the procedure or of a step, action or scenario. "+
			"See the format contract for field names."),
		mcp.WithString("field", mcp.Required(), mcp.Description("Field name, e.g. title or validation.approver")),
		mcp.WithString("value", mcp.Required(), mcp.Description("New value")),
		mcp.WithString("node", mcp.Description("Step, action or scenario id; empty for procedure fields")),
	), s.setField)

	s.mcp.AddTool(mcp.NewTool("add_step",
		mcp.WithDescription("Append a step with one empty action and scenario. Returns the new ids."),
		mcp.WithString("name", mcp.Description("Optional step name")),
	), s.addStep)

	s.mcp.AddTool(mcp.NewTool("add_list_item",
		mcp.WithDescription("Append a row to a list: technical, access, tools, environment, "+
			"controls (owner = step id) or scenarioSteps (owner = scenario id)."),
		mcp.WithString("list", mcp.Required(), mcp.Enum("technical", "access", "tools", "environment", "controls", "scenarioSteps")),
		mcp.WithString("value", mcp.Required(), mcp.Description("Row text")),
		mcp.WithString("owner", mcp.Description("Step id for controls, scenario id for scenarioSteps")),
	), s.addListItem)

	s.mcp.AddTool(mcp.NewTool("import_procedure",
		mcp.WithDescription("Replace the procedure with a JSON or YAML file following the format contract."),
		mcp.WithString("content", mcp.Required(), mcp.Description("File content")),
		mcp.WithString("format", mcp.Enum("json", "yaml"), mcp.Description("Detected from the content when omitted")),
	), s.importProcedure)

	s.mcp.AddTool(mcp.NewTool("export_procedure",
		mcp.WithDescription("Bump the version and export the procedure. Requires the approver to be set."),
		mcp.WithString("change_type", mcp.Required(), mcp.Enum("major", "minor", "patch")),
		mcp.WithString("author", mcp.Required(), mcp.Description("Who made the change")),
		mcp.WithString("comment", mcp.Required(), mcp.Description("What changed")),
	), s.exportProcedure)

	s.mcp.AddTool(mcp.NewTool("search_exports",
		mcp.WithDescription("Full-text search through archived exports."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchExports)

	s.mcp.AddTool(mcp.NewTool("set_logo",
		mcp.WithDescription("Set the company logo from a data URI or an http(s) URL. PNG, JPEG and SVG are accepted."),
		mcp.WithString("url", mcp.Required(), mcp.Description("data:image/png;base64,... or https://...")),
	), s.setLogo)

	// Resource: procedure format contract.
	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Procedure Format Contract",
			mcp.WithResourceDescription("JSON file format of a procedure."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getProcedure(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var outline procedure.Outline
	_ = s.sess.View(func(t *procedure.Tree) error {
		outline = t.Outline()
		return nil
	})
	return jsonResult(map[string]any{
		"procedure": s.sess.Snapshot(),
		"outline":   outline,
	})
}

func (s *Server) getFormatContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ProcedureFormatContract), nil
}

func (s *Server) currentVersion(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.sess.CurrentVersion()), nil
}

func (s *Server) versionHistory(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.sess.History())
}

func (s *Server) renderDocument(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc := s.sess.Preview()
	switch req.GetString("format", "markdown") {
	case "markdown":
		out, err := s.markdown.Render(doc)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(out), nil
	case "html":
		out, err := render.HTML(doc)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	case "text":
		return mcp.NewToolResultText(render.Terminal(doc, 80)), nil
	case "json":
		return jsonResult(doc)
	default:
		return mcp.NewToolResultError("unknown format"), nil
	}
}

func (s *Server) setField(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	field, err := req.RequireString("field")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f := procedure.FieldID{Node: req.GetString("node", ""), Name: field}
	if err := s.sess.SetField(f, value); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %s", field)), nil
}

func (s *Server) addStep(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	var step procedure.StepOutline
	err := s.sess.Edit(func(t *procedure.Tree) error {
		id := t.AddStep()
		if name != "" {
			if err := t.SetField(procedure.FieldID{Node: string(id), Name: procedure.StepName}, name); err != nil {
				return err
			}
		}
		steps := t.Outline().Steps
		step = steps[len(steps)-1]
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(step)
}

func (s *Server) addListItem(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := req.RequireString("list")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ref := procedure.ListRef{Kind: procedure.ListKind(list), Owner: req.GetString("owner", "")}

	var index int
	err = s.sess.Edit(func(t *procedure.Tree) error {
		rows, err := t.ListItems(ref)
		if err != nil {
			return err
		}
		// Fill the blank placeholder row before appending.
		if len(rows) == 1 && rows[0].Value == "" {
			index = 0
		} else if index, err = t.AddListItem(ref); err != nil {
			return err
		}
		return t.SetListItem(ref, index, value)
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("added: %s[%d]", list, index)), nil
}

func (s *Server) importProcedure(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data := []byte(content)
	f := procedure.DetectFormat("", data)
	if name := req.GetString("format", ""); name != "" {
		if f, err = procedure.ParseFormat(name); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	if err := s.sess.Import(data, f); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("imported: version %s", s.sess.CurrentVersion())), nil
}

func (s *Server) exportProcedure(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	changeType, err := req.RequireString("change_type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	author, err := req.RequireString("author")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	comment, err := req.RequireString("comment")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.sess.Export(ctx, session.BumpRequest{
		ChangeType: models.ChangeType(changeType),
		Author:     author,
		Comment:    comment,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"version":  res.Entry.Version,
		"filename": res.Filename,
		"content":  json.RawMessage(res.Payload),
	})
}

func (s *Server) searchExports(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.sess.SearchExports(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) readFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     ProcedureFormatContract,
		},
	}, nil
}
