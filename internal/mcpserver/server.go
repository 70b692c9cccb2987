// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes daybook tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/daybook/internal/journal"
)

// FormatURI is the resource holding the journal format contract.
const FormatURI = "daybook://format"

// Server wraps the MCP server with daybook tools.
type Server struct {
	mcp *server.MCPServer
	svc *journal.Service
}

// New creates a new MCP server with all daybook tools registered.
func New(svc *journal.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Daybook",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	fileArg := mcp.WithString("file", mcp.Description("Registered journal name or path relative to the journal root. Defaults to the active journal."))

	s.mcp.AddTool(mcp.NewTool("focus_day",
		mcp.WithDescription("Show one day of the journal, creating its year, month and day headings when missing. "+
			"Returns the day's subtree and its line bounds."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Day as YYYY-MM-DD")),
		fileArg,
	), s.focusDay)

	s.mcp.AddTool(mcp.NewTool("show_range",
		mcp.WithDescription("Show every day from start to end inclusive, creating missing day headings. Ranges longer than 366 days are rejected."),
		mcp.WithString("start", mcp.Required(), mcp.Description("First day as YYYY-MM-DD")),
		mcp.WithString("end", mcp.Required(), mcp.Description("Last day as YYYY-MM-DD")),
		fileArg,
	), s.showRange)

	s.mcp.AddTool(mcp.NewTool("show_week",
		mcp.WithDescription("Show the seven days of the current week."),
		fileArg,
	), s.showWeek)

	s.mcp.AddTool(mcp.NewTool("show_month",
		mcp.WithDescription("Show a month subtree."),
		mcp.WithString("month", mcp.Description("Month as YYYY-MM; defaults to the current month")),
		fileArg,
	), s.showMonth)

	s.mcp.AddTool(mcp.NewTool("refile_entry",
		mcp.WithDescription("Move or copy the entry enclosing the given line under a day heading. "+
			"With period set, places a copy on every date of a series ending at until or after count placements. "+
			"Read the format contract first via get_format_contract or the "+FormatURI+" resource."),
		mcp.WithNumber("line", mcp.Required(), mcp.Description("1-based line inside the entry to refile")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Target day as YYYY-MM-DD (first date of a series)")),
		mcp.WithBoolean("keep", mcp.Description("Keep the original (copy instead of move)")),
		mcp.WithString("period", mcp.Description("Series step such as +1d, 2w, +1m, 1y")),
		mcp.WithString("until", mcp.Description("Last allowed series date as YYYY-MM-DD")),
		mcp.WithNumber("count",
			mcp.Description("Number of series placements"),
			mcp.Min(1),
			mcp.Max(journal.MaxSeriesLength),
		),
		mcp.WithString("if_match", mcp.Description("Checksum the file must still have")),
		fileArg,
	), s.refileEntry)

	s.mcp.AddTool(mcp.NewTool("list_days",
		mcp.WithDescription("List indexed day headings, optionally limited to a date window or one file."),
		mcp.WithString("from", mcp.Description("First day as YYYY-MM-DD")),
		mcp.WithString("to", mcp.Description("Last day as YYYY-MM-DD")),
		mcp.WithString("file", mcp.Description("Registered journal name or path")),
	), s.listDays)

	s.mcp.AddTool(mcp.NewTool("list_files",
		mcp.WithDescription("List registered journal files and the active one."),
	), s.listFiles)

	s.mcp.AddTool(mcp.NewTool("get_format_contract",
		mcp.WithDescription("Returns the journal date-tree format contract. "+
			"Call this before refiling to know how headings are laid out."),
	), s.getFormatContract)

	s.mcp.AddResource(
		mcp.NewResource(FormatURI, "Journal Format Contract",
			mcp.WithResourceDescription("Heading layout of year, month and day nodes in daybook journals."),
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

func (s *Server) focusDay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.FocusDay(ctx, req.GetString("file", ""), date)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) showRange(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, err := req.RequireString("start")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	end, err := req.RequireString("end")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.ShowRange(ctx, req.GetString("file", ""), start, end)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) showWeek(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.ShowWeek(ctx, req.GetString("file", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) showMonth(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.ShowMonth(ctx, req.GetString("file", ""), req.GetString("month", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) refileEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	line, err := req.RequireInt("line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Refile(ctx, journal.RefileRequest{
		File:    req.GetString("file", ""),
		Line:    line,
		Target:  target,
		Keep:    req.GetBool("keep", false),
		Period:  req.GetString("period", ""),
		Until:   req.GetString("until", ""),
		Count:   req.GetInt("count", 0),
		IfMatch: req.GetString("if_match", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) listDays(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days, err := s.svc.Days(ctx, journal.DaysQuery{
		File: req.GetString("file", ""),
		From: req.GetString("from", ""),
		To:   req.GetString("to", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(days) == 0 {
		return mcp.NewToolResultText("no days found"), nil
	}
	return jsonResult(days)
}

func (s *Server) listFiles(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.Files(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) getFormatContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FormatContract), nil
}

func (s *Server) readFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      FormatURI,
			MIMEType: "text/markdown",
			Text:     FormatContract,
		},
	}, nil
}
