// Package mcpserver exposes setlist operations as MCP tools over stdio.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/franz/setlist/internal/model"
	"github.com/franz/setlist/internal/setlist"
	"github.com/franz/setlist/internal/util"
)

// Tools holds the tool handlers for one controller
type Tools struct {
	ctrl *setlist.Controller
}

// NewTools creates the handlers
func NewTools(ctrl *setlist.Controller) *Tools {
	return &Tools{ctrl: ctrl}
}

// NewServer builds an MCP server with every setlist tool registered
func NewServer(ctrl *setlist.Controller, version string) *server.MCPServer {
	s := server.NewMCPServer("setlist", version)
	NewTools(ctrl).Register(s)
	return s
}

// Serve runs s on stdin/stdout until the client disconnects
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// Register adds the tools to s
func (t *Tools) Register(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("list_locations",
		mcp.WithDescription("Lists every venue with its song count. The active venue is marked."),
	), t.listLocationsHandler)

	s.AddTool(mcp.NewTool("select_location",
		mcp.WithDescription("Makes a venue the active one. Song tools work on the active venue."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Location ID from list_locations")),
	), t.selectLocationHandler)

	s.AddTool(mcp.NewTool("list_songs",
		mcp.WithDescription("Lists the songs of the active venue, newest first."),
		mcp.WithString("style", mcp.Description("Only songs of this style")),
		mcp.WithString("query", mcp.Description("Case-insensitive text matched against title and band")),
	), t.listSongsHandler)

	s.AddTool(mcp.NewTool("add_song",
		mcp.WithDescription("Adds a song to the active venue. A style not seen before is registered."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Song title")),
		mcp.WithString("key", mcp.Required(), mcp.Description("Musical key, e.g. Am")),
		mcp.WithString("band", mcp.Required(), mcp.Description("Band or original artist")),
		mcp.WithString("style", mcp.Required(), mcp.Description("Style tag")),
		mcp.WithString("observations", mcp.Description("Free-text notes")),
	), t.addSongHandler)

	s.AddTool(mcp.NewTool("suggest_order",
		mcp.WithDescription("Asks the AI for a performance order of the active venue's songs."),
		mcp.WithString("style", mcp.Description("Only order songs of this style")),
		mcp.WithString("query", mcp.Description("Only order songs matching this text")),
	), t.suggestOrderHandler)

	s.AddTool(mcp.NewTool("suggest_tip",
		mcp.WithDescription("Asks the AI for a short performance tip about a song."),
		mcp.WithString("song_id", mcp.Description("Song ID; overrides title and band")),
		mcp.WithString("title", mcp.Description("Song title")),
		mcp.WithString("band", mcp.Description("Band or original artist")),
	), t.suggestTipHandler)
}

func stringArg(args map[string]any, name string) string {
	v, _ := args[name].(string)
	return strings.TrimSpace(v)
}

func errorResult(action string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, util.ErrNoLocation):
		return mcp.NewToolResultError("No active location. Call select_location first.")
	case errors.Is(err, util.ErrTooFewSongs):
		return mcp.NewToolResultError("At least two songs are needed to suggest an order.")
	}
	return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, err))
}

func (t *Tools) listLocationsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	locations := t.ctrl.Locations()
	if len(locations) == 0 {
		return mcp.NewToolResultText("No locations yet."), nil
	}

	active, _ := t.ctrl.ActiveLocation()
	var sb strings.Builder
	for _, loc := range locations {
		marker := " "
		if loc.ID == active.ID {
			marker = "*"
		}
		fmt.Fprintf(&sb, "%s %s  %s (%d songs)\n", marker, loc.ID, loc.Name, t.ctrl.SongCount(loc.ID))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (t *Tools) selectLocationHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]any)
	id := stringArg(args, "id")
	if id == "" {
		return mcp.NewToolResultError("Location ID cannot be empty"), nil
	}

	if _, err := t.ctrl.SelectLocation(id); err != nil {
		return errorResult("select location", err), nil
	}
	loc, err := t.ctrl.Location(id)
	if err != nil {
		return errorResult("select location", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Selected '%s'.", loc.Name)), nil
}

func formatSongs(songs []model.Song) string {
	var sb strings.Builder
	for i, s := range songs {
		fmt.Fprintf(&sb, "%d. %s - %s [%s, %s]", i+1, s.Title, s.Band, s.Key, s.Style)
		if s.Observations != "" {
			fmt.Fprintf(&sb, " (%s)", util.Truncate(s.Observations, 60))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *Tools) listSongsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]any)

	songs, err := t.ctrl.Find(stringArg(args, "style"), stringArg(args, "query"))
	if err != nil {
		return errorResult("list songs", err), nil
	}
	if len(songs) == 0 {
		return mcp.NewToolResultText("No songs match."), nil
	}
	return mcp.NewToolResultText(formatSongs(songs)), nil
}

func (t *Tools) addSongHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]any)

	song, err := t.ctrl.AddSong(model.SongInput{
		Title:        stringArg(args, "title"),
		Key:          stringArg(args, "key"),
		Band:         stringArg(args, "band"),
		Style:        stringArg(args, "style"),
		Observations: stringArg(args, "observations"),
	})
	if err != nil {
		return errorResult("add song", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Song '%s' (%s) added.", song.Title, song.ID)), nil
}

func (t *Tools) suggestOrderHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]any)

	titles, err := t.ctrl.SuggestOrderFor(ctx, stringArg(args, "style"), stringArg(args, "query"))
	if err != nil {
		return errorResult("suggest order", err), nil
	}

	var sb strings.Builder
	for i, title := range titles {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, title)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (t *Tools) suggestTipHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]any)

	title, band := stringArg(args, "title"), stringArg(args, "band")
	if id := stringArg(args, "song_id"); id != "" {
		song, err := t.ctrl.Song(id)
		if err != nil {
			return errorResult("suggest tip", err), nil
		}
		title, band = song.Title, song.Band
	}
	if title == "" {
		return mcp.NewToolResultError("Provide song_id or title"), nil
	}
	return mcp.NewToolResultText(t.ctrl.SuggestTip(ctx, title, band)), nil
}
