package mcpserver

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/franz/setlist/internal/assist"
	"github.com/franz/setlist/internal/setlist"
	"github.com/franz/setlist/internal/store"
)

type fakeGenerator struct {
	reply string
}

func (f *fakeGenerator) Generate(ctx context.Context, modelName, prompt string) (string, error) {
	return f.reply, nil
}

func newTestTools(t *testing.T, reply string) (*Tools, *setlist.Controller) {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "setlist.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctrl := setlist.New(store.NewKV(db), setlist.Options{
		Assistant: assist.New(&fakeGenerator{reply: reply}, "test-model", time.Second),
	})
	return NewTools(ctrl), ctrl
}

type handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func call(t *testing.T, h handler, args map[string]any) (string, bool) {
	t.Helper()

	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content %T", res.Content[0])
	}
	return text.Text, res.IsError
}

func TestListAndSelectLocations(t *testing.T) {
	tools, ctrl := newTestTools(t, "")

	text, isErr := call(t, tools.listLocationsHandler, nil)
	if isErr || text != "No locations yet." {
		t.Fatalf("unexpected empty listing: %q", text)
	}

	first, err := ctrl.CreateLocation("Blue Note")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ctrl.CreateLocation("Jazz Cellar"); err != nil {
		t.Fatal(err)
	}

	text, isErr = call(t, tools.selectLocationHandler, map[string]any{"id": first.ID})
	if isErr || !strings.Contains(text, "Blue Note") {
		t.Fatalf("select failed: %q", text)
	}

	text, _ = call(t, tools.listLocationsHandler, nil)
	if !strings.Contains(text, "* "+first.ID) {
		t.Fatalf("active location not marked: %q", text)
	}
	if !strings.Contains(text, "Jazz Cellar (0 songs)") {
		t.Fatalf("missing second location: %q", text)
	}

	if _, isErr := call(t, tools.selectLocationHandler, map[string]any{"id": "missing"}); !isErr {
		t.Fatal("selecting an unknown location should fail")
	}
	if _, isErr := call(t, tools.selectLocationHandler, map[string]any{}); !isErr {
		t.Fatal("empty id should fail")
	}
}

func TestAddAndListSongs(t *testing.T) {
	tools, ctrl := newTestTools(t, "")

	song := map[string]any{"title": "Wonderwall", "key": "F#m", "band": "Oasis", "style": "Britpop"}

	text, isErr := call(t, tools.addSongHandler, song)
	if !isErr || !strings.Contains(text, "select_location") {
		t.Fatalf("adding without a location should point to select_location: %q", text)
	}

	if _, err := ctrl.CreateLocation("Blue Note"); err != nil {
		t.Fatal(err)
	}

	if _, isErr := call(t, tools.addSongHandler, map[string]any{"title": "Incomplete"}); !isErr {
		t.Fatal("missing fields should fail")
	}

	text, isErr = call(t, tools.addSongHandler, song)
	if isErr || !strings.Contains(text, "Wonderwall") {
		t.Fatalf("add failed: %q", text)
	}
	if !containsStyle(ctrl.Styles(), "Britpop") {
		t.Fatal("new style should be registered")
	}

	text, _ = call(t, tools.listSongsHandler, map[string]any{"query": "oas"})
	if !strings.Contains(text, "1. Wonderwall - Oasis [F#m, Britpop]") {
		t.Fatalf("unexpected listing: %q", text)
	}

	text, _ = call(t, tools.listSongsHandler, map[string]any{"style": "MPB"})
	if text != "No songs match." {
		t.Fatalf("style filter should exclude the song: %q", text)
	}
}

func containsStyle(styles []string, name string) bool {
	for _, s := range styles {
		if s == name {
			return true
		}
	}
	return false
}

func TestSuggestOrderTool(t *testing.T) {
	tools, ctrl := newTestTools(t, "1. Creep\n2. Wonderwall")

	if _, err := ctrl.CreateLocation("Blue Note"); err != nil {
		t.Fatal(err)
	}
	for _, title := range []string{"Wonderwall", "Creep"} {
		call(t, tools.addSongHandler, map[string]any{"title": title, "key": "C", "band": "Band", "style": "Rock"})
		if title == "Wonderwall" {
			text, isErr := call(t, tools.suggestOrderHandler, nil)
			if !isErr || !strings.Contains(text, "two songs") {
				t.Fatalf("one song should be too few: %q", text)
			}
		}
	}

	text, isErr := call(t, tools.suggestOrderHandler, nil)
	if isErr {
		t.Fatalf("suggest failed: %q", text)
	}
	if text != "1. Creep\n2. Wonderwall\n" {
		t.Fatalf("unexpected order: %q", text)
	}
}

func TestSuggestTipTool(t *testing.T) {
	tools, ctrl := newTestTools(t, "Slow the bridge down.")

	if _, err := ctrl.CreateLocation("Blue Note"); err != nil {
		t.Fatal(err)
	}

	text, isErr := call(t, tools.suggestTipHandler, map[string]any{"title": "Creep", "band": "Radiohead"})
	if isErr || text != "Slow the bridge down." {
		t.Fatalf("unexpected tip: %q", text)
	}

	if _, isErr := call(t, tools.suggestTipHandler, map[string]any{}); !isErr {
		t.Fatal("missing title should fail")
	}
	if _, isErr := call(t, tools.suggestTipHandler, map[string]any{"song_id": "missing"}); !isErr {
		t.Fatal("unknown song should fail")
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	_, ctrl := newTestTools(t, "")
	if s := NewServer(ctrl, "test"); s == nil {
		t.Fatal("expected a server")
	}
}
