package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/franz/setlist/internal/assist"
	"github.com/franz/setlist/internal/audio"
	"github.com/franz/setlist/internal/setlist"
	"github.com/franz/setlist/internal/store"
)

type fakeGenerator struct {
	reply string
}

func (f *fakeGenerator) Generate(ctx context.Context, modelName, prompt string) (string, error) {
	return f.reply, nil
}

func newTestServer(t *testing.T, reply string) (*Server, *setlist.Controller) {
	t.Helper()
	return newTestServerWith(t, &fakeGenerator{reply: reply})
}

func newTestServerWith(t *testing.T, gen assist.Generator) (*Server, *setlist.Controller) {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "setlist.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctrl := setlist.New(store.NewKV(db), setlist.Options{
		Assistant: assist.New(gen, "test-model", time.Second),
	})
	return New(ctrl), ctrl
}

func do(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func createLocation(t *testing.T, s *Server, name string) locationResponse {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/locations", map[string]string{"name": name})
	expectStatus(t, rec, http.StatusCreated)
	return decode[locationResponse](t, rec)
}

func createSong(t *testing.T, s *Server, body map[string]string) songResponse {
	t.Helper()
	defaults := map[string]string{"key": "C", "band": "House Band", "style": "Pop"}
	for k, v := range defaults {
		if _, ok := body[k]; !ok {
			body[k] = v
		}
	}
	rec := do(t, s, http.MethodPost, "/songs", body)
	expectStatus(t, rec, http.StatusCreated)
	return decode[songResponse](t, rec)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, "")

	rec := do(t, s, http.MethodGet, "/health", nil)
	expectStatus(t, rec, http.StatusOK)

	got := decode[healthResponse](t, rec)
	if got.Status != "ok" || got.Locations != 0 || got.Songs != 0 {
		t.Fatalf("unexpected health: %+v", got)
	}
}

func TestLocationLifecycle(t *testing.T) {
	s, _ := newTestServer(t, "")

	first := createLocation(t, s, "Blue Note")
	if !first.Active {
		t.Fatal("a new location should become active")
	}
	second := createLocation(t, s, "Jazz Cellar")

	rec := do(t, s, http.MethodPost, "/locations/"+first.ID+"/select", nil)
	expectStatus(t, rec, http.StatusOK)

	rec = do(t, s, http.MethodGet, "/locations", nil)
	expectStatus(t, rec, http.StatusOK)
	list := decode[[]locationResponse](t, rec)
	if len(list) != 2 {
		t.Fatalf("expected 2 locations, got %d", len(list))
	}
	if !list[0].Active || list[1].Active {
		t.Fatalf("expected only %s active: %+v", first.ID, list)
	}

	rec = do(t, s, http.MethodPost, "/locations/missing/select", nil)
	expectStatus(t, rec, http.StatusNotFound)

	rec = do(t, s, http.MethodPost, "/locations", map[string]string{"name": "  "})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = do(t, s, http.MethodDelete, "/locations/"+second.ID+"?confirm=true", nil)
	expectStatus(t, rec, http.StatusNoContent)
}

func TestDeleteLocationRequiresConfirmation(t *testing.T) {
	s, ctrl := newTestServer(t, "")

	loc := createLocation(t, s, "Blue Note")
	createSong(t, s, map[string]string{"title": "Wonderwall", "band": "Oasis"})

	rec := do(t, s, http.MethodDelete, "/locations/"+loc.ID, nil)
	expectStatus(t, rec, http.StatusConflict)
	body := decode[errorBody](t, rec)
	if !strings.Contains(body.Message, "1 song") {
		t.Fatalf("expected the cascade warning, got %q", body.Message)
	}
	if len(ctrl.Locations()) != 1 || len(ctrl.Songs()) != 1 {
		t.Fatal("declined delete must not change anything")
	}

	rec = do(t, s, http.MethodDelete, "/locations/"+loc.ID+"?confirm=true", nil)
	expectStatus(t, rec, http.StatusNoContent)
	if len(ctrl.Locations()) != 0 || len(ctrl.Songs()) != 0 {
		t.Fatal("confirmed delete must cascade to songs")
	}
}

func TestSongsRequireLocation(t *testing.T) {
	s, _ := newTestServer(t, "")

	rec := do(t, s, http.MethodPost, "/songs", map[string]string{
		"title": "Wonderwall", "key": "F#m", "band": "Oasis", "style": "Rock",
	})
	expectStatus(t, rec, http.StatusConflict)

	rec = do(t, s, http.MethodGet, "/songs", nil)
	expectStatus(t, rec, http.StatusConflict)
}

func TestSongCRUD(t *testing.T) {
	s, ctrl := newTestServer(t, "")
	createLocation(t, s, "Blue Note")

	rec := do(t, s, http.MethodPost, "/songs", map[string]string{"title": " "})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = do(t, s, http.MethodPost, "/songs", map[string]string{"title": "X", "audioNote": "not a data url"})
	expectStatus(t, rec, http.StatusBadRequest)

	wonderwall := createSong(t, s, map[string]string{"title": "Wonderwall", "band": "Oasis", "style": "Rock"})
	createSong(t, s, map[string]string{"title": "Garota de Ipanema", "band": "Jobim", "newStyle": "Bossa"})

	rec = do(t, s, http.MethodGet, "/songs?q=oas", nil)
	expectStatus(t, rec, http.StatusOK)
	found := decode[[]songResponse](t, rec)
	if len(found) != 1 || found[0].ID != wonderwall.ID {
		t.Fatalf("search should find only Wonderwall: %+v", found)
	}

	rec = do(t, s, http.MethodGet, "/songs?style=Bossa", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[[]songResponse](t, rec); len(got) != 1 || got[0].Title != "Garota de Ipanema" {
		t.Fatalf("style filter mismatch: %+v", got)
	}

	// the stateless query leaves the session filter alone
	if st := ctrl.State(); st.Search != "" || st.StyleFilter != "" {
		t.Fatalf("session filter changed: %+v", st)
	}

	rec = do(t, s, http.MethodPut, "/songs/"+wonderwall.ID, map[string]string{
		"title": "Wonderwall", "band": "Oasis", "key": "F#m", "style": "Rock",
	})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[songResponse](t, rec); got.Key != "F#m" || got.CreatedAt != wonderwall.CreatedAt {
		t.Fatalf("edit mismatch: %+v", got)
	}

	rec = do(t, s, http.MethodGet, "/songs/"+wonderwall.ID, nil)
	expectStatus(t, rec, http.StatusOK)

	rec = do(t, s, http.MethodDelete, "/songs/"+wonderwall.ID, nil)
	expectStatus(t, rec, http.StatusConflict)

	rec = do(t, s, http.MethodDelete, "/songs/"+wonderwall.ID+"?confirm=true", nil)
	expectStatus(t, rec, http.StatusNoContent)

	rec = do(t, s, http.MethodGet, "/songs/"+wonderwall.ID, nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestSongAudio(t *testing.T) {
	s, _ := newTestServer(t, "")
	createLocation(t, s, "Blue Note")

	note := audio.Note{MIME: "audio/webm", Data: []byte{0x1a, 0x45, 0xdf, 0xa3, 1, 2, 3}}
	withAudio := createSong(t, s, map[string]string{"title": "Hummed", "audioNote": note.URL()})
	silent := createSong(t, s, map[string]string{"title": "Silent"})

	if !withAudio.HasAudio || silent.HasAudio {
		t.Fatalf("hasAudio mismatch: %+v %+v", withAudio, silent)
	}

	rec := do(t, s, http.MethodGet, "/songs/"+withAudio.ID+"/audio", nil)
	expectStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "audio/webm" {
		t.Fatalf("expected audio/webm, got %q", ct)
	}
	if !bytes.Equal(rec.Body.Bytes(), note.Data) {
		t.Fatalf("audio payload mismatch: %v", rec.Body.Bytes())
	}

	rec = do(t, s, http.MethodGet, "/songs/"+silent.ID+"/audio", nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestStyles(t *testing.T) {
	s, ctrl := newTestServer(t, "")
	createLocation(t, s, "Blue Note")
	song := createSong(t, s, map[string]string{"title": "Garota de Ipanema", "newStyle": "Bossa"})

	rec := do(t, s, http.MethodGet, "/styles", nil)
	expectStatus(t, rec, http.StatusOK)
	styles := decode[[]styleResponse](t, rec)
	usage := map[string]int{}
	for _, st := range styles {
		usage[st.Name] = st.Songs
	}
	if n, ok := usage["Bossa"]; !ok || n != 1 {
		t.Fatalf("expected Bossa used once: %+v", styles)
	}

	rec = do(t, s, http.MethodDelete, "/styles/Bossa", nil)
	expectStatus(t, rec, http.StatusConflict)

	rec = do(t, s, http.MethodDelete, "/styles/Bossa?confirm=true", nil)
	expectStatus(t, rec, http.StatusNoContent)

	got, err := ctrl.Song(song.ID)
	if err != nil {
		t.Fatalf("song: %v", err)
	}
	if got.Style == "Bossa" {
		t.Fatal("songs of a deleted style must be reassigned")
	}

	rec = do(t, s, http.MethodDelete, "/styles/Nope?confirm=true", nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestSuggestOrder(t *testing.T) {
	s, _ := newTestServer(t, "1. Wonderwall\n2. Creep")
	createLocation(t, s, "Blue Note")

	createSong(t, s, map[string]string{"title": "Wonderwall"})

	rec := do(t, s, http.MethodPost, "/suggest/order", nil)
	expectStatus(t, rec, http.StatusUnprocessableEntity)

	createSong(t, s, map[string]string{"title": "Creep"})

	rec = do(t, s, http.MethodPost, "/suggest/order", nil)
	expectStatus(t, rec, http.StatusOK)
	got := decode[orderResponse](t, rec)
	if len(got.Titles) != 2 || got.Titles[0] != "Wonderwall" || got.Titles[1] != "Creep" {
		t.Fatalf("unexpected titles: %v", got.Titles)
	}
	if len(got.Songs) != 2 || got.Songs[0].Title != "Wonderwall" {
		t.Fatalf("unexpected ordered songs: %+v", got.Songs)
	}

	rec = do(t, s, http.MethodGet, "/state", nil)
	expectStatus(t, rec, http.StatusOK)
	if st := decode[stateResponse](t, rec); st.View != setlist.ViewAISetlist || len(st.Ordering) != 2 {
		t.Fatalf("unexpected state: %+v", st)
	}
}

// slowGenerator answers after a delay unless its context ends first
type slowGenerator struct {
	reply string
	delay time.Duration
}

func (g *slowGenerator) Generate(ctx context.Context, modelName, prompt string) (string, error) {
	select {
	case <-time.After(g.delay):
		return g.reply, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestSuggestOrderOutlivesClientDisconnect(t *testing.T) {
	s, ctrl := newTestServerWith(t, &slowGenerator{reply: "Wonderwall\nCreep", delay: 100 * time.Millisecond})
	createLocation(t, s, "Blue Note")
	createSong(t, s, map[string]string{"title": "Wonderwall"})
	createSong(t, s, map[string]string{"title": "Creep"})

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/suggest/order", nil).WithContext(ctx)
	time.AfterFunc(20*time.Millisecond, cancel)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusOK)

	want := []string{"Wonderwall", "Creep"}
	if got := ctrl.Ordering(); len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected the model's order %v, got %v", want, got)
	}
}

func TestSuggestOrderRefusalKeepsFilter(t *testing.T) {
	s, _ := newTestServer(t, "1. Wonderwall\n2. Creep")
	createLocation(t, s, "Blue Note")
	createSong(t, s, map[string]string{"title": "Wonderwall"})
	createSong(t, s, map[string]string{"title": "Creep"})
	createSong(t, s, map[string]string{"title": "Aquarela", "style": "MPB"})

	rec := do(t, s, http.MethodPost, "/suggest/order", map[string]string{"style": "MPB"})
	expectStatus(t, rec, http.StatusUnprocessableEntity)

	rec = do(t, s, http.MethodGet, "/state", nil)
	if st := decode[stateResponse](t, rec); st.StyleFilter != "" || st.Search != "" {
		t.Fatalf("refused request changed the filter: %+v", st)
	}

	rec = do(t, s, http.MethodPost, "/suggest/order", map[string]string{"style": "Pop"})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[orderResponse](t, rec); len(got.Songs) != 2 {
		t.Fatalf("unexpected ordered songs: %+v", got.Songs)
	}

	rec = do(t, s, http.MethodGet, "/state", nil)
	if st := decode[stateResponse](t, rec); st.StyleFilter != "Pop" || st.View != setlist.ViewAISetlist {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestSuggestTip(t *testing.T) {
	s, _ := newTestServer(t, "Open with it while the room fills.")
	createLocation(t, s, "Blue Note")
	song := createSong(t, s, map[string]string{"title": "Wonderwall", "band": "Oasis"})

	rec := do(t, s, http.MethodPost, "/suggest/tip", map[string]string{"songId": song.ID})
	expectStatus(t, rec, http.StatusOK)
	got := decode[tipResponse](t, rec)
	if got.Title != "Wonderwall" || got.Tip == "" {
		t.Fatalf("unexpected tip: %+v", got)
	}

	rec = do(t, s, http.MethodPost, "/suggest/tip", map[string]string{})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = do(t, s, http.MethodPost, "/suggest/tip", map[string]string{"songId": "missing"})
	expectStatus(t, rec, http.StatusNotFound)
}

func TestViewTransitions(t *testing.T) {
	s, _ := newTestServer(t, "")
	createLocation(t, s, "Blue Note")
	song := createSong(t, s, map[string]string{"title": "Wonderwall"})

	rec := do(t, s, http.MethodPost, "/view/add", nil)
	expectStatus(t, rec, http.StatusOK)
	if st := decode[stateResponse](t, rec); st.View != setlist.ViewAdd {
		t.Fatalf("expected add view, got %s", st.View)
	}
	expectStatus(t, do(t, s, http.MethodPost, "/view/add", nil), http.StatusConflict)
	expectStatus(t, do(t, s, http.MethodPost, "/view/cancel", nil), http.StatusOK)

	rec = do(t, s, http.MethodPost, "/view/edit/"+song.ID, nil)
	expectStatus(t, rec, http.StatusOK)
	st := decode[stateResponse](t, rec)
	if st.View != setlist.ViewEdit || st.EditingID != song.ID {
		t.Fatalf("unexpected edit state: %+v", st)
	}
	if st.Form == nil || st.Form.Title != "Wonderwall" {
		t.Fatalf("edit form not prefilled: %+v", st.Form)
	}
	expectStatus(t, do(t, s, http.MethodPost, "/view/cancel", nil), http.StatusOK)

	expectStatus(t, do(t, s, http.MethodPost, "/view/back", nil), http.StatusConflict)
	expectStatus(t, do(t, s, http.MethodPost, "/view/edit/missing", nil), http.StatusNotFound)

	expectStatus(t, do(t, s, http.MethodPost, "/view/locations", nil), http.StatusOK)
	rec = do(t, s, http.MethodGet, "/state", nil)
	expectStatus(t, rec, http.StatusOK)
	st = decode[stateResponse](t, rec)
	if st.View != setlist.ViewLocations || st.ActiveLocation == nil {
		t.Fatalf("expected the directory with the selection kept: %+v", st)
	}
}

func TestInvalidJSON(t *testing.T) {
	s, _ := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/locations", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestWatcherDebouncesStoreWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "setlist.db")

	var calls atomic.Int32
	changed := make(chan struct{}, 8)
	w, err := NewWatcher(path, 50*time.Millisecond, func() {
		calls.Add(1)
		changed <- struct{}{}
	})
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path+"-wal", []byte{byte(i)}, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a reload after store writes")
	}

	time.Sleep(200 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected one debounced reload, got %d", n)
	}
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "setlist.db"), time.Millisecond, func() {})
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
