package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/franz/setlist/internal/audio"
	"github.com/franz/setlist/internal/model"
	"github.com/franz/setlist/internal/setlist"
	"github.com/franz/setlist/internal/util"
)

type healthResponse struct {
	Status    string `json:"status"`
	Locations int    `json:"locations"`
	Songs     int    `json:"songs"`
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Locations: len(s.ctrl.Locations()),
		Songs:     len(s.ctrl.Songs()),
	})
}

type stateResponse struct {
	View           setlist.View     `json:"view"`
	ActiveLocation *model.Location  `json:"activeLocation,omitempty"`
	EditingID      string           `json:"editingId,omitempty"`
	StyleFilter    string           `json:"styleFilter,omitempty"`
	Search         string           `json:"q,omitempty"`
	Busy           bool             `json:"busy"`
	Ordering       []string         `json:"ordering,omitempty"`
	Form           *model.SongInput `json:"form,omitempty"`
}

func (s *Server) stateView() stateResponse {
	st := s.ctrl.State()
	return stateResponse{
		View:           st.View,
		ActiveLocation: st.ActiveLocation,
		EditingID:      st.EditingID,
		StyleFilter:    st.StyleFilter,
		Search:         st.Search,
		Busy:           st.Busy,
		Ordering:       s.ctrl.Ordering(),
	}
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stateView())
}

// postView applies a view transition and answers with the new state
func (s *Server) postView(transition func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := transition(); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.stateView())
	}
}

func (s *Server) postViewEdit(w http.ResponseWriter, r *http.Request) {
	form, err := s.ctrl.BeginEdit(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	st := s.stateView()
	st.Form = &form
	writeJSON(w, http.StatusOK, st)
}

type locationResponse struct {
	model.Location
	Songs  int  `json:"songs"`
	Active bool `json:"active"`
}

func (s *Server) locationView(loc model.Location) locationResponse {
	active, ok := s.ctrl.ActiveLocation()
	return locationResponse{
		Location: loc,
		Songs:    s.ctrl.SongCount(loc.ID),
		Active:   ok && active.ID == loc.ID,
	}
}

func (s *Server) getLocations(w http.ResponseWriter, r *http.Request) {
	locations := s.ctrl.Locations()
	out := make([]locationResponse, 0, len(locations))
	for _, loc := range locations {
		out = append(out, s.locationView(loc))
	}
	writeJSON(w, http.StatusOK, out)
}

type locationRequest struct {
	Name string `json:"name"`
}

func (s *Server) postLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	loc, err := s.ctrl.CreateLocation(req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.locationView(loc))
}

func (s *Server) deleteLocation(w http.ResponseWriter, r *http.Request) {
	confirm := newConfirmation(r)
	ok, err := s.ctrl.DeleteLocation(chi.URLParam(r, "id"), confirm)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		confirm.refuse(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) postSelectLocation(w http.ResponseWriter, r *http.Request) {
	id, err := s.ctrl.SelectLocation(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	loc, err := s.ctrl.Location(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.locationView(loc))
}

// songResponse leaves the audio payload out; it is served from /songs/{id}/audio
type songResponse struct {
	ID           string `json:"id"`
	LocationID   string `json:"locationId"`
	Title        string `json:"title"`
	Key          string `json:"key"`
	Band         string `json:"band"`
	Style        string `json:"style"`
	Observations string `json:"observations"`
	HasAudio     bool   `json:"hasAudio"`
	CreatedAt    int64  `json:"createdAt"`
}

func songView(song model.Song) songResponse {
	return songResponse{
		ID:           song.ID,
		LocationID:   song.LocationID,
		Title:        song.Title,
		Key:          song.Key,
		Band:         song.Band,
		Style:        song.Style,
		Observations: song.Observations,
		HasAudio:     song.HasAudio(),
		CreatedAt:    song.CreatedAt,
	}
}

func songViews(songs []model.Song) []songResponse {
	out := make([]songResponse, 0, len(songs))
	for _, song := range songs {
		out = append(out, songView(song))
	}
	return out
}

func (s *Server) getSongs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	songs, err := s.ctrl.Find(q.Get("style"), q.Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, songViews(songs))
}

func (s *Server) getSong(w http.ResponseWriter, r *http.Request) {
	song, err := s.ctrl.Song(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, songView(song))
}

// decodeSong reads a song body and rejects audio that is not a data URL
func decodeSong(r *http.Request) (model.SongInput, error) {
	var in model.SongInput
	if err := decodeBody(r, &in); err != nil {
		return in, err
	}
	if in.AudioNote != "" {
		if _, err := audio.Decode(in.AudioNote); err != nil {
			return in, fmt.Errorf("%w: audioNote: %v", util.ErrValidation, err)
		}
	}
	return in, nil
}

func (s *Server) postSong(w http.ResponseWriter, r *http.Request) {
	in, err := decodeSong(r)
	if err != nil {
		writeError(w, err)
		return
	}
	song, err := s.ctrl.AddSong(in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, songView(song))
}

func (s *Server) putSong(w http.ResponseWriter, r *http.Request) {
	in, err := decodeSong(r)
	if err != nil {
		writeError(w, err)
		return
	}
	song, err := s.ctrl.EditSong(chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, songView(song))
}

func (s *Server) deleteSong(w http.ResponseWriter, r *http.Request) {
	confirm := newConfirmation(r)
	ok, err := s.ctrl.RemoveSong(chi.URLParam(r, "id"), confirm)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		confirm.refuse(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getSongAudio(w http.ResponseWriter, r *http.Request) {
	song, err := s.ctrl.Song(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !song.HasAudio() {
		writeError(w, fmt.Errorf("audio note for %s: %w", song.ID, util.ErrNotFound))
		return
	}
	note, err := audio.Decode(song.AudioNote)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", note.MIME)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("inline; filename=%q", song.ID+note.Extension()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(note.Data); err != nil {
		util.DebugLog("server: write audio: %v", err)
	}
}

type styleResponse struct {
	Name  string `json:"name"`
	Songs int    `json:"songs"`
}

func (s *Server) getStyles(w http.ResponseWriter, r *http.Request) {
	styles := s.ctrl.Styles()
	out := make([]styleResponse, 0, len(styles))
	for _, name := range styles {
		out = append(out, styleResponse{Name: name, Songs: s.ctrl.StyleUsage(name)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) deleteStyle(w http.ResponseWriter, r *http.Request) {
	confirm := newConfirmation(r)
	ok, err := s.ctrl.DeleteStyle(chi.URLParam(r, "name"), confirm)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		confirm.refuse(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type orderRequest struct {
	Style  string `json:"style"`
	Search string `json:"q"`
}

type orderResponse struct {
	Titles []string       `json:"titles"`
	Songs  []songResponse `json:"songs"`
}

// postSuggestOrder orders the filtered view; an empty body orders the whole location
func (s *Server) postSuggestOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}
	titles, err := s.ctrl.SuggestOrderFor(r.Context(), req.Style, req.Search)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{
		Titles: titles,
		Songs:  songViews(s.ctrl.OrderedSongs()),
	})
}

type tipRequest struct {
	SongID string `json:"songId"`
	Title  string `json:"title"`
	Band   string `json:"band"`
}

type tipResponse struct {
	Title string `json:"title"`
	Tip   string `json:"tip"`
}

func (s *Server) postSuggestTip(w http.ResponseWriter, r *http.Request) {
	var req tipRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.SongID != "" {
		song, err := s.ctrl.Song(req.SongID)
		if err != nil {
			writeError(w, err)
			return
		}
		req.Title, req.Band = song.Title, song.Band
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, fmt.Errorf("%w: missing title or songId", util.ErrValidation))
		return
	}
	writeJSON(w, http.StatusOK, tipResponse{
		Title: req.Title,
		Tip:   s.ctrl.SuggestTip(r.Context(), req.Title, req.Band),
	})
}
