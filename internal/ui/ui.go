package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotish/internal/formatter"
	"github.com/desertthunder/spotish/internal/models"
	"github.com/desertthunder/spotish/internal/mutations"
	"github.com/desertthunder/spotish/internal/routes"
	"github.com/desertthunder/spotish/internal/search"
	"github.com/desertthunder/spotish/internal/session"
	"github.com/desertthunder/spotish/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoginView ViewState = iota
	HomeView
	PlaylistView
	TrackView
)

func (v ViewState) String() string {
	switch v {
	case HomeView:
		return "home"
	case PlaylistView:
		return "playlist"
	case TrackView:
		return "track"
	default:
		return "login"
	}
}

// Catalog reads the public track catalog.
type Catalog interface {
	Tracks(ctx context.Context) ([]models.Track, error)
	Track(ctx context.Context, id int) (*models.Track, error)
}

// Authenticator exchanges credentials for a token and the signed-in user.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, *models.User, error)
}

// Deps are the collaborators of a [Model].
type Deps struct {
	Session   *session.Manager
	History   *routes.History
	Catalog   Catalog
	Auth      Authenticator
	Mutations func() *mutations.Controller // Builds a controller for a new session
	OpenURL   func(string) error           // Defaults to [shared.OpenBrowser]
	Logger    *log.Logger
}

type pane int

const (
	tracksPane pane = iota
	playlistsPane
)

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	deps   Deps
	route  string
	view   ViewState
	width  int
	height int

	email      textinput.Model
	password   textinput.Model
	submitting bool

	filter    textinput.Model
	filtering bool
	tracks    *search.View
	name      textinput.Model
	naming    bool
	pane      pane
	cursors   map[pane]int

	ctrl     *mutations.Controller
	owner    int
	playlist int
	cursor   int
	track    *models.Track

	notice string
	err    error
	help   help.Model
	keys   keyMap

	unsubscribe func()
}

// NewModel creates a [Model]. The first view is resolved by [Model.Init].
func NewModel(ctx context.Context, deps Deps) *Model {
	if deps.OpenURL == nil {
		deps.OpenURL = shared.OpenBrowser
	}
	if deps.Logger == nil {
		deps.Logger = shared.NewLogger(nil)
	}

	m := &Model{
		ctx:      ctx,
		deps:     deps,
		email:    newInput("email", false),
		password: newInput("password", true),
		filter:   newInput("filter by title or artist", false),
		name:     newInput("playlist name", false),
		tracks:   search.NewView(nil),
		cursors:  map[pane]int{},
		help:     help.New(),
		keys:     newKeyMap(),
	}
	m.filter.Prompt = "/ "
	m.unsubscribe = deps.Session.Subscribe(m.onSession)
	return m
}

// onSession disposes the controller as soon as the session ends, before the next route sync.
func (m *Model) onSession(s models.Session) {
	if !s.Authenticated() && m.ctrl != nil {
		m.ctrl.Dispose()
	}
}

// Close stops following the session and discards playlist state.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	m.releaseController()
}

func newInput(placeholder string, secret bool) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 256
	ti.Cursor.SetMode(cursor.CursorStatic)
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return ti
}

// State returns the current [ViewState].
func (m *Model) State() ViewState { return m.view }

// Route returns the path being rendered.
func (m *Model) Route() string { return m.route }

func (m *Model) Init() tea.Cmd {
	return m.syncRoute()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.force) {
			return m, tea.Quit
		}

		switch m.view {
		case LoginView:
			cmd = m.handleLoginKeys(msg)
		case HomeView:
			cmd = m.handleHomeKeys(msg)
		case PlaylistView:
			cmd = m.handlePlaylistKeys(msg)
		case TrackView:
			cmd = m.handleTrackKeys(msg)
		}
	case Msg:
		cmd = m.handleMsg(msg)
	}

	return m, tea.Batch(cmd, m.syncRoute())
}

// syncRoute re-resolves the guarded route and enters it when it changed.
func (m *Model) syncRoute() tea.Cmd {
	path := m.deps.History.Resolve(m.deps.Session.Session())
	if path == m.route {
		return nil
	}
	m.route = path
	return m.enter(path)
}

func (m *Model) enter(path string) tea.Cmd {
	m.err = nil
	m.cursor = 0

	if path == routes.Login {
		m.view = LoginView
		m.submitting = false
		m.password.SetValue("")
		m.email.Focus()
		m.password.Blur()
		m.releaseController()
		return nil
	}

	fresh := m.ensureController()
	m.notice = ""

	if id, ok := routes.PlaylistID(path); ok {
		m.view = PlaylistView
		m.playlist = id
		return m.openPlaylist(id)
	}
	if id, ok := routes.TrackID(path); ok {
		m.view = TrackView
		m.track = nil
		return m.fetchTrack(id)
	}

	m.view = HomeView
	if fresh || m.tracks.Total() == 0 {
		return tea.Batch(m.fetchTracks(), m.fetchPlaylists())
	}
	return m.fetchPlaylists()
}

// ensureController builds a controller for the signed-in user. Reports whether a new one was created.
func (m *Model) ensureController() bool {
	var uid int
	if u := m.deps.Session.Session().User; u != nil {
		uid = u.ID
	}
	if m.ctrl != nil && m.owner == uid {
		return false
	}

	m.releaseController()
	m.ctrl = m.deps.Mutations()
	m.owner = uid
	m.cursors = map[pane]int{}
	return true
}

func (m *Model) releaseController() {
	if m.ctrl == nil {
		return
	}
	m.ctrl.Dispose()
	m.ctrl = nil
	m.owner = 0
}

// fail records err and lets the session react to authentication failures.
func (m *Model) fail(err error) {
	m.err = err
	m.notice = ""
	m.deps.Session.HandleError(err)
}

func (m *Model) navigate(path string) {
	m.deps.History.Navigate(path, false)
}

func (m *Model) back() {
	h := m.deps.History
	if !h.Back() || (h.Current() == routes.Login && m.deps.Session.Session().Authenticated()) {
		h.Navigate(routes.Home, true)
	}
	// Returning to the same route still reloads it.
	m.route = ""
}

func (m *Model) logout() {
	m.deps.Session.Logout()
	m.tracks.SetTracks(nil)
	m.filter.SetValue("")
	m.tracks.SetQuery("")
}

func (m *Model) handleMsg(msg Msg) tea.Cmd {
	if msg.ctrl != nil && msg.ctrl != m.ctrl {
		m.deps.Logger.Debug("dropping result from a disposed controller", "kind", msg.kind)
		return nil
	}

	switch msg.kind {
	case MsgLoggedIn:
		data := msg.data.(loginResult)
		m.submitting = false
		if data.err != nil {
			m.err = data.err
			m.password.SetValue("")
			return nil
		}
		if err := m.deps.Session.Login(data.token, *data.user); err != nil {
			m.err = err
			return nil
		}
		m.password.SetValue("")
	case MsgTracksFetched:
		data := msg.data.(struct {
			tracks []models.Track
			err    error
		})
		if data.err != nil {
			m.fail(data.err)
			return nil
		}
		m.tracks.SetTracks(data.tracks)
		m.clampCursors()
	case MsgTrackFetched:
		data := msg.data.(struct {
			track *models.Track
			err   error
		})
		if data.err != nil {
			m.fail(data.err)
			return nil
		}
		if m.view == TrackView {
			m.track = data.track
		}
	case MsgPlaylistsFetched:
		if err, _ := msg.data.(error); err != nil {
			m.fail(err)
			return nil
		}
		m.clampCursors()
	case MsgPlaylistOpened:
		data := msg.data.(struct {
			playlist models.Playlist
			err      error
		})
		if data.err != nil {
			m.fail(data.err)
			return nil
		}
		m.clampCursors()
	case MsgPlaylistCreated:
		data := msg.data.(struct {
			playlist models.Playlist
			err      error
		})
		if data.err != nil {
			m.fail(data.err)
			return nil
		}
		m.notice = fmt.Sprintf("Created %q", data.playlist.Name)
	case MsgTrackAdded:
		data := msg.data.(struct {
			ack mutations.Ack
			err error
		})
		if data.err != nil {
			m.fail(data.err)
			return nil
		}
		m.notice = data.ack.String()
	case MsgMutationSettled:
		data := msg.data.(mutationResult)
		if data.err != nil {
			m.deps.Logger.Debug("mutation failed", "kind", data.kind, "playlist", data.playlistID,
				"rollback_failed", errors.Is(data.err, shared.ErrRollback))
			m.fail(data.err)
			m.clampCursors()
			return nil
		}
		switch data.kind {
		case mutations.RemoveTrack:
			m.notice = "Track removed"
		case mutations.DeletePlaylist:
			m.notice = "Playlist deleted"
		}
	case MsgPreviewOpened:
		if err, _ := msg.data.(error); err != nil {
			m.err = err
		}
	}
	return nil
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case msg.Type == tea.KeyTab || msg.Type == tea.KeyShiftTab:
		if m.email.Focused() {
			m.email.Blur()
			m.password.Focus()
		} else {
			m.password.Blur()
			m.email.Focus()
		}
		return nil
	case key.Matches(msg, m.keys.enter):
		if m.email.Focused() {
			m.email.Blur()
			m.password.Focus()
			return nil
		}
		if m.submitting {
			return nil
		}
		m.submitting = true
		m.err = nil
		return m.login(m.email.Value(), m.password.Value())
	}

	var cmd tea.Cmd
	if m.email.Focused() {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return cmd
}

func (m *Model) handleHomeKeys(msg tea.KeyMsg) tea.Cmd {
	if m.filtering {
		return m.handleFilterKeys(msg)
	}
	if m.naming {
		return m.handleNameKeys(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return tea.Quit
	case key.Matches(msg, m.keys.logout):
		m.logout()
	case key.Matches(msg, m.keys.tab):
		if m.pane == tracksPane {
			m.pane = playlistsPane
		} else {
			m.pane = tracksPane
		}
	case key.Matches(msg, m.keys.up):
		m.move(-1)
	case key.Matches(msg, m.keys.down):
		m.move(1)
	case key.Matches(msg, m.keys.search):
		m.filtering = true
		m.pane = tracksPane
		m.filter.Focus()
	case key.Matches(msg, m.keys.create):
		m.naming = true
		m.name.SetValue("")
		m.name.Focus()
	case key.Matches(msg, m.keys.enter):
		if m.pane == tracksPane {
			if t, ok := m.selectedTrack(); ok {
				m.navigate(routes.TrackPath(t.ID))
			}
		} else if p, ok := m.selectedPlaylist(); ok {
			m.navigate(routes.PlaylistPath(p.ID))
		}
	case key.Matches(msg, m.keys.preview):
		if t, ok := m.selectedTrack(); ok {
			return m.preview(t)
		}
	case key.Matches(msg, m.keys.add):
		t, ok := m.selectedTrack()
		p, found := m.selectedPlaylist()
		if !ok || !found {
			m.err = shared.NewValidationError("playlist", "select a track and a playlist first")
			return nil
		}
		return m.addTrack(p.ID, t.ID)
	case key.Matches(msg, m.keys.del):
		if m.pane != playlistsPane {
			return nil
		}
		if p, ok := m.selectedPlaylist(); ok {
			return m.deletePlaylist(p.ID)
		}
	case key.Matches(msg, m.keys.reload):
		return tea.Batch(m.fetchTracks(), m.fetchPlaylists())
	}
	return nil
}

func (m *Model) handleFilterKeys(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyEnter:
		m.filtering = false
		m.filter.Blur()
		return nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.tracks.SetQuery(m.filter.Value())
	m.cursors[tracksPane] = 0
	return cmd
}

func (m *Model) handleNameKeys(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.naming = false
		m.name.Blur()
		return nil
	case tea.KeyEnter:
		m.naming = false
		m.name.Blur()
		return m.createPlaylist(m.name.Value())
	}

	var cmd tea.Cmd
	m.name, cmd = m.name.Update(msg)
	return cmd
}

func (m *Model) handlePlaylistKeys(msg tea.KeyMsg) tea.Cmd {
	tracks := m.ctrl.Collection().Tracks(m.playlist)

	switch {
	case key.Matches(msg, m.keys.quit):
		return tea.Quit
	case key.Matches(msg, m.keys.back):
		m.back()
	case key.Matches(msg, m.keys.logout):
		m.logout()
	case key.Matches(msg, m.keys.up):
		m.cursor = max(m.cursor-1, 0)
	case key.Matches(msg, m.keys.down):
		m.cursor = min(m.cursor+1, max(len(tracks)-1, 0))
	case key.Matches(msg, m.keys.enter):
		if m.cursor < len(tracks) {
			m.navigate(routes.TrackPath(tracks[m.cursor].ID))
		}
	case key.Matches(msg, m.keys.preview):
		if m.cursor < len(tracks) {
			return m.preview(tracks[m.cursor])
		}
	case key.Matches(msg, m.keys.remove):
		if m.cursor < len(tracks) {
			return m.removeTrack(m.playlist, tracks[m.cursor].ID)
		}
	case key.Matches(msg, m.keys.del):
		id := m.playlist
		cmd := m.deletePlaylist(id)
		m.back()
		return cmd
	case key.Matches(msg, m.keys.reload):
		return m.openPlaylist(m.playlist)
	}
	return nil
}

func (m *Model) handleTrackKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.quit):
		return tea.Quit
	case key.Matches(msg, m.keys.back):
		m.back()
	case key.Matches(msg, m.keys.logout):
		m.logout()
	case key.Matches(msg, m.keys.preview):
		if m.track != nil {
			return m.preview(*m.track)
		}
	}
	return nil
}

func (m *Model) move(delta int) {
	n := len(m.tracks.Results())
	if m.pane == playlistsPane {
		n = len(m.ctrl.Collection().Summaries())
	}
	m.cursors[m.pane] = min(max(m.cursors[m.pane]+delta, 0), max(n-1, 0))
}

func (m *Model) clampCursors() {
	if m.ctrl == nil {
		return
	}
	m.cursors[tracksPane] = min(m.cursors[tracksPane], max(len(m.tracks.Results())-1, 0))
	m.cursors[playlistsPane] = min(m.cursors[playlistsPane], max(len(m.ctrl.Collection().Summaries())-1, 0))
	if m.view == PlaylistView {
		m.cursor = min(m.cursor, max(len(m.ctrl.Collection().Tracks(m.playlist))-1, 0))
	}
}

func (m *Model) selectedTrack() (models.Track, bool) {
	results := m.tracks.Results()
	i := m.cursors[tracksPane]
	if i >= len(results) {
		return models.Track{}, false
	}
	return results[i], true
}

func (m *Model) selectedPlaylist() (models.PlaylistSummary, bool) {
	summaries := m.ctrl.Collection().Summaries()
	i := m.cursors[playlistsPane]
	if i >= len(summaries) {
		return models.PlaylistSummary{}, false
	}
	return summaries[i], true
}

func (m *Model) login(email, password string) tea.Cmd {
	return func() tea.Msg {
		token, user, err := m.deps.Auth.Login(m.ctx, email, password)
		return loggedInMsg(token, user, err)
	}
}

func (m *Model) fetchTracks() tea.Cmd {
	return func() tea.Msg {
		tracks, err := m.deps.Catalog.Tracks(m.ctx)
		return tracksFetchedMsg(tracks, err)
	}
}

func (m *Model) fetchTrack(id int) tea.Cmd {
	return func() tea.Msg {
		track, err := m.deps.Catalog.Track(m.ctx, id)
		return trackFetchedMsg(track, err)
	}
}

func (m *Model) fetchPlaylists() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		_, err := ctrl.Load(m.ctx)
		return playlistsFetchedMsg(err).issuedBy(ctrl)
	}
}

func (m *Model) openPlaylist(id int) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		p, err := ctrl.Open(m.ctx, id)
		return playlistOpenedMsg(p, err).issuedBy(ctrl)
	}
}

func (m *Model) createPlaylist(name string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		p, err := ctrl.Create(m.ctx, name)
		return playlistCreatedMsg(p, err).issuedBy(ctrl)
	}
}

func (m *Model) addTrack(playlistID, trackID int) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ack, err := ctrl.Add(m.ctx, playlistID, trackID)
		return trackAddedMsg(ack, err).issuedBy(ctrl)
	}
}

// removeTrack applies the removal locally before the returned command confirms it.
func (m *Model) removeTrack(playlistID, trackID int) tea.Cmd {
	confirm, err := m.ctrl.StartRemove(playlistID, trackID)
	if err != nil {
		m.err = err
		return nil
	}
	m.clampCursors()
	return m.settle(mutations.RemoveTrack, playlistID, confirm)
}

// deletePlaylist applies the deletion locally before the returned command confirms it.
func (m *Model) deletePlaylist(id int) tea.Cmd {
	confirm, err := m.ctrl.StartDelete(id)
	if err != nil {
		m.err = err
		return nil
	}
	m.clampCursors()
	return m.settle(mutations.DeletePlaylist, id, confirm)
}

func (m *Model) settle(kind mutations.Kind, playlistID int, confirm mutations.Confirm) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return mutationSettledMsg(kind, playlistID, confirm(m.ctx)).issuedBy(ctrl)
	}
}

func (m *Model) preview(t models.Track) tea.Cmd {
	if t.PreviewURL == "" {
		m.err = shared.NewValidationError("preview_url", "track has no preview")
		return nil
	}
	open := m.deps.OpenURL
	return func() tea.Msg {
		return previewOpenedMsg(open(t.PreviewURL))
	}
}

func (m *Model) View() string {
	var content string

	switch m.view {
	case LoginView:
		content = m.renderLogin()
	case HomeView:
		content = m.renderHome()
	case PlaylistView:
		content = m.renderPlaylist()
	case TrackView:
		content = m.renderTrack()
	}

	var status string
	if m.err != nil {
		status = styles.err.Render("Error: " + shared.Describe(m.err))
	} else if m.notice != "" {
		status = styles.ok.Render(m.notice)
	} else if n := m.pendingCount(); n > 0 {
		status = styles.warn.Render(fmt.Sprintf("Saving %d change(s)...", n))
	}

	return lipgloss.JoinVertical(lipgloss.Left, content, status, "", m.help.View(m.keys))
}

func (m *Model) pendingCount() int {
	if m.ctrl == nil {
		return 0
	}
	return len(m.ctrl.Pending())
}

func (m *Model) renderLogin() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Sign in"))
	b.WriteString("\n")
	b.WriteString(m.email.View() + "\n")
	b.WriteString(m.password.View() + "\n\n")
	if m.submitting {
		b.WriteString(styles.warn.Render("Signing in..."))
	} else {
		b.WriteString(styles.help.Render("tab: switch field • enter: submit • ctrl+c: quit"))
	}
	return b.String()
}

func (m *Model) renderHome() string {
	var header string
	if u := m.deps.Session.Session().User; u != nil {
		header = styles.title.Render("Signed in as " + u.Email)
	}

	results := m.tracks.Results()
	count := fmt.Sprintf("%d of %d tracks", len(results), m.tracks.Total())
	trackPane := lipgloss.JoinVertical(lipgloss.Left,
		m.filter.View(),
		styles.help.Render(count),
		renderRows(trackItems(results), m.cursors[tracksPane], m.pane == tracksPane, "No tracks match."),
	)

	summaries := m.ctrl.Collection().Summaries()
	playlistPane := lipgloss.JoinVertical(lipgloss.Left,
		styles.ok.Render("Playlists"),
		renderRows(playlistItems(summaries), m.cursors[playlistsPane], m.pane == playlistsPane, "No playlists yet."),
	)
	if m.naming {
		playlistPane = lipgloss.JoinVertical(lipgloss.Left, playlistPane, m.name.View())
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, styles.pane.Render(trackPane), styles.pane.Render(playlistPane))
	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

func (m *Model) renderPlaylist() string {
	p, ok := m.ctrl.Collection().Playlist(m.playlist)
	if !ok {
		return styles.warn.Render("Loading playlist...")
	}

	header := styles.title.Render(fmt.Sprintf("%s (%d tracks, %s)", p.Name, len(p.Tracks), formatter.FormatDuration(p.Duration())))
	return lipgloss.JoinVertical(lipgloss.Left, header, renderRows(trackItems(p.Tracks), m.cursor, true, "This playlist is empty."))
}

func (m *Model) renderTrack() string {
	if m.track == nil {
		return styles.warn.Render("Loading track...")
	}

	t := m.track
	var b strings.Builder
	b.WriteString(styles.title.Render(t.Title))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Artist:   %s\n", t.Artist.Name)
	fmt.Fprintf(&b, "Album:    %s\n", t.Album.Title)
	fmt.Fprintf(&b, "Duration: %s\n", formatter.FormatDuration(t.Duration))
	if t.PreviewURL != "" {
		fmt.Fprintf(&b, "Preview:  %s\n", t.PreviewURL)
	}
	return b.String()
}
