package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotish/internal/models"
	"github.com/desertthunder/spotish/internal/mutations"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
	ctrl *mutations.Controller // Set on results of controller calls
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgLoggedIn MsgKind = iota
	MsgTracksFetched
	MsgTrackFetched
	MsgPlaylistsFetched
	MsgPlaylistOpened
	MsgPlaylistCreated
	MsgTrackAdded
	MsgMutationSettled
	MsgPreviewOpened
)

type loginResult struct {
	token string
	user  *models.User
	err   error
}

type mutationResult struct {
	kind       mutations.Kind
	playlistID int
	err        error
}

// loggedInMsg is the constructor for [MsgLoggedIn]
func loggedInMsg(token string, user *models.User, err error) Msg {
	return Msg{kind: MsgLoggedIn, data: loginResult{token, user, err}}
}

// tracksFetchedMsg is the constructor for [MsgTracksFetched]
func tracksFetchedMsg(tracks []models.Track, err error) Msg {
	return Msg{
		kind: MsgTracksFetched,
		data: struct {
			tracks []models.Track
			err    error
		}{tracks, err},
	}
}

// trackFetchedMsg is the constructor for [MsgTrackFetched]
func trackFetchedMsg(track *models.Track, err error) Msg {
	return Msg{
		kind: MsgTrackFetched,
		data: struct {
			track *models.Track
			err   error
		}{track, err},
	}
}

// playlistsFetchedMsg is the constructor for [MsgPlaylistsFetched]
func playlistsFetchedMsg(err error) Msg {
	return Msg{kind: MsgPlaylistsFetched, data: err}
}

// playlistOpenedMsg is the constructor for [MsgPlaylistOpened]
func playlistOpenedMsg(playlist models.Playlist, err error) Msg {
	return Msg{
		kind: MsgPlaylistOpened,
		data: struct {
			playlist models.Playlist
			err      error
		}{playlist, err},
	}
}

// playlistCreatedMsg is the constructor for [MsgPlaylistCreated]
func playlistCreatedMsg(playlist models.Playlist, err error) Msg {
	return Msg{
		kind: MsgPlaylistCreated,
		data: struct {
			playlist models.Playlist
			err      error
		}{playlist, err},
	}
}

// trackAddedMsg is the constructor for [MsgTrackAdded]
func trackAddedMsg(ack mutations.Ack, err error) Msg {
	return Msg{
		kind: MsgTrackAdded,
		data: struct {
			ack mutations.Ack
			err error
		}{ack, err},
	}
}

// mutationSettledMsg is the constructor for [MsgMutationSettled]
func mutationSettledMsg(kind mutations.Kind, playlistID int, err error) Msg {
	return Msg{kind: MsgMutationSettled, data: mutationResult{kind, playlistID, err}}
}

// issuedBy tags msg with the controller whose call produced it.
func (msg Msg) issuedBy(ctrl *mutations.Controller) Msg {
	msg.ctrl = ctrl
	return msg
}

// previewOpenedMsg is the constructor for [MsgPreviewOpened]
func previewOpenedMsg(err error) Msg {
	return Msg{kind: MsgPreviewOpened, data: err}
}
