package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/promptdj/internal/models"
	"github.com/desertthunder/promptdj/internal/recommend"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	run  *resolveRun
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgStageUpdate MsgKind = iota
	MsgResolved
)

// stageUpdateMsg is the constructor for [MsgStageUpdate]
func stageUpdateMsg(run *resolveRun, update recommend.StageUpdate) Msg {
	return Msg{kind: MsgStageUpdate, run: run, data: update}
}

// resolvedMsg is the constructor for [MsgResolved]
func resolvedMsg(run *resolveRun, res *models.ResolutionResult) Msg {
	return Msg{kind: MsgResolved, run: run, data: res}
}
