package session

import (
	"strings"

	"github.com/muesli/reflow/wordwrap"
)

// RenderMode selects how a snapshot is presented.
type RenderMode int

const (
	// RenderHuman echoes the command and wraps paragraphs for a terminal.
	RenderHuman RenderMode = iota
	// RenderText is the unwrapped machine-readable text form.
	RenderText
	// RenderSilent produces no output.
	RenderSilent
)

const renderWidth = 80

// Render presents a snapshot in the given mode. It is a pure function of the
// snapshot.
func Render(st *GameState, mode RenderMode) string {
	if st == nil || mode == RenderSilent {
		return ""
	}

	msg := strings.TrimRight(st.Feedback(), " \t\n") + "\n"
	if st.Command() != "" {
		msg = "> " + st.Command() + "\n" + msg
	}

	if mode == RenderHuman {
		paragraphs := strings.Split(msg, "\n")
		for i, p := range paragraphs {
			paragraphs[i] = wordwrap.String(p, renderWidth)
		}
		msg = strings.Join(paragraphs, "\n")
	}
	return msg
}
