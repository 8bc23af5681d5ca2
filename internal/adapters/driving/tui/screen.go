package tui

import tea "github.com/charmbracelet/bubbletea"

// model is the method set shared by the views. Update returns the
// receiver itself.
type model[V any] interface {
	Update(msg tea.Msg) (V, tea.Cmd)
	View() string
	SetDimensions(width, height int)
}

// screen is a view with its concrete type erased.
type screen struct {
	update func(tea.Msg) tea.Cmd
	view   func() string
	resize func(width, height int)
}

func bind[V model[V]](v V) screen {
	return screen{
		update: func(msg tea.Msg) tea.Cmd {
			_, cmd := v.Update(msg)
			return cmd
		},
		view:   v.View,
		resize: v.SetDimensions,
	}
}
