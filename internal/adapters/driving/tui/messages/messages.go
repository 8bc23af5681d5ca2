// Package messages holds the tea.Msg values passed between the TUI views.
package messages

import (
	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driving"
)

// ViewType names a screen. The zero value is the menu.
type ViewType int

const (
	ViewMenu ViewType = iota
	ViewSearch
	ViewDocuments
	ViewDocContent
	ViewDocDetails
	ViewDraft
	ViewHelp
)

var viewNames = [...]string{
	ViewMenu:       "menu",
	ViewSearch:     "search",
	ViewDocuments:  "documents",
	ViewDocContent: "doc_content",
	ViewDocDetails: "doc_details",
	ViewDraft:      "draft",
	ViewHelp:       "help",
}

func (v ViewType) String() string {
	if v < 0 || int(v) >= len(viewNames) {
		return "unknown"
	}
	return viewNames[v]
}

// ViewChanged asks the app to switch screens.
type ViewChanged struct {
	View ViewType
}

// RetrievalCompleted answers a search query.
type RetrievalCompleted struct {
	Query   string
	Results []domain.RetrievedChunk
	Err     error
}

// DraftCompleted answers a compose request. Draft may be partial.
type DraftCompleted struct {
	Draft *domain.Draft
	Err   error
}

type DocumentsLoaded struct {
	Documents []domain.Document
	Err       error
}

// DocumentSelected opens a document in the content view.
type DocumentSelected struct {
	Document domain.Document
}

type DocumentContentLoaded struct {
	DocumentID string
	Content    string
	Err        error
}

type DocumentDetailsLoaded struct {
	DocumentID string
	Details    *driving.DocumentDetails
	Err        error
}

// DocumentDeleted reports removal of a document with its chunks and index entries.
type DocumentDeleted struct {
	DocumentID string
	Err        error
}

// ErrorOccurred surfaces a failure in the active view's status line.
type ErrorOccurred struct {
	Err error
}

type Quit struct{}
