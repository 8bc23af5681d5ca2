package driven

// PromptStore serves the user-editable templates sent to the LLM.
type PromptStore interface {
	// Load returns the template called name.
	Load(name string) (string, error)

	// Reload forgets cached templates.
	Reload()
}

// Well-known prompt names.
const (
	// PromptDraft is the draft composition template. It expects two %s
	// placeholders: the job post, then the retrieved context block.
	PromptDraft = "draft"

	// PromptDraftSystem is the system instruction sent with a draft request.
	PromptDraftSystem = "draft_system"
)
