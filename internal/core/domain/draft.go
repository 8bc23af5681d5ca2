package domain

// Section names one of the three labelled parts of a generated draft.
type Section string

// Draft sections.
const (
	SectionCoverLetter Section = "cover_letter"
	SectionCVBullets   Section = "cv_bullets"
	SectionATSReport   Section = "ats_report"
)

// AllSections returns the sections a complete draft carries, in order.
func AllSections() []Section {
	return []Section{SectionCoverLetter, SectionCVBullets, SectionATSReport}
}

// CoverLetterPlaceholder stands in for a cover letter the model did not return.
const CoverLetterPlaceholder = "_The model did not return a cover letter section._"

// ATSReport compares job-post keywords against the retrieved prior documents.
type ATSReport struct {
	// Covered keywords appear in the retrieved context.
	Covered []string `json:"covered"`

	// Missing keywords are requested by the job post but absent from context.
	Missing []string `json:"missing"`
}

// Draft is the generation result for a job post. It is created fresh per
// request and never persisted by the core.
type Draft struct {
	// CoverLetterMarkdown is the cover letter in markdown.
	CoverLetterMarkdown string `json:"cover_letter_markdown"`

	// CVBullets are tailored CV bullet points.
	CVBullets []string `json:"cv_bullets"`

	// ATS is the keyword report.
	ATS ATSReport `json:"ats_report"`

	// Missing lists sections the model did not return; they hold
	// placeholder or empty values.
	Missing []Section `json:"missing_sections,omitempty"`

	// Partial is true when at least one section is missing.
	Partial bool `json:"partial"`

	// Sources are the retrieved chunks the draft was grounded on.
	Sources []RetrievedChunk `json:"-"`

	// Raw is the unparsed model response.
	Raw string `json:"-"`
}

// MarkMissing flags a section as missing and marks the draft partial.
// Flagging the same section twice has no further effect.
func (d *Draft) MarkMissing(s Section) {
	for _, m := range d.Missing {
		if m == s {
			return
		}
	}
	d.Missing = append(d.Missing, s)
	d.Partial = true
}

// IsMissing reports whether a section was flagged as missing.
func (d *Draft) IsMissing(s Section) bool {
	for _, m := range d.Missing {
		if m == s {
			return true
		}
	}
	return false
}

// IngestResult reports the outcome of ingesting one document.
type IngestResult struct {
	// DocumentID is the doc_id the chunks were stored under.
	DocumentID string `json:"doc_id"`

	// ChunksAdded is the number of chunk records submitted to storage.
	ChunksAdded int `json:"added"`
}

// FileError records a single failed file during bulk ingestion.
type FileError struct {
	Path string
	Err  error
}

// BulkResult summarises a directory ingestion.
type BulkResult struct {
	// Files is the number of files ingested successfully.
	Files int

	// Chunks is the total number of chunks added.
	Chunks int

	// Failed lists files that could not be ingested.
	Failed []FileError
}
