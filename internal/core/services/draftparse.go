package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/qpro/internal/core/domain"
)

// Accepted JSON keys per section, canonical name first.
var (
	coverLetterKeys = []string{"cover_letter_markdown", "cover_letter"}
	cvBulletKeys    = []string{"cv_bullets", "bullets"}
	atsKeys         = []string{"ats_report", "ats"}
)

// ParseDraft extracts the three sections from a model response. JSON is
// tried first, then markdown section headings. Sections that cannot be
// found are given placeholder values and flagged on the draft. A response
// with no recognisable section becomes the cover letter verbatim.
func ParseDraft(raw string) *domain.Draft {
	if obj := extractJSON(raw); obj != nil && hasAnyKey(obj) {
		return draftFromJSON(obj)
	}
	if d, ok := draftFromMarkers(raw); ok {
		return d
	}

	d := &domain.Draft{CVBullets: []string{}, ATS: emptyATS()}
	d.CoverLetterMarkdown = strings.TrimSpace(raw)
	if d.CoverLetterMarkdown == "" {
		d.CoverLetterMarkdown = domain.CoverLetterPlaceholder
		d.MarkMissing(domain.SectionCoverLetter)
	}
	d.MarkMissing(domain.SectionCVBullets)
	d.MarkMissing(domain.SectionATSReport)
	return d
}

func emptyATS() domain.ATSReport {
	return domain.ATSReport{Covered: []string{}, Missing: []string{}}
}

var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// extractJSON finds a JSON object in text: the whole text, then a fenced
// block, then the span from the first '{' to the last '}'.
func extractJSON(text string) map[string]any {
	candidates := []string{strings.TrimSpace(text)}
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, m[1])
	}
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		candidates = append(candidates, text[start:end+1])
	}

	for _, c := range candidates {
		var obj map[string]any
		if err := json.Unmarshal([]byte(c), &obj); err == nil && obj != nil {
			return obj
		}
	}
	return nil
}

func hasAnyKey(obj map[string]any) bool {
	for _, keys := range [][]string{coverLetterKeys, cvBulletKeys, atsKeys} {
		if _, ok := lookup(obj, keys); ok {
			return true
		}
	}
	return false
}

// lookup returns the first present, non-null value among keys.
func lookup(obj map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func draftFromJSON(obj map[string]any) *domain.Draft {
	d := &domain.Draft{}

	if v, ok := lookup(obj, coverLetterKeys); ok {
		d.CoverLetterMarkdown = strings.TrimSpace(stringValue(v))
	}
	if d.CoverLetterMarkdown == "" {
		d.CoverLetterMarkdown = domain.CoverLetterPlaceholder
		d.MarkMissing(domain.SectionCoverLetter)
	}

	d.CVBullets = []string{}
	if v, ok := lookup(obj, cvBulletKeys); ok {
		d.CVBullets = stringList(v)
	}
	if len(d.CVBullets) == 0 {
		d.MarkMissing(domain.SectionCVBullets)
	}

	d.ATS = emptyATS()
	v, ok := lookup(obj, atsKeys)
	report, isObj := v.(map[string]any)
	if !ok || !isObj {
		d.MarkMissing(domain.SectionATSReport)
		return d
	}
	_, hasCovered := report["covered"]
	_, hasMissing := report["missing"]
	if !hasCovered && !hasMissing {
		d.MarkMissing(domain.SectionATSReport)
		return d
	}
	d.ATS.Covered = keywordList(report["covered"])
	d.ATS.Missing = keywordList(report["missing"])
	return d
}

func stringValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

// stringList accepts a JSON array or a newline separated string of
// bullets. Bullet markers and blank entries are removed.
func stringList(v any) []string {
	var items []string
	switch x := v.(type) {
	case []any:
		for _, item := range x {
			items = append(items, stringValue(item))
		}
	case string:
		items = strings.Split(x, "\n")
	default:
		items = []string{stringValue(x)}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := stripBullet(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// keywordList is stringList that also splits comma separated strings.
func keywordList(v any) []string {
	if s, ok := v.(string); ok {
		return splitKeywords(s)
	}
	return stringList(v)
}

func splitKeywords(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var bulletPrefix = regexp.MustCompile(`^\s*(?:[-*•·]|\d+[.)])\s+`)

func stripBullet(s string) string {
	return strings.TrimSpace(bulletPrefix.ReplaceAllString(s, ""))
}

var (
	headingPattern = regexp.MustCompile(`(?im)^\s*#{1,6}\s*(cover\s+letter|cv\s+bullets|ats\s+report)\b.*$`)
	coveredLine    = regexp.MustCompile(`(?im)^\s*[-*]?\s*\**covered\**\s*:\s*(.*)$`)
	missingLine    = regexp.MustCompile(`(?im)^\s*[-*]?\s*\**missing\**\s*:\s*(.*)$`)
)

// draftFromMarkers parses "## Cover Letter", "## CV Bullets" and
// "## ATS Report" sections. It reports false when no heading is found.
func draftFromMarkers(raw string) (*domain.Draft, bool) {
	locs := headingPattern.FindAllStringSubmatchIndex(raw, -1)
	if len(locs) == 0 {
		return nil, false
	}

	sections := make(map[domain.Section]string)
	for i, loc := range locs {
		end := len(raw)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		name := strings.Join(strings.Fields(strings.ToLower(raw[loc[2]:loc[3]])), " ")
		body := strings.TrimSpace(raw[loc[1]:end])

		var section domain.Section
		switch name {
		case "cover letter":
			section = domain.SectionCoverLetter
		case "cv bullets":
			section = domain.SectionCVBullets
		default:
			section = domain.SectionATSReport
		}
		if _, seen := sections[section]; !seen {
			sections[section] = body
		}
	}

	d := &domain.Draft{CVBullets: []string{}, ATS: emptyATS()}

	d.CoverLetterMarkdown = sections[domain.SectionCoverLetter]
	if d.CoverLetterMarkdown == "" {
		d.CoverLetterMarkdown = domain.CoverLetterPlaceholder
		d.MarkMissing(domain.SectionCoverLetter)
	}

	d.CVBullets = stringList(sections[domain.SectionCVBullets])
	if len(d.CVBullets) == 0 {
		d.MarkMissing(domain.SectionCVBullets)
	}

	report := sections[domain.SectionATSReport]
	covered := coveredLine.FindStringSubmatch(report)
	missing := missingLine.FindStringSubmatch(report)
	if covered == nil && missing == nil {
		d.MarkMissing(domain.SectionATSReport)
		return d, true
	}
	if covered != nil {
		d.ATS.Covered = splitKeywords(covered[1])
	}
	if missing != nil {
		d.ATS.Missing = splitKeywords(missing[1])
	}
	return d, true
}
