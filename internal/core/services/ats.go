package services

import (
	"strings"
	"unicode"

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
)

// reconcileATS keeps a covered keyword only when every one of its terms
// occurs in the retrieved context. Other covered keywords move to
// missing. With no context, nothing is covered.
func reconcileATS(report *domain.ATSReport, contexts []string, analyzer driven.TextAnalyzer) {
	terms := termsOf(analyzer)

	vocabulary := make(map[string]struct{})
	for _, text := range contexts {
		for _, term := range terms(text) {
			vocabulary[term] = struct{}{}
		}
	}
	joined := strings.ToLower(strings.Join(contexts, "\n"))

	covered := make([]string, 0, len(report.Covered))
	missing := make([]string, 0, len(report.Missing)+len(report.Covered))
	seen := make(map[string]struct{})

	add := func(list *[]string, kw string) {
		key := strings.ToLower(strings.TrimSpace(kw))
		if key == "" {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		*list = append(*list, strings.TrimSpace(kw))
	}

	for _, kw := range report.Covered {
		if supported(kw, terms, vocabulary, joined) {
			add(&covered, kw)
		}
	}
	for _, kw := range report.Missing {
		add(&missing, kw)
	}
	for _, kw := range report.Covered {
		add(&missing, kw)
	}

	report.Covered = covered
	report.Missing = missing
}

// supported reports whether kw is backed by the context. Keywords made
// only of stop words fall back to a substring check.
func supported(kw string, terms func(string) []string, vocabulary map[string]struct{}, joined string) bool {
	if joined == "" {
		return false
	}
	kwTerms := terms(kw)
	if len(kwTerms) == 0 {
		k := strings.ToLower(strings.TrimSpace(kw))
		return k != "" && strings.Contains(joined, k)
	}
	for _, t := range kwTerms {
		if _, ok := vocabulary[t]; !ok {
			return false
		}
	}
	return true
}

func termsOf(analyzer driven.TextAnalyzer) func(string) []string {
	if analyzer != nil {
		return analyzer.Terms
	}
	return simpleTerms
}

// simpleTerms lowercases text and splits it on anything that is not a
// letter or digit.
func simpleTerms(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
