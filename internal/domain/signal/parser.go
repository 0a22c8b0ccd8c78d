// Package signal extracts classified player signals from raw items.
package signal

import (
	"context"
	"strings"
	"unicode"

	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/model"
	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/logger"
	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/metrics"
)

const (
	maxNameTokens   = 4
	maxEvidenceLen  = 200
	maxDetailLength = 60
)

// Parser applies the keyword tables to raw items. It is safe for
// concurrent use once constructed.
type Parser struct {
	tables []compiledTable
	logger logger.Logger
}

type compiledRule struct {
	Rule
	phrase []rune
}

type compiledTable struct {
	taxonomy model.Taxonomy
	rules    []compiledRule
}

// New creates a Parser over the default tables, adjusted by opts.
func New(opts ...Option) *Parser {
	cfg := &parserConfig{tables: DefaultTables()}
	for _, opt := range opts {
		opt(cfg)
	}

	p := &Parser{logger: cfg.logger}
	if p.logger == nil {
		p.logger = logger.Get().Named("parser")
	}
	for _, t := range cfg.tables {
		ct := compiledTable{taxonomy: t.Taxonomy}
		for _, r := range t.Rules {
			phrase := foldRunes([]rune(strings.TrimSpace(r.Phrase)))
			if len(phrase) == 0 {
				continue
			}
			ct.rules = append(ct.rules, compiledRule{Rule: r, phrase: phrase})
		}
		p.tables = append(p.tables, ct)
	}
	return p
}

// Parse returns one signal per taxonomy matched in the item's text. An item
// with no match, or whose matches have no plausible subject, yields nil.
func (p *Parser) Parse(ctx context.Context, item model.RawItem) []model.Signal {
	text := []rune(item.Text())
	if len(text) == 0 {
		return nil
	}
	folded := foldRunes(text)
	doc := tokenize(text)
	detail := injuryDetail(text, folded)

	var out []model.Signal
	for _, table := range p.tables {
		rule, start, ok := table.match(folded)
		if !ok || rule.Classification == model.Unknown || rule.Classification == "" {
			continue
		}
		end := start + len(rule.phrase)

		name := doc.subjectNear(start, end)
		if name == "" {
			p.logger.Debug(ctx, "no subject near keyword",
				logger.String("taxonomy", string(table.taxonomy)),
				logger.String("keyword", rule.Phrase),
				logger.String("title", item.Title),
			)
			continue
		}

		out = append(out, model.Signal{
			SubjectNameRaw: name,
			Taxonomy:       table.taxonomy,
			Classification: rule.Classification,
			Keyword:        rule.Phrase,
			Detail:         detail,
			Evidence:       doc.sentenceText(start),
			SourceName:     item.SourceName,
			SourceTier:     item.SourceTier,
			ObservedAt:     item.PublishedAt,
			GameID:         item.GameID,
		})
		metrics.RecordSignalParsed(string(table.taxonomy))
	}
	return out
}

// match returns the first rule, in table order, whose phrase occurs in text
// on word boundaries, along with the offset of its first occurrence.
func (t compiledTable) match(text []rune) (compiledRule, int, bool) {
	for _, r := range t.rules {
		if at := findPhrase(text, r.phrase); at >= 0 {
			return r, at, true
		}
	}
	return compiledRule{}, -1, false
}

func findPhrase(text, phrase []rune) int {
	n, m := len(text), len(phrase)
	for i := 0; i+m <= n; i++ {
		if !runesEqual(text[i:i+m], phrase) {
			continue
		}
		if i > 0 && isWordRune(text[i-1]) {
			continue
		}
		if i+m < n && isWordRune(text[i+m]) {
			continue
		}
		return i
	}
	return -1
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// foldRunes lowercases rune by rune so offsets line up with the original.
func foldRunes(in []rune) []rune {
	out := make([]rune, len(in))
	for i, r := range in {
		switch r {
		case '’', '‘':
			out[i] = '\''
		case '–', '—':
			out[i] = '-'
		default:
			out[i] = unicode.ToLower(r)
		}
	}
	return out
}

// injuryDetail prefers parenthesized text, then the first body-part term.
func injuryDetail(text, folded []rune) string {
	if open := indexRune(text, '(', 0); open >= 0 {
		if closing := indexRune(text, ')', open+1); closing > open+1 {
			d := strings.TrimSpace(string(text[open+1 : closing]))
			if d != "" {
				return truncate(d, maxDetailLength)
			}
		}
	}
	for _, term := range injuryTerms {
		if findPhrase(folded, []rune(term)) >= 0 {
			return term
		}
	}
	return ""
}

func indexRune(text []rune, r rune, from int) int {
	for i := from; i < len(text); i++ {
		if text[i] == r {
			return i
		}
	}
	return -1
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}
