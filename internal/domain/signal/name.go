package signal

import (
	"strings"
	"unicode"
)

type token struct {
	text       string
	start, end int // rune offsets, end exclusive
	sentence   int
	segment    int
	capital    bool
}

// document is a tokenized item text. Segments break at any punctuation and
// at possessives; sentences break at terminal punctuation and newlines.
type document struct {
	text      []rune
	tokens    []token
	sentences []int // rune offset where each sentence starts
}

func tokenize(text []rune) document {
	d := document{text: text, sentences: []int{0}}
	sentence, segment := 0, 0
	var cur []rune
	curStart := 0

	newSentence := func(at int) {
		sentence++
		segment++
		d.sentences = append(d.sentences, at)
	}
	flush := func(end int) {
		if len(cur) == 0 {
			return
		}
		word := string(cur)
		possessive := false
		for _, suffix := range []string{"'s", "’s", "'", "’"} {
			if strings.HasSuffix(word, suffix) && len(word) > len(suffix) {
				word = strings.TrimSuffix(word, suffix)
				possessive = true
				break
			}
		}
		first := []rune(word)[0]
		d.tokens = append(d.tokens, token{
			text:     word,
			start:    curStart,
			end:      end,
			sentence: sentence,
			segment:  segment,
			capital:  unicode.IsUpper(first),
		})
		if possessive {
			segment++
		}
		cur = cur[:0]
	}

	for i, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '’' || r == '-':
			if len(cur) == 0 {
				curStart = i
			}
			cur = append(cur, r)
		case r == '.':
			if len(cur) > 0 && keepsPeriod(string(cur), text, i) {
				cur = append(cur, r)
				continue
			}
			flush(i)
			if i+1 >= len(text) || unicode.IsSpace(text[i+1]) || text[i+1] == '"' {
				newSentence(i + 1)
			} else {
				segment++
			}
		case r == '!' || r == '?' || r == '\n':
			flush(i)
			newSentence(i + 1)
		case unicode.IsSpace(r):
			flush(i)
		default:
			flush(i)
			segment++
		}
	}
	flush(len(text))
	return d
}

// keepsPeriod reports whether a period belongs to the word before it:
// initials (P.J.), known abbreviations (Jr.) and decimals (1.5).
func keepsPeriod(word string, text []rune, at int) bool {
	if _, ok := abbreviations[strings.ToLower(word)]; ok {
		return true
	}
	parts := strings.Split(word, ".")
	initials := true
	for _, p := range parts {
		r := []rune(p)
		if len(r) != 1 || !unicode.IsUpper(r[0]) {
			initials = false
			break
		}
	}
	if initials {
		return true
	}
	last := []rune(word)
	return unicode.IsDigit(last[len(last)-1]) && at+1 < len(text) && unicode.IsDigit(text[at+1])
}

// sentenceOf returns the sentence index containing rune offset at.
func (d document) sentenceOf(at int) int {
	s := 0
	for i, start := range d.sentences {
		if start <= at {
			s = i
		}
	}
	return s
}

// sentenceText returns the trimmed sentence containing offset at.
func (d document) sentenceText(at int) string {
	s := d.sentenceOf(at)
	end := len(d.text)
	if s+1 < len(d.sentences) {
		end = d.sentences[s+1]
	}
	return truncate(strings.TrimSpace(string(d.text[d.sentences[s]:end])), maxEvidenceLen)
}

// subjectNear returns the longest capitalized token run before the keyword
// span [ks, ke) in the same sentence, or failing that the longest after it.
// Ties go to the run nearest the keyword. An empty result means no
// plausible name was found.
func (d document) subjectNear(ks, ke int) string {
	sentence := d.sentenceOf(ks)

	var runs [][]token
	var cur []token
	flush := func() {
		if len(cur) > 0 {
			runs = append(runs, cur)
			cur = nil
		}
	}
	for _, t := range d.tokens {
		if t.sentence != sentence {
			flush()
			continue
		}
		overlaps := t.start < ke && t.end > ks
		_, stop := stopWords[strings.ToLower(strings.TrimSuffix(t.text, "."))]
		if !t.capital || overlaps || stop {
			flush()
			continue
		}
		if len(cur) > 0 && cur[len(cur)-1].segment != t.segment {
			flush()
		}
		cur = append(cur, t)
	}
	flush()

	var before, after []token
	for _, r := range runs {
		switch {
		case r[len(r)-1].end <= ks:
			if len(r) >= len(before) {
				before = r
			}
		case r[0].start >= ke:
			if len(r) > len(after) {
				after = r
			}
		}
	}

	chosen := before
	if len(chosen) == 0 {
		chosen = after
		if len(chosen) > maxNameTokens {
			chosen = chosen[:maxNameTokens]
		}
	} else if len(chosen) > maxNameTokens {
		chosen = chosen[len(chosen)-maxNameTokens:]
	}

	parts := make([]string, len(chosen))
	for i, t := range chosen {
		parts[i] = t.text
	}
	name := strings.Join(parts, " ")
	if len([]rune(name)) < 2 {
		return ""
	}
	return name
}
