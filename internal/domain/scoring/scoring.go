// Package scoring grades a typed response against the reference line of a turn.
//
// The score blends word overlap (55%) with character similarity (45%), both
// computed on normalised text. Scoring is pure and total: any two strings,
// including empty ones, produce a result.
//
// Words match exactly unless Options.FoldMarks is set, in which case tone
// marks and diacritics are ignored for the word overlap only. Romanised input
// such as toneless Pinyin is graded that way; native script never is.
package scoring

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	wordWeight = 0.55
	charWeight = 0.45

	LabelPerfect   = "Perfect!"
	LabelExcellent = "Excellent"
	LabelGreat     = "Great"
	LabelAlmost    = "Almost there"
	LabelPartial   = "Partial match"
	LabelKeepGoing = "Keep practising"

	exactMatchBreakdown = "Exact match"
)

// Result is the outcome of grading one response.
type Result struct {
	Score     int
	Label     string
	Breakdown string
}

// Options tune a single grading.
type Options struct {
	FoldMarks bool
}

// Scorer grades submitted text against a reference line.
type Scorer interface {
	Score(submitted, reference string, opts Options) Result
}

// Engine is the default Scorer.
type Engine struct{}

// Score implements Scorer.
func (Engine) Score(submitted, reference string, opts Options) Result {
	return ScoreWith(submitted, reference, opts)
}

// Score grades submitted against reference with exact word matching.
func Score(submitted, reference string) Result {
	return ScoreWith(submitted, reference, Options{})
}

// ScoreWith grades submitted against reference.
func ScoreWith(submitted, reference string, opts Options) Result {
	a := Normalize(submitted)
	b := Normalize(reference)

	if a == b {
		return Result{Score: 100, Label: LabelPerfect, Breakdown: exactMatchBreakdown}
	}

	wo := WordOverlap(strings.Fields(a), strings.Fields(b), opts.FoldMarks)
	cs := CharSimilarity(a, b)

	raw := wo*wordWeight + cs*charWeight
	score := int(math.RoundToEven(raw * 100))
	score = max(0, min(100, score))

	return Result{
		Score:     score,
		Label:     labelFor(score),
		Breakdown: fmt.Sprintf("Word match %d%% · Similarity %d%%", percent(wo), percent(cs)),
	}
}

// Normalize lowercases text, collapses whitespace runs to a single space,
// trims, then drops every rune that is not a letter, number or space.
// Accented and native-script letters survive.
func Normalize(text string) string {
	text = norm.NFC.String(strings.ToLower(text))
	text = strings.Join(strings.Fields(text), " ")

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// WordOverlap returns the fraction of reference words found in the submitted
// words. With foldMarks, words are compared with tone marks and diacritics
// removed. An empty reference counts as a full match.
func WordOverlap(submitted, reference []string, foldMarks bool) float64 {
	if len(reference) == 0 {
		return 1.0
	}
	key := func(w string) string { return w }
	if foldMarks {
		key = fold
	}
	seen := make(map[string]struct{}, len(submitted))
	for _, w := range submitted {
		seen[key(w)] = struct{}{}
	}
	matched := 0
	for _, w := range reference {
		if _, ok := seen[key(w)]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(reference))
}

// CharSimilarity is 1 - EditDistance(a, b) / max(len(a), len(b)), measured in runes.
func CharSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longer := max(len(ra), len(rb))
	if longer == 0 {
		return 1.0
	}
	return 1.0 - float64(distance(ra, rb))/float64(longer)
}

// EditDistance is the Levenshtein distance between a and b in runes, with unit
// cost for insertion, deletion and substitution.
func EditDistance(a, b string) int {
	return distance([]rune(a), []rune(b))
}

// distance keeps a single row sized to the shorter input.
func distance(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return len(a)
	}

	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i, ca := range a {
		diag := row[0]
		row[0] = i + 1
		for j, cb := range b {
			cost := 1
			if ca == cb {
				cost = 0
			}
			above := row[j+1]
			row[j+1] = min(row[j]+1, above+1, diag+cost)
			diag = above
		}
	}
	return row[len(b)]
}

func fold(word string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, word)
	if err != nil {
		return word
	}
	return folded
}

func labelFor(score int) string {
	switch {
	case score >= 90:
		return LabelExcellent
	case score >= 75:
		return LabelGreat
	case score >= 55:
		return LabelAlmost
	case score >= 35:
		return LabelPartial
	default:
		return LabelKeepGoing
	}
}

func percent(f float64) int {
	return int(math.RoundToEven(f * 100))
}
