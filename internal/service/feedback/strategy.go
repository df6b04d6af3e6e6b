package feedback

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/zhouzirui/z-perception/backend/internal/model/perception"
)

// NegativeThreshold is the highest rating counted as negative.
const NegativeThreshold = 2

const lowAverageSuggestion = "overall satisfaction is low; review recent responses"

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "is": {}, "are": {}, "was": {},
	"were": {}, "it": {}, "this": {}, "that": {}, "to": {}, "of": {}, "in": {}, "on": {}, "for": {},
	"with": {}, "too": {}, "very": {}, "not": {}, "i": {}, "you": {}, "me": {}, "my": {}, "your": {},
	"be": {}, "so": {}, "at": {}, "as": {}, "just": {}, "really": {},
}

// KeywordStrategy counts negative ratings and turns the recurring words of negative
// messages into suggestions. Output is sorted, so equal logs give equal summaries.
func KeywordStrategy(entries []perception.FeedbackEntry) perception.FeedbackSummary {
	summary := perception.FeedbackSummary{Count: len(entries), Suggestions: []string{}}
	if len(entries) == 0 {
		return summary
	}

	total := 0
	freq := make(map[string]int)
	for _, e := range entries {
		total += e.Rating
		if e.Rating > NegativeThreshold {
			continue
		}
		summary.NegativeCount++
		seen := make(map[string]struct{})
		for _, word := range tokenize(e.Message) {
			if _, dup := seen[word]; dup {
				continue
			}
			seen[word] = struct{}{}
			freq[word]++
		}
	}
	summary.AverageRating = float64(total) / float64(len(entries))

	type keyword struct {
		word  string
		count int
	}
	keywords := make([]keyword, 0, len(freq))
	for w, c := range freq {
		keywords = append(keywords, keyword{word: w, count: c})
	}
	sort.Slice(keywords, func(i, j int) bool {
		if keywords[i].count != keywords[j].count {
			return keywords[i].count > keywords[j].count
		}
		return keywords[i].word < keywords[j].word
	})

	const maxKeywords = 5
	for i, k := range keywords {
		if i == maxKeywords {
			break
		}
		summary.Suggestions = append(summary.Suggestions, fmt.Sprintf("improve %q (mentioned in %d negative entries)", k.word, k.count))
	}
	if summary.AverageRating <= NegativeThreshold+0.5 {
		summary.Suggestions = append(summary.Suggestions, lowAverageSuggestion)
	}
	return summary
}

func tokenize(message string) []string {
	fields := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if len([]rune(f)) < 3 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		words = append(words, f)
	}
	return words
}
