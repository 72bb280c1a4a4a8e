package cluster

import (
	"strings"

	"newsbrief/internal/store"
)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "have": true, "has": true,
	"had": true, "do": true, "does": true, "did": true, "will": true, "would": true,
	"could": true, "should": true, "may": true, "might": true, "can": true, "shall": true,
	"to": true, "of": true, "in": true, "for": true, "on": true, "with": true, "at": true,
	"by": true, "from": true, "as": true, "into": true, "through": true, "during": true,
	"before": true, "after": true, "above": true, "below": true, "and": true, "but": true,
	"or": true, "nor": true, "not": true, "so": true, "yet": true, "both": true,
	"either": true, "neither": true, "each": true, "every": true, "all": true, "any": true,
	"few": true, "more": true, "most": true, "other": true, "some": true, "such": true,
	"no": true, "only": true, "own": true, "same": true, "than": true, "too": true,
	"very": true, "just": true, "how": true, "what": true, "which": true, "who": true,
	"whom": true, "this": true, "that": true, "these": true, "those": true, "it": true,
	"its": true, "new": true, "about": true, "up": true, "out": true, "one": true,
	"two": true, "also": true, "like": true, "get": true, "use": true,
}

// makeLabel names a storyline from the most frequent non-stopword title
// words. Ties break toward the word seen first, so labels are stable
// across runs. Falls back to the first article's title when no word
// qualifies.
func makeLabel(articles []store.Article) string {
	counts := make(map[string]int)
	var order []string

	for _, article := range articles {
		for _, word := range strings.Fields(strings.ToLower(article.Title)) {
			word = strings.Trim(word, ".,!?:;\"'()-[]")
			if len(word) <= 2 || stopWords[word] {
				continue
			}
			if counts[word] == 0 {
				order = append(order, word)
			}
			counts[word]++
		}
	}

	var top []string
	for len(top) < 3 {
		best := ""
		bestCount := 0
		for _, word := range order {
			if counts[word] > bestCount {
				best = word
				bestCount = counts[word]
			}
		}
		if best == "" {
			break
		}
		top = append(top, titleCase(best))
		counts[best] = 0
	}

	if len(top) > 0 {
		return strings.Join(top, " ")
	}

	title := articles[0].Title
	if len(title) > 50 {
		title = title[:50]
	}
	return title
}

func titleCase(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}
