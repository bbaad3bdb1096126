package domain

import (
	"sort"
	"strings"
	"unicode"
)

const (
	// Field weights, summing to 1.0
	TitleWeight       = 0.7
	DescriptionWeight = 0.3

	// RelevanceThreshold is the minimum score a search result must reach.
	RelevanceThreshold = 0.3
)

// Candidate represents a resource with its relevance score
type Candidate struct {
	Resource *Resource
	Score    float64
}

// Score calculates the relevance of a resource's title and optional description
// against a query. The result is always in [0,1].
// A nil or blank description gives the title the full weight.
func Score(query, title string, description *string) float64 {
	desc := ""
	if description != nil {
		desc = Normalize(*description)
	}
	return scoreNormalized(Normalize(query), Normalize(title), desc)
}

// scoreNormalized scores already normalized inputs.
// A blank description drops out and the title carries the full weight.
func scoreNormalized(query, title, description string) float64 {
	titleSimilarity := DiceCoefficient(query, title)
	if description == "" {
		return titleSimilarity
	}
	return TitleWeight*titleSimilarity + DescriptionWeight*DiceCoefficient(query, description)
}

// DiceCoefficient is twice the number of shared character bigrams divided by
// the total bigram count of both strings. Whitespace is ignored and bigrams are
// counted as a multiset. Strings shorter than two characters have no bigrams
// and score 0.
func DiceCoefficient(a, b string) float64 {
	ra := stripSpace(a)
	rb := stripSpace(b)

	if len(ra) < 2 || len(rb) < 2 {
		return 0.0
	}
	if string(ra) == string(rb) {
		return 1.0
	}

	counts := make(map[[2]rune]int, len(ra)-1)
	for i := 0; i < len(ra)-1; i++ {
		counts[[2]rune{ra[i], ra[i+1]}]++
	}

	shared := 0
	for i := 0; i < len(rb)-1; i++ {
		bg := [2]rune{rb[i], rb[i+1]}
		if counts[bg] > 0 {
			counts[bg]--
			shared++
		}
	}

	return 2.0 * float64(shared) / float64(len(ra)-1+len(rb)-1)
}

func stripSpace(s string) []rune {
	return []rune(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s))
}

// RankCandidates scores every resource against the query, drops those below
// threshold and sorts the rest by score, newest first on ties.
func RankCandidates(query string, resources []*Resource, threshold float64) []*Candidate {
	q := Normalize(query)
	candidates := make([]*Candidate, 0, len(resources))

	for _, resource := range resources {
		title := resource.SearchTitle
		if title == "" {
			title = Normalize(resource.Title)
		}
		description := resource.SearchDescription
		if description == "" && resource.Description != nil {
			description = Normalize(*resource.Description)
		}

		score := scoreNormalized(q, title, description)
		if score < threshold {
			continue
		}

		candidates = append(candidates, &Candidate{
			Resource: resource,
			Score:    score,
		})
	}

	sortCandidates(candidates)

	return candidates
}

// sortCandidates orders by score desc, then CreatedAt desc, then ID for a total order
func sortCandidates(candidates []*Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Resource.CreatedAt.Equal(b.Resource.CreatedAt) {
			return a.Resource.CreatedAt.After(b.Resource.CreatedAt)
		}
		return a.Resource.ID < b.Resource.ID
	})
}
