// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package tasksearch

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/Wardy-uk/NOVA-sub001/lib/task"
)

// BM25 saturation parameters, standard Okapi values.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// tokenPattern splits text into alphanumeric runs.
var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// Match is one search hit.
type Match struct {
	Task  task.Task
	Score float64
}

// Rank scores tasks against query and returns the hits, best first.
// Ties order by task ID. A limit of 0 returns every hit; tasks with
// no matching token are never returned.
func Rank(tasks []task.Task, query string, limit int) []Match {
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}

	frequencies := make([]map[string]int, len(tasks))
	lengths := make([]int, len(tasks))
	inDocuments := make(map[string]int)
	totalLength := 0
	for i, row := range tasks {
		tokens := compositeTokens(row)
		lengths[i] = len(tokens)
		totalLength += len(tokens)

		frequency := make(map[string]int, len(tokens))
		for _, token := range tokens {
			if frequency[token] == 0 {
				inDocuments[token]++
			}
			frequency[token]++
		}
		frequencies[i] = frequency
	}
	if totalLength == 0 {
		return nil
	}
	averageLength := float64(totalLength) / float64(len(tasks))

	// log1p keeps the inverse document frequency positive even for
	// terms present in every task, so ubiquitous terms still nudge
	// the ranking instead of vanishing.
	idf := make(map[string]float64, len(inDocuments))
	corpus := float64(len(tasks))
	for term, in := range inDocuments {
		idf[term] = math.Log(1 + (corpus-float64(in)+0.5)/(float64(in)+0.5))
	}

	var matches []Match
	for i, row := range tasks {
		length := float64(lengths[i])
		score := 0.0
		for _, token := range queryTokens {
			frequency := float64(frequencies[i][token])
			if frequency == 0 {
				continue
			}
			saturated := frequency * (bm25K1 + 1) / (frequency + bm25K1*(1-bm25B+bm25B*length/averageLength))
			score += idf[token] * saturated
		}
		if score > 0 {
			matches = append(matches, Match{Task: row, Score: score})
		}
	}

	sort.Slice(matches, func(a, b int) bool {
		if matches[a].Score != matches[b].Score {
			return matches[a].Score > matches[b].Score
		}
		return matches[a].Task.ID < matches[b].Task.ID
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// compositeTokens flattens a task into one weighted token stream.
// Title tokens repeat so title hits dominate, and the source id is
// included so ticket keys like PROJ-123 stay findable.
func compositeTokens(row task.Task) []string {
	var tokens []string
	for _, field := range []struct {
		text   string
		weight int
	}{
		{row.Title, 3},
		{row.SourceID, 2},
		{row.Description, 1},
		{string(row.Source), 1},
	} {
		fieldTokens := tokenize(field.text)
		for i := 0; i < field.weight; i++ {
			tokens = append(tokens, fieldTokens...)
		}
	}
	return tokens
}

// tokenize lowercases text and splits it into alphanumeric runs,
// dropping single-character noise.
func tokenize(text string) []string {
	matches := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := matches[:0]
	for _, match := range matches {
		if len(match) >= 2 {
			tokens = append(tokens, match)
		}
	}
	return tokens
}
