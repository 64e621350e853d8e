// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"sort"
	"strings"
)

// SuggestCommand returns the command name closest to input, or "" when
// nothing is near enough. Inputs of 4+ characters allow two edits, shorter
// ones allow one.
func SuggestCommand(input string) string {
	input = strings.ToLower(input)
	if len(input) < 2 {
		return ""
	}
	maxDistance := 1
	if len(input) >= 4 {
		maxDistance = 2
	}

	names := make([]string, 0, len(commandNames))
	for name := range commandNames {
		names = append(names, name)
	}
	sort.Strings(names)

	best, bestDistance := "", maxDistance+1
	for _, name := range names {
		d := levenshteinDistance(input, name)
		if d == 0 {
			return ""
		}
		if d < bestDistance {
			best, bestDistance = name, d
		}
	}
	return best
}

// levenshteinDistance is the single-byte edit distance between s1 and s2.
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(s2)]
}
