// Package collabel converts between zero-based column indices and
// spreadsheet-style column labels (A, B, ..., Z, AA, AB, ...).
package collabel

import "strings"

// ToLetters converts a zero-based column index to its spreadsheet label.
// 0 -> "A", 25 -> "Z", 26 -> "AA", 701 -> "ZZ", 702 -> "AAA".
//
// This is the "A = 0, no zero digit" base-26 numeral system: repeatedly
// take index mod 26, emit 'A'+rem, then index = index/26 - 1, until
// index < 0.
func ToLetters(index int) string {
	if index < 0 {
		return ""
	}

	var letters []byte
	for {
		rem := index % 26
		letters = append(letters, byte('A'+rem))
		index = index/26 - 1
		if index < 0 {
			break
		}
	}

	// letters were appended least-significant first
	for i, j := 0, len(letters)-1; i < j; i, j = i+1, j-1 {
		letters[i], letters[j] = letters[j], letters[i]
	}
	return string(letters)
}

// Range returns the labels for [start, start+count).
func Range(start, count int) []string {
	if count <= 0 {
		return []string{}
	}
	out := make([]string, 0, count)
	for i := start; i < start+count; i++ {
		out = append(out, ToLetters(i))
	}
	return out
}

// ToIndex converts a spreadsheet column label back to a zero-based index.
// Accepts upper or lower case letters; returns -1 for malformed input.
func ToIndex(label string) int {
	label = strings.ToUpper(label)
	if label == "" {
		return -1
	}
	n := 0
	for i := 0; i < len(label); i++ {
		c := label[i]
		if c < 'A' || c > 'Z' {
			return -1
		}
		n = n*26 + int(c-'A'+1)
	}
	return n - 1
}
