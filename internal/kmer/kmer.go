// Package kmer builds k-mer context tables: for every k-length window of a
// sequence, how often each character follows it.
package kmer

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidK is returned when k is not a positive window length.
var ErrInvalidK = errors.New("k must be a positive integer")

// Followers maps a follower character to the number of times it was observed
// immediately after a k-mer. Counts are always >= 1.
type Followers map[rune]int

// Total returns the sum of all follower counts.
func (f Followers) Total() int {
	total := 0
	for _, n := range f {
		total += n
	}
	return total
}

// Chars returns the follower characters in ascending order.
func (f Followers) Chars() []rune {
	chars := make([]rune, 0, len(f))
	for c := range f {
		chars = append(chars, c)
	}
	sort.Slice(chars, func(i, j int) bool { return chars[i] < chars[j] })
	return chars
}

// Table maps each k-mer to its follower counts.
type Table map[string]Followers

// Add records one occurrence of follower after kmer.
func (t Table) Add(kmer string, follower rune) {
	f, ok := t[kmer]
	if !ok {
		f = make(Followers)
		t[kmer] = f
	}
	f[follower]++
}

// Kmers returns the table keys in ascending lexicographic order.
func (t Table) Kmers() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Increments returns the sum of every count in the table. For a table built
// by Extract this is len(seq)-k, or 0 when k >= len(seq).
func (t Table) Increments() int {
	total := 0
	for _, f := range t {
		total += f.Total()
	}
	return total
}

// Equal reports whether t and o hold the same k-mers with the same counts.
func (t Table) Equal(o Table) bool {
	if len(t) != len(o) {
		return false
	}
	for kmer, f := range t {
		g, ok := o[kmer]
		if !ok || len(f) != len(g) {
			return false
		}
		for c, n := range f {
			if g[c] != n {
				return false
			}
		}
	}
	return true
}

// Extract slides a window of length k over seq and counts, for every window,
// the character that follows it. The last window has no follower and is not
// counted, so a sequence no longer than k yields an empty table.
func Extract(seq string, k int) (Table, error) {
	if k <= 0 {
		return nil, fmt.Errorf("extract with k=%d: %w", k, ErrInvalidK)
	}
	residues := []rune(seq)
	table := make(Table)
	for i := 0; i < len(residues)-k; i++ {
		table.Add(string(residues[i:i+k]), residues[i+k])
	}
	return table, nil
}
