// Package report turns a k-mer context table into the plain-text summary
// written by kmerctx and reads such summaries back.
//
// The summary has one total line per k-mer, in ascending k-mer order,
// followed by one indented line per follower in ascending character order:
//
//	AT: total 2
//	  G: 2
//	TG: total 2
//	  A: 1
//	  T: 1
package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"kmerctx/internal/kmer"
)

const (
	totalSep       = ": total "
	followerIndent = "  "
	followerSep    = ": "
)

// ErrMalformed is wrapped by Parse errors caused by unexpected summary lines.
var ErrMalformed = errors.New("malformed summary")

// Format renders t as summary lines. A k-mer with no followers produces only
// its total line with a sum of 0.
func Format(t kmer.Table) []string {
	lines := make([]string, 0, len(t)*2)
	for _, km := range t.Kmers() {
		followers := t[km]
		lines = append(lines, km+totalSep+strconv.Itoa(followers.Total()))
		for _, c := range followers.Chars() {
			lines = append(lines, followerIndent+string(c)+followerSep+strconv.Itoa(followers[c]))
		}
	}
	return lines
}

// WriteLines writes each line followed by a single '\n'.
func WriteLines(w io.Writer, lines []string) error {
	bw := bufio.NewWriter(w)
	for _, line := range lines {
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Write creates or truncates path and writes lines to it.
func Write(lines []string, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()
	if err := WriteLines(f, lines); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// Parse reads a summary produced by Format back into a table. Declared totals
// are checked against the follower lines beneath them.
func Parse(r io.Reader) (kmer.Table, error) {
	table := make(kmer.Table)
	var (
		current  string
		declared int
		open     bool
	)
	closeBlock := func(lineNo int) error {
		if !open {
			return nil
		}
		if got := table[current].Total(); got != declared {
			return fmt.Errorf("line %d: %w: %q declares total %d, followers sum to %d",
				lineNo, ErrMalformed, current, declared, got)
		}
		return nil
	}

	br := bufio.NewReader(r)
	lineNo := 0
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			lineNo++
			line = strings.TrimSuffix(line, "\n")
			if i := strings.LastIndex(line, totalSep); i >= 0 {
				if cerr := closeBlock(lineNo); cerr != nil {
					return nil, cerr
				}
				n, perr := strconv.Atoi(line[i+len(totalSep):])
				if perr != nil || n < 0 {
					return nil, fmt.Errorf("line %d: %w: bad total in %q", lineNo, ErrMalformed, line)
				}
				current, declared, open = line[:i], n, true
				if _, dup := table[current]; dup {
					return nil, fmt.Errorf("line %d: %w: duplicate k-mer %q", lineNo, ErrMalformed, current)
				}
				table[current] = make(kmer.Followers)
			} else {
				c, n, ferr := parseFollower(line)
				if ferr != nil || !open {
					return nil, fmt.Errorf("line %d: %w: unexpected line %q", lineNo, ErrMalformed, line)
				}
				table[current][c] += n
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	if err := closeBlock(lineNo); err != nil {
		return nil, err
	}
	return table, nil
}

func parseFollower(line string) (rune, int, error) {
	rest, ok := strings.CutPrefix(line, followerIndent)
	if !ok {
		return 0, 0, ErrMalformed
	}
	c, size := utf8.DecodeRuneInString(rest)
	if c == utf8.RuneError && size <= 1 {
		return 0, 0, ErrMalformed
	}
	num, ok := strings.CutPrefix(rest[size:], followerSep)
	if !ok {
		return 0, 0, ErrMalformed
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 1 {
		return 0, 0, ErrMalformed
	}
	return c, n, nil
}
