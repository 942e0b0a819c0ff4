package fasta

// Package fasta contains minimal helpers to read FASTA formatted data. Header
// lines are dropped and every other line is trimmed, upper-cased and appended,
// so several records collapse into one continuous sequence.

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// FastaRecord represents a single FASTA record (header and cleaned sequence).
// Sequence lines that appear before the first header belong to a record with
// an empty Header.
type FastaRecord struct {
	Header   string
	Sequence string
}

// ErrInvalidUTF8 is wrapped by read errors for input that is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("input is not valid UTF-8")

// eachLine calls fn for every line of r with the line terminator removed.
// "\n", "\r\n" and a lone "\r" all end a line. bufio.Reader is used instead of
// a Scanner so single-line genomes are not truncated by a token limit.
func eachLine(r io.Reader, fn func(line string)) error {
	br := bufio.NewReader(r)
	var buf bytes.Buffer
	lineNo := 0
	emit := func() error {
		lineNo++
		if !utf8.Valid(buf.Bytes()) {
			return fmt.Errorf("line %d: %w", lineNo, ErrInvalidUTF8)
		}
		fn(buf.String())
		buf.Reset()
		return nil
	}
	for {
		chunk, err := br.ReadSlice('\n')
		for len(chunk) > 0 {
			i := bytes.IndexAny(chunk, "\r\n")
			if i < 0 {
				buf.Write(chunk)
				break
			}
			buf.Write(chunk[:i])
			if eerr := emit(); eerr != nil {
				return eerr
			}
			if chunk[i] == '\r' {
				if i+1 < len(chunk) && chunk[i+1] == '\n' {
					i++
				} else if i+1 == len(chunk) {
					// a "\r" at the end of the slice may be the first half of "\r\n"
					if next, perr := br.Peek(1); perr == nil && next[0] == '\n' {
						_, _ = br.ReadByte()
					}
				}
			}
			chunk = chunk[i+1:]
		}
		switch {
		case err == nil, errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if buf.Len() > 0 {
				return emit()
			}
			return nil
		default:
			return err
		}
	}
}

func isHeader(line string) bool {
	return strings.HasPrefix(line, ">")
}

func clean(line string) string {
	return strings.ToUpper(strings.TrimSpace(line))
}

// Load reads FASTA data from r and returns every sequence line concatenated
// into a single upper-case string. Header lines are skipped in full and no
// separator is inserted between records.
func Load(r io.Reader) (string, error) {
	var sb strings.Builder
	err := eachLine(r, func(line string) {
		if isHeader(line) {
			return
		}
		sb.WriteString(clean(line))
	})
	if err != nil {
		return "", fmt.Errorf("read fasta: %w", err)
	}
	return sb.String(), nil
}

// LoadFile opens path and returns its merged sequence (see Load).
func LoadFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// ParseFasta reads FASTA records from r and returns a slice of FastaRecord.
// Lines beginning with '>' denote headers; sequence lines are cleaned the same
// way Load cleans them, so joining every Sequence gives Load's result.
func ParseFasta(r io.Reader) ([]FastaRecord, error) {
	var records []FastaRecord
	var current FastaRecord
	started := false
	err := eachLine(r, func(line string) {
		if isHeader(line) {
			if started {
				records = append(records, current)
			}
			current = FastaRecord{Header: line[1:]}
			started = true
			return
		}
		seq := clean(line)
		if !started && seq == "" {
			return
		}
		started = true
		current.Sequence += seq
	})
	if err != nil {
		return nil, fmt.Errorf("read fasta: %w", err)
	}
	if started {
		records = append(records, current)
	}
	return records, nil
}
