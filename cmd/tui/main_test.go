package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"kmerctx/internal/kmer"
	"kmerctx/internal/store"
)

func sampleTable() kmer.Table {
	return kmer.Table{
		"AT": {'G': 2},
		"GC": {'A': 1, 'C': 3, 'T': 1},
		"TG": {'A': 1, 'T': 1},
	}
}

func kmersOf(m model) []string {
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.kmer
	}
	return out
}

func TestCycleSort(t *testing.T) {
	m := newModel(sampleTable(), "sample")
	if m.sort != sortByKmer {
		t.Fatalf("expected initial sort by k-mer, got %v", m.sort)
	}
	if got := strings.Join(kmersOf(m), ","); got != "AT,GC,TG" {
		t.Fatalf("unexpected k-mer order: %s", got)
	}
	m = m.cycleSort()
	if m.sort != sortByTotal {
		t.Fatalf("expected sort by total, got %v", m.sort)
	}
	if got := strings.Join(kmersOf(m), ","); got != "GC,AT,TG" {
		t.Fatalf("unexpected total order: %s", got)
	}
	m = m.cycleSort()
	if m.sort != sortByKmer {
		t.Fatalf("expected k-mer sort again, got %v", m.sort)
	}
	if len(m.list.Items()) != 3 {
		t.Fatalf("expected 3 list items, got %d", len(m.list.Items()))
	}
}

func TestBuildRightLines(t *testing.T) {
	m := newModel(sampleTable(), "sample")
	m.width = 120
	m.height = 40
	e := entry{kmer: "GC", followers: kmer.Followers{'A': 1, 'C': 3, 'T': 1}, total: 5}
	lines := m.buildRightLines(e)
	// title, total, blank, then one line per follower
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d: %q", len(lines), lines)
	}
	if !strings.Contains(lines[4], "60.0%") {
		t.Fatalf("expected C to hold 60%%, got %q", lines[4])
	}

	empty := m.buildRightLines(entry{kmer: "AA", followers: kmer.Followers{}})
	if !strings.Contains(empty[len(empty)-1], "no followers") {
		t.Fatalf("expected placeholder, got %q", empty)
	}
}

func TestLoadModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.txt")
	body := "AT: total 2\n  G: 2\nTG: total 2\n  A: 1\n  T: 1\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := loadModel(path)
	if err != nil {
		t.Fatalf("loadModel failed: %v", err)
	}
	if len(m.entries) != 2 || m.entries[1].total != 2 {
		t.Fatalf("unexpected entries: %+v", m.entries)
	}

	bad := filepath.Join(t.TempDir(), "bad.txt")
	if err := os.WriteFile(bad, []byte("  G: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadModel(bad); err == nil {
		t.Fatalf("expected error for malformed summary")
	}
}

func TestUpdateKeys(t *testing.T) {
	var tm tea.Model = newModel(sampleTable(), "sample")
	tm, _ = tm.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	tm, _ = tm.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	if got := tm.(model).sort; got != sortByTotal {
		t.Fatalf("expected 's' to switch sort, got %v", got)
	}

	tm, _ = tm.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'h'}})
	if !tm.(model).showHelp {
		t.Fatalf("expected help to be shown")
	}
	if !strings.Contains(tm.View(), "Help") {
		t.Fatalf("expected help modal in view")
	}

	_, cmd := tm.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestViewShowsSelection(t *testing.T) {
	var tm tea.Model = newModel(sampleTable(), "sample")
	tm, _ = tm.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	view := tm.View()
	if !strings.Contains(view, "total 2") {
		t.Fatalf("expected selected k-mer details in view")
	}
}

func TestLoadStoreModel(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ctx.db")
	s, err := store.Open(ctx, path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := s.Save(ctx, 3, kmer.Table{"GAT": {'T': 2}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, 2, sampleTable()); err != nil {
		t.Fatal(err)
	}
	s.Close()

	m, err := loadStoreModel(ctx, path, 0)
	if err != nil {
		t.Fatalf("loadStoreModel failed: %v", err)
	}
	if len(m.entries) != 3 || !strings.HasSuffix(m.source, "(k=2)") {
		t.Fatalf("expected smallest k to be chosen, got source %q with %d entries", m.source, len(m.entries))
	}

	m, err = loadStoreModel(ctx, path, 3)
	if err != nil {
		t.Fatalf("loadStoreModel k=3 failed: %v", err)
	}
	if len(m.entries) != 1 || m.entries[0].kmer != "GAT" {
		t.Fatalf("unexpected entries for k=3: %+v", m.entries)
	}

	if _, err := loadStoreModel(ctx, path, 7); err == nil || !strings.Contains(err.Error(), "stored: [2 3]") {
		t.Fatalf("expected unknown k error listing stored ks, got %v", err)
	}
}

func TestLoadStoreModelEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	if _, err := loadStoreModel(context.Background(), path, 0); err == nil {
		t.Fatalf("expected error for archive with no tables")
	}
}
