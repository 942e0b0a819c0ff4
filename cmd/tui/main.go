package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"kmerctx/internal/kmer"
	"kmerctx/internal/report"
	"kmerctx/internal/store"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"
)

// Colors for modern design
var (
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	secondaryColor = lipgloss.Color("#10B981") // Green
	accentColor    = lipgloss.Color("#F59E0B") // Amber
	surfaceColor   = lipgloss.Color("#1F2937") // Dark gray
	textColor      = lipgloss.Color("#F3F4F6") // Light gray
	mutedColor     = lipgloss.Color("#9CA3AF") // Muted gray
	borderColor    = lipgloss.Color("#374151") // Border gray
)

// Styles
var (
	containerStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor)

	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Background(surfaceColor).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().Foreground(mutedColor)
	charStyle  = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	barStyle   = lipgloss.NewStyle().Foreground(secondaryColor)
)

// maxBarWidth caps the follower bars in the detail panel.
const maxBarWidth = 40

type entry struct {
	kmer      string
	followers kmer.Followers
	total     int
}

type listItem struct {
	entry entry
}

func (i listItem) FilterValue() string { return i.entry.kmer }

func (i listItem) Title() string { return i.entry.kmer }

func (i listItem) Description() string {
	return fmt.Sprintf("total %d    followers %d", i.entry.total, len(i.entry.followers))
}

type sortMode int

const (
	sortByKmer sortMode = iota
	sortByTotal
)

func (s sortMode) String() string {
	switch s {
	case sortByKmer:
		return "k-mer"
	case sortByTotal:
		return "total"
	default:
		return "unknown"
	}
}

type model struct {
	list     list.Model
	entries  []entry
	source   string
	sort     sortMode
	showHelp bool
	width    int
	height   int
}

func newModel(table kmer.Table, source string) model {
	entries := make([]entry, 0, len(table))
	for _, km := range table.Kmers() {
		f := table[km]
		entries = append(entries, entry{kmer: km, followers: f, total: f.Total()})
	}

	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "k-mers"
	l.SetShowStatusBar(false)
	l.SetShowPagination(true)
	l.SetFilteringEnabled(true)

	m := model{list: l, entries: entries, source: source, sort: sortByKmer}
	m.applySort()
	return m
}

func loadModel(path string) (model, error) {
	f, err := os.Open(path)
	if err != nil {
		return model{}, err
	}
	defer f.Close()
	table, err := report.Parse(f)
	if err != nil {
		return model{}, fmt.Errorf("%s: %w", path, err)
	}
	return newModel(table, path), nil
}

// applySort orders the entries by the current mode and refreshes the list.
func (m *model) applySort() {
	switch m.sort {
	case sortByTotal:
		sort.SliceStable(m.entries, func(i, j int) bool {
			if m.entries[i].total != m.entries[j].total {
				return m.entries[i].total > m.entries[j].total
			}
			return m.entries[i].kmer < m.entries[j].kmer
		})
	default:
		sort.SliceStable(m.entries, func(i, j int) bool { return m.entries[i].kmer < m.entries[j].kmer })
	}
	items := make([]list.Item, len(m.entries))
	for i, e := range m.entries {
		items[i] = listItem{entry: e}
	}
	m.list.SetItems(items)
}

func (m model) cycleSort() model {
	m.sort = (m.sort + 1) % 2
	m.applySort()
	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// left panel takes 1/3 of width
		m.list.SetWidth(msg.Width / 3)
		m.list.SetHeight(msg.Height - 4)
		return m, nil

	case tea.KeyMsg:
		// keys typed into the filter box belong to the list
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "h":
			m.showHelp = !m.showHelp
			return m, nil
		case "s":
			return m.cycleSort(), nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelpModal()
	}
	main := lipgloss.JoinHorizontal(lipgloss.Top, m.renderLeftPanel(), m.renderRightPanel())
	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m model) renderLeftPanel() string {
	return containerStyle.
		Width(m.width/3 - 2).
		Height(m.height - 4).
		Render(m.list.View())
}

// buildRightLines renders the follower distribution of e, one line per
// follower in character order.
func (m model) buildRightLines(e entry) []string {
	lines := []string{
		titleStyle.Render(e.kmer),
		labelStyle.Render(fmt.Sprintf("total %d", e.total)),
		"",
	}
	if len(e.followers) == 0 {
		return append(lines, labelStyle.Render("no followers"))
	}
	barWidth := m.width*2/3 - 24
	if barWidth > maxBarWidth {
		barWidth = maxBarWidth
	}
	if barWidth < 1 {
		barWidth = 1
	}
	for _, c := range e.followers.Chars() {
		n := e.followers[c]
		pct := float64(n) * 100 / float64(e.total)
		bar := strings.Repeat("█", int(float64(barWidth)*float64(n)/float64(e.total)+0.5))
		lines = append(lines, fmt.Sprintf("%s %6d %5.1f%% %s", charStyle.Render(string(c)), n, pct, barStyle.Render(bar)))
	}
	return lines
}

func (m model) renderRightPanel() string {
	panel := containerStyle.Width(m.width*2/3 - 2).Height(m.height - 4)
	if len(m.entries) == 0 {
		return panel.Render("No k-mers in " + m.source)
	}
	selected, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return panel.Render("No item selected")
	}
	return panel.Render(strings.Join(m.buildRightLines(selected.entry), "\n"))
}

func (m model) renderStatusBar() string {
	leftInfo := fmt.Sprintf("%d/%d k-mers", m.list.Index()+1, len(m.entries))
	centerInfo := fmt.Sprintf("Sort: %s", m.sort)
	rightInfo := "'s' sort • 'h' help • 'q' quit"

	spacing := m.width - len(leftInfo) - len(centerInfo) - len(rightInfo) - 6
	var statusContent string
	if spacing > 0 {
		leftSpacing := spacing / 2
		statusContent = leftInfo + strings.Repeat(" ", leftSpacing) + centerInfo + strings.Repeat(" ", spacing-leftSpacing) + rightInfo
	} else {
		// Fallback for narrow terminals
		statusContent = fmt.Sprintf("%s | %s", leftInfo, centerInfo)
	}
	return statusBarStyle.Width(m.width).Render(statusContent)
}

func (m model) renderHelpModal() string {
	helpContent := `k-mer context browser - Help

Navigation:
  ↑/↓, j/k     Navigate list
  /            Filter k-mers

View:
  s            Cycle sort order (k-mer, total)

General:
  h            Toggle this help
  q, Ctrl+C    Quit application

Source: ` + m.source + `
Sort: ` + m.sort.String() + `
Total k-mers: ` + fmt.Sprintf("%d", len(m.entries)) + `
`
	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primaryColor).
		Padding(1, 2).
		Background(surfaceColor).
		Foreground(textColor).
		Width(60).
		Render(helpContent)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}

// loadStoreModel builds a model from the table stored for k in a SQLite
// archive. k == 0 picks the smallest stored k.
func loadStoreModel(ctx context.Context, path string, k int) (model, error) {
	s, err := store.Open(ctx, path)
	if err != nil {
		return model{}, err
	}
	defer s.Close()

	ks, err := s.Ks(ctx)
	if err != nil {
		return model{}, err
	}
	if len(ks) == 0 {
		return model{}, fmt.Errorf("%s: no tables stored", path)
	}
	if k == 0 {
		k = ks[0]
	} else if !slices.Contains(ks, k) {
		return model{}, fmt.Errorf("%s: no table for k=%d (stored: %v)", path, k, ks)
	}
	table, err := s.Load(ctx, k)
	if err != nil {
		return model{}, err
	}
	return newModel(table, fmt.Sprintf("%s (k=%d)", path, k)), nil
}

func main() {
	dbPath := pflag.String("db", "", "browse a SQLite archive written with kmerctx --sqlite instead of a summary file")
	k := pflag.IntP("window", "k", 0, "window length to show from --db (default: smallest stored)")
	pflag.Usage = func() {
		fmt.Println("Usage: kmerctx-tui <summary_file>")
		fmt.Println("       kmerctx-tui --db <database> [-k N]")
	}
	pflag.Parse()

	var (
		m   model
		err error
	)
	switch {
	case *dbPath != "" && pflag.NArg() == 0:
		m, err = loadStoreModel(context.Background(), *dbPath, *k)
	case *dbPath == "" && pflag.NArg() == 1:
		m, err = loadModel(pflag.Arg(0))
	default:
		pflag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v", err)
		os.Exit(1)
	}
}
