package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/foldview/foldview/pkg/present"
	"github.com/foldview/foldview/pkg/queue"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// viewCommand creates the view command for interactive graph exploration.
func (c *CLI) viewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "view [graph.json]",
		Short: "Explore a graph document interactively",
		Long: `Explore a graph document interactively in the terminal.

The view command imports a document and opens a container browser.
Collapsing a container folds its interior into a single block and
aggregates the crossing edges into hyperedges; the status line tracks how
the visible graph changes. Searching dims everything that does not match.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runView(cmd.Context(), args[0])
		},
	}
}

// runView implements the view command.
func (c *CLI) runView(ctx context.Context, input string) error {
	doc, err := loadDocument(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	co := c.newCoordinator(nil)
	res, err := co.Import(doc).Await(ctx)
	if err != nil {
		return err
	}

	model := newViewerModel(co, res.Frame)
	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// =============================================================================
// ViewerModel - Interactive container browser
// =============================================================================

// containerRow is one line in the container list.
type containerRow struct {
	ID        string
	Label     string
	Depth     int
	Collapsed bool
}

// frameMsg carries the result of a queued operation back into the model.
type frameMsg struct {
	frame present.Frame
	err   error
}

// viewerModel is the bubbletea model for interactive graph exploration.
type viewerModel struct {
	co    *queue.Coordinator
	rows  []containerRow
	frame present.Frame

	cursor int
	offset int
	height int

	searching bool
	query     string
	active    string // query currently applied as highlight

	err error
}

// newViewerModel creates a viewer over an already imported coordinator.
func newViewerModel(co *queue.Coordinator, frame present.Frame) viewerModel {
	m := viewerModel{
		co:     co,
		frame:  frame,
		height: 15,
	}
	m.rows = buildRows(co)
	return m
}

// buildRows flattens the container hierarchy into displayable lines,
// depth-first with siblings in ID order.
func buildRows(co *queue.Coordinator) []containerRow {
	st := co.State()

	children := make(map[string][]string)
	var roots []string
	for _, ct := range st.Containers() {
		if parent, ok := st.ContainerOf(ct.ID); ok {
			children[parent] = append(children[parent], ct.ID)
		} else {
			roots = append(roots, ct.ID)
		}
	}
	sort.Strings(roots)

	var rows []containerRow
	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		ct, ok := st.Container(id)
		if !ok {
			return
		}
		rows = append(rows, containerRow{
			ID:        ct.ID,
			Label:     ct.Label,
			Depth:     depth,
			Collapsed: ct.Collapsed,
		})
		kids := children[id]
		sort.Strings(kids)
		for _, kid := range kids {
			walk(kid, depth+1)
		}
	}
	for _, root := range roots {
		walk(root, 0)
	}
	return rows
}

func (m viewerModel) Init() tea.Cmd {
	return nil
}

func (m viewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.frame = msg.frame
		m.rows = buildRows(m.co)
		if m.cursor >= len(m.rows) && len(m.rows) > 0 {
			m.cursor = len(m.rows) - 1
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.height = msg.Height - 8
		if m.height < 5 {
			m.height = 5
		}
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

// updateBrowse handles keys in the normal browsing mode.
func (m viewerModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			if m.cursor < m.offset {
				m.offset = m.cursor
			}
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
			if m.cursor >= m.offset+m.height {
				m.offset = m.cursor - m.height + 1
			}
		}
	case "enter", " ":
		if m.cursor < len(m.rows) {
			row := m.rows[m.cursor]
			return m, m.await(func() *queue.Future[queue.PipelineResult] {
				if row.Collapsed {
					return m.co.ExpandContainer(row.ID)
				}
				return m.co.CollapseContainer(row.ID)
			})
		}
	case "C":
		return m, m.await(m.co.CollapseAll)
	case "E":
		return m, m.await(m.co.ExpandAll)
	case "/":
		m.searching = true
		m.query = m.active
	case "esc":
		if m.active != "" {
			m.active = ""
			return m, m.await(func() *queue.Future[queue.PipelineResult] {
				return m.co.Search("")
			})
		}
	}
	return m, nil
}

// updateSearch handles keys while the search prompt is open.
func (m viewerModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.query = m.active
	case "enter":
		m.searching = false
		m.active = m.query
		query := m.query
		return m, m.await(func() *queue.Future[queue.PipelineResult] {
			return m.co.Search(query)
		})
	case "backspace":
		if len(m.query) > 0 {
			m.query = m.query[:len(m.query)-1]
		}
	default:
		if msg.Type == tea.KeyRunes {
			m.query += string(msg.Runes)
		}
	}
	return m, nil
}

// await runs a queued operation and delivers its frame as a message. The
// queue serializes operations, so firing several commands is safe.
func (m viewerModel) await(start func() *queue.Future[queue.PipelineResult]) tea.Cmd {
	return func() tea.Msg {
		res, err := start().Await(context.Background())
		return frameMsg{frame: res.Frame, err: err}
	}
}

func (m viewerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("foldview"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ toggle  C collapse all  E expand all  / search  q quit"))
	b.WriteString("\n")

	hyper := 0
	for _, e := range m.frame.Edges {
		if e.Aggregated {
			hyper++
		}
	}
	stats := fmt.Sprintf("%d visible · %d edges · %d aggregated", len(m.frame.Nodes), len(m.frame.Edges)-hyper, hyper)
	if m.active != "" {
		stats += " · filter: " + m.active
	}
	b.WriteString(listDimStyle.Render(stats))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(listDimStyle.Render("  no containers"))
		b.WriteString("\n")
	}

	end := m.offset + m.height
	if end > len(m.rows) {
		end = len(m.rows)
	}
	for i := m.offset; i < end; i++ {
		row := m.rows[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		icon := "▾"
		if row.Collapsed {
			icon = "▸"
		}

		label := row.Label
		if label == "" {
			label = row.ID
		}
		line := cursor + strings.Repeat("  ", row.Depth) + icon + " " + label

		style := listNormalStyle
		if i == m.cursor {
			style = listSelectedStyle
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.searching {
		b.WriteString(StyleHighlight.Render("search: " + m.query + "█"))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(StyleWarning.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}

	return b.String()
}
