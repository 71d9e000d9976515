package cli

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/famtree/pkg/canvas"
	"github.com/matzehuels/famtree/pkg/errors"
	"github.com/matzehuels/famtree/pkg/session"
	"github.com/matzehuels/famtree/pkg/tree"
)

func (c *CLI) viewCommand() *cobra.Command {
	var readOnly bool

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Browse and arrange the tree in the terminal",
		Long: `Browse and arrange the tree in the terminal.

  tab / shift+tab   select next / previous node
  arrows            move the selection one grid step (pan when nothing is selected)
  shift+arrows      pan
  + / -             zoom
  g                 toggle grid snapping
  l / r             layout / reset layout
  s                 save
  esc               clear selection
  q                 quit (saves unless --read-only)

Drag nodes with the mouse; shift-click adds to the selection.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			m := newViewModel(ctx, sess, c.grid())
			m.readOnly = readOnly
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
			if _, err := p.Run(); err != nil {
				return err
			}
			if readOnly || !sess.Dirty() {
				return nil
			}
			if err := sess.Save(context.WithoutCancel(ctx)); err != nil {
				return err
			}
			printSuccess("Saved %s", c.location())
			return nil
		},
	}
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "never save")
	return cmd
}

// =============================================================================
// viewModel - terminal canvas
// =============================================================================

// One terminal cell covers cellWidth by cellHeight screen units; the
// controller's viewport maps world units onto those.
const (
	cellWidth  = 10.0
	cellHeight = 20.0

	headerRows = 1
	footerRows = 2
)

var (
	tuiStatus = lipgloss.NewStyle().Foreground(colorGray)
	tuiError  = lipgloss.NewStyle().Foreground(colorRed)
)

type viewModel struct {
	ctx      context.Context
	sess     *session.Session
	ctl      *canvas.Controller
	grid     canvas.Grid
	readOnly bool

	width, height int
	pressed       bool
	moved         bool
	status        string
	err           error
}

func newViewModel(ctx context.Context, sess *session.Session, grid canvas.Grid) *viewModel {
	if grid.Size <= 0 {
		grid.Size = canvas.DefaultGridSize
	}
	m := &viewModel{
		ctx:    ctx,
		sess:   sess,
		grid:   grid,
		width:  80,
		height: 24,
	}
	m.ctl = canvas.NewController(sess.Store,
		canvas.WithGrid(grid),
		canvas.WithLayoutConfig(sess.Engine.Config()),
	)
	m.ctl.PanBy(tree.Point{X: 2 * cellWidth, Y: cellHeight})
	return m
}

func (m *viewModel) Init() tea.Cmd { return nil }

func (m *viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		return m, m.key(msg.String())
	case tea.MouseMsg:
		m.mouse(msg)
	}
	return m, nil
}

func (m *viewModel) key(k string) tea.Cmd {
	m.err = nil
	switch k {
	case "q", "ctrl+c":
		return tea.Quit
	case "tab":
		m.cycle(1)
	case "shift+tab":
		m.cycle(-1)
	case "esc":
		m.ctl.ClearSelection()
	case "up", "down", "left", "right":
		d := direction(k)
		if len(m.ctl.Selection()) == 0 {
			m.ctl.PanBy(tree.Point{X: -d.X * cellWidth * 4, Y: -d.Y * cellHeight * 2})
			break
		}
		m.nudge(d.Scale(m.grid.Size))
	case "shift+up", "shift+down", "shift+left", "shift+right":
		d := direction(strings.TrimPrefix(k, "shift+"))
		m.ctl.PanBy(tree.Point{X: -d.X * cellWidth * 4, Y: -d.Y * cellHeight * 2})
	case "+", "=":
		m.ctl.ZoomAt(m.center(), 1.25)
	case "-":
		m.ctl.ZoomAt(m.center(), 0.8)
	case "g":
		m.grid.Enabled = !m.grid.Enabled
		m.ctl.SetGrid(m.grid)
		m.status = fmt.Sprintf("snap %v", m.grid.Enabled)
	case "l", "r":
		res := m.sess.Layout(k == "r")
		m.status = fmt.Sprintf("layout: %d generations, %d crossings", len(res.Tiers), res.Crossings)
		m.err = res.Warning()
	case "s":
		if m.readOnly {
			m.status = "read-only"
			break
		}
		if m.err = m.sess.Save(m.ctx); m.err == nil {
			m.status = "saved"
		}
	}
	return nil
}

func direction(k string) tree.Point {
	switch k {
	case "up":
		return tree.Point{Y: -1}
	case "down":
		return tree.Point{Y: 1}
	case "left":
		return tree.Point{X: -1}
	}
	return tree.Point{X: 1}
}

// cycle moves a single selection through the nodes in id order.
func (m *viewModel) cycle(step int) {
	refs := m.sess.Store.NodeRefs()
	if len(refs) == 0 {
		return
	}
	slices.SortFunc(refs, tree.CompareRefs)
	i := -1
	if sel := m.ctl.Selection(); len(sel) > 0 {
		i = slices.Index(refs, sel[len(sel)-1])
	}
	switch {
	case i < 0 && step < 0:
		i = len(refs) - 1
	case i < 0:
		i = 0
	default:
		i = (i + step + len(refs)) % len(refs)
	}
	m.ctl.Select(refs[i])
}

// nudge moves every selected node by delta.
func (m *viewModel) nudge(delta tree.Point) {
	sel := m.ctl.Selection()
	anchor := sel[len(sel)-1]
	m.err = m.sess.Do(func(s *tree.Store) error {
		pos, _, ok := s.NodePosition(anchor)
		if !ok {
			return errors.New(errors.ErrCodeInvalidInput, "%s is gone", anchor)
		}
		return m.ctl.DragTo(anchor, pos.Add(delta))
	})
}

func (m *viewModel) mouse(msg tea.MouseMsg) {
	pt := cellToScreen(msg.X, msg.Y)
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.ctl.Scroll(pt, 120)
	case msg.Button == tea.MouseButtonWheelDown:
		m.ctl.Scroll(pt, -120)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if msg.Shift {
			m.ctl.Click(pt, true)
			return
		}
		m.pressed, m.moved = true, false
		m.ctl.PointerDown(pt)
	case msg.Action == tea.MouseActionMotion && m.pressed:
		m.moved = true
		m.ctl.PointerMove(pt)
	case msg.Action == tea.MouseActionRelease && m.pressed:
		m.pressed = false
		if !m.ctl.Dragging() {
			if err := m.ctl.PointerUp(pt); err != nil {
				m.err = err
			}
			if !m.moved {
				m.ctl.Click(pt, false)
			}
			return
		}
		m.err = m.sess.Do(func(*tree.Store) error { return m.ctl.PointerUp(pt) })
	}
}

func cellToScreen(col, row int) tree.Point {
	return tree.Point{X: float64(col) * cellWidth, Y: float64(row-headerRows) * cellHeight}
}

func (m *viewModel) center() tree.Point {
	return cellToScreen(m.width/2, m.height/2)
}

func (m *viewModel) bodyRows() int { return max(1, m.height-headerRows-footerRows) }

func (m *viewModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(appName) + " " + StyleDim.Render(m.sess.Location))
	b.WriteString("\n")

	var canvasText string
	m.sess.View(func(s *tree.Store) { canvasText = m.drawCanvas(s) })
	b.WriteString(canvasText)

	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("tab select · arrows move · shift+arrows pan · +/- zoom · g snap · l layout · s save · q quit"))
	return b.String()
}

func (m *viewModel) statusLine() string {
	view := m.ctl.Viewport()
	parts := []string{fmt.Sprintf("zoom %.0f%%", view.Zoom*100)}
	if sel := m.ctl.Selection(); len(sel) > 0 {
		last := sel[len(sel)-1]
		pos, pin, _ := m.sess.Store.NodePosition(last)
		parts = append(parts, fmt.Sprintf("%s %s (%s)", m.sess.Store.NodeLabel(last), formatPoint(pos), pin))
		if len(sel) > 1 {
			parts = append(parts, fmt.Sprintf("+%d selected", len(sel)-1))
		}
	}
	if m.sess.Dirty() {
		parts = append(parts, "modified")
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	line := tuiStatus.Render(strings.Join(parts, " · "))
	if m.err != nil {
		line += " " + tuiError.Render(errors.UserMessage(m.err))
	}
	return line
}

// drawCanvas rasterizes the visible part of the world into terminal
// cells: grid dots first, then nodes in stacking order.
func (m *viewModel) drawCanvas(s *tree.Store) string {
	rows, cols := m.bodyRows(), max(1, m.width)
	cells := make([][]rune, rows)
	for i := range cells {
		cells[i] = []rune(strings.Repeat(" ", cols))
	}
	view := m.ctl.Viewport()

	if m.grid.Enabled {
		minW := view.ToWorld(tree.Point{})
		maxW := view.ToWorld(tree.Point{X: float64(cols) * cellWidth, Y: float64(rows) * cellHeight})
		xs, ys := m.grid.Lines(minW, maxW)
		for _, y := range ys {
			for _, x := range xs {
				col, row := toCell(view.ToScreen(tree.Point{X: x, Y: y}))
				if row >= 0 && row < rows && col >= 0 && col < cols {
					cells[row][col] = '·'
				}
			}
		}
	}

	refs := s.NodeRefs()
	slices.SortFunc(refs, tree.CompareRefs)
	for _, ref := range refs {
		minPt, maxPt, ok := m.ctl.Rect(ref)
		if !ok {
			continue
		}
		c0, r0 := toCell(view.ToScreen(minPt))
		c1, r1 := toCell(view.ToScreen(maxPt))
		r1 = max(r1, r0+2)
		c1 = max(c1, c0+2)
		drawBox(cells, r0, c0, r1, c1, m.ctl.Selected(ref), ref.Kind == tree.NodeEvent)
		drawLabel(cells, (r0+r1)/2, c0+1, c1-1, s.NodeLabel(ref))
	}

	var b strings.Builder
	for _, row := range cells {
		b.WriteString(string(row))
		b.WriteString("\n")
	}
	return b.String()
}

func toCell(screen tree.Point) (col, row int) {
	return int(math.Floor(screen.X / cellWidth)), int(math.Floor(screen.Y / cellHeight))
}

// Box characters: plain, selected, event.
var boxRunes = [3][6]rune{
	{'┌', '┐', '└', '┘', '─', '│'},
	{'╔', '╗', '╚', '╝', '═', '║'},
	{'╭', '╮', '╰', '╯', '─', '│'},
}

func drawBox(cells [][]rune, r0, c0, r1, c1 int, selected, event bool) {
	set := boxRunes[0]
	switch {
	case selected:
		set = boxRunes[1]
	case event:
		set = boxRunes[2]
	}
	put := func(r, c int, ch rune) {
		if r >= 0 && r < len(cells) && c >= 0 && c < len(cells[r]) {
			cells[r][c] = ch
		}
	}
	for c := c0 + 1; c < c1; c++ {
		put(r0, c, set[4])
		put(r1, c, set[4])
	}
	for r := r0 + 1; r < r1; r++ {
		put(r, c0, set[5])
		put(r, c1, set[5])
		for c := c0 + 1; c < c1; c++ {
			put(r, c, ' ')
		}
	}
	put(r0, c0, set[0])
	put(r0, c1, set[1])
	put(r1, c0, set[2])
	put(r1, c1, set[3])
}

// drawLabel centers label between columns c0 and c1, truncating with '…'.
func drawLabel(cells [][]rune, row, c0, c1 int, label string) {
	if row < 0 || row >= len(cells) || c1 < c0 {
		return
	}
	runes := []rune(label)
	width := c1 - c0 + 1
	if len(runes) > width {
		runes = append(runes[:max(0, width-1)], '…')
	}
	start := c0 + (width-len(runes))/2
	for i, ch := range runes {
		if c := start + i; c >= 0 && c < len(cells[row]) {
			cells[row][c] = ch
		}
	}
}
