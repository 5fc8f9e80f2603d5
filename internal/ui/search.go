package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/boardview/internal/model"
	"github.com/abelbrown/boardview/internal/otel"
	"github.com/abelbrown/boardview/internal/render"
	"github.com/abelbrown/boardview/internal/search"
)

// searchModel is the search tab and, with oekaki set, the gallery tab.
type searchModel struct {
	ctx      context.Context
	pager    *search.Pager
	imageURL func(model.Row) (string, bool)
	oekaki   bool
	webBase  string

	form      filterForm
	ascending bool
	cursor    int
	offset    int
	loading   bool
	err       error
	notice    string
	width     int
	height    int
}

func newSearchModel(ctx context.Context, client search.Client, log *otel.Logger, webBase string) searchModel {
	return searchModel{
		ctx:     ctx,
		pager:   search.NewPager(client, log),
		webBase: webBase,
		form:    newFilterForm(),
	}
}

func newGalleryModel(ctx context.Context, client search.Client, imageURL func(int) string, log *otel.Logger, webBase string) searchModel {
	g := search.NewGallery(client, imageURL, log)
	return searchModel{
		ctx:      ctx,
		pager:    g.Pager,
		imageURL: g.ImageURL,
		oekaki:   true,
		webBase:  webBase,
		form:     newFilterForm(),
	}
}

func (m *searchModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Typing reports whether the filter form holds the keyboard.
func (m searchModel) Typing() bool {
	return m.form.Focused()
}

// Rows returns the loaded rows (for testing).
func (m searchModel) Rows() []model.Row {
	return m.pager.Rows()
}

// page is the share-link path of this tab.
func (m searchModel) page() string {
	if m.oekaki {
		return "/oekaki"
	}
	return "/"
}

// SubmitID searches for every post of one ID.
func (m searchModel) SubmitID(id string) (searchModel, tea.Cmd) {
	m.form.SetFilters(model.Filters{ID: id})
	m.form.Blur()
	return m.submit()
}

func (m searchModel) submit() (searchModel, tea.Cmd) {
	f := m.form.Filters(m.ascending)
	if err := f.Validate(); err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.notice = ""
	m.loading = true
	m.cursor, m.offset = 0, 0
	pager, ctx, oekaki := m.pager, m.ctx, m.oekaki
	return m, func() tea.Msg {
		return searchDoneMsg{oekaki: oekaki, err: pager.Submit(ctx, f)}
	}
}

func (m searchModel) loadMore() (searchModel, tea.Cmd) {
	if !m.pager.HasMore() {
		m.notice = "これ以上の結果はありません"
		return m, nil
	}
	m.loading = true
	pager, ctx, oekaki := m.pager, m.ctx, m.oekaki
	return m, func() tea.Msg {
		return searchDoneMsg{oekaki: oekaki, more: true, err: pager.LoadMore(ctx)}
	}
}

func (m searchModel) Update(msg tea.Msg) (searchModel, tea.Cmd) {
	switch msg := msg.(type) {
	case searchDoneMsg:
		switch {
		case errors.Is(msg.err, search.ErrSuperseded):
			return m, nil
		case errors.Is(msg.err, search.ErrInFlight):
			// Another request still owns the pager and will report back.
			return m, nil
		case errors.Is(msg.err, search.ErrNoMore):
			m.loading = false
			m.notice = "これ以上の結果はありません"
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		m.clamp()
		return m, nil

	case tea.KeyMsg:
		if m.form.Focused() {
			switch {
			case key.Matches(msg, keys.Submit):
				m.form.Blur()
				return m.submit()
			case key.Matches(msg, keys.Blur):
				m.form.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.form, cmd = m.form.Update(msg)
			return m, cmd
		}

		switch {
		case key.Matches(msg, keys.Focus):
			cmd := m.form.Focus()
			return m, cmd
		case key.Matches(msg, keys.Submit):
			return m.submit()
		case key.Matches(msg, keys.Down):
			m.cursor++
			m.clamp()
		case key.Matches(msg, keys.Up):
			m.cursor--
			m.clamp()
		case key.Matches(msg, keys.More):
			if m.loading {
				return m, nil
			}
			return m.loadMore()
		case key.Matches(msg, keys.Order):
			m.ascending = !m.ascending
			return m.submit()
		case key.Matches(msg, keys.ByID):
			rows := m.pager.Rows()
			if m.cursor < len(rows) && rows[m.cursor].ID != "" {
				return m.SubmitID(rows[m.cursor].ID)
			}
		case key.Matches(msg, keys.Share):
			m.notice = model.ShareURL(m.webBase, m.page(), m.pager.State().Filters.Values())
		}
		return m, nil
	}

	// Cursor blinks and anything else belong to the focused field.
	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

// rowLines is the fixed height of one rendered row.
func (m searchModel) rowLines() int {
	if m.oekaki {
		return 3
	}
	return 2
}

// listHeight is the number of lines left for rows below the form and summary.
func (m searchModel) listHeight() int {
	h := m.height - 7
	if h < m.rowLines() {
		h = m.rowLines()
	}
	return h
}

func (m *searchModel) clamp() {
	n := len(m.pager.Rows())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	visible := m.listHeight() / m.rowLines()
	if visible < 1 {
		visible = 1
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

func (m searchModel) View() string {
	st := m.pager.State()

	var b strings.Builder
	b.WriteString(m.form.View() + "\n")

	order := "新しい順"
	if m.ascending {
		order = "古い順"
	}
	b.WriteString(PostMeta.Render("並び: "+order) + "  " + countLine(st.Count) + "\n")

	switch {
	case m.err != nil:
		b.WriteString(ErrorStyle.Render("エラー: "+m.err.Error()) + "\n")
	case m.notice != "":
		b.WriteString(LinkStyle.Render(m.notice) + "\n")
	case m.loading:
		b.WriteString(PostMeta.Render("検索中...") + "\n")
	default:
		b.WriteString("\n")
	}

	if st.Submitted && !m.loading && len(st.Rows) == 0 && m.err == nil {
		b.WriteString(HelpStyle.Render("該当するレスはありません"))
		return b.String()
	}

	visible := m.listHeight() / m.rowLines()
	for i := m.offset; i < len(st.Rows) && i < m.offset+visible; i++ {
		b.WriteString(renderRow(st.Rows[i], i == m.cursor, m.width, m.imageURL) + "\n")
	}
	if st.HasMore {
		b.WriteString(PostMeta.Render(fmt.Sprintf("%d件表示中  [m] さらに読み込む", len(st.Rows))))
	} else if len(st.Rows) > 0 {
		b.WriteString(PostMeta.Render(fmt.Sprintf("%d件 (すべて表示)", len(st.Rows))))
	}
	return b.String()
}

// countLine renders the search totals, or nothing before they arrive.
func countLine(c *model.Count) string {
	if c == nil {
		return ""
	}
	return CountStyle.Render(fmt.Sprintf("%s件 / ユニークID %s", render.Count(c.TotalResCount), render.Count(c.UniqueIDCount)))
}

// renderRow renders one result as a header line, a body line and, for the
// gallery, an image line. Pure function, no side effects.
func renderRow(r model.Row, selected bool, width int, imageURL func(model.Row) (string, bool)) string {
	when := r.DatetimeText
	if when == "" {
		when = render.Timestamp(r.Datetime)
	}
	header := fmt.Sprintf("No.%d %s %s ID:%s", r.No, r.NameAndTrip, when, r.ID)

	text := r.MainText
	if r.MainTextHTML != "" {
		text = render.Text(r.MainTextHTML)
	}
	limit := width - 4
	if limit < 10 {
		limit = 10
	}
	body := "  " + render.Truncate(render.OneLine(text), limit)

	var lines []string
	if selected {
		lines = append(lines, SelectedItem.Render(header))
	} else {
		lines = append(lines, PostHeader.Render(header))
	}
	lines = append(lines, NormalItem.Render(body))

	if imageURL != nil {
		img := "  "
		if u, ok := imageURL(r); ok {
			if r.OekakiTitle != "" {
				img += r.OekakiTitle + " "
			}
			img += LinkStyle.Render(u)
		}
		if no, ok := search.DerivedFrom(r); ok {
			img += PostMeta.Render(fmt.Sprintf(" (No.%dの改変)", no))
		}
		lines = append(lines, img)
	}
	return strings.Join(lines, "\n")
}
