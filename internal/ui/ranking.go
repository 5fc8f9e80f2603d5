package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/boardview/internal/model"
	"github.com/abelbrown/boardview/internal/otel"
	"github.com/abelbrown/boardview/internal/ranking"
	"github.com/abelbrown/boardview/internal/render"
)

// rankingModel is the ID ranking tab.
type rankingModel struct {
	ctx     context.Context
	view    *ranking.View
	webBase string

	form        filterForm
	rankingType model.RankingType
	state       ranking.State
	table       table.Model
	loaded      bool
	notice      string
	width       int
	height      int
}

func rankingColumns(width int) []table.Column {
	dateW := 19
	idW := 12
	if width > 0 && width < 90 {
		dateW = 10
	}
	return []table.Column{
		{Title: "順位", Width: 4},
		{Title: "ID", Width: idW},
		{Title: "投稿数", Width: 6},
		{Title: "最新", Width: 8},
		{Title: "最新日時", Width: dateW},
		{Title: "初回", Width: 8},
		{Title: "初回日時", Width: dateW},
	}
}

func newRankingModel(ctx context.Context, client ranking.Client, log *otel.Logger, webBase string) rankingModel {
	t := table.New(
		table.WithColumns(rankingColumns(0)),
		table.WithHeight(10),
	)
	minPosts := newInput("1", 6)
	return rankingModel{
		ctx:         ctx,
		view:        ranking.NewView(ranking.NewFetcher(client, log)),
		webBase:     webBase,
		form:        newFilterForm(formField{name: "min_posts", label: "最小投稿", input: minPosts}),
		rankingType: model.RankingPostCount,
		table:       t,
	}
}

func (m *rankingModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	h := height - 8
	if h < 3 {
		h = 3
	}
	m.table.SetColumns(rankingColumns(width))
	m.table.SetHeight(h)
	m.table.SetWidth(width)
}

// Typing reports whether the filter form holds the keyboard.
func (m rankingModel) Typing() bool {
	return m.form.Focused()
}

// State returns the last loaded state (for testing).
func (m rankingModel) State() ranking.State {
	return m.state
}

// Params reads the form into ranking params.
func (m rankingModel) Params() (model.RankingParams, error) {
	p := model.RankingParamsFromFilters(m.form.Filters(false))
	p.RankingType = m.rankingType
	if s := m.form.value("min_posts"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return p, fmt.Errorf("最小投稿数は整数で指定してください")
		}
		p.MinPosts = &n
	}
	return p, p.Validate()
}

// Load fetches the ranking for the current form.
func (m rankingModel) Load() (rankingModel, tea.Cmd) {
	p, err := m.Params()
	if err != nil {
		m.state = ranking.State{Params: p, Err: err}
		return m, nil
	}
	m.loaded = true
	m.notice = ""
	m.state = ranking.State{Params: p, Loading: true}
	view, ctx := m.view, m.ctx
	return m, func() tea.Msg {
		return rankingDoneMsg{state: view.Load(ctx, p)}
	}
}

// EnsureLoaded loads once on the first visit to the tab.
func (m rankingModel) EnsureLoaded() (rankingModel, tea.Cmd) {
	if m.loaded {
		return m, nil
	}
	return m.Load()
}

func (m rankingModel) Update(msg tea.Msg) (rankingModel, tea.Cmd) {
	switch msg := msg.(type) {
	case rankingDoneMsg:
		m.state = msg.state
		m.table.SetRows(rankingRows(msg.state.Result))
		m.table.SetCursor(0)
		m.table.Focus()
		return m, nil

	case tea.KeyMsg:
		if m.form.Focused() {
			switch {
			case key.Matches(msg, keys.Submit):
				m.form.Blur()
				return m.Load()
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
			m.table.Blur()
			cmd := m.form.Focus()
			return m, cmd
		case key.Matches(msg, keys.Type):
			if m.rankingType == model.RankingPostCount {
				m.rankingType = model.RankingRecentActivity
			} else {
				m.rankingType = model.RankingPostCount
			}
			return m.Load()
		case key.Matches(msg, keys.Share):
			m.notice = model.ShareURL(m.webBase, "/ranking", m.state.Params.Values())
			return m, nil
		case key.Matches(msg, keys.Submit):
			row := m.table.SelectedRow()
			if len(row) > 1 && row[1] != "" {
				id := row[1]
				return m, func() tea.Msg { return jumpToSearchMsg{id: id} }
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}

	// Cursor blinks and anything else belong to the focused field.
	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

// rankingRows converts entries into table rows. Pure function.
func rankingRows(res *model.RankingResult) []table.Row {
	if res == nil {
		return nil
	}
	rows := make([]table.Row, 0, len(res.Ranking))
	for _, e := range res.Ranking {
		rows = append(rows, table.Row{
			strconv.Itoa(e.Rank),
			e.ID,
			render.Count(e.PostCount),
			fmt.Sprintf("No.%d", e.LatestPostNo),
			render.Timestamp(e.LatestPostDatetime),
			fmt.Sprintf("No.%d", e.FirstPostNo),
			render.Timestamp(e.FirstPostDatetime),
		})
	}
	return rows
}

func (m rankingModel) typeLabel() string {
	if m.rankingType == model.RankingRecentActivity {
		return "最近の活動順"
	}
	return "投稿数順"
}

func (m rankingModel) View() string {
	var b strings.Builder
	b.WriteString(m.form.View() + "\n")
	b.WriteString(PostMeta.Render("種類: "+m.typeLabel()+"  [t] 切替  [enter] このIDを検索") + "\n")
	if m.notice != "" {
		b.WriteString(LinkStyle.Render(m.notice) + "\n")
	}

	st := m.state
	switch {
	case st.Loading:
		b.WriteString(PostMeta.Render("読み込み中...") + "\n")
	case st.Err != nil:
		b.WriteString(ErrorStyle.Render(ranking.FailureMessage+": "+st.Err.Error()) + "\n")
	case st.NoData():
		b.WriteString(HelpStyle.Render(ranking.NoDataMessage) + "\n")
		return b.String()
	case st.Result != nil:
		b.WriteString(CountStyle.Render(fmt.Sprintf("ユニークID数: %s  総レス数: %s",
			render.Count(st.Result.TotalUniqueIDs), render.Count(st.Result.TotalResCount))) + "\n")
	default:
		b.WriteString("\n")
	}

	if st.Result != nil && !st.Loading {
		b.WriteString(m.table.View())
	}
	return b.String()
}
