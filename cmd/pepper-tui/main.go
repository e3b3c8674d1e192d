package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pepperwatch/internal/chat"
	"pepperwatch/internal/config"
	"pepperwatch/internal/domain"
	"pepperwatch/internal/forecast"
	"pepperwatch/internal/market"
	"pepperwatch/internal/parse"
	"pepperwatch/internal/predict"
	"pepperwatch/internal/series"
	"pepperwatch/internal/viewcache"
	"pepperwatch/pkg/pepper"
)

// Styles.
var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	tabActiveStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	tabStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	regionStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	priceStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	gainStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	tierHighStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	tierMedStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	tierLowStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	errStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	userMsgStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	botMsgStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	predMarkStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
)

func tierStyleFor(t forecast.Tier) lipgloss.Style {
	switch t {
	case forecast.TierHigh:
		return tierHighStyle
	case forecast.TierMedium:
		return tierMedStyle
	default:
		return tierLowStyle
	}
}

// Tabs.
type tab int

const (
	tabOverview tab = iota
	tabPerformance
	tabData
	tabPredict
	tabChat
	tabCount
)

func (t tab) label() string {
	switch t {
	case tabOverview:
		return "Overview"
	case tabPerformance:
		return "Performance"
	case tabData:
		return "Data"
	case tabPredict:
		return "Predict"
	case tabChat:
		return "Chat"
	}
	return "?"
}

// Messages.
type tickMsg time.Time

type overviewLoadedMsg struct {
	data market.Overview
	err  error
}

type performanceLoadedMsg struct {
	region    domain.Region
	actual    domain.ChartSeries
	predicted domain.ChartSeries
	err       error
}

type tableLoadedMsg struct {
	region domain.Region
	rows   domain.ChartSeries
	err    error
}

type predictDoneMsg struct {
	outcome *predict.Outcome
	err     error
}

type chatDoneMsg struct{ err error }

type liveQuoteMsg struct {
	region domain.Region
	quote  domain.LatestQuote
	err    error
}

func tickCmd() tea.Cmd {
	return tea.Tick(60*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model.
type model struct {
	orch     *market.Orchestrator
	cache    *viewcache.Cache
	session  *chat.Session
	workflow *predict.Workflow
	views    config.Views
	logger   *slog.Logger

	activeTab tab
	regionIdx int // index into domain.Regions() for per-region tabs

	viewport      viewport.Model
	ready         bool
	width, height int

	// Overview.
	overview    market.Overview
	overviewErr error
	overviewOK  bool

	// Chat-extracted live quote for the active region.
	liveQuote    map[domain.Region]domain.LatestQuote
	liveQuoteErr map[domain.Region]error
	liveQuoting  bool

	// Performance and Data, keyed by region.
	perfActual    map[domain.Region]domain.ChartSeries
	perfPredicted map[domain.Region]domain.ChartSeries
	perfErr       map[domain.Region]error
	tableRows     map[domain.Region]domain.ChartSeries
	tableErr      map[domain.Region]error

	// Predict form.
	dateInput  textinput.Model
	predicting bool
	outcome    *predict.Outcome
	predictErr error

	// Chat.
	chatInput textinput.Model
	sending   bool
}

func initialModel(orch *market.Orchestrator, session *chat.Session, workflow *predict.Workflow, views config.Views, logger *slog.Logger) model {
	date := textinput.New()
	date.Placeholder = domain.DateLayout
	date.CharLimit = len(domain.DateLayout)
	date.Width = 12

	ci := textinput.New()
	ci.Placeholder = "ask about pepper prices..."
	ci.CharLimit = 240
	ci.Width = 60

	return model{
		orch:          orch,
		cache:         viewcache.New(),
		session:       session,
		workflow:      workflow,
		views:         views,
		logger:        logger,
		dateInput:     date,
		chatInput:     ci,
		liveQuote:     make(map[domain.Region]domain.LatestQuote),
		liveQuoteErr:  make(map[domain.Region]error),
		perfActual:    make(map[domain.Region]domain.ChartSeries),
		perfPredicted: make(map[domain.Region]domain.ChartSeries),
		perfErr:       make(map[domain.Region]error),
		tableRows:     make(map[domain.Region]domain.ChartSeries),
		tableErr:      make(map[domain.Region]error),
	}
}

func (m model) region() domain.Region {
	return domain.Regions()[m.regionIdx]
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.loadOverviewCmd(), tickCmd())
}

// ---------------------------------------------------------------------------
// Load commands (each tab fetches lazily, once, through the view cache)
// ---------------------------------------------------------------------------

func (m *model) loadOverviewCmd() tea.Cmd {
	orch, cache, days := m.orch, m.cache, m.views.OverviewDays
	return func() tea.Msg {
		v, err := cache.Ensure(context.Background(), viewcache.ViewOverview, "", func(ctx context.Context) (any, error) {
			ov, err := orch.GetOverview(ctx, days)
			// Partial overviews still render; only a total failure is an error.
			if err != nil && len(ov.Trends) == 0 && len(ov.Latest) == 0 {
				return nil, err
			}
			return ov, nil
		})
		if err != nil {
			return overviewLoadedMsg{err: err}
		}
		return overviewLoadedMsg{data: v.(market.Overview)}
	}
}

func (m *model) loadPerformanceCmd(region domain.Region) tea.Cmd {
	orch, cache, days := m.orch, m.cache, m.views.BacktestDays
	return func() tea.Msg {
		v, err := cache.Ensure(context.Background(), viewcache.ViewPerformance, region, func(ctx context.Context) (any, error) {
			points, err := orch.GetBacktest(ctx, region, days)
			if err != nil {
				return nil, err
			}
			actual, predicted := series.FromBacktest(points)
			return [2]domain.ChartSeries{actual, predicted}, nil
		})
		if err != nil {
			return performanceLoadedMsg{region: region, err: err}
		}
		pair := v.([2]domain.ChartSeries)
		return performanceLoadedMsg{region: region, actual: pair[0], predicted: pair[1]}
	}
}

func (m *model) loadTableCmd(region domain.Region) tea.Cmd {
	orch, cache, days := m.orch, m.cache, m.views.TableDays
	return func() tea.Msg {
		v, err := cache.Ensure(context.Background(), viewcache.ViewTable, region, func(ctx context.Context) (any, error) {
			points, err := orch.GetHistorical(ctx, region, days)
			if err != nil {
				return nil, err
			}
			return series.Reversed(series.Build(points, nil)), nil
		})
		if err != nil {
			return tableLoadedMsg{region: region, err: err}
		}
		return tableLoadedMsg{region: region, rows: v.(domain.ChartSeries)}
	}
}

func (m *model) runPredictCmd(region domain.Region, date string) tea.Cmd {
	wf := m.workflow
	return func() tea.Msg {
		out, err := wf.Run(context.Background(), predict.Input{Region: string(region), Date: date})
		return predictDoneMsg{outcome: out, err: err}
	}
}

func (m *model) askLiveQuoteCmd(region domain.Region) tea.Cmd {
	orch := m.orch
	return func() tea.Msg {
		q, err := orch.LatestQuoteViaChat(context.Background(), region)
		return liveQuoteMsg{region: region, quote: q, err: err}
	}
}

func (m *model) sendChatCmd(text string) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		return chatDoneMsg{err: session.Send(context.Background(), text)}
	}
}

// ensureTabLoaded kicks off a fetch for the active tab if its data is not
// cached yet. Switching back to a loaded tab costs nothing.
func (m *model) ensureTabLoaded() tea.Cmd {
	switch m.activeTab {
	case tabOverview:
		if m.cache.Status(viewcache.ViewOverview, "") == viewcache.StatusEmpty {
			return m.loadOverviewCmd()
		}
	case tabPerformance:
		if m.cache.Status(viewcache.ViewPerformance, m.region()) == viewcache.StatusEmpty {
			return m.loadPerformanceCmd(m.region())
		}
	case tabData:
		if m.cache.Status(viewcache.ViewTable, m.region()) == viewcache.StatusEmpty {
			return m.loadTableCmd(m.region())
		}
	}
	return nil
}

// refreshTab invalidates the active tab's cache entry and refetches.
func (m *model) refreshTab() tea.Cmd {
	switch m.activeTab {
	case tabOverview:
		m.cache.Invalidate(viewcache.ViewOverview, "")
		m.overviewOK = false
		return m.loadOverviewCmd()
	case tabPerformance:
		m.cache.Invalidate(viewcache.ViewPerformance, m.region())
		delete(m.perfActual, m.region())
		return m.loadPerformanceCmd(m.region())
	case tabData:
		m.cache.Invalidate(viewcache.ViewTable, m.region())
		delete(m.tableRows, m.region())
		return m.loadTableCmd(m.region())
	}
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Text inputs swallow most keys while focused.
		if m.dateInput.Focused() || m.chatInput.Focused() {
			return m.updateFocusedInput(msg)
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m.afterTabSwitch()
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m.afterTabSwitch()
		case "1", "2", "3":
			idx := int(msg.String()[0] - '1')
			if idx < len(domain.Regions()) && idx != m.regionIdx {
				m.regionIdx = idx
				m.setContent()
				return m, m.ensureTabLoaded()
			}
			return m, nil
		case "r":
			m.setContent()
			return m, m.refreshTab()
		case "l":
			if m.activeTab == tabOverview && !m.liveQuoting {
				m.liveQuoting = true
				m.setContent()
				return m, m.askLiveQuoteCmd(m.region())
			}
			return m, nil
		case "enter", "i":
			switch m.activeTab {
			case tabPredict:
				m.dateInput.Focus()
				m.setContent()
				return m, textinput.Blink
			case tabChat:
				m.chatInput.Focus()
				m.setContent()
				return m, textinput.Blink
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := m.height - 2
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.MouseWheelEnabled = true
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.setContent()
		return m, nil

	case tickMsg:
		// Keep the overview fresh; per-region tabs refresh on demand.
		m.cache.Invalidate(viewcache.ViewOverview, "")
		return m, tea.Batch(m.loadOverviewCmd(), tickCmd())

	case overviewLoadedMsg:
		m.overviewErr = msg.err
		if msg.err == nil {
			m.overview = msg.data
			m.overviewOK = true
		}
		m.setContent()
		return m, nil

	case performanceLoadedMsg:
		m.perfErr[msg.region] = msg.err
		if msg.err == nil {
			m.perfActual[msg.region] = msg.actual
			m.perfPredicted[msg.region] = msg.predicted
		}
		m.setContent()
		return m, nil

	case tableLoadedMsg:
		m.tableErr[msg.region] = msg.err
		if msg.err == nil {
			m.tableRows[msg.region] = msg.rows
		}
		m.setContent()
		return m, nil

	case predictDoneMsg:
		m.predicting = false
		m.predictErr = msg.err
		if msg.err == nil {
			m.outcome = msg.outcome
		}
		m.setContent()
		return m, nil

	case chatDoneMsg:
		m.sending = false
		m.setContent()
		m.viewport.GotoBottom()
		return m, nil

	case liveQuoteMsg:
		m.liveQuoting = false
		m.liveQuoteErr[msg.region] = msg.err
		if msg.err == nil {
			m.liveQuote[msg.region] = msg.quote
		}
		m.setContent()
		return m, nil
	}

	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m model) afterTabSwitch() (tea.Model, tea.Cmd) {
	m.dateInput.Blur()
	m.chatInput.Blur()
	m.setContent()
	m.viewport.GotoTop()
	return m, m.ensureTabLoaded()
}

func (m model) updateFocusedInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.dateInput.Blur()
		m.chatInput.Blur()
		m.setContent()
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		if m.activeTab == tabPredict && m.dateInput.Focused() {
			if m.predicting {
				return m, nil
			}
			m.predicting = true
			m.predictErr = nil
			m.setContent()
			return m, m.runPredictCmd(m.region(), strings.TrimSpace(m.dateInput.Value()))
		}
		if m.activeTab == tabChat && m.chatInput.Focused() {
			text := strings.TrimSpace(m.chatInput.Value())
			if text == "" || m.sending {
				return m, nil
			}
			m.sending = true
			m.chatInput.SetValue("")
			m.setContent()
			m.viewport.GotoBottom()
			return m, m.sendChatCmd(text)
		}
	}

	var cmd tea.Cmd
	if m.dateInput.Focused() {
		m.dateInput, cmd = m.dateInput.Update(msg)
	} else {
		m.chatInput, cmd = m.chatInput.Update(msg)
	}
	m.setContent()
	return m, cmd
}

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

func (m *model) setContent() {
	if !m.ready {
		return
	}
	var content string
	switch m.activeTab {
	case tabOverview:
		content = m.renderOverview()
	case tabPerformance:
		content = m.renderPerformance()
	case tabData:
		content = m.renderTable()
	case tabPredict:
		content = m.renderPredict()
	case tabChat:
		content = m.renderChat()
	}
	m.viewport.SetContent(content)
}

// sparkline renders prices as a compact block-character chart. A trailing
// prediction point is marked separately.
func sparkline(s domain.ChartSeries, width int) string {
	if len(s) == 0 {
		return ""
	}
	if width <= 0 || width > len(s) {
		width = len(s)
	}
	window := s[len(s)-width:]

	min, max := window[0].Price, window[0].Price
	for _, p := range window {
		if p.Price < min {
			min = p.Price
		}
		if p.Price > max {
			max = p.Price
		}
	}
	span := max - min

	blocks := []rune("▁▂▃▄▅▆▇█")
	var b strings.Builder
	for _, p := range window {
		lvl := 0
		if span > 0 {
			lvl = int((p.Price - min) / span * float64(len(blocks)-1))
		}
		ch := string(blocks[lvl])
		if p.IsPrediction {
			b.WriteString(predMarkStyle.Render(ch))
		} else {
			b.WriteString(ch)
		}
	}
	return b.String()
}

func (m *model) renderOverview() string {
	var b strings.Builder
	if !m.overviewOK {
		if m.overviewErr != nil {
			b.WriteString(errStyle.Render("  backend unreachable: " + m.overviewErr.Error()))
			b.WriteString("\n")
			return b.String()
		}
		return dimStyle.Render("  Loading...")
	}

	failed := make(map[domain.Region]bool)
	for _, r := range m.overview.Failed {
		failed[r] = true
	}

	for _, region := range domain.Regions() {
		b.WriteString("\n  ")
		b.WriteString(regionStyle.Render(region.DisplayName()))
		b.WriteString("\n")

		if q, ok := m.overview.Latest[region]; ok {
			b.WriteString("  ")
			b.WriteString(priceStyle.Render(series.FormatINR(q.Price)))
			b.WriteString(dimStyle.Render("  as of " + q.Date))
			b.WriteString("\n")
		}

		if m.liveQuoting && region == m.region() {
			b.WriteString(dimStyle.Render("  asking the assistant..."))
			b.WriteString("\n")
		} else if err, ok := m.liveQuoteErr[region]; ok && err != nil {
			var pe *parse.ParseError
			if errors.As(err, &pe) {
				b.WriteString(errStyle.Render("  live quote: unable to parse price"))
			} else {
				b.WriteString(errStyle.Render("  live quote unavailable"))
			}
			b.WriteString("\n")
		} else if q, ok := m.liveQuote[region]; ok {
			b.WriteString("  ")
			b.WriteString(dimStyle.Render("assistant: " + series.FormatINR(q.Price) + " (" + q.Date + ")"))
			b.WriteString("\n")
		}

		trend, ok := m.overview.Trends[region]
		if !ok {
			if failed[region] {
				b.WriteString(errStyle.Render("  trend unavailable"))
			} else {
				b.WriteString(dimStyle.Render("  no trend data"))
			}
			b.WriteString("\n")
			continue
		}

		chart := series.Build(trend, nil)
		b.WriteString("  ")
		b.WriteString(sparkline(chart, m.width-6))
		b.WriteString("\n")
		if len(trend) >= 2 && trend[0].Price != 0 {
			first, last := trend[0].Price, trend[len(trend)-1].Price
			pct := (last - first) / first * 100
			line := fmt.Sprintf("  %d days: %+0.2f%%", len(trend), pct)
			if pct >= 0 {
				b.WriteString(gainStyle.Render(line))
			} else {
				b.WriteString(lossStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}
	if len(m.overview.Failed) > 0 {
		b.WriteString("\n")
		b.WriteString(errStyle.Render(fmt.Sprintf("  %d region(s) failed to load; press r to retry", len(m.overview.Failed))))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *model) renderPerformance() string {
	region := m.region()
	actual, ok := m.perfActual[region]
	if !ok {
		if err := m.perfErr[region]; err != nil {
			return errStyle.Render("  backtest unavailable: " + err.Error())
		}
		return dimStyle.Render("  Loading...")
	}
	predicted := m.perfPredicted[region]

	var b strings.Builder
	b.WriteString("\n  ")
	b.WriteString(regionStyle.Render(region.DisplayName() + "  model accuracy"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  (%d days)", m.views.BacktestDays)))
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("  actual    ") + sparkline(actual, m.width-14) + "\n")
	b.WriteString(dimStyle.Render("  predicted ") + sparkline(predicted, m.width-14) + "\n\n")

	b.WriteString(dimStyle.Render(fmt.Sprintf("  %-12s %12s %12s %9s", "date", "actual", "predicted", "error%")))
	b.WriteString("\n")
	// Newest rows first.
	for i := len(actual) - 1; i >= 0; i-- {
		a := actual[i]
		p := predicted[i]
		errPct := 0.0
		if a.Price != 0 {
			errPct = (p.Price - a.Price) / a.Price * 100
		}
		row := fmt.Sprintf("  %-12s %12.2f %12.2f %+8.2f%%", a.Date, a.Price, p.Price, errPct)
		if errPct >= -1 && errPct <= 1 {
			b.WriteString(gainStyle.Render(row))
		} else {
			b.WriteString(row)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *model) renderTable() string {
	region := m.region()
	rows, ok := m.tableRows[region]
	if !ok {
		if err := m.tableErr[region]; err != nil {
			return errStyle.Render("  history unavailable: " + err.Error())
		}
		return dimStyle.Render("  Loading...")
	}

	var b strings.Builder
	b.WriteString("\n  ")
	b.WriteString(regionStyle.Render(region.DisplayName() + "  daily prices"))
	b.WriteString(dimStyle.Render("  (newest first)"))
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %-14s %-12s %12s", "date", "day", "price")))
	b.WriteString("\n")
	for _, p := range rows {
		b.WriteString(fmt.Sprintf("  %-14s %-12s ", p.Date, series.FormatDateShort(p.Date)))
		b.WriteString(priceStyle.Render(fmt.Sprintf("%12s", series.FormatINR(p.Price))))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *model) renderPredict() string {
	var b strings.Builder
	b.WriteString("\n  ")
	b.WriteString(regionStyle.Render("Predict  " + m.region().DisplayName()))
	b.WriteString(dimStyle.Render("  (1/2/3 to switch region)"))
	b.WriteString("\n\n  target date: ")
	b.WriteString(m.dateInput.View())
	if !m.dateInput.Focused() {
		b.WriteString(dimStyle.Render("   press enter to edit"))
	}
	b.WriteString("\n")

	if m.predicting {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("  predicting..."))
		b.WriteString("\n")
		return b.String()
	}
	if m.predictErr != nil {
		b.WriteString("\n")
		b.WriteString(errStyle.Render("  " + m.predictErr.Error()))
		b.WriteString("\n")
	}

	out := m.outcome
	if out == nil {
		return b.String()
	}

	b.WriteString("\n  ")
	b.WriteString(priceStyle.Render(series.FormatINR(out.Result.PredictedPrice)))
	b.WriteString(dimStyle.Render("  for " + out.Result.TargetDate))
	b.WriteString("\n  ")
	b.WriteString(tierStyleFor(out.Tier).Render(out.Tier.Label()))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  (%d day horizon)", out.Horizon)))
	b.WriteString("\n")

	if out.ContextErr != nil {
		b.WriteString(dimStyle.Render("  recent history unavailable; showing price only"))
		b.WriteString("\n")
		return b.String()
	}
	if len(out.Series) > 0 {
		b.WriteString("\n  ")
		b.WriteString(sparkline(out.Series, m.width-6))
		b.WriteString("\n  ")
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d days of history, prediction marked", len(out.Series)-1)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *model) renderChat() string {
	var b strings.Builder
	msgs := m.session.Messages()

	if len(msgs) == 0 && !m.sending {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("  Try asking:"))
		b.WriteString("\n")
		for _, prompt := range chat.SuggestedPrompts {
			b.WriteString(dimStyle.Render("    · " + prompt))
			b.WriteString("\n")
		}
	}

	for _, msg := range msgs {
		b.WriteString("\n")
		if msg.Role == domain.RoleUser {
			b.WriteString(userMsgStyle.Render("  you: "))
			b.WriteString(msg.Content)
		} else {
			b.WriteString(botMsgStyle.Render("  bot: " + msg.Content))
		}
		b.WriteString("\n")
	}
	if m.sending {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("  thinking..."))
		b.WriteString("\n")
	}
	if err := m.session.LastError(); err != nil && !m.sending {
		b.WriteString("\n")
		b.WriteString(errStyle.Render("  send failed: " + err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n  ")
	b.WriteString(m.chatInput.View())
	if !m.chatInput.Focused() {
		b.WriteString(dimStyle.Render("   press enter to type"))
	}
	b.WriteString("\n")
	return b.String()
}

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var tabs []string
	for t := tabOverview; t < tabCount; t++ {
		label := " " + t.label() + " "
		if t == m.activeTab {
			tabs = append(tabs, tabActiveStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	headerText := " pepperwatch  " + strings.Join(tabs, "")
	header := headerStyle.Render(padOrTrunc(headerText, m.width))

	footerLeft := " q quit  tab switch view  1/2/3 region  r refresh  l live quote  enter input"
	pct := fmt.Sprintf("%.0f%% ", m.viewport.ScrollPercent()*100)
	gap := m.width - len(footerLeft) - len(pct)
	if gap < 0 {
		gap = 0
	}
	footer := footerStyle.Render(padOrTrunc(footerLeft+strings.Repeat(" ", gap)+pct, m.width))

	return header + "\n" + m.viewport.View() + "\n" + footer
}

// padOrTrunc pads s with spaces to width, or truncates if longer.
func padOrTrunc(s string, width int) string {
	n := len(s)
	if n >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-n)
}

func main() {
	cfgPath := "config/pepperwatch.yaml"
	if p := os.Getenv("PEPPER_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		cfg = config.Default()
	}
	if cfg.Backend.BaseURL == "" {
		fmt.Fprintln(os.Stderr, "backend URL not configured: set PEPPER_BACKEND_URL or backend.base_url in", cfgPath)
		os.Exit(1)
	}

	logPath := fmt.Sprintf("/tmp/pepper-tui-%s.log", time.Now().Format("2006-01-02"))
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Fatalf("opening log file: %v", err)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: slog.LevelInfo}))

	client := pepper.NewClient(cfg.Backend.BaseURL, pepper.WithTimeout(cfg.Backend.Timeout()))
	orch := market.New(client, logger)
	session := chat.NewSession(orch, logger)
	workflow := predict.NewWorkflow(orch, forecast.SystemClock{}, logger,
		cfg.Forecast.MaxDaysAhead, cfg.Views.PredictContextDays)

	logger.Info("pepper-tui starting", "backend", cfg.Backend.BaseURL)

	p := tea.NewProgram(
		initialModel(orch, session, workflow, cfg.Views, logger),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
