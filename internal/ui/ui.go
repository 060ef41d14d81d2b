package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/promptdj/internal/formatter"
	"github.com/desertthunder/promptdj/internal/models"
	"github.com/desertthunder/promptdj/internal/recommend"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	GenreView ViewState = iota
	ChatView
)

const (
	defaultRecentTurns = 3
	progressBuffer     = 16
	chromeHeight       = 6

	spotifyGreen = lipgloss.Color("#1DB954")
)

// Resolver produces one recommendation per chat turn.
type Resolver interface {
	Resolve(ctx context.Context, req models.RecommendationRequest, progress chan<- recommend.StageUpdate) *models.ResolutionResult
}

// Options configures a [Model].
type Options struct {
	Genre       models.Genre              // preselected genre; empty opens the genre list
	RecentTurns int                       // transcript entries sent as context, default 3
	Examples    func(models.Genre) string // genre list descriptions
}

type role int

const (
	roleUser role = iota
	roleBot
)

type entry struct {
	role role
	text string
}

// resolveRun tracks one in-flight resolution. result is written before progress is closed.
type resolveRun struct {
	progress chan recommend.StageUpdate
	cancel   context.CancelFunc
	result   *models.ResolutionResult
}

// Model represents the chat application state.
//
// The model owns the session's exclusion set: every chosen song is added after its turn, and the
// set is cleared together with the transcript whenever the genre changes.
type Model struct {
	ctx         context.Context
	view        ViewState
	resolver    Resolver
	genre       models.Genre
	exclusions  *models.SessionExclusionSet
	transcript  []entry
	recentTurns int
	run         *resolveRun
	status      recommend.StageUpdate
	width       int
	height      int
	genreList   list.Model
	input       textinput.Model
	viewport    viewport.Model
	spinner     spinner.Model
	help        help.Model
	keys        keyMap
}

// NewModel creates a new chat model.
func NewModel(ctx context.Context, resolver Resolver, opts Options) *Model {
	if opts.Examples == nil {
		opts.Examples = func(models.Genre) string { return "" }
	}
	if opts.RecentTurns <= 0 {
		opts.RecentTurns = defaultRecentTurns
	}

	genreList := list.New(genreItems(opts.Examples), list.NewDefaultDelegate(), 0, 0)
	genreList.Title = "Pick a genre"
	genreList.SetShowStatusBar(false)

	input := textinput.New()
	input.Placeholder = "How are you feeling? What are you doing?"
	input.CharLimit = 500
	input.Prompt = "› "

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.bot

	m := &Model{
		ctx:         ctx,
		view:        GenreView,
		resolver:    resolver,
		exclusions:  models.NewSessionExclusionSet(),
		recentTurns: opts.RecentTurns,
		genreList:   genreList,
		input:       input,
		viewport:    viewport.New(0, 0),
		spinner:     sp,
		help:        help.New(),
		keys:        newKeyMap(),
	}
	if opts.Genre.Valid() {
		m.switchGenre(opts.Genre)
	}
	return m
}

// Init starts the cursor blink.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.genreList.SetSize(msg.Width-4, msg.Height-4)
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chromeHeight, 3)
		m.input.Width = max(msg.Width-4, 10)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			m.cancelRun()
			return m, tea.Quit
		}
		switch m.view {
		case GenreView:
			return m.handleGenreKeys(msg)
		case ChatView:
			return m.handleChatKeys(msg)
		}

	case spinner.TickMsg:
		if m.run == nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleResolver(msg)
	}

	return m.updateComponents(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case GenreView:
		return m.renderGenreList()
	case ChatView:
		return m.renderChat()
	default:
		return ""
	}
}

// Genre returns the active genre, or "" before one is picked.
func (m *Model) Genre() models.Genre { return m.genre }

// Exclusions returns the session's recommended song keys, oldest first.
func (m *Model) Exclusions() []string { return m.exclusions.Keys() }

func (m *Model) handleGenreKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.genreList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.genreList, cmd = m.genreList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.genreList.SelectedItem().(genreItem); ok {
			if item.genre != m.genre {
				m.switchGenre(item.genre)
			} else {
				m.view = ChatView
				m.input.Focus()
			}
			return m, textinput.Blink
		}
	case key.Matches(msg, m.keys.back):
		if m.genre != "" {
			m.view = ChatView
			m.input.Focus()
			return m, textinput.Blink
		}
	}

	var cmd tea.Cmd
	m.genreList, cmd = m.genreList.Update(msg)
	return m, cmd
}

func (m *Model) handleChatKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.genre):
		m.view = GenreView
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.clear):
		m.switchGenre(m.genre)
		return m, nil
	case key.Matches(msg, m.keys.scroll):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case key.Matches(msg, m.keys.send):
		return m, m.send()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleResolver(msg Msg) (tea.Model, tea.Cmd) {
	if msg.run != m.run || m.run == nil {
		return m, nil
	}

	switch msg.kind {
	case MsgStageUpdate:
		m.status = msg.data.(recommend.StageUpdate)
		return m, waitForProgress(msg.run)

	case MsgResolved:
		m.run = nil
		m.status = recommend.StageUpdate{}
		res, _ := msg.data.(*models.ResolutionResult)
		if res == nil {
			m.transcript = append(m.transcript, entry{role: roleBot, text: formatter.Apology})
		} else {
			if res.Chosen != nil {
				m.exclusions.Add(res.Chosen.Key())
			}
			m.transcript = append(m.transcript, entry{role: roleBot, text: res.Text})
		}
		m.refresh()
	}
	return m, nil
}

func (m *Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case GenreView:
		m.genreList, cmd = m.genreList.Update(msg)
	case ChatView:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

// switchGenre starts a fresh session: any in-flight turn is abandoned and the transcript and
// exclusion set are cleared.
func (m *Model) switchGenre(g models.Genre) {
	m.cancelRun()
	m.genre = g
	m.exclusions.Clear()
	m.transcript = []entry{{role: roleBot, text: welcome(g)}}
	m.input.Reset()
	m.input.Focus()
	m.view = ChatView
	m.refresh()
}

// send submits the input as a new turn. Empty input and input during a pending turn are ignored.
func (m *Model) send() tea.Cmd {
	prompt := strings.TrimSpace(m.input.Value())
	if prompt == "" || m.run != nil {
		return nil
	}

	req, err := models.NewRecommendationRequest(prompt, m.genre, m.turns(), m.recentTurns, m.exclusions.Keys())
	if err != nil {
		m.transcript = append(m.transcript, entry{role: roleBot, text: styles.err.Render(err.Error())})
		m.refresh()
		return nil
	}

	m.transcript = append(m.transcript, entry{role: roleUser, text: prompt})
	m.input.Reset()
	m.refresh()

	ctx, cancel := context.WithCancel(m.ctx)
	run := &resolveRun{progress: make(chan recommend.StageUpdate, progressBuffer), cancel: cancel}
	m.run = run

	go func() {
		defer cancel()
		run.result = m.resolver.Resolve(ctx, req, run.progress)
		close(run.progress)
	}()

	return tea.Batch(m.spinner.Tick, waitForProgress(run))
}

func (m *Model) cancelRun() {
	if m.run != nil {
		m.run.cancel()
		m.run = nil
	}
	m.status = recommend.StageUpdate{}
}

// turns renders the transcript as "role: text" lines with link tokens removed.
func (m *Model) turns() []string {
	out := make([]string, 0, len(m.transcript))
	for _, e := range m.transcript {
		switch e.role {
		case roleUser:
			out = append(out, "user: "+e.text)
		case roleBot:
			out = append(out, "bot: "+formatter.StripLinks(e.text))
		}
	}
	return out
}

func waitForProgress(run *resolveRun) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-run.progress
		if !ok {
			return resolvedMsg(run, run.result)
		}
		return stageUpdateMsg(run, update)
	}
}

func (m *Model) refresh() {
	if m.viewport.Width == 0 {
		return
	}
	parts := make([]string, len(m.transcript))
	for i, e := range m.transcript {
		parts[i] = m.renderEntry(e)
	}
	m.viewport.SetContent(strings.Join(parts, "\n\n"))
	m.viewport.GotoBottom()
}

func (m *Model) renderEntry(e entry) string {
	wrap := lipgloss.NewStyle().Width(max(m.viewport.Width-4, 20))

	if e.role == roleUser {
		return styles.user.Render("You") + "\n" + styles.bubble.Render(wrap.Render(e.text))
	}
	return styles.bot.Render("DJ") + "\n" + styles.bubble.Render(wrap.Render(renderBotText(e.text)))
}

// renderBotText replaces the MUSIC_LINKS token with link lines. A missing or malformed token leaves
// the raw text.
func renderBotText(text string) string {
	clean, links, ok := formatter.ExtractLinks(text)
	if !ok {
		return strings.TrimRight(text, "\n")
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(clean, "\n"))
	b.WriteString("\n\n")
	b.WriteString(renderLink("▶", links.YouTube, styles.link))
	if links.Spotify != nil {
		b.WriteString("\n♫ " + links.Spotify.Label + ": " + styles.As(links.Spotify.URL, spotifyGreen))
	}
	if links.Preview != nil {
		b.WriteString("\n" + renderLink("◷", *links.Preview, styles.help))
	}
	return b.String()
}

func renderLink(icon string, l models.Link, style lipgloss.Style) string {
	return fmt.Sprintf("%s %s: %s", icon, l.Label, style.Render(l.URL))
}

func (m *Model) renderGenreList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	if m.genre != "" {
		helpKeys = []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	}
	return fmt.Sprintf("%s\n\n%s", m.genreList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderChat() string {
	header := styles.title.Render(fmt.Sprintf("🎧 PromptDJ · %s", m.genre.Label()))
	if n := m.exclusions.Len(); n > 0 {
		header += styles.help.Render(fmt.Sprintf("  %d recommended this session", n))
	}

	status := ""
	if m.run != nil {
		msg := m.status.Message
		if msg == "" {
			msg = "Thinking..."
		}
		status = m.spinner.View() + " " + styles.warn.Render(msg)
	}

	helpKeys := []key.Binding{m.keys.send, m.keys.genre, m.keys.clear, m.keys.quit}
	return strings.Join([]string{
		header,
		m.viewport.View(),
		status,
		m.input.View(),
		m.help.ShortHelpView(helpKeys),
	}, "\n")
}

// welcome is the greeting shown at the start of every session.
func welcome(g models.Genre) string {
	switch g {
	case models.GenreKPop:
		return "🎧 Hi! I'm your K-Pop Prompt DJ! 🇰🇷✨\n\nFrom BTS to NewJeans, tell me your mood and I'll find the K-Pop track for it.\n\nWhat kind of K-Pop do you need?"
	case models.GenreClassical:
		return "🎼 I'm your classical music Prompt DJ! 🎻✨\n\nFrom Bach's solemnity to Tchaikovsky's passion, let me guide you through the classics.\n\nWhat kind of classical music do you need?"
	case models.GenreAnimeOST:
		return "🎌 I'm your anime OST Prompt DJ! ⭐\n\nFrom Ghibli's gentle melodies to epic action scores, I'll bring you the feels.\n\nWhich anime soundtrack do you need?"
	case models.GenreJPop:
		return "🎸 I'm your J-Pop Prompt DJ! 🌸\n\nFrom city pop to the latest J-Pop, discover the special feel of Japanese pop.\n\nWhat kind of J-Pop do you need?"
	case models.GenreCPop:
		return "🇨🇳 I'm your C-Pop Prompt DJ! 🏮\n\nDiscover music from Taiwan, mainland China and Hong Kong.\n\nWhat kind of C-Pop do you need?"
	case models.GenrePop:
		return "🎤 I'm your pop music Prompt DJ! 🌟\n\nFrom the Billboard charts to hidden gems, I'll find the track for you.\n\nWhat kind of pop do you need?"
	default:
		return "🎵 I'm your all-genre Prompt DJ! 🌈\n\nRock, hip-hop, jazz, indie, world music: tell me what you need.\n\nWhat music do you need?"
	}
}
