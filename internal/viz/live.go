package viz

import (
	"fmt"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/drivectl/internal/motion"
)

const (
	graphWidth      = 60
	graphHeight     = 10
	historyCapacity = 600
)

type SampleMsg struct {
	Kind   motion.Kind
	Sample motion.Sample
}

type DoneMsg struct {
	Result motion.Result
}

// Feed carries samples from a running primitive to the view, in order. It is
// a motion.Observer.
type Feed struct {
	msgs chan tea.Msg
	quit chan struct{}
	once sync.Once
}

func NewFeed(buffer int) *Feed {
	return &Feed{msgs: make(chan tea.Msg, buffer), quit: make(chan struct{})}
}

func (f *Feed) OnTick(kind motion.Kind, s motion.Sample) {
	f.send(SampleMsg{Kind: kind, Sample: s})
}

// Finish hands the final result to the view.
func (f *Feed) Finish(res motion.Result) {
	f.send(DoneMsg{Result: res})
}

// Close releases a primitive blocked on a view that has gone away.
func (f *Feed) Close() {
	f.once.Do(func() { close(f.quit) })
}

func (f *Feed) send(msg tea.Msg) {
	select {
	case f.msgs <- msg:
	case <-f.quit:
	}
}

func (f *Feed) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-f.msgs:
			return msg
		case <-f.quit:
			return nil
		}
	}
}

// Model is the live view of one motion run.
type Model struct {
	feed        *Feed
	title       string
	setpoint    float64
	strikeLimit int

	samples []motion.Sample
	result  *motion.Result
	frozen  bool
	frame   []motion.Sample
	theme   int
}

func NewModel(feed *Feed, title string, setpoint float64, strikeLimit int) Model {
	return Model{
		feed:        feed,
		title:       title,
		setpoint:    setpoint,
		strikeLimit: strikeLimit,
		samples:     make([]motion.Sample, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return m.feed.wait()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.feed.Close()
			return m, tea.Quit
		case " ":
			m.frozen = !m.frozen
			m.frame = append([]motion.Sample(nil), m.samples...)
		case "t":
			m.theme = (m.theme + 1) % len(Themes)
		}
	case SampleMsg:
		if len(m.samples) == historyCapacity {
			m.samples = m.samples[1:]
		}
		m.samples = append(m.samples, msg.Sample)
		return m, m.feed.wait()
	case DoneMsg:
		res := msg.Result
		m.result = &res
	}
	return m, nil
}

// Result is the final result once the run has finished.
func (m Model) Result() (motion.Result, bool) {
	if m.result == nil {
		return motion.Result{}, false
	}
	return *m.result, true
}

func (m Model) View() string {
	st := newStyles(Themes[m.theme])
	samples := m.samples
	if m.frozen {
		samples = m.frame
	}

	var b strings.Builder
	b.WriteString(st.title.Render(m.title) + "\n")

	if len(samples) > 1 {
		measured := make([]float64, len(samples))
		target := make([]float64, len(samples))
		output := make([]float64, len(samples))
		for i, s := range samples {
			measured[i], target[i], output[i] = s.Measurement, m.setpoint, s.Output
		}
		chart := asciigraph.PlotMany([][]float64{measured, target},
			asciigraph.Height(graphHeight), asciigraph.Width(graphWidth),
			asciigraph.SeriesColors(asciigraph.Cyan, asciigraph.DarkGray),
			asciigraph.Caption("measurement vs setpoint"))
		b.WriteString(st.graph.Render(chart) + "\n")
		b.WriteString(st.label.Render("Output") + st.sparkline(output, graphWidth) + "\n")
	} else {
		b.WriteString(st.help.Render("waiting for samples...") + "\n")
	}
	b.WriteString(st.separator(graphWidth) + "\n")

	var stats strings.Builder
	row := func(label, value string) {
		stats.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	if n := len(samples); n > 0 {
		s := samples[n-1]
		row("Tick", fmt.Sprintf("%d", s.Tick))
		row("Elapsed", s.Elapsed.String())
		row("Measured", fmt.Sprintf("%.2f / %.2f", s.Measurement, m.setpoint))
		row("Error", fmt.Sprintf("%+.3f", s.Error))
		row("Sides", fmt.Sprintf("%+.2f %+.2f", s.Left, s.Right))
		frac := 0.0
		if m.strikeLimit > 0 {
			frac = float64(s.Strikes) / float64(m.strikeLimit)
		}
		stats.WriteString(st.label.Render("Strikes") + st.progressBar(frac, 20) +
			fmt.Sprintf(" %d/%d", s.Strikes, m.strikeLimit) + "\n")
	}
	if m.result != nil {
		outcome := st.good.Render(m.result.Outcome.String())
		if m.result.Outcome == motion.TimedOut {
			outcome = st.bad.Render(m.result.Outcome.String())
		}
		row("Outcome", "")
		stats.WriteString(outcome + fmt.Sprintf("  final %.3f after %v\n", m.result.Final, m.result.Elapsed))
	}
	b.WriteString(st.panel.Render(strings.TrimRight(stats.String(), "\n")) + "\n")

	status := "live"
	if m.frozen {
		status = "frozen"
	}
	b.WriteString(st.help.Render(fmt.Sprintf("[%s] space freeze · t theme (%s) · q quit", status, Themes[m.theme].Name)))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
