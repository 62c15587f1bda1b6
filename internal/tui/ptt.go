// SPDX-License-Identifier: MIT
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"ptt/internal/audio"
	"ptt/internal/sink"
)

// refreshInterval is how often counters are re-read from the pipeline.
const refreshInterval = 100 * time.Millisecond

// maxTranscriptLines bounds the transcript history on screen.
const maxTranscriptLines = 8

// Pipeline is the running graph as the UI sees it.
type Pipeline interface {
	Recording() bool
	Buffered() int
	Err() error
	Failed() <-chan struct{}
}

// Counters reports traffic totals.
type Counters interface {
	Packets() int64
	Bursts() int64
}

type pttKeys struct {
	Talk key.Binding
	Quit key.Binding
}

func (k pttKeys) ShortHelp() []key.Binding  { return []key.Binding{k.Talk, k.Quit} }
func (k pttKeys) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

var defaultPTTKeys = pttKeys{
	Talk: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "talk / stop")),
	Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type tickMsg time.Time

type transcriptMsg sink.Transcript

type failedMsg struct{ err error }

// PTTModel is the push-to-talk screen. Space toggles the gate; the gate is
// read by the capture callback on its next chunk.
type PTTModel struct {
	gate        *audio.Gate
	pipeline    Pipeline
	counters    Counters
	transcripts <-chan sink.Transcript
	mode        string
	done        <-chan struct{} // closed when the program exits

	recording bool
	packets   int64
	bursts    int64
	buffered  int
	final     []string
	interim   string
	err       error

	keys pttKeys
	help help.Model
}

// PTTOption configures a PTTModel.
type PTTOption func(*PTTModel)

// WithTranscripts shows transcripts read from ch.
func WithTranscripts(ch <-chan sink.Transcript) PTTOption {
	return func(m *PTTModel) { m.transcripts = ch }
}

// WithMode labels the playback mode in the header.
func WithMode(mode string) PTTOption {
	return func(m *PTTModel) { m.mode = mode }
}

// NewPTTModel returns a model driving gate and reporting on p and c.
func NewPTTModel(gate *audio.Gate, p Pipeline, c Counters, opts ...PTTOption) PTTModel {
	m := PTTModel{
		gate:     gate,
		pipeline: p,
		counters: c,
		keys:     defaultPTTKeys,
		help:     help.New(),
	}
	for _, o := range opts {
		o(&m)
	}
	return m
}

func (m PTTModel) Init() tea.Cmd {
	cmds := []tea.Cmd{tick(), waitFailed(m.pipeline, m.done)}
	if m.transcripts != nil {
		cmds = append(cmds, waitTranscript(m.transcripts, m.done))
	}
	return tea.Batch(cmds...)
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// waitTranscript and waitFailed return nil once done is closed, so their
// goroutines do not outlive the program.
func waitTranscript(ch <-chan sink.Transcript, done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case t, ok := <-ch:
			if !ok {
				return nil
			}
			return transcriptMsg(t)
		case <-done:
			return nil
		}
	}
}

func waitFailed(p Pipeline, done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-p.Failed():
			return failedMsg{p.Err()}
		case <-done:
			return nil
		}
	}
}

func (m PTTModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.gate.Release()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Talk):
			m.recording = m.gate.Toggle()
		}

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case tickMsg:
		m.refresh()
		return m, tick()

	case transcriptMsg:
		m.addTranscript(sink.Transcript(msg))
		return m, waitTranscript(m.transcripts, m.done)

	case failedMsg:
		m.err = msg.err
		m.gate.Release()
	}
	return m, nil
}

func (m *PTTModel) refresh() {
	m.recording = m.pipeline.Recording() || m.gate.Pressed()
	m.buffered = m.pipeline.Buffered()
	if m.counters != nil {
		m.packets = m.counters.Packets()
		m.bursts = m.counters.Bursts()
	}
}

func (m *PTTModel) addTranscript(t sink.Transcript) {
	if !t.Final {
		m.interim = strings.TrimSpace(m.interim + " " + t.Text)
		return
	}
	m.interim = ""
	if t.Text == "" {
		return
	}
	m.final = append(m.final, t.At.Format("15:04:05")+"  "+t.Text)
	if n := len(m.final); n > maxTranscriptLines {
		m.final = m.final[n-maxTranscriptLines:]
	}
}

func (m PTTModel) View() string {
	var sb strings.Builder

	title := "Push to Talk"
	if m.mode != "" {
		title += " · " + m.mode
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")

	if m.recording {
		sb.WriteString(liveStyle.Render("● ON AIR"))
	} else {
		sb.WriteString(idleStyle.Render("○ idle"))
	}
	sb.WriteString("\n\n")

	sb.WriteString(infoStyle.Render(fmt.Sprintf("packets %d   bursts %d   buffered %.2fs",
		m.packets, m.bursts, float64(m.buffered)/audio.SampleRate)))
	sb.WriteString("\n")

	if len(m.final) > 0 || m.interim != "" {
		sb.WriteString("\n")
		for _, line := range m.final {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		if m.interim != "" {
			sb.WriteString(interimStyle.Render(m.interim))
			sb.WriteString("\n")
		}
	}

	if m.err != nil {
		sb.WriteString("\n")
		sb.WriteString(errorStyle.Render("recorder stopped: " + m.err.Error()))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

// RunPTT runs the push-to-talk screen until the user quits or ctx is done.
func RunPTT(ctx context.Context, m PTTModel) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	m.done = ctx.Done()

	_, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
	return err
}
