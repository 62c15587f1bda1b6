// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"ptt/internal/audio"
)

// Selection is the outcome of the device picker. Unset roles keep
// audio.DefaultDeviceID.
type Selection struct {
	Input  int
	Output int
}

// Flags renders the selection as command line flags.
func (s Selection) Flags() string {
	return fmt.Sprintf("--device %d --output-device %d", s.Input, s.Output)
}

type devicesMsg struct {
	devices []audio.Device
}

type errMsg struct {
	err error
}

type pickerKeys struct {
	Up, Down, Input, Output, Confirm, Quit key.Binding
}

var defaultPickerKeys = pickerKeys{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Input:   key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "use for capture")),
	Output:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "use for playback")),
	Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "done")),
	Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

// DevicePickerModel lists the host's audio devices and lets the user choose
// the capture and playback device.
type DevicePickerModel struct {
	fetch         func() ([]audio.Device, error)
	devices       []audio.Device
	selectedIndex int
	selection     Selection
	confirmed     bool
	viewport      viewport.Model
	ready         bool
	err           error
	keys          pickerKeys
}

// NewDevicePickerModel returns a picker listing the devices returned by fetch.
func NewDevicePickerModel(fetch func() ([]audio.Device, error)) DevicePickerModel {
	return DevicePickerModel{
		fetch:     fetch,
		selection: Selection{Input: audio.DefaultDeviceID, Output: audio.DefaultDeviceID},
		keys:      defaultPickerKeys,
	}
}

// Init fetches the device list.
func (m DevicePickerModel) Init() tea.Cmd {
	fetch := m.fetch
	return func() tea.Msg {
		devices, err := fetch()
		if err != nil {
			return errMsg{err}
		}
		return devicesMsg{devices}
	}
}

func (m DevicePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		m.viewport.SetContent(m.renderDevices())

	case devicesMsg:
		m.devices = msg.devices
		m.viewport.SetContent(m.renderDevices())

	case errMsg:
		m.err = msg.err

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Confirm):
			m.confirmed = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Up):
			if m.selectedIndex > 0 {
				m.selectedIndex--
			}

		case key.Matches(msg, m.keys.Down):
			if m.selectedIndex < len(m.devices)-1 {
				m.selectedIndex++
			}

		case key.Matches(msg, m.keys.Input):
			if d, ok := m.current(); ok && d.MaxInputChannels >= audio.CaptureChannels {
				m.selection.Input = d.ID
			}

		case key.Matches(msg, m.keys.Output):
			if d, ok := m.current(); ok && d.MaxOutputChannels > 0 {
				m.selection.Output = d.ID
			}
		}
		m.viewport.SetContent(m.renderDevices())
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// Selection returns the chosen devices and whether the user confirmed them.
func (m DevicePickerModel) Selection() (Selection, bool) {
	return m.selection, m.confirmed
}

func (m DevicePickerModel) current() (audio.Device, bool) {
	if m.selectedIndex >= len(m.devices) {
		return audio.Device{}, false
	}
	return m.devices[m.selectedIndex], true
}

// View renders the UI
func (m DevicePickerModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\nPress q to exit."
	}
	if !m.ready {
		return "Initializing..."
	}

	title := titleStyle.Render("Audio Devices")
	help := infoStyle.Render("↑/↓: Navigate • i: Capture • o: Playback • Enter: Done • q: Quit")
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

// renderDevices formats the device list
func (m DevicePickerModel) renderDevices() string {
	if len(m.devices) == 0 {
		return "No audio devices found."
	}

	var sb strings.Builder
	for i, device := range m.devices {
		deviceType := ""
		if device.MaxInputChannels > 0 && device.MaxOutputChannels > 0 {
			deviceType = "Input/Output"
		} else if device.MaxInputChannels > 0 {
			deviceType = "Input"
		} else if device.MaxOutputChannels > 0 {
			deviceType = "Output"
		}

		var roles []string
		if device.ID == m.selection.Input {
			roles = append(roles, "capture")
		}
		if device.ID == m.selection.Output {
			roles = append(roles, "playback")
		}
		marker := ""
		if len(roles) > 0 {
			marker = " <" + strings.Join(roles, ", ") + ">"
		}

		deviceInfo := fmt.Sprintf("[%d] %s (%s)%s\n", device.ID, device.Name, deviceType, marker)
		deviceInfo += fmt.Sprintf("    Input channels: %d, Output channels: %d\n",
			device.MaxInputChannels, device.MaxOutputChannels)
		deviceInfo += fmt.Sprintf("    Default sample rate: %.0f Hz\n", device.DefaultSampleRate)

		if i == m.selectedIndex {
			deviceInfo = highlightStyle.Render(deviceInfo)
		}
		sb.WriteString(deviceInfo)
		sb.WriteString("\n")
	}
	return sb.String()
}

// RunDevicePicker launches the picker and returns the confirmed selection.
// ok is false when the user quit without confirming.
func RunDevicePicker(fetch func() ([]audio.Device, error)) (sel Selection, ok bool, err error) {
	final, err := tea.NewProgram(NewDevicePickerModel(fetch), tea.WithAltScreen()).Run()
	if err != nil {
		return Selection{}, false, err
	}
	sel, ok = final.(DevicePickerModel).Selection()
	return sel, ok, nil
}
