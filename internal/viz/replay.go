// Package viz replays simulated takeoffs in the terminal.
package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/takeoff/internal/phase"
	"github.com/san-kum/takeoff/internal/sim"
	"github.com/san-kum/takeoff/internal/trajectory"
)

const (
	width  = 80
	height = 16
	fps    = 30
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(36)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(10)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	eventStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/fps, func(t time.Time) tea.Msg { return TickMsg(t) })
}

type frame struct {
	phase  phase.Kind
	t      float64
	values map[string]float64
}

// Replay plays a takeoff back against the simulated clock. Speed scales
// simulated seconds per wall second.
type Replay struct {
	title  string
	frames []frame
	events []sim.Event
	tora   float64
	screen float64
	xMax   float64
	hMax   float64
	canvas *Canvas

	head    int
	clock   float64
	speed   float64
	running bool
}

func NewReplay(title string, sol *trajectory.Solution, events []sim.Event, tora, screen float64) Replay {
	r := Replay{
		title:   title,
		events:  events,
		tora:    tora,
		screen:  screen,
		xMax:    tora,
		hMax:    1.5 * screen,
		canvas:  NewCanvas(width, height),
		speed:   1,
		running: true,
	}
	for _, ps := range sol.Phases {
		for i, t := range ps.Time {
			vals := make(map[string]float64, len(ps.Values))
			for name, v := range ps.Values {
				vals[name] = v[i]
			}
			r.frames = append(r.frames, frame{phase: ps.Kind, t: t, values: vals})
			r.xMax = math.Max(r.xMax, vals["x"])
			r.hMax = math.Max(r.hMax, vals["h"])
		}
	}
	r.xMax *= 1.05
	if len(r.frames) > 0 {
		r.clock = r.frames[0].t
	}
	return r
}

func (r Replay) Init() tea.Cmd {
	return tick()
}

func (r Replay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return r, tea.Quit
		case " ":
			r.running = !r.running
		case "r":
			r.seek(r.start())
			r.running = true
		case "[":
			r.seek(r.clock - 1)
		case "]":
			r.seek(r.clock + 1)
		case "+", "=":
			r.speed = math.Min(r.speed*2, 64)
		case "-", "_":
			r.speed = math.Max(r.speed/2, 0.125)
		}
	case TickMsg:
		if r.running {
			r.seek(r.clock + r.speed/fps)
			if r.Finished() {
				r.running = false
			}
		}
		return r, tick()
	}
	return r, nil
}

func (r *Replay) start() float64 {
	if len(r.frames) == 0 {
		return 0
	}
	return r.frames[0].t
}

// seek moves the clock to t and the head to the last frame at or before it.
func (r *Replay) seek(t float64) {
	if len(r.frames) == 0 {
		return
	}
	last := r.frames[len(r.frames)-1].t
	r.clock = math.Max(r.start(), math.Min(t, last))
	for r.head > 0 && r.frames[r.head].t > r.clock {
		r.head--
	}
	for r.head < len(r.frames)-1 && r.frames[r.head+1].t <= r.clock {
		r.head++
	}
}

func (r Replay) Finished() bool {
	return len(r.frames) == 0 || r.head == len(r.frames)-1
}

// project maps runway distance and height to canvas dots.
func (r *Replay) project(x, h float64) (int, int) {
	cw, ch := r.canvas.Dots()
	px := int(x / r.xMax * float64(cw-1))
	py := ch - 1 - int(h/r.hMax*float64(ch-2))
	return px, py
}

func (r *Replay) draw() {
	c := r.canvas
	c.Clear()
	cw, ch := c.Dots()

	end, _ := r.project(r.tora, 0)
	for x := 0; x <= end && x < cw; x++ {
		c.Set(x, ch-1)
	}
	for y := ch - 4; y < ch; y++ {
		c.Set(end, y)
	}
	_, sy := r.project(0, r.screen)
	for x := 0; x < cw; x += 4 {
		c.Set(x, sy)
	}

	if len(r.frames) == 0 {
		return
	}
	for _, f := range r.frames[:r.head+1] {
		c.Set(r.project(f.values["x"], f.values["h"]))
	}

	cur := r.frames[r.head].values
	px, py := r.project(cur["x"], cur["h"])
	th := cur["theta"]
	dx, dy := int(math.Round(6*math.Cos(th))), int(math.Round(6*math.Sin(th)))
	c.DrawLine(px-dx, py-1+dy, px+dx, py-1-dy)
}

func (r Replay) View() string {
	r.draw()
	canvasView := canvasStyle.Render(r.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(r.title)) + "\n")

	status := "PLAYING"
	switch {
	case r.Finished():
		status = "FINISHED"
	case !r.running:
		status = "PAUSED"
	}
	s.WriteString(fmt.Sprintf("%s  x%g\n\n", status, r.speed))

	if len(r.frames) > 0 {
		f := r.frames[r.head]
		deg := 180 / math.Pi
		row := func(label, value string) {
			s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
		}
		row("phase", f.phase.String())
		row("time", fmt.Sprintf("%.2f s", f.t))
		row("x", fmt.Sprintf("%.1f m", f.values["x"]))
		row("v", fmt.Sprintf("%.1f m/s", f.values["v"]))
		row("h", fmt.Sprintf("%.2f m", f.values["h"]))
		row("theta", fmt.Sprintf("%.2f deg", f.values["theta"]*deg))
		row("alpha", fmt.Sprintf("%.2f deg", f.values["alpha"]*deg))
		row("de", fmt.Sprintf("%.2f deg", f.values["de"]*deg))
	}

	s.WriteString("\nEVENTS\n")
	for _, ev := range r.events {
		line := fmt.Sprintf("%-12s %-5s %6.2f s", ev.Phase, ev.Var, ev.Time)
		if ev.Time <= r.clock {
			s.WriteString(eventStyle.Render("* "+line) + "\n")
		} else {
			s.WriteString(dimStyle.Render("  "+line) + "\n")
		}
	}
	s.WriteString(helpStyle.Render("SP:Pause R:Restart Q:Quit\n[ ]:Seek 1s  + -:Speed"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
}
