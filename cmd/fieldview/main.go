// Command fieldview renders the asteroid field in a terminal so layout and
// motion changes can be eyeballed without a browser. It drives the engine
// in-process against the built-in catalog or a YAML file given with
// -projects. The mouse hovers and selects bodies through the same hit-test
// path the server uses; r reseeds, m toggles reduced motion, q or Esc quits.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"driftfield/server/catalog"
	"driftfield/server/internal/field"
	"driftfield/server/internal/geom"
	"driftfield/server/internal/sim"
	"driftfield/server/internal/telemetry"
	"driftfield/server/logging/lifecycle"
)

// A terminal cell stands in for an 8x16 pixel box, which keeps body
// proportions close to what a browser renders.
const (
	cellWidth  = 8.0
	cellHeight = 16.0
)

var paletteColors = map[string]tcell.Color{
	"slate":  tcell.NewRGBColor(112, 128, 144),
	"amber":  tcell.NewRGBColor(255, 191, 0),
	"teal":   tcell.NewRGBColor(20, 184, 166),
	"violet": tcell.NewRGBColor(139, 92, 246),
	"rose":   tcell.NewRGBColor(244, 63, 94),
	"copper": tcell.NewRGBColor(184, 115, 51),
}

func paletteColor(name string) tcell.Color {
	if c, ok := paletteColors[name]; ok {
		return c
	}
	return paletteColors[catalog.DefaultColor]
}

type preview struct {
	screen tcell.Screen
	engine *sim.Engine

	// Body id -> display name for captions.
	names map[string]string

	width, height int

	// Profiles are refetched only when the epoch advances, mirroring the
	// layout keyframe protocol.
	layout      sim.Layout
	layoutEpoch uint64
	profiles    map[string]sim.BodyProfile

	hover       string
	selected    string
	reduced     bool
	prevButtons tcell.ButtonMask
}

func newPreview(projects []catalog.Project, seed string) (*preview, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.EnableMouse()

	p := &preview{
		screen:   screen,
		names:    make(map[string]string, len(projects)),
		profiles: make(map[string]sim.BodyProfile),
	}
	for _, project := range projects {
		p.names[project.ID] = project.Name
	}

	p.width, p.height = screen.Size()
	p.engine = sim.NewEngine(sim.Config{
		Seed:  seed,
		Specs: catalog.FieldSpecs(projects),
		Frame: frameForCells(p.width, p.height),
	})
	p.engine.Start(time.Now())
	return p, nil
}

// frameForCells maps the terminal grid to a pixel frame, reserving the
// bottom row for the status line.
func frameForCells(cols, rows int) field.Frame {
	rows--
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return field.Frame{Width: float64(cols) * cellWidth, Height: float64(rows) * cellHeight}
}

func (p *preview) run() {
	ticker := time.NewTicker(time.Second / time.Duration(p.engine.TickRate()))
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			eventChan <- p.screen.PollEvent()
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			if !p.handleInput(ev) {
				return
			}

		case <-ticker.C:
			result := p.engine.Advance(time.Now())
			p.draw(result.Snapshot)
		}
	}
}

func (p *preview) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() == tcell.KeyRune {
			switch ev.Rune() {
			case 'q':
				return false
			case 'r':
				p.engine.Reseed(time.Now(), lifecycle.ReasonManual)
				p.hover = ""
				p.selected = ""
			case 'm':
				p.reduced = !p.reduced
				p.engine.SetReducedMotion(time.Now(), p.reduced)
			}
		}

	case *tcell.EventMouse:
		p.handleMouse(ev)

	case *tcell.EventResize:
		p.handleResize()
	}

	return true
}

func (p *preview) handleMouse(ev *tcell.EventMouse) {
	cx, cy := ev.Position()
	point := geom.Vec2{X: (float64(cx) + 0.5) * cellWidth, Y: (float64(cy) + 0.5) * cellHeight}
	id, _ := p.engine.HitTest(point)
	p.hover = id

	// Clicking empty space clears the selection, matching the wire protocol.
	buttons := ev.Buttons()
	if buttons&tcell.Button1 != 0 && p.prevButtons&tcell.Button1 == 0 {
		p.selected = id
	}
	p.prevButtons = buttons
}

func (p *preview) handleResize() {
	w, h := p.screen.Size()
	if w == p.width && h == p.height {
		return
	}
	p.width, p.height = w, h
	p.screen.Sync()
	p.engine.SetViewport(time.Now(), frameForCells(w, h))
}

func (p *preview) draw(snap sim.Snapshot) {
	if snap.Epoch != p.layoutEpoch {
		p.refreshLayout(snap.Epoch)
	}

	p.screen.Clear()

	for _, body := range snap.Bodies {
		profile, ok := p.profiles[body.ID]
		if !ok {
			continue
		}
		st := tcell.StyleDefault.Foreground(paletteColor(profile.Color))
		if body.ID == p.hover || body.ID == p.selected {
			st = st.Bold(true)
		}
		p.drawOutline(body, profile.Silhouette, st)
		p.drawLabel(body, st)
	}

	p.drawStatus(snap)
	p.screen.Show()
}

func (p *preview) refreshLayout(epoch uint64) {
	p.layout = p.engine.Layout()
	p.layoutEpoch = epoch
	p.profiles = make(map[string]sim.BodyProfile, len(p.layout.Bodies))
	for _, profile := range p.layout.Bodies {
		p.profiles[profile.ID] = profile
	}
}

func (p *preview) drawOutline(body sim.BodySnapshot, outline []geom.Vec2, st tcell.Style) {
	if len(outline) == 0 {
		return
	}
	sin, cos := math.Sincos(body.Rotation * math.Pi / 180)
	world := func(v geom.Vec2) (float64, float64) {
		return body.X + v.X*cos - v.Y*sin, body.Y + v.X*sin + v.Y*cos
	}

	ax, ay := world(outline[len(outline)-1])
	for _, v := range outline {
		bx, by := world(v)
		p.drawSegment(ax, ay, bx, by, st)
		ax, ay = bx, by
	}
}

// drawSegment samples the edge at cell granularity so outlines stay
// connected on large bodies.
func (p *preview) drawSegment(ax, ay, bx, by float64, st tcell.Style) {
	steps := int(math.Max(math.Abs(bx-ax)/cellWidth, math.Abs(by-ay)/cellHeight)) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := int((ax + (bx-ax)*t) / cellWidth)
		y := int((ay + (by-ay)*t) / cellHeight)
		if x >= 0 && x < p.width && y >= 0 && y < p.height-1 {
			p.screen.SetContent(x, y, '█', nil, st)
		}
	}
}

func (p *preview) drawLabel(body sim.BodySnapshot, st tcell.Style) {
	name := p.names[body.ID]
	if name == "" {
		name = body.ID
	}
	y := int(body.LabelY / cellHeight)
	if y < 0 || y >= p.height-1 {
		return
	}
	x := int(body.X/cellWidth) - len(name)/2
	p.drawText(x, y, name, st)
}

func (p *preview) drawStatus(snap sim.Snapshot) {
	left := fmt.Sprintf(" state=%s seed=%s tick=%d bodies=%d", snap.State, p.layout.Seed, snap.Tick, len(snap.Bodies))
	if p.reduced {
		left += " reduced"
	}
	if name, ok := p.names[p.selected]; ok {
		left += " selected=" + name
	} else if name, ok := p.names[p.hover]; ok {
		left += " hover=" + name
	}
	right := "q quit  r reseed  m motion "

	row := p.height - 1
	st := tcell.StyleDefault.Reverse(true)
	for x := 0; x < p.width; x++ {
		p.screen.SetContent(x, row, ' ', nil, st)
	}
	p.drawText(0, row, left, st)
	p.drawText(p.width-len(right), row, right, st)
}

func (p *preview) drawText(x, y int, text string, st tcell.Style) {
	for _, r := range text {
		if x >= 0 && x < p.width {
			p.screen.SetContent(x, y, r, nil, st)
		}
		x++
	}
}

func (p *preview) cleanup() {
	p.screen.Fini()
}

func main() {
	projectsPath := flag.String("projects", "", "path to a projects.yaml catalog instead of the built-in set")
	seed := flag.String("seed", "", "override the layout seed")
	flag.Parse()

	projects := catalog.Default()
	if *projectsPath != "" {
		loaded, err := catalog.Load(telemetry.WrapLogger(log.Default()), *projectsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load catalog: %v\n", err)
			os.Exit(1)
		}
		projects = loaded
	}

	p, err := newPreview(projects, *seed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer p.cleanup()

	p.run()
}
