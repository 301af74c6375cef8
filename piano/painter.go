package piano

import (
	"fmt"
	"image"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"go-midiviz/sequencer"
	"go-midiviz/theme"
)

const (
	noteRadius  = 2.5
	noteOutline = 0.6 // brightness of the falling note border
)

var (
	parsedFont *truetype.Font
	fontOnce   sync.Once
	fontErr    error
)

// Painter draws falling notes above an 88-key keyboard. Interactive snapshots
// and export frames use the same Painter, so they look identical.
type Painter struct {
	Theme         *theme.Theme
	TicksPerPixel int
	Left, Right   int  // visible white keys, Right 0 shows all
	Labels        bool // octave labels on the C keys

	mu    sync.Mutex
	faces map[int]font.Face
}

func New(t *theme.Theme, ticksPerPixel int) *Painter {
	if ticksPerPixel <= 0 {
		ticksPerPixel = 10
	}
	return &Painter{
		Theme:         t,
		TicksPerPixel: ticksPerPixel,
		Labels:        true,
		faces:         make(map[int]font.Face),
	}
}

// Paint renders state into a width x height image. A nil state draws the
// idle keyboard.
func (p *Painter) Paint(state sequencer.PlaybackState, width, height int) image.Image {
	l := NewLayout(width, height, p.Left, p.Right)
	dc := gg.NewContext(width, height)

	setRGB(dc, p.Theme.Background)
	dc.Clear()

	if state != nil {
		p.drawFallingNotes(dc, l, state)
	}
	p.drawKeyboard(dc, l, state)
	if p.Labels {
		p.drawLabels(dc, l)
	}

	return dc.Image()
}

func (p *Painter) drawFallingNotes(dc *gg.Context, l Layout, state sequencer.PlaybackState) {
	top := l.KeyboardTop()
	tick := state.Tick()
	tpp := float64(p.TicksPerPixel)

	for _, n := range state.Notes() {
		y := top + float64(tick-n.End())/tpp
		h := float64(n.Duration()) / tpp
		if h <= 0 || y >= top || y+h < 0 {
			continue
		}
		x, w := l.NoteColumn(n.Key())
		color := p.Theme.ChannelRGB(n.Channel())
		setRGB(dc, color)
		dc.DrawRoundedRectangle(x, y, w, h, noteRadius)
		dc.FillPreserve()
		setRGB(dc, color.Darker(noteOutline))
		dc.SetLineWidth(1)
		dc.Stroke()
	}
}

func (p *Painter) drawKeyboard(dc *gg.Context, l Layout, state sequencer.PlaybackState) {
	top := l.KeyboardTop()
	kbHeight := float64(l.KeyboardHeight)
	step := l.Step()

	setRGB(dc, theme.KeyboardGray)
	dc.DrawRectangle(0, top, float64(l.Width), kbHeight)
	dc.Fill()

	// white keys: separator lines, held keys filled between them
	dc.SetLineWidth(l.Scale * 3)
	for i := 0; i <= l.Right-l.Left; i++ {
		x := float64(i) * step
		key := WhiteKeyToNote(i + l.Left)
		if state != nil && key < sequencer.NoteCount {
			if ch, ok := state.Channel(key); ok {
				setRGB(dc, p.Theme.ChannelRGB(ch))
				dc.DrawRectangle(x+1.5*l.Scale, top, step-3*l.Scale, kbHeight)
				dc.Fill()
			}
		}
		dc.SetRGB(0, 0, 0)
		dc.DrawLine(x, top+1.5*l.Scale, x, float64(l.Height))
		dc.Stroke()
	}

	for key := 0; key < sequencer.NoteCount; key++ {
		if IsWhite(key) {
			continue
		}
		x, y, w, h := l.BlackKey(key)
		if x+w < 0 || x > float64(l.Width) {
			continue
		}
		color := theme.BlackKey
		if state != nil {
			if ch, ok := state.Channel(key); ok {
				color = p.Theme.ChannelRGB(ch)
			}
		}
		setRGB(dc, color)
		dc.DrawRectangle(x, y, w, h)
		dc.Fill()
	}
}

func (p *Painter) drawLabels(dc *gg.Context, l Layout) {
	step := l.Step()
	face := p.face(int(step / 2))
	if face == nil {
		return
	}
	dc.SetFontFace(face)
	dc.SetRGBA(0, 0, 0, 0.5)

	for i := l.Left; i < l.Right; i++ {
		key := WhiteKeyToNote(i)
		if key%12 != 3 {
			continue
		}
		x := float64(i-l.Left) * step
		dc.DrawString(fmt.Sprintf("C%d", (key+9)/12), x+step/6, float64(l.Height)-step/4)
	}
}

// face returns a cached goregular face of size points, nil if the key is too
// narrow for readable text
func (p *Painter) face(size int) font.Face {
	if size < 6 {
		return nil
	}
	fontOnce.Do(func() {
		parsedFont, fontErr = truetype.Parse(goregular.TTF)
	})
	if fontErr != nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.faces == nil {
		p.faces = make(map[int]font.Face)
	}
	if f, ok := p.faces[size]; ok {
		return f
	}
	f := truetype.NewFace(parsedFont, &truetype.Options{Size: float64(size)})
	p.faces[size] = f
	return f
}

func setRGB(dc *gg.Context, c theme.RGB) {
	dc.SetRGB255(int(c[0]), int(c[1]), int(c[2]))
}
