package piano

// WhiteKeys is the number of white keys on the 88-key keyboard
const WhiteKeys = 52

// Proportions of the reference keyboard drawing
const (
	keyboardWidth  = 8827
	keyboardHeight = 866

	blackKeyWidth  = 0.6  // of a white key
	blackKeyHeight = 0.63 // of the keyboard
)

// IsWhite reports whether key (0 = A0) is a white key
func IsWhite(key int) bool {
	switch key % 12 {
	case 1, 4, 6, 9, 11:
		return false
	}
	return true
}

// ColoredKey returns the white-key index of a white key, or for a black key
// the index of the white key to its left
func ColoredKey(key int) int {
	octave := key / 12
	var k int
	switch key % 12 {
	case 0, 1:
		k = 0
	case 2:
		k = 1
	case 3, 4:
		k = 2
	case 5, 6:
		k = 3
	case 7:
		k = 4
	case 8, 9:
		k = 5
	case 10, 11:
		k = 6
	}
	return octave*7 + k
}

// WhiteKeyToNote returns the key (0..87) of white key i
func WhiteKeyToNote(i int) int {
	notes := [7]int{0, 2, 3, 5, 7, 8, 10}
	return i/7*12 + notes[i%7]
}

// Layout positions keys and note blocks for a paint area. The keyboard spans
// the full width and sits at the bottom; Left and Right select the visible
// white keys.
type Layout struct {
	Width, Height int
	Left, Right   int

	Scale          float64 // reference keyboard to pixels
	KeyboardHeight int
}

// NewLayout clamps the visible range and derives the keyboard size
func NewLayout(width, height, left, right int) Layout {
	if right <= 0 || right > WhiteKeys {
		right = WhiteKeys
	}
	if left < 0 || left >= right {
		left = 0
	}
	scale := float64(width) * WhiteKeys / float64(right-left) / keyboardWidth
	return Layout{
		Width:          width,
		Height:         height,
		Left:           left,
		Right:          right,
		Scale:          scale,
		KeyboardHeight: int(keyboardHeight*scale + 0.5),
	}
}

// Step is the width of one white key
func (l Layout) Step() float64 {
	return float64(l.Width) / float64(l.Right-l.Left)
}

// KeyboardTop is the y coordinate of the keyboard's upper edge
func (l Layout) KeyboardTop() float64 {
	return float64(l.Height - l.KeyboardHeight)
}

// NoteColumn returns x and width of the falling blocks for key
func (l Layout) NoteColumn(key int) (x, w float64) {
	step := l.Step()
	col := float64(ColoredKey(key) - l.Left)
	if IsWhite(key) {
		w = step * 3 / 5
		return col*step + (step-w)/2, w
	}
	w = step * 2 / 5
	return (col+1)*step - w/2, w
}

// BlackKey returns the rectangle of a black key
func (l Layout) BlackKey(key int) (x, y, w, h float64) {
	step := l.Step()
	w = step * blackKeyWidth
	h = float64(l.KeyboardHeight) * blackKeyHeight
	x = float64(ColoredKey(key)+1-l.Left)*step - w/2
	return x, l.KeyboardTop(), w, h
}
