package tasks

import (
	"github.com/robotalks/hactar.go/pkg/board"
	"github.com/robotalks/hactar.go/pkg/framework"
	"github.com/robotalks/hactar.go/pkg/msg"
)

// Text grid geometry.
const (
	FontWidth  = 11
	FontHeight = 16
	TextRows   = board.DisplayHeight / FontHeight
	TextCols   = board.DisplayWidth / FontWidth
	// InputRow is the bottom row holding the line being typed. Rows above
	// it are the chat history, newest at the bottom.
	InputRow = TextRows - 1

	NumBands   = 10
	BandHeight = board.DisplayHeight / NumBands
)

// Colors (RGB565).
const (
	Background uint16 = 0x0000
	Foreground uint16 = 0xffff
)

// RenderTaskInfo describes RenderTask.
var RenderTaskInfo = framework.TaskInfo{
	Name:       "Render",
	RunEvery:   100000,
	TimeBudget: 100000,
	MemBudget:  500,
}

// RenderData is the text shown on the display and the band being painted.
type RenderData struct {
	Text  [TextRows][TextCols]byte
	Dirty [TextRows]bool

	Bitmap      [board.DisplayWidth * BandHeight]uint16
	CurrentBand int
}

// Reset blanks the screen and marks everything dirty.
func (d *RenderData) Reset() {
	for r := range d.Text {
		d.setRow(r, nil)
	}
	d.CurrentBand = 0
}

func (d *RenderData) setRow(r int, text []byte) {
	n := copy(d.Text[r][:], text)
	for c := n; c < TextCols; c++ {
		d.Text[r][c] = ' '
	}
	d.Dirty[r] = true
}

// Line returns row r without trailing blanks.
func (d *RenderData) Line(r int) string {
	row := d.Text[r][:]
	n := len(row)
	for n > 0 && (row[n-1] == ' ' || row[n-1] == 0) {
		n--
	}
	return string(row[:n])
}

// RenderTask keeps the text grid and paints one display band per run.
type RenderTask struct{}

// Run implements Task. Bands are painted bottom up, so the input line is
// refreshed first.
func (t *RenderTask) Run(_ msg.Msg, ctx *Context) {
	ctx.Board.Stack.Call(128, func() {
		data := &ctx.Data.Render
		if data.CurrentBand == 0 {
			data.CurrentBand = NumBands - 1
		} else {
			data.CurrentBand--
		}
		display := ctx.Board.Display
		if !display.Ready() {
			return
		}
		y := data.CurrentBand * BandHeight
		first, last := y/FontHeight, (y+BandHeight-1)/FontHeight
		dirty := false
		for r := first; r <= last; r++ {
			dirty = dirty || data.Dirty[r]
		}
		if !dirty {
			return
		}
		data.paintBand(y)
		display.DrawBitmap(data.Bitmap[:], 0, y, board.DisplayWidth, BandHeight, board.DisplayWidth)
		for r := first; r <= last; r++ {
			data.Dirty[r] = false
		}
	})
}

// Info implements Task.
func (t *RenderTask) Info() *framework.TaskInfo {
	return &RenderTaskInfo
}

// paintBand fills the band bitmap. Each character cell is drawn as a block
// glyph with a one pixel margin, blanks stay background.
func (d *RenderData) paintBand(y0 int) {
	for y := 0; y < BandHeight; y++ {
		row, gy := (y0+y)/FontHeight, (y0+y)%FontHeight
		line := d.Bitmap[y*board.DisplayWidth : (y+1)*board.DisplayWidth]
		for x := range line {
			col, gx := x/FontWidth, x%FontWidth
			pixel := Background
			if col < TextCols && gx > 0 && gx < FontWidth-1 && gy > 0 && gy < FontHeight-1 {
				if ch := d.Text[row][col]; ch != ' ' && ch != 0 {
					pixel = Foreground
				}
			}
			line[x] = pixel
		}
	}
}

// RenderRecv handles the Print messages.
func RenderRecv(m msg.Msg, ctx *Context) {
	data := &ctx.Data.Render
	switch m.Kind {
	case msg.PrintMsg:
		// scroll the history up by one line.
		for r := 0; r < InputRow-1; r++ {
			data.Text[r] = data.Text[r+1]
			data.Dirty[r] = true
		}
		data.setRow(InputRow-1, m.Text.Bytes())
	case msg.PrintInputMsg:
		data.setRow(InputRow, m.Text.Bytes())
	case msg.PrintClearMsg:
		for r := 0; r < InputRow; r++ {
			data.setRow(r, nil)
		}
	case msg.PrintClearInputMsg:
		data.setRow(InputRow, nil)
	}
}
