package board

// Display geometry in pixels.
const (
	DisplayWidth  = 240
	DisplayHeight = 320
)

// Display is an RGB565 framebuffer standing in for the LCD controller.
type Display struct {
	fb    []uint16
	draws uint64
}

// NewDisplay creates a blank Display.
func NewDisplay() *Display {
	return &Display{fb: make([]uint16, DisplayWidth*DisplayHeight)}
}

// Size returns (width, height).
func (d *Display) Size() (int, int) {
	return DisplayWidth, DisplayHeight
}

// Ready indicates the display accepts a new bitmap.
func (d *Display) Ready() bool {
	return true
}

// DrawBitmap copies a width x height block to (x, y). stride is the number
// of pixels per row in bitmap. The block is clipped to the screen.
func (d *Display) DrawBitmap(bitmap []uint16, x, y, width, height, stride int) {
	d.draws++
	for row := 0; row < height; row++ {
		sy := y + row
		if sy < 0 || sy >= DisplayHeight {
			continue
		}
		for col := 0; col < width; col++ {
			sx := x + col
			src := row*stride + col
			if sx < 0 || sx >= DisplayWidth || src >= len(bitmap) {
				continue
			}
			d.fb[sy*DisplayWidth+sx] = bitmap[src]
		}
	}
}

// Pixel returns the pixel at (x, y).
func (d *Display) Pixel(x, y int) uint16 {
	return d.fb[y*DisplayWidth+x]
}

// Draws returns the number of DrawBitmap calls.
func (d *Display) Draws() uint64 {
	return d.draws
}
