package board

import (
	"sync"

	"github.com/golang/glog"
)

// Color of the status LED.
type Color int

// LED colors.
const (
	Black Color = iota
	White
	Red
	Green
	Blue
)

var colorNames = [...]string{"BLACK", "WHITE", "RED", "GREEN", "BLUE"}

func (c Color) String() string {
	if c >= 0 && int(c) < len(colorNames) {
		return colorNames[c]
	}
	return "UNKNOWN"
}

// LED is the RGB status LED: blue while booting, green when running, red on
// a fatal fault.
type LED struct {
	lock  sync.Mutex
	color Color
}

// NewLED creates an LED which is off.
func NewLED() *LED {
	return &LED{}
}

// Set changes the color.
func (l *LED) Set(c Color) {
	l.lock.Lock()
	l.color = c
	l.lock.Unlock()
	glog.V(1).Infof("LED: %s", c)
}

// Color returns the current color.
func (l *LED) Color() Color {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.color
}

// Fatal implements fault.Indicator.
func (l *LED) Fatal() {
	l.Set(Red)
}
