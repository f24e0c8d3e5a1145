package engine

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// brailleBuf is a 2x4 dot grid per terminal cell with one colour per cell.
type brailleBuf struct {
	w, h  int
	m     [][]uint8
	color [][]string
}

func newBrailleBuf(w, h int) *brailleBuf {
	m := make([][]uint8, h)
	c := make([][]string, h)
	for i := range m {
		m[i] = make([]uint8, w)
		c[i] = make([]string, w)
	}
	return &brailleBuf{w: w, h: h, m: m, color: c}
}

var dotBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// setDot sets the dot at (mx, my) and paints its cell with col.
func (b *brailleBuf) setDot(mx, my int, col string) {
	if mx < 0 || my < 0 {
		return
	}
	cx, cy := mx/dotsX, my/dotsY
	if cx >= b.w || cy >= b.h {
		return
	}
	b.m[cy][cx] |= dotBits[mx%dotsX][my%dotsY]
	b.color[cy][cx] = col
}

func (b *brailleBuf) dot(mx, my int) bool {
	if mx < 0 || my < 0 {
		return false
	}
	cx, cy := mx/dotsX, my/dotsY
	if cx >= b.w || cy >= b.h {
		return false
	}
	return b.m[cy][cx]&dotBits[mx%dotsX][my%dotsY] != 0
}

// toLines renders each row, grouping runs of the same colour into one
// styled span.
func (b *brailleBuf) toLines() []string {
	out := make([]string, b.h)
	for y := 0; y < b.h; y++ {
		var sb strings.Builder
		var run []rune
		runCol := ""
		flush := func() {
			if len(run) == 0 {
				return
			}
			if runCol == "" {
				sb.WriteString(string(run))
			} else {
				sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(runCol)).Render(string(run)))
			}
			run = run[:0]
		}
		for x := 0; x < b.w; x++ {
			mask := b.m[y][x]
			r, col := ' ', ""
			if mask != 0 {
				r, col = rune(0x2800+int(mask)), b.color[y][x]
			}
			if col != runCol {
				flush()
				runCol = col
			}
			run = append(run, r)
		}
		flush()
		out[y] = sb.String()
	}
	return out
}

// plain returns the rows without colour, used by tests and hit previews.
func (b *brailleBuf) plain() []string {
	out := make([]string, b.h)
	for y := 0; y < b.h; y++ {
		row := make([]rune, b.w)
		for x := 0; x < b.w; x++ {
			if mask := b.m[y][x]; mask != 0 {
				row[x] = rune(0x2800 + int(mask))
			} else {
				row[x] = ' '
			}
		}
		out[y] = string(row)
	}
	return out
}
