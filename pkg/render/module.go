package render

import (
	"fmt"
	"strings"

	"github.com/cfoust/snake/pkg/game"
	"github.com/cfoust/snake/pkg/grid"

	opt "github.com/repeale/fp-go/option"
)

const (
	CHAR_FOOD  = '*'
	CHAR_HEAD  = '@'
	CHAR_BODY  = 'o'
	CHAR_EMPTY = ' '
)

// ANSI SGR parameters
const (
	colorNone        = ""
	colorBorder      = "36"
	colorFood        = "31"
	colorSelf        = "32"
	colorSelfHead    = "92"
	colorOther       = "33"
	colorOtherHead   = "93"
	backgroundPlayer = "41"
	backgroundFood   = "45"
	backgroundWall   = "40"
	backgroundEmpty  = "42"
)

type Options struct {
	// Player whose snake is highlighted
	Self  string
	Color bool
	// Box drawing characters for the border
	Fancy bool
	// Paint each cell's background by its kind in the ownership table
	Debug bool
}

type pixel struct {
	char       rune
	foreground string
	background string
}

type canvas struct {
	width  int
	height int
	pixels []pixel
}

func newCanvas(width, height int) *canvas {
	pixels := make([]pixel, width*height)
	for i := range pixels {
		pixels[i] = pixel{char: CHAR_EMPTY}
	}
	return &canvas{
		width:  width,
		height: height,
		pixels: pixels,
	}
}

func (c *canvas) put(x, y int, p pixel) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	c.pixels[y*c.width+x] = p
}

func (c *canvas) get(x, y int) *pixel {
	return &c.pixels[y*c.width+x]
}

func (c *canvas) border(fancy bool) {
	corners := [4]rune{'+', '+', '+', '+'}
	horizontal, vertical := '-', '|'
	if fancy {
		corners = [4]rune{'╔', '╗', '╚', '╝'}
		horizontal, vertical = '═', '║'
	}

	right, bottom := c.width-1, c.height-1
	for x := 1; x < right; x++ {
		c.put(x, 0, pixel{char: horizontal, foreground: colorBorder})
		c.put(x, bottom, pixel{char: horizontal, foreground: colorBorder})
	}
	for y := 1; y < bottom; y++ {
		c.put(0, y, pixel{char: vertical, foreground: colorBorder})
		c.put(right, y, pixel{char: vertical, foreground: colorBorder})
	}
	c.put(0, 0, pixel{char: corners[0], foreground: colorBorder})
	c.put(right, 0, pixel{char: corners[1], foreground: colorBorder})
	c.put(0, bottom, pixel{char: corners[2], foreground: colorBorder})
	c.put(right, bottom, pixel{char: corners[3], foreground: colorBorder})
}

func sgr(p pixel) string {
	codes := make([]string, 0, 2)
	if p.foreground != colorNone {
		codes = append(codes, p.foreground)
	}
	if p.background != colorNone {
		codes = append(codes, p.background)
	}
	if len(codes) == 0 {
		return "\x1b[0m"
	}
	return "\x1b[0;" + strings.Join(codes, ";") + "m"
}

func (c *canvas) write(builder *strings.Builder, color bool) {
	for y := 0; y < c.height; y++ {
		current := pixel{}
		for x := 0; x < c.width; x++ {
			p := c.get(x, y)
			if color && (p.foreground != current.foreground || p.background != current.background) {
				builder.WriteString(sgr(*p))
				current = *p
			}
			builder.WriteRune(p.char)
		}
		if color {
			builder.WriteString("\x1b[0m")
		}
		builder.WriteByte('\n')
	}
}

func debugBackground(cell grid.Cell) string {
	switch cell.Kind {
	case grid.KindPlayer:
		return backgroundPlayer
	case grid.KindFood:
		return backgroundFood
	case grid.KindEmpty:
		return backgroundEmpty
	}
	return backgroundWall
}

// Frame draws a snapshot inside a one character border, followed by a
// status line.
func Frame(snapshot *game.Snapshot, options Options) string {
	width, height := snapshot.Settings.Width, snapshot.Settings.Height
	c := newCanvas(width+2, height+2)
	c.border(options.Fancy)

	for _, food := range snapshot.Food {
		c.put(food.X+1, food.Y+1, pixel{char: CHAR_FOOD, foreground: colorFood})
	}

	for _, snake := range snapshot.Snakes {
		if len(snake.Body) == 0 {
			continue
		}

		body, head := colorOther, colorOtherHead
		if snake.Name == options.Self {
			body, head = colorSelf, colorSelfHead
		}

		for _, part := range snake.Body[1:] {
			c.put(part.X+1, part.Y+1, pixel{char: CHAR_BODY, foreground: body})
		}
		c.put(snake.Head.X+1, snake.Head.Y+1, pixel{char: CHAR_HEAD, foreground: head})
	}

	if options.Debug {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				cell := snapshot.Owners.Get(grid.Vec{X: x, Y: y})
				c.get(x+1, y+1).background = debugBackground(cell)
			}
		}
	}

	builder := strings.Builder{}
	c.write(&builder, options.Color || options.Debug)
	builder.WriteString(StatusLine(snapshot, options.Self))
	builder.WriteByte('\n')
	return builder.String()
}

// StatusLine lists the tick and each player's length, noting when self has
// no snake.
func StatusLine(snapshot *game.Snapshot, self string) string {
	parts := []string{fmt.Sprintf("tick %d", snapshot.Tick)}
	for _, snake := range snapshot.Snakes {
		parts = append(parts, fmt.Sprintf("%s %d", snake.Name, snake.Len()))
	}

	if self != "" && opt.IsNone(snapshot.Snake(self)) {
		parts = append(parts, fmt.Sprintf("%s (dead)", self))
	}

	return strings.Join(parts, " | ")
}
