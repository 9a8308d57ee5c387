package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cfoust/snake/pkg/client"
	"github.com/cfoust/snake/pkg/game"
	"github.com/cfoust/snake/pkg/render"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

const CLEAR_SCREEN = "\x1b[H\x1b[2J"

const (
	KEY_ESCAPE = 0x1b
	// Ctrl-C does not raise SIGINT while the terminal is raw
	KEY_INTERRUPT = "\x03"
)

var KEY_DIRECTIONS = map[string]game.Direction{
	"w":      game.DirectionUp,
	"a":      game.DirectionLeft,
	"s":      game.DirectionDown,
	"d":      game.DirectionRight,
	" ":      game.DirectionStop,
	"\x1b[A": game.DirectionUp,
	"\x1b[D": game.DirectionLeft,
	"\x1b[B": game.DirectionDown,
	"\x1b[C": game.DirectionRight,
}

// readKeys sends each keypress read from r until r ends. Arrow keys arrive
// as a single three byte escape sequence.
func readKeys(r io.Reader) <-chan string {
	keys := make(chan string)
	go func() {
		defer close(keys)
		reader := bufio.NewReader(r)
		for {
			b, err := reader.ReadByte()
			if err != nil {
				return
			}

			key := []byte{b}
			if b == KEY_ESCAPE && reader.Buffered() >= 2 {
				sequence := make([]byte, 2)
				if _, err := io.ReadFull(reader, sequence); err != nil {
					return
				}
				key = append(key, sequence...)
			}

			keys <- string(key)
		}
	}()
	return keys
}

// handleInput applies one keypress. Unknown keys are ignored.
func handleInput(player *client.Client, options *render.Options, key string) (quit bool, err error) {
	if direction, ok := KEY_DIRECTIONS[key]; ok {
		return false, player.Move(direction)
	}

	switch key {
	case "q", KEY_INTERRUPT:
		return true, nil
	case "r":
		return false, player.Connect()
	case "c":
		options.Color = !options.Color
	case "f":
		options.Fancy = !options.Fancy
	case "\\":
		options.Debug = !options.Debug
	}

	return false, nil
}

func isTerminal(file *os.File) bool {
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// rawInput puts stdin in raw mode so keys arrive without Enter. The
// returned function restores the terminal.
func rawInput() (restore func(), err error) {
	if !isTerminal(os.Stdin) {
		return func() {}, nil
	}

	fd := int(os.Stdin.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}

	return func() {
		term.Restore(fd, state)
	}, nil
}

// Raw mode also turns off output processing, so lines need a carriage
// return of their own.
func rawLines(text string) string {
	return strings.ReplaceAll(text, "\n", "\r\n")
}

func playCommand(configs []string) error {
	config, err := loadConfig(configs)
	if err != nil {
		return err
	}

	// Keep log lines out of the frame
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	name := config.Client.Username
	if CLI.Play.Name != "" {
		name = CLI.Play.Name
	}

	address := config.Client.Address
	if CLI.Play.Address != "" {
		address = CLI.Play.Address
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	player, err := client.Dial(ctx, address, name)
	if err != nil {
		return err
	}
	defer player.Close()

	polled := make(chan error, 1)
	go func() {
		polled <- player.Poll(ctx)
	}()

	out := colorable.NewColorableStdout()
	options := render.Options{
		Self:  name,
		Color: isTerminal(os.Stdout),
		Fancy: config.Client.Fancy,
	}

	restore, err := rawInput()
	if err != nil {
		return err
	}
	defer restore()

	fmt.Fprint(out, rawLines("w/a/s/d or arrows to move, space to stop, r to respawn, q to quit\n"))

	keys := readKeys(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			return nil
		case key, ok := <-keys:
			if !ok {
				return nil
			}

			quit, err := handleInput(player, &options, key)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
		case snapshot, ok := <-player.Snapshots():
			if !ok {
				return <-polled
			}

			_, err := player.EnsureSpawned(snapshot)
			if err != nil {
				return err
			}

			fmt.Fprint(out, CLEAR_SCREEN+rawLines(render.Frame(snapshot, options)))
		}
	}
}
