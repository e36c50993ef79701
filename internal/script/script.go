// Package script runs line-oriented command scripts against a seven-segment
// display:
//
//	putc  <char> [hold]
//	puts  <text> [hold]
//	write <byte>
//	clear
//	delay <hold>
//	blink  <char> [period] [duty] [elapse]
//	blinkc <char> [period] [duty] [cycles]
//
// Durations are Go durations ("250ms") or plain seconds ("0.25"). Words are
// split shell-style, so `puts "ab cd"` and # comments work.
package script

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/shlex"

	"github.com/coreman2200/funtimes-calamari/errcode"
	"github.com/coreman2200/funtimes-calamari/seg7"
)

// Display is the part of *seg7.Dev a script can drive.
type Display interface {
	Putc(c rune, delay time.Duration) error
	PutsDelay(s string, delay time.Duration) error
	WriteInt(v int) error
	Clear() error
	SetDelay(d time.Duration) error
	Delay() time.Duration
	Blink(ctx context.Context, c rune, period time.Duration, duty float64, elapse time.Duration) error
	Blinkc(ctx context.Context, c rune, period time.Duration, duty float64, cycles int) error
}

// Command is one parsed script line.
type Command struct {
	Line int
	Name string
	Args []string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

var arity = map[string][2]int{
	"putc":   {1, 2},
	"puts":   {1, 2},
	"write":  {1, 1},
	"clear":  {0, 0},
	"delay":  {1, 1},
	"blink":  {1, 4},
	"blinkc": {1, 4},
}

// Parse splits r into commands and checks each name and argument count.
func Parse(r io.Reader) ([]Command, error) {
	var cmds []Command
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		words, err := shlex.Split(sc.Text())
		if err != nil {
			return nil, errcode.Invalid("script.Parse", "line %d: %v", n, err)
		}
		if len(words) == 0 {
			continue
		}
		name := strings.ToLower(words[0])
		a, ok := arity[name]
		if !ok {
			return nil, errcode.Invalid("script.Parse", "line %d: unknown command %q", n, words[0])
		}
		if args := len(words) - 1; args < a[0] || args > a[1] {
			return nil, errcode.Invalid("script.Parse", "line %d: %s takes %d to %d arguments, got %d", n, name, a[0], a[1], args)
		}
		cmds = append(cmds, Command{Line: n, Name: name, Args: words[1:]})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return cmds, nil
}

// Run parses the whole script, then executes it in order. It stops at the
// first failing command.
func Run(ctx context.Context, d Display, r io.Reader) error {
	cmds, err := Parse(r)
	if err != nil {
		return err
	}
	for _, c := range cmds {
		if err := c.Run(ctx, d); err != nil {
			return fmt.Errorf("line %d (%s): %w", c.Line, c, err)
		}
	}
	return nil
}

// Run executes c against d.
func (c Command) Run(ctx context.Context, d Display) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch c.Name {
	case "putc":
		ch, err := char(c.Args[0])
		if err != nil {
			return err
		}
		hold, err := durationArg(c.Args, 1, 0)
		if err != nil {
			return err
		}
		return d.Putc(ch, hold)

	case "puts":
		hold, err := durationArg(c.Args, 1, d.Delay())
		if err != nil {
			return err
		}
		return d.PutsDelay(c.Args[0], hold)

	case "write":
		v, err := strconv.ParseInt(c.Args[0], 0, 64)
		if err != nil {
			return errcode.Invalid("script.write", "%q is not an integer", c.Args[0])
		}
		if v < math.MinInt32 || v > math.MaxInt32 {
			return errcode.Invalid("script.write", "%d is not a byte (0-255)", v)
		}
		return d.WriteInt(int(v))

	case "clear":
		return d.Clear()

	case "delay":
		hold, err := parseDuration(c.Args[0])
		if err != nil {
			return err
		}
		return d.SetDelay(hold)

	case "blink", "blinkc":
		ch, err := char(c.Args[0])
		if err != nil {
			return err
		}
		period, err := durationArg(c.Args, 1, d.Delay())
		if err != nil {
			return err
		}
		duty := seg7.DefaultDuty
		if len(c.Args) > 2 {
			if duty, err = strconv.ParseFloat(c.Args[2], 64); err != nil {
				return errcode.Invalid("script."+c.Name, "duty %q is not a number", c.Args[2])
			}
		}
		if c.Name == "blink" {
			elapse, err := durationArg(c.Args, 3, seg7.DefaultElapse)
			if err != nil {
				return err
			}
			return d.Blink(ctx, ch, period, duty, elapse)
		}
		cycles := seg7.DefaultCycles
		if len(c.Args) > 3 {
			if cycles, err = wholeNumber(c.Args[3]); err != nil {
				return err
			}
		}
		return d.Blinkc(ctx, ch, period, duty, cycles)
	}
	return errcode.Invalid("script.Run", "unknown command %q", c.Name)
}

func char(s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, errcode.Invalid("script", "%q is not a single character", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

func durationArg(args []string, i int, def time.Duration) (time.Duration, error) {
	if len(args) <= i {
		return def, nil
	}
	return parseDuration(args[i])
}

// parseDuration accepts "250ms" style durations or a number of seconds.
func parseDuration(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errcode.Invalid("script", "%q is not a duration", s)
	}
	return time.Duration(math.Round(f * float64(time.Second))), nil
}

func wholeNumber(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return 0, errcode.Type("script.blinkc", "cycles must be an integer, got %s", s)
	}
	return 0, errcode.Invalid("script.blinkc", "cycles %q is not an integer", s)
}
