package console

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen).SprintfFunc()
	yellow = color.New(color.FgYellow).SprintfFunc()
	red    = color.New(color.FgRed).SprintfFunc()
	cyan   = color.New(color.FgCyan).SprintfFunc()
	bold   = color.New(color.Bold).SprintfFunc()
)

type printer struct {
	w io.Writer
}

func (p printer) Line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p printer) Success(format string, args ...any) {
	fmt.Fprintln(p.w, green("✓ "+format, args...))
}

func (p printer) Info(format string, args ...any) {
	fmt.Fprintln(p.w, cyan(format, args...))
}

func (p printer) Warn(format string, args ...any) {
	fmt.Fprintln(p.w, yellow(format, args...))
}

func (p printer) Error(format string, args ...any) {
	fmt.Fprintln(p.w, red("✗ "+format, args...))
}
