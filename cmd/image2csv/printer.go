package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
)

// printer writes user facing messages, colored when w is a terminal
type printer struct {
	w     io.Writer
	color bool
}

func newPrinter(w io.Writer) *printer {
	p := &printer{w: w}
	if f, ok := w.(*os.File); ok {
		p.color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return p
}

func (p *printer) print(color, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.color && color != "" {
		msg = color + msg + colorReset
	}
	fmt.Fprintln(p.w, msg)
}

func (p *printer) info(format string, args ...any) {
	p.print("", format, args...)
}

func (p *printer) warn(format string, args ...any) {
	p.print(colorYellow, format, args...)
}

func (p *printer) fail(format string, args ...any) {
	p.print(colorRed, format, args...)
}

func (p *printer) success(format string, args ...any) {
	p.print(colorGreen, format, args...)
}
