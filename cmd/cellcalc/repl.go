package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"fortio.org/log"
	"github.com/peterh/liner"
	"golang.org/x/exp/slices"

	"github.com/zephyrtronium/cellcalc"
)

const historyFile = ".cellcalc_history"

const replHelp = `enter an expression or assignment to append it as a new line
:edit N expr  replace line N
:del N        delete line N
:list         show all lines
:quit         exit`

// session is a sheet edited one command at a time.
type session struct {
	e     *cellcalc.Engine
	lines []string
	verb  string
	out   io.Writer
}

// handle applies one line of input. It returns false when the session should
// end.
func (s *session) handle(input string) bool {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, ":") {
		if input == "" {
			return true
		}
		s.update(len(s.lines), append(slices.Clone(s.lines), input))
		return true
	}
	cmd, arg, _ := strings.Cut(input, " ")
	switch strings.ToLower(cmd) {
	case ":quit", ":q":
		return false
	case ":list", ":l":
		for i, l := range s.e.Lines() {
			fmt.Fprintf(s.out, "%3d  %-24s ", i+1, l.Text)
			printLine(s.out, i, l, s.verb)
		}
	case ":edit", ":e":
		ns, expr, _ := strings.Cut(strings.TrimSpace(arg), " ")
		i, ok := s.index(ns)
		if !ok {
			return true
		}
		lines := slices.Clone(s.lines)
		lines[i] = strings.TrimSpace(expr)
		s.update(i, lines)
	case ":del", ":d":
		i, ok := s.index(strings.TrimSpace(arg))
		if !ok {
			return true
		}
		s.update(i, slices.Delete(slices.Clone(s.lines), i, i+1))
	case ":help", ":h":
		fmt.Fprintln(s.out, replHelp)
	default:
		fmt.Fprintln(s.out, red("unknown command "+strconv.Quote(cmd)+"; type :help for commands"))
	}
	return true
}

// index parses a 1-based line number.
func (s *session) index(arg string) (int, bool) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(s.lines) {
		fmt.Fprintln(s.out, red(fmt.Sprintf("no line %q (have %d)", arg, len(s.lines))))
		return 0, false
	}
	return n - 1, true
}

// update runs the engine over the new lines, which must not share storage
// with the previous ones, and prints the lines from i on.
func (s *session) update(i int, lines []string) {
	s.lines = lines
	s.e.Execute(lines)
	all := s.e.Lines()
	for ; i < len(all); i++ {
		fmt.Fprintf(s.out, "%3d  ", i+1)
		printLine(s.out, i, all[i], s.verb)
	}
	log.LogVf("recomputed %d of %d lines", s.e.Reprocessed(), len(lines))
}

type historyWriter interface {
	WriteHistory(w io.Writer) (int, error)
}

// saveHistory returns a function that writes h to path. Only the first call
// writes anything.
func saveHistory(h historyWriter, path string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			f, err := os.Create(path)
			if err != nil {
				log.Warnf("saving history: %v", err)
				return
			}
			if _, err := h.WriteHistory(f); err != nil {
				log.Warnf("saving history: %v", err)
			}
			if err := f.Close(); err != nil {
				log.Warnf("saving history: %v", err)
			}
		})
	}
}

func repl(e *cellcalc.Engine, verb string) int {
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	save := saveHistory(ln, histPath)
	defer save()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		// Prompt can stay blocked after Close, so save before exiting.
		save()
		ln.Close()
		os.Exit(130)
	}()

	s := &session{e: e, verb: verb, out: os.Stdout}
	for {
		input, err := ln.Prompt(fmt.Sprintf("%3d> ", len(s.lines)+1))
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println()
			return 0
		}
		if err != nil {
			log.Errf("reading input: %v", err)
			return 1
		}
		if strings.TrimSpace(input) != "" {
			ln.AppendHistory(input)
		}
		if !s.handle(input) {
			return 0
		}
	}
}
