package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"fortio.org/log"
	"github.com/fatih/color"

	"github.com/zephyrtronium/cellcalc"
)

var red = color.New(color.FgRed).SprintFunc()

func main() {
	var (
		inname, verb, cfgname string
		with                  [][2]string
		echo, funcs, verbose  bool
		interactive           bool
		prec                  int
	)
	addwith := func(s string) error {
		d := strings.SplitN(s, "=", 2)
		if len(d) != 2 {
			return fmt.Errorf(`constant definitions must be "name=value", not %q`, s)
		}
		with = append(with, [2]string{strings.TrimSpace(d[0]), strings.TrimSpace(d[1])})
		return nil
	}
	flag.StringVar(&inname, "in", "", "input file (default stdin if no args given)")
	flag.StringVar(&verb, "fmt", "%g", "result formatting string")
	flag.Func("given", "name=value constant definition, replacing any of the same name (any number of times)", addwith)
	flag.StringVar(&cfgname, "config", "", "YAML file with precision, format, and constants")
	flag.IntVar(&prec, "p", cellcalc.DefaultPrec, "precision of calculations in bits")
	flag.BoolVar(&echo, "echo", false, "print parse trees")
	flag.BoolVar(&funcs, "funcs", false, "list functions and constants, then exit")
	flag.BoolVar(&verbose, "v", false, "verbose logging")
	flag.BoolVar(&interactive, "i", false, "interactive session")
	flag.Parse()
	if verbose {
		log.SetLogLevel(log.Verbose)
	}
	if prec <= 0 {
		log.Fatalf("precision (%d) must be positive", prec)
	}

	cfg := &config{Precision: uint(prec), Format: verb}
	if cfgname != "" {
		f, err := os.Open(cfgname)
		if err != nil {
			log.Fatalf("%v", err)
		}
		c, err := loadConfig(f)
		f.Close()
		if err != nil {
			log.Fatalf("%s: %v", cfgname, err)
		}
		// Flags given explicitly override the file.
		flag.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "p":
				c.Precision = uint(prec)
			case "fmt":
				c.Format = verb
			}
		})
		cfg = c
	}
	for _, d := range with {
		cfg.Constants = append(cfg.Constants, constant{Name: d[0], Expr: d[1]})
	}
	reg, err := cfg.registry()
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.LogVf("precision %d bits, %d constants", cfg.prec(), len(reg.Consts()))

	if funcs {
		listRegistry(os.Stdout, reg)
		return
	}
	e := cellcalc.New(cellcalc.Prec(cfg.prec()), cellcalc.WithRegistry(reg))
	if interactive {
		os.Exit(repl(e, cfg.format()))
	}

	lines, err := readScript(inname, flag.NArg() == 0)
	if err != nil {
		log.Fatalf("%v", err)
	}
	lines = append(lines, flag.Args()...)

	e.Execute(lines)
	bad := 0
	for i, l := range e.Lines() {
		if echo {
			fmt.Printf("%v : ", l.Tree)
		}
		if !printLine(os.Stdout, i, l, cfg.format()) {
			bad++
		}
	}
	if bad > 0 {
		os.Exit(1)
	}
}

// printLine writes the result of one line, or its errors in red. It returns
// false if the line had any errors.
func printLine(w io.Writer, i int, l cellcalc.LineResult, verb string) bool {
	var errs []string
	for _, err := range l.LexErrors {
		errs = append(errs, err.Error())
	}
	for _, err := range l.ParseErrors {
		errs = append(errs, err.Error())
	}
	if l.Fault != nil && len(errs) == 0 {
		errs = append(errs, l.Fault.Error())
	}
	if len(errs) != 0 {
		fmt.Fprintln(w, red(fmt.Sprintf("line %d: %s", i+1, strings.Join(errs, "; "))))
		return false
	}
	switch {
	case l.Tree == nil || l.Tree.Expr == nil:
		fmt.Fprintln(w)
	case l.Var != "":
		fmt.Fprintf(w, "%s = "+verb+"\n", l.Var, l.Value)
	default:
		fmt.Fprintf(w, verb+"\n", l.Value)
	}
	return true
}

func listRegistry(w io.Writer, reg *cellcalc.Registry) {
	for _, f := range reg.Funcs() {
		fmt.Fprintf(w, "%-8s %s\n", f.Name, f.Doc)
	}
	for _, c := range reg.Consts() {
		doc := c.Doc
		if doc == "" {
			doc = c.Value.String()
		}
		fmt.Fprintf(w, "%-8s %s\n", c.Name, doc)
	}
}

func infile(inname string, std bool) (io.ReadCloser, error) {
	switch {
	case inname != "" && inname != "-":
		return os.Open(inname)
	case inname == "-", std:
		return io.NopCloser(os.Stdin), nil
	}
	return nil, nil
}

// readScript reads the lines of the input named by -in, if there is one.
func readScript(inname string, std bool) ([]string, error) {
	in, err := infile(inname, std)
	if err != nil || in == nil {
		return nil, err
	}
	defer in.Close()
	return readLines(in)
}

// readLines reads all lines of r, accepting any line ending.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	s := bufio.NewScanner(r)
	for s.Scan() {
		lines = append(lines, strings.TrimSuffix(s.Text(), "\r"))
	}
	return lines, s.Err()
}
