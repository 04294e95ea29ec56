package main

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/zephyrtronium/cellcalc"
)

// config is the contents of a -config file.
type config struct {
	Precision uint      `yaml:"precision"`
	Format    string    `yaml:"format"`
	Constants constants `yaml:"constants"`
}

type constant struct {
	Name string
	Expr string
}

// constants is a YAML mapping of names to expressions which keeps the order
// of its keys, so that later constants may refer to earlier ones.
type constants []constant

func (c *constants) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: constants must be a mapping", n.Line)
	}
	seen := make(map[string]bool, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: constant definitions must be name: expression", k.Line)
		}
		if seen[k.Value] {
			return fmt.Errorf("line %d: constant %q defined twice", k.Line, k.Value)
		}
		seen[k.Value] = true
		*c = append(*c, constant{Name: k.Value, Expr: v.Value})
	}
	return nil
}

func loadConfig(r io.Reader) (*config, error) {
	var cfg config
	d := yaml.NewDecoder(r)
	d.KnownFields(true)
	if err := d.Decode(&cfg); err != nil && err != io.EOF {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *config) prec() uint {
	if cfg.Precision == 0 {
		return cellcalc.DefaultPrec
	}
	return cfg.Precision
}

func (cfg *config) format() string {
	if cfg.Format == "" {
		return "%g"
	}
	return cfg.Format
}

// registry returns the standard registry extended with the configured
// constants. Each constant is evaluated with those before it in scope, and
// replaces any earlier constant of the same name.
func (cfg *config) registry() (*cellcalc.Registry, error) {
	prec := cfg.prec()
	reg := cellcalc.Standard(prec)
	for _, c := range cfg.Constants {
		r, errs := cellcalc.EvalScript(c.Expr, cellcalc.Prec(prec), cellcalc.WithRegistry(reg))
		if len(errs) != 0 {
			return nil, fmt.Errorf("constant %s: %w", c.Name, errs[0])
		}
		if len(r) != 1 || r[0].Var != "" {
			return nil, fmt.Errorf("constant %s: %q must be a single expression", c.Name, c.Expr)
		}
		if r[0].Fault != nil {
			return nil, fmt.Errorf("constant %s: %w", c.Name, r[0].Fault)
		}
		var err error
		reg, err = withConst(reg, cellcalc.ConstDef{Name: c.Name, Value: r[0].Value, Doc: c.Expr})
		if err != nil {
			return nil, fmt.Errorf("constant %s: %w", c.Name, err)
		}
	}
	return reg, nil
}

// withConst returns reg with d added, replacing any constant of the same name.
func withConst(reg *cellcalc.Registry, d cellcalc.ConstDef) (*cellcalc.Registry, error) {
	consts := reg.Consts()
	for i, c := range consts {
		if c.Name == d.Name {
			consts[i] = d
			return cellcalc.NewRegistry(reg.Funcs(), consts)
		}
	}
	return reg.With(nil, []cellcalc.ConstDef{d})
}
