package cellcalc

// DefaultPrec is the precision in bits used when no Prec option is given.
const DefaultPrec = 128

// DefaultLiteralCacheSize is the number of distinct numeric literals kept
// parsed when no LiteralCacheSize option is given.
const DefaultLiteralCacheSize = 1024

// Option is an option used when creating an Engine or evaluating a script.
type Option interface {
	option()
}

type (
	precopt  uint
	regopt   struct{ reg *Registry }
	cacheopt int
)

func (precopt) option()  {}
func (regopt) option()   {}
func (cacheopt) option() {}

// Prec sets the precision of calculations in bits. Zero selects DefaultPrec.
func Prec(prec uint) Option {
	return precopt(prec)
}

// WithRegistry sets the functions and constants available to scripts. A nil
// registry provides none. Without this option, the standard registry at the
// chosen precision is used.
func WithRegistry(reg *Registry) Option {
	return regopt{reg}
}

// LiteralCacheSize sets the number of distinct numeric literals the evaluator
// keeps parsed. Zero or negative disables the cache.
func LiteralCacheSize(n int) Option {
	return cacheopt(n)
}

type config struct {
	prec      uint
	reg       *Registry
	cacheSize int
}

// resolve applies options in order. Later options override earlier ones.
func resolve(opts []Option) config {
	cfg := config{prec: DefaultPrec, cacheSize: DefaultLiteralCacheSize}
	var haveReg bool
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		switch opt := opt.(type) {
		case precopt:
			cfg.prec = uint(opt)
			if cfg.prec == 0 {
				cfg.prec = DefaultPrec
			}
		case regopt:
			cfg.reg = opt.reg
			haveReg = true
		case cacheopt:
			cfg.cacheSize = int(opt)
		default:
			panic("cellcalc: unknown option type")
		}
	}
	if !haveReg {
		cfg.reg = Standard(cfg.prec)
	}
	return cfg
}
