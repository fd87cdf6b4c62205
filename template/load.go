package template

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	mapset "github.com/deckarep/golang-set"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Load reads and validates a single template document.
func Load(path string) (*Template, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading template %s", path)
	}
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, errors.Wrapf(err, "parsing template %s", path)
	}
	if err := t.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid template %s", path)
	}
	return &t, nil
}

// LoadDir loads every *.yaml template in a directory, keyed by name.
func LoadDir(dir string) (map[string]*Template, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	result := make(map[string]*Template)
	for _, path := range paths {
		t, err := Load(path)
		if err != nil {
			return nil, err
		}
		if _, ok := result[t.Name]; ok {
			return nil, errors.Errorf("duplicate template name %q in %s", t.Name, dir)
		}
		result[t.Name] = t
	}
	return result, nil
}

// Validate checks the rule tree for internal consistency. Inconsistent
// rules are a load-time error, never a deal-time one.
func (t *Template) Validate() error {
	var problems []string
	report := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if t.Name == "" {
		report("template name missing")
	}
	if len(t.Opts.Cards) == 0 {
		report("card list empty")
	}

	deck := mapset.NewSet()
	for _, c := range t.Opts.Cards {
		if !deck.Add(c) {
			report("duplicate card %s in deck", c)
		}
		if !strings.Contains(t.Opts.Strengths, c.Level()) {
			report("card %s level missing from strengths %q", c, t.Opts.Strengths)
		}
		if s := c.Suit(); s != "" && !strings.Contains(t.Opts.Suites, s) {
			report("card %s suit missing from suites %q", c, t.Opts.Suites)
		}
	}

	for _, category := range t.Opts.Sort {
		if category != "suite" && category != "strength" {
			report("unknown sort category %q", category)
		}
	}

	if t.Opts.Players.Min < 2 || t.Opts.Players.Max < t.Opts.Players.Min {
		report("player range [%d, %d] invalid", t.Opts.Players.Min, t.Opts.Players.Max)
	}
	if t.Opts.Hand > 0 && t.Opts.Hand*t.Opts.Players.Min > len(t.Opts.Cards) {
		report("hand size %d exceeds deck for %d players", t.Opts.Hand, t.Opts.Players.Min)
	}

	if b := t.Opts.Bidding; b != nil {
		if b.Step < 0 {
			report("bidding step negative")
		}
		min, max := b.Min.For(false, false), b.Max.For(false, false)
		if min != nil && max != nil && *min > *max {
			report("bidding min %d above max %d", *min, *max)
		}
		if b.Suite != "" {
			for _, s := range b.Suite {
				if !strings.Contains(t.Opts.Suites, string(s)) {
					report("bidding suite %q not in suites %q", string(s), t.Opts.Suites)
				}
			}
		}
		if b.Distribute > 0 && !b.Talon {
			report("bidding distribute requires talon")
		}
	}

	if m := t.Opts.Move; m != nil {
		for name, special := range m.Special {
			for _, set := range special.Sets {
				for _, c := range set {
					if !deck.Contains(c) {
						report("special %q card %s not in deck", name, c)
					}
				}
			}
		}
		if m.Retreat != nil && m.Retreat.Cards < 1 {
			report("retreat cards must be positive")
		}
	}

	if r := t.Opts.Redeal; r != nil {
		for _, c := range r.Cards {
			if !deck.Contains(c) {
				report("redeal card %s not in deck", c)
			}
		}
		if r.Min < 1 || r.Min > len(r.Cards) {
			report("redeal min %d out of range", r.Min)
		}
	}

	if t.Opts.Trump && t.TrumpSpecial() == nil && (t.Opts.Talon == nil || !t.Opts.Talon.Trump) {
		report("trump enabled but no trump declaration or face-up talon trump")
	}

	if n := t.Opts.Nextgame; n != nil && n.Distribute != nil {
		if n.Distribute.Ranking && t.Opts.Ranking == nil {
			report("nextgame ranking distribution requires ranking scoring")
		}
		if n.Distribute.Max < 1 {
			report("nextgame distribute max must be positive")
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
