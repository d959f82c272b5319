package replay

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vango-dev/transitiongroup/pkg/frame"
	"github.com/vango-dev/transitiongroup/pkg/reconcile"
	"github.com/vango-dev/transitiongroup/pkg/transition"
	"github.com/vango-dev/transitiongroup/pkg/vdom"
)

// Child is one top-level child of a pass's output.
type Child struct {
	Key      string
	Keyed    bool
	Retained bool
}

func (c Child) String() string {
	switch {
	case !c.Keyed:
		return "_"
	case c.Retained:
		return "[" + c.Key + "]"
	default:
		return c.Key
	}
}

// Result is the outcome of one step.
type Result struct {
	Step        int
	Pass        uint64
	Children    []Child
	Animating   []string
	Invalidated int
}

func (r Result) String() string {
	parts := make([]string, len(r.Children))
	for i, c := range r.Children {
		parts[i] = c.String()
	}
	line := fmt.Sprintf("pass %d: %s", r.Pass, strings.Join(parts, " "))
	if r.Invalidated > 0 {
		line += fmt.Sprintf("  (invalidated x%d)", r.Invalidated)
	}
	return line
}

// Run executes every step of sc against a fresh reconciler and returns one
// Result per step. opts are applied after the runner's own options.
func Run(ctx context.Context, sc *Scenario, logger *slog.Logger, opts ...reconcile.Option) ([]Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	rec := reconcile.New(append([]reconcile.Option{reconcile.WithLogger(logger)}, opts...)...)
	defer rec.Close()

	invalidated := 0
	sub := rec.OnInvalidate(func() { invalidated++ })
	defer sub.Release()

	var set *transition.Set
	if sc.Transitions() {
		topts := []transition.Option{
			transition.WithDuration(sc.Duration()),
			transition.WithLogger(logger),
		}
		if fn, ok := transition.Easing(sc.Easing); ok {
			topts = append(topts, transition.WithEasing(fn))
		}
		set = transition.NewSet(rec.Registry(), topts...)
		defer set.Close()
	}

	var (
		children []string
		results  = make([]Result, 0, len(sc.Steps))
	)
	for i, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		invalidated = 0

		if st.Children != nil {
			children = st.Children
		}
		for _, key := range st.Complete {
			rec.Registry().End(key)
			rec.Registry().NotifyChanged()
		}
		if set != nil && st.TickDuration() > 0 {
			set.Update(st.TickDuration())
		}

		nodes := make([]*vdom.VNode, len(children))
		for j, key := range children {
			if key == "" {
				nodes[j] = vdom.Li("_")
				continue
			}
			if set != nil {
				set.Ensure(key)
			}
			nodes[j] = vdom.Li(vdom.Key(key), key)
		}

		frames, err := rec.Render(ctx, vdom.Flatten(nodes...))
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		snap := rec.Snapshot()
		if set != nil {
			set.Prune(snap.Keys)
		}

		res := Result{
			Step:        i + 1,
			Pass:        snap.Passes,
			Children:    topLevel(frames, snap.Retained),
			Invalidated: invalidated,
		}
		for _, k := range snap.Animating {
			res.Animating = append(res.Animating, fmt.Sprint(k))
		}
		logger.Debug("replay: step", "step", res.Step, "pass", res.Pass, "children", len(res.Children))
		results = append(results, res)
	}
	return results, nil
}

// Fprint writes one line per result.
func Fprint(w io.Writer, sc *Scenario, results []Result) error {
	if sc.Name != "" {
		if _, err := fmt.Fprintf(w, "# %s\n", sc.Name); err != nil {
			return err
		}
	}
	for _, r := range results {
		if _, err := fmt.Fprintln(w, r.String()); err != nil {
			return err
		}
	}
	return nil
}

func topLevel(frames []frame.Sequenced, retained []any) []Child {
	isRetained := make(map[string]bool, len(retained))
	for _, k := range retained {
		isRetained[fmt.Sprint(k)] = true
	}

	var out []Child
	depth := 0
	for _, f := range frames {
		var key any
		switch v := f.Frame.(type) {
		case frame.OpenElement:
			key = v.Key
		case frame.OpenComponent:
			key = v.Key
		case frame.CloseElement, frame.CloseComponent:
			depth--
			continue
		default:
			continue
		}
		if depth == 0 {
			c := Child{Keyed: key != nil}
			if c.Keyed {
				c.Key = fmt.Sprint(key)
				c.Retained = isRetained[c.Key]
			}
			out = append(out, c)
		}
		depth++
	}
	return out
}
