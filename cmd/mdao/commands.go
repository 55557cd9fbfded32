package main

import (
	"errors"
	"fmt"

	"github.com/san-kum/mdao/internal/adjoint"
	"github.com/san-kum/mdao/internal/check"
	"github.com/san-kum/mdao/internal/config"
	"github.com/san-kum/mdao/internal/core"
	"github.com/san-kum/mdao/internal/optim"
	"github.com/san-kum/mdao/internal/tui"
	"github.com/san-kum/mdao/internal/viz"
	"github.com/spf13/cobra"
)

// historian is implemented by components that record their nonlinear
// residual history.
type historian interface {
	History() []float64
}

func (a *app) runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "run the analysis once and print every output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, m, err := a.analyze(cmd)
			if err != nil {
				return err
			}
			s := a.styles()
			out := cmd.OutOrStdout()

			vals := make(map[string][]float64)
			for _, name := range m.Store().Names(core.Output) {
				v, err := m.GetVal(name)
				if err != nil {
					return err
				}
				vals[name] = v.Data()
			}
			fmt.Fprintln(out, s.Title.Render("outputs"))
			fmt.Fprint(out, s.Values(vals))

			if !a.v.GetBool("history") {
				return nil
			}
			for _, name := range m.Order() {
				c, _ := m.Component(name)
				h, ok := c.(historian)
				if !ok {
					continue
				}
				if plot := viz.Plot(h.History(), name+" residual norm", 60, 8); plot != "" {
					fmt.Fprintln(out)
					fmt.Fprintln(out, plot)
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("history", false, "plot nonlinear residual histories")
	return cmd
}

func (a *app) totalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "totals",
		Short: "compute total derivatives through the unified adjoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, m, err := a.analyze(cmd)
			if err != nil {
				return err
			}
			s := a.styles()
			out := cmd.OutOrStdout()

			if a.v.GetBool("adjoint") {
				if cfg.Adjoint == nil {
					return errors.New("problem has no adjoint section")
				}
				solver := &adjoint.Solver{
					State:        cfg.Adjoint.State,
					Objective:    cfg.Adjoint.Objective,
					Constraints:  cfg.Adjoint.Constraints,
					Intermediate: cfg.Adjoint.Intermediate,
					Design:       cfg.Adjoint.Design,
					Logger:       a.logger(),
				}
				totals, err := solver.Solve(m.Table())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, s.Title.Render("adjoint blocks"))
				fmt.Fprint(out, s.Totals(totals))

				combined := make(adjoint.Totals)
				for _, x := range solver.Design {
					d, err := solver.Combined(totals, x)
					if err != nil {
						return err
					}
					combined[adjoint.Pair{Of: solver.Objective, Wrt: x}] = d
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, s.Title.Render("combined"))
				fmt.Fprint(out, s.Totals(combined))
				return nil
			}

			of, wrt := a.responses(cfg)
			totals, err := m.ComputeTotals(of, wrt)
			if err != nil {
				return err
			}
			fmt.Fprint(out, s.Totals(totals))
			return nil
		},
	}
	a.responseFlags(cmd)
	cmd.Flags().Bool("adjoint", false, "use the problem's single-state adjoint section")
	return cmd
}

func (a *app) responseFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("of", nil, "responses, default from the problem")
	cmd.Flags().StringSlice("wrt", nil, "design variables, default from the problem")
}

// responses returns --of and --wrt, falling back to the problem's totals.
func (a *app) responses(cfg *config.Config) (of, wrt []string) {
	of, wrt = a.v.GetStringSlice("of"), a.v.GetStringSlice("wrt")
	if len(of) == 0 {
		of = cfg.Totals.Of
	}
	if len(wrt) == 0 {
		wrt = cfg.Totals.Wrt
	}
	return of, wrt
}

func (a *app) checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "compare analytic partials or totals with finite differences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cfg, m, err := a.analyze(cmd)
			if err != nil {
				return err
			}
			form, err := check.ParseForm(a.v.GetString("form"))
			if err != nil {
				return err
			}
			o := check.DefaultOptions()
			o.Form = form
			if step := a.v.GetFloat64("step"); step > 0 {
				o.Step = step
			}

			var results []check.Result
			if a.v.GetBool("totals") {
				of, wrt := a.responses(cfg)
				results, err = check.Totals(ctx, m, of, wrt, o)
				if err != nil {
					return err
				}
			} else {
				for _, name := range m.Order() {
					c, _ := m.Component(name)
					r, err := check.Partials(c, o)
					if err != nil {
						return err
					}
					results = append(results, r...)
				}
			}

			fmt.Fprint(cmd.OutOrStdout(), a.styles().Checks(results, o))
			var failed int
			for _, r := range results {
				if !r.OK(o) {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d derivative blocks out of tolerance", failed, len(results))
			}
			return nil
		},
	}
	a.responseFlags(cmd)
	cmd.Flags().Bool("totals", false, "check totals instead of component partials")
	cmd.Flags().String("form", "forward", "finite-difference form: forward or central")
	cmd.Flags().Float64("step", 0, "finite-difference step, 0 for the default")
	return cmd
}

func (a *app) optimizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "minimize the problem's objective over its design variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cfg, m, err := a.analyze(cmd)
			if err != nil {
				return err
			}
			if cfg.Optimize == nil {
				return errors.New("problem has no optimize section")
			}
			oc := cfg.Optimize
			p := optim.Problem{Model: m, Objective: oc.Objective, Design: m.DesignVariables()}
			s := a.styles()
			out := cmd.OutOrStdout()

			if n := a.v.GetInt("grid"); n > 0 {
				ranges := make([][]float64, len(p.Design))
				for i := range ranges {
					ranges[i] = optim.Linspace(oc.Lower, oc.Upper, n)
				}
				best, f, err := optim.NewGridSearch(p.Design, ranges).Search(ctx, p)
				if err != nil {
					return err
				}
				vals := make(map[string][]float64, len(best))
				for k, v := range best {
					vals[k] = []float64{v}
				}
				fmt.Fprint(out, s.Values(vals))
				fmt.Fprintf(out, "%s %s\n", s.Label.Render(oc.Objective), s.Value.Render(fmt.Sprintf("%.6g", f)))
				return nil
			}

			maxIter := oc.MaxIter
			if n := a.v.GetInt("max-iter"); n > 0 {
				maxIter = n
			}
			sd := &optim.SteepestDescent{
				Step:    oc.Step,
				MaxIter: maxIter,
				Tol:     oc.Tol,
				Lower:   oc.Lower,
				Upper:   oc.Upper,
				Logger:  a.logger(),
			}
			res, err := sd.Minimize(ctx, p)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, s.Title.Render("design"))
			fmt.Fprint(out, s.Values(res.Design))
			fmt.Fprintf(out, "%s %s  %s %d  %s %s\n",
				s.Label.Render(oc.Objective), s.Value.Render(fmt.Sprintf("%.6g", res.Objective)),
				s.Label.Render("iterations"), res.Iterations,
				s.Label.Render("converged"), s.Status(res.Converged))
			if plot := viz.Plot(res.History, oc.Objective+" by iteration", 60, 10); plot != "" {
				fmt.Fprintln(out)
				fmt.Fprintln(out, plot)
			}
			return nil
		},
	}
	cmd.Flags().Int("max-iter", 0, "iteration limit, 0 keeps the problem's")
	cmd.Flags().Int("grid", 0, "grid search with n points per scalar design variable instead")
	return cmd
}

func (a *app) exploreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "interactively edit design variables and watch the totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cfg, m, err := a.analyze(cmd)
			if err != nil {
				return err
			}
			of, wrt := a.responses(cfg)
			e, err := tui.NewExplorer(ctx, m, of, wrt)
			if err != nil {
				return err
			}
			e.SetTheme(viz.GetTheme(a.v.GetString("theme")))
			return tui.Run(e)
		},
	}
	a.responseFlags(cmd)
	return cmd
}

func (a *app) componentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "components",
		Short: "list the component types a problem file can use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.styles()
			for _, name := range a.reg.List() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", name, s.Subtle.Render(a.reg.Summary(name)))
			}
			return nil
		},
	}
}

func (a *app) presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list the built-in problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.styles()
			for _, name := range config.ListPresets() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", name, s.Subtle.Render(config.Presets[name].Description))
			}
			return nil
		},
	}
}

func (a *app) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [preset] [path]",
		Short: "write a preset as a problem file to start from",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetPreset(args[0])
			if cfg == nil {
				return fmt.Errorf("unknown preset %q", args[0])
			}
			if err := config.Save(args[1], cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[1])
			return nil
		},
	}
}
