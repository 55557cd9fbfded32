package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/go-logr/logr"
	"github.com/san-kum/mdao/internal/config"
	"github.com/san-kum/mdao/internal/logging"
	"github.com/san-kum/mdao/internal/model"
	"github.com/san-kum/mdao/internal/registry"
	"github.com/san-kum/mdao/internal/viz"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// main runs the mdao CLI; it exits with status 1 when a command fails.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app carries the settings shared by every command. Flags are bound into a
// viper instance so each one can also come from an MDAO_* environment
// variable, e.g. MDAO_PRESET=spring or MDAO_TOLERANCE=1e-12.
type app struct {
	v   *viper.Viper
	reg *registry.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), reg: registry.New()}
	a.v.SetEnvPrefix("MDAO")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root := &cobra.Command{
		Use:          "mdao",
		Short:        "multidisciplinary analysis with adjoint derivatives",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.v.BindPFlags(cmd.Flags())
		},
	}
	pf := root.PersistentFlags()
	pf.StringP("problem", "f", "", "problem file (yaml)")
	pf.StringP("preset", "p", "", "built-in problem (see: mdao presets)")
	pf.CountP("verbose", "v", "log verbosity, repeat for more")
	pf.Float64("tolerance", 0, "nonlinear tolerance, 0 keeps the problem's")
	pf.String("theme", viz.ThemeSlate.Name, "color theme: "+strings.Join(viz.ThemeNames(), ", "))

	root.AddCommand(
		a.runCmd(),
		a.totalsCmd(),
		a.checkCmd(),
		a.optimizeCmd(),
		a.exploreCmd(),
		a.componentsCmd(),
		a.presetsCmd(),
		a.initCmd(),
	)
	return root
}

func (a *app) logger() logr.Logger {
	return logging.New(a.v.GetInt("verbose"))
}

func (a *app) styles() viz.Styles {
	return viz.NewStyles(viz.GetTheme(a.v.GetString("theme")))
}

// problem resolves --problem or --preset and applies --tolerance.
func (a *app) problem() (*config.Config, error) {
	path, name := a.v.GetString("problem"), a.v.GetString("preset")
	var cfg *config.Config
	switch {
	case path != "" && name != "":
		return nil, errors.New("--problem and --preset are exclusive")
	case path != "":
		c, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		cfg = c
	case name != "":
		cfg = config.GetPreset(name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q (have %s)", name, strings.Join(config.ListPresets(), ", "))
		}
	default:
		return nil, errors.New("no problem given: pass --problem or --preset")
	}
	if tol := a.v.GetFloat64("tolerance"); tol > 0 {
		cfg.Tolerance = tol
	}
	return cfg, nil
}

// analyze builds the problem's model and runs it once.
func (a *app) analyze(cmd *cobra.Command) (context.Context, *config.Config, *model.Model, error) {
	cfg, err := a.problem()
	if err != nil {
		return nil, nil, nil, err
	}
	log := a.logger()
	m, err := cfg.Build(a.reg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logging.IntoContext(ctx, log)
	if err := m.RunAnalysis(ctx); err != nil {
		return nil, nil, nil, err
	}
	return ctx, cfg, m, nil
}
