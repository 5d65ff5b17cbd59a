package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/sandrolain/gowindow"
	"github.com/sandrolain/gowindow/pkg/config"
	"github.com/sandrolain/gowindow/pkg/metrics"
	"github.com/sandrolain/gowindow/pkg/predicate/celpred"
	"github.com/sandrolain/gowindow/pkg/seq"
	"github.com/sandrolain/gowindow/pkg/window"
)

// stdinName is the input name used for standard input.
const stdinName = "-"

type app struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
	compiler   *celpred.Compiler
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("debug") {
		cfg.Debug, _ = flags.GetBool("debug")
	}
	if cfg.Debug && !flags.Changed("log-level") {
		cfg.Log.Level = "debug"
	}

	a.cfg = cfg
	a.logger = cfg.Log.NewLogger(cmd.ErrOrStderr())
	a.compiler = celpred.New(celpred.WithCacheSize(cfg.CacheSize), celpred.WithLogger(a.logger))
	return nil
}

func (a *app) loadSpec(path string) (*window.Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read clause: %w", err)
	}
	def, err := gowindow.ParseClause(data)
	if err != nil {
		return nil, err
	}
	return gowindow.Compile(def, gowindow.WithCompiler(a.compiler))
}

type outputLine struct {
	Source string `json:"source,omitempty"`
	gowindow.Result
}

type fileResult struct {
	out bytes.Buffer
	err error
}

// run evaluates spec over every input on the worker pool and writes the
// windows of each input, in input order, to w.
func (a *app) run(ctx context.Context, spec *window.Spec, inputs []string, stdin io.Reader, w io.Writer) error {
	// stdin can only be consumed by one worker
	if n := countStdin(inputs); n > 1 {
		return fmt.Errorf("standard input %q given %d times", stdinName, n)
	}

	reg := prometheus.NewRegistry()
	collector := metrics.New(reg)

	pool, err := ants.NewPool(a.cfg.Workers, ants.WithPanicHandler(func(v any) {
		a.logger.Error("worker panic", "panic", v)
	}))
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	results := make([]fileResult, len(inputs))
	var wg sync.WaitGroup
	for i, name := range inputs {
		wg.Add(1)
		res := &results[i]
		res.err = errors.New("worker panicked")
		task := func() {
			defer wg.Done()
			res.err = a.evalInput(ctx, spec, name, len(inputs) > 1, stdin, &res.out, collector)
		}
		if err := pool.Submit(task); err != nil {
			wg.Done()
			res.err = fmt.Errorf("submit: %w", err)
		}
	}
	wg.Wait()

	var errs []error
	for i, res := range results {
		if _, err := w.Write(res.out.Bytes()); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		if res.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", inputs[i], res.err))
		}
	}

	if a.cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(a.cfg.MetricsFile, reg); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	return errors.Join(errs...)
}

func countStdin(inputs []string) int {
	n := 0
	for _, name := range inputs {
		if name == stdinName {
			n++
		}
	}
	return n
}

func (a *app) evalInput(ctx context.Context, spec *window.Spec, name string, tagged bool, stdin io.Reader, out io.Writer, obs window.Observer) error {
	var r io.Reader = stdin
	if name != stdinName {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	it := spec.Evaluate(seq.NewJSONSource(r),
		window.WithLogger(a.logger.With("input", name)),
		window.WithDebug(a.cfg.Debug),
		window.WithObserver(obs),
	)

	enc := json.NewEncoder(out)
	line := outputLine{}
	if tagged {
		line.Source = name
	}
	n := 0
	for rec, err := range it.All(ctx) {
		if err != nil {
			return err
		}
		line.Result = gowindow.NewResult(rec)
		if err := enc.Encode(line); err != nil {
			return err
		}
		n++
	}
	a.logger.Info("input evaluated", "input", name, "windows", n)
	return nil
}

func newRunCmd(a *app) *cobra.Command {
	var clausePath string
	cmd := &cobra.Command{
		Use:   "run [files...]",
		Short: "Evaluate a window clause over JSON inputs (stdin when none given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := a.loadSpec(clausePath)
			if err != nil {
				return err
			}
			inputs := args
			if len(inputs) == 0 {
				inputs = []string{stdinName}
			}
			return a.run(cmd.Context(), spec, inputs, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&clausePath, "clause", "c", "", "window clause definition (JSON)")
	_ = cmd.MarkFlagRequired("clause")
	return cmd
}

func newValidateCmd(a *app) *cobra.Command {
	var clausePath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a window clause definition",
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec, err := a.loadSpec(clausePath)
			if err != nil {
				return err
			}
			names := spec.Names()
			for i, n := range names {
				names[i] = "$" + n
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s window binds %s\n", spec.Kind, strings.Join(names, " "))
			return nil
		},
	}
	cmd.Flags().StringVarP(&clausePath, "clause", "c", "", "window clause definition (JSON)")
	_ = cmd.MarkFlagRequired("clause")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), gowindow.Version())
		},
	}
}
