package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/incrsat/incrsat/mus"
	"github.com/incrsat/incrsat/proc"
	"github.com/incrsat/incrsat/sat"
)

// rootOptions holds the flags shared by all commands.
type rootOptions struct {
	Verbose bool
	Engine  string
	Config  string
	Timeout time.Duration
	Options []string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "incrsat",
		Short:        "An incremental SAT solver",
		Long:         "Solves DIMACS CNF problems with a built-in CDCL engine or an external solver process.",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Engine, "engine", "core", "engine to use (core|cadical|kissat)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "option preset (default|plain|sat|unsat)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 0, "give up after this duration")
	cmd.PersistentFlags().StringArrayVar(&opts.Options, "set", nil, "engine option as name=value, may be repeated")

	cmd.AddCommand(newSolveCommand(opts))
	cmd.AddCommand(newMusCommand(opts))
	return cmd
}

func newLogger(verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// newSolver builds a solver from the shared flags.
func newSolver(opts *rootOptions) (*sat.Solver, error) {
	var s *sat.Solver
	switch opts.Engine {
	case "core":
		s = sat.New()
	case "cadical":
		s = sat.NewWithEngine(proc.Cadical())
	case "kissat":
		s = sat.NewWithEngine(proc.Kissat())
	default:
		return nil, errors.Errorf("unknown engine %q", opts.Engine)
	}
	if opts.Config != "" {
		if err := s.Configure(opts.Config); err != nil {
			s.Release()
			return nil, err
		}
	}
	for _, kv := range opts.Options {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			s.Release()
			return nil, errors.Errorf("option %q is not of the form name=value", kv)
		}
		val, err := strconv.Atoi(value)
		if err != nil {
			s.Release()
			return nil, errors.Errorf("option value %q is not an integer", value)
		}
		if err := s.Set(name, val); err != nil {
			s.Release()
			return nil, err
		}
	}
	if opts.Timeout > 0 {
		s.SetTimeout(opts.Timeout)
	}
	if opts.Verbose {
		s.SetLogger(newLogger(opts.Verbose))
	}
	return s, nil
}

func newSolveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "solve <file.cnf>",
		Short: "Solve a DIMACS CNF problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSolver(opts)
			if err != nil {
				return err
			}
			defer s.Release()
			if _, err := s.ReadDimacs(args[0]); err != nil {
				return err
			}
			status, err := s.SolveContext(cmd.Context())
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			switch status {
			case sat.Satisfiable:
				fmt.Println("s SATISFIABLE")
				printModel(s)
			case sat.Unsatisfiable:
				fmt.Println("s UNSATISFIABLE")
			default:
				fmt.Println("s UNKNOWN")
			}
			return nil
		},
	}
}

// printModel writes the model as DIMACS v lines, ten literals per
// line, terminated by a zero.
func printModel(s *sat.Solver) {
	lits := make([]string, 0, 11)
	flush := func(last bool) {
		if last {
			lits = append(lits, "0")
		}
		if len(lits) > 0 {
			fmt.Printf("v %s\n", strings.Join(lits, " "))
			lits = lits[:0]
		}
	}
	for v := int32(1); v <= s.MaxVariable(); v++ {
		value, err := s.Value(v)
		if err != nil || value == sat.Undetermined {
			continue
		}
		if value == sat.True {
			lits = append(lits, strconv.Itoa(int(v)))
		} else {
			lits = append(lits, strconv.Itoa(int(-v)))
		}
		if len(lits) == 10 {
			flush(false)
		}
	}
	flush(true)
}

func newMusCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mus <file.cnf>",
		Short: "Extract a minimal unsatisfiable subset of a DIMACS CNF problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := proc.New("")
			if _, err := loader.ReadDimacs(args[0], false); err != nil {
				return err
			}
			extractor := mus.Extractor{}
			if opts.Verbose {
				extractor.Logger = newLogger(opts.Verbose)
			}
			subset, err := extractor.Extract(cmd.Context(), loader.Clauses())
			if err != nil {
				return err
			}
			var maxVar int32
			for _, clause := range subset {
				for _, l := range clause {
					if l > maxVar {
						maxVar = l
					} else if -l > maxVar {
						maxVar = -l
					}
				}
			}
			fmt.Printf("p cnf %d %d\n", maxVar, len(subset))
			for _, clause := range subset {
				for _, l := range clause {
					fmt.Printf("%d ", l)
				}
				fmt.Println("0")
			}
			return nil
		},
	}
}
