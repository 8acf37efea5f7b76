// cmd/contraline/main.go
//
// This is the entry point for the contraline CLI.
//
// Flow:
// 1. Parse the command line (cobra).
// 2. Ensure the project's .contraline directory and config exist.
// 3. Dispatch to a subcommand: generate, validate, inspect, figures, ids.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/contraline/internal/check"
	"github.com/kingrea/contraline/internal/composer"
	"github.com/kingrea/contraline/internal/config"
	"github.com/kingrea/contraline/internal/dance"
	"github.com/kingrea/contraline/internal/figures"
	"github.com/kingrea/contraline/internal/logging"
	"github.com/kingrea/contraline/internal/score"
	"github.com/kingrea/contraline/internal/tui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the state every subcommand needs: the project directory,
// its loaded configuration, and the project log file.
type app struct {
	projectDir string
	cfg        config.Config
	log        *logging.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "contraline",
		Short: "Generate and inspect contra dance timelines",
		Long: "contraline turns declarative dance documents into beat-indexed\n" +
			"keyframe timelines for one minor set of four dancers.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Init(a.projectDir); err != nil {
				return err
			}
			cfg, err := config.Load(a.projectDir)
			if err != nil {
				return err
			}
			a.cfg = cfg
			log, err := logging.New(a.projectDir)
			if err != nil {
				return err
			}
			a.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.log.Close()
		},
	}
	root.PersistentFlags().StringVarP(&a.projectDir, "project", "p", ".",
		"project directory holding the .contraline folder")

	root.AddCommand(
		newGenerateCmd(a),
		newValidateCmd(a),
		newInspectCmd(a),
		newFiguresCmd(),
		newIDsCmd(a),
	)
	return root
}

// compose loads a dance document and runs the engine over it with the
// project's tuning.
func (a *app) compose(path string) (score.Dance, composer.Result, error) {
	d, err := score.Load(path)
	if err != nil {
		return score.Dance{}, composer.Result{}, err
	}
	res := composer.Compose(d, composer.Options{
		Tuning:       a.cfg.Tuning(),
		BeatsPerStep: a.cfg.Engine.BeatsPerStep,
	})
	a.log.Printf("composed %s: %d keyframes, %d spans", path, len(res.Keyframes), len(res.Spans))
	if res.Err != nil {
		a.log.Printf("composition stopped at %s: %v", res.Err.InstructionID, res.Err.Err)
	}
	return d, res, nil
}

func title(d score.Dance, path string) string {
	if d.Title != "" {
		return d.Title
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// timelinePayload is the JSON shape generate writes. The composer's
// error is flattened to a string so consumers need no Go types.
type timelinePayload struct {
	Title     string           `json:"title"`
	Keyframes []dance.Keyframe `json:"keyframes"`
	Spans     []composer.Span  `json:"spans"`
	Error     string           `json:"error,omitempty"`
	ErrorID   string           `json:"error_instruction,omitempty"`
}

func newGenerateCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "generate <dance.yml>",
		Short: "Compose a dance document into a keyframe timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, res, err := a.compose(args[0])
			if err != nil {
				return err
			}
			payload := timelinePayload{
				Title:     title(d, args[0]),
				Keyframes: res.Keyframes,
				Spans:     res.Spans,
			}
			if res.Err != nil {
				payload.Error = res.Err.Err.Error()
				payload.ErrorID = res.Err.InstructionID
			}
			data, err := json.MarshalIndent(payload, "", "  ")
			if err != nil {
				return fmt.Errorf("encode timeline: %w", err)
			}
			if out == "" {
				base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
				out = filepath.Join(a.projectDir, config.AppDir, "out", base+".json")
			}
			if err := os.WriteFile(out, append(data, '\n'), 0o644); err != nil {
				return fmt.Errorf("write timeline: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d keyframes to %s\n", len(res.Keyframes), out)
			if res.Err != nil {
				return fmt.Errorf("timeline is partial, generation stopped at %q: %w",
					res.Err.InstructionID, res.Err.Err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default .contraline/out/<name>.json)")
	return cmd
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <dance.yml>",
		Short: "Compose a dance and report timeline warnings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, res, err := a.compose(args[0])
			if err != nil {
				return err
			}
			rep := check.Run(d, res, a.cfg.Limits())
			w := cmd.OutOrStdout()
			for _, warn := range rep.Warnings {
				where := warn.InstructionID
				if where == "" {
					where = "dance"
				}
				fmt.Fprintf(w, "warning [%s] beat %.2f (%s): %s\n",
					warn.Kind, warn.Beat, where, warn.Message)
			}
			a.log.Printf("validated %s: %d warnings", args[0], len(rep.Warnings))
			if res.Err != nil {
				return fmt.Errorf("generation stopped at %q: %w",
					res.Err.InstructionID, res.Err.Err)
			}
			if rep.Empty() {
				fmt.Fprintln(w, "timeline is clean")
			}
			return nil
		},
	}
}

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <dance.yml>",
		Short: "Open the interactive timeline inspector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, res, err := a.compose(args[0])
			if err != nil {
				return err
			}
			rep := check.Run(d, res, a.cfg.Limits())
			return tui.Run(tui.New(title(d, args[0]), res, rep))
		},
	}
}

func newFiguresCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "figures",
		Short: "List the figure operations the engine knows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, op := range figures.Builtin().Ops() {
				fmt.Fprintln(cmd.OutOrStdout(), op)
			}
			return nil
		},
	}
}

func newIDsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ids <dance.yml>",
		Short: "Assign ids to instructions that are missing one",
		Long: "Reads a dance document, fills every blank instruction id with a\n" +
			"fresh UUID, and writes the document back. Existing ids are kept, so\n" +
			"errors and warnings stay attached across edits.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			// Decoded leniently: the document may not validate yet, that
			// is exactly why it is getting ids.
			var d score.Dance
			dec := yaml.NewDecoder(bytes.NewReader(data))
			dec.KnownFields(true)
			if err := dec.Decode(&d); err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}
			n := score.AssignMissingIDs(&d)
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "all instructions already have ids")
				return nil
			}
			if err := score.Save(args[0], d); err != nil {
				return err
			}
			a.log.Printf("assigned %d ids in %s", n, args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "assigned %d ids\n", n)
			return nil
		},
	}
}
