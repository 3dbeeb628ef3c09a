package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"addonrepo/internal/app"
	"addonrepo/internal/planner"
)

type ExitCoder interface {
	ExitCode() int
}

type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }
func (e *exitError) ExitCode() int { return e.code }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if ex, ok := err.(ExitCoder); ok {
			os.Exit(ex.ExitCode())
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	var jsonOutput bool

	newSvc := func(repoRoot, sourceRoot string) (*app.Service, error) {
		return app.New(app.Options{ConfigPath: configPath, RepoRoot: repoRoot, SourceRoot: sourceRoot})
	}

	cmd := &cobra.Command{
		Use:           "addonrepo",
		Short:         "Synchronize a published add-on repository with a local source tree",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")

	cmd.AddCommand(newUpdateCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newPlanCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newVerifyCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newInitCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newVersionCmd(&jsonOutput))

	return cmd
}

type svcFactory func(repoRoot, sourceRoot string) (*app.Service, error)

// forceSentinel is what a bare --force resolves to: force every add-on.
const forceSentinel = "*"

func parseForce(value string) planner.Force {
	switch value {
	case "":
		return planner.Force{}
	case forceSentinel:
		return planner.Force{All: true}
	default:
		return planner.Force{ID: value}
	}
}

func newUpdateCmd(newSvc svcFactory, jsonOutput *bool) *cobra.Command {
	var sourceRoot string
	var force string
	var manifestOnly bool
	var dryRun bool
	var jobs int

	updateCmd := &cobra.Command{
		Use:     "update <repo>",
		Aliases: []string{"sync"},
		Short:   "Package new and updated add-ons and regenerate the manifest",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc(args[0], sourceRoot)
			if err != nil {
				return err
			}
			report, err := svc.Update(cmd.Context(), app.UpdateOptions{
				Force:        parseForce(force),
				ManifestOnly: manifestOnly,
				DryRun:       dryRun,
				Jobs:         jobs,
			})
			if err != nil {
				var unknown *planner.UnknownAddonError
				if errors.As(err, &unknown) {
					return &exitError{code: 2, msg: err.Error()}
				}
				return err
			}
			if err := print(*jsonOutput, report, updateSummary(report)); err != nil {
				return err
			}
			if len(report.Failed) > 0 {
				return &exitError{code: 1, msg: fmt.Sprintf("%d add-on(s) failed to package", len(report.Failed))}
			}
			return nil
		},
	}
	updateCmd.Flags().StringVarP(&sourceRoot, "source", "s", "", "add-on source directory (default from config)")
	updateCmd.Flags().StringVarP(&force, "force", "f", "", "repackage all add-ons, or only the given add-on id")
	updateCmd.Flags().Lookup("force").NoOptDefVal = forceSentinel
	updateCmd.Flags().BoolVarP(&manifestOnly, "manifest-only", "F", false, "only regenerate the manifest")
	updateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute the plan without writing")
	updateCmd.Flags().IntVar(&jobs, "jobs", 1, "concurrent packaging workers")
	return updateCmd
}

func newPlanCmd(newSvc svcFactory, jsonOutput *bool) *cobra.Command {
	var sourceRoot string
	var force string
	var manifestOnly bool

	planCmd := &cobra.Command{
		Use:   "plan <repo>",
		Short: "Show what an update would do",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc(args[0], sourceRoot)
			if err != nil {
				return err
			}
			report, err := svc.Plan(cmd.Context(), parseForce(force), manifestOnly)
			if err != nil {
				var unknown *planner.UnknownAddonError
				if errors.As(err, &unknown) {
					return &exitError{code: 2, msg: err.Error()}
				}
				return err
			}
			return print(*jsonOutput, report, updateSummary(report))
		},
	}
	planCmd.Flags().StringVarP(&sourceRoot, "source", "s", "", "add-on source directory (default from config)")
	planCmd.Flags().StringVarP(&force, "force", "f", "", "repackage all add-ons, or only the given add-on id")
	planCmd.Flags().Lookup("force").NoOptDefVal = forceSentinel
	planCmd.Flags().BoolVarP(&manifestOnly, "manifest-only", "F", false, "only regenerate the manifest")
	return planCmd
}

func newVerifyCmd(newSvc svcFactory, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <repo>",
		Short: "Check manifest, descriptors and archives for consistency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc(args[0], "")
			if err != nil {
				return err
			}
			report, err := svc.Verify()
			if err != nil {
				return err
			}
			if err := print(*jsonOutput, report, verifySummary(report)); err != nil {
				return err
			}
			if !report.OK {
				return &exitError{code: 1, msg: fmt.Sprintf("%d problem(s) found", len(report.Problems))}
			}
			return nil
		},
	}
}

func newInitCmd(newSvc svcFactory, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "init <repo>",
		Short: "Create an empty repository skeleton",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc(args[0], "")
			if err != nil {
				return err
			}
			if err := svc.Init(); err != nil {
				return err
			}
			return print(*jsonOutput, map[string]string{"initialized": svc.RepoRoot}, "initialized repository at "+svc.RepoRoot)
		},
	}
}

func updateSummary(report app.Report) string {
	var lines []string
	for _, id := range report.Selected {
		lines = append(lines, "would package "+id)
	}
	for _, p := range report.Packaged {
		line := fmt.Sprintf("packaged %s %s (%s)", p.ID, p.Version, p.Archive)
		if len(p.Pruned) > 0 {
			line += fmt.Sprintf(", pruned %s", strings.Join(p.Pruned, ", "))
		}
		lines = append(lines, line)
	}
	for _, id := range report.Skipped {
		lines = append(lines, fmt.Sprintf("skipped %s (up to date)", id))
	}
	for _, f := range report.Failed {
		lines = append(lines, fmt.Sprintf("failed %s %s: %s", f.ID, f.Version, f.Error))
	}
	for _, w := range report.Warnings {
		lines = append(lines, "warning: "+w)
	}
	switch {
	case report.DryRun && report.ManifestWritten:
		lines = append(lines, "manifest: would regenerate")
	case report.ManifestWritten:
		lines = append(lines, "manifest: regenerated")
	default:
		lines = append(lines, "manifest: unchanged (nothing to do)")
	}
	return strings.Join(lines, "\n")
}

func verifySummary(report app.VerifyReport) string {
	var lines []string
	for _, p := range report.Problems {
		lines = append(lines, "problem: "+p)
	}
	for _, w := range report.Warnings {
		lines = append(lines, "warning: "+w)
	}
	if report.OK {
		lines = append(lines, fmt.Sprintf("ok: %d add-on(s) consistent", report.Addons))
	}
	return strings.Join(lines, "\n")
}

func print(jsonOutput bool, payload any, message string) error {
	if jsonOutput {
		blob, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(blob))
		return nil
	}
	if message != "" {
		fmt.Println(message)
	}
	return nil
}
