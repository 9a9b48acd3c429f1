package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"rtfcheck/internal/app"
	"rtfcheck/internal/config"
	"rtfcheck/internal/logging"
	"rtfcheck/internal/scenario"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

type runFlags struct {
	configArg      string
	logFileArg     string
	extArg         string
	reportDirArg   string
	scenarioArgs   []string
	checkSignature bool
	debugArg       bool
	quietArg       bool
}

func Execute() error {
	root := NewRootCmd(os.Stdout, os.Stderr)
	root.SetArgs(normalizeArgs(os.Args[1:]))
	return root.Execute()
}

func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &runFlags{}
	showVersion := false

	root := &cobra.Command{
		Use:           "rtfcheck [dir]",
		Short:         "Run column header extraction checks over a folder of RTF documents",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCheck(stdout, stderr, flags, &showVersion),
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.CompletionOptions.HiddenDefaultCmd = true
	bindRunFlags(root, flags)
	root.Flags().BoolVarP(&showVersion, "version", "v", false, "print version")

	root.AddCommand(&cobra.Command{
		Use:           "run [dir]",
		Short:         "Run the selected scenarios and print the log",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCheck(stdout, stderr, flags, nil),
	})
	root.AddCommand(newInitCmd(stdout, flags))
	root.AddCommand(newSetCmd(stdout, flags))
	root.AddCommand(&cobra.Command{
		Use:   "scenarios",
		Short: "List the available scenarios",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, s := range scenario.All() {
				fmt.Fprintf(stdout, "%-28s %s\n", s.Name, s.Requirement)
			}
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(stdout, versionText())
		},
	})
	return root
}

func bindRunFlags(cmd *cobra.Command, flags *runFlags) {
	cmd.PersistentFlags().StringVar(&flags.configArg, "config", "", "config file path, default ./rtfcheck.yaml")
	cmd.PersistentFlags().StringVar(&flags.logFileArg, "log-file", "", "log file path, default test_log.log")
	cmd.PersistentFlags().StringVar(&flags.extArg, "ext", "", "candidate file extension, default .rtf")
	cmd.PersistentFlags().StringVar(&flags.reportDirArg, "report-dir", "", "write a JSON report into this directory")
	cmd.PersistentFlags().StringArrayVarP(&flags.scenarioArgs, "scenario", "s", nil, "scenario to run, repeatable (default all)")
	cmd.PersistentFlags().BoolVar(&flags.checkSignature, "check-signature", false, "reject files whose content is not RTF")
	cmd.PersistentFlags().BoolVar(&flags.debugArg, "debug", false, "copy every file verdict to stderr")
	cmd.PersistentFlags().BoolVarP(&flags.quietArg, "quiet", "q", false, "do not print the log file after the run")
}

func runCheck(stdout, stderr io.Writer, flags *runFlags, showVersion *bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if showVersion != nil && *showVersion {
			fmt.Fprintln(stdout, versionText())
			return nil
		}

		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory failed: %w", err)
		}
		dir := ""
		if len(args) > 0 {
			dir = args[0]
		}

		res, err := app.Run(context.Background(), app.Options{
			Dir:            dir,
			ConfigPath:     flags.configArg,
			LogFile:        flags.logFileArg,
			Extension:      flags.extArg,
			Scenarios:      flags.scenarioArgs,
			CheckSignature: flags.checkSignature,
			ReportDir:      flags.reportDirArg,
			Debug:          flags.debugArg,
			CWD:            cwd,
			Stdout:         stdout,
			Stderr:         stderr,
		})
		if err != nil {
			return err
		}

		if !flags.quietArg {
			text, err := logging.ReadAll(res.LogFile)
			if err != nil {
				return err
			}
			fmt.Fprint(stdout, text)
		}
		for _, o := range res.Report.Outcomes {
			fmt.Fprintf(stdout, "%s: matched %d, unmatched %d, errors %d\n", o.Scenario.Name, len(o.Result.Matched), len(o.Result.Unmatched), len(o.Result.Errored))
		}
		if res.ReportFile != "" {
			fmt.Fprintf(stdout, "report: %s\n", res.ReportFile)
		}
		fmt.Fprintf(stdout, "done in %s\n", formatDurationMS(res.ElapsedMS))
		return nil
	}
}

func newInitCmd(stdout io.Writer, flags *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:           "init",
		Short:         "Write a default config file",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(flags.configArg)
			if err != nil {
				return err
			}
			created, err := config.WriteDefault(path)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(stdout, "config written: %s\n", path)
			} else {
				fmt.Fprintf(stdout, "config already exists: %s\n", path)
			}
			return nil
		},
	}
}

func newSetCmd(stdout io.Writer, flags *runFlags) *cobra.Command {
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Persist settings in the .env next to the config file",
	}
	setCmd.AddCommand(&cobra.Command{
		Use:           "dir <path>",
		Short:         "Set the document folder",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := strings.TrimSpace(args[0])
			if dir == "" {
				return fmt.Errorf("dir is empty")
			}
			path, err := configPath(flags.configArg)
			if err != nil {
				return err
			}
			if !filepath.IsAbs(dir) {
				cwd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("get working directory failed: %w", err)
				}
				dir = filepath.Join(cwd, dir)
			}
			envPath := filepath.Join(filepath.Dir(path), ".env")
			if err := config.UpsertEnvVar(envPath, config.EnvDir, dir); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "%s=%s written to %s\n", config.EnvDir, dir, envPath)
			return nil
		},
	})
	return setCmd
}

func configPath(arg string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory failed: %w", err)
	}
	if strings.TrimSpace(arg) == "" {
		return config.DefaultPath(cwd), nil
	}
	if filepath.IsAbs(arg) {
		return arg, nil
	}
	return filepath.Join(cwd, arg), nil
}

func versionText() string {
	return fmt.Sprintf("rtfcheck %s (commit %s, built %s)", Version, Commit, BuildTime)
}

func formatDurationMS(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60_000 {
		return fmt.Sprintf("%.2fs", float64(ms)/1000.0)
	}
	minutes := ms / 60_000
	remainMS := ms % 60_000
	if remainMS == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dm%.1fs", minutes, float64(remainMS)/1000.0)
}

func normalizeArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}
	switch args[0] {
	case "run", "init", "set", "scenarios", "help", "completion", "version":
		return args
	}
	if !containsPositionalSource(args) {
		return args
	}
	return append([]string{"run"}, args...)
}

func containsPositionalSource(args []string) bool {
	valueFlags := map[string]bool{
		"--config": true, "--log-file": true, "--ext": true, "--report-dir": true, "--scenario": true, "-s": true,
	}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return i+1 < len(args)
		}
		if valueFlags[arg] {
			i++
			continue
		}
		if strings.HasPrefix(arg, "-") {
			continue
		}
		return true
	}
	return false
}
