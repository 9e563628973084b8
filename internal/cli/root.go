// Package cli implements the lusync command line.
package cli

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hnrobert/lusync/internal/auth"
	"github.com/hnrobert/lusync/internal/config"
	"github.com/hnrobert/lusync/internal/logger"
	"github.com/hnrobert/lusync/internal/reconcile"
	"github.com/hnrobert/lusync/internal/usermgr"
)

// RootOptions holds the command line flags.
type RootOptions struct {
	ConfigPath      string
	NoLogin         string
	HashAlgorithm   string
	Backup          bool
	InPlaceFallback bool
	DryRun          bool
	LogLevel        string
	LogFormat       string
}

// NewRootCommand creates the lusync command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "lusync [flags] <desired-state> [directory]",
		Short: "Reconcile passwd, group and shadow with a desired account list",
		Long: `lusync merges a declarative list of users and groups into the passwd,
group and shadow databases of a directory (default /etc).

Declared accounts are created or updated. Accounts that are no longer
declared are locked but kept, and identifiers are never handed out twice.
The desired state is a JSON or YAML document.`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.Init(logger.Options{
				Level:  opts.LogLevel,
				Format: logger.Format(opts.LogFormat),
				Output: cmd.ErrOrStderr(),
			}); err != nil {
				return err
			}
			dir := ""
			if len(args) == 2 {
				dir = args[1]
			}
			return run(cmd, opts, args[0], dir)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.ConfigPath, "config", "c", os.Getenv(config.EnvConfig), "policy INI file")
	f.StringVar(&opts.NoLogin, "nologin", "", "shell for new accounts without one and for locked accounts")
	f.StringVar(&opts.HashAlgorithm, "hash", "", "algorithm for new password hashes (sha512|sha256|bcrypt|yescrypt)")
	f.BoolVar(&opts.Backup, "backup", false, "keep the previous content of each file as <file>-")
	f.BoolVar(&opts.InPlaceFallback, "in-place-fallback", false, "rewrite files in place when rename is refused")
	f.BoolVarP(&opts.DryRun, "dry-run", "n", false, "report changes without writing")
	f.StringVar(&opts.LogLevel, "log-level", "info", "log level (debug|info|warn|error)")
	f.StringVar(&opts.LogFormat, "log-format", string(logger.FormatText), "log format (text|json|printk)")

	return cmd
}

// policy merges the flags that were set on the command line into the
// loaded policy.
func policy(cmd *cobra.Command, opts *RootOptions) (config.Policy, error) {
	p, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Policy{}, err
	}
	f := cmd.Flags()
	if f.Changed("nologin") {
		p.NoLoginShell = opts.NoLogin
	}
	if f.Changed("hash") {
		p.HashAlgorithm = auth.Algorithm(opts.HashAlgorithm)
	}
	if f.Changed("backup") {
		p.Backup = opts.Backup
	}
	if f.Changed("in-place-fallback") {
		p.InPlaceFallback = opts.InPlaceFallback
	}
	if err := p.Validate(); err != nil {
		return config.Policy{}, err
	}
	return p, nil
}

func run(cmd *cobra.Command, opts *RootOptions, desiredPath, dir string) error {
	log := logger.WithField("run", uuid.NewString())

	p, err := policy(cmd, opts)
	if err != nil {
		return err
	}
	if dir == "" {
		if dir, err = p.TargetDir(); err != nil {
			return err
		}
	}
	log = log.WithField("dir", dir)

	desired, warnings, err := config.LoadDesired(desiredPath)
	if err != nil {
		return err
	}
	logWarnings(log, warnings)

	hasher, err := auth.NewHasher(p.HashAlgorithm)
	if err != nil {
		return err
	}

	m := usermgr.NewManager(dir)
	db, warnings, err := m.Load()
	if err != nil {
		return fmt.Errorf("load databases: %w", err)
	}
	logWarnings(log, warnings)
	log.Debugf("loaded %d users, %d groups, %d credentials", len(db.Users), len(db.Groups), len(db.Shadows))

	res, err := reconcile.New(reconcile.Options{
		SystemRange:  p.SystemRange,
		NormalRange:  p.NormalRange,
		NoLoginShell: p.NoLoginShell,
		Hasher:       hasher,
	}).Reconcile(db, desired)
	if res != nil {
		logWarnings(log, res.Warnings)
	}
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	for _, a := range res.Actions {
		log.Info(a)
	}

	if opts.DryRun {
		log.Infof("dry run: %d changes, nothing written", len(res.Actions))
		return nil
	}
	report, err := m.Commit(res.DB, usermgr.CommitOptions{
		Backup:          p.Backup,
		InPlaceFallback: p.InPlaceFallback,
	})
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	for _, path := range report.Written {
		log.Infof("wrote %s", path)
	}
	return nil
}

func logWarnings(log *logrus.Entry, warnings []usermgr.Warning) {
	for _, w := range warnings {
		log.WithField("kind", string(w.Kind)).Warnf("%s: %s", w.Subject, w.Message)
	}
}
