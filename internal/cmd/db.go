package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/masahif/seoplanner/internal/cloudsync"
	"github.com/masahif/seoplanner/internal/planner"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance",
	}
	cmd.AddCommand(newDBInitCmd(), newDBBackupCmd(), newDBResetCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database and its schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			if err := s.store.Ping(cmd.Context()); err != nil {
				return err
			}
			v, err := s.store.GetMeta("schema_version")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database ready at %s (schema %s)\n", s.store.Path(), v)
			return nil
		},
	}
}

func newDBBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Copy the database to the backup directory and, if enabled, to cloud storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			dir, _ := cmd.Flags().GetString("dir")
			if dir == "" {
				if dir, err = s.cfg.BackupDir(); err != nil {
					return err
				}
			}
			path, err := s.store.Backup(cmd.Context(), dir, time.Now())
			if err != nil {
				return err
			}
			slog.Info("Database backed up", "path", path)
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", path)

			if skip, _ := cmd.Flags().GetBool("local-only"); skip {
				return nil
			}
			return syncBackup(cmd, s, path)
		},
	}
	cmd.Flags().String("dir", "", "Backup directory (default from config)")
	cmd.Flags().Bool("local-only", false, "Skip the cloud upload")
	return cmd
}

func syncBackup(cmd *cobra.Command, s *session, path string) error {
	cs := s.cfg.CloudSync
	uploader, err := cloudsync.New(cmd.Context(), cloudsync.Config{
		Enabled:         cs.Enabled,
		Provider:        cs.Provider,
		Bucket:          cs.Bucket,
		Prefix:          cs.Prefix,
		CredentialsFile: cs.CredentialsFile,
	})
	if err != nil {
		return fmt.Errorf("failed to set up cloud sync: %w", err)
	}
	defer func() { _ = uploader.Close() }()

	uri, err := uploader.Upload(cmd.Context(), path)
	if err != nil {
		return err
	}
	if uri == "" {
		return nil
	}
	if err := s.store.SetMeta("last_sync_uri", uri); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Uploaded to %s\n", uri)
	return nil
}

func newDBResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all data and recreate the schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return fmt.Errorf("%w: reset deletes all data, pass --yes to confirm", planner.ErrValidation)
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			if err := s.store.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database %s reset\n", s.store.Path())
			return nil
		},
	}
	cmd.Flags().Bool("yes", false, "Confirm the reset")
	return cmd
}
