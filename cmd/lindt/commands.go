package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/geoknoesis/lindt-go/internal/config"
	"github.com/geoknoesis/lindt-go/lindt"
)

func newValidCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "valid LEXICAL DATATYPE",
		Short: "Check whether a lexical form is legal for a datatype",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				if !s.engine.IsValid(ctx, args[0], args[1]) {
					fmt.Fprintln(cmd.OutOrStdout(), "invalid")
					return errFindings
				}
				fmt.Fprintln(cmd.OutOrStdout(), "valid")
				return nil
			})
		},
	}
}

func newParseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parse LEXICAL DATATYPE",
		Short: "Parse a lexical form into a typed value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				v, err := s.engine.Parse(ctx, args[0], args[1])
				if err != nil {
					if errors.Is(err, lindt.ErrDatatypeFormat) {
						fmt.Fprintln(cmd.OutOrStdout(), err)
						return errFindings
					}
					return fmt.Errorf("%s: %w", lindt.Code(err), err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", v, v.Legality())
				return nil
			})
		},
	}
}

func newCanonicalCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "canonical LEXICAL DATATYPE",
		Short: "Print the canonical form of a literal",
		Long: `Print the canonical form of a literal. The literal is printed unchanged when
its datatype is unavailable or defines no canonical form.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				v, ok := s.engine.Canonicalize(ctx, args[0], args[1])
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), args[0])
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), v.LexicalForm())
				return nil
			})
		},
	}
}

func newEqualCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "equal LEXICAL1 DATATYPE1 LEXICAL2 DATATYPE2",
		Short: "Check whether two literals denote the same value",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				equal := s.engine.Equal(ctx, args[0], args[1], args[2], args[3])
				fmt.Fprintln(cmd.OutOrStdout(), equal)
				if !equal {
					return errFindings
				}
				return nil
			})
		},
	}
}

func newCompareCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compare LEXICAL1 DATATYPE1 LEXICAL2 DATATYPE2",
		Short: "Order two literals",
		Long:  `Order two literals, printing -1, 0 or 1, or "incomparable".`,
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				order, ok := s.engine.Compare(ctx, args[0], args[1], args[2], args[3])
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "incomparable")
					return errFindings
				}
				fmt.Fprintln(cmd.OutOrStdout(), order)
				return nil
			})
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the lindt configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [PATH]",
		Short: "Write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultConfigPath
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.WriteDefaultConfig(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "log.level=%s\n", a.cfg.Log.Level)
			fmt.Fprintf(cmd.OutOrStdout(), "log.format=%s\n", a.cfg.Log.Format)
			fmt.Fprintf(cmd.OutOrStdout(), "cache.capacity=%d\n", a.cfg.Cache.Capacity)
			fmt.Fprintf(cmd.OutOrStdout(), "loader.timeout=%s\n", a.cfg.Loader.Timeout)
			fmt.Fprintf(cmd.OutOrStdout(), "loader.max_bytes=%d\n", a.cfg.Loader.MaxBytes)
			fmt.Fprintf(cmd.OutOrStdout(), "script.factory_name=%s\n", a.cfg.Script.FactoryName)
			fmt.Fprintf(cmd.OutOrStdout(), "script.shared_runtime=%t\n", a.cfg.Script.SharedRuntime)
			fmt.Fprintf(cmd.OutOrStdout(), "script.call_timeout=%s\n", a.cfg.Script.CallTimeout)
			fmt.Fprintf(cmd.OutOrStdout(), "tracing.enabled=%t\n", a.cfg.Tracing.Enabled)
			fmt.Fprintf(cmd.OutOrStdout(), "tracing.exporter=%s\n", a.cfg.Tracing.Exporter)
			fmt.Fprintf(cmd.OutOrStdout(), "metrics.dump=%t\n", a.cfg.Metrics.Dump)
			return nil
		},
	}

	configCmd.AddCommand(initCmd, showCmd)
	return configCmd
}
