// Command axldebug is the diagnostic companion to gocucm: inspect what an
// AXL operation expects, dry-run argument verification against a schema, and
// check connectivity and credentials against a live cluster.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	gocucm "github.com/rlad78/gocucm"
	"github.com/rlad78/gocucm/schema"
	"github.com/rlad78/gocucm/uds"
)

var (
	flagConfig  string
	flagSchema  string
	flagVersion string
)

func main() {
	root := &cobra.Command{
		Use:           "axldebug",
		Short:         "inspect AXL schemas and diagnose CUCM connectivity",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to YAML session config (env CUCM_* overrides)")
	root.PersistentFlags().StringVar(&flagSchema, "schema", "", "path to the AXL XSD schema file")
	root.PersistentFlags().StringVar(&flagVersion, "api-version", "14.0", "AXL API version the schema describes")

	root.AddCommand(treeCmd(), opsCmd(), verifyCmd(), checkCmd(), versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadIndex() (*schema.Index, error) {
	if flagSchema == "" {
		return nil, fmt.Errorf("--schema is required for this command")
	}
	data, err := os.ReadFile(flagSchema)
	if err != nil {
		return nil, err
	}
	return schema.Load(flagVersion, data)
}

func treeCmd() *cobra.Command {
	var showTypes, showRequired, response bool
	cmd := &cobra.Command{
		Use:   "tree <operation>",
		Short: "print the field tree an operation expects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := loadIndex()
			if err != nil {
				return err
			}
			op, err := idx.Lookup(args[0])
			if err != nil {
				return err
			}
			opts := schema.PrintOptions{ShowTypes: showTypes, ShowRequired: showRequired}
			if response {
				schema.PrintResponseTree(cmd.OutOrStdout(), op, opts)
				return nil
			}
			schema.PrintTree(cmd.OutOrStdout(), op, opts)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showTypes, "types", false, "annotate declared types")
	cmd.Flags().BoolVar(&showRequired, "required", false, "annotate required fields")
	cmd.Flags().BoolVar(&response, "response", false, "show the response shape instead")
	return cmd
}

func opsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "list every operation the schema declares",
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := loadIndex()
			if err != nil {
				return err
			}
			for _, name := range idx.Operations() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func verifyCmd() *cobra.Command {
	var argsJSON string
	cmd := &cobra.Command{
		Use:   "verify <operation>",
		Short: "dry-run argument verification without touching the network",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := loadIndex()
			if err != nil {
				return err
			}
			op, err := idx.Lookup(args[0])
			if err != nil {
				return err
			}
			var supplied map[string]any
			if err := json.Unmarshal([]byte(argsJSON), &supplied); err != nil {
				return fmt.Errorf("parse --args: %w", err)
			}
			payload, err := gocucm.Verify(op, supplied)
			if err != nil {
				if iss, ok := gocucm.AsIssues(err); ok {
					for _, it := range iss {
						fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s  %s\n", it.Code, it.Path, it.Message)
					}
					return fmt.Errorf("%d finding(s)", len(iss))
				}
				return err
			}
			out, err := json.MarshalIndent(payload.Wire(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&argsJSON, "args", "{}", "call arguments as JSON")
	return cmd
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "diagnose server reachability, AXL access, and version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := gocucm.LoadConfig(flagConfig)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			probe := uds.New(cfg)
			report(cmd, "server", probe.CheckServer(ctx))
			report(cmd, "axl auth", probe.CheckAXLAuth(ctx))
			v, err := probe.Version(ctx)
			if err != nil {
				report(cmd, "version", err)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok    version: CUCM %s\n", v)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the server's CUCM version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := gocucm.LoadConfig(flagConfig)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()
			v, err := uds.New(cfg).Version(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

func report(cmd *cobra.Command, what string, err error) {
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "FAIL  %s: %v\n", what, err)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ok    %s\n", what)
}
