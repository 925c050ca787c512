package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"taproom-services/internal/catalog"
	"taproom-services/internal/store"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one catalog reconciliation",
	Long: `Fetch the Square catalog, rebuild the menu and save it.

When Square's categories no longer match the configured ones the saved menu
is left untouched and the missing names are printed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMenu(cmd, func(ctx context.Context, svc menuAPI) error {
			out, err := svc.Reconcile(ctx)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "source: %s\n", out.Source)
			if out.Record != nil {
				fmt.Fprintf(w, "version: %d\n", out.Record.Version)
			}
			fmt.Fprintf(w, "sections: %d\n", len(out.Menu.Sections))
			if len(out.Missing) > 0 {
				fmt.Fprintf(w, "missing: %s\n", strings.Join(out.Missing, ", "))
			}
			return nil
		})
	},
}

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Print the latest saved menu as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMenu(cmd, func(ctx context.Context, svc menuAPI) error {
			record, err := svc.Latest(ctx)
			if errors.Is(err, store.ErrNotFound) {
				return errors.New("no menu has been saved yet")
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), record.Menu)
		})
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Show or replace the expected menu categories",
}

var categoriesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the expected categories as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMenu(cmd, func(ctx context.Context, svc menuAPI) error {
			expected, err := svc.Categories(ctx)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(expected); err != nil {
				return err
			}
			return enc.Close()
		})
	},
}

var categoriesImportCmd = &cobra.Command{
	Use:   "import FILE.yaml",
	Short: "Replace the expected categories from a YAML file",
	Long: `Replace the expected categories from a YAML file such as:

  parentCategories: [Draft, Cocktails, Canned / Bottled]
  childCategories: [IPA, Lager, Cider]
  parentName: Canned / Bottled`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		expected, err := readCategoriesFile(args[0])
		if err != nil {
			return err
		}
		return withMenu(cmd, func(ctx context.Context, svc menuAPI) error {
			if err := svc.SetCategories(ctx, expected); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %d parent and %d child categories\n",
				len(expected.ParentCategories), len(expected.ChildCategories))
			return nil
		})
	},
}

func readCategoriesFile(path string) (catalog.ExpectedCategories, error) {
	var expected catalog.ExpectedCategories
	data, err := os.ReadFile(path)
	if err != nil {
		return expected, err
	}
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&expected); err != nil {
		if errors.Is(err, io.EOF) {
			return expected, fmt.Errorf("%s is empty", path)
		}
		return expected, fmt.Errorf("parse %s: %w", path, err)
	}
	return expected, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
