package cmd

import (
	"fmt"
	"os"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reoring/attrskema/attr"
	"github.com/reoring/attrskema/store"
)

// table opens the store and the table named after the root record.
func (a *app) table() (*store.DB, *store.Table[map[string]any], error) {
	c, err := a.codec()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(a.cfg.DataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	db, err := store.Open(a.cfg.DataDir, store.Options{Sync: true, Logger: a.log})
	if err != nil {
		return nil, nil, err
	}
	tbl, err := store.NewTable(db, c.Schema().Name, c)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, tbl, nil
}

func newPutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "put [file]",
		Short: "Validate an item and store it",
		Long: `Decode a DynamoDB JSON item against the root record and store its
normalized form in the table named after the record. Prints the new item id.

Example:
  attrskema put -s orders.yaml -d ./data item.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, _, err := a.decodeInput(cmd, args)
			if err != nil {
				return err
			}
			db, tbl, err := a.table()
			if err != nil {
				return err
			}
			defer db.Close()
			id, err := tbl.Put(cmd.Context(), v)
			if err != nil {
				return err
			}
			a.log.Info("item stored", zap.String("table", tbl.Name()), zap.Stringer("id", id))
			fmt.Fprintln(cmd.OutOrStdout(), id.String())
			return nil
		},
	}
}

func newGetCmd(a *app) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Load an item",
		Long: `Load an item from the table named after the root record and print it
decoded as plain JSON, or as stored with --raw.

Example:
  attrskema get -s orders.yaml -d ./data 2Hc3...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ksuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[0], err)
			}
			db, tbl, err := a.table()
			if err != nil {
				return err
			}
			defer db.Close()
			if raw {
				m, err := tbl.GetAttributes(cmd.Context(), id)
				if err != nil {
					return err
				}
				b, err := attr.MarshalJSON(m)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return nil
			}
			v, err := tbl.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeJSON(cmd, v)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the stored DynamoDB JSON instead of the decoded value")
	return cmd
}
