package cmd

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/reoring/attrskema"
	"github.com/reoring/attrskema/attr"
	"github.com/reoring/attrskema/jsonschema"
	"github.com/reoring/attrskema/schemafile"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the schema file",
		Long: `Parse the schema file and compile every record in it.

Example:
  attrskema check -s orders.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.schema()
			if err != nil {
				return err
			}
			reg, err := schemafile.NewRegistry()
			if err != nil {
				return err
			}
			names := f.Records()
			for _, name := range names {
				if _, err := f.Bind(reg, name); err != nil {
					return fmt.Errorf("record %s: %w", name, err)
				}
			}
			out := cmd.OutOrStdout()
			for _, name := range names {
				mark := ""
				if name == f.Root {
					mark = " (root)"
				}
				fmt.Fprintf(out, "%s%s\n", name, mark)
			}
			fmt.Fprintf(out, "ok: %d records\n", len(names))
			return nil
		},
	}
}

func newDecodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode an item into plain JSON",
		Long: `Decode a DynamoDB JSON item against the root record and print the
decoded value as plain JSON. The item is read from stdin when no file is given.

Example:
  attrskema decode -s orders.yaml item.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, _, err := a.decodeInput(cmd, args)
			if err != nil {
				return err
			}
			return writeJSON(cmd, v)
		},
	}
}

func newNormalizeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize [file]",
		Short: "Decode and re-encode an item",
		Long: `Decode a DynamoDB JSON item against the root record and encode it again.
Attributes the record does not declare are dropped and values are written in
canonical form.

Example:
  attrskema normalize -s orders.yaml item.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, c, err := a.decodeInput(cmd, args)
			if err != nil {
				return err
			}
			b, err := attr.MarshalJSON(c.Encode(v))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
}

func newJSONSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "jsonschema",
		Short: "Print the JSON Schema of the decoded root record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.schema()
			if err != nil {
				return err
			}
			name := a.cfg.Root
			if name == "" {
				name = f.Root
			}
			rs, ok := f.Record(name)
			if !ok {
				return fmt.Errorf("unknown record %q", name)
			}
			s, err := jsonschema.FromRecord(rs)
			if err != nil {
				return err
			}
			return writeJSON(cmd, s)
		},
	}
}

func (a *app) decodeInput(cmd *cobra.Command, args []string) (map[string]any, *attrskema.Codec[map[string]any], error) {
	c, err := a.codec()
	if err != nil {
		return nil, nil, err
	}
	data, err := input(cmd, args)
	if err != nil {
		return nil, nil, err
	}
	item, err := attr.UnmarshalJSON(data)
	if err != nil {
		return nil, nil, err
	}
	v, err := c.Decode(item)
	if err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", c.Schema().Name, err)
	}
	return v, c, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}
