package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/attrskema"
)

const orderSchema = `
root: Order
records:
  Order:
    id: string
    placed: time
    note: {optional: string}
    qty: int
`

const orderItem = `{"id":{"S":"o-1"},"placed":{"S":"2025-05-01T10:00:00+02:00"},"qty":{"N":"3"},"junk":{"S":"x"}}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	if !strings.Contains(strings.Join(args, " "), "--log-level") {
		args = append(args, "--log-level", "error")
	}
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCheck(t *testing.T) {
	t.Run("valid schema", func(t *testing.T) {
		schema := writeFile(t, t.TempDir(), "schema.yaml", orderSchema)
		out, err := run(t, "", "check", "-s", schema)
		require.NoError(t, err)
		assert.Contains(t, out, "Order (root)")
		assert.Contains(t, out, "ok: 1 records")
	})

	t.Run("unknown type", func(t *testing.T) {
		bad := writeFile(t, t.TempDir(), "bad.yaml", "records:\n  A:\n    x: nosuchtype\n")
		_, err := run(t, "", "check", "-s", bad)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nosuchtype")
	})

	t.Run("missing schema file", func(t *testing.T) {
		_, err := run(t, "", "check", "-s", filepath.Join(t.TempDir(), "none.yaml"))
		assert.Error(t, err)
	})
}

func TestDecode(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "schema.yaml", orderSchema)
	item := writeFile(t, dir, "item.json", orderItem)

	out, err := run(t, "", "decode", "-s", schema, item)
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "o-1"`)
	assert.Contains(t, out, `"qty": 3`)
	assert.NotContains(t, out, "junk")
	assert.NotContains(t, out, "note")
}

func TestDecode_Errors(t *testing.T) {
	schema := writeFile(t, t.TempDir(), "schema.yaml", orderSchema)

	t.Run("missing field", func(t *testing.T) {
		_, err := run(t, `{"id":{"S":"o-1"}}`, "decode", "-s", schema)
		assert.ErrorIs(t, err, attrskema.ErrMissingField)
	})

	t.Run("extraction failure", func(t *testing.T) {
		_, err := run(t, `{"id":{"S":"o-1"},"placed":{"S":"2025-05-01T08:00:00Z"},"qty":{"S":"three"}}`, "decode", "-s", schema)
		assert.ErrorIs(t, err, attrskema.ErrExtractionFailure)
	})

	t.Run("invalid item json", func(t *testing.T) {
		_, err := run(t, `{"id":`, "decode", "-s", schema)
		assert.Error(t, err)
	})
}

func TestNormalize(t *testing.T) {
	schema := writeFile(t, t.TempDir(), "schema.yaml", orderSchema)
	out, err := run(t, orderItem, "normalize", "-s", schema, "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"placed":{"S":"2025-05-01T08:00:00Z"}`)
	assert.NotContains(t, out, "junk")
}

func TestJSONSchema(t *testing.T) {
	schema := writeFile(t, t.TempDir(), "schema.yaml", orderSchema)

	out, err := run(t, "", "jsonschema", "-s", schema)
	require.NoError(t, err)
	assert.Contains(t, out, `"$ref": "#/$defs/Order"`)
	assert.Contains(t, out, `"format": "date-time"`)

	_, err = run(t, "", "jsonschema", "-s", schema, "-r", "Nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown record")
}

func TestPutGet(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "schema.yaml", orderSchema)
	data := filepath.Join(dir, "data")

	out, err := run(t, orderItem, "put", "-s", schema, "-d", data)
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.Len(t, id, 27)

	out, err = run(t, "", "get", "-s", schema, "-d", data, id)
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "o-1"`)

	out, err = run(t, "", "get", "--raw", "-s", schema, "-d", data, id)
	require.NoError(t, err)
	assert.Contains(t, out, `"qty":{"N":"3"}`)
	assert.NotContains(t, out, "junk")

	_, err = run(t, "", "get", "-s", schema, "-d", data, "not-an-id")
	assert.Error(t, err)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "orders.yaml", strings.Replace(orderSchema, "root: Order\n", "", 1))
	cfg := writeFile(t, dir, "attrskema.yaml", "schema: orders.yaml\nroot: Order\nlogging:\n  level: error\n")

	out, err := run(t, orderItem, "decode", "-c", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "o-1"`)

	_, err = run(t, "", "check", "-c", cfg, "--parallel", "2", "--log-level", "loud")
	assert.Error(t, err)
}
