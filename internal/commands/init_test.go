package commands

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/config"
)

func runCommand(t *testing.T, args ...string) error {
	t.Helper()
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	return cmd.Execute()
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, runCommand(t, "init", "--config", path))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gnucash-uk-vat", cfg.Application.ProductName)
	assert.NotEmpty(t, cfg.Identity.Device.OSFamily)
	assert.NotEmpty(t, cfg.Identity.Device.ID)

	paths, err := cfg.Accounts.VATDueSales.Paths()
	require.NoError(t, err)
	assert.Equal(t, []string{"VAT:Output:Sales"}, paths)
}

func TestInitCommandExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, runCommand(t, "init", "--config", path))

	err := runCommand(t, "init", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	assert.NoError(t, runCommand(t, "init", "--config", path, "--force"))
}

func TestCommandRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := config.Default()
	cfg.Identity.VRN = "123456789"
	cfg.Application.Profile = ""
	require.NoError(t, config.Save(path, cfg))

	err := runCommand(t, "open-obligations", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validating config")
}
