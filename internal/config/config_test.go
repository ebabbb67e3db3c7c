package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default("Test Biz")
	cfg.Accounting.TaxRate = 0.10
	cfg.Accounting.RoundingAccount = "6690 Redondeos"
	cfg.Reconciliation.BankAccountPrefixes = []string{"5720", "5700"}
	cfg.Storage.Driver = "postgres"
	cfg.Storage.DatabaseURL = "postgres://ledger@localhost/ledger"

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default("My Company")

	assert.Equal(t, "My Company", cfg.Business.Name)
	assert.Equal(t, "EUR", cfg.Business.Currency)
	assert.InDelta(t, 0.21, cfg.Accounting.TaxRate, 0.0001)
	assert.Equal(t, "0.21", cfg.Accounting.TaxRateDecimal().String())
	assert.Equal(t, "0.01", cfg.Accounting.Tolerance().String())
	assert.Equal(t, "Bank Transfer", cfg.Accounting.DefaultPaymentMethod)
	assert.Equal(t, "4300 Clientes", cfg.Accounting.Accounts.Receivable)
	assert.Equal(t, []string{"5720"}, cfg.Reconciliation.BankAccountPrefixes)
	assert.Equal(t, 3, cfg.Reconciliation.SuggestWindowDays)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.NoError(t, cfg.Validate())
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.InDelta(t, 0.21, cfg.Accounting.TaxRate, 0.0001)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("business:\n  name: Acme\naccounting:\n  tax_rate: 0.1\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Acme", cfg.Business.Name)
	assert.InDelta(t, 0.1, cfg.Accounting.TaxRate, 0.0001)
	assert.Equal(t, "Bank Transfer", cfg.Accounting.DefaultPaymentMethod)
	assert.Equal(t, "5720 Banco", cfg.Accounting.Accounts.Bank)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default("Acme")))

	t.Setenv("LEDGER_ACCOUNTING_TAX_RATE", "0.04")
	t.Setenv("LEDGER_LOGGING_FORMAT", "json")
	t.Setenv("LEDGER_RECONCILIATION_BANK_ACCOUNT_PREFIXES", "5720,5700")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.04, cfg.Accounting.TaxRate, 0.0001)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, []string{"5720", "5700"}, cfg.Reconciliation.BankAccountPrefixes)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"tax rate", func(c *Config) { c.Accounting.TaxRate = 1.5 }, "TaxRate"},
		{"negative tolerance", func(c *Config) { c.Accounting.BalanceTolerance = -1 }, "BalanceTolerance"},
		{"driver", func(c *Config) { c.Storage.Driver = "sqlite" }, "Driver"},
		{"postgres without url", func(c *Config) { c.Storage.Driver = "postgres" }, "DatabaseURL"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "Level"},
		{"no bank prefixes", func(c *Config) { c.Reconciliation.BankAccountPrefixes = nil }, "BankAccountPrefixes"},
		{"empty account", func(c *Config) { c.Accounting.Accounts.Sales = "" }, "Sales"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default("Acme")
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: sqlite\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default("Test Biz")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "name: Test Biz")
	assert.Contains(t, contents, "tax_rate: 0.21")
	assert.Contains(t, contents, "receivable: 4300 Clientes")
	assert.Contains(t, contents, "driver: memory")
	assert.NotContains(t, contents, "database_url")
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, LoadEnv(dir), "missing .env is fine")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LEDGER_TEST_ONLY_KEY=from-dotenv\n"), 0o644))
	t.Setenv("LEDGER_TEST_ONLY_KEY", "")
	os.Unsetenv("LEDGER_TEST_ONLY_KEY")

	require.NoError(t, LoadEnv(dir))
	assert.Equal(t, "from-dotenv", os.Getenv("LEDGER_TEST_ONLY_KEY"))
}
