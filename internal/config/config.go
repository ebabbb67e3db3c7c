// Package config loads and saves ledger.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/ledger/internal/accounts"
)

// FileName is the config file created by "ledger init".
const FileName = "ledger.yaml"

// EnvPrefix prefixes environment overrides, e.g. LEDGER_ACCOUNTING_TAX_RATE.
const EnvPrefix = "LEDGER"

// Config represents the top-level ledger.yaml configuration.
type Config struct {
	DataDir        string               `yaml:"data_dir" mapstructure:"data_dir"`
	Business       BusinessConfig       `yaml:"business" mapstructure:"business"`
	Accounting     AccountingConfig     `yaml:"accounting" mapstructure:"accounting"`
	Reconciliation ReconciliationConfig `yaml:"reconciliation" mapstructure:"reconciliation"`
	Storage        StorageConfig        `yaml:"storage" mapstructure:"storage"`
	Logging        LoggingConfig        `yaml:"logging" mapstructure:"logging"`
}

// BusinessConfig identifies the business keeping the books.
type BusinessConfig struct {
	Name     string `yaml:"name" mapstructure:"name"`
	Currency string `yaml:"currency" mapstructure:"currency" validate:"iso4217"`
}

// AccountingConfig controls posting behavior.
type AccountingConfig struct {
	TaxRate              float64        `yaml:"tax_rate" mapstructure:"tax_rate" validate:"gte=0,lt=1"`
	DefaultPaymentMethod string         `yaml:"default_payment_method" mapstructure:"default_payment_method" validate:"required"`
	BalanceTolerance     float64        `yaml:"balance_tolerance" mapstructure:"balance_tolerance" validate:"gte=0,lte=1"`
	RoundingAccount      string         `yaml:"rounding_account,omitempty" mapstructure:"rounding_account"`
	Accounts             AccountsConfig `yaml:"accounts" mapstructure:"accounts"`
}

// AccountsConfig names the accounts invoices and settlements post to.
type AccountsConfig struct {
	Receivable string `yaml:"receivable" mapstructure:"receivable" validate:"required"`
	Payable    string `yaml:"payable" mapstructure:"payable" validate:"required"`
	Sales      string `yaml:"sales" mapstructure:"sales" validate:"required"`
	Purchases  string `yaml:"purchases" mapstructure:"purchases" validate:"required"`
	OutputTax  string `yaml:"output_tax" mapstructure:"output_tax" validate:"required"`
	InputTax   string `yaml:"input_tax" mapstructure:"input_tax" validate:"required"`
	Bank       string `yaml:"bank" mapstructure:"bank" validate:"required"`
}

// ReconciliationConfig controls bank matching.
type ReconciliationConfig struct {
	BankAccountPrefixes []string `yaml:"bank_account_prefixes" mapstructure:"bank_account_prefixes" validate:"min=1,dive,required"`
	SuggestWindowDays   int      `yaml:"suggest_window_days" mapstructure:"suggest_window_days" validate:"gte=0"`
}

// StorageConfig selects the store backend.
type StorageConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver" validate:"oneof=file memory postgres"`
	DatabaseURL string `yaml:"database_url,omitempty" mapstructure:"database_url" validate:"required_if=Driver postgres"`
	AutoMigrate bool   `yaml:"auto_migrate" mapstructure:"auto_migrate"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=text json"`
}

// Default returns a Config with sensible defaults for a new project.
func Default(businessName string) *Config {
	return &Config{
		DataDir: ".",
		Business: BusinessConfig{
			Name:     businessName,
			Currency: "EUR",
		},
		Accounting: AccountingConfig{
			TaxRate:              0.21,
			DefaultPaymentMethod: "Bank Transfer",
			BalanceTolerance:     0.01,
			Accounts: AccountsConfig{
				Receivable: accounts.Receivable,
				Payable:    accounts.Payable,
				Sales:      accounts.Sales,
				Purchases:  accounts.Purchases,
				OutputTax:  accounts.OutputTax,
				InputTax:   accounts.InputTax,
				Bank:       accounts.Bank,
			},
		},
		Reconciliation: ReconciliationConfig{
			BankAccountPrefixes: []string{accounts.BankPrefix},
			SuggestWindowDays:   3,
		},
		Storage: StorageConfig{
			Driver:      "file",
			AutoMigrate: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a ledger.yaml file, applies LEDGER_* environment overrides and
// validates the result. A missing file is an error matching fs.ErrNotExist;
// an empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default(""))
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults
// with environment overrides applied.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Load("")
	}
	return cfg, err
}

// LoadEnv loads <dir>/.env into the process environment if it exists.
// Variables already set are not overwritten.
func LoadEnv(dir string) error {
	err := godotenv.Load(filepath.Join(dir, ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// TaxRateDecimal returns the configured rate as a decimal.
func (a AccountingConfig) TaxRateDecimal() decimal.Decimal {
	return decimal.NewFromFloat(a.TaxRate)
}

// Tolerance returns the configured balance tolerance as a decimal.
func (a AccountingConfig) Tolerance() decimal.Decimal {
	return decimal.NewFromFloat(a.BalanceTolerance)
}

// setDefaults registers every key so env overrides apply during Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("business.name", d.Business.Name)
	v.SetDefault("business.currency", d.Business.Currency)
	v.SetDefault("accounting.tax_rate", d.Accounting.TaxRate)
	v.SetDefault("accounting.default_payment_method", d.Accounting.DefaultPaymentMethod)
	v.SetDefault("accounting.balance_tolerance", d.Accounting.BalanceTolerance)
	v.SetDefault("accounting.rounding_account", d.Accounting.RoundingAccount)
	v.SetDefault("accounting.accounts.receivable", d.Accounting.Accounts.Receivable)
	v.SetDefault("accounting.accounts.payable", d.Accounting.Accounts.Payable)
	v.SetDefault("accounting.accounts.sales", d.Accounting.Accounts.Sales)
	v.SetDefault("accounting.accounts.purchases", d.Accounting.Accounts.Purchases)
	v.SetDefault("accounting.accounts.output_tax", d.Accounting.Accounts.OutputTax)
	v.SetDefault("accounting.accounts.input_tax", d.Accounting.Accounts.InputTax)
	v.SetDefault("accounting.accounts.bank", d.Accounting.Accounts.Bank)
	v.SetDefault("reconciliation.bank_account_prefixes", d.Reconciliation.BankAccountPrefixes)
	v.SetDefault("reconciliation.suggest_window_days", d.Reconciliation.SuggestWindowDays)
	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.database_url", d.Storage.DatabaseURL)
	v.SetDefault("storage.auto_migrate", d.Storage.AutoMigrate)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}
