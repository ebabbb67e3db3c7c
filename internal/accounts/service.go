package accounts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cleared-dev/ledger/internal/model"
)

// Service provides in-memory lookup over the chart of accounts.
type Service struct {
	accounts []model.Account
	byCode   map[string]model.Account
}

// NewService creates a Service from a slice of accounts.
func NewService(accounts []model.Account) *Service {
	byCode := make(map[string]model.Account, len(accounts))
	for _, a := range accounts {
		byCode[a.Code] = a
	}
	return &Service{accounts: accounts, byCode: byCode}
}

// Load reads accounts/chart-of-accounts.csv from a data directory.
func Load(dataDir string) (*Service, error) {
	path := filepath.Join(dataDir, "accounts", "chart-of-accounts.csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening chart of accounts: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading chart of accounts: %w", err)
	}
	return NewService(accts), nil
}

// LoadOrDefault is Load falling back to DefaultChart when the file does not exist.
func LoadOrDefault(dataDir string) (*Service, error) {
	svc, err := Load(dataDir)
	if errors.Is(err, fs.ErrNotExist) {
		return NewService(DefaultChart()), nil
	}
	return svc, err
}

// All returns all accounts.
func (s *Service) All() []model.Account {
	return s.accounts
}

// Get returns an account by code or label.
func (s *Service) Get(label string) (model.Account, bool) {
	a, ok := s.byCode[model.AccountCode(label)]
	return a, ok
}

// Exists reports whether an account code or label is in the chart.
func (s *Service) Exists(label string) bool {
	_, ok := s.Get(label)
	return ok
}

// Classify returns the chart's type for label, or derives one from its code
// when the account is not in the chart.
func (s *Service) Classify(label string) model.AccountType {
	if a, ok := s.Get(label); ok {
		return a.Type
	}
	return ClassifyCode(model.AccountCode(label))
}

// ByType returns all accounts of the given type.
func (s *Service) ByType(accountType model.AccountType) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.Type == accountType {
			result = append(result, a)
		}
	}
	return result
}

// Save writes the chart of accounts to accounts/chart-of-accounts.csv.
func (s *Service) Save(dataDir string) error {
	dir := filepath.Join(dataDir, "accounts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating accounts dir: %w", err)
	}

	path := filepath.Join(dir, "chart-of-accounts.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart of accounts file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, s.accounts); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	return nil
}
