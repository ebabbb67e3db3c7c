package subledger_test

import (
	"context"
	"errors"

	"github.com/stretchr/testify/mock"

	"github.com/cleared-dev/ledger/internal/apperrors"
	"github.com/cleared-dev/ledger/internal/ledger"
	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/subledger"
)

type MockPoster struct {
	mock.Mock
}

var _ subledger.Poster = (*MockPoster)(nil)

func (m *MockPoster) PostTo(ctx context.Context, w ledger.Writer, drafts []model.Draft) ([]model.JournalEntry, error) {
	args := m.Called(ctx, w, drafts)
	var lines []model.JournalEntry
	if v := args.Get(0); v != nil {
		lines = v.([]model.JournalEntry)
	}
	return lines, args.Error(1)
}

func (s *EngineTestSuite) TestIssueInvoice_PostFailureLeavesEntityUnchanged() {
	ent := s.client("Acme")

	poster := new(MockPoster)
	poster.On("PostTo", mock.Anything, mock.Anything, mock.MatchedBy(func(d []model.Draft) bool {
		return len(d) == 3
	})).Return(nil, errors.New("disk full")).Once()

	eng := subledger.NewEngine(s.store, poster, subledger.WithClock(clock))
	_, _, err := eng.IssueInvoice(s.ctx, subledger.IssueInvoiceParams{EntityID: ent.ID, Gross: dec("100.00")})
	s.Require().Error(err)
	s.Contains(err.Error(), "disk full")
	poster.AssertExpectations(s.T())

	got, err := s.engine.Entity(s.ctx, ent.ID)
	s.Require().NoError(err)
	s.True(got.Balance.IsZero())
	s.Empty(got.OutstandingInvoices)
	s.Empty(s.lines())
}

func (s *EngineTestSuite) TestSettleInvoice_PostFailureLeavesItemOpen() {
	ent := s.client("Acme")
	item, _, err := s.engine.IssueInvoice(s.ctx, subledger.IssueInvoiceParams{EntityID: ent.ID, Gross: dec("100.00")})
	s.Require().NoError(err)

	poster := new(MockPoster)
	poster.On("PostTo", mock.Anything, mock.Anything, mock.Anything).Return(nil, apperrors.ErrConflict).Once()

	eng := subledger.NewEngine(s.store, poster, subledger.WithClock(clock))
	_, _, err = eng.SettleInvoice(s.ctx, subledger.SettleInvoiceParams{EntityID: ent.ID, OpenItemID: item.ID})
	s.ErrorIs(err, apperrors.ErrConflict)
	poster.AssertExpectations(s.T())

	got, err := s.engine.Entity(s.ctx, ent.ID)
	s.Require().NoError(err)
	s.Equal("100.00", got.Balance.StringFixed(2))
	s.Len(got.OutstandingInvoices, 1)
	s.Empty(got.PaymentHistory)
	s.Len(s.lines(), 3)
}

func (s *EngineTestSuite) TestIssueInvoice_InvalidAccountRejected() {
	ent := s.client("Acme")
	accts := subledger.DefaultAccounts()
	accts.Sales = ""

	eng := subledger.NewEngine(s.store, s.journal, subledger.WithClock(clock), subledger.WithAccounts(accts))
	_, _, err := eng.IssueInvoice(s.ctx, subledger.IssueInvoiceParams{EntityID: ent.ID, Gross: dec("100.00")})
	s.ErrorIs(err, apperrors.ErrInvalidLine)

	got, err := s.engine.Entity(s.ctx, ent.ID)
	s.Require().NoError(err)
	s.Empty(got.OutstandingInvoices)
	s.Empty(s.lines())
}
