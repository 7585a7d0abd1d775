package services

import (
	"context"
	"fmt"

	"planner/internal/core"
	"planner/internal/log"
	"planner/internal/storage"
)

// CashflowWriter stores hand-entered items.
type CashflowWriter interface {
	CreateCashflow(ctx context.Context, c core.Cashflow) (int64, error)
	DeleteCashflow(ctx context.Context, id int64) error
	ListCashflows(ctx context.Context, f storage.CashflowFilter) ([]core.Cashflow, error)
}

// CashflowService manages items entered by hand, typically projected
// income and expenditure.
type CashflowService struct {
	store  CashflowWriter
	cache  Invalidator
	logger *log.Logger
}

func NewCashflowService(store CashflowWriter, cache Invalidator, logger *log.Logger) *CashflowService {
	if logger == nil {
		logger = log.Discard()
	}
	return &CashflowService{store: store, cache: cache, logger: logger.WithComponent(log.ComponentStorage)}
}

// Create stores c and returns it with its new ID.
func (s *CashflowService) Create(ctx context.Context, c core.Cashflow) (core.Cashflow, error) {
	if err := c.Validate(); err != nil {
		return core.Cashflow{}, fmt.Errorf("%w: %w", storage.ErrInvalid, err)
	}
	id, err := s.store.CreateCashflow(ctx, c)
	if err != nil {
		return core.Cashflow{}, err
	}
	c.ID = id
	s.invalidate()
	s.logger.InfoContext(ctx, "Cashflow created", log.FieldCashflow, id, log.FieldKind, string(c.Kind), "type", string(c.Type))
	return c, nil
}

func (s *CashflowService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteCashflow(ctx, id); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

func (s *CashflowService) List(ctx context.Context, f storage.CashflowFilter) ([]core.Cashflow, error) {
	return s.store.ListCashflows(ctx, f)
}

func (s *CashflowService) invalidate() {
	if s.cache != nil {
		s.cache.Invalidate()
	}
}
