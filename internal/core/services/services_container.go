package services

import (
	portsrepo "github.com/SscSPs/bookkeeping_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bookkeeping_ledger/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_ledger/internal/platform/config"
	"github.com/SscSPs/bookkeeping_ledger/internal/platform/metrics"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, m *metrics.LedgerMetrics) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Posting = NewPostingService(
		repos.LedgerRepo,
		repos.CompanyRepo,
		repos.AuditRepo,
		m,
		WithFallbackCurrency(cfg.DefaultCurrency),
	)
	container.Reversal = NewReversalService(repos.LedgerRepo, repos.AuditRepo, m)
	container.Period = NewPeriodService(repos.PeriodRepo, repos.LedgerRepo, repos.AuditRepo, m)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.PostingSvcFacade = (*postingService)(nil)
	_ portssvc.ReversalSvc      = (*reversalService)(nil)
	_ portssvc.PeriodSvcFacade  = (*periodService)(nil)
)
