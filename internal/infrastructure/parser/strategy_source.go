package parser

import (
	"context"
	"fmt"
	"log/slog"

	"AuctionMonitor/internal/domain"
	"AuctionMonitor/internal/ports"
	"AuctionMonitor/internal/scanner"
)

// StrategySource implements AuctionSource via a registered scanner strategy.
type StrategySource struct {
	registry    *scanner.Registry
	scannerName string
	maxResults  int
	logger      *slog.Logger
}

var _ ports.AuctionSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with the configured strategy.
func NewStrategySource(reg *scanner.Registry, scannerName string, maxResults int, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry:    reg,
		scannerName: scannerName,
		maxResults:  maxResults,
		logger:      log,
	}
}

// FetchTerm resolves the strategy and runs one search.
func (s *StrategySource) FetchTerm(ctx context.Context, term string) ([]domain.Auction, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	strategy, err := s.registry.Resolve(s.scannerName)
	if err != nil {
		return nil, fmt.Errorf("term %q: %w", term, err)
	}

	results, err := strategy.Search(ctx, scanner.Request{Term: term, MaxResults: s.maxResults})
	if err != nil {
		return nil, fmt.Errorf("search term %q: %w", term, err)
	}

	s.debug("term produced auctions", "term", term, "count", len(results))
	return results, nil
}

func (s *StrategySource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
