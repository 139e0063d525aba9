package usecase

import "AuctionMonitor/internal/domain"

// Deduplicate collapses auctions sharing a key, keeping the first
// occurrence. Relative order of the survivors is preserved, so an auction
// matched by several search terms keeps the term it was first seen under.
func Deduplicate(auctions []domain.Auction) []domain.Auction {
	seen := make(map[string]struct{}, len(auctions))
	out := make([]domain.Auction, 0, len(auctions))
	for _, a := range auctions {
		key := a.Key()
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}
