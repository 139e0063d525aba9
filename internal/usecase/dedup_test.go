package usecase

import (
	"testing"

	"AuctionMonitor/internal/domain"
)

func TestDeduplicateFirstSeenWins(t *testing.T) {
	auctions := []domain.Auction{
		{ID: "1", MatchedTerm: "lego"},
		{ID: "2", MatchedTerm: "lego"},
		{ID: "1", MatchedTerm: "antika verktyg"},
		{ID: "3", MatchedTerm: "antika verktyg"},
	}

	got := Deduplicate(auctions)
	if len(got) != 3 {
		t.Fatalf("expected 3 auctions, got %d", len(got))
	}
	if got[0].ID != "1" || got[1].ID != "2" || got[2].ID != "3" {
		t.Errorf("unexpected order: %v, %v, %v", got[0].ID, got[1].ID, got[2].ID)
	}
	if got[0].MatchedTerm != "lego" {
		t.Errorf("expected first occurrence to win, got term %q", got[0].MatchedTerm)
	}
}

func TestDeduplicateFallsBackToURL(t *testing.T) {
	auctions := []domain.Auction{
		{URL: "https://sikoauktioner.se/auktion/a"},
		{URL: "https://sikoauktioner.se/auktion/a"},
		{URL: "https://sikoauktioner.se/auktion/b"},
	}

	got := Deduplicate(auctions)
	if len(got) != 2 {
		t.Fatalf("expected 2 auctions, got %d", len(got))
	}
}

func TestDeduplicateDropsKeylessEntries(t *testing.T) {
	auctions := []domain.Auction{
		{Title: "no identity"},
		{ID: "1"},
	}

	got := Deduplicate(auctions)
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("expected only the keyed auction, got %+v", got)
	}
}

func TestDeduplicateEmptyInput(t *testing.T) {
	if got := Deduplicate(nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
}
