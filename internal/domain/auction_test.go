package domain

import (
	"testing"
	"time"
)

func TestKeyFallsBackToURL(t *testing.T) {
	t.Parallel()

	a := Auction{ID: "840663", URL: "https://sikoauktioner.se/auktion/840663"}
	if a.Key() != "840663" {
		t.Fatalf("expected id key, got %s", a.Key())
	}

	a.ID = ""
	if a.Key() != "https://sikoauktioner.se/auktion/840663" {
		t.Fatalf("expected url fallback, got %s", a.Key())
	}
}

func TestToCacheableStripsVolatileFields(t *testing.T) {
	t.Parallel()

	minutes := 12
	fetched := time.Date(2026, time.March, 4, 11, 30, 0, 0, time.UTC)
	now := fetched.Add(2 * time.Second)

	a := Auction{
		ID:               "100",
		URL:              "https://sikoauktioner.se/auktion/100",
		Title:            "Lego Technic",
		Location:         "Malmö",
		CurrentBid:       "450 kr",
		TimeLeftText:     "0d, 0h, 12m, 5s",
		MinutesRemaining: &minutes,
		MatchedTerm:      "lego",
		Watched:          true,
		FetchedAt:        fetched,
	}

	c := ToCacheable(a, now)

	if c.ID != "100" || c.Title != "Lego Technic" || c.MatchedTerm != "lego" || !c.Watched {
		t.Fatalf("non-volatile fields not carried over: %+v", c)
	}
	if !c.FetchedAt.Equal(fetched) {
		t.Fatalf("unexpected fetched at: %v", c.FetchedAt)
	}
	if !c.CachedAt.Equal(now) {
		t.Fatalf("unexpected cached at: %v", c.CachedAt)
	}
}
