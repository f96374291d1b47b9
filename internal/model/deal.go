package model

import (
	"fmt"
	"strings"
	"time"
)

// ScrapedDeal is a raw listing pulled from a deal feed, before the
// summarization pass. The price lives somewhere in the free-text summary.
type ScrapedDeal struct {
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	URL       string    `json:"url"`
	Published time.Time `json:"published,omitempty"`
}

// Describe renders the raw listing as a prompt fragment for the
// summarization model.
func (d ScrapedDeal) Describe() string {
	var sb strings.Builder
	sb.WriteString("Title: " + d.Title + "\n")
	sb.WriteString("Details: " + d.Summary + "\n")
	sb.WriteString("URL: " + d.URL)
	return sb.String()
}

// Deal is a cleaned candidate produced by the summarization pass: a rewritten
// product description with a clearly identified positive price. The URL is the
// deduplication key and is stable across runs for the same listing.
type Deal struct {
	ProductDescription string  `json:"product_description"`
	Price              float64 `json:"price"`
	URL                string  `json:"url"`
}

// Selection holds the candidates chosen for pricing in one run, at most five,
// in the order the summarization model returned them.
type Selection struct {
	Deals []Deal `json:"deals"`
}

// Opportunity pairs a deal with its estimated fair price and the resulting
// discount (estimate minus listed price). Immutable once created.
type Opportunity struct {
	Deal     Deal    `json:"deal"`
	Estimate float64 `json:"estimate"`
	Discount float64 `json:"discount"`
}

// Summary renders a one-line description used in logs and alerts.
func (o Opportunity) Summary() string {
	snippet := o.Deal.ProductDescription
	if len(snippet) > 40 {
		snippet = snippet[:40]
	}
	return fmt.Sprintf("Price=$%.2f, Estimate=$%.2f, Discount=$%.2f : %s... %s",
		o.Deal.Price, o.Estimate, o.Discount, snippet, o.Deal.URL)
}

// OpportunityRecord is a stored opportunity as persisted by the caller's
// memory store, with bookkeeping fields the core pipeline never sees.
type OpportunityRecord struct {
	ID          string      `json:"id"`
	Opportunity Opportunity `json:"opportunity"`
	Alerted     bool        `json:"alerted"`
	CreatedAt   time.Time   `json:"created_at"`
}

// PricedItem is a previously priced product returned by similarity retrieval.
type PricedItem struct {
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// SeenURLs computes the set of deal URLs already present in memory.
func SeenURLs(memory []Opportunity) map[string]struct{} {
	seen := make(map[string]struct{}, len(memory))
	for _, opp := range memory {
		seen[opp.Deal.URL] = struct{}{}
	}
	return seen
}
