package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/ajharbinger/refibot/internal/offers"
	"github.com/ajharbinger/refibot/internal/quotes"
	"github.com/ajharbinger/refibot/pkg/config"
)

// Prints the normalized offer table for a loan profile.
// Usage: test_quotes [loan_type] [loan_amount] [credit_score]
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}
	cfg := config.New()

	req := quotes.Request{LoanType: "federal", LoanAmount: 30000, CreditScore: 700}
	if len(os.Args) > 1 {
		req.LoanType = os.Args[1]
	}
	if len(os.Args) > 2 {
		amount, err := strconv.ParseFloat(os.Args[2], 64)
		if err != nil {
			log.Fatalf("Invalid loan amount %q: %v", os.Args[2], err)
		}
		req.LoanAmount = amount
	}
	if len(os.Args) > 3 {
		score, err := strconv.Atoi(os.Args[3])
		if err != nil {
			log.Fatalf("Invalid credit score %q: %v", os.Args[3], err)
		}
		req.CreditScore = score
	}

	fmt.Printf("Fetching offers for %s loan of %.0f, credit score %d\n", req.LoanType, req.LoanAmount, req.CreditScore)
	fmt.Println("=====================================")

	raw := quotes.Fallback()
	source := quotes.SourceFallback
	client, err := quotes.NewClient(cfg.QuotesEndpoint, cfg.UpstreamTimeout)
	if err != nil {
		log.Fatalf("Failed to create quote client: %v", err)
	}
	if client.Configured() && !cfg.QuotesUseFallback {
		live, err := client.Fetch(context.Background(), req)
		if err != nil {
			log.Fatalf("Quote endpoint failed: %v", err)
		}
		raw, source = live, quotes.SourceLive
	}

	failures := 0
	normalized := offers.Normalize(raw, func(o offers.LenderOffer, err error) {
		failures++
		log.Printf("Unparsed requirements for %s: %q", o.Lender, o.Requirements)
	})

	ranker := offers.NewRanker(cfg.GetEligibleLenders())
	fmt.Printf("\n1. All offers by APR (%s):\n", source)
	printJSON(ranker.Apply(normalized, false, &offers.SortConfig{Key: offers.SortByAPR, Direction: offers.Ascending}))

	fmt.Println("\n2. Eligible lenders only:")
	printJSON(ranker.Apply(normalized, true, &offers.SortConfig{Key: offers.SortByAPR, Direction: offers.Ascending}))

	fmt.Println("\n=====================================")
	fmt.Printf("%d offers, %d requirement parse failures\n", len(normalized), failures)
}

func printJSON(list []offers.NormalizedOffer) {
	if len(list) == 0 {
		fmt.Println("  No offers")
		return
	}

	jsonData, err := json.MarshalIndent(list, "  ", "  ")
	if err != nil {
		fmt.Printf("  Error formatting data: %v\n", err)
		return
	}
	fmt.Printf("  %s\n", string(jsonData))
}
