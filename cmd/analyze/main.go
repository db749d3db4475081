package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"hcre_deal_engine/pkg/core/assumption"
	"hcre_deal_engine/pkg/core/intake"
	"hcre_deal_engine/pkg/core/pipeline"
	"hcre_deal_engine/pkg/core/store"
)

func main() {
	bookPath := flag.String("book", "config/underwriting.yaml", "underwriting defaults YAML")
	save := flag.Bool("save", false, "persist the analysis (requires DATABASE_URL)")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: analyze [-book file] [-save] [-v] <deal-file>")
		os.Exit(2)
	}

	godotenv.Load()

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	book, err := assumption.Load(*bookPath)
	if err != nil {
		logger.Warn().Err(err).Msg("underwriting book not loaded, using defaults")
		book = assumption.Default()
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("Error: cannot read deal file: %v", err)
	}
	deal, err := intake.ParseDeal(data)
	if err != nil {
		log.Fatalf("Error: cannot parse deal file: %v", err)
	}

	var repo pipeline.Repository
	if *save {
		if err := store.InitDB(context.Background(), logger); err != nil {
			log.Fatalf("Error: -save requires a database: %v", err)
		}
		defer store.Close()
		repo = store.NewDealRepo()
	}

	orch := pipeline.NewOrchestrator(book, repo, logger)
	result, err := orch.Run(context.Background(), deal)
	if err != nil {
		log.Fatalf("Error: analysis failed: %v", err)
	}

	printReport(result)
}

func printReport(r *pipeline.DealAnalysis) {
	fmt.Printf("==============================================\n")
	fmt.Printf(" Deal Analysis: %s\n", r.DealName)
	fmt.Printf("==============================================\n\n")

	fmt.Println("--- Sale-Leaseback Underwriting ---")
	for _, f := range r.Facilities {
		fmt.Printf("%-24s price %12s  rent %11s  coverage %.2fx (floor %.2fx) %s\n",
			f.FacilityName, dollars(f.PurchasePrice), dollars(f.AnnualRent),
			f.CoverageRatio, f.MinimumCoverage, passFail(f.Passes))
	}

	if p := r.Portfolio; p != nil {
		fmt.Println("\n--- Portfolio ---")
		fmt.Printf("Total price %s, total rent %s, blended coverage %.2fx %s\n",
			dollars(p.TotalPurchasePrice), dollars(p.TotalAnnualRent),
			p.BlendedCoverage, passFail(p.Passes))
		fmt.Printf("Diversification score %.0f/100, largest facility %s (%.0f%%)\n",
			p.DiversificationScore, p.LargestFacilityName, p.LargestFacilityShare*100)
		fmt.Printf("Recommendation: %s\n", p.Recommendation)
		fmt.Printf("  %s\n", p.Rationale)
	}

	if c := r.Comparison; c != nil {
		fmt.Println("\n--- Structure Comparison ---")
		for _, a := range c.Analyses {
			fmt.Printf("%-18s equity %12s  IRR %6.2f%%  multiple %.2fx  risk %-6s %s\n",
				a.Structure, dollars(a.CapitalRequired), a.IRR*100,
				a.EquityMultiple, a.Risk, passFail(a.CoveragePass))
		}
		fmt.Printf("Recommended: %s\n", c.Recommended)
		fmt.Printf("  %s\n", c.Rationale)
	}

	if e := r.Exit; e != nil {
		fmt.Println("\n--- Exit Scenarios ---")
		for _, s := range e.Scenarios {
			fmt.Printf("%-10s IRR %6.2f%%  net proceeds %12s  risk %s\n",
				s.Kind, s.IRR*100, dollars(s.NetProceeds), s.Risk)
		}
		fmt.Printf("Recommended: %s\n", e.Recommended)
	}

	if p := r.ProForma; p != nil {
		fmt.Println("\n--- Pro Forma ---")
		for _, y := range p.Years {
			fmt.Printf("Year %d: occupancy %5.1f%%  revenue %12s  EBITDAR %11s  coverage %.2fx\n",
				y.Year, y.Occupancy*100, dollars(y.Revenue), dollars(y.EBITDAR), y.RentCoverage)
		}
		if p.YearToStabilization > 0 {
			fmt.Printf("Stabilizes in year %d; NOI CAGR %.1f%%\n", p.YearToStabilization, p.NOICAGR*100)
		}
	}

	if b := r.Buyout; b != nil {
		fmt.Println("\n--- Lease Buyout ---")
		fmt.Printf("Buyout %s amortized over %d years adds %s/yr; rent %s -> %s\n",
			dollars(b.BuyoutAmount), b.AmortizationYears, dollars(b.AnnualAmortized),
			dollars(b.BaseRent), dollars(b.NewTotalRent))
		fmt.Printf("Year-1 coverage %.2fx\n", b.Year1Coverage)
	}

	if w := r.Waterfall; w != nil {
		fmt.Println("\n--- Equity Waterfall ---")
		for _, p := range w.Partners {
			fmt.Printf("%-18s (%s) distributed %12s  IRR %6.2f%%  multiple %.2fx\n",
				p.Name, p.Type, dollars(p.TotalDistributions), p.IRR*100, p.EquityMultiple)
		}
		fmt.Printf("Total distributed %s, undistributed %s\n",
			dollars(w.TotalDistributed), dollars(w.Undistributed))
	}
}

func dollars(v float64) string {
	return fmt.Sprintf("$%.0f", v)
}

func passFail(pass bool) string {
	if pass {
		return "PASS"
	}
	return "FAIL"
}
