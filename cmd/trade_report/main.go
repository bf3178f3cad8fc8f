package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"tradeLedgerBot/internal/adapters/logger"
	"tradeLedgerBot/internal/adapters/sqlite"
	"tradeLedgerBot/internal/domain"
)

func main() {
	dbPath := flag.String("db", "./data/trade_ledger.db", "path to the trade ledger database")
	symbol := flag.String("symbol", "BTCUSDT", "symbol to report on")
	limit := flag.Int("limit", 0, "max number of trades to include, 0 for all")
	flag.Parse()

	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: *dbPath,
		Logger: logger.NewStdLogger(logger.LevelWarn),
	})
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	records, err := repo.FindClosedBySymbol(ctx, *symbol, *limit)
	if err != nil {
		log.Fatalf("Error reading closed trades: %v", err)
	}
	if len(records) == 0 {
		log.Printf("No closed trades found for %s.", *symbol)
		return
	}

	stats := calculateStats(records)

	fmt.Printf("Closed trade report for %s (%d trades)\n\n", *symbol, stats.Total)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight|tabwriter.Debug)
	fmt.Fprintln(w, "Trades\tWins\tLosses\tWinRate\tAvgWin\tAvgLoss\tBestStreak\tWorstStreak\tTotalPnL%\tTotalFees\t")
	fmt.Fprintf(w, "%d\t%d\t%d\t%.1f%%\t%.4f\t%.4f\t%d\t%d\t%.2f%%\t%.4f\t\n",
		stats.Total, stats.Wins, stats.Losses, stats.WinRate*100,
		stats.AvgWin, stats.AvgLoss, stats.BestStreak, stats.WorstStreak,
		stats.TotalRate*100, stats.TotalFees)
	w.Flush()

	fmt.Println("\nBy close reason:")
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight|tabwriter.Debug)
	fmt.Fprintln(w, "Reason\tTrades\tPnL%\t")
	for _, reason := range []domain.CloseReason{
		domain.CloseReasonStopLoss, domain.CloseReasonTakeProfit, domain.CloseReasonMarket,
		domain.CloseReasonLiquidation, domain.CloseReasonTimeout, domain.CloseReasonUnknown,
	} {
		agg, ok := stats.ByReason[reason]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%.2f%%\t\n", reason, agg.Count, agg.Rate*100)
	}
	w.Flush()

	newest := records[0]
	fmt.Printf("\nMost recent: trade %d %s qty %.4f entry %.2f exit %.2f (%s, %s)\n",
		newest.TradeID, newest.Direction, newest.Quantity, newest.EntryPrice, newest.ExitPrice,
		newest.CloseReason,
		time.Unix(int64(newest.LastRealizedExitTime), 0).UTC().Format(time.RFC3339))
}

type reasonAgg struct {
	Count int
	Rate  float64
}

type reportStats struct {
	Total       int
	Wins        int
	Losses      int
	WinRate     float64
	AvgWin      float64
	AvgLoss     float64
	BestStreak  int
	WorstStreak int
	TotalRate   float64
	TotalFees   float64
	ByReason    map[domain.CloseReason]reasonAgg
}

// calculateStats folds the record list, walking oldest to newest so the
// streak counters match the order the trades actually closed in.
func calculateStats(records []*domain.ClosedTrade) reportStats {
	stats := reportStats{ByReason: make(map[domain.CloseReason]reasonAgg)}
	var sumWin, sumLoss float64
	var winStreak, lossStreak int

	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		stats.Total++
		stats.TotalRate += rec.ProfitLossRate
		stats.TotalFees += rec.Fees

		switch {
		case rec.IsWin():
			stats.Wins++
			sumWin += rec.ProfitLossRate
			winStreak++
			lossStreak = 0
		case rec.ProfitLossRate < 0:
			stats.Losses++
			sumLoss += rec.ProfitLossRate
			lossStreak++
			winStreak = 0
		}
		if winStreak > stats.BestStreak {
			stats.BestStreak = winStreak
		}
		if lossStreak > stats.WorstStreak {
			stats.WorstStreak = lossStreak
		}

		agg := stats.ByReason[rec.CloseReason]
		agg.Count++
		agg.Rate += rec.ProfitLossRate
		stats.ByReason[rec.CloseReason] = agg
	}

	if stats.Total > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.Total)
	}
	if stats.Wins > 0 {
		stats.AvgWin = sumWin / float64(stats.Wins)
	}
	if stats.Losses > 0 {
		stats.AvgLoss = sumLoss / float64(stats.Losses)
	}
	return stats
}
