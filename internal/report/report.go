// Package report writes results records as JSON, snapshot histories as CSV
// and short human-readable summaries.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/1cbyc/routing-sim/internal/models"
	"github.com/1cbyc/routing-sim/internal/util"
	"github.com/gocarina/gocsv"
)

// SnapshotRow is one CSV line of a portfolio history. Decimals are kept as
// their exact string form.
type SnapshotRow struct {
	Step           int    `csv:"step"`
	Timestamp      string `csv:"timestamp"`
	TotalValue     string `csv:"total_value"`
	Cash           string `csv:"cash"`
	PositionsValue string `csv:"positions_value"`
	PositionsCount int    `csv:"positions_count"`
}

func SnapshotRows(history []models.PortfolioSnapshot) []SnapshotRow {
	rows := make([]SnapshotRow, 0, len(history))
	for i, snapshot := range history {
		rows = append(rows, SnapshotRow{
			Step:           i + 1,
			Timestamp:      snapshot.Timestamp.UTC().Format(time.RFC3339),
			TotalValue:     snapshot.TotalValue.String(),
			Cash:           snapshot.Cash.String(),
			PositionsValue: snapshot.PositionsValue.String(),
			PositionsCount: snapshot.PositionsCount,
		})
	}
	return rows
}

func WriteSnapshotsCSV(w io.Writer, history []models.PortfolioSnapshot) error {
	rows := SnapshotRows(history)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("write snapshot csv: %w", err)
	}
	return nil
}

func ReadSnapshotsCSV(r io.Reader) ([]SnapshotRow, error) {
	var rows []SnapshotRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("read snapshot csv: %w", err)
	}
	return rows, nil
}

func WriteJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// WriteFile creates path and hands it to write.
func WriteFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	return write(f)
}

func WriteSimulationSummary(w io.Writer, r *models.SimulationResults) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"Run", r.RunID},
		{"Strategy", r.Strategy},
		{"Steps", fmt.Sprint(r.Steps)},
		{"Initial value", util.FormatCurrency(r.InitialValue)},
		{"Final value", util.FormatCurrency(r.FinalValue)},
		{"Total return", fmt.Sprintf("%s (%s)", util.FormatCurrency(r.TotalReturn), util.FormatPercentage(r.TotalReturnPct))},
		{"Sharpe ratio", fmt.Sprintf("%.3f", r.SharpeRatio)},
		{"Max drawdown", util.FormatPercentage(r.MaxDrawdownPct)},
		{"Volatility", util.FormatPercentage(r.VolatilityPct)},
		{"VaR (95%)", util.FormatCurrency(r.ValueAtRisk)},
		{"CVaR (95%)", util.FormatCurrency(r.ConditionalVaR)},
		{"Diversification", fmt.Sprintf("%.3f", r.DiversificationScore)},
		{"Portfolio yield", util.FormatPercentage(util.FloatFromDecimal(r.PortfolioYield) * 100)},
		{"Portfolio risk", util.FormatPercentage(util.FloatFromDecimal(r.PortfolioRisk) * 100)},
	}
	return writeRows(tw, rows)
}

func WriteMonteCarloSummary(w io.Writer, r *models.MonteCarloResults) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"Run", r.RunID},
		{"Iterations", fmt.Sprint(r.Iterations)},
		{"Failed trials", fmt.Sprint(r.FailedTrials)},
		{"Expected value", util.FormatCurrency(r.ExpectedValue)},
		{fmt.Sprintf("VaR (%.0f%%)", r.ConfidenceLevel*100), util.FormatCurrency(r.ValueAtRisk)},
		{fmt.Sprintf("CVaR (%.0f%%)", r.ConfidenceLevel*100), util.FormatCurrency(r.ConditionalVaR)},
		{"Max drawdown", util.FormatPercentage(r.MaxDrawdownPct)},
	}

	ranks := make([]int, 0, len(r.Percentiles))
	for rank := range r.Percentiles {
		ranks = append(ranks, rank)
	}
	sort.Ints(ranks)
	for _, rank := range ranks {
		rows = append(rows, [2]string{fmt.Sprintf("P%d", rank), util.FormatCurrency(r.Percentiles[rank])})
	}
	return writeRows(tw, rows)
}

func WriteBacktestSummary(w io.Writer, r *models.BacktestResults) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"Run", r.RunID},
		{"Strategy", r.Strategy},
		{"Period", fmt.Sprintf("%s to %s", r.StartDate.Format(time.DateOnly), r.EndDate.Format(time.DateOnly))},
		{"Steps", fmt.Sprint(r.Steps)},
		{"Initial value", util.FormatCurrency(r.InitialValue)},
		{"Final value", util.FormatCurrency(r.FinalValue)},
		{"Total return", util.FormatPercentage(r.TotalReturnPct)},
		{"Annualized return", util.FormatPercentage(r.AnnualizedReturnPct)},
		{"Volatility", util.FormatPercentage(r.VolatilityPct)},
		{"Sharpe ratio", fmt.Sprintf("%.3f", r.SharpeRatio)},
		{"Max drawdown", util.FormatPercentage(r.MaxDrawdownPct)},
	}
	if r.BenchmarkSymbol != "" {
		rows = append(rows, [2]string{fmt.Sprintf("Benchmark (%s)", r.BenchmarkSymbol), util.FormatPercentage(r.BenchmarkReturnPct)})
	}
	return writeRows(tw, rows)
}

func writeRows(tw *tabwriter.Writer, rows [][2]string) error {
	for _, row := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}
