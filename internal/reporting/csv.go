package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"solana-signal-lab/internal/domain"
)

// CSVPrecision is the number of decimal places written for float columns.
const CSVPrecision = 6

// WriteCSV writes results as CSV with a header row.
// Unavailable values are written as empty fields.
func WriteCSV(w io.Writer, results []*domain.SweepResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range Rows(results) {
		if err := cw.Write(row.record()); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// record renders the row in Columns order.
func (r Row) record() []string {
	return []string{
		r.Template,
		r.Token,
		strconv.Itoa(int(r.Timeframe)),
		r.ExitMode,
		r.Params,
		strconv.Itoa(int(r.Trades)),
		formatFloat(r.WinRate),
		formatFloat(r.PnLPct),
		formatFloat(r.ProfitFactor),
		formatFloat(r.Sharpe),
		formatFloat(r.MaxDrawdown),
		formatFloat(r.AvgWinLossRatio),
		formatFloat(r.AvgHoldMinutes),
		formatFloat(r.TradesPerDay),
		strconv.FormatBool(r.Eligible),
		strconv.Itoa(int(r.Rank)),
		formatOptional(r.Ret24h),
		formatOptional(r.Ret48h),
		formatOptional(r.Ret72h),
		formatOptional(r.Ret168h),
		formatFloat(r.TrendScore),
		r.Regime,
		formatOptional(r.RelStrength24h),
		formatOptional(r.RelStrength168h),
		formatFloat(r.CoverageHours),
		strconv.Itoa(int(r.HourOfDay)),
		strconv.Itoa(int(r.DayOfWeek)),
		formatOptional(r.ATRPercentile),
		formatOptional(r.VolumeZScore),
	}
}

// formatFloat rounds half away from zero to CSVPrecision places without
// binary float artifacts. Non-finite values are written empty.
func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return decimal.NewFromFloat(v).Round(CSVPrecision).String()
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
