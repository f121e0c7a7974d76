package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"TrendSentinel/internal/model"
)

var labelIcons = map[model.TrendLabel]string{
	model.LabelBullish:          "🟢",
	model.LabelBearish:          "🔴",
	model.LabelMixed:            "🟡",
	model.LabelInsufficientData: "⚪",
}

// FormatTrendReport formats a trend report into a Telegram message.
func FormatTrendReport(r model.TrendReport) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>TrendSentinel</b> | %s | %s\n\n", html.EscapeString(r.Symbol), r.AsOf.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("%s Trend: <b>%s</b>\n", labelIcons[r.Label], r.Label))
	b.WriteString(fmt.Sprintf("Close: %.2f (%d bars)\n\n", r.Close, r.Bars))

	b.WriteString("📈 <b>Moving averages:</b>\n")
	writeMA(&b, "MA20", r.MA20, r.Close)
	writeMA(&b, "MA50", r.MA50, r.Close)
	writeMA(&b, "MA200", r.MA200, r.Close)

	if r.RSI14 != nil {
		b.WriteString(fmt.Sprintf("\nRSI14: %.0f\n", *r.RSI14))
	}
	if r.High52w > 0 {
		b.WriteString(fmt.Sprintf("52w range: %.2f – %.2f\n", r.Low52w, r.High52w))
	}
	return b.String()
}

func writeMA(b *strings.Builder, name string, v *float64, close float64) {
	if v == nil {
		b.WriteString(fmt.Sprintf("  %s: n/a\n", name))
		return
	}
	dev := 0.0
	if *v > 0 {
		dev = (close - *v) / *v * 100
	}
	b.WriteString(fmt.Sprintf("  %s: %.2f (%+.1f%%)\n", name, *v, dev))
}

// FormatFetchFailure lists why each provider contributed nothing.
func FormatFetchFailure(symbol string, results []model.ProviderResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("❌ <b>No data for %s</b>\n\n", html.EscapeString(symbol)))
	for _, r := range results {
		b.WriteString(fmt.Sprintf("• %s: %s\n", html.EscapeString(r.Provider), html.EscapeString(r.Reason())))
	}
	b.WriteString("\nThe previous series is still in use.")
	return b.String()
}

// FormatSeriesSummary describes the canonical series held in memory.
func FormatSeriesSummary(symbol string, s model.Series, fetchedAt time.Time) string {
	if s.Empty() {
		return "No series loaded yet. Send /refresh to fetch one."
	}
	first, last := s[0], s[len(s)-1]
	return fmt.Sprintf("🗂 <b>%s</b>: %d bars, %s → %s\nLast close: %.2f\nFetched: %s UTC",
		html.EscapeString(symbol), s.Len(),
		first.Time.Format("2006-01-02"), last.Time.Format("2006-01-02"),
		last.Close, fetchedAt.UTC().Format("2006-01-02 15:04"))
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	return "Commands:\n• /trend - latest trend report\n• /refresh - fetch now and report\n• /series - loaded series summary"
}
