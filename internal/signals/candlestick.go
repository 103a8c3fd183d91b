// Package signals derives trading signals from price history and profile
// data. Every function here is pure: no I/O, no clock, no randomness
// beyond its inputs, so results are fully reproducible.
package signals

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rcabral/pse-advisor/internal/common"
	"github.com/rcabral/pse-advisor/internal/models"
)

const dateLayout = "2006-01-02"

// DetectCandlestickPatterns runs all candlestick detectors over a daily
// bar series. Each detection pass is isolated: a panic in one pass is
// recovered, logged, and leaves only that pass's findings empty.
func DetectCandlestickPatterns(bars []models.OHLCVBar, cfg common.SignalConfig, logger *common.Logger) models.CandlestickFindings {
	if logger == nil {
		logger = common.NewSilentLogger()
	}

	var findings models.CandlestickFindings
	findings.NotableCandles = safePass(logger, "notable_candles", func() []string {
		return notableCandles(bars, cfg)
	})
	findings.GapEvents = safePass(logger, "gap_events", func() []string {
		return gapEvents(bars, cfg)
	})
	findings.VolumeSpikes = safePass(logger, "volume_spikes", func() []string {
		return volumeSpikes(bars, cfg)
	})

	selling, buying := safeStreaks(logger, bars, cfg)
	findings.SellingPressure = selling
	findings.BuyingPressure = buying

	return findings
}

func safePass(logger *common.Logger, name string, fn func() []string) (out []string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn().Str("pass", name).Interface("panic", r).Msg("Candlestick pass failed")
			out = nil
		}
	}()
	return fn()
}

func safeStreaks(logger *common.Logger, bars []models.OHLCVBar, cfg common.SignalConfig) (selling, buying []string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn().Str("pass", "pressure_streaks").Interface("panic", r).Msg("Candlestick pass failed")
			selling, buying = nil, nil
		}
	}()
	return pressureStreaks(bars, cfg)
}

// notableCandles flags the largest single-day bodies, keeping the top N
// sorted by body magnitude descending.
func notableCandles(bars []models.OHLCVBar, cfg common.SignalConfig) []string {
	type candle struct {
		text    string
		bodyAbs float64
	}

	var hits []candle
	for _, b := range bars {
		if b.Open == 0 {
			continue
		}
		bodyPct := (b.Close - b.Open) / b.Open * 100
		if abs(bodyPct) < cfg.CandleBodyPct {
			continue
		}

		kind := "Large bullish (green) candle"
		if bodyPct < 0 {
			kind = "Large bearish (red) candle"
		}
		hits = append(hits, candle{
			text: fmt.Sprintf("%s: %s — O:%.2f H:%.2f L:%.2f C:%.2f (%+.1f%%)",
				b.Date.Format(dateLayout), kind, b.Open, b.High, b.Low, b.Close, bodyPct),
			bodyAbs: abs(bodyPct),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].bodyAbs > hits[j].bodyAbs })
	if cfg.CandleTopN > 0 && len(hits) > cfg.CandleTopN {
		hits = hits[:cfg.CandleTopN]
	}

	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.text
	}
	return out
}

// gapEvents flags sessions opening far from the previous close
func gapEvents(bars []models.OHLCVBar, cfg common.SignalConfig) []string {
	var out []string
	for i := 1; i < len(bars); i++ {
		prevClose := bars[i-1].Close
		if prevClose == 0 {
			continue
		}
		gapPct := (bars[i].Open - prevClose) / prevClose * 100
		if abs(gapPct) < cfg.GapPct {
			continue
		}

		direction := "gap-UP"
		if gapPct < 0 {
			direction = "gap-DOWN"
		}
		out = append(out, fmt.Sprintf("%s: %s of %+.1f%% (prev close %.2f → open %.2f)",
			bars[i].Date.Format(dateLayout), direction, gapPct, prevClose, bars[i].Open))
	}
	return out
}

// volumeSpikes flags sessions whose volume exceeds a multiple of the
// rolling mean over the window ending on that session. The mean needs a
// minimum number of observations before it is considered usable.
func volumeSpikes(bars []models.OHLCVBar, cfg common.SignalConfig) []string {
	window := cfg.VolumeWindow
	if window <= 0 {
		window = 20
	}

	var out []string
	for i := window; i < len(bars); i++ {
		recent := bars[i-window+1 : i+1]
		if len(recent) < cfg.VolumeMinPeriods {
			continue
		}

		var sum float64
		for _, b := range recent {
			sum += b.Volume
		}
		mean := sum / float64(len(recent))
		if mean == 0 || bars[i].Volume < cfg.VolumeMultiplier*mean {
			continue
		}

		var priceClause string
		if prevClose := bars[i-1].Close; prevClose > 0 {
			pct := (bars[i].Close - prevClose) / prevClose * 100
			priceClause = fmt.Sprintf(", price %+.1f%%", pct)
		}
		out = append(out, fmt.Sprintf("%s: Volume spike %.1fx average (%s vs avg %s%s)",
			bars[i].Date.Format(dateLayout), bars[i].Volume/mean,
			groupThousands(bars[i].Volume), groupThousands(mean), priceClause))
	}
	return out
}

// pressureStreaks finds runs of consecutive candles in one direction.
// A bar with a zero open cannot be classified and breaks any open streak.
func pressureStreaks(bars []models.OHLCVBar, cfg common.SignalConfig) (selling, buying []string) {
	minStreak := cfg.MinStreak
	if minStreak <= 0 {
		minStreak = 3
	}

	var streak []models.OHLCVBar
	var bearish bool

	flush := func() {
		if len(streak) < minStreak {
			streak = nil
			return
		}
		first, last := streak[0], streak[len(streak)-1]
		// cumulative figure is the sum of daily body percentages, so
		// overnight gaps between the sessions do not count
		var cumPct float64
		for _, b := range streak {
			cumPct += (b.Close - b.Open) / b.Open * 100
		}
		kind := "bullish"
		if bearish {
			kind = "bearish"
		}
		text := fmt.Sprintf("%s to %s: %d consecutive %s candles (cumulative %+.1f%%)",
			first.Date.Format(dateLayout), last.Date.Format(dateLayout), len(streak), kind, cumPct)
		if bearish {
			selling = append(selling, text)
		} else {
			buying = append(buying, text)
		}
		streak = nil
	}

	for _, b := range bars {
		if b.Open == 0 {
			flush()
			continue
		}
		isBear := b.Close < b.Open
		if len(streak) > 0 && isBear != bearish {
			flush()
		}
		bearish = isBear
		streak = append(streak, b)
	}
	flush()

	return selling, buying
}

// groupThousands formats a value with comma thousands separators and no
// decimal places ("120,000,000").
func groupThousands(v float64) string {
	neg := v < 0
	s := strconv.FormatFloat(abs(v), 'f', 0, 64)

	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
