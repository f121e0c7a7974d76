// Package reconcile merges per-provider series into one canonical series.
package reconcile

import (
	"sort"

	"TrendSentinel/internal/model"
)

// Merge unions the bars of all series, keyed by date. The slice order is the
// provider priority: when several series carry the same date, the bar from the
// earliest series wins and the others are discarded. The result is sorted
// ascending and never contains a repeated date.
func Merge(series []model.Series) model.Series {
	total := 0
	for _, s := range series {
		total += s.Len()
	}
	if total == 0 {
		return model.Series{}
	}

	seen := make(map[int64]struct{}, total)
	out := make(model.Series, 0, total)
	for _, s := range series {
		for _, b := range s {
			key := b.Time.Unix()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, b)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}
