package collector

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"TrendSentinel/internal/model"
)

// ErrMissingCredentials is returned by Endpoint when a source lacks the
// configuration it needs to build a request.
var ErrMissingCredentials = errors.New("missing credentials")

// Source turns one provider's raw daily-history document into a Series.
// Normalize must not perform I/O and must not fail: a document without
// usable bars yields an empty Series.
type Source interface {
	Name() string
	Endpoint(symbol string) (string, error)
	Normalize(payload []byte) model.Series
}

// Registry maps provider names to sources.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
}

// NewRegistry returns a registry holding the given sources.
func NewRegistry(sources ...Source) (*Registry, error) {
	r := &Registry{sources: make(map[string]Source)}
	for _, src := range sources {
		if err := r.Register(src); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds src under its name. Names must be unique.
func (r *Registry) Register(src Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := src.Name()
	if name == "" {
		return errors.New("source name is empty")
	}
	if _, dup := r.sources[name]; dup {
		return fmt.Errorf("source %q already registered", name)
	}
	r.sources[name] = src
	return nil
}

// Lookup returns the source registered under name.
func (r *Registry) Lookup(name string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.sources[name]
	return src, ok
}

// Names lists registered sources in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// parseNumber accepts a JSON number or a numeric string. null, booleans,
// objects and non-numeric strings are rejected.
func parseNumber(raw json.RawMessage) (decimal.Decimal, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return decimal.Decimal{}, false
	}
	text := string(raw)
	if raw[0] == '"' {
		s, err := strconv.Unquote(text)
		if err != nil {
			return decimal.Decimal{}, false
		}
		text = s
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func parsePrice(raw json.RawMessage) (float64, bool) {
	d, ok := parseNumber(raw)
	if !ok {
		return 0, false
	}
	f, _ := d.Float64()
	return f, true
}

var maxInt64 = decimal.NewFromInt(math.MaxInt64)

func parseVolume(raw json.RawMessage) (int64, bool) {
	d, ok := parseNumber(raw)
	if !ok || d.IsNegative() || d.GreaterThan(maxInt64) {
		return 0, false
	}
	return d.IntPart(), true
}

// parseEpoch reads a whole, positive count of Unix seconds.
func parseEpoch(raw json.RawMessage) (time.Time, bool) {
	d, ok := parseNumber(raw)
	if !ok || !d.IsInteger() || !d.IsPositive() || d.GreaterThan(maxInt64) {
		return time.Time{}, false
	}
	return time.Unix(d.IntPart(), 0), true
}

// newBar builds a bar from raw fields. It reports false when any field is
// missing or non-numeric, or when the bar breaks the OHLC invariants.
func newBar(day time.Time, open, high, low, close, volume json.RawMessage) (model.Bar, bool) {
	b := model.Bar{Time: model.Day(day)}
	var ok bool
	if b.Open, ok = parsePrice(open); !ok {
		return model.Bar{}, false
	}
	if b.High, ok = parsePrice(high); !ok {
		return model.Bar{}, false
	}
	if b.Low, ok = parsePrice(low); !ok {
		return model.Bar{}, false
	}
	if b.Close, ok = parsePrice(close); !ok {
		return model.Bar{}, false
	}
	if b.Volume, ok = parseVolume(volume); !ok {
		return model.Bar{}, false
	}
	return b, b.Valid()
}
