// Package livemap loads the live strategy map: per-mint, per-regime template
// configuration shared by the live decision path and backtests.
//
// Two entry shapes are accepted. Flat v1 entries carry one template for every
// regime; v2 entries carry a "regimes" block. v1 entries are promoted to the v2
// shape on load, so the in-memory map has a single representation.
package livemap

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"solana-signal-lab/internal/domain"
	"solana-signal-lab/internal/solana"
	"solana-signal-lab/internal/strategy"
)

// Errors
var (
	ErrInvalidMint        = errors.New("invalid mint address")
	ErrInvalidEntry       = errors.New("invalid live strategy map entry")
	ErrUnsupportedVersion = errors.New("unsupported live strategy map version")
)

// Supported file versions.
const (
	VersionFlat      = 1
	VersionPerRegime = 2
)

const versionKey = "version"

// V1Entry is a flat entry: one template for every regime.
type V1Entry struct {
	Enabled        bool
	Template       string
	Params         map[string]float64
	StopLossPct    float64
	TakeProfitPct  float64
	MaxPositionSOL float64
	MaxPositionPct float64
}

// Promote converts a flat entry into the per-regime shape by copying it into
// every regime. The result shares no maps with e.
func Promote(mint string, e V1Entry) domain.TokenStrategy {
	rs := domain.RegimeStrategy{
		Enabled:        true,
		Template:       e.Template,
		Params:         e.Params,
		StopLossPct:    e.StopLossPct,
		TakeProfitPct:  e.TakeProfitPct,
		MaxPositionSOL: e.MaxPositionSOL,
		MaxPositionPct: e.MaxPositionPct,
	}
	ts := domain.TokenStrategy{
		Mint:    mint,
		Enabled: e.Enabled,
		Regimes: make(map[domain.Regime]domain.RegimeStrategy, len(domain.AllRegimes)),
	}
	for _, r := range domain.AllRegimes {
		ts.Regimes[r] = rs.Clone()
	}
	return ts
}

// rawStrategy is the on-disk strategy block shared by both shapes.
type rawStrategy struct {
	Enabled        *bool              `yaml:"enabled"`
	Template       string             `yaml:"template"`
	Params         map[string]float64 `yaml:"params"`
	StopLossPct    float64            `yaml:"stop_loss_pct"`
	TakeProfitPct  float64            `yaml:"take_profit_pct"`
	MaxPositionSOL float64            `yaml:"max_position_sol"`
	MaxPositionPct float64            `yaml:"max_position_pct"`
}

// rawEntry accepts both shapes; Regimes is non-nil only for v2 entries.
type rawEntry struct {
	rawStrategy `yaml:",inline"`
	Regimes     map[string]rawStrategy `yaml:"regimes"`
}

func enabled(b *bool) bool {
	return b == nil || *b
}

func (r rawStrategy) toDomain() domain.RegimeStrategy {
	return domain.RegimeStrategy{
		Enabled:        enabled(r.Enabled),
		Template:       r.Template,
		Params:         r.Params,
		StopLossPct:    r.StopLossPct,
		TakeProfitPct:  r.TakeProfitPct,
		MaxPositionSOL: r.MaxPositionSOL,
		MaxPositionPct: r.MaxPositionPct,
	}
}

// Map is a parsed live strategy map.
type Map struct {
	Version int
	Entries map[string]domain.TokenStrategy // keyed by mint

	// Promoted lists mints whose entries were flat, sorted ASC.
	Promoted []string
	// OffCurve lists mints that are not ed25519 points, sorted ASC.
	OffCurve []string
}

// parseVersion accepts the version as a number (2) or a tag ("v2").
func parseVersion(node yaml.Node) (int, error) {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return 0, fmt.Errorf("%w: version: %v", ErrUnsupportedVersion, err)
	}
	tag := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), "v")
	v, err := strconv.Atoi(tag)
	if err != nil || (v != VersionFlat && v != VersionPerRegime) {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedVersion, raw)
	}
	return v, nil
}

// Parse decodes a live strategy map from JSON or YAML.
// The document is a mapping of mint to entry with an optional top-level
// "version". Every mint, template and parameter set is validated.
func Parse(data []byte) (*Map, error) {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode live strategy map: %w", err)
	}

	m := &Map{
		Version: VersionPerRegime,
		Entries: make(map[string]domain.TokenStrategy, len(doc)),
	}
	if node, ok := doc[versionKey]; ok {
		v, err := parseVersion(node)
		if err != nil {
			return nil, err
		}
		m.Version = v
		delete(doc, versionKey)
	}

	for mint, node := range doc {
		pk, err := solana.ParsePublicKey(mint)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMint, err)
		}
		if !pk.IsOnCurve() {
			m.OffCurve = append(m.OffCurve, mint)
		}

		var raw rawEntry
		if err := node.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidEntry, mint, err)
		}

		ts, promoted, err := toTokenStrategy(mint, raw)
		if err != nil {
			return nil, err
		}
		if promoted {
			m.Promoted = append(m.Promoted, mint)
		}
		m.Entries[mint] = ts
	}

	sort.Strings(m.Promoted)
	sort.Strings(m.OffCurve)
	return m, nil
}

func toTokenStrategy(mint string, raw rawEntry) (domain.TokenStrategy, bool, error) {
	var ts domain.TokenStrategy
	promoted := raw.Regimes == nil

	if promoted {
		ts = Promote(mint, V1Entry{
			Enabled:        enabled(raw.Enabled),
			Template:       raw.Template,
			Params:         raw.Params,
			StopLossPct:    raw.StopLossPct,
			TakeProfitPct:  raw.TakeProfitPct,
			MaxPositionSOL: raw.MaxPositionSOL,
			MaxPositionPct: raw.MaxPositionPct,
		})
	} else {
		if raw.Template != "" || raw.Params != nil {
			return ts, false, fmt.Errorf("%w: %s: flat template fields next to regimes", ErrInvalidEntry, mint)
		}
		ts = domain.TokenStrategy{
			Mint:    mint,
			Enabled: enabled(raw.Enabled),
			Regimes: make(map[domain.Regime]domain.RegimeStrategy, len(raw.Regimes)),
		}
		for name, rs := range raw.Regimes {
			regime := domain.Regime(name)
			if !regime.IsValid() {
				return ts, false, fmt.Errorf("%w: %s: unknown regime %q", ErrInvalidEntry, mint, name)
			}
			ts.Regimes[regime] = rs.toDomain()
		}
	}

	for regime, rs := range ts.Regimes {
		if err := validateStrategy(rs); err != nil {
			return ts, false, fmt.Errorf("%w: %s/%s: %w", ErrInvalidEntry, mint, regime, err)
		}
	}
	return ts, promoted, nil
}

func validateStrategy(rs domain.RegimeStrategy) error {
	if rs.Template == "" {
		if rs.Enabled {
			return errors.New("enabled without template")
		}
		return nil
	}
	if _, err := strategy.FromConfig(rs); err != nil {
		return err
	}
	for name, v := range map[string]float64{
		"stop_loss_pct":    rs.StopLossPct,
		"take_profit_pct":  rs.TakeProfitPct,
		"max_position_sol": rs.MaxPositionSOL,
		"max_position_pct": rs.MaxPositionPct,
	} {
		if v < 0 {
			return fmt.Errorf("%s must be >= 0, got %g", name, v)
		}
	}
	if rs.MaxPositionPct > 100 {
		return fmt.Errorf("max_position_pct must be <= 100, got %g", rs.MaxPositionPct)
	}
	return nil
}

// Resolve returns the active strategy for (mint, regime), or nil when the
// mint is absent, master-disabled, or disabled in that regime.
func (m *Map) Resolve(mint string, regime domain.Regime) *domain.RegimeStrategy {
	if m == nil {
		return nil
	}
	ts, ok := m.Entries[mint]
	if !ok || !ts.Enabled {
		return nil
	}
	rs, ok := ts.Regimes[regime]
	if !ok || !rs.Enabled {
		return nil
	}
	out := rs.Clone()
	return &out
}

// Mints returns every mint in the map, sorted ASC.
func (m *Map) Mints() []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(m.Entries))
	for mint := range m.Entries {
		out = append(out, mint)
	}
	sort.Strings(out)
	return out
}
