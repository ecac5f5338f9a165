package livemap

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-signal-lab/internal/domain"
	"solana-signal-lab/internal/strategy"
)

const (
	mintUSDC     = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	mintWSOL     = "So11111111111111111111111111111111111111112"
	mintOffCurve = "8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh"
)

const flatYAML = `
EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v:
  enabled: true
  template: rsi_reversion
  params: {rsi_period: 14, oversold: 30, overbought: 70}
  stop_loss_pct: 8
  take_profit_pct: 15
  max_position_sol: 0.5
`

const perRegimeJSON = `{
  "version": 2,
  "So11111111111111111111111111111111111111112": {
    "enabled": true,
    "regimes": {
      "uptrend": {"enabled": true, "template": "ema_cross", "params": {"fast": 9, "slow": 21}},
      "sideways": {"enabled": false, "template": "bollinger_reversion", "params": {"period": 20, "mult": 2}},
      "downtrend": {"enabled": true, "template": "rsi_reversion", "params": {"rsi_period": 7, "oversold": 20, "overbought": 60}, "stop_loss_pct": 5}
    }
  },
  "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": {
    "enabled": false,
    "template": "macd_cross",
    "params": {"fast": 12, "slow": 26, "signal": 9}
  }
}`

func TestPromote(t *testing.T) {
	e := V1Entry{
		Enabled:       true,
		Template:      "rsi_reversion",
		Params:        map[string]float64{"rsi_period": 14, "oversold": 30, "overbought": 70},
		StopLossPct:   8,
		TakeProfitPct: 15,
	}
	ts := Promote(mintUSDC, e)

	assert.Equal(t, mintUSDC, ts.Mint)
	assert.True(t, ts.Enabled)
	require.Len(t, ts.Regimes, 3)
	for _, r := range domain.AllRegimes {
		rs := ts.Regimes[r]
		assert.True(t, rs.Enabled)
		assert.Equal(t, e.Template, rs.Template)
		assert.Equal(t, e.Params, rs.Params)
		assert.Equal(t, 8.0, rs.StopLossPct)
		assert.Equal(t, 15.0, rs.TakeProfitPct)
	}

	// regimes own their params
	ts.Regimes[domain.RegimeUptrend].Params["rsi_period"] = 99
	assert.Equal(t, 14.0, e.Params["rsi_period"])
	assert.Equal(t, 14.0, ts.Regimes[domain.RegimeSideways].Params["rsi_period"])
}

func TestParse_FlatEntryResolvesInEveryRegime(t *testing.T) {
	m, err := Parse([]byte(flatYAML))
	require.NoError(t, err)
	assert.Equal(t, []string{mintUSDC}, m.Promoted)

	want := map[string]float64{"rsi_period": 14, "oversold": 30, "overbought": 70}
	for _, r := range domain.AllRegimes {
		rs := m.Resolve(mintUSDC, r)
		require.NotNil(t, rs, r)
		assert.Equal(t, "rsi_reversion", rs.Template)
		assert.Equal(t, want, rs.Params)
		assert.Equal(t, 0.5, rs.MaxPositionSOL)
	}
}

func TestParse_PerRegimeJSON(t *testing.T) {
	m, err := Parse([]byte(perRegimeJSON))
	require.NoError(t, err)
	assert.Equal(t, VersionPerRegime, m.Version)
	assert.Equal(t, []string{mintUSDC}, m.Promoted)
	assert.Equal(t, []string{mintUSDC, mintWSOL}, m.Mints())

	up := m.Resolve(mintWSOL, domain.RegimeUptrend)
	require.NotNil(t, up)
	assert.Equal(t, "ema_cross", up.Template)

	assert.Nil(t, m.Resolve(mintWSOL, domain.RegimeSideways), "regime disabled")

	down := m.Resolve(mintWSOL, domain.RegimeDowntrend)
	require.NotNil(t, down)
	assert.Equal(t, 5.0, down.StopLossPct)

	assert.Nil(t, m.Resolve(mintUSDC, domain.RegimeUptrend), "master disabled")
	assert.Nil(t, m.Resolve(mintOffCurve, domain.RegimeUptrend), "absent")

	var nilMap *Map
	assert.Nil(t, nilMap.Resolve(mintWSOL, domain.RegimeUptrend))
}

func TestParse_MissingRegimeResolvesNil(t *testing.T) {
	doc := mintWSOL + `:
  regimes:
    uptrend: {template: vwap_reversion, params: {discount_pct: 2, premium_pct: 2}}
`
	m, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.NotNil(t, m.Resolve(mintWSOL, domain.RegimeUptrend), "enabled defaults to true")
	assert.Nil(t, m.Resolve(mintWSOL, domain.RegimeDowntrend))
	assert.Empty(t, m.Promoted)
}

func TestResolve_ReturnsCopy(t *testing.T) {
	m, err := Parse([]byte(flatYAML))
	require.NoError(t, err)

	rs := m.Resolve(mintUSDC, domain.RegimeUptrend)
	rs.Params["rsi_period"] = 1
	assert.Equal(t, 14.0, m.Resolve(mintUSDC, domain.RegimeUptrend).Params["rsi_period"])
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{
			name:    "bad mint",
			doc:     "not-a-mint:\n  template: rsi_reversion\n",
			wantErr: ErrInvalidMint,
		},
		{
			name:    "short mint",
			doc:     "abc:\n  template: rsi_reversion\n",
			wantErr: ErrInvalidMint,
		},
		{
			name:    "unknown template",
			doc:     mintWSOL + ":\n  template: moon_shot\n",
			wantErr: strategy.ErrUnknownTemplate,
		},
		{
			name:    "missing param",
			doc:     mintWSOL + ":\n  template: ema_cross\n  params: {fast: 9}\n",
			wantErr: strategy.ErrMissingParam,
		},
		{
			name:    "unknown regime",
			doc:     mintWSOL + ":\n  regimes:\n    moon: {template: ema_cross, params: {fast: 9, slow: 21}}\n",
			wantErr: ErrInvalidEntry,
		},
		{
			name:    "mixed shapes",
			doc:     mintWSOL + ":\n  template: ema_cross\n  regimes: {}\n",
			wantErr: ErrInvalidEntry,
		},
		{
			name:    "enabled without template",
			doc:     mintWSOL + ":\n  enabled: true\n",
			wantErr: ErrInvalidEntry,
		},
		{
			name:    "negative stop",
			doc:     mintWSOL + ":\n  template: ema_cross\n  params: {fast: 9, slow: 21}\n  stop_loss_pct: -1\n",
			wantErr: ErrInvalidEntry,
		},
		{
			name:    "unsupported version",
			doc:     "version: 3\n",
			wantErr: ErrUnsupportedVersion,
		},
		{
			name:    "unsupported version tag",
			doc:     "version: v3\n",
			wantErr: ErrUnsupportedVersion,
		},
		{
			name:    "malformed version",
			doc:     "version: two\n",
			wantErr: ErrUnsupportedVersion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestParse_VersionForms(t *testing.T) {
	entry := mintWSOL + ":\n  template: ema_cross\n  params: {fast: 9, slow: 21}\n"
	tests := []struct {
		version string
		want    int
	}{
		{"1", VersionFlat},
		{"2", VersionPerRegime},
		{"v1", VersionFlat},
		{`"v2"`, VersionPerRegime},
		{"V2", VersionPerRegime},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			m, err := Parse([]byte("version: " + tt.version + "\n" + entry))
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Version)
			assert.NotNil(t, m.Resolve(mintWSOL, domain.RegimeUptrend))
		})
	}
}

func TestParse_OffCurveMintIsAccepted(t *testing.T) {
	doc := mintOffCurve + ":\n  template: ema_cross\n  params: {fast: 9, slow: 21}\n"
	m, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{mintOffCurve}, m.OffCurve)
	assert.NotNil(t, m.Resolve(mintOffCurve, domain.RegimeSideways))
}

func writeFile(t *testing.T, path, content string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestStore_ReloadsOnModTimeChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.yaml")
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	writeFile(t, path, flatYAML, t0)

	s := NewStore(path, StoreOptions{})
	rs, err := s.Resolve(mintUSDC, domain.RegimeSideways)
	require.NoError(t, err)
	require.NotNil(t, rs)
	assert.Equal(t, "rsi_reversion", rs.Template)

	// same mtime: cached copy
	writeFile(t, path, perRegimeJSON, t0)
	rs, err = s.Resolve(mintUSDC, domain.RegimeSideways)
	require.NoError(t, err)
	require.NotNil(t, rs)

	// Invalidate forces a re-read
	s.Invalidate()
	rs, err = s.Resolve(mintUSDC, domain.RegimeSideways)
	require.NoError(t, err)
	assert.Nil(t, rs, "now master-disabled")

	// newer mtime reloads
	writeFile(t, path, flatYAML, t0.Add(time.Minute))
	rs, err = s.Resolve(mintUSDC, domain.RegimeSideways)
	require.NoError(t, err)
	assert.NotNil(t, rs)
}

func TestStore_KeepsLastGoodMapOnBadReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.yaml")
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	writeFile(t, path, flatYAML, t0)

	s := NewStore(path, StoreOptions{})
	_, err := s.Map()
	require.NoError(t, err)

	writeFile(t, path, "abc:\n  template: nope\n", t0.Add(time.Minute))
	rs, err := s.Resolve(mintUSDC, domain.RegimeUptrend)
	require.NoError(t, err)
	assert.NotNil(t, rs)
}

func TestStore_MissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "missing.yaml"), StoreOptions{})
	_, err := s.Resolve(mintUSDC, domain.RegimeUptrend)
	assert.Error(t, err)
}

func TestStore_WarnsOncePerPromotedMint(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	path := filepath.Join(t.TempDir(), "live.yaml")
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	writeFile(t, path, flatYAML, t0)

	s := NewStore(path, StoreOptions{Logger: logger})
	for i := 0; i < 3; i++ {
		writeFile(t, path, flatYAML, t0.Add(time.Duration(i)*time.Minute))
		_, err := s.Map()
		require.NoError(t, err)
	}

	assert.Equal(t, 1, strings.Count(buf.String(), "promoted to all regimes"))
}
