package domain

// CostModel names how the round-trip cost was derived.
type CostModel string

// Cost models.
const (
	CostModelFixed     CostModel = "fixed"
	CostModelEmpirical CostModel = "empirical"
)

// CostConfig is the round-trip trading friction subtracted from each trade's gross PnL.
type CostConfig struct {
	Model        CostModel
	RoundTripPct float64 // total % charged per round trip
	SampleSize   int     // empirical only: number of impact samples used
}

// ImpactSample is the measured price impact of one successful execution.
type ImpactSample struct {
	Signature   string  // transaction signature, unique
	Mint        string  // token traded
	TimestampMs int64   // execution time
	ImpactPct   float64 // one-way impact in %
}
