package domain

// Snapshot is a per-symbol view of the market for one scan cycle.
// All fields must be populated for the snapshot to be usable; a snapshot
// with any missing value is treated as "no data" and never reaches the
// trade filter. Snapshots are transient and owned by the scan iteration
// that produced them.
type Snapshot struct {
	Symbol  string
	Price   float64 // Last close
	SMAFast float64 // Fast simple moving average (9-period by default)
	SMASlow float64 // Slow simple moving average (21-period by default)
	RSI     float64 // Relative Strength Index (14-period by default)
	ATR     float64 // Average True Range (14-period by default)
}

// IsComplete reports whether every field carries a usable value.
func (s *Snapshot) IsComplete() bool {
	if s == nil {
		return false
	}
	return s.Price > 0 && s.SMAFast > 0 && s.SMASlow > 0 && s.RSI > 0 && s.ATR > 0
}
