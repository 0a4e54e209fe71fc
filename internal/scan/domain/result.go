package domain

import (
	"strings"
	"time"
)

// Engine identifies which detector produced a scan verdict.
type Engine string

const (
	// EnginePrimary is the external scanning engine (clamd-compatible daemon).
	EnginePrimary Engine = "primary"
	// EngineHeuristic is the built-in pattern-based fallback scanner.
	EngineHeuristic Engine = "heuristic"
	// EngineDisabled means scanning is turned off; verdicts are fail-open clean.
	EngineDisabled Engine = "disabled"
	// EngineError means the scan pipeline itself failed to produce a verdict.
	EngineError Engine = "error"
)

// ThreatType is the normalized threat taxonomy.
type ThreatType string

const (
	ThreatTypeVirus      ThreatType = "VIRUS"
	ThreatTypeTrojan     ThreatType = "TROJAN"
	ThreatTypeWorm       ThreatType = "WORM"
	ThreatTypeSpyware    ThreatType = "SPYWARE"
	ThreatTypeAdware     ThreatType = "ADWARE"
	ThreatTypeRansomware ThreatType = "RANSOMWARE"
	ThreatTypeMacro      ThreatType = "MACRO"
	ThreatTypeExploit    ThreatType = "EXPLOIT"
	ThreatTypeSuspicious ThreatType = "SUSPICIOUS_PATTERN"
	ThreatTypeHeuristic  ThreatType = "HEURISTIC"
	ThreatTypeUnknown    ThreatType = "UNKNOWN"
)

// ThreatScanError is the threat name reported when the scan pipeline fails and
// the fail-closed policy treats the unknown content as infected.
const ThreatScanError = "SCAN_ERROR"

// Result is the normalized outcome of one scan invocation. Transient: produced
// per request and reported to the audit collaborator, never persisted itself.
type Result struct {
	IsClean    bool
	Threat     string
	ThreatType ThreatType
	Confidence float64
	Engine     Engine
	Duration   time.Duration
	Signature  string
	Timestamp  time.Time
}

// classifyOrder fixes the priority of substring matching in ClassifyThreat.
// The first matching entry wins; ties are impossible by construction.
var classifyOrder = []struct {
	marker string
	tt     ThreatType
}{
	{"virus", ThreatTypeVirus},
	{"trojan", ThreatTypeTrojan},
	{"worm", ThreatTypeWorm},
	{"spyware", ThreatTypeSpyware},
	{"adware", ThreatTypeAdware},
	{"ransom", ThreatTypeRansomware},
	{"macro", ThreatTypeMacro},
	{"exploit", ThreatTypeExploit},
	{"suspicious", ThreatTypeSuspicious},
	{"heuristic", ThreatTypeHeuristic},
}

// ClassifyThreat maps a free-text threat label from the scanning engine to the
// normalized taxonomy via case-insensitive substring matching in fixed
// priority order.
func ClassifyThreat(label string) ThreatType {
	lower := strings.ToLower(label)
	for _, entry := range classifyOrder {
		if strings.Contains(lower, entry.marker) {
			return entry.tt
		}
	}
	return ThreatTypeUnknown
}
