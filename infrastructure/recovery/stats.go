package recovery

import "time"

// RecordSummary is a compact view of one fault record.
type RecordSummary struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	Component string    `json:"component"`
	Operation string    `json:"operation"`
	Error     string    `json:"error"`
}

// Stats aggregates the fault history.
type Stats struct {
	Total  int             `json:"total"`
	ByKind map[string]int  `json:"by_kind"`
	ByComp map[string]int  `json:"by_component"`
	ByOp   map[string]int  `json:"by_operation"`
	Recent []RecordSummary `json:"recent"`
}

// Stats returns counts by kind, component, and operation, plus the last ten
// records.
func (h *Handler) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	stats := Stats{
		Total:  len(h.history),
		ByKind: make(map[string]int),
		ByComp: make(map[string]int),
		ByOp:   make(map[string]int),
	}

	for _, r := range h.history {
		stats.ByKind[r.Kind.String()]++
		stats.ByComp[r.Component]++
		stats.ByOp[r.Operation]++
	}

	start := len(h.history) - 10
	if start < 0 {
		start = 0
	}
	for _, r := range h.history[start:] {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		stats.Recent = append(stats.Recent, RecordSummary{
			Timestamp: r.Timestamp,
			Kind:      r.Kind.String(),
			Component: r.Component,
			Operation: r.Operation,
			Error:     errText,
		})
	}

	return stats
}
