// Package optimization provides shared data structures for optimization results.
package optimization

// Summary captures the result of a single bounded search.
type Summary struct {
	Scope                string   `json:"scope"`
	TargetName           string   `json:"targetName"`
	Field                string   `json:"field"`
	LowerBound           float64  `json:"lowerBound"`
	UpperBound           float64  `json:"upperBound"`
	Value                float64  `json:"value"`
	Gearing              float64  `json:"gearing"`
	Iterations           int      `json:"iterations"`
	RefinementIterations int      `json:"refinementIterations,omitempty"`
	Converged            bool     `json:"converged"`
	HitGearingLimit      bool     `json:"hitGearingLimit"`
	Notes                []string `json:"notes,omitempty"`
	ValueDisplay         string   `json:"valueDisplay,omitempty"`
}

// AddNote appends a human-readable note, skipping empty and repeated notes.
func (s *Summary) AddNote(note string) {
	if note == "" {
		return
	}
	for _, existing := range s.Notes {
		if existing == note {
			return
		}
	}
	s.Notes = append(s.Notes, note)
}

// TotalIterations is the number of schedules evaluated by the search.
func (s Summary) TotalIterations() int {
	return s.Iterations + s.RefinementIterations
}
