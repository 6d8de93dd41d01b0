package model

// Outcome is what happened to a single ingested record.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// RecordResult pairs a record's identifying name with its outcome.
// Err is set only when Outcome is OutcomeFailed.
type RecordResult struct {
	Name    string  `json:"name"`
	Outcome Outcome `json:"outcome"`
	Err     error   `json:"-"`
}

// Summary accumulates per-record outcomes for one ingestion run.
type Summary struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
	Total   int `json:"total"`

	Results []RecordResult `json:"-"`
}

// Record counts a single outcome.
func (s *Summary) Record(r RecordResult) {
	s.Total++
	switch r.Outcome {
	case OutcomeCreated:
		s.Created++
	case OutcomeUpdated:
		s.Updated++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Errors++
	}
	s.Results = append(s.Results, r)
}

// Add folds another summary's counts into s.
func (s *Summary) Add(o Summary) {
	s.Created += o.Created
	s.Updated += o.Updated
	s.Skipped += o.Skipped
	s.Errors += o.Errors
	s.Total += o.Total
	s.Results = append(s.Results, o.Results...)
}
