package bulk

// Failure is one item that did not go through.
type Failure struct {
	Item   string `json:"item"`
	Reason string `json:"reason"`
}

// Report summarises a bulk operation. Partial failure is reported here, never
// as an error.
type Report struct {
	Total     int       `json:"total"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Failures  []Failure `json:"failures,omitempty"`
	Files     []string  `json:"files,omitempty"`
}

func (r *Report) fail(item string, err error) {
	r.Failed++
	r.Failures = append(r.Failures, Failure{Item: item, Reason: err.Error()})
}
