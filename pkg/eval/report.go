package eval

import (
	"fmt"
	"io"
	"strings"
)

// DomainStats counts graded questions for one domain.
type DomainStats struct {
	Domain  string `json:"domain"`
	Total   int    `json:"total"`
	Correct int    `json:"correct"`
}

// Accuracy returns the share of correct answers as a percentage.
func (d DomainStats) Accuracy() float64 {
	return percent(d.Correct, d.Total)
}

// Report aggregates graded questions per domain, in first-seen order.
type Report struct {
	RunID   string        `json:"run_id,omitempty"`
	Domains []DomainStats `json:"domains"`
	Total   int           `json:"total"`
	Correct int           `json:"correct"`
}

// Add records one graded question.
func (r *Report) Add(domain string, correct bool) {
	idx := -1
	for i := range r.Domains {
		if r.Domains[i].Domain == domain {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.Domains = append(r.Domains, DomainStats{Domain: domain})
		idx = len(r.Domains) - 1
	}
	r.Domains[idx].Total++
	r.Total++
	if correct {
		r.Domains[idx].Correct++
		r.Correct++
	}
}

// Domain returns the stats for one domain.
func (r *Report) Domain(name string) (DomainStats, bool) {
	for _, d := range r.Domains {
		if d.Domain == name {
			return d, true
		}
	}
	return DomainStats{}, false
}

// Accuracy returns the overall share of correct answers as a percentage.
func (r *Report) Accuracy() float64 {
	return percent(r.Correct, r.Total)
}

// Write prints the per-domain breakdown followed by the overall summary.
func (r *Report) Write(w io.Writer) {
	rule := strings.Repeat("-", 40)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%-40s\n", "DOMAIN REPORT")
	fmt.Fprintln(w, rule)
	for _, d := range r.Domains {
		fmt.Fprintf(w, "Domain: %s\n", strings.ToUpper(d.Domain))
		fmt.Fprintf(w, "  Total:     %d\n", d.Total)
		fmt.Fprintf(w, "  Correct:   %d\n", d.Correct)
		fmt.Fprintf(w, "  Incorrect: %d\n", d.Total-d.Correct)
		fmt.Fprintf(w, "  Accuracy:  %.2f%%\n", d.Accuracy())
		fmt.Fprintln(w, strings.Repeat("-", 20))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total:    %d\n", r.Total)
	fmt.Fprintf(w, "Correct:  %d\n", r.Correct)
	fmt.Fprintf(w, "Accuracy: %.2f%%\n", r.Accuracy())
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
