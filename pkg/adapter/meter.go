package adapter

import (
	"context"
)

// DefaultMeterHistory is how many recent CallReports a Meter keeps.
const DefaultMeterHistory = 1024

// Meter wraps an Adapter and records a CallReport per call. When the
// provider does not report usage, token counts are estimated. Only the
// most recent reports are kept; totals cover every call.
type Meter struct {
	inner   Adapter
	counter TokenCounter
	pricing Pricing
	history int
	reports []CallReport
	dropped int
	total   Usage
	cost    float64
}

// NewMeter wraps inner. A nil counter uses DefaultTokenCounter.
func NewMeter(inner Adapter, counter TokenCounter) *Meter {
	if counter == nil {
		counter = DefaultTokenCounter()
	}
	return &Meter{inner: inner, counter: counter, history: DefaultMeterHistory}
}

// WithHistory sets how many reports are kept. Non-positive values keep
// the default.
func (m *Meter) WithHistory(n int) *Meter {
	if n > 0 {
		m.history = n
	}
	return m
}

// WithPricing attaches a price table; each report then carries its
// estimated cost.
func (m *Meter) WithPricing(p Pricing) *Meter {
	m.pricing = p
	return m
}

// Name returns the wrapped adapter's name.
func (m *Meter) Name() string { return m.inner.Name() }

// Models returns the wrapped adapter's models.
func (m *Meter) Models() []string { return m.inner.Models() }

// Complete forwards the call and records its report.
func (m *Meter) Complete(ctx context.Context, req *Request) (*Response, error) {
	resp, err := m.inner.Complete(ctx, req)
	report := CallReport{Adapter: m.inner.Name(), Model: req.Model}
	if err != nil {
		report.Error = err.Error()
		report.Transient = IsTransient(err)
		m.record(report)
		return nil, err
	}

	if resp.Usage != nil && resp.Usage.TotalTokens > 0 {
		report.Usage = *resp.Usage
	} else {
		prompt := 0
		for _, msg := range req.Messages {
			prompt += m.counter.Count(msg.Content)
		}
		completion := m.counter.Count(resp.Text)
		report.Usage = Usage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: prompt + completion}
		report.Estimated = true
	}
	if cost, ok := m.pricing.Estimate(report.Adapter, report.Model, report.Usage); ok {
		report.CostUSD = cost
	}
	m.record(report)
	return resp, nil
}

func (m *Meter) record(r CallReport) {
	m.total = m.total.Add(r.Usage)
	m.cost += r.CostUSD
	m.reports = append(m.reports, r)
	if over := len(m.reports) - m.history; over > 0 {
		m.reports = append(m.reports[:0:0], m.reports[over:]...)
		m.dropped += over
	}
}

// Calls returns the number of calls made so far.
func (m *Meter) Calls() int { return m.dropped + len(m.reports) }

// Reports returns a copy of the retained call reports.
func (m *Meter) Reports() []CallReport {
	return append([]CallReport(nil), m.reports...)
}

// Total sums usage across every successful call.
func (m *Meter) Total() Usage { return m.total }

// TotalCost sums the estimated USD cost of every call.
func (m *Meter) TotalCost() float64 { return m.cost }

// Reset clears the recorded reports and totals.
func (m *Meter) Reset() {
	m.reports = nil
	m.dropped = 0
	m.total = Usage{}
	m.cost = 0
}

// Since returns the retained reports recorded after mark, where mark is a
// value previously returned by Calls.
func (m *Meter) Since(mark int) []CallReport {
	if mark < 0 || mark > m.Calls() {
		return nil
	}
	start := mark - m.dropped
	if start < 0 {
		start = 0
	}
	return append([]CallReport(nil), m.reports[start:]...)
}
