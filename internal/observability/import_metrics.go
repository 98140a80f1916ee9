package observability

import "time"

// ObserveImport records the outcome of one CSV import. A nil *Prom is a no-op.
func (p *Prom) ObserveImport(created, invalid, rolledBack int, took time.Duration) {
	if p == nil {
		return
	}

	p.ImportRows.WithLabelValues("created").Add(float64(created))
	p.ImportRows.WithLabelValues("invalid").Add(float64(invalid))
	p.ImportRows.WithLabelValues("rolled_back").Add(float64(rolledBack))
	p.ImportDuration.Observe(took.Seconds())
}

func (p *Prom) ObserveRegistration(result string) {
	if p == nil {
		return
	}

	p.RegistrationsTotal.WithLabelValues(result).Inc()
}
