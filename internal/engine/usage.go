package engine

import (
	"time"

	"github.com/google/uuid"
)

// UsageMetric is the per-definition record of where and how often a field is
// referenced across surfaces.
type UsageMetric struct {
	FieldID     uuid.UUID  `json:"field_id"`
	APIName     string     `json:"api_name"`
	Screens     []string   `json:"screens"`
	Reports     []string   `json:"reports"`
	Automations []string   `json:"automations"`
	UsageCount  int64      `json:"usage_count"`
	LastUsedAt  *time.Time `json:"last_used_at"`
}

// UsageSummary is the precomputed usage aggregate supplied by the summary
// source, keyed by field id.
type UsageSummary map[uuid.UUID]UsageMetric

// UsageReport carries usage metrics plus the flag telling callers whether
// the degraded contexts-derived fallback produced them.
type UsageReport struct {
	Metrics    []UsageMetric `json:"metrics"`
	IsFallback bool          `json:"is_fallback"`
}

// Usage builds the usage report for a registry. When summary is nil (the
// precomputed source is unavailable) it degrades to a best-effort metric per
// definition derived purely from declared contexts: boards/forms contexts
// become screens, a reports context one reports entry, an automations
// context one automations entry, with zero counts and no timestamps. The
// degraded report is marked IsFallback and is never a hard failure.
func Usage(reg *Registry, summary UsageSummary) UsageReport {
	defs := reg.Definitions()
	report := UsageReport{Metrics: make([]UsageMetric, 0, len(defs))}

	if summary == nil {
		report.IsFallback = true
		for i := range defs {
			report.Metrics = append(report.Metrics, fallbackMetric(&defs[i]))
		}
		return report
	}

	for i := range defs {
		d := &defs[i]
		if m, ok := summary[d.ID]; ok {
			m.FieldID = d.ID
			m.APIName = d.APIName
			report.Metrics = append(report.Metrics, m)
			continue
		}
		// Definitions absent from the summary are simply unused.
		report.Metrics = append(report.Metrics, UsageMetric{
			FieldID:     d.ID,
			APIName:     d.APIName,
			Screens:     []string{},
			Reports:     []string{},
			Automations: []string{},
		})
	}
	return report
}

func fallbackMetric(d *FieldDefinition) UsageMetric {
	m := UsageMetric{
		FieldID:     d.ID,
		APIName:     d.APIName,
		Screens:     []string{},
		Reports:     []string{},
		Automations: []string{},
	}
	for _, c := range d.Contexts {
		switch c {
		case ContextBoards, ContextForms:
			m.Screens = append(m.Screens, string(c))
		case ContextReports:
			m.Reports = append(m.Reports, string(c))
		case ContextAutomations:
			m.Automations = append(m.Automations, string(c))
		}
	}
	return m
}
