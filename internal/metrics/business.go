package metrics

// IncrementDefinitionCreated increments definition creation counter
func (m *Metrics) IncrementDefinitionCreated() {
	m.safeExecute("IncrementDefinitionCreated", func() {
		m.DefinitionCreatedTotal.Inc()
	})
}

// RecordEvaluation records one derived field evaluation by kind
// (formula, rollup, mirror)
func (m *Metrics) RecordEvaluation(kind string, err error) {
	m.safeExecute("RecordEvaluation", func() {
		m.EvaluationsTotal.WithLabelValues(kind).Inc()
		if err != nil {
			m.EvaluationErrorsTotal.WithLabelValues(kind).Inc()
		}
	})
}

// IncrementUsageFallback increments the usage fallback counter
func (m *Metrics) IncrementUsageFallback() {
	m.safeExecute("IncrementUsageFallback", func() {
		m.UsageFallbackTotal.Inc()
	})
}

// SetDefinitionsTotal sets total field definitions gauge
func (m *Metrics) SetDefinitionsTotal(count int64) {
	m.safeExecute("SetDefinitionsTotal", func() {
		m.DefinitionsTotal.Set(float64(count))
	})
}

// SetBoardsTotal sets total boards gauge
func (m *Metrics) SetBoardsTotal(count int64) {
	m.safeExecute("SetBoardsTotal", func() {
		m.BoardsTotal.Set(float64(count))
	})
}
