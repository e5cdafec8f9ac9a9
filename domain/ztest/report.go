package ztest

import "zhypo/domain/core"

// TableRow is one line of the parameter table
type TableRow struct {
	Parameter string      `json:"Parameter"`
	Value     interface{} `json:"Value"`
}

// FormulaText pairs a formula with its numeric substitution
type FormulaText struct {
	Formula     string `json:"formula"`
	Computation string `json:"computation"`
}

// DecisionText explains the decision
type DecisionText struct {
	PValue      *float64 `json:"p_value"`
	Decision    string   `json:"decision"`
	Explanation string   `json:"explanation,omitempty"`
}

// IntervalText explains the confidence interval
type IntervalText struct {
	Formula     string  `json:"formula"`
	Computation string  `json:"computation"`
	Lower       float64 `json:"lower"`
	Upper       float64 `json:"upper"`
	Level       float64 `json:"level"`
}

// Report is the presentation bundle returned to clients: the raw result
// plus narrative text and the rendered chart.
type Report struct {
	ReportID              core.ReportID  `json:"report_id"`
	InputHash             core.InputHash `json:"input_hash"`
	EvaluatedAt           core.Timestamp `json:"evaluated_at"`
	TableData             []TableRow     `json:"table_data"`
	NullAlternative       string         `json:"null_alternative"`
	TestType              string         `json:"test_type"`
	RejectionRegion       string         `json:"rejection_region"`
	ZStatisticComputation FormulaText    `json:"z_statistic_computation"`
	Decision              DecisionText   `json:"decision"`
	Conclusion            string         `json:"conclusion"`
	ConfidenceInterval    IntervalText   `json:"confidence_interval"`
	GraphImage            string         `json:"graph_image,omitempty"`
	Result                *TestResult    `json:"result"`
	Sample                *SampleSummary `json:"sample,omitempty"`
	Observations          *Observations  `json:"observations,omitempty"`
}
