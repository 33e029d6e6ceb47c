package classify

// Well-known labels. The work-type and search-type vocabularies are closed;
// category values depend on the work type and are treated as free-form with
// "general" as the conservative default.
const (
	WorkTypeFileOperations   = "file_operations"
	WorkTypeWebSearch        = "web_search"
	WorkTypeDataProcessing   = "data_processing"
	WorkTypeCodeGeneration   = "code_generation"
	WorkTypeCommunication    = "communication"
	WorkTypeSystemOperations = "system_operations"
	WorkTypeOther            = "other"

	CategoryGeneral = "general"

	SearchTypeLocalOnly   = "local_only"
	SearchTypeWebRequired = "web_required"
	SearchTypeHybrid      = "hybrid"
	SearchTypeTools       = "mcp_tools"
	SearchTypeLLMOnly     = "llm_only"
)

// WorkTypes returns the closed work-type vocabulary.
func WorkTypes() []string {
	return []string{
		WorkTypeFileOperations,
		WorkTypeWebSearch,
		WorkTypeDataProcessing,
		WorkTypeCodeGeneration,
		WorkTypeCommunication,
		WorkTypeSystemOperations,
		WorkTypeOther,
	}
}

// SearchTypes returns the closed search-type vocabulary.
func SearchTypes() []string {
	return []string{
		SearchTypeLocalOnly,
		SearchTypeWebRequired,
		SearchTypeHybrid,
		SearchTypeTools,
		SearchTypeLLMOnly,
	}
}

// StageResponse records one raw backend response, keyed by the stage that
// produced it.
type StageResponse struct {
	Stage    Stage
	Raw      string
	Label    string
	Reason   string
	Attempts int
}

// Classification is the state threaded through the pipeline. Each stage
// receives the value so far and returns an updated copy; nothing mutates a
// classification after the caller consumes it.
type Classification struct {
	Input string

	WorkType           string
	WorkTypeConfidence float64

	Category           string
	CategoryConfidence float64

	SearchType           string
	SearchTypeConfidence float64

	OverallConfidence float64

	Errors    []string
	Responses []StageResponse

	SessionID string
	Provider  string
}

// RecordError appends a stage error. Errors never abort the pipeline; they
// only reduce the overall confidence.
func (c *Classification) RecordError(msg string) {
	c.Errors = append(c.Errors, msg)
}

// StageConfidences returns the three per-stage confidences in pipeline order.
func (c *Classification) StageConfidences() []float64 {
	return []float64{c.WorkTypeConfidence, c.CategoryConfidence, c.SearchTypeConfidence}
}

// ComputeOverallConfidence applies the fixed aggregation rule: the mean of
// strictly-positive stage confidences (zero when none are positive) minus
// 0.1 for every recorded error, floored at zero.
func (c *Classification) ComputeOverallConfidence() float64 {
	var sum float64
	var n int
	for _, v := range c.StageConfidences() {
		if v > 0 {
			sum += v
			n++
		}
	}

	overall := 0.0
	if n > 0 {
		overall = sum / float64(n)
	}

	overall -= float64(len(c.Errors)) * 0.1
	if overall < 0 {
		overall = 0
	}

	c.OverallConfidence = overall
	return overall
}
