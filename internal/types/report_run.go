package types

// ReportRun is the persisted header of one generated report, kept for the
// run-history endpoint. The per-slot records themselves are not persisted;
// they are recomputed on demand.
type ReportRun struct {
	DateKey     string  `json:"dateKey" dynamodbav:"DateKey"`         // YYYY-MM-DD of window start (partition key)
	RunID       string  `json:"runId" dynamodbav:"RunID"`             // sort key
	WindowStart string  `json:"windowStart" dynamodbav:"WindowStart"` // RFC3339
	WindowEnd   string  `json:"windowEnd" dynamodbav:"WindowEnd"`     // RFC3339
	Agents      int     `json:"agents" dynamodbav:"Agents"`
	Slots       int     `json:"slots" dynamodbav:"Slots"`
	TotalCalls  int     `json:"totalCalls" dynamodbav:"TotalCalls"`
	Answered    int     `json:"answered" dynamodbav:"Answered"`
	Failed      int     `json:"failed" dynamodbav:"Failed"`
	AnswerRate  float64 `json:"answerRate" dynamodbav:"AnswerRate"`   // 0-100%
	GeneratedAt string  `json:"generatedAt" dynamodbav:"GeneratedAt"` // RFC3339
}
