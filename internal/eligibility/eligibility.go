package eligibility

// Requirement labels a missing precondition for loan submission. The values
// are user-facing remediation keys, so they must stay stable.
type Requirement string

const (
	RequirementIdentification     Requirement = "identification"
	RequirementFinancialDocuments Requirement = "financial documents"
	RequirementFinancialData      Requirement = "financial data"
)

// Result is the outcome of one eligibility check. The gate never caches: the
// same user can flip to eligible the moment the missing evidence is uploaded.
type Result struct {
	Eligible bool          `json:"eligible"`
	Missing  []Requirement `json:"missing,omitempty"`
}

func (r Result) IsMissing(req Requirement) bool {
	for _, m := range r.Missing {
		if m == req {
			return true
		}
	}
	return false
}
