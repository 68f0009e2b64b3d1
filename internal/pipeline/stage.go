package pipeline

import "github.com/sandeepgoudmacha/Financial-Document-Analyzer/pkg/models"

// Capability is a tool a stage may use.
type Capability string

const (
	CapDocumentReader Capability = "document-reader"
	CapWebSearch      Capability = "web-search"
)

// Stage declares one step of the analysis and the tools it needs.
type Stage struct {
	Name     string
	Requires []Capability
	Optional []Capability
}

// Stages is the fixed execution order.
var Stages = []Stage{
	{Name: models.StageVerification, Requires: []Capability{CapDocumentReader}},
	{Name: models.StageAnalysis, Requires: []Capability{CapDocumentReader}, Optional: []Capability{CapWebSearch}},
	{Name: models.StageInvestment, Requires: []Capability{CapDocumentReader}, Optional: []Capability{CapWebSearch}},
	{Name: models.StageRiskAssessment, Requires: []Capability{CapDocumentReader}},
}

func (s Stage) wants(c Capability) bool {
	for _, o := range s.Optional {
		if o == c {
			return true
		}
	}
	return false
}
