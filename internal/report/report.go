package report

import (
	"strings"
	"time"
)

// Disclaimer is attached verbatim to every report.
const Disclaimer = "Informações coletadas de fontes públicas. Podem existir homônimos ou dados desatualizados. Verificação cruzada independente é obrigatória antes de qualquer decisão."

// Risk labels.
const (
	RiskLow      = "low"
	RiskElevated = "elevated"
)

// DefaultRiskThreshold is the number of real legal findings tolerated before
// a report is labelled elevated.
const DefaultRiskThreshold = 2

// Subject identifies the person being searched.
type Subject struct {
	Name       string `json:"name,omitempty"`
	NationalID string `json:"national_id,omitempty"`
}

// Normalize trims whitespace and collapses inner runs of spaces in the name.
func (s Subject) Normalize() Subject {
	return Subject{
		Name:       strings.Join(strings.Fields(s.Name), " "),
		NationalID: strings.TrimSpace(s.NationalID),
	}
}

// Empty reports whether neither a name nor a national id is present.
func (s Subject) Empty() bool {
	n := s.Normalize()
	return n.Name == "" && n.NationalID == ""
}

// Label returns the name, falling back to the national id.
func (s Subject) Label() string {
	n := s.Normalize()
	if n.Name != "" {
		return n.Name
	}
	return n.NationalID
}

// Report is the aggregate returned to the caller and persisted verbatim.
type Report struct {
	Name            string    `json:"name"`
	NationalID      string    `json:"national_id,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
	SourcesSearched int       `json:"sources_searched"`
	ProfilesFound   int       `json:"profiles_found"`
	TotalResults    int       `json:"total_results"`
	SocialMedia     []Finding `json:"social_media"`
	LegalRecords    []Finding `json:"legal_records"`
	Professional    []Finding `json:"professional"`
	FamilyInfo      []Finding `json:"family_info"`
	PublicRecords   []Finding `json:"public_records"`
	RiskAssessment  string    `json:"risk_assessment"`
	Disclaimer      string    `json:"disclaimer"`
}

// Sections returns the category lists in display order.
func (r Report) Sections() []Section {
	return []Section{
		{Key: "social_media", Title: "Redes sociais", Items: r.SocialMedia},
		{Key: "legal_records", Title: "Processos judiciais", Items: r.LegalRecords},
		{Key: "professional", Title: "Vínculos empresariais", Items: r.Professional},
		{Key: "family_info", Title: "Informações familiares", Items: r.FamilyInfo},
		{Key: "public_records", Title: "Outras informações", Items: r.PublicRecords},
	}
}

// Section is one titled category list of a report.
type Section struct {
	Key   string
	Title string
	Items []Finding
}

// Assembler merges classifier output into a Report.
type Assembler struct {
	// EngineCount is the number of configured engines.
	EngineCount int
	// RiskThreshold is the count of real legal findings above which the
	// report is labelled elevated.
	RiskThreshold int
	Now           func() time.Time
}

// Assemble builds the report for subject. It is deterministic for a fixed Now.
func (a Assembler) Assemble(subject Subject, f Findings, totalResults int) Report {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	subject = subject.Normalize()

	r := Report{
		Name:            subject.Label(),
		NationalID:      subject.NationalID,
		Timestamp:       now().UTC().Truncate(time.Microsecond),
		SourcesSearched: a.EngineCount,
		TotalResults:    totalResults,
		SocialMedia:     orPlaceholder(f.Social, CategorySocial),
		LegalRecords:    orPlaceholder(f.Legal, CategoryLegal),
		Professional:    orPlaceholder(f.Corporate, CategoryCorporate),
		FamilyInfo:      orPlaceholder(f.Family, CategoryFamily),
		PublicRecords:   orPlaceholder(f.General, CategoryGeneral),
		Disclaimer:      Disclaimer,
	}
	r.ProfilesFound = countReal(r.SocialMedia) + countReal(r.LegalRecords) + countReal(r.Professional)
	r.RiskAssessment = a.risk(r.LegalRecords)
	return r
}

func (a Assembler) risk(legal []Finding) string {
	n := 0
	for _, f := range legal {
		if f.Placeholder || f.Legal == nil || f.Legal.Summary {
			continue
		}
		n++
	}
	if n > a.RiskThreshold {
		return RiskElevated
	}
	return RiskLow
}

func countReal(items []Finding) int {
	n := 0
	for _, f := range items {
		if !f.Placeholder {
			n++
		}
	}
	return n
}

func orPlaceholder(items []Finding, c Category) []Finding {
	if len(items) > 0 {
		out := make([]Finding, len(items))
		copy(out, items)
		return out
	}
	return []Finding{Placeholder(c)}
}

// Placeholder returns the "nothing found" finding for a category.
func Placeholder(c Category) Finding {
	var f Finding
	switch c {
	case CategoryLegal:
		f = NewLegal(SourceAnalysis, LegalRecord{
			Type:        "Nenhum processo encontrado",
			Title:       "Sem registros judiciais públicos",
			Description: "Nenhum processo público localizado nas fontes consultadas",
		})
	case CategoryCorporate:
		f = NewCorporate(SourceAnalysis, CorporateTie{
			Type:    "Nenhum vínculo empresarial encontrado",
			Company: "Não localizado",
			Details: "Confirmar diretamente na Receita Federal",
		})
	case CategorySocial:
		f = NewSocial(SourceAnalysis, SocialProfile{
			Platform: "Redes sociais",
			Profile:  "Não localizado",
			Status:   "Nenhum perfil público encontrado",
		})
	case CategoryFamily:
		f = NewFamily(SourceAnalysis, FamilyMention{
			Relation: "none",
			Label:    "Sem informações familiares",
			Context:  "Nenhuma menção familiar encontrada",
		})
	default:
		f = NewGeneral(SourceAnalysis, GeneralMention{
			Kind:    MentionGeneric,
			Title:   "Nenhuma menção encontrada",
			Snippet: "Nenhum resultado público relevante nas fontes consultadas",
		})
	}
	f.Placeholder = true
	return f
}
