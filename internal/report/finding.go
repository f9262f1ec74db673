// Package report defines the background report returned to callers and the
// typed findings it is made of.
package report

// Category tags a Finding with the payload it carries.
type Category string

const (
	CategoryLegal     Category = "legal_record"
	CategoryCorporate Category = "corporate_tie"
	CategorySocial    Category = "social_profile"
	CategoryFamily    Category = "family_mention"
	CategoryGeneral   Category = "general_mention"
)

// SourceAnalysis marks findings derived from corpus analysis rather than
// from a single result.
const SourceAnalysis = "analysis"

// VerifyNote is attached to every finding rendered to a user.
const VerifyNote = "Verificação manual recomendada"

// Finding is one classified fact candidate. Exactly one payload pointer is
// set and it always matches Category.
type Finding struct {
	Category    Category `json:"category"`
	Source      string   `json:"source"`
	Placeholder bool     `json:"placeholder,omitempty"`
	Note        string   `json:"note,omitempty"`

	Legal     *LegalRecord    `json:"legal,omitempty"`
	Corporate *CorporateTie   `json:"corporate,omitempty"`
	Social    *SocialProfile  `json:"social,omitempty"`
	Family    *FamilyMention  `json:"family,omitempty"`
	General   *GeneralMention `json:"general,omitempty"`
}

// LegalRecord is a lawsuit or court mention.
type LegalRecord struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Tribunal    string `json:"tribunal,omitempty"`
	ActionType  string `json:"action_type,omitempty"`
	CaseNumber  string `json:"case_number,omitempty"`
	Count       int    `json:"count,omitempty"`
	Summary     bool   `json:"summary,omitempty"`
	URL         string `json:"url,omitempty"`
}

// CorporateTie is a company registration or a business relationship.
type CorporateTie struct {
	Type         string `json:"type"`
	Company      string `json:"company"`
	CNPJ         string `json:"cnpj,omitempty"`
	Relationship string `json:"relationship,omitempty"`
	Details      string `json:"details,omitempty"`
	URL          string `json:"url,omitempty"`
}

// SocialProfile is a username found on a social platform URL.
type SocialProfile struct {
	Platform string `json:"platform"`
	Profile  string `json:"profile"`
	URL      string `json:"url,omitempty"`
	Status   string `json:"status"`
}

// FamilyMention is a result mentioning a kinship term.
type FamilyMention struct {
	Relation string `json:"relation"`
	Label    string `json:"label"`
	Context  string `json:"context"`
	URL      string `json:"url,omitempty"`
}

// MentionKind buckets general mentions.
type MentionKind string

const (
	MentionNews    MentionKind = "news"
	MentionSports  MentionKind = "sports"
	MentionGeneric MentionKind = "mention"
)

// GeneralMention is a verbatim search hit.
type GeneralMention struct {
	Kind    MentionKind `json:"kind"`
	Title   string      `json:"title"`
	Snippet string      `json:"snippet"`
	URL     string      `json:"url,omitempty"`
}

// NewLegal wraps a legal payload.
func NewLegal(source string, r LegalRecord) Finding {
	return Finding{Category: CategoryLegal, Source: source, Note: VerifyNote, Legal: &r}
}

// NewCorporate wraps a corporate payload.
func NewCorporate(source string, c CorporateTie) Finding {
	return Finding{Category: CategoryCorporate, Source: source, Note: VerifyNote, Corporate: &c}
}

// NewSocial wraps a social payload.
func NewSocial(source string, s SocialProfile) Finding {
	return Finding{Category: CategorySocial, Source: source, Note: VerifyNote, Social: &s}
}

// NewFamily wraps a family payload.
func NewFamily(source string, f FamilyMention) Finding {
	return Finding{Category: CategoryFamily, Source: source, Note: VerifyNote, Family: &f}
}

// NewGeneral wraps a general mention payload.
func NewGeneral(source string, g GeneralMention) Finding {
	return Finding{Category: CategoryGeneral, Source: source, Note: VerifyNote, General: &g}
}

// Valid reports whether exactly one payload is set and it matches Category.
func (f Finding) Valid() bool {
	set := 0
	var match bool
	if f.Legal != nil {
		set++
		match = f.Category == CategoryLegal
	}
	if f.Corporate != nil {
		set++
		match = f.Category == CategoryCorporate
	}
	if f.Social != nil {
		set++
		match = f.Category == CategorySocial
	}
	if f.Family != nil {
		set++
		match = f.Category == CategoryFamily
	}
	if f.General != nil {
		set++
		match = f.Category == CategoryGeneral
	}
	return set == 1 && match
}

// Findings groups classifier output per category.
type Findings struct {
	Legal     []Finding
	Corporate []Finding
	Social    []Finding
	Family    []Finding
	General   []Finding
}
