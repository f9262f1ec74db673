package classify

import (
	"regexp"
	"strings"

	"github.com/verificapessoa/verificapessoa/internal/report"
)

// Rule maps a pattern onto a label. Tables of rules are scanned in order and
// the first match wins.
type Rule struct {
	Key     string
	Label   string
	Pattern *regexp.Regexp
}

// Match reports whether the rule fires on lower-cased text.
func (r Rule) Match(text string) bool { return r.Pattern.MatchString(text) }

// Words builds a rule matching any of words as whole words; with no words the
// key itself is the word. Words are compared against lower-cased text, so
// they must be lower case.
func Words(key, label string, words ...string) Rule {
	if len(words) == 0 {
		words = []string{key}
	}
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return Rule{
		Key:     key,
		Label:   label,
		Pattern: regexp.MustCompile(`(?:^|[^\p{L}\p{N}])(?:` + strings.Join(quoted, "|") + `)(?:$|[^\p{L}\p{N}])`),
	}
}

// FirstMatch returns the first rule of table matching text.
func FirstMatch(table []Rule, text string) (Rule, bool) {
	for _, r := range table {
		if r.Match(text) {
			return r, true
		}
	}
	return Rule{}, false
}

// Platform extracts usernames for one social site.
type Platform struct {
	Name string
	// Pattern captures the username in its first group.
	Pattern *regexp.Regexp
	// ProfileURL renders the canonical profile link.
	ProfileURL func(user string) string
}

// GeneralRule buckets a general mention by destination host or keyword.
type GeneralRule struct {
	Kind    report.MentionKind
	Domains []string
	Words   *Rule
}

// Relationship codes for corporate ties.
const (
	RelationshipPartner        = "partner"
	RelationshipAdministrator  = "administrator"
	RelationshipOwner          = "owner"
	RelationshipSoleProprietor = "sole_proprietor"
	RelationshipMentioned      = "mentioned"
)

// Rules holds every ordered table and cap the passes use.
type Rules struct {
	LegalTrigger      Rule
	Tribunals         []Rule
	ActionTypes       []Rule
	CorporateTrigger  Rule
	Relationships     []Rule
	Platforms         []Platform
	ReservedSegments  []string
	Kinship           []Rule
	General           []GeneralRule
	MaxCaseNumbers    int
	MaxLegalMentions  int
	MaxCNPJ           int
	MaxCorporateTies  int
	MaxPerPlatform    int
	MaxFamily         int
	MaxGeneral        int
	GeneralTitleLen   int
	GeneralSnippetLen int
}

var (
	processCountRe = regexp.MustCompile(`(?:^|[^\d.,/\-])(\d{1,3})\s+processos?(?:$|[^\p{L}])`)
	cnjRe          = regexp.MustCompile(`\d{7}-\d{2}\.\d{4}\.\d\.\d{2}\.\d{4}`)
	cnpjRe         = regexp.MustCompile(`\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}`)
)

// profileSegment is the prefix every platform pattern shares: a host boundary
// followed by an optional subdomain.
const profileSegment = `(?:^|[^a-z0-9.\-])(?:[a-z0-9\-]+\.)?`

// DefaultRules returns fresh copies of the built-in tables.
func DefaultRules() Rules {
	return Rules{
		LegalTrigger: Words("legal", "Menção judicial",
			"processo", "processos", "ação", "ações", "tribunal", "sentença", "recurso",
			"vara", "réu", "ré", "autor", "jusbrasil", "escavador"),
		Tribunals: []Rule{
			{Key: "tj", Pattern: regexp.MustCompile(`(?:^|[^a-z])(tj[a-z]{2,3})(?:$|[^a-z])|tribunal de justiça`)},
			{Key: "trt", Pattern: regexp.MustCompile(`(?:^|[^a-z])(trt[\s\-]?\d{0,2})(?:$|[^a-z0-9])|tribunal regional do trabalho`)},
			{Key: "trf", Pattern: regexp.MustCompile(`(?:^|[^a-z])(trf[\s\-]?\d?)(?:$|[^a-z0-9])|tribunal regional federal`)},
			{Key: "stj", Label: "STJ", Pattern: regexp.MustCompile(`(?:^|[^a-z])stj(?:$|[^a-z])|superior tribunal de justiça`)},
			{Key: "stf", Label: "STF", Pattern: regexp.MustCompile(`(?:^|[^a-z])stf(?:$|[^a-z])|supremo tribunal federal`)},
		},
		ActionTypes: []Rule{
			Words("trabalhista", "Trabalhista", "trabalhista", "reclamação trabalhista", "reclamatória"),
			Words("criminal", "Criminal", "criminal", "penal", "crime", "inquérito"),
			Words("civel", "Cível", "cível", "civel", "indenização", "danos morais"),
			Words("execucao_fiscal", "Execução fiscal", "execução fiscal", "dívida ativa"),
			Words("familia", "Família", "família", "divórcio", "alimentos", "guarda"),
		},
		CorporateTrigger: Words("corporate", "Vínculo empresarial",
			"cnpj", "empresa", "empresas", "sócio", "sócia", "sócios", "mei", "ltda", "eireli",
			"administrador", "administradora", "proprietário", "proprietária"),
		Relationships: []Rule{
			Words(RelationshipPartner, "Sócio(a)", "sócio", "sócia", "sócios", "quadro societário"),
			Words(RelationshipAdministrator, "Administrador(a)", "administrador", "administradora"),
			Words(RelationshipOwner, "Proprietário(a)", "proprietário", "proprietária", "dono", "dona"),
			Words(RelationshipSoleProprietor, "Empresário individual", "mei", "eireli", "empresário individual"),
		},
		Platforms: []Platform{
			{
				Name:       "LinkedIn",
				Pattern:    regexp.MustCompile(profileSegment + `linkedin\.com/in/([a-z0-9\-_%]+)`),
				ProfileURL: func(u string) string { return "https://www.linkedin.com/in/" + u },
			},
			{
				Name:       "Facebook",
				Pattern:    regexp.MustCompile(profileSegment + `facebook\.com/([a-z0-9.\-_]+)`),
				ProfileURL: func(u string) string { return "https://www.facebook.com/" + u },
			},
			{
				Name:       "Instagram",
				Pattern:    regexp.MustCompile(profileSegment + `instagram\.com/([a-z0-9._]+)`),
				ProfileURL: func(u string) string { return "https://www.instagram.com/" + u },
			},
			{
				Name:       "Twitter/X",
				Pattern:    regexp.MustCompile(profileSegment + `(?:twitter|x)\.com/([a-z0-9_]+)`),
				ProfileURL: func(u string) string { return "https://x.com/" + u },
			},
		},
		ReservedSegments: []string{
			"groups", "pages", "explore", "p", "reel", "reels", "watch", "share", "login",
			"hashtag", "search", "intent", "home", "events", "marketplace", "profile.php",
			"stories", "accounts", "i", "people", "public", "sharer", "sharer.php", "share.php",
			"photo.php", "tv", "plugins", "dialog", "help", "policies", "about", "legal",
			"privacy", "settings", "directory",
		},
		Kinship: []Rule{
			Words("filho", "Filho"),
			Words("filha", "Filha"),
			Words("pai", "Pai"),
			Words("mãe", "Mãe"),
			Words("esposa", "Esposa"),
			Words("esposo", "Esposo"),
			Words("marido", "Marido"),
			Words("irmão", "Irmão"),
			Words("irmã", "Irmã"),
			Words("cônjuge", "Cônjuge"),
			Words("neto", "Neto"),
			Words("neta", "Neta"),
			Words("avô", "Avô"),
			Words("avó", "Avó"),
		},
		General: []GeneralRule{
			{
				Kind: report.MentionNews,
				Domains: []string{
					"g1.globo.com", "folha.uol.com.br", "estadao.com.br", "uol.com.br", "r7.com",
					"terra.com.br", "cnnbrasil.com.br", "metropoles.com", "gazetadopovo.com.br",
					"correiobraziliense.com.br", "band.uol.com.br",
				},
			},
			{
				Kind:    report.MentionSports,
				Domains: []string{"ge.globo.com", "lance.com.br"},
				Words:   ptr(Words("sports", "Esporte", "futebol", "campeonato", "atleta", "esporte", "esportes")),
			},
		},
		MaxCaseNumbers:    10,
		MaxLegalMentions:  10,
		MaxCNPJ:           10,
		MaxCorporateTies:  10,
		MaxPerPlatform:    5,
		MaxFamily:         8,
		MaxGeneral:        30,
		GeneralTitleLen:   150,
		GeneralSnippetLen: 300,
	}
}

// WithDomains returns a copy of r whose general rule for kind also matches
// domains. A kind with no rule gets a new one appended.
func (r Rules) WithDomains(kind report.MentionKind, domains ...string) Rules {
	if len(domains) == 0 {
		return r
	}
	general := make([]GeneralRule, len(r.General))
	copy(general, r.General)
	for i := range general {
		if general[i].Kind == kind {
			general[i].Domains = append(append([]string(nil), general[i].Domains...), domains...)
			r.General = general
			return r
		}
	}
	r.General = append(general, GeneralRule{Kind: kind, Domains: domains})
	return r
}

func ptr[T any](v T) *T { return &v }
