package model

// Policy is an internal organizational policy document. Citations split
// into two families: state regulatory rules and accreditation standards.
// The lists are unique per policy; ordering carries no meaning.
type Policy struct {
	ID              string   `json:"id"`
	PolicyNumber    string   `json:"policy_number"` // e.g. "CL-204"
	Title           string   `json:"title"`
	Domain          string   `json:"domain"`
	SubDomain       string   `json:"sub_domain,omitempty"`
	StateCitations  []string `json:"state_citations,omitempty"`
	AccredCitations []string `json:"accred_citations,omitempty"`
}

// Citations returns the combined citation list across citation families.
func (p Policy) Citations() []string {
	out := make([]string, 0, len(p.StateCitations)+len(p.AccredCitations))
	out = append(out, p.StateCitations...)
	out = append(out, p.AccredCitations...)
	return out
}

// Provision is a discrete rule sentence extracted from a policy document.
// Embedding may be nil when the provision has not been indexed yet.
type Provision struct {
	ID        string    `json:"id"`
	PolicyID  string    `json:"policy_id"`
	Text      string    `json:"text"`
	Section   string    `json:"section,omitempty"`
	Keywords  []string  `json:"keywords,omitempty"`
	Embedding []float32 `json:"-"`
}

// SubDomainLabel maps a policy sub-domain to the obligation-text keywords
// that signal affinity with it.
type SubDomainLabel struct {
	Prefix           string   `json:"prefix"` // sub-domain identifier, e.g. "CL-MED"
	Description      string   `json:"description,omitempty"`
	AffinityKeywords []string `json:"affinity_keywords"`
}
