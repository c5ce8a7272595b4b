package model

import "time"

// Config holds the full runtime configuration. Every scoring weight,
// vocabulary, and risk set is injectable so tenants can tune signals and
// tests can exercise each signal in isolation.
type Config struct {
	OrgID      string `mapstructure:"org_id" yaml:"org_id"`
	FacilityID string `mapstructure:"facility_id" yaml:"facility_id"`

	Database    DatabaseConfig    `mapstructure:"database" yaml:"database"`
	Scoring     ScoringConfig     `mapstructure:"scoring" yaml:"scoring"`
	Risk        RiskConfig        `mapstructure:"risk" yaml:"risk"`
	Oracle      OracleConfig      `mapstructure:"oracle" yaml:"oracle"`
	Embedding   EmbeddingConfig   `mapstructure:"embedding" yaml:"embedding"`
	Concurrency ConcurrencyConfig `mapstructure:"concurrency" yaml:"concurrency"`
	Output      OutputConfig      `mapstructure:"output" yaml:"output"`
}

// DatabaseConfig points at the obligation/policy store.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// PenaltyTier maps a citation popularity threshold to a score factor.
// Tiers are evaluated highest threshold first; a citation shared by more
// than Above policies is multiplied by Factor.
type PenaltyTier struct {
	Above  int     `mapstructure:"above" yaml:"above"`
	Factor float64 `mapstructure:"factor" yaml:"factor"`
}

// ScoringConfig holds signal weights and caps for candidate matching.
type ScoringConfig struct {
	CitationExact   int           `mapstructure:"citation_exact" yaml:"citation_exact"`
	CitationSection int           `mapstructure:"citation_section" yaml:"citation_section"`
	PenaltyTiers    []PenaltyTier `mapstructure:"penalty_tiers" yaml:"penalty_tiers"`

	SubDomainMatch int `mapstructure:"sub_domain_match" yaml:"sub_domain_match"`

	KeywordBase    int `mapstructure:"keyword_base" yaml:"keyword_base"`
	KeywordBonus   int `mapstructure:"keyword_bonus" yaml:"keyword_bonus"`
	HighValueBonus int `mapstructure:"high_value_bonus" yaml:"high_value_bonus"`
	KeywordCap     int `mapstructure:"keyword_cap" yaml:"keyword_cap"`

	TitleBase  int `mapstructure:"title_base" yaml:"title_base"`
	TitleBonus int `mapstructure:"title_bonus" yaml:"title_bonus"`
	TitleCap   int `mapstructure:"title_cap" yaml:"title_cap"`

	VectorWeight    int     `mapstructure:"vector_weight" yaml:"vector_weight"`
	SimilarityFloor float64 `mapstructure:"similarity_floor" yaml:"similarity_floor"`
	VectorLimit     int     `mapstructure:"vector_limit" yaml:"vector_limit"`

	MinScore      int `mapstructure:"min_score" yaml:"min_score"`
	MaxCandidates int `mapstructure:"max_candidates" yaml:"max_candidates"`

	Vocabulary     []string `mapstructure:"vocabulary" yaml:"vocabulary"`
	HighValueTerms []string `mapstructure:"high_value_terms" yaml:"high_value_terms"`
}

// RiskConfig drives the deterministic escalation safety net.
type RiskConfig struct {
	HighRiskTopics []string `mapstructure:"high_risk_topics" yaml:"high_risk_topics"`
	SensitiveTerms []string `mapstructure:"sensitive_terms" yaml:"sensitive_terms"`
}

// OracleConfig configures the generative oracle client.
type OracleConfig struct {
	Provider          string        `mapstructure:"provider" yaml:"provider"`
	Model             string        `mapstructure:"model" yaml:"model"`
	APIKey            string        `mapstructure:"api_key" yaml:"api_key"`
	BaseURL           string        `mapstructure:"base_url" yaml:"base_url"`
	MaxTokens         int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryDelay        time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int           `mapstructure:"burst" yaml:"burst"`
}

// EmbeddingConfig configures the embedding service client.
type EmbeddingConfig struct {
	Model             string        `mapstructure:"model" yaml:"model"`
	APIKey            string        `mapstructure:"api_key" yaml:"api_key"`
	BaseURL           string        `mapstructure:"base_url" yaml:"base_url"`
	Dimensions        int           `mapstructure:"dimensions" yaml:"dimensions"`
	BatchSize         int           `mapstructure:"batch_size" yaml:"batch_size"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int           `mapstructure:"burst" yaml:"burst"`
}

// ConcurrencyConfig bounds batch processing and oracle context size.
type ConcurrencyConfig struct {
	Workers                   int `mapstructure:"workers" yaml:"workers"`
	MaxProvisionsPerCandidate int `mapstructure:"max_provisions_per_candidate" yaml:"max_provisions_per_candidate"`
}

// OutputConfig controls CLI output behavior.
type OutputConfig struct {
	Verbose bool   `mapstructure:"verbose" yaml:"verbose"`
	Format  string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// DefaultConfig returns the reference configuration. The weights and
// vocabularies match the production tuning for behavioral-health corpora.
func DefaultConfig() *Config {
	return &Config{
		OrgID: "ars",
		Scoring: ScoringConfig{
			CitationExact:   60,
			CitationSection: 40,
			PenaltyTiers: []PenaltyTier{
				{Above: 10, Factor: 0.3},
				{Above: 5, Factor: 0.5},
				{Above: 2, Factor: 0.75},
			},
			SubDomainMatch: 35,
			KeywordBase:    15,
			KeywordBonus:   10,
			HighValueBonus: 10,
			KeywordCap:     70,
			TitleBase:      10,
			TitleBonus:     12,
			TitleCap:       50,

			VectorWeight:    50,
			SimilarityFloor: 0.25,
			VectorLimit:     20,

			MinScore:      15,
			MaxCandidates: 12,

			Vocabulary:     DefaultVocabulary(),
			HighValueTerms: DefaultHighValueTerms(),
		},
		Risk: RiskConfig{
			HighRiskTopics: DefaultHighRiskTopics(),
			SensitiveTerms: DefaultSensitiveTerms(),
		},
		Oracle: OracleConfig{
			Provider:          "openai",
			Model:             "gpt-4o",
			MaxTokens:         1024,
			Timeout:           60 * time.Second,
			MaxRetries:        2,
			RetryDelay:        time.Second,
			RequestsPerSecond: 1,
			Burst:             2,
		},
		Embedding: EmbeddingConfig{
			Model:             "text-embedding-3-small",
			Dimensions:        1536,
			BatchSize:         20,
			CacheTTL:          15 * time.Minute,
			Timeout:           30 * time.Second,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Concurrency: ConcurrencyConfig{
			Workers:                   1, // sequential by default to bound cost and rate limits
			MaxProvisionsPerCandidate: 15,
		},
		Output: OutputConfig{Format: "text"},
	}
}

// DefaultVocabulary is the fixed domain-term vocabulary used by the keyword
// and title signals. Terms are matched case-insensitively as substrings.
func DefaultVocabulary() []string {
	return []string{
		"assessment", "biopsychosocial", "psychiatric", "evaluation", "screening",
		"treatment plan", "treatment planning", "individualized",
		"discharge", "discharge plan", "aftercare", "transition", "continuity",
		"consent", "informed consent", "voluntary", "involuntary",
		"confidential", "hipaa", "42 cfr", "privacy", "release of information",
		"medication", "prescri", "controlled substance", "narcotic", "formulary",
		"restraint", "seclusion", "grievance", "complaint", "patient rights", "rights",
		"abuse", "neglect", "reporting", "infection", "tuberculosis", "bloodborne", "exposure",
		"credentialing", "privileging", "scope of practice",
		"training", "competency", "orientation",
		"documentation", "clinical record", "medical record", "chart",
		"detox", "withdrawal", "ciwa", "cows",
		"group therapy", "individual therapy", "counseling",
		"mat", "buprenorphine", "methadone", "naloxone", "narcan",
		"safety plan", "suicide", "homicidal", "risk",
		"emergency", "disaster", "evacuation",
		"quality", "performance improvement", "outcome",
		"staffing", "caseload", "supervision",
		"admission", "intake", "referral",
		"transportation", "visitor", "phone", "mail",
		"fire", "safety", "hazardous",
		"laboratory", "specimen", "drug screen",
		"utilization", "length of stay", "asam",
		"governance", "bylaws", "ethics", "committee",
	}
}

// DefaultHighValueTerms is the subset of the vocabulary that earns an extra
// bonus: rare clinical or compliance jargon that strongly identifies a topic.
func DefaultHighValueTerms() []string {
	return []string{
		"biopsychosocial", "psychiatric", "ciwa", "cows", "involuntary",
		"restraint", "seclusion", "buprenorphine", "methadone", "naloxone",
		"tuberculosis", "bloodborne", "hipaa", "42 cfr", "asam",
		"credentialing", "privileging", "formulary", "narcotic",
		"grievance", "suicide", "homicidal", "discharge plan",
		"informed consent", "release of information", "controlled substance",
	}
}

// DefaultHighRiskTopics are obligation topic tags that mandate escalation
// when a low-confidence non-COVERED verdict comes back.
func DefaultHighRiskTopics() []string {
	return []string{
		"patient_rights", "consent", "confidential", "involuntary",
		"abuse", "neglect", "restraint", "seclusion", "medication_management",
		"controlled substance", "suicide", "reporting",
	}
}

// DefaultSensitiveTerms are requirement-text terms that mark an obligation
// high-risk regardless of its topic tags. Matched as whole words.
func DefaultSensitiveTerms() []string {
	return []string{
		"involuntary", "restraint", "seclusion", "abuse", "neglect",
		"confidential", "suicide", "controlled substance",
	}
}
