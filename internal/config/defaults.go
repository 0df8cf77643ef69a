// Package config provides configuration loading, defaults and validation
// for promptlens.
package config

// DefaultConfigDir is the default location for promptlens configuration.
const DefaultConfigDir = "~/.config/promptlens"

// DefaultConfigFile is the filename for the YAML config.
const DefaultConfigFile = "config.yaml"

// DefaultOutputDir is where reports and chart series are written.
const DefaultOutputDir = "analysis_results"

// DefaultHistoryDB records one row per analysis run.
const DefaultHistoryDB = "~/.config/promptlens/history.db"

// DefaultTrackerFile is the manual tracker's project store.
const DefaultTrackerFile = "~/cursor_tracker_data/projects.json"

// GeneralCategory is the label reported for prompts without any explicit
// category. It is reserved and cannot carry triggers.
const GeneralCategory = "general"

// RequiredCategories must be present in every category table.
var RequiredCategories = []string{"code", "explanation", "debugging", "feature", "refactoring"}

// Scoring factor names.
const (
	FactorLength    = "length"
	FactorTechnical = "technical"
	FactorStructure = "structure"
	FactorCategory  = "category"
	FactorResponse  = "response"
)

// RequiredWeights must each be present in the scoring weights.
var RequiredWeights = []string{FactorLength, FactorTechnical, FactorStructure, FactorCategory}

// DefaultCategories is the trigger table. Substring triggers match anywhere;
// whole-word triggers are short or ambiguous and must sit on word boundaries
// ("add" must not match "address").
var DefaultCategories = []CategoryRule{
	{
		Name: "code",
		Triggers: []string{
			"function", "class", "implement", "code", "python", "javascript",
			"typescript", "html", "css", "syntax", "compile",
		},
		WholeWords: []string{"bug", "fix", "error", "go", "sql"},
	},
	{
		Name: "explanation",
		Triggers: []string{
			"explain", "how does", "what is", "what does", "describe",
			"tell me about", "why does",
		},
	},
	{
		Name: "debugging",
		Triggers: []string{
			"debug", "error", "issue", "problem", "not working", "crash",
			"exception", "stack trace", "traceback", "broken",
		},
		WholeWords: []string{"fix", "fails", "bug"},
	},
	{
		Name:       "feature",
		Triggers:   []string{"feature", "implement", "create", "develop", "build a", "new"},
		WholeWords: []string{"add", "support"},
	},
	{
		Name: "refactoring",
		Triggers: []string{
			"refactor", "improve", "optimize", "clean up", "cleanup",
			"simplify", "restructure", "rename",
		},
		WholeWords: []string{"better"},
	},
}

// DefaultScoring holds the complexity scorer parameters.
var DefaultScoring = Scoring{
	Weights: map[string]float64{
		FactorLength:    35,
		FactorTechnical: 25,
		FactorStructure: 25,
		FactorCategory:  15,
		FactorResponse:  0,
	},
	SaturationWords:    200,
	DensityScale:       4,
	ResponseSaturation: 4000,
	CategoryBonus: map[string]float64{
		"debugging":   1.0,
		"refactoring": 1.0,
		"feature":     0.5,
		"code":        0.5,
		"explanation": 0.25,
	},
	TechnicalTerms: []string{
		"function", "algorithm", "implementation", "architecture", "design",
		"interface", "module", "class", "inheritance", "polymorphism",
		"database", "query", "optimization", "complexity", "asynchronous",
		"async", "await", "concurrency", "thread", "goroutine", "process",
		"memory", "cache", "framework", "library", "api", "integration",
		"deployment", "endpoint", "schema", "migration", "exception", "error",
		"stacktrace", "null", "nil", "pointer", "regex", "json", "sql",
		"http", "docker", "kubernetes", "compiler", "runtime", "dependency",
		"refactor", "test", "mock", "struct", "type", "variable", "method",
	},
}

// DefaultAnalysis holds engine defaults.
var DefaultAnalysis = Analysis{
	Timezone:      "UTC",
	HistogramBins: 20,
	Parallelism:   4,
	CountTokens:   false,
}

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: true,
	Width: 80,
}
