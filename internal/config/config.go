package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrConfiguration marks a configuration that cannot drive an analysis run.
var ErrConfiguration = errors.New("configuration error")

// Config is the top-level promptlens configuration.
type Config struct {
	CursorStorage string         `mapstructure:"cursor_storage" yaml:"cursor_storage" json:"cursor_storage"`
	TrackerFile   string         `mapstructure:"tracker_file" yaml:"tracker_file" json:"tracker_file"`
	OutputDir     string         `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
	HistoryDB     string         `mapstructure:"history_db" yaml:"history_db" json:"history_db"`
	Categories    []CategoryRule `mapstructure:"categories" yaml:"categories" json:"categories"`
	Scoring       Scoring        `mapstructure:"scoring" yaml:"scoring" json:"scoring"`
	Analysis      Analysis       `mapstructure:"analysis" yaml:"analysis" json:"analysis"`
	Output        Output         `mapstructure:"output" yaml:"output" json:"output"`
}

// CategoryRule is one row of the classifier's trigger table.
type CategoryRule struct {
	Name       string   `mapstructure:"name" yaml:"name" json:"name"`
	Triggers   []string `mapstructure:"triggers" yaml:"triggers,omitempty" json:"triggers,omitempty"`
	WholeWords []string `mapstructure:"whole_words" yaml:"whole_words,omitempty" json:"whole_words,omitempty"`
}

// Scoring defines the complexity scorer's factor weights and parameters.
type Scoring struct {
	Weights            map[string]float64 `mapstructure:"weights" yaml:"weights" json:"weights"`
	SaturationWords    int                `mapstructure:"saturation_words" yaml:"saturation_words" json:"saturation_words"`
	DensityScale       float64            `mapstructure:"density_scale" yaml:"density_scale" json:"density_scale"`
	ResponseSaturation int                `mapstructure:"response_saturation" yaml:"response_saturation" json:"response_saturation"`
	CategoryBonus      map[string]float64 `mapstructure:"category_bonus" yaml:"category_bonus" json:"category_bonus"`
	TechnicalTerms     []string           `mapstructure:"technical_terms" yaml:"technical_terms" json:"technical_terms"`
}

// Analysis holds engine settings.
type Analysis struct {
	Timezone      string `mapstructure:"timezone" yaml:"timezone" json:"timezone"`
	HistogramBins int    `mapstructure:"histogram_bins" yaml:"histogram_bins" json:"histogram_bins"`
	Parallelism   int    `mapstructure:"parallelism" yaml:"parallelism" json:"parallelism"`
	CountTokens   bool   `mapstructure:"count_tokens" yaml:"count_tokens" json:"count_tokens"`
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color" yaml:"color" json:"color"`
	Width int  `mapstructure:"width" yaml:"width" json:"width"`
}

// Default returns a Config populated with every default. The returned value
// shares nothing with the package-level defaults.
func Default() *Config {
	cfg := &Config{
		CursorStorage: DefaultCursorStorage(),
		TrackerFile:   expandPath(DefaultTrackerFile),
		OutputDir:     DefaultOutputDir,
		HistoryDB:     expandPath(DefaultHistoryDB),
		Analysis:      DefaultAnalysis,
		Output:        DefaultOutput,
	}
	for _, c := range DefaultCategories {
		cfg.Categories = append(cfg.Categories, CategoryRule{
			Name:       c.Name,
			Triggers:   append([]string(nil), c.Triggers...),
			WholeWords: append([]string(nil), c.WholeWords...),
		})
	}
	cfg.Scoring = Scoring{
		Weights:            copyWeights(DefaultScoring.Weights),
		SaturationWords:    DefaultScoring.SaturationWords,
		DensityScale:       DefaultScoring.DensityScale,
		ResponseSaturation: DefaultScoring.ResponseSaturation,
		CategoryBonus:      copyWeights(DefaultScoring.CategoryBonus),
		TechnicalTerms:     append([]string(nil), DefaultScoring.TechnicalTerms...),
	}
	return cfg
}

func copyWeights(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// DefaultCursorStorage returns Cursor's workspaceStorage directory for the
// current platform.
func DefaultCursorStorage() string {
	switch runtime.GOOS {
	case "windows":
		if appdata := os.Getenv("APPDATA"); appdata != "" {
			return filepath.Join(appdata, "Cursor", "User", "workspaceStorage")
		}
		return expandPath("~/AppData/Roaming/Cursor/User/workspaceStorage")
	case "darwin":
		return expandPath("~/Library/Application Support/Cursor/User/workspaceStorage")
	default:
		return expandPath("~/.config/Cursor/User/workspaceStorage")
	}
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location),
// applies defaults and PROMPTLENS_* environment overrides, and validates
// the result. A configuration that fails validation is returned as an
// error wrapping ErrConfiguration.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	def := Default()

	v.SetDefault("cursor_storage", def.CursorStorage)
	v.SetDefault("tracker_file", def.TrackerFile)
	v.SetDefault("output_dir", def.OutputDir)
	v.SetDefault("history_db", def.HistoryDB)
	v.SetDefault("categories", def.Categories)
	for name, w := range def.Scoring.Weights {
		v.SetDefault("scoring.weights."+name, w)
	}
	v.SetDefault("scoring.saturation_words", def.Scoring.SaturationWords)
	v.SetDefault("scoring.density_scale", def.Scoring.DensityScale)
	v.SetDefault("scoring.response_saturation", def.Scoring.ResponseSaturation)
	for name, b := range def.Scoring.CategoryBonus {
		v.SetDefault("scoring.category_bonus."+name, b)
	}
	v.SetDefault("scoring.technical_terms", def.Scoring.TechnicalTerms)
	v.SetDefault("analysis.timezone", def.Analysis.Timezone)
	v.SetDefault("analysis.histogram_bins", def.Analysis.HistogramBins)
	v.SetDefault("analysis.parallelism", def.Analysis.Parallelism)
	v.SetDefault("analysis.count_tokens", def.Analysis.CountTokens)
	v.SetDefault("output.color", def.Output.Color)
	v.SetDefault("output.width", def.Output.Width)

	v.SetEnvPrefix("PROMPTLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(expandPath(DefaultConfigDir))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Read config file if it exists; missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.CursorStorage = expandPath(cfg.CursorStorage)
	cfg.TrackerFile = expandPath(cfg.TrackerFile)
	cfg.OutputDir = expandPath(cfg.OutputDir)
	cfg.HistoryDB = expandPath(cfg.HistoryDB)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the classifier and scorer can run with cfg. Every
// problem found is reported in a single error wrapping ErrConfiguration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: no configuration", ErrConfiguration)
	}
	var problems []string

	seen := make(map[string]bool, len(cfg.Categories))
	for i, c := range cfg.Categories {
		name := strings.ToLower(strings.TrimSpace(c.Name))
		switch {
		case name == "":
			problems = append(problems, fmt.Sprintf("category #%d has no name", i+1))
			continue
		case name == GeneralCategory:
			problems = append(problems, fmt.Sprintf("category %q is reserved for uncategorized prompts", GeneralCategory))
		case seen[name]:
			problems = append(problems, fmt.Sprintf("category %q defined twice", name))
		case countTriggers(c) == 0:
			problems = append(problems, fmt.Sprintf("category %q has no triggers", name))
		}
		seen[name] = true
	}
	for _, name := range RequiredCategories {
		if !seen[name] {
			problems = append(problems, fmt.Sprintf("required category %q missing", name))
		}
	}

	var total float64
	for _, name := range RequiredWeights {
		if _, ok := cfg.Scoring.Weights[name]; !ok {
			problems = append(problems, fmt.Sprintf("required weight %q missing", name))
		}
	}
	names := make([]string, 0, len(cfg.Scoring.Weights))
	for name := range cfg.Scoring.Weights {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		w := cfg.Scoring.Weights[name]
		if !knownFactor(name) {
			problems = append(problems, fmt.Sprintf("unknown weight %q", name))
			continue
		}
		if w < 0 {
			problems = append(problems, fmt.Sprintf("weight %q is negative", name))
			continue
		}
		total += w
	}
	if total <= 0 {
		problems = append(problems, "scoring weights sum to zero")
	}
	if cfg.Scoring.SaturationWords <= 0 {
		problems = append(problems, "scoring.saturation_words must be positive")
	}
	if cfg.Scoring.DensityScale <= 0 {
		problems = append(problems, "scoring.density_scale must be positive")
	}
	if cfg.Scoring.Weights[FactorResponse] > 0 && cfg.Scoring.ResponseSaturation <= 0 {
		problems = append(problems, "scoring.response_saturation must be positive when the response factor is weighted")
	}

	if cfg.Analysis.HistogramBins <= 0 || cfg.Analysis.HistogramBins > 100 {
		problems = append(problems, "analysis.histogram_bins must be between 1 and 100")
	}
	if cfg.Analysis.Parallelism < 0 {
		problems = append(problems, "analysis.parallelism must not be negative")
	}
	if _, err := time.LoadLocation(cfg.Analysis.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("analysis.timezone %q: %v", cfg.Analysis.Timezone, err))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrConfiguration, strings.Join(problems, "; "))
	}
	return nil
}

// Location returns the time zone used for day bucketing. Validate has
// already rejected unknown zones, so failures fall back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Analysis.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func countTriggers(c CategoryRule) int {
	n := 0
	for _, t := range append(append([]string(nil), c.Triggers...), c.WholeWords...) {
		if strings.TrimSpace(t) != "" {
			n++
		}
	}
	return n
}

func knownFactor(name string) bool {
	switch name {
	case FactorLength, FactorTechnical, FactorStructure, FactorCategory, FactorResponse:
		return true
	}
	return false
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}
