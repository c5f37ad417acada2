// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by clients that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds 429 retries in httputil.DoWithRetry. Zero uses the default.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// SearchProviderKind selects the search provider implementation.
type SearchProviderKind string

const (
	ProviderTavily     SearchProviderKind = "tavily"
	ProviderDuckDuckGo SearchProviderKind = "duckduckgo"
	ProviderFile       SearchProviderKind = "file"
)

// SearchConfig holds settings for the search gateway.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Provider selects tavily, duckduckgo, or file.
	Provider SearchProviderKind `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Fallback is tried when Provider fails. Empty disables fallback.
	Fallback SearchProviderKind `json:"fallback,omitempty" yaml:"fallback,omitempty" mapstructure:"fallback"`

	// BaseURL is the provider endpoint (default https://api.tavily.com).
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// APIKey authenticates against the provider. Empty means unconfigured.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// File is the JSON hit file used by the file provider.
	File string `json:"file,omitempty" yaml:"file,omitempty" mapstructure:"file"`

	// Qualifier is appended to every query to bias results toward teaching content.
	Qualifier string `json:"qualifier" yaml:"qualifier" mapstructure:"qualifier"`

	// MaxResults is the result cap requested from the provider (default 8).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// KeepTop is the number of hits kept after filtering and ranking (default 5).
	KeepTop int `json:"keep_top" yaml:"keep_top" mapstructure:"keep_top"`

	// ContentCap truncates each hit's content, in runes (default 800).
	ContentCap int `json:"content_cap" yaml:"content_cap" mapstructure:"content_cap"`

	// IncludeDomains and ExcludeDomains are passed to the provider.
	IncludeDomains []string `json:"include_domains" yaml:"include_domains" mapstructure:"include_domains"`
	ExcludeDomains []string `json:"exclude_domains" yaml:"exclude_domains" mapstructure:"exclude_domains"`
}

// AIConfig holds settings for the text-generation collaborator.
type AIConfig struct {
	// Enabled turns on report polishing and exercise generation.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// BaseURL points at any OpenAI-compatible endpoint. Empty uses the OpenAI default.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// Model is the chat model identifier.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Temperature is the sampling temperature.
	Temperature float32 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`

	// MaxTokens caps the completion length. Zero leaves it to the server.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// Timeout bounds one completion call.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// MaxRetries is the number of retries after a failed completion (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// StoreConfig holds settings for the SQLite resource store.
type StoreConfig struct {
	// Path is the database file path.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// DefaultPageSize applies when a caller omits page_size (default 10).
	DefaultPageSize int `json:"default_page_size" yaml:"default_page_size" mapstructure:"default_page_size"`

	// MaxPageSize caps page_size (default 100).
	MaxPageSize int `json:"max_page_size" yaml:"max_page_size" mapstructure:"max_page_size"`

	// ExportDir is where export writes resources.yaml / resources.json.
	ExportDir string `json:"export_dir" yaml:"export_dir" mapstructure:"export_dir"`
}

// CurationConfig holds thresholds for the curation pipeline.
type CurationConfig struct {
	// DirectFragmentCap caps fragment content in direct mode, in runes (default 600).
	DirectFragmentCap int `json:"direct_fragment_cap" yaml:"direct_fragment_cap" mapstructure:"direct_fragment_cap"`

	// ReportFragmentCap caps fragment content in report mode, in runes (default 500).
	ReportFragmentCap int `json:"report_fragment_cap" yaml:"report_fragment_cap" mapstructure:"report_fragment_cap"`

	// DirectMinChars is the minimum extracted length kept in direct mode (default 20).
	DirectMinChars int `json:"direct_min_chars" yaml:"direct_min_chars" mapstructure:"direct_min_chars"`

	// ReportMinChars is the extracted length a fragment must exceed in report mode (default 50).
	ReportMinChars int `json:"report_min_chars" yaml:"report_min_chars" mapstructure:"report_min_chars"`

	// ReportSources is the number of fragments merged into a report (default 3).
	ReportSources int `json:"report_sources" yaml:"report_sources" mapstructure:"report_sources"`

	// ReportReferences is the number of URLs in a report's reference list (default 5).
	ReportReferences int `json:"report_references" yaml:"report_references" mapstructure:"report_references"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `json:"addr" yaml:"addr" mapstructure:"addr"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Env selects the zap preset: prod, dev, or local.
	Env string `json:"env" yaml:"env" mapstructure:"env"`

	// Level overrides the preset level: debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`
}

// Config groups all settings for the resource-curator binary.
type Config struct {
	Search   SearchConfig   `json:"search" yaml:"search" mapstructure:"search"`
	AI       AIConfig       `json:"ai" yaml:"ai" mapstructure:"ai"`
	Store    StoreConfig    `json:"store" yaml:"store" mapstructure:"store"`
	Curation CurationConfig `json:"curation" yaml:"curation" mapstructure:"curation"`
	Server   ServerConfig   `json:"server" yaml:"server" mapstructure:"server"`
	Log      LogConfig      `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultConfig returns the configuration used when no file or env
// override is present.
func DefaultConfig() Config {
	return Config{
		Search: SearchConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   10 * time.Second,
				UserAgent: "resource-curator/0.1",
			},
			Provider:   ProviderTavily,
			Fallback:   ProviderDuckDuckGo,
			BaseURL:    "https://api.tavily.com",
			Qualifier:  "教学 教案 课程",
			MaxResults: 8,
			KeepTop:    5,
			ContentCap: 800,
			IncludeDomains: []string{
				"edu.cn", "jianshu.com", "zhihu.com", "bilibili.com",
				"xuexi.cn", "baidu.com", "sohu.com", "163.com",
				"teachermate.cn", "zxxk.com",
			},
			ExcludeDomains: []string{"github.com", "stackoverflow.com", "csdn.net"},
		},
		AI: AIConfig{
			Model:       "glm-4",
			Temperature: 0.7,
			MaxTokens:   2048,
			Timeout:     60 * time.Second,
			MaxRetries:  2,
		},
		Store: StoreConfig{
			Path:            "data/resources.db",
			DefaultPageSize: 10,
			MaxPageSize:     100,
			ExportDir:       "data/export",
		},
		Curation: CurationConfig{
			DirectFragmentCap: 600,
			ReportFragmentCap: 500,
			DirectMinChars:    20,
			ReportMinChars:    50,
			ReportSources:     3,
			ReportReferences:  5,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Env:   "dev",
			Level: "info",
		},
	}
}
