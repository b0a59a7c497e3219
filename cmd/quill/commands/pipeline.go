package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/quill/internal/logger"
	"github.com/jmylchreest/quill/pkg/fetcher"
	"github.com/jmylchreest/quill/pkg/links"
	"github.com/jmylchreest/quill/pkg/llm"
	"github.com/jmylchreest/quill/pkg/quill"
	"github.com/jmylchreest/quill/pkg/store"
)

// Viper keys bound to the flags of each command. Several commands share
// flag names, so binding happens when a command runs.
var (
	pipelineKeys = map[string]string{
		"store.path":           "db",
		"store.base_url":       "base-url",
		"links.file":           "links",
		"links.verify":         "verify-links",
		"links.verify_timeout": "verify-timeout",
		"links.llm":            "llm-links",
		"format":               "format",
		"concurrency":          "concurrency",
	}
	providerKeys = map[string]string{
		"llm.provider": "provider",
		"llm.model":    "model",
		"llm.api_key":  "api-key",
		"llm.base_url": "llm-base-url",
	}
)

// bindFlags binds the flags cmd defines to their viper keys.
func bindFlags(cmd *cobra.Command, keys ...map[string]string) error {
	for _, m := range keys {
		for key, name := range m {
			f := cmd.Flags().Lookup(name)
			if f == nil {
				continue
			}
			if err := viper.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// addPipelineFlags registers the flags shared by the commands that run the
// pipeline.
func addPipelineFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.String("db", "", "SQLite store path; its documents become internal link candidates")
	flags.String("base-url", "", "base URL of published documents (e.g. https://blog.example.com/posts/)")
	flags.String("links", "", "YAML file of link candidates keyed by kind (internal, external, promotional)")
	flags.Bool("verify-links", false, "drop link candidates whose URL does not answer with 2xx/3xx")
	flags.Duration("verify-timeout", 10*time.Second, "timeout of each link check")
	flags.Bool("llm-links", false, "ask the LLM provider for external link candidates")

	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.StringP("format", "f", "json", "output format: json, jsonl, yaml, markdown, html")
	flags.Bool("standalone", false, "with --format html, write a complete page per document")
	flags.IntP("concurrency", "c", 4, "documents processed at once")
}

// addProviderFlags registers the LLM provider flags.
func addProviderFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringP("provider", "p", "", "LLM provider: anthropic, openai, openrouter, ollama (auto-detects from env vars)")
	flags.StringP("model", "m", "", "model name (provider-specific)")
	flags.StringP("api-key", "k", "", "API key (or use env var)")
	flags.String("llm-base-url", "", "custom API base URL")
}

// loadPipelineConfig decodes the pipeline section of the config file over
// the defaults. Fields the file leaves out keep their default values.
func loadPipelineConfig() (quill.Config, error) {
	cfg := quill.DefaultConfig()
	section := viper.Get("pipeline")
	if section == nil {
		return cfg, nil
	}
	if err := decodeSection(section, &cfg); err != nil {
		return cfg, fmt.Errorf("pipeline config: %w", err)
	}
	return cfg, nil
}

// decodeSection re-encodes a viper section as YAML and decodes it into out
// so the config structs' yaml tags apply.
func decodeSection(section any, out any) error {
	data, err := yaml.Marshal(section)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

// candidateFile is the format of the --links file.
type candidateFile map[links.Kind][]links.Candidate

func loadCandidates(path string) (candidateFile, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- CLI tool reads user-specified file
	if err != nil {
		return nil, err
	}
	var cf candidateFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for kind := range cf {
		if kind != links.Internal && kind != links.External && kind != links.Promotional {
			return nil, fmt.Errorf("%s: %w: %q", path, links.ErrUnknownKind, kind)
		}
	}
	return cf, nil
}

// newProvider builds the LLM provider from flags, config and environment.
func newProvider() (llm.Provider, error) {
	name := viper.GetString("llm.provider")
	if name == "" {
		name = llm.DetectProvider()
	}

	cfg := llm.DefaultProviderConfig()
	cfg.Model = viper.GetString("llm.model")
	cfg.APIKey = viper.GetString("llm.api_key")
	cfg.BaseURL = viper.GetString("llm.base_url")

	p, err := llm.NewProvider(name, cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("llm provider ready", "provider", p.Name(), "model", p.Model())
	return p, nil
}

// openStore opens the store at store.path, or returns nil when none is set.
func openStore() (*store.Store, error) {
	path := viper.GetString("store.path")
	if path == "" {
		return nil, nil
	}
	if path == "~" || len(path) > 1 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, path[1:])
	}

	s, err := store.Open(path,
		store.WithMkdirAll(),
		store.WithBaseURL(viper.GetString("store.base_url")),
	)
	if err != nil {
		return nil, err
	}
	logger.Debug("store opened", "path", path)
	return s, nil
}

// pipelineEnv holds a pipeline and what must be closed after it.
type pipelineEnv struct {
	pipeline *quill.Pipeline
	store    *store.Store
}

func (e *pipelineEnv) Close() error {
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}

var errNoProvider = errors.New("an LLM provider is required")

// buildPipeline wires the pipeline from config, flags and the optional
// provider. A nil provider disables generation and --llm-links.
func buildPipeline(provider llm.Provider) (*pipelineEnv, error) {
	cfg, err := loadPipelineConfig()
	if err != nil {
		return nil, err
	}
	opts := []quill.Option{quill.WithConfig(cfg)}

	sources := map[links.Kind]links.Source{}
	if path := viper.GetString("links.file"); path != "" {
		cf, err := loadCandidates(path)
		if err != nil {
			return nil, err
		}
		for kind, cands := range cf {
			sources[kind] = links.NewStaticSource(cands...)
		}
		logger.Debug("link candidates loaded", "path", path, "kinds", len(cf))
	}

	if viper.GetBool("links.llm") {
		if provider == nil {
			return nil, fmt.Errorf("--llm-links: %w", errNoProvider)
		}
		sources[links.External] = llm.NewLinkSource(provider)
	}

	if viper.GetBool("links.verify") {
		fcfg := fetcher.DefaultStaticConfig()
		if d := viper.GetDuration("links.verify_timeout"); d > 0 {
			fcfg.Timeout = d
		}
		checker := fetcher.NewStatic(fcfg)
		for kind, src := range sources {
			sources[kind] = &links.VerifiedSource{Source: src, Checker: checker, Concurrency: 4}
		}
	}

	for kind, src := range sources {
		opts = append(opts, quill.WithLinkSource(kind, src))
	}

	env := &pipelineEnv{}
	s, err := openStore()
	if err != nil {
		return nil, err
	}
	if s != nil {
		env.store = s
		opts = append(opts, quill.WithStore(s))
		if _, ok := sources[links.Internal]; !ok && viper.GetString("store.base_url") == "" {
			logger.Warn("store has no --base-url, internal links from stored documents are disabled")
		}
	}

	if provider != nil {
		gen, err := llm.NewGenerator(provider, nil)
		if err != nil {
			_ = env.Close()
			return nil, err
		}
		opts = append(opts, quill.WithGenerator(gen))
	}

	p, err := quill.New(opts...)
	if err != nil {
		_ = env.Close()
		return nil, err
	}
	env.pipeline = p
	return env, nil
}
