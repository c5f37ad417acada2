// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/resource-curator/internal/curate"
	"github.com/pdiddy/resource-curator/internal/generate"
	"github.com/pdiddy/resource-curator/internal/logger"
	"github.com/pdiddy/resource-curator/internal/search"
	"github.com/pdiddy/resource-curator/internal/secrets"
	"github.com/pdiddy/resource-curator/internal/store"
	"github.com/pdiddy/resource-curator/pkg/types"
)

// optionalKeys are omitted from the marshaled defaults but must still be
// known to viper so environment overrides reach them.
var optionalKeys = []string{
	"search.api_key",
	"search.file",
	"ai.api_key",
	"ai.base_url",
}

// configureEnv maps config keys to RESOURCE_CURATOR_* variables, so
// search.api_key reads RESOURCE_CURATOR_SEARCH_API_KEY.
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix("RESOURCE_CURATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// registerDefaults registers every key of types.DefaultConfig with v so
// that config files and RESOURCE_CURATOR_* variables can override any of
// them.
func registerDefaults(v *viper.Viper) error {
	data, err := yaml.Marshal(types.DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshaling defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("unmarshaling defaults: %w", err)
	}
	for key, val := range flatten("", tree) {
		v.SetDefault(key, val)
	}
	for _, key := range optionalKeys {
		if !v.IsSet(key) {
			v.SetDefault(key, "")
		}
	}
	return nil
}

func flatten(prefix string, tree map[string]any) map[string]any {
	out := make(map[string]any)
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			for sk, sv := range flatten(key, sub) {
				out[sk] = sv
			}
			continue
		}
		out[key] = val
	}
	return out
}

// decodeConfig unmarshals v into a Config and fills API keys still empty
// from s.
func decodeConfig(v *viper.Viper, s secrets.Secrets) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	s.Apply(&cfg)
	return cfg, nil
}

// env is what every command needs: the resolved configuration, a logger,
// and a context carrying that logger.
type env struct {
	cfg types.Config
	log *zap.Logger
	ctx context.Context
}

func setup(ctx context.Context) (*env, error) {
	cfg, err := decodeConfig(viper.GetViper(), loadedSecrets)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log.Env, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, ctx: logger.WithContext(ctx, log)}, nil
}

func (e *env) openStore() (*store.Store, error) {
	st, err := store.Open(e.cfg.Store)
	if err != nil {
		return nil, err
	}
	if !st.FullText() {
		e.log.Warn("full-text search unavailable, match queries use substring search")
	}
	return st, nil
}

// generator returns the configured text generator, or nil when generation
// is disabled or has no API key.
func (e *env) generator() generate.Generator {
	if !e.cfg.AI.Enabled {
		return nil
	}
	g, err := generate.New(e.cfg.AI)
	if err != nil {
		e.log.Warn("text generation disabled", zap.Error(err))
		return nil
	}
	return g
}

// searcher builds the search gateway over the configured provider chain.
func (e *env) searcher() (*search.Gateway, error) {
	p, err := search.NewProvider(e.cfg.Search)
	if err != nil {
		return nil, err
	}
	return search.NewGateway(p, nil, e.cfg.Search), nil
}

// curator wires a curation orchestrator over s and st.
func (e *env) curator(s curate.Searcher, st curate.Creator, gen generate.Generator) *curate.Orchestrator {
	var opts []curate.Option
	if gen != nil {
		opts = append(opts, curate.WithGenerator(gen))
	}
	return curate.New(s, st, e.cfg.Curation, opts...)
}
