package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hairizuanbinnoorazman/validation-agent/llm"
	"github.com/hairizuanbinnoorazman/validation-agent/logger"
	"github.com/hairizuanbinnoorazman/validation-agent/scenario"
	"github.com/tidwall/gjson"
)

// EnrichmentStage attaches branding and UX checks to planned scenarios
// for requests whose intent asks for them.
type EnrichmentStage struct {
	completer llm.Completer
	logger    logger.Logger
}

// NewEnrichmentStage creates an EnrichmentStage. Without a completer
// scenarios pass through unchanged.
func NewEnrichmentStage(completer llm.Completer, log logger.Logger) *EnrichmentStage {
	return &EnrichmentStage{
		completer: completer,
		logger:    log,
	}
}

func (e *EnrichmentStage) Name() string { return StageEnrichment }

func (e *EnrichmentStage) Run(ctx context.Context, s State) (State, error) {
	scenarios := s.Scenarios()
	log := e.logger.WithField("run_id", s.RunID())

	if !s.Intent().Enriches() || e.completer == nil || len(scenarios) == 0 {
		log.Debug(ctx, "skipping enrichment", map[string]interface{}{"intent": string(s.Intent())})
		return s.WithEnrichedScenarios(scenarios)
	}

	payload, err := json.Marshal(scenarios)
	if err != nil {
		return s, fmt.Errorf("failed to encode scenarios: %w", err)
	}
	completion, err := e.completer.Complete(ctx, llm.EnrichmentSystem, llm.EnrichmentPrompt(string(payload)))
	if err != nil {
		return s, fmt.Errorf("failed to enrich scenarios: %w", err)
	}
	raw, err := llm.ExtractJSON(completion)
	if err != nil {
		return s, fmt.Errorf("failed to parse enrichment: %w", err)
	}

	checks := parseChecks(raw)
	byID := make(map[string]int, len(scenarios))
	for i, sc := range scenarios {
		byID[sc.ID] = i
	}
	for id, c := range checks {
		i, ok := byID[id]
		if !ok {
			log.Warn(ctx, "enrichment returned checks for unknown scenario", map[string]interface{}{"scenario_id": id})
			continue
		}
		scenarios[i].Criteria.Branding = append(scenarios[i].Criteria.Branding, c.Branding...)
		scenarios[i].Criteria.UX = append(scenarios[i].Criteria.UX, c.UX...)
		log.Debug(ctx, "merged validation checks", map[string]interface{}{
			"scenario_id": id,
			"branding":    len(c.Branding),
			"ux":          len(c.UX),
		})
	}

	log.Info(ctx, "scenarios enriched", map[string]interface{}{"scenarios": len(checks)})
	return s.WithEnrichedScenarios(scenarios)
}

// parseChecks reads per-scenario checks from either an array of
// {scenario_id, branding_checks, ux_checks} or an object keyed by id.
func parseChecks(raw string) map[string]scenario.Criteria {
	out := make(map[string]scenario.Criteria)
	doc := gjson.Parse(raw)
	if doc.IsObject() && doc.Get("scenarios").IsArray() {
		doc = doc.Get("scenarios")
	}

	collect := func(id string, v gjson.Result) {
		id = strings.TrimSpace(id)
		if id == "" {
			return
		}
		c := out[id]
		c.Branding = append(c.Branding, stringList(v.Get("branding_checks"))...)
		c.UX = append(c.UX, stringList(v.Get("ux_checks"))...)
		out[id] = c
	}

	if doc.IsArray() {
		doc.ForEach(func(_, v gjson.Result) bool {
			collect(v.Get("scenario_id").String(), v)
			return true
		})
		return out
	}
	doc.ForEach(func(k, v gjson.Result) bool {
		if v.IsObject() {
			collect(k.String(), v)
		}
		return true
	})
	return out
}

func stringList(v gjson.Result) []string {
	var out []string
	if !v.IsArray() {
		if s := strings.TrimSpace(v.String()); s != "" {
			out = append(out, s)
		}
		return out
	}
	v.ForEach(func(_, item gjson.Result) bool {
		if s := strings.TrimSpace(item.String()); s != "" {
			out = append(out, s)
		}
		return true
	})
	return out
}
