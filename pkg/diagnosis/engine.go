package diagnosis

import (
	"context"
	"log/slog"
	"time"

	"github.com/wisbric/kubeowl/internal/telemetry"
	"github.com/wisbric/kubeowl/pkg/fault"
	"github.com/wisbric/kubeowl/pkg/kube"
)

// aiEvidenceLogLines is how many raw log lines are pulled as LLM evidence.
const aiEvidenceLogLines = 50

// Engine orchestrates the diagnosis pipeline: gate, cache, evidence, prompt,
// LLM call, parse, fallback. Diagnose never fails — every path yields a
// well-formed Result.
type Engine struct {
	accessor *kube.Accessor
	llm      LLMClient
	cache    *Cache
	opts     Options
	logger   *slog.Logger

	defaultTemperature float64
}

// NewEngine creates a diagnosis Engine.
func NewEngine(accessor *kube.Accessor, llm LLMClient, opts Options, defaultTemperature float64, logger *slog.Logger) *Engine {
	var cache *Cache
	if opts.CacheEnabled {
		ttl := opts.CacheTTL
		if ttl <= 0 {
			ttl = 30 * time.Minute
		}
		cache = NewCache(ttl)
	}
	return &Engine{
		accessor:           accessor,
		llm:                llm,
		cache:              cache,
		opts:               opts,
		logger:             logger,
		defaultTemperature: defaultTemperature,
	}
}

// Diagnose analyzes the primary fault in the context of all faults found on
// the same scan.
func (e *Engine) Diagnose(ctx context.Context, clusterID string, primary fault.Info, all []fault.Info) *Result {
	related := RelatedFaults(primary, all)

	// Gate: AI must be on and the fault at least as severe as the floor.
	if !e.opts.Enabled || primary.Severity > e.opts.MinSeverity {
		telemetry.DiagnosisRequestsTotal.WithLabelValues("fallback").Inc()
		return FallbackResult(primary, related)
	}

	key := CacheKey(primary)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			telemetry.DiagnosisCacheHitsTotal.Inc()
			telemetry.DiagnosisRequestsTotal.WithLabelValues("cache").Inc()
			return cached
		}
	}

	logs, events := e.collectEvidence(ctx, clusterID, primary)

	system := BuildSystemPrompt(primary)
	user := BuildUserPrompt(primary, related, logs, events)
	e.logger.Debug("diagnosis prompt built",
		"cache_key", key,
		"estimated_tokens", EstimateTokens(system+user),
	)

	reply, err := e.llm.Chat(ctx, system, user, TemperatureFor(primary.Type, e.defaultTemperature))
	if err != nil {
		e.logger.Warn("llm call failed, using fallback", "cache_key", key, "error", err)
		telemetry.DiagnosisRequestsTotal.WithLabelValues("fallback").Inc()
		return FallbackResult(primary, related)
	}

	result := e.buildResult(primary, related, reply)

	if e.cache != nil {
		e.cache.Set(key, result)
	}
	telemetry.DiagnosisRequestsTotal.WithLabelValues("llm").Inc()
	return result
}

// collectEvidence pulls logs and events for pod faults. Failures degrade to
// empty evidence.
func (e *Engine) collectEvidence(ctx context.Context, clusterID string, primary fault.Info) ([]string, []string) {
	if primary.ResourceKind != fault.KindPod || e.accessor == nil {
		return nil, nil
	}

	container := primary.Context[fault.CtxContainerName]
	raw := e.accessor.Logs(ctx, clusterID, primary.Namespace, primary.ResourceName, container, aiEvidenceLogLines)
	logs := FilterLogs(raw)

	var eventLines []string
	events, err := e.accessor.EventsFor(ctx, clusterID, primary.Namespace, fault.KindPod, primary.ResourceName)
	if err != nil {
		e.logger.Warn("event collection failed, continuing without events",
			"pod", primary.Namespace+"/"+primary.ResourceName, "error", err)
	} else {
		eventLines = DedupEvents(events)
	}

	return logs, eventLines
}

// buildResult parses the model reply, degrading to fallback solutions when
// the reply deviates from the expected shape.
func (e *Engine) buildResult(primary fault.Info, related []fault.Info, reply string) *Result {
	p, ok := parseReply(reply)
	if !ok {
		fallback := FallbackResult(primary, related)
		fallback.Diagnosis = cleanMarkdown(reply)
		return fallback
	}

	return &Result{
		Fault:         primary,
		RelatedFaults: related,
		RootCause:     p.rootCause,
		Diagnosis:     reply,
		Solutions:     p.solutions,
		Preventions:   p.preventions,
		CreatedAt:     time.Now().UTC(),
	}
}
