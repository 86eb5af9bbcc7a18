// Package translate converts text between supported languages. Translation
// never fails: the primary engine is tried first, then an LLM fallback, and
// when both are unavailable the original text passes through unchanged.
package translate

import (
	"context"
	"fmt"
	"log"
	"strings"

	"golang.org/x/time/rate"

	"github.com/boswallah/course-assistant/config"
	"github.com/boswallah/course-assistant/internal/language"
	"github.com/boswallah/course-assistant/provider"
)

// Engine is the primary translation backend.
type Engine interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Generator is the narrow slice of the LLM provider the fallback needs.
type Generator interface {
	Generate(ctx context.Context, prompt string) (provider.Completion, error)
}

// Translator chains the primary engine, the LLM fallback and passthrough.
type Translator struct {
	engine  Engine
	llm     Generator
	limiter *rate.Limiter
	cfg     config.TranslationConfig
	logger  *log.Logger
}

func NewTranslator(engine Engine, llm Generator, cfg config.TranslationConfig, logger *log.Logger) *Translator {
	if logger == nil {
		logger = log.New(log.Writer(), "[XLATE] ", log.LstdFlags)
	}
	limit := rate.Inf
	if cfg.Delay > 0 {
		limit = rate.Every(cfg.Delay)
	}
	return &Translator{
		engine:  engine,
		llm:     llm,
		limiter: rate.NewLimiter(limit, 1),
		cfg:     cfg,
		logger:  logger,
	}
}

// Robust translates text from source to target. Identity when the codes
// match or the text is blank. Strategies degrade in order; the original
// text is the last resort, so the return value is never empty for
// non-empty input.
func (t *Translator) Robust(ctx context.Context, text, target, source string) string {
	if source == target || strings.TrimSpace(text) == "" {
		return text
	}

	if out := t.primary(ctx, text, source, target); out != "" {
		return out
	}
	if out := t.viaLLM(ctx, text, source, target); out != "" {
		return out
	}
	return text
}

// primary runs the translation engine with pacing, a per-call timeout and
// bounded retries. A result is accepted only when it is non-empty and
// differs from the input (an echo usually means the engine punted).
func (t *Translator) primary(ctx context.Context, text, source, target string) string {
	if t.engine == nil {
		return ""
	}
	retries := t.cfg.MaxRetries
	if retries < 1 {
		retries = 1
	}
	for attempt := 0; attempt < retries; attempt++ {
		if err := t.limiter.Wait(ctx); err != nil {
			return ""
		}
		callCtx := ctx
		var cancel context.CancelFunc
		if t.cfg.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, t.cfg.Timeout)
		}
		out, err := t.engine.Translate(callCtx, text, source, target)
		if cancel != nil {
			cancel()
		}
		if err != nil {
			t.logger.Printf("primary translation attempt %d failed: %v", attempt+1, err)
			continue
		}
		out = strings.TrimSpace(out)
		if out != "" && out != text {
			return out
		}
	}
	return ""
}

func (t *Translator) viaLLM(ctx context.Context, text, source, target string) string {
	if t.llm == nil {
		return ""
	}
	prompt := translationPrompt(text, source, target)
	comp, err := t.llm.Generate(ctx, prompt)
	if err != nil {
		t.logger.Printf("llm translation failed: %v", err)
		return ""
	}
	return strings.TrimSpace(comp.Text)
}

func translationPrompt(text, source, target string) string {
	sourceName := language.Name(source)
	targetName := language.Name(target)
	return fmt.Sprintf(`You are a professional translator. Translate the following text accurately from %s to %s.

Rules:
1. Provide ONLY the translation, no explanations
2. Maintain the original meaning and context
3. Use natural, fluent %s
4. Do not add any prefixes, suffixes, or explanations

Text to translate: %s

Translation:`, sourceName, targetName, targetName, text)
}
