package translate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/boswallah/course-assistant/config"
	"github.com/boswallah/course-assistant/provider"
)

type fakeEngine struct {
	out   string
	err   error
	calls int
}

func (f *fakeEngine) Translate(ctx context.Context, text, source, target string) (string, error) {
	f.calls++
	return f.out, f.err
}

type fakeLLM struct {
	out string
	err error
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (provider.Completion, error) {
	return provider.Completion{Text: f.out}, f.err
}

func testCfg() config.TranslationConfig {
	return config.TranslationConfig{Delay: 0, Timeout: time.Second, MaxRetries: 2}
}

func TestRobust_IdentityOnSameLanguage(t *testing.T) {
	tr := NewTranslator(&fakeEngine{out: "should not be used"}, nil, testCfg(), nil)
	for _, code := range []string{"en", "hi", "ta", "te", "kn", "ml"} {
		if got := tr.Robust(context.Background(), "hello", code, code); got != "hello" {
			t.Fatalf("expected identity for %s->%s, got %q", code, code, got)
		}
	}
}

func TestRobust_IdentityOnBlankText(t *testing.T) {
	engine := &fakeEngine{out: "x"}
	tr := NewTranslator(engine, nil, testCfg(), nil)
	if got := tr.Robust(context.Background(), "   ", "hi", "en"); got != "   " {
		t.Fatalf("expected blank passthrough, got %q", got)
	}
	if engine.calls != 0 {
		t.Fatalf("expected no engine calls for blank text, got %d", engine.calls)
	}
}

func TestRobust_PrimaryEngineWins(t *testing.T) {
	tr := NewTranslator(&fakeEngine{out: "नमस्ते"}, &fakeLLM{out: "wrong"}, testCfg(), nil)
	if got := tr.Robust(context.Background(), "hello", "hi", "en"); got != "नमस्ते" {
		t.Fatalf("expected primary engine result, got %q", got)
	}
}

func TestRobust_EchoedResultFallsThrough(t *testing.T) {
	// The engine returning the input unchanged means it punted; the LLM
	// fallback should take over.
	tr := NewTranslator(&fakeEngine{out: "hello"}, &fakeLLM{out: "नमस्ते"}, testCfg(), nil)
	if got := tr.Robust(context.Background(), "hello", "hi", "en"); got != "नमस्ते" {
		t.Fatalf("expected llm fallback result, got %q", got)
	}
}

func TestRobust_FallsBackToLLM(t *testing.T) {
	engine := &fakeEngine{err: errors.New("engine down")}
	tr := NewTranslator(engine, &fakeLLM{out: "  नमस्ते  "}, testCfg(), nil)
	got := tr.Robust(context.Background(), "hello", "hi", "en")
	if got != "नमस्ते" {
		t.Fatalf("expected trimmed llm result, got %q", got)
	}
	if engine.calls != 2 {
		t.Fatalf("expected 2 engine attempts, got %d", engine.calls)
	}
}

func TestRobust_PassthroughWhenAllFail(t *testing.T) {
	tr := NewTranslator(&fakeEngine{err: errors.New("down")}, &fakeLLM{err: errors.New("down too")}, testCfg(), nil)
	if got := tr.Robust(context.Background(), "hello", "hi", "en"); got != "hello" {
		t.Fatalf("expected original text when both backends fail, got %q", got)
	}
}

func TestRobust_NeverEmptyForNonEmptyInput(t *testing.T) {
	tr := NewTranslator(&fakeEngine{out: ""}, &fakeLLM{out: ""}, testCfg(), nil)
	if got := tr.Robust(context.Background(), "hello", "hi", "en"); got == "" {
		t.Fatalf("expected non-empty result for non-empty input")
	}
}

func TestTranslationPrompt_NamesLanguages(t *testing.T) {
	p := translationPrompt("hello", "en", "hi")
	if !strings.Contains(p, "from English to Hindi") {
		t.Fatalf("expected prompt to name languages, got %q", p)
	}
	if !strings.Contains(p, "ONLY the translation") {
		t.Fatalf("expected directive prompt, got %q", p)
	}
}
