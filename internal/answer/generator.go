// Package answer turns a query plus context into English answer text.
// Failures degrade to fixed messages; callers never receive an error or an
// empty answer.
package answer

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/boswallah/course-assistant/models"
	"github.com/boswallah/course-assistant/provider"
	"github.com/boswallah/course-assistant/tools/websearch"
)

// Fixed degradation messages. Wording is part of the caller-visible
// behavior (tests and the escalation hedging table both reference the
// no-context message), so change with care.
const (
	MsgNoContext = "I couldn't find specific information about your question in the available course data. " +
		"Please try rephrasing your question or contact support for more details."
	MsgEmptyResponse = "I encountered an issue while generating a response. Please try again."
	MsgGenerateError = "I encountered an error while processing your question. Please try again."

	webFallbackSuffix = "\n\nFor details beyond our course catalog, a general web search may help."
)

// Budget limits for the enhanced prompt. The same model serves translation
// and generation under a shared token ceiling, so the combined prompt stays
// deliberately small.
const (
	enhancedCourseContextLimit = 1200
	enhancedWebContextLimit    = 800
)

// Generator produces answers from retrieved documents and, in enhanced
// mode, web search snippets.
type Generator struct {
	llm    provider.Provider
	logger *log.Logger
}

func NewGenerator(llm provider.Provider, logger *log.Logger) *Generator {
	if logger == nil {
		logger = log.New(log.Writer(), "[PIPE] ", log.LstdFlags)
	}
	return &Generator{llm: llm, logger: logger}
}

// Draft answers from retrieval context alone. With no context at all the
// fixed no-context message is returned without calling the model.
func (g *Generator) Draft(ctx context.Context, query string, docs []models.DocumentChunk) string {
	if len(docs) == 0 {
		return MsgNoContext
	}

	contents := make([]string, len(docs))
	for i, d := range docs {
		contents[i] = d.Content
	}
	prompt := draftPrompt(query, strings.Join(contents, "\n\n"))

	comp, err := g.llm.Generate(ctx, prompt)
	if err != nil {
		g.logger.Printf("draft generation failed: %v", err)
		return MsgGenerateError
	}
	text := strings.TrimSpace(comp.Text)
	if text == "" {
		return MsgEmptyResponse
	}
	return text
}

// Enhanced answers from both course context and web snippets. On a
// token-limit cutoff or an empty body it falls back to the already-computed
// draft plus a pointer to the web, never to an empty answer.
func (g *Generator) Enhanced(ctx context.Context, query string, docs []models.DocumentChunk, webResults []models.WebResult, draft string) string {
	courseContext := ""
	if len(docs) > 0 {
		contents := make([]string, len(docs))
		for i, d := range docs {
			contents[i] = d.Content
		}
		courseContext = truncate(strings.Join(contents, "\n\n"), enhancedCourseContextLimit)
	}
	webContext := truncate(websearch.Format(webResults), enhancedWebContextLimit)

	prompt := enhancedPrompt(query, courseContext, webContext)

	comp, err := g.llm.Generate(ctx, prompt)
	if err != nil {
		g.logger.Printf("enhanced generation failed, keeping draft: %v", err)
		return draft
	}
	text := strings.TrimSpace(comp.Text)
	if text == "" || comp.Truncated {
		g.logger.Printf("enhanced answer degraded (truncated=%v, empty=%v)", comp.Truncated, text == "")
		return draft + webFallbackSuffix
	}
	return text
}

func draftPrompt(query, context string) string {
	return fmt.Sprintf(`You are a helpful assistant for Boswallah courses. Based on the provided course information, answer the user's question completely and accurately.

Course Information Available:
%s

User Question: %s

Instructions:
- Provide a complete, detailed answer based on the course information
- If the exact information isn't available, explain what related information is available
- Be specific about course names, details, and requirements
- Write a comprehensive response (at least 2-3 sentences)
- Focus on being helpful and informative
- If multiple courses are relevant, mention them all
- Note clearly when the available information is incomplete

Complete Answer:`, context, query)
}

// enhancedPrompt is intentionally terse: it shares the model's token budget
// with the answer itself.
func enhancedPrompt(query, courseContext, webContext string) string {
	if courseContext == "" {
		courseContext = "No matching courses found."
	}
	return fmt.Sprintf(`You are a helpful assistant for Boswallah courses. Answer using the course information and the web results below. Mention relevant course names. Be concise.

Course Information:
%s

%s

Question: %s

Answer:`, courseContext, webContext, query)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
