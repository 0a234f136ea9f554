package services

import (
	"strings"

	"github.com/custodia-labs/citeqa/internal/core/domain"
)

// defaultQATemplate is used when no qa_template version is active.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const defaultQATemplate = `You answer questions using ONLY the context below. Each passage starts with a header such as [Source: filename, Page: page_number] that identifies where it came from.

Context:
---------------------
{context_str}
---------------------

Instructions:
1. Answer using only the information in the context. If the context does not contain the answer, say so plainly.
2. After every statement taken from the context, cite it using the exact header format, for example [Source: guide.pdf, Page: 12].
3. When several passages support a statement, cite each of them.
4. Keep the answer focused and do not speculate beyond the sources.

Question: {query_str}
Answer: `

// defaultRefineTemplate is used when no refine_template version is active.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const defaultRefineTemplate = `You are improving an existing answer using additional context. Each passage starts with a header such as [Source: filename, Page: page_number].

Question: {query_str}

Existing answer:
{existing_answer}

Additional context:
---------------------
{context_msg}
---------------------

Instructions:
1. Revise the existing answer only where the additional context adds or corrects information.
2. Keep every citation already in the answer and cite new information with the exact header format, for example [Source: guide.pdf, Page: 12].
3. If the additional context is not useful, return the existing answer unchanged.

Refined Answer: `

// builtinTemplates maps prompt names to their builtin defaults.
var builtinTemplates = map[string]string{
	domain.PromptQA:     defaultQATemplate,
	domain.PromptRefine: defaultRefineTemplate,
}

// BuiltinTemplate returns the builtin default for name.
func BuiltinTemplate(name string) (string, bool) {
	t, ok := builtinTemplates[name]
	return t, ok
}

// renderQA fills the qa template.
func renderQA(tmpl, contextStr, query string) string {
	return strings.NewReplacer(
		domain.PlaceholderContext, contextStr,
		domain.PlaceholderQuery, query,
	).Replace(tmpl)
}

// renderRefine fills the refine template.
func renderRefine(tmpl, query, existingAnswer, contextMsg string) string {
	return strings.NewReplacer(
		domain.PlaceholderQuery, query,
		domain.PlaceholderExistingAnswer, existingAnswer,
		domain.PlaceholderContextMsg, contextMsg,
	).Replace(tmpl)
}
