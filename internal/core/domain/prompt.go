package domain

import "time"

// Prompt template names used by answer synthesis.
const (
	// PromptQA builds the first draft answer.
	// Placeholders: {context_str}, {query_str}.
	PromptQA = "qa_template"

	// PromptRefine folds further context into an existing answer.
	// Placeholders: {query_str}, {existing_answer}, {context_msg}.
	PromptRefine = "refine_template"
)

// Template placeholders.
const (
	PlaceholderContext        = "{context_str}"
	PlaceholderQuery          = "{query_str}"
	PlaceholderExistingAnswer = "{existing_answer}"
	PlaceholderContextMsg     = "{context_msg}"
)

// RequiredPlaceholders returns the placeholders a template with the given
// name must contain. Unknown names have no requirements.
func RequiredPlaceholders(name string) []string {
	switch name {
	case PromptQA:
		return []string{PlaceholderContext, PlaceholderQuery}
	case PromptRefine:
		return []string{PlaceholderQuery, PlaceholderExistingAnswer, PlaceholderContextMsg}
	default:
		return nil
	}
}

// SystemPromptVersion is an immutable, numbered snapshot of a named prompt
// template. At most one version per name is active.
type SystemPromptVersion struct {
	ID          string
	Name        string
	Version     int
	Content     string
	Description string
	IsActive    bool
	CreatedAt   time.Time
}

// TemplateKind distinguishes where a resolved template came from.
type TemplateKind int

const (
	// TemplateBuiltin is a default template compiled into the binary.
	TemplateBuiltin TemplateKind = iota

	// TemplateStored is an active version from the prompt store.
	TemplateStored
)

// String returns the string representation.
func (k TemplateKind) String() string {
	switch k {
	case TemplateBuiltin:
		return "builtin"
	case TemplateStored:
		return "stored"
	default:
		return unknownDescription
	}
}

// Template is a resolved prompt template: either Builtin(text) or
// Stored(name, version, text).
type Template struct {
	Kind    TemplateKind
	Name    string
	Version int // zero for builtin templates
	Text    string
}

// BuiltinTemplate returns a builtin template.
func BuiltinTemplate(name, text string) Template {
	return Template{Kind: TemplateBuiltin, Name: name, Text: text}
}

// StoredTemplate returns a template backed by a stored prompt version.
func StoredTemplate(v SystemPromptVersion) Template {
	return Template{Kind: TemplateStored, Name: v.Name, Version: v.Version, Text: v.Content}
}

// IsBuiltin reports whether the template is a builtin default.
func (t Template) IsBuiltin() bool {
	return t.Kind == TemplateBuiltin
}

// PromptSeed is one entry of an imported prompt bundle.
type PromptSeed struct {
	Name        string
	Content     string
	Description string

	// Activate makes the created version active once the import succeeds.
	Activate bool
}
