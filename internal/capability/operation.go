// Package capability maps a capability's operation type onto a single text
// completion call.
package capability

// OperationType tags the behaviour of a capability.
type OperationType string

const (
	Summarization  OperationType = "summarization"
	Translation    OperationType = "translation"
	Analysis       OperationType = "analysis"
	CodeGeneration OperationType = "code_generation"
	TextGeneration OperationType = "text_generation"
	Chat           OperationType = "chat"
)

// OperationTypes lists every recognised operation type.
var OperationTypes = []OperationType{
	Summarization,
	Translation,
	Analysis,
	CodeGeneration,
	TextGeneration,
	Chat,
}

// Known reports whether t is one of OperationTypes. Unknown types are still
// invocable; they use plain text generation.
func (t OperationType) Known() bool {
	switch t {
	case Summarization, Translation, Analysis, CodeGeneration, TextGeneration, Chat:
		return true
	}
	return false
}

const (
	// DefaultChatModel is used by chat capabilities without a "model" parameter.
	DefaultChatModel = "gpt-4.1-mini"
	// DefaultTargetLanguage is used by translation without "targetLanguage".
	DefaultTargetLanguage = "English"
	// DefaultAnalysisType is used by analysis without "analysisType".
	DefaultAnalysisType = "general"
	// DefaultCodeLanguage is used by code generation without "language".
	DefaultCodeLanguage = "javascript"
)
