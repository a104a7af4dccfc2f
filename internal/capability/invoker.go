package capability

import (
	"context"
	"errors"
	"fmt"
)

// ErrRemote marks failures of the capability transport.
var ErrRemote = errors.New("remote capability error")

// RemoteError wraps a transport failure for one operation.
type RemoteError struct {
	Operation string
	Err       error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrRemote, e.Operation, e.Err)
}

func (e *RemoteError) Unwrap() []error {
	return []error{ErrRemote, e.Err}
}

// Message is one role-tagged entry of a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// CompletionRequest is a single-shot text completion.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	Temperature *float64
	MaxTokens   int
}

// Transport performs completion calls. An empty result is a valid answer.
type Transport interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Invoker runs a capability against an input. It holds no per-call state and
// is safe for concurrent use.
type Invoker struct {
	transport    Transport
	defaultModel string
}

// NewInvoker creates an Invoker. defaultModel is used by every operation
// except chat, which reads its own "model" parameter.
func NewInvoker(transport Transport, defaultModel string) *Invoker {
	if defaultModel == "" {
		defaultModel = DefaultChatModel
	}
	return &Invoker{transport: transport, defaultModel: defaultModel}
}

// Invoke runs operationType against input with params and returns the text
// result. Transport failures are returned as *RemoteError.
func (i *Invoker) Invoke(ctx context.Context, operationType, input string, params map[string]interface{}) (string, error) {
	req := i.Request(OperationType(operationType), input, Parameters(params))
	out, err := i.transport.Complete(ctx, req)
	if err != nil {
		return "", &RemoteError{Operation: operationType, Err: err}
	}
	return out, nil
}

// Request builds the completion request for op.
func (i *Invoker) Request(op OperationType, input string, p Parameters) CompletionRequest {
	req := CompletionRequest{
		Model:       i.defaultModel,
		Temperature: p.Float("temperature"),
		MaxTokens:   p.Int("max_tokens"),
	}

	switch op {
	case Summarization:
		req.Messages = []Message{
			{Role: RoleSystem, Content: "You are a helpful assistant that summarizes text concisely."},
			{Role: RoleUser, Content: "Please summarize the following text:\n\n" + input},
		}
	case Translation:
		lang := p.String("targetLanguage", DefaultTargetLanguage)
		req.Messages = []Message{
			{Role: RoleSystem, Content: fmt.Sprintf("You are a professional translator. Translate text to %s.", lang)},
			{Role: RoleUser, Content: input},
		}
	case Analysis:
		kind := p.String("analysisType", DefaultAnalysisType)
		req.Messages = []Message{
			{Role: RoleSystem, Content: fmt.Sprintf("You are an expert analyst. Perform %s analysis on the provided text.", kind)},
			{Role: RoleUser, Content: input},
		}
	case CodeGeneration:
		lang := p.String("language", DefaultCodeLanguage)
		req.Messages = []Message{
			{Role: RoleSystem, Content: fmt.Sprintf("You are an expert %s programmer. Generate clean, well-documented code.", lang)},
			{Role: RoleUser, Content: input},
		}
	case TextGeneration:
		req.Messages = generation(input, p.String("systemPrompt", ""))
	case Chat:
		req.Model = p.String("model", DefaultChatModel)
		req.Messages = []Message{{Role: RoleUser, Content: input}}
	default:
		req.Messages = generation(input, "")
	}
	return req
}

func generation(prompt, systemPrompt string) []Message {
	var messages []Message
	if systemPrompt != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: systemPrompt})
	}
	return append(messages, Message{Role: RoleUser, Content: prompt})
}
