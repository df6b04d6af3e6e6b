package explain

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/z-perception/backend/internal/model/perception"
)

// LLMExplainer 使用大模型为回复生成可读的解释。
type LLMExplainer struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewLLMExplainer 编译解释生成 chain。
func NewLLMExplainer(ctx context.Context, chatModel model.BaseChatModel) (*LLMExplainer, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(explainSystemPrompt),
		schema.UserMessage(explainUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile explanation chain: %w", err)
	}
	return &LLMExplainer{chain: runnable}, nil
}

func (e *LLMExplainer) Explain(ctx context.Context, responseKey string, snapshot perception.ContextSnapshot) (string, error) {
	input := map[string]any{
		"response_key": responseKey,
		"context":      snapshot.String(),
	}

	msg, err := e.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run explanation chain: %w", err)
	}
	if msg == nil {
		return "", fmt.Errorf("explanation chain returned no message")
	}
	rationale := strings.TrimSpace(msg.Content)
	if rationale == "" {
		return "", fmt.Errorf("explanation chain returned empty content")
	}
	return rationale, nil
}

const explainSystemPrompt = "You explain to an end user, in two sentences or fewer, why an assistant produced a given response. Base the explanation only on the detected conversation context you are given. Plain text only."

const explainUserPrompt = "Response identifier: {response_key}\nDetected context: {context}"
