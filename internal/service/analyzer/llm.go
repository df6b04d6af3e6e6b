package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/z-perception/backend/internal/model/perception"
)

// LLMModel 使用大模型完成情感判断与上下文识别。调用失败或输出无法解析时直接返回错误，不做兜底。
type LLMModel struct {
	sentiment    compose.Runnable[map[string]any, *schema.Message]
	contextChain compose.Runnable[map[string]any, *schema.Message]
	now          func() time.Time
}

// NewLLMModel 编译情感与上下文两条 chain，chatModel 可复用已有的模型实例。
func NewLLMModel(ctx context.Context, chatModel model.BaseChatModel) (*LLMModel, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	sentimentChain, err := compileChain(ctx, chatModel, sentimentSystemPrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to compile sentiment chain: %w", err)
	}
	contextChain, err := compileChain(ctx, chatModel, contextSystemPrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to compile context chain: %w", err)
	}

	return &LLMModel{
		sentiment:    sentimentChain,
		contextChain: contextChain,
		now:          func() time.Time { return time.Now().UTC() },
	}, nil
}

func compileChain(ctx context.Context, chatModel model.BaseChatModel, system string) (compose.Runnable[map[string]any, *schema.Message], error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(system),
		schema.UserMessage(userPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)
	return chain.Compile(ctx)
}

func (m *LLMModel) Analyze(ctx context.Context, text string) (perception.SentimentResult, error) {
	var payload sentimentPayload
	if err := m.invoke(ctx, m.sentiment, text, &payload); err != nil {
		return perception.SentimentResult{}, err
	}

	label, ok := parseSentimentLabel(payload.Sentiment)
	if !ok {
		return perception.SentimentResult{}, fmt.Errorf("unknown sentiment label %q", payload.Sentiment)
	}
	return perception.SentimentResult{Sentiment: label, Confidence: payload.Confidence}, nil
}

func (m *LLMModel) DetectContext(ctx context.Context, text string) (perception.ContextSnapshot, error) {
	var payload contextPayload
	if err := m.invoke(ctx, m.contextChain, text, &payload); err != nil {
		return perception.ContextSnapshot{}, err
	}

	keywords := make([]string, 0, len(payload.Keywords))
	for _, k := range payload.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	sort.Strings(keywords)

	return perception.ContextSnapshot{
		Language:   strings.TrimSpace(payload.Language),
		Emotion:    strings.ToLower(strings.TrimSpace(payload.Emotion)),
		Keywords:   keywords,
		Question:   payload.Question,
		WordCount:  payload.WordCount,
		DetectedAt: m.now(),
	}, nil
}

func (m *LLMModel) invoke(ctx context.Context, runnable compose.Runnable[map[string]any, *schema.Message], text string, out any) error {
	msg, err := runnable.Invoke(ctx, map[string]any{"text": strings.TrimSpace(text)})
	if err != nil {
		return fmt.Errorf("classifier invoke failed: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return fmt.Errorf("classifier returned empty output")
	}
	if err := parseJSONObject(msg.Content, out); err != nil {
		return fmt.Errorf("classifier output parse failed: %w", err)
	}
	return nil
}

// parseJSONObject 解析大模型返回内容中的第一个 JSON 对象。
func parseJSONObject(content string, out any) error {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return fmt.Errorf("missing json object")
	}
	return json.Unmarshal([]byte(trimmed[start:end+1]), out)
}

func parseSentimentLabel(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "positive":
		return "positive", true
	case "negative":
		return "negative", true
	case "neutral":
		return "neutral", true
	default:
		return "", false
	}
}

type sentimentPayload struct {
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
}

type contextPayload struct {
	Language  string   `json:"language"`
	Emotion   string   `json:"emotion"`
	Keywords  []string `json:"keywords"`
	Question  bool     `json:"question"`
	WordCount int      `json:"word_count"`
}

const sentimentSystemPrompt = "You are a sentiment classifier. Read the user text and judge its overall sentiment.\nOutput exactly one JSON object with fields: sentiment (one of positive/negative/neutral) and confidence (a number between 0 and 1). Output nothing else."

const contextSystemPrompt = "You are a conversation context detector. Read the user text and describe its context.\nOutput exactly one JSON object with fields: language (ISO 639-1 code), emotion (one word), keywords (array of at most five short strings), question (true if the text asks something), word_count (integer). Output nothing else."

const userPrompt = "Text:\n{text}"
