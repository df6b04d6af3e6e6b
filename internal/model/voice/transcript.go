package voice

import (
	"fmt"
	"strings"
	"time"
)

// Transcript 表示上游语音识别后的文本结果，本服务只接收已转写的语音。
type Transcript struct {
	Text       string    `json:"text"`
	Language   string    `json:"language,omitempty"`   // zh-CN, en-US, etc.
	Confidence float64   `json:"confidence,omitempty"` // ASR 置信度 0-1
	Duration   int64     `json:"duration,omitempty"`   // milliseconds
	IsFinal    bool      `json:"isFinal"`
	CreatedAt  time.Time `json:"createdAt,omitempty"`
}

// Payload 返回可交给文本分析的转写内容。非最终结果不允许进入分析流程。
func (t Transcript) Payload() (string, error) {
	if !t.IsFinal {
		return "", fmt.Errorf("transcript is not final")
	}
	text := strings.TrimSpace(t.Text)
	if text == "" {
		return "", fmt.Errorf("transcript text is empty")
	}
	if t.Confidence < 0 || t.Confidence > 1 {
		return "", fmt.Errorf("transcript confidence %v outside [0,1]", t.Confidence)
	}
	return text, nil
}
