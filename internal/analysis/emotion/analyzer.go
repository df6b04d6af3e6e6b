package emotion

import (
	"sort"
	"strings"
	"unicode"
)

// Label 表示识别出的情绪类别。
type Label string

const (
	Neutral   Label = "neutral"
	Joy       Label = "joy"
	Gratitude Label = "gratitude"
	Excited   Label = "excited"
	Calm      Label = "calm"
	Sad       Label = "sad"
	Angry     Label = "angry"
	Fearful   Label = "fearful"
)

// Polarity 是情绪标签对应的情感极性。
type Polarity string

const (
	Positive Polarity = "positive"
	Negative Polarity = "negative"
	Mixed    Polarity = "neutral"
)

// Decision 给出情绪识别结果以及置信度。
type Decision struct {
	Emotion    Label
	Polarity   Polarity
	Score      int
	Confidence float64
}

// Context 是对文本的浅层上下文判断。
type Context struct {
	Language  string
	Emotion   Label
	Keywords  []string
	Question  bool
	WordCount int
}

// labelOrder 固定遍历顺序，保证同分时结果可复现。
var labelOrder = []Label{Joy, Gratitude, Excited, Calm, Sad, Angry, Fearful}

var polarityByLabel = map[Label]Polarity{
	Neutral:   Mixed,
	Joy:       Positive,
	Gratitude: Positive,
	Excited:   Positive,
	Calm:      Positive,
	Sad:       Negative,
	Angry:     Negative,
	Fearful:   Negative,
}

var keywordBuckets = map[Label][]string{
	Joy: {
		"开心", "高兴", "快乐", "太好了", "太棒了", "哈哈", "喜欢", "满意", "happy", "glad", "great",
		"awesome", "amazing", "love", "nice", "wonderful", "good", "fine", "enjoy",
	},
	Gratitude: {
		"谢谢", "感谢", "多谢", "thanks", "thank you", "appreciate", "grateful",
	},
	Excited: {
		"期待", "激动", "兴奋", "哇", "can't wait", "excited", "wow", "incredible", "unbelievable", "hype",
	},
	Calm: {
		"平静", "放松", "安心", "慢慢来", "calm", "relaxed", "peaceful", "gentle", "okay", "how are you",
	},
	Sad: {
		"难过", "伤心", "失落", "沮丧", "失望", "孤单", "sad", "unhappy", "upset", "depressed", "lonely",
		"disappointed", "hurt", "cry",
	},
	Angry: {
		"生气", "愤怒", "气死", "受够了", "烦死", "angry", "furious", "annoyed", "hate", "terrible",
		"awful", "worst", "useless",
	},
	Fearful: {
		"害怕", "担心", "焦虑", "紧张", "afraid", "scared", "worried", "anxious", "nervous",
	},
}

var punctuationBoost = map[Label]int{
	Joy:     2,
	Excited: 3,
}

// Analyze 根据文本推断情绪与情感极性。空文本返回中性结果。
func Analyze(text string) Decision {
	best, total, _ := scoreText(text)
	if best.Score == 0 {
		return Decision{Emotion: Neutral, Polarity: Mixed, Score: 0, Confidence: 0.5}
	}

	// 最优标签得分占总得分比例越高，置信度越高；+3 平滑使单个弱信号不会给出满分。
	confidence := float64(best.Score) / float64(total+3)
	if confidence < 0.35 {
		confidence = 0.35
	}
	if confidence > 0.99 {
		confidence = 0.99
	}

	best.Polarity = polarityByLabel[best.Emotion]
	best.Confidence = confidence
	return best
}

// Detect 提取文本的语言、关键词、是否提问与词数。
func Detect(text string) Context {
	trimmed := strings.TrimSpace(text)
	best, _, matched := scoreText(trimmed)
	emotion := Neutral
	if best.Score > 0 {
		emotion = best.Emotion
	}

	return Context{
		Language:  detectLanguage(trimmed),
		Emotion:   emotion,
		Keywords:  matched,
		Question:  strings.ContainsAny(trimmed, "?？") || hasQuestionWord(trimmed),
		WordCount: countWords(trimmed),
	}
}

func scoreText(text string) (Decision, int, []string) {
	normalized := strings.TrimSpace(strings.ToLower(text))
	if normalized == "" {
		return Decision{Emotion: Neutral}, 0, nil
	}

	scores := make(map[Label]int)
	seen := make(map[string]struct{})
	for _, label := range labelOrder {
		for _, word := range keywordBuckets[label] {
			if word == "" {
				continue
			}
			if strings.Contains(normalized, strings.ToLower(word)) {
				scores[label] += 3
				seen[word] = struct{}{}
			}
		}
	}

	exclamations := strings.Count(text, "!") + strings.Count(text, "！")
	if exclamations > 0 && (scores[Joy] > 0 || scores[Excited] > 0 || scores[Gratitude] > 0) {
		scores[Excited] += exclamations * punctuationBoost[Excited]
		if exclamations == 1 {
			scores[Joy] += punctuationBoost[Joy]
		}
	}

	best := Decision{Emotion: Neutral}
	total := 0
	for _, label := range labelOrder {
		s := scores[label]
		total += s
		if s > best.Score {
			best = Decision{Emotion: label, Score: s}
		}
	}

	matched := make([]string, 0, len(seen))
	for word := range seen {
		matched = append(matched, word)
	}
	sort.Strings(matched)
	return best, total, matched
}

func detectLanguage(text string) string {
	if text == "" {
		return ""
	}
	han, latin := 0, 0
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			han++
		case unicode.IsLetter(r) && r < unicode.MaxLatin1:
			latin++
		}
	}
	switch {
	case han == 0 && latin == 0:
		return "und"
	case han >= latin:
		return "zh"
	default:
		return "en"
	}
}

var questionWords = []string{"what", "why", "how", "when", "where", "who", "吗", "什么", "为什么", "怎么"}

func hasQuestionWord(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range questionWords {
		if strings.HasPrefix(lower, w+" ") || (w != "" && !isASCII(w) && strings.Contains(lower, w)) {
			return true
		}
	}
	return false
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func countWords(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			count++
			inWord = false
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'':
			if !inWord {
				count++
				inWord = true
			}
		default:
			inWord = false
		}
	}
	return count
}
