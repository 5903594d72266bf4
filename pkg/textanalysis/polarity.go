package textanalysis

import (
	"strings"
)

// Sentiment 是基于极性的三分类标签。
type Sentiment string

const (
	Positive Sentiment = "Positive"
	Negative Sentiment = "Negative"
	Neutral  Sentiment = "Neutral"
)

// Sentiments 是展示顺序固定的全部标签。
var Sentiments = []Sentiment{Positive, Negative, Neutral}

// Classify 将极性映射为情感标签：大于 0 为正面，小于 0 为负面，其余为中性。
func Classify(polarity float64) Sentiment {
	switch {
	case polarity > 0:
		return Positive
	case polarity < 0:
		return Negative
	default:
		return Neutral
	}
}

// PolarityScorer 计算文本的情感极性，取值范围 [-1, 1]。
type PolarityScorer interface {
	Polarity(text string) float64
}

const (
	negationFactor  = -0.5
	intensityFactor = 1.3
)

var negators = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "nothing": {}, "nobody": {}, "none": {}, "neither": {}, "nor": {}, "cannot": {},
}

var intensifiers = map[string]struct{}{
	"very": {}, "really": {}, "so": {}, "too": {}, "extremely": {}, "super": {}, "totally": {}, "absolutely": {}, "quite": {},
}

var emoticons = map[string]float64{
	":)": 0.5, ":-)": 0.5, ":d": 0.8, ";)": 0.4, "<3": 0.6,
	":(": -0.5, ":-(": -0.5, ":'(": -0.7, ":/": -0.3,
}

// defaultLexicon 的词与分值参照常见英文情感词典，按正负分桶维护。
var defaultLexicon = map[string]float64{
	// 正面
	"good": 0.7, "great": 0.8, "nice": 0.6, "awesome": 1.0, "amazing": 0.6, "excellent": 1.0,
	"best": 1.0, "better": 0.5, "love": 0.5, "loved": 0.7, "lovely": 0.5, "like": 0.2,
	"happy": 0.8, "glad": 0.5, "fun": 0.3, "funny": 0.25, "cool": 0.35, "beautiful": 0.85,
	"perfect": 1.0, "thanks": 0.2, "thank": 0.2, "wonderful": 1.0, "fantastic": 0.4,
	"congrats": 0.6, "congratulations": 0.6, "welcome": 0.8, "sweet": 0.35, "wow": 0.1,
	"yay": 0.6, "lol": 0.8, "haha": 0.2, "hahaha": 0.3, "enjoy": 0.4, "enjoyed": 0.4,
	"super": 0.33, "brilliant": 0.9, "proud": 0.8, "excited": 0.4, "exciting": 0.3,
	"kind": 0.6, "success": 0.3, "successful": 0.75, "win": 0.8, "won": 0.5, "well": 0.2,
	"fine": 0.4, "interesting": 0.5, "helpful": 0.3, "safe": 0.5, "easy": 0.43, "free": 0.4,
	"blessed": 0.7, "positive": 0.23, "okay": 0.5, "ok": 0.5, "right": 0.29, "favorite": 0.5,
	// 负面
	"bad": -0.7, "worse": -0.4, "worst": -1.0, "terrible": -1.0, "awful": -1.0, "horrible": -1.0,
	"hate": -0.8, "hated": -0.9, "sad": -0.5, "angry": -0.5, "upset": -0.5, "sorry": -0.5,
	"boring": -1.0, "bored": -0.5, "stupid": -0.8, "ugly": -0.7, "poor": -0.4, "wrong": -0.5,
	"sick": -0.71, "tired": -0.4, "annoying": -0.8, "annoyed": -0.7, "problem": -0.2,
	"difficult": -0.5, "hard": -0.29, "fail": -0.5, "failed": -0.5, "pain": -0.3,
	"painful": -0.7, "lost": -0.2, "lose": -0.3, "miss": -0.1, "missed": -0.2, "disappointed": -0.75,
	"disappointing": -0.6, "crazy": -0.6, "mad": -0.63, "fear": -0.3, "scared": -0.5,
	"worried": -0.4, "hurt": -0.5, "cry": -0.3, "crying": -0.4, "useless": -0.5, "dead": -0.2,
	"negative": -0.3, "late": -0.3, "damn": -0.5, "shit": -0.2, "sucks": -0.3, "broken": -0.4,
}

// LexiconScorer 以词典计算极性：命中词分值取平均，否定词使其后的分值乘以 -0.5，程度副词乘以 1.3。
type LexiconScorer struct {
	lexicon map[string]float64
}

// NewLexiconScorer 创建默认词典的打分器，extra 中的词会覆盖默认分值。
func NewLexiconScorer(extra map[string]float64) *LexiconScorer {
	lex := make(map[string]float64, len(defaultLexicon)+len(extra))
	for w, s := range defaultLexicon {
		lex[w] = s
	}
	for w, s := range extra {
		lex[strings.ToLower(w)] = s
	}
	return &LexiconScorer{lexicon: lex}
}

// Polarity 计算文本极性，没有命中任何情感词时返回 0。
func (s *LexiconScorer) Polarity(text string) float64 {
	lower := strings.ToLower(text)
	var scores []float64

	for _, field := range strings.Fields(lower) {
		if v, ok := emoticons[field]; ok {
			scores = append(scores, v)
		}
	}

	tokens := tokenize(lower)
	for i, tok := range tokens {
		v, ok := s.lexicon[tok]
		if !ok {
			continue
		}
		if i > 0 {
			if _, ok := intensifiers[tokens[i-1]]; ok {
				v *= intensityFactor
			}
		}
		if negatedAt(tokens, i) {
			v *= negationFactor
		}
		scores = append(scores, clamp(v))
	}

	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range scores {
		sum += v
	}
	return clamp(sum / float64(len(scores)))
}

// negatedAt 检查第 i 个词前两个词内是否有否定词。
func negatedAt(tokens []string, i int) bool {
	for j := i - 1; j >= 0 && j >= i-2; j-- {
		tok := tokens[j]
		if _, ok := negators[tok]; ok {
			return true
		}
		if strings.HasSuffix(tok, "n't") || isContraction(tok) {
			return true
		}
	}
	return false
}

// isContraction 识别省略了撇号的常见否定缩写，例如 dont、isnt。
func isContraction(tok string) bool {
	switch tok {
	case "dont", "doesnt", "didnt", "isnt", "wasnt", "arent", "werent", "cant", "couldnt", "wont", "wouldnt", "shouldnt", "havent", "hasnt":
		return true
	}
	return false
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
