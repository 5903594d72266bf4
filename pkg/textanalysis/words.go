package textanalysis

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_][\p{L}\p{N}_']*`)

// tokenize 返回小写化后的全部词，不做停用词过滤。
func tokenize(lower string) []string {
	return wordPattern.FindAllString(lower, -1)
}

// Tokenizer 为词云切分文本。
type Tokenizer struct {
	stopwords map[string]struct{}
}

// NewTokenizer 使用默认英文停用词加上 extra 构建分词器。
func NewTokenizer(extra []string) *Tokenizer {
	stop := make(map[string]struct{}, len(defaultStopwords)+len(extra))
	for _, w := range defaultStopwords {
		stop[w] = struct{}{}
	}
	for _, w := range extra {
		stop[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return &Tokenizer{stopwords: stop}
}

// Stopwords 返回排序后的停用词表。
func (t *Tokenizer) Stopwords() []string {
	out := make([]string, 0, len(t.stopwords))
	for w := range t.stopwords {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// Words 返回小写化、去掉结尾 's、去掉停用词与纯数字后的词。
func (t *Tokenizer) Words(text string) []string {
	raw := tokenize(strings.ToLower(text))
	out := raw[:0]
	for _, w := range raw {
		w = strings.TrimSuffix(w, "'s")
		w = strings.TrimRight(w, "'")
		if w == "" || isNumber(w) {
			continue
		}
		if _, ok := t.stopwords[w]; ok {
			continue
		}
		out = append(out, w)
	}
	return out
}

func isNumber(w string) bool {
	for _, r := range w {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

var defaultStopwords = []string{
	"a", "about", "above", "after", "again", "against", "all", "also", "am", "an", "and", "any", "are",
	"aren't", "as", "at", "be", "because", "been", "before", "being", "below", "between", "both", "but",
	"by", "can", "can't", "cannot", "com", "could", "couldn't", "did", "didn't", "do", "does", "doesn't",
	"doing", "don't", "down", "during", "each", "else", "ever", "few", "for", "from", "further", "get",
	"had", "hadn't", "has", "hasn't", "have", "haven't", "having", "he", "he'd", "he'll", "her", "here",
	"hers", "herself", "him", "himself", "his", "how", "however", "http", "https", "i", "i'd", "i'll",
	"i'm", "i've", "if", "in", "into", "is", "isn't", "it", "its", "itself", "just", "k", "let's", "like",
	"me", "more", "most", "mustn't", "my", "myself", "no", "nor", "not", "of", "off", "on", "once", "only",
	"or", "other", "otherwise", "ought", "our", "ours", "ourselves", "out", "over", "own", "r", "same",
	"shall", "shan't", "she", "she'd", "she'll", "should", "shouldn't", "since", "so", "some", "such",
	"than", "that", "the", "their", "theirs", "them", "themselves", "then", "there", "there's", "these",
	"they", "they'd", "they'll", "they're", "they've", "this", "those", "through", "to", "too", "under",
	"until", "up", "very", "was", "wasn't", "we", "we'd", "we'll", "we're", "we've", "were", "weren't",
	"what", "what's", "when", "when's", "where", "where's", "which", "while", "who", "who's", "whom",
	"why", "why's", "with", "won't", "would", "wouldn't", "www", "you", "you'd", "you'll", "you're",
	"you've", "your", "yours", "yourself", "yourselves",
}
