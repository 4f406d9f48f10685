package ner

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	tokenCLS = "[CLS]"
	tokenSEP = "[SEP]"
	tokenPAD = "[PAD]"
	tokenUNK = "[UNK]"

	maxWordChars = 100
)

// Token is one WordPiece with the byte span of the word piece in the source
// text.
type Token struct {
	ID           int64
	Start, End   int
	Word         int  // index of the pre-tokenized word
	Continuation bool // "##" piece
}

// Window is a model-ready slice of tokens with special tokens added.
type Window struct {
	InputIDs      []int64
	AttentionMask []int64
	TokenTypeIDs  []int64
	// Tokens aligns with InputIDs; special tokens have Word == -1.
	Tokens []Token
}

// WordPieceTokenizer implements BERT's basic + WordPiece tokenization and
// keeps byte offsets so predictions map back onto the source text.
type WordPieceTokenizer struct {
	vocab     map[string]int64
	lowercase bool
	unkID     int64
	clsID     int64
	sepID     int64
	padID     int64
}

// LoadVocab reads a vocab.txt file (one token per line, id = line number).
func LoadVocab(path string, lowercase bool) (*WordPieceTokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocab: %w", err)
	}
	defer f.Close()
	return ReadVocab(f, lowercase)
}

// ReadVocab builds a tokenizer from vocab lines.
func ReadVocab(r io.Reader, lowercase bool) (*WordPieceTokenizer, error) {
	vocab := make(map[string]int64)
	scanner := bufio.NewScanner(r)
	var id int64
	for scanner.Scan() {
		vocab[strings.TrimRight(scanner.Text(), "\r")] = id
		id++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vocab: %w", err)
	}
	return NewWordPieceTokenizer(vocab, lowercase)
}

// NewWordPieceTokenizer wraps an in-memory vocabulary.
func NewWordPieceTokenizer(vocab map[string]int64, lowercase bool) (*WordPieceTokenizer, error) {
	t := &WordPieceTokenizer{vocab: vocab, lowercase: lowercase}
	for _, special := range []struct {
		token string
		dst   *int64
	}{
		{tokenUNK, &t.unkID},
		{tokenCLS, &t.clsID},
		{tokenSEP, &t.sepID},
		{tokenPAD, &t.padID},
	} {
		id, ok := vocab[special.token]
		if !ok {
			return nil, fmt.Errorf("vocab is missing %s", special.token)
		}
		*special.dst = id
	}
	return t, nil
}

// Tokenize splits text into WordPieces without special tokens.
func (t *WordPieceTokenizer) Tokenize(text string) []Token {
	var tokens []Token
	for wi, span := range basicSplit(text) {
		word := text[span[0]:span[1]]
		if t.lowercase {
			word = strings.ToLower(word)
		}
		tokens = append(tokens, t.wordPieces(word, span[0], span[1], wi)...)
	}
	return tokens
}

func (t *WordPieceTokenizer) wordPieces(word string, start, end, wi int) []Token {
	if utf8.RuneCountInString(word) > maxWordChars {
		return []Token{{ID: t.unkID, Start: start, End: end, Word: wi}}
	}

	// lowercasing can change byte lengths; only map sub-spans when it didn't
	exact := len(word) == end-start

	var pieces []Token
	pos := 0
	for pos < len(word) {
		cut := len(word)
		var id int64
		found := false
		for cut > pos {
			candidate := word[pos:cut]
			if pos > 0 {
				candidate = "##" + candidate
			}
			if v, ok := t.vocab[candidate]; ok {
				id, found = v, true
				break
			}
			_, size := utf8.DecodeLastRuneInString(word[pos:cut])
			cut -= size
		}
		if !found {
			return []Token{{ID: t.unkID, Start: start, End: end, Word: wi}}
		}

		tok := Token{ID: id, Start: start, End: end, Word: wi, Continuation: pos > 0}
		if exact {
			tok.Start, tok.End = start+pos, start+cut
		}
		pieces = append(pieces, tok)
		pos = cut
	}
	return pieces
}

// Windows packs tokens into model inputs of at most maxLength ids each,
// breaking only at word boundaries when possible.
func (t *WordPieceTokenizer) Windows(tokens []Token, maxLength int) []Window {
	room := maxLength - 2
	if room < 1 {
		room = 1
	}

	var windows []Window
	for start := 0; start < len(tokens); {
		end := start + room
		if end >= len(tokens) {
			end = len(tokens)
		} else {
			// back off so a word is not split across windows
			back := end
			for back > start+1 && tokens[back].Continuation {
				back--
			}
			if back > start+1 {
				end = back
			}
		}
		windows = append(windows, t.window(tokens[start:end]))
		start = end
	}
	return windows
}

func (t *WordPieceTokenizer) window(tokens []Token) Window {
	n := len(tokens) + 2
	w := Window{
		InputIDs:      make([]int64, 0, n),
		AttentionMask: make([]int64, 0, n),
		TokenTypeIDs:  make([]int64, n),
		Tokens:        make([]Token, 0, n),
	}
	add := func(tok Token) {
		w.InputIDs = append(w.InputIDs, tok.ID)
		w.AttentionMask = append(w.AttentionMask, 1)
		w.Tokens = append(w.Tokens, tok)
	}
	add(Token{ID: t.clsID, Word: -1})
	for _, tok := range tokens {
		add(tok)
	}
	add(Token{ID: t.sepID, Word: -1})
	return w
}

// Pad right-pads every window to the longest one in the batch.
func (t *WordPieceTokenizer) Pad(windows []Window) []Window {
	longest := 0
	for _, w := range windows {
		if len(w.InputIDs) > longest {
			longest = len(w.InputIDs)
		}
	}
	out := make([]Window, len(windows))
	for i, w := range windows {
		for len(w.InputIDs) < longest {
			w.InputIDs = append(w.InputIDs, t.padID)
			w.AttentionMask = append(w.AttentionMask, 0)
			w.TokenTypeIDs = append(w.TokenTypeIDs, 0)
			w.Tokens = append(w.Tokens, Token{ID: t.padID, Word: -1})
		}
		out[i] = w
	}
	return out
}

// basicSplit returns byte spans of whitespace-separated words, with every
// punctuation rune as its own word.
func basicSplit(text string) [][2]int {
	var spans [][2]int
	start := -1
	for i, r := range text {
		switch {
		case unicode.IsSpace(r) || unicode.IsControl(r):
			if start >= 0 {
				spans = append(spans, [2]int{start, i})
				start = -1
			}
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			if start >= 0 {
				spans = append(spans, [2]int{start, i})
				start = -1
			}
			spans = append(spans, [2]int{i, i + utf8.RuneLen(r)})
		default:
			if start < 0 {
				start = i
			}
		}
	}
	if start >= 0 {
		spans = append(spans, [2]int{start, len(text)})
	}
	return spans
}
