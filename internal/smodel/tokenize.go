package smodel

import (
	"github.com/tdewolff/parse/v2"
)

const (
	commentOpen  = "<**"
	commentClose = "**>"
)

// Token is one whitespace-delimited word of a model file.
type Token struct {
	Text string
	Line int
}

// Tokenize splits src on whitespace and drops everything from a "<**" token up to the next
// "**>" token. Comments do not nest; an unterminated comment runs to the end of the input.
func Tokenize(src []byte) []Token {
	z := parse.NewInputBytes(src)
	defer z.Restore()
	var toks []Token
	line := 1
	inComment := false
	for {
		c := z.Peek(0)
		if c == 0 && z.Err() != nil {
			break
		}
		if parse.IsWhitespace(c) {
			if c == '\n' {
				line++
			}
			z.Move(1)
			z.Skip()
			continue
		}
		for {
			c = z.Peek(0)
			if (c == 0 && z.Err() != nil) || parse.IsWhitespace(c) {
				break
			}
			z.Move(1)
		}
		text := string(z.Shift())
		switch {
		case inComment:
			if text == commentClose {
				inComment = false
			}
		case text == commentOpen:
			inComment = true
		default:
			toks = append(toks, Token{Text: text, Line: line})
		}
	}
	return toks
}
