package countdown

import (
	"strings"
	"time"

	"github.com/flor3z/countdown-bot/internal/duration"
)

// TokenKind classifies one free-text command token.
type TokenKind int

const (
	TokenDuration TokenKind = iota
	TokenRarityQuantity
	TokenRarity
	TokenQuantity
	TokenOffset
	TokenUnrecognized
)

func (k TokenKind) String() string {
	switch k {
	case TokenDuration:
		return "duration"
	case TokenRarityQuantity:
		return "rarity+quantity"
	case TokenRarity:
		return "rarity"
	case TokenQuantity:
		return "quantity"
	case TokenOffset:
		return "offset"
	default:
		return "unrecognized"
	}
}

// Token is one classified command token. Ignored is set for a recognized
// token whose slot was already filled by an earlier one.
type Token struct {
	Raw     string
	Kind    TokenKind
	Ignored bool
}

// Args is the folded result of classifying the tokens after an item name.
type Args struct {
	Duration time.Duration
	Rarity   string
	Quantity string
	Offset   time.Duration
	Tokens   []Token
}

// Unused returns the tokens that did not contribute to Args.
func (a Args) Unused() []Token {
	var unused []Token
	for _, t := range a.Tokens {
		if t.Ignored || t.Kind == TokenUnrecognized {
			unused = append(unused, t)
		}
	}
	return unused
}

// filled reports whether an earlier token already took the slot of kind.
// Presence is tracked by token rather than by value since "-0" is a valid
// offset that leaves Offset at zero.
func (a *Args) filled(kind TokenKind) bool {
	for _, t := range a.Tokens {
		if t.Kind == kind && !t.Ignored {
			return true
		}
	}
	return false
}

type matcher struct {
	kind  TokenKind
	match func(tok string) bool
	// apply stores the token and reports false when the slot is already taken.
	apply func(a *Args, tok string) bool
}

// matchers run in order; the first match consumes the token.
var matchers = []matcher{
	{
		kind:  TokenDuration,
		match: duration.IsDuration,
		apply: func(a *Args, tok string) bool {
			if a.filled(TokenDuration) {
				return false
			}
			a.Duration, _ = duration.Parse(tok)
			return true
		},
	},
	{
		kind: TokenRarityQuantity,
		match: func(tok string) bool {
			return strings.ContainsAny(tok, rarityLetters) && strings.ContainsAny(tok, "0123456789")
		},
		apply: func(a *Args, tok string) bool {
			used := false
			if a.Rarity == "" {
				a.Rarity = string(tok[strings.IndexAny(tok, rarityLetters)])
				used = true
			}
			if a.Quantity == "" {
				a.Quantity = digitsOf(tok)
				used = true
			}
			return used
		},
	},
	{
		kind: TokenRarity,
		match: func(tok string) bool {
			return len(tok) == 1 && strings.Contains(rarityLetters, tok)
		},
		apply: func(a *Args, tok string) bool {
			if a.Rarity != "" {
				return false
			}
			a.Rarity = tok
			return true
		},
	},
	{
		kind:  TokenQuantity,
		match: allDigits,
		apply: func(a *Args, tok string) bool {
			if a.Quantity != "" {
				return false
			}
			a.Quantity = tok
			return true
		},
	},
	{
		kind: TokenOffset,
		match: func(tok string) bool {
			return strings.HasPrefix(tok, "-") && allDigits(tok[1:]) && len(tok) <= 8
		},
		apply: func(a *Args, tok string) bool {
			if a.filled(TokenOffset) {
				return false
			}
			var minutes int64
			for _, r := range tok[1:] {
				minutes = minutes*10 + int64(r-'0')
			}
			a.Offset = time.Duration(minutes) * time.Minute
			return true
		},
	},
}

// ClassifyArgs classifies tokens in order: duration, rarity+quantity
// composite, bare rarity letter, bare quantity, negative offset in minutes.
// Anything else lands in the unrecognized bucket.
func ClassifyArgs(tokens []string) Args {
	var args Args
	for _, raw := range tokens {
		tok := strings.ToLower(strings.TrimSpace(raw))
		if tok == "" {
			continue
		}

		classified := Token{Raw: raw, Kind: TokenUnrecognized}
		for _, m := range matchers {
			if !m.match(tok) {
				continue
			}
			classified.Kind = m.kind
			classified.Ignored = !m.apply(&args, tok)
			break
		}
		args.Tokens = append(args.Tokens, classified)
	}
	return args
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
