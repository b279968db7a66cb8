// Package identity normalizes raw player names and position codes into the
// canonical keys used to join records across independent sources.
package identity

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Position is a canonical position code. Values outside the closed set are
// best-effort passthroughs; call Known before using one as a join dimension.
type Position string

const (
	QB   Position = "QB"
	RB   Position = "RB"
	WR   Position = "WR"
	TE   Position = "TE"
	OT   Position = "OT"
	IOL  Position = "IOL"
	EDGE Position = "EDGE"
	DT   Position = "DT"
	LB   Position = "LB"
	CB   Position = "CB"
	S    Position = "S"
)

// Positions is the closed canonical set, in board display order.
var Positions = []Position{QB, RB, WR, TE, OT, IOL, EDGE, DT, LB, CB, S}

var knownPositions = func() map[Position]bool {
	m := make(map[Position]bool, len(Positions))
	for _, p := range Positions {
		m[p] = true
	}
	return m
}()

// positionAliases maps raw position spellings from every source family onto
// the canonical set. Unmapped codes pass through uppercased.
var positionAliases = map[string]Position{
	"QB": QB,
	"RB": RB, "HB": RB, "FB": RB,
	"WR": WR, "WRX": WR, "WRZ": WR, "WRS": WR,
	"TE": TE, "TEY": TE, "F": TE,
	"OT": OT, "T": OT, "LT": OT, "RT": OT,
	"IOL": IOL, "IOLC": IOL, "IOLG": IOL, "C": IOL, "G": IOL, "OG": IOL, "OC": IOL,
	"EDGE": EDGE, "EDG": EDGE, "DE": EDGE,
	"DT": DT, "DT1T": DT, "DT3T": DT, "NT": DT, "DL": DT,
	"LB": LB, "ILB": LB, "MLB": LB, "OLB": LB, "LBILB": LB, "LBOLB": LB,
	"CB": CB, "CBN": CB,
	"S": S, "SAF": S, "FS": S, "SS": S, "DB": S,
}

// Known reports whether p is a member of the canonical position set.
func (p Position) Known() bool {
	return knownPositions[p]
}

func (p Position) String() string {
	return string(p)
}

// NormalizePosition maps a raw position code onto the canonical set.
// Unknown codes return uppercased-trimmed as-is; the caller must check
// Known() before relying on the result as a join key.
func NormalizePosition(raw string) Position {
	up := strings.ToUpper(strings.TrimSpace(raw))
	if p, ok := positionAliases[up]; ok {
		return p
	}
	return Position(up)
}

var (
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)

	// stripMarks removes combining marks after NFD decomposition, so
	// accented names key identically to their plain-ASCII spellings.
	stripMarks = transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
)

// NormalizeName derives the canonical player key from a raw name:
// diacritics folded, lowercased, periods and apostrophes stripped, every
// other character outside [a-z0-9 -] removed, internal whitespace collapsed,
// trimmed. Idempotent. Two raw strings that refer to the same player must
// reduce to the same key; two distinct players that differ only in removed
// punctuation will collide, which validation surfaces as a school-conflict
// warning rather than resolving silently.
func NormalizeName(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return ""
	}

	if folded, _, err := transform.String(stripMarks, name); err == nil {
		name = folded
	}
	name = strings.ToLower(name)

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	name = multiSpaceRe.ReplaceAllString(b.String(), " ")
	return strings.TrimSpace(name)
}

// Key is the canonical (name, position) identity used to join source
// records to seed rows.
type Key struct {
	Name string
	Pos  Position
}

// KeyOf builds a Key from raw name and position strings.
func KeyOf(rawName, rawPos string) Key {
	return Key{Name: NormalizeName(rawName), Pos: NormalizePosition(rawPos)}
}

// Valid reports whether the key is usable for joining: non-empty name and a
// position inside the canonical set.
func (k Key) Valid() bool {
	return k.Name != "" && k.Pos.Known()
}
