package feature

import (
	"regexp"
	"strconv"
	"strings"
)

// Annotation grammar: case-insensitive key:value tokens.
//
//	EXTRUDE:<depth><unit>
//	HOLE:[DEPTH=<depth>] [THRU|BLIND]
//	POCKET:DEPTH=<depth>
//	CHAMFER:<size>
//
// Units mm (default), cm, in; every value is normalized to millimetres
// at parse time. A HOLE without a depth clause falls back to the
// configured default hole depth.
var (
	extrudeRe = regexp.MustCompile(`(?i)\bEXTRUDE\s*:\s*(\d+(?:\.\d+)?)\s*(MM|CM|IN)?\b`)
	holeRe    = regexp.MustCompile(`(?i)\bHOLE\s*:\s*(?:DEPTH\s*=\s*(\d+(?:\.\d+)?)\s*(MM|CM|IN)?)?(?:\s*(THRU|BLIND))?`)
	pocketRe  = regexp.MustCompile(`(?i)\bPOCKET\s*:\s*DEPTH\s*=\s*(\d+(?:\.\d+)?)\s*(MM|CM|IN)?\b`)
	chamferRe = regexp.MustCompile(`(?i)\bCHAMFER\s*:\s*(\d+(?:\.\d+)?)\s*(MM|CM|IN)?\b`)

	// Recognition gates: a keyword counts as a token attempt only when
	// a colon follows, so "HOLESAW" or "EXTRUDED ALUMINUM" in ordinary
	// drawing text stays ordinary text.
	extrudeGate = regexp.MustCompile(`(?i)\bEXTRUDE\s*:`)
	holeGate    = regexp.MustCompile(`(?i)\bHOLE\s*:`)
	pocketGate  = regexp.MustCompile(`(?i)\bPOCKET\s*:`)
	chamferGate = regexp.MustCompile(`(?i)\bCHAMFER\s*:`)

	// A DEPTH keyword whose value failed to capture marks a malformed
	// clause; without this check holeRe would match with empty groups.
	depthRe = regexp.MustCompile(`(?i)\bDEPTH\b`)
)

// tokenKind identifies which grammar token an annotation carries.
type tokenKind int

const (
	tokenNone tokenKind = iota
	tokenExtrude
	tokenHole
	tokenPocket
	tokenChamfer
)

func (k tokenKind) String() string {
	switch k {
	case tokenExtrude:
		return "EXTRUDE"
	case tokenHole:
		return "HOLE"
	case tokenPocket:
		return "POCKET"
	case tokenChamfer:
		return "CHAMFER"
	default:
		return "none"
	}
}

// token is a parsed annotation value, normalized to millimetres.
type token struct {
	kind     tokenKind
	value    float64
	hasValue bool
	thru     bool
	blind    bool
}

// toMM converts a parsed value with its unit suffix to millimetres.
func toMM(value float64, unit string) float64 {
	switch strings.ToLower(unit) {
	case "cm":
		return value * 10
	case "in":
		return value * 25.4
	default:
		return value
	}
}

// parseToken recognizes the grammar inside free annotation text.
// Returns recognized=false for ordinary drawing text. A keyword followed
// by a colon is a token attempt; an attempt that fails the full pattern
// is malformed, not ignored.
func parseToken(seq int, text string) (token, bool, error) {
	type pattern struct {
		kind tokenKind
		gate *regexp.Regexp
		re   *regexp.Regexp
	}
	patterns := []pattern{
		{tokenExtrude, extrudeGate, extrudeRe},
		{tokenHole, holeGate, holeRe},
		{tokenPocket, pocketGate, pocketRe},
		{tokenChamfer, chamferGate, chamferRe},
	}

	for _, p := range patterns {
		if !p.gate.MatchString(text) {
			continue
		}
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			return token{}, false, &MalformedAnnotationError{
				AnnotationSeq: seq,
				Text:          text,
				Reason:        p.kind.String() + " token does not match the grammar",
			}
		}
		t := token{kind: p.kind}
		if m[1] != "" {
			value, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return token{}, false, &MalformedAnnotationError{
					AnnotationSeq: seq,
					Text:          text,
					Reason:        "invalid numeric value",
				}
			}
			if value <= 0 {
				return token{}, false, &MalformedAnnotationError{
					AnnotationSeq: seq,
					Text:          text,
					Reason:        "value must be strictly positive",
				}
			}
			t.value = toMM(value, m[2])
			t.hasValue = true
		} else if p.kind == tokenHole {
			// holeRe's depth clause is optional, so a broken value like
			// DEPTH=-5 or DEPTH=abc still matches with an empty group.
			if depthRe.MatchString(text) {
				return token{}, false, &MalformedAnnotationError{
					AnnotationSeq: seq,
					Text:          text,
					Reason:        "DEPTH value does not match the grammar",
				}
			}
		} else {
			return token{}, false, &MalformedAnnotationError{
				AnnotationSeq: seq,
				Text:          text,
				Reason:        p.kind.String() + " token requires a value",
			}
		}
		if p.kind == tokenHole && len(m) > 3 {
			switch strings.ToUpper(m[3]) {
			case "THRU":
				t.thru = true
			case "BLIND":
				t.blind = true
			}
		}
		return t, true, nil
	}

	return token{}, false, nil
}
