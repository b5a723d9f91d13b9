package token

import "strconv"

// Token identifies the lexical class of a lexeme. Operators and booleans
// are dedicated token kinds (never recovered from an identifier lookup);
// data-type names remain plain identifiers and are disambiguated
// semantically by the parser/semantic analyzer (spec.md §4.1).
type Token int

const (
	ILLEGAL Token = iota
	EOF

	// non-significant, retained only for span fidelity (spec.md §4.2)
	COMMENT
	WHITESPACE
	NEWLINE

	literalBeg
	IDENT
	INT
	FLOAT
	STRING
	literalEnd

	TRUE
	FALSE

	operatorBeg
	EQ            // =
	NEQ           // !=
	GT            // >
	LT            // <
	GE            // >=
	LE            // <=
	ADD           // +
	SUB           // -
	MUL           // *
	QUO           // /
	REM           // %
	IEQ           // ieq
	INE           // ine
	CONTAINS      // contains
	STARTS        // starts
	ENDS          // ends
	NOT_CONTAINS  // not_contains
	NOT_STARTS    // not_starts
	NOT_ENDS      // not_ends
	PATTERN_MATCH // pattern_match
	MATCHES       // matches
	SUBSET_OF     // subset_of
	SUPERSET_OF   // superset_of
	operatorEnd

	keywordBeg
	META
	META_END
	DEF
	DEF_END
	CRI
	CRI_END
	CTN
	CTN_END
	STATE
	STATE_END
	OBJECT
	OBJECT_END
	RUN
	RUN_END
	FILTER
	FILTER_END
	SET
	SET_END
	TEST

	PARAMETERS
	PARAMETERS_END
	SELECT
	SELECT_END
	RECORD
	RECORD_END

	VAR
	STATE_REF
	OBJECT_REF
	SET_REF

	AND
	OR
	ONE

	CONCAT
	SPLIT
	SUBSTRING
	REGEX_CAPTURE
	ARITHMETIC
	COUNT
	UNIQUE
	END
	MERGE
	EXTRACT

	OBJ

	MODULE_NAME
	VERB
	NOUN
	MODULE_ID
	MODULE_VERSION

	BEHAVIOR

	INCLUDE
	EXCLUDE

	UNION
	INTERSECTION
	COMPLEMENT

	ANY
	ALL
	AT_LEAST_ONE
	ONLY_ONE
	NONE
	NONE_SATISFY
	keywordEnd
)

var tokenNames = map[Token]string{
	ILLEGAL:    "ILLEGAL",
	EOF:        "EOF",
	COMMENT:    "COMMENT",
	WHITESPACE: "WHITESPACE",
	NEWLINE:    "NEWLINE",

	IDENT:  "IDENT",
	INT:    "INT",
	FLOAT:  "FLOAT",
	STRING: "STRING",
	TRUE:   "true",
	FALSE:  "false",

	EQ: "=", NEQ: "!=", GT: ">", LT: "<", GE: ">=", LE: "<=",
	ADD: "+", SUB: "-", MUL: "*", QUO: "/", REM: "%",
	IEQ: "ieq", INE: "ine",
	CONTAINS: "contains", STARTS: "starts", ENDS: "ends",
	NOT_CONTAINS: "not_contains", NOT_STARTS: "not_starts", NOT_ENDS: "not_ends",
	PATTERN_MATCH: "pattern_match", MATCHES: "matches",
	SUBSET_OF: "subset_of", SUPERSET_OF: "superset_of",

	META: "META", META_END: "META_END",
	DEF: "DEF", DEF_END: "DEF_END",
	CRI: "CRI", CRI_END: "CRI_END",
	CTN: "CTN", CTN_END: "CTN_END",
	STATE: "STATE", STATE_END: "STATE_END",
	OBJECT: "OBJECT", OBJECT_END: "OBJECT_END",
	RUN: "RUN", RUN_END: "RUN_END",
	FILTER: "FILTER", FILTER_END: "FILTER_END",
	SET: "SET", SET_END: "SET_END",
	TEST: "TEST",

	PARAMETERS: "parameters", PARAMETERS_END: "parameters_end",
	SELECT: "select", SELECT_END: "select_end",
	RECORD: "record", RECORD_END: "record_end",

	VAR: "VAR", STATE_REF: "STATE_REF", OBJECT_REF: "OBJECT_REF", SET_REF: "SET_REF",

	AND: "AND", OR: "OR", ONE: "ONE",

	CONCAT: "CONCAT", SPLIT: "SPLIT", SUBSTRING: "SUBSTRING",
	REGEX_CAPTURE: "REGEX_CAPTURE", ARITHMETIC: "ARITHMETIC",
	COUNT: "COUNT", UNIQUE: "UNIQUE", END: "END", MERGE: "MERGE", EXTRACT: "EXTRACT",

	OBJ: "OBJ",

	MODULE_NAME: "module_name", VERB: "verb", NOUN: "noun",
	MODULE_ID: "module_id", MODULE_VERSION: "module_version",

	BEHAVIOR: "behavior",

	INCLUDE: "include", EXCLUDE: "exclude",

	UNION: "union", INTERSECTION: "intersection", COMPLEMENT: "complement",

	ANY: "any", ALL: "all", AT_LEAST_ONE: "at_least_one", ONLY_ONE: "only_one",
	NONE: "none", NONE_SATISFY: "none_satisfy",
}

func (t Token) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return "token(" + strconv.Itoa(int(t)) + ")"
}

// IsLiteral reports whether t is one of IDENT, INT, FLOAT, STRING.
func (t Token) IsLiteral() bool { return literalBeg < t && t < literalEnd }

// IsOperator reports whether t is a dedicated symbol-operator token.
func (t Token) IsOperator() bool { return operatorBeg < t && t < operatorEnd }

// IsKeyword reports whether t is a reserved structural keyword.
func (t Token) IsKeyword() bool { return keywordBeg < t && t < keywordEnd }

// IsSignificant reports whether t survives the token-stream filter
// (spec.md §4.2): everything except whitespace, newline markers, and
// comments.
func (t Token) IsSignificant() bool {
	switch t {
	case WHITESPACE, NEWLINE, COMMENT:
		return false
	default:
		return true
	}
}

// keywords maps the exact-case spelling of every reserved structural
// keyword to its Token. Word runs that do not match this table become
// either a symbol-operator token (via wordOperators) or a plain
// identifier; see Lookup.
var keywords = func() map[string]Token {
	m := make(map[string]Token, int(keywordEnd-keywordBeg))
	for t, s := range tokenNames {
		if t.IsKeyword() {
			m[s] = t
		}
	}
	// AND/OR/ONE also accept an all-lowercase spelling, mirroring
	// esp_compiler's keywords.rs dual registration.
	m["and"] = AND
	m["or"] = OR
	m["one"] = ONE
	return m
}()

// wordOperators maps the word-shaped operator spellings (as opposed to
// punctuation operators like "!=") to their Token.
var wordOperators = map[string]Token{
	"ieq": IEQ, "ine": INE,
	"contains": CONTAINS, "starts": STARTS, "ends": ENDS,
	"not_contains": NOT_CONTAINS, "not_starts": NOT_STARTS, "not_ends": NOT_ENDS,
	"pattern_match": PATTERN_MATCH, "matches": MATCHES,
	"subset_of": SUBSET_OF, "superset_of": SUPERSET_OF,
}

// Lookup classifies a word run (letters/digits/underscore, non-digit
// start) as a keyword, a word-shaped operator, or IDENT.
func Lookup(word string) Token {
	if tok, ok := keywords[word]; ok {
		return tok
	}
	if tok, ok := wordOperators[word]; ok {
		return tok
	}
	return IDENT
}

// IsReservedWord reports whether word is a structural keyword (and thus
// forbidden as an identifier, per spec.md §4.4's structural rules).
func IsReservedWord(word string) bool {
	_, ok := keywords[word]
	return ok
}

// CorrespondingEnd returns the block terminator keyword matching an
// opening block keyword, if t opens a block.
func CorrespondingEnd(t Token) (Token, bool) {
	switch t {
	case META:
		return META_END, true
	case DEF:
		return DEF_END, true
	case CRI:
		return CRI_END, true
	case CTN:
		return CTN_END, true
	case STATE:
		return STATE_END, true
	case OBJECT:
		return OBJECT_END, true
	case RUN:
		return RUN_END, true
	case FILTER:
		return FILTER_END, true
	case SET:
		return SET_END, true
	case PARAMETERS:
		return PARAMETERS_END, true
	case SELECT:
		return SELECT_END, true
	case RECORD:
		return RECORD_END, true
	default:
		return ILLEGAL, false
	}
}
