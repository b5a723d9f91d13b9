// Package limits is the single source of truth for the compile-time
// bounds referenced throughout the pipeline (spec.md §6.5, invariant I6).
// Every cap here exists for one of three reasons: DoS resistance (an
// attacker-sized input must not exhaust memory or CPU), memory
// proportionality (artifacts should stay roughly linear in source size),
// or diagnostic readability (a report with ten thousand lines helps no
// one). What exceeding a cap does depends on the stage that checks it:
// the input-size caps (source bytes, lines, tokens) raise a Critical
// FILE_TOO_LARGE; validation's graph-size and chain-depth checks raise a
// Critical INTERNAL_ERROR; the remaining structural caps raise an
// Error-severity diagnostic of the checking stage; MaxReportedCycles,
// MaxSemanticErrors and MaxCyclePathLength stop or truncate reporting.
// MaxOperatorLookahead, MaxCycleLength and MaxErrorMessageLength are not
// checked by any stage.
package limits

const (
	// MaxSourceBytes bounds total input size. DoS resistance.
	MaxSourceBytes = 8 << 20 // 8 MiB

	// MaxLines bounds the line count, independent of byte size (guards
	// against pathological all-newline inputs). DoS resistance.
	MaxLines = 200_000

	// MaxIdentifierLength bounds identifier length. Memory
	// proportionality; also keeps diagnostic snippets readable.
	MaxIdentifierLength = 256

	// MaxOperatorLookahead is a byte bound for multi-character operator
	// matching. The scanner does not consult it.
	MaxOperatorLookahead = 4

	// MaxTokens bounds the token count per file. DoS resistance.
	MaxTokens = 2_000_000

	// MaxBlockDepth bounds nested block depth (CRI nesting, nested
	// STATE/OBJECT declarations). DoS resistance against stack
	// exhaustion in the recursive-descent parser.
	MaxBlockDepth = 256

	// MaxSymbolsPerKind bounds how many symbols may be declared in a
	// single global map (variables, states, objects, sets) or a single
	// CTN's local table. Memory proportionality.
	MaxSymbolsPerKind = 100_000

	// MaxGlobalSymbols bounds the total symbol count across all four
	// global maps plus runtime-op targets. Memory proportionality.
	MaxGlobalSymbols = 400_000

	// MaxCTNScopes bounds the number of CTN node-ids (and therefore local
	// symbol tables) a single definition may contain. Memory
	// proportionality.
	MaxCTNScopes = 100_000

	// MaxRelationships bounds the raw SymbolRelationship list produced by
	// symbol discovery. DoS resistance.
	MaxRelationships = 1_000_000

	// MaxReferencesPerSymbol bounds per-symbol fan-out (how many
	// relationships may name one symbol as their target). DoS resistance
	// against a single symbol becoming a quadratic bottleneck.
	MaxReferencesPerSymbol = 50_000

	// MaxGraphNodes bounds the dependency-graph node count fed to the
	// reference validator's cycle scan and the resolution engine's DAG.
	// DoS resistance.
	MaxGraphNodes = 500_000

	// MaxReferenceChainDepth bounds DFS recursion depth during cycle
	// detection. DoS resistance against stack exhaustion.
	MaxReferenceChainDepth = 10_000

	// MaxCycleLength is a cycle-length bound that no stage consults;
	// reported cycle paths are truncated by MaxCyclePathLength.
	MaxCycleLength = 256

	// MaxReportedCycles bounds how many distinct cycles are reported in
	// one validation pass. Diagnostic readability; also DoS resistance
	// (a densely-cyclic graph has combinatorially many cycles).
	MaxReportedCycles = 50

	// MaxRuntimeOpParameters bounds the parameter list length for any
	// single runtime operation, independent of the op-specific (min, max)
	// table in spec.md §4.6. DoS resistance.
	MaxRuntimeOpParameters = 64

	// MaxSemanticErrors bounds how many diagnostics the semantic analyzer
	// collects before halting further checks (spec.md §4.6 "Error
	// collection is bounded"). Diagnostic readability.
	MaxSemanticErrors = 1_000

	// MaxCyclePathLength bounds the number of symbol names rendered in a
	// CIRCULAR_DEPENDENCY diagnostic's context. Diagnostic readability.
	MaxCyclePathLength = 64

	// MaxErrorMessageLength is a message-length bound for diagnostics.
	// Diagnostic messages are not truncated to it.
	MaxErrorMessageLength = 2_000
)
