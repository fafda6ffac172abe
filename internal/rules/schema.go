package rules

// schema declares the predicates the checker queries. Kept separate from
// the facts a Sweep inserts, mirroring internal/mangle/engine.go's
// LoadSchemaString-then-AddFact split. Dangling-attachment detection is
// deliberately NOT expressed here: it would need Mangle negation over
// attached/compiled facts, and this module's own tests
// (internal/mangle/engine_test.go) only exercise positive Horn clauses —
// Sweep computes it as a plain set difference instead (checker.go).
const schema = `
Decl is_immortal(Player).
Decl may_administer(Player).
may_administer(P) :- is_immortal(P).
`
