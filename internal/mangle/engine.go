// Package mangle wraps github.com/google/mangle for in-process Datalog
// evaluation: load a schema of Decls/rules once, then repeatedly add facts
// for a tick and query derived predicates. Adapted from a larger engine
// wrapper that also tracked per-file fact provenance for incremental
// re-analysis; that layer has no user here, so NewEngine keeps only the
// schema-load/fact-add/query surface internal/rules needs.
package mangle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	_ "github.com/google/mangle/packages"
	"github.com/google/mangle/parse"
	"github.com/google/mangle/unionfind"
)

// Config holds engine tuning knobs.
type Config struct {
	FactLimit    int
	QueryTimeout int // seconds
	AutoEval     bool
}

// DefaultConfig returns sane defaults for a single control-loop tick's
// worth of facts (a few hundred at most).
func DefaultConfig() Config {
	return Config{
		FactLimit:    100000,
		QueryTimeout: 5,
		AutoEval:     true,
	}
}

// Engine is a loaded Mangle schema plus its current fact store.
type Engine struct {
	config Config

	mu              sync.RWMutex
	store           factstore.ConcurrentFactStore
	baseStore       factstore.FactStoreWithRemove
	programInfo     *analysis.ProgramInfo
	queryContext    *mengine.QueryContext
	predicateIndex  map[string]ast.PredicateSym
	schemaFragments []parse.SourceUnit
	factCount       int
	factLimitWarned bool
	autoEval        bool
}

// Fact is one row to insert: a predicate name and its positional args.
type Fact struct {
	Predicate string
	Args      []interface{}
}

// QueryResult is the set of variable bindings a query produced.
type QueryResult struct {
	Bindings []map[string]interface{}
	Duration time.Duration
}

// Stats summarizes the current fact store.
type Stats struct {
	TotalFacts      int
	PredicateCounts map[string]int
	LastUpdate      time.Time
}

// NewEngine creates an engine with an empty fact store and no schema
// loaded; call LoadSchemaString before AddFact/Query.
func NewEngine(cfg Config) (*Engine, error) {
	baseStore := factstore.NewSimpleInMemoryStore()
	return &Engine{
		config:         cfg,
		baseStore:      baseStore,
		store:          factstore.NewConcurrentFactStore(baseStore),
		predicateIndex: make(map[string]ast.PredicateSym),
		autoEval:       cfg.AutoEval,
	}, nil
}

// LoadSchema reads a schema from a .mg file on disk.
func (e *Engine) LoadSchema(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read schema file %s: %w", path, err)
	}
	return e.LoadSchemaString(string(data))
}

// LoadSchemaString parses and merges a schema fragment into the engine's
// accumulated program. Calling it more than once appends fragments rather
// than replacing them, so the same Decl must not be loaded twice.
func (e *Engine) LoadSchemaString(schema string) error {
	unit, err := parse.Unit(bytes.NewReader([]byte(schema)))
	if err != nil {
		return fmt.Errorf("parse schema: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.schemaFragments = append(e.schemaFragments, unit)
	if err := e.rebuildProgramLocked(); err != nil {
		return fmt.Errorf("analyze schema: %w", err)
	}
	return nil
}

func (e *Engine) rebuildProgramLocked() error {
	if len(e.schemaFragments) == 0 {
		return fmt.Errorf("no schemas loaded")
	}

	var clauses []ast.Clause
	var decls []ast.Decl
	for _, fragment := range e.schemaFragments {
		clauses = append(clauses, fragment.Clauses...)
		decls = append(decls, fragment.Decls...)
	}

	unit := parse.SourceUnit{Clauses: clauses, Decls: decls}
	programInfo, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return err
	}

	e.programInfo = programInfo
	e.predicateIndex = make(map[string]ast.PredicateSym, len(programInfo.Decls))

	predToDecl := make(map[ast.PredicateSym]*ast.Decl, len(programInfo.Decls))
	for sym, decl := range programInfo.Decls {
		e.predicateIndex[sym.Symbol] = sym
		predToDecl[sym] = decl
	}

	predToRules := make(map[ast.PredicateSym][]ast.Clause)
	for _, clause := range programInfo.Rules {
		predToRules[clause.Head.Predicate] = append(predToRules[clause.Head.Predicate], clause)
	}

	e.queryContext = &mengine.QueryContext{
		PredToRules: predToRules,
		PredToDecl:  predToDecl,
		Store:       e.store,
	}
	return nil
}

// AddFact inserts one fact, re-evaluating rules immediately when AutoEval
// is set (the default — a tick's worth of facts is small enough that
// eager evaluation costs nothing worth batching for).
func (e *Engine) AddFact(predicate string, args ...interface{}) error {
	return e.AddFacts([]Fact{{Predicate: predicate, Args: args}})
}

// AddFacts inserts a batch of facts under one rule re-evaluation.
func (e *Engine) AddFacts(facts []Fact) error {
	if len(facts) == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.programInfo == nil {
		return fmt.Errorf("no schemas loaded; call LoadSchemaString first")
	}

	for _, fact := range facts {
		if err := e.insertFactLocked(fact); err != nil {
			return err
		}
	}

	if e.autoEval {
		_, err := mengine.EvalProgramWithStats(e.programInfo, e.store)
		return err
	}
	return nil
}

func (e *Engine) insertFactLocked(fact Fact) error {
	if e.config.FactLimit > 0 && e.factCount >= e.config.FactLimit {
		return fmt.Errorf("fact limit exceeded: %d", e.config.FactLimit)
	}

	atom, err := e.factToAtomLocked(fact)
	if err != nil {
		return err
	}

	if e.store.Add(atom) {
		e.factCount++
		e.maybeWarnFactLimit()
	}
	return nil
}

func (e *Engine) maybeWarnFactLimit() {
	if e.config.FactLimit == 0 || e.factLimitWarned {
		return
	}
	utilization := float64(e.factCount) / float64(e.config.FactLimit)
	if utilization >= 0.85 {
		fmt.Fprintf(os.Stderr, "warning: fact store is %.1f%% of configured capacity (%d / %d)\n", utilization*100, e.factCount, e.config.FactLimit)
		e.factLimitWarned = true
	}
}

func (e *Engine) factToAtomLocked(fact Fact) (ast.Atom, error) {
	sym, ok := e.predicateIndex[fact.Predicate]
	if !ok {
		return ast.Atom{}, fmt.Errorf("predicate %s is not declared in schema", fact.Predicate)
	}
	if len(fact.Args) != sym.Arity {
		return ast.Atom{}, fmt.Errorf("predicate %s expects %d args, got %d", fact.Predicate, sym.Arity, len(fact.Args))
	}

	var decl *ast.Decl
	if e.queryContext != nil {
		decl = e.queryContext.PredToDecl[sym]
	}

	args := make([]ast.BaseTerm, len(fact.Args))
	for i, raw := range fact.Args {
		var expectedType ast.ConstantType = -1
		if decl != nil && len(decl.Bounds) > 0 {
			bounds := decl.Bounds[0].Bounds
			if len(bounds) > i {
				if c, ok := bounds[i].(ast.Constant); ok {
					switch c.Symbol {
					case "/name":
						expectedType = ast.NameType
					case "/string":
						expectedType = ast.StringType
					case "/number":
						expectedType = ast.NumberType
					case "/bytes":
						expectedType = ast.BytesType
					}
				}
			}
		}

		term, err := convertValueToTypedTerm(raw, expectedType)
		if err != nil {
			return ast.Atom{}, fmt.Errorf("predicate %s arg %d: %w", fact.Predicate, i, err)
		}
		args[i] = term
	}

	return ast.Atom{Predicate: sym, Args: args}, nil
}

// convertValueToTypedTerm converts a Go value to a Mangle term, coercing
// toward expectedType when the schema declared one and otherwise falling
// back to isIdentifier's heuristic name-promotion.
func convertValueToTypedTerm(value interface{}, expectedType ast.ConstantType) (ast.BaseTerm, error) {
	switch expectedType {
	case ast.NameType:
		if s, ok := value.(string); ok {
			if !strings.HasPrefix(s, "/") {
				return ast.Name("/" + s)
			}
			return ast.Name(s)
		}
	case ast.StringType:
		if s, ok := value.(string); ok {
			return ast.String(s), nil
		}
	}

	switch v := value.(type) {
	case ast.BaseTerm:
		return v, nil
	case string:
		if strings.HasPrefix(v, "/") {
			name, err := ast.Name(v)
			if err != nil {
				return nil, err
			}
			return name, nil
		}
		if expectedType != ast.StringType && isIdentifier(v) {
			if name, err := ast.Name("/" + v); err == nil {
				return name, nil
			}
		}
		return ast.String(v), nil
	case fmt.Stringer:
		return ast.String(v.String()), nil
	case int:
		return ast.Number(int64(v)), nil
	case int32:
		return ast.Number(int64(v)), nil
	case int64:
		return ast.Number(v), nil
	case float32:
		return ast.Float64(float64(v)), nil
	case float64:
		return ast.Float64(v), nil
	case bool:
		if v {
			return ast.TrueConstant, nil
		}
		return ast.FalseConstant, nil
	case []string:
		constants := make([]ast.Constant, len(v))
		for i, item := range v {
			constants[i] = ast.String(item)
		}
		return ast.List(constants), nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("unsupported fact argument type %T", v)
		}
		return ast.String(string(encoded)), nil
	}
}

// Query evaluates a Mangle query atom (e.g. "may_administer(/p)")
// and returns one binding map per matching row.
func (e *Engine) Query(ctx context.Context, query string) (*QueryResult, error) {
	shape, err := parseQueryShape(query)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	queryContext := e.queryContext
	if queryContext == nil {
		e.mu.RUnlock()
		return nil, fmt.Errorf("no schemas loaded; cannot execute query")
	}

	decl, ok := queryContext.PredToDecl[shape.atom.Predicate]
	if !ok {
		e.mu.RUnlock()
		return nil, fmt.Errorf("predicate %s is not declared", shape.atom.Predicate.Symbol)
	}
	if len(decl.Modes()) == 0 {
		e.mu.RUnlock()
		return nil, fmt.Errorf("predicate %s has no modes declared", shape.atom.Predicate.Symbol)
	}
	mode := decl.Modes()[0]
	e.mu.RUnlock()

	timeout := 5 * time.Second
	if e.config.QueryTimeout > 0 {
		timeout = time.Duration(e.config.QueryTimeout) * time.Second
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	resultChan := make(chan []map[string]interface{}, 1)
	errChan := make(chan error, 1)

	go func() {
		var results []map[string]interface{}
		err := queryContext.EvalQuery(shape.atom, mode, unionfind.New(), func(fact ast.Atom) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			row := make(map[string]interface{}, len(shape.variables))
			for _, binding := range shape.variables {
				if binding.Index >= len(fact.Args) {
					continue
				}
				row[binding.Name] = convertBaseTermToInterface(fact.Args[binding.Index])
			}
			results = append(results, row)
			return nil
		})
		if err != nil {
			errChan <- err
			return
		}
		resultChan <- results
	}()

	select {
	case results := <-resultChan:
		return &QueryResult{Bindings: results, Duration: time.Since(start)}, nil
	case err := <-errChan:
		return nil, err
	case <-ctx.Done():
		return nil, fmt.Errorf("query timed out after %v: %w", time.Since(start), ctx.Err())
	}
}

// GetFacts returns every stored fact for predicate.
func (e *Engine) GetFacts(predicate string) ([]Fact, error) {
	e.mu.RLock()
	sym, ok := e.predicateIndex[predicate]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("predicate %s is not declared", predicate)
	}

	var results []Fact
	err := e.store.GetFacts(ast.NewQuery(sym), func(atom ast.Atom) error {
		args := make([]interface{}, len(atom.Args))
		for i, arg := range atom.Args {
			args[i] = convertBaseTermToInterface(arg)
		}
		results = append(results, Fact{Predicate: predicate, Args: args})
		return nil
	})
	return results, err
}

// GetStats reports the current fact store's size.
func (e *Engine) GetStats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	counts := make(map[string]int)
	for _, sym := range e.store.ListPredicates() {
		pred := sym.Symbol
		local := 0
		_ = e.store.GetFacts(ast.NewQuery(sym), func(ast.Atom) error {
			local++
			return nil
		})
		counts[pred] = local
	}

	return Stats{
		TotalFacts:      e.store.EstimateFactCount(),
		PredicateCounts: counts,
		LastUpdate:      time.Now(),
	}
}

// Clear wipes every stored fact. Loaded schema fragments, the analyzed
// program, and the predicate/query index all survive — callers reload the
// schema only once and Clear between ticks to start each evaluation from
// an empty fact set.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.baseStore = factstore.NewSimpleInMemoryStore()
	e.store = factstore.NewConcurrentFactStore(e.baseStore)
	e.factCount = 0
	e.factLimitWarned = false
	if e.queryContext != nil {
		qc := *e.queryContext
		qc.Store = e.store
		e.queryContext = &qc
	}
}

// Close is a no-op; the engine holds no external resources.
func (e *Engine) Close() error { return nil }

type queryVariable struct {
	Name  string
	Index int
}

type queryShape struct {
	atom      ast.Atom
	variables []queryVariable
}

func parseQueryShape(query string) (*queryShape, error) {
	clean := strings.TrimSpace(query)
	if clean == "" {
		return nil, fmt.Errorf("empty query")
	}
	if strings.HasPrefix(clean, "?") {
		clean = strings.TrimSpace(clean[1:])
	}
	if strings.HasSuffix(clean, ".") {
		clean = strings.TrimSpace(clean[:len(clean)-1])
	}

	atom, err := parse.Atom(clean)
	if err != nil {
		atom, err = parse.Atom(clean + ".")
		if err != nil {
			return nil, fmt.Errorf("parse query %q: %w", query, err)
		}
	}

	variables := make([]queryVariable, 0, len(atom.Args))
	for idx, arg := range atom.Args {
		if variable, ok := arg.(ast.Variable); ok {
			variables = append(variables, queryVariable{Name: variable.Symbol, Index: idx})
		}
	}
	return &queryShape{atom: atom, variables: variables}, nil
}

// isIdentifier reports whether s looks like a bare Mangle name ([a-z_][a-zA-Z0-9_]*)
// and so should be auto-promoted to a Name constant rather than a string literal.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	if !((c >= 'a' && c <= 'z') || c == '_') {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_') {
			return false
		}
	}
	return true
}

func convertBaseTermToInterface(term ast.BaseTerm) interface{} {
	switch v := term.(type) {
	case ast.Constant:
		return constantToInterface(v)
	case ast.Variable:
		return v.Symbol
	case ast.ApplyFn:
		return v.String()
	default:
		return fmt.Sprintf("%v", term)
	}
}

func constantToInterface(constant ast.Constant) interface{} {
	switch constant.Type {
	case ast.StringType:
		return constant.Symbol
	case ast.NameType:
		return constant.Symbol
	case ast.BytesType:
		return constant.Symbol
	case ast.NumberType:
		return constant.NumValue
	case ast.Float64Type:
		return math.Float64frombits(uint64(constant.NumValue))
	default:
		return constant.String()
	}
}
