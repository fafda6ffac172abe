package mangle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, engine)
}

func TestEngineLoadSchemaString(t *testing.T) {
	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, engine.LoadSchemaString(`Decl test_fact(X, Y).`))
}

func TestEngineAddFact(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoEval = false
	engine, err := NewEngine(cfg)
	require.NoError(t, err)

	require.NoError(t, engine.LoadSchemaString(`Decl test_fact(X, Y).`))
	require.NoError(t, engine.AddFact("test_fact", "hello", int64(42)))
}

func TestEngineAddFactRejectsUndeclaredPredicate(t *testing.T) {
	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, engine.LoadSchemaString(`Decl test_fact(X, Y).`))

	err = engine.AddFact("not_declared", "x")
	require.Error(t, err)
}

func TestEngineAddFacts(t *testing.T) {
	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, engine.LoadSchemaString(`Decl person(Name, Age).`))

	facts := []Fact{
		{Predicate: "person", Args: []interface{}{"Alice", int64(30)}},
		{Predicate: "person", Args: []interface{}{"Bob", int64(25)}},
	}
	require.NoError(t, engine.AddFacts(facts))
}

func TestEngineQueryDerivedPredicate(t *testing.T) {
	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	schema := `
Decl parent(Child, Parent) descr [mode("-", "-")].
Decl grandparent(Child, Grandparent) descr [mode("-", "-")].
grandparent(C, G) :- parent(C, P), parent(P, G).
`
	require.NoError(t, engine.LoadSchemaString(schema))
	require.NoError(t, engine.AddFacts([]Fact{
		{Predicate: "parent", Args: []interface{}{"alice", "bob"}},
		{Predicate: "parent", Args: []interface{}{"bob", "carol"}},
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := engine.Query(ctx, "grandparent(X, Y)")
	require.NoError(t, err)
	require.Len(t, res.Bindings, 1)
	require.Equal(t, "/alice", res.Bindings[0]["X"])
	require.Equal(t, "/carol", res.Bindings[0]["Y"])
}

func TestEngineQueryWithoutSchemaFails(t *testing.T) {
	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	_, err = engine.Query(context.Background(), "anything(X)")
	require.Error(t, err)
}

func TestEngineClearWipesFactsKeepsSchema(t *testing.T) {
	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, engine.LoadSchemaString(`Decl fact(X) descr [mode("-")].`))
	require.NoError(t, engine.AddFact("fact", "a"))

	engine.Clear()

	facts, err := engine.GetFacts("fact")
	require.NoError(t, err)
	require.Empty(t, facts)

	// schema survives Clear — adding again must not fail with "not declared"
	require.NoError(t, engine.AddFact("fact", "b"))
}

func TestEngineFactLimitRejectsOverflow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FactLimit = 1
	engine, err := NewEngine(cfg)
	require.NoError(t, err)
	require.NoError(t, engine.LoadSchemaString(`Decl fact(X).`))

	require.NoError(t, engine.AddFact("fact", "a"))
	require.Error(t, engine.AddFact("fact", "b"))
}
