package processors

import (
	"errors"
	"fmt"

	"github.com/duality-lang/duality/internal/pkg/ast"
	"github.com/duality-lang/duality/internal/pkg/ast/nf"
	"github.com/duality-lang/duality/internal/pkg/ast/typed"
	"github.com/duality-lang/duality/internal/pkg/common"
)

// ErrBudgetExhausted is returned when evaluation runs past the step
// budget the normalizer was created with.
var ErrBudgetExhausted = errors.New("evaluation step budget exhausted")

// Observation is one step of a forcing path: a destructor tag plus its
// argument terms, as in `.tail` or `.nth(S(Z))`.
type Observation struct {
	Tag  ast.Identifier
	Args []typed.Expression
}

// Normalizer evaluates elaborated terms against a sealed table. Data
// values are normalized eagerly to constructor form; codata values are
// left suspended and advanced one destructor at a time. A Normalizer
// is not safe for concurrent use: parameterless observations are
// memoized per suspension.
type Normalizer struct {
	table  *typed.Table
	budget uint64
	steps  uint64
	memo   map[*nf.Suspended]map[ast.Identifier]nf.Value
}

// NewNormalizer builds a normalizer. budget of 0 means unbounded.
func NewNormalizer(table *typed.Table, budget uint64) *Normalizer {
	return &Normalizer{
		table:  table,
		budget: budget,
		memo:   map[*nf.Suspended]map[ast.Identifier]nf.Value{},
	}
}

// Steps reports how many evaluation steps have been spent so far.
func (n *Normalizer) Steps() uint64 { return n.steps }

func (n *Normalizer) step() error {
	n.steps++
	if n.budget > 0 && n.steps > n.budget {
		return ErrBudgetExhausted
	}
	return nil
}

// Eval normalizes a closed term.
func (n *Normalizer) Eval(e typed.Expression) (nf.Value, error) {
	return n.eval(e, nf.Env{})
}

func (n *Normalizer) eval(e typed.Expression, env nf.Env) (nf.Value, error) {
	if err := n.step(); err != nil {
		return nil, err
	}
	switch x := e.(type) {
	case typed.Var:
		v, ok := env.Lookup(x.Name)
		if !ok {
			panic(common.NewSystemError("unbound variable `%s` at %s", x.Name, x.Location.CursorString()))
		}
		return v, nil

	case typed.TypeRef:
		// a reference to a bound Type-sorted parameter takes its
		// instantiation from the environment
		if tv, isVar := x.Denoted.(typed.TVar); isVar {
			if v, ok := env.Lookup(tv.Name); ok {
				return v, nil
			}
		}
		return nf.TypeVal{T: x.Denoted}, nil

	case typed.CtorApp:
		args, err := n.evalArgs(x.Args, env)
		if err != nil {
			return nil, err
		}
		return &nf.Ctor{Tag: x.Tag, Args: args}, nil

	case typed.Call:
		args, err := n.evalArgs(x.Args, env)
		if err != nil {
			return nil, err
		}
		if kind, ok := n.table.Kind(x.Name); ok && kind == typed.DeclCodef {
			// the corecursive tail stays unevaluated
			return &nf.Suspended{Name: x.Name, Args: args}, nil
		}
		return n.applyDef(x.Name, args)

	case typed.Observe:
		recv, err := n.eval(x.Receiver, env)
		if err != nil {
			return nil, err
		}
		args, err := n.evalArgs(x.Args, env)
		if err != nil {
			return nil, err
		}
		return n.observe(recv, x.Tag, args)

	case typed.Match:
		on, err := n.eval(x.On, env)
		if err != nil {
			return nil, err
		}
		return n.dispatch(on, x.Cases, env)

	case typed.Comatch:
		return &nf.Closure{Cases: x.Cases, Env: env.Clone()}, nil

	case typed.Hole:
		return nf.Hole{}, nil
	}
	panic(common.NewSystemError("unhandled expression %T", e))
}

func (n *Normalizer) evalArgs(args []typed.Expression, env nf.Env) ([]nf.Value, error) {
	out := make([]nf.Value, 0, len(args))
	for _, a := range args {
		v, err := n.eval(a, env)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// applyDef matches a def's clauses against its scrutinee, the first
// argument. Remaining arguments fill the def's parameters.
func (n *Normalizer) applyDef(name ast.Identifier, args []nf.Value) (nf.Value, error) {
	def, err := n.table.Def(name)
	if err != nil {
		panic(common.NewSystemError("call to `%s` survived elaboration: %v", name, err))
	}
	if len(args) != len(def.Params)+1 {
		panic(common.NewSystemError("def `%s` called with %d arguments", name, len(args)))
	}
	scrutinee := args[0]
	ctor, ok := scrutinee.(*nf.Ctor)
	if !ok {
		if _, isHole := scrutinee.(nf.Hole); isHole {
			return nil, fmt.Errorf("cannot match `%s` on a hole", name)
		}
		panic(common.NewSystemError("def `%s` matched a non-constructor value %s", name, scrutinee))
	}
	clause, ok := def.ClauseFor(ctor.Tag)
	if !ok {
		panic(common.NewSystemError("def `%s` has no clause for `%s`", name, ctor.Tag))
	}
	env := nf.Env{}
	bindAll(env, clause.Binds, ctor.Args, clause.Tag)
	for i, p := range def.Params {
		env.Bind(p.Name, args[i+1])
	}
	return n.eval(clause.Body, env)
}

// observe advances a codata value by one destructor.
func (n *Normalizer) observe(recv nf.Value, tag ast.Identifier, args []nf.Value) (nf.Value, error) {
	if err := n.step(); err != nil {
		return nil, err
	}
	switch v := recv.(type) {
	case *nf.Suspended:
		if len(args) == 0 {
			if cached, ok := n.memo[v][tag]; ok {
				return cached, nil
			}
		}
		codef, err := n.table.Codef(v.Name)
		if err != nil {
			panic(common.NewSystemError("suspension of `%s` survived elaboration: %v", v.Name, err))
		}
		clause, ok := codef.ClauseFor(tag)
		if !ok {
			panic(common.NewSystemError("codef `%s` has no clause for `%s`", v.Name, tag))
		}
		env := nf.Env{}
		for i, p := range codef.Params {
			if i >= len(v.Args) {
				panic(common.NewSystemError("suspension of `%s` carries %d arguments", v.Name, len(v.Args)))
			}
			env.Bind(p.Name, v.Args[i])
		}
		bindAll(env, clause.Binds, args, tag)
		out, err := n.eval(clause.Body, env)
		if err != nil {
			return nil, err
		}
		if len(args) == 0 {
			if n.memo[v] == nil {
				n.memo[v] = map[ast.Identifier]nf.Value{}
			}
			n.memo[v][tag] = out
		}
		return out, nil

	case *nf.Closure:
		var clause *typed.Clause
		for i := range v.Cases {
			if v.Cases[i].Tag == tag {
				clause = &v.Cases[i]
				break
			}
		}
		if clause == nil {
			panic(common.NewSystemError("comatch value has no cocase for `%s`", tag))
		}
		env := v.Env.Clone()
		bindAll(env, clause.Binds, args, tag)
		return n.eval(clause.Body, env)

	case nf.Hole:
		return nil, fmt.Errorf("cannot observe `%s` on a hole", tag)
	}
	panic(common.NewSystemError("observed `%s` on non-codata value %s", tag, recv))
}

// Observe forces one destructor on an already normalized value, with
// unevaluated argument terms. Entry point for drivers and the repl.
func (n *Normalizer) Observe(recv nf.Value, tag ast.Identifier, args []typed.Expression) (nf.Value, error) {
	vals, err := n.evalArgs(args, nf.Env{})
	if err != nil {
		return nil, err
	}
	return n.observe(recv, tag, vals)
}

// ObservePath applies a chain of observations left to right, as in
// `Zeroes.tail.tail.head`.
func (n *Normalizer) ObservePath(recv nf.Value, path []Observation) (nf.Value, error) {
	out := recv
	for _, obs := range path {
		var err error
		out, err = n.Observe(out, obs.Tag, obs.Args)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func bindAll(env nf.Env, binds []ast.Identifier, vals []nf.Value, tag ast.Identifier) {
	if len(binds) != len(vals) {
		panic(common.NewSystemError("clause for `%s` binds %d names, got %d values", tag, len(binds), len(vals)))
	}
	for i, b := range binds {
		env.Bind(b, vals[i])
	}
}

// dispatch runs a local match on a normalized scrutinee.
func (n *Normalizer) dispatch(on nf.Value, cases []typed.Clause, env nf.Env) (nf.Value, error) {
	ctor, ok := on.(*nf.Ctor)
	if !ok {
		if _, isHole := on.(nf.Hole); isHole {
			return nil, errors.New("cannot match on a hole")
		}
		panic(common.NewSystemError("matched a non-constructor value %s", on))
	}
	for i := range cases {
		if cases[i].Tag != ctor.Tag {
			continue
		}
		child := env.Clone()
		bindAll(child, cases[i].Binds, ctor.Args, ctor.Tag)
		return n.eval(cases[i].Body, child)
	}
	panic(common.NewSystemError("no case for `%s`", ctor.Tag))
}
