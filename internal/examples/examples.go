// Package examples holds hand-built sample programs, assembled the
// same way the driver package's own tests build a tree: no lexer or
// parser is part of this engine, so a program is an ast.Block built
// directly with Go composite literals. cmd/asteria's `run`/`list`
// subcommands use these as the closest thing to a script file this
// repository can run from the command line.
package examples

import "github.com/asteria-lang/asteria/internal/ast"

// Program is one runnable sample, named so the CLI can select it.
type Program struct {
	Name        string
	Description string
	Header      ast.FunctionHeader
	Body        ast.Block
}

func lit(l ast.Literal) ast.Atom { return ast.LiteralAtom{Value: l} }
func ref(name string) ast.Atom   { return ast.NamedReferenceAtom{Name: name} }

// All returns every registered sample program, in a stable order.
func All() []Program {
	return []Program{closureCounter(), forEachSum(), tryCatchRethrow(), nativeEcho()}
}

// Find looks up one sample by name.
func Find(name string) (Program, bool) {
	for _, p := range All() {
		if p.Name == name {
			return p, true
		}
	}
	return Program{}, false
}

// closureCounter builds a counter-factory closure and calls it three
// times, returning the final count — exercises lexical capture of an
// enclosing local across repeated calls to the same instantiated function.
func closureCounter() Program {
	makeCounter := ast.FunctionDefinition{
		Name:   "makeCounter",
		Header: ast.FunctionHeader{FuncName: "makeCounter"},
		Body: ast.Block{Statements: []ast.Statement{
			ast.VariableDefinition{Name: "n", Init: ast.Expression{Atoms: []ast.Atom{lit(ast.IntLiteral{Value: 0})}}},
			ast.ReturnStatement{Expr: ast.Expression{Atoms: []ast.Atom{
				ast.LambdaDefinitionAtom{
					Header: ast.FunctionHeader{FuncName: "increment"},
					Body: ast.Block{Statements: []ast.Statement{
						ast.ExpressionStatement{Expr: ast.Expression{Atoms: []ast.Atom{
							ref("n"), lit(ast.IntLiteral{Value: 1}), ast.OperatorRPNAtom{Op: ast.OpAdd, Assign: true},
						}}},
						ast.ReturnStatement{Expr: ast.Expression{Atoms: []ast.Atom{ref("n")}}},
					}},
				},
			}}},
		}},
	}
	body := ast.Block{Statements: []ast.Statement{
		makeCounter,
		ast.VariableDefinition{Name: "counter", Init: ast.Expression{Atoms: []ast.Atom{ref("makeCounter"), ast.FunctionCallAtom{Argc: 0}}}},
		ast.ExpressionStatement{Expr: ast.Expression{Atoms: []ast.Atom{ref("counter"), ast.FunctionCallAtom{Argc: 0}}}},
		ast.ExpressionStatement{Expr: ast.Expression{Atoms: []ast.Atom{ref("counter"), ast.FunctionCallAtom{Argc: 0}}}},
		ast.ReturnStatement{Expr: ast.Expression{Atoms: []ast.Atom{ref("counter"), ast.FunctionCallAtom{Argc: 0}}}},
	}}
	return Program{Name: "closure-counter", Description: "counter factory called three times", Header: ast.FunctionHeader{FuncName: "main"}, Body: body}
}

// forEachSum builds the array [10, 20, 30] by indexed assignment into a
// null variable (auto-vivification) and sums it with a for-each loop.
func forEachSum() Program {
	body := ast.Block{Statements: []ast.Statement{
		ast.VariableDefinition{Name: "sum", Init: ast.Expression{Atoms: []ast.Atom{lit(ast.IntLiteral{Value: 0})}}},
		ast.VariableDefinition{Name: "items", Init: ast.Expression{Atoms: []ast.Atom{lit(ast.NullLiteral{})}}},
		ast.ExpressionStatement{Expr: ast.Expression{Atoms: []ast.Atom{
			ref("items"), lit(ast.IntLiteral{Value: 0}), ast.OperatorRPNAtom{Op: ast.OpIndex}, lit(ast.IntLiteral{Value: 10}), ast.OperatorRPNAtom{Op: ast.OpAssign},
		}}},
		ast.ExpressionStatement{Expr: ast.Expression{Atoms: []ast.Atom{
			ref("items"), lit(ast.IntLiteral{Value: 1}), ast.OperatorRPNAtom{Op: ast.OpIndex}, lit(ast.IntLiteral{Value: 20}), ast.OperatorRPNAtom{Op: ast.OpAssign},
		}}},
		ast.ExpressionStatement{Expr: ast.Expression{Atoms: []ast.Atom{
			ref("items"), lit(ast.IntLiteral{Value: 2}), ast.OperatorRPNAtom{Op: ast.OpIndex}, lit(ast.IntLiteral{Value: 30}), ast.OperatorRPNAtom{Op: ast.OpAssign},
		}}},
		ast.ForEachStatement{
			MappedName: "v",
			Range:      ast.Expression{Atoms: []ast.Atom{ref("items")}},
			Body: ast.Block{Statements: []ast.Statement{
				ast.ExpressionStatement{Expr: ast.Expression{Atoms: []ast.Atom{
					ref("sum"), ref("v"), ast.OperatorRPNAtom{Op: ast.OpAdd, Assign: true},
				}}},
			}},
		},
		ast.ReturnStatement{Expr: ast.Expression{Atoms: []ast.Atom{ref("sum")}}},
	}}
	return Program{Name: "foreach-sum", Description: "sums a three-element array", Header: ast.FunctionHeader{FuncName: "main"}, Body: body}
}

// tryCatchRethrow throws from a nested call, catches it, and returns 1
// (the value the catch block assigns over the initial -1) — exercises
// unwinding an exception out of a call into an enclosing try/catch.
func tryCatchRethrow() Program {
	boom := ast.FunctionDefinition{
		Name:   "boom",
		Header: ast.FunctionHeader{FuncName: "boom", Loc: ast.SourceLocation{File: "examples", Line: 1}},
		Body: ast.Block{Statements: []ast.Statement{
			ast.ThrowStatement{Expr: ast.Expression{Atoms: []ast.Atom{lit(ast.StringLiteral{Value: "boom"})}}, Loc: ast.SourceLocation{File: "examples", Line: 2}},
		}},
	}
	body := ast.Block{Statements: []ast.Statement{
		boom,
		ast.VariableDefinition{Name: "result", Init: ast.Expression{Atoms: []ast.Atom{lit(ast.IntLiteral{Value: -1})}}},
		ast.TryStatement{
			Try: ast.Block{Statements: []ast.Statement{
				ast.ExpressionStatement{Expr: ast.Expression{Atoms: []ast.Atom{ref("boom"), ast.FunctionCallAtom{Argc: 0}}}},
			}},
			ExceptName: "caught",
			Catch: ast.Block{Statements: []ast.Statement{
				ast.ExpressionStatement{Expr: ast.Expression{Atoms: []ast.Atom{ref("result"), lit(ast.IntLiteral{Value: 1}), ast.OperatorRPNAtom{Op: ast.OpAssign}}}},
			}},
		},
		ast.ReturnStatement{Expr: ast.Expression{Atoms: []ast.Atom{ref("result")}}},
	}}
	return Program{Name: "try-catch", Description: "throws from a nested call and catches it", Header: ast.FunctionHeader{FuncName: "main"}, Body: body}
}

// nativeEcho calls kv_open inside a try block, demonstrating the natives
// call path: it returns "connected" when the call succeeds and
// "unavailable" when it throws. kv_open only builds a Redis client and
// does not contact the server, so a missing server does not make it throw.
func nativeEcho() Program {
	body := ast.Block{Statements: []ast.Statement{
		ast.VariableDefinition{Name: "status", Init: ast.Expression{Atoms: []ast.Atom{lit(ast.StringLiteral{Value: "unreached"})}}},
		ast.TryStatement{
			Try: ast.Block{Statements: []ast.Statement{
				ast.VariableDefinition{Name: "kv", Init: ast.Expression{Atoms: []ast.Atom{
					ref("kv_open"), lit(ast.StringLiteral{Value: "localhost:6379"}), ast.FunctionCallAtom{Argc: 1},
				}}},
				ast.ExpressionStatement{Expr: ast.Expression{Atoms: []ast.Atom{
					ref("status"), lit(ast.StringLiteral{Value: "connected"}), ast.OperatorRPNAtom{Op: ast.OpAssign},
				}}},
			}},
			ExceptName: "err",
			Catch: ast.Block{Statements: []ast.Statement{
				ast.ExpressionStatement{Expr: ast.Expression{Atoms: []ast.Atom{
					ref("status"), lit(ast.StringLiteral{Value: "unavailable"}), ast.OperatorRPNAtom{Op: ast.OpAssign},
				}}},
			}},
		},
		ast.ReturnStatement{Expr: ast.Expression{Atoms: []ast.Atom{ref("status")}}},
	}}
	return Program{Name: "native-echo", Description: "opens a kv handle through the natives ABI, catching failure", Header: ast.FunctionHeader{FuncName: "main"}, Body: body}
}
