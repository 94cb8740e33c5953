// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package texttemplate

import (
	"github.com/k14s/starlark-go/syntax"
)

// ProgramAST rewrites parsed generated code before it is resolved:
// functions whose bodies produce text capture and return that text,
// and a trailing top-level expression is stored as the template's value.
type ProgramAST struct {
	f            *syntax.File
	instructions *InstructionSet
}

func NewProgramAST(f *syntax.File, instructions *InstructionSet) *ProgramAST {
	return &ProgramAST{f: f, instructions: instructions}
}

func (r *ProgramAST) Rewrite() {
	r.stmts(r.f.Stmts)
	r.captureTrailingValue()
}

func (r *ProgramAST) stmts(stmts []syntax.Stmt) {
	for _, stmt := range stmts {
		switch stmt := stmt.(type) {
		case *syntax.IfStmt:
			r.stmts(stmt.True)
			r.stmts(stmt.False)

		case *syntax.ForStmt:
			r.stmts(stmt.Body)

		case *syntax.WhileStmt:
			r.stmts(stmt.Body)

		case *syntax.DefStmt:
			r.function(stmt)
		}
	}
}

func (r *ProgramAST) function(function *syntax.DefStmt) {
	// nested functions are rewritten on their own
	r.stmts(function.Body)

	if !r.producesOutput(function.Body) {
		return
	}

	r.wrapReturns(function.Body)

	startStmt := &syntax.ExprStmt{
		X: &syntax.CallExpr{Fn: &syntax.Ident{Name: r.instructions.StartCapture.Name}},
	}
	endStmt := &syntax.ReturnStmt{
		Result: &syntax.CallExpr{Fn: &syntax.Ident{Name: r.instructions.EndCapture.Name}},
	}

	function.Body = append(append([]syntax.Stmt{startStmt}, function.Body...), endStmt)
}

// producesOutput looks for output instructions in stmts, not descending into nested functions.
func (r *ProgramAST) producesOutput(stmts []syntax.Stmt) bool {
	for _, stmt := range stmts {
		switch stmt := stmt.(type) {
		case *syntax.ExprStmt:
			if r.isInstructionCall(stmt.X, r.instructions.IsOutputOp) {
				return true
			}
		case *syntax.IfStmt:
			if r.producesOutput(stmt.True) || r.producesOutput(stmt.False) {
				return true
			}
		case *syntax.ForStmt:
			if r.producesOutput(stmt.Body) {
				return true
			}
		case *syntax.WhileStmt:
			if r.producesOutput(stmt.Body) {
				return true
			}
		}
	}
	return false
}

// wrapReturns makes explicit returns end the capture; a returned value wins over captured text.
func (r *ProgramAST) wrapReturns(stmts []syntax.Stmt) {
	for _, stmt := range stmts {
		switch stmt := stmt.(type) {
		case *syntax.ReturnStmt:
			args := []syntax.Expr{}
			if stmt.Result != nil {
				args = []syntax.Expr{stmt.Result}
			}
			stmt.Result = &syntax.CallExpr{
				Fn:   &syntax.Ident{Name: r.instructions.EndCapture.Name},
				Args: args,
			}
		case *syntax.IfStmt:
			r.wrapReturns(stmt.True)
			r.wrapReturns(stmt.False)
		case *syntax.ForStmt:
			r.wrapReturns(stmt.Body)
		case *syntax.WhileStmt:
			r.wrapReturns(stmt.Body)
		}
	}
}

func (r *ProgramAST) captureTrailingValue() {
	if len(r.f.Stmts) == 0 {
		return
	}

	last, ok := r.f.Stmts[len(r.f.Stmts)-1].(*syntax.ExprStmt)
	if !ok || r.isInstructionCall(last.X, r.instructions.IsInstruction) {
		return
	}

	r.f.Stmts[len(r.f.Stmts)-1] = &syntax.AssignStmt{
		Op:  syntax.EQ,
		LHS: &syntax.Ident{Name: r.instructions.Result},
		RHS: last.X,
	}
}

func (r *ProgramAST) isInstructionCall(expr syntax.Expr, pred func(string) bool) bool {
	call, ok := expr.(*syntax.CallExpr)
	if !ok {
		return false
	}
	ident, ok := call.Fn.(*syntax.Ident)
	return ok && pred(ident.Name)
}
