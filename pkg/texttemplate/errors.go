// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package texttemplate

import (
	"fmt"
	"regexp"
	"strings"

	"carvel.dev/ytpl/pkg/filepos"
	"carvel.dev/ytpl/pkg/template"
	"github.com/k14s/starlark-go/resolve"
	"github.com/k14s/starlark-go/starlark"
	"github.com/k14s/starlark-go/syntax"
)

var (
	bitwiseOrRegexp  = regexp.MustCompile(`^unknown binary op: .+ \| .+$`)
	bitwiseAndRegexp = regexp.MustCompile(`^unknown binary op: .+ & .+$`)
)

// diagnostics converts parse and resolve failures into error diagnostics.
func (p *Program) diagnostics(err error) template.Diagnostics {
	switch typedErr := err.(type) {
	case syntax.Error:
		return template.Diagnostics{
			template.NewErrorDiagnostic(p.spanAt(typedErr.Pos), "%s", p.withHint(typedErr.Msg, typedErr.Pos)),
		}

	case resolve.ErrorList:
		var result template.Diagnostics
		for _, resolveErr := range typedErr {
			result = append(result, template.NewErrorDiagnostic(
				p.spanAt(resolveErr.Pos), "%s", p.withHint(resolveErr.Msg, resolveErr.Pos)))
		}
		return result

	default:
		return template.Diagnostics{template.NewErrorDiagnostic(p.span(), "%s", err.Error())}
	}
}

func (p *Program) newError(err error) error {
	switch typedErr := err.(type) {
	case syntax.Error, resolve.ErrorList:
		diags := p.diagnostics(typedErr)
		return template.NewError(template.ErrEvaluation, diags[0].Span,
			"%s", diags[0].Message).WithDiagnostics(diags[1:])

	case *starlark.EvalError:
		span, pos := p.evalErrSpan(typedErr)
		return template.NewError(template.ErrEvaluation, span, "%s", p.withHint(typedErr.Msg, pos))

	default:
		return template.NewError(template.ErrEvaluation, p.span(), "Evaluating template").WithCause(err)
	}
}

// evalErrSpan picks the innermost call frame located in this program.
func (p *Program) evalErrSpan(err *starlark.EvalError) (filepos.Span, syntax.Position) {
	for i := len(err.CallStack) - 1; i >= 0; i-- {
		pos := err.CallStack[i].Pos
		if pos.Line > 0 && pos.Filename() == p.filename() {
			return p.spanAt(pos), pos
		}
	}
	return p.span(), syntax.Position{}
}

func (p *Program) codeAt(pos syntax.Position) string {
	if pos.Line <= 0 || int(pos.Line) > len(p.code) {
		return ""
	}
	return p.code[pos.Line-1].Instruction.AsString()
}

func (p *Program) withHint(msg string, pos syntax.Position) string {
	hintMsg := ""
	switch {
	case msg == "undefined: true":
		hintMsg = "use 'True' instead of 'true' for boolean assignment"
	case msg == "undefined: false":
		hintMsg = "use 'False' instead of 'false' for boolean assignment"
	case msg == "got newline, want ':'":
		hintMsg = "missing colon at the end of 'if/for/def' statement?"
	case msg == "undefined: null", msg == "undefined: nil", msg == "undefined: none":
		hintMsg = "use 'None' instead of '" + strings.TrimPrefix(msg, "undefined: ") + "' to indicate no value"
	case strings.HasPrefix(msg, "mismatched set of block openings"):
		hintMsg = "every 'if/for/def' block needs a matching 'end'"
	case bitwiseOrRegexp.MatchString(msg):
		hintMsg = "use 'or' instead of '|' for logical-or"
	case bitwiseAndRegexp.MatchString(msg):
		hintMsg = "use 'and' instead of '&' for logical-and"
	case msg == "got '&', want primary expression" && strings.Contains(p.codeAt(pos), "&&"):
		hintMsg = "use 'and' instead of '&&' for logical-and"
	case msg == "got '|', want primary expression" && strings.Contains(p.codeAt(pos), "||"):
		hintMsg = "use 'or' instead of '||' for logical-or"
	}

	if len(hintMsg) > 0 {
		return fmt.Sprintf("%s (hint: %s)", msg, hintMsg)
	}
	return msg
}
