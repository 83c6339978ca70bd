package shellstmt

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Parse parses a shell script and returns its normalized statement list.
// Each top-level statement in the script becomes one root Statement,
// connected by ListSeq the way bare newline/semicolon separation works.
func Parse(script string) ([]*Statement, error) {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	f, err := parser.Parse(strings.NewReader(script), "")
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	var roots []*Statement
	for _, stmt := range f.Stmts {
		roots = append(roots, fromStmt(stmt))
	}
	return roots, nil
}

// fromStmt converts one syntax.Stmt (and its redirects/background flag)
// into a Statement, dispatching on the underlying syntax.Command.
func fromStmt(stmt *syntax.Stmt) *Statement {
	var s *Statement
	if stmt.Cmd != nil {
		s = fromCmd(stmt.Cmd)
	} else {
		s = &Statement{Kind: KindOpaque, OpaqueReason: "empty statement"}
	}

	s.Background = stmt.Background
	for _, r := range stmt.Redirs {
		red, subs := fromRedirect(r)
		s.Redirects = append(s.Redirects, red)
		s.Substitutions = append(s.Substitutions, subs...)
	}
	return s
}

func fromRedirect(r *syntax.Redirect) (Redirect, []*Statement) {
	if r.Hdoc != nil {
		delim, _ := wordText(r.Word)
		body, dyn, subs := wordTextWithSubs(r.Hdoc)
		return Redirect{
			Op:        RedirectHeredoc,
			Delimiter: delim,
			Body:      body,
			BodyDyn:   dyn,
		}, subs
	}
	if r.Op == syntax.WordHdoc {
		body, dyn, subs := wordTextWithSubs(r.Word)
		return Redirect{Op: RedirectHereString, Body: body, BodyDyn: dyn}, subs
	}

	target, dyn, subs := wordTextWithSubs(r.Word)
	op := redirectOpFor(r.Op)
	isFD := r.Op == syntax.DplOut || r.Op == syntax.DplIn
	return Redirect{Op: op, Target: target, IsDynamic: dyn, IsFD: isFD}, subs
}

func redirectOpFor(op syntax.RedirOperator) RedirectOp {
	switch op {
	case syntax.AppOut:
		return RedirectAppend
	case syntax.RdrIn:
		return RedirectRead
	case syntax.RdrAll, syntax.RdrInOut:
		return RedirectReadWrite
	case syntax.DplOut:
		return RedirectDupOut
	case syntax.DplIn:
		return RedirectDupIn
	case syntax.ClbOut:
		return RedirectClobber
	default:
		return RedirectWrite
	}
}

// fromCmd dispatches on the concrete syntax.Command implementation,
// following the same variant coverage as the teacher's extractFromCmd:
// CallExpr, BinaryCmd (pipe / && / ||), Subshell, Block, and the
// conditional/loop/case/coproc/time clauses, all folded into Compound.
func fromCmd(cmd syntax.Command) *Statement {
	switch c := cmd.(type) {
	case *syntax.CallExpr:
		return fromCallExpr(c)

	case *syntax.BinaryCmd:
		return fromBinaryCmd(c)

	case *syntax.Subshell:
		return &Statement{Kind: KindSubshell, Body: fromStmtList(c.Stmts)}

	case *syntax.Block:
		return &Statement{Kind: KindCompound, CompoundOf: CompoundBlock, Body: fromStmtList(c.Stmts)}

	case *syntax.IfClause:
		var body []*Statement
		body = append(body, fromStmtList(c.Cond)...)
		body = append(body, fromStmtList(c.Then)...)
		if c.Else != nil {
			body = append(body, fromCmd(c.Else))
		}
		return &Statement{Kind: KindCompound, CompoundOf: CompoundIf, Body: body}

	case *syntax.WhileClause:
		kind := CompoundWhile
		if c.Until {
			kind = CompoundUntil
		}
		var body []*Statement
		body = append(body, fromStmtList(c.Cond)...)
		body = append(body, fromStmtList(c.Do)...)
		return &Statement{Kind: KindCompound, CompoundOf: kind, Body: body}

	case *syntax.ForClause:
		return &Statement{Kind: KindCompound, CompoundOf: CompoundFor, Body: fromStmtList(c.Do)}

	case *syntax.CaseClause:
		var body []*Statement
		for _, item := range c.Items {
			body = append(body, fromStmtList(item.Stmts)...)
		}
		return &Statement{Kind: KindCompound, CompoundOf: CompoundCase, Body: body}

	case *syntax.FuncDecl:
		return &Statement{
			Kind:       KindCompound,
			CompoundOf: CompoundFunction,
			Name:       c.Name.Value,
			Body:       []*Statement{fromStmt(c.Body)},
		}

	case *syntax.CoprocClause:
		var body []*Statement
		if c.Stmt != nil {
			body = append(body, fromStmt(c.Stmt))
		}
		return &Statement{Kind: KindCompound, CompoundOf: CompoundCoproc, Body: body}

	case *syntax.TimeClause:
		var body []*Statement
		if c.Stmt != nil {
			body = append(body, fromStmt(c.Stmt))
		}
		return &Statement{Kind: KindCompound, CompoundOf: CompoundTime, Body: body}

	case *syntax.ArithmCmd, *syntax.LetClause:
		return &Statement{Kind: KindOpaque, OpaqueReason: "arithmetic command"}

	case *syntax.TestClause:
		return &Statement{Kind: KindOpaque, OpaqueReason: "test expression"}

	case *syntax.DeclClause:
		return &Statement{Kind: KindOpaque, OpaqueReason: "declaration builtin"}

	default:
		return &Statement{Kind: KindOpaque, OpaqueReason: fmt.Sprintf("unrecognized construct %T", cmd)}
	}
}

func fromStmtList(stmts []*syntax.Stmt) []*Statement {
	out := make([]*Statement, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, fromStmt(s))
	}
	return out
}

func fromCallExpr(c *syntax.CallExpr) *Statement {
	assigns, assignSubs := fromAssigns(c.Assigns)

	if len(c.Args) == 0 {
		return &Statement{
			Kind:          KindOpaque,
			OpaqueReason:  "call with no argv (assignment-only statement)",
			Assignments:   assigns,
			Substitutions: assignSubs,
		}
	}

	argv := make([]string, len(c.Args))
	isDynamic := false
	subs := append([]*Statement(nil), assignSubs...)
	for i, w := range c.Args {
		text, dyn, wsubs := wordTextWithSubs(w)
		argv[i] = text
		if dyn {
			isDynamic = true
		}
		subs = append(subs, wsubs...)
	}

	return &Statement{
		Kind:          KindSimpleCommand,
		Argv:          argv,
		IsDynamic:     isDynamic,
		Assignments:   assigns,
		Substitutions: subs,
	}
}

// fromAssigns renders a simple command's ordered env-assignment prefixes
// (FOO=bar, BAZ=$(cat x) ...) into Assignments, collecting any command
// substitutions in their values the same way argument words do.
func fromAssigns(assigns []*syntax.Assign) ([]Assignment, []*Statement) {
	if len(assigns) == 0 {
		return nil, nil
	}
	out := make([]Assignment, 0, len(assigns))
	var subs []*Statement
	for _, a := range assigns {
		var name string
		if a.Name != nil {
			name = a.Name.Value
		}
		text, dyn, wsubs := wordTextWithSubs(a.Value)
		out = append(out, Assignment{Name: name, Value: text, IsDynamic: dyn})
		subs = append(subs, wsubs...)
	}
	return out, subs
}

// fromBinaryCmd folds pipelines into KindPipeline (flattening a right-leaning
// chain of pipe operators into one stage list) and && / || into KindList.
func fromBinaryCmd(c *syntax.BinaryCmd) *Statement {
	switch c.Op {
	case syntax.Pipe, syntax.PipeAll:
		stages := flattenPipeline(c)
		return &Statement{Kind: KindPipeline, Stages: stages}
	case syntax.AndStmt:
		return &Statement{Kind: KindList, Op: ListAnd, Left: fromStmt(c.X), Right: fromStmt(c.Y)}
	default: // syntax.OrStmt
		return &Statement{Kind: KindList, Op: ListOr, Left: fromStmt(c.X), Right: fromStmt(c.Y)}
	}
}

func flattenPipeline(c *syntax.BinaryCmd) []*Statement {
	var stages []*Statement
	var walk func(stmt *syntax.Stmt)
	walk = func(stmt *syntax.Stmt) {
		if bc, ok := stmt.Cmd.(*syntax.BinaryCmd); ok && (bc.Op == syntax.Pipe || bc.Op == syntax.PipeAll) {
			walk(bc.X)
			walk(bc.Y)
			return
		}
		stages = append(stages, fromStmt(stmt))
	}
	walk(c.X)
	walk(c.Y)
	return stages
}

// wordText renders a word's literal text, ignoring whether any part was
// dynamic. Used only for heredoc delimiters, which are never substituted.
func wordText(w *syntax.Word) (string, bool) {
	text, dyn, _ := wordTextWithSubs(w)
	return text, dyn
}

// wordTextWithSubs renders a word to text and collects any command
// substitutions found in it as independent Statement trees — kept inline
// in the rendered text (as a "$(…)" placeholder) and returned separately
// so a caller can evaluate the substitution's body on its own.
func wordTextWithSubs(w *syntax.Word) (string, bool, []*Statement) {
	if w == nil {
		return "", false, nil
	}
	var b strings.Builder
	isDynamic := false
	var subs []*Statement
	for _, part := range w.Parts {
		text, dyn, partSubs := wordPartText(part)
		b.WriteString(text)
		if dyn {
			isDynamic = true
		}
		subs = append(subs, partSubs...)
	}
	return b.String(), isDynamic, subs
}

func wordPartText(part syntax.WordPart) (string, bool, []*Statement) {
	switch p := part.(type) {
	case *syntax.Lit:
		return p.Value, false, nil
	case *syntax.SglQuoted:
		return p.Value, false, nil
	case *syntax.DblQuoted:
		var b strings.Builder
		isDynamic := false
		var subs []*Statement
		for _, inner := range p.Parts {
			text, dyn, innerSubs := wordPartText(inner)
			b.WriteString(text)
			if dyn {
				isDynamic = true
			}
			subs = append(subs, innerSubs...)
		}
		return b.String(), isDynamic, subs
	case *syntax.ParamExp:
		if p.Param != nil {
			return "$" + p.Param.Value, true, nil
		}
		return "$?", true, nil
	case *syntax.CmdSubst:
		var body []*Statement
		for _, s := range p.Stmts {
			body = append(body, fromStmt(s))
		}
		sub := &Statement{Kind: KindCommandSubstitution, Body: body}
		return "$(…)", true, []*Statement{sub}
	case *syntax.ArithmExp:
		return "$((…))", true, nil
	case *syntax.ProcSubst:
		if p.Op == syntax.CmdIn {
			return "<(…)", true, nil
		}
		return ">(…)", true, nil
	case *syntax.ExtGlob:
		return fmt.Sprintf("%c(%s)", p.Op, p.Pattern.Value), false, nil
	case *syntax.BraceExp:
		var elems []string
		for _, elem := range p.Elems {
			text, _, _ := wordTextWithSubs(elem)
			elems = append(elems, text)
		}
		return "{" + strings.Join(elems, ",") + "}", false, nil
	default:
		return fmt.Sprintf("<%T>", p), true, nil
	}
}
