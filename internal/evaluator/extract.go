package evaluator

import (
	"github.com/anthropics/longline/internal/shellstmt"
)

// Extract flattens a parsed statement forest into the commands, redirects,
// and heredocs the evaluator checks, recording which non-command constructs
// were present along the way.
func Extract(roots []*shellstmt.Statement) *Extracted {
	ex := &Extracted{}
	for _, root := range roots {
		extractStmt(root, ex, nil, nil)
	}
	return ex
}

// extractStmt recurses through one statement, threading pipe context
// (pipesTo/pipesFrom describe the *name* of the adjacent pipeline stage,
// one hop in each direction — see the pipeline-matcher limitation note in
// the design ledger) down to the leaf commands it eventually reaches.
func extractStmt(s *shellstmt.Statement, ex *Extracted, pipesTo, pipesFrom []string) {
	if s == nil {
		return
	}
	if s.Background {
		ex.Constructs.HasBackground = true
	}
	extractRedirects(s, ex)
	for _, sub := range s.Substitutions {
		extractStmt(sub, ex, nil, nil)
	}

	switch s.Kind {
	case shellstmt.KindSimpleCommand:
		extractCommand(s, ex, pipesTo, pipesFrom)

	case shellstmt.KindPipeline:
		names := make([]string, len(s.Stages))
		for i, stage := range s.Stages {
			names[i] = leadName(stage)
		}
		for i, stage := range s.Stages {
			var to, from []string
			if i+1 < len(names) {
				to = []string{names[i+1]}
			}
			if i > 0 {
				from = []string{names[i-1]}
			}
			extractStmt(stage, ex, to, from)
		}

	case shellstmt.KindList:
		extractStmt(s.Left, ex, nil, nil)
		extractStmt(s.Right, ex, nil, nil)

	case shellstmt.KindSubshell:
		ex.Constructs.HasSubshells = true
		for _, b := range s.Body {
			extractStmt(b, ex, nil, nil)
		}

	case shellstmt.KindCompound:
		if s.CompoundOf == shellstmt.CompoundFunction {
			ex.Constructs.HasFunctionDefs = true
		}
		for _, b := range s.Body {
			extractStmt(b, ex, nil, nil)
		}

	case shellstmt.KindCommandSubstitution:
		for _, b := range s.Body {
			extractStmt(b, ex, nil, nil)
		}

	case shellstmt.KindOpaque:
		ex.Commands = append(ex.Commands, Command{
			Name:      "",
			IsDynamic: true,
			Args:      []string{s.OpaqueReason},
		})
	}
}

// leadName returns the head word of a pipeline stage, best-effort, for pipe
// context labelling; non-simple-command stages (a subshell piped into
// something, say) are labelled with an empty name and simply won't match
// any pipe.to/pipe.from pattern.
func leadName(s *shellstmt.Statement) string {
	if s.Kind == shellstmt.KindSimpleCommand && len(s.Argv) > 0 {
		return s.Argv[0]
	}
	return ""
}

func extractRedirects(s *shellstmt.Statement, ex *Extracted) {
	for _, r := range s.Redirects {
		switch r.Op {
		case shellstmt.RedirectHeredoc:
			ex.Constructs.HasHeredocs = true
			ex.Heredocs = append(ex.Heredocs, HeredocEval{
				Delimiter: r.Delimiter,
				Body:      r.Body,
				IsDynamic: r.BodyDyn,
			})
		case shellstmt.RedirectHereString:
			ex.Constructs.HasHeredocs = true
			ex.Heredocs = append(ex.Heredocs, HeredocEval{
				Body:         r.Body,
				IsDynamic:    r.BodyDyn,
				IsHereString: true,
			})
		case shellstmt.RedirectDupOut, shellstmt.RedirectDupIn:
			ex.Redirects = append(ex.Redirects, RedirectEval{Target: r.Target, IsFD: true})
		default:
			ex.Redirects = append(ex.Redirects, RedirectEval{
				Target:    r.Target,
				Append:    r.Op == shellstmt.RedirectAppend,
				IsDynamic: r.IsDynamic,
			})
		}
	}
}

// extractCommand unwraps transparent wrappers and find/xargs indirection,
// then records every real command the statement will actually invoke: the
// outer wrapper's target and, for find -exec / xargs, the inner command
// they dispatch to.
func extractCommand(s *shellstmt.Statement, ex *Extracted, pipesTo, pipesFrom []string) {
	if len(s.Argv) == 0 {
		return
	}

	argv, inner := unwrap(s.Argv, maxUnwrapDepth)
	if len(argv) == 0 {
		return
	}
	ex.Commands = append(ex.Commands, Command{
		Name:      argv[0],
		Args:      argv,
		IsDynamic: s.IsDynamic,
		PipesTo:   pipesTo,
		PipesFrom: pipesFrom,
	})
	for _, in := range inner {
		if len(in) == 0 {
			continue
		}
		ex.Commands = append(ex.Commands, Command{
			Name:      in[0],
			Args:      in,
			IsDynamic: s.IsDynamic,
		})
	}
}
