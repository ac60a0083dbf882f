package solvers

import (
	"strings"

	opts "github.com/goliatone/go-options"
	"github.com/knadh/koanf/v2"
)

// EvalErrorHandler decides what happens to a value whose expression failed. The value is
// left unchanged unless the handler returns a replacement.
type EvalErrorHandler func(expr string, err error) (any, bool)

type expression struct {
	start, end string
	evaluator  opts.Evaluator
	onError    EvalErrorHandler
}

// NewExpressionSolver evaluates values of the form "{{ width * 2 }}" against the document.
func NewExpressionSolver(start, end string) Solver {
	return NewExpressionSolverWithEvaluator(start, end, nil, nil)
}

// NewExpressionSolverWithEvaluator uses eval instead of the expr evaluator.
func NewExpressionSolverWithEvaluator(start, end string, eval opts.Evaluator, onErr EvalErrorHandler) Solver {
	if start == "" {
		start = "{{"
	}
	if end == "" {
		end = "}}"
	}
	if eval == nil {
		eval = opts.NewExprEvaluator()
	}
	return &expression{start: start, end: end, evaluator: eval, onError: onErr}
}

// OnEvalNull replaces values whose expression failed with null.
func OnEvalNull() EvalErrorHandler {
	return func(string, error) (any, bool) {
		return nil, true
	}
}

func (s *expression) Solve(k *koanf.Koanf) *koanf.Koanf {
	if k == nil {
		return k
	}
	snapshot := k.Raw()
	apply(k, func(val string) (any, bool) {
		if !strings.HasPrefix(val, s.start) || !strings.HasSuffix(val, s.end) || len(val) < len(s.start)+len(s.end) {
			return val, false
		}
		expr := strings.TrimSpace(val[len(s.start) : len(val)-len(s.end)])
		if expr == "" {
			return val, false
		}
		result, err := s.evaluator.Evaluate(opts.RuleContext{Snapshot: snapshot}, expr)
		if err != nil {
			if s.onError != nil {
				return s.onError(expr, err)
			}
			return val, false
		}
		return result, true
	})
	return k
}
