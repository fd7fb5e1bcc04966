// Package plan implements spec.md §4.E: compiling a parsed rbqlparser.Query
// plus its resolved variables into an executable pipeline — a writer
// chain (Top/Uniq/UniqCount/Sorted/Aggregate wrapping the table writer)
// fed by a per-row evaluator that threads WHERE filtering, JOIN probing,
// and SELECT/UPDATE projection together.
package plan

import (
	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rbql-go/rbql/eval"
)

// UserFunc is a host-supplied function made callable from a query
// expression, the Go-native counterpart of RBQL's "user init code": a
// snippet the original language executes once per query to define
// helpers the expressions can then call by name.
type UserFunc func(args []eval.Value) (eval.Value, error)

// QueryContext is the per-run state threaded through plan construction
// and execution: a correlation id for log correlation across a run's
// messages, a logger scoped to it, and any user-registered functions.
// Grounded on the teacher's sqltest.Fixture (one gofrs/uuid per test run)
// and cli/cmd/up.go's use of logrus.StandardLogger().
type QueryContext struct {
	RunID  uuid.UUID
	Logger *logrus.Entry
	Funcs  map[string]UserFunc
}

// NewQueryContext creates a QueryContext with a fresh run id.
func NewQueryContext(logger *logrus.Logger) (*QueryContext, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &QueryContext{
		RunID:  id,
		Logger: logger.WithField("run_id", id.String()),
	}, nil
}
