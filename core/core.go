// Package core has the classification pipeline and the orchestration around it:
// loading rosters, tracking runs, comparing methods and evaluating them.
package core

import (
	"context"

	"github.com/huangsam/tierscope/internal/contract"
)

// ExecutorFunc defines the function signature for executing roster commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error

var (
	_ ExecutorFunc = ExecuteClassify
	_ ExecutorFunc = ExecuteCompare
	_ ExecutorFunc = ExecuteEvaluate
	_ ExecutorFunc = ExecuteFlagged
)
