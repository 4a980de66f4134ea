package core

import (
	"context"
	"os"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// stageProgress shows pipeline stages on stderr. A nil bar makes every call a no-op.
type stageProgress struct {
	bar *progressbar.ProgressBar
}

// newStageProgress creates a bar when stderr is a terminal and the context allows it.
func newStageProgress(ctx context.Context, stages int) *stageProgress {
	if shouldSuppressProgress(ctx) || !term.IsTerminal(int(os.Stderr.Fd())) {
		return &stageProgress{}
	}
	return &stageProgress{bar: progressbar.NewOptions(stages,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetDescription("[cyan]Preparing...[reset]"),
	)}
}

// step names the stage being entered and advances past the previous one.
func (p *stageProgress) step(desc string) {
	if p.bar == nil {
		return
	}
	p.bar.Describe("[cyan]" + desc + "[reset]")
	if err := p.bar.Add(1); err != nil {
		zap.L().Debug("core: progress update failed", zap.Error(err))
	}
}

func (p *stageProgress) finish() {
	if p.bar == nil {
		return
	}
	if err := p.bar.Finish(); err != nil {
		zap.L().Debug("core: progress finish failed", zap.Error(err))
	}
}
