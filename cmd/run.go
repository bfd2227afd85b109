package cmd

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uiprogress"
	"go.uber.org/zap"

	"tablesync/internal/engine"
	"tablesync/internal/syncerr"
)

// progressBar feeds a job's write phase into a terminal bar.
type progressBar struct {
	label    string
	progress *uiprogress.Progress
	bar      *uiprogress.Bar
}

func newProgressBar(label string) *progressBar {
	return &progressBar{label: label}
}

func (p *progressBar) Start(total int) {
	if total <= 0 || p.progress != nil {
		return
	}
	p.progress = uiprogress.New()
	p.progress.Start()
	p.bar = p.progress.AddBar(total).AppendCompleted().PrependElapsed()
	p.bar.PrependFunc(func(b *uiprogress.Bar) string {
		return fmt.Sprintf("%s %s/%s ", p.label, humanize.Comma(int64(b.Current())), humanize.Comma(int64(total)))
	})
}

func (p *progressBar) Incr() {
	if p.bar != nil {
		p.bar.Incr()
	}
}

// Stop may be called more than once.
func (p *progressBar) Stop() {
	if p.progress != nil {
		p.progress.Stop()
		p.progress, p.bar = nil, nil
	}
}

func newSynchronizer(bar *progressBar) *engine.Synchronizer {
	return engine.New(Cfg, engine.WithLogger(Log), engine.WithProgress(bar))
}

// finish prints the job summary, or logs the failure once and returns a
// caller-safe error.
func finish(rep engine.Report, err error) error {
	if err != nil {
		p, _ := syncerr.Translate(err)
		Log.Error("job failed",
			zap.String("job", rep.ID),
			zap.String("errorCode", p.Code),
			zap.Error(err))
		return err
	}
	fmt.Println(rep)
	return nil
}

// describe renders err the way the API would present it.
func describe(err error) string {
	var se *syncerr.Error
	if !errors.As(err, &se) {
		return err.Error()
	}
	p, detail := syncerr.Translate(err)
	return fmt.Sprintf("%s (%s): %s", p.Title, p.Code, detail)
}
