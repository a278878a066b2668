package progress

import (
	"context"

	"github.com/rs/zerolog"
)

// LogReporter writes events to a structured logger. Used by the background worker.
type LogReporter struct {
	Logger zerolog.Logger
}

func (l LogReporter) Report(ctx context.Context, ev Event) error {
	e := l.Logger.Info()
	switch d := ev.Data.(type) {
	case JobEvent:
		if ev.Type == EventJobFailed {
			e = l.Logger.Warn()
		}
		e = e.Str("job_id", d.JobID).Str("keyword_id", d.KeywordID).Str("status", string(d.Status))
		if d.ErrorMessage != nil {
			e = e.Str("error", *d.ErrorMessage)
		}
		if d.Cost > 0 {
			e = e.Float64("cost", d.Cost)
		}
	case BatchCompleted:
		e = e.Str("batch_id", d.BatchID).Str("status", string(d.Status)).Int("completed", d.Completed).Int("failed", d.Failed)
	case Progress:
		e = l.Logger.Debug().Int("completed", d.Completed).Int("failed", d.Failed).Int("total", d.Total)
	}
	e.Str("event", string(ev.Type)).Msg("progress")
	return nil
}

var _ Reporter = LogReporter{}
