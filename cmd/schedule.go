package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/revscore/core"
	"github.com/huangsam/revscore/internal/contract"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

// DefaultSchedule retrains once a day at 03:00 local time.
const DefaultSchedule = "0 3 * * *"

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}

// newScheduler registers job under spec. A run that is still going when the
// next one is due makes the next one skip.
func newScheduler(spec string, logger *slog.Logger, job func()) (*cron.Cron, cron.EntryID, error) {
	cl := cronLogger{logger: logger}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	id, err := c.AddFunc(spec, job)
	if err != nil {
		return nil, 0, contract.NewInvalidInputError("cron", err.Error())
	}
	return c, id, nil
}

// trainJob runs one retrain and logs the outcome instead of exiting.
func trainJob(ctx context.Context, engine *core.Engine, logger *slog.Logger) func() {
	return func() {
		summary, err := engine.RunTraining(ctx)
		flushMetrics()
		if err != nil {
			logger.Error("Scheduled training failed", "kind", contract.KindOf(err), "error", err)
			return
		}
		logger.Info("Scheduled training finished",
			"model", summary.Model.Name,
			"version", summary.Model.Version,
			"examples", summary.TrainExamples,
			"final_loss", summary.FinalLoss,
			"duration", summary.Duration)
	}
}

// scheduleCmd retrains the model periodically until interrupted.
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Retrain the calibration model on a cron schedule",
	Long: `Run as a daemon that retrains the calibration model on a standard
5-field cron schedule, so new comments and feedback are picked up without
manual runs. Stops on SIGINT or SIGTERM after the current run is cancelled.

Examples:
  # Retrain every night at 03:00
  revscore schedule

  # Retrain every 6 hours, and once right away
  revscore schedule --cron "0 */6 * * *" --run-now

  # Descriptors work too
  revscore schedule --cron "@hourly"`,
	PreRunE: engineSetup,
	Run: func(cmd *cobra.Command, _ []string) {
		spec, _ := cmd.Flags().GetString("cron")
		runNow, _ := cmd.Flags().GetBool("run-now")

		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		job := trainJob(ctx, engine, logger)
		scheduler, id, err := newScheduler(spec, logger, job)
		if err != nil {
			contract.LogFatal("Cannot schedule training", err)
		}

		scheduler.Start()
		logger.Info("Training scheduled", "cron", spec, "next", scheduler.Entry(id).Next)
		if runNow {
			scheduler.Entry(id).WrappedJob.Run()
		}

		<-ctx.Done()
		logger.Info("Stopping scheduler")
		<-scheduler.Stop().Done()
	},
}
