package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"StockPilot/internal/di"
	"StockPilot/internal/domain/models"
	"StockPilot/internal/usecase"
	"StockPilot/pkg/config"
	applogger "StockPilot/pkg/logger"
)

// setupError marks failures that happen before any ticker is processed.
type setupError struct{ err error }

func (e setupError) Error() string { return e.err.Error() }
func (e setupError) Unwrap() error { return e.err }

func main() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(exitCode(err))
}

// exitCode is non-zero only when nothing could be evaluated: no price data
// at all, or a configuration/startup failure.
func exitCode(err error) int {
	var se setupError
	if di.IsFatal(err) || errors.As(err, &se) {
		return 1
	}
	return 0
}

// withRunner loads configuration, wires the runner and closes it after fn.
func withRunner(cmd *cobra.Command, fn func(ctx context.Context, r *di.Runner) error) error {
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		log.Printf("dotenv %s: %v", envFile, err)
	}
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return setupError{err}
	}
	r, err := di.InitializeRunner(cfg)
	if err != nil {
		return setupError{fmt.Errorf("initialize: %w", err)}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		r.Close(closeCtx)
	}()
	return fn(ctx, r)
}

// riskFrom overlays the flags on the configured risk parameters.
func riskFrom(cfg *config.Config) models.RiskParams {
	out := di.RiskParams(cfg)
	if risk.ATRMultiplier > 0 {
		out.ATRMultiplier = risk.ATRMultiplier
	}
	if risk.RiskRewardRatio > 0 {
		out.RiskRewardRatio = risk.RiskRewardRatio
	}
	if risk.LongRiskReward > 0 {
		out.LongRiskReward = risk.LongRiskReward
	}
	if planMode != "" {
		out.Mode = models.PlanMode(planMode)
	}
	return out
}

func backtestRequest() (models.BacktestRequest, error) {
	req := models.BacktestRequest{InitialCash: cash, Strategy: models.Strategy(strategy)}
	switch req.Strategy {
	case models.StrategyModel, models.StrategyGoldenCross:
	default:
		return req, setupError{fmt.Errorf("unknown strategy %q", strategy)}
	}
	if req.InitialCash <= 0 {
		return req, setupError{fmt.Errorf("cash must be positive")}
	}
	return req, nil
}

func runScreen(cmd *cobra.Command, args []string) error {
	return withRunner(cmd, func(ctx context.Context, r *di.Runner) error {
		res, err := r.Pipeline.RunScreen(ctx, tickerArgs(args), riskFrom(r.Config),
			usecase.WithTopN(topN), usecase.WithWorkers(workers))
		if err != nil {
			return err
		}
		if publish {
			if err := r.Publisher.PublishScreen(ctx, res); err != nil {
				r.Logger.Error("publish screen failed", applogger.String("run_id", res.RunID), applogger.Error(err))
			}
		}
		printSummary(cmd.ErrOrStderr(), res.Summary)
		return printJSON(cmd.OutOrStdout(), res)
	})
}

func runBacktest(cmd *cobra.Command, args []string) error {
	req, err := backtestRequest()
	if err != nil {
		return err
	}
	tickers := tickerArgs(args)
	return withRunner(cmd, func(ctx context.Context, r *di.Runner) error {
		if len(tickers) == 1 {
			rep, err := r.Pipeline.RunBacktest(ctx, tickers[0], req)
			if err != nil {
				return err
			}
			if !withCurve {
				rep.Curve = nil
			}
			return printJSON(cmd.OutOrStdout(), rep)
		}
		res, err := r.Pipeline.RunBatchBacktest(ctx, tickers, req)
		if err != nil {
			return err
		}
		if publish {
			if err := r.Publisher.PublishBacktests(ctx, res); err != nil {
				r.Logger.Error("publish backtests failed", applogger.Error(err))
			}
		}
		printSummary(cmd.ErrOrStderr(), res.Summary)
		return printJSON(cmd.OutOrStdout(), res)
	})
}

func runPlan(cmd *cobra.Command, args []string) error {
	return withRunner(cmd, func(ctx context.Context, r *di.Runner) error {
		rep, err := r.Pipeline.GetTradePlan(ctx, tickerArgs(args)[0], riskFrom(r.Config))
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), rep)
	})
}

func runPipeline(cmd *cobra.Command, args []string) error {
	return withRunner(cmd, func(ctx context.Context, r *di.Runner) error {
		var params *models.ModelParameterSet
		if rsiLen > 0 || bbandsLen > 0 {
			params = &models.ModelParameterSet{RSILength: rsiLen, BBandsLength: bbandsLen}
		}
		st, err := r.Pipeline.RunPipeline(ctx, tickerArgs(args)[0], params)
		if err != nil {
			return err
		}
		return printTable(cmd.OutOrStdout(), st, tail)
	})
}

func runWorker(cmd *cobra.Command, _ []string) error {
	return withRunner(cmd, func(ctx context.Context, r *di.Runner) error {
		if r.Queue == nil {
			return setupError{errors.New("worker needs queue.enabled and redis.enabled")}
		}
		if err := r.Queue.Start(); err != nil {
			return setupError{fmt.Errorf("start queue: %w", err)}
		}
		fields := []applogger.Field{applogger.Int("workers", r.Config.Queue.Workers)}
		if st, err := r.Queue.Stats(ctx); err == nil {
			fields = append(fields, applogger.Int64("pending", st.Pending),
				applogger.Int64("retrying", st.Retrying), applogger.Int64("dead", st.Dead))
		}
		r.Logger.Info("worker running", fields...)
		<-ctx.Done()

		stopCtx, cancel := context.WithTimeout(context.Background(), r.Config.Server.ShutdownTimeout)
		defer cancel()
		return r.Queue.Stop(stopCtx)
	})
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	kind, tickers := args[0], tickerArgs(args[1:])
	var (
		msgType string
		payload interface{}
	)
	switch kind {
	case "screen":
		msgType = usecase.JobTypeScreen
	case "backtest":
		msgType = usecase.JobTypeBatchBacktest
	default:
		return setupError{fmt.Errorf("unknown job %q, want screen or backtest", kind)}
	}
	return withRunner(cmd, func(ctx context.Context, r *di.Runner) error {
		if r.Queue == nil {
			return setupError{errors.New("enqueue needs queue.enabled and redis.enabled")}
		}
		if msgType == usecase.JobTypeScreen {
			payload = models.ScreenRequest{Tickers: tickers, RiskParams: riskFrom(r.Config)}
		} else {
			req, err := backtestRequest()
			if err != nil {
				return err
			}
			payload = models.BatchBacktestHTTPRequest{Tickers: tickers, BacktestRequest: req}
		}
		id, err := r.Queue.EnqueueWithID(ctx, msgType, payload)
		if err != nil {
			return setupError{fmt.Errorf("enqueue %s: %w", msgType, err)}
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	})
}

func tickerArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		for _, t := range strings.Split(a, ",") {
			if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSummary(w io.Writer, s models.BatchSummary) {
	fmt.Fprintf(w, "tickers: %d  succeeded: %d  failed: %d\n", s.Total, s.Succeeded, s.Failed)
	if s.Failed == 0 {
		return
	}
	failed := append([]string(nil), s.FailedTickers...)
	sort.Strings(failed)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, t := range failed {
		fmt.Fprintf(tw, "  %s\t%s\n", t, s.Reasons[t])
	}
	_ = tw.Flush()
}

func printTable(w io.Writer, st *models.SignalTable, n int) error {
	rows := st.Features.Rows
	from := 0
	if n > 0 && len(rows) > n {
		from = len(rows) - n
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "date\tclose\trsi\tatr\tadx\tsentiment\tdirection\t\n")
	for i := from; i < len(rows); i++ {
		row := &rows[i]
		dir := models.Flat
		if i < len(st.Signals) {
			dir = st.Signals[i].Direction
		}
		adx := 0.0
		if row.ADX != nil {
			adx = row.ADX.ADX
		}
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.0f\t%s\t\n",
			row.Date.Format("2006-01-02"), row.Close, row.RSIValue(), row.ATRValue(),
			adx, row.SentimentSum, dir)
	}
	return tw.Flush()
}
