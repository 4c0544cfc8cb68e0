package main

import (
	"github.com/spf13/cobra"

	"StockPilot/internal/domain/models"
)

var (
	configPath string
	envFile    string

	topN      int
	workers   int
	publish   bool
	risk      models.RiskParams
	planMode  string
	strategy  string
	cash      float64
	withCurve bool
	tail      int
	rsiLen    int
	bbandsLen int

	rootCmd = &cobra.Command{
		Use:           "stockpilot-batch",
		Short:         "Run screens, backtests and plans against the stored market data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	screenCmd = &cobra.Command{
		Use:   "screen [ticker...]",
		Short: "Screen the universe (all stored tickers when none are given) for short and long term picks",
		RunE:  runScreen,
	}

	backtestCmd = &cobra.Command{
		Use:   "backtest [ticker...]",
		Short: "Backtest one ticker, or batch-backtest several (all stored tickers when none are given)",
		RunE:  runBacktest,
	}

	planCmd = &cobra.Command{
		Use:   "plan TICKER",
		Short: "Print the trade plan for the latest trading day",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlan,
	}

	pipelineCmd = &cobra.Command{
		Use:   "pipeline TICKER",
		Short: "Print the tail of the labeled feature table",
		Args:  cobra.ExactArgs(1),
		RunE:  runPipeline,
	}

	workerCmd = &cobra.Command{
		Use:   "worker",
		Short: "Consume queued screen and backtest jobs until interrupted",
		Args:  cobra.NoArgs,
		RunE:  runWorker,
	}

	enqueueCmd = &cobra.Command{
		Use:       "enqueue screen|backtest [ticker...]",
		Short:     "Queue a screen or batch backtest for the workers",
		Args:      cobra.MinimumNArgs(1),
		ValidArgs: []string{"screen", "backtest"},
		RunE:      runEnqueue,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file loaded when present")

	for _, c := range []*cobra.Command{screenCmd, planCmd, enqueueCmd} {
		c.Flags().Float64Var(&risk.ATRMultiplier, "atr-multiplier", 0, "stop distance in ATRs (config default when 0)")
		c.Flags().Float64Var(&risk.RiskRewardRatio, "risk-reward", 0, "take-profit to stop-loss distance ratio")
		c.Flags().Float64Var(&risk.LongRiskReward, "long-risk-reward", 0, "risk/reward of long term picks")
	}
	planCmd.Flags().StringVar(&planMode, "mode", "", "plan mode: atr or regressor")

	screenCmd.Flags().IntVar(&topN, "top-n", 0, "picks kept per list (config default when 0)")
	screenCmd.Flags().IntVar(&workers, "workers", 0, "tickers processed at once (config default when 0)")
	screenCmd.Flags().BoolVar(&publish, "publish", false, "publish the result to Kafka")

	for _, c := range []*cobra.Command{backtestCmd, enqueueCmd} {
		c.Flags().StringVar(&strategy, "strategy", string(models.StrategyModel), "signal source: model or golden_cross")
		c.Flags().Float64Var(&cash, "cash", models.DefaultInitialCash, "initial cash")
	}
	backtestCmd.Flags().BoolVar(&withCurve, "curve", false, "include the equity curve of a single-ticker run")
	backtestCmd.Flags().BoolVar(&publish, "publish", false, "publish batch summaries to Kafka")

	pipelineCmd.Flags().IntVar(&tail, "tail", 5, "rows printed from the end of the table")
	pipelineCmd.Flags().IntVar(&rsiLen, "rsi", 0, "RSI length override")
	pipelineCmd.Flags().IntVar(&bbandsLen, "bbands", 0, "Bollinger length override")

	rootCmd.AddCommand(screenCmd, backtestCmd, planCmd, pipelineCmd, workerCmd, enqueueCmd)
}
