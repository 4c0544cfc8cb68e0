package main

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"StockPilot/internal/domain/models"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, 1, exitCode(fmt.Errorf("screen: %w", models.ErrNoPriceData)))
	assert.Equal(t, 1, exitCode(setupError{errors.New("read config: missing")}))
	assert.Equal(t, 1, exitCode(fmt.Errorf("wrapped: %w", setupError{errors.New("bad")})))
	assert.Equal(t, 0, exitCode(fmt.Errorf("BBCA.JK: %w", models.ErrInsufficientHistory)))
	assert.Equal(t, 0, exitCode(fmt.Errorf("direction model X: %w", models.ErrModelNotFound)))
}

func TestTickerArgs(t *testing.T) {
	assert.Equal(t, []string{"BBCA.JK", "TLKM.JK", "^JKSE"}, tickerArgs([]string{" bbca.jk,tlkm.jk ", "", "^jkse"}))
	assert.Empty(t, tickerArgs(nil))
}

func TestPrintSummaryListsFailuresSorted(t *testing.T) {
	var s models.BatchSummary
	s.Add(models.TickerOutcome{Ticker: "ZZZ", Reason: models.ReasonModelNotFound})
	s.Add(models.TickerOutcome{Ticker: "AAA", OK: true})
	s.Add(models.TickerOutcome{Ticker: "BBB", Reason: models.ReasonInsufficientHistory})

	var buf bytes.Buffer
	printSummary(&buf, s)
	out := buf.String()
	assert.Contains(t, out, "tickers: 3  succeeded: 1  failed: 2")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("BBB")), bytes.Index(buf.Bytes(), []byte("ZZZ")))
	assert.Contains(t, out, string(models.ReasonModelNotFound))
}
