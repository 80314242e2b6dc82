package retention

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

// mockExecutor はテスト用のExecutorモック。実行されたクエリと引数を記録する。
type mockExecutor struct {
	execFn   func(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	gotQuery string
	gotArgs  []interface{}
}

func (m *mockExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	m.gotQuery = query
	m.gotArgs = args
	if m.execFn != nil {
		return m.execFn(ctx, query, args...)
	}
	return mockResult{affected: 0}, nil
}

type mockResult struct {
	affected int64
}

func (m mockResult) LastInsertId() (int64, error) { return 0, nil }
func (m mockResult) RowsAffected() (int64, error) { return m.affected, nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestRun_DeletesExpiredPatterns(t *testing.T) {
	exec := &mockExecutor{
		execFn: func(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
			return mockResult{affected: 42}, nil
		},
	}

	job := NewJob(exec, discardLogger())
	job.RetentionDays = 180

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !strings.Contains(exec.gotQuery, "DELETE FROM stress_patterns") {
		t.Errorf("query = %q, want DELETE FROM stress_patterns", exec.gotQuery)
	}
	if !strings.Contains(exec.gotQuery, "detected_at <") {
		t.Errorf("query = %q, should filter on detected_at", exec.gotQuery)
	}
	if len(exec.gotArgs) != 1 || exec.gotArgs[0] != "180 days" {
		t.Errorf("args = %v, want [180 days]", exec.gotArgs)
	}
}

func TestRun_UsesConfiguredRetentionDays(t *testing.T) {
	exec := &mockExecutor{}

	job := NewJob(exec, discardLogger())
	job.RetentionDays = 90

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(exec.gotArgs) != 1 || exec.gotArgs[0] != "90 days" {
		t.Errorf("args = %v, want [90 days]", exec.gotArgs)
	}
}

func TestRun_ReturnsErrorOnExecFailure(t *testing.T) {
	exec := &mockExecutor{
		execFn: func(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
			return nil, errors.New("db down")
		},
	}

	job := NewJob(exec, discardLogger())
	job.RetentionDays = 180

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error when exec fails, got nil")
	}
}

// TestRun_DisabledByDefault は保持日数未設定のジョブが何も削除しないことを検証する。
// パターンはデフォルトでは保持され続け、削除は明示的なオプトインでのみ行われる。
func TestRun_DisabledByDefault(t *testing.T) {
	execCalled := false
	exec := &mockExecutor{
		execFn: func(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
			execCalled = true
			return mockResult{}, nil
		},
	}

	job := NewJob(exec, discardLogger())

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if execCalled {
		t.Error("no DELETE should be issued when retention is disabled")
	}

	job.RetentionDays = -1
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if execCalled {
		t.Error("no DELETE should be issued for negative retention days")
	}
}

func TestRun_IdempotentWhenNothingToDelete(t *testing.T) {
	exec := &mockExecutor{
		execFn: func(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
			return mockResult{affected: 0}, nil
		},
	}

	job := NewJob(exec, discardLogger())
	job.RetentionDays = 180

	// 削除対象がなくてもエラーにならない
	if err := job.Run(context.Background()); err != nil {
		t.Errorf("Run should be idempotent, got error: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Errorf("second Run should also succeed, got error: %v", err)
	}
}

func TestNewJob_DisabledByDefault(t *testing.T) {
	job := NewJob(&mockExecutor{}, discardLogger())
	if job.RetentionDays != 0 {
		t.Errorf("RetentionDays = %d, want 0 (disabled)", job.RetentionDays)
	}
}
