package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/wellbeat/internal/model"
	"github.com/hitoshi/wellbeat/internal/pattern"
)

// PostgresPatternRepo はPostgreSQLを使用したストレスパターンリポジトリ。
type PostgresPatternRepo struct {
	db *sql.DB
}

// NewPostgresPatternRepo はPostgresPatternRepoを生成する。
func NewPostgresPatternRepo(db *sql.DB) *PostgresPatternRepo {
	return &PostgresPatternRepo{db: db}
}

// SaveStressPatterns はパターンを一括挿入する。
// Frequencyは保存時にパターン種別から純粋関数で導出して上書きする。
// 1件でも失敗した場合はトランザクション全体をロールバックする。
func (r *PostgresPatternRepo) SaveStressPatterns(ctx context.Context, userID string, patterns []*model.StressPattern) error {
	if len(patterns) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for _, p := range patterns {
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		if p.DetectedAt.IsZero() {
			p.DetectedAt = now
		}
		p.UserID = userID
		p.Frequency = pattern.FrequencyFor(p.PatternType)

		metadataJSON, err := json.Marshal(p.Metadata)
		if err != nil {
			return fmt.Errorf("パターンメタデータのシリアライズに失敗しました: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO stress_patterns
			   (id, user_id, pattern_type, description, severity, frequency, detected_at, metadata)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			p.ID, p.UserID, p.PatternType, p.Description,
			p.Severity, p.Frequency, p.DetectedAt, metadataJSON,
		)
		if err != nil {
			return fmt.Errorf("ストレスパターンの保存に失敗しました: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	return nil
}

// GetStressPatterns は指定期間のパターンをdetectedAt降順で返す。
func (r *PostgresPatternRepo) GetStressPatterns(ctx context.Context, userID string, startDate, endDate time.Time) ([]*model.StressPattern, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, pattern_type, description, severity, frequency, detected_at, metadata
		 FROM stress_patterns
		 WHERE user_id = $1 AND detected_at >= $2 AND detected_at <= $3
		 ORDER BY detected_at DESC`,
		userID, startDate, endDate,
	)
	if err != nil {
		return nil, fmt.Errorf("ストレスパターンの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanPatterns(rows)
}

// GetActiveStressPatterns は呼び出し時点から遡って30日以内に検出された
// パターンを深刻度降順、次いで検出時刻降順で返す。
func (r *PostgresPatternRepo) GetActiveStressPatterns(ctx context.Context, userID string) ([]*model.StressPattern, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, pattern_type, description, severity, frequency, detected_at, metadata
		 FROM stress_patterns
		 WHERE user_id = $1 AND detected_at >= now() - make_interval(days => $2)
		 ORDER BY
		   CASE severity WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END DESC,
		   detected_at DESC`,
		userID, activePatternWindowDays,
	)
	if err != nil {
		return nil, fmt.Errorf("アクティブなストレスパターンの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanPatterns(rows)
}

// scanPatterns は複数行をStressPatternのスライスに読み取る。
func scanPatterns(rows *sql.Rows) ([]*model.StressPattern, error) {
	patterns := []*model.StressPattern{}
	for rows.Next() {
		p := &model.StressPattern{}
		var metadataJSON []byte

		err := rows.Scan(
			&p.ID, &p.UserID, &p.PatternType, &p.Description,
			&p.Severity, &p.Frequency, &p.DetectedAt, &metadataJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("パターン行の読み取りに失敗しました: %w", err)
		}

		if err := json.Unmarshal(metadataJSON, &p.Metadata); err != nil {
			return nil, fmt.Errorf("パターンメタデータのデシリアライズに失敗しました: %w", err)
		}

		patterns = append(patterns, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("パターン行の走査に失敗しました: %w", err)
	}
	return patterns, nil
}
