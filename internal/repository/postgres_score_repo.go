package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/wellbeat/internal/model"
)

// PostgresScoreRepo はPostgreSQLを使用したバーンアウトスコアリポジトリ。
type PostgresScoreRepo struct {
	db *sql.DB
}

// NewPostgresScoreRepo はPostgresScoreRepoを生成する。
func NewPostgresScoreRepo(db *sql.DB) *PostgresScoreRepo {
	return &PostgresScoreRepo{db: db}
}

// SaveBurnoutScore はスコアを新規行として挿入する。重複排除は行わない。
func (r *PostgresScoreRepo) SaveBurnoutScore(ctx context.Context, score *model.BurnoutScore) error {
	if score.ID == "" {
		score.ID = uuid.New().String()
	}
	if score.CreatedAt.IsZero() {
		score.CreatedAt = time.Now()
	}

	metricsJSON, err := json.Marshal(score.Metrics)
	if err != nil {
		return fmt.Errorf("メトリクスのシリアライズに失敗しました: %w", err)
	}

	recs := score.Recommendations
	if recs == nil {
		recs = []string{}
	}
	recsJSON, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("推奨リストのシリアライズに失敗しました: %w", err)
	}

	var insights sql.NullString
	if score.AIInsights != nil {
		insights = sql.NullString{String: *score.AIInsights, Valid: true}
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO burnout_scores
		   (id, user_id, score_date, score, metrics, ai_insights, recommendations, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		score.ID, score.UserID, score.Date, score.Score,
		metricsJSON, insights, recsJSON, score.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("バーンアウトスコアの保存に失敗しました: %w", err)
	}

	return nil
}

// GetBurnoutHistory は指定期間のスコア履歴をdate降順で返す。
func (r *PostgresScoreRepo) GetBurnoutHistory(ctx context.Context, userID string, startDate, endDate time.Time) ([]*model.BurnoutScore, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, score_date, score, metrics, ai_insights, recommendations, created_at
		 FROM burnout_scores
		 WHERE user_id = $1 AND score_date >= $2 AND score_date <= $3
		 ORDER BY score_date DESC, created_at DESC`,
		userID, startDate, endDate,
	)
	if err != nil {
		return nil, fmt.Errorf("スコア履歴の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanScores(rows)
}

// GetLatestBurnoutScore は最新のスコアを返す。存在しない場合はnilを返す。
// 同一日に複数行が存在する場合は作成時刻が新しいものを「現在のスコア」とする。
func (r *PostgresScoreRepo) GetLatestBurnoutScore(ctx context.Context, userID string) (*model.BurnoutScore, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, score_date, score, metrics, ai_insights, recommendations, created_at
		 FROM burnout_scores
		 WHERE user_id = $1
		 ORDER BY score_date DESC, created_at DESC
		 LIMIT 1`,
		userID,
	)

	score, err := scanScore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("最新スコアの取得に失敗しました: %w", err)
	}

	return score, nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通Scanインターフェース。
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanScore は1行をBurnoutScoreに読み取る。
func scanScore(row rowScanner) (*model.BurnoutScore, error) {
	score := &model.BurnoutScore{}
	var metricsJSON, recsJSON []byte
	var insights sql.NullString

	err := row.Scan(
		&score.ID, &score.UserID, &score.Date, &score.Score,
		&metricsJSON, &insights, &recsJSON, &score.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(metricsJSON, &score.Metrics); err != nil {
		return nil, fmt.Errorf("メトリクスのデシリアライズに失敗しました: %w", err)
	}
	if err := json.Unmarshal(recsJSON, &score.Recommendations); err != nil {
		return nil, fmt.Errorf("推奨リストのデシリアライズに失敗しました: %w", err)
	}
	if insights.Valid {
		score.AIInsights = &insights.String
	}

	return score, nil
}

// scanScores は複数行をBurnoutScoreのスライスに読み取る。
func scanScores(rows *sql.Rows) ([]*model.BurnoutScore, error) {
	scores := []*model.BurnoutScore{}
	for rows.Next() {
		score, err := scanScore(rows)
		if err != nil {
			return nil, fmt.Errorf("スコア行の読み取りに失敗しました: %w", err)
		}
		scores = append(scores, score)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("スコア行の走査に失敗しました: %w", err)
	}
	return scores, nil
}
