package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/wellbeat/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
// ユーザーの作成・更新は上流のアカウントサービスが行うため、
// エンジン側は読み取り専用の操作のみを提供する。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	var timezone sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, timezone, active, created_at, updated_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(
		&user.ID, &user.Email, &user.Name, &timezone,
		&user.Active, &user.CreatedAt, &user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}

	if timezone.Valid {
		user.Timezone = timezone.String
	}

	return user, nil
}

// ListActiveUserIDs は日次バッチの対象となるアクティブユーザーのIDを
// ID昇順で返す。
func (r *PostgresUserRepo) ListActiveUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM users WHERE active = true ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("アクティブユーザー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ユーザーIDの読み取りに失敗しました: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ユーザー行の走査に失敗しました: %w", err)
	}

	return ids, nil
}
