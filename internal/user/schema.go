package user

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/nao1215/estate/pkg/migration"
)

// migrations はユーザーサービスのスキーマ定義。
//
//go:embed migrations/*.sql
var migrations embed.FS

// initSchema はSQLiteデータベースにスキーマを適用する。
// 何度呼び出しても同じ結果になる。
func initSchema(ctx context.Context, db *sql.DB) error {
	if err := migration.Run(ctx, db, migrations, "migrations"); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}
