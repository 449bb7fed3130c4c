package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nao1215/estate/pkg/pagination"
)

var (
	// ErrNotFound は指定したユーザーが存在しないことを表す。
	ErrNotFound = errors.New("user not found")
	// ErrInvalidName はユーザー名が空であることを表す。
	ErrInvalidName = errors.New("invalid name")
)

// StorageError はデータベース操作の失敗を表す。
type StorageError struct {
	// Op は失敗した操作の名前。
	Op string
	// Err は元のエラー。
	Err error
}

// Error はエラーメッセージを返す。
func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap は元のエラーを返す。
func (e *StorageError) Unwrap() error {
	return e.Err
}

// User はユーザーを表す。
type User struct {
	// ID はストアが採番する一意なID。作成順に単調増加する。
	ID int64 `json:"id"`
	// Name はユーザー名。
	Name string `json:"name"`
	// CreatedAt は作成日時（UNIXエポックからのマイクロ秒）。
	CreatedAt int64 `json:"created_at"`
	// UpdatedAt は更新日時（UNIXエポックからのマイクロ秒）。
	UpdatedAt int64 `json:"updated_at"`
}

// Store はユーザーの永続化を行う。
type Store interface {
	// CreateUser はユーザーを作成し、採番されたIDを含むユーザーを返す。
	CreateUser(ctx context.Context, name string) (User, error)
	// ListUsers はcreated_atの降順でpageに該当するユーザーを返す。
	ListUsers(ctx context.Context, page pagination.Page) ([]User, error)
	// GetUser はIDを指定してユーザーを取得する。存在しない場合はErrNotFoundを返す。
	GetUser(ctx context.Context, id int64) (User, error)
	// Ping はストアへの疎通を確認する。
	Ping(ctx context.Context) error
}

// SQLiteStore はSQLiteを使用したStoreの実装。
type SQLiteStore struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
	// now は現在時刻を返す関数。テストで差し替える。
	now func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore はSQLiteStoreを生成し、スキーマを適用する。
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	if err := initSchema(ctx, db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// CreateUser はユーザーを作成する。created_atとupdated_atには同じ現在時刻を設定する。
func (s *SQLiteStore) CreateUser(ctx context.Context, name string) (User, error) {
	if strings.TrimSpace(name) == "" {
		return User{}, ErrInvalidName
	}

	now := s.now().UnixMicro()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (name, created_at, updated_at) VALUES (?, ?, ?)",
		name, now, now,
	)
	if err != nil {
		return User{}, &StorageError{Op: "insert user", Err: err}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return User{}, &StorageError{Op: "retrieve user id", Err: err}
	}
	if id == 0 {
		return User{}, &StorageError{Op: "retrieve user id", Err: errors.New("no id generated")}
	}

	return User{
		ID:        id,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ListUsers はcreated_atの降順でユーザーを返す。同じ時刻のユーザーはIDの降順に並べる。
func (s *SQLiteStore) ListUsers(ctx context.Context, page pagination.Page) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_at, updated_at FROM users ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		page.Limit(), page.Offset(),
	)
	if err != nil {
		return nil, &StorageError{Op: "list users", Err: err}
	}
	defer func() { _ = rows.Close() }()

	users := make([]User, 0, page.Limit())
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, &StorageError{Op: "scan user", Err: err}
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list users", Err: err}
	}
	return users, nil
}

// GetUser はIDを指定してユーザーを取得する。
func (s *SQLiteStore) GetUser(ctx context.Context, id int64) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at, updated_at FROM users WHERE id = ?", id,
	).Scan(&u.ID, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, &StorageError{Op: "get user", Err: err}
	}
	return u, nil
}

// Ping はデータベースへの疎通を確認する。
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &StorageError{Op: "ping", Err: err}
	}
	return nil
}
