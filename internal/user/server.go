package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/nao1215/estate/pkg/config"
	"github.com/nao1215/estate/pkg/middleware"
	"github.com/nao1215/estate/pkg/pagination"
	_ "modernc.org/sqlite"
)

// shutdownTimeout は停止シグナル受信後に処理中のリクエストを待つ時間。
const shutdownTimeout = 10 * time.Second

// Server はユーザーサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// store はユーザーの永続化を行うストア。
	store Store
	// db はSQLiteデータベース接続。テストではnil。
	db *sql.DB
}

// NewServer は新しいユーザーサービスのサーバーを生成する。
// SQLiteデータベースの初期化とスキーマ作成を行う。
func NewServer(ctx context.Context, cfg *config.UserService) (*Server, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cfg.DBPath)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	// 接続はプロセス全体で1本を共有し、書き込みはSQLite側で直列化される
	sqlDB.SetMaxOpenConns(1)

	store, err := NewSQLiteStore(ctx, sqlDB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	s := newServer(store, cfg.Port, cfg.ServiceTokenSecret)
	s.db = sqlDB
	return s, nil
}

// newServer はストアを受け取ってサーバーを組み立てる。
func newServer(store Store, port, serviceTokenSecret string) *Server {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())

	s := &Server{
		router: router,
		port:   port,
		store:  store,
	}
	s.setupRoutes(serviceTokenSecret)
	return s
}

// Run はHTTPサーバーを起動し、ctxがキャンセルされるまで待機する。
// ctxのキャンセル後は処理中のリクエストの完了を待ってからデータベースを閉じる。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.close()
	return err
}

func (s *Server) close() {
	if s.db == nil {
		return
	}
	if err := s.db.Close(); err != nil {
		log.Printf("データベースのクローズに失敗: %v", err)
	}
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes(serviceTokenSecret string) {
	users := s.router.Group("/users")
	{
		// 疎通確認（ストアに依存しない）
		users.GET("/ping", handlePing)

		api := users.Group("", middleware.ServiceAuth(serviceTokenSecret))
		// ユーザー作成
		api.POST("", s.handleCreate())
		// ユーザー一覧取得
		api.GET("", s.handleList())
		// ユーザー取得
		api.GET("/:id", s.handleGetByID())
	}

	// ヘルスチェック
	s.router.GET("/health", s.handleHealth())
}

// handlePing は固定文字列を返す。
func handlePing(c *gin.Context) {
	c.String(http.StatusOK, "pong!")
}

// createUserRequest はユーザー作成リクエストのフォーム構造。
// フォームボディとクエリ文字列のどちらからでも受け付ける。
type createUserRequest struct {
	// Name はユーザー名。
	Name string `form:"name" binding:"required"`
}

// handleCreate はユーザー作成を処理するハンドラを返す。
func (s *Server) handleCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createUserRequest
		if err := c.ShouldBindWith(&req, binding.Form); err != nil {
			log.Printf("ユーザー名の解釈に失敗: name=%q, error=%v", c.Request.FormValue("name"), err)
			c.JSON(http.StatusBadRequest, gin.H{"result": false, "errors": []string{ErrInvalidName.Error()}})
			return
		}

		u, err := s.store.CreateUser(c.Request.Context(), req.Name)
		if errors.Is(err, ErrInvalidName) {
			log.Printf("ユーザー名が不正です: name=%q", req.Name)
			c.JSON(http.StatusBadRequest, gin.H{"result": false, "errors": []string{ErrInvalidName.Error()}})
			return
		}
		if err != nil {
			log.Printf("ユーザー作成エラー: name=%q, error=%v", req.Name, err)
			c.JSON(http.StatusInternalServerError, gin.H{"result": false, "errors": []string{"Error while adding user to db"}})
			return
		}

		c.JSON(http.StatusOK, gin.H{"result": true, "user": u})
	}
}

// handleList はユーザー一覧取得を処理するハンドラを返す。
func (s *Server) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawPageNum, rawPageSize := c.Query("page_num"), c.Query("page_size")
		page, err := pagination.Parse(rawPageNum, rawPageSize)
		if err != nil {
			log.Printf("ページングパラメータの解釈に失敗: page_num=%q, page_size=%q, error=%v", rawPageNum, rawPageSize, err)
			c.JSON(http.StatusBadRequest, gin.H{"result": false, "errors": err.Error()})
			return
		}

		users, err := s.store.ListUsers(c.Request.Context(), page)
		if err != nil {
			log.Printf("ユーザー一覧取得エラー: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"result": false, "errors": []string{"Error while listing users"}})
			return
		}

		c.JSON(http.StatusOK, gin.H{"result": true, "users": users})
	}
}

// handleGetByID はユーザー取得を処理するハンドラを返す。
// 数値でないIDと存在しないIDはどちらも404として扱う。
func (s *Server) handleGetByID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawID := c.Param("id")
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil || id < 1 {
			c.JSON(http.StatusNotFound, gin.H{"result": false, "user": gin.H{}})
			return
		}

		u, err := s.store.GetUser(c.Request.Context(), id)
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"result": false, "user": gin.H{}})
			return
		}
		if err != nil {
			log.Printf("ユーザー取得エラー: id=%d, error=%v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"result": false, "errors": []string{"Error while fetching user"}})
			return
		}

		c.JSON(http.StatusOK, gin.H{"result": true, "user": u})
	}
}

// handleHealth はストアへの疎通を含むヘルスチェックを処理するハンドラを返す。
func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.store.Ping(c.Request.Context()); err != nil {
			log.Printf("ヘルスチェックエラー: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "service": "user"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "user"})
	}
}
