package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/estate/pkg/config"
	"github.com/nao1215/estate/pkg/httpclient"
	"github.com/nao1215/estate/pkg/middleware"
	"github.com/nao1215/estate/pkg/validation"
)

// shutdownTimeout は停止シグナル受信後に処理中のリクエストを待つ時間。
const shutdownTimeout = 10 * time.Second

// serviceName はサービス間トークンのsubjectとヘルスチェックで使用するサービス名。
const serviceName = "gateway"

// Server はPublic API GatewayのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// backend はユーザーサービスとリスティングサービスの呼び出し口。
	backend Backend
}

// NewServer は新しいGatewayサーバーを生成する。
func NewServer(cfg *config.Gateway) (*Server, error) {
	if cfg.UserServiceURL == "" || cfg.ListingServiceURL == "" {
		return nil, errors.New("ユーザーサービスとリスティングサービスのURLが必要です")
	}

	opts := []httpclient.Option{
		httpclient.WithTimeout(cfg.BackendTimeout),
		httpclient.WithServiceToken(cfg.ServiceTokenSecret, serviceName),
	}
	backend := newHTTPBackend(
		httpclient.New(cfg.UserServiceURL, opts...),
		httpclient.New(cfg.ListingServiceURL, opts...),
	)

	return newServer(backend, cfg.Port, cfg.AllowedOrigins), nil
}

// newServer はBackendを受け取ってサーバーを組み立てる。
func newServer(backend Backend, port string, allowedOrigins []string) *Server {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS(allowedOrigins))

	s := &Server{
		router:  router,
		port:    port,
		backend: backend,
	}
	s.setupRoutes()
	return s
}

// Run はHTTPサーバーを起動し、ctxがキャンセルされるまで待機する。
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
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// 疎通確認（バックエンドに依存しない）
	s.router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong!")
	})

	// ユーザー（ユーザーサービスへ転送）
	s.router.POST("/users", s.handleCreateUser())

	// リスティング（リスティングサービスへ転送）
	s.router.GET("/listings", s.handleListListings())
	s.router.POST("/listings", s.handleCreateListing())

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName})
	})
}

// errInvalidRequestBody はボディがJSONオブジェクトとして解釈できないことを表す。
const errInvalidRequestBody = "invalid request body"

// createUserRequest はユーザー作成リクエストのJSON構造。
// nameの型はハンドラで検証する。
type createUserRequest struct {
	// Name はユーザー名。
	Name json.RawMessage `json:"name"`
}

// handleCreateUser はユーザー作成をユーザーサービスに転送するハンドラを返す。
// ボディがJSONオブジェクトでない場合と名前が空の場合は転送せずに400を返す。
func (s *Server) handleCreateUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Printf("ユーザー作成リクエストが不正です: error=%v", err)
			c.JSON(http.StatusBadRequest, gin.H{"result": false, "errors": []string{errInvalidRequestBody}})
			return
		}

		var name string
		var result validation.Result
		if err := json.Unmarshal(req.Name, &name); err != nil || strings.TrimSpace(name) == "" {
			log.Printf("ユーザー名が不正です: name=%s", truncate(req.Name, 200))
			result.Add("invalid name")
		}
		if !result.OK() {
			c.JSON(http.StatusBadRequest, gin.H{"result": false, "errors": result.Messages()})
			return
		}

		resp, err := s.backend.CreateUser(backendContext(c), name)
		if err != nil {
			respondBackendError(c, "user", err)
			return
		}
		passThrough(c, "user", resp)
	}
}

// handleListListings はリスティング一覧をリスティングサービスから取得するハンドラを返す。
// バックエンドのリスティングは公開フィールドのみに絞り込んで返す。
func (s *Server) handleListListings() gin.HandlerFunc {
	return func(c *gin.Context) {
		var rawUserID *string
		if v, ok := c.GetQuery("user_id"); ok {
			rawUserID = &v
		}
		q, err := parseListingQuery(c.Query("page_num"), c.Query("page_size"), rawUserID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"result": false, "errors": err.Error()})
			return
		}

		resp, err := s.backend.ListListings(backendContext(c), q)
		if err != nil {
			respondBackendError(c, "listing", err)
			return
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			passThrough(c, "listing", resp)
			return
		}

		listings, err := decodeListings(resp)
		if err != nil {
			log.Printf("リスティングサービスのレスポンスが不正です: status=%d, error=%v", resp.StatusCode, err)
			c.JSON(http.StatusBadGateway, gin.H{"result": false, "errors": []string{"backend unavailable"}})
			return
		}

		c.JSON(http.StatusOK, gin.H{"result": true, "listings": listings})
	}
}

// handleCreateListing はリスティング作成を検証してリスティングサービスに転送するハンドラを返す。
// 検証エラーはすべて収集して返し、その場合は転送しない。
func (s *Server) handleCreateListing() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createListingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Printf("リスティング作成リクエストが不正です: error=%v", err)
			c.JSON(http.StatusBadRequest, gin.H{"result": false, "errors": []string{errInvalidRequestBody}})
			return
		}

		var result validation.Result
		listing := validateListing(req, &result)
		if !result.OK() {
			c.JSON(http.StatusBadRequest, gin.H{"result": false, "errors": result.Messages()})
			return
		}

		resp, err := s.backend.CreateListing(backendContext(c), listing)
		if err != nil {
			respondBackendError(c, "listing", err)
			return
		}
		passThrough(c, "listing", resp)
	}
}

// backendContext はバックエンド呼び出し用のコンテキストを返す。
// クライアントの切断でキャンセルされ、リクエストIDを伝播する。
func backendContext(c *gin.Context) context.Context {
	return httpclient.WithRequestID(c.Request.Context(), middleware.GetRequestID(c))
}

// passThrough はバックエンドのJSONレスポンスをステータスコードとContent-Typeごとそのまま返す。
// JSONでないレスポンスは502として扱う。
func passThrough(c *gin.Context, backend string, resp *httpclient.Response) {
	if !resp.IsJSON() {
		log.Printf("%sサービスがJSON以外を返しました: status=%d, body=%q", backend, resp.StatusCode, truncate(resp.Body, 200))
		c.JSON(http.StatusBadGateway, gin.H{"result": false, "errors": []string{"backend unavailable"}})
		return
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json; charset=utf-8"
	}
	c.Data(resp.StatusCode, contentType, resp.Body)
}

// respondBackendError はバックエンド呼び出しの失敗をクライアント向けのエラーに変換する。
// タイムアウトは504、それ以外の通信エラーは502を返す。
func respondBackendError(c *gin.Context, backend string, err error) {
	log.Printf("%sサービスとの通信に失敗: request_id=%s, error=%v", backend, middleware.GetRequestID(c), err)
	if httpclient.IsTimeout(err) {
		c.JSON(http.StatusGatewayTimeout, gin.H{"result": false, "errors": []string{"backend timeout"}})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"result": false, "errors": []string{"backend unavailable"}})
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
