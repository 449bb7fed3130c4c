// ユーザーサービスのエントリポイント。
// SQLiteに保存したユーザーの作成と参照を担当する。
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/estate/internal/user"
	"github.com/nao1215/estate/pkg/config"
)

func main() {
	cfg, err := config.LoadUserService()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := user.NewServer(ctx, cfg)
	if err != nil {
		log.Fatalf("ユーザーサーバーの初期化に失敗: %v", err)
	}

	log.Printf("ユーザーサービスを起動します: :%s (db=%s, debug=%t)", cfg.Port, cfg.DBPath, cfg.Debug)
	if err := server.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("ユーザーサービスの起動に失敗: %v", err)
	}
	log.Printf("ユーザーサービスを停止しました")
}
