// Public API Gatewayのエントリポイント。
// クライアントからのリクエストを検証し、ユーザーサービスとリスティングサービスに転送する。
// 外部からアクセス可能な唯一のサービス。
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
	"github.com/nao1215/estate/internal/gateway"
	"github.com/nao1215/estate/pkg/config"
)

func main() {
	cfg, err := config.LoadGateway()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	server, err := gateway.NewServer(cfg)
	if err != nil {
		log.Fatalf("Gatewayサーバーの初期化に失敗: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Gatewayサービスを起動します: :%s (debug=%t)", cfg.Port, cfg.Debug)
	if err := server.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Gatewayサービスの起動に失敗: %v", err)
	}
	log.Printf("Gatewayサービスを停止しました")
}
