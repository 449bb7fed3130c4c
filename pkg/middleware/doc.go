// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// パニックリカバリ、CORS設定、リクエストIDの採番、サービス間トークンの
// 発行と検証など、GatewayとバックエンドサービスがJSON APIで共通して使用する
// ミドルウェアを含む。
package middleware
