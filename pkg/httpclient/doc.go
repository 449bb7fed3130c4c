// Package httpclient はサービス間のHTTP通信を行うクライアントを提供する。
//
// Gatewayがユーザーサービスやリスティングサービスへリクエストを転送する際に使用する。
// リクエストIDとサービス間トークンの伝播、タイムアウトの設定など、
// サービス間の通信パターンを統一する。
package httpclient
