// Package gateway はPublic API Gatewayの内部実装を提供する。
//
// 外部からアクセス可能な唯一のサービスとして、/users と /listings への
// リクエストを検証・整形し、ユーザーサービスとリスティングサービスに転送する。
// 検証に失敗したリクエストはバックエンドに転送しない。
package gateway
