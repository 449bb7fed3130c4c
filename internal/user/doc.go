// Package user はユーザーサービスの内部実装を提供する。
//
// 単一のusersテーブルをSQLiteに永続化し、ユーザーの作成・一覧・ID指定取得の
// HTTP APIを公開する。入力の最終的な検証とレスポンスの整形はこのサービスが担う。
package user
