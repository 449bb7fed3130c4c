// Package validation はリクエストの入力検証で発生したエラーを収集する仕組みを提供する。
//
// 複数フィールドを持つリクエストでは、最初のエラーで処理を打ち切らず、
// すべてのフィールドを検証してからエラーの一覧をまとめてクライアントに返す。
package validation
