package validation

import (
	"errors"

	"go.uber.org/multierr"
)

// Result はフィールド単位の検証エラーを蓄積する値。
// ゼロ値のまま使用できる。
type Result struct {
	// err はmultierrで連結された検証エラー。
	err error
}

// Add は検証エラーメッセージを追加する。
func (r *Result) Add(message string) {
	r.err = multierr.Append(r.err, errors.New(message))
}

// AddError は検証エラーを追加する。nilの場合は何もしない。
func (r *Result) AddError(err error) {
	r.err = multierr.Append(r.err, err)
}

// OK はエラーが1件も記録されていない場合にtrueを返す。
func (r *Result) OK() bool {
	return r.err == nil
}

// Err は蓄積したエラーを1つのerrorとして返す。エラーがなければnil。
func (r *Result) Err() error {
	return r.err
}

// Messages は記録した順番でエラーメッセージの一覧を返す。
// エラーがない場合は空のスライスを返す（JSONでnullにならないようにする）。
func (r *Result) Messages() []string {
	errs := multierr.Errors(r.err)
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, e.Error())
	}
	return messages
}
