// Package pagination はpage_num / page_sizeクエリパラメータの解釈を提供する。
// ユーザーサービスとGatewayのリスティング転送で同じ契約を共有する。
package pagination

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultPageNum はpage_numが未指定の場合のページ番号。
	DefaultPageNum = 1
	// DefaultPageSize はpage_sizeが未指定の場合の1ページあたりの件数。
	DefaultPageSize = 10
	// MaxPageSize は1ページで返す件数の上限。
	MaxPageSize = 100
)

var (
	// ErrInvalidPageNum はpage_numが整数でない、1未満、またはOFFSETが表現できないほど大きいことを表す。
	ErrInvalidPageNum = errors.New("invalid page_num")
	// ErrInvalidPageSize はpage_sizeが整数でない、または範囲外であることを表す。
	ErrInvalidPageSize = errors.New("invalid page_size")
)

// Page は1始まりのページ番号とページサイズの組。
type Page struct {
	// Num は1始まりのページ番号。
	Num int
	// Size は1ページあたりの件数。
	Size int
}

// Limit はSQLのLIMITに渡す値を返す。
func (p Page) Limit() int {
	return p.Size
}

// Offset はSQLのOFFSETに渡す値を返す。
func (p Page) Offset() int {
	return (p.Num - 1) * p.Size
}

// Parse はクエリ文字列の値からPageを生成する。
// 空文字列はデフォルト値として扱う。page_numの検証を先に行う。
// (page_num-1)*page_sizeがintに収まらないpage_numはErrInvalidPageNumとする。
func Parse(rawPageNum, rawPageSize string) (Page, error) {
	num, err := parseInt(rawPageNum, DefaultPageNum)
	if err != nil || num < 1 {
		return Page{}, ErrInvalidPageNum
	}

	size, err := parseInt(rawPageSize, DefaultPageSize)
	if err != nil || size < 1 || size > MaxPageSize {
		return Page{}, ErrInvalidPageSize
	}
	if num-1 > math.MaxInt/size {
		return Page{}, ErrInvalidPageNum
	}

	return Page{Num: num, Size: size}, nil
}

func parseInt(raw string, defaultValue int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(raw)
}
