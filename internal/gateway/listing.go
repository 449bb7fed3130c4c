package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/nao1215/estate/pkg/httpclient"
	"github.com/nao1215/estate/pkg/pagination"
	"github.com/nao1215/estate/pkg/validation"
)

// ListingType はリスティングの種別。
type ListingType string

const (
	// ListingTypeRent は賃貸を表す。
	ListingTypeRent ListingType = "rent"
	// ListingTypeSale は売買を表す。
	ListingTypeSale ListingType = "sale"
)

// 検証エラーメッセージ。クライアントに返す文字列そのもの。
const (
	errInvalidUserID      = "invalid user_id"
	errInvalidListingType = "invalid listing_type. Supported values: 'rent', 'sale'"
	errInvalidPrice       = "invalid price. Must be an integer"
	errPriceNotPositive   = "price must be greater than 0"
)

// errInvalidUserIDQuery はクエリ文字列のuser_idが整数でないことを表す。
var errInvalidUserIDQuery = errors.New(errInvalidUserID)

// listingFields はクライアントに返すリスティングのフィールド。
// これ以外のバックエンド固有フィールドは削除する。
var listingFields = [...]string{"id", "user_id", "listing_type", "price", "created_at", "updated_at"}

// ListingQuery はリスティング一覧の取得条件。
type ListingQuery struct {
	// Page はページ番号とページサイズ。
	Page pagination.Page
	// UserID は絞り込み対象のユーザーID。nilの場合は絞り込まない。
	UserID *int64
}

// NewListing は検証済みのリスティング作成リクエスト。
type NewListing struct {
	// UserID はリスティングを所有するユーザーのID。
	UserID int64
	// ListingType はリスティングの種別（rent / sale）。
	ListingType string
	// Price は価格。1以上。
	Price int64
}

// createListingRequest はリスティング作成リクエストのJSON構造。
// 数値は文字列でも受け付けるため、型の解釈は検証時に行う。
type createListingRequest struct {
	UserID      json.RawMessage `json:"user_id"`
	ListingType json.RawMessage `json:"listing_type"`
	Price       json.RawMessage `json:"price"`
}

// parseListingQuery はクエリ文字列からリスティング一覧の取得条件を生成する。
// user_idは指定された場合のみ整数として解釈する。
func parseListingQuery(rawPageNum, rawPageSize string, rawUserID *string) (ListingQuery, error) {
	page, err := pagination.Parse(rawPageNum, rawPageSize)
	if err != nil {
		log.Printf("ページングパラメータの解釈に失敗: page_num=%q, page_size=%q, error=%v", rawPageNum, rawPageSize, err)
		return ListingQuery{}, err
	}

	q := ListingQuery{Page: page}
	if rawUserID != nil {
		id, err := strconv.ParseInt(strings.TrimSpace(*rawUserID), 10, 64)
		if err != nil {
			log.Printf("user_idの解釈に失敗: user_id=%q", *rawUserID)
			return ListingQuery{}, errInvalidUserIDQuery
		}
		q.UserID = &id
	}
	return q, nil
}

// validateListing はリスティング作成リクエストの全フィールドを検証する。
// 最初のエラーで打ち切らず、すべてのエラーをresultに記録する。
func validateListing(req createListingRequest, result *validation.Result) NewListing {
	return NewListing{
		UserID:      validateUserID(req.UserID, result),
		ListingType: validateListingType(req.ListingType, result),
		Price:       validatePrice(req.Price, result),
	}
}

func validateUserID(raw json.RawMessage, result *validation.Result) int64 {
	id, ok := parseInteger(raw)
	if !ok {
		log.Printf("user_idを整数に変換できません: user_id=%s", raw)
		result.Add(errInvalidUserID)
		return 0
	}
	return id
}

func validateListingType(raw json.RawMessage, result *validation.Result) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		log.Printf("listing_typeが文字列ではありません: listing_type=%s", raw)
		result.Add(errInvalidListingType)
		return ""
	}
	switch ListingType(s) {
	case ListingTypeRent, ListingTypeSale:
		return s
	default:
		log.Printf("未対応のlisting_type: listing_type=%q", s)
		result.Add(errInvalidListingType)
		return ""
	}
}

func validatePrice(raw json.RawMessage, result *validation.Result) int64 {
	price, ok := parseInteger(raw)
	if !ok {
		log.Printf("priceを整数に変換できません: price=%s", raw)
		result.Add(errInvalidPrice)
		return 0
	}
	if price < 1 {
		log.Printf("priceが0以下です: price=%d", price)
		result.Add(errPriceNotPositive)
		return 0
	}
	return price
}

// parseInteger はJSONの値を整数として解釈する。
// 整数のJSON数値、小数部が0のJSON数値、整数を表す文字列を受け付ける。
func parseInteger(raw json.RawMessage) (int64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		return n, err == nil
	}

	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return 0, false
	}
	if n, err := num.Int64(); err == nil {
		return n, true
	}
	f, err := num.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// projectListing はバックエンドのリスティングを公開フィールドだけに絞り込む。
// 存在しないフィールドはnullとして出力する。投影済みの値を再度投影しても結果は変わらない。
func projectListing(row map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(listingFields))
	for _, field := range listingFields {
		if v, ok := row[field]; ok {
			out[field] = v
			continue
		}
		out[field] = json.RawMessage("null")
	}
	return out
}

// decodeListings はリスティングサービスのレスポンスから公開フィールドのみのリスティング一覧を生成する。
func decodeListings(resp *httpclient.Response) ([]map[string]json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := resp.DecodeJSON(&envelope); err != nil {
		return nil, err
	}
	raw, ok := envelope["listings"]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, errors.New("listingsフィールドがありません")
	}

	var rows []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}

	listings := make([]map[string]json.RawMessage, 0, len(rows))
	for _, row := range rows {
		listings = append(listings, projectListing(row))
	}
	return listings, nil
}
