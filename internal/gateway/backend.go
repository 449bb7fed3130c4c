package gateway

import (
	"context"
	"net/url"
	"strconv"

	"github.com/nao1215/estate/pkg/httpclient"
)

// Backend はGatewayが呼び出すバックエンドサービスの操作。
// レスポンスはステータスコードとボディをそのまま返し、解釈はハンドラが行う。
type Backend interface {
	// CreateUser はユーザーサービスにユーザー作成を依頼する。
	CreateUser(ctx context.Context, name string) (*httpclient.Response, error)
	// ListListings はリスティングサービスからリスティング一覧を取得する。
	ListListings(ctx context.Context, q ListingQuery) (*httpclient.Response, error)
	// CreateListing はリスティングサービスにリスティング作成を依頼する。
	CreateListing(ctx context.Context, l NewListing) (*httpclient.Response, error)
}

// httpBackend はHTTPでバックエンドサービスを呼び出すBackendの実装。
type httpBackend struct {
	// users はユーザーサービスへのクライアント。
	users *httpclient.Client
	// listings はリスティングサービスへのクライアント。
	listings *httpclient.Client
}

var _ Backend = (*httpBackend)(nil)

// newHTTPBackend はユーザーサービスとリスティングサービスのクライアントからBackendを生成する。
func newHTTPBackend(users, listings *httpclient.Client) *httpBackend {
	return &httpBackend{users: users, listings: listings}
}

// CreateUser はユーザー名をフォーム形式でユーザーサービスの/usersにPOSTする。
func (b *httpBackend) CreateUser(ctx context.Context, name string) (*httpclient.Response, error) {
	return b.users.PostForm(ctx, "/users", url.Values{"name": {name}})
}

// ListListings はページングとユーザーIDをクエリパラメータとしてリスティングサービスの/listingsにGETする。
func (b *httpBackend) ListListings(ctx context.Context, q ListingQuery) (*httpclient.Response, error) {
	params := url.Values{
		"page_num":  {strconv.Itoa(q.Page.Num)},
		"page_size": {strconv.Itoa(q.Page.Size)},
	}
	if q.UserID != nil {
		params.Set("user_id", strconv.FormatInt(*q.UserID, 10))
	}
	return b.listings.Get(ctx, "/listings", params)
}

// CreateListing は検証済みのリスティングをフォーム形式でリスティングサービスの/listingsにPOSTする。
func (b *httpBackend) CreateListing(ctx context.Context, l NewListing) (*httpclient.Response, error) {
	return b.listings.PostForm(ctx, "/listings", url.Values{
		"user_id":      {strconv.FormatInt(l.UserID, 10)},
		"listing_type": {l.ListingType},
		"price":        {strconv.FormatInt(l.Price, 10)},
	})
}
