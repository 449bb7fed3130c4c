package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/estate/pkg/middleware"
)

// defaultTimeout はリクエスト1回あたりのデフォルトのタイムアウト。
const defaultTimeout = 30 * time.Second

// maxResponseBytes は読み込むレスポンスボディの上限サイズ。
const maxResponseBytes = 10 << 20

// Client はサービス間通信用のHTTPクライアント。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// baseURL は接続先サービスのベースURL。
	baseURL string
	// tokenSecret はサービス間トークンの署名鍵。空の場合はトークンを付与しない。
	tokenSecret string
	// tokenSubject はサービス間トークンのsubject（呼び出し元サービス名）。
	tokenSubject string
}

// Option はClientの設定を変更する関数。
type Option func(*Client)

// WithTimeout はリクエスト1回あたりのタイムアウトを設定する。
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithServiceToken はリクエストごとにサービス間トークンを付与するよう設定する。
// secretが空の場合は何もしない。
func WithServiceToken(secret, subject string) Option {
	return func(c *Client) {
		c.tokenSecret = secret
		c.tokenSubject = subject
	}
}

// New は新しいサービス間通信用HTTPクライアントを生成する。
// baseURLには接続先サービスのベースURL（例: "http://users:6001"）を指定する。
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Response はバックエンドからのレスポンス。
// ステータスコードに関わらず読み込んだボディをそのまま保持する。
type Response struct {
	// StatusCode はHTTPステータスコード。
	StatusCode int
	// Header はレスポンスヘッダー。
	Header http.Header
	// Body はレスポンスボディ。
	Body []byte
}

// IsJSON はボディが妥当なJSONであればtrueを返す。
func (r *Response) IsJSON() bool {
	return json.Valid(r.Body)
}

// DecodeJSON はボディをvにデシリアライズする。
func (r *Response) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("レスポンスボディのデシリアライズに失敗: %w", err)
	}
	return nil
}

// PostForm は指定パスにフォーム形式（application/x-www-form-urlencoded）でPOSTリクエストを送信する。
func (c *Client) PostForm(ctx context.Context, path string, form url.Values) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
}

// Get は指定パスにクエリパラメータ付きでGETリクエストを送信する。
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, path, "", nil)
}

// do はHTTPリクエストを実行する共通処理。
// 2xx以外のステータスコードはエラーとして扱わず、呼び出し元に判断を委ねる。
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (*Response, error) {
	endpoint := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	// コンテキストからリクエストIDを伝播する
	requestID, hasRequestID := ctx.Value(contextKeyRequestID).(string)
	if hasRequestID {
		req.Header.Set(middleware.HeaderRequestID, requestID)
	}

	if c.tokenSecret != "" {
		token, err := middleware.GenerateServiceToken(c.tokenSecret, c.tokenSubject, requestID)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの送信に失敗: %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み込みに失敗: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

// IsTimeout はerrがタイムアウトまたはコンテキストの期限切れによるものかを判定する。
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// contextKey はコンテキストキーの型。
type contextKey string

// contextKeyRequestID はコンテキストにリクエストIDを格納するためのキー。
const contextKeyRequestID contextKey = "request_id"

// WithRequestID はコンテキストにリクエストIDを設定する。
// サービス間通信時にリクエストIDを伝播するために使用する。
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}
