package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/estate/pkg/config"
	"github.com/nao1215/estate/pkg/httpclient"
	"github.com/nao1215/estate/pkg/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeBackend は呼び出しを記録し、設定したレスポンスを返すBackend。
type fakeBackend struct {
	mu sync.Mutex
	// resp は各呼び出しで返すレスポンス。
	resp *httpclient.Response
	// err は各呼び出しで返すエラー。
	err error

	createUserCalls    []string
	listListingsCalls  []ListingQuery
	createListingCalls []NewListing
}

func (f *fakeBackend) CreateUser(_ context.Context, name string) (*httpclient.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createUserCalls = append(f.createUserCalls, name)
	return f.resp, f.err
}

func (f *fakeBackend) ListListings(_ context.Context, q ListingQuery) (*httpclient.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listListingsCalls = append(f.listListingsCalls, q)
	return f.resp, f.err
}

func (f *fakeBackend) CreateListing(_ context.Context, l NewListing) (*httpclient.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createListingCalls = append(f.createListingCalls, l)
	return f.resp, f.err
}

// calls はいずれかのメソッドが呼ばれた回数の合計を返す。
func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.createUserCalls) + len(f.listListingsCalls) + len(f.createListingCalls)
}

// jsonResponse はテスト用のバックエンドレスポンスを生成する。
func jsonResponse(status int, body string) *httpclient.Response {
	return &httpclient.Response{StatusCode: status, Header: http.Header{}, Body: []byte(body)}
}

// timeoutError はタイムアウトを表すnet.Error。
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// newTestServer はfakeBackendを使うテスト用Gatewayサーバーを生成する。
func newTestServer(t *testing.T, backend *fakeBackend) *Server {
	t.Helper()
	return newServer(backend, "0", nil)
}

// doJSON はJSONボディ付きのリクエストを実行するヘルパー関数。
func doJSON(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// errorsBody はエラーレスポンスのJSON構造。
type errorsBody struct {
	Result bool     `json:"result"`
	Errors []string `json:"errors"`
}

// parseErrors はエラー一覧のレスポンスをデコードするヘルパー関数。
func parseErrors(t *testing.T, w *httptest.ResponseRecorder) errorsBody {
	t.Helper()
	var body errorsBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("JSONのデコードに失敗: %v, body=%s", err, w.Body.String())
	}
	return body
}

// TestPing は/pingがバックエンドに依存しないことを検証する。
func TestPing(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{err: errors.New("down")}
	s := newTestServer(t, backend)

	w := doJSON(s, http.MethodGet, "/ping", "")
	if w.Code != http.StatusOK {
		t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "pong!" {
		t.Errorf("body: got %q, want %q", w.Body.String(), "pong!")
	}
	if backend.calls() != 0 {
		t.Errorf("バックエンド呼び出し回数: got %d, want 0", backend.calls())
	}
}

// TestHealthCheck はヘルスチェックエンドポイントの正常動作を検証する。
func TestHealthCheck(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeBackend{})
	w := doJSON(s, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `"service":"gateway"`) {
		t.Errorf("body: got %s", w.Body.String())
	}
}

// TestHandleCreateUser はユーザー作成の転送を検証する。
func TestHandleCreateUser(t *testing.T) {
	t.Parallel()

	t.Run("名前を転送してレスポンスをそのまま返す", func(t *testing.T) {
		t.Parallel()

		const backendBody = `{"result":true,"user":{"id":1,"name":"alice","created_at":10,"updated_at":10}}`
		backend := &fakeBackend{resp: jsonResponse(http.StatusOK, backendBody)}
		s := newTestServer(t, backend)

		w := doJSON(s, http.MethodPost, "/users", `{"name":"alice"}`)
		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
		}
		if w.Body.String() != backendBody {
			t.Errorf("body: got %s, want %s", w.Body.String(), backendBody)
		}
		if len(backend.createUserCalls) != 1 || backend.createUserCalls[0] != "alice" {
			t.Errorf("転送された名前: got %v, want [alice]", backend.createUserCalls)
		}
	})

	t.Run("バックエンドのステータスコードを伝播する", func(t *testing.T) {
		t.Parallel()

		backend := &fakeBackend{resp: jsonResponse(http.StatusInternalServerError, `{"result":false,"errors":["Error while adding user to db"]}`)}
		s := newTestServer(t, backend)

		w := doJSON(s, http.MethodPost, "/users", `{"name":"bob"}`)
		if w.Code != http.StatusInternalServerError {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusInternalServerError)
		}
	})

	for _, body := range []string{`{}`, `{"name":""}`, `{"name":"  "}`, `{"name":123}`, `{"name":null}`} {
		t.Run("不正なリクエスト "+body+" は転送しない", func(t *testing.T) {
			t.Parallel()

			backend := &fakeBackend{}
			s := newTestServer(t, backend)

			w := doJSON(s, http.MethodPost, "/users", body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusBadRequest)
			}
			got := parseErrors(t, w)
			if got.Result || len(got.Errors) != 1 || got.Errors[0] != "invalid name" {
				t.Errorf("body: got %+v", got)
			}
			if backend.calls() != 0 {
				t.Errorf("バックエンド呼び出し回数: got %d, want 0", backend.calls())
			}
		})
	}

	for _, body := range []string{`not json`, `[]`, `"alice"`, ``} {
		t.Run("JSONオブジェクトでないボディ "+body+" は転送しない", func(t *testing.T) {
			t.Parallel()

			backend := &fakeBackend{}
			s := newTestServer(t, backend)

			w := doJSON(s, http.MethodPost, "/users", body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusBadRequest)
			}
			got := parseErrors(t, w)
			if got.Result || len(got.Errors) != 1 || got.Errors[0] != "invalid request body" {
				t.Errorf("body: got %+v", got)
			}
			if backend.calls() != 0 {
				t.Errorf("バックエンド呼び出し回数: got %d, want 0", backend.calls())
			}
		})
	}

	t.Run("バックエンドのContent-Typeを引き継ぐ", func(t *testing.T) {
		t.Parallel()

		resp := jsonResponse(http.StatusOK, `{"result":true,"user":{"id":1,"name":"dave"}}`)
		resp.Header.Set("Content-Type", "application/vnd.estate+json")
		s := newTestServer(t, &fakeBackend{resp: resp})

		w := doJSON(s, http.MethodPost, "/users", `{"name":"dave"}`)
		if got := w.Header().Get("Content-Type"); got != "application/vnd.estate+json" {
			t.Errorf("Content-Type: got %q, want %q", got, "application/vnd.estate+json")
		}
	})

	t.Run("Content-Typeが無い場合はJSONとして返す", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, &fakeBackend{resp: jsonResponse(http.StatusOK, `{"result":true}`)})

		w := doJSON(s, http.MethodPost, "/users", `{"name":"erin"}`)
		if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
			t.Errorf("Content-Type: got %q, want %q", got, "application/json; charset=utf-8")
		}
	})

	t.Run("JSON以外のレスポンスは502", func(t *testing.T) {
		t.Parallel()

		backend := &fakeBackend{resp: jsonResponse(http.StatusOK, `<html>oops</html>`)}
		s := newTestServer(t, backend)

		w := doJSON(s, http.MethodPost, "/users", `{"name":"carol"}`)
		if w.Code != http.StatusBadGateway {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusBadGateway)
		}
	})
}

// TestHandleListListings はリスティング一覧の取得を検証する。
func TestHandleListListings(t *testing.T) {
	t.Parallel()

	t.Run("公開フィールドだけに絞り込んで返す", func(t *testing.T) {
		t.Parallel()

		backend := &fakeBackend{resp: jsonResponse(http.StatusOK, `{"result":true,"listings":[
			{"id":1,"user_id":5,"listing_type":"rent","price":1500,"created_at":100,"updated_at":200,"internal_note":"x"},
			{"id":2,"user_id":6,"listing_type":"sale","price":900000,"created_at":300,"updated_at":400}
		]}`)}
		s := newTestServer(t, backend)

		w := doJSON(s, http.MethodGet, "/listings", "")
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード: got %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
		}

		var body struct {
			Result   bool             `json:"result"`
			Listings []map[string]any `json:"listings"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("JSONのデコードに失敗: %v", err)
		}
		if !body.Result {
			t.Error("result: got false, want true")
		}
		if len(body.Listings) != 2 {
			t.Fatalf("件数: got %d, want 2", len(body.Listings))
		}
		for _, l := range body.Listings {
			if len(l) != 6 {
				t.Errorf("フィールド数: got %d, want 6 (%v)", len(l), l)
			}
			if _, ok := l["internal_note"]; ok {
				t.Error("internal_noteが削除されていない")
			}
		}

		q := backend.listListingsCalls[0]
		if q.Page.Num != 1 || q.Page.Size != 10 || q.UserID != nil {
			t.Errorf("転送された条件: got %+v", q)
		}
	})

	t.Run("ページングとuser_idを転送する", func(t *testing.T) {
		t.Parallel()

		backend := &fakeBackend{resp: jsonResponse(http.StatusOK, `{"listings":[]}`)}
		s := newTestServer(t, backend)

		w := doJSON(s, http.MethodGet, "/listings?page_num=3&page_size=25&user_id=7", "")
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
		}
		if w.Body.String() != `{"listings":[],"result":true}` {
			t.Errorf("body: got %s", w.Body.String())
		}

		q := backend.listListingsCalls[0]
		if q.Page.Num != 3 || q.Page.Size != 25 || q.UserID == nil || *q.UserID != 7 {
			t.Errorf("転送された条件: got %+v", q)
		}
	})

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{name: "page_numが不正", query: "page_num=abc", want: "invalid page_num"},
		{name: "page_sizeが不正", query: "page_size=1.5", want: "invalid page_size"},
		{name: "user_idが不正", query: "user_id=abc", want: "invalid user_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name+"の場合は転送せずBadRequest", func(t *testing.T) {
			t.Parallel()

			backend := &fakeBackend{}
			s := newTestServer(t, backend)

			w := doJSON(s, http.MethodGet, "/listings?"+tt.query, "")
			if w.Code != http.StatusBadRequest {
				t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusBadRequest)
			}
			var body struct {
				Result bool   `json:"result"`
				Errors string `json:"errors"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("JSONのデコードに失敗: %v", err)
			}
			if body.Result || body.Errors != tt.want {
				t.Errorf("body: got %+v, want errors=%q", body, tt.want)
			}
			if backend.calls() != 0 {
				t.Errorf("バックエンド呼び出し回数: got %d, want 0", backend.calls())
			}
		})
	}

	t.Run("バックエンドのエラーレスポンスはそのまま返す", func(t *testing.T) {
		t.Parallel()

		backend := &fakeBackend{resp: jsonResponse(http.StatusServiceUnavailable, `{"result":false,"errors":["maintenance"]}`)}
		s := newTestServer(t, backend)

		w := doJSON(s, http.MethodGet, "/listings", "")
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusServiceUnavailable)
		}
		if w.Body.String() != `{"result":false,"errors":["maintenance"]}` {
			t.Errorf("body: got %s", w.Body.String())
		}
	})

	t.Run("listingsが無いレスポンスは502", func(t *testing.T) {
		t.Parallel()

		backend := &fakeBackend{resp: jsonResponse(http.StatusOK, `{"result":true}`)}
		s := newTestServer(t, backend)

		w := doJSON(s, http.MethodGet, "/listings", "")
		if w.Code != http.StatusBadGateway {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusBadGateway)
		}
	})

	t.Run("通信エラーは502", func(t *testing.T) {
		t.Parallel()

		backend := &fakeBackend{err: errors.New("connection refused")}
		s := newTestServer(t, backend)

		w := doJSON(s, http.MethodGet, "/listings", "")
		if w.Code != http.StatusBadGateway {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusBadGateway)
		}
		if got := parseErrors(t, w); len(got.Errors) != 1 || got.Errors[0] != "backend unavailable" {
			t.Errorf("errors: got %v", got.Errors)
		}
	})

	t.Run("タイムアウトは504", func(t *testing.T) {
		t.Parallel()

		backend := &fakeBackend{err: &url.Error{Op: "Get", URL: "http://listings/listings", Err: timeoutError{}}}
		s := newTestServer(t, backend)

		w := doJSON(s, http.MethodGet, "/listings", "")
		if w.Code != http.StatusGatewayTimeout {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusGatewayTimeout)
		}
		if got := parseErrors(t, w); len(got.Errors) != 1 || got.Errors[0] != "backend timeout" {
			t.Errorf("errors: got %v", got.Errors)
		}
	})
}

// TestHandleCreateListing はリスティング作成の検証と転送を検証する。
func TestHandleCreateListing(t *testing.T) {
	t.Parallel()

	t.Run("すべての検証エラーを返し転送しない", func(t *testing.T) {
		t.Parallel()

		backend := &fakeBackend{}
		s := newTestServer(t, backend)

		w := doJSON(s, http.MethodPost, "/listings", `{"user_id":"abc","listing_type":"lease","price":0}`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusBadRequest)
		}
		got := parseErrors(t, w)
		want := []string{
			"invalid user_id",
			"invalid listing_type. Supported values: 'rent', 'sale'",
			"price must be greater than 0",
		}
		if got.Result {
			t.Error("result: got true, want false")
		}
		if len(got.Errors) != len(want) {
			t.Fatalf("errors: got %v, want %v", got.Errors, want)
		}
		for i := range want {
			if got.Errors[i] != want[i] {
				t.Errorf("errors[%d]: got %q, want %q", i, got.Errors[i], want[i])
			}
		}
		if backend.calls() != 0 {
			t.Errorf("バックエンド呼び出し回数: got %d, want 0", backend.calls())
		}
	})

	t.Run("検証済みの値を転送してレスポンスをそのまま返す", func(t *testing.T) {
		t.Parallel()

		const backendBody = `{"result":true,"listing":{"id":9,"user_id":5,"listing_type":"rent","price":1500}}`
		backend := &fakeBackend{resp: jsonResponse(http.StatusOK, backendBody)}
		s := newTestServer(t, backend)

		w := doJSON(s, http.MethodPost, "/listings", `{"user_id":5,"listing_type":"rent","price":1500}`)
		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
		}
		if w.Body.String() != backendBody {
			t.Errorf("body: got %s, want %s", w.Body.String(), backendBody)
		}
		want := NewListing{UserID: 5, ListingType: "rent", Price: 1500}
		if len(backend.createListingCalls) != 1 || backend.createListingCalls[0] != want {
			t.Errorf("転送された値: got %+v, want %+v", backend.createListingCalls, want)
		}
	})

	for _, body := range []string{`user_id=5`, `[]`, ``} {
		t.Run("JSONオブジェクトでないボディ "+body+" はBadRequest", func(t *testing.T) {
			t.Parallel()

			backend := &fakeBackend{}
			s := newTestServer(t, backend)

			w := doJSON(s, http.MethodPost, "/listings", body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusBadRequest)
			}
			got := parseErrors(t, w)
			if got.Result || len(got.Errors) != 1 || got.Errors[0] != "invalid request body" {
				t.Errorf("body: got %+v", got)
			}
			if backend.calls() != 0 {
				t.Errorf("バックエンド呼び出し回数: got %d, want 0", backend.calls())
			}
		})
	}

	t.Run("バックエンドの400をそのまま返す", func(t *testing.T) {
		t.Parallel()

		backend := &fakeBackend{resp: jsonResponse(http.StatusBadRequest, `{"result":false,"errors":["unknown user"]}`)}
		s := newTestServer(t, backend)

		w := doJSON(s, http.MethodPost, "/listings", `{"user_id":404,"listing_type":"sale","price":1}`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusBadRequest)
		}
		if w.Body.String() != `{"result":false,"errors":["unknown user"]}` {
			t.Errorf("body: got %s", w.Body.String())
		}
	})
}

// recordedRequest はモックバックエンドが受け取ったリクエスト。
type recordedRequest struct {
	method    string
	path      string
	form      url.Values
	query     url.Values
	requestID string
	auth      string
}

// newRecordingBackend はリクエストを記録して固定のJSONを返すモックバックエンドを生成する。
func newRecordingBackend(t *testing.T, status int, body string) (*httptest.Server, chan recordedRequest) {
	t.Helper()

	ch := make(chan recordedRequest, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		form, _ := url.ParseQuery(string(raw))
		ch <- recordedRequest{
			method:    r.Method,
			path:      r.URL.Path,
			form:      form,
			query:     r.URL.Query(),
			requestID: r.Header.Get(middleware.HeaderRequestID),
			auth:      r.Header.Get("Authorization"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts, ch
}

// newHTTPTestServer は実際のHTTPクライアントでモックバックエンドに転送するGatewayを生成する。
func newHTTPTestServer(t *testing.T, usersURL, listingsURL string) *Server {
	t.Helper()

	s, err := NewServer(&config.Gateway{
		Port:               "0",
		UserServiceURL:     usersURL,
		ListingServiceURL:  listingsURL,
		BackendTimeout:     2 * time.Second,
		ServiceTokenSecret: "shared-secret",
	})
	if err != nil {
		t.Fatalf("Gatewayサーバーの生成に失敗: %v", err)
	}
	return s
}

// TestForwardingOverHTTP は実際のHTTP通信でのリクエスト形式を検証する。
func TestForwardingOverHTTP(t *testing.T) {
	t.Parallel()

	t.Run("リスティング作成はフォーム形式で転送される", func(t *testing.T) {
		t.Parallel()

		const backendBody = `{"result":true,"listing":{"id":1}}`
		listings, received := newRecordingBackend(t, http.StatusOK, backendBody)
		s := newHTTPTestServer(t, "http://127.0.0.1:1", listings.URL)

		req := httptest.NewRequest(http.MethodPost, "/listings", strings.NewReader(`{"user_id":5,"listing_type":"rent","price":1500}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.HeaderRequestID, "req-abc")
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード: got %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
		}
		if w.Body.String() != backendBody {
			t.Errorf("body: got %s, want %s", w.Body.String(), backendBody)
		}

		got := <-received
		if got.method != http.MethodPost || got.path != "/listings" {
			t.Errorf("リクエスト: got %s %s", got.method, got.path)
		}
		want := url.Values{"user_id": {"5"}, "listing_type": {"rent"}, "price": {"1500"}}
		if got.form.Encode() != want.Encode() {
			t.Errorf("フォーム: got %v, want %v", got.form, want)
		}
		if got.requestID != "req-abc" {
			t.Errorf("X-Request-ID: got %q, want %q", got.requestID, "req-abc")
		}
		if !strings.HasPrefix(got.auth, "Bearer ") {
			t.Errorf("Authorization: got %q, want Bearer token", got.auth)
		}
	})

	t.Run("リスティング一覧はクエリパラメータで転送される", func(t *testing.T) {
		t.Parallel()

		listings, received := newRecordingBackend(t, http.StatusOK, `{"listings":[{"id":1,"user_id":2,"listing_type":"rent","price":3,"created_at":4,"updated_at":5,"secret":true}]}`)
		s := newHTTPTestServer(t, "http://127.0.0.1:1", listings.URL)

		w := doJSON(s, http.MethodGet, "/listings?page_num=2&user_id=9", "")
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード: got %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
		}
		if strings.Contains(w.Body.String(), "secret") {
			t.Errorf("バックエンド固有のフィールドが残っている: %s", w.Body.String())
		}

		got := <-received
		if got.method != http.MethodGet {
			t.Errorf("Method: got %s, want GET", got.method)
		}
		if got.query.Get("page_num") != "2" || got.query.Get("page_size") != "10" || got.query.Get("user_id") != "9" {
			t.Errorf("クエリ: got %v", got.query)
		}
	})

	t.Run("ユーザー作成はフォーム形式で転送される", func(t *testing.T) {
		t.Parallel()

		users, received := newRecordingBackend(t, http.StatusOK, `{"result":true,"user":{"id":1,"name":"alice"}}`)
		s := newHTTPTestServer(t, users.URL, "http://127.0.0.1:1")

		w := doJSON(s, http.MethodPost, "/users", `{"name":"alice"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード: got %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
		}

		got := <-received
		if got.path != "/users" || got.form.Get("name") != "alice" {
			t.Errorf("転送内容: got path=%s form=%v", got.path, got.form)
		}
	})

	t.Run("接続できないバックエンドは502", func(t *testing.T) {
		t.Parallel()

		s := newHTTPTestServer(t, "http://127.0.0.1:1", "http://127.0.0.1:1")

		w := doJSON(s, http.MethodPost, "/users", `{"name":"alice"}`)
		if w.Code != http.StatusBadGateway {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusBadGateway)
		}
	})
}

// TestNewServer はNewServerの設定検証を確認する。
func TestNewServer(t *testing.T) {
	t.Parallel()

	if _, err := NewServer(&config.Gateway{Port: "0", BackendTimeout: time.Second}); err == nil {
		t.Error("URL未設定でエラーになるべき")
	}
}
