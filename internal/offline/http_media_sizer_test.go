package offline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kanushi/kanushi-api/internal/model"
)

// fakeGuard はSSRF検証を行わない素のHTTPクライアントを返す。
// httptestサーバー（ループバック）へのアクセスを許可するためのテスト用実装。
type fakeGuard struct{}

func (g *fakeGuard) NewSafeClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
func (g *fakeGuard) ValidateURL(rawURL string) error { return nil }

// TestHTTPMediaSizer_TextPost はテキスト投稿が本文長をネットワークアクセスなしで
// 返すことを検証する。
func TestHTTPMediaSizer_TextPost(t *testing.T) {
	sizer := NewHTTPMediaSizer(&fakeGuard{}, time.Second)

	post := &model.Post{
		ID:          "p1",
		ContentType: model.ContentTypeText,
		TextContent: "こんにちは",
	}
	size, err := sizer.SizeOf(context.Background(), post)
	if err != nil {
		t.Fatalf("SizeOf() error = %v", err)
	}
	if size != int64(len("こんにちは")) {
		t.Errorf("size = %d, want %d", size, len("こんにちは"))
	}
}

// TestHTTPMediaSizer_MediaPost はメディア投稿のサイズがHEADリクエストの
// Content-Lengthから取得されることを検証する。
func TestHTTPMediaSizer_MediaPost(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
		w.Header().Set("Content-Length", "2048")
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	sizer := NewHTTPMediaSizer(&fakeGuard{}, time.Second)

	post := &model.Post{
		ID:          "p1",
		ContentType: model.ContentTypeImage,
		MediaURL:    ts.URL + "/image.jpg",
	}
	size, err := sizer.SizeOf(context.Background(), post)
	if err != nil {
		t.Fatalf("SizeOf() error = %v", err)
	}
	if size != 2048 {
		t.Errorf("size = %d, want 2048", size)
	}
}

// TestHTTPMediaSizer_MediaPost_ErrorStatus は配信元の異常応答がエラーになることを検証する。
func TestHTTPMediaSizer_MediaPost_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	sizer := NewHTTPMediaSizer(&fakeGuard{}, time.Second)

	post := &model.Post{
		ID:          "p1",
		ContentType: model.ContentTypeVideo,
		MediaURL:    ts.URL + "/missing.mp4",
	}
	if _, err := sizer.SizeOf(context.Background(), post); err == nil {
		t.Fatal("expected error for non-2xx origin response")
	}
}

// TestHTTPMediaSizer_MediaPost_NoContentLength はContent-Length欠落がエラーになることを検証する。
func TestHTTPMediaSizer_MediaPost_NoContentLength(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	sizer := NewHTTPMediaSizer(&fakeGuard{}, time.Second)

	post := &model.Post{
		ID:          "p1",
		ContentType: model.ContentTypeAudio,
		MediaURL:    ts.URL + "/track.mp3",
	}
	if _, err := sizer.SizeOf(context.Background(), post); err == nil {
		t.Fatal("expected error for missing Content-Length")
	}
}
