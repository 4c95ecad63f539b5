// Package ratelimit は投稿作成のアクター別レート制限を提供する。
//
// カウンタは全サーバーインスタンスから見える共有ストア（Redis）に置き、
// 水平スケール時も「任意の60秒間で10件まで」の不変条件を維持する。
// ウィンドウは固定区切りのない真のスライディングウィンドウで、
// パージ・件数確認・記録は単一のLuaスクリプトでアトミックに実行される。
// これにより N > limit 件のバーストでもちょうど limit 件だけが通過する。
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Decision はレート制限の判定結果を表す。
type Decision struct {
	Allowed    bool
	Remaining  int           // 許可時: ウィンドウ内の残り許容数
	RetryAfter time.Duration // 拒否時: 最古のタイムスタンプが失効するまでの時間（0以上）
}

// Limiter はアクター別レート制限のインターフェース。
type Limiter interface {
	// Allow はアクターのリクエストを判定する。
	// 許可された場合はタイムスタンプを記録した上でAllowed=trueを返す。
	Allow(ctx context.Context, actorID int64) (*Decision, error)

	// Limit はウィンドウあたりの上限値を返す。
	Limit() int

	// WindowDescriptor はウィンドウの説明文字列（例: "1 minute"）を返す。
	WindowDescriptor() string
}

// slidingWindowScript はパージ→件数確認→記録をアトミックに行う。
// KEYS[1]: アクターのZSETキー
// ARGV[1]: 現在時刻（ミリ秒）、ARGV[2]: ウィンドウ幅（ミリ秒）、
// ARGV[3]: 上限、ARGV[4]: 記録用の一意メンバー
// 戻り値: {allowed(0/1), remaining, retry_after_ms}
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local window_ms = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, 0, now_ms - window_ms)
local count = redis.call('ZCARD', key)
if count < limit then
    redis.call('ZADD', key, now_ms, member)
    redis.call('PEXPIRE', key, window_ms)
    return {1, limit - count - 1, 0}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local retry_ms = 0
if oldest[2] then
    retry_ms = tonumber(oldest[2]) + window_ms - now_ms
    if retry_ms < 0 then
        retry_ms = 0
    end
end
return {0, 0, retry_ms}
`)

// SlidingWindowLimiter はRedisのZSETを用いたスライディングウィンドウ実装。
type SlidingWindowLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewSlidingWindowLimiter はSlidingWindowLimiterを生成する。
func NewSlidingWindowLimiter(client *redis.Client, limit int, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		client: client,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// WithClock は現在時刻の取得関数を差し替えたLimiterを返す。テスト用。
func (l *SlidingWindowLimiter) WithClock(now func() time.Time) *SlidingWindowLimiter {
	clone := *l
	clone.now = now
	return &clone
}

// Allow はアクターのリクエストを判定する。
func (l *SlidingWindowLimiter) Allow(ctx context.Context, actorID int64) (*Decision, error) {
	key := fmt.Sprintf("ratelimit:posts:%d", actorID)
	nowMs := l.now().UnixMilli()
	windowMs := l.window.Milliseconds()

	res, err := slidingWindowScript.Run(ctx, l.client,
		[]string{key},
		nowMs, windowMs, l.limit, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("レート制限の判定に失敗しました: %w", err)
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("unexpected script result length: %d", len(res))
	}

	decision := &Decision{
		Allowed:   res[0] == 1,
		Remaining: int(res[1]),
	}
	if !decision.Allowed {
		decision.RetryAfter = time.Duration(res[2]) * time.Millisecond
	}
	return decision, nil
}

// Limit はウィンドウあたりの上限値を返す。
func (l *SlidingWindowLimiter) Limit() int { return l.limit }

// WindowDescriptor はウィンドウの説明文字列を返す。
// 429レスポンスのwindowフィールドにそのまま使われる。
func (l *SlidingWindowLimiter) WindowDescriptor() string {
	return DescribeWindow(l.window)
}

// DescribeWindow はウィンドウ幅をクライアント向けの英語表記に変換する。
func DescribeWindow(window time.Duration) string {
	switch {
	case window == time.Minute:
		return "1 minute"
	case window%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(window/time.Minute))
	case window == time.Second:
		return "1 second"
	default:
		return fmt.Sprintf("%d seconds", int(window/time.Second))
	}
}

// RetryAfterSeconds は再試行までの待ち秒数を返す。
// 端数は切り上げ、0未満にはならない。
func RetryAfterSeconds(retryAfter time.Duration) int {
	if retryAfter <= 0 {
		return 0
	}
	sec := int((retryAfter + time.Second - 1) / time.Second)
	return sec
}

// compile-time interface check
var _ Limiter = (*SlidingWindowLimiter)(nil)
