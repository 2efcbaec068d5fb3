package usecase

import "time"

// Option はユースケースの任意設定を変更します。
type Option func(*options)

type options struct {
	now         func() time.Time
	concurrency int
}

// WithClock は現在時刻の取得関数を差し替えます（主にテスト用）。
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithConcurrency は PreloadAll で同時に取り込む銘柄数の上限を設定します。
// 1以下の場合は逐次処理になります。
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

func applyOptions(opts []Option) options {
	o := options{now: time.Now, concurrency: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}
	return o
}
