package chart

import "errors"

var (
	// ErrUnknownKind 未対応のグラフ種別
	ErrUnknownKind = errors.New("chart: unknown chart kind")
	// ErrSurfaceDetached 描画面がnil、またはサイズが不正
	ErrSurfaceDetached = errors.New("chart: surface is not attached")
	// ErrNotRendered 描画面がまだ描画されていない
	ErrNotRendered = errors.New("chart: surface has not been rendered")
)

// Engine は実際のピクセル描画を担当するグラフ描画エンジンです。
type Engine interface {
	// SetDefaults はフォント既定値を設定します。以降に作成する全グラフに効きます。
	SetDefaults(d Defaults)
	// New は描画面にグラフを作成して結び付けます。
	New(surface *Surface, cfg Config) (Instance, error)
}

// Instance は描画面に結び付いたグラフです。
type Instance interface {
	Kind() Kind
	Config() Config
	Surface() *Surface
	Destroy()
}

// Compositor はオーバーレイを描画面そのものに合成できるエンジンが実装します。
type Compositor interface {
	Composite(surface *Surface, o *Overlay) error
}

type instance struct {
	cfg       Config
	surface   *Surface
	onDestroy func()
	destroyed bool
}

func (i *instance) Kind() Kind        { return i.cfg.Kind }
func (i *instance) Config() Config    { return i.cfg }
func (i *instance) Surface() *Surface { return i.surface }

func (i *instance) Destroy() {
	if i.destroyed {
		return
	}
	i.destroyed = true
	if i.onDestroy != nil {
		i.onDestroy()
	}
}

func checkSurface(s *Surface) error {
	if s == nil || s.Width <= 0 || s.Height <= 0 {
		return ErrSurfaceDetached
	}
	return nil
}
