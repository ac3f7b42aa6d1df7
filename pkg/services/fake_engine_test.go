package services

import (
	"errors"

	"relief-dashboard-api/pkg/chart"
)

// fakeEngine は描画せずに呼び出しだけを記録するエンジンです。
type fakeEngine struct {
	defaults     []chart.Defaults
	created      []*fakeInstance
	err          error
	failSurfaces map[string]bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{failSurfaces: make(map[string]bool)}
}

func (e *fakeEngine) SetDefaults(d chart.Defaults) {
	e.defaults = append(e.defaults, d)
}

func (e *fakeEngine) New(surface *chart.Surface, cfg chart.Config) (chart.Instance, error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.failSurfaces[surface.ID] {
		return nil, errors.New("engine failure")
	}
	inst := &fakeInstance{cfg: cfg, surface: surface}
	e.created = append(e.created, inst)
	return inst, nil
}

// live はまだ破棄されていないインスタンスの数
func (e *fakeEngine) live() int {
	n := 0
	for _, inst := range e.created {
		if inst.destroyed == 0 {
			n++
		}
	}
	return n
}

type fakeInstance struct {
	cfg       chart.Config
	surface   *chart.Surface
	destroyed int
}

func (i *fakeInstance) Kind() chart.Kind        { return i.cfg.Kind }
func (i *fakeInstance) Config() chart.Config    { return i.cfg }
func (i *fakeInstance) Surface() *chart.Surface { return i.surface }
func (i *fakeInstance) Destroy()                { i.destroyed++ }

// recordingObserver 描画イベントを溜めるだけのオブザーバー
type recordingObserver struct {
	events []RenderEvent
}

func (o *recordingObserver) RecordRender(event RenderEvent) {
	o.events = append(o.events, event)
}
