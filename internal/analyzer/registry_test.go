package analyzer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeModule struct {
	name        string
	unavailable bool
	initErr     error
	analyze     func(ctx context.Context, text string) ([]Finding, error)
	closed      atomic.Bool
}

func (f *fakeModule) Name() string                 { return f.name }
func (f *fakeModule) Description() string          { return "fake " + f.name }
func (f *fakeModule) Available() bool              { return !f.unavailable }
func (f *fakeModule) Init(ctx context.Context) error { return f.initErr }
func (f *fakeModule) Close() error {
	f.closed.Store(true)
	return nil
}

func (f *fakeModule) Analyze(ctx context.Context, text string) ([]Finding, error) {
	if f.analyze == nil {
		return nil, nil
	}
	return f.analyze(ctx, text)
}

func newTestRegistry(t *testing.T, modules ...Module) *Registry {
	t.Helper()
	r := NewRegistry(2, zerolog.Nop())
	for _, m := range modules {
		r.Register(m)
	}
	r.InitAll(context.Background())
	return r
}

func TestRegistry_ListSortedAndFiltered(t *testing.T) {
	r := newTestRegistry(t,
		&fakeModule{name: "zeta"},
		&fakeModule{name: "alpha"},
		&fakeModule{name: "missing-deps", unavailable: true},
		&fakeModule{name: "broken", initErr: errors.New("boom")},
	)

	assert.Equal(t, []Info{
		{Name: "alpha", Description: "fake alpha"},
		{Name: "zeta", Description: "fake zeta"},
	}, r.List())
	assert.Nil(t, r.Get("broken"))
	assert.NotNil(t, r.Get("alpha"))
}

func TestRegistry_ProcessValidation(t *testing.T) {
	r := newTestRegistry(t, &fakeModule{name: "a"})
	ctx := context.Background()

	tests := []struct {
		name    string
		text    string
		modules []string
		wantErr error
	}{
		{name: "empty text", text: "", modules: []string{"a"}, wantErr: ErrEmptyText},
		{name: "no modules", text: "x", modules: nil, wantErr: ErrNoModules},
		{name: "unknown module", text: "x", modules: []string{"a", "nope"}, wantErr: ErrUnknownModule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Process(ctx, tt.text, tt.modules)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRegistry_ProcessRunsModules(t *testing.T) {
	defer goleak.VerifyNone(t)

	text := "This and that."
	var calls atomic.Int32

	a := &fakeModule{name: "a", analyze: func(ctx context.Context, text string) ([]Finding, error) {
		calls.Add(1)
		return []Finding{
			NewFinding(text, 9, 13, "second"),
			NewFinding(text, 0, 4, "first"),
		}, nil
	}}
	b := &fakeModule{name: "b", analyze: func(ctx context.Context, text string) ([]Finding, error) {
		calls.Add(1)
		return nil, nil
	}}

	r := newTestRegistry(t, a, b)

	results, err := r.Process(context.Background(), text, []string{"a", "b", "a"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "duplicate names run once")

	require.Contains(t, results, "a")
	assert.Equal(t, "a", results["a"].ModuleName)
	require.Len(t, results["a"].Results, 2)
	assert.Equal(t, "This", results["a"].Results[0].TextSpan)
	assert.Equal(t, "that", results["a"].Results[1].TextSpan)

	require.Contains(t, results, "b")
	assert.NotNil(t, results["b"].Results)
	assert.Empty(t, results["b"].Results)
}

func TestRegistry_ProcessModuleError(t *testing.T) {
	defer goleak.VerifyNone(t)

	failing := &fakeModule{name: "failing", analyze: func(ctx context.Context, text string) ([]Finding, error) {
		return nil, errors.New("llm unavailable")
	}}
	slow := &fakeModule{name: "slow", analyze: func(ctx context.Context, text string) ([]Finding, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return nil, nil
		}
	}}

	r := newTestRegistry(t, failing, slow)

	_, err := r.Process(context.Background(), "text", []string{"failing", "slow"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm unavailable")
}

func TestRegistry_CloseAll(t *testing.T) {
	a := &fakeModule{name: "a"}
	r := newTestRegistry(t, a)
	r.CloseAll()
	assert.True(t, a.closed.Load())
}

func TestWorkerPool_RunContextCancelled(t *testing.T) {
	p := NewWorkerPool(1)
	assert.Equal(t, 1, p.Size())

	hold := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = p.RunContext(context.Background(), func() error {
			<-hold
			return nil
		})
	}()

	// wait for the slot to be taken
	require.Eventually(t, func() bool { return len(p.sem) == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	err := p.RunContext(ctx, func() error {
		ran = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran)

	close(hold)
	<-done
}

func TestFinding_Region(t *testing.T) {
	tests := []struct {
		name    string
		finding Finding
		pos     int
		length  int
	}{
		{name: "start end", finding: Finding{Start: 3, End: 7}, pos: 3, length: 4},
		{name: "position and span", finding: Finding{Position: 5, TextSpan: "héllo"}, pos: 5, length: 5},
		{name: "empty at position", finding: Finding{Position: 9}, pos: 9, length: 0},
		{name: "empty at start", finding: Finding{Start: 4, End: 4}, pos: 4, length: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, length := tt.finding.Region()
			assert.Equal(t, tt.pos, pos)
			assert.Equal(t, tt.length, length)
		})
	}
}

func TestRuneOffsets(t *testing.T) {
	text := "día de sol"
	r := NewRuneOffsets(text)
	assert.Equal(t, 0, r.At(0))
	assert.Equal(t, 4, r.At(5)) // "día " is 5 bytes
	assert.Equal(t, 10, r.At(100))
}
