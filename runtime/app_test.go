package runtime

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApp_LoadsEmbeddedFlows(t *testing.T) {
	app, err := NewApp(discardLogger())
	require.NoError(t, err)

	assert.Len(t, app.Flows.All(), 2)
	assert.True(t, app.Flows.Owns(FlowAppointment, ScreenDetails))
	assert.True(t, app.Flows.Owns(FlowTravel, ScreenFlight))
	assert.False(t, app.Flows.Owns(FlowTravel, ScreenDetails))
	assert.False(t, app.Flows.Owns("", "NOPE"))
}

func TestLoadFlows(t *testing.T) {
	tests := []struct {
		name    string
		files   fstest.MapFS
		wantErr string
	}{
		{
			name: "valid",
			files: fstest.MapFS{
				"flows/a.yaml": {Data: []byte("id: A\ninit_screen: ONE\nscreens:\n  ONE:\n    data: {}\n")},
			},
		},
		{
			name: "missing init screen",
			files: fstest.MapFS{
				"flows/a.yaml": {Data: []byte("id: A\ninit_screen: TWO\nscreens:\n  ONE:\n    data: {}\n")},
			},
			wantErr: "init screen",
		},
		{
			name: "screen shared between flows",
			files: fstest.MapFS{
				"flows/a.yaml": {Data: []byte("id: A\ninit_screen: ONE\nscreens:\n  ONE:\n    data: {}\n")},
				"flows/b.yaml": {Data: []byte("id: B\ninit_screen: ONE\nscreens:\n  ONE:\n    data: {}\n")},
			},
			wantErr: "declared by both",
		},
		{
			name: "duplicate flow",
			files: fstest.MapFS{
				"flows/a.yaml": {Data: []byte("id: A\ninit_screen: ONE\nscreens:\n  ONE:\n    data: {}\n")},
				"flows/b.yaml": {Data: []byte("id: A\ninit_screen: TWO\nscreens:\n  TWO:\n    data: {}\n")},
			},
			wantErr: "duplicate flow",
		},
		{
			name: "missing id",
			files: fstest.MapFS{
				"flows/a.yaml": {Data: []byte("init_screen: ONE\nscreens:\n  ONE:\n    data: {}\n")},
			},
			wantErr: "without id",
		},
		{
			name: "invalid yaml",
			files: fstest.MapFS{
				"flows/a.yaml": {Data: []byte("id: [\n")},
			},
			wantErr: "unmarshalling",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry, err := LoadFlows(tt.files, "flows")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			flow, ok := registry.Flow("A")
			require.True(t, ok)
			assert.Equal(t, "ONE", flow.InitScreen)
		})
	}
}

func TestNewDispatcher_RejectsInvalidGate(t *testing.T) {
	app, err := NewApp(discardLogger())
	require.NoError(t, err)

	err = app.Flows.RegisterFlow(Flow{
		ID:         "BROKEN",
		InitScreen: "BROKEN_SCREEN",
		Screens: map[string]Screen{
			"BROKEN_SCREEN": {Gates: map[string]string{"is_enabled": "truthy(a) &&"}},
		},
	})
	require.NoError(t, err)

	_, err = app.NewDispatcher(nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid gate is_enabled")
}

type closingStore struct {
	closed atomic.Bool
	puts   atomic.Int32
}

func (s *closingStore) Put(ctx context.Context, flowToken string, rows []FlightRow) error {
	if s.closed.Load() {
		return errors.New("store closed before write")
	}
	s.puts.Add(1)
	return nil
}

func (s *closingStore) Get(ctx context.Context, flowToken string) ([]FlightRow, bool, error) {
	return nil, false, nil
}

func (s *closingStore) Initialize(ctx context.Context) error { return nil }

func (s *closingStore) Shutdown(ctx context.Context) error {
	s.closed.Store(true)
	return nil
}

func TestApp_ShutdownDrainsTasksBeforeComponents(t *testing.T) {
	app, err := NewApp(discardLogger())
	require.NoError(t, err)

	store := &closingStore{}
	require.NoError(t, app.RegisterComponent("prefetch", store))
	require.NoError(t, app.Container.Initialize(context.Background()))

	started := app.Tasks.Go(context.Background(), "flight-lookup", func(ctx context.Context) error {
		time.Sleep(50 * time.Millisecond)
		return store.Put(ctx, "tok", []FlightRow{})
	})
	require.True(t, started)

	require.NoError(t, app.Shutdown(context.Background()))

	assert.True(t, store.closed.Load())
	assert.Equal(t, int32(1), store.puts.Load())
	select {
	case failure := <-app.Tasks.Failures():
		t.Fatalf("unexpected task failure: %v", failure.Err)
	default:
	}
}

func TestApp_ShutdownClosesComponentsWhenDrainTimesOut(t *testing.T) {
	app, err := NewApp(discardLogger())
	require.NoError(t, err)

	store := &closingStore{}
	require.NoError(t, app.RegisterComponent("prefetch", store))

	release := make(chan struct{})
	defer close(release)
	app.Tasks.Go(context.Background(), "stuck", func(ctx context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err = app.Shutdown(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, store.closed.Load())
}
