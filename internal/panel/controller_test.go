package panel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/muurk/wifipanel/internal/view"
	"github.com/muurk/wifipanel/internal/wifiapi"
)

// fakeAPI is an in-memory device API that counts calls.
type fakeAPI struct {
	mu      sync.Mutex
	saved   []wifiapi.SavedNetwork
	scanned []wifiapi.ScannedNetwork
	status  wifiapi.Status
	nextID  int

	statusErr error
	scanErr   error

	calls map[string]int
}

func newFakeAPI() *fakeAPI {
	status, _ := wifiapi.StatusOf("mode", "ap", "ip", "192.168.4.1")
	return &fakeAPI{
		saved:   []wifiapi.SavedNetwork{{ID: 1, APName: "home", APPass: "secret"}},
		scanned: []wifiapi.ScannedNetwork{{SSID: "cafe", RSSI: -60, EncryptionType: 3, Channel: 6}},
		status:  status,
		nextID:  2,
		calls:   make(map[string]int),
	}
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) Configured(ctx context.Context) ([]wifiapi.SavedNetwork, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["configured"]++
	return append([]wifiapi.SavedNetwork(nil), f.saved...), nil
}

func (f *fakeAPI) Scan(ctx context.Context) ([]wifiapi.ScannedNetwork, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["scan"]++
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	return append([]wifiapi.ScannedNetwork(nil), f.scanned...), nil
}

func (f *fakeAPI) Status(ctx context.Context) (wifiapi.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["status"]++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.status, nil
}

func (f *fakeAPI) Add(ctx context.Context, apName, apPass string) (*wifiapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["add"]++
	f.saved = append(f.saved, wifiapi.SavedNetwork{ID: f.nextID, APName: apName, APPass: apPass})
	f.nextID++
	return &wifiapi.Message{Message: apName + " added"}, nil
}

func (f *fakeAPI) DeleteByID(ctx context.Context, id int) (*wifiapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["delete"]++
	for i, n := range f.saved {
		if n.ID == id {
			f.saved = append(f.saved[:i], f.saved[i+1:]...)
			return &wifiapi.Message{Message: fmt.Sprintf("%d removed", id)}, nil
		}
	}
	return nil, &wifiapi.RequestError{Kind: wifiapi.KindHTTP, URL: "/api/wifi/id", StatusCode: 404, Status: "Not Found"}
}

func (f *fakeAPI) Actions() map[string]wifiapi.ActionFunc {
	return map[string]wifiapi.ActionFunc{
		wifiapi.ActionStart: func(ctx context.Context) (*wifiapi.Message, error) {
			return &wifiapi.Message{Message: "soft-AP stopped"}, nil
		},
		wifiapi.ActionScan: func(ctx context.Context) (*wifiapi.Message, error) {
			return nil, errors.New("radio busy")
		},
	}
}

var epoch = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestController(t *testing.T, api API) (*Controller, *clocktesting.FakeClock) {
	t.Helper()
	fc := clocktesting.NewFakeClock(epoch)
	c := New(api, WithClock(fc))
	t.Cleanup(c.Stop)
	return c, fc
}

func TestStart_RendersAllThree(t *testing.T) {
	api := newFakeAPI()
	c, _ := newTestController(t, api)

	require.NoError(t, c.Start(context.Background()))

	state := c.State()
	assert.True(t, state.Loaded)
	assert.Len(t, state.Saved, 1)
	assert.Len(t, state.Scanned, 1)
	assert.Len(t, state.Status, 2)
	assert.Equal(t, epoch, state.SavedUpdated)
	assert.Equal(t, epoch, state.ScannedUpdated)
	assert.Equal(t, []string{wifiapi.ActionScan, wifiapi.ActionStart}, state.Actions)

	assert.Equal(t, []string{TaskPollScan, TaskRefreshSaved}, c.Pending())

	// a second Start does not fetch again
	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, 1, api.count("configured"))
}

func TestStart_FailureRendersNothingAndSchedulesNothing(t *testing.T) {
	api := newFakeAPI()
	api.statusErr = &wifiapi.RequestError{Kind: wifiapi.KindHTTP, URL: "http://dev/api/wifi/status", StatusCode: 500, Status: "Internal Server Error"}
	c, _ := newTestController(t, api)

	err := c.Start(context.Background())
	require.Error(t, err)

	state := c.State()
	assert.False(t, state.Loaded)
	assert.Nil(t, state.Saved)
	assert.Nil(t, state.Scanned)
	assert.Equal(t, view.ContextDanger, state.Snack.Context)
	assert.Equal(t, "http://dev/api/wifi/status: 500 Internal Server Error", state.Snack.Message)

	assert.Equal(t, []string{TaskClearSnack}, c.Pending())
}

func TestEnsureLoaded_RetriesAfterFailure(t *testing.T) {
	api := newFakeAPI()
	api.scanErr = errors.New("unreachable")
	c, _ := newTestController(t, api)

	require.Error(t, c.Start(context.Background()))

	api.mu.Lock()
	api.scanErr = nil
	api.mu.Unlock()

	require.NoError(t, c.EnsureLoaded(context.Background()))
	assert.True(t, c.State().Loaded)
}

func TestSavedRefresh_FiresOnceAfterDelay(t *testing.T) {
	api := newFakeAPI()
	c, fc := newTestController(t, api)
	require.NoError(t, c.Start(context.Background()))
	require.Equal(t, 1, api.count("configured"))

	api.mu.Lock()
	api.saved = append(api.saved, wifiapi.SavedNetwork{ID: 9, APName: "late"})
	api.mu.Unlock()

	fc.Step(DefaultSavedRefresh)
	require.Eventually(t, func() bool { return len(c.State().Saved) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, api.count("configured"))
	assert.Equal(t, epoch.Add(DefaultSavedRefresh), c.State().SavedUpdated)

	fc.Step(time.Hour)
	assert.Never(t, func() bool { return api.count("configured") > 2 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestScanPoll_Recurs(t *testing.T) {
	api := newFakeAPI()
	c, fc := newTestController(t, api)
	require.NoError(t, c.Start(context.Background()))

	for want := 2; want <= 4; want++ {
		fc.Step(DefaultScanPoll)
		require.Eventually(t, func() bool { return api.count("scan") == want }, time.Second, 5*time.Millisecond)
	}

	c.Stop()
	assert.Empty(t, c.Pending())
	fc.Step(DefaultScanPoll)
	assert.Never(t, func() bool { return api.count("scan") > 4 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestSnack_SetsAndClears(t *testing.T) {
	c, fc := newTestController(t, newFakeAPI())

	c.Snack("x", view.ContextNone)
	assert.Equal(t, view.Snackbar{Message: "x"}, c.State().Snack)

	fc.Step(DefaultSnackTimeout)
	require.Eventually(t, func() bool { return c.State().Snack.Empty() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "", c.State().Snack.Context)
}

func TestSnack_NewMessageCancelsPendingClear(t *testing.T) {
	c, fc := newTestController(t, newFakeAPI())

	c.Snack("first", view.ContextNone)
	fc.Step(3 * time.Second)
	c.Snack("second", view.ContextText)

	// the first message's clear would be due now
	fc.Step(2 * time.Second)
	assert.Never(t, func() bool { return c.State().Snack.Empty() }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, view.Snackbar{Message: "second", Context: view.ContextText}, c.State().Snack)

	fc.Step(3 * time.Second)
	require.Eventually(t, func() bool { return c.State().Snack.Empty() }, time.Second, 5*time.Millisecond)
}

func TestTrigger(t *testing.T) {
	c, _ := newTestController(t, newFakeAPI())

	require.NoError(t, c.Trigger(context.Background(), wifiapi.ActionStart))
	assert.Equal(t, view.Snackbar{Message: "soft-AP stopped"}, c.State().Snack)

	err := c.Trigger(context.Background(), wifiapi.ActionScan)
	require.Error(t, err)
	assert.Equal(t, view.Snackbar{Message: "radio busy", Context: view.ContextDanger}, c.State().Snack)

	err = c.Trigger(context.Background(), "reboot")
	assert.ErrorIs(t, err, ErrUnknownAction)
	assert.Equal(t, view.ContextDanger, c.State().Snack.Context)
}

func TestRemove(t *testing.T) {
	api := newFakeAPI()
	c, _ := newTestController(t, api)
	require.NoError(t, c.Start(context.Background()))

	require.NoError(t, c.Remove(context.Background(), "1"))

	state := c.State()
	assert.Empty(t, state.Saved)
	assert.Equal(t, view.Snackbar{Message: "1 removed"}, state.Snack)
	assert.Equal(t, 1, api.count("delete"))
	assert.Equal(t, 2, api.count("configured"))
}

func TestRemove_Errors(t *testing.T) {
	api := newFakeAPI()
	c, _ := newTestController(t, api)

	require.Error(t, c.Remove(context.Background(), "abc"))
	assert.Equal(t, 0, api.count("delete"))
	assert.Equal(t, view.ContextDanger, c.State().Snack.Context)

	err := c.Remove(context.Background(), "42")
	require.Error(t, err)
	assert.Equal(t, 404, wifiapi.StatusCode(err))
	assert.Equal(t, 0, api.count("configured"))
}

func TestAdd(t *testing.T) {
	api := newFakeAPI()
	c, _ := newTestController(t, api)
	require.NoError(t, c.Start(context.Background()))

	require.NoError(t, c.Add(context.Background(), "cafe", "espresso1"))

	assert.Equal(t, view.Snackbar{Message: "cafe added", Context: view.ContextText}, c.State().Snack)
	assert.Equal(t, 2, api.count("scan"))

	saved, _ := api.Configured(context.Background())
	assert.Equal(t, "cafe", saved[len(saved)-1].APName)
}

func TestAdd_InvalidPasswordNeverReachesDevice(t *testing.T) {
	api := newFakeAPI()
	c, _ := newTestController(t, api)

	err := c.Add(context.Background(), "cafe", "short12")

	assert.ErrorIs(t, err, wifiapi.ErrInvalidCredentials)
	assert.Equal(t, 0, api.count("add"))
	assert.Equal(t, view.ContextDanger, c.State().Snack.Context)
}

func TestAdd_LegacyAndRawKeysReachDevice(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"wep-40", "abcde"},
		{"wep-104", "abcdefghijklm"},
		{"raw psk", "0123456789abcdef0123456789ABCDEF0123456789abcdef0123456789abcdef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			c, _ := newTestController(t, api)

			require.NoError(t, c.Add(context.Background(), "oldwep", tt.key))
			assert.Equal(t, 1, api.count("add"))

			saved, _ := api.Configured(context.Background())
			assert.Equal(t, tt.key, saved[len(saved)-1].APPass)
		})
	}
}

func TestSubscribe(t *testing.T) {
	c, _ := newTestController(t, newFakeAPI())

	updates, cancel := c.Subscribe()
	defer cancel()

	c.Snack("one", view.ContextNone)
	c.Snack("two", view.ContextNone)

	select {
	case s := <-updates:
		assert.Equal(t, "two", s.Snack.Message)
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}
}

func TestStop_ClosesSubscriptions(t *testing.T) {
	fc := clocktesting.NewFakeClock(epoch)
	c := New(newFakeAPI(), WithClock(fc))

	updates, _ := c.Subscribe()
	c.Stop()

	_, ok := <-updates
	assert.False(t, ok)

	late, _ := c.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}
