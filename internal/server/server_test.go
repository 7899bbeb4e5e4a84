package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/muurk/wifipanel/internal/devicesim"
	"github.com/muurk/wifipanel/internal/panel"
	"github.com/muurk/wifipanel/internal/view"
	"github.com/muurk/wifipanel/internal/wifiapi"
)

var epoch = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	sim   *devicesim.Simulator
	panel *panel.Controller
	srv   *Server
	ts    *httptest.Server
}

func newFixture(t *testing.T, seed ...wifiapi.SavedNetwork) *fixture {
	t.Helper()

	sim := devicesim.New(devicesim.WithStore(devicesim.NewMemoryStore(seed...)))
	device := httptest.NewServer(sim)
	t.Cleanup(device.Close)

	ctl := panel.New(wifiapi.NewClient(device.URL), panel.WithClock(clocktesting.NewFakeClock(epoch)))
	t.Cleanup(ctl.Stop)

	srv, err := New(&Config{Listen: "127.0.0.1:0"}, ctl)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &fixture{sim: sim, panel: ctl, srv: srv, ts: ts}
}

// noRedirect returns a client that reports redirects instead of following them.
func noRedirect() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func postForm(t *testing.T, client *http.Client, target string, form url.Values, fetch bool) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if fetch {
		req.Header.Set(FetchHeader, "1")
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestNew_RequiresListenAndPanel(t *testing.T) {
	_, err := New(&Config{}, nil)
	assert.Error(t, err)

	_, err = New(&Config{Listen: ":0"}, nil)
	assert.Error(t, err)
}

func TestIndex_LoadsAndRendersPage(t *testing.T) {
	f := newFixture(t, wifiapi.SavedNetwork{ID: 1, APName: "home", APPass: "secret12"})

	resp, err := http.Get(f.ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	body := readBody(t, resp)
	assert.Contains(t, body, `<table id="saved" class="saved">`)
	assert.Contains(t, body, `<table id="available" class="available">`)
	assert.Contains(t, body, "<td>home</td>")
	assert.Contains(t, body, `action="/actions/start"`)
	assert.True(t, f.panel.State().Loaded)
}

func TestFragment(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.panel.Start(context.Background()))

	resp, err := http.Get(f.ts.URL + "/fragments/available")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.True(t, strings.HasPrefix(body, `<table id="available"`), body)
	assert.Contains(t, body, "cafe")

	resp, err = http.Get(f.ts.URL + "/fragments/bogus")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAction_RedirectsBrowser(t *testing.T) {
	f := newFixture(t)

	resp := postForm(t, noRedirect(), f.ts.URL+"/actions/start", nil, false)

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.False(t, f.sim.SoftAP())
	assert.Equal(t, "soft-AP stopped", f.panel.State().Snack.Message)
}

func TestAction_FetchUnknownIsNotFound(t *testing.T) {
	f := newFixture(t)

	resp := postForm(t, http.DefaultClient, f.ts.URL+"/actions/bogus", nil, true)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body["error"], "unknown action")
	assert.Equal(t, view.ContextDanger, f.panel.State().Snack.Context)
}

func TestRemove(t *testing.T) {
	f := newFixture(t, wifiapi.SavedNetwork{ID: 4, APName: "home", APPass: "secret12"})
	require.NoError(t, f.panel.Start(context.Background()))

	resp := postForm(t, http.DefaultClient, f.ts.URL+"/saved/remove",
		url.Values{"key": {"4"}, "command": {"remove"}}, true)

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, f.panel.State().Saved)
	assert.Equal(t, "home removed", f.panel.State().Snack.Message)
}

func TestRemove_MissingKey(t *testing.T) {
	f := newFixture(t)

	resp := postForm(t, http.DefaultClient, f.ts.URL+"/saved/remove", url.Values{"command": {"remove"}}, true)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRemove_NotSavedPassesDeviceStatus(t *testing.T) {
	f := newFixture(t)

	resp := postForm(t, http.DefaultClient, f.ts.URL+"/saved/remove", url.Values{"key": {"9"}}, true)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAddPrompt(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.ts.URL + "/available/add?key=cafe&command=add")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "Password for cafe")
	assert.Contains(t, body, `value="cafe"`)
}

func TestAdd_Fetch(t *testing.T) {
	f := newFixture(t)

	resp := postForm(t, http.DefaultClient, f.ts.URL+"/available/add",
		url.Values{"key": {"cafe"}, "command": {"add"}, "password": {"espresso1"}}, true)

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	saved, err := f.sim.Store().List(context.Background())
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "cafe", saved[0].APName)
	assert.Equal(t, view.Snackbar{Message: "cafe added", Context: view.ContextText}, f.panel.State().Snack)
}

func TestAdd_InvalidPasswordRerendersPrompt(t *testing.T) {
	f := newFixture(t)

	resp := postForm(t, noRedirect(), f.ts.URL+"/available/add",
		url.Values{"key": {"cafe"}, "password": {"short12"}}, false)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "Password for cafe")
	assert.Contains(t, body, "too short")

	saved, err := f.sim.Store().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestAdd_DuplicateIsConflict(t *testing.T) {
	f := newFixture(t, wifiapi.SavedNetwork{ID: 1, APName: "cafe", APPass: "espresso1"})

	resp := postForm(t, http.DefaultClient, f.ts.URL+"/available/add",
		url.Values{"key": {"cafe"}, "password": {"espresso1"}}, true)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestPanelScript(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.ts.URL + "/static/panel.js")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/javascript", resp.Header.Get("Content-Type"))
	assert.Contains(t, readBody(t, resp), "outerHTML")
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.panel.Start(context.Background()))

	resp, err := http.Get(f.ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "ok", got.Status)
	assert.True(t, got.Loaded)
	assert.Equal(t, []string{panel.TaskPollScan, panel.TaskRefreshSaved}, got.Pending)
}

func dialWS(t *testing.T, f *fixture) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readPatch(t *testing.T, conn *websocket.Conn) Patch {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var p Patch
	require.NoError(t, conn.ReadJSON(&p))
	return p
}

func TestWebSocket_SendsAllRegionsThenChanges(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.panel.Start(context.Background()))

	conn := dialWS(t, f)

	for _, region := range view.Regions() {
		p := readPatch(t, conn)
		assert.Equal(t, region, p.Region)
		assert.Contains(t, p.HTML, `id="`+region+`"`)
	}

	f.panel.Snack("hello", view.ContextNone)

	p := readPatch(t, conn)
	assert.Equal(t, view.RegionMessage, p.Region)
	assert.Contains(t, p.HTML, "hello")

	require.Eventually(t, func() bool {
		return f.srv.GetActiveConnections() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestWebSocket_ClosedWhenPanelStops(t *testing.T) {
	f := newFixture(t)
	conn := dialWS(t, f)

	for range view.Regions() {
		readPatch(t, conn)
	}

	f.panel.Stop()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "err = %v", err)

	require.Eventually(t, func() bool {
		return f.srv.GetActiveConnections() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	f := newFixture(t)
	srv, err := New(&Config{Listen: "127.0.0.1:0", ShutdownTimeout: time.Second}, f.panel)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + srv.Addr() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
