package live

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livefir/objectmodel"
	"github.com/livefir/objectmodel/dom/htmldoc"
	"github.com/livefir/objectmodel/internal/memory"
	"github.com/livefir/objectmodel/internal/metrics"
	"github.com/livefir/objectmodel/internal/scenario"
	"github.com/livefir/objectmodel/internal/session"
)

const app = `
page: |
  <html><body>
  <a id="to-b" href="/b" js:link="B">b</a>
  <div js:router="/">
    <div id="home" js:path="/">
      <div id="main" js:object-model="counter">
        <span id="count" js:content="count"></span>
        <button id="inc" js:on-click="inc">+</button>
      </div>
    </div>
    <div id="page-b" js:path="/b">page b</div>
  </div>
  </body></html>
models:
  counter:
    data: {count: 0}
    handlers:
      inc: [{op: add, prop: count}]
`

func newServer(t *testing.T, opts ...Option) (*httptest.Server, *metrics.Collector) {
	t.Helper()
	sc, err := scenario.Parse([]byte(app))
	require.NoError(t, err)

	collector := metrics.NewCollector()
	m := session.NewManager(func() (*htmldoc.Document, *objectmodel.Component, error) {
		return sc.Mount([]htmldoc.Option{htmldoc.WithListenerIDs()}, objectmodel.WithMetrics(collector))
	}, time.Hour)

	srv := httptest.NewServer(New(m, append(opts, WithMetrics(collector))...))
	t.Cleanup(srv.Close)
	return srv, collector
}

func dial(t *testing.T, srv *httptest.Server, codec string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + WSPath + "?codec=" + url.QueryEscape(codec)
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, c Codec, msg *Message) Update {
	t.Helper()
	if msg != nil {
		data, err := c.Marshal(msg)
		require.NoError(t, err)
		require.NoError(t, conn.WriteMessage(c.MessageType(), data))
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	typ, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, c.MessageType(), typ)

	var u Update
	require.NoError(t, c.Unmarshal(data, &u))
	return u
}

var listenRe = regexp.MustCompile(`id="([\w-]+)"[^>]*data-om-listen="(\d+)"`)

func listeners(body string) map[string]string {
	out := map[string]string{}
	for _, m := range listenRe.FindAllStringSubmatch(body, -1) {
		out[m[1]] = m[2]
	}
	return out
}

func TestHandler_Page(t *testing.T) {
	srv, _ := newServer(t, WithTitle("demo"))

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, string(body), "<title>demo</title>")
	assert.Contains(t, string(body), `id="om-root"`)
	assert.Contains(t, string(body), `<div id="home">`)
	assert.NotContains(t, string(body), "page b")
	assert.NotContains(t, string(body), "js:")

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	// Deep links navigate the session.
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/b", nil)
	req.AddCookie(cookie)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	body2, _ := io.ReadAll(resp2.Body)
	assert.Contains(t, string(body2), "page b")
	assert.Empty(t, resp2.Cookies(), "existing session reused")

	// Loading the root again navigates back to it.
	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/", nil)
	req.AddCookie(cookie)
	resp4, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp4.Body.Close()
	body4, _ := io.ReadAll(resp4.Body)
	assert.NotContains(t, string(body4), "page b")
	assert.Contains(t, string(body4), `<div id="home">`)

	resp3, err := http.Post(srv.URL+"/", "text/plain", nil)
	require.NoError(t, err)
	resp3.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp3.StatusCode)
}

func TestHandler_WebSocketCodecs(t *testing.T) {
	for _, c := range []Codec{JSON, Msgpack} {
		t.Run(c.Name(), func(t *testing.T) {
			srv, collector := newServer(t)
			conn := dial(t, srv, c.Name())

			initial := roundTrip(t, conn, c, nil)
			require.Empty(t, initial.Error)
			assert.Equal(t, "/", initial.Path)
			assert.NotEmpty(t, initial.Session)

			ids := listeners(initial.Body)
			require.Contains(t, ids, "inc")
			require.Contains(t, ids, "to-b")

			u := roundTrip(t, conn, c, &Message{Kind: KindEvent, Listener: ids["inc"], Event: "click"})
			assert.Contains(t, u.Body, `<span id="count">1</span>`)
			assert.False(t, u.Prevented)

			u = roundTrip(t, conn, c, &Message{Kind: KindEvent, Listener: ids["to-b"]})
			assert.True(t, u.Prevented)
			assert.Equal(t, "/b", u.Path)
			assert.Contains(t, u.Body, "page b")
			assert.NotContains(t, u.Body, `id="count"`)

			u = roundTrip(t, conn, c, &Message{Kind: KindBack})
			assert.Equal(t, "/", u.Path)
			assert.Contains(t, u.Body, `<span id="count">1</span>`)

			u = roundTrip(t, conn, c, &Message{Kind: KindForward})
			assert.Equal(t, "/b", u.Path)

			u = roundTrip(t, conn, c, &Message{Kind: KindNavigate, Path: "/"})
			assert.Equal(t, "/", u.Path)

			u = roundTrip(t, conn, c, &Message{Kind: KindEvent, Listener: "999"})
			assert.Contains(t, u.Error, "unknown listener id")

			u = roundTrip(t, conn, c, &Message{Kind: "teleport"})
			assert.Contains(t, u.Error, "unknown message kind")

			counters := collector.GetCustomCounters()
			assert.Equal(t, int64(1), counters["live_connections"])
			assert.Equal(t, int64(7), counters["live_messages"])
			assert.Equal(t, int64(2), counters["live_errors"])
			assert.Equal(t, int64(1), collector.GetMetrics().Writes)
		})
	}
}

var connectRe = regexp.MustCompile(`data-session="([^"]+)"`)

func TestHandler_ConnectToken(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	page, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Len(t, resp.Cookies(), 1)
	cookie := resp.Cookies()[0]

	m := connectRe.FindStringSubmatch(string(page))
	require.Len(t, m, 2)
	ws := "ws" + strings.TrimPrefix(srv.URL, "http") + WSPath + "?session=" + url.QueryEscape(m[1])
	conn, _, err := websocket.DefaultDialer.Dial(ws, nil)
	require.NoError(t, err)
	defer conn.Close()

	initial := roundTrip(t, conn, JSON, nil)
	ids := listeners(initial.Body)
	u := roundTrip(t, conn, JSON, &Message{Kind: KindEvent, Listener: ids["inc"]})
	assert.Contains(t, u.Body, `<span id="count">1</span>`)

	// The page load with the cookie sees the write made over the socket.
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/", nil)
	req.AddCookie(cookie)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `<span id="count">1</span>`)

	// Connect tokens are single use.
	_, resp, err = websocket.DefaultDialer.Dial(ws, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// So are forged ones.
	_, resp, err = websocket.DefaultDialer.Dial(ws+"x", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandler_UnknownCodec(t *testing.T) {
	srv, _ := newServer(t)
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + WSPath + "?codec=xml"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandler_Metrics(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + MetricsPath)
	require.NoError(t, err)
	defer resp.Body.Close()

	var got metricsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 1, got.Sessions)
	assert.Equal(t, int64(1), got.Metrics.InstancesBound)
	assert.Equal(t, int64(1), got.Metrics.ModelsRegistered)
	assert.Equal(t, int64(2), got.Metrics.PathBindings)
	assert.Equal(t, int64(1), got.Counters["live_sessions"])
	assert.Equal(t, memory.Status{}, got.Memory)
}

func TestHandler_OverBudget(t *testing.T) {
	sc, err := scenario.Parse([]byte(app))
	require.NoError(t, err)
	budget := memory.NewManager(&memory.Config{MaxMemoryMB: 1, WarningThresholdPct: 0, CriticalThresholdPct: 0})
	m := session.NewManager(func() (*htmldoc.Document, *objectmodel.Component, error) {
		return sc.Mount([]htmldoc.Option{htmldoc.WithListenerIDs()})
	}, time.Hour, session.WithBudget(budget))
	srv := httptest.NewServer(New(m))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, 0, m.Len())
}

func TestCodecByName(t *testing.T) {
	for name, want := range map[string]Codec{"": JSON, "json": JSON, "msgpack": Msgpack} {
		got, err := CodecByName(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := CodecByName("xml")
	assert.Error(t, err)
}
