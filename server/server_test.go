package server

import (
	"compress/gzip"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prebid/prebid-privacy-server/config"
	"github.com/prebid/prebid-privacy-server/metrics"
	metricsconfig "github.com/prebid/prebid-privacy-server/metrics/config"
)

func TestNewAdminServer(t *testing.T) {
	cfg := &config.Configuration{
		Host:      "prebid.com",
		AdminPort: 6060,
		Port:      8000,
	}
	server := newAdminServer(cfg, http.HandlerFunc(handler))
	assert.Equal(t, "prebid.com:6060", server.Addr)
}

func TestNewMainServer(t *testing.T) {
	cfg := &config.Configuration{
		Host:      "prebid.com",
		AdminPort: 6060,
		Port:      8000,
	}
	server := newMainServer(cfg, http.HandlerFunc(handler))
	assert.Equal(t, "prebid.com:8000", server.Addr)
	assert.Equal(t, 15*time.Second, server.ReadTimeout)
	assert.Equal(t, 15*time.Second, server.WriteTimeout)
}

func TestNewMainServerGzip(t *testing.T) {
	body := strings.Repeat("enforcement ", 200)
	cfg := &config.Configuration{EnableGzip: true}
	server := newMainServer(cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))

	req := httptest.NewRequest("GET", "/status", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	recorder := httptest.NewRecorder()
	server.Handler.ServeHTTP(recorder, req)

	require.Equal(t, "gzip", recorder.Header().Get("Content-Encoding"))
	reader, err := gzip.NewReader(recorder.Body)
	require.NoError(t, err)
	decoded, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, body, string(decoded))
}

func TestNewPrometheusServer(t *testing.T) {
	cfg := &config.Configuration{
		Host: "prebid.com",
		Metrics: config.Metrics{
			Prometheus: config.PrometheusMetrics{Port: 9090, TimeoutMillisRaw: 100},
		},
	}
	engine := metricsconfig.NewMetricsEngine(cfg, []string{"v2"})

	server := newPrometheusServer(cfg, engine)
	assert.Equal(t, "prebid.com:9090", server.Addr)

	recorder := httptest.NewRecorder()
	server.Handler.ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "vendorlist_fetches")
}

func TestServerShutdown(t *testing.T) {
	server := &http.Server{}
	ln := &mockListener{}

	stopper := make(chan os.Signal)
	done := make(chan struct{})
	go shutdownAfterSignals(server, stopper, done)
	go server.Serve(ln)

	stopper <- os.Interrupt
	<-done

	// If the test didn't hang, then we know server.Shutdown really _did_ return, and shutdownAfterSignals
	// passed the message along as expected.
}

func TestWait(t *testing.T) {
	inbound := make(chan os.Signal)
	chan1 := make(chan os.Signal)
	chan2 := make(chan os.Signal)
	chan3 := make(chan os.Signal)
	done := make(chan struct{})

	go forwardSignal(t, done, chan1)
	go forwardSignal(t, done, chan2)
	go forwardSignal(t, done, chan3)

	go func(chan os.Signal) {
		inbound <- os.Interrupt
	}(inbound)

	wait(inbound, done, chan1, chan2, chan3)
	// If this doesn't hang, then wait() is sending and receiving messages as expected.
}

func TestRunServerNil(t *testing.T) {
	assert.EqualError(t, runServer(nil, "Main", &mockListener{}), "server is nil")
	assert.EqualError(t, runServer(&http.Server{}, "Main", nil), "listener is nil")
}

func TestNewListener(t *testing.T) {
	ln, err := newListener("127.0.0.1:0", nil)
	require.NoError(t, err)
	defer ln.Close()

	_, ok := ln.(*tcpKeepAliveListener)
	assert.True(t, ok, "listener without metrics should only keep connections alive")
}

func TestNewListenerMonitored(t *testing.T) {
	metricsEngine := &metrics.MetricsEngineMock{}
	metricsEngine.On("RecordConnectionAccept", true).Return()
	metricsEngine.On("RecordConnectionClose", true).Return()

	ln, err := newListener("127.0.0.1:0", metricsEngine)
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
		close(accepted)
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	conn, ok := <-accepted
	require.True(t, ok, "connection should be accepted")
	require.NoError(t, conn.Close())

	metricsEngine.AssertExpectations(t)
}

func TestMonitorableListenerAcceptError(t *testing.T) {
	metricsEngine := &metrics.MetricsEngineMock{}
	metricsEngine.On("RecordConnectionAccept", false).Return()

	ln := &monitorableListener{&mockListener{}, metricsEngine}
	_, err := ln.Accept()

	assert.Error(t, err)
	metricsEngine.AssertExpectations(t)
}

func handler(w http.ResponseWriter, req *http.Request) {

}

// forwardSignal is basically a working mock for shutdownAfterSignals().
// It is used to test wait() effectively
func forwardSignal(t *testing.T, outbound chan<- struct{}, inbound <-chan os.Signal) {
	var s struct{}
	sig := <-inbound
	if sig != os.Interrupt {
		t.Errorf("Unexpected signal: %s\n", sig.String())
	}
	outbound <- s
}

// mockListener fails every Accept, which makes http.Server.Serve return immediately.
type mockListener struct{}

func (l *mockListener) Accept() (net.Conn, error) {
	return nil, errors.New("mock listener accepts nothing")
}

func (l *mockListener) Close() error {
	return nil
}

func (l *mockListener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0}
}
