package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospectus/internal/marketdata"
	"github.com/ternarybob/prospectus/internal/services/report"
)

type fakeRunner struct {
	mu  sync.Mutex
	req *report.GenerationRequest
}

func (f *fakeRunner) Run(ctx context.Context, req *report.GenerationRequest, emit report.EmitFunc) (*report.AssembledReport, error) {
	f.mu.Lock()
	f.req = req
	f.mu.Unlock()

	rep := &report.AssembledReport{
		ID:          req.ID,
		CompanyName: req.CompanyName,
		Ticker:      req.Ticker,
		HTML:        "<html><body>done</body></html>",
		Phase1Chars: 100,
		Phase2Chars: 120,
	}
	emit(report.StreamEvent{
		Type:     report.EventFinal,
		Status:   "final_complete",
		Message:  "Report complete",
		Progress: 100,
		Report:   rep,
	})
	return rep, nil
}

func (f *fakeRunner) lastRequest() *report.GenerationRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.req
}

type fakeSnapshots struct {
	snapshot *marketdata.StockSnapshot
	err      error
}

func (f *fakeSnapshots) Snapshot(ctx context.Context, ticker string) (*marketdata.StockSnapshot, error) {
	return f.snapshot, f.err
}

type fakeWords struct{}

func (fakeWords) HTMLToWord(html, companyName, ticker string) ([]byte, string, error) {
	return []byte("<html xmlns:w>doc</html>"), "Acme_ACME_report.doc", nil
}

func dialTestHandler(t *testing.T, handler *WebSocketHandler) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// readMessageOfType skips unrelated messages until the wanted type arrives.
func readMessageOfType(t *testing.T, conn *websocket.Conn, msgType string) WSMessage {
	t.Helper()

	for i := 0; i < 50; i++ {
		msg := readMessage(t, conn)
		if msg.Type == msgType {
			return msg
		}
	}
	t.Fatalf("never received message of type %s", msgType)
	return WSMessage{}
}

func newTestHandler(runner ReportRunner, snapshots SnapshotProvider) *WebSocketHandler {
	return NewWebSocketHandler(runner, snapshots, fakeWords{}, testRelayConfig(), arbor.NewLogger())
}

func TestHandleWebSocket_Hello(t *testing.T) {
	handler := newTestHandler(&fakeRunner{}, nil)
	conn := dialTestHandler(t, handler)

	hello := readMessage(t, conn)
	assert.Equal(t, "connection_established", hello.Type)

	data, ok := hello.Data.(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, data["connection_id"])
	assert.Equal(t, "Prospectus Report Server", data["server"])
	assert.Contains(t, data["capabilities"], "two_phase_generation")
	assert.Contains(t, data["capabilities"], "chunked_delivery")
}

func TestHandleWebSocket_PingPong(t *testing.T) {
	handler := newTestHandler(&fakeRunner{}, nil)
	conn := dialTestHandler(t, handler)
	readMessage(t, conn) // hello

	require.NoError(t, conn.WriteJSON(WSMessage{Type: "ping"}))

	pong := readMessage(t, conn)
	assert.Equal(t, "pong", pong.Type)
}

func TestHandleWebSocket_UnknownType(t *testing.T) {
	handler := newTestHandler(&fakeRunner{}, nil)
	conn := dialTestHandler(t, handler)
	readMessage(t, conn) // hello

	require.NoError(t, conn.WriteJSON(WSMessage{Type: "bogus"}))

	msg := readMessage(t, conn)
	assert.Equal(t, "error", msg.Type)
	data := msg.Data.(map[string]interface{})
	assert.Contains(t, data["error"], "unknown message type")
}

func TestHandleWebSocket_GenerateReportRejectsMissingFields(t *testing.T) {
	handler := newTestHandler(&fakeRunner{}, nil)
	conn := dialTestHandler(t, handler)
	readMessage(t, conn) // hello

	require.NoError(t, conn.WriteJSON(WSMessage{
		Type: "generate_report",
		Data: map[string]interface{}{"company_name": "DBS Group Holdings"},
	}))

	msg := readMessage(t, conn)
	assert.Equal(t, "error", msg.Type)
	data := msg.Data.(map[string]interface{})
	assert.Contains(t, data["error"], "invalid payload")
}

func TestHandleWebSocket_GenerateReportRunsPipeline(t *testing.T) {
	runner := &fakeRunner{}
	snapshots := &fakeSnapshots{
		snapshot: &marketdata.StockSnapshot{Symbol: "D05.SI", CompanyName: "DBS Group Holdings"},
	}
	handler := newTestHandler(runner, snapshots)
	conn := dialTestHandler(t, handler)
	readMessage(t, conn) // hello

	require.NoError(t, conn.WriteJSON(WSMessage{
		Type: "generate_report",
		Data: map[string]interface{}{
			"company_name": "DBS Group Holdings",
			"ticker":       "D05.SI",
			"report_focus": "dividend sustainability",
		},
	}))

	started := readMessageOfType(t, conn, "report_generation_started")
	startData := started.Data.(map[string]interface{})
	assert.Equal(t, "DBS Group Holdings", startData["company_name"])
	assert.Equal(t, "D05.SI", startData["ticker"])
	reportID := startData["report_id"].(string)
	assert.True(t, strings.HasPrefix(reportID, "rpt_"))

	completed := readMessageOfType(t, conn, "report_generation_completed")
	doneData := completed.Data.(map[string]interface{})
	assert.Equal(t, reportID, doneData["report_id"])
	assert.Equal(t, "<html><body>done</body></html>", doneData["report_html"])

	req := runner.lastRequest()
	require.NotNil(t, req)
	assert.Equal(t, "dividend sustainability", req.ReportFocus)
	assert.Equal(t, "D05.SI", req.DataSources["market_data"])
	assert.Contains(t, req.FinancialTables, "data not available")
}

func TestHandleWebSocket_GenerateReportWithoutMarketData(t *testing.T) {
	runner := &fakeRunner{}
	snapshots := &fakeSnapshots{err: &marketdata.APIError{StatusCode: 404, Message: "not found"}}
	handler := newTestHandler(runner, snapshots)
	conn := dialTestHandler(t, handler)
	readMessage(t, conn) // hello

	require.NoError(t, conn.WriteJSON(WSMessage{
		Type: "generate_report",
		Data: map[string]interface{}{
			"company_name": "Acme Corp",
			"ticker":       "ACME",
		},
	}))

	readMessageOfType(t, conn, "report_generation_completed")

	req := runner.lastRequest()
	require.NotNil(t, req)
	assert.Contains(t, req.FinancialTables, "data not available")
	assert.Empty(t, req.DataSources)
}

func TestHandleWebSocket_GenerateWordReport(t *testing.T) {
	handler := newTestHandler(&fakeRunner{}, nil)
	conn := dialTestHandler(t, handler)
	readMessage(t, conn) // hello

	require.NoError(t, conn.WriteJSON(WSMessage{
		Type: "generate_word_report",
		Data: map[string]interface{}{
			"html_content": "<html><body>report</body></html>",
			"company_name": "Acme",
			"ticker":       "ACME",
		},
	}))

	msg := readMessageOfType(t, conn, "word_report_generated")
	data := msg.Data.(map[string]interface{})
	assert.Equal(t, "Acme_ACME_report.doc", data["filename"])
	assert.Equal(t, "<html xmlns:w>doc</html>", data["content"])
}

func TestSessionStore_Lifecycle(t *testing.T) {
	handler := newTestHandler(&fakeRunner{}, nil)
	conn := dialTestHandler(t, handler)
	readMessage(t, conn) // hello

	assert.Equal(t, 1, handler.Sessions().Count())

	conn.Close()
	require.Eventually(t, func() bool {
		return handler.Sessions().Count() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
