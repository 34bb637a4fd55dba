package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospectus/internal/common"
	"github.com/ternarybob/prospectus/internal/fintables"
	"github.com/ternarybob/prospectus/internal/marketdata"
	"github.com/ternarybob/prospectus/internal/services/report"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WSMessage is the envelope for every message in both directions.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// inboundMessage is the raw inbound envelope before payload decoding.
type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// GenerateReportPayload is the generate_report request body.
type GenerateReportPayload struct {
	CompanyName         string                     `json:"company_name" validate:"required"`
	Ticker              string                     `json:"ticker" validate:"required"`
	ReportFocus         string                     `json:"report_focus"`
	InvestmentObjective string                     `json:"investment_objective"`
	UserQuery           string                     `json:"user_query"`
	Analyses            map[string]report.Analysis `json:"analyses_data"`
	DataSources         map[string]string          `json:"data_sources"`
}

// GenerateWordPayload is the generate_word_report request body.
type GenerateWordPayload struct {
	ReportHTML  string `json:"html_content" validate:"required"`
	CompanyName string `json:"company_name" validate:"required"`
	Ticker      string `json:"ticker" validate:"required"`
}

// ReportRunner runs one full report generation.
type ReportRunner interface {
	Run(ctx context.Context, req *report.GenerationRequest, emit report.EmitFunc) (*report.AssembledReport, error)
}

// SnapshotProvider resolves tickers into stock snapshots.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, ticker string) (*marketdata.StockSnapshot, error)
}

// WordConverter produces Word-compatible documents from report HTML.
type WordConverter interface {
	HTMLToWord(html, companyName, ticker string) ([]byte, string, error)
}

// WebSocketHandler owns the report-generation WebSocket endpoint.
type WebSocketHandler struct {
	logger    arbor.ILogger
	sessions  *SessionStore
	runner    ReportRunner
	snapshots SnapshotProvider
	words     WordConverter
	config    *common.WebSocketConfig
	validate  *validator.Validate
}

// NewWebSocketHandler creates the WebSocket handler.
func NewWebSocketHandler(runner ReportRunner, snapshots SnapshotProvider, words WordConverter, config *common.WebSocketConfig, logger arbor.ILogger) *WebSocketHandler {
	return &WebSocketHandler{
		logger:    logger,
		sessions:  NewSessionStore(),
		runner:    runner,
		snapshots: snapshots,
		words:     words,
		config:    config,
		validate:  validator.New(),
	}
}

// Sessions exposes the session store for status reporting.
func (h *WebSocketHandler) Sessions() *SessionStore {
	return h.sessions
}

// HandleWebSocket upgrades a connection, registers its session, and runs the
// inbound dispatch loop until disconnect.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	session := h.sessions.Create(conn)
	h.logger.Debug().Str("connection_id", session.ID).Msgf("WebSocket client connected (total: %d)", h.sessions.Count())

	h.sendHello(session)

	defer func() {
		h.sessions.Evict(session.ID)
		conn.Close()
		h.logger.Debug().Str("connection_id", session.ID).Msgf("WebSocket client disconnected (remaining: %d)", h.sessions.Count())
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.sendError(session, "invalid message: not JSON")
			continue
		}
		h.dispatch(session, msg)
	}
}

func (h *WebSocketHandler) dispatch(session *Session, msg inboundMessage) {
	switch msg.Type {
	case "ping":
		session.Send(WSMessage{Type: "pong", Data: map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		}})

	case "generate_report":
		var payload GenerateReportPayload
		if !h.decodePayload(session, msg.Data, &payload) {
			return
		}
		h.startGeneration(session, payload)

	case "generate_word_report":
		var payload GenerateWordPayload
		if !h.decodePayload(session, msg.Data, &payload) {
			return
		}
		h.generateWord(session, payload)

	default:
		h.sendError(session, fmt.Sprintf("unknown message type: %s", msg.Type))
	}
}

func (h *WebSocketHandler) decodePayload(session *Session, data json.RawMessage, out interface{}) bool {
	if err := json.Unmarshal(data, out); err != nil {
		h.sendError(session, "invalid payload: "+err.Error())
		return false
	}
	if err := h.validate.Struct(out); err != nil {
		h.sendError(session, "invalid payload: "+err.Error())
		return false
	}
	return true
}

// startGeneration assembles the generation request and runs the pipeline in
// the background. The run is deliberately not bound to the connection
// context: a dropped client stops the relay, not the generation.
func (h *WebSocketHandler) startGeneration(session *Session, payload GenerateReportPayload) {
	req := &report.GenerationRequest{
		ID:                  common.NewReportID(),
		CompanyName:         payload.CompanyName,
		Ticker:              payload.Ticker,
		ReportFocus:         payload.ReportFocus,
		InvestmentObjective: payload.InvestmentObjective,
		UserQuery:           payload.UserQuery,
		Analyses:            payload.Analyses,
		DataSources:         payload.DataSources,
		CreatedAt:           time.Now(),
	}

	relay := NewStreamRelay(session, h.config, h.logger)
	relay.Started(req.ID, req.CompanyName, req.Ticker)

	common.SafeGo(h.logger, "report-generation", func() {
		ctx := context.Background()

		// Market data failures degrade to placeholder tables, never abort.
		if h.snapshots != nil {
			snapshot, err := h.snapshots.Snapshot(ctx, req.Ticker)
			if err != nil {
				h.logger.Warn().Err(err).Str("ticker", req.Ticker).Msg("Market data unavailable for report")
				req.FinancialTables = fintables.Build(nil)
			} else {
				req.FinancialTables = fintables.Build(snapshot.Fundamentals)
				if req.DataSources == nil {
					req.DataSources = make(map[string]string)
				}
				req.DataSources["market_data"] = snapshot.Symbol
			}
		}

		if _, err := h.runner.Run(ctx, req, relay.HandleEvent); err != nil {
			h.logger.Error().Err(err).Str("report_id", req.ID).Msg("Report generation failed")
		}
	})
}

func (h *WebSocketHandler) generateWord(session *Session, payload GenerateWordPayload) {
	document, filename, err := h.words.HTMLToWord(payload.ReportHTML, payload.CompanyName, payload.Ticker)
	if err != nil {
		h.sendError(session, "word conversion failed: "+err.Error())
		return
	}

	relay := NewStreamRelay(session, h.config, h.logger)
	relay.sendLarge("word_report_generated", map[string]interface{}{
		"filename":     filename,
		"company_name": payload.CompanyName,
		"ticker":       payload.Ticker,
	}, "content", string(document))
}

func (h *WebSocketHandler) sendHello(session *Session) {
	err := session.Send(WSMessage{Type: "connection_established", Data: map[string]interface{}{
		"connection_id": session.ID,
		"server":        "Prospectus Report Server",
		"capabilities": []string{
			"two_phase_generation",
			"streaming_content",
			"chunked_delivery",
			"word_export",
		},
		"timestamp": time.Now().Format(time.RFC3339),
	}})
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to send connection hello")
	}
}

func (h *WebSocketHandler) sendError(session *Session, message string) {
	session.Send(WSMessage{Type: "error", Data: map[string]interface{}{
		"error": message,
	}})
}
