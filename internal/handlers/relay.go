package handlers

import (
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/prospectus/internal/common"
	"github.com/ternarybob/prospectus/internal/services/report"
)

// chunkSentinel marks a final assembly message whose content was delivered
// in preceding chunk messages.
const chunkSentinel = "CHUNKED_CONTENT"

// Sender is the outbound half of a session.
type Sender interface {
	Send(v interface{}) error
}

// StreamRelay translates pipeline StreamEvents into the outbound message
// schema and fragments oversized payloads into a chunked sequence. A send
// failure stops relaying; the generation itself keeps running.
type StreamRelay struct {
	session        Sender
	chunkThreshold int
	chunkSize      int
	throttle       *rate.Limiter
	logger         arbor.ILogger
	stopped        bool
}

// NewStreamRelay creates a relay bound to one session.
func NewStreamRelay(session Sender, config *common.WebSocketConfig, logger arbor.ILogger) *StreamRelay {
	interval := 250 * time.Millisecond
	if config.ProgressInterval != "" {
		if parsed, err := time.ParseDuration(config.ProgressInterval); err == nil {
			interval = parsed
		}
	}

	return &StreamRelay{
		session:        session,
		chunkThreshold: config.ChunkThreshold,
		chunkSize:      config.ChunkSize,
		throttle:       rate.NewLimiter(rate.Every(interval), 1),
		logger:         logger,
	}
}

// Started announces a new generation run.
func (r *StreamRelay) Started(reportID, companyName, ticker string) {
	r.send("report_generation_started", map[string]interface{}{
		"report_id":    reportID,
		"company_name": companyName,
		"ticker":       ticker,
		"timestamp":    time.Now().Format(time.RFC3339),
	})
}

// HandleEvent is the pipeline's EmitFunc. Events arrive in generation order
// from a single goroutine.
func (r *StreamRelay) HandleEvent(ev report.StreamEvent) {
	if r.stopped {
		return
	}

	switch ev.Type {
	case report.EventFragment:
		// Fragments arrive per model chunk; throttle to the configured
		// interval so slow clients are not flooded.
		if !r.throttle.Allow() {
			return
		}
		r.sendLarge("report_generation_streaming", map[string]interface{}{
			"status":     "streaming",
			"call_phase": string(ev.Phase),
			"progress":   ev.Progress,
		}, "accumulated_html", ev.Accumulated)

	case report.EventStatus:
		if ev.Status == "css_template_loaded" {
			r.send("report_generation_streaming", map[string]interface{}{
				"status":   ev.Status,
				"message":  ev.Message,
				"progress": ev.Progress,
			})
			return
		}
		r.send("report_generation_progress", map[string]interface{}{
			"status":     ev.Status,
			"message":    ev.Message,
			"call_phase": string(ev.Phase),
			"progress":   ev.Progress,
		})

	case report.EventPhaseComplete:
		r.sendLarge("report_generation_streaming", map[string]interface{}{
			"status":     ev.Status,
			"message":    ev.Message,
			"call_phase": string(ev.Phase),
			"progress":   ev.Progress,
		}, "accumulated_html", ev.Accumulated)

	case report.EventFinal:
		data := map[string]interface{}{
			"status":   ev.Status,
			"message":  ev.Message,
			"progress": ev.Progress,
		}
		if ev.Report != nil {
			data["report_id"] = ev.Report.ID
			data["raw_content"] = ""
			data["partial"] = ev.Report.Partial
			data["phase1_chars"] = ev.Report.Phase1Chars
			data["phase2_chars"] = ev.Report.Phase2Chars
			data["file_path"] = ev.Report.FilePath
			r.sendLarge("report_generation_completed", data, "report_html", ev.Report.HTML)
			return
		}
		r.send("report_generation_completed", data)

	case report.EventError:
		r.send("report_generation_error", map[string]interface{}{
			"error":      ev.Message,
			"call_phase": string(ev.Phase),
		})
	}
}

// send delivers one message, marking the relay stopped on failure.
func (r *StreamRelay) send(msgType string, data map[string]interface{}) {
	if r.stopped {
		return
	}
	if err := r.session.Send(WSMessage{Type: msgType, Data: data}); err != nil {
		r.logger.Warn().Err(err).Str("type", msgType).Msg("Relay send failed, stopping relay")
		r.stopped = true
	}
}

// sendLarge delivers a message whose content field may exceed the transport
// ceiling. Oversized content goes out as a chunked sequence with a final
// assembly message carrying the sentinel instead of the content.
func (r *StreamRelay) sendLarge(msgType string, data map[string]interface{}, contentKey, content string) {
	if r.stopped {
		return
	}

	data[contentKey] = content
	serialized, err := json.Marshal(WSMessage{Type: msgType, Data: data})
	if err != nil {
		r.logger.Error().Err(err).Str("type", msgType).Msg("Failed to marshal relay message")
		return
	}
	if len(serialized) <= r.chunkThreshold {
		r.send(msgType, data)
		return
	}

	chunkID := fmt.Sprintf("chunk_%d", time.Now().UnixNano())
	chunks := splitChunks(content, r.chunkSize)

	r.send("streaming_ai_content_chunked_start", map[string]interface{}{
		"total_chunks": len(chunks),
		"chunk_id":     chunkID,
		"message_type": msgType,
	})

	for i := 0; i < len(chunks) && !r.stopped; i++ {
		r.send("streaming_ai_content_chunk", map[string]interface{}{
			"chunk_index":    i,
			"chunk_content":  chunks[i],
			"is_final_chunk": i == len(chunks)-1,
			"chunk_id":       chunkID,
		})
	}

	data[contentKey] = chunkSentinel
	data["content_complete"] = chunkSentinel
	data["assembly_mode"] = "chunked"
	data["chunk_id"] = chunkID
	data["message_type"] = msgType
	r.send("streaming_ai_content_final", data)
}

// splitChunks cuts content into pieces of at most size bytes, pulling each
// cut back to a rune boundary so no UTF-8 sequence is torn across chunks
// and client-side reassembly stays byte-for-byte.
func splitChunks(content string, size int) []string {
	var chunks []string
	for start := 0; start < len(content); {
		end := start + size
		if end >= len(content) {
			end = len(content)
		} else {
			for end > start && !utf8.RuneStart(content[end]) {
				end--
			}
		}
		chunks = append(chunks, content[start:end])
		start = end
	}
	return chunks
}
