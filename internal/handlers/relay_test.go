package handlers

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospectus/internal/common"
	"github.com/ternarybob/prospectus/internal/services/report"
)

type fakeSender struct {
	messages []WSMessage
	failAt   int // 1-based Send call that starts failing, 0 = never
	calls    int
}

func (f *fakeSender) Send(v interface{}) error {
	f.calls++
	if f.failAt > 0 && f.calls >= f.failAt {
		return errors.New("write: broken pipe")
	}
	msg, ok := v.(WSMessage)
	if !ok {
		return errors.New("unexpected message type")
	}
	f.messages = append(f.messages, msg)
	return nil
}

func msgData(t *testing.T, msg WSMessage) map[string]interface{} {
	t.Helper()
	data, ok := msg.Data.(map[string]interface{})
	require.True(t, ok, "message data should be a map")
	return data
}

func testRelayConfig() *common.WebSocketConfig {
	return &common.WebSocketConfig{
		ChunkThreshold:   200000,
		ChunkSize:        150000,
		ProgressInterval: "250ms",
	}
}

func newTestRelay(sender Sender) *StreamRelay {
	return NewStreamRelay(sender, testRelayConfig(), arbor.NewLogger())
}

func TestStreamRelay_Started(t *testing.T) {
	sender := &fakeSender{}
	relay := newTestRelay(sender)

	relay.Started("rpt_abc", "DBS Group Holdings", "D05.SI")

	require.Len(t, sender.messages, 1)
	assert.Equal(t, "report_generation_started", sender.messages[0].Type)

	data := msgData(t, sender.messages[0])
	assert.Equal(t, "rpt_abc", data["report_id"])
	assert.Equal(t, "DBS Group Holdings", data["company_name"])
	assert.Equal(t, "D05.SI", data["ticker"])
	assert.NotEmpty(t, data["timestamp"])
}

func TestStreamRelay_StatusEventMapping(t *testing.T) {
	sender := &fakeSender{}
	relay := newTestRelay(sender)

	relay.HandleEvent(report.StreamEvent{
		Type:     report.EventStatus,
		Status:   "generating",
		Message:  "Generating slides 1-7",
		Phase:    report.PhaseCall1,
		Progress: 10,
	})
	relay.HandleEvent(report.StreamEvent{
		Type:     report.EventStatus,
		Status:   "css_template_loaded",
		Message:  "Styling loaded",
		Progress: 5,
	})
	relay.HandleEvent(report.StreamEvent{
		Type:    report.EventError,
		Message: "structural validation failed after retries",
		Phase:   report.PhaseCall2,
	})

	require.Len(t, sender.messages, 3)

	assert.Equal(t, "report_generation_progress", sender.messages[0].Type)
	progress := msgData(t, sender.messages[0])
	assert.Equal(t, "generating", progress["status"])
	assert.Equal(t, "call1", progress["call_phase"])

	assert.Equal(t, "report_generation_streaming", sender.messages[1].Type)
	streaming := msgData(t, sender.messages[1])
	assert.Equal(t, "css_template_loaded", streaming["status"])

	assert.Equal(t, "report_generation_error", sender.messages[2].Type)
	errData := msgData(t, sender.messages[2])
	assert.Equal(t, "structural validation failed after retries", errData["error"])
	assert.Equal(t, "call2", errData["call_phase"])
}

func TestStreamRelay_FragmentThrottling(t *testing.T) {
	sender := &fakeSender{}
	relay := newTestRelay(sender)

	// Burst allows one fragment; the immediate follow-up is dropped.
	for i := 0; i < 5; i++ {
		relay.HandleEvent(report.StreamEvent{
			Type:        report.EventFragment,
			Phase:       report.PhaseCall1,
			Fragment:    "<div>",
			Accumulated: "<div>slide</div>",
			Progress:    12,
		})
	}

	require.Len(t, sender.messages, 1)
	assert.Equal(t, "report_generation_streaming", sender.messages[0].Type)
	data := msgData(t, sender.messages[0])
	assert.Equal(t, "streaming", data["status"])
	assert.Equal(t, "<div>slide</div>", data["accumulated_html"])
}

func TestStreamRelay_PhaseCompleteSmallPayload(t *testing.T) {
	sender := &fakeSender{}
	relay := newTestRelay(sender)

	relay.HandleEvent(report.StreamEvent{
		Type:        report.EventPhaseComplete,
		Status:      "call1_complete",
		Message:     "First section complete",
		Phase:       report.PhaseCall1,
		Accumulated: "<div class=\"slide\">one</div>",
		Progress:    50,
	})

	require.Len(t, sender.messages, 1)
	assert.Equal(t, "report_generation_streaming", sender.messages[0].Type)
	data := msgData(t, sender.messages[0])
	assert.Equal(t, "call1_complete", data["status"])
	assert.Equal(t, "<div class=\"slide\">one</div>", data["accumulated_html"])
	assert.EqualValues(t, 50, data["progress"])
}

func TestStreamRelay_OversizedPayloadChunking(t *testing.T) {
	sender := &fakeSender{}
	relay := newTestRelay(sender)

	content := strings.Repeat("x", 500*1024)
	relay.HandleEvent(report.StreamEvent{
		Type:        report.EventPhaseComplete,
		Status:      "call2_complete",
		Phase:       report.PhaseCall2,
		Accumulated: content,
		Progress:    90,
	})

	// 512000 bytes of content at 150000 per chunk is 4 parts.
	require.Len(t, sender.messages, 6)

	start := sender.messages[0]
	assert.Equal(t, "streaming_ai_content_chunked_start", start.Type)
	startData := msgData(t, start)
	assert.EqualValues(t, 4, startData["total_chunks"])
	assert.Equal(t, "report_generation_streaming", startData["message_type"])
	chunkID := startData["chunk_id"]
	assert.NotEmpty(t, chunkID)

	var assembled strings.Builder
	for i, msg := range sender.messages[1:5] {
		assert.Equal(t, "streaming_ai_content_chunk", msg.Type)
		data := msgData(t, msg)
		assert.EqualValues(t, i, data["chunk_index"])
		assert.Equal(t, chunkID, data["chunk_id"])
		assert.Equal(t, i == 3, data["is_final_chunk"])
		assembled.WriteString(data["chunk_content"].(string))
	}
	assert.Equal(t, content, assembled.String(), "reassembled chunks should equal the original content")

	final := sender.messages[5]
	assert.Equal(t, "streaming_ai_content_final", final.Type)
	finalData := msgData(t, final)
	assert.Equal(t, "CHUNKED_CONTENT", finalData["accumulated_html"])
	assert.Equal(t, "CHUNKED_CONTENT", finalData["content_complete"])
	assert.Equal(t, "chunked", finalData["assembly_mode"])
	assert.Equal(t, chunkID, finalData["chunk_id"])
	assert.Equal(t, "report_generation_streaming", finalData["message_type"])

	for _, msg := range sender.messages {
		serialized, err := json.Marshal(msg)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(serialized), 200000, "no single message may exceed the transport ceiling")
	}
}

func TestStreamRelay_ChunkingKeepsRuneBoundaries(t *testing.T) {
	sender := &fakeSender{}
	relay := newTestRelay(sender)

	// One leading ASCII byte shifts every subsequent three-byte rune off the
	// chunk-size alignment, so a plain byte-offset cut would tear a rune.
	content := "a" + strings.Repeat("—", 100000)
	relay.HandleEvent(report.StreamEvent{
		Type:        report.EventPhaseComplete,
		Status:      "call2_complete",
		Phase:       report.PhaseCall2,
		Accumulated: content,
		Progress:    90,
	})

	require.GreaterOrEqual(t, len(sender.messages), 4)

	var assembled strings.Builder
	for _, msg := range sender.messages {
		if msg.Type != "streaming_ai_content_chunk" {
			continue
		}
		// Round-trip through JSON the way the wire does; a torn rune would
		// come back as U+FFFD and change the byte count.
		serialized, err := json.Marshal(msg)
		require.NoError(t, err)
		var decoded WSMessage
		require.NoError(t, json.Unmarshal(serialized, &decoded))
		part := msgData(t, decoded)["chunk_content"].(string)
		assert.True(t, utf8.ValidString(part), "each chunk must be self-contained UTF-8")
		assembled.WriteString(part)
	}

	require.Equal(t, len(content), assembled.Len())
	assert.Equal(t, content, assembled.String())
}

func TestStreamRelay_FinalEventCarriesReport(t *testing.T) {
	sender := &fakeSender{}
	relay := newTestRelay(sender)

	relay.HandleEvent(report.StreamEvent{
		Type:     report.EventFinal,
		Status:   "final_complete",
		Message:  "Report complete",
		Progress: 100,
		Report: &report.AssembledReport{
			ID:          "rpt_final",
			HTML:        "<html><body>done</body></html>",
			Partial:     false,
			Phase1Chars: 1200,
			Phase2Chars: 1400,
			FilePath:    "/reports/rpt_final.html",
		},
	})

	require.Len(t, sender.messages, 1)
	assert.Equal(t, "report_generation_completed", sender.messages[0].Type)
	data := msgData(t, sender.messages[0])
	assert.Equal(t, "rpt_final", data["report_id"])
	assert.Equal(t, "<html><body>done</body></html>", data["report_html"])
	assert.Equal(t, "", data["raw_content"])
	assert.Equal(t, false, data["partial"])
	assert.EqualValues(t, 1200, data["phase1_chars"])
	assert.EqualValues(t, 1400, data["phase2_chars"])
	assert.Equal(t, "/reports/rpt_final.html", data["file_path"])
}

func TestStreamRelay_SendFailureStopsRelay(t *testing.T) {
	sender := &fakeSender{failAt: 1}
	relay := newTestRelay(sender)

	relay.HandleEvent(report.StreamEvent{
		Type:    report.EventStatus,
		Status:  "generating",
		Message: "Generating slides 1-7",
		Phase:   report.PhaseCall1,
	})
	relay.HandleEvent(report.StreamEvent{
		Type:   report.EventPhaseComplete,
		Status: "call1_complete",
		Phase:  report.PhaseCall1,
	})

	assert.Equal(t, 1, sender.calls, "no further sends after a write failure")
	assert.Empty(t, sender.messages)
}
