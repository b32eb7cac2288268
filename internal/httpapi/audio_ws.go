package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/stewardlabs/steward/internal/audio"
	"github.com/stewardlabs/steward/internal/eventlog"
	"github.com/stewardlabs/steward/internal/llm"
	"github.com/stewardlabs/steward/internal/metrics"
	"github.com/stewardlabs/steward/internal/refdata"
	"github.com/stewardlabs/steward/internal/stt"
	"github.com/stewardlabs/steward/internal/transcript"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// resultFrame is the per-window analysis result sent to the client. Every
// field except guestDetails is nullable; a window whose analysis fails
// end-to-end still produces a frame with all fields null.
type resultFrame struct {
	IssueTypeID          *string      `json:"issueTypeId"`
	IssueTypeDesc        *string      `json:"issueTypeDesc"`
	PriorityDesc         *string      `json:"priorityDesc"`
	IssueGroupDesc       *string      `json:"issueGroupDesc"`
	Level1DepartmentDesc *string      `json:"level1DepartmentDesc"`
	Cabin                *string      `json:"cabin"`
	GuestDetails         guestDetails `json:"guestDetails"`
	LocationID           *string      `json:"locationId"`
	GuestEmotion         *string      `json:"guestEmotion"`
	Summary              *string      `json:"summary"`
	Compensation         *string      `json:"compensation"`
}

// guestDetails marshals as {} when no registry match was found.
type guestDetails struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
}

type errorFrame struct {
	Error string `json:"error"`
}

// audioSession holds all per-connection state for one streaming client:
// the segment buffer, the accumulated transcript, and the pipeline clients.
// Windows are processed sequentially on the read loop goroutine, so a slow
// pipeline naturally backpressures the socket reads.
type audioSession struct {
	id     string
	conn   *websocket.Conn
	connMu sync.Mutex

	buffer *audio.SegmentBuffer
	state  *transcript.State

	stt      stt.Client
	llm      llm.Client
	ref      *refdata.Store
	eventLog *eventlog.Logger
	metrics  *metrics.Metrics
	logger   *log.Logger

	diarize bool

	windowSeq int

	ctx    context.Context
	cancel context.CancelFunc
}

// handleAudioWS upgrades the connection and runs the session until the client
// disconnects or the server drains.
func (r *Router) handleAudioWS(w http.ResponseWriter, req *http.Request) {
	id := uuid.NewString()
	if !r.sessions.Add(id) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "server is draining"})
		return
	}
	defer r.sessions.Done(id)

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Printf("audio_ws: upgrade failed: %v", err)
		captureError(req, err, "websocket upgrade failed")
		return
	}

	buffer, err := audio.NewSegmentBuffer(r.cfg.SegmentSize, r.cfg.OverlapSize, r.cfg.MaxBufferSize)
	if err != nil {
		r.logger.Printf("audio_ws: bad segmentation config: %v", err)
		conn.Close()
		return
	}

	ctx, cancel := context.WithCancel(req.Context())
	s := &audioSession{
		id:       id,
		conn:     conn,
		buffer:   buffer,
		state:    transcript.NewState(),
		stt:      r.stt,
		llm:      r.llm,
		ref:      r.ref,
		eventLog: r.eventLog,
		metrics:  r.metrics,
		logger:   r.logger,
		diarize:  r.cfg.DiarizationEnabled,
		ctx:      ctx,
		cancel:   cancel,
	}
	s.run()
}

func (s *audioSession) run() {
	defer s.cleanup()

	s.metrics.ActiveSessions.Inc()
	s.metrics.SessionsStarted.Inc()
	s.eventLog.LogAsync(s.id, eventlog.EventSessionStarted, nil)
	s.logger.Printf("audio_ws: session %s started", s.id)

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Printf("audio_ws: session %s read: %v", s.id, err)
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}

		s.metrics.ChunksReceived.Inc()
		s.metrics.BytesReceived.Add(float64(len(data)))
		s.buffer.Push(data)

		for {
			window, ok := s.buffer.TryExtractWindow()
			if !ok {
				break
			}
			s.metrics.WindowsInFlight.Inc()
			s.processWindow(window)
			s.metrics.WindowsInFlight.Dec()
		}
	}
}

// processWindow runs the full pipeline for one extracted window:
// transcription, overlap merge, analysis, local enrichment, and exactly one
// outgoing frame (result or error).
func (s *audioSession) processWindow(window []byte) {
	s.windowSeq++
	seq := s.windowSeq
	start := time.Now()

	res, err := s.stt.Transcribe(s.ctx, window)
	if err != nil {
		var terr *stt.TranscriptionError
		if errors.As(err, &terr) {
			s.logger.Printf("audio_ws: session %s window %d transcription: %v", s.id, seq, err)
		} else {
			s.logger.Printf("audio_ws: session %s window %d transcription (unexpected): %v", s.id, seq, err)
		}
		s.metrics.TranscriptionFailures.Inc()
		s.eventLog.LogAsync(s.id, eventlog.EventTranscriptionError, map[string]any{"window": seq})
		s.send(errorFrame{Error: "Transcription failed"})
		return
	}

	merged := transcript.Merge(s.state.Segments(), res.Segments)
	s.state.SetSegments(res.Segments)
	s.state.AppendWindow(merged)

	full := s.state.FullTranscript()
	analysisInput := full
	if s.diarize {
		labeled, derr := s.llm.Diarize(s.ctx, full)
		if derr != nil {
			s.logger.Printf("audio_ws: session %s window %d diarization: %v", s.id, seq, derr)
		} else {
			analysisInput = labeled
		}
	}

	analysis, err := s.llm.Analyze(s.ctx, analysisInput, s.ref.IssueDescriptions())
	if err != nil {
		// Analysis failures are not surfaced to the client: the window still
		// gets a result frame, just with every field null.
		s.logger.Printf("audio_ws: session %s window %d analysis: %v", s.id, seq, err)
		s.metrics.AnalysisFailures.Inc()
		s.eventLog.LogAsync(s.id, eventlog.EventAnalysisError, map[string]any{"window": seq})
		analysis = &llm.AnalysisResult{}
	}

	frame := s.enrich(analysis)
	s.send(frame)

	s.metrics.WindowsProcessed.Inc()
	s.metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	s.eventLog.LogAsync(s.id, eventlog.EventWindowProcessed, map[string]any{
		"window":     seq,
		"durationMs": time.Since(start).Milliseconds(),
	})
}

// enrich resolves the model's free-text answers against the local reference
// data: issue catalog metadata, location matching over the transcript, and
// the guest registry lookup.
func (s *audioSession) enrich(a *llm.AnalysisResult) resultFrame {
	frame := resultFrame{
		IssueTypeDesc: a.IssueTypeDesc,
		Cabin:         a.Cabin,
		GuestEmotion:  a.Emotion,
		Summary:       a.Summary,
		Compensation:  a.Compensation,
	}

	// Priority and department come from the catalog only. The model reports
	// them too, but an unmatched issue must not carry invented metadata.
	if a.IssueTypeDesc != nil {
		if issue, ok := s.ref.IssueByDesc(*a.IssueTypeDesc); ok {
			frame.IssueTypeID = &issue.IssueTypeID
			frame.PriorityDesc = &issue.PriorityDesc
			frame.IssueGroupDesc = &issue.IssueGroupDesc
			frame.Level1DepartmentDesc = &issue.Level1DepartmentDesc
			s.eventLog.LogAsync(s.id, eventlog.EventIssueMatched, map[string]any{
				"issueTypeId": issue.IssueTypeID,
			})
		}
	}

	if loc, ok := s.ref.MatchLocation(s.state.FullTranscript()); ok {
		frame.LocationID = &loc
	}

	if a.Cabin != nil {
		first, last := "", ""
		if a.FirstName != nil {
			first = *a.FirstName
		}
		if a.LastName != nil {
			last = *a.LastName
		}
		if guest, ok := s.ref.LookupGuest(*a.Cabin, first, last); ok {
			frame.GuestDetails = guestDetails{
				FirstName: &guest.FirstName,
				LastName:  &guest.LastName,
			}
		}
	}

	return frame
}

// send writes one JSON frame to the client. Write failures are logged and
// swallowed; the read loop will observe the broken connection on its own.
func (s *audioSession) send(v any) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if err := s.conn.WriteJSON(v); err != nil {
		s.logger.Printf("audio_ws: session %s write: %v", s.id, err)
	}
}

func (s *audioSession) cleanup() {
	s.cancel()
	s.conn.Close()
	s.metrics.ActiveSessions.Dec()
	s.metrics.SessionsFinished.Inc()
	s.eventLog.LogAsync(s.id, eventlog.EventSessionEnded, map[string]any{
		"windows": s.windowSeq,
	})
	s.logger.Printf("audio_ws: session %s ended after %d windows", s.id, s.windowSeq)
}
