package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/formlab-dev/formlab/pkg/action"
	"github.com/formlab-dev/formlab/pkg/simulate"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Demo server: same-origin policy left to the deployment.
	CheckOrigin: func(*http.Request) bool { return true },
}

// liveFrame is one state transition on the /live stream.
type liveFrame struct {
	Action string           `json:"action"`
	State  string           `json:"state"`
	Data   *simulate.Result `json:"data,omitempty"`
	Error  string           `json:"error,omitempty"`
	Ts     time.Time        `json:"ts"`
}

func frameFromSnapshot(name string, snap action.Snapshot[simulate.Result]) liveFrame {
	f := liveFrame{
		Action: name,
		State:  snap.State.String(),
		Ts:     time.Now(),
	}
	if snap.HasData {
		data := snap.Data
		f.Data = &data
	}
	if snap.Err != nil {
		f.Error = snap.Err.Error()
	}
	return f
}

// handleLive streams action state transitions over a websocket.
// On connect the client receives one frame per registered form with
// its current state, then a frame for every transition until it
// disconnects. Slow consumers lose frames rather than stall the loop.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	s.logger.Info("live stream connected", "remote", r.RemoteAddr)

	frames := make(chan liveFrame, 64)
	var unsubs []func()

	s.mu.RLock()
	for _, h := range s.forms {
		frames <- frameFromSnapshot(h.name, h.act.Snapshot())
		name := h.name
		unsubs = append(unsubs, h.act.OnTransition(func(snap action.Snapshot[simulate.Result]) {
			select {
			case frames <- frameFromSnapshot(name, snap):
			default:
			}
		}))
	}
	s.mu.RUnlock()
	defer func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}()

	// Reader only detects disconnect; the stream is one-way.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			s.logger.Info("live stream disconnected", "remote", r.RemoteAddr)
			return
		case f := <-frames:
			if err := conn.WriteJSON(f); err != nil {
				return
			}
		}
	}
}
