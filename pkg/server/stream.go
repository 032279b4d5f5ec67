package server

import (
	"net/http"
	"time"

	"github.com/oxygene76/ballistics-client/internal/types"
	"github.com/oxygene76/ballistics-client/pkg/metrics"
)

const writeWait = 5 * time.Second

// handleStream upgrades to a websocket and pushes a types.StreamUpdate at
// most once per stream interval while the current run changes. Terminal
// snapshots are pushed immediately. The stream follows whichever run is
// current, so a client sees a new run as soon as it is started.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	metrics.StreamClientConnected()
	defer metrics.StreamClientDisconnected()

	snaps, unsubscribe := s.runner.Subscribe()
	defer unsubscribe()

	// Reader: only used to notice the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var (
		latest  types.RunSnapshot
		pending bool
		runID   string
		sent    int // samples already sent for runID
	)

	flush := func() error {
		if latest.ID != runID {
			runID, sent = latest.ID, 0
		}
		update := types.StreamUpdate{
			Run:     latest,
			Offset:  sent,
			Samples: latest.Samples[sent:],
		}
		sent = len(latest.Samples)
		pending = false

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(update)
	}

	for {
		select {
		case <-gone:
			return
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			latest, pending = snap, true
			if snap.Status.Terminal() {
				if err := flush(); err != nil {
					return
				}
			}
		case <-ticker.C:
			if !pending {
				continue
			}
			if err := flush(); err != nil {
				s.log.Debug().Err(err).Msg("stream write")
				return
			}
		}
	}
}
