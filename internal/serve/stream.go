package serve

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"mycoscan/internal/schema"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// streamError is sent in place of a Result when one message fails; the
// connection stays open so later specimens are unaffected.
type streamError struct {
	Error string `json:"error"`
}

// handleStream upgrades to a websocket and answers each received specimen
// mapping with exactly one prediction message, in order. A schema error on
// one message does not close the stream; a bundle-load failure does,
// because nothing useful can follow.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(512 * 1024)

	s.rec.StreamOpened()
	defer s.rec.StreamClosed()
	log.Info().Str("remote", conn.RemoteAddr().String()).Msg("prediction stream opened")

	for {
		if err := conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
			return
		}

		var raw map[string]any
		if err := conn.ReadJSON(&raw); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("prediction stream read failed")
			}
			return
		}

		result, _, err := s.predictRaw(raw, "stream")
		if err != nil {
			if errors.Is(err, schema.ErrSchemaMismatch) {
				if werr := conn.WriteJSON(streamError{Error: err.Error()}); werr != nil {
					return
				}
				continue
			}
			// Model unavailable or internal failure; report and drop the
			// stream.
			_ = conn.WriteJSON(streamError{Error: err.Error()})
			return
		}

		if err := conn.WriteJSON(result); err != nil {
			return
		}
		s.rec.StreamMessageInc()
	}
}
