package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"

	"github.com/stellarlinkco/packmate/internal/suggest"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsQueue        = 16
)

// wsRequest is a client frame. Type "title" reports the current title field.
type wsRequest struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Date  string `json:"date,omitempty"`
}

type wsResponse struct {
	Type     string   `json:"type"`
	Title    string   `json:"title,omitempty"`
	Items    []string `json:"items,omitempty"`
	Combined bool     `json:"combined,omitempty"`
	Error    string   `json:"error,omitempty"`
}

func (s *Server) handleSuggestWS(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket accept error")
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	out := make(chan wsResponse, wsQueue)
	session := suggest.NewSession(ctx, s.suggest, s.debounce, func(u suggest.Update) {
		resp := wsResponse{Type: "suggestions", Title: u.Title, Items: u.Items, Combined: u.Combined}
		select {
		case out <- resp:
		default:
			s.logger.Warn().Str("title", u.Title).Msg("suggestion stream full, update dropped")
		}
	})
	defer session.Close()

	go s.writeLoop(ctx, cancel, conn, out)

	s.logger.Debug().Msg("suggestion stream opened")
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			s.logger.Debug().Err(err).Msg("suggestion stream closed")
			return
		}
		var req wsRequest
		if err := json.Unmarshal(data, &req); err != nil || req.Type != "title" {
			s.send(out, wsResponse{Type: "error", Error: "expected {\"type\":\"title\",\"title\":...}"})
			continue
		}
		date, err := s.parseDate(req.Date)
		if err != nil {
			s.send(out, wsResponse{Type: "error", Error: err.Error()})
			continue
		}
		session.SetTitle(req.Title, date)
	}
}

func (s *Server) send(out chan<- wsResponse, resp wsResponse) {
	select {
	case out <- resp:
	default:
	}
}

func (s *Server) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, out <-chan wsResponse) {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case resp := <-out:
			data, err := json.Marshal(resp)
			if err != nil {
				continue
			}
			wctx, wcancel := context.WithTimeout(ctx, wsWriteTimeout)
			err = conn.Write(wctx, websocket.MessageText, data)
			wcancel()
			if err != nil {
				return
			}
		}
	}
}
