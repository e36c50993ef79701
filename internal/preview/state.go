// Package preview streams strip frames to browsers over websockets.
package preview

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-calamari/model"
)

// Controls are the knobs exposed on /control.
type Controls interface {
	SetBrightness(b uint8)
	ApplyEffect(name string) error
	Fill(hue int)
}

type State struct {
	mu        sync.RWMutex
	strip     *model.Strip
	controls  Controls
	frameID   uint64
	startTime time.Time
	clients   map[*websocket.Conn]bool
	upgrader  websocket.Upgrader
}

func NewState(s *model.Strip, c Controls) *State {
	return &State{
		strip:     s,
		controls:  c,
		startTime: time.Now(),
		clients:   map[*websocket.Conn]bool{},
		upgrader:  websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Handler routes /ws, /control and /health.
func (s *State) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleFramesWS)
	mux.HandleFunc("/control", s.HandleControlWS)
	mux.HandleFunc("/health", s.HandleHealth)
	return mux
}

type frame struct {
	T          int64  `json:"t"`
	FrameID    uint64 `json:"frame_id"`
	Hue        int    `json:"hue"`
	Brightness uint8  `json:"brightness"`
	RGB        []byte `json:"rgb"`
}

// Publish sends the current strip contents to every frame client.
func (s *State) Publish(frameID uint64, strip *model.Strip) {
	snap := strip.Snapshot()
	rgb := make([]byte, 0, 3*len(snap.Leds))
	for _, l := range snap.Leds {
		rgb = append(rgb, l.R, l.G, l.B)
	}
	b, _ := json.Marshal(frame{
		T:          time.Now().UnixNano(),
		FrameID:    frameID,
		Hue:        snap.Hue,
		Brightness: snap.Brightness,
		RGB:        rgb,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.frameID = frameID
	for c := range s.clients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write frame")
		}
	}
}

func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

type control struct {
	Brightness *uint8  `json:"brightness,omitempty"`
	Effect     *string `json:"effect,omitempty"`
	Fill       *int    `json:"fill,omitempty"` // hue painted over the whole strip
}

type reply struct {
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
	Brightness uint8  `json:"brightness"`
}

// HandleControlWS applies JSON control messages and answers each one.
func (s *State) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		rep := reply{OK: true}
		var msg control
		if err := json.Unmarshal(data, &msg); err != nil {
			rep = reply{Error: err.Error()}
		} else if err := s.apply(msg); err != nil {
			rep = reply{Error: err.Error()}
		}
		rep.Brightness = s.strip.Brightness()
		if err := conn.WriteJSON(rep); err != nil {
			return
		}
	}
}

func (s *State) apply(msg control) error {
	if msg.Brightness != nil {
		s.controls.SetBrightness(*msg.Brightness)
		log.Info().Uint8("brightness", *msg.Brightness).Msg("preview control")
	}
	if msg.Effect != nil {
		if err := s.controls.ApplyEffect(*msg.Effect); err != nil {
			return err
		}
		log.Info().Str("effect", *msg.Effect).Msg("preview control")
	}
	if msg.Fill != nil {
		s.controls.Fill(*msg.Fill)
		log.Info().Int("fill", *msg.Fill).Msg("preview control")
	}
	return nil
}

// Clients is the number of connected frame clients.
func (s *State) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := map[string]any{
		"frame_id": s.frameID,
		"uptime_s": time.Since(s.startTime).Seconds(),
		"count":    s.strip.Len(),
		"clients":  len(s.clients),
	}
	s.mu.RUnlock()
	resp["hue"] = s.strip.Hue()
	resp["brightness"] = s.strip.Brightness()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
