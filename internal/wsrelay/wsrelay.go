// Package wsrelay serves the broadcast fan-out over a plain websocket for
// controllers that cannot speak HTTP/2 gRPC streaming. Video and audio
// frames travel as binary messages and lag notices as JSON text messages,
// multiplexed on one connection.
package wsrelay

import (
	"encoding/binary"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kestrelremote/bridge/internal/audio"
	"github.com/kestrelremote/bridge/internal/logging"
	"github.com/kestrelremote/bridge/internal/stream"
	"github.com/kestrelremote/bridge/internal/video"
)

var log = logging.L("wsrelay")

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Binary frame type prefixes, first byte of every binary message.
const (
	frameTypeVideo byte = 0x01
	frameTypeAudio byte = 0x02
)

// videoHeaderSize is the fixed prefix of a binary video message:
// type(1) + flags(1) + sequence(8) + timestamp(8) + width(2) + height(2).
const videoHeaderSize = 22

// VideoSource is satisfied by *stream.Manager.
type VideoSource interface {
	Subscribe() *stream.Subscription[video.EncodedFrame]
	RequestKeyframe()
	IsStreaming() bool
}

// AudioSource is satisfied by *stream.AudioManager.
type AudioSource interface {
	Subscribe() *stream.Subscription[audio.EncodedFrame]
	IsStreaming() bool
}

// Relay upgrades HTTP requests and forwards the pipelines' output.
type Relay struct {
	video    VideoSource
	audio    AudioSource
	upgrader websocket.Upgrader
}

// New builds a Relay over the given pipelines. audio may be nil.
func New(videoSrc VideoSource, audioSrc AudioSource) *Relay {
	return &Relay{
		video: videoSrc,
		audio: audioSrc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 64 * 1024,
			// The bridge pairs by code, not origin; the controller may be a
			// desktop app with a null origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// lagNotice is the JSON text message sent when the relay had to skip
// frames for this client.
type lagNotice struct {
	Type          string `json:"type"`
	DroppedFrames uint64 `json:"dropped_frames"`
}

// ServeHTTP upgrades the connection and pumps frames until the client
// disconnects or the pipeline stops.
func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if !r.video.IsStreaming() {
		http.Error(w, "video pipeline is not streaming", http.StatusConflict)
		return
	}

	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "error", err)
		return
	}
	log.Info("websocket subscriber attached", "remote", conn.RemoteAddr().String())

	sub := r.video.Subscribe()
	if sub == nil {
		conn.Close()
		return
	}
	var audioSub *stream.Subscription[audio.EncodedFrame]
	if r.audio != nil && r.audio.IsStreaming() {
		audioSub = r.audio.Subscribe()
	}

	r.video.RequestKeyframe()

	done := make(chan struct{})
	var once sync.Once
	closeDone := func() { once.Do(func() { close(done) }) }

	go r.readPump(conn, closeDone)
	r.writePump(conn, sub, audioSub, done, closeDone)

	sub.Close()
	if audioSub != nil {
		audioSub.Close()
	}
	conn.Close()
	log.Info("websocket subscriber detached")
}

// readPump discards inbound messages (the relay is one-way) but keeps the
// pong handler alive so dead peers are detected.
func (r *Relay) readPump(conn *websocket.Conn, closeDone func()) {
	defer closeDone()
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (r *Relay) writePump(conn *websocket.Conn, sub *stream.Subscription[video.EncodedFrame], audioSub *stream.Subscription[audio.EncodedFrame], done chan struct{}, closeDone func()) {
	defer closeDone()
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	audioC := func() <-chan audio.EncodedFrame {
		if audioSub == nil {
			return nil
		}
		return audioSub.C()
	}()

	for {
		select {
		case <-done:
			return

		case frame, ok := <-sub.C():
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream ended"),
					time.Now().Add(writeWait))
				return
			}
			if lag := sub.Lagged(); lag > 0 {
				notice, _ := json.Marshal(lagNotice{Type: "lag", DroppedFrames: lag})
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, notice); err != nil {
					return
				}
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.BinaryMessage, packVideoFrame(frame)); err != nil {
				log.Debug("video frame write failed", "error", err)
				return
			}

		case packet, ok := <-audioC:
			if !ok {
				audioC = nil
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.BinaryMessage, packAudioFrame(packet)); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// packVideoFrame lays a frame out as
// [type][flags][sequence u64][timestamp u64][width u16][height u16][payload].
// Flags bit 0 is the keyframe marker.
func packVideoFrame(f video.EncodedFrame) []byte {
	msg := make([]byte, videoHeaderSize+len(f.Data))
	msg[0] = frameTypeVideo
	if f.IsKeyframe {
		msg[1] = 1
	}
	binary.BigEndian.PutUint64(msg[2:], f.Sequence)
	binary.BigEndian.PutUint64(msg[10:], uint64(f.TimestampMs))
	binary.BigEndian.PutUint16(msg[18:], uint16(f.Width))
	binary.BigEndian.PutUint16(msg[20:], uint16(f.Height))
	copy(msg[videoHeaderSize:], f.Data)
	return msg
}

// audioHeaderSize: type(1) + sequence(8) + timestamp(8) + rate(4) + channels(1).
const audioHeaderSize = 22

func packAudioFrame(p audio.EncodedFrame) []byte {
	msg := make([]byte, audioHeaderSize+len(p.Data))
	msg[0] = frameTypeAudio
	binary.BigEndian.PutUint64(msg[1:], p.Sequence)
	binary.BigEndian.PutUint64(msg[9:], uint64(p.TimestampMs))
	binary.BigEndian.PutUint32(msg[17:], uint32(p.SampleRate))
	msg[21] = byte(p.Channels)
	copy(msg[audioHeaderSize:], p.Data)
	return msg
}
