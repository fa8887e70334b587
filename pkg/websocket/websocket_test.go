package websocketPkg

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"StudySanctuary/internal/entity"
	"StudySanctuary/pkg/camera"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeDetector answers every message with reply(message) and counts accepted connections.
func fakeDetector(t *testing.T, reply func(messageType int, msg []byte) []byte) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var conns atomic.Int32
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("width") != "640" || r.URL.Query().Get("facing") != "user" {
			http.Error(w, "missing constraints", http.StatusBadRequest)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns.Add(1)
		defer conn.Close()
		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			out := reply(mt, msg)
			if out == nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	return srv, &conns
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func testConfig(landmarkURL, descriptorURL string) Config {
	return Config{
		LandmarkURL:   landmarkURL,
		DescriptorURL: descriptorURL,
		PingInterval:  time.Hour,
		ReadTimeout:   2 * time.Second,
		WriteTimeout:  2 * time.Second,
	}
}

func semanticPayload() []byte {
	return []byte(`{"points":[[0.45,0.4],[0.35,0.4],[0.55,0.4],[0.65,0.4],[0.4,0.4],[0.6,0.4],[0.5,0.4],[0.5,0.8],[0.5,0.2]]}`)
}

func TestDetectorStream_Landmarks(t *testing.T) {
	tests := []struct {
		name     string
		reply    []byte
		wantNil  bool
		wantErr  bool
		wantNose entity.Point
	}{
		{name: "semantic points", reply: semanticPayload(), wantNose: entity.Point{X: 0.5, Y: 0.4}},
		{name: "no face", reply: []byte(`{"face":false,"points":[]}`), wantNil: true},
		{name: "empty points", reply: []byte(`{"points":[]}`), wantNil: true},
		{name: "service error", reply: []byte(`{"error":"model not loaded"}`), wantErr: true},
		{name: "unknown cardinality", reply: []byte(`{"points":[[0.1,0.1],[0.2,0.2]]}`), wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := fakeDetector(t, func(mt int, _ []byte) []byte {
				if mt != websocket.BinaryMessage {
					return []byte(`{"error":"expected binary frame"}`)
				}
				return tc.reply
			})

			dev := NewDetectorDevice(testConfig(wsURL(srv), ""), quietLogger())
			err := camera.Use(context.Background(), dev, camera.DefaultConstraints(), func(s camera.Stream) error {
				set, err := s.Landmarks(context.Background(), []byte{0xff, 0xd8})
				if tc.wantErr {
					if err == nil {
						t.Error("expected an error")
					}
					return nil
				}
				if err != nil {
					return err
				}
				if tc.wantNil {
					if set != nil {
						t.Errorf("expected no face, got %+v", set)
					}
					return nil
				}
				if set == nil {
					t.Fatal("expected a landmark set")
				}
				if set[entity.NoseTip] != tc.wantNose {
					t.Errorf("nose tip: got %+v, want %+v", set[entity.NoseTip], tc.wantNose)
				}
				return nil
			})
			if err != nil {
				t.Fatalf("Use: %v", err)
			}
			if dev.OpenStreams() != 0 {
				t.Errorf("open streams after Use: %d", dev.OpenStreams())
			}
		})
	}
}

func TestDetectorStream_Descriptor(t *testing.T) {
	full := make([]string, entity.DescriptorSize)
	for i := range full {
		full[i] = "0.01"
	}

	srv, _ := fakeDetector(t, func(mt int, msg []byte) []byte {
		if mt != websocket.TextMessage {
			return []byte(`{"error":"expected base64 text"}`)
		}
		if string(msg) == "AAE=" {
			return []byte(`{"descriptor":[` + strings.Join(full, ",") + `]}`)
		}
		return []byte(`{"descriptor":null}`)
	})

	dev := NewDetectorDevice(testConfig("", wsURL(srv)), quietLogger())
	stream, err := dev.Start(context.Background(), camera.DefaultConstraints())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer dev.Stop(stream)

	d, err := stream.Descriptor(context.Background(), []byte{0x00, 0x01})
	if err != nil {
		t.Fatalf("Descriptor: %v", err)
	}
	if len(d) != entity.DescriptorSize {
		t.Errorf("descriptor length: got %d, want %d", len(d), entity.DescriptorSize)
	}

	d, err = stream.Descriptor(context.Background(), []byte{0x02})
	if err != nil {
		t.Fatalf("Descriptor without face: %v", err)
	}
	if d != nil {
		t.Errorf("expected nil descriptor, got %d values", len(d))
	}
}

func TestDetectorDevice_StreamsDoNotShareConnections(t *testing.T) {
	srv, conns := fakeDetector(t, func(int, []byte) []byte { return semanticPayload() })
	dev := NewDetectorDevice(testConfig(wsURL(srv), ""), quietLogger())

	a, err := dev.Start(context.Background(), camera.DefaultConstraints())
	if err != nil {
		t.Fatalf("Start a: %v", err)
	}
	b, err := dev.Start(context.Background(), camera.DefaultConstraints())
	if err != nil {
		t.Fatalf("Start b: %v", err)
	}

	for _, s := range []camera.Stream{a, b, a} {
		if _, err := s.Landmarks(context.Background(), []byte{1}); err != nil {
			t.Fatalf("Landmarks: %v", err)
		}
	}
	if got := conns.Load(); got != 2 {
		t.Errorf("detector connections: got %d, want 2", got)
	}

	dev.CloseConnections()
	if _, err := a.Landmarks(context.Background(), []byte{1}); !errors.Is(err, errStreamClosed) {
		t.Errorf("after close: got %v, want errStreamClosed", err)
	}
}

func TestDetectorDevice_Unavailable(t *testing.T) {
	dev := NewDetectorDevice(Config{}, quietLogger())
	if _, err := dev.Start(context.Background(), camera.DefaultConstraints()); !errors.Is(err, camera.ErrUnavailable) {
		t.Errorf("no URLs: got %v, want ErrUnavailable", err)
	}

	dev = NewDetectorDevice(testConfig("ws://127.0.0.1:1/landmarks", ""), quietLogger())
	stream, err := dev.Start(context.Background(), camera.DefaultConstraints())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer dev.Stop(stream)

	if _, err := stream.Landmarks(context.Background(), []byte{1}); !errors.Is(err, camera.ErrUnavailable) {
		t.Errorf("unreachable detector: got %v, want ErrUnavailable", err)
	}
}

func TestDetectorStream_ContextCancelAbortsRead(t *testing.T) {
	srv, _ := fakeDetector(t, func(int, []byte) []byte { return nil })
	dev := NewDetectorDevice(testConfig("", wsURL(srv)), quietLogger())

	stream, err := dev.Start(context.Background(), camera.DefaultConstraints())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer dev.Stop(stream)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	_, err = stream.Descriptor(ctx, []byte{1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("read was not aborted promptly: %v", time.Since(start))
	}
}
