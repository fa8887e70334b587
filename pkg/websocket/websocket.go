package websocketPkg

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"StudySanctuary/internal/entity"
	"StudySanctuary/pkg/camera"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type DetectionType string

const (
	LandmarkDetection   DetectionType = "LANDMARK"
	DescriptorDetection DetectionType = "DESCRIPTOR"
)

type Config struct {
	LandmarkURL   string
	DescriptorURL string
	PingInterval  time.Duration
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		LandmarkURL:   getEnv("AI_LANDMARK_URL", "ws://localhost:8000/api/v1/landmarks/ws"),
		DescriptorURL: getEnv("AI_DESCRIPTOR_URL", "ws://localhost:8000/api/v1/descriptor/ws"),
		PingInterval:  30 * time.Second,
		ReadTimeout:   10 * time.Second,
		WriteTimeout:  5 * time.Second,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// landmarkResponse is what the landmark service answers for one frame.
type landmarkResponse struct {
	Face   *bool       `json:"face,omitempty"`
	Points [][]float64 `json:"points"`
	Table  string      `json:"table,omitempty"`
	Error  string      `json:"error,omitempty"`
}

type descriptorResponse struct {
	Descriptor []float64 `json:"descriptor"`
	Error      string    `json:"error,omitempty"`
}

// DetectorDevice is a camera.Device backed by the remote detector service. Each stream owns its
// own connections, so sessions never share a socket.
type DetectorDevice struct {
	cfg    Config
	log    *logrus.Logger
	dialer *websocket.Dialer

	mu      sync.Mutex
	streams map[*detectorStream]struct{}
}

func NewDetectorDevice(cfg Config, log *logrus.Logger) *DetectorDevice {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	return &DetectorDevice{
		cfg:     cfg,
		log:     log,
		dialer:  &dialer,
		streams: make(map[*detectorStream]struct{}),
	}
}

func (d *DetectorDevice) Start(ctx context.Context, c camera.Constraints) (camera.Stream, error) {
	if d.cfg.LandmarkURL == "" && d.cfg.DescriptorURL == "" {
		return nil, fmt.Errorf("%w: no detector URL configured", camera.ErrUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &detectorStream{
		device:      d,
		constraints: c,
		conns:       make(map[DetectionType]*websocket.Conn),
		done:        make(chan struct{}),
	}

	d.mu.Lock()
	d.streams[s] = struct{}{}
	d.mu.Unlock()

	return s, nil
}

func (d *DetectorDevice) Stop(stream camera.Stream) error {
	s, ok := stream.(*detectorStream)
	if !ok {
		return fmt.Errorf("stream %T was not started by this device", stream)
	}

	d.mu.Lock()
	delete(d.streams, s)
	d.mu.Unlock()

	s.close()
	return nil
}

// CloseConnections stops every open stream.
func (d *DetectorDevice) CloseConnections() {
	d.mu.Lock()
	streams := make([]*detectorStream, 0, len(d.streams))
	for s := range d.streams {
		streams = append(streams, s)
	}
	d.streams = make(map[*detectorStream]struct{})
	d.mu.Unlock()

	for _, s := range streams {
		s.close()
	}
}

func (d *DetectorDevice) OpenStreams() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.streams)
}

func (d *DetectorDevice) url(t DetectionType, c camera.Constraints) (string, error) {
	raw := d.cfg.LandmarkURL
	if t == DescriptorDetection {
		raw = d.cfg.DescriptorURL
	}
	if raw == "" {
		return "", fmt.Errorf("URL for %s detection not configured", t)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("width", strconv.Itoa(c.Width))
	q.Set("height", strconv.Itoa(c.Height))
	q.Set("facing", c.FacingMode)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

type detectorStream struct {
	device      *DetectorDevice
	constraints camera.Constraints

	mu     sync.Mutex
	conns  map[DetectionType]*websocket.Conn
	done   chan struct{}
	closed bool
}

func (s *detectorStream) Landmarks(ctx context.Context, frame []byte) (*entity.LandmarkSet, error) {
	message, err := s.roundTrip(ctx, LandmarkDetection, websocket.BinaryMessage, frame)
	if err != nil {
		return nil, err
	}

	var res landmarkResponse
	if err := json.Unmarshal(message, &res); err != nil {
		return nil, fmt.Errorf("error unmarshaling landmark response: %w", err)
	}
	if res.Error != "" {
		return nil, fmt.Errorf("landmark service: %s", res.Error)
	}
	if (res.Face != nil && !*res.Face) || len(res.Points) == 0 {
		return nil, nil
	}

	points, err := ToPoints(res.Points)
	if err != nil {
		return nil, err
	}
	table, err := entity.LookupLandmarkTable(res.Table, len(points))
	if err != nil {
		return nil, err
	}
	set, err := table.Resolve(points)
	if err != nil {
		return nil, err
	}

	return &set, nil
}

func (s *detectorStream) Descriptor(ctx context.Context, frame []byte) (entity.FaceDescriptor, error) {
	encoded := []byte(base64.StdEncoding.EncodeToString(frame))
	message, err := s.roundTrip(ctx, DescriptorDetection, websocket.TextMessage, encoded)
	if err != nil {
		return nil, err
	}

	var res descriptorResponse
	if err := json.Unmarshal(message, &res); err != nil {
		return nil, fmt.Errorf("error unmarshaling descriptor response: %w", err)
	}
	if res.Error != "" {
		return nil, fmt.Errorf("descriptor service: %s", res.Error)
	}
	if res.Descriptor == nil {
		return nil, nil
	}

	d := entity.FaceDescriptor(res.Descriptor)
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// ToPoints converts [[x, y], ...] pairs into points.
func ToPoints(pairs [][]float64) ([]entity.Point, error) {
	points := make([]entity.Point, len(pairs))
	for i, p := range pairs {
		if len(p) < 2 {
			return nil, fmt.Errorf("point %d has %d coordinates, want 2", i, len(p))
		}
		points[i] = entity.Point{X: p[0], Y: p[1]}
	}
	return points, nil
}

var errStreamClosed = errors.New("detector stream closed")

func (s *detectorStream) roundTrip(ctx context.Context, t DetectionType, messageType int, payload []byte) ([]byte, error) {
	conn, err := s.connection(ctx, t)
	if err != nil {
		return nil, err
	}

	cfg := s.device.cfg
	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
	})
	defer stop()

	s.mu.Lock()
	conn.SetWriteDeadline(deadline(ctx, cfg.WriteTimeout))
	err = conn.WriteMessage(messageType, payload)
	s.mu.Unlock()
	if err != nil {
		s.drop(t, conn)
		return nil, fmt.Errorf("error sending %s frame: %w", t, err)
	}

	conn.SetReadDeadline(deadline(ctx, cfg.ReadTimeout))
	_, message, err := conn.ReadMessage()
	if err != nil {
		s.drop(t, conn)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("error reading %s message: %w", t, err)
	}
	conn.SetReadDeadline(time.Time{})

	return message, nil
}

func deadline(ctx context.Context, timeout time.Duration) time.Time {
	d := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}

func (s *detectorStream) connection(ctx context.Context, t DetectionType) (*websocket.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errStreamClosed
	}
	if conn, ok := s.conns[t]; ok {
		return conn, nil
	}

	target, err := s.device.url(t, s.constraints)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", camera.ErrUnavailable, err)
	}

	s.device.log.WithFields(logrus.Fields{
		"detection": t,
		"url":       target,
	}).Debug("Connecting to detector service")

	conn, _, err := s.device.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to %s: %v", camera.ErrUnavailable, target, err)
	}

	writeTimeout := s.device.cfg.WriteTimeout
	conn.SetPingHandler(func(appData string) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeTimeout)); err != nil {
			s.device.log.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	s.conns[t] = conn
	go s.keepAlive(t, conn)

	return conn, nil
}

func (s *detectorStream) keepAlive(t DetectionType, conn *websocket.Conn) {
	ticker := time.NewTicker(s.device.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		if s.conns[t] != conn {
			s.mu.Unlock()
			return
		}
		err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(s.device.cfg.WriteTimeout))
		s.mu.Unlock()

		if err != nil {
			s.device.log.Warnf("Ping failed for %s detection, marking connection as dead: %v", t, err)
			s.drop(t, conn)
			return
		}
	}
}

// drop forgets a broken connection so the next frame redials.
func (s *detectorStream) drop(t DetectionType, conn *websocket.Conn) {
	s.mu.Lock()
	if s.conns[t] == conn {
		delete(s.conns, t)
	}
	s.mu.Unlock()
	conn.Close()
}

func (s *detectorStream) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.done)

	for t, conn := range s.conns {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(s.device.cfg.WriteTimeout))
		conn.Close()
		delete(s.conns, t)
	}
}
