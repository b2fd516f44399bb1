package camera

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"helmetwatch/internal/config"
	"helmetwatch/internal/logger"
	"helmetwatch/internal/model"
	"helmetwatch/internal/service/camera/framing"
	"helmetwatch/internal/service/vision"
)

const (
	// udpPacketSize is the largest datagram the cameras send.
	udpPacketSize = 2048
	// udpQueueSize is how many decoded frames may wait for the pipeline.
	udpQueueSize = 64
	// udpIdleTimeout ends the stream when the camera goes quiet.
	udpIdleTimeout = 10 * time.Second
)

// UDPSource receives JPEG frames from a single camera over UDP.
type UDPSource struct {
	conn    *net.UDPConn
	frames  chan model.Frame
	fps     float64
	seq     uint64
	sender  string
	done    chan struct{}
	closeMu sync.Once
	logger  *logger.Logger
}

// ListenUDP binds CAMERA_UDP_PORT and starts reassembling frames.
func ListenUDP(cfg *config.Config, logger *logger.Logger) (*UDPSource, error) {
	port := strconv.Itoa(cfg.CameraUDPPort)

	addr, err := net.ResolveUDPAddr("udp", ":"+port)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve UDP address: %v", ErrSourceUnavailable, err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: listen on UDP port %s: %v", ErrSourceUnavailable, port, err)
	}

	s := &UDPSource{
		conn:   conn,
		frames: make(chan model.Frame, udpQueueSize),
		fps:    cfg.DefaultFPS,
		done:   make(chan struct{}),
		logger: logger,
	}

	logger.Info("UDP camera source listening on port %s", port)
	go s.receive()
	return s, nil
}

// receive reads datagrams until the socket closes.
func (s *UDPSource) receive() {
	defer close(s.frames)

	buffer := make([]byte, udpPacketSize)
	assembler := framing.NewAssembler(0)

	for {
		n, remoteAddr, err := s.conn.ReadFromUDP(buffer)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Error("Error reading UDP packet: %v", err)
			continue
		}

		// One camera per source; the first sender owns the stream.
		sender := remoteAddr.IP.String()
		if s.sender == "" {
			s.sender = sender
			s.logger.Info("Receiving frames from %s", sender)
		} else if sender != s.sender {
			continue
		}

		jpeg, ok := assembler.Feed(buffer[:n])
		if !ok {
			continue
		}

		s.seq++
		frame, err := vision.DecodeJPEG(jpeg, s.seq, time.Now())
		if err != nil {
			s.logger.Warning("Dropping undecodable frame from %s: %v", sender, err)
			continue
		}

		select {
		case s.frames <- frame:
		case <-s.done:
			return
		default:
			s.logger.Warning("Frame queue full, dropping frame %d", frame.Seq)
		}
	}
}

// FPS is the nominal frame rate; UDP cameras do not report one.
func (s *UDPSource) FPS() float64 {
	return s.fps
}

// Next waits for the next frame. Cancellation, a closed socket or a silent
// camera end the stream.
func (s *UDPSource) Next(ctx context.Context) (model.Frame, error) {
	timer := time.NewTimer(udpIdleTimeout)
	defer timer.Stop()

	select {
	case frame, ok := <-s.frames:
		if !ok {
			return model.Frame{}, ErrEndOfStream
		}
		return frame, nil
	case <-ctx.Done():
		return model.Frame{}, ErrEndOfStream
	case <-timer.C:
		s.logger.Warning("No frames received for %s", udpIdleTimeout)
		return model.Frame{}, ErrEndOfStream
	}
}

// Close stops the receiver.
func (s *UDPSource) Close() error {
	var err error
	s.closeMu.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}
