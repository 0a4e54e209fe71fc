package service

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	apperrors "github.com/allisson/fileguard/internal/errors"
)

// streamChunkSize is the INSTREAM chunk size sent to the daemon.
const streamChunkSize = 2048

// ClamdClient talks to a clamd-compatible daemon over TCP using the
// null-terminated command protocol (zVERSION, zINSTREAM).
type ClamdClient struct {
	address      string
	probeTimeout time.Duration
	scanTimeout  time.Duration
}

// NewClamdClient creates a client for the daemon at host:port. probeTimeout
// bounds Version calls, scanTimeout bounds ScanFile calls.
func NewClamdClient(host string, port int, probeTimeout, scanTimeout time.Duration) *ClamdClient {
	return &ClamdClient{
		address:      net.JoinHostPort(host, fmt.Sprintf("%d", port)),
		probeTimeout: probeTimeout,
		scanTimeout:  scanTimeout,
	}
}

func (c *ClamdClient) dial(ctx context.Context, timeout time.Duration) (net.Conn, error) {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.address)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to connect to scan engine")
	}
	_ = conn.SetDeadline(time.Now().Add(timeout))
	return conn, nil
}

// readResponse reads a single null-terminated response line.
func readResponse(conn net.Conn) (string, error) {
	data, err := io.ReadAll(conn)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to read scan engine response")
	}
	return strings.TrimSpace(strings.Trim(string(data), "\x00")), nil
}

// Version probes the daemon with the VERSION command and returns its banner.
func (c *ClamdClient) Version(ctx context.Context) (string, error) {
	conn, err := c.dial(ctx, c.probeTimeout)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = conn.Close()
	}()

	if _, err := conn.Write([]byte("zVERSION\x00")); err != nil {
		return "", apperrors.Wrap(err, "failed to send version probe")
	}

	version, err := readResponse(conn)
	if err != nil {
		return "", err
	}
	if version == "" {
		return "", apperrors.New("scan engine returned empty version")
	}
	return version, nil
}

// ScanFile streams the file at path to the daemon via INSTREAM and parses the
// verdict line ("stream: OK", "stream: <name> FOUND" or "... ERROR").
func (c *ClamdClient) ScanFile(ctx context.Context, path string) (*EngineScan, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open file for scanning")
	}
	defer func() {
		_ = file.Close()
	}()

	conn, err := c.dial(ctx, c.scanTimeout)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = conn.Close()
	}()

	if _, err := conn.Write([]byte("zINSTREAM\x00")); err != nil {
		return nil, apperrors.Wrap(err, "failed to start scan stream")
	}

	chunk := make([]byte, streamChunkSize)
	sizeHeader := make([]byte, 4)
	for {
		n, readErr := file.Read(chunk)
		if n > 0 {
			binary.BigEndian.PutUint32(sizeHeader, uint32(n))
			if _, err := conn.Write(sizeHeader); err != nil {
				return nil, apperrors.Wrap(err, "failed to stream file to scan engine")
			}
			if _, err := conn.Write(chunk[:n]); err != nil {
				return nil, apperrors.Wrap(err, "failed to stream file to scan engine")
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, apperrors.Wrap(readErr, "failed to read file for scanning")
		}
	}

	// Zero-length chunk terminates the stream
	binary.BigEndian.PutUint32(sizeHeader, 0)
	if _, err := conn.Write(sizeHeader); err != nil {
		return nil, apperrors.Wrap(err, "failed to finish scan stream")
	}

	response, err := readResponse(conn)
	if err != nil {
		return nil, err
	}

	return parseScanResponse(response)
}

// parseScanResponse maps a daemon verdict line into an EngineScan.
func parseScanResponse(response string) (*EngineScan, error) {
	switch {
	case strings.HasSuffix(response, "OK"):
		return &EngineScan{}, nil
	case strings.HasSuffix(response, "FOUND"):
		name := strings.TrimSuffix(response, " FOUND")
		if idx := strings.Index(name, ": "); idx >= 0 {
			name = name[idx+2:]
		}
		return &EngineScan{
			Infected:  true,
			Threats:   []string{name},
			Signature: name,
		}, nil
	default:
		return nil, apperrors.Wrapf(apperrors.ErrUnavailable, "scan engine error: %s", response)
	}
}
