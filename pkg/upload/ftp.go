// Package upload relays stored artifacts to a remote FTP endpoint.
package upload

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/samvad-hq/samvad-report-harvester/internal/domain"
)

// Config holds FTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string `json:"-"`
	Dir      string
	Timeout  time.Duration
}

// Conn is the subset of *ftp.ServerConn used by the uploader.
type Conn interface {
	Login(user, password string) error
	ChangeDir(path string) error
	Stor(path string, r io.Reader) error
	Quit() error
}

// DialFunc opens a control connection to addr.
type DialFunc func(ctx context.Context, addr string, timeout time.Duration) (Conn, error)

// Logger is the subset of the application logger used by uploaders.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) InfoObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{}) {}

func ensureLogger(l Logger) Logger {
	if l == nil {
		return noopLogger{}
	}
	return l
}

// FTPUploader stores each file's basename in the configured remote directory.
// Every upload opens its own session: dial, login, CWD, STOR, QUIT.
type FTPUploader struct {
	cfg  Config
	dial DialFunc
	log  Logger
}

// NewFTPUploader validates cfg. A nil dial uses jlaffaye/ftp.
func NewFTPUploader(cfg Config, dial DialFunc, log Logger) (*FTPUploader, error) {
	cfg.Host = strings.TrimSpace(cfg.Host)
	if cfg.Host == "" {
		return nil, fmt.Errorf("ftp host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 21
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid ftp port %d", cfg.Port)
	}
	if strings.TrimSpace(cfg.Dir) == "" {
		cfg.Dir = "/"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if dial == nil {
		dial = dialFTP
	}
	return &FTPUploader{cfg: cfg, dial: dial, log: ensureLogger(log)}, nil
}

func dialFTP(ctx context.Context, addr string, timeout time.Duration) (Conn, error) {
	conn, err := ftp.Dial(addr, ftp.DialWithTimeout(timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Addr returns host:port of the endpoint.
func (u *FTPUploader) Addr() string {
	return net.JoinHostPort(u.cfg.Host, strconv.Itoa(u.cfg.Port))
}

// Upload sends localPath to the remote directory. Failures wrap domain.ErrUploadFailed;
// the local file is never removed.
func (u *FTPUploader) Upload(ctx context.Context, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", domain.ErrUploadFailed, localPath, err)
	}
	defer f.Close()

	addr := u.Addr()
	conn, err := u.dial(ctx, addr, u.cfg.Timeout)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", domain.ErrUploadFailed, addr, err)
	}

	name := filepath.Base(localPath)
	if err := u.transfer(conn, name, f); err != nil {
		_ = conn.Quit()
		return fmt.Errorf("%w: %s to %s%s: %v", domain.ErrUploadFailed, name, addr, u.cfg.Dir, err)
	}
	if err := conn.Quit(); err != nil {
		u.log.WarnObj("ftp quit failed", "ftp_error", map[string]any{
			"addr":  addr,
			"error": err.Error(),
		})
	}

	u.log.InfoObj("artifact uploaded", "ftp_upload", map[string]any{
		"addr": addr,
		"dir":  u.cfg.Dir,
		"file": name,
	})
	return nil
}

func (u *FTPUploader) transfer(conn Conn, name string, r io.Reader) error {
	if err := conn.Login(u.cfg.Username, u.cfg.Password); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := conn.ChangeDir(u.cfg.Dir); err != nil {
		return fmt.Errorf("cwd %s: %w", u.cfg.Dir, err)
	}
	if err := conn.Stor(name, r); err != nil {
		return fmt.Errorf("stor: %w", err)
	}
	return nil
}

// NoopUploader accepts every file without sending it anywhere.
type NoopUploader struct{}

func (NoopUploader) Upload(context.Context, string) error { return nil }
