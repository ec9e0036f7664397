package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kevinburke/ssh_config"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

const defaultSSHPort = 22

type SSHConfig struct {
	// ConfigPath is the OpenSSH client config to honor. Defaults to ~/.ssh/config.
	ConfigPath string
	// User overrides the user from the SSH config.
	User string
	// KeyPaths are private keys tried after the SSH agent.
	// Defaults to ~/.ssh/id_ed25519 and ~/.ssh/id_rsa.
	KeyPaths    []string
	DialTimeout time.Duration
}

// SSHDialer connects to worker nodes with public key authentication.
type SSHDialer struct {
	cfg SSHConfig
}

func NewSSHDialer(cfg SSHConfig) *SSHDialer {
	home, err := os.UserHomeDir()
	if err != nil {
		slog.Warn("Could not find home directory", "error", err)
	}

	if cfg.ConfigPath == "" && home != "" {
		cfg.ConfigPath = filepath.Join(home, ".ssh", "config")
	}

	if len(cfg.KeyPaths) == 0 && home != "" {
		cfg.KeyPaths = []string{
			filepath.Join(home, ".ssh", "id_ed25519"),
			filepath.Join(home, ".ssh", "id_rsa"),
		}
	}

	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 10 * time.Second
	}

	return &SSHDialer{cfg: cfg}
}

type target struct {
	hostname string
	user     string
	port     int
}

// resolve applies HostName, User and Port from the SSH config, if the host is listed there.
func (d *SSHDialer) resolve(host string) target {
	t := target{hostname: host, user: d.cfg.User, port: defaultSSHPort}

	if f, err := os.Open(d.cfg.ConfigPath); err == nil {
		defer f.Close()

		cfg, err := ssh_config.Decode(f)
		if err != nil {
			slog.Warn("Could not parse SSH config", "path", d.cfg.ConfigPath, "error", err)
		} else {
			if v, _ := cfg.Get(host, "HostName"); v != "" {
				t.hostname = v
			}

			if v, _ := cfg.Get(host, "User"); v != "" && t.user == "" {
				t.user = v
			}

			if v, _ := cfg.Get(host, "Port"); v != "" {
				if p, err := strconv.Atoi(v); err == nil {
					t.port = p
				}
			}
		}
	}

	if t.user == "" {
		// Same as ssh: fall back to whoever runs the dashboard.
		if u, err := user.Current(); err == nil {
			t.user = u.Username
		}
	}

	return t
}

func (d *SSHDialer) authMethods() ([]ssh.AuthMethod, net.Conn) {
	methods := make([]ssh.AuthMethod, 0, 2)

	var agentConn net.Conn

	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		conn, err := net.Dial("unix", sock)
		if err != nil {
			slog.Debug("Could not reach SSH agent", "error", err)
		} else {
			agentConn = conn
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}

	signers := make([]ssh.Signer, 0, len(d.cfg.KeyPaths))

	for _, p := range d.cfg.KeyPaths {
		key, err := os.ReadFile(p)
		if err != nil {
			continue
		}

		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			slog.Debug("Skipping unusable private key", "path", p, "error", err)

			continue
		}

		signers = append(signers, signer)
	}

	if len(signers) > 0 {
		methods = append(methods, ssh.PublicKeys(signers...))
	}

	return methods, agentConn
}

func (d *SSHDialer) Dial(ctx context.Context, host string) (Session, error) {
	t := d.resolve(host)

	methods, agentConn := d.authMethods()
	if len(methods) == 0 {
		return nil, errors.New("no SSH agent or private key available")
	}

	closeAgent := func() {
		if agentConn != nil {
			_ = agentConn.Close()
		}
	}

	config := &ssh.ClientConfig{
		User: t.user,
		Auth: methods,
		// Worker nodes are on the private DAQ network and get reinstalled often.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec
		Timeout:         d.cfg.DialTimeout,
	}

	addr := net.JoinHostPort(t.hostname, strconv.Itoa(t.port))

	dialer := net.Dialer{Timeout: d.cfg.DialTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		closeAgent()

		return nil, fmt.Errorf("could not connect to %s (%s): %w", host, addr, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		_ = conn.Close()

		closeAgent()

		return nil, fmt.Errorf("ssh handshake with %s failed: %w", host, err)
	}

	return &sshSession{client: ssh.NewClient(c, chans, reqs), agentConn: agentConn}, nil
}

type sshSession struct {
	client    *ssh.Client
	agentConn net.Conn
}

func (s *sshSession) Run(ctx context.Context, cmd string) (string, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("could not open ssh session: %w", err)
	}
	defer session.Close()

	type result struct {
		out []byte
		err error
	}

	done := make(chan result, 1)

	go func() {
		out, err := session.Output(cmd)
		done <- result{out, err}
	}()

	select {
	case <-ctx.Done():
		_ = session.Close()

		return "", ctx.Err()
	case res := <-done:
		var exitErr *ssh.ExitError
		if errors.As(res.err, &exitErr) {
			slog.Debug("Remote command exited with non-zero status", "cmd", cmd, "status", exitErr.ExitStatus())

			return string(res.out), nil
		}

		if res.err != nil {
			return "", fmt.Errorf("remote command %q failed: %w", cmd, res.err)
		}

		return string(res.out), nil
	}
}

func (s *sshSession) Close() error {
	err := s.client.Close()

	if s.agentConn != nil {
		_ = s.agentConn.Close()
	}

	return err
}
