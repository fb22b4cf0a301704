package device

import (
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/lcalzada-xor/switchmap/internal/core/domain"
	"github.com/lcalzada-xor/switchmap/internal/core/ports"
)

// SSHDialer opens CLI sessions against switches using the credentials of
// their group. Host keys are not pinned: the fleet uses per-site management
// VLANs and key churn on RMA'd hardware made pinning operationally useless.
type SSHDialer struct {
	Timeout time.Duration
}

// NewSSHDialer creates a dialer with the given connect timeout.
func NewSSHDialer(timeout time.Duration) *SSHDialer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SSHDialer{Timeout: timeout}
}

// Dial opens an SSH connection to the switch management IP.
func (d *SSHDialer) Dial(ctx context.Context, sw domain.SwitchNode, group domain.SwitchGroup) (ports.DeviceSession, error) {
	port := group.SSHPort
	if port == 0 {
		port = 22
	}

	cfg := &ssh.ClientConfig{
		User: group.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(group.Password),
			ssh.KeyboardInteractive(func(name, instruction string, questions []string, echos []bool) ([]string, error) {
				// Older VRP builds only offer keyboard-interactive.
				answers := make([]string, len(questions))
				for i := range questions {
					answers[i] = group.Password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         d.Timeout,
	}

	addr := net.JoinHostPort(sw.MgmtIP, fmt.Sprintf("%d", port))

	dialer := net.Dialer{Timeout: d.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrDeviceUnreachable, sw.Hostname, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrDeviceUnreachable, sw.Hostname, err)
	}

	return &sshSession{client: ssh.NewClient(sshConn, chans, reqs)}, nil
}

type sshSession struct {
	client *ssh.Client
}

// Run executes one command in a fresh session. Switch CLIs close the channel
// after exec, so a session per command is the only portable option.
func (s *sshSession) Run(ctx context.Context, cmd string) (string, error) {
	sess, err := s.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("ssh session: %w", err)
	}
	defer sess.Close()

	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := sess.CombinedOutput(cmd)
		done <- result{out, err}
	}()

	select {
	case <-ctx.Done():
		sess.Close()
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return string(r.out), fmt.Errorf("run %q: %w", cmd, r.err)
		}
		return string(r.out), nil
	}
}

func (s *sshSession) Close() error {
	return s.client.Close()
}
