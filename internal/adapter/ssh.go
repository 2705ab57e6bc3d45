package adapter

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/Justype/qadapter/internal/config"
	execpkg "github.com/Justype/qadapter/internal/exec"
	"github.com/Justype/qadapter/internal/utils"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/term"
)

// DefaultAuthenticatorCommand prints a one-time code for the service given as its argument.
const DefaultAuthenticatorCommand = "pyauthenticator"

// Prompt asks the user one question. echo is false for secrets.
type Prompt func(question string, echo bool) (string, error)

// TerminalPrompt reads answers from stdin, without echo for secrets.
func TerminalPrompt(question string, echo bool) (string, error) {
	fmt.Fprint(os.Stderr, question)
	if !echo && term.IsTerminal(int(os.Stdin.Fd())) {
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		return string(b), err
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// authenticatorCode runs the authenticator command for service and returns
// the first line it prints.
func authenticatorCode(command, service string) (string, error) {
	if command == "" {
		command = DefaultAuthenticatorCommand
	}
	out, err := execpkg.NewLocal().Execute(execpkg.Options{
		Line:       command + " " + shellQuote(service),
		WorkingDir: os.TempDir(),
	})
	if err != nil {
		return "", err
	}
	if out == nil {
		return "", fmt.Errorf("authenticator %s failed for service %s", command, service)
	}
	return strings.TrimSpace(out.FirstLine()), nil
}

// AuthMethods selects the authentication for cfg. The cases are tried in order:
//
//	key + passphrase, key, password, ask for password,
//	password + authenticator service, password + 2FA, ask + 2FA
//
// Keys are ignored when ssh_ask_for_password is set.
func AuthMethods(cfg config.SSHConfig, prompt Prompt) ([]ssh.AuthMethod, error) {
	if prompt == nil {
		prompt = TerminalPrompt
	}
	ask := cfg.AskForPassword
	password := cfg.Password

	// The password is asked once even when a proxy hop authenticates again.
	var once sync.Once
	var asked string
	var askErr error
	askPassword := ssh.PasswordCallback(func() (string, error) {
		once.Do(func() { asked, askErr = prompt("SSH Password: ", false) })
		return asked, askErr
	})
	interactive := ssh.KeyboardInteractive(func(name, instruction string, questions []string, echos []bool) ([]string, error) {
		answers := make([]string, len(questions))
		for i, q := range questions {
			a, err := prompt(q, echos[i])
			if err != nil {
				return nil, err
			}
			answers[i] = a
		}
		return answers, nil
	})

	switch {
	case cfg.Key != "" && cfg.KeyPassphrase != "" && !ask:
		signer, err := loadKey(cfg.Key, cfg.KeyPassphrase)
		if err != nil {
			return nil, err
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil

	case cfg.Key != "" && !ask:
		signer, err := loadKey(cfg.Key, "")
		if err != nil {
			return nil, err
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil

	case password != "" && cfg.AuthenticatorService == "" && !cfg.TwoFactor && !ask:
		return []ssh.AuthMethod{ssh.Password(password)}, nil

	case ask && !cfg.TwoFactor:
		return []ssh.AuthMethod{askPassword}, nil

	case password != "" && cfg.AuthenticatorService != "" && cfg.TwoFactor:
		code := ssh.KeyboardInteractive(func(name, instruction string, questions []string, echos []bool) ([]string, error) {
			if len(questions) == 0 {
				return nil, nil
			}
			c, err := authenticatorCode(cfg.AuthenticatorCommand, cfg.AuthenticatorService)
			if err != nil {
				return nil, err
			}
			answers := make([]string, len(questions))
			for i := range answers {
				answers[i] = c
			}
			return answers, nil
		})
		return []ssh.AuthMethod{ssh.Password(password), code}, nil

	case password != "" && cfg.AuthenticatorService == "" && cfg.TwoFactor:
		return []ssh.AuthMethod{ssh.Password(password), interactive}, nil

	case ask && cfg.TwoFactor:
		return []ssh.AuthMethod{askPassword, interactive}, nil
	}
	return nil, ErrUnsupportedAuth
}

func loadKey(file, passphrase string) (ssh.Signer, error) {
	pem, err := os.ReadFile(utils.ExpandPath(file))
	if err != nil {
		return nil, fmt.Errorf("failed to read ssh key: %w", err)
	}
	if passphrase != "" {
		return ssh.ParsePrivateKeyWithPassphrase(pem, []byte(passphrase))
	}
	return ssh.ParsePrivateKey(pem)
}

// sshTransport is a Transport over one SSH connection, optionally tunnelled
// through a first host when ssh_proxy_host is set.
type sshTransport struct {
	host   string
	client *ssh.Client
	jump   *ssh.Client // First hop when a proxy host is configured
	sftp   *sftp.Client
}

// DialSSH connects according to cfg. Host keys are checked against known_hosts.
func DialSSH(cfg config.SSHConfig) (Transport, error) {
	return dialSSH(cfg, TerminalPrompt)
}

func dialSSH(cfg config.SSHConfig, prompt Prompt) (*sshTransport, error) {
	auth, err := AuthMethods(cfg, prompt)
	if err != nil {
		return nil, err
	}
	knownHosts := cfg.KnownHosts
	if knownHosts == "" {
		knownHosts = "~/.ssh/known_hosts"
	}
	hostKeys, err := knownhosts.New(utils.ExpandPath(knownHosts))
	if err != nil {
		return nil, fmt.Errorf("failed to load known hosts: %w", err)
	}
	port := cfg.Port
	if port == 0 {
		port = 22
	}
	clientConfig := &ssh.ClientConfig{
		User:            cfg.Username,
		Auth:            auth,
		HostKeyCallback: hostKeys,
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	utils.PrintDebug("Connecting to %s as %s", utils.StyleName(addr), utils.StyleName(cfg.Username))
	client, err := ssh.Dial("tcp", addr, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	if cfg.ProxyHost == "" {
		return &sshTransport{host: cfg.Host, client: client}, nil
	}

	// direct-tcpip channel from the first host to the proxy host
	target := net.JoinHostPort(cfg.ProxyHost, strconv.Itoa(port))
	conn, err := client.Dial("tcp", target)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to open a channel to %s through %s: %w", target, addr, err)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, target, clientConfig)
	if err != nil {
		conn.Close()
		client.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", target, err)
	}
	return &sshTransport{host: cfg.ProxyHost, client: ssh.NewClient(c, chans, reqs), jump: client}, nil
}

func (t *sshTransport) Run(command string) (string, string, error) {
	session, err := t.client.NewSession()
	if err != nil {
		return "", "", fmt.Errorf("error getting ssh session on %s: %w", t.host, err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	err = session.Run(command)
	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return stdout.String(), stderr.String(), &RemoteExitError{Command: command, Status: exitErr.ExitStatus()}
	}
	return stdout.String(), stderr.String(), err
}

func (t *sshTransport) sftpClient() (*sftp.Client, error) {
	if t.sftp != nil {
		return t.sftp, nil
	}
	c, err := sftp.NewClient(t.client)
	if err != nil {
		return nil, fmt.Errorf("failed to start sftp on %s: %w", t.host, err)
	}
	t.sftp = c
	return c, nil
}

func (t *sshTransport) Upload(local, remote string) error {
	c, err := t.sftpClient()
	if err != nil {
		return err
	}
	src, err := os.Open(local)
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := c.Create(remote)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", remote, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to upload %s: %w", local, err)
	}
	return dst.Close()
}

func (t *sshTransport) Download(remote, local string) error {
	c, err := t.sftpClient()
	if err != nil {
		return err
	}
	src, err := c.Open(remote)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", remote, err)
	}
	defer src.Close()
	dst, err := os.OpenFile(local, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, utils.PermFile)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to download %s: %w", remote, err)
	}
	return dst.Close()
}

func (t *sshTransport) Stat(remote string) (bool, error) {
	c, err := t.sftpClient()
	if err != nil {
		return false, err
	}
	if _, err := c.Stat(remote); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (t *sshTransport) Close() error {
	var errs []error
	if t.sftp != nil {
		errs = append(errs, t.sftp.Close())
	}
	errs = append(errs, t.client.Close())
	if t.jump != nil {
		errs = append(errs, t.jump.Close())
	}
	return errors.Join(errs...)
}
