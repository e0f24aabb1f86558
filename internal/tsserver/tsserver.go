// Package tsserver implements the subprocess transport to a TypeScript
// language service process (spec component C4): process lifecycle,
// line-delimited JSON duplex framing, sequence-correlated requests and
// cancellation via pipe files.
package tsserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/armon/circbuf"
	"github.com/sirupsen/logrus"

	"tslsp/internal/tsp"
)

const (
	stderrTailBytes = 64 * 1024
	shutdownGrace   = 2 * time.Second
)

// ErrClosed is returned by Notify and Request once Close has been called.
// After the tsserver process exits on its own, they fail with the error
// from writing to its closed stdin instead.
var ErrClosed = errors.New("tsserver: client closed")

// Config configures how a tsserver child process is spawned.
type Config struct {
	// Path is the tsserver entry point: either a native executable or a
	// ".js" script run under the Node.js runtime found on PATH.
	Path string
	// LogFile, when non-empty, is passed as --logFile.
	LogFile string
	// LogVerbosity, when non-empty, is passed as --logVerbosity.
	LogVerbosity string
	// GlobalPlugins is passed as a comma-joined --globalPlugins, if non-empty.
	GlobalPlugins []string
	// PluginProbeLocations is passed as a comma-joined --pluginProbeLocations.
	PluginProbeLocations []string
	// CancellationPipeName is the prefix used for cancellation pipe files;
	// the sequence number of the cancelled request is appended to it.
	CancellationPipeName string
}

// Client owns one tsserver child process and the pending-request table
// correlating outbound requests with their eventual responses.
type Client struct {
	cfg    Config
	logger *logrus.Entry

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *circbuf.Buffer

	seq int64

	mu      sync.Mutex
	pending map[int64]*pendingRequest
	closed  bool

	onEvent func(*tsp.Event)
}

// stderrRelay forwards each complete line written to it to logger at Error
// level (spec §6.2), independent of the circbuf tail kept for the
// process-exit error. It buffers partial lines across writes.
type stderrRelay struct {
	logger *logrus.Entry
	buf    []byte
}

func (r *stderrRelay) Write(p []byte) (int, error) {
	r.buf = append(r.buf, p...)
	for {
		i := bytes.IndexByte(r.buf, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimRight(string(r.buf[:i]), "\r")
		r.buf = r.buf[i+1:]
		if line != "" {
			r.logger.Error(line)
		}
	}
	return len(p), nil
}

type pendingRequest struct {
	command string
	ch      chan requestResult
	done    bool
}

type requestResult struct {
	resp *tsp.Response
	err  error
}

// New spawns the tsserver process described by cfg. onEvent, if non-nil, is
// invoked for every decoded event that is not consumed as a requestCompleted
// resolution (diagnostics events in particular).
func New(cfg Config, logger *logrus.Entry, onEvent func(*tsp.Event)) (*Client, error) {
	if cfg.Path == "" {
		return nil, errors.New("tsserver: no path configured")
	}

	args := buildArgs(cfg)
	name, args := commandFor(cfg.Path, args)

	cmd := exec.Command(name, args...)
	cmd.Env = os.Environ()
	setProcessGroup(cmd)

	stderrBuf, err := circbuf.NewBuffer(stderrTailBytes)
	if err != nil {
		return nil, fmt.Errorf("tsserver: allocate stderr buffer: %w", err)
	}
	cmd.Stderr = io.MultiWriter(stderrBuf, &stderrRelay{logger: logger})

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("tsserver: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		_ = stdin.Close()
		return nil, fmt.Errorf("tsserver: stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return nil, fmt.Errorf("tsserver: start %s: %w", name, err)
	}

	c := &Client{
		cfg:     cfg,
		logger:  logger,
		cmd:     cmd,
		stdin:   stdin,
		stderr:  stderrBuf,
		pending: make(map[int64]*pendingRequest),
		onEvent: onEvent,
	}

	go c.readLoop(stdout)

	c.logger.WithField("pid", cmd.Process.Pid).Info("tsserver started")
	return c, nil
}

func commandFor(path string, extraArgs []string) (string, []string) {
	if strings.HasSuffix(path, ".js") {
		return "node", append([]string{path}, extraArgs...)
	}
	return path, extraArgs
}

func buildArgs(cfg Config) []string {
	var args []string
	if cfg.LogFile != "" {
		args = append(args, "--logFile", cfg.LogFile)
	}
	if cfg.LogVerbosity != "" {
		args = append(args, "--logVerbosity", cfg.LogVerbosity)
	}
	if len(cfg.GlobalPlugins) > 0 {
		args = append(args, "--globalPlugins", strings.Join(cfg.GlobalPlugins, ","))
	}
	if len(cfg.PluginProbeLocations) > 0 {
		args = append(args, "--pluginProbeLocations", strings.Join(cfg.PluginProbeLocations, ","))
	}
	if cfg.CancellationPipeName != "" {
		args = append(args, "--cancellationPipeName", cfg.CancellationPipeName+"*")
	}
	return args
}

// readLoop consumes tsserver's stdout, one JSON message per line, and
// dispatches responses to their pending request and events to onEvent.
func (c *Client) readLoop(stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "Content-Length:") {
			continue
		}
		msg, err := tsp.Decode([]byte(line))
		if err != nil {
			c.logger.WithError(err).WithField("line", line).Warn("tsserver: undecodable message")
			continue
		}
		switch m := msg.(type) {
		case *tsp.Response:
			c.resolve(m.RequestSeq, m, nil)
		case *tsp.Event:
			if m.Event == tsp.EventRequestCompleted {
				var body tsp.RequestCompletedBody
				if err := json.Unmarshal(m.Body, &body); err == nil {
					c.resolve(body.RequestSeq, &tsp.Response{Success: true, RequestSeq: body.RequestSeq}, nil)
				}
				continue
			}
			if c.onEvent != nil {
				c.onEvent(m)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		c.logger.WithError(err).Warn("tsserver: stdout closed with error")
	}
	c.failAllPending(fmt.Errorf("tsserver: process exited: %s", c.stderr.String()))
}

func (c *Client) resolve(seq int64, resp *tsp.Response, err error) {
	c.mu.Lock()
	p, ok := c.pending[seq]
	if ok {
		delete(c.pending, seq)
	}
	c.mu.Unlock()
	if !ok || p.done {
		return
	}
	p.done = true
	p.ch <- requestResult{resp: resp, err: err}
}

func (c *Client) failAllPending(err error) {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[int64]*pendingRequest)
	c.mu.Unlock()
	for _, p := range pending {
		if !p.done {
			p.done = true
			p.ch <- requestResult{err: err}
		}
	}
}

func (c *Client) nextSeq() int64 {
	return atomic.AddInt64(&c.seq, 1)
}

func (c *Client) send(seq int64, command string, args any) error {
	env := map[string]any{
		"seq":     seq,
		"type":    "request",
		"command": command,
	}
	if args != nil {
		env["arguments"] = args
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("tsserver: marshal %s request: %w", command, err)
	}

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}

	data = append(data, '\n')
	if _, err := c.stdin.Write(data); err != nil {
		return fmt.Errorf("tsserver: write %s request: %w", command, err)
	}
	return nil
}

// Notify fires a one-way message to tsserver; there is no response to await.
func (c *Client) Notify(command string, args any) error {
	return c.send(c.nextSeq(), command, args)
}

// Request sends command and blocks until the correlated response (or a
// requestCompleted event for the same sequence) arrives, ctx is cancelled,
// or the tsserver process exits. Cancelling ctx triggers the cancellation
// pipe file; the request may still resolve normally if tsserver completed
// before observing the cancellation.
func (c *Client) Request(ctx context.Context, command string, args any) (*tsp.Response, error) {
	seq := c.nextSeq()

	p := &pendingRequest{command: command, ch: make(chan requestResult, 1)}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.pending[seq] = p
	c.mu.Unlock()

	if err := c.send(seq, command, args); err != nil {
		c.mu.Lock()
		delete(c.pending, seq)
		c.mu.Unlock()
		return nil, err
	}

	select {
	case res := <-p.ch:
		return res.resp, res.err
	case <-ctx.Done():
		c.Cancel(seq)
		select {
		case res := <-p.ch:
			c.removeCancellationPipe(seq)
			return res.resp, res.err
		default:
			go func() {
				<-p.ch
				c.removeCancellationPipe(seq)
			}()
			return nil, ctx.Err()
		}
	}
}

// Cancel writes the empty cancellation pipe file for seq, if a
// CancellationPipeName is configured. It is best-effort: errors are logged,
// never returned to the caller (spec §5: "writing to the cancellation-pipe
// file does not suspend the handler").
func (c *Client) Cancel(seq int64) {
	if c.cfg.CancellationPipeName == "" {
		return
	}
	f, err := os.Create(c.cancellationPipePath(seq))
	if err != nil {
		c.logger.WithError(err).WithField("seq", seq).Debug("tsserver: write cancellation pipe failed")
		return
	}
	_ = f.Close()
}

func (c *Client) cancellationPipePath(seq int64) string {
	return c.cfg.CancellationPipeName + strconv.FormatInt(seq, 10)
}

// removeCancellationPipe deletes the cancellation pipe file for seq once the
// request has settled (spec §4.3: "after the future settles, removes that
// file"). Best-effort, mirroring Cancel.
func (c *Client) removeCancellationPipe(seq int64) {
	if c.cfg.CancellationPipeName == "" {
		return
	}
	if err := os.Remove(c.cancellationPipePath(seq)); err != nil && !os.IsNotExist(err) {
		c.logger.WithError(err).WithField("seq", seq).Debug("tsserver: remove cancellation pipe failed")
	}
}

// Close terminates the tsserver process, first politely then forcibly.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	_ = c.stdin.Close()
	if c.cmd.Process == nil {
		return nil
	}
	if runtime.GOOS != "windows" {
		_ = c.cmd.Process.Signal(os.Interrupt)
	}
	done := make(chan error, 1)
	go func() { done <- c.cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(shutdownGrace):
	}
	// tsserver spawns its own watcher/worker processes; kill the whole group
	// rather than just the direct child so none of them survive as orphans.
	if err := killProcessGroup(c.cmd.Process.Pid); err != nil {
		_ = c.cmd.Process.Kill()
	}
	return <-done
}

// CancellationPipeDir returns the directory component of the configured
// cancellation pipe prefix, creating it if necessary, or "" if no prefix is
// configured.
func CancellationPipeDir(prefix string) (string, error) {
	if prefix == "" {
		return "", nil
	}
	dir := filepath.Dir(prefix)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}
