package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/pdbridge/native"
	"github.com/wippyai/pdbridge/network"
	"github.com/wippyai/pdbridge/runtime"
	"github.com/wippyai/pdbridge/simhost"
	"github.com/wippyai/pdbridge/sound"
)

// headerList collects repeated -H flags.
type headerList []string

func (h *headerList) String() string { return strings.Join(*h, ", ") }

func (h *headerList) Set(v string) error {
	if !strings.Contains(v, ":") {
		return fmt.Errorf("header %q is not Key: Value", v)
	}
	*h = append(*h, v)
	return nil
}

func (h headerList) block() []byte {
	if len(h) == 0 {
		return nil
	}
	return []byte(strings.Join(h, "\r\n") + "\r\n")
}

type options struct {
	req     request
	access  native.AccessReply
	consent bool
	fps     int
	verbose bool
}

func main() {
	var (
		rawURL      = flag.String("url", "", "Request URL (overrides -server/-port/-path/-ssl)")
		server      = flag.String("server", "", "Server host name")
		port        = flag.Int("port", 80, "Server port")
		path        = flag.String("path", "/", "Request path")
		useSSL      = flag.Bool("ssl", false, "Use TLS")
		method      = flag.String("method", "GET", "HTTP method")
		data        = flag.String("data", "", "Request body")
		timeout     = flag.Duration("timeout", 10*time.Second, "Connect and read timeout")
		access      = flag.String("access", "allow", "Simulated access policy (allow, deny, ask)")
		consent     = flag.Bool("consent", true, "Answer given to an access prompt when -access=ask")
		purpose     = flag.String("purpose", "pdsim request", "Purpose shown with the access request")
		fps         = flag.Int("fps", 30, "Frame rate")
		verbose     = flag.Bool("v", false, "Verbose logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		headers     headerList
	)
	flag.Var(&headers, "H", "Request header (repeatable, Key: Value)")
	flag.Parse()

	opts := options{
		req: request{
			server:  *server,
			port:    *port,
			ssl:     *useSSL,
			method:  *method,
			path:    *path,
			headers: headers.block(),
			timeout: *timeout,
			purpose: *purpose,
		},
		consent: *consent,
		fps:     *fps,
		verbose: *verbose,
	}
	if *data != "" {
		opts.req.body = []byte(*data)
	}
	if *rawURL != "" {
		if err := opts.req.parseTarget(*rawURL); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if _, err := timeoutMillis(*timeout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: -timeout: %v\n", err)
		os.Exit(1)
	}

	var err error
	if opts.access, err = parseAccess(*access); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if opts.req.server == "" {
		fmt.Fprintln(os.Stderr, "Usage: pdsim -url <url> [-method M] [-H 'Key: Value'] [-data body]")
		fmt.Fprintln(os.Stderr, "       pdsim -server <host> [-port N] [-path /p] [-ssl]")
		fmt.Fprintln(os.Stderr, "       pdsim -url <url> -i  (interactive mode)")
		os.Exit(1)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: -i needs a terminal on stdout")
			os.Exit(1)
		}
		if err := runInteractive(opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseAccess(s string) (native.AccessReply, error) {
	switch strings.ToLower(s) {
	case "allow":
		return native.AccessAllow, nil
	case "deny":
		return native.AccessDeny, nil
	case "ask":
		return native.AccessAsk, nil
	}
	return 0, fmt.Errorf("unknown access policy %q", s)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}

// session is the host, runtime and runner behind one fetch.
type session struct {
	host   *simhost.Host
	rt     *runtime.Runtime
	runner *runtime.Runner
	app    *fetchApp
}

func newSession(opts options, log *zap.Logger) (*session, error) {
	network.SetLogger(log.Named("network"))
	sound.SetLogger(log.Named("sound"))
	runtime.SetLogger(log.Named("runtime"))

	host := simhost.New().
		WithLogger(log.Named("host")).
		WithFrameRate(opts.fps).
		WithAccessReply(opts.access, opts.consent)

	rt, err := runtime.New(host.API(), runtime.NewConfig().WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("create runtime: %w", err)
	}

	app := newFetchApp(opts.req)
	runner, err := runtime.NewRunner(rt, func(*runtime.Runtime) (runtime.App, error) {
		return app, nil
	})
	if err != nil {
		return nil, fmt.Errorf("create runner: %w", err)
	}
	return &session{host: host, rt: rt, runner: runner, app: app}, nil
}

// frame runs one application frame and reports whether the fetch is over.
func (s *session) frame() (bool, error) {
	if err := s.runner.Update(); err != nil {
		return true, err
	}
	return s.app.Done(), nil
}

func (s *session) close() {
	s.app.release()
	s.host.Close()
}

func run(ctx context.Context, opts options) error {
	log, err := newLogger(opts.verbose)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	s, err := newSession(opts, log)
	if err != nil {
		return err
	}
	defer s.close()

	printed := 0
	flush := func() {
		for ; printed < len(s.app.trace); printed++ {
			fmt.Println(s.app.trace[printed])
		}
	}

	err = s.host.Run(ctx, func() error {
		done, err := s.frame()
		flush()
		if err != nil {
			return err
		}
		if done {
			return simhost.ErrStop
		}
		return nil
	})
	flush()

	for _, msg := range s.host.Console {
		fmt.Fprintln(os.Stderr, msg)
	}
	if err != nil {
		return err
	}

	if len(s.app.body) > 0 {
		fmt.Printf("\n--- body (%d bytes) ---\n%s\n", len(s.app.body), s.app.body)
	}
	if s.app.failed {
		return errors.New("request failed")
	}
	return nil
}
