// Package server provides the markdown preview server: HTTP routes for
// rendered documents and images, a WebSocket hub that pushes reload signals
// to connected viewers, and the binding/browser-open plumbing around them.
//
// The server composes the document registry, the file watcher, and the reload
// broadcaster into one process. The watch pump applies file events to the
// registry and publishes reloads; the hub fans those out to every open page.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/conneroisu/mdserve/internal/config"
	"github.com/conneroisu/mdserve/internal/logging"
	"github.com/conneroisu/mdserve/internal/registry"
	"github.com/conneroisu/mdserve/internal/renderer"
	"github.com/conneroisu/mdserve/internal/scanner"
	"github.com/conneroisu/mdserve/internal/validation"
	"github.com/conneroisu/mdserve/internal/watcher"
)

// maxPortAttempts bounds how far past the requested port the server probes
// when the requested one is taken.
const maxPortAttempts = 100

// PreviewServer serves rendered markdown with live reload capability
type PreviewServer struct {
	config       *config.Config
	log          logging.Logger
	registry     *registry.DocumentRegistry
	broadcaster  *registry.Broadcaster
	watcher      *watcher.FileWatcher
	pump         *watcher.Pump
	httpServer   *http.Server
	boundAddr    string
	serverMutex  sync.RWMutex // Protects httpServer and boundAddr
	clients      map[*websocket.Conn]*Client
	clientsMutex sync.RWMutex
	register     chan *Client
	unregister   chan *websocket.Conn
	directory    bool
	shutdownOnce sync.Once
}

// New creates a preview server for cfg.TargetPath. A regular file is served
// as a fixed single document; a directory is scanned recursively and new
// documents are admitted as they appear.
func New(cfg *config.Config, log logging.Logger) (*PreviewServer, error) {
	info, err := os.Stat(cfg.TargetPath)
	if err != nil {
		return nil, fmt.Errorf("cannot serve %s: %w", cfg.TargetPath, err)
	}

	var (
		root         string
		initialPaths []string
		directory    = info.IsDir()
	)

	if directory {
		root = cfg.TargetPath
		initialPaths, err = scanner.FindDocuments(root)
		if err != nil {
			return nil, err
		}
	} else {
		abs, err := filepath.Abs(cfg.TargetPath)
		if err != nil {
			return nil, fmt.Errorf("cannot serve %s: %w", cfg.TargetPath, err)
		}
		root = filepath.Dir(abs)
		initialPaths = []string{abs}
	}

	reg, err := registry.New(root, initialPaths, directory, renderer.Render)
	if err != nil {
		return nil, err
	}

	fileWatcher, err := watcher.NewFileWatcher(log)
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	broadcaster := registry.NewBroadcaster()
	pump := watcher.NewPump(fileWatcher.Events(), reg, broadcaster, log)

	return &PreviewServer{
		config:      cfg,
		log:         log.WithComponent("server"),
		registry:    reg,
		broadcaster: broadcaster,
		watcher:     fileWatcher,
		pump:        pump,
		clients:     make(map[*websocket.Conn]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *websocket.Conn),
		directory:   directory,
	}, nil
}

// Start watches the root, binds the listener, and serves until the listener
// closes or ctx is cancelled. It blocks; run Shutdown from another goroutine
// to stop it.
func (s *PreviewServer) Start(ctx context.Context) error {
	if err := s.watcher.AddRecursive(s.registry.Root()); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.registry.Root(), err)
	}
	s.watcher.Start(ctx)
	go s.pump.Run(ctx)
	go s.runWebSocketHub(ctx)

	listener, actualPort, err := bindWithPortIncrement(s.config.Server.Host, s.config.Server.Port)
	if err != nil {
		return err
	}

	if s.config.Server.Port != 0 && actualPort != s.config.Server.Port {
		fmt.Printf("⚠️  Port %d in use, using %d instead\n", s.config.Server.Port, actualPort)
	}

	listenAddr := FormatHost(s.config.Server.Host, actualPort)

	s.serverMutex.Lock()
	s.boundAddr = listenAddr
	s.httpServer = &http.Server{Handler: s.routes()}
	server := s.httpServer
	s.serverMutex.Unlock()

	if s.directory {
		fmt.Printf("📁 Serving markdown files from: %s\n", s.registry.Root())
	} else if keys := s.registry.Keys(); len(keys) > 0 {
		fmt.Printf("📄 Serving markdown file: %s\n", keys[0])
	}
	fmt.Printf("🌐 Server running at: http://%s\n", listenAddr)
	fmt.Printf("⚡ Live reload enabled\n")
	fmt.Printf("\nPress Ctrl+C to stop the server\n")

	if s.config.Server.Open {
		browseAddr := FormatHost(BrowsableHost(s.config.Server.Host), actualPort)
		go s.openBrowser("http://" + browseAddr)
	}

	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Addr returns the host:port the server bound, empty before Start succeeds.
func (s *PreviewServer) Addr() string {
	s.serverMutex.RLock()
	defer s.serverMutex.RUnlock()
	return s.boundAddr
}

// Registry exposes the document registry, primarily for the CLI to report
// what is being served.
func (s *PreviewServer) Registry() *registry.DocumentRegistry {
	return s.registry
}

// Shutdown gracefully shuts down the server and cleans up resources
func (s *PreviewServer) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.log.Info(ctx, "Shutting down server")

		if err := s.watcher.Close(); err != nil {
			s.log.Warn(ctx, err, "Failed to close file watcher")
		}

		s.broadcaster.Close()

		// Close all WebSocket connections
		s.clientsMutex.Lock()
		for conn, client := range s.clients {
			close(client.send)
			conn.Close(websocket.StatusNormalClosure, "")
		}
		s.clients = make(map[*websocket.Conn]*Client)
		s.clientsMutex.Unlock()

		s.serverMutex.RLock()
		server := s.httpServer
		s.serverMutex.RUnlock()

		if server != nil {
			shutdownErr = server.Shutdown(ctx)
		}
	})

	return shutdownErr
}

// bindWithPortIncrement binds host:startPort, stepping the port upward past
// occupied ones. Port 0 delegates the choice to the OS and never steps. The
// returned port is the one actually bound.
func bindWithPortIncrement(host string, startPort int) (net.Listener, int, error) {
	port := startPort
	for {
		listener, err := net.Listen("tcp", FormatHost(host, port))
		if err == nil {
			actual := listener.Addr().(*net.TCPAddr).Port
			return listener, actual, nil
		}

		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, 0, fmt.Errorf("failed to bind to %s: %w", FormatHost(host, port), err)
		}
		if port-startPort+1 >= maxPortAttempts || port >= 65535 {
			return nil, 0, fmt.Errorf("no available port found after trying %d-%d: %w", startPort, port, err)
		}
		port++
	}
}

// FormatHost joins hostname and port for URLs, bracketing IPv6 literals.
func FormatHost(hostname string, port int) string {
	return net.JoinHostPort(hostname, fmt.Sprintf("%d", port))
}

// BrowsableHost maps wildcard bind addresses to loopback so the browser gets
// a reachable URL.
func BrowsableHost(hostname string) string {
	ip := net.ParseIP(hostname)
	if ip == nil || !ip.IsUnspecified() {
		return hostname
	}
	if ip.To4() != nil {
		return "127.0.0.1"
	}
	return "::1"
}

func (s *PreviewServer) openBrowser(url string) {
	time.Sleep(100 * time.Millisecond) // Give server time to start

	// Validate URL for security before passing to system commands
	if err := validation.ValidateURL(url); err != nil {
		s.log.Warn(context.Background(), err, "Browser open refused, invalid URL")
		return
	}

	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = fmt.Errorf("unsupported platform")
	}

	if err != nil {
		s.log.Warn(context.Background(), err, "Failed to open browser")
	}
}
