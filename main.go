// Command pongarena starts the Pong Arena server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing the REST API, the player WebSocket and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags default to environment variables (a .env file is loaded first) and
// control the listen address, game configurations, persistence paths, the
// credential secret, the optional NATS and Consul integrations and ngrok
// tunneling for external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mcp-training/pongarena/api"
	"github.com/wricardo/mcp-training/pongarena/auth"
	"github.com/wricardo/mcp-training/pongarena/discovery"
	"github.com/wricardo/mcp-training/pongarena/events"
	"github.com/wricardo/mcp-training/pongarena/game/config"
	"github.com/wricardo/mcp-training/pongarena/game/match"
	"github.com/wricardo/mcp-training/pongarena/game/service"
	"github.com/wricardo/mcp-training/pongarena/game/social"
	"github.com/wricardo/mcp-training/pongarena/transport/mcp"
	"github.com/wricardo/mcp-training/pongarena/transport/websocket"
	"go.uber.org/multierr"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Pong Arena Server"
)

// Configuration flags control how the server starts and which services are enabled.
var (
	port         = flag.Int("port", config.EnvInt("PORT", 8080), "HTTP server port")
	host         = flag.String("host", config.EnvString("HOST", "localhost"), "HTTP server host")
	configDir    = flag.String("config-dir", config.EnvString("CONFIG_DIR", "configs"), "Directory containing game configurations")
	gameConfig   = flag.String("game-config", config.EnvString("GAME_CONFIG", ""), "Configuration used when an invitation names none")
	matchesDir   = flag.String("matches-dir", config.EnvString("MATCHES_DIR", "matches"), "Directory finished matches are recorded in")
	friendsFile  = flag.String("friends-file", config.EnvString("FRIENDS_FILE", "friends.json"), "File the friend graph is persisted to")
	usersFile    = flag.String("users-file", config.EnvString("USERS_FILE", ""), "Optional JSON or YAML list of known identities")
	jwtSecret    = flag.String("jwt-secret", config.EnvString("JWT_SECRET", ""), "HS256 secret player credentials are signed with")
	natsURL      = flag.String("nats-url", config.EnvString("NATS_URL", ""), "NATS server for domain events (disabled when empty)")
	consulAddr   = flag.String("consul", config.EnvString("CONSUL_HTTP_ADDR", ""), "Consul agent to register with (disabled when empty)")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", config.EnvBool("NGROK_ENABLED", false), "Enable ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain  = flag.String("ngrok-domain", config.EnvString("NGROK_DOMAIN", ""), "Custom ngrok domain (optional)")
)

const shutdownTimeout = 10 * time.Second

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Available modes:\n")
		fmt.Fprintf(os.Stderr, "  server, http     Run HTTP server with API, WebSocket, and MCP endpoint (default)\n")
		fmt.Fprintf(os.Stderr, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(os.Stderr, "  mcp-stdio        Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "  mcp              Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -jwt-secret s3cret             # Run HTTP server on default port 8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -port 9090 -nats-url nats://localhost:4222\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s stdio-mcp                      # Run MCP stdio server\n", os.Args[0])
	}
}

// arena holds the wired components of a running server
type arena struct {
	configs   *config.Manager
	svc       *service.Service
	graph     *social.Graph
	recorder  *match.Recorder
	publisher events.Publisher
	hub       *websocket.Hub
}

// main parses flags, initializes services, and starts the selected mode.
func main() {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}

	args := flag.Args()
	mode := "server"
	if len(args) > 0 {
		mode = args[0]
	}

	log.Printf("Starting %s v%s (mode: %s)", AppName, Version, mode)

	a, err := initializeServices()
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		runStdioMCPWithInternalServer(a)

	case "server", "http":
		if err := runHTTPServer(a); err != nil {
			log.Fatalf("Server error: %v", err)
		}

	default:
		log.Fatalf("Unknown mode: %s. Use 'server' (default) or 'stdio-mcp'", mode)
	}
}

// initializeServices wires configuration, credentials, persistence, events
// and the arena service.
func initializeServices() (*arena, error) {
	configManager, err := config.NewManager(*configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	if *gameConfig != "" {
		if err := configManager.SetDefault(*gameConfig); err != nil {
			return nil, fmt.Errorf("failed to set default config: %w", err)
		}
	}

	var directory auth.Directory
	if *usersFile != "" {
		users, err := auth.LoadFileDirectory(*usersFile)
		if err != nil {
			return nil, err
		}
		log.Printf("Loaded %d known identities from %s", users.Len(), *usersFile)
		directory = users
	}
	validator, err := auth.NewValidator([]byte(*jwtSecret), directory)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential validator: %w", err)
	}

	edges, err := social.NewFileEdgeStore(*friendsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open friends file: %w", err)
	}
	graph, err := social.NewGraph(edges)
	if err != nil {
		return nil, fmt.Errorf("failed to load friend graph: %w", err)
	}

	results, err := match.NewFileStore(*matchesDir)
	if err != nil {
		graph.Close()
		return nil, err
	}
	recorder := match.NewRecorder(results)
	recorder.OnSaved(func(r match.Result) {
		log.Printf("Recorded match %s: %s %d - %d %s (%s)", r.ID, r.PlayerA, r.ScoreA, r.ScoreB, r.PlayerB, r.Reason)
	})

	var publisher events.Publisher = events.NopPublisher{}
	if *natsURL != "" {
		p, err := events.NewNATSPublisher(*natsURL, AppName)
		if err != nil {
			// Events are an optional side channel.
			log.Printf("Warning: %v; domain events disabled", err)
		} else {
			log.Printf("Publishing domain events to %s", *natsURL)
			publisher = p
		}
	}

	svc, err := service.NewService(service.Options{
		Validator: validator,
		Configs:   configManager,
		Graph:     graph,
		Results:   results,
		Recorder:  recorder,
		Publisher: publisher,
	})
	if err != nil {
		recorder.Close()
		graph.Close()
		return nil, multierr.Append(fmt.Errorf("failed to create service: %w", err), publisher.Close())
	}

	return &arena{
		configs:   configManager,
		svc:       svc,
		graph:     graph,
		recorder:  recorder,
		publisher: publisher,
		hub:       websocket.NewHub(svc),
	}, nil
}

// router combines the REST API, the player WebSocket and the /mcp endpoint
func (a *arena) router(baseURL string) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", api.NewServer(a.svc, a.hub))
	mainRouter.Handle("/mcp", mcpHandler(mcp.NewClient(baseURL)))
	return mainRouter
}

// close ends live matches, disconnects players and flushes both writers
func (a *arena) close() error {
	a.svc.Shutdown()
	a.hub.Stop()
	a.recorder.Close()
	a.graph.Close()
	return a.publisher.Close()
}

// mcpHandler serves MCP JSON-RPC messages over plain HTTP POST
func mcpHandler(client *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := client.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// runHTTPServer serves until SIGINT or SIGTERM. The listener, the optional
// ngrok tunnel and the Consul registration share one errgroup.
func runHTTPServer(a *arena) error {
	go a.hub.Run()

	addr := fmt.Sprintf("%s:%d", *host, *port)
	handler := a.router(fmt.Sprintf("http://%s", addr))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	if *ngrokEnabled {
		g.Go(func() error {
			runNgrok(gctx, handler)
			return nil
		})
	}

	var registrar *discovery.Registrar
	if *consulAddr != "" {
		r, err := discovery.Register(*consulAddr, discovery.Registration{
			ServiceName: "pong-arena",
			Host:        *host,
			Port:        *port,
			Tags:        []string{"http", "websocket", "mcp"},
		})
		if err != nil {
			log.Printf("Warning: consul registration failed: %v", err)
		} else {
			registrar = r
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err := g.Wait()

	if registrar != nil {
		err = multierr.Append(err, registrar.Deregister())
	}
	err = multierr.Append(err, a.close())

	log.Println("Server stopped")
	return err
}

// runNgrok serves handler through an ngrok tunnel until ctx is done. A
// missing token or a failed tunnel only logs; the local listener keeps
// serving.
func runNgrok(ctx context.Context, handler http.Handler) {
	authToken := *ngrokAuth
	if authToken == "" {
		authToken = os.Getenv("NGROK_AUTHTOKEN")
		if authToken == "" {
			authToken = os.Getenv("NGROK_AUTH_TOKEN")
		}
	}
	if authToken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if *ngrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(*ngrokDomain))
		log.Printf("Using custom ngrok domain: %s", *ngrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("🚀 Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at http://localhost:<port>; if unavailable, it
// starts an internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(a *arena) {
	var baseURL string

	externalURL := fmt.Sprintf("http://localhost:%d", *port)
	log.Printf("Checking for external API server at %s...", externalURL)

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/api")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Printf("External API server found at %s, using it for MCP", externalURL)
		baseURL = externalURL
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			log.Fatalf("Failed to get available port: %v", err)
		}

		internalAddr := listener.Addr().String()
		baseURL = fmt.Sprintf("http://%s", internalAddr)
		log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		go a.hub.Run()
		httpServer := &http.Server{Handler: a.router(baseURL)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()
		defer httpServer.Close()
	}

	mcpClient := mcp.NewClient(baseURL)

	if baseURL == externalURL {
		log.Println("MCP stdio server ready (using external HTTP server)")
	} else {
		log.Println("MCP stdio server ready (using internal HTTP server)")
	}

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		log.Printf("MCP stdio server error: %v", err)
	}
	if err := a.close(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
