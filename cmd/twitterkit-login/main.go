package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	twitterkit "github.com/goliatone/go-twitterkit"
	"github.com/goliatone/go-twitterkit/core"
	"github.com/goliatone/go-twitterkit/inbound"
	"github.com/goliatone/go-twitterkit/security"
)

const shutdownTimeout = 5 * time.Second

type loginResult struct {
	session core.Session
	err     error
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	listenAddr := flag.String("listen", "127.0.0.1:8765", "address of the local callback listener")
	outFile := flag.String("out", "", "write the session to this file instead of stdout")
	sessionKey := flag.String("session-key", os.Getenv("TWITTERKIT_SESSION_KEY"), "seal the written session with this key")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	codec, err := sessionCodec(*sessionKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := run(ctx, *listenAddr, *outFile, codec); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, listenAddr string, outFile string, codec core.SessionCodec) error {
	kit, err := twitterkit.New(twitterkit.Config{},
		twitterkit.WithConfigProvider(core.NewCfgxConfigProvider(core.EnvConfigLoader{Lookup: os.LookupEnv})),
	)
	if err != nil {
		return fmt.Errorf("configure twitterkit (set TWITTERKIT_CONSUMER_KEY and TWITTERKIT_CONSUMER_SECRET): %w", err)
	}

	challenge, err := kit.BeginLogin(ctx)
	if err != nil {
		return fmt.Errorf("request temporary token: %w", err)
	}

	results := make(chan loginResult, 1)
	complete := func(ctx context.Context, req inbound.CallbackRequest) (core.Session, error) {
		result, err := kit.HandleCallback(ctx, req)
		if result.Denied {
			select {
			case results <- loginResult{err: err}:
			default:
			}
			return core.Session{}, err
		}
		if err != nil || result.Deduped {
			return result.Session, err
		}
		select {
		case results <- loginResult{session: result.Session}:
		default:
		}
		return result.Session, nil
	}

	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddr, err)
	}
	server := &http.Server{
		Handler:           newRouter(complete),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			results <- loginResult{err: err}
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	fmt.Println("Open this URL and approve access:")
	fmt.Println()
	fmt.Println("  " + challenge.AuthorizationURL)
	fmt.Println()
	fmt.Printf("Then paste the redirect URL here, or send it to http://%s/callback\n", listener.Addr())

	go readPastedCallback(ctx, complete, results)

	select {
	case <-ctx.Done():
		kit.CancelLogin(challenge.TempToken.Token)
		return ctx.Err()
	case result := <-results:
		if result.err != nil {
			kit.CancelLogin(challenge.TempToken.Token)
			return result.err
		}
		return writeSession(result.session, outFile, codec)
	}
}

func newRouter(complete inbound.CallbackHandlerFunc) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		req, err := inbound.ParseCallback(r.URL.Query())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		session, err := complete(r.Context(), req)
		if err != nil {
			http.Error(w, err.Error(), core.MapError(err).Code)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "Signed in as @%s. You can close this window.\n", session.UserName)
	}).Methods(http.MethodGet)
	return router
}

func readPastedCallback(ctx context.Context, complete inbound.CallbackHandlerFunc, results chan<- loginResult) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		req, err := inbound.ParseCallbackURL(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not read callback: %v\n", err)
			continue
		}
		if _, err := complete(ctx, req); err != nil {
			select {
			case results <- loginResult{err: err}:
			default:
			}
			return
		}
		return
	}
}

func sessionCodec(key string) (core.SessionCodec, error) {
	if strings.TrimSpace(key) == "" {
		return core.JSONSessionCodec{}, nil
	}
	sealer, err := security.NewAppKeySealerFromString(key)
	if err != nil {
		return nil, err
	}
	return security.NewSealedSessionCodec(sealer), nil
}

func writeSession(session core.Session, outFile string, codec core.SessionCodec) error {
	payload, err := codec.Encode(session)
	if err != nil {
		return err
	}
	if outFile == "" {
		fmt.Println(string(payload))
		return nil
	}
	if err := os.WriteFile(outFile, payload, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	fmt.Printf("Session for @%s written to %s\n", session.UserName, outFile)
	return nil
}
