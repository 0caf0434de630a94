// Command devserver hosts the bridge handler over plain HTTP for local use.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"llm-bridge/internal/app"
	"llm-bridge/internal/config"
)

type proxyHandler interface {
	Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "devserver",
		Short:         "Run the LLM bridge locally",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var addr, envFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat endpoint over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), addr, envFile)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8787", "listen address")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file to load; ignored when missing")
	return cmd
}

func serve(ctx context.Context, addr, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	h, err := app.NewHandler(ctx, cfg, app.Options{})
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("devserver listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func newRouter(h proxyHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Any("/*path", func(c *gin.Context) {
		event, err := toProxyRequest(c.Request)
		if err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		resp, err := h.Handle(c.Request.Context(), event)
		if err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		for k, v := range resp.Headers {
			c.Header(k, v)
		}
		c.Status(resp.StatusCode)
		_, _ = c.Writer.WriteString(resp.Body)
	})
	return r
}

func toProxyRequest(r *http.Request) (events.APIGatewayProxyRequest, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return events.APIGatewayProxyRequest{}, fmt.Errorf("read body: %w", err)
	}
	headers := make(map[string]string, len(r.Header)+1)
	for k, v := range r.Header {
		headers[k] = strings.Join(v, ",")
	}
	headers["Host"] = r.Host
	if headers["X-Forwarded-Proto"] == "" {
		proto := "http"
		if r.TLS != nil {
			proto = "https"
		}
		headers["X-Forwarded-Proto"] = proto
	}
	return events.APIGatewayProxyRequest{
		HTTPMethod: r.Method,
		Path:       r.URL.Path,
		Headers:    headers,
		Body:       string(body),
	}, nil
}
