package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is the MCP server version.
const Version = "0.1.0"

// Server exposes the guideline pipeline as MCP tools and resources.
type Server struct {
	ports        *Ports
	server       *mcp.Server
	instructions string
}

// NewServer creates a new MCP server with the given ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "guidekit",
		Title:   "Clinical guideline knowledge index",
		Version: Version,
	}

	s := &Server{
		ports:        ports,
		instructions: instructions(ports),
	}
	s.server = mcp.NewServer(impl, &mcp.ServerOptions{Instructions: s.instructions})

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Instructions returns the workflow description sent to clients on initialisation.
func (s *Server) Instructions() string {
	return s.instructions
}

// instructions describes the workflow for the tools the ports enable.
func instructions(p *Ports) string {
	var b strings.Builder
	b.WriteString("guidekit indexes clinical guideline documents and ranks their chapters for free-text queries. ")
	b.WriteString("Use search_guidelines to find chapters and get_chapter to read one in full.")

	if p.Registry != nil || p.Processing != nil {
		b.WriteString("\n\nIngestion: scan_documents registers new files from the watch directory; ")
		b.WriteString("process_pending extracts and indexes them and reports an outcome per document. ")
		b.WriteString("Classification of type and year is a hint and may be missing.")
	}
	if p.Proposals != nil {
		b.WriteString("\n\nDecision functions: propose_function returns generated code and its code_hash. ")
		b.WriteString("Show the code to the user. Call approve_function only after the user has reviewed it, ")
		b.WriteString("passing the exact code_hash and a lower_snake_case name chosen by the user. ")
		b.WriteString("A proposal is decided once; approve or reject on a decided proposal fails.")
	}
	if p.Broker != nil {
		b.WriteString("\n\nExternal updates: propose_web_update lists ranked options and never touches the network. ")
		b.WriteString("Call confirm_web_update with one option the user picked; a proposal can be confirmed once.")
	}
	if p.Notifications != nil {
		b.WriteString("\n\nlist_notifications reports new documents, processing results and decisions.")
	}
	return b.String()
}

// Run starts the MCP server over stdio.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves streamable HTTP on addr until the context is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
