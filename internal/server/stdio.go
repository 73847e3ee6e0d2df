package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sync"

	"masmnav/internal/config"
	derrors "masmnav/internal/core/errors"
	"masmnav/internal/nav"
	"masmnav/internal/shared/util"
)

// Server answers navigation queries over a line-delimited JSON protocol on
// stdio. Both JSON-RPC 2.0 framing and the legacy {"tool": ...} framing are
// accepted.
type Server struct {
	svc     *nav.Service
	limiter *util.Limiter

	in  io.Reader
	out io.Writer

	mu      sync.Mutex
	running bool
}

func New(svc *nav.Service, cfg config.Server) *Server {
	s := &Server{svc: svc, in: os.Stdin, out: os.Stdout}
	if cfg.RateLimitEnabled {
		s.limiter = util.NewPerMinuteLimiter(cfg.RequestsPerMinute, cfg.Burst)
	}
	return s
}

// SetStreams overrides stdin/stdout, primarily for tests.
func (s *Server) SetStreams(in io.Reader, out io.Writer) {
	s.in = in
	s.out = out
}

type toolRequest struct {
	ID   any            `json:"id,omitempty"`
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

type toolResponse struct {
	ID     any       `json:"id,omitempty"`
	OK     bool      `json:"ok"`
	Result any       `json:"result,omitempty"`
	Error  *rpcError `json:"error,omitempty"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id,omitempty"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		<-ctx.Done()
		return ctx.Err()
	}
	s.running = true
	s.mu.Unlock()

	err := s.serve(ctx)

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return ctx.Err()
}

func (s *Server) serve(ctx context.Context) error {
	decoder := json.NewDecoder(bufio.NewReader(s.in))
	writer := bufio.NewWriter(s.out)
	encoder := json.NewEncoder(writer)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var raw map[string]any
		if err := decoder.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if s.limiter != nil && !s.limiter.Allow(1) {
			resp := rpcResponse{
				JSONRPC: "2.0",
				ID:      raw["id"],
				Error:   &rpcError{Code: -32005, Message: "Rate limit exceeded"},
			}
			if err := writeResponse(encoder, writer, resp); err != nil {
				return err
			}
			continue
		}

		if handled, err := s.handleRPCMessage(ctx, raw, encoder, writer); handled || err != nil {
			if err != nil {
				return err
			}
			continue
		}

		req := parseLegacyToolRequest(raw)
		if req.Args == nil {
			req.Args = map[string]any{}
		}

		result, callErr := s.dispatch(ctx, req.Tool, req.Args)
		resp := toolResponse{ID: req.ID}
		if callErr != nil {
			resp.OK = false
			resp.Error = &rpcError{Code: -32000, Message: callErr.Error()}
		} else {
			resp.OK = true
			resp.Result = result
		}

		if err := writeResponse(encoder, writer, resp); err != nil {
			return err
		}
	}
}

func parseLegacyToolRequest(raw map[string]any) toolRequest {
	req := toolRequest{}
	if id, ok := raw["id"]; ok {
		req.ID = id
	}
	if tool, ok := raw["tool"].(string); ok {
		req.Tool = tool
	}
	if args, ok := raw["args"].(map[string]any); ok {
		req.Args = args
	}
	return req
}

func (s *Server) handleRPCMessage(ctx context.Context, raw map[string]any, encoder *json.Encoder, writer *bufio.Writer) (bool, error) {
	method, hasMethod := raw["method"].(string)
	if !hasMethod || method == "" {
		return false, nil
	}
	jsonrpc, _ := raw["jsonrpc"].(string)
	if jsonrpc == "" {
		return false, nil
	}

	params, _ := raw["params"].(map[string]any)
	if params == nil {
		params = map[string]any{}
	}

	resp := rpcResponse{JSONRPC: "2.0", ID: raw["id"]}

	switch method {
	case "ping":
		resp.Result = map[string]any{}
	default:
		result, err := s.dispatch(ctx, method, params)
		if err != nil {
			resp.Error = rpcErrorFor(err)
		} else {
			resp.Result = result
		}
	}

	return true, writeResponse(encoder, writer, resp)
}

func (s *Server) dispatch(ctx context.Context, method string, args map[string]any) (any, error) {
	switch method {
	case "definition":
		file, text, col, err := queryArgs(args)
		if err != nil {
			return nil, err
		}
		loc, found := s.svc.Definition(ctx, file, text, col)
		if !found {
			return map[string]any{"found": false}, nil
		}
		return map[string]any{
			"found":  true,
			"file":   loc.File,
			"line":   loc.Line,
			"column": loc.Column,
		}, nil

	case "hover":
		file, text, col, err := queryArgs(args)
		if err != nil {
			return nil, err
		}
		doc, found := s.svc.Hover(ctx, file, text, col)
		if !found {
			return map[string]any{"found": false}, nil
		}
		return map[string]any{"found": true, "text": doc}, nil

	case "fileChanged":
		path, ok := args["path"].(string)
		if !ok || path == "" {
			return nil, derrors.New(derrors.CodeValidationError, "path is required")
		}
		s.svc.OnFileChanged(path)
		return map[string]any{"ok": true}, nil

	default:
		return nil, derrors.New(derrors.CodeNotFound, "unknown method: "+method)
	}
}

func queryArgs(args map[string]any) (file, text string, col int, err error) {
	file, _ = args["file"].(string)
	text, _ = args["text"].(string)
	column, hasCol := args["column"].(float64)
	if file == "" || !hasCol {
		return "", "", 0, derrors.New(derrors.CodeValidationError, "file and column are required")
	}
	return file, text, int(column), nil
}

func rpcErrorFor(err error) *rpcError {
	code := -32000
	if derrors.IsCode(err, derrors.CodeValidationError) {
		code = -32602
	}
	if derrors.IsCode(err, derrors.CodeNotFound) {
		code = -32601
	}
	return &rpcError{Code: code, Message: err.Error()}
}

func writeResponse(encoder *json.Encoder, writer *bufio.Writer, resp any) error {
	if err := encoder.Encode(resp); err != nil {
		return err
	}
	return writer.Flush()
}
