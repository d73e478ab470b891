// Package server exposes the GraphQL gateway over HTTP. The handler parses
// single and batched requests, validates them against the schema, and runs
// them through the execution engine.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/groupgate/groupgate/internal/authz"
	"github.com/groupgate/groupgate/internal/engine"
	"github.com/groupgate/groupgate/internal/eventbus"
	"github.com/groupgate/groupgate/internal/events"
	"github.com/groupgate/groupgate/internal/identity"
	"github.com/groupgate/groupgate/internal/language"
)

type Options struct {
	// Timeout sets a default timeout if the incoming request context has
	// none. 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses.
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }

// Handler serves the GraphQL endpoint.
type Handler struct {
	schema *language.Schema
	engine *engine.Engine
	opt    Options
}

func NewHandler(sch *language.Schema, eng *engine.Engine, opts ...Option) *Handler {
	op := Options{Timeout: 10 * time.Second}
	for _, f := range opts {
		f(&op)
	}
	return &Handler{schema: sch, engine: eng, opt: op}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	// Memoize membership lookups for the lifetime of this request.
	ctx = authz.WithRequestScope(ctx)

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse("method not allowed"), h.opt.Pretty)
		return
	}

	req, batch, perr := parseRequest(r, h.opt.MaxBodyBytes)
	if perr != nil {
		status := http.StatusBadRequest
		if perr.Error() == errBodyTooLarge {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, errorResponse(perr.Error()), h.opt.Pretty)
		return
	}

	if batch != nil {
		out := make([]any, len(batch))
		for i := range batch {
			out[i] = h.executeOne(ctx, batch[i])
		}
		writeJSON(w, http.StatusOK, out, h.opt.Pretty)
		return
	}
	writeJSON(w, http.StatusOK, h.executeOne(ctx, req), h.opt.Pretty)
}

func (h *Handler) executeOne(ctx context.Context, req graphQLRequest) any {
	doc, err := language.LoadQuery(h.schema, req.Query)
	if err != nil {
		return errorResponse(err.Error())
	}

	opType := ""
	if op := operationFor(doc, req.OperationName); op != nil {
		opType = string(op.Operation)
	}
	id := identity.FromContext(ctx)

	start := time.Now()
	eventbus.Publish(ctx, events.GraphQLStart{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: opType,
		UserID:        id.ID,
	})
	result := h.engine.Execute(ctx, doc, req.OperationName, req.Variables)
	errs := make([]error, len(result.Errors))
	for i := range result.Errors {
		errs[i] = result.Errors[i]
	}
	eventbus.Publish(ctx, events.GraphQLFinish{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: opType,
		UserID:        id.ID,
		Errors:        errs,
		Duration:      time.Since(start),
	})
	return result
}

func operationFor(doc *language.QueryDocument, name string) *language.OperationDefinition {
	if op := doc.Operations.ForName(name); op != nil {
		return op
	}
	if name == "" && len(doc.Operations) == 1 {
		return doc.Operations[0]
	}
	return nil
}

type graphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

const errBodyTooLarge = "body too large"

func parseRequest(r *http.Request, maxBody int64) (graphQLRequest, []graphQLRequest, error) {
	if r.Method == http.MethodGet {
		q := r.URL.Query().Get("query")
		if q == "" {
			return graphQLRequest{}, nil, errParse("missing 'query'")
		}
		vars := map[string]any{}
		if v := r.URL.Query().Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &vars); err != nil {
				return graphQLRequest{}, nil, errParse("invalid 'variables' JSON")
			}
		}
		return graphQLRequest{
			Query:         q,
			OperationName: r.URL.Query().Get("operationName"),
			Variables:     vars,
		}, nil, nil
	}

	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" && !strings.HasPrefix(ct, "application/json;") {
		return graphQLRequest{}, nil, errParse("unsupported Content-Type")
	}

	reader := io.Reader(r.Body)
	if maxBody > 0 {
		reader = io.LimitReader(r.Body, maxBody+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return graphQLRequest{}, nil, errParse("failed to read body")
	}
	defer r.Body.Close()
	if maxBody > 0 && int64(len(body)) > maxBody {
		return graphQLRequest{}, nil, errParse(errBodyTooLarge)
	}

	if len(body) > 0 && body[0] == '[' {
		var batch []graphQLRequest
		if err := json.Unmarshal(body, &batch); err != nil {
			return graphQLRequest{}, nil, errParse("invalid JSON")
		}
		if len(batch) == 0 {
			return graphQLRequest{}, nil, errParse("empty batch")
		}
		return graphQLRequest{}, batch, nil
	}

	var req graphQLRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return graphQLRequest{}, nil, errParse("invalid JSON")
	}
	if req.Query == "" {
		return graphQLRequest{}, nil, errParse("missing 'query'")
	}
	if req.Variables == nil {
		req.Variables = map[string]any{}
	}
	return req, nil, nil
}

type parseError string

func (e parseError) Error() string { return string(e) }

func errParse(msg string) error { return parseError(msg) }

type errorEnvelope struct {
	Data   any                   `json:"data"`
	Errors []engine.GraphQLError `json:"errors"`
}

func errorResponse(msg string) errorEnvelope {
	return errorEnvelope{Errors: []engine.GraphQLError{{Message: msg}}}
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}
