package rpcjson

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/dramseie/repweb-sub001/internal/application"
	"github.com/dramseie/repweb-sub001/internal/domain"
	"go.uber.org/zap"
)

type Server struct {
	catalog   *application.CatalogService
	inventory *application.InventoryService
	graph     *application.GraphService
	listener  net.Listener
	path      string
	log       *zap.Logger
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      any             `json:"id"`
}

type response struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
	ID      any       `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func Start(path string, catalog *application.CatalogService, inventory *application.InventoryService, graph *application.GraphService, log *zap.Logger) (*Server, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("rpc socket path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		_ = os.Remove(path)
		return nil, err
	}

	s := &Server{catalog: catalog, inventory: inventory, graph: graph, listener: ln, path: path, log: log}
	go s.serve()
	return s, nil
}

func (s *Server) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

func (s *Server) Close() error {
	err := s.listener.Close()
	_ = os.Remove(s.path)
	return err
}

func (s *Server) handleConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)

	for {
		var req request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			_ = enc.Encode(response{JSONRPC: "2.0", Error: &rpcError{Code: -32700, Message: "parse error"}, ID: nil})
			return
		}

		resp := s.dispatch(context.Background(), req)
		if resp.Error != nil {
			s.log.Warn("rpc call failed", zap.String("method", req.Method), zap.Int("code", resp.Error.Code), zap.String("error", resp.Error.Message))
		} else {
			s.log.Debug("rpc call", zap.String("method", req.Method))
		}
		if err := enc.Encode(resp); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req request) response {
	if req.JSONRPC != "2.0" || strings.TrimSpace(req.Method) == "" {
		return response{JSONRPC: "2.0", Error: &rpcError{Code: -32600, Message: "invalid request"}, ID: req.ID}
	}

	switch req.Method {
	case "tenants.list":
		out, err := s.catalog.ListTenants(ctx)
		if err != nil {
			return appError(req.ID, err)
		}
		return ok(req.ID, out)
	case "tenants.create":
		var p struct {
			Code string `json:"code"`
			Name string `json:"name"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.catalog.CreateTenant(ctx, p.Code, p.Name)
		if err != nil {
			return appError(req.ID, err)
		}
		return ok(req.ID, out)
	case "tenants.update":
		var p struct {
			Tenant string `json:"tenant"`
			Name   string `json:"name"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.catalog.UpdateTenant(ctx, p.Tenant, p.Name)
		if err != nil {
			return appError(req.ID, err)
		}
		return ok(req.ID, out)
	case "tenants.delete":
		var p struct {
			Tenant string `json:"tenant"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		if err := s.catalog.DeleteTenant(ctx, p.Tenant); err != nil {
			return appError(req.ID, err)
		}
		return ok(req.ID, map[string]any{"ok": true})
	case "types.entity.list":
		var p struct {
			Tenant string `json:"tenant"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.catalog.ListEntityTypes(ctx, p.Tenant)
		if err != nil {
			return appError(req.ID, err)
		}
		return ok(req.ID, out)
	case "types.entity.create":
		var p struct {
			Tenant string `json:"tenant"`
			Code   string `json:"code"`
			Name   string `json:"name"`
			Icon   string `json:"icon"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.catalog.CreateEntityType(ctx, p.Tenant, p.Code, p.Name, p.Icon)
		if err != nil {
			return appError(req.ID, err)
		}
		return ok(req.ID, out)
	case "types.entity.update":
		var p struct {
			Tenant string `json:"tenant"`
			Code   string `json:"code"`
			Name   string `json:"name"`
			Icon   string `json:"icon"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.catalog.UpdateEntityType(ctx, p.Tenant, p.Code, p.Name, p.Icon)
		if err != nil {
			return appError(req.ID, err)
		}
		return ok(req.ID, out)
	case "types.entity.delete":
		var p struct {
			Tenant string `json:"tenant"`
			Code   string `json:"code"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		if err := s.catalog.DeleteEntityType(ctx, p.Tenant, p.Code); err != nil {
			return appError(req.ID, err)
		}
		return ok(req.ID, map[string]any{"ok": true})
	case "types.relation.list":
		var p struct {
			Tenant string `json:"tenant"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.catalog.ListRelationTypes(ctx, p.Tenant)
		if err != nil {
			return appError(req.ID, err)
		}
		return ok(req.ID, out)
	case "types.relation.create":
		var p struct {
			Tenant   string `json:"tenant"`
			Code     string `json:"code"`
			Label    string `json:"label"`
			Directed bool   `json:"directed"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.catalog.CreateRelationType(ctx, p.Tenant, p.Code, p.Label, p.Directed)
		if err != nil {
			return appError(req.ID, err)
		}
		return ok(req.ID, out)
	case "types.attribute.list":
		var p struct {
			Tenant string `json:"tenant"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.catalog.ListAttributes(ctx, p.Tenant)
		if err != nil {
			return appError(req.ID, err)
		}
		return ok(req.ID, out)
	case "types.attribute.create":
		var p struct {
			Tenant     string `json:"tenant"`
			Code       string `json:"code"`
			Label      string `json:"label"`
			DataType   string `json:"data_type"`
			Searchable bool   `json:"searchable"`
			Indexed    bool   `json:"indexed"`
			Visibility string `json:"visibility"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.catalog.CreateAttribute(ctx, p.Tenant, domain.Attribute{
			Code:       p.Code,
			Label:      p.Label,
			DataType:   domain.DataType(p.DataType),
			Searchable: p.Searchable,
			Indexed:    p.Indexed,
			Visibility: p.Visibility,
		})
		if err != nil {
			return appError(req.ID, err)
		}
		return ok(req.ID, out)
	case "types.attribute.update":
		var p struct {
			Tenant     string `json:"tenant"`
			Code       string `json:"code"`
			Label      string `json:"label"`
			Searchable bool   `json:"searchable"`
			Indexed    bool   `json:"indexed"`
			Visibility string `json:"visibility"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.catalog.UpdateAttribute(ctx, p.Tenant, p.Code, domain.Attribute{
			Label:      p.Label,
			Searchable: p.Searchable,
			Indexed:    p.Indexed,
			Visibility: p.Visibility,
		})
		if err != nil {
			return appError(req.ID, err)
		}
		return ok(req.ID, out)
	case "types.attribute.delete":
		var p struct {
			Tenant string `json:"tenant"`
			Code   string `json:"code"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		if err := s.catalog.DeleteAttribute(ctx, p.Tenant, p.Code); err != nil {
			return appError(req.ID, err)
		}
		return ok(req.ID, map[string]any{"ok": true})
	case "types.mapping.create":
		var p struct {
			Tenant       string `json:"tenant"`
			TypeCode     string `json:"type_code"`
			AttrCode     string `json:"attr_code"`
			Required     bool   `json:"required"`
			Cardinality  string `json:"cardinality"`
			DefaultValue string `json:"default_value"`
			DisplayOrder int    `json:"display_order"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.catalog.MapAttribute(ctx, p.Tenant, p.TypeCode, p.AttrCode, p.Required, p.Cardinality, p.DefaultValue, p.DisplayOrder)
		if err != nil {
			return appError(req.ID, err)
		}
		return ok(req.ID, out)
	case "types.mapping.list":
		var p struct {
			Tenant   string `json:"tenant"`
			TypeCode string `json:"type_code"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.catalog.ListTypeAttributes(ctx, p.Tenant, p.TypeCode)
		if err != nil {
			return appError(req.ID, err)
		}
		return ok(req.ID, out)
	case "types.mapping.delete":
		var p struct {
			Tenant    string `json:"tenant"`
			MappingID uint   `json:"mapping_id"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		if err := s.catalog.UnmapAttribute(ctx, p.Tenant, p.MappingID); err != nil {
			return appError(req.ID, err)
		}
		return ok(req.ID, map[string]any{"ok": true})
	case "objects.list":
		var p struct {
			Tenant   string `json:"tenant"`
			TypeCode string `json:"type_code"`
			Q        string `json:"q"`
			Limit    int    `json:"limit"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.inventory.ListEntities(ctx, p.Tenant, p.TypeCode, p.Q, p.Limit)
		if err != nil {
			return appError(req.ID, err)
		}
		return ok(req.ID, out)
	case "objects.get":
		var p struct {
			Tenant string `json:"tenant"`
			CI     string `json:"ci"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.inventory.GetEntity(ctx, p.Tenant, p.CI)
		if err != nil {
			return appError(req.ID, err)
		}
		return ok(req.ID, out)
	case "objects.create":
		var p struct {
			Tenant   string         `json:"tenant"`
			TypeCode string         `json:"type_code"`
			CI       string         `json:"ci"`
			Name     string         `json:"name"`
			Attrs    map[string]any `json:"attrs"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.inventory.CreateEntity(ctx, p.Tenant, p.TypeCode, p.CI, p.Name, p.Attrs)
		if err != nil {
			return appError(req.ID, err)
		}
		return ok(req.ID, out)
	case "objects.update":
		var p struct {
			Tenant string  `json:"tenant"`
			CI     string  `json:"ci"`
			Name   *string `json:"name"`
			Status *string `json:"status"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.inventory.UpdateEntity(ctx, p.Tenant, p.CI, p.Name, p.Status)
		if err != nil {
			return appError(req.ID, err)
		}
		return ok(req.ID, out)
	case "objects.delete":
		var p struct {
			Tenant string `json:"tenant"`
			CI     string `json:"ci"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		if err := s.inventory.DeleteEntity(ctx, p.Tenant, p.CI); err != nil {
			return appError(req.ID, err)
		}
		return ok(req.ID, map[string]any{"ok": true})
	case "objects.attrs.get":
		var p struct {
			Tenant string `json:"tenant"`
			CI     string `json:"ci"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.inventory.CIAttributes(ctx, p.Tenant, p.CI)
		if err != nil {
			return appError(req.ID, err)
		}
		return ok(req.ID, out)
	case "objects.attrs.set":
		var p struct {
			Tenant string         `json:"tenant"`
			CI     string         `json:"ci"`
			Values map[string]any `json:"values"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		if err := s.inventory.UpsertAttributes(ctx, p.Tenant, p.CI, p.Values); err != nil {
			return appError(req.ID, err)
		}
		return ok(req.ID, map[string]any{"ok": true})
	case "edges.connect":
		var p struct {
			Tenant   string `json:"tenant"`
			TypeCode string `json:"type_code"`
			Src      string `json:"src"`
			Dst      string `json:"dst"`
			Note     string `json:"note"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.graph.Connect(ctx, p.Tenant, p.TypeCode, p.Src, p.Dst, p.Note)
		if err != nil {
			return appError(req.ID, err)
		}
		return ok(req.ID, out)
	case "edges.delete":
		var p struct {
			Tenant string `json:"tenant"`
			EdgeID uint   `json:"edge_id"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		if err := s.graph.DeleteRelation(ctx, p.Tenant, p.EdgeID); err != nil {
			return appError(req.ID, err)
		}
		return ok(req.ID, map[string]any{"ok": true})
	case "graph.query":
		var p struct {
			Tenant string   `json:"tenant"`
			Types  []string `json:"types"`
			CIs    []string `json:"cis"`
			User   string   `json:"user"`
			Canvas string   `json:"canvas"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.graph.GraphWithLayout(ctx, p.Tenant, p.Types, p.CIs, p.User, p.Canvas)
		if err != nil {
			return appError(req.ID, err)
		}
		return ok(req.ID, out)
	case "graph.ego":
		var p struct {
			Tenant string `json:"tenant"`
			CI     string `json:"ci"`
			Depth  int    `json:"depth"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.graph.EgoGraph(ctx, p.Tenant, p.CI, p.Depth)
		if err != nil {
			return appError(req.ID, err)
		}
		return ok(req.ID, out)
	case "layout.save":
		var p struct {
			Tenant    string                     `json:"tenant"`
			User      string                     `json:"user"`
			Canvas    string                     `json:"canvas"`
			Positions map[string]domain.Position `json:"positions"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		if err := s.graph.SaveLayout(ctx, p.Tenant, p.User, p.Canvas, p.Positions); err != nil {
			return appError(req.ID, err)
		}
		return ok(req.ID, map[string]any{"ok": true})
	case "layout.get":
		var p struct {
			Tenant string `json:"tenant"`
			User   string `json:"user"`
			Canvas string `json:"canvas"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.graph.GetLayout(ctx, p.Tenant, p.User, p.Canvas)
		if err != nil {
			return appError(req.ID, err)
		}
		return ok(req.ID, out)
	default:
		return response{JSONRPC: "2.0", Error: &rpcError{Code: -32601, Message: "method not found"}, ID: req.ID}
	}
}

func decodeParams(raw json.RawMessage, out any) bool {
	if len(raw) == 0 {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func ok(id any, result any) response {
	return response{JSONRPC: "2.0", Result: result, ID: id}
}

func invalidParams(id any) response {
	return response{JSONRPC: "2.0", Error: &rpcError{Code: -32602, Message: "invalid params"}, ID: id}
}

// appError maps the domain error taxonomy onto stable rpc codes so clients
// can branch without parsing messages.
func appError(id any, err error) response {
	var ve *domain.ValidationError
	var ce *domain.ConflictError
	var de *domain.DependencyError
	switch {
	case errors.As(err, &ve):
		return response{JSONRPC: "2.0", Error: &rpcError{Code: 40000, Message: err.Error()}, ID: id}
	case errors.Is(err, domain.ErrNotFound):
		return response{JSONRPC: "2.0", Error: &rpcError{Code: 40400, Message: err.Error()}, ID: id}
	case errors.As(err, &ce), errors.As(err, &de):
		return response{JSONRPC: "2.0", Error: &rpcError{Code: 40900, Message: err.Error()}, ID: id}
	}
	return response{JSONRPC: "2.0", Error: &rpcError{Code: 50000, Message: "internal error: " + err.Error()}, ID: id}
}
