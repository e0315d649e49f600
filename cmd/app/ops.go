package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/dramseie/repweb-sub001/internal/domain"
)

func doTenantsList(ctx context.Context, cfg cliConfig, out any) error {
	return newRPCClient(cfg.Socket).call(ctx, "tenants.list", map[string]any{}, out)
}

func doTenantsCreate(ctx context.Context, cfg cliConfig, code, name string, out any) error {
	return newRPCClient(cfg.Socket).call(ctx, "tenants.create", map[string]any{"code": code, "name": name}, out)
}

func doTenantsDelete(ctx context.Context, cfg cliConfig, tenant string) error {
	return newRPCClient(cfg.Socket).call(ctx, "tenants.delete", map[string]any{"tenant": tenant}, nil)
}

func doEntityTypesList(ctx context.Context, cfg cliConfig, out any) error {
	return newRPCClient(cfg.Socket).call(ctx, "types.entity.list", map[string]any{"tenant": cfg.Tenant}, out)
}

func doEntityTypesCreate(ctx context.Context, cfg cliConfig, code, name, icon string, out any) error {
	return newRPCClient(cfg.Socket).call(ctx, "types.entity.create", map[string]any{"tenant": cfg.Tenant, "code": code, "name": name, "icon": icon}, out)
}

func doEntityTypesDelete(ctx context.Context, cfg cliConfig, code string) error {
	return newRPCClient(cfg.Socket).call(ctx, "types.entity.delete", map[string]any{"tenant": cfg.Tenant, "code": code}, nil)
}

func doRelationTypesList(ctx context.Context, cfg cliConfig, out any) error {
	return newRPCClient(cfg.Socket).call(ctx, "types.relation.list", map[string]any{"tenant": cfg.Tenant}, out)
}

func doRelationTypesCreate(ctx context.Context, cfg cliConfig, code, label string, directed bool, out any) error {
	return newRPCClient(cfg.Socket).call(ctx, "types.relation.create", map[string]any{"tenant": cfg.Tenant, "code": code, "label": label, "directed": directed}, out)
}

func doAttributesList(ctx context.Context, cfg cliConfig, out any) error {
	return newRPCClient(cfg.Socket).call(ctx, "types.attribute.list", map[string]any{"tenant": cfg.Tenant}, out)
}

func doAttributesCreate(ctx context.Context, cfg cliConfig, code, label, dataType string, out any) error {
	return newRPCClient(cfg.Socket).call(ctx, "types.attribute.create", map[string]any{"tenant": cfg.Tenant, "code": code, "label": label, "data_type": dataType}, out)
}

func doAttributesDelete(ctx context.Context, cfg cliConfig, code string) error {
	return newRPCClient(cfg.Socket).call(ctx, "types.attribute.delete", map[string]any{"tenant": cfg.Tenant, "code": code}, nil)
}

func doMappingCreate(ctx context.Context, cfg cliConfig, typeCode, attrCode string, required bool, cardinality string, order int, out any) error {
	return newRPCClient(cfg.Socket).call(ctx, "types.mapping.create", map[string]any{
		"tenant":        cfg.Tenant,
		"type_code":     typeCode,
		"attr_code":     attrCode,
		"required":      required,
		"cardinality":   cardinality,
		"display_order": order,
	}, out)
}

func doMappingList(ctx context.Context, cfg cliConfig, typeCode string, out any) error {
	return newRPCClient(cfg.Socket).call(ctx, "types.mapping.list", map[string]any{"tenant": cfg.Tenant, "type_code": typeCode}, out)
}

func doObjectsList(ctx context.Context, cfg cliConfig, typeCode, q string, limit int, out any) error {
	return newRPCClient(cfg.Socket).call(ctx, "objects.list", map[string]any{"tenant": cfg.Tenant, "type_code": typeCode, "q": q, "limit": limit}, out)
}

func doObjectsCreate(ctx context.Context, cfg cliConfig, typeCode, ci, name string, attrs map[string]any, out any) error {
	return newRPCClient(cfg.Socket).call(ctx, "objects.create", map[string]any{"tenant": cfg.Tenant, "type_code": typeCode, "ci": ci, "name": name, "attrs": attrs}, out)
}

func doObjectsUpdate(ctx context.Context, cfg cliConfig, ci string, name, status *string, out any) error {
	return newRPCClient(cfg.Socket).call(ctx, "objects.update", map[string]any{"tenant": cfg.Tenant, "ci": ci, "name": name, "status": status}, out)
}

func doObjectsDelete(ctx context.Context, cfg cliConfig, ci string) error {
	return newRPCClient(cfg.Socket).call(ctx, "objects.delete", map[string]any{"tenant": cfg.Tenant, "ci": ci}, nil)
}

func doAttrsGet(ctx context.Context, cfg cliConfig, ci string, out any) error {
	return newRPCClient(cfg.Socket).call(ctx, "objects.attrs.get", map[string]any{"tenant": cfg.Tenant, "ci": ci}, out)
}

func doAttrsSet(ctx context.Context, cfg cliConfig, ci string, values map[string]any) error {
	return newRPCClient(cfg.Socket).call(ctx, "objects.attrs.set", map[string]any{"tenant": cfg.Tenant, "ci": ci, "values": values}, nil)
}

func doEdgesConnect(ctx context.Context, cfg cliConfig, typeCode, src, dst, note string, out any) error {
	return newRPCClient(cfg.Socket).call(ctx, "edges.connect", map[string]any{"tenant": cfg.Tenant, "type_code": typeCode, "src": src, "dst": dst, "note": note}, out)
}

func doEdgesDelete(ctx context.Context, cfg cliConfig, edgeID uint) error {
	return newRPCClient(cfg.Socket).call(ctx, "edges.delete", map[string]any{"tenant": cfg.Tenant, "edge_id": edgeID}, nil)
}

func doGraphQuery(ctx context.Context, cfg cliConfig, types, cis []string, user, canvas string, out any) error {
	return newRPCClient(cfg.Socket).call(ctx, "graph.query", map[string]any{"tenant": cfg.Tenant, "types": types, "cis": cis, "user": user, "canvas": canvas}, out)
}

func doGraphEgo(ctx context.Context, cfg cliConfig, ci string, depth int, out any) error {
	return newRPCClient(cfg.Socket).call(ctx, "graph.ego", map[string]any{"tenant": cfg.Tenant, "ci": ci, "depth": depth}, out)
}

func doLayoutSave(ctx context.Context, cfg cliConfig, user, canvas string, positions map[string]domain.Position) error {
	return newRPCClient(cfg.Socket).call(ctx, "layout.save", map[string]any{"tenant": cfg.Tenant, "user": user, "canvas": canvas, "positions": positions}, nil)
}

func doLayoutGet(ctx context.Context, cfg cliConfig, user, canvas string, out any) error {
	return newRPCClient(cfg.Socket).call(ctx, "layout.get", map[string]any{"tenant": cfg.Tenant, "user": user, "canvas": canvas}, out)
}

// parseAttrPairs parses key=value,key=value into a raw attribute map.
func parseAttrPairs(input string) (map[string]any, error) {
	out := make(map[string]any)
	if strings.TrimSpace(input) == "" {
		return out, nil
	}
	for _, pair := range strings.Split(input, ",") {
		kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(kv) != 2 || strings.TrimSpace(kv[0]) == "" {
			return nil, fmt.Errorf("attrs format must be code=value,code=value")
		}
		out[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return out, nil
}

func splitCSV(input string) []string {
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	return result
}
