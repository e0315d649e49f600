package application

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/dramseie/repweb-sub001/internal/domain"
)

const (
	// graphNodeCap bounds the filtered subgraph query.
	graphNodeCap = 500
	// egoDepthCap bounds the hop count of an ego-graph expansion.
	egoDepthCap = 10
	// egoNodeCap and egoEdgeCap bound the breadth of an ego-graph expansion;
	// once either is reached the frontier stops growing.
	egoNodeCap = 500
	egoEdgeCap = 2000
)

// GraphService builds filtered subgraphs and n-hop ego graphs, and manages
// relations and canvas layouts.
type GraphService struct {
	repo    domain.Repository
	catalog *CatalogService
}

func NewGraphService(repo domain.Repository) *GraphService {
	return &GraphService{repo: repo, catalog: NewCatalogService(repo)}
}

// Connect links two CIs under a relation type. The call is idempotent: the
// same (tenant, type, src, dst) tuple always resolves to one relation row.
func (s *GraphService) Connect(ctx context.Context, tenantRef, typeCode, srcCI, dstCI, note string) (domain.Relation, error) {
	if strings.TrimSpace(srcCI) == "" || strings.TrimSpace(dstCI) == "" {
		return domain.Relation{}, domain.Validationf("src and dst cis are required")
	}
	tenant, err := s.catalog.ResolveTenant(ctx, tenantRef)
	if err != nil {
		return domain.Relation{}, err
	}
	rt, err := s.repo.GetRelationTypeByCode(ctx, tenant.ID, typeCode)
	if err != nil {
		return domain.Relation{}, err
	}
	for _, ci := range []string{srcCI, dstCI} {
		if _, err := s.repo.GetEntityByCI(ctx, tenant.ID, ci); err != nil {
			return domain.Relation{}, err
		}
	}
	rel, err := s.repo.EnsureRelation(ctx, domain.Relation{
		TenantID:       tenant.ID,
		RelationTypeID: rt.ID,
		SrcCI:          srcCI,
		DstCI:          dstCI,
		Note:           note,
	})
	if err != nil {
		return domain.Relation{}, err
	}
	rel.TypeCode = rt.Code
	rel.TypeLabel = rt.Label
	return rel, nil
}

func (s *GraphService) DeleteRelation(ctx context.Context, tenantRef string, id uint) error {
	tenant, err := s.catalog.ResolveTenant(ctx, tenantRef)
	if err != nil {
		return err
	}
	return s.repo.DeleteRelation(ctx, tenant.ID, id)
}

// Graph returns the filtered subgraph: entities matching the optional type and
// CI filters (capped, ordered by CI), plus every relation touching at least
// one selected node. Edges whose other endpoint fell outside the filter are
// kept to show boundary connectivity.
func (s *GraphService) Graph(ctx context.Context, tenantRef string, typeCodes, cis []string) (domain.Graph, error) {
	tenant, err := s.catalog.ResolveTenant(ctx, tenantRef)
	if err != nil {
		return domain.Graph{}, err
	}

	typeIDs := make([]uint, 0, len(typeCodes))
	for _, code := range typeCodes {
		et, err := s.repo.GetEntityTypeByCode(ctx, tenant.ID, code)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return domain.Graph{}, err
		}
		typeIDs = append(typeIDs, et.ID)
	}
	if len(typeCodes) > 0 && len(typeIDs) == 0 {
		return emptyGraph(), nil
	}

	entities, err := s.repo.ListGraphEntities(ctx, tenant.ID, typeIDs, cis, graphNodeCap)
	if err != nil {
		return domain.Graph{}, err
	}
	if len(entities) == 0 {
		return emptyGraph(), nil
	}

	nodeIDs := make([]string, 0, len(entities))
	for _, e := range entities {
		nodeIDs = append(nodeIDs, e.CI)
	}
	relations, err := s.repo.ListRelationsTouching(ctx, tenant.ID, nodeIDs)
	if err != nil {
		return domain.Graph{}, err
	}
	return buildGraph(entities, relations), nil
}

// GraphWithLayout overlays saved node positions onto the plain graph output.
// The merge is a key-value lookup by CI; the graph query itself is untouched.
func (s *GraphService) GraphWithLayout(ctx context.Context, tenantRef string, typeCodes, cis []string, username, canvas string) (domain.Graph, error) {
	g, err := s.Graph(ctx, tenantRef, typeCodes, cis)
	if err != nil {
		return domain.Graph{}, err
	}
	if strings.TrimSpace(username) == "" || strings.TrimSpace(canvas) == "" {
		return g, nil
	}
	positions, err := s.GetLayout(ctx, tenantRef, username, canvas)
	if err != nil {
		return domain.Graph{}, err
	}
	for i := range g.Nodes {
		if pos, ok := positions[g.Nodes[i].ID]; ok {
			x, y := pos.X, pos.Y
			g.Nodes[i].X = &x
			g.Nodes[i].Y = &y
		}
	}
	return g, nil
}

// EgoGraph returns the neighborhood of centerCI up to depth hops. Depth is
// clamped to [0, 10]. An unknown center yields an empty graph, not an error.
func (s *GraphService) EgoGraph(ctx context.Context, tenantRef, centerCI string, depth int) (domain.Graph, error) {
	if depth < 0 {
		depth = 0
	}
	if depth > egoDepthCap {
		depth = egoDepthCap
	}
	tenant, err := s.catalog.ResolveTenant(ctx, tenantRef)
	if err != nil {
		return domain.Graph{}, err
	}
	if _, err := s.repo.GetEntityByCI(ctx, tenant.ID, centerCI); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return emptyGraph(), nil
		}
		return domain.Graph{}, err
	}

	seen := map[string]struct{}{centerCI: {}}
	frontier := []string{centerCI}
	edgeSeen := make(map[uint]struct{})
	edgesAcc := make([]domain.Relation, 0)

	for hop := 0; hop < depth; hop++ {
		if len(frontier) == 0 {
			break
		}
		relations, err := s.repo.ListRelationsTouching(ctx, tenant.ID, frontier)
		if err != nil {
			return domain.Graph{}, err
		}
		if len(relations) == 0 {
			break
		}

		next := make([]string, 0)
		for _, rel := range relations {
			if _, dup := edgeSeen[rel.ID]; !dup && len(edgesAcc) < egoEdgeCap {
				edgeSeen[rel.ID] = struct{}{}
				edgesAcc = append(edgesAcc, rel)
			}
			for _, ci := range [2]string{rel.SrcCI, rel.DstCI} {
				if _, ok := seen[ci]; ok {
					continue
				}
				if len(seen) >= egoNodeCap {
					continue
				}
				seen[ci] = struct{}{}
				next = append(next, ci)
			}
		}
		if len(edgesAcc) >= egoEdgeCap {
			break
		}
		frontier = next
	}

	cis := make([]string, 0, len(seen))
	for ci := range seen {
		cis = append(cis, ci)
	}
	sort.Strings(cis)
	entities, err := s.repo.ListEntitiesByCIs(ctx, tenant.ID, cis)
	if err != nil {
		return domain.Graph{}, err
	}
	return buildGraph(entities, edgesAcc), nil
}

func (s *GraphService) SaveLayout(ctx context.Context, tenantRef, username, canvas string, positions map[string]domain.Position) error {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(canvas) == "" {
		return domain.Validationf("user and canvas are required")
	}
	tenant, err := s.catalog.ResolveTenant(ctx, tenantRef)
	if err != nil {
		return err
	}
	return s.repo.SaveLayout(ctx, tenant.ID, username, canvas, positions)
}

func (s *GraphService) GetLayout(ctx context.Context, tenantRef, username, canvas string) (map[string]domain.Position, error) {
	tenant, err := s.catalog.ResolveTenant(ctx, tenantRef)
	if err != nil {
		return nil, err
	}
	return s.repo.GetLayout(ctx, tenant.ID, username, canvas)
}

func emptyGraph() domain.Graph {
	return domain.Graph{Nodes: make([]domain.GraphNode, 0), Edges: make([]domain.GraphEdge, 0)}
}

func buildGraph(entities []domain.Entity, relations []domain.Relation) domain.Graph {
	g := emptyGraph()
	for _, e := range entities {
		g.Nodes = append(g.Nodes, domain.GraphNode{ID: e.CI, Type: e.TypeCode, Label: e.Name})
	}
	for _, rel := range relations {
		g.Edges = append(g.Edges, domain.GraphEdge{
			ID:     rel.ID,
			Source: rel.SrcCI,
			Target: rel.DstCI,
			Type:   rel.TypeCode,
			Label:  rel.TypeLabel,
		})
	}
	return g
}
