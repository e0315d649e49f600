package application_test

import (
	"context"
	"path/filepath"
	"testing"

	sqliteadapter "github.com/dramseie/repweb-sub001/internal/adapters/db/sqlite"
	"github.com/dramseie/repweb-sub001/internal/application"
	"github.com/dramseie/repweb-sub001/internal/domain"
	"github.com/stretchr/testify/require"
)

type services struct {
	catalog   *application.CatalogService
	inventory *application.InventoryService
	graph     *application.GraphService
}

func newServices(t *testing.T) services {
	t.Helper()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "cmdb_test.db")

	db, err := sqliteadapter.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, sqliteadapter.RunMigrations(ctx, db))

	repo := sqliteadapter.NewRepository(db)
	return services{
		catalog:   application.NewCatalogService(repo),
		inventory: application.NewInventoryService(repo),
		graph:     application.NewGraphService(repo),
	}
}

func seedCatalog(t *testing.T, s services) {
	t.Helper()
	ctx := context.Background()
	_, err := s.catalog.CreateTenant(ctx, "cmdb", "CMDB")
	require.NoError(t, err)
	_, err = s.catalog.CreateEntityType(ctx, "cmdb", "server", "Server", "")
	require.NoError(t, err)
	_, err = s.catalog.CreateEntityType(ctx, "cmdb", "app", "Application", "")
	require.NoError(t, err)
	_, err = s.catalog.CreateEntityType(ctx, "cmdb", "db", "Database", "")
	require.NoError(t, err)
	_, err = s.catalog.CreateRelationType(ctx, "cmdb", "depends_on", "Depends On", true)
	require.NoError(t, err)
}

func TestCatalogCodeValidation(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	seedCatalog(t, s)

	var ve *domain.ValidationError
	for _, code := range []string{"", "x", "Server", "bad-code", "has space"} {
		_, err := s.catalog.CreateTenant(ctx, code, "Name")
		require.ErrorAs(t, err, &ve, "tenant code %q", code)
		_, err = s.catalog.CreateEntityType(ctx, "cmdb", code, "Name", "")
		require.ErrorAs(t, err, &ve, "entity type code %q", code)
		_, err = s.catalog.CreateRelationType(ctx, "cmdb", code, "Label", false)
		require.ErrorAs(t, err, &ve, "relation type code %q", code)
		_, err = s.catalog.CreateAttribute(ctx, "cmdb", domain.Attribute{Code: code, Label: "Label", DataType: domain.DataTypeString})
		require.ErrorAs(t, err, &ve, "attribute code %q", code)
	}

	// Dots are legal in attribute codes only.
	_, err := s.catalog.CreateAttribute(ctx, "cmdb", domain.Attribute{Code: "net.iface", Label: "Interface", DataType: domain.DataTypeString})
	require.NoError(t, err)
	_, err = s.catalog.CreateEntityType(ctx, "cmdb", "net.iface", "Interface", "")
	require.ErrorAs(t, err, &ve)
}

func TestDuplicateCatalogCodesConflict(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	seedCatalog(t, s)

	_, err := s.catalog.CreateAttribute(ctx, "cmdb", domain.Attribute{Code: "host", Label: "Host", DataType: domain.DataTypeString})
	require.NoError(t, err)

	var ce *domain.ConflictError
	_, err = s.catalog.CreateTenant(ctx, "cmdb", "Again")
	require.ErrorAs(t, err, &ce)
	_, err = s.catalog.CreateEntityType(ctx, "cmdb", "server", "Server Again", "")
	require.ErrorAs(t, err, &ce)
	_, err = s.catalog.CreateRelationType(ctx, "cmdb", "depends_on", "Again", false)
	require.ErrorAs(t, err, &ce)
	_, err = s.catalog.CreateAttribute(ctx, "cmdb", domain.Attribute{Code: "host", Label: "Host Again", DataType: domain.DataTypeString})
	require.ErrorAs(t, err, &ce)

	// The same codes are free in another tenant.
	_, err = s.catalog.CreateTenant(ctx, "other", "Other")
	require.NoError(t, err)
	_, err = s.catalog.CreateEntityType(ctx, "other", "server", "Server", "")
	require.NoError(t, err)
	_, err = s.catalog.CreateAttribute(ctx, "other", domain.Attribute{Code: "host", Label: "Host", DataType: domain.DataTypeString})
	require.NoError(t, err)
}

func TestEntityLifecycleWithAttributes(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	seedCatalog(t, s)

	_, err := s.catalog.CreateAttribute(ctx, "cmdb", domain.Attribute{Code: "os_version", Label: "OS Version", DataType: domain.DataTypeString})
	require.NoError(t, err)
	_, err = s.catalog.CreateAttribute(ctx, "cmdb", domain.Attribute{Code: "cpu_count", Label: "CPU Count", DataType: domain.DataTypeInteger})
	require.NoError(t, err)
	_, err = s.catalog.MapAttribute(ctx, "cmdb", "server", "os_version", true, "one", "", 1)
	require.NoError(t, err)
	_, err = s.catalog.MapAttribute(ctx, "cmdb", "server", "cpu_count", false, "one", "", 2)
	require.NoError(t, err)

	entity, err := s.inventory.CreateEntity(ctx, "cmdb", "server", "", "web-1", map[string]any{
		"os_version": "22.04",
		"cpu_count":  "16",
	})
	require.NoError(t, err)
	require.Regexp(t, `^SER-[0-9a-f]{6}$`, entity.CI)
	require.Equal(t, "active", entity.Status)

	require.NoError(t, s.inventory.UpsertAttributes(ctx, "cmdb", entity.CI, map[string]any{"os_version": "24.04"}))

	attrs, err := s.inventory.CIAttributes(ctx, "cmdb", entity.CI)
	require.NoError(t, err)
	require.Len(t, attrs, 2)
	require.Equal(t, "os_version", attrs[0].Code)
	require.True(t, attrs[0].HasValue)
	require.Equal(t, "24.04", attrs[0].Value)
	require.Equal(t, int64(16), attrs[1].Value)

	// An unknown attribute code must fail the whole batch.
	err = s.inventory.UpsertAttributes(ctx, "cmdb", entity.CI, map[string]any{"nonexistent": "x"})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAttributeCoercionRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	seedCatalog(t, s)

	_, err := s.catalog.CreateAttribute(ctx, "cmdb", domain.Attribute{Code: "cpu_count", Label: "CPU Count", DataType: domain.DataTypeInteger})
	require.NoError(t, err)
	_, err = s.catalog.CreateAttribute(ctx, "cmdb", domain.Attribute{Code: "monitored", Label: "Monitored", DataType: domain.DataTypeBoolean})
	require.NoError(t, err)

	entity, err := s.inventory.CreateEntity(ctx, "cmdb", "server", "", "web-1", nil)
	require.NoError(t, err)

	err = s.inventory.UpsertAttributes(ctx, "cmdb", entity.CI, map[string]any{"cpu_count": "sixteen"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)

	// Truthiness coercion: "0" and "false" are false, everything else true.
	require.NoError(t, s.inventory.UpsertAttributes(ctx, "cmdb", entity.CI, map[string]any{"monitored": "false"}))
	attrs, err := s.inventory.CIAttributes(ctx, "cmdb", entity.CI)
	require.NoError(t, err)
	require.Empty(t, attrs, "unmapped attributes stay out of the schema view")

	// Unknown data type is rejected at attribute creation.
	_, err = s.catalog.CreateAttribute(ctx, "cmdb", domain.Attribute{Code: "blob", Label: "Blob", DataType: "binary"})
	require.ErrorAs(t, err, &ve)
}

func TestCatalogDeletesBlockedByDependents(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	seedCatalog(t, s)

	_, err := s.catalog.CreateAttribute(ctx, "cmdb", domain.Attribute{Code: "host", Label: "Host", DataType: domain.DataTypeString})
	require.NoError(t, err)
	_, err = s.catalog.MapAttribute(ctx, "cmdb", "server", "host", false, "one", "", 1)
	require.NoError(t, err)

	entity, err := s.inventory.CreateEntity(ctx, "cmdb", "server", "", "web-1", map[string]any{"host": "web-1.example.net"})
	require.NoError(t, err)

	var de *domain.DependencyError
	err = s.catalog.DeleteAttribute(ctx, "cmdb", "host")
	require.ErrorAs(t, err, &de)
	require.Equal(t, int64(1), de.Counts["mappings"])
	require.Equal(t, int64(1), de.Counts["values"])

	err = s.catalog.DeleteEntityType(ctx, "cmdb", "server")
	require.ErrorAs(t, err, &de)
	require.Equal(t, int64(1), de.Counts["entities"])

	err = s.catalog.DeleteTenant(ctx, "cmdb")
	require.ErrorAs(t, err, &de)

	// Removing the dependents unblocks the chain.
	require.NoError(t, s.inventory.DeleteEntity(ctx, "cmdb", entity.CI))
	err = s.catalog.DeleteEntityType(ctx, "cmdb", "server")
	require.ErrorAs(t, err, &de, "mapping still references the type")
	require.Equal(t, int64(1), de.Counts["mapped_attributes"])
}

func TestConnectIsIdempotentAndValidatesEndpoints(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	seedCatalog(t, s)

	_, err := s.inventory.CreateEntity(ctx, "cmdb", "app", "APP-1", "shop", nil)
	require.NoError(t, err)
	_, err = s.inventory.CreateEntity(ctx, "cmdb", "db", "DB-1", "shop-db", nil)
	require.NoError(t, err)

	first, err := s.graph.Connect(ctx, "cmdb", "depends_on", "APP-1", "DB-1", "")
	require.NoError(t, err)
	second, err := s.graph.Connect(ctx, "cmdb", "depends_on", "APP-1", "DB-1", "")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "depends_on", first.TypeCode)

	_, err = s.graph.Connect(ctx, "cmdb", "depends_on", "APP-1", "GHOST-1", "")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.graph.Connect(ctx, "cmdb", "no_such_type", "APP-1", "DB-1", "")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGraphKeepsBoundaryEdges(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	seedCatalog(t, s)

	_, err := s.inventory.CreateEntity(ctx, "cmdb", "app", "APP-1", "shop", nil)
	require.NoError(t, err)
	_, err = s.inventory.CreateEntity(ctx, "cmdb", "db", "DB-1", "shop-db", nil)
	require.NoError(t, err)
	_, err = s.graph.Connect(ctx, "cmdb", "depends_on", "APP-1", "DB-1", "")
	require.NoError(t, err)

	g, err := s.graph.Graph(ctx, "cmdb", []string{"app"}, nil)
	require.NoError(t, err)
	require.Len(t, g.Nodes, 1)
	require.Equal(t, "APP-1", g.Nodes[0].ID)
	require.Len(t, g.Edges, 1, "edge to the excluded DB-1 must survive the type filter")
	require.Equal(t, "DB-1", g.Edges[0].Target)

	// A filter resolving to no known types yields an empty graph, not an error.
	empty, err := s.graph.Graph(ctx, "cmdb", []string{"mainframe"}, nil)
	require.NoError(t, err)
	require.NotNil(t, empty.Nodes)
	require.Empty(t, empty.Nodes)
	require.Empty(t, empty.Edges)
}

func TestEgoGraphDepthSemantics(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	seedCatalog(t, s)

	// APP-1 -> DB-1 -> SER-1 chain plus an isolated node.
	_, err := s.inventory.CreateEntity(ctx, "cmdb", "app", "APP-1", "shop", nil)
	require.NoError(t, err)
	_, err = s.inventory.CreateEntity(ctx, "cmdb", "db", "DB-1", "shop-db", nil)
	require.NoError(t, err)
	_, err = s.inventory.CreateEntity(ctx, "cmdb", "server", "SER-1", "db-host", nil)
	require.NoError(t, err)
	_, err = s.inventory.CreateEntity(ctx, "cmdb", "server", "SER-9", "spare", nil)
	require.NoError(t, err)
	_, err = s.graph.Connect(ctx, "cmdb", "depends_on", "APP-1", "DB-1", "")
	require.NoError(t, err)
	_, err = s.graph.Connect(ctx, "cmdb", "depends_on", "DB-1", "SER-1", "")
	require.NoError(t, err)

	depth0, err := s.graph.EgoGraph(ctx, "cmdb", "APP-1", 0)
	require.NoError(t, err)
	require.Len(t, depth0.Nodes, 1)
	require.Equal(t, "APP-1", depth0.Nodes[0].ID)
	require.Empty(t, depth0.Edges)

	depth1, err := s.graph.EgoGraph(ctx, "cmdb", "APP-1", 1)
	require.NoError(t, err)
	require.Len(t, depth1.Nodes, 2)
	require.Len(t, depth1.Edges, 1)

	depth2, err := s.graph.EgoGraph(ctx, "cmdb", "APP-1", 2)
	require.NoError(t, err)
	require.Len(t, depth2.Nodes, 3)
	require.Len(t, depth2.Edges, 2)

	// Negative depth clamps to zero, oversized depth clamps to the cap.
	clamped, err := s.graph.EgoGraph(ctx, "cmdb", "APP-1", -5)
	require.NoError(t, err)
	require.Len(t, clamped.Nodes, 1)
	deep, err := s.graph.EgoGraph(ctx, "cmdb", "APP-1", 99)
	require.NoError(t, err)
	require.Len(t, deep.Nodes, 3)

	isolated, err := s.graph.EgoGraph(ctx, "cmdb", "SER-9", 3)
	require.NoError(t, err)
	require.Len(t, isolated.Nodes, 1)
	require.Empty(t, isolated.Edges)

	unknown, err := s.graph.EgoGraph(ctx, "cmdb", "GHOST-1", 2)
	require.NoError(t, err)
	require.NotNil(t, unknown.Nodes)
	require.NotNil(t, unknown.Edges)
	require.Empty(t, unknown.Nodes)
	require.Empty(t, unknown.Edges)
}

func TestEgoGraphParallelEdgesKeepNodesUnique(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	seedCatalog(t, s)

	_, err := s.catalog.CreateRelationType(ctx, "cmdb", "runs_on", "Runs On", true)
	require.NoError(t, err)
	_, err = s.inventory.CreateEntity(ctx, "cmdb", "app", "APP-1", "shop", nil)
	require.NoError(t, err)
	_, err = s.inventory.CreateEntity(ctx, "cmdb", "db", "DB-1", "shop-db", nil)
	require.NoError(t, err)
	_, err = s.graph.Connect(ctx, "cmdb", "depends_on", "APP-1", "DB-1", "")
	require.NoError(t, err)
	_, err = s.graph.Connect(ctx, "cmdb", "runs_on", "APP-1", "DB-1", "")
	require.NoError(t, err)

	// Two relations between the same pair: both edges come back, each node once.
	g, err := s.graph.EgoGraph(ctx, "cmdb", "APP-1", 1)
	require.NoError(t, err)
	require.Len(t, g.Nodes, 2)
	require.NotEqual(t, g.Nodes[0].ID, g.Nodes[1].ID)
	require.Len(t, g.Edges, 2)
	require.NotEqual(t, g.Edges[0].ID, g.Edges[1].ID)

	// Extra hops revisit the same pair without double-counting either edge.
	deep, err := s.graph.EgoGraph(ctx, "cmdb", "DB-1", 4)
	require.NoError(t, err)
	require.Len(t, deep.Nodes, 2)
	require.Len(t, deep.Edges, 2)
}

func TestGraphWithLayoutMergesPositions(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	seedCatalog(t, s)

	_, err := s.inventory.CreateEntity(ctx, "cmdb", "app", "APP-1", "shop", nil)
	require.NoError(t, err)
	_, err = s.inventory.CreateEntity(ctx, "cmdb", "db", "DB-1", "shop-db", nil)
	require.NoError(t, err)

	require.NoError(t, s.graph.SaveLayout(ctx, "cmdb", "alice", "main", map[string]domain.Position{
		"APP-1": {X: 100, Y: 200},
	}))

	g, err := s.graph.GraphWithLayout(ctx, "cmdb", nil, nil, "alice", "main")
	require.NoError(t, err)
	require.Len(t, g.Nodes, 2)
	require.NotNil(t, g.Nodes[0].X)
	require.Equal(t, 100.0, *g.Nodes[0].X)
	require.Equal(t, 200.0, *g.Nodes[0].Y)
	require.Nil(t, g.Nodes[1].X, "nodes without a saved position carry no coordinates")
}

func TestTenantIsolation(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	seedCatalog(t, s)

	_, err := s.catalog.CreateTenant(ctx, "other", "Other")
	require.NoError(t, err)

	_, err = s.inventory.CreateEntity(ctx, "cmdb", "app", "APP-1", "shop", nil)
	require.NoError(t, err)

	_, err = s.inventory.GetEntity(ctx, "other", "APP-1")
	require.ErrorIs(t, err, domain.ErrNotFound)

	g, err := s.graph.Graph(ctx, "other", nil, nil)
	require.NoError(t, err)
	require.Empty(t, g.Nodes)
}

func TestExplicitCIConflict(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	seedCatalog(t, s)

	_, err := s.inventory.CreateEntity(ctx, "cmdb", "app", "APP-1", "shop", nil)
	require.NoError(t, err)

	var ce *domain.ConflictError
	_, err = s.inventory.CreateEntity(ctx, "cmdb", "app", "APP-1", "shop-copy", nil)
	require.ErrorAs(t, err, &ce)
}
