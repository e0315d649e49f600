package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dramseie/repweb-sub001/internal/domain"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "cmdb_test.db")

	db, err := Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, RunMigrations(ctx, db))
	return NewRepository(db)
}

func seedTenant(t *testing.T, repo *Repository) domain.Tenant {
	t.Helper()
	tenant, err := repo.CreateTenant(context.Background(), domain.Tenant{Code: "cmdb", Name: "CMDB"})
	require.NoError(t, err)
	return tenant
}

func TestValueRoundTripAllDataTypes(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	tenant := seedTenant(t, repo)

	et, err := repo.CreateEntityType(ctx, domain.EntityType{TenantID: tenant.ID, Code: "server", Name: "Server"})
	require.NoError(t, err)
	entity, err := repo.CreateEntityWithValues(ctx, domain.Entity{TenantID: tenant.ID, CI: "SER-000001", EntityTypeID: et.ID, Name: "web-1", Status: "active"}, nil)
	require.NoError(t, err)

	cases := []struct {
		code  string
		value domain.Value
		want  any
	}{
		{"host", domain.TextValue(domain.DataTypeString, "web-1.example.net"), "web-1.example.net"},
		{"desc", domain.TextValue(domain.DataTypeText, "primary web server"), "primary web server"},
		{"mgmt_ip", domain.TextValue(domain.DataTypeIP, "10.0.0.5"), "10.0.0.5"},
		{"subnet", domain.TextValue(domain.DataTypeCIDR, "10.0.0.0/24"), "10.0.0.0/24"},
		{"cpu_count", domain.IntValue(16), int64(16)},
		{"load", domain.FloatValue(1.25), 1.25},
		{"monitored", domain.BoolValue(true), true},
		{"installed_at", domain.TextValue(domain.DataTypeDatetime, "2024-03-01 09:30:00"), "2024-03-01 09:30:00"},
		{"tags", domain.TextValue(domain.DataTypeJSON, `["web","prod"]`), `["web","prod"]`},
		{"parent", domain.TextValue(domain.DataTypeReference, "RAC-000001"), "RAC-000001"},
	}

	attrs := make([]domain.Attribute, 0, len(cases))
	writes := make([]domain.ValueWrite, 0, len(cases))
	for _, tc := range cases {
		attr, err := repo.CreateAttribute(ctx, domain.Attribute{TenantID: tenant.ID, Code: tc.code, Label: tc.code, DataType: tc.value.Kind, Visibility: "default"})
		require.NoError(t, err)
		attrs = append(attrs, attr)
		writes = append(writes, domain.ValueWrite{AttributeID: attr.ID, Slot: 1, Value: tc.value})
	}
	require.NoError(t, repo.UpsertValues(ctx, tenant.ID, entity.CI, writes))

	values, err := repo.ValuesForCI(ctx, tenant.ID, entity.CI, attrs)
	require.NoError(t, err)
	require.Len(t, values, len(cases))
	for i, tc := range cases {
		got, ok := values[attrs[i].ID]
		require.True(t, ok, "missing value for %s", tc.code)
		require.Equal(t, tc.value.Kind, got.Kind)
		require.Equal(t, tc.want, got.Native(), "mismatch for %s", tc.code)
	}
}

func TestUpsertValueOverwritesSingleRow(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	tenant := seedTenant(t, repo)

	et, err := repo.CreateEntityType(ctx, domain.EntityType{TenantID: tenant.ID, Code: "server", Name: "Server"})
	require.NoError(t, err)
	attr, err := repo.CreateAttribute(ctx, domain.Attribute{TenantID: tenant.ID, Code: "os_version", Label: "OS Version", DataType: domain.DataTypeString, Visibility: "default"})
	require.NoError(t, err)
	entity, err := repo.CreateEntityWithValues(ctx, domain.Entity{TenantID: tenant.ID, CI: "SER-000001", EntityTypeID: et.ID, Name: "web-1"}, nil)
	require.NoError(t, err)

	write := func(v string) {
		require.NoError(t, repo.UpsertValues(ctx, tenant.ID, entity.CI, []domain.ValueWrite{
			{AttributeID: attr.ID, Slot: 1, Value: domain.TextValue(domain.DataTypeString, v)},
		}))
	}
	write("22.04")
	write("24.04")

	values, err := repo.ValuesForCI(ctx, tenant.ID, entity.CI, []domain.Attribute{attr})
	require.NoError(t, err)
	require.Equal(t, "24.04", values[attr.ID].Native())

	counts, err := repo.CountAttributeDependents(ctx, attr.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), counts["values"], "overwrite must not create a second row")
}

func TestEnsureRelationIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	tenant := seedTenant(t, repo)

	et, err := repo.CreateEntityType(ctx, domain.EntityType{TenantID: tenant.ID, Code: "app", Name: "Application"})
	require.NoError(t, err)
	rt, err := repo.CreateRelationType(ctx, domain.RelationType{TenantID: tenant.ID, Code: "depends_on", Label: "Depends On", Directed: true})
	require.NoError(t, err)
	_, err = repo.CreateEntityWithValues(ctx, domain.Entity{TenantID: tenant.ID, CI: "APP-1", EntityTypeID: et.ID, Name: "shop"}, nil)
	require.NoError(t, err)
	_, err = repo.CreateEntityWithValues(ctx, domain.Entity{TenantID: tenant.ID, CI: "DB-1", EntityTypeID: et.ID, Name: "shop-db"}, nil)
	require.NoError(t, err)

	first, err := repo.EnsureRelation(ctx, domain.Relation{TenantID: tenant.ID, RelationTypeID: rt.ID, SrcCI: "APP-1", DstCI: "DB-1"})
	require.NoError(t, err)
	second, err := repo.EnsureRelation(ctx, domain.Relation{TenantID: tenant.ID, RelationTypeID: rt.ID, SrcCI: "APP-1", DstCI: "DB-1"})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	relations, err := repo.ListRelationsTouching(ctx, tenant.ID, []string{"APP-1"})
	require.NoError(t, err)
	require.Len(t, relations, 1)
	require.Equal(t, "depends_on", relations[0].TypeCode)
}

func TestListGraphEntitiesFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	tenant := seedTenant(t, repo)

	app, err := repo.CreateEntityType(ctx, domain.EntityType{TenantID: tenant.ID, Code: "app", Name: "Application"})
	require.NoError(t, err)
	db, err := repo.CreateEntityType(ctx, domain.EntityType{TenantID: tenant.ID, Code: "db", Name: "Database"})
	require.NoError(t, err)

	for _, e := range []domain.Entity{
		{TenantID: tenant.ID, CI: "APP-2", EntityTypeID: app.ID, Name: "crm"},
		{TenantID: tenant.ID, CI: "APP-1", EntityTypeID: app.ID, Name: "shop"},
		{TenantID: tenant.ID, CI: "DB-1", EntityTypeID: db.ID, Name: "shop-db"},
	} {
		_, err := repo.CreateEntityWithValues(ctx, e, nil)
		require.NoError(t, err)
	}

	all, err := repo.ListGraphEntities(ctx, tenant.ID, nil, nil, 500)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "APP-1", all[0].CI)
	require.Equal(t, "APP-2", all[1].CI)
	require.Equal(t, "DB-1", all[2].CI)
	require.Equal(t, "app", all[0].TypeCode)

	apps, err := repo.ListGraphEntities(ctx, tenant.ID, []uint{app.ID}, nil, 500)
	require.NoError(t, err)
	require.Len(t, apps, 2)

	capped, err := repo.ListGraphEntities(ctx, tenant.ID, nil, nil, 2)
	require.NoError(t, err)
	require.Len(t, capped, 2)
	require.Equal(t, "APP-1", capped[0].CI)
}

func TestDeleteEntityCascadesValues(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	tenant := seedTenant(t, repo)

	et, err := repo.CreateEntityType(ctx, domain.EntityType{TenantID: tenant.ID, Code: "server", Name: "Server"})
	require.NoError(t, err)
	attr, err := repo.CreateAttribute(ctx, domain.Attribute{TenantID: tenant.ID, Code: "host", Label: "Host", DataType: domain.DataTypeString, Visibility: "default"})
	require.NoError(t, err)
	entity, err := repo.CreateEntityWithValues(ctx, domain.Entity{TenantID: tenant.ID, CI: "SER-1", EntityTypeID: et.ID, Name: "web-1"},
		[]domain.ValueWrite{{AttributeID: attr.ID, Slot: 1, Value: domain.TextValue(domain.DataTypeString, "web-1.example.net")}})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteEntity(ctx, tenant.ID, entity.CI))

	counts, err := repo.CountAttributeDependents(ctx, attr.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), counts["values"])

	require.ErrorIs(t, repo.DeleteEntity(ctx, tenant.ID, entity.CI), domain.ErrNotFound)
}

func TestTenantDependentCounts(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	tenant := seedTenant(t, repo)

	et, err := repo.CreateEntityType(ctx, domain.EntityType{TenantID: tenant.ID, Code: "server", Name: "Server"})
	require.NoError(t, err)
	_, err = repo.CreateEntityWithValues(ctx, domain.Entity{TenantID: tenant.ID, CI: "SER-1", EntityTypeID: et.ID, Name: "web-1"}, nil)
	require.NoError(t, err)

	counts, err := repo.CountTenantDependents(ctx, tenant.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), counts["entity_types"])
	require.Equal(t, int64(1), counts["entities"])
	require.Equal(t, int64(0), counts["relations"])
}

func TestLayoutSaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	tenant := seedTenant(t, repo)

	positions := map[string]domain.Position{
		"APP-1": {X: 10, Y: 20},
		"DB-1":  {X: 120.5, Y: -4},
	}
	require.NoError(t, repo.SaveLayout(ctx, tenant.ID, "alice", "main", positions))

	// Second save for the same keys must overwrite, not duplicate.
	require.NoError(t, repo.SaveLayout(ctx, tenant.ID, "alice", "main", map[string]domain.Position{
		"APP-1": {X: 55, Y: 66},
	}))

	got, err := repo.GetLayout(ctx, tenant.ID, "alice", "main")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, domain.Position{X: 55, Y: 66}, got["APP-1"])
	require.Equal(t, domain.Position{X: 120.5, Y: -4}, got["DB-1"])

	other, err := repo.GetLayout(ctx, tenant.ID, "bob", "main")
	require.NoError(t, err)
	require.Empty(t, other)
}
