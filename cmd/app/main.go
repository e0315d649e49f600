package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	sqliteadapter "github.com/dramseie/repweb-sub001/internal/adapters/db/sqlite"
	rpcadapter "github.com/dramseie/repweb-sub001/internal/adapters/rpcjson"
	"github.com/dramseie/repweb-sub001/internal/application"
	"github.com/dramseie/repweb-sub001/internal/config"
	"github.com/dramseie/repweb-sub001/internal/domain"
	"github.com/dramseie/repweb-sub001/internal/logger"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "cmdb",
		Usage: "Multi-tenant configuration management database server and CLI",
		Commands: []*cli.Command{
			serverCommand(),
			useCommand(),
			tenantCommand(),
			catalogCommand(),
			objectsCommand(),
			edgesCommand(),
			graphCommand(),
			layoutCommand(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runServer(ctx, "", "")
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		log.Fatal(err)
	}
}

func serverCommand() *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "Run the JSON-RPC server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "rpc-socket", Usage: "JSON-RPC unix socket path"},
			&cli.StringFlag{Name: "db-path", Usage: "SQLite database path"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runServer(ctx, c.String("rpc-socket"), c.String("db-path"))
		},
	}
}

func runServer(ctx context.Context, rpcSocket, dbPath string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if rpcSocket == "" {
		rpcSocket = cfg.SocketPath
	}
	if dbPath == "" {
		dbPath = cfg.DBPath
	}
	if err := logger.Init(cfg.Env); err != nil {
		return err
	}
	defer logger.Sync()
	zlog := logger.Get()

	db, err := sqliteadapter.Open(dbPath)
	if err != nil {
		return err
	}
	if err := sqliteadapter.RunMigrations(ctx, db); err != nil {
		return err
	}

	repo := sqliteadapter.NewRepository(db)
	catalog := application.NewCatalogService(repo)
	inventory := application.NewInventoryService(repo)
	graph := application.NewGraphService(repo)

	rpcSrv, err := rpcadapter.Start(rpcSocket, catalog, inventory, graph, zlog)
	if err != nil {
		return err
	}
	defer func() {
		_ = rpcSrv.Close()
	}()
	zlog.Info("json-rpc listening", zap.String("socket", rpcSocket), zap.String("db", dbPath))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	zlog.Info("shutting down", zap.String("signal", sig.String()))
	return nil
}

func useCommand() *cli.Command {
	return &cli.Command{
		Name:  "use",
		Usage: "Set default socket and tenant for CLI calls",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "socket"},
			&cli.StringFlag{Name: "tenant"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadCLIConfig()
			if err != nil {
				return err
			}
			if c.IsSet("socket") {
				cfg.Socket = c.String("socket")
			}
			if c.IsSet("tenant") {
				cfg.Tenant = c.String("tenant")
			}
			if err := saveCLIConfig(cfg); err != nil {
				return err
			}
			printKV([][2]string{{"socket", cfg.Socket}, {"tenant", cfg.Tenant}})
			return nil
		},
	}
}

func tenantCommand() *cli.Command {
	return &cli.Command{
		Name:  "tenant",
		Usage: "Tenant commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List tenants",
				Flags: []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "output raw JSON"}},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadCLIConfig()
					if err != nil {
						return err
					}
					var out []domain.Tenant
					if err := doTenantsList(ctx, cfg, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printTenants(out)
					return nil
				},
			},
			{
				Name:  "create",
				Usage: "Create tenant",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "code", Required: true},
					&cli.StringFlag{Name: "name", Required: true},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadCLIConfig()
					if err != nil {
						return err
					}
					var out domain.Tenant
					if err := doTenantsCreate(ctx, cfg, c.String("code"), c.String("name"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printTenants([]domain.Tenant{out})
					return nil
				},
			},
			{
				Name:  "delete",
				Usage: "Delete tenant (blocked while dependents exist)",
				Flags: []cli.Flag{&cli.StringFlag{Name: "tenant", Required: true}},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadCLIConfig()
					if err != nil {
						return err
					}
					if err := doTenantsDelete(ctx, cfg, c.String("tenant")); err != nil {
						return err
					}
					fmt.Println("deleted")
					return nil
				},
			},
		},
	}
}

func catalogCommand() *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Schema catalog commands",
		Commands: []*cli.Command{
			{
				Name:  "entity-types",
				Usage: "Manage entity types",
				Commands: []*cli.Command{
					{
						Name:  "list",
						Usage: "List entity types",
						Flags: []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "output raw JSON"}},
						Action: func(ctx context.Context, c *cli.Command) error {
							cfg, err := loadCLIConfig()
							if err != nil {
								return err
							}
							var out []domain.EntityType
							if err := doEntityTypesList(ctx, cfg, &out); err != nil {
								return err
							}
							if c.Bool("json") {
								return printJSON(out)
							}
							printEntityTypes(out)
							return nil
						},
					},
					{
						Name:  "create",
						Usage: "Create entity type",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "code", Required: true},
							&cli.StringFlag{Name: "name", Required: true},
							&cli.StringFlag{Name: "icon"},
							&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
						},
						Action: func(ctx context.Context, c *cli.Command) error {
							cfg, err := loadCLIConfig()
							if err != nil {
								return err
							}
							var out domain.EntityType
							if err := doEntityTypesCreate(ctx, cfg, c.String("code"), c.String("name"), c.String("icon"), &out); err != nil {
								return err
							}
							if c.Bool("json") {
								return printJSON(out)
							}
							printEntityTypes([]domain.EntityType{out})
							return nil
						},
					},
					{
						Name:  "delete",
						Usage: "Delete entity type (blocked while dependents exist)",
						Flags: []cli.Flag{&cli.StringFlag{Name: "code", Required: true}},
						Action: func(ctx context.Context, c *cli.Command) error {
							cfg, err := loadCLIConfig()
							if err != nil {
								return err
							}
							if err := doEntityTypesDelete(ctx, cfg, c.String("code")); err != nil {
								return err
							}
							fmt.Println("deleted")
							return nil
						},
					},
				},
			},
			{
				Name:  "relation-types",
				Usage: "Manage relation types",
				Commands: []*cli.Command{
					{
						Name:  "list",
						Usage: "List relation types",
						Flags: []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "output raw JSON"}},
						Action: func(ctx context.Context, c *cli.Command) error {
							cfg, err := loadCLIConfig()
							if err != nil {
								return err
							}
							var out []domain.RelationType
							if err := doRelationTypesList(ctx, cfg, &out); err != nil {
								return err
							}
							if c.Bool("json") {
								return printJSON(out)
							}
							printRelationTypes(out)
							return nil
						},
					},
					{
						Name:  "create",
						Usage: "Create relation type",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "code", Required: true},
							&cli.StringFlag{Name: "label", Required: true},
							&cli.BoolFlag{Name: "directed"},
							&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
						},
						Action: func(ctx context.Context, c *cli.Command) error {
							cfg, err := loadCLIConfig()
							if err != nil {
								return err
							}
							var out domain.RelationType
							if err := doRelationTypesCreate(ctx, cfg, c.String("code"), c.String("label"), c.Bool("directed"), &out); err != nil {
								return err
							}
							if c.Bool("json") {
								return printJSON(out)
							}
							printRelationTypes([]domain.RelationType{out})
							return nil
						},
					},
				},
			},
			{
				Name:  "attributes",
				Usage: "Manage attribute definitions",
				Commands: []*cli.Command{
					{
						Name:  "list",
						Usage: "List attributes",
						Flags: []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "output raw JSON"}},
						Action: func(ctx context.Context, c *cli.Command) error {
							cfg, err := loadCLIConfig()
							if err != nil {
								return err
							}
							var out []domain.Attribute
							if err := doAttributesList(ctx, cfg, &out); err != nil {
								return err
							}
							if c.Bool("json") {
								return printJSON(out)
							}
							printAttributes(out)
							return nil
						},
					},
					{
						Name:  "create",
						Usage: "Create attribute",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "code", Required: true},
							&cli.StringFlag{Name: "label", Required: true},
							&cli.StringFlag{Name: "data-type", Value: "string"},
							&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
						},
						Action: func(ctx context.Context, c *cli.Command) error {
							cfg, err := loadCLIConfig()
							if err != nil {
								return err
							}
							var out domain.Attribute
							if err := doAttributesCreate(ctx, cfg, c.String("code"), c.String("label"), c.String("data-type"), &out); err != nil {
								return err
							}
							if c.Bool("json") {
								return printJSON(out)
							}
							printAttributes([]domain.Attribute{out})
							return nil
						},
					},
					{
						Name:  "delete",
						Usage: "Delete attribute (blocked while dependents exist)",
						Flags: []cli.Flag{&cli.StringFlag{Name: "code", Required: true}},
						Action: func(ctx context.Context, c *cli.Command) error {
							cfg, err := loadCLIConfig()
							if err != nil {
								return err
							}
							if err := doAttributesDelete(ctx, cfg, c.String("code")); err != nil {
								return err
							}
							fmt.Println("deleted")
							return nil
						},
					},
				},
			},
			{
				Name:  "mappings",
				Usage: "Manage type-attribute mappings",
				Commands: []*cli.Command{
					{
						Name:  "list",
						Usage: "List the declared schema of an entity type",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "type", Required: true},
							&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
						},
						Action: func(ctx context.Context, c *cli.Command) error {
							cfg, err := loadCLIConfig()
							if err != nil {
								return err
							}
							var out []domain.AttributeSchema
							if err := doMappingList(ctx, cfg, c.String("type"), &out); err != nil {
								return err
							}
							if c.Bool("json") {
								return printJSON(out)
							}
							printSchema(out)
							return nil
						},
					},
					{
						Name:  "create",
						Usage: "Map an attribute onto an entity type",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "type", Required: true},
							&cli.StringFlag{Name: "attr", Required: true},
							&cli.BoolFlag{Name: "required"},
							&cli.StringFlag{Name: "cardinality", Value: "one"},
							&cli.IntFlag{Name: "order"},
							&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
						},
						Action: func(ctx context.Context, c *cli.Command) error {
							cfg, err := loadCLIConfig()
							if err != nil {
								return err
							}
							var out domain.TypeAttribute
							if err := doMappingCreate(ctx, cfg, c.String("type"), c.String("attr"), c.Bool("required"), c.String("cardinality"), int(c.Int("order")), &out); err != nil {
								return err
							}
							return printJSON(out)
						},
					},
				},
			},
		},
	}
}

func objectsCommand() *cli.Command {
	return &cli.Command{
		Name:  "objects",
		Usage: "Configuration item commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List configuration items",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type"},
					&cli.StringFlag{Name: "q"},
					&cli.IntFlag{Name: "limit", Value: 100},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadCLIConfig()
					if err != nil {
						return err
					}
					var out []domain.Entity
					if err := doObjectsList(ctx, cfg, c.String("type"), c.String("q"), int(c.Int("limit")), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printEntities(out)
					return nil
				},
			},
			{
				Name:  "create",
				Usage: "Create a configuration item",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Required: true},
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "ci", Usage: "explicit CI key, generated when empty"},
					&cli.StringFlag{Name: "attrs", Usage: "code=value,code=value"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadCLIConfig()
					if err != nil {
						return err
					}
					attrs, err := parseAttrPairs(c.String("attrs"))
					if err != nil {
						return err
					}
					var out domain.Entity
					if err := doObjectsCreate(ctx, cfg, c.String("type"), c.String("ci"), c.String("name"), attrs, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printEntities([]domain.Entity{out})
					return nil
				},
			},
			{
				Name:  "update",
				Usage: "Rename a configuration item or change its status",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "ci", Required: true},
					&cli.StringFlag{Name: "name"},
					&cli.StringFlag{Name: "status"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadCLIConfig()
					if err != nil {
						return err
					}
					var name, status *string
					if c.IsSet("name") {
						v := c.String("name")
						name = &v
					}
					if c.IsSet("status") {
						v := c.String("status")
						status = &v
					}
					var out domain.Entity
					if err := doObjectsUpdate(ctx, cfg, c.String("ci"), name, status, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printEntities([]domain.Entity{out})
					return nil
				},
			},
			{
				Name:  "delete",
				Usage: "Delete a configuration item and its attribute values",
				Flags: []cli.Flag{&cli.StringFlag{Name: "ci", Required: true}},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadCLIConfig()
					if err != nil {
						return err
					}
					if err := doObjectsDelete(ctx, cfg, c.String("ci")); err != nil {
						return err
					}
					fmt.Println("deleted")
					return nil
				},
			},
			{
				Name:  "attrs",
				Usage: "Read or write attribute values",
				Commands: []*cli.Command{
					{
						Name:  "get",
						Usage: "Show schema attributes and current values for a CI",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "ci", Required: true},
							&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
						},
						Action: func(ctx context.Context, c *cli.Command) error {
							cfg, err := loadCLIConfig()
							if err != nil {
								return err
							}
							var out []domain.CIAttribute
							if err := doAttrsGet(ctx, cfg, c.String("ci"), &out); err != nil {
								return err
							}
							if c.Bool("json") {
								return printJSON(out)
							}
							printCIAttributes(out)
							return nil
						},
					},
					{
						Name:  "set",
						Usage: "Upsert attribute values for a CI",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "ci", Required: true},
							&cli.StringFlag{Name: "values", Required: true, Usage: "code=value,code=value"},
						},
						Action: func(ctx context.Context, c *cli.Command) error {
							cfg, err := loadCLIConfig()
							if err != nil {
								return err
							}
							values, err := parseAttrPairs(c.String("values"))
							if err != nil {
								return err
							}
							if err := doAttrsSet(ctx, cfg, c.String("ci"), values); err != nil {
								return err
							}
							fmt.Println("ok")
							return nil
						},
					},
				},
			},
		},
	}
}

func edgesCommand() *cli.Command {
	return &cli.Command{
		Name:  "edges",
		Usage: "Relation commands",
		Commands: []*cli.Command{
			{
				Name:  "connect",
				Usage: "Connect two CIs (idempotent)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Required: true},
					&cli.StringFlag{Name: "src", Required: true},
					&cli.StringFlag{Name: "dst", Required: true},
					&cli.StringFlag{Name: "note"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadCLIConfig()
					if err != nil {
						return err
					}
					var out domain.Relation
					if err := doEdgesConnect(ctx, cfg, c.String("type"), c.String("src"), c.String("dst"), c.String("note"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printRelation(out)
					return nil
				},
			},
			{
				Name:  "delete",
				Usage: "Delete relation by id",
				Flags: []cli.Flag{&cli.UintFlag{Name: "edge-id", Required: true}},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadCLIConfig()
					if err != nil {
						return err
					}
					if err := doEdgesDelete(ctx, cfg, uint(c.Uint("edge-id"))); err != nil {
						return err
					}
					fmt.Println("deleted")
					return nil
				},
			},
		},
	}
}

func graphCommand() *cli.Command {
	return &cli.Command{
		Name:  "graph",
		Usage: "Graph commands",
		Commands: []*cli.Command{
			{
				Name:  "query",
				Usage: "Build a filtered subgraph",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "types", Usage: "csv entity type codes"},
					&cli.StringFlag{Name: "cis", Usage: "csv CI keys"},
					&cli.StringFlag{Name: "user", Usage: "merge saved layout for this user"},
					&cli.StringFlag{Name: "canvas", Usage: "merge saved layout for this canvas"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadCLIConfig()
					if err != nil {
						return err
					}
					var out domain.Graph
					if err := doGraphQuery(ctx, cfg, splitCSV(c.String("types")), splitCSV(c.String("cis")), c.String("user"), c.String("canvas"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printGraph(out)
					return nil
				},
			},
			{
				Name:  "ego",
				Usage: "Build the n-hop neighborhood of a CI",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "ci", Required: true},
					&cli.IntFlag{Name: "depth", Value: 2},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadCLIConfig()
					if err != nil {
						return err
					}
					var out domain.Graph
					if err := doGraphEgo(ctx, cfg, c.String("ci"), int(c.Int("depth")), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printGraph(out)
					return nil
				},
			},
		},
	}
}

func layoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "layout",
		Usage: "Canvas layout commands",
		Commands: []*cli.Command{
			{
				Name:  "save",
				Usage: "Save node positions from a JSON map {ci: {x, y}}",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Required: true},
					&cli.StringFlag{Name: "canvas", Required: true},
					&cli.StringFlag{Name: "positions", Required: true, Usage: "JSON object of CI positions"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadCLIConfig()
					if err != nil {
						return err
					}
					var positions map[string]domain.Position
					if err := json.Unmarshal([]byte(c.String("positions")), &positions); err != nil {
						return fmt.Errorf("positions must be a JSON object: %w", err)
					}
					if err := doLayoutSave(ctx, cfg, c.String("user"), c.String("canvas"), positions); err != nil {
						return err
					}
					fmt.Println("saved")
					return nil
				},
			},
			{
				Name:  "get",
				Usage: "Show saved node positions",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Required: true},
					&cli.StringFlag{Name: "canvas", Required: true},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadCLIConfig()
					if err != nil {
						return err
					}
					var out map[string]domain.Position
					if err := doLayoutGet(ctx, cfg, c.String("user"), c.String("canvas"), &out); err != nil {
						return err
					}
					return printJSON(out)
				},
			},
		},
	}
}

func jsonMarshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
