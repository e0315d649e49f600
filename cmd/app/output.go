package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dramseie/repweb-sub001/internal/domain"
)

func printJSON(v any) error {
	b, err := jsonMarshal(v)
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printKV(rows [][2]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}
	_ = w.Flush()
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Println("no results")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func printTenants(items []domain.Tenant) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(item.ID), 10),
			item.Code,
			item.Name,
			formatTime(item.CreatedAt),
		})
	}
	printTable([]string{"ID", "CODE", "NAME", "CREATED_AT"}, rows)
}

func printEntityTypes(items []domain.EntityType) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(item.ID), 10),
			item.Code,
			item.Name,
			item.Icon,
		})
	}
	printTable([]string{"ID", "CODE", "NAME", "ICON"}, rows)
}

func printRelationTypes(items []domain.RelationType) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(item.ID), 10),
			item.Code,
			item.Label,
			strconv.FormatBool(item.Directed),
		})
	}
	printTable([]string{"ID", "CODE", "LABEL", "DIRECTED"}, rows)
}

func printAttributes(items []domain.Attribute) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(item.ID), 10),
			item.Code,
			item.Label,
			string(item.DataType),
			item.Visibility,
		})
	}
	printTable([]string{"ID", "CODE", "LABEL", "DATA_TYPE", "VISIBILITY"}, rows)
}

func printSchema(items []domain.AttributeSchema) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.Itoa(item.DisplayOrder),
			item.Code,
			item.Label,
			string(item.DataType),
			strconv.FormatBool(item.Required),
			item.Cardinality,
		})
	}
	printTable([]string{"ORDER", "CODE", "LABEL", "DATA_TYPE", "REQUIRED", "CARDINALITY"}, rows)
}

func printEntities(items []domain.Entity) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.CI,
			item.TypeCode,
			item.Name,
			item.Status,
			formatTime(item.UpdatedAt),
		})
	}
	printTable([]string{"CI", "TYPE", "NAME", "STATUS", "UPDATED_AT"}, rows)
}

func printCIAttributes(items []domain.CIAttribute) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		value := "-"
		if item.HasValue {
			value = fmt.Sprintf("%v", item.Value)
		}
		rows = append(rows, []string{
			item.Code,
			item.Label,
			string(item.DataType),
			value,
		})
	}
	printTable([]string{"CODE", "LABEL", "DATA_TYPE", "VALUE"}, rows)
}

func printRelation(item domain.Relation) {
	printKV([][2]string{
		{"id", strconv.FormatUint(uint64(item.ID), 10)},
		{"type", item.TypeCode},
		{"src", item.SrcCI},
		{"dst", item.DstCI},
		{"note", item.Note},
	})
}

func printGraph(g domain.Graph) {
	nodeRows := make([][]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		nodeRows = append(nodeRows, []string{n.ID, n.Type, n.Label})
	}
	printTable([]string{"CI", "TYPE", "LABEL"}, nodeRows)
	fmt.Println()
	edgeRows := make([][]string, 0, len(g.Edges))
	for _, e := range g.Edges {
		edgeRows = append(edgeRows, []string{
			strconv.FormatUint(uint64(e.ID), 10),
			e.Source,
			e.Type,
			e.Target,
		})
	}
	printTable([]string{"ID", "SOURCE", "TYPE", "TARGET"}, edgeRows)
}
