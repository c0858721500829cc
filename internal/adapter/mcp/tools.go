package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/warequery/warequery/internal/core/domain"
	"github.com/warequery/warequery/internal/core/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server metadata
const serverName = "warequery"

// Tool descriptions
const (
	descAsk = "Answer a natural language question about warehouse data by planning and executing a SQL query. " +
		"Understands counting, listing, summarizing, trend, and comparison questions with time ranges " +
		"(\"last week\", \"last 30 days\"), status words (\"pending\", \"shipped\"), and record identifiers. " +
		"Pass a functional area to scope the question to one part of the warehouse and enable fallback " +
		"answers when the composed query fails. The result includes the SQL used, quality and size " +
		"metadata, and any safety warnings."

	descAskQuestion = "The question to answer, in plain English"

	descAskCategory = "Functional area to scope the question to: locations, items, inventory, receiving, " +
		"picking, packing, shipping, orders, work, or users. Optional; when omitted the most relevant " +
		"tables are chosen from the whole schema."

	descAskRelated = "Comma-separated additional functional areas to draw join tables from. " +
		"Only used together with category."

	descAskMaxRows = "Maximum number of rows to return. Optional; capped by the server-side limit."

	descTableSchema = "Return the full introspected schema of one table: columns with types and comments, " +
		"primary keys, foreign keys, indexes, functional area, row estimate, and sample values when available. " +
		"Use this to understand a table before asking detailed questions about it."

	descTablesByCategory = "List the tables assigned to one functional area of the warehouse " +
		"(locations, items, inventory, receiving, picking, packing, shipping, orders, work, users, or other)."

	descExtractSchema = "Re-introspect the database and atomically replace the in-memory schema catalog. " +
		"Call this after schema migrations so table and relationship knowledge stays current. " +
		"Returns a summary of the extracted catalog."

	descIndexAdvice = "Analyze a SQL query for performance anti-patterns (leading-wildcard LIKE, functions on " +
		"indexed columns, OR chains, missing date bounds) and recommend indexes with priority and expected " +
		"benefit. With no SQL given, returns index recommendations for the whole catalog."

	descEngineStats = "Return engine counters: total queries, failures, unsafe rejections, fallback answers, " +
		"and average latency."
)

func RegisterTools(s *server.MCPServer, deps ToolDeps) {
	s.AddTool(
		mcp.NewTool("ask",
			mcp.WithDescription(descAsk),
			mcp.WithString("question",
				mcp.Required(),
				mcp.Description(descAskQuestion),
			),
			mcp.WithString("category",
				mcp.Description(descAskCategory),
			),
			mcp.WithString("related_categories",
				mcp.Description(descAskRelated),
			),
			mcp.WithNumber("max_rows",
				mcp.Description(descAskMaxRows),
			),
		),
		askHandler(deps.Queries, deps.Orchestrator),
	)

	s.AddTool(
		mcp.NewTool("table_schema",
			mcp.WithDescription(descTableSchema),
			mcp.WithString("table_name",
				mcp.Required(),
				mcp.Description("Name of the table to describe"),
			),
		),
		tableSchemaHandler(deps.Catalog),
	)

	s.AddTool(
		mcp.NewTool("tables_by_category",
			mcp.WithDescription(descTablesByCategory),
			mcp.WithString("category",
				mcp.Required(),
				mcp.Description("Functional area name"),
			),
		),
		tablesByCategoryHandler(deps.Catalog),
	)

	s.AddTool(
		mcp.NewTool("extract_schema",
			mcp.WithDescription(descExtractSchema),
			mcp.WithBoolean("include_samples",
				mcp.Description("Collect sample rows and exact counts per table. Slower; defaults to false."),
			),
		),
		extractSchemaHandler(deps.Catalog, deps.SampleSize),
	)

	s.AddTool(
		mcp.NewTool("index_advice",
			mcp.WithDescription(descIndexAdvice),
			mcp.WithString("sql",
				mcp.Description("SQL query to analyze (optional)"),
			),
		),
		indexAdviceHandler(deps.Queries),
	)

	s.AddTool(
		mcp.NewTool("engine_stats",
			mcp.WithDescription(descEngineStats),
		),
		engineStatsHandler(deps.Queries),
	)
}

func askHandler(queries *service.QueryService, orch *service.Orchestrator) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		question, ok := args["question"].(string)
		if !ok || strings.TrimSpace(question) == "" {
			return mcp.NewToolResultError("question is required"), nil
		}

		maxRows := 0
		if n, ok := args["max_rows"].(float64); ok && n > 0 {
			maxRows = int(n)
		}

		ctx = service.WithToolName(ctx, "ask")

		categoryArg, _ := args["category"].(string)
		if strings.TrimSpace(categoryArg) == "" {
			result, err := queries.ExecuteNatural(ctx, question, "", maxRows)
			return marshalResult(result, err)
		}

		primary, known := domain.ParseCategory(categoryArg)
		if !known {
			return mcp.NewToolResultError(fmt.Sprintf("unknown category %q", categoryArg)), nil
		}

		var related []domain.Category
		if relArg, _ := args["related_categories"].(string); relArg != "" {
			for _, s := range strings.Split(relArg, ",") {
				if cat, ok := domain.ParseCategory(s); ok {
					related = append(related, cat)
				}
			}
		}

		result, err := orch.PlanAndExecute(ctx, question, primary, related, maxRows)
		return marshalResult(result, err)
	}
}

func tableSchemaHandler(catalog *service.CatalogService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tableName, ok := request.GetArguments()["table_name"].(string)
		if !ok || tableName == "" {
			return mcp.NewToolResultError("table_name is required"), nil
		}

		schema, err := catalog.TableSchema(tableName)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to describe table: %v", err)), nil
		}

		return marshalJSON(schema)
	}
}

func tablesByCategoryHandler(catalog *service.CatalogService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		categoryArg, ok := request.GetArguments()["category"].(string)
		if !ok || categoryArg == "" {
			return mcp.NewToolResultError("category is required"), nil
		}

		cat, known := domain.ParseCategory(categoryArg)
		if !known {
			return mcp.NewToolResultError(fmt.Sprintf("unknown category %q", categoryArg)), nil
		}

		tables, err := catalog.TablesByCategory(cat)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list tables: %v", err)), nil
		}

		return marshalJSON(tables)
	}
}

func extractSchemaHandler(catalog *service.CatalogService, sampleSize int) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		includeSamples, _ := request.GetArguments()["include_samples"].(bool)

		cat, err := catalog.Extract(ctx, includeSamples, sampleSize)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("schema extraction failed: %v", err)), nil
		}

		summary := map[string]any{
			"tables":     len(cat.Tables()),
			"categories": map[string]int{},
		}
		counts := summary["categories"].(map[string]int)
		for _, t := range cat.Tables() {
			counts[string(t.Category)]++
		}

		return marshalJSON(summary)
	}
}

func indexAdviceHandler(queries *service.QueryService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sql, _ := request.GetArguments()["sql"].(string)

		recs, err := queries.IndexAdvice(sql)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("index analysis failed: %v", err)), nil
		}

		return marshalJSON(recs)
	}
}

func engineStatsHandler(queries *service.QueryService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return marshalJSON(queries.Stats())
	}
}

// marshalResult serializes an execution result, mapping planning errors to
// tool errors. A failed ExecutionResult is still a valid answer and is
// returned as data.
func marshalResult(result *domain.ExecutionResult, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}
	return marshalJSON(result)
}

func marshalJSON(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
