package postgres

// queryListTables has one %s placeholder for the schema filter clause.
const queryListTables = `
	SELECT t.table_schema, t.table_name
	FROM information_schema.tables t
	WHERE %s
		AND t.table_type = 'BASE TABLE'
	ORDER BY t.table_schema, t.table_name`

// queryColumns returns the columns of one table in ordinal order.
// $1 = schema, $2 = table_name.
const queryColumns = `
	SELECT
		c.column_name,
		c.data_type,
		c.is_nullable = 'YES',
		COALESCE(c.column_default, '')
	FROM information_schema.columns c
	WHERE c.table_schema = $1 AND c.table_name = $2
	ORDER BY c.ordinal_position`

// queryTableComment fetches the table comment. $1 = schema, $2 = table_name.
const queryTableComment = `
	SELECT COALESCE(pg_catalog.obj_description(
		(quote_ident($1) || '.' || quote_ident($2))::regclass, 'pg_class'
	), '')`

// queryPrimaryKeys returns the primary key columns in key order.
// $1 = schema, $2 = table_name.
const queryPrimaryKeys = `
	SELECT a.attname
	FROM pg_index i
	JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey)
	WHERE i.indrelid = (quote_ident($1) || '.' || quote_ident($2))::regclass
		AND i.indisprimary
	ORDER BY array_position(i.indkey, a.attnum)`

// queryForeignKeys returns one row per (constraint, column ordinal) so
// multi-column keys can be reassembled in order.
// $1 = schema, $2 = table_name.
const queryForeignKeys = `
	SELECT
		tc.constraint_name,
		kcu.column_name,
		ccu.table_name AS referenced_table,
		ccu.column_name AS referenced_column,
		kcu.ordinal_position
	FROM information_schema.table_constraints tc
	JOIN information_schema.key_column_usage kcu
		ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
	JOIN information_schema.constraint_column_usage ccu
		ON tc.constraint_name = ccu.constraint_name AND tc.table_schema = ccu.table_schema
	WHERE tc.constraint_type = 'FOREIGN KEY'
		AND tc.table_schema = $1
		AND tc.table_name = $2
	ORDER BY tc.constraint_name, kcu.ordinal_position`

// queryIndexes returns one row per (index, column ordinal).
// $1 = schema, $2 = table_name.
const queryIndexes = `
	SELECT
		c.relname,
		i.indisunique,
		a.attname,
		pg_get_indexdef(i.indexrelid)
	FROM pg_index i
	JOIN pg_class c ON c.oid = i.indexrelid
	JOIN pg_class r ON r.oid = i.indrelid
	JOIN pg_namespace n ON n.oid = r.relnamespace
	JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey)
	WHERE n.nspname = $1 AND r.relname = $2 AND NOT i.indisprimary
	ORDER BY c.relname, array_position(i.indkey, a.attnum)`

// queryRowEstimate reads the planner's row estimate from pg_class.
// $1 = schema, $2 = table_name.
const queryRowEstimate = `
	SELECT COALESCE(c.reltuples::bigint, 0)
	FROM pg_class c
	JOIN pg_namespace n ON n.oid = c.relnamespace
	WHERE n.nspname = $1 AND c.relname = $2`
