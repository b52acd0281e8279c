package searchindex

// schemaSQL follows original_source's search_index design (a shadow table
// plus an FTS5 virtual table kept in sync) reshaped into the teacher's
// split external-content idiom from ternarybob-quaero's
// internal/storage/sqlite/schema.go (documents_fts + AFTER INSERT/UPDATE/DELETE
// triggers), so search_index stays a plain queryable table for filters while
// search_index_fts carries only the tokenized columns.
//
// Building this binary requires the mattn/go-sqlite3 "sqlite_fts5" build tag
// (-tags sqlite_fts5) to compile FTS5 support into the bundled SQLite amalgamation.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS search_index (
	rowid INTEGER PRIMARY KEY,
	id TEXT NOT NULL,
	project_id TEXT NOT NULL,
	type TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL DEFAULT '',
	permalink TEXT NOT NULL,
	file_path TEXT NOT NULL DEFAULT '',
	entity_type TEXT NOT NULL DEFAULT '',
	metadata TEXT NOT NULL DEFAULT '{}',
	entity_id TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	from_id TEXT NOT NULL DEFAULT '',
	to_id TEXT NOT NULL DEFAULT '',
	relation_type TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL DEFAULT '',
	updated_at TEXT NOT NULL DEFAULT ''
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_search_index_project_id
	ON search_index(project_id, id);
CREATE INDEX IF NOT EXISTS idx_search_index_project_permalink
	ON search_index(project_id, permalink);
CREATE INDEX IF NOT EXISTS idx_search_index_project_type
	ON search_index(project_id, type);
CREATE INDEX IF NOT EXISTS idx_search_index_project_created
	ON search_index(project_id, created_at);

CREATE VIRTUAL TABLE IF NOT EXISTS search_index_fts USING fts5(
	title,
	content,
	permalink,
	content=search_index,
	content_rowid=rowid
);

CREATE TRIGGER IF NOT EXISTS search_index_fts_insert AFTER INSERT ON search_index BEGIN
	INSERT INTO search_index_fts(rowid, title, content, permalink)
	VALUES (new.rowid, new.title, new.content, new.permalink);
END;

CREATE TRIGGER IF NOT EXISTS search_index_fts_update AFTER UPDATE ON search_index BEGIN
	UPDATE search_index_fts SET title = new.title, content = new.content, permalink = new.permalink
	WHERE rowid = new.rowid;
END;

CREATE TRIGGER IF NOT EXISTS search_index_fts_delete AFTER DELETE ON search_index BEGIN
	DELETE FROM search_index_fts WHERE rowid = old.rowid;
END;

CREATE TABLE IF NOT EXISTS search_vector_chunks (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	row_id TEXT NOT NULL,
	chunk_index INTEGER NOT NULL,
	chunk_text TEXT NOT NULL,
	embedding BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_search_vector_chunks_row
	ON search_vector_chunks(project_id, row_id);
`
