package searchindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Index wraps the search_index / search_index_fts / search_vector_chunks
// tables, grounded on original_source's SearchRepository (search/index_item/
// delete_by_permalink) reshaped around the teacher's bun.DB + RunInTx idiom.
type Index struct {
	db       *bun.DB
	embedder EmbeddingProvider
}

// New builds an Index. A nil embedder disables vector and hybrid search.
func New(db *bun.DB, embedder EmbeddingProvider) *Index {
	if embedder == nil {
		embedder = NullProvider{}
	}
	return &Index{db: db, embedder: embedder}
}

// CreateSchema creates the search tables, FTS5 virtual table, and sync
// triggers if they do not already exist.
func (idx *Index) CreateSchema(ctx context.Context) error {
	_, err := idx.db.ExecContext(ctx, schemaSQL)
	return err
}

// IndexRow upserts row into the FTS-backed search_index table, idempotent
// under (project_id, id). A permalink is shared by every row belonging to
// one entity (the entity row itself, plus one row per observation and
// relation it owns), so the row id, not the permalink, is the upsert key.
func (idx *Index) IndexRow(ctx context.Context, row IndexedRow) error {
	metadataJSON, err := json.Marshal(row.Metadata)
	if err != nil {
		return fmt.Errorf("searchindex: marshal metadata: %w", err)
	}

	return idx.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM search_index WHERE project_id = ? AND id = ?`,
			row.ProjectID, row.ID,
		); err != nil {
			return fmt.Errorf("searchindex: delete existing row: %w", err)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO search_index (
				id, project_id, type, title, content, permalink, file_path, entity_type,
				metadata, entity_id, category, from_id, to_id, relation_type, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			row.ID, row.ProjectID, string(row.Type), row.Title, row.Content, row.Permalink,
			row.FilePath, row.EntityType, string(metadataJSON), row.EntityID, row.Category,
			row.FromID, row.ToID, row.RelationType, formatTimestamp(row.CreatedAt), formatTimestamp(row.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("searchindex: insert row: %w", err)
		}
		return nil
	})
}

// DeleteByPermalink removes every row sharing permalink (the entity row plus
// its observation and relation rows) and any vector chunks indexed under
// their ids, in a single transaction.
func (idx *Index) DeleteByPermalink(ctx context.Context, projectID, permalink string) error {
	return idx.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT id FROM search_index WHERE project_id = ? AND permalink = ?`,
			projectID, permalink,
		)
		if err != nil {
			return fmt.Errorf("searchindex: lookup row ids: %w", err)
		}
		var rowIDs []string
		for rows.Next() {
			var rowID string
			if err := rows.Scan(&rowID); err != nil {
				rows.Close()
				return fmt.Errorf("searchindex: scan row id: %w", err)
			}
			rowIDs = append(rowIDs, rowID)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("searchindex: lookup row ids: %w", err)
		}
		rows.Close()

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM search_index WHERE project_id = ? AND permalink = ?`,
			projectID, permalink,
		); err != nil {
			return fmt.Errorf("searchindex: delete row: %w", err)
		}

		for _, rowID := range rowIDs {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM search_vector_chunks WHERE project_id = ? AND row_id = ?`,
				projectID, rowID,
			); err != nil {
				return fmt.Errorf("searchindex: delete vector chunks: %w", err)
			}
		}
		return nil
	})
}

// IndexChunks chunks body, embeds each chunk, and replaces rowID's vector
// chunks. Returns ErrSemanticSearchDisabled when no embedder is configured.
func (idx *Index) IndexChunks(ctx context.Context, projectID, rowID, body string) error {
	chunks := chunkBody(body)
	if len(chunks) == 0 {
		_, err := idx.db.ExecContext(ctx,
			`DELETE FROM search_vector_chunks WHERE project_id = ? AND row_id = ?`,
			projectID, rowID,
		)
		return err
	}

	embeddings, err := idx.embedder.Embed(ctx, chunks)
	if err != nil {
		return err
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("searchindex: embedding provider returned %d vectors for %d chunks", len(embeddings), len(chunks))
	}

	return idx.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM search_vector_chunks WHERE project_id = ? AND row_id = ?`,
			projectID, rowID,
		); err != nil {
			return fmt.Errorf("searchindex: delete existing chunks: %w", err)
		}

		for i, chunk := range chunks {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO search_vector_chunks (id, project_id, row_id, chunk_index, chunk_text, embedding)
				VALUES (?, ?, ?, ?, ?, ?)`,
				fmt.Sprintf("%s:%d", rowID, i), projectID, rowID, i, chunk, encodeEmbedding(embeddings[i]),
			); err != nil {
				return fmt.Errorf("searchindex: insert chunk %d: %w", i, err)
			}
		}
		return nil
	})
}

// Search runs the retrieval mode selected by opts.Mode, defaulting to FTS.
func (idx *Index) Search(ctx context.Context, projectID, query string, opts SearchOptions) ([]IndexedRow, error) {
	switch opts.Mode {
	case ModeVector:
		return idx.searchVector(ctx, projectID, query, opts)
	case ModeHybrid:
		return idx.searchHybrid(ctx, projectID, query, opts)
	default:
		return idx.searchFTS(ctx, projectID, query, opts)
	}
}

func (idx *Index) searchFTS(ctx context.Context, projectID, query string, opts SearchOptions) ([]IndexedRow, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	from := "search_index s"
	conditions := []string{"s.project_id = ?"}
	args := []any{projectID}

	if strings.TrimSpace(query) != "" {
		from = "search_index s JOIN search_index_fts ON search_index_fts.rowid = s.rowid"
		conditions = append(conditions, "search_index_fts MATCH ?")
		args = append(args, quoteFTSQuery(query))
	}
	conditions, args = appendFilterConditions(conditions, args, "s", opts.Filters)

	order := "s.created_at DESC"
	if strings.TrimSpace(query) != "" {
		order = "bm25(search_index_fts) ASC"
	}

	sqlText := fmt.Sprintf(`
		SELECT s.id, s.project_id, s.type, s.title, s.content, s.permalink, s.file_path,
		       s.entity_type, s.metadata, s.entity_id, s.category, s.from_id, s.to_id,
		       s.relation_type, s.created_at, s.updated_at
		FROM %s
		WHERE %s
		ORDER BY %s
		LIMIT ? OFFSET ?`, from, strings.Join(conditions, " AND "), order)
	args = append(args, limit, opts.Offset)

	rows, err := idx.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("searchindex: fts query: %w", err)
	}
	defer rows.Close()
	return scanIndexedRows(rows)
}

func (idx *Index) searchVector(ctx context.Context, projectID, query string, opts SearchOptions) ([]IndexedRow, error) {
	if idx.embedder.Dimension() == 0 {
		return nil, ErrSemanticSearchDisabled
	}

	embeddings, err := idx.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, ErrSemanticSearchDisabled
	}
	queryVector := embeddings[0]

	rows, err := idx.db.QueryContext(ctx,
		`SELECT row_id, embedding FROM search_vector_chunks WHERE project_id = ?`, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("searchindex: query chunks: %w", err)
	}
	defer rows.Close()

	best := make(map[string]float64)
	for rows.Next() {
		var rowID string
		var blob []byte
		if err := rows.Scan(&rowID, &blob); err != nil {
			return nil, fmt.Errorf("searchindex: scan chunk: %w", err)
		}
		vector, err := decodeEmbedding(blob)
		if err != nil {
			return nil, err
		}
		score := cosineSimilarity(queryVector, vector)
		if existing, ok := best[rowID]; !ok || score > existing {
			best[rowID] = score
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	ranked := rankByScore(best, limit)
	return idx.fetchRowsByID(ctx, projectID, ranked, opts.Filters)
}

func (idx *Index) searchHybrid(ctx context.Context, projectID, query string, opts SearchOptions) ([]IndexedRow, error) {
	if idx.embedder.Dimension() == 0 {
		return idx.searchFTS(ctx, projectID, query, opts)
	}

	weights := DefaultHybridWeights
	if opts.Weights != nil {
		weights = *opts.Weights
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	ftsRows, err := idx.searchFTS(ctx, projectID, query, SearchOptions{Filters: opts.Filters, Limit: limit * 2})
	if err != nil {
		return nil, err
	}

	vectorRows, err := idx.searchVector(ctx, projectID, query, SearchOptions{Filters: opts.Filters, Limit: limit * 2})
	if err != nil && !errors.Is(err, ErrSemanticSearchDisabled) {
		return nil, err
	}

	type fused struct {
		row   IndexedRow
		score float64
	}
	byKey := make(map[string]*fused)
	for rank, row := range ftsRows {
		key := string(row.Type) + ":" + row.ID
		byKey[key] = &fused{row: row, score: weights.FTS * (1.0 / float64(rank+1))}
	}
	for _, row := range vectorRows {
		key := string(row.Type) + ":" + row.ID
		contribution := weights.Vector * row.Score
		if existing, ok := byKey[key]; ok {
			existing.score += contribution
		} else {
			byKey[key] = &fused{row: row, score: contribution}
		}
	}

	merged := make([]fused, 0, len(byKey))
	for _, f := range byKey {
		merged = append(merged, *f)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].score > merged[j].score })
	if len(merged) > limit {
		merged = merged[:limit]
	}

	out := make([]IndexedRow, len(merged))
	for i, f := range merged {
		f.row.Score = f.score
		out[i] = f.row
	}
	return out, nil
}

type rankedID struct {
	id    string
	score float64
}

func rankByScore(scores map[string]float64, limit int) []rankedID {
	ranked := make([]rankedID, 0, len(scores))
	for id, score := range scores {
		ranked = append(ranked, rankedID{id: id, score: score})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func (idx *Index) fetchRowsByID(ctx context.Context, projectID string, ranked []rankedID, filters Filters) ([]IndexedRow, error) {
	if len(ranked) == 0 {
		return nil, nil
	}

	args := []any{projectID}
	placeholders := make([]string, len(ranked))
	scoreByID := make(map[string]float64, len(ranked))
	for i, r := range ranked {
		placeholders[i] = "?"
		args = append(args, r.id)
		scoreByID[r.id] = r.score
	}

	conditions := []string{"project_id = ?", fmt.Sprintf("id IN (%s)", strings.Join(placeholders, ", "))}
	conditions, args = appendFilterConditions(conditions, args, "", filters)

	sqlText := fmt.Sprintf(`
		SELECT id, project_id, type, title, content, permalink, file_path, entity_type,
		       metadata, entity_id, category, from_id, to_id, relation_type, created_at, updated_at
		FROM search_index
		WHERE %s`, strings.Join(conditions, " AND "))

	rows, err := idx.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("searchindex: fetch rows by id: %w", err)
	}
	defer rows.Close()

	fetched, err := scanIndexedRows(rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]IndexedRow, len(fetched))
	for _, row := range fetched {
		byID[row.ID] = row
	}

	out := make([]IndexedRow, 0, len(ranked))
	for _, r := range ranked {
		row, ok := byID[r.id]
		if !ok {
			continue
		}
		row.Score = r.score
		out = append(out, row)
	}
	return out, nil
}

func appendFilterConditions(conditions []string, args []any, alias string, filters Filters) ([]string, []any) {
	if len(filters.Types) > 0 {
		placeholders := make([]string, len(filters.Types))
		for i, t := range filters.Types {
			placeholders[i] = "?"
			args = append(args, string(t))
		}
		conditions = append(conditions, fmt.Sprintf("%s IN (%s)", columnRef(alias, "type"), strings.Join(placeholders, ", ")))
	}
	if len(filters.EntityTypes) > 0 {
		placeholders := make([]string, len(filters.EntityTypes))
		for i, et := range filters.EntityTypes {
			placeholders[i] = "?"
			args = append(args, et)
		}
		conditions = append(conditions, fmt.Sprintf("%s IN (%s)", columnRef(alias, "entity_type"), strings.Join(placeholders, ", ")))
	}
	if filters.AfterDate != nil {
		conditions = append(conditions, columnRef(alias, "created_at")+" > ?")
		args = append(args, formatTimestamp(*filters.AfterDate))
	}
	return conditions, args
}

func columnRef(alias, column string) string {
	if alias == "" {
		return column
	}
	return alias + "." + column
}

// quoteFTSQuery mirrors original_source's SearchRepository._quote_search_term:
// phrases containing FTS5 special characters are quoted and matched as a
// literal prefix.
func quoteFTSQuery(term string) string {
	term = strings.TrimSpace(strings.ToLower(term))
	if strings.ContainsAny(term, `/*-. ()[]"'`) {
		term = strings.ReplaceAll(term, `"`, `""`)
		return fmt.Sprintf(`"%s"*`, term)
	}
	return term + "*"
}

func scanIndexedRows(rows *sql.Rows) ([]IndexedRow, error) {
	var out []IndexedRow
	for rows.Next() {
		var row IndexedRow
		var typeStr, metadataJSON, createdAt, updatedAt string
		if err := rows.Scan(
			&row.ID, &row.ProjectID, &typeStr, &row.Title, &row.Content, &row.Permalink,
			&row.FilePath, &row.EntityType, &metadataJSON, &row.EntityID, &row.Category,
			&row.FromID, &row.ToID, &row.RelationType, &createdAt, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("searchindex: scan row: %w", err)
		}
		row.Type = ItemType(typeStr)
		if metadataJSON != "" && metadataJSON != "{}" {
			if err := json.Unmarshal([]byte(metadataJSON), &row.Metadata); err != nil {
				return nil, fmt.Errorf("searchindex: unmarshal metadata: %w", err)
			}
		}
		row.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		row.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		out = append(out, row)
	}
	return out, rows.Err()
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
