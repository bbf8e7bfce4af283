package graph

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/notedive/notedive-backend/internal/domain"
	"github.com/notedive/notedive-backend/internal/pkg/logger"
	"github.com/notedive/notedive-backend/internal/platform/neo4jdb"
)

// UpsertThreadGraph mirrors a course's thread forest into Neo4j for
// graph-side exploration. Best effort: a nil client is a no-op and the
// Postgres rows stay the source of truth.
func UpsertThreadGraph(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, courseID uuid.UUID, threads []*domain.Thread) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	if courseID == uuid.Nil {
		return fmt.Errorf("neo4j thread graph sync: missing courseID")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	nodes := make([]map[string]any, 0, len(threads))
	edges := make([]map[string]any, 0, len(threads))
	for _, t := range threads {
		if t == nil || t.ID == uuid.Nil {
			continue
		}
		nodes = append(nodes, map[string]any{
			"id":               t.ID.String(),
			"course_id":        t.CourseID.String(),
			"face":             t.Face,
			"title":            t.Title,
			"summary":          t.Summary,
			"status":           t.Status,
			"complexity_level": int64(t.ComplexityLevel),
			"depth":            int64(t.Depth),
			"child_count":      int64(t.ChildCount),
		})
		if t.ParentID != nil && *t.ParentID != uuid.Nil {
			edges = append(edges, map[string]any{
				"child":  t.ID.String(),
				"parent": t.ParentID.String(),
			})
		}
	}
	if len(nodes) == 0 {
		return nil
	}

	if err := client.ExecuteWrite(ctx, `
		UNWIND $nodes AS n
		MERGE (t:Thread {id: n.id})
		SET t.course_id = n.course_id,
		    t.face = n.face,
		    t.title = n.title,
		    t.summary = n.summary,
		    t.status = n.status,
		    t.complexity_level = n.complexity_level,
		    t.depth = n.depth,
		    t.child_count = n.child_count
	`, map[string]any{"nodes": nodes}); err != nil {
		return fmt.Errorf("neo4j thread nodes upsert: %w", err)
	}

	if len(edges) > 0 {
		if err := client.ExecuteWrite(ctx, `
			UNWIND $edges AS e
			MATCH (child:Thread {id: e.child})
			MATCH (parent:Thread {id: e.parent})
			MERGE (parent)-[:PARENT_OF]->(child)
		`, map[string]any{"edges": edges}); err != nil {
			return fmt.Errorf("neo4j thread edges upsert: %w", err)
		}
	}

	if log != nil {
		log.Debug("Neo4j thread graph synced",
			"course_id", courseID, "nodes", len(nodes), "edges", len(edges))
	}
	return nil
}
