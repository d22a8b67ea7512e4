package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/docpipe/docpipe/internal/core/domain"
)

// Indexer mirrors extracted entities into a neo4j graph so documents can be
// explored by shared names, organizations and terms. Indexing is optional
// and best-effort: the pipeline never fails because of it.
type Indexer struct {
	driver neo4j.DriverWithContext
}

func New(uri, user, password string) (*Indexer, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	return &Indexer{driver: driver}, nil
}

func (i *Indexer) Close(ctx context.Context) error {
	return i.driver.Close(ctx)
}

func (i *Indexer) IndexEntities(ctx context.Context, doc *domain.Document, entities domain.EntitySet) error {
	session := i.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `
MERGE (d:Document {id: $id})
SET d.filename = $filename, d.file_type = $fileType
`, map[string]any{
			"id":       doc.ID,
			"filename": doc.Filename,
			"fileType": string(doc.FileType),
		}); err != nil {
			return nil, err
		}

		batches := []struct {
			label  string
			values []string
		}{
			{"Name", entities.Names},
			{"Organization", entities.Organizations},
			{"DomainTerm", entities.DomainTerms},
		}
		for _, batch := range batches {
			if len(batch.values) == 0 {
				continue
			}
			query := fmt.Sprintf(`
MATCH (d:Document {id: $id})
UNWIND $values AS value
MERGE (e:%s {value: value})
MERGE (d)-[:MENTIONS]->(e)
`, batch.label)
			if _, err := tx.Run(ctx, query, map[string]any{
				"id":     doc.ID,
				"values": batch.values,
			}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("index entities for doc %d: %w", doc.ID, err)
	}
	return nil
}
