// ABOUTME: Batched persistence of synced records
// ABOUTME: A failed batch is logged and counted; later batches still run
package sync

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/harperreed/zohosync/db"
)

// batches splits rows into consecutive chunks of at most size.
func batches(rows []db.Record, size int) [][]db.Record {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][]db.Record
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		out = append(out, rows[start:end])
	}
	return out
}

// persist writes rows to table and returns how many rows were stored and how
// many batches failed.
func (s *Service) persist(ctx context.Context, table string, rows []db.Record) (int, int) {
	if s.records == nil || len(rows) == 0 {
		return 0, 0
	}

	persisted, failed := 0, 0
	for i, batch := range batches(rows, s.batchSize) {
		if err := s.records.InsertRows(ctx, table, batch); err != nil {
			failed++
			batchFailureCounter.WithLabelValues(table).Inc()
			s.log.WithFields(logrus.Fields{
				"table": table,
				"batch": i,
				"size":  len(batch),
				"error": err,
			}).Error("Failed to persist batch")
			continue
		}
		persisted += len(batch)
		s.log.WithFields(logrus.Fields{"table": table, "size": len(batch)}).Debug("Inserted batch")
	}
	return persisted, failed
}
