package qdrant

import (
	"context"
	"errors"
	"fmt"
	"time"

	qdrant "github.com/qdrant/go-client/qdrant"
	"golang.org/x/sync/errgroup"

	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

// Append ──────────────────────────────────────────────────────────────
// Append
// ──────────────────────────────────────────────────────────────
//
// Append upserts docs in chunks of BatchSize. Up to UploadParallelism chunks are
// in flight at once, and every chunk waits for the engine to apply it, so the
// records are visible when Append returns.
func (c *Collection) Append(ctx context.Context, docs []*vectordb.Document) (err error) {
	start := time.Now()
	defer func() { c.observeOperation("append", start, err, len(docs), nil) }()

	if err := c.check(); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}
	if err := vectordb.CheckDimension(docs, c.cfg.Dimension); err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, 0, len(docs))
	for _, d := range docs {
		if d == nil {
			continue
		}
		payload, err := buildPayload(d, c.codec)
		if err != nil {
			return err
		}
		points = append(points, &qdrant.PointStruct{
			Id:      pointID(d.ID),
			Vectors: qdrant.NewVectorsDense(d.Vector),
			Payload: payload,
		})
	}

	batchSize := c.cfg.batchSize()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.parallelism())
	for i := 0; i < len(points); i += batchSize {
		end := min(i+batchSize, len(points))
		chunk := points[i:end]
		g.Go(func() error {
			return c.upsertBatch(gctx, chunk)
		})
	}
	return g.Wait()
}

func (c *Collection) upsertBatch(ctx context.Context, points []*qdrant.PointStruct) error {
	_, err := c.api.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: c.cfg.CollectionName,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
		Ordering:       c.order,
	})
	if err != nil {
		return wrapErr(fmt.Sprintf("upsert batch of %d", len(points)), err)
	}
	return nil
}

// Replace overwrites docs in full. Point ids are derived from document ids, so an
// upsert of the new content replaces the old point including its payload.
func (c *Collection) Replace(ctx context.Context, docs []*vectordb.Document) error {
	return c.Append(ctx, docs)
}

// Get retrieves the stored documents, vectors included. Missing ids are absent
// from the result.
func (c *Collection) Get(ctx context.Context, ids []string) (out map[string]*vectordb.Document, err error) {
	start := time.Now()
	defer func() { c.observeOperation("get", start, err, len(out), nil) }()

	if err := c.check(); err != nil {
		return nil, err
	}
	out = make(map[string]*vectordb.Document, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	points, err := c.api.Get(ctx, &qdrant.GetPoints{
		CollectionName:  c.cfg.CollectionName,
		Ids:             pointIDs(ids),
		WithPayload:     qdrant.NewWithPayload(true),
		WithVectors:     qdrant.NewWithVectors(true),
		ReadConsistency: c.read,
	})
	if err != nil {
		return nil, wrapErr("get points", err)
	}

	for _, p := range points {
		doc, err := documentFromPayload(p.GetPayload(), p.GetVectors(), c.codec)
		if err != nil {
			return nil, err
		}
		out[doc.ID] = doc
	}
	return out, nil
}

// DeleteByIDs removes the given ids. Qdrant ignores ids it does not know.
func (c *Collection) DeleteByIDs(ctx context.Context, ids []string) (err error) {
	start := time.Now()
	defer func() { c.observeOperation("delete", start, err, len(ids), nil) }()

	if err := c.check(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	_, err = c.api.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: c.cfg.CollectionName,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(pointIDs(ids)...),
		Ordering:       c.order,
	})
	return wrapErr("delete points", err)
}

// Query runs all queries in one QueryBatch round trip.
//
// A non-positive Limit returns every candidate; the collection size is used as
// the engine limit in that case.
func (c *Collection) Query(ctx context.Context, queries [][]float32, opts vectordb.QueryOptions) (results [][]vectordb.Match, err error) {
	start := time.Now()
	defer func() {
		c.observeOperation("query", start, err, len(queries), map[string]interface{}{"limit": opts.Limit})
	}()

	if err := c.check(); err != nil {
		return nil, err
	}
	for i, q := range queries {
		if len(q) != c.cfg.Dimension {
			return nil, &vectordb.DimensionError{ID: fmt.Sprintf("query[%d]", i), Got: len(q), Want: c.cfg.Dimension}
		}
	}
	if len(queries) == 0 {
		return nil, nil
	}

	var filter *qdrant.Filter
	if opts.Filter != nil {
		fs, err := opts.Filter.Lower()
		if err != nil {
			return nil, fmt.Errorf("search filter %q cannot be pushed down to qdrant: %w", opts.Filter.Expression(), err)
		}
		if filter, err = convertFilterSet(fs); err != nil {
			return nil, err
		}
	}

	limit := opts.Limit
	if limit <= 0 {
		n, err := c.Count(ctx)
		if err != nil {
			return nil, err
		}
		limit = max(n, 1)
	}

	params := &qdrant.SearchParams{}
	if opts.Exact || c.cfg.IndexType == IndexFLAT {
		params.Exact = qdrant.PtrOf(true)
	}
	if opts.Ef > 0 {
		params.HnswEf = qdrant.PtrOf(uint64(opts.Ef))
	}

	requests := make([]*qdrant.QueryPoints, len(queries))
	for i, q := range queries {
		requests[i] = &qdrant.QueryPoints{
			CollectionName: c.cfg.CollectionName,
			Query:          qdrant.NewQueryDense(q),
			Filter:         filter,
			Params:         params,
			ScoreThreshold: opts.ScoreThreshold,
			Limit:          qdrant.PtrOf(uint64(limit)),
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(opts.WithVector),
		}
	}

	batches, err := c.api.QueryBatch(ctx, &qdrant.QueryBatchPoints{
		CollectionName:  c.cfg.CollectionName,
		QueryPoints:     requests,
		ReadConsistency: c.read,
	})
	if err != nil {
		return nil, wrapErr("query batch", err)
	}
	if len(batches) != len(queries) {
		return nil, fmt.Errorf("[Qdrant] query batch returned %d results for %d queries", len(batches), len(queries))
	}

	results = make([][]vectordb.Match, len(queries))
	for i, batch := range batches {
		matches := make([]vectordb.Match, 0, len(batch.GetResult()))
		for _, sp := range batch.GetResult() {
			doc, err := documentFromPayload(sp.GetPayload(), sp.GetVectors(), c.codec)
			if err != nil {
				return nil, err
			}
			if !opts.WithVector {
				doc.Vector = nil
			}
			matches = append(matches, vectordb.Match{
				ID:       doc.ID,
				Score:    sp.GetScore(),
				Metric:   c.cfg.Distance,
				Document: doc,
			})
		}
		results[i] = matches
	}
	return results, nil
}

// ScanByPredicate pages through the collection with Scroll. The predicate is
// pushed down when it lowers to a Qdrant filter; otherwise every record is fetched
// and the predicate is evaluated locally.
func (c *Collection) ScanByPredicate(ctx context.Context, pred vectordb.Predicate) (out []*vectordb.Document, err error) {
	start := time.Now()
	defer func() { c.observeOperation("scan", start, err, len(out), nil) }()

	if err := c.check(); err != nil {
		return nil, err
	}

	var (
		filter     *qdrant.Filter
		localMatch bool
	)
	if pred != nil {
		fs, lowerErr := pred.Lower()
		switch {
		case lowerErr == nil:
			if filter, err = convertFilterSet(fs); err != nil {
				return nil, err
			}
		case errors.Is(lowerErr, vectordb.ErrFilterSyntax):
			c.log.Debug("filter evaluated client side", lowerErr, map[string]interface{}{
				"filter": pred.Expression(),
			})
			localMatch = true
		default:
			return nil, lowerErr
		}
	}

	pageSize := uint32(c.cfg.batchSize())
	var offset *qdrant.PointId
	for {
		points, next, err := c.api.ScrollAndOffset(ctx, &qdrant.ScrollPoints{
			CollectionName:  c.cfg.CollectionName,
			Filter:          filter,
			Offset:          offset,
			Limit:           &pageSize,
			WithPayload:     qdrant.NewWithPayload(true),
			WithVectors:     qdrant.NewWithVectors(true),
			ReadConsistency: c.read,
		})
		if err != nil {
			return nil, wrapErr("scroll", err)
		}
		for _, p := range points {
			doc, err := documentFromPayload(p.GetPayload(), p.GetVectors(), c.codec)
			if err != nil {
				return nil, err
			}
			if localMatch && !pred.Match(doc.Tags) {
				continue
			}
			out = append(out, doc)
		}
		if next == nil {
			break
		}
		offset = next
	}
	return out, nil
}

// ClearAll deletes every point with an empty filter selector. The collection and
// its payload indexes remain.
func (c *Collection) ClearAll(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.observeOperation("clear", start, err, 0, nil) }()

	if err := c.check(); err != nil {
		return err
	}
	_, err = c.api.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: c.cfg.CollectionName,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelectorFilter(&qdrant.Filter{}),
		Ordering:       c.order,
	})
	return wrapErr("clear collection", err)
}

// Count returns the exact number of points.
func (c *Collection) Count(ctx context.Context) (int, error) {
	if err := c.check(); err != nil {
		return 0, err
	}
	n, err := c.api.Count(ctx, &qdrant.CountPoints{
		CollectionName:  c.cfg.CollectionName,
		Exact:           qdrant.PtrOf(true),
		ReadConsistency: c.read,
	})
	if err != nil {
		return 0, wrapErr("count", err)
	}
	return int(n), nil
}
