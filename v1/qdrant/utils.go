package qdrant

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Aleph-Alpha/vectorindexer/v1/codec"
	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

// Reserved payload fields. Everything else in a payload is a document tag.
const (
	payloadID   = "_id"
	payloadBlob = "_blob"
)

// idNamespace seeds the UUIDv5 point ids derived from document ids.
var idNamespace = uuid.MustParse("6f1c7a52-3c0e-4f7b-9d8e-2b1f0d6a9e41")

// pointID maps a document id onto a deterministic Qdrant point id.
func pointID(id string) *qdrant.PointId {
	return qdrant.NewID(uuid.NewSHA1(idNamespace, []byte(id)).String())
}

func pointIDs(ids []string) []*qdrant.PointId {
	out := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		out[i] = pointID(id)
	}
	return out
}

func distanceFor(m vectordb.Metric) (qdrant.Distance, error) {
	switch m {
	case vectordb.MetricIP:
		return qdrant.Distance_Dot, nil
	case vectordb.MetricL2:
		return qdrant.Distance_Euclid, nil
	case vectordb.MetricCosine:
		return qdrant.Distance_Cosine, nil
	case vectordb.MetricManhattan:
		return qdrant.Distance_Manhattan, nil
	}
	return 0, fmt.Errorf("[Qdrant] unsupported distance %q", m)
}

func fieldTypeFor(t vectordb.ColumnType) qdrant.FieldType {
	switch t {
	case vectordb.ColumnInt:
		return qdrant.FieldType_FieldTypeInteger
	case vectordb.ColumnFloat:
		return qdrant.FieldType_FieldTypeFloat
	case vectordb.ColumnBool:
		return qdrant.FieldType_FieldTypeBool
	case vectordb.ColumnDatetime:
		return qdrant.FieldType_FieldTypeDatetime
	default:
		return qdrant.FieldType_FieldTypeKeyword
	}
}

// readConsistency returns nil for Eventually, which leaves the engine default in place.
func readConsistency(level string) *qdrant.ReadConsistency {
	switch level {
	case ConsistencyStrong:
		return qdrant.NewReadConsistencyType(qdrant.ReadConsistencyType_All)
	case ConsistencyBounded:
		return qdrant.NewReadConsistencyType(qdrant.ReadConsistencyType_Quorum)
	case ConsistencyEventually:
		return nil
	default:
		return qdrant.NewReadConsistencyType(qdrant.ReadConsistencyType_Majority)
	}
}

func writeOrdering(level string) *qdrant.WriteOrdering {
	switch level {
	case ConsistencyStrong:
		return &qdrant.WriteOrdering{Type: qdrant.WriteOrderingType_Strong}
	case ConsistencyBounded, ConsistencyEventually:
		return &qdrant.WriteOrdering{Type: qdrant.WriteOrderingType_Weak}
	default:
		return &qdrant.WriteOrdering{Type: qdrant.WriteOrderingType_Medium}
	}
}

func validConsistency(level string) bool {
	switch level {
	case ConsistencyStrong, ConsistencySession, ConsistencyBounded, ConsistencyEventually:
		return true
	}
	return false
}

// wrapErr classifies an SDK error. Transport failures become vectordb.ErrConnection;
// everything else keeps its message under the operation name.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, vectordb.ErrConnection) {
		return err
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unavailable, codes.DeadlineExceeded:
			return vectordb.ConnectionError("[Qdrant] "+op, err)
		}
	}
	return fmt.Errorf("[Qdrant] %s failed: %w", op, err)
}

// buildPayload lays a document out as a Qdrant payload: the tags at the top level
// (so that filters and payload indexes see them) plus the reserved id and content
// fields. The vector travels separately.
func buildPayload(doc *vectordb.Document, c *codec.Codec) (map[string]*qdrant.Value, error) {
	stored := doc.Clone()
	stored.Vector = nil
	blob, err := c.Encode(stored)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]any, len(doc.Tags)+2)
	for k, v := range doc.Tags {
		if k == payloadID || k == payloadBlob {
			continue
		}
		nv, err := payloadValue(v)
		if err != nil {
			return nil, fmt.Errorf("tag %s of document %q: %w", k, doc.ID, err)
		}
		fields[k] = nv
	}
	fields[payloadID] = doc.ID
	fields[payloadBlob] = base64.StdEncoding.EncodeToString(blob)

	return qdrant.TryValueMap(fields)
}

// payloadValue converts a tag into something qdrant.NewValue accepts. Datetimes are
// stored in RFC 3339, the format Qdrant datetime indexes parse.
func payloadValue(v any) (any, error) {
	switch t := v.(type) {
	case nil, bool, int, int32, int64, uint, uint32, uint64, float32, float64, string:
		return v, nil
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano), nil
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			nv, err := payloadValue(e)
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			nv, err := payloadValue(e)
			if err != nil {
				return nil, err
			}
			out[k] = nv
		}
		return out, nil
	}

	// Typed slices and maps go through JSON to become []any / map[string]any.
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return generic, nil
}

// documentFromPayload restores a document from its payload and, when present, its
// stored vector.
func documentFromPayload(payload map[string]*qdrant.Value, vectors *qdrant.VectorsOutput, c *codec.Codec) (*vectordb.Document, error) {
	blobValue, ok := payload[payloadBlob]
	if !ok {
		return nil, fmt.Errorf("[Qdrant] point without %s payload (id %v)", payloadBlob, extractValue(payload[payloadID]))
	}
	raw, err := base64.StdEncoding.DecodeString(blobValue.GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] %w: %w", codec.ErrCorrupt, err)
	}
	doc, err := c.Decode(raw)
	if err != nil {
		return nil, err
	}
	doc.Vector = denseVector(vectors)
	return doc, nil
}

// denseVector reads the unnamed dense vector, preferring the typed field over the
// flat data field older servers fill.
func denseVector(vectors *qdrant.VectorsOutput) []float32 {
	out := vectors.GetVector()
	if data := out.GetDense().GetData(); len(data) > 0 {
		return data
	}
	if data := out.GetData(); len(data) > 0 { //nolint:staticcheck // servers before 1.13
		return data
	}
	return nil
}

// extractVectorDetails safely extracts the vector size and distance from a
// Qdrant CollectionInfo. Missing fields yield (0, 0).
func extractVectorDetails(info *qdrant.CollectionInfo) (int, qdrant.Distance) {
	if info == nil ||
		info.Config == nil ||
		info.Config.Params == nil ||
		info.Config.Params.VectorsConfig == nil ||
		info.Config.Params.VectorsConfig.Config == nil {
		return 0, 0
	}

	if cfg, ok := info.Config.Params.VectorsConfig.Config.(*qdrant.VectorsConfig_Params); ok {
		return int(cfg.Params.Size), cfg.Params.Distance
	}
	return 0, 0
}

func optionalUint64(v uint64) *uint64 {
	if v == 0 {
		return nil
	}
	return &v
}

func optionalUint32(v uint32) *uint32 {
	if v == 0 {
		return nil
	}
	return &v
}
