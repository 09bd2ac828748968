package store

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"

	"github.com/AHartTN/hypersphere/dedupcache"
	"github.com/AHartTN/hypersphere/errkind"
	"github.com/AHartTN/hypersphere/internal/hashing"
	"github.com/AHartTN/hypersphere/internal/model"
	"github.com/AHartTN/hypersphere/internal/sphere"
	"github.com/AHartTN/hypersphere/internal/typeatom"
	"github.com/AHartTN/hypersphere/store/copywire"
	"github.com/AHartTN/hypersphere/store/geo"
	"github.com/jackc/pgx/v5/pgxpool"
	"k8s.io/klog/v2"
)

//go:embed schema.sql
var schemaSQL string

// Store is the Postgres/PostGIS-backed NodeStore. It owns a connection pool
// and a process-local dedup cache consulted before every insert.
type Store struct {
	pool  *pgxpool.Pool
	cache *dedupcache.Cache
}

// Option configures a Store at Open time.
type Option func(*config)

type config struct {
	cacheCapacity int
	poolSize      int
}

// WithCacheCapacity bounds the number of (content_hash -> id) entries the
// in-process dedup cache retains. Defaults to 1,000,000 entries.
func WithCacheCapacity(n int) Option {
	return func(c *config) { c.cacheCapacity = n }
}

// WithPoolSize bounds the number of connections the underlying pgxpool may
// open. 0 leaves pgxpool's own default (based on GOMAXPROCS) in place.
func WithPoolSize(n int) Option {
	return func(c *config) { c.poolSize = n }
}

// Open connects to Postgres at dsn, applies the schema migration, and
// returns a ready Store. Schema application is idempotent ("CREATE TABLE IF
// NOT EXISTS"), so Open is safe to call on every process start.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	cfg := config{cacheCapacity: 1_000_000}
	for _, o := range opts {
		o(&cfg)
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errkind.Wrap(errkind.StoreIO, "parse store dsn: %v", err)
	}
	if cfg.poolSize > 0 {
		poolCfg.MaxConns = int32(cfg.poolSize)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errkind.Wrap(errkind.StoreIO, "connect to store: %v", err)
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, errkind.Wrap(errkind.StoreIO, "apply schema: %v", err)
	}

	cache, err := dedupcache.New(cfg.cacheCapacity)
	if err != nil {
		pool.Close()
		return nil, err
	}

	s := &Store{pool: pool, cache: cache}
	if err := s.warmUp(ctx); err != nil {
		klog.Warningf("dedup cache warm-up scan failed, starting cold: %v", err)
	}
	return s, nil
}

// warmUpLimit bounds the number of rows scanned to repopulate the cache on
// restart, per spec.md §3's "bounded warm-up scan".
const warmUpLimit = 2_000_000

func (s *Store) warmUp(ctx context.Context) error {
	rows, err := s.pool.Query(ctx,
		`SELECT content_hash, id FROM constant ORDER BY id DESC LIMIT $1`, warmUpLimit)
	if err != nil {
		return err
	}
	defer rows.Close()
	n := 0
	for rows.Next() {
		var hash []byte
		var id int64
		if err := rows.Scan(&hash, &id); err != nil {
			return err
		}
		var h model.ContentHash
		copy(h[:], hash)
		s.cache.Put(h, id)
		n++
	}
	klog.V(2).Infof("dedup cache warm-up: loaded %d constant hashes", n)
	return rows.Err()
}

func (s *Store) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}

// GetOrInsertConstant implements NodeStore.
func (s *Store) GetOrInsertConstant(ctx context.Context, seed model.Seed) (int64, error) {
	hash := constantHash(seed)
	if id, ok := s.cache.Get(hash); ok {
		return id, nil
	}

	pos := projectSeed(seed)
	hilbert := hilbertOf(pos)

	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO constant (seed_value, seed_type, content_hash, hilbert_high, hilbert_low, geom)
		VALUES ($1, $2, $3, $4, $5, ST_GeomFromEWKB($6))
		ON CONFLICT (content_hash) DO UPDATE SET content_hash = EXCLUDED.content_hash
		RETURNING id
	`, int64(seed.Value), int32(seed.Type), hash[:], int64(hilbert.High), int64(hilbert.Low), geo.EncodePointZM(pos)).Scan(&id)
	if err != nil {
		return 0, errkind.Wrap(errkind.StoreIO, "insert constant: %v", err)
	}

	s.cache.Put(hash, id)
	return id, nil
}

// GetOrInsertComposition implements NodeStore.
func (s *Store) GetOrInsertComposition(ctx context.Context, children []model.ChildRef, typeRef *int64, rule model.GeometryRule) (int64, error) {
	if len(children) == 0 {
		return 0, errkind.Wrap(errkind.PreconditionViolation, "composition must have at least one child")
	}
	for _, c := range children {
		if c.Multiplicity < 1 {
			return 0, errkind.Wrap(errkind.PreconditionViolation, "multiplicity must be >= 1, got %d", c.Multiplicity)
		}
		if !c.Child.IsConstant() && c.Child.CompositionID == nil {
			return 0, errkind.Wrap(errkind.PreconditionViolation, "child must reference a constant or composition")
		}
	}

	hash := hashingCompositionHash(children)
	if id, ok := s.cache.Get(hash); ok {
		return id, nil
	}

	id, err := s.insertComposition(ctx, hash, children, typeRef, rule)
	if err != nil {
		return 0, err
	}
	s.cache.Put(hash, id)
	return id, nil
}

// representativePositions resolves the Hilbert-decoded position of each
// child in children, in order, by reading back the child's hilbert_high /
// hilbert_low words from the constant or composition table and decoding
// them with sphere.DecodeHilbert. This is how a composition's own geometry
// and Hilbert index get derived from its children's positions, per spec.md
// §6's "composition geometry ... recommended: centroid for point-like
// compositions and LINESTRING ... through children" guidance.
func (s *Store) representativePositions(ctx context.Context, children []model.ChildRef) ([]model.Point4D, error) {
	points := make([]model.Point4D, len(children))
	for i, c := range children {
		var hi, lo int64
		var err error
		if c.Child.IsConstant() {
			err = s.pool.QueryRow(ctx, `SELECT hilbert_high, hilbert_low FROM constant WHERE id = $1`, *c.Child.ConstantID).Scan(&hi, &lo)
		} else {
			err = s.pool.QueryRow(ctx, `SELECT hilbert_high, hilbert_low FROM composition WHERE id = $1`, *c.Child.CompositionID).Scan(&hi, &lo)
		}
		if err != nil {
			return nil, errkind.Wrap(errkind.InvariantViolation, "resolve child position: %v", err)
		}
		points[i] = sphere.DecodeHilbert(model.Hilbert128{High: uint64(hi), Low: uint64(lo)})
	}
	return points, nil
}

func (s *Store) insertComposition(ctx context.Context, hash model.ContentHash, children []model.ChildRef, typeRef *int64, rule model.GeometryRule) (int64, error) {
	points, err := s.representativePositions(ctx, children)
	if err != nil {
		return 0, err
	}

	var geomEWKB []byte
	var repr model.Point4D
	switch rule {
	case model.GeometryLineString:
		geomEWKB = geo.EncodeLineStringZM(points)
		repr = geo.Centroid(points)
	default:
		rule = model.GeometryCentroid
		repr = geo.Centroid(points)
		geomEWKB = geo.EncodePointZM(repr)
	}
	hilbert := sphere.HilbertOf(repr)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, errkind.Wrap(errkind.StoreIO, "begin composition transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	row := tx.QueryRow(ctx, `
		INSERT INTO composition (content_hash, hilbert_high, hilbert_low, geom, geometry_rule, type_id)
		VALUES ($1, $2, $3, ST_GeomFromEWKB($4), $5, $6)
		ON CONFLICT (content_hash) DO UPDATE SET content_hash = EXCLUDED.content_hash
		RETURNING id
	`, hash[:], int64(hilbert.High), int64(hilbert.Low), geomEWKB, string(rule), typeRef)
	if err := row.Scan(&id); err != nil {
		return 0, errkind.Wrap(errkind.StoreIO, "insert composition: %v", err)
	}

	for i, c := range children {
		var constID, compID *int64
		if c.Child.IsConstant() {
			constID = c.Child.ConstantID
		} else {
			compID = c.Child.CompositionID
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO relation (composition_id, child_constant_id, child_composition_id, position, multiplicity)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (composition_id, position) DO NOTHING
		`, id, constID, compID, int32(i), c.Multiplicity)
		if err != nil {
			return 0, errkind.Wrap(errkind.InvariantViolation, "insert relation at position %d: %v", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, errkind.Wrap(errkind.StoreIO, "commit composition transaction: %v", err)
	}
	return id, nil
}

// LookupByHashBatch implements NodeStore.
func (s *Store) LookupByHashBatch(ctx context.Context, hashes []model.ContentHash) (map[model.ContentHash]int64, error) {
	result := make(map[model.ContentHash]int64, len(hashes))
	remaining := make([][]byte, 0, len(hashes))
	remainingIdx := make([]model.ContentHash, 0, len(hashes))

	for _, h := range hashes {
		if id, ok := s.cache.Get(h); ok {
			result[h] = id
			continue
		}
		remaining = append(remaining, append([]byte(nil), h[:]...))
		remainingIdx = append(remainingIdx, h)
	}
	if len(remaining) == 0 {
		return result, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT content_hash, id FROM constant WHERE content_hash = ANY($1)
		UNION ALL
		SELECT content_hash, id FROM composition WHERE content_hash = ANY($1)
	`, remaining)
	if err != nil {
		return nil, errkind.Wrap(errkind.StoreIO, "batch lookup: %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var raw []byte
		var id int64
		if err := rows.Scan(&raw, &id); err != nil {
			return nil, errkind.Wrap(errkind.StoreIO, "scan batch lookup row: %v", err)
		}
		var h model.ContentHash
		copy(h[:], raw)
		result[h] = id
		s.cache.Put(h, id)
	}
	return result, rows.Err()
}

// CopyBulkConstants implements BulkInserter by streaming rows through
// PostgreSQL's binary COPY protocol using the copywire encoding (spec.md
// §6), after first eliding hashes already present (spec.md §4.7 step 4).
// geom travels in the same row as every other column: constant.geom is
// NOT NULL, so a COPY that left it out would fail outright.
func (s *Store) CopyBulkConstants(ctx context.Context, rows []BulkConstantRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	hashes := make([]model.ContentHash, len(rows))
	for i, r := range rows {
		hashes[i] = r.ContentHash
	}
	existing, err := s.LookupByHashBatch(ctx, hashes)
	if err != nil {
		return 0, err
	}

	toInsert := make([]model.Constant, 0, len(rows))
	for _, r := range rows {
		if _, ok := existing[r.ContentHash]; ok {
			continue
		}
		toInsert = append(toInsert, model.Constant{
			Seed:        r.Seed,
			ContentHash: r.ContentHash,
			Hilbert:     r.Hilbert,
			Position:    r.Position,
		})
	}
	if len(toInsert) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	if err := s.RawCopyWriter(ctx, w, toInsert); err != nil {
		return 0, errkind.Wrap(errkind.StoreIO, "encode bulk copy constants: %v", err)
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return 0, errkind.Wrap(errkind.StoreIO, "acquire bulk copy connection: %v", err)
	}
	defer conn.Release()

	tag, err := conn.Conn().PgConn().CopyFrom(ctx, &buf,
		`COPY constant (seed_value, seed_type, content_hash, hilbert_high, hilbert_low, geom) FROM STDIN WITH (FORMAT BINARY)`)
	if err != nil {
		return 0, errkind.Wrap(errkind.StoreIO, "bulk copy constants: %v", err)
	}
	// ids are unknown post-COPY without a RETURNING-capable path; the cache
	// is repopulated lazily by the next LookupByHashBatch / warm-up scan
	// rather than guessed here.
	return int(tag.RowsAffected()), nil
}

// RawCopyWriter encodes rows in the raw COPY BINARY wire format copywire
// documents, as spec.md §6 names as the canonical on-wire format.
// CopyBulkConstants uses it to build the stream handed to PgConn.CopyFrom.
func (s *Store) RawCopyWriter(ctx context.Context, w *bufio.Writer, rows []model.Constant) error {
	if err := copywire.WriteHeader(w); err != nil {
		return err
	}
	for _, c := range rows {
		if err := copywire.WriteConstantRow(w, c); err != nil {
			return err
		}
	}
	if err := copywire.WriteTrailer(w); err != nil {
		return err
	}
	return w.Flush()
}

// ReconstructSeeds implements NodeStore.
func (s *Store) ReconstructSeeds(ctx context.Context, id int64) ([]model.Seed, error) {
	var seeds []model.Seed
	if err := s.reconstructInto(ctx, id, &seeds); err != nil {
		return nil, err
	}
	return seeds, nil
}

func (s *Store) reconstructInto(ctx context.Context, id int64, out *[]model.Seed) error {
	var seedValue int64
	var seedType int32
	err := s.pool.QueryRow(ctx,
		`SELECT seed_value, seed_type FROM constant WHERE id = $1`, id).Scan(&seedValue, &seedType)
	if err == nil {
		*out = append(*out, model.Seed{Type: model.SeedType(seedType), Value: uint64(seedValue)})
		return nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT child_constant_id, child_composition_id, multiplicity
		FROM relation WHERE composition_id = $1 ORDER BY position ASC
	`, id)
	if err != nil {
		return errkind.Wrap(errkind.InvariantViolation, "reconstruct id %d: %v", id, err)
	}
	defer rows.Close()

	type step struct {
		constID, compID *int64
		mult            int32
	}
	var steps []step
	for rows.Next() {
		var st step
		if err := rows.Scan(&st.constID, &st.compID, &st.mult); err != nil {
			return errkind.Wrap(errkind.InvariantViolation, "scan relation for %d: %v", id, err)
		}
		steps = append(steps, st)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(steps) == 0 {
		return errkind.Wrap(errkind.InvariantViolation, "id %d is neither a constant nor a composition with relations", id)
	}

	for _, st := range steps {
		var childID int64
		if st.constID != nil {
			childID = *st.constID
		} else {
			childID = *st.compID
		}
		for i := int32(0); i < st.mult; i++ {
			if err := s.reconstructInto(ctx, childID, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// TypeRefMetadata implements NodeStore. The substrate stores type-atom
// metadata as the reconstructed codepoint sequence of a small companion
// composition encoding "key=value;key=value" pairs, decoded here into a map.
func (s *Store) TypeRefMetadata(ctx context.Context, id int64) (map[string]string, error) {
	var typeID *int64
	err := s.pool.QueryRow(ctx, `SELECT type_id FROM composition WHERE id = $1`, id).Scan(&typeID)
	if err != nil {
		return nil, errkind.Wrap(errkind.StoreIO, "lookup type_id for %d: %v", id, err)
	}
	if typeID == nil {
		return nil, nil
	}
	seeds, err := s.ReconstructSeeds(ctx, *typeID)
	if err != nil {
		return nil, err
	}
	return typeatom.DecodeSeeds(seeds), nil
}

// Inspect implements NodeStore.
func (s *Store) Inspect(ctx context.Context, id int64) (NodeInfo, error) {
	var seedValue int64
	var seedType int32
	err := s.pool.QueryRow(ctx, `SELECT seed_value, seed_type FROM constant WHERE id = $1`, id).Scan(&seedValue, &seedType)
	if err == nil {
		return NodeInfo{IsConstant: true, Seed: model.Seed{Type: model.SeedType(seedType), Value: uint64(seedValue)}}, nil
	}

	var typeID *int64
	if err := s.pool.QueryRow(ctx, `SELECT type_id FROM composition WHERE id = $1`, id).Scan(&typeID); err != nil {
		return NodeInfo{}, errkind.Wrap(errkind.InvariantViolation, "id %d is neither a constant nor a composition: %v", id, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT child_constant_id, child_composition_id, multiplicity
		FROM relation WHERE composition_id = $1 ORDER BY position ASC
	`, id)
	if err != nil {
		return NodeInfo{}, errkind.Wrap(errkind.StoreIO, "inspect children of %d: %v", id, err)
	}
	defer rows.Close()

	var children []model.ChildRef
	for rows.Next() {
		var constID, compID *int64
		var mult int32
		if err := rows.Scan(&constID, &compID, &mult); err != nil {
			return NodeInfo{}, errkind.Wrap(errkind.InvariantViolation, "scan relation for %d: %v", id, err)
		}

		var child model.Child
		var hash []byte
		if constID != nil {
			child = model.Child{ConstantID: constID}
			err = s.pool.QueryRow(ctx, `SELECT content_hash FROM constant WHERE id = $1`, *constID).Scan(&hash)
		} else {
			child = model.Child{CompositionID: compID}
			err = s.pool.QueryRow(ctx, `SELECT content_hash FROM composition WHERE id = $1`, *compID).Scan(&hash)
		}
		if err != nil {
			return NodeInfo{}, errkind.Wrap(errkind.InvariantViolation, "resolve child hash for %d: %v", id, err)
		}

		var ch model.ContentHash
		copy(ch[:], hash)
		children = append(children, model.ChildRef{Child: child, ChildHash: ch, Multiplicity: mult})
	}
	if err := rows.Err(); err != nil {
		return NodeInfo{}, err
	}
	return NodeInfo{Children: children, TypeRef: typeID}, nil
}

func projectSeed(seed model.Seed) model.Point4D      { return sphere.Project(seed) }
func hilbertOf(p model.Point4D) model.Hilbert128     { return sphere.HilbertOf(p) }
func constantHash(seed model.Seed) model.ContentHash { return hashing.ConstantHash(seed) }
func hashingCompositionHash(children []model.ChildRef) model.ContentHash {
	return hashing.CompositionHash(children)
}
