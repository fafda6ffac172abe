// Package store provides SQLite-backed persistence for the world (spec.md
// §6), grounded on internal/store/sqlite_store.go's schema-as-constant,
// database/sql style. Unlike that teacher file, every Save runs inside a
// single write transaction over the whole dirty snapshot, per spec.md §5's
// "one write transaction per tick" rule.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"textworld/internal/logging"
	"textworld/internal/script"
	"textworld/internal/types"
	"textworld/internal/world"
)

// Store owns the database handle. All access is serialized by the control
// loop; Store itself adds no locking.
type Store struct {
	db  *sql.DB
	log *logging.Logger
}

// Open opens (creating if absent) the SQLite database at path and applies
// the schema and any pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // single-writer simulation task; avoid SQLITE_BUSY
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	s := &Store{db: db, log: logging.Get(logging.CategoryStore)}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	var version int
	row := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1")
	if err := row.Scan(&version); err != nil {
		if err != sql.ErrNoRows {
			return fmt.Errorf("read schema_version: %w", err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES (?)", currentSchemaVersion); err != nil {
			return fmt.Errorf("seed schema_version: %w", err)
		}
		return nil
	}
	if version < currentSchemaVersion {
		if _, err := s.db.Exec("UPDATE schema_version SET version = ?", currentSchemaVersion); err != nil {
			return fmt.Errorf("bump schema_version: %w", err)
		}
	}
	return nil
}

// maxRetries bounds the backoff loop spec.md §7 asks for on StoreError.
const maxRetries = 5

// SaveTick persists the entire world and every compiled script's source in
// a single transaction, retrying with backoff on failure.
func (s *Store) SaveTick(ctx context.Context, w *world.World, host *script.Host) error {
	scripts := host.Sources()
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(1<<attempt) * 10 * time.Millisecond):
			}
		}
		if err := s.saveOnce(w, scripts); err != nil {
			lastErr = err
			s.log.Warn("save attempt %d failed: %v", attempt+1, err)
			continue
		}
		return nil
	}
	return &types.StoreError{Cause: lastErr}
}

func (s *Store) saveOnce(w *world.World, scripts map[string]string) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, stmt := range []string{
		"DELETE FROM rooms", "DELETE FROM exits", "DELETE FROM room_regions", "DELETE FROM regions",
		"DELETE FROM prototypes", "DELETE FROM objects", "DELETE FROM room_objects",
		"DELETE FROM player_inventories", "DELETE FROM players", "DELETE FROM attachments",
		"DELETE FROM scripts",
	} {
		if _, err = tx.Exec(stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}

	if err = s.saveRooms(tx, w); err != nil {
		return err
	}
	if err = s.savePrototypes(tx, w); err != nil {
		return err
	}
	if err = s.saveObjects(tx, w); err != nil {
		return err
	}
	if err = s.savePlayers(tx, w); err != nil {
		return err
	}
	if err = s.saveAttachments(tx, w); err != nil {
		return err
	}
	if err = s.saveScripts(tx, scripts); err != nil {
		return err
	}
	if w.SpawnRoom != 0 {
		if _, err = tx.Exec("INSERT OR REPLACE INTO config(key,value) VALUES ('spawn_room', ?)", strconv.FormatUint(uint64(w.SpawnRoom), 10)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) saveRooms(tx *sql.Tx, w *world.World) error {
	for id, name := range w.Regions() {
		if _, err := tx.Exec("INSERT INTO regions(id,name) VALUES (?,?)", id, name); err != nil {
			return err
		}
	}
	for _, id := range w.AllRooms() {
		r, _ := w.Room(id)
		if _, err := tx.Exec("INSERT INTO rooms(id,description) VALUES (?,?)", id, r.Description); err != nil {
			return err
		}
		for dir, to := range r.Exits {
			if _, err := tx.Exec("INSERT INTO exits(from_room,direction,to_room) VALUES (?,?,?)", id, uint8(dir), to); err != nil {
				return err
			}
		}
		for _, region := range w.RoomRegions(id) {
			if _, err := tx.Exec("INSERT INTO room_regions(room,region) VALUES (?,?)", id, region); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) savePrototypes(tx *sql.Tx, w *world.World) error {
	for _, id := range w.AllPrototypes() {
		p, _ := w.Prototype(id)
		if _, err := tx.Exec("INSERT INTO prototypes(id,name,description,keywords,flags) VALUES (?,?,?,?,?)",
			id, p.Name, p.Description, strings.Join(p.Keywords, ","), uint32(p.Flags)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) saveObjects(tx *sql.Tx, w *world.World) error {
	for _, id := range w.AllObjects() {
		o, _ := w.Object(id)
		container, hasContainer := w.Container(id)
		if !hasContainer {
			container = 0
		}
		var name, desc, keywords sql.NullString
		var flags sql.NullInt64
		if o.Name != nil {
			name = sql.NullString{String: *o.Name, Valid: true}
		}
		if o.Description != nil {
			desc = sql.NullString{String: *o.Description, Valid: true}
		}
		if o.Keywords != nil {
			keywords = sql.NullString{String: strings.Join(*o.Keywords, ","), Valid: true}
		}
		if o.Flags != nil {
			flags = sql.NullInt64{Int64: int64(*o.Flags), Valid: true}
		}
		if _, err := tx.Exec("INSERT INTO objects(id,prototype_id,inherit_scripts,name,description,flags,keywords) VALUES (?,?,?,?,?,?,?)",
			id, o.PrototypeID, o.InheritScripts, name, desc, flags, keywords); err != nil {
			return err
		}
		if container != 0 {
			switch kind, _ := w.Kind(container); kind {
			case types.KindRoom:
				if _, err := tx.Exec("INSERT INTO room_objects(room,object) VALUES (?,?)", container, id); err != nil {
					return err
				}
			case types.KindPlayer:
				if _, err := tx.Exec("INSERT INTO player_inventories(player,object) VALUES (?,?)", container, id); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *Store) savePlayers(tx *sql.Tx, w *world.World) error {
	for _, id := range w.AllPlayers() {
		p, _ := w.Player(id)
		if _, err := tx.Exec("INSERT INTO players(id,username,password_hash,description,flags,room) VALUES (?,?,?,?,?,?)",
			id, p.Username, p.PasswordHash, p.Description, uint32(p.Flags), p.CurrentRoom); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) saveAttachments(tx *sql.Tx, w *world.World) error {
	for _, a := range w.AllAttachments() {
		kind, _ := w.Kind(a.Entity)
		if _, err := tx.Exec("INSERT INTO attachments(owner_id,kind,script,phase,timer_name,trigger) VALUES (?,?,?,?,?,?)",
			a.Entity, kind.String(), a.Script, uint8(a.Phase), a.TimerName, string(a.Trigger)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) saveScripts(tx *sql.Tx, scripts map[string]string) error {
	for name, code := range scripts {
		if _, err := tx.Exec("INSERT INTO scripts(name,code) VALUES (?,?)", name, code); err != nil {
			return err
		}
	}
	return nil
}

// Load reconstructs a World and the script-source table from the database.
// Used at boot and by round-trip tests.
func (s *Store) Load() (*world.World, map[string]string, error) {
	w := world.New()
	var highest types.EntityID

	rows, err := s.db.Query("SELECT id,description FROM rooms")
	if err != nil {
		return nil, nil, err
	}
	for rows.Next() {
		var id types.EntityID
		var desc string
		if err := rows.Scan(&id, &desc); err != nil {
			rows.Close()
			return nil, nil, err
		}
		w.LoadRoom(id, desc)
		highest = maxID(highest, id)
	}
	rows.Close()

	if err := s.loadExits(w); err != nil {
		return nil, nil, err
	}
	if err := s.loadRegions(w); err != nil {
		return nil, nil, err
	}
	if err := s.loadPrototypes(w, &highest); err != nil {
		return nil, nil, err
	}
	if err := s.loadObjects(w, &highest); err != nil {
		return nil, nil, err
	}
	if err := s.loadPlayers(w, &highest); err != nil {
		return nil, nil, err
	}
	if err := s.loadAttachments(w); err != nil {
		return nil, nil, err
	}

	w.SetNextID(highest)

	var spawnStr string
	if err := s.db.QueryRow("SELECT value FROM config WHERE key='spawn_room'").Scan(&spawnStr); err == nil {
		if n, err := strconv.ParseUint(spawnStr, 10, 64); err == nil {
			w.SetSpawnRoom(types.EntityID(n))
		}
	}

	scripts, err := s.loadScripts()
	if err != nil {
		return nil, nil, err
	}
	return w, scripts, nil
}

func (s *Store) loadExits(w *world.World) error {
	rows, err := s.db.Query("SELECT from_room,direction,to_room FROM exits")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var from, to types.EntityID
		var dir uint8
		if err := rows.Scan(&from, &dir, &to); err != nil {
			return err
		}
		w.LoadExit(from, types.Direction(dir), to)
	}
	return nil
}

func (s *Store) loadRegions(w *world.World) error {
	rows, err := s.db.Query("SELECT id,name FROM regions")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id world.RegionID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return err
		}
		w.LoadRegion(id, name)
	}
	rrRows, err := s.db.Query("SELECT room,region FROM room_regions")
	if err != nil {
		return err
	}
	defer rrRows.Close()
	for rrRows.Next() {
		var room types.EntityID
		var region world.RegionID
		if err := rrRows.Scan(&room, &region); err != nil {
			return err
		}
		w.LoadRoomRegion(room, region)
	}
	return nil
}

func (s *Store) loadPrototypes(w *world.World, highest *types.EntityID) error {
	rows, err := s.db.Query("SELECT id,name,description,keywords,flags FROM prototypes")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id types.EntityID
		var name, desc, keywords string
		var flags uint32
		if err := rows.Scan(&id, &name, &desc, &keywords, &flags); err != nil {
			return err
		}
		w.LoadPrototype(id, name, desc, splitCSV(keywords), types.Flags(flags))
		*highest = maxID(*highest, id)
	}
	return nil
}

func (s *Store) loadObjects(w *world.World, highest *types.EntityID) error {
	containers := map[types.EntityID]types.EntityID{}
	roRows, err := s.db.Query("SELECT room,object FROM room_objects")
	if err != nil {
		return err
	}
	for roRows.Next() {
		var room, obj types.EntityID
		if err := roRows.Scan(&room, &obj); err != nil {
			roRows.Close()
			return err
		}
		containers[obj] = room
	}
	roRows.Close()
	piRows, err := s.db.Query("SELECT player,object FROM player_inventories")
	if err != nil {
		return err
	}
	for piRows.Next() {
		var player, obj types.EntityID
		if err := piRows.Scan(&player, &obj); err != nil {
			piRows.Close()
			return err
		}
		containers[obj] = player
	}
	piRows.Close()

	rows, err := s.db.Query("SELECT id,prototype_id,inherit_scripts,name,description,flags,keywords FROM objects")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id, proto types.EntityID
		var inherit bool
		var name, desc, keywords sql.NullString
		var flags sql.NullInt64
		if err := rows.Scan(&id, &proto, &inherit, &name, &desc, &flags, &keywords); err != nil {
			return err
		}
		var namePtr, descPtr *string
		var flagsPtr *types.Flags
		var keywordsPtr *[]string
		if name.Valid {
			namePtr = &name.String
		}
		if desc.Valid {
			descPtr = &desc.String
		}
		if flags.Valid {
			f := types.Flags(flags.Int64)
			flagsPtr = &f
		}
		if keywords.Valid {
			kw := splitCSV(keywords.String)
			keywordsPtr = &kw
		}
		w.LoadObject(id, proto, inherit, namePtr, descPtr, flagsPtr, keywordsPtr, containers[id])
		*highest = maxID(*highest, id)
	}
	return nil
}

func (s *Store) loadPlayers(w *world.World, highest *types.EntityID) error {
	rows, err := s.db.Query("SELECT id,username,password_hash,description,flags,room FROM players")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id, room types.EntityID
		var username, passwordHash, desc string
		var flags uint32
		if err := rows.Scan(&id, &username, &passwordHash, &desc, &flags, &room); err != nil {
			return err
		}
		w.LoadPlayer(id, username, passwordHash, desc, types.Flags(flags), room)
		*highest = maxID(*highest, id)
	}
	return nil
}

func (s *Store) loadAttachments(w *world.World) error {
	rows, err := s.db.Query("SELECT owner_id,script,phase,timer_name,trigger FROM attachments")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var owner types.EntityID
		var script, timerName, trigger string
		var phase uint8
		if err := rows.Scan(&owner, &script, &phase, &timerName, &trigger); err != nil {
			return err
		}
		w.LoadAttachment(world.Attachment{Entity: owner, Script: script, Phase: types.Phase(phase), TimerName: timerName, Trigger: types.Trigger(trigger)})
	}
	return nil
}

func (s *Store) loadScripts() (map[string]string, error) {
	rows, err := s.db.Query("SELECT name,code FROM scripts")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var name, code string
		if err := rows.Scan(&name, &code); err != nil {
			return nil, err
		}
		out[name] = code
	}
	return out, nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func maxID(a, b types.EntityID) types.EntityID {
	if b > a {
		return b
	}
	return a
}
