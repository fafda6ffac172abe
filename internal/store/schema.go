package store

// schema is applied at startup via CREATE TABLE IF NOT EXISTS, mirroring
// spec.md §6's logical schema. version tracks which migration has run.
const schema = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

CREATE TABLE IF NOT EXISTS config (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS regions (
	id   INTEGER PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS rooms (
	id          INTEGER PRIMARY KEY,
	description TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS exits (
	from_room INTEGER NOT NULL,
	direction INTEGER NOT NULL,
	to_room   INTEGER NOT NULL,
	PRIMARY KEY (from_room, direction)
);

CREATE TABLE IF NOT EXISTS room_regions (
	room   INTEGER NOT NULL,
	region INTEGER NOT NULL,
	PRIMARY KEY (room, region)
);

CREATE TABLE IF NOT EXISTS prototypes (
	id          INTEGER PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL,
	keywords    TEXT NOT NULL, -- comma-joined
	flags       INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS objects (
	id              INTEGER PRIMARY KEY,
	prototype_id    INTEGER NOT NULL,
	inherit_scripts INTEGER NOT NULL DEFAULT 0,
	name            TEXT,
	description     TEXT,
	flags           INTEGER,
	keywords        TEXT -- NULL means no override; comma-joined otherwise
);

CREATE TABLE IF NOT EXISTS room_objects (
	room   INTEGER NOT NULL,
	object INTEGER NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS player_inventories (
	player INTEGER NOT NULL,
	object INTEGER NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS players (
	id            INTEGER PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	description   TEXT NOT NULL,
	flags         INTEGER NOT NULL DEFAULT 0,
	room          INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS scripts (
	name TEXT PRIMARY KEY,
	code TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS attachments (
	owner_id   INTEGER NOT NULL,
	kind       TEXT NOT NULL, -- "room"|"object"|"player"|"prototype"
	script     TEXT NOT NULL,
	phase      INTEGER NOT NULL,
	timer_name TEXT NOT NULL DEFAULT '',
	trigger    TEXT NOT NULL
);
`

const currentSchemaVersion = 1
