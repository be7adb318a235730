package store

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS category_definitions (
    id                   INTEGER PRIMARY KEY,
    name                 TEXT NOT NULL UNIQUE,
    name_en              TEXT,
    parent_id            INTEGER REFERENCES category_definitions(id),
    category_type        TEXT NOT NULL CHECK (category_type IN ('income', 'expense', 'investment')),
    icon                 TEXT,
    color                TEXT
);

CREATE TABLE IF NOT EXISTS transactions (
    identifier             TEXT NOT NULL,
    vendor                 TEXT NOT NULL DEFAULT '',
    name                   TEXT NOT NULL,
    price                  REAL NOT NULL,
    date                   TEXT NOT NULL,
    status                 TEXT NOT NULL DEFAULT 'completed',
    category_definition_id INTEGER REFERENCES category_definitions(id),
    is_excluded            INTEGER NOT NULL DEFAULT 0,
    source_file            TEXT,
    PRIMARY KEY (identifier, vendor)
);

CREATE TABLE IF NOT EXISTS category_budgets (
    id                     INTEGER PRIMARY KEY,
    category_definition_id INTEGER NOT NULL UNIQUE REFERENCES category_definitions(id) ON DELETE CASCADE,
    period_type            TEXT NOT NULL DEFAULT 'monthly',
    budget_limit           REAL NOT NULL,
    is_active              INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS file_tracker (
    file_path            TEXT PRIMARY KEY,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);
CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions(category_definition_id);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS category_definitions (
    id                   BIGSERIAL PRIMARY KEY,
    name                 TEXT NOT NULL UNIQUE,
    name_en              TEXT,
    parent_id            BIGINT REFERENCES category_definitions(id),
    category_type        TEXT NOT NULL CHECK (category_type IN ('income', 'expense', 'investment')),
    icon                 TEXT,
    color                TEXT
);

CREATE TABLE IF NOT EXISTS transactions (
    identifier             TEXT NOT NULL,
    vendor                 TEXT NOT NULL DEFAULT '',
    name                   TEXT NOT NULL,
    price                  DOUBLE PRECISION NOT NULL,
    date                   TEXT NOT NULL,
    status                 TEXT NOT NULL DEFAULT 'completed',
    category_definition_id BIGINT REFERENCES category_definitions(id),
    is_excluded            INTEGER NOT NULL DEFAULT 0,
    source_file            TEXT,
    PRIMARY KEY (identifier, vendor)
);

CREATE TABLE IF NOT EXISTS category_budgets (
    id                     BIGSERIAL PRIMARY KEY,
    category_definition_id BIGINT NOT NULL UNIQUE REFERENCES category_definitions(id) ON DELETE CASCADE,
    period_type            TEXT NOT NULL DEFAULT 'monthly',
    budget_limit           DOUBLE PRECISION NOT NULL,
    is_active              INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS file_tracker (
    file_path            TEXT PRIMARY KEY,
    mtime_ns             BIGINT NOT NULL,
    size_bytes           BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);
CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions(category_definition_id);
`
