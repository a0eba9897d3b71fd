package storage

const schema = `
-- One row per account. Credentials live in the external auth service; only
-- the scheduling settings are kept here.
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE,
    interval_multiplier REAL NOT NULL,
    initial_interval_minutes INTEGER NOT NULL,
    created_at DATETIME NOT NULL
);

-- A card is one vocabulary word owned by a user.
CREATE TABLE IF NOT EXISTS cards (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    word TEXT NOT NULL,
    created_at DATETIME NOT NULL,

    FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);

-- An example is one directional practice sentence with its own schedule.
CREATE TABLE IF NOT EXISTS examples (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    card_id INTEGER NOT NULL,
    direction TEXT NOT NULL, -- EN_RU or RU_EN
    prefix TEXT NOT NULL,
    focus TEXT NOT NULL,
    suffix TEXT NOT NULL,
    translation TEXT NOT NULL,
    interval_minutes REAL NOT NULL,
    next_review_at DATETIME NOT NULL,
    created_at DATETIME NOT NULL,

    FOREIGN KEY(card_id) REFERENCES cards(id) ON DELETE CASCADE
);

-- Append-only audit trail of settings changes. Written on every update,
-- never read back by the scheduler.
CREATE TABLE IF NOT EXISTS settings_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    changed_at DATETIME NOT NULL,
    interval_multiplier REAL NOT NULL,
    initial_interval_minutes INTEGER NOT NULL,

    FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_cards_user_id ON cards(user_id);
CREATE INDEX IF NOT EXISTS idx_examples_card_id ON examples(card_id);
CREATE INDEX IF NOT EXISTS idx_examples_next_review_at ON examples(next_review_at);
`
