package store

const schema = `
CREATE TABLE IF NOT EXISTS network_stats (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp DATETIME NOT NULL,
    app_name TEXT NOT NULL,
    bytes_sent INTEGER DEFAULT 0,
    bytes_recv INTEGER DEFAULT 0,
    connections INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_timestamp ON network_stats(timestamp);
CREATE INDEX IF NOT EXISTS idx_app_name ON network_stats(app_name);
`
