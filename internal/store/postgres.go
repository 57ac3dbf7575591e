// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"chit-chat/internal/feed"
	"chit-chat/internal/models"
	"chit-chat/internal/utils"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// notifyChannel is the single LISTEN/NOTIFY channel all table triggers
// publish to. The payload names the table so subscribers can filter.
const notifyChannel = "chitchat_changes"

// PostgresStore is the remote strategy: per-entity queries against the four
// relational tables, plus a change feed built on LISTEN/NOTIFY.
type PostgresStore struct {
	DB *sqlx.DB

	// Connection string kept for pq.Listener, which opens its own
	// dedicated connection per subscription.
	conninfo string
}

// NewPostgresStore creates a new PostgreSQL store connection
func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %v", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Ping the database to verify connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %v", err)
	}

	log.Println("Successfully connected to PostgreSQL!")

	return &PostgresStore{
		DB:       db,
		conninfo: connectionString,
	}, nil
}

// Close closes the database connection
func (p *PostgresStore) Close(ctx context.Context) error {
	log.Println("Closing PostgreSQL connection...")
	return p.DB.Close()
}

// InitializeTables creates all necessary tables, constraints and the
// change-notification triggers if they don't exist
func (p *PostgresStore) InitializeTables(ctx context.Context) error {
	// Users table
	_, err := p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			name VARCHAR(50) NOT NULL,
			email VARCHAR(100) UNIQUE NOT NULL,
			password_hash VARCHAR(100) NOT NULL,
			is_admin BOOLEAN DEFAULT FALSE NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			last_seen TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %v", err)
	}

	// Messages table. A private message always carries a target.
	_, err = p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS messages (
			id UUID PRIMARY KEY,
			user_id UUID REFERENCES users(id),
			user_name VARCHAR(50) NOT NULL,
			content TEXT NOT NULL,
			is_private BOOLEAN DEFAULT FALSE NOT NULL,
			target_user_id UUID REFERENCES users(id),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			CONSTRAINT private_has_target CHECK (NOT is_private OR target_user_id IS NOT NULL)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create messages table: %v", err)
	}

	// Reactions table. The unique constraint enforces toggle semantics.
	_, err = p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS message_reactions (
			id UUID PRIMARY KEY,
			message_id UUID REFERENCES messages(id) ON DELETE CASCADE,
			user_id UUID REFERENCES users(id),
			user_name VARCHAR(50) NOT NULL,
			emoji VARCHAR(16) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			UNIQUE (message_id, user_id, emoji)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create message_reactions table: %v", err)
	}

	// Seen receipts table. One receipt per (message, user).
	_, err = p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS message_seen (
			id UUID PRIMARY KEY,
			message_id UUID REFERENCES messages(id) ON DELETE CASCADE,
			user_id UUID REFERENCES users(id),
			user_name VARCHAR(50) NOT NULL,
			seen_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			UNIQUE (message_id, user_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create message_seen table: %v", err)
	}

	// Notification function and triggers feeding the change feed.
	_, err = p.DB.ExecContext(ctx, `
		CREATE OR REPLACE FUNCTION notify_chitchat_change() RETURNS trigger AS $$
		DECLARE
			row_id UUID;
		BEGIN
			IF TG_OP = 'DELETE' THEN
				row_id := OLD.id;
			ELSE
				row_id := NEW.id;
			END IF;
			PERFORM pg_notify('chitchat_changes', json_build_object(
				'table', TG_TABLE_NAME,
				'op', TG_OP,
				'id', row_id
			)::text);
			RETURN NULL;
		END;
		$$ LANGUAGE plpgsql
	`)
	if err != nil {
		return fmt.Errorf("failed to create notify function: %v", err)
	}

	for _, table := range []string{"messages", "message_reactions", "message_seen"} {
		_, err = p.DB.ExecContext(ctx, fmt.Sprintf(`
			DROP TRIGGER IF EXISTS %[1]s_notify ON %[1]s;
			CREATE TRIGGER %[1]s_notify
			AFTER INSERT OR DELETE ON %[1]s
			FOR EACH ROW EXECUTE FUNCTION notify_chitchat_change()
		`, table))
		if err != nil {
			return fmt.Errorf("failed to create notify trigger on %s: %v", table, err)
		}
	}

	log.Println("PostgreSQL tables and triggers initialized successfully")
	return nil
}

// Ready is the capability probe: a trivial read against the messages table.
func (p *PostgresStore) Ready(ctx context.Context) bool {
	var id uuid.UUID
	err := p.DB.QueryRowxContext(ctx, `SELECT id FROM messages LIMIT 1`).Scan(&id)
	return err == nil || err == sql.ErrNoRows
}

// FetchAll loads messages, reactions and receipts as three flat sets and
// joins them with the annotation reconciler.
func (p *PostgresStore) FetchAll(ctx context.Context) ([]*models.Message, error) {
	var messages []*models.Message
	err := p.DB.SelectContext(ctx, &messages, `
		SELECT id, user_id, user_name, content, is_private, target_user_id, created_at
		FROM messages
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, utils.NewStorageUnavailableError("fetch messages", err)
	}

	var reactions []*models.Reaction
	err = p.DB.SelectContext(ctx, &reactions, `
		SELECT id, message_id, user_id, user_name, emoji, created_at
		FROM message_reactions
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, utils.NewStorageUnavailableError("fetch reactions", err)
	}

	var receipts []*models.SeenReceipt
	err = p.DB.SelectContext(ctx, &receipts, `
		SELECT id, message_id, user_id, user_name, seen_at
		FROM message_seen
		ORDER BY seen_at ASC, id ASC
	`)
	if err != nil {
		return nil, utils.NewStorageUnavailableError("fetch seen receipts", err)
	}

	return feed.Merge(messages, reactions, receipts), nil
}

// SaveMessage inserts one message. ID and CreatedAt are assigned here when
// the caller left them zero.
func (p *PostgresStore) SaveMessage(ctx context.Context, msg *models.Message) error {
	if msg.IsPrivate && msg.TargetUserID == nil {
		return utils.NewAppError(utils.ErrInvalidInput, "Private message requires a target user", nil)
	}
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	_, err := p.DB.ExecContext(ctx, `
		INSERT INTO messages (id, user_id, user_name, content, is_private, target_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, msg.ID, msg.UserID, msg.UserName, msg.Content, msg.IsPrivate, msg.TargetUserID, msg.CreatedAt)
	if err != nil {
		return utils.NewStorageUnavailableError("save message", err)
	}
	return nil
}

// DeleteMessage removes a message; reactions and receipts cascade. A
// missing message is silently ignored.
func (p *PostgresStore) DeleteMessage(ctx context.Context, messageID uuid.UUID) error {
	_, err := p.DB.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, messageID)
	if err != nil {
		return utils.NewStorageUnavailableError("delete message", err)
	}
	return nil
}

// ToggleReaction flips the (message, user, emoji) reaction inside one
// transaction and reports the resulting state.
func (p *PostgresStore) ToggleReaction(ctx context.Context, messageID, userID uuid.UUID, userName, emoji string) (bool, error) {
	tx, err := p.DB.BeginTxx(ctx, nil)
	if err != nil {
		return false, utils.NewStorageUnavailableError("begin reaction transaction", err)
	}
	defer tx.Rollback() // Rollback is ignored if tx is committed.

	// Reacting to a message that is gone is a silent no-op.
	var exists bool
	err = tx.QueryRowxContext(ctx, `SELECT EXISTS (SELECT 1 FROM messages WHERE id = $1)`, messageID).Scan(&exists)
	if err != nil {
		return false, utils.NewStorageUnavailableError("check message exists", err)
	}
	if !exists {
		log.Printf("ToggleReaction: message %s no longer exists, ignoring", messageID)
		return false, nil
	}

	var existingID uuid.UUID
	err = tx.QueryRowxContext(ctx, `
		SELECT id FROM message_reactions
		WHERE message_id = $1 AND user_id = $2 AND emoji = $3
	`, messageID, userID, emoji).Scan(&existingID)

	active := false
	switch {
	case err == sql.ErrNoRows:
		// ON CONFLICT DO NOTHING absorbs the race where a concurrent
		// toggle wins the insert; either way the reaction is present
		// afterwards and the transaction stays healthy.
		res, execErr := tx.ExecContext(ctx, `
			INSERT INTO message_reactions (id, message_id, user_id, user_name, emoji, created_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			ON CONFLICT (message_id, user_id, emoji) DO NOTHING
		`, uuid.New(), messageID, userID, userName, emoji)
		if execErr != nil {
			return false, utils.NewStorageUnavailableError("insert reaction", execErr)
		}
		if n, raErr := res.RowsAffected(); raErr == nil && n == 0 {
			log.Printf("ToggleReaction: concurrent insert won for message %s, reaction already present", messageID)
		}
		active = true
	case err != nil:
		return false, utils.NewStorageUnavailableError("check existing reaction", err)
	default:
		_, err = tx.ExecContext(ctx, `DELETE FROM message_reactions WHERE id = $1`, existingID)
		if err != nil {
			return false, utils.NewStorageUnavailableError("delete reaction", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, utils.NewStorageUnavailableError("commit reaction toggle", err)
	}
	return active, nil
}

// RecordSeen inserts one receipt per (message, user), never for the
// author. Replays and missing messages are silent no-ops.
func (p *PostgresStore) RecordSeen(ctx context.Context, messageID, userID uuid.UUID, userName string) error {
	_, err := p.DB.ExecContext(ctx, `
		INSERT INTO message_seen (id, message_id, user_id, user_name, seen_at)
		SELECT $1, $2, $3, $4, NOW()
		WHERE EXISTS (SELECT 1 FROM messages WHERE id = $2 AND user_id <> $3)
		ON CONFLICT (message_id, user_id) DO NOTHING
	`, uuid.New(), messageID, userID, userName)
	if err != nil {
		return utils.NewStorageUnavailableError("record seen receipt", err)
	}
	return nil
}

// SaveUser inserts a new user. A duplicate email maps to ErrUserAlreadyExists.
func (p *PostgresStore) SaveUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if user.LastSeen.IsZero() {
		user.LastSeen = user.CreatedAt
	}

	_, err := p.DB.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, is_admin, created_at, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, user.ID, user.Name, user.Email, user.HashedPassword, user.IsAdmin, user.CreatedAt, user.LastSeen)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return utils.NewAppError(utils.ErrUserAlreadyExists, "User with this email already exists", err)
		}
		return utils.NewStorageUnavailableError("save user", err)
	}
	return nil
}

// GetUser retrieves a user by ID
func (p *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := p.DB.GetContext(ctx, &user, `
		SELECT id, name, email, password_hash, is_admin, created_at, last_seen
		FROM users WHERE id = $1
	`, id)
	if err == sql.ErrNoRows {
		return nil, utils.NewUserNotFoundError(id.String())
	}
	if err != nil {
		return nil, utils.NewStorageUnavailableError("get user", err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email
func (p *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := p.DB.GetContext(ctx, &user, `
		SELECT id, name, email, password_hash, is_admin, created_at, last_seen
		FROM users WHERE email = $1
	`, email)
	if err == sql.ErrNoRows {
		return nil, utils.NewUserNotFoundError(email)
	}
	if err != nil {
		return nil, utils.NewStorageUnavailableError("get user by email", err)
	}
	return &user, nil
}

// GetAllUsers returns every registered user
func (p *PostgresStore) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	err := p.DB.SelectContext(ctx, &users, `
		SELECT id, name, email, password_hash, is_admin, created_at, last_seen
		FROM users ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, utils.NewStorageUnavailableError("get all users", err)
	}
	return users, nil
}

// UpdateLastSeen stamps the user's last_seen column
func (p *PostgresStore) UpdateLastSeen(ctx context.Context, id uuid.UUID) error {
	_, err := p.DB.ExecContext(ctx, `UPDATE users SET last_seen = NOW() WHERE id = $1`, id)
	if err != nil {
		return utils.NewStorageUnavailableError("update last seen", err)
	}
	return nil
}

// Subscribe opens a dedicated LISTEN connection and streams change events
// until the returned cancel function is called or ctx is done. Every
// subscriber holds its own pq.Listener, so teardown of one screen never
// affects another.
func (p *PostgresStore) Subscribe(ctx context.Context) (<-chan feed.ChangeEvent, func(), error) {
	listener := pq.NewListener(p.conninfo, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Printf("Change feed listener event %v: %v", ev, err)
		}
	})
	if err := listener.Listen(notifyChannel); err != nil {
		listener.Close()
		return nil, nil, utils.NewStorageUnavailableError("listen on change feed", err)
	}

	events := make(chan feed.ChangeEvent, 16)
	stop := make(chan struct{})

	go func() {
		defer close(events)
		defer listener.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case n, ok := <-listener.Notify:
				if !ok {
					return
				}
				if n == nil {
					// Reconnect marker from pq; nothing to deliver.
					continue
				}
				var ev feed.ChangeEvent
				if err := json.Unmarshal([]byte(n.Extra), &ev); err != nil {
					log.Printf("Change feed: malformed payload %q: %v", n.Extra, err)
					continue
				}
				select {
				case events <- ev:
				default:
					// Subscriber is refreshing anyway; dropping a burst
					// notification loses nothing because every refresh
					// re-reads the full feed.
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() { close(stop) })
	}
	return events, cancel, nil
}
