package admin

import (
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/playerxdx/Ayra/internal/botapi"
	"github.com/playerxdx/Ayra/internal/metrics"
)

const DefaultCacheTTL = 30 * time.Minute

type rosterEntry struct {
	records   []tgbotapi.ChatMember
	expiresAt time.Time
}

type botMemberEntry struct {
	member    tgbotapi.ChatMember
	expiresAt time.Time
}

// Cache is the TTL-bounded source of truth for per-chat admin rosters and
// the bot's own membership record. Entries are populated lazily on first
// miss and only ever invalidated by TTL expiry; membership changes inside
// the window are served stale.
//
// Locking is per chat: a burst of lookups for one cold chat collapses into
// a single roster fetch, while lookups for other chats proceed
// independently.
type Cache struct {
	api botapi.Client
	ttl time.Duration

	rosters     sync.Map // chatID -> *rosterEntry
	rosterLocks sync.Map // chatID -> *sync.Mutex
	botMembers  sync.Map // chatID -> *botMemberEntry
	botLocks    sync.Map // chatID -> *sync.Mutex

	now func() time.Time
}

func NewCache(api botapi.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		api: api,
		ttl: ttl,
		now: time.Now,
	}
}

func lockFor(locks *sync.Map, chatID int64) *sync.Mutex {
	mu, _ := locks.LoadOrStore(chatID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// AdminRoster returns the chat's administrator records, fetching and caching
// them on miss. A fetch failure propagates and leaves the cache unpopulated.
func (c *Cache) AdminRoster(chatID int64) ([]tgbotapi.ChatMember, error) {
	mu := lockFor(&c.rosterLocks, chatID)
	mu.Lock()
	defer mu.Unlock()

	if v, ok := c.rosters.Load(chatID); ok {
		entry := v.(*rosterEntry)
		if c.now().Before(entry.expiresAt) {
			metrics.IncAdminCacheLookup("hit")
			return entry.records, nil
		}
		c.rosters.Delete(chatID)
	}

	metrics.IncAdminCacheLookup("miss")
	records, err := c.api.GetChatAdministrators(chatID)
	if err != nil {
		return nil, err
	}
	c.rosters.Store(chatID, &rosterEntry{
		records:   records,
		expiresAt: c.now().Add(c.ttl),
	})
	return records, nil
}

// Member looks userID up in the chat's cached roster. Absence means the user
// is not an administrator of the chat.
func (c *Cache) Member(chatID, userID int64) (tgbotapi.ChatMember, bool, error) {
	records, err := c.AdminRoster(chatID)
	if err != nil {
		return tgbotapi.ChatMember{}, false, err
	}
	for _, rec := range records {
		if rec.User != nil && rec.User.ID == userID {
			return rec, true, nil
		}
	}
	return tgbotapi.ChatMember{}, false, nil
}

// BotMember returns the bot's own membership record for the chat.
func (c *Cache) BotMember(chatID int64) (tgbotapi.ChatMember, error) {
	mu := lockFor(&c.botLocks, chatID)
	mu.Lock()
	defer mu.Unlock()

	if v, ok := c.botMembers.Load(chatID); ok {
		entry := v.(*botMemberEntry)
		if c.now().Before(entry.expiresAt) {
			return entry.member, nil
		}
		c.botMembers.Delete(chatID)
	}

	member, err := c.api.GetChatMember(chatID, c.api.Self().ID)
	if err != nil {
		return tgbotapi.ChatMember{}, err
	}
	c.botMembers.Store(chatID, &botMemberEntry{
		member:    member,
		expiresAt: c.now().Add(c.ttl),
	})
	return member, nil
}
