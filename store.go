package givehub

import (
	"context"
	"log/slog"
	"sync"
)

// Snapshot is a point-in-time copy of the store's state, handed to
// subscribers after every transition.
type Snapshot struct {
	Campaigns     []Campaign
	Current       *Campaign
	SearchResults *SearchResponse
	Loading       bool
	Err           string
}

// Store is the shared cache of campaign entities backing every catalog
// and admin surface. It wraps a Client and commits each mutation to the
// cache only after the backend confirms the write; there are no
// optimistic pre-inserts and no rollbacks.
//
// Operations never return an error. On failure the backend's message is
// recorded and readable via Err, and the operation reports a nil/false
// sentinel. When two operations overlap, whichever response lands last
// determines the final state; the store does not tag or cancel
// superseded requests.
type Store struct {
	client Client
	logger *slog.Logger

	mu            sync.RWMutex
	campaigns     []Campaign
	current       *Campaign
	searchResults *SearchResponse
	loading       bool
	err           string

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// NewStore creates a store over the given client. A nil logger falls
// back to slog.Default. Each store instance is independent; tests and
// applications construct their own.
func NewStore(client Client, logger *slog.Logger) *Store {
	return &Store{
		client: client,
		logger: resolveLogger(logger),
		subs:   make(map[int]func(Snapshot)),
	}
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// Subscribe registers fn to run after every state transition, outside
// the store's lock. The returned cancel function removes the
// subscription.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify() {
	snap := s.Snapshot()

	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// Snapshot returns a copy of the full store state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Campaigns:     copyCampaigns(s.campaigns),
		Current:       copyCampaign(s.current),
		SearchResults: copySearchResults(s.searchResults),
		Loading:       s.loading,
		Err:           s.err,
	}
}

// Campaigns returns a copy of the cached campaign list in fetch order.
func (s *Store) Campaigns() []Campaign {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyCampaigns(s.campaigns)
}

// Current returns a copy of the currently selected campaign, or nil.
func (s *Store) Current() *Campaign {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyCampaign(s.current)
}

// SearchResults returns a copy of the last server-side search result,
// or nil when no search has run.
func (s *Store) SearchResults() *SearchResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySearchResults(s.searchResults)
}

// Loading reports whether an operation is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the message from the most recent failed operation, or ""
// after a success.
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Store) begin() {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()
	s.notify()
}

// finish records the outcome of an operation, applying commit to the
// cache only when the remote call succeeded.
func (s *Store) finish(op string, err error, commit func()) bool {
	s.mu.Lock()
	if err != nil {
		s.err = err.Error()
	} else if commit != nil {
		commit()
	}
	s.loading = false
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("campaign store operation failed", "op", op, "error", err)
	}

	s.notify()
	return err == nil
}

// FetchAll replaces the cached campaign list wholesale with the
// backend's collection. The current selection is left untouched.
func (s *Store) FetchAll(ctx context.Context) bool {
	s.begin()

	campaigns, err := s.client.ListCampaigns(ctx)

	return s.finish("fetch_all", err, func() {
		s.campaigns = campaigns
	})
}

// FetchCampaign loads one campaign and makes it the current selection.
// The cached list is not merged or touched.
func (s *Store) FetchCampaign(ctx context.Context, id int64) *Campaign {
	s.begin()

	campaign, err := s.client.FindCampaign(ctx, id)

	if !s.finish("fetch_campaign", err, func() {
		s.current = &campaign
	}) {
		return nil
	}

	return copyCampaign(&campaign)
}

// Create asks the backend to create the campaign and, only once the
// write is confirmed, appends the returned entity (with its
// server-assigned ID) to the cached list. A campaign whose ID is
// already cached is replaced in place instead, so the list stays unique
// by ID.
func (s *Store) Create(ctx context.Context, draft CampaignDraft, image *ImageUpload) *Campaign {
	s.begin()

	created, err := s.client.CreateCampaign(ctx, draft, image)

	if !s.finish("create", err, func() {
		if i := indexByID(s.campaigns, created.ID); i >= 0 {
			s.campaigns[i] = created
			return
		}
		s.campaigns = append(s.campaigns, created)
	}) {
		return nil
	}

	return copyCampaign(&created)
}

// Update applies a partial update remotely and, on confirmation,
// replaces the matching cached entry. The current selection is synced
// when it points at the same campaign.
func (s *Store) Update(ctx context.Context, id int64, patch CampaignPatch) *Campaign {
	s.begin()

	updated, err := s.client.UpdateCampaign(ctx, id, patch)

	if !s.finish("update", err, func() {
		if i := indexByID(s.campaigns, id); i >= 0 {
			s.campaigns[i] = updated
		}
		if s.current != nil && s.current.ID == id {
			s.current = &updated
		}
	}) {
		return nil
	}

	return copyCampaign(&updated)
}

// Delete removes the campaign remotely and, on confirmation, drops the
// matching cached entry. The current selection is cleared in the same
// transition when it points at the deleted campaign. A rejected delete
// (including an unknown ID) leaves the cache untouched and reports
// false.
func (s *Store) Delete(ctx context.Context, id int64) bool {
	s.begin()

	err := s.client.DeleteCampaign(ctx, id)

	return s.finish("delete", err, func() {
		if i := indexByID(s.campaigns, id); i >= 0 {
			s.campaigns = append(s.campaigns[:i], s.campaigns[i+1:]...)
		}
		if s.current != nil && s.current.ID == id {
			s.current = nil
		}
	})
}

// Search runs a server-side query and replaces the cached search
// results wholesale. The campaign list is not touched.
func (s *Store) Search(ctx context.Context, query string, page, size int) *SearchResponse {
	s.begin()

	results, err := s.client.SearchCampaigns(ctx, query, page, size)

	if !s.finish("search", err, func() {
		s.searchResults = &results
	}) {
		return nil
	}

	return copySearchResults(&results)
}

// AddMedia encodes the image, posts it to the campaign's media
// endpoint, and on confirmation appends the returned item to the
// current selection's media list when the IDs match. The entry inside
// the cached campaign list is intentionally left stale until the next
// FetchAll.
func (s *Store) AddMedia(ctx context.Context, campaignID int64, image ImageUpload) *Media {
	s.begin()

	encoded, err := EncodeImage(image)

	var media Media
	if err == nil {
		media, err = s.client.AddCampaignMedia(ctx, campaignID, encoded)
	}

	if !s.finish("add_media", err, func() {
		if s.current != nil && s.current.ID == campaignID {
			s.current.Media = append(s.current.Media, media)
		}
	}) {
		return nil
	}

	return &media
}

func indexByID(campaigns []Campaign, id int64) int {
	for i, c := range campaigns {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func copyCampaigns(campaigns []Campaign) []Campaign {
	if campaigns == nil {
		return nil
	}
	out := make([]Campaign, len(campaigns))
	copy(out, campaigns)
	return out
}

func copyCampaign(c *Campaign) *Campaign {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Media != nil {
		clone.Media = make([]Media, len(c.Media))
		copy(clone.Media, c.Media)
	}
	return &clone
}

func copySearchResults(r *SearchResponse) *SearchResponse {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Data = copyCampaigns(r.Data)
	return &clone
}
